package dto

import "time"

// LoginRequest - вход по никнейму. Role нужен только при первом входе.
type LoginRequest struct {
	Nickname string `json:"nickname" binding:"required"`
	Role     string `json:"role"`
}

// UserResponse - пользователь в формате дашбордов
type UserResponse struct {
	UserID   uint   `json:"userId"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`     // подпись роли (탐정, 경찰, ...)
	RoleCode string `json:"roleCode"` // канонический код (detective, police, ...)
	Score    int64  `json:"score"`
}

// LoginResponse возвращается при входе
type LoginResponse struct {
	UserResponse
	Token string `json:"token"`
	// RoleMismatch = true, если никнейм уже закреплен за другой ролью
	RoleMismatch  bool   `json:"roleMismatch"`
	RequestedRole string `json:"requestedRole,omitempty"`
	Created       bool   `json:"created"`
}

// ScoreLogDTO - одна запись журнала очков
type ScoreLogDTO struct {
	LogID       uint      `json:"logId"`
	ActiveID    uint      `json:"activeId"`
	ScoreChange int64     `json:"scoreChange"`
	Reason      string    `json:"reason"`
	LogTime     time.Time `json:"logTime"`
}

// PaginatedScoreLogResponse - страница журнала очков
type PaginatedScoreLogResponse struct {
	Logs    []ScoreLogDTO `json:"logs"`
	Total   int64         `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
}
