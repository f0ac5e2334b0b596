package entity

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role определяет фиксированную роль игрока
type Role string

// Константы ролей. Значение хранится в БД и в JWT.
const (
	RoleClient    Role = "client"
	RoleCulprit   Role = "culprit"
	RolePolice    Role = "police"
	RoleDetective Role = "detective"
)

// roleLabels - подписи ролей для дашбордов
var roleLabels = map[Role]string{
	RoleClient:    "의뢰인",
	RoleCulprit:   "범인",
	RolePolice:    "경찰",
	RoleDetective: "탐정",
}

// AllRoles возвращает роли в порядке отображения
func AllRoles() []Role {
	return []Role{RoleClient, RoleCulprit, RolePolice, RoleDetective}
}

// ParseRole принимает как канонический код ("detective"), так и подпись ("탐정")
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	r := Role(strings.ToLower(s))
	if _, ok := roleLabels[r]; ok {
		return r, true
	}
	for role, label := range roleLabels {
		if label == s {
			return role, true
		}
	}
	return "", false
}

// IsValid проверяет, что роль входит в закрытый набор
func (r Role) IsValid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label возвращает подпись роли
func (r Role) Label() string {
	return roleLabels[r]
}

// SuccessResult возвращает исход дела, который засчитывается роли как успех.
// Преступник выигрывает, когда детектив ошибся.
func (r Role) SuccessResult() CaseResult {
	if r == RoleCulprit {
		return CaseResultRevenge
	}
	return CaseResultCleared
}

// User представляет игрока. Роль закрепляется при первом входе и больше не меняется.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"userId"`
	Nickname  string    `gorm:"size:30;not null;uniqueIndex" json:"nickname"`
	Role      Role      `gorm:"size:20;not null;index" json:"role"`
	Score     int64     `gorm:"not null;default:0" json:"score"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// BeforeSave нормализует никнейм и не дает сохранить пользователя с неизвестной ролью
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Nickname = strings.TrimSpace(u.Nickname)
	if !u.Role.IsValid() {
		return fmt.Errorf("invalid role %q for user %q", u.Role, u.Nickname)
	}
	return nil
}

// HasRole проверяет роль пользователя
func (u *User) HasRole(role Role) bool {
	return u.Role == role
}
