package repository

import (
	"context"

	"github.com/yourusername/detective-api/internal/domain/entity"
)

// RoleStats - агрегат по пользователю роли для построения рейтинга
type RoleStats struct {
	UserID       uint
	Nickname     string
	Role         entity.Role
	Score        int64
	TotalCases   int64
	SuccessCount int64
}

// RankingRepository считает статистику завершенных дел
type RankingRepository interface {
	// RoleStats возвращает всех пользователей роли, упорядоченных по score DESC, id ASC
	RoleStats(ctx context.Context, role entity.Role) ([]RoleStats, error)
}
