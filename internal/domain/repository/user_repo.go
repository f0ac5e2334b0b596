package repository

import (
	"context"

	"github.com/yourusername/detective-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	// Create создает пользователя. При занятом никнейме возвращает apperrors.ErrConflict.
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByNickname(ctx context.Context, nickname string) (*entity.User, error)
	// GetByIDs возвращает найденных пользователей; отсутствующие id пропускаются
	GetByIDs(ctx context.Context, ids []uint) ([]entity.User, error)
	// ListByRole возвращает пользователей роли в порядке рейтинга (score DESC, id ASC)
	ListByRole(ctx context.Context, role entity.Role) ([]entity.User, error)
	// AddScore атомарно прибавляет delta к счету (score = score + delta)
	AddScore(ctx context.Context, userID uint, delta int64) error
}
