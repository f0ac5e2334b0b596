package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/detective-api/internal/domain/entity"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create создает нового пользователя
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	if err := conn(ctx, r.db).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: nickname %q already taken", apperrors.ErrConflict, user.Nickname)
		}
		return err
	}
	return nil
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	var user entity.User
	err := conn(ctx, r.db).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByNickname возвращает пользователя по никнейму
func (r *UserRepo) GetByNickname(ctx context.Context, nickname string) (*entity.User, error) {
	var user entity.User
	err := conn(ctx, r.db).Where("nickname = ?", nickname).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDs возвращает пользователей по списку ID
func (r *UserRepo) GetByIDs(ctx context.Context, ids []uint) ([]entity.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []entity.User
	err := conn(ctx, r.db).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// ListByRole возвращает пользователей роли по убыванию счета
func (r *UserRepo) ListByRole(ctx context.Context, role entity.Role) ([]entity.User, error) {
	var users []entity.User
	err := conn(ctx, r.db).
		Where("role = ?", role).
		Order("score DESC, id ASC").
		Find(&users).Error
	return users, err
}

// AddScore атомарно увеличивает счет пользователя
func (r *UserRepo) AddScore(ctx context.Context, userID uint, delta int64) error {
	result := conn(ctx, r.db).Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumn("score", gorm.Expr("score + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: user #%d", apperrors.ErrNotFound, userID)
	}
	return nil
}
