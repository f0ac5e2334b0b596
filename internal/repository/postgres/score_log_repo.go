package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/detective-api/internal/domain/entity"
)

// ScoreLogRepo реализует repository.ScoreLogRepository
type ScoreLogRepo struct {
	db *gorm.DB
}

// NewScoreLogRepo создает новый репозиторий журнала очков
func NewScoreLogRepo(db *gorm.DB) *ScoreLogRepo {
	return &ScoreLogRepo{db: db}
}

// Create записывает начисление
func (r *ScoreLogRepo) Create(ctx context.Context, log *entity.ScoreLog) error {
	return conn(ctx, r.db).Create(log).Error
}

// ListByUser возвращает журнал пользователя с пагинацией и общим количеством
func (r *ScoreLogRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]entity.ScoreLog, int64, error) {
	var total int64
	db := conn(ctx, r.db)
	if err := db.Model(&entity.ScoreLog{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []entity.ScoreLog
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
