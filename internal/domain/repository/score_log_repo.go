package repository

import (
	"context"

	"github.com/yourusername/detective-api/internal/domain/entity"
)

// ScoreLogRepository - журнал начислений очков
type ScoreLogRepository interface {
	Create(ctx context.Context, log *entity.ScoreLog) error
	// ListByUser возвращает записи пользователя (новые первыми) и их общее количество
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]entity.ScoreLog, int64, error)
}
