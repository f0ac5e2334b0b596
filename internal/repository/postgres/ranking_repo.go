package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/detective-api/internal/domain/entity"
	"github.com/yourusername/detective-api/internal/domain/repository"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

// participantColumn - колонка active_cases, по которой роль участвует в деле
var participantColumn = map[entity.Role]string{
	entity.RoleClient:    "client_id",
	entity.RoleCulprit:   "culprit_id",
	entity.RolePolice:    "police_id",
	entity.RoleDetective: "detective_id",
}

// RankingRepo реализует repository.RankingRepository
type RankingRepo struct {
	db *gorm.DB
}

// NewRankingRepo создает новый репозиторий рейтингов
func NewRankingRepo(db *gorm.DB) *RankingRepo {
	return &RankingRepo{db: db}
}

// RoleStats считает завершенные дела и успехи каждого пользователя роли
func (r *RankingRepo) RoleStats(ctx context.Context, role entity.Role) ([]repository.RoleStats, error) {
	column, ok := participantColumn[role]
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, role)
	}

	query := fmt.Sprintf(`
SELECT u.id AS user_id, u.nickname, u.role, u.score,
       COUNT(ac.id) AS total_cases,
       COUNT(ac.id) FILTER (WHERE ac.result = ?) AS success_count
FROM users u
LEFT JOIN active_cases ac ON ac.%s = u.id AND ac.status = ?
WHERE u.role = ?
GROUP BY u.id, u.nickname, u.role, u.score
ORDER BY u.score DESC, u.id ASC`, column)

	var stats []repository.RoleStats
	err := conn(ctx, r.db).
		Raw(query, role.SuccessResult(), entity.CaseStatusResultReady, role).
		Scan(&stats).Error
	return stats, err
}
