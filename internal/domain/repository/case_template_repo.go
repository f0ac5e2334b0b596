package repository

import (
	"context"

	"github.com/yourusername/detective-api/internal/domain/entity"
)

// CaseTemplateRepository - реестр шаблонов дел
type CaseTemplateRepository interface {
	List(ctx context.Context) ([]entity.CaseTemplate, error)
	// GetByID возвращает шаблон вместе с уликами и подозреваемыми
	GetByID(ctx context.Context, id uint) (*entity.CaseTemplate, error)
	GetByTitle(ctx context.Context, title string) (*entity.CaseTemplate, error)
	// Create сохраняет шаблон со всеми уликами и подозреваемыми
	Create(ctx context.Context, tpl *entity.CaseTemplate) error
}
