package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/detective-api/internal/domain/entity"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

// CaseTemplateRepo реализует repository.CaseTemplateRepository
type CaseTemplateRepo struct {
	db *gorm.DB
}

// NewCaseTemplateRepo создает новый репозиторий шаблонов дел
func NewCaseTemplateRepo(db *gorm.DB) *CaseTemplateRepo {
	return &CaseTemplateRepo{db: db}
}

// List возвращает все шаблоны без улик
func (r *CaseTemplateRepo) List(ctx context.Context) ([]entity.CaseTemplate, error) {
	var templates []entity.CaseTemplate
	err := conn(ctx, r.db).Order("id ASC").Find(&templates).Error
	return templates, err
}

// GetByID возвращает шаблон с уликами и подозреваемыми
func (r *CaseTemplateRepo) GetByID(ctx context.Context, id uint) (*entity.CaseTemplate, error) {
	var tpl entity.CaseTemplate
	err := conn(ctx, r.db).
		Preload("Evidences", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Suspects", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&tpl, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: case template #%d", apperrors.ErrNotFound, id)
		}
		return nil, err
	}
	return &tpl, nil
}

// GetByTitle ищет шаблон по названию (используется сидером)
func (r *CaseTemplateRepo) GetByTitle(ctx context.Context, title string) (*entity.CaseTemplate, error) {
	var tpl entity.CaseTemplate
	err := conn(ctx, r.db).Where("title = ?", title).First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

// Create сохраняет шаблон вместе с ассоциациями
func (r *CaseTemplateRepo) Create(ctx context.Context, tpl *entity.CaseTemplate) error {
	if err := conn(ctx, r.db).Create(tpl).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: case template %q", apperrors.ErrConflict, tpl.Title)
		}
		return err
	}
	return nil
}
