package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/detective-api/internal/domain/entity"
	"github.com/yourusername/detective-api/internal/domain/repository"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

// ActiveCaseRepo реализует repository.ActiveCaseRepository
type ActiveCaseRepo struct {
	db *gorm.DB
}

// NewActiveCaseRepo создает новый репозиторий активных дел
func NewActiveCaseRepo(db *gorm.DB) *ActiveCaseRepo {
	return &ActiveCaseRepo{db: db}
}

// Create создает активное дело.
// Частичный уникальный индекс uniq_open_case_per_client не дает завести второе открытое дело.
func (r *ActiveCaseRepo) Create(ctx context.Context, c *entity.ActiveCase) error {
	if err := conn(ctx, r.db).Omit("Template").Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: client #%d already has an open case #%d", apperrors.ErrConflict, c.ClientID, c.CaseID)
		}
		return err
	}
	return nil
}

// GetByID возвращает активное дело с шаблоном
func (r *ActiveCaseRepo) GetByID(ctx context.Context, id uint) (*entity.ActiveCase, error) {
	var c entity.ActiveCase
	err := conn(ctx, r.db).
		Preload("Template").
		Preload("Template.Evidences", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Template.Suspects", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: active case #%d", apperrors.ErrNotFound, id)
		}
		return nil, err
	}
	return &c, nil
}

// ExistsOpenForClient проверяет наличие незавершенного дела клиента по шаблону
func (r *ActiveCaseRepo) ExistsOpenForClient(ctx context.Context, clientID, caseID uint) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.ActiveCase{}).
		Where("client_id = ? AND case_id = ?", clientID, caseID).
		Where("status NOT IN ?", []entity.CaseStatus{entity.CaseStatusResultReady, entity.CaseStatusExpired}).
		Count(&count).Error
	return count > 0, err
}

// Transition атомарно переводит дело from -> to (compare-and-set по статусу).
// RowsAffected == 0 означает, что статус уже сменился или участник занят другим пользователем.
func (r *ActiveCaseRepo) Transition(ctx context.Context, id uint, from, to entity.CaseStatus, upd repository.CaseUpdate) error {
	if err := repository.CheckTransition(from, to); err != nil {
		return err
	}
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	q := conn(ctx, r.db).Model(&entity.ActiveCase{}).
		Where("id = ? AND status = ?", id, from)

	setOnce := func(column string, v *uint) {
		if v == nil {
			return
		}
		updates[column] = *v
		q = q.Where("("+column+" IS NULL OR "+column+" = ?)", *v)
	}
	setOnce("culprit_id", upd.CulpritID)
	setOnce("police_id", upd.PoliceID)
	setOnce("detective_id", upd.DetectiveID)

	if upd.CulpritGuess != nil {
		updates["culprit_guess"] = *upd.CulpritGuess
	}
	if upd.Reasoning != nil {
		updates["reasoning"] = *upd.Reasoning
	}
	if upd.SelectedFakeEvidence != nil {
		updates["selected_fake_evidence"] = *upd.SelectedFakeEvidence
	}
	if upd.Result != nil {
		updates["result"] = *upd.Result
	}
	if upd.ResolvedAt != nil {
		updates["resolved_at"] = *upd.ResolvedAt
	}

	result := q.Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("transition case #%d %s -> %s failed: %w", id, from, to, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: case #%d is no longer %s", apperrors.ErrConflict, id, from)
	}
	return nil
}

// ClaimCulprit закрепляет преступника, если слот свободен и дело еще registered
func (r *ActiveCaseRepo) ClaimCulprit(ctx context.Context, id, culpritID uint) error {
	result := conn(ctx, r.db).Model(&entity.ActiveCase{}).
		Where("id = ? AND status = ? AND culprit_id IS NULL", id, entity.CaseStatusRegistered).
		Updates(map[string]interface{}{
			"culprit_id": culpritID,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("claim culprit for case #%d failed: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: culprit slot of case #%d is taken", apperrors.ErrConflict, id)
	}
	return nil
}

// ReplaceEvidence удаляет прежние улики дела и записывает новые
func (r *ActiveCaseRepo) ReplaceEvidence(ctx context.Context, activeID uint, evidence []entity.SubmittedEvidence) error {
	db := conn(ctx, r.db)
	if err := db.Where("active_id = ?", activeID).Delete(&entity.SubmittedEvidence{}).Error; err != nil {
		return err
	}
	if len(evidence) == 0 {
		return nil
	}
	for i := range evidence {
		evidence[i].ActiveID = activeID
	}
	return db.Create(&evidence).Error
}

// ListEvidence возвращает поданные улики в порядке записи
func (r *ActiveCaseRepo) ListEvidence(ctx context.Context, activeID uint) ([]entity.SubmittedEvidence, error) {
	var evidence []entity.SubmittedEvidence
	err := conn(ctx, r.db).Where("active_id = ?", activeID).Order("id ASC").Find(&evidence).Error
	return evidence, err
}

// List возвращает дела по фильтру вместе с шаблонами
func (r *ActiveCaseRepo) List(ctx context.Context, f repository.CaseFilter) ([]entity.ActiveCase, error) {
	q := conn(ctx, r.db).Model(&entity.ActiveCase{}).Preload("Template")
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}
	if f.CulpritID != nil {
		q = q.Where("culprit_id = ?", *f.CulpritID)
	}
	if f.PoliceID != nil {
		q = q.Where("police_id = ?", *f.PoliceID)
	}
	if f.DetectiveID != nil {
		q = q.Where("detective_id = ?", *f.DetectiveID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.CulpritUnset {
		q = q.Where("culprit_id IS NULL")
	}
	if f.PoliceUnset {
		q = q.Where("police_id IS NULL")
	}

	var cases []entity.ActiveCase
	err := q.Order("id DESC").Find(&cases).Error
	return cases, err
}

// ListStale возвращает дела, застрявшие в статусе дольше отведенного
func (r *ActiveCaseRepo) ListStale(ctx context.Context, status entity.CaseStatus, before time.Time, limit int) ([]entity.ActiveCase, error) {
	var cases []entity.ActiveCase
	err := conn(ctx, r.db).
		Where("status = ? AND updated_at < ?", status, before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&cases).Error
	return cases, err
}
