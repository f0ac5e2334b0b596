package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/detective-api/internal/domain/entity"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

// CaseUpdate - поля, записываемые вместе со сменой статуса.
// Поля участников (CulpritID, PoliceID, DetectiveID) устанавливаются один раз:
// переход не пройдет, если в базе уже записан другой участник.
type CaseUpdate struct {
	CulpritID            *uint
	PoliceID             *uint
	DetectiveID          *uint
	CulpritGuess         *string
	Reasoning            *string
	SelectedFakeEvidence *string
	Result               *entity.CaseResult
	ResolvedAt           *time.Time
}

// CaseFilter задает выборку активных дел. Пустые поля не участвуют в фильтре.
type CaseFilter struct {
	ClientID     *uint
	CulpritID    *uint
	PoliceID     *uint
	DetectiveID  *uint
	Statuses     []entity.CaseStatus
	CulpritUnset bool
	PoliceUnset  bool
}

// ActiveCaseRepository хранит активные дела и поданные улики
type ActiveCaseRepository interface {
	Create(ctx context.Context, c *entity.ActiveCase) error
	// GetByID возвращает дело вместе с шаблоном (улики, подозреваемые)
	GetByID(ctx context.Context, id uint) (*entity.ActiveCase, error)
	// ExistsOpenForClient проверяет, есть ли у клиента незавершенное дело по шаблону
	ExistsOpenForClient(ctx context.Context, clientID, caseID uint) (bool, error)
	// Transition атомарно меняет статус from -> to.
	// Недопустимая пара from -> to отклоняется с apperrors.ErrInvalidState (см. CheckTransition).
	// Если статус уже изменен или участник занят, возвращает apperrors.ErrConflict.
	Transition(ctx context.Context, id uint, from, to entity.CaseStatus, upd CaseUpdate) error
	// ClaimCulprit закрепляет преступника за делом в статусе registered, если слот свободен
	ClaimCulprit(ctx context.Context, id, culpritID uint) error
	// ReplaceEvidence заменяет набор улик, поданных детективу
	ReplaceEvidence(ctx context.Context, activeID uint, evidence []entity.SubmittedEvidence) error
	ListEvidence(ctx context.Context, activeID uint) ([]entity.SubmittedEvidence, error)
	// List возвращает дела по фильтру, новые первыми
	List(ctx context.Context, f CaseFilter) ([]entity.ActiveCase, error)
	// ListStale возвращает дела в статусе status, не менявшиеся с before
	ListStale(ctx context.Context, status entity.CaseStatus, before time.Time, limit int) ([]entity.ActiveCase, error)
}

// CheckTransition проверяет пару статусов до обращения к хранилищу.
// Реализации ActiveCaseRepository вызывают ее первой строкой Transition.
func CheckTransition(from, to entity.CaseStatus) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: illegal transition %s -> %s", apperrors.ErrInvalidState, from, to)
	}
	return nil
}
