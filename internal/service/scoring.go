package service

import (
	"context"
	"fmt"

	"github.com/yourusername/detective-api/internal/config"
	"github.com/yourusername/detective-api/internal/domain/entity"
)

// Причины начислений, попадают в журнал очков
const (
	ReasonCaseStarted       = "case_started"
	ReasonCulpritJoined     = "culprit_joined"
	ReasonPoliceAssigned    = "detective_assigned"
	ReasonDetectiveAssigned = "assigned_to_case"
	ReasonCaseCleared       = "case_cleared"
	ReasonClientCleared     = "client_cleared_bonus"
	ReasonCulpritRevenge    = "culprit_revenge"
)

// ScorePolicy - таблица начисления очков
type ScorePolicy struct {
	ClientStart        int64
	CulpritJoin        int64
	PoliceAssign       int64
	DetectiveAssign    int64
	ResolveMultiplier  int64
	ClientClearedBonus int64
}

// DefaultScorePolicy совпадает со значениями по умолчанию в конфиге
func DefaultScorePolicy() ScorePolicy {
	return ScorePolicy{
		ClientStart:        1,
		CulpritJoin:        1,
		PoliceAssign:       2,
		DetectiveAssign:    1,
		ResolveMultiplier:  10,
		ClientClearedBonus: 5,
	}
}

// NewScorePolicy строит политику из секции scoring конфига
func NewScorePolicy(cfg config.ScoringConfig) ScorePolicy {
	return ScorePolicy{
		ClientStart:        cfg.ClientStart,
		CulpritJoin:        cfg.CulpritJoin,
		PoliceAssign:       cfg.PoliceAssign,
		DetectiveAssign:    cfg.DetectiveAssign,
		ResolveMultiplier:  cfg.ResolveMultiplier,
		ClientClearedBonus: cfg.ClientClearedBonus,
	}
}

// ScoreAward - одно начисление
type ScoreAward struct {
	UserID uint
	Delta  int64
	Reason string
}

// ResolveBase - базовая награда за раскрытие: сложность × множитель
func (p ScorePolicy) ResolveBase(difficulty int) int64 {
	if difficulty < 1 {
		difficulty = 1
	}
	return int64(difficulty) * p.ResolveMultiplier
}

// ResolveAwards возвращает начисления по итогу дела.
// cleared: детективу база, клиенту бонус. revenge: преступнику база.
func (p ScorePolicy) ResolveAwards(c *entity.ActiveCase, difficulty int, result entity.CaseResult) []ScoreAward {
	base := p.ResolveBase(difficulty)
	var awards []ScoreAward
	switch result {
	case entity.CaseResultCleared:
		if c.DetectiveID != nil {
			awards = append(awards, ScoreAward{UserID: *c.DetectiveID, Delta: base, Reason: ReasonCaseCleared})
		}
		awards = append(awards, ScoreAward{UserID: c.ClientID, Delta: p.ClientClearedBonus, Reason: ReasonClientCleared})
	case entity.CaseResultRevenge:
		if c.CulpritID != nil {
			awards = append(awards, ScoreAward{UserID: *c.CulpritID, Delta: base, Reason: ReasonCulpritRevenge})
		}
	}
	return awards
}

// applyAwards начисляет очки и пишет журнал. Вызывается внутри транзакции перехода.
func (s *CaseService) applyAwards(ctx context.Context, activeID uint, awards ...ScoreAward) error {
	for _, a := range awards {
		if a.Delta == 0 {
			continue
		}
		if err := s.userRepo.AddScore(ctx, a.UserID, a.Delta); err != nil {
			return fmt.Errorf("add score to user %d: %w", a.UserID, err)
		}
		entry := &entity.ScoreLog{UserID: a.UserID, ActiveID: activeID, Delta: a.Delta, Reason: a.Reason}
		if err := s.scoreLogRepo.Create(ctx, entry); err != nil {
			return fmt.Errorf("write score log for user %d: %w", a.UserID, err)
		}
	}
	return nil
}
