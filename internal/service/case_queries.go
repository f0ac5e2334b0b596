package service

import (
	"context"
	"fmt"

	"github.com/yourusername/detective-api/internal/domain/entity"
	"github.com/yourusername/detective-api/internal/domain/repository"
	"github.com/yourusername/detective-api/internal/handler/dto"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

func (s *CaseService) listViews(ctx context.Context, f repository.CaseFilter, viewer entity.Role) ([]dto.CaseView, error) {
	cases, err := s.caseRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return s.viewsOf(ctx, cases, viewer)
}

// CulpritAvailable - дела в статусе registered без преступника
func (s *CaseService) CulpritAvailable(ctx context.Context) ([]dto.CaseView, error) {
	return s.listViews(ctx, repository.CaseFilter{
		Statuses:     []entity.CaseStatus{entity.CaseStatusRegistered},
		CulpritUnset: true,
	}, entity.RoleCulprit)
}

// CulpritCases - дела преступника
func (s *CaseService) CulpritCases(ctx context.Context, culpritID uint) ([]dto.CaseView, error) {
	return s.listViews(ctx, repository.CaseFilter{CulpritID: &culpritID}, entity.RoleCulprit)
}

// PolicePending - сфабрикованные дела, которые еще никто не принял
func (s *CaseService) PolicePending(ctx context.Context) ([]dto.CaseView, error) {
	return s.listViews(ctx, repository.CaseFilter{
		Statuses:    []entity.CaseStatus{entity.CaseStatusFabricated},
		PoliceUnset: true,
	}, entity.RolePolice)
}

// PoliceCases - дела, принятые полицейским
func (s *CaseService) PoliceCases(ctx context.Context, policeID uint) ([]dto.CaseView, error) {
	return s.listViews(ctx, repository.CaseFilter{PoliceID: &policeID}, entity.RolePolice)
}

// ClientCases - дела, заказанные клиентом
func (s *CaseService) ClientCases(ctx context.Context, clientID uint) ([]dto.CaseView, error) {
	return s.listViews(ctx, repository.CaseFilter{ClientID: &clientID}, entity.RoleClient)
}

// DetectiveAssigned - дела детектива, ожидающие или получившие вердикт
func (s *CaseService) DetectiveAssigned(ctx context.Context, detectiveID uint) ([]dto.CaseView, error) {
	return s.listViews(ctx, repository.CaseFilter{
		DetectiveID: &detectiveID,
		Statuses:    []entity.CaseStatus{entity.CaseStatusAssigned, entity.CaseStatusGuessed},
	}, entity.RoleDetective)
}

// DetectiveCompleted - завершенные дела детектива
func (s *CaseService) DetectiveCompleted(ctx context.Context, detectiveID uint) ([]dto.CaseView, error) {
	return s.listViews(ctx, repository.CaseFilter{
		DetectiveID: &detectiveID,
		Statuses:    []entity.CaseStatus{entity.CaseStatusResultReady},
	}, entity.RoleDetective)
}

// FabricationDetails возвращает улики шаблона и кандидатов в ложные
// с подставленным никнеймом преступника.
func (s *CaseService) FabricationDetails(ctx context.Context, activeID, culpritID uint) (*dto.FabricationDetailsResponse, error) {
	culprit, err := s.requireRole(ctx, culpritID, entity.RoleCulprit)
	if err != nil {
		return nil, err
	}
	c, err := s.loadCase(ctx, activeID)
	if err != nil {
		return nil, err
	}
	if c.CulpritID != nil && !c.IsCulprit(culpritID) {
		return nil, fmt.Errorf("%w: case #%d belongs to another culprit", apperrors.ErrForbidden, activeID)
	}
	if c.Status != entity.CaseStatusRegistered {
		return nil, stateError(c, entity.CaseStatusRegistered)
	}
	tpl, err := s.templateOf(ctx, c)
	if err != nil {
		return nil, err
	}

	resp := &dto.FabricationDetailsResponse{
		ActiveID:          c.ID,
		CaseID:            tpl.ID,
		CaseTitle:         tpl.Title,
		CaseDescription:   tpl.Description,
		Status:            c.Status.Label(),
		StatusCode:        string(c.Status),
		OriginalEvidences: make([]dto.OriginalEvidenceDTO, 0, len(tpl.Evidences)),
		FakeCandidates:    make([]string, 0),
	}
	for _, e := range tpl.Evidences {
		text := e.Description
		if e.IsFakeCandidate {
			text = entity.ExpandPlaceholder(text, culprit.Nickname)
			resp.FakeCandidates = append(resp.FakeCandidates, text)
		}
		resp.OriginalEvidences = append(resp.OriginalEvidences, dto.OriginalEvidenceDTO{
			EvidenceID:      e.ID,
			Description:     text,
			IsFakeCandidate: e.IsFakeCandidate,
		})
	}
	return resp, nil
}

// InvestigationDetails возвращает поданные улики и подозреваемых участнику дела.
// Истинность улик и имя преступника раскрываются только после результата.
func (s *CaseService) InvestigationDetails(ctx context.Context, activeID, viewerID uint) (*dto.InvestigationDetailsResponse, error) {
	c, err := s.loadCase(ctx, activeID)
	if err != nil {
		return nil, err
	}
	if !c.IsParticipant(viewerID) {
		return nil, ErrNotParticipant
	}
	tpl, err := s.templateOf(ctx, c)
	if err != nil {
		return nil, err
	}
	evidence, err := s.caseRepo.ListEvidence(ctx, activeID)
	if err != nil {
		return nil, fmt.Errorf("list evidence of case #%d: %w", activeID, err)
	}

	resolved := c.Status == entity.CaseStatusResultReady
	resp := &dto.InvestigationDetailsResponse{
		ActiveID:        c.ID,
		CaseID:          tpl.ID,
		CaseTitle:       tpl.Title,
		CaseDescription: tpl.Description,
		Difficulty:      tpl.Difficulty,
		Status:          c.Status.Label(),
		StatusCode:      string(c.Status),
		Evidence:        make([]dto.EvidenceDTO, len(evidence)),
		Suspects:        tpl.SuspectNames(),
	}
	if resolved {
		resp.CulpritName = tpl.TrueCulpritName
	}
	for i, e := range evidence {
		resp.Evidence[i] = dto.EvidenceDTO{SubmitID: e.ID, EvidenceDescription: e.Description}
		if resolved {
			isTrue := e.IsTrueEvidence
			resp.Evidence[i].IsTrueEvidence = &isTrue
		}
	}
	return resp, nil
}

// ResultDetail возвращает итог дела. До вынесения результата - ErrResultNotReady.
func (s *CaseService) ResultDetail(ctx context.Context, activeID uint) (*dto.CaseResultResponse, error) {
	c, err := s.loadCase(ctx, activeID)
	if err != nil {
		return nil, err
	}
	return s.resultOf(ctx, c)
}
