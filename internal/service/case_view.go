package service

import (
	"context"
	"fmt"

	"github.com/yourusername/detective-api/internal/domain/entity"
	"github.com/yourusername/detective-api/internal/handler/dto"
)

// nicknames загружает никнеймы всех участников одним запросом
func (s *CaseService) nicknames(ctx context.Context, cases []entity.ActiveCase) (map[uint]string, error) {
	seen := make(map[uint]struct{})
	var ids []uint
	for i := range cases {
		for _, id := range cases[i].ParticipantIDs() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	for _, u := range users {
		names[u.ID] = u.Nickname
	}
	return names, nil
}

func (s *CaseService) viewOf(ctx context.Context, c *entity.ActiveCase, viewer entity.Role) (*dto.CaseView, error) {
	views, err := s.viewsOf(ctx, []entity.ActiveCase{*c}, viewer)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *CaseService) viewsOf(ctx context.Context, cases []entity.ActiveCase, viewer entity.Role) ([]dto.CaseView, error) {
	names, err := s.nicknames(ctx, cases)
	if err != nil {
		return nil, err
	}
	views := make([]dto.CaseView, len(cases))
	for i := range cases {
		views[i] = newCaseView(&cases[i], names, viewer)
	}
	return views, nil
}

// newCaseView строит представление дела для роли viewer.
// Ложную улику видит только преступник, пока дело не завершено.
// Догадка видна с момента guessed, истинный преступник и результат - только после result-ready.
func newCaseView(c *entity.ActiveCase, names map[uint]string, viewer entity.Role) dto.CaseView {
	v := dto.CaseView{
		ActiveID:       c.ID,
		CaseID:         c.CaseID,
		Status:         c.Status.Label(),
		StatusCode:     string(c.Status),
		ClientID:       c.ClientID,
		ClientNickname: names[c.ClientID],
		CulpritID:      c.CulpritID,
		PoliceID:       c.PoliceID,
		DetectiveID:    c.DetectiveID,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
	if c.CulpritID != nil {
		v.CulpritNickname = names[*c.CulpritID]
	}
	if c.PoliceID != nil {
		v.PoliceNickname = names[*c.PoliceID]
	}
	if c.DetectiveID != nil {
		v.DetectiveNickname = names[*c.DetectiveID]
	}

	resolved := c.Status == entity.CaseStatusResultReady
	if tpl := c.Template; tpl != nil {
		v.CaseTitle = tpl.Title
		v.CaseDescription = tpl.Description
		v.Difficulty = tpl.Difficulty
		if viewer == entity.RoleDetective {
			v.Suspects = tpl.SuspectNames()
		}
		if resolved {
			v.ActualCulprit = tpl.TrueCulpritName
		}
	}
	if viewer == entity.RoleCulprit || resolved {
		v.SelectedFakeEvidence = deref(c.SelectedFakeEvidence)
	}
	if c.Status.Rank() >= entity.CaseStatusGuessed.Rank() {
		v.CulpritGuess = deref(c.CulpritGuess)
		v.Reasoning = deref(c.Reasoning)
	}
	if resolved && c.Result != nil {
		v.Result = c.Result.Label()
		v.ResultCode = string(*c.Result)
	}
	return v
}

// resultOf строит итог завершенного дела
func (s *CaseService) resultOf(ctx context.Context, c *entity.ActiveCase) (*dto.CaseResultResponse, error) {
	if c.Status != entity.CaseStatusResultReady || c.Result == nil {
		return nil, fmt.Errorf("%w: case #%d is %s", ErrResultNotReady, c.ID, c.Status)
	}
	tpl, err := s.templateOf(ctx, c)
	if err != nil {
		return nil, err
	}
	names, err := s.nicknames(ctx, []entity.ActiveCase{*c})
	if err != nil {
		return nil, err
	}
	res := &dto.CaseResultResponse{
		ActiveID:             c.ID,
		CaseID:               c.CaseID,
		CaseTitle:            tpl.Title,
		CaseDescription:      tpl.Description,
		Difficulty:           tpl.Difficulty,
		CulpritGuess:         deref(c.CulpritGuess),
		Reasoning:            deref(c.Reasoning),
		ActualCulprit:        tpl.TrueCulpritName,
		SelectedFakeEvidence: deref(c.SelectedFakeEvidence),
		Result:               c.Result.Label(),
		ResultCode:           string(*c.Result),
		Status:               c.Status.Label(),
		StatusCode:           string(c.Status),
		ClientNickname:       names[c.ClientID],
		ResolvedAt:           c.ResolvedAt,
	}
	if c.CulpritID != nil {
		res.CulpritNickname = names[*c.CulpritID]
	}
	if c.PoliceID != nil {
		res.PoliceNickname = names[*c.PoliceID]
	}
	if c.DetectiveID != nil {
		res.DetectiveNickname = names[*c.DetectiveID]
	}
	return res, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
