package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/detective-api/internal/domain/entity"
	"github.com/yourusername/detective-api/internal/domain/repository"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

// memStore - общее in-memory хранилище для фейковых репозиториев.
// Все изменения идут под одним мьютексом, поэтому Transition ведет себя как CAS в БД.
type memStore struct {
	mu        sync.Mutex
	users     map[uint]*entity.User
	templates map[uint]*entity.CaseTemplate
	cases     map[uint]*entity.ActiveCase
	evidence  map[uint][]entity.SubmittedEvidence
	logs      []entity.ScoreLog
	nextID    uint
	now       time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[uint]*entity.User),
		templates: make(map[uint]*entity.CaseTemplate),
		cases:     make(map[uint]*entity.ActiveCase),
		evidence:  make(map[uint][]entity.SubmittedEvidence),
		nextID:    100,
		now:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) addUser(id uint, nickname string, role entity.Role) *entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &entity.User{ID: id, Nickname: nickname, Role: role}
	m.users[id] = u
	return u
}

func (m *memStore) addTemplate(tpl *entity.CaseTemplate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[tpl.ID] = tpl
}

func (m *memStore) score(id uint) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].Score
}

func (m *memStore) caseByID(id uint) entity.ActiveCase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.cases[id]
}

// --- Transactor ---

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- UserRepository ---

type fakeUserRepo struct{ *memStore }

func (r fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Nickname == u.Nickname {
			return fmt.Errorf("%w: nickname %q", apperrors.ErrConflict, u.Nickname)
		}
	}
	u.ID = r.id()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r fakeUserRepo) GetByID(_ context.Context, id uint) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user #%d", apperrors.ErrNotFound, id)
	}
	cp := *u
	return &cp, nil
}

func (r fakeUserRepo) GetByNickname(_ context.Context, nickname string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Nickname == nickname {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r fakeUserRepo) GetByIDs(_ context.Context, ids []uint) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.User
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r fakeUserRepo) ListByRole(_ context.Context, role entity.Role) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r fakeUserRepo) AddScore(_ context.Context, userID uint, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Score += delta
	return nil
}

// --- CaseTemplateRepository ---

type fakeTemplateRepo struct{ *memStore }

func (r fakeTemplateRepo) List(_ context.Context) ([]entity.CaseTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.CaseTemplate
	for _, t := range r.templates {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeTemplateRepo) GetByID(_ context.Context, id uint) (*entity.CaseTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: case template #%d", apperrors.ErrNotFound, id)
	}
	return t, nil
}

func (r fakeTemplateRepo) GetByTitle(_ context.Context, title string) (*entity.CaseTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		if t.Title == title {
			return t, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r fakeTemplateRepo) Create(_ context.Context, tpl *entity.CaseTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tpl.ID = r.id()
	for i := range tpl.Evidences {
		tpl.Evidences[i].ID = r.id()
		tpl.Evidences[i].CaseID = tpl.ID
	}
	for i := range tpl.Suspects {
		tpl.Suspects[i].ID = r.id()
		tpl.Suspects[i].CaseID = tpl.ID
	}
	r.templates[tpl.ID] = tpl
	return nil
}

// --- ActiveCaseRepository ---

type fakeCaseRepo struct{ *memStore }

func (r fakeCaseRepo) withTemplate(c *entity.ActiveCase) entity.ActiveCase {
	cp := *c
	cp.Template = r.templates[c.CaseID]
	return cp
}

func (r fakeCaseRepo) Create(_ context.Context, c *entity.ActiveCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.id()
	c.CreatedAt = r.now
	c.UpdatedAt = r.now
	cp := *c
	cp.Template = nil
	r.cases[c.ID] = &cp
	return nil
}

func (r fakeCaseRepo) GetByID(_ context.Context, id uint) (*entity.ActiveCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok {
		return nil, fmt.Errorf("%w: active case #%d", apperrors.ErrNotFound, id)
	}
	cp := r.withTemplate(c)
	return &cp, nil
}

func (r fakeCaseRepo) ExistsOpenForClient(_ context.Context, clientID, caseID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cases {
		if c.ClientID == clientID && c.CaseID == caseID && !c.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func setOnce(dst **uint, v *uint) bool {
	if v == nil {
		return true
	}
	if *dst != nil && **dst != *v {
		return false
	}
	val := *v
	*dst = &val
	return true
}

func (r fakeCaseRepo) Transition(_ context.Context, id uint, from, to entity.CaseStatus, upd repository.CaseUpdate) error {
	if err := repository.CheckTransition(from, to); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok || c.Status != from {
		return fmt.Errorf("%w: case #%d is no longer %s", apperrors.ErrConflict, id, from)
	}
	next := *c
	if !setOnce(&next.CulpritID, upd.CulpritID) || !setOnce(&next.PoliceID, upd.PoliceID) || !setOnce(&next.DetectiveID, upd.DetectiveID) {
		return fmt.Errorf("%w: participant of case #%d is taken", apperrors.ErrConflict, id)
	}
	next.Status = to
	if upd.CulpritGuess != nil {
		next.CulpritGuess = upd.CulpritGuess
	}
	if upd.Reasoning != nil {
		next.Reasoning = upd.Reasoning
	}
	if upd.SelectedFakeEvidence != nil {
		next.SelectedFakeEvidence = upd.SelectedFakeEvidence
	}
	if upd.Result != nil {
		next.Result = upd.Result
	}
	if upd.ResolvedAt != nil {
		next.ResolvedAt = upd.ResolvedAt
	}
	next.UpdatedAt = r.now
	r.cases[id] = &next
	return nil
}

func (r fakeCaseRepo) ClaimCulprit(_ context.Context, id, culpritID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cases[id]
	if !ok || c.Status != entity.CaseStatusRegistered || c.CulpritID != nil {
		return fmt.Errorf("%w: culprit slot of case #%d is taken", apperrors.ErrConflict, id)
	}
	v := culpritID
	c.CulpritID = &v
	return nil
}

func (r fakeCaseRepo) ReplaceEvidence(_ context.Context, activeID uint, evidence []entity.SubmittedEvidence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]entity.SubmittedEvidence, len(evidence))
	for i, e := range evidence {
		e.ID = r.id()
		e.ActiveID = activeID
		stored[i] = e
	}
	r.evidence[activeID] = stored
	return nil
}

func (r fakeCaseRepo) ListEvidence(_ context.Context, activeID uint) ([]entity.SubmittedEvidence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.SubmittedEvidence(nil), r.evidence[activeID]...), nil
}

func matchID(want *uint, got *uint) bool {
	return want == nil || (got != nil && *got == *want)
}

func (r fakeCaseRepo) List(_ context.Context, f repository.CaseFilter) ([]entity.ActiveCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.ActiveCase
	for _, c := range r.cases {
		if f.ClientID != nil && c.ClientID != *f.ClientID {
			continue
		}
		if !matchID(f.CulpritID, c.CulpritID) || !matchID(f.PoliceID, c.PoliceID) || !matchID(f.DetectiveID, c.DetectiveID) {
			continue
		}
		if f.CulpritUnset && c.CulpritID != nil {
			continue
		}
		if f.PoliceUnset && c.PoliceID != nil {
			continue
		}
		if len(f.Statuses) > 0 {
			found := false
			for _, st := range f.Statuses {
				if st == c.Status {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, r.withTemplate(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r fakeCaseRepo) ListStale(_ context.Context, status entity.CaseStatus, before time.Time, limit int) ([]entity.ActiveCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.ActiveCase
	for _, c := range r.cases {
		if c.Status == status && c.UpdatedAt.Before(before) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- ScoreLogRepository ---

type fakeScoreLogRepo struct{ *memStore }

func (r fakeScoreLogRepo) Create(_ context.Context, l *entity.ScoreLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = r.id()
	l.CreatedAt = r.now
	r.logs = append(r.logs, *l)
	return nil
}

func (r fakeScoreLogRepo) ListByUser(_ context.Context, userID uint, limit, offset int) ([]entity.ScoreLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var mine []entity.ScoreLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].UserID == userID {
			mine = append(mine, r.logs[i])
		}
	}
	total := int64(len(mine))
	if offset >= len(mine) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(mine) {
		end = len(mine)
	}
	return mine[offset:end], total, nil
}

// --- CaseNotifier ---

type recordedEvent struct {
	kind     string
	activeID uint
	status   entity.CaseStatus
	audience entity.Role
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) CaseUpdated(c *entity.ActiveCase) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{kind: "updated", activeID: c.ID, status: c.Status})
}

func (n *recordingNotifier) CaseAvailable(c *entity.ActiveCase, audience entity.Role) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{kind: "available", activeID: c.ID, status: c.Status, audience: audience})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.kind + ":" + string(e.status)
		if e.audience != "" {
			out[i] += ":" + string(e.audience)
		}
	}
	return out
}
