package service

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yourusername/detective-api/internal/domain/entity"
	"github.com/yourusername/detective-api/internal/domain/repository"
	"github.com/yourusername/detective-api/internal/handler/dto"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

// maxReasoningLength - предел длины обоснования детектива в символах
const maxReasoningLength = 2000

// CaseNotifier получает события после фиксации перехода
type CaseNotifier interface {
	CaseUpdated(c *entity.ActiveCase)
	CaseAvailable(c *entity.ActiveCase, audience entity.Role)
}

// RankingInvalidator сбрасывает кеш рейтингов
type RankingInvalidator interface {
	Invalidate(ctx context.Context)
}

// ShuffleFunc перемешивает n элементов, совместима с rand.Shuffle
type ShuffleFunc func(n int, swap func(i, j int))

type noopNotifier struct{}

func (noopNotifier) CaseUpdated(*entity.ActiveCase) {}
func (noopNotifier) CaseAvailable(*entity.ActiveCase, entity.Role) {}

// CaseService ведет дело по жизненному циклу:
// registered -> fabricated -> accepted -> assigned -> guessed -> result-ready.
// Каждый переход выполняется в одной транзакции как compare-and-set по статусу.
type CaseService struct {
	tx           repository.Transactor
	templateRepo repository.CaseTemplateRepository
	caseRepo     repository.ActiveCaseRepository
	userRepo     repository.UserRepository
	scoreLogRepo repository.ScoreLogRepository
	policy       ScorePolicy
	notifier     CaseNotifier
	ranking      RankingInvalidator
	shuffle      ShuffleFunc
	now          func() time.Time
}

// NewCaseService создает сервис жизненного цикла дел
func NewCaseService(
	tx repository.Transactor,
	templateRepo repository.CaseTemplateRepository,
	caseRepo repository.ActiveCaseRepository,
	userRepo repository.UserRepository,
	scoreLogRepo repository.ScoreLogRepository,
	policy ScorePolicy,
) *CaseService {
	return &CaseService{
		tx:           tx,
		templateRepo: templateRepo,
		caseRepo:     caseRepo,
		userRepo:     userRepo,
		scoreLogRepo: scoreLogRepo,
		policy:       policy,
		notifier:     noopNotifier{},
		shuffle:      rand.Shuffle,
		now:          time.Now,
	}
}

// SetNotifier подключает рассылку событий дашбордам
func (s *CaseService) SetNotifier(n CaseNotifier) {
	if n == nil {
		n = noopNotifier{}
	}
	s.notifier = n
}

// SetRankingInvalidator подключает сброс кеша рейтингов при вынесении результата
func (s *CaseService) SetRankingInvalidator(r RankingInvalidator) {
	s.ranking = r
}

// SetShuffle заменяет перемешивание улик (в тестах - детерминированное)
func (s *CaseService) SetShuffle(fn ShuffleFunc) {
	if fn == nil {
		fn = rand.Shuffle
	}
	s.shuffle = fn
}

// StartCase создает дело по шаблону для клиента
func (s *CaseService) StartCase(ctx context.Context, clientID, caseID uint) (*dto.CaseView, error) {
	if _, err := s.requireRole(ctx, clientID, entity.RoleClient); err != nil {
		return nil, err
	}
	tpl, err := s.templateRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("case template #%d: %w", caseID, err)
	}

	active := &entity.ActiveCase{
		CaseID:   tpl.ID,
		ClientID: clientID,
		Status:   entity.CaseStatusRegistered,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		open, err := s.caseRepo.ExistsOpenForClient(ctx, clientID, tpl.ID)
		if err != nil {
			return err
		}
		if open {
			return ErrCaseAlreadyOpen
		}
		if err := s.caseRepo.Create(ctx, active); err != nil {
			if apperrors.Is(err, apperrors.ErrConflict) {
				return ErrCaseAlreadyOpen
			}
			return err
		}
		return s.applyAwards(ctx, active.ID, ScoreAward{UserID: clientID, Delta: s.policy.ClientStart, Reason: ReasonCaseStarted})
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[CaseService] Клиент #%d заказал дело #%d (шаблон #%d)", clientID, active.ID, tpl.ID)

	return s.afterTransition(ctx, active.ID, entity.RoleClient, entity.RoleCulprit)
}

// JoinAsCulprit закрепляет преступника за делом в статусе registered.
// Повторное присоединение того же преступника ничего не меняет.
func (s *CaseService) JoinAsCulprit(ctx context.Context, activeID, culpritID uint) (*dto.CaseView, error) {
	if _, err := s.requireRole(ctx, culpritID, entity.RoleCulprit); err != nil {
		return nil, err
	}
	c, err := s.loadCase(ctx, activeID)
	if err != nil {
		return nil, err
	}
	if c.Status != entity.CaseStatusRegistered {
		return nil, stateError(c, entity.CaseStatusRegistered)
	}
	if c.IsCulprit(culpritID) {
		return s.viewOf(ctx, c, entity.RoleCulprit)
	}
	if c.CulpritID != nil {
		return nil, ErrCulpritTaken
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.caseRepo.ClaimCulprit(ctx, activeID, culpritID); err != nil {
			return err
		}
		return s.applyAwards(ctx, activeID, ScoreAward{UserID: culpritID, Delta: s.policy.CulpritJoin, Reason: ReasonCulpritJoined})
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[CaseService] Преступник #%d присоединился к делу #%d", culpritID, activeID)

	return s.afterTransition(ctx, activeID, entity.RoleCulprit, entity.RoleCulprit)
}

// Fabricate подбрасывает ложную улику: 3 истинные + 1 выбранная попадают детективу.
// Если преступник еще не присоединялся, присоединение и фабрикация выполняются атомарно.
func (s *CaseService) Fabricate(ctx context.Context, activeID, culpritID uint, fakeDescription string) (*dto.CaseView, error) {
	culprit, err := s.requireRole(ctx, culpritID, entity.RoleCulprit)
	if err != nil {
		return nil, err
	}
	c, err := s.loadCase(ctx, activeID)
	if err != nil {
		return nil, err
	}
	if c.Status != entity.CaseStatusRegistered {
		return nil, stateError(c, entity.CaseStatusRegistered)
	}
	if c.CulpritID != nil && !c.IsCulprit(culpritID) {
		return nil, fmt.Errorf("%w: case #%d belongs to another culprit", apperrors.ErrForbidden, activeID)
	}
	if strings.TrimSpace(fakeDescription) == "" {
		return nil, ErrEmptyFakeEvidence
	}

	tpl, err := s.templateOf(ctx, c)
	if err != nil {
		return nil, err
	}
	candidate, ok := tpl.FindFakeCandidate(fakeDescription, culprit.Nickname)
	if !ok {
		return nil, ErrNotFakeCandidate
	}
	trueEvidence := tpl.TrueEvidences()
	if len(trueEvidence) != 3 {
		return nil, fmt.Errorf("%w: template #%d has %d true evidences", ErrTemplateNotPlayable, tpl.ID, len(trueEvidence))
	}

	fakeText := entity.ExpandPlaceholder(candidate.Description, culprit.Nickname)
	submitted := make([]entity.SubmittedEvidence, 0, len(trueEvidence)+1)
	for _, e := range trueEvidence {
		submitted = append(submitted, entity.SubmittedEvidence{ActiveID: activeID, Description: e.Description, IsTrueEvidence: true})
	}
	submitted = append(submitted, entity.SubmittedEvidence{ActiveID: activeID, Description: fakeText})
	s.shuffle(len(submitted), func(i, j int) { submitted[i], submitted[j] = submitted[j], submitted[i] })

	joining := c.CulpritID == nil
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if joining {
			if err := s.caseRepo.ClaimCulprit(ctx, activeID, culpritID); err != nil {
				return err
			}
			if err := s.applyAwards(ctx, activeID, ScoreAward{UserID: culpritID, Delta: s.policy.CulpritJoin, Reason: ReasonCulpritJoined}); err != nil {
				return err
			}
		}
		upd := repository.CaseUpdate{CulpritID: &culpritID, SelectedFakeEvidence: &fakeText}
		if err := s.caseRepo.Transition(ctx, activeID, entity.CaseStatusRegistered, entity.CaseStatusFabricated, upd); err != nil {
			return err
		}
		return s.caseRepo.ReplaceEvidence(ctx, activeID, submitted)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[CaseService] Преступник #%d сфабриковал улику в деле #%d", culpritID, activeID)

	return s.afterTransition(ctx, activeID, entity.RoleCulprit, entity.RolePolice)
}

// Accept - полиция принимает сфабрикованное дело. Из гонки выходит один победитель.
func (s *CaseService) Accept(ctx context.Context, activeID, policeID uint) (*dto.CaseView, error) {
	if _, err := s.requireRole(ctx, policeID, entity.RolePolice); err != nil {
		return nil, err
	}
	c, err := s.loadCase(ctx, activeID)
	if err != nil {
		return nil, err
	}
	if c.Status != entity.CaseStatusFabricated {
		return nil, stateError(c, entity.CaseStatusFabricated)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.caseRepo.Transition(ctx, activeID, entity.CaseStatusFabricated, entity.CaseStatusAccepted,
			repository.CaseUpdate{PoliceID: &policeID})
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[CaseService] Полицейский #%d принял дело #%d", policeID, activeID)

	return s.afterTransition(ctx, activeID, entity.RolePolice, entity.RolePolice)
}

// AssignDetective - принявший дело полицейский назначает детектива
func (s *CaseService) AssignDetective(ctx context.Context, activeID, policeID, detectiveID uint) (*dto.CaseView, error) {
	if _, err := s.requireRole(ctx, policeID, entity.RolePolice); err != nil {
		return nil, err
	}
	c, err := s.loadCase(ctx, activeID)
	if err != nil {
		return nil, err
	}
	if c.PoliceID != nil && !c.IsPolice(policeID) {
		return nil, fmt.Errorf("%w: case #%d was accepted by another police officer", apperrors.ErrForbidden, activeID)
	}
	if c.Status != entity.CaseStatusAccepted {
		return nil, stateError(c, entity.CaseStatusAccepted)
	}
	detective, err := s.userRepo.GetByID(ctx, detectiveID)
	if err != nil {
		return nil, fmt.Errorf("detective #%d: %w", detectiveID, err)
	}
	if !detective.HasRole(entity.RoleDetective) {
		return nil, ErrNotDetective
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		upd := repository.CaseUpdate{PoliceID: &policeID, DetectiveID: &detectiveID}
		if err := s.caseRepo.Transition(ctx, activeID, entity.CaseStatusAccepted, entity.CaseStatusAssigned, upd); err != nil {
			return err
		}
		return s.applyAwards(ctx, activeID,
			ScoreAward{UserID: policeID, Delta: s.policy.PoliceAssign, Reason: ReasonPoliceAssigned},
			ScoreAward{UserID: detectiveID, Delta: s.policy.DetectiveAssign, Reason: ReasonDetectiveAssigned},
		)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[CaseService] Полицейский #%d назначил детектива #%d на дело #%d", policeID, detectiveID, activeID)

	return s.afterTransition(ctx, activeID, entity.RolePolice, "")
}

// SubmitGuess принимает вердикт детектива и сразу выносит результат.
// Результат вычисляется на сервере по истинному преступнику шаблона.
func (s *CaseService) SubmitGuess(ctx context.Context, activeID, detectiveID uint, guess, reasoning string) (*dto.CaseResultResponse, error) {
	if _, err := s.requireRole(ctx, detectiveID, entity.RoleDetective); err != nil {
		return nil, err
	}
	c, err := s.loadCase(ctx, activeID)
	if err != nil {
		return nil, err
	}
	if c.DetectiveID != nil && !c.IsDetective(detectiveID) {
		return nil, fmt.Errorf("%w: case #%d is assigned to another detective", apperrors.ErrForbidden, activeID)
	}
	if c.Status != entity.CaseStatusAssigned {
		return nil, stateError(c, entity.CaseStatusAssigned)
	}

	guess = strings.TrimSpace(guess)
	reasoning = strings.TrimSpace(reasoning)
	if guess == "" {
		return nil, ErrEmptyGuess
	}
	if utf8.RuneCountInString(reasoning) > maxReasoningLength {
		return nil, ErrReasoningTooLong
	}
	tpl, err := s.templateOf(ctx, c)
	if err != nil {
		return nil, err
	}
	if !tpl.HasSuspect(guess) {
		return nil, ErrNotSuspect
	}

	result := entity.ComputeResult(guess, tpl.TrueCulpritName)
	resolvedAt := s.now()
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		guessed := repository.CaseUpdate{DetectiveID: &detectiveID, CulpritGuess: &guess}
		if reasoning != "" {
			guessed.Reasoning = &reasoning
		}
		if err := s.caseRepo.Transition(ctx, activeID, entity.CaseStatusAssigned, entity.CaseStatusGuessed, guessed); err != nil {
			return err
		}
		resolved := repository.CaseUpdate{Result: &result, ResolvedAt: &resolvedAt}
		if err := s.caseRepo.Transition(ctx, activeID, entity.CaseStatusGuessed, entity.CaseStatusResultReady, resolved); err != nil {
			return err
		}
		return s.applyAwards(ctx, activeID, s.policy.ResolveAwards(c, tpl.Difficulty, result)...)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[CaseService] Дело #%d раскрыто детективом #%d: догадка=%q, результат=%s", activeID, detectiveID, guess, result)

	if s.ranking != nil {
		s.ranking.Invalidate(ctx)
	}
	resolvedCase, err := s.loadCase(ctx, activeID)
	if err != nil {
		return nil, err
	}
	s.notifier.CaseUpdated(resolvedCase)
	return s.resultOf(ctx, resolvedCase)
}

// afterTransition перечитывает дело после коммита, рассылает события и строит ответ.
// Если pool не пуст, дело объявляется доступным этой роли.
func (s *CaseService) afterTransition(ctx context.Context, activeID uint, viewer, pool entity.Role) (*dto.CaseView, error) {
	c, err := s.loadCase(ctx, activeID)
	if err != nil {
		return nil, err
	}
	s.notifier.CaseUpdated(c)
	if pool != "" {
		s.notifier.CaseAvailable(c, pool)
	}
	return s.viewOf(ctx, c, viewer)
}

func (s *CaseService) requireRole(ctx context.Context, userID uint, role entity.Role) (*entity.User, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user #%d: %w", userID, err)
	}
	if !u.HasRole(role) {
		return nil, fmt.Errorf("%w: user #%d is %s, %s required", ErrWrongRole, userID, u.Role, role)
	}
	return u, nil
}

func (s *CaseService) loadCase(ctx context.Context, activeID uint) (*entity.ActiveCase, error) {
	c, err := s.caseRepo.GetByID(ctx, activeID)
	if err != nil {
		return nil, fmt.Errorf("active case #%d: %w", activeID, err)
	}
	return c, nil
}

// templateOf возвращает шаблон дела, догружая его, если репозиторий не подтянул связь
func (s *CaseService) templateOf(ctx context.Context, c *entity.ActiveCase) (*entity.CaseTemplate, error) {
	if c.Template != nil {
		return c.Template, nil
	}
	tpl, err := s.templateRepo.GetByID(ctx, c.CaseID)
	if err != nil {
		return nil, fmt.Errorf("case template #%d: %w", c.CaseID, err)
	}
	c.Template = tpl
	return tpl, nil
}

func stateError(c *entity.ActiveCase, want entity.CaseStatus) error {
	if c.Status.IsTerminal() {
		return fmt.Errorf("%w: case #%d is closed (%s)", apperrors.ErrInvalidState, c.ID, c.Status)
	}
	return fmt.Errorf("%w: case #%d is %s, expected %s", apperrors.ErrInvalidState, c.ID, c.Status, want)
}
