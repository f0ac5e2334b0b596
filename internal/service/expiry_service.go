package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/yourusername/detective-api/internal/config"
	"github.com/yourusername/detective-api/internal/domain/entity"
	"github.com/yourusername/detective-api/internal/domain/repository"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

// ExpiryService переводит зависшие дела в expired.
// registered - преступник так и не пришел, fabricated - полиция не приняла дело.
type ExpiryService struct {
	caseRepo  repository.ActiveCaseRepository
	cfg       config.ExpiryConfig
	notifier  CaseNotifier
	now       func() time.Time
	scheduler gocron.Scheduler
}

// NewExpiryService создает сервис истечения дел
func NewExpiryService(caseRepo repository.ActiveCaseRepository, cfg config.ExpiryConfig) *ExpiryService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &ExpiryService{
		caseRepo: caseRepo,
		cfg:      cfg,
		notifier: noopNotifier{},
		now:      time.Now,
	}
}

// SetNotifier подключает рассылку событий дашбордам
func (s *ExpiryService) SetNotifier(n CaseNotifier) {
	if n != nil {
		s.notifier = n
	}
}

// Enabled - включен ли хотя бы один TTL
func (s *ExpiryService) Enabled() bool {
	return s.cfg.RegisteredTTL > 0 || s.cfg.FabricatedTTL > 0
}

// Start запускает периодическую очистку. При нулевых TTL ничего не делает.
func (s *ExpiryService) Start() error {
	if !s.Enabled() {
		log.Printf("[ExpiryService] Истечение дел отключено (TTL = 0)")
		return nil
	}
	interval := s.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := s.Sweep(context.Background()); err != nil {
				log.Printf("[ExpiryService] Ошибка очистки: %v", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule expiry job: %w", err)
	}
	sched.Start()
	s.scheduler = sched
	log.Printf("[ExpiryService] Очистка запущена каждые %s (registered=%s, fabricated=%s)",
		interval, s.cfg.RegisteredTTL, s.cfg.FabricatedTTL)
	return nil
}

// Stop останавливает планировщик
func (s *ExpiryService) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.Shutdown()
}

// Sweep выполняет один проход и возвращает число истекших дел
func (s *ExpiryService) Sweep(ctx context.Context) (int, error) {
	expired := 0
	for _, rule := range []struct {
		status entity.CaseStatus
		ttl    time.Duration
	}{
		{entity.CaseStatusRegistered, s.cfg.RegisteredTTL},
		{entity.CaseStatusFabricated, s.cfg.FabricatedTTL},
	} {
		if rule.ttl <= 0 {
			continue
		}
		n, err := s.expire(ctx, rule.status, s.now().Add(-rule.ttl))
		expired += n
		if err != nil {
			return expired, err
		}
	}
	return expired, nil
}

func (s *ExpiryService) expire(ctx context.Context, status entity.CaseStatus, before time.Time) (int, error) {
	stale, err := s.caseRepo.ListStale(ctx, status, before, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale %s cases: %w", status, err)
	}
	count := 0
	for i := range stale {
		c := &stale[i]
		err := s.caseRepo.Transition(ctx, c.ID, status, entity.CaseStatusExpired, repository.CaseUpdate{})
		if err != nil {
			// дело успело сдвинуться дальше
			if apperrors.Is(err, apperrors.ErrConflict) {
				continue
			}
			return count, err
		}
		c.Status = entity.CaseStatusExpired
		s.notifier.CaseUpdated(c)
		count++
		log.Printf("[ExpiryService] Дело #%d истекло в статусе %s", c.ID, status)
	}
	return count, nil
}
