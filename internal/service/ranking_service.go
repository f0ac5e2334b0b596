package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/yourusername/detective-api/internal/domain/entity"
	"github.com/yourusername/detective-api/internal/domain/repository"
	"github.com/yourusername/detective-api/internal/handler/dto"
)

const (
	rankingCachePrefix = "ranking:"
	rankingCacheAll    = rankingCachePrefix + "all"
)

// rankingAliases - имена ролей в путях /ranking/{alias}
var rankingAliases = map[string]entity.Role{
	"clients":    entity.RoleClient,
	"culprits":   entity.RoleCulprit,
	"criminals":  entity.RoleCulprit,
	"police":     entity.RolePolice,
	"detectives": entity.RoleDetective,
}

// ParseRankingRole принимает как множественное число из пути, так и код или подпись роли
func ParseRankingRole(s string) (entity.Role, bool) {
	if role, ok := rankingAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return role, true
	}
	return entity.ParseRole(s)
}

// RankingService строит рейтинги ролей и кеширует их в Redis
type RankingService struct {
	rankingRepo repository.RankingRepository
	cache       repository.CacheRepository
	ttl         time.Duration
}

// NewRankingService создает сервис рейтингов. cache может быть nil.
func NewRankingService(rankingRepo repository.RankingRepository, cache repository.CacheRepository, ttl time.Duration) *RankingService {
	return &RankingService{
		rankingRepo: rankingRepo,
		cache:       cache,
		ttl:         ttl,
	}
}

// RoleRanking возвращает рейтинг роли: score DESC, при равенстве userId ASC.
// Место присваивается по порядку в ответе.
func (s *RankingService) RoleRanking(ctx context.Context, role entity.Role) ([]dto.RankingDTO, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	key := rankingCachePrefix + string(role)
	if cached, ok := s.fromCache(key); ok {
		return cached, nil
	}

	stats, err := s.rankingRepo.RoleStats(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("ranking for %s: %w", role, err)
	}
	sortStats(stats)
	rows := toRankingRows(stats)
	s.toCache(key, rows)
	return rows, nil
}

// AllRankings объединяет рейтинги всех ролей с тем же порядком
func (s *RankingService) AllRankings(ctx context.Context) ([]dto.RankingDTO, error) {
	if cached, ok := s.fromCache(rankingCacheAll); ok {
		return cached, nil
	}

	var all []repository.RoleStats
	for _, role := range entity.AllRoles() {
		stats, err := s.rankingRepo.RoleStats(ctx, role)
		if err != nil {
			return nil, fmt.Errorf("ranking for %s: %w", role, err)
		}
		all = append(all, stats...)
	}
	sortStats(all)
	rows := toRankingRows(all)
	s.toCache(rankingCacheAll, rows)
	return rows, nil
}

// Invalidate сбрасывает все закешированные рейтинги
func (s *RankingService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	keys := []string{rankingCacheAll}
	for _, role := range entity.AllRoles() {
		keys = append(keys, rankingCachePrefix+string(role))
	}
	if err := s.cache.Delete(keys...); err != nil {
		log.Printf("[RankingService] Не удалось сбросить кеш рейтингов: %v", err)
	}
}

func (s *RankingService) fromCache(key string) ([]dto.RankingDTO, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return nil, false
	}
	var rows []dto.RankingDTO
	if err := s.cache.GetJSON(key, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (s *RankingService) toCache(key string, rows []dto.RankingDTO) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	if err := s.cache.SetJSON(key, rows, s.ttl); err != nil {
		log.Printf("[RankingService] Не удалось закешировать %s: %v", key, err)
	}
}

func sortStats(stats []repository.RoleStats) {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Score != stats[j].Score {
			return stats[i].Score > stats[j].Score
		}
		return stats[i].UserID < stats[j].UserID
	})
}

func toRankingRows(stats []repository.RoleStats) []dto.RankingDTO {
	rows := make([]dto.RankingDTO, len(stats))
	for i, st := range stats {
		rows[i] = dto.RankingDTO{
			Rank:        i + 1,
			UserID:      st.UserID,
			Nickname:    st.Nickname,
			Role:        st.Role.Label(),
			RoleCode:    string(st.Role),
			Score:       st.Score,
			TotalCases:  st.TotalCases,
			SuccessRate: SuccessRate(st.SuccessCount, st.TotalCases),
		}
	}
	return rows
}

// SuccessRate - процент успешных дел с одним знаком после запятой, 0 при отсутствии дел
func SuccessRate(success, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(success)/float64(total)*1000) / 10
}
