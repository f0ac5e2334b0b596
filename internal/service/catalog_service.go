package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/detective-api/internal/domain/entity"
	"github.com/yourusername/detective-api/internal/domain/repository"
	"github.com/yourusername/detective-api/internal/handler/dto"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

// Ограничения длины совпадают с колонками схемы
const (
	maxTitleLength              = 100
	maxTemplateDescriptionLen   = 2000
	maxEvidenceLength           = 500
	maxSuspectNameLength        = 50
	maxSuspectDescriptionLength = 300
)

// SuspectSeed - подозреваемый в файле шаблонов
type SuspectSeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// TemplateSeed - шаблон дела в файле configs/cases.yaml
type TemplateSeed struct {
	Title          string        `yaml:"title"`
	Description    string        `yaml:"description"`
	Difficulty     int           `yaml:"difficulty"`
	TrueCulprit    string        `yaml:"trueCulprit"`
	Evidences      []string      `yaml:"evidences"`
	FakeCandidates []string      `yaml:"fakeCandidates"`
	Suspects       []SuspectSeed `yaml:"suspects"`
}

type seedFile struct {
	Cases []TemplateSeed `yaml:"cases"`
}

// ParseTemplateSeeds читает YAML с шаблонами дел
func ParseTemplateSeeds(r io.Reader) ([]TemplateSeed, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: decode case templates: %v", apperrors.ErrValidation, err)
	}
	return f.Cases, nil
}

// Validate проверяет, что шаблон играбелен: ровно 3 истинные улики,
// хотя бы один кандидат в ложные и истинный преступник среди подозреваемых.
// Тексты должны помещаться в колонки схемы, кандидат в ложные - с учетом
// подстановки никнейма максимальной длины.
func (t TemplateSeed) Validate() error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return fmt.Errorf("%w: title is empty", ErrTemplateNotPlayable)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return fmt.Errorf("%w: title %q is longer than %d characters", ErrTemplateNotPlayable, title, maxTitleLength)
	}
	if utf8.RuneCountInString(strings.TrimSpace(t.Description)) > maxTemplateDescriptionLen {
		return fmt.Errorf("%w: %q description is longer than %d characters", ErrTemplateNotPlayable, title, maxTemplateDescriptionLen)
	}
	if t.Difficulty < 1 || t.Difficulty > 5 {
		return fmt.Errorf("%w: %q difficulty must be 1-5", ErrTemplateNotPlayable, title)
	}
	if len(t.Evidences) != 3 {
		return fmt.Errorf("%w: %q must have exactly 3 true evidences, got %d", ErrTemplateNotPlayable, title, len(t.Evidences))
	}
	if len(t.FakeCandidates) == 0 {
		return fmt.Errorf("%w: %q has no fake candidates", ErrTemplateNotPlayable, title)
	}

	texts := make(map[string]struct{}, len(t.Evidences)+len(t.FakeCandidates))
	addText := func(text string, limit int) error {
		if text == "" {
			return fmt.Errorf("%w: %q has an empty evidence", ErrTemplateNotPlayable, title)
		}
		if _, dup := texts[text]; dup {
			return fmt.Errorf("%w: %q has duplicate evidence %q", ErrTemplateNotPlayable, title, text)
		}
		if limit > maxEvidenceLength {
			return fmt.Errorf("%w: %q evidence %q does not fit %d characters", ErrTemplateNotPlayable, title, text, maxEvidenceLength)
		}
		texts[text] = struct{}{}
		return nil
	}
	for _, e := range t.Evidences {
		e = strings.TrimSpace(e)
		if err := addText(e, utf8.RuneCountInString(e)); err != nil {
			return err
		}
	}
	for _, e := range t.FakeCandidates {
		e = strings.TrimSpace(e)
		if err := addText(e, expandedLength(e)); err != nil {
			return err
		}
	}

	found := false
	names := make(map[string]struct{}, len(t.Suspects))
	for _, s := range t.Suspects {
		name := strings.TrimSpace(s.Name)
		if _, dup := names[name]; dup || name == "" {
			return fmt.Errorf("%w: %q has empty or duplicate suspect %q", ErrTemplateNotPlayable, title, name)
		}
		if utf8.RuneCountInString(name) > maxSuspectNameLength {
			return fmt.Errorf("%w: %q suspect %q is longer than %d characters", ErrTemplateNotPlayable, title, name, maxSuspectNameLength)
		}
		if utf8.RuneCountInString(strings.TrimSpace(s.Description)) > maxSuspectDescriptionLength {
			return fmt.Errorf("%w: %q suspect %q description is longer than %d characters", ErrTemplateNotPlayable, title, name, maxSuspectDescriptionLength)
		}
		names[name] = struct{}{}
		if name == strings.TrimSpace(t.TrueCulprit) {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %q true culprit %q is not among suspects", ErrTemplateNotPlayable, title, t.TrueCulprit)
	}
	return nil
}

// expandedLength - длина текста после подстановки самого длинного никнейма
func expandedLength(text string) int {
	n := strings.Count(text, entity.NamePlaceholder)
	return utf8.RuneCountInString(text) + n*(maxNicknameLength-utf8.RuneCountInString(entity.NamePlaceholder))
}

// toEntity собирает шаблон с ассоциациями для сохранения
func (t TemplateSeed) toEntity() *entity.CaseTemplate {
	tpl := &entity.CaseTemplate{
		Title:           strings.TrimSpace(t.Title),
		Description:     strings.TrimSpace(t.Description),
		Difficulty:      t.Difficulty,
		TrueCulpritName: strings.TrimSpace(t.TrueCulprit),
	}
	for _, e := range t.Evidences {
		tpl.Evidences = append(tpl.Evidences, entity.OriginalEvidence{Description: strings.TrimSpace(e)})
	}
	for _, e := range t.FakeCandidates {
		tpl.Evidences = append(tpl.Evidences, entity.OriginalEvidence{Description: strings.TrimSpace(e), IsFakeCandidate: true})
	}
	for _, s := range t.Suspects {
		tpl.Suspects = append(tpl.Suspects, entity.CaseSuspect{Name: strings.TrimSpace(s.Name), Description: strings.TrimSpace(s.Description)})
	}
	return tpl
}

// CatalogService - реестр шаблонов дел
type CatalogService struct {
	templateRepo repository.CaseTemplateRepository
}

// NewCatalogService создает сервис реестра
func NewCatalogService(templateRepo repository.CaseTemplateRepository) *CatalogService {
	return &CatalogService{templateRepo: templateRepo}
}

// AvailableTemplates возвращает шаблоны, которые клиент может заказать
func (s *CatalogService) AvailableTemplates(ctx context.Context) ([]dto.CaseTemplateDTO, error) {
	templates, err := s.templateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list case templates: %w", err)
	}
	out := make([]dto.CaseTemplateDTO, len(templates))
	for i, t := range templates {
		out[i] = dto.CaseTemplateDTO{
			CaseID:      t.ID,
			Title:       t.Title,
			Description: t.Description,
			Difficulty:  t.Difficulty,
		}
	}
	return out, nil
}

// Import сохраняет шаблоны, пропуская уже существующие по названию.
// Невалидный шаблон останавливает импорт до записи чего-либо.
func (s *CatalogService) Import(ctx context.Context, seeds []TemplateSeed) (created, skipped int, err error) {
	for _, seed := range seeds {
		if err := seed.Validate(); err != nil {
			return 0, 0, err
		}
	}
	for _, seed := range seeds {
		_, err := s.templateRepo.GetByTitle(ctx, strings.TrimSpace(seed.Title))
		switch {
		case err == nil:
			skipped++
			continue
		case !apperrors.Is(err, apperrors.ErrNotFound):
			return created, skipped, fmt.Errorf("lookup template %q: %w", seed.Title, err)
		}
		tpl := seed.toEntity()
		if err := s.templateRepo.Create(ctx, tpl); err != nil {
			if apperrors.Is(err, apperrors.ErrConflict) {
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("create template %q: %w", seed.Title, err)
		}
		log.Printf("[CatalogService] Шаблон #%d %q добавлен", tpl.ID, tpl.Title)
		created++
	}
	return created, skipped, nil
}
