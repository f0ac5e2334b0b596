package entity

import (
	"strings"
	"time"
)

// NamePlaceholder подставляется в текст ложной улики при фабрикации
const NamePlaceholder = "{name}"

// CaseTemplate представляет заранее подготовленное дело (реестр дел)
type CaseTemplate struct {
	ID              uint               `gorm:"primaryKey" json:"caseId"`
	Title           string             `gorm:"size:100;not null" json:"title"`
	Description     string             `gorm:"size:2000;not null;default:''" json:"description"`
	Difficulty      int                `gorm:"not null;default:1" json:"difficulty"`
	TrueCulpritName string             `gorm:"size:50;not null" json:"-"` // Скрыто от клиента
	Evidences       []OriginalEvidence `gorm:"foreignKey:CaseID" json:"originalEvidences,omitempty"`
	Suspects        []CaseSuspect      `gorm:"foreignKey:CaseID" json:"suspects,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// TableName определяет имя таблицы для GORM
func (CaseTemplate) TableName() string {
	return "case_templates"
}

// OriginalEvidence - улика шаблона: либо истинная, либо кандидат в ложные
type OriginalEvidence struct {
	ID              uint   `gorm:"primaryKey" json:"evidenceId"`
	CaseID          uint   `gorm:"not null;index" json:"caseId"`
	Description     string `gorm:"size:500;not null" json:"description"`
	IsFakeCandidate bool   `gorm:"not null;default:false" json:"isFakeCandidate"`
}

// TableName определяет имя таблицы для GORM
func (OriginalEvidence) TableName() string {
	return "original_evidences"
}

// IsTrue - истинная улика (не кандидат в ложные)
func (e OriginalEvidence) IsTrue() bool {
	return !e.IsFakeCandidate
}

// CaseSuspect - подозреваемый, которого может назвать детектив
type CaseSuspect struct {
	ID          uint   `gorm:"primaryKey" json:"suspectId"`
	CaseID      uint   `gorm:"not null;index" json:"caseId"`
	Name        string `gorm:"size:50;not null" json:"suspectName"`
	Description string `gorm:"size:300;not null;default:''" json:"description"`
}

// TableName определяет имя таблицы для GORM
func (CaseSuspect) TableName() string {
	return "case_suspects"
}

// TrueEvidences возвращает истинные улики в порядке хранения
func (t *CaseTemplate) TrueEvidences() []OriginalEvidence {
	out := make([]OriginalEvidence, 0, 3)
	for _, e := range t.Evidences {
		if e.IsTrue() {
			out = append(out, e)
		}
	}
	return out
}

// FakeCandidates возвращает кандидатов в ложные улики
func (t *CaseTemplate) FakeCandidates() []OriginalEvidence {
	var out []OriginalEvidence
	for _, e := range t.Evidences {
		if e.IsFakeCandidate {
			out = append(out, e)
		}
	}
	return out
}

// FindFakeCandidate ищет кандидата по точному тексту.
// Текст сравнивается как с шаблоном, так и после подстановки никнейма,
// потому что дашборд может прислать уже подставленную строку.
func (t *CaseTemplate) FindFakeCandidate(description, culpritNickname string) (OriginalEvidence, bool) {
	description = strings.TrimSpace(description)
	for _, e := range t.FakeCandidates() {
		if e.Description == description || ExpandPlaceholder(e.Description, culpritNickname) == description {
			return e, true
		}
	}
	return OriginalEvidence{}, false
}

// HasSuspect проверяет, что имя входит в список подозреваемых дела
func (t *CaseTemplate) HasSuspect(name string) bool {
	name = strings.TrimSpace(name)
	for _, s := range t.Suspects {
		if s.Name == name {
			return true
		}
	}
	return false
}

// SuspectNames возвращает имена подозреваемых
func (t *CaseTemplate) SuspectNames() []string {
	names := make([]string, len(t.Suspects))
	for i, s := range t.Suspects {
		names[i] = s.Name
	}
	return names
}

// ExpandPlaceholder подставляет никнейм преступника вместо {name}
func ExpandPlaceholder(description, nickname string) string {
	return strings.ReplaceAll(description, NamePlaceholder, nickname)
}
