package entity

import (
	"strings"
	"time"
)

// CaseStatus - канонический код статуса активного дела
type CaseStatus string

// Статусы в порядке прохождения. Expired - боковой терминальный статус.
const (
	CaseStatusRegistered  CaseStatus = "registered"
	CaseStatusFabricated  CaseStatus = "fabricated"
	CaseStatusAccepted    CaseStatus = "accepted"
	CaseStatusAssigned    CaseStatus = "assigned"
	CaseStatusGuessed     CaseStatus = "guessed"
	CaseStatusResultReady CaseStatus = "result-ready"
	CaseStatusExpired     CaseStatus = "expired"
)

// statusOrder задает строгую последовательность основного пути
var statusOrder = []CaseStatus{
	CaseStatusRegistered,
	CaseStatusFabricated,
	CaseStatusAccepted,
	CaseStatusAssigned,
	CaseStatusGuessed,
	CaseStatusResultReady,
}

// statusLabels - подписи статусов, которые видят дашборды
var statusLabels = map[CaseStatus]string{
	CaseStatusRegistered:  "등록",
	CaseStatusFabricated:  "조작",
	CaseStatusAccepted:    "접수중",
	CaseStatusAssigned:    "배정",
	CaseStatusGuessed:     "추리 완료",
	CaseStatusResultReady: "결과 확인",
	CaseStatusExpired:     "만료",
}

// Label возвращает подпись статуса
func (s CaseStatus) Label() string {
	return statusLabels[s]
}

// IsValid проверяет, что статус входит в закрытый набор
func (s CaseStatus) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsTerminal - из статуса больше нет переходов
func (s CaseStatus) IsTerminal() bool {
	return s == CaseStatusResultReady || s == CaseStatusExpired
}

// Rank возвращает позицию статуса в основной последовательности (-1 для бокового)
func (s CaseStatus) Rank() int {
	for i, st := range statusOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// CanTransition разрешает только переход на следующий шаг основного пути
// и уход в expired из статусов ожидания.
func (s CaseStatus) CanTransition(to CaseStatus) bool {
	if to == CaseStatusExpired {
		return s == CaseStatusRegistered || s == CaseStatusFabricated
	}
	from, next := s.Rank(), to.Rank()
	return from >= 0 && next == from+1
}

// CaseResult - исход дела
type CaseResult string

const (
	CaseResultCleared CaseResult = "cleared" // 감사: детектив угадал
	CaseResultRevenge CaseResult = "revenge" // 부고: детектив ошибся
)

var resultLabels = map[CaseResult]string{
	CaseResultCleared: "감사",
	CaseResultRevenge: "부고",
}

// Label возвращает подпись результата
func (r CaseResult) Label() string {
	return resultLabels[r]
}

// ComputeResult определяет исход только на сервере: cleared, если догадка совпала с истинным преступником
func ComputeResult(guess, trueCulpritName string) CaseResult {
	if strings.TrimSpace(guess) == strings.TrimSpace(trueCulpritName) {
		return CaseResultCleared
	}
	return CaseResultRevenge
}

// ActiveCase - один проход шаблона конкретной четверкой игроков
type ActiveCase struct {
	ID                   uint        `gorm:"primaryKey" json:"activeId"`
	CaseID               uint        `gorm:"not null;index" json:"caseId"`
	ClientID             uint        `gorm:"not null;index" json:"clientId"`
	CulpritID            *uint       `gorm:"index" json:"culpritId,omitempty"`
	PoliceID             *uint       `gorm:"index" json:"policeId,omitempty"`
	DetectiveID          *uint       `gorm:"index" json:"detectiveId,omitempty"`
	Status               CaseStatus  `gorm:"size:20;not null;index" json:"status"`
	CulpritGuess         *string     `gorm:"size:50" json:"culpritGuess,omitempty"`
	Reasoning            *string     `gorm:"size:2000" json:"reasoning,omitempty"`
	SelectedFakeEvidence *string     `gorm:"size:500" json:"selectedFakeEvidence,omitempty"`
	Result               *CaseResult `gorm:"size:20" json:"result,omitempty"`
	ResolvedAt           *time.Time  `json:"resolvedAt,omitempty"`
	CreatedAt            time.Time   `json:"createdAt"`
	UpdatedAt            time.Time   `json:"updatedAt"`

	Template *CaseTemplate `gorm:"foreignKey:CaseID" json:"-"`
}

// TableName определяет имя таблицы для GORM
func (ActiveCase) TableName() string {
	return "active_cases"
}

// IsParticipant проверяет, что пользователь участвует в деле в любой роли
func (c *ActiveCase) IsParticipant(userID uint) bool {
	return c.ClientID == userID || eqPtr(c.CulpritID, userID) ||
		eqPtr(c.PoliceID, userID) || eqPtr(c.DetectiveID, userID)
}

// ParticipantIDs возвращает всех назначенных участников
func (c *ActiveCase) ParticipantIDs() []uint {
	ids := []uint{c.ClientID}
	for _, p := range []*uint{c.CulpritID, c.PoliceID, c.DetectiveID} {
		if p != nil {
			ids = append(ids, *p)
		}
	}
	return ids
}

// IsCulprit проверяет закрепленного преступника
func (c *ActiveCase) IsCulprit(userID uint) bool { return eqPtr(c.CulpritID, userID) }

// IsPolice проверяет закрепленного полицейского
func (c *ActiveCase) IsPolice(userID uint) bool { return eqPtr(c.PoliceID, userID) }

// IsDetective проверяет закрепленного детектива
func (c *ActiveCase) IsDetective(userID uint) bool { return eqPtr(c.DetectiveID, userID) }

func eqPtr(p *uint, v uint) bool {
	return p != nil && *p == v
}

// SubmittedEvidence - улики, которые видит детектив: 3 истинные и 1 подброшенная
type SubmittedEvidence struct {
	ID             uint   `gorm:"primaryKey" json:"submitId"`
	ActiveID       uint   `gorm:"not null;index" json:"activeId"`
	Description    string `gorm:"size:500;not null" json:"evidenceDescription"`
	IsTrueEvidence bool   `gorm:"not null" json:"isTrueEvidence"`
}

// TableName определяет имя таблицы для GORM
func (SubmittedEvidence) TableName() string {
	return "submitted_evidences"
}

// ScoreLog - журнал изменений счета
type ScoreLog struct {
	ID        uint      `gorm:"primaryKey" json:"logId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	ActiveID  uint      `gorm:"not null;index" json:"activeId"`
	Delta     int64     `gorm:"not null" json:"scoreChange"`
	Reason    string    `gorm:"size:100;not null" json:"reason"`
	CreatedAt time.Time `json:"logTime"`
}

// TableName определяет имя таблицы для GORM
func (ScoreLog) TableName() string {
	return "score_logs"
}
