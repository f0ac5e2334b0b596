package dto

import "time"

// CaseTemplateDTO - шаблон дела в списке доступных
type CaseTemplateDTO struct {
	CaseID      uint   `json:"caseId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  int    `json:"difficulty"`
}

// CaseView - активное дело в списках дашбордов.
// Поля, которые роль не должна видеть, остаются пустыми.
type CaseView struct {
	ActiveID             uint      `json:"activeId"`
	CaseID               uint      `json:"caseId"`
	CaseTitle            string    `json:"caseTitle"`
	CaseDescription      string    `json:"caseDescription"`
	Difficulty           int       `json:"difficulty"`
	Status               string    `json:"status"`
	StatusCode           string    `json:"statusCode"`
	ClientID             uint      `json:"clientId"`
	ClientNickname       string    `json:"clientNickname,omitempty"`
	CulpritID            *uint     `json:"culpritId,omitempty"`
	CulpritNickname      string    `json:"culpritNickname,omitempty"`
	PoliceID             *uint     `json:"policeId,omitempty"`
	PoliceNickname       string    `json:"policeNickname,omitempty"`
	DetectiveID          *uint     `json:"detectiveId,omitempty"`
	DetectiveNickname    string    `json:"detectiveNickname,omitempty"`
	SelectedFakeEvidence string    `json:"selectedFakeEvidence,omitempty"`
	CulpritGuess         string    `json:"culpritGuess,omitempty"`
	Reasoning            string    `json:"reasoning,omitempty"`
	ActualCulprit        string    `json:"actualCulprit,omitempty"`
	Result               string    `json:"result,omitempty"`
	ResultCode           string    `json:"resultCode,omitempty"`
	Suspects             []string  `json:"suspects,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// OriginalEvidenceDTO - улика шаблона в окне фабрикации
type OriginalEvidenceDTO struct {
	EvidenceID      uint   `json:"evidenceId"`
	Description     string `json:"description"`
	IsFakeCandidate bool   `json:"isFakeCandidate"`
}

// FabricationDetailsResponse - данные для выбора ложной улики
type FabricationDetailsResponse struct {
	ActiveID          uint                  `json:"activeId"`
	CaseID            uint                  `json:"caseId"`
	CaseTitle         string                `json:"caseTitle"`
	CaseDescription   string                `json:"caseDescription"`
	Status            string                `json:"status"`
	StatusCode        string                `json:"statusCode"`
	OriginalEvidences []OriginalEvidenceDTO `json:"originalEvidences"`
	FakeCandidates    []string              `json:"fakeCandidates"`
}

// EvidenceDTO - улика, поданная детективу
type EvidenceDTO struct {
	SubmitID            uint   `json:"submitId"`
	EvidenceDescription string `json:"evidenceDescription"`
	// IsTrueEvidence раскрывается только после результата
	IsTrueEvidence *bool `json:"isTrueEvidence,omitempty"`
}

// InvestigationDetailsResponse - материалы для расследования.
// CulpritName заполняется только после вынесения результата.
type InvestigationDetailsResponse struct {
	ActiveID        uint          `json:"activeId"`
	CaseID          uint          `json:"caseId"`
	CaseTitle       string        `json:"caseTitle"`
	CaseDescription string        `json:"caseDescription"`
	Difficulty      int           `json:"difficulty"`
	Status          string        `json:"status"`
	StatusCode      string        `json:"statusCode"`
	CulpritName     string        `json:"culpritName,omitempty"`
	Evidence        []EvidenceDTO `json:"evidence"`
	Suspects        []string      `json:"suspects"`
}

// CaseResultResponse - итог завершенного дела
type CaseResultResponse struct {
	ActiveID             uint       `json:"activeId"`
	CaseID               uint       `json:"caseId"`
	CaseTitle            string     `json:"caseTitle"`
	CaseDescription      string     `json:"caseDescription"`
	Difficulty           int        `json:"difficulty"`
	CulpritGuess         string     `json:"culpritGuess"`
	Reasoning            string     `json:"reasoning,omitempty"`
	ActualCulprit        string     `json:"actualCulprit"`
	SelectedFakeEvidence string     `json:"selectedFakeEvidence,omitempty"`
	Result               string     `json:"result"`
	ResultCode           string     `json:"resultCode"`
	Status               string     `json:"status"`
	StatusCode           string     `json:"statusCode"`
	ClientNickname       string     `json:"clientNickname,omitempty"`
	CulpritNickname      string     `json:"culpritNickname,omitempty"`
	PoliceNickname       string     `json:"policeNickname,omitempty"`
	DetectiveNickname    string     `json:"detectiveNickname,omitempty"`
	ResolvedAt           *time.Time `json:"resolvedAt,omitempty"`
}

// StartCaseRequest - клиент заказывает дело по шаблону
type StartCaseRequest struct {
	CaseID   uint `json:"caseId" binding:"required"`
	ClientID uint `json:"clientId"`
}

// JoinCaseRequest - преступник занимает дело.
// Старые дашборды присылают id активного дела в поле caseId.
type JoinCaseRequest struct {
	ActiveID  uint `json:"activeId"`
	CaseID    uint `json:"caseId"`
	CulpritID uint `json:"culpritId"`
}

// FabricateRequest - выбор ложной улики
type FabricateRequest struct {
	ActiveID     uint     `json:"activeId"`
	CaseID       uint     `json:"caseId"`
	CriminalID   uint     `json:"criminalId"`
	FakeEvidence []string `json:"fakeEvidence" binding:"required,len=1,dive,required"`
}

// AcceptCaseRequest - полиция принимает дело
type AcceptCaseRequest struct {
	ActiveID uint `json:"activeId"`
	CaseID   uint `json:"caseId"`
	PoliceID uint `json:"policeId"`
}

// AssignDetectiveRequest - полиция назначает детектива
type AssignDetectiveRequest struct {
	ActiveID    uint `json:"activeId"`
	CaseID      uint `json:"caseId"`
	PoliceID    uint `json:"policeId"`
	DetectiveID uint `json:"detectiveId" binding:"required"`
}

// SubmitGuessRequest - вердикт детектива.
// Status присылается дашбордом, но сервер вычисляет переход сам.
type SubmitGuessRequest struct {
	CulpritGuess         string `json:"culpritGuess"`
	CulpritGuessNickname string `json:"culpritGuessNickname"`
	Reasoning            string `json:"reasoning" binding:"max=2000"`
	Status               string `json:"status"`
	DetectiveID          uint   `json:"detectiveId"`
}

// Guess возвращает имя подозреваемого из любого из двух полей
func (r SubmitGuessRequest) Guess() string {
	if r.CulpritGuess != "" {
		return r.CulpritGuess
	}
	return r.CulpritGuessNickname
}

// ResolveActiveID возвращает activeId, а если его нет, то caseId
func ResolveActiveID(activeID, caseID uint) uint {
	if activeID != 0 {
		return activeID
	}
	return caseID
}
