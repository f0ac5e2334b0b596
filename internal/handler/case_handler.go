package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/detective-api/internal/handler/dto"
	"github.com/yourusername/detective-api/internal/middleware"
)

// Ключи контекста для числовых параметров пути
const (
	paramActiveID = "activeID"
	paramUserID   = "userID"
)

// CaseEngine - команды и запросы жизненного цикла дела
type CaseEngine interface {
	StartCase(ctx context.Context, clientID, caseID uint) (*dto.CaseView, error)
	JoinAsCulprit(ctx context.Context, activeID, culpritID uint) (*dto.CaseView, error)
	Fabricate(ctx context.Context, activeID, culpritID uint, fakeDescription string) (*dto.CaseView, error)
	Accept(ctx context.Context, activeID, policeID uint) (*dto.CaseView, error)
	AssignDetective(ctx context.Context, activeID, policeID, detectiveID uint) (*dto.CaseView, error)
	SubmitGuess(ctx context.Context, activeID, detectiveID uint, guess, reasoning string) (*dto.CaseResultResponse, error)

	CulpritAvailable(ctx context.Context) ([]dto.CaseView, error)
	CulpritCases(ctx context.Context, culpritID uint) ([]dto.CaseView, error)
	PolicePending(ctx context.Context) ([]dto.CaseView, error)
	PoliceCases(ctx context.Context, policeID uint) ([]dto.CaseView, error)
	ClientCases(ctx context.Context, clientID uint) ([]dto.CaseView, error)
	DetectiveAssigned(ctx context.Context, detectiveID uint) ([]dto.CaseView, error)
	DetectiveCompleted(ctx context.Context, detectiveID uint) ([]dto.CaseView, error)
	FabricationDetails(ctx context.Context, activeID, culpritID uint) (*dto.FabricationDetailsResponse, error)
	InvestigationDetails(ctx context.Context, activeID, viewerID uint) (*dto.InvestigationDetailsResponse, error)
	ResultDetail(ctx context.Context, activeID uint) (*dto.CaseResultResponse, error)
}

// TemplateCatalog - каталог шаблонов дел
type TemplateCatalog interface {
	AvailableTemplates(ctx context.Context) ([]dto.CaseTemplateDTO, error)
}

// CaseHandler обрабатывает запросы, связанные с делами
type CaseHandler struct {
	cases   CaseEngine
	catalog TemplateCatalog
}

// NewCaseHandler создает новый обработчик дел
func NewCaseHandler(cases CaseEngine, catalog TemplateCatalog) *CaseHandler {
	return &CaseHandler{cases: cases, catalog: catalog}
}

// GetAvailableTemplates возвращает шаблоны, доступные для старта
func (h *CaseHandler) GetAvailableTemplates(c *gin.Context) {
	templates, err := h.catalog.AvailableTemplates(c.Request.Context())
	if err != nil {
		respondError(c, "CaseHandler", err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

// StartCase регистрирует новое дело клиента
// POST /api/case/start
func (h *CaseHandler) StartCase(c *gin.Context) {
	var req dto.StartCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	clientID, ok := actorID(c, req.ClientID)
	if !ok {
		return
	}

	view, err := h.cases.StartCase(c.Request.Context(), clientID, req.CaseID)
	if err != nil {
		respondError(c, "CaseHandler", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// JoinAsCulprit занимает слот преступника
func (h *CaseHandler) JoinAsCulprit(c *gin.Context) {
	var req dto.JoinCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	activeID, ok := requireActiveID(c, req.ActiveID, req.CaseID)
	if !ok {
		return
	}
	culpritID, ok := actorID(c, req.CulpritID)
	if !ok {
		return
	}

	view, err := h.cases.JoinAsCulprit(c.Request.Context(), activeID, culpritID)
	if err != nil {
		respondError(c, "CaseHandler", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Fabricate подбрасывает ложную улику
// POST /api/cases/fabricate {activeId, criminalId, fakeEvidence: [string]}
func (h *CaseHandler) Fabricate(c *gin.Context) {
	var req dto.FabricateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	activeID, ok := requireActiveID(c, req.ActiveID, req.CaseID)
	if !ok {
		return
	}
	culpritID, ok := actorID(c, req.CriminalID)
	if !ok {
		return
	}

	view, err := h.cases.Fabricate(c.Request.Context(), activeID, culpritID, req.FakeEvidence[0])
	if err != nil {
		respondError(c, "CaseHandler", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AcceptCase принимает сфабрикованное дело в работу полиции
func (h *CaseHandler) AcceptCase(c *gin.Context) {
	var req dto.AcceptCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	activeID, ok := requireActiveID(c, req.ActiveID, req.CaseID)
	if !ok {
		return
	}
	policeID, ok := actorID(c, req.PoliceID)
	if !ok {
		return
	}

	view, err := h.cases.Accept(c.Request.Context(), activeID, policeID)
	if err != nil {
		respondError(c, "CaseHandler", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AssignDetective назначает детектива
func (h *CaseHandler) AssignDetective(c *gin.Context) {
	var req dto.AssignDetectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	activeID, ok := requireActiveID(c, req.ActiveID, req.CaseID)
	if !ok {
		return
	}
	policeID, ok := actorID(c, req.PoliceID)
	if !ok {
		return
	}

	view, err := h.cases.AssignDetective(c.Request.Context(), activeID, policeID, req.DetectiveID)
	if err != nil {
		respondError(c, "CaseHandler", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitGuess принимает версию детектива и возвращает итог дела.
// Обслуживает PATCH /cases/:activeId/submit-guess и POST /cases/detective/guess/:activeId.
func (h *CaseHandler) SubmitGuess(c *gin.Context) {
	var req dto.SubmitGuessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	detectiveID, ok := actorID(c, req.DetectiveID)
	if !ok {
		return
	}

	result, err := h.cases.SubmitGuess(c.Request.Context(), middleware.ParamUint(c, paramActiveID), detectiveID, req.Guess(), strings.TrimSpace(req.Reasoning))
	if err != nil {
		respondError(c, "CaseHandler", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCulpritAvailable возвращает дела без преступника
func (h *CaseHandler) GetCulpritAvailable(c *gin.Context) {
	h.respondList(c, func(ctx context.Context, _ uint) ([]dto.CaseView, error) {
		return h.cases.CulpritAvailable(ctx)
	}, false)
}

// GetCulpritCases возвращает дела преступника
func (h *CaseHandler) GetCulpritCases(c *gin.Context) {
	h.respondList(c, h.cases.CulpritCases, true)
}

// GetPolicePending возвращает дела, ожидающие полицию
func (h *CaseHandler) GetPolicePending(c *gin.Context) {
	h.respondList(c, func(ctx context.Context, _ uint) ([]dto.CaseView, error) {
		return h.cases.PolicePending(ctx)
	}, false)
}

// GetPoliceCases возвращает дела полицейского
func (h *CaseHandler) GetPoliceCases(c *gin.Context) {
	h.respondList(c, h.cases.PoliceCases, true)
}

// GetClientCases возвращает дела клиента
func (h *CaseHandler) GetClientCases(c *gin.Context) {
	h.respondList(c, h.cases.ClientCases, true)
}

// GetDetectiveAssigned возвращает дела детектива в работе
func (h *CaseHandler) GetDetectiveAssigned(c *gin.Context) {
	h.respondList(c, h.cases.DetectiveAssigned, true)
}

// GetDetectiveCompleted возвращает раскрытые дела детектива
func (h *CaseHandler) GetDetectiveCompleted(c *gin.Context) {
	h.respondList(c, h.cases.DetectiveCompleted, true)
}

// respondList отдает список дел. Если ownPath, ID пользователя из пути должен совпадать с токеном.
func (h *CaseHandler) respondList(c *gin.Context, list func(ctx context.Context, userID uint) ([]dto.CaseView, error), ownPath bool) {
	var claimed uint
	if ownPath {
		claimed = middleware.ParamUint(c, paramUserID)
	}
	userID, ok := actorID(c, claimed)
	if !ok {
		return
	}

	views, err := list(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "CaseHandler", err)
		return
	}
	if views == nil {
		views = []dto.CaseView{}
	}
	c.JSON(http.StatusOK, views)
}

// GetFabricationDetails возвращает данные для экрана фабрикации
func (h *CaseHandler) GetFabricationDetails(c *gin.Context) {
	culpritID, ok := actorID(c, 0)
	if !ok {
		return
	}
	details, err := h.cases.FabricationDetails(c.Request.Context(), middleware.ParamUint(c, paramActiveID), culpritID)
	if err != nil {
		respondError(c, "CaseHandler", err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// GetInvestigationDetails возвращает улики и подозреваемых участнику дела
func (h *CaseHandler) GetInvestigationDetails(c *gin.Context) {
	viewerID, ok := actorID(c, 0)
	if !ok {
		return
	}
	details, err := h.cases.InvestigationDetails(c.Request.Context(), middleware.ParamUint(c, paramActiveID), viewerID)
	if err != nil {
		respondError(c, "CaseHandler", err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// GetResult возвращает итог раскрытого дела
func (h *CaseHandler) GetResult(c *gin.Context) {
	result, err := h.cases.ResultDetail(c.Request.Context(), middleware.ParamUint(c, paramActiveID))
	if err != nil {
		respondError(c, "CaseHandler", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func requireActiveID(c *gin.Context, activeID, caseID uint) (uint, bool) {
	id := dto.ResolveActiveID(activeID, caseID)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "activeId is required", "error_type": "validation_error"})
		return 0, false
	}
	return id, true
}
