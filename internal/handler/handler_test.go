package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/detective-api/internal/domain/entity"
	"github.com/yourusername/detective-api/internal/handler/dto"
	"github.com/yourusername/detective-api/internal/middleware"
	"github.com/yourusername/detective-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubTokens сопоставляет строку токена с claims
type stubTokens map[string]*auth.JWTCustomClaims

func (s stubTokens) ParseToken(token string) (*auth.JWTCustomClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

var testTokens = stubTokens{
	"client-token":    {UserID: 1, Nickname: "holmes-client", Role: entity.RoleClient},
	"culprit-token":   {UserID: 2, Nickname: "moriarty", Role: entity.RoleCulprit},
	"police-token":    {UserID: 3, Nickname: "lestrade", Role: entity.RolePolice},
	"detective-token": {UserID: 4, Nickname: "sherlock", Role: entity.RoleDetective},
}

// --- моки сервисов ---

type MockCaseEngine struct{ mock.Mock }

func caseView(args mock.Arguments) (*dto.CaseView, error) {
	v, _ := args.Get(0).(*dto.CaseView)
	return v, args.Error(1)
}

func caseViews(args mock.Arguments) ([]dto.CaseView, error) {
	v, _ := args.Get(0).([]dto.CaseView)
	return v, args.Error(1)
}

func (m *MockCaseEngine) StartCase(ctx context.Context, clientID, caseID uint) (*dto.CaseView, error) {
	return caseView(m.Called(ctx, clientID, caseID))
}

func (m *MockCaseEngine) JoinAsCulprit(ctx context.Context, activeID, culpritID uint) (*dto.CaseView, error) {
	return caseView(m.Called(ctx, activeID, culpritID))
}

func (m *MockCaseEngine) Fabricate(ctx context.Context, activeID, culpritID uint, fake string) (*dto.CaseView, error) {
	return caseView(m.Called(ctx, activeID, culpritID, fake))
}

func (m *MockCaseEngine) Accept(ctx context.Context, activeID, policeID uint) (*dto.CaseView, error) {
	return caseView(m.Called(ctx, activeID, policeID))
}

func (m *MockCaseEngine) AssignDetective(ctx context.Context, activeID, policeID, detectiveID uint) (*dto.CaseView, error) {
	return caseView(m.Called(ctx, activeID, policeID, detectiveID))
}

func (m *MockCaseEngine) SubmitGuess(ctx context.Context, activeID, detectiveID uint, guess, reasoning string) (*dto.CaseResultResponse, error) {
	args := m.Called(ctx, activeID, detectiveID, guess, reasoning)
	r, _ := args.Get(0).(*dto.CaseResultResponse)
	return r, args.Error(1)
}

func (m *MockCaseEngine) CulpritAvailable(ctx context.Context) ([]dto.CaseView, error) {
	return caseViews(m.Called(ctx))
}

func (m *MockCaseEngine) CulpritCases(ctx context.Context, id uint) ([]dto.CaseView, error) {
	return caseViews(m.Called(ctx, id))
}

func (m *MockCaseEngine) PolicePending(ctx context.Context) ([]dto.CaseView, error) {
	return caseViews(m.Called(ctx))
}

func (m *MockCaseEngine) PoliceCases(ctx context.Context, id uint) ([]dto.CaseView, error) {
	return caseViews(m.Called(ctx, id))
}

func (m *MockCaseEngine) ClientCases(ctx context.Context, id uint) ([]dto.CaseView, error) {
	return caseViews(m.Called(ctx, id))
}

func (m *MockCaseEngine) DetectiveAssigned(ctx context.Context, id uint) ([]dto.CaseView, error) {
	return caseViews(m.Called(ctx, id))
}

func (m *MockCaseEngine) DetectiveCompleted(ctx context.Context, id uint) ([]dto.CaseView, error) {
	return caseViews(m.Called(ctx, id))
}

func (m *MockCaseEngine) FabricationDetails(ctx context.Context, activeID, culpritID uint) (*dto.FabricationDetailsResponse, error) {
	args := m.Called(ctx, activeID, culpritID)
	r, _ := args.Get(0).(*dto.FabricationDetailsResponse)
	return r, args.Error(1)
}

func (m *MockCaseEngine) InvestigationDetails(ctx context.Context, activeID, viewerID uint) (*dto.InvestigationDetailsResponse, error) {
	args := m.Called(ctx, activeID, viewerID)
	r, _ := args.Get(0).(*dto.InvestigationDetailsResponse)
	return r, args.Error(1)
}

func (m *MockCaseEngine) ResultDetail(ctx context.Context, activeID uint) (*dto.CaseResultResponse, error) {
	args := m.Called(ctx, activeID)
	r, _ := args.Get(0).(*dto.CaseResultResponse)
	return r, args.Error(1)
}

type MockCatalog struct{ mock.Mock }

func (m *MockCatalog) AvailableTemplates(ctx context.Context) ([]dto.CaseTemplateDTO, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]dto.CaseTemplateDTO)
	return r, args.Error(1)
}

type MockUsers struct{ mock.Mock }

func (m *MockUsers) Login(ctx context.Context, nickname, role string) (*dto.LoginResponse, error) {
	args := m.Called(ctx, nickname, role)
	r, _ := args.Get(0).(*dto.LoginResponse)
	return r, args.Error(1)
}

func (m *MockUsers) GetMe(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	args := m.Called(ctx, userID)
	r, _ := args.Get(0).(*dto.UserResponse)
	return r, args.Error(1)
}

func (m *MockUsers) ListDetectives(ctx context.Context) ([]dto.UserResponse, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]dto.UserResponse)
	return r, args.Error(1)
}

func (m *MockUsers) ScoreLogs(ctx context.Context, userID uint, page, pageSize int) (*dto.PaginatedScoreLogResponse, error) {
	args := m.Called(ctx, userID, page, pageSize)
	r, _ := args.Get(0).(*dto.PaginatedScoreLogResponse)
	return r, args.Error(1)
}

type MockRankings struct{ mock.Mock }

func (m *MockRankings) RoleRanking(ctx context.Context, role entity.Role) ([]dto.RankingDTO, error) {
	args := m.Called(ctx, role)
	r, _ := args.Get(0).([]dto.RankingDTO)
	return r, args.Error(1)
}

func (m *MockRankings) AllRankings(ctx context.Context) ([]dto.RankingDTO, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]dto.RankingDTO)
	return r, args.Error(1)
}

// testAPI - роутер со всеми маршрутами и моками сервисов
type testAPI struct {
	router   *gin.Engine
	cases    *MockCaseEngine
	catalog  *MockCatalog
	users    *MockUsers
	rankings *MockRankings
}

func newTestAPI() *testAPI {
	api := &testAPI{
		router:   gin.New(),
		cases:    new(MockCaseEngine),
		catalog:  new(MockCatalog),
		users:    new(MockUsers),
		rankings: new(MockRankings),
	}
	RegisterRoutes(api.router, Handlers{
		Auth:    NewAuthHandler(api.users),
		User:    NewUserHandler(api.users),
		Case:    NewCaseHandler(api.cases, api.catalog),
		Ranking: NewRankingHandler(api.rankings),
	}, middleware.NewAuthMiddleware(testTokens), nil)
	return api
}

// do выполняет запрос; token может быть пустым
func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}
