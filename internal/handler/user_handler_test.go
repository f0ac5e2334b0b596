package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/detective-api/internal/handler/dto"
	"github.com/yourusername/detective-api/internal/service"
)

func TestLogin(t *testing.T) {
	api := newTestAPI()
	api.users.On("Login", mock.Anything, "sherlock", "detective").Return(&dto.LoginResponse{
		UserResponse: dto.UserResponse{UserID: 4, Nickname: "sherlock", Role: "탐정", RoleCode: "detective"},
		Token:        "jwt",
		Created:      true,
	}, nil)

	w := api.do(http.MethodPost, "/api/login", "", map[string]string{"nickname": "sherlock", "role": "detective"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, float64(4), resp["userId"])
	assert.Equal(t, "jwt", resp["token"])
	assert.Equal(t, false, resp["roleMismatch"])
}

func TestLogin_RoleMismatchIsNotAnError(t *testing.T) {
	api := newTestAPI()
	api.users.On("Login", mock.Anything, "sherlock", "police").Return(&dto.LoginResponse{
		UserResponse:  dto.UserResponse{UserID: 4, Nickname: "sherlock", RoleCode: "detective"},
		Token:         "jwt",
		RoleMismatch:  true,
		RequestedRole: "police",
	}, nil)

	w := api.do(http.MethodPost, "/api/login", "", map[string]string{"nickname": "sherlock", "role": "police"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, true, resp["roleMismatch"])
	assert.Equal(t, "detective", resp["roleCode"])
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		err        error
		wantStatus int
	}{
		{"empty body", nil, nil, http.StatusBadRequest},
		{"missing nickname", map[string]string{"role": "client"}, nil, http.StatusBadRequest},
		{"short nickname", map[string]string{"nickname": "a"}, service.ErrNicknameLength, http.StatusBadRequest},
		{"new nickname without role", map[string]string{"nickname": "watson"}, service.ErrRoleRequired, http.StatusNotFound},
		{"unknown role", map[string]string{"nickname": "watson", "role": "butler"}, service.ErrUnknownRole, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI()
			api.users.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			w := api.do(http.MethodPost, "/api/login", "", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, parseJSONResponse(t, w), "error_type")
		})
	}
}

func TestGetMe(t *testing.T) {
	api := newTestAPI()
	api.users.On("GetMe", mock.Anything, uint(3)).Return(&dto.UserResponse{UserID: 3, Nickname: "lestrade", RoleCode: "police", Score: 12}, nil)

	w := api.do(http.MethodGet, "/api/users/me", "police-token", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(12), parseJSONResponse(t, w)["score"])
}

func TestListDetectives(t *testing.T) {
	api := newTestAPI()
	api.users.On("ListDetectives", mock.Anything).Return([]dto.UserResponse{{UserID: 4, Nickname: "sherlock"}}, nil)

	w := api.do(http.MethodGet, "/api/users/detectives", "police-token", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sherlock")
}

func TestGetScoreLogs_Pagination(t *testing.T) {
	api := newTestAPI()
	api.users.On("ScoreLogs", mock.Anything, uint(4), 2, 5).
		Return(&dto.PaginatedScoreLogResponse{Logs: []dto.ScoreLogDTO{}, Total: 7, Page: 2, PerPage: 5}, nil)

	w := api.do(http.MethodGet, "/api/users/4/score-logs?page=2&page_size=5", "client-token", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, float64(7), resp["total"])
	assert.Equal(t, float64(5), resp["per_page"])
}
