package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/detective-api/internal/handler/dto"
)

// LoginService - вход по никнейму
type LoginService interface {
	Login(ctx context.Context, nickname, requestedRole string) (*dto.LoginResponse, error)
}

// AuthHandler обрабатывает запросы, связанные с аутентификацией
type AuthHandler struct {
	users LoginService
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(users LoginService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Login обрабатывает вход. Несовпадение роли не ошибка: дашборд показывает его по флагу roleMismatch.
// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.users.Login(c.Request.Context(), req.Nickname, req.Role)
	if err != nil {
		respondError(c, "AuthHandler", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
