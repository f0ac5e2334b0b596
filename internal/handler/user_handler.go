package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/detective-api/internal/handler/dto"
	"github.com/yourusername/detective-api/internal/middleware"
)

// UserQueries - чтение пользователей и журнала очков
type UserQueries interface {
	GetMe(ctx context.Context, userID uint) (*dto.UserResponse, error)
	ListDetectives(ctx context.Context) ([]dto.UserResponse, error)
	ScoreLogs(ctx context.Context, userID uint, page, pageSize int) (*dto.PaginatedScoreLogResponse, error)
}

// UserHandler обрабатывает запросы, связанные с пользователями
type UserHandler struct {
	users UserQueries
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(users UserQueries) *UserHandler {
	return &UserHandler{users: users}
}

// GetMe возвращает текущего пользователя
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := actorID(c, 0)
	if !ok {
		return
	}
	me, err := h.users.GetMe(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "UserHandler", err)
		return
	}
	c.JSON(http.StatusOK, me)
}

// ListDetectives возвращает детективов для назначения
func (h *UserHandler) ListDetectives(c *gin.Context) {
	detectives, err := h.users.ListDetectives(c.Request.Context())
	if err != nil {
		respondError(c, "UserHandler", err)
		return
	}
	c.JSON(http.StatusOK, detectives)
}

// GetScoreLogs возвращает журнал очков пользователя
// GET /api/users/:id/score-logs?page=1&page_size=20
func (h *UserHandler) GetScoreLogs(c *gin.Context) {
	userID := middleware.ParamUint(c, paramUserID)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	logs, err := h.users.ScoreLogs(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		respondError(c, "UserHandler", err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
