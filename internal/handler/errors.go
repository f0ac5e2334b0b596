package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/detective-api/internal/middleware"
	apperrors "github.com/yourusername/detective-api/internal/pkg/errors"
)

// respondError сопоставляет ошибку сервиса с HTTP ответом {"error", "error_type"}
func respondError(c *gin.Context, component string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "error_type": "forbidden"})
	case errors.Is(err, apperrors.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "invalid_state"})
	case errors.Is(err, apperrors.ErrInvalidChoice):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "invalid_choice"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "error_type": "unauthorized"})
	default:
		log.Printf("[%s] Internal server error: %v", component, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal_server_error"})
	}
}

// badRequest отвечает на невалидное тело запроса
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data: " + err.Error(), "error_type": "validation_error"})
}

// actorID возвращает ID пользователя из токена.
// ID из тела или пути запроса необязателен, но если указан, должен совпадать с токеном.
func actorID(c *gin.Context, claimed uint) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "unauthorized"})
		return 0, false
	}
	if claimed != 0 && claimed != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Actor id does not match the authenticated user", "error_type": "forbidden"})
		return 0, false
	}
	return userID, true
}
