package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam создает middleware для извлечения и валидации числового параметра URL.
// paramName - имя параметра в URL (например, "activeId").
// contextKey - ключ, под которым значение будет сохранено в контексте Gin.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", paramName), "error_type": "validation_error"})
			c.Abort()
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}

// ParamUint возвращает значение, сохраненное ExtractUintParam
func ParamUint(c *gin.Context, contextKey string) uint {
	return c.GetUint(contextKey)
}
