package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/detective-api/internal/middleware"
	"github.com/yourusername/detective-api/internal/websocket"
)

// WSHandler обрабатывает WebSocket соединения дашбордов
type WSHandler struct {
	hub       *websocket.Hub
	manager   *websocket.Manager
	tokens    middleware.TokenParser
	clientCfg websocket.ClientConfig
	upgrader  gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик WebSocket.
// allowedOrigins синхронизирован с CORS: пустой Origin (не браузер) разрешен всегда.
func NewWSHandler(hub *websocket.Hub, manager *websocket.Manager, tokens middleware.TokenParser, clientCfg websocket.ClientConfig, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &WSHandler{
		hub:       hub,
		manager:   manager,
		tokens:    tokens,
		clientCfg: clientCfg,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, ok := allowed[origin]; ok {
					return true
				}
				log.Printf("[WSHandler] Отклонен origin: %s", origin)
				return false
			},
		},
	}
}

// HandleConnection обрабатывает входящее WebSocket соединение.
// Токен берется из ?token=... или заголовка Authorization.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token, _ = middleware.BearerToken(c)
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing token parameter", "error_type": "token_missing"})
		return
	}

	claims, err := h.tokens.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ клиенту
		log.Printf("[WSHandler] Ошибка upgrade для пользователя %d: %v", claims.UserID, err)
		return
	}

	client := websocket.NewClient(h.hub, conn, strconv.FormatUint(uint64(claims.UserID), 10), string(claims.Role), h.clientCfg)
	client.StartPumps(h.manager.HandleMessage)
	log.Printf("[WSHandler] Пользователь %d (%s) подключен, connection=%s", claims.UserID, claims.Role, client.ConnectionID)
}

// Metrics возвращает метрики хаба для /health
func (h *WSHandler) Metrics() map[string]interface{} {
	return h.hub.GetMetrics()
}
