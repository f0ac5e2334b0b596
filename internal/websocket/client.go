package websocket

import (
	"bytes"
	"fmt"
	"log"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yourusername/detective-api/internal/config"
)

const (
	// Время, которое разрешено писать сообщение клиенту.
	writeWait = 10 * time.Second

	// Время, которое разрешено клиенту читать следующее сообщение.
	pongWait = 60 * time.Second

	// Максимальный размер входящего сообщения
	maxMessageSize = 4096

	defaultClientBufferSize = 64
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// ClientConfig содержит настройки для клиента
type ClientConfig struct {
	BufferSize     int
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// DefaultClientConfig возвращает конфигурацию клиента по умолчанию
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BufferSize:     defaultClientBufferSize,
		PongWait:       pongWait,
		WriteWait:      writeWait,
		MaxMessageSize: maxMessageSize,
	}
}

// ClientConfigFrom строит настройки клиента из секции websocket конфига.
// Нулевые значения заменяются умолчаниями в NewClient.
func ClientConfigFrom(cfg config.WebSocketConfig) ClientConfig {
	return ClientConfig{
		BufferSize:     cfg.Buffers.ClientSendBuffer,
		PongWait:       time.Duration(cfg.Limits.PongWait) * time.Second,
		WriteWait:      time.Duration(cfg.Limits.WriteWait) * time.Second,
		MaxMessageSize: int64(cfg.Limits.MaxMessageSize),
	}
}

// Client является посредником между WebSocket соединением и hub.
type Client struct {
	// ID пользователя
	UserID string

	// Роль пользователя, по ней фильтруются события пула
	Role string

	// Уникальный ID для каждого соединения
	ConnectionID string

	hub  *Hub
	conn *websocket.Conn
	cfg  ClientConfig

	// Буферизованный канал для исходящих сообщений
	send chan []byte

	// Флаг, указывающий что канал send закрыт (для предотвращения panic)
	sendClosed atomic.Bool
}

// NewClient создает нового клиента
func NewClient(hub *Hub, conn *websocket.Conn, userID, role string, cfg ClientConfig) *Client {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultClientBufferSize
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = pongWait
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = writeWait
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = maxMessageSize
	}
	return &Client{
		UserID:       userID,
		Role:         role,
		ConnectionID: uuid.New().String(),
		hub:          hub,
		conn:         conn,
		cfg:          cfg,
		send:         make(chan []byte, cfg.BufferSize),
	}
}

// enqueue ставит сообщение в очередь без блокировки.
// Вызывается только из цикла хаба.
func (c *Client) enqueue(message []byte) bool {
	if c.sendClosed.Load() {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// closeSend закрывает канал отправки один раз
func (c *Client) closeSend() {
	if c.sendClosed.CompareAndSwap(false, true) {
		close(c.send)
	}
}

// readPump читает сообщения от клиента и передает их обработчику
func (c *Client) readPump(messageHandler func(message []byte, client *Client) error) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		log.Printf("[WebSocket] Read pump остановлен: UserID=%s ConnID=%s", c.UserID, c.ConnectionID)
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[WebSocket] Ошибка чтения (UserID: %s, ConnID: %s): %v", c.UserID, c.ConnectionID, err)
			}
			return
		}

		if handlerErr := safeHandleMessage(message, c, messageHandler); handlerErr != nil {
			log.Printf("[WebSocket] Ошибка обработчика (UserID: %s, ConnID: %s): %v. Закрываем соединение.", c.UserID, c.ConnectionID, handlerErr)
			return
		}
	}
}

// safeHandleMessage - обертка для вызова обработчика с recover
func safeHandleMessage(message []byte, client *Client, messageHandler func(message []byte, client *Client) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC recovered in message handler for UserID: %s, ConnID: %s. Panic: %v\nStack trace:\n%s",
				client.UserID, client.ConnectionID, r, string(debug.Stack()))
			err = fmt.Errorf("panic recovered: %v", r)
		}
	}()
	message = bytes.TrimSpace(bytes.Replace(message, newline, space, -1))
	if messageHandler != nil {
		err = messageHandler(message, client)
	}
	return err
}

// writePump отправляет сообщения клиенту из канала send
func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PongWait * 9 / 10)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
			if !ok {
				// Хаб закрыл канал клиента
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WebSocket] Ошибка записи (UserID: %s, ConnID: %s): %v", c.UserID, c.ConnectionID, err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// StartPumps регистрирует клиента в хабе и запускает горутины чтения и записи
func (c *Client) StartPumps(messageHandler func(message []byte, client *Client) error) {
	if c.UserID == "" {
		log.Printf("[WebSocket] Клиент без UserID, регистрация пропущена")
		c.conn.Close()
		return
	}
	if !c.hub.Register(c) {
		c.conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(messageHandler)
}
