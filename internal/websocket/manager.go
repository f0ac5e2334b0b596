package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/yourusername/detective-api/internal/domain/entity"
)

// Event представляет структуру WebSocket-сообщения
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// HubInterface - то, что Manager требует от хаба
type HubInterface interface {
	SendJSONToRole(role string, v interface{}) error
	SendJSONToUsers(userIDs []string, v interface{}) error
}

// CaseEventData - полезная нагрузка CASE_UPDATED и CASE_AVAILABLE.
// Дашборд по ней только понимает, какие данные перезапросить.
type CaseEventData struct {
	ActiveID   uint   `json:"activeId"`
	CaseID     uint   `json:"caseId"`
	StatusCode string `json:"statusCode"`
	Status     string `json:"status"`
	ResultCode string `json:"resultCode,omitempty"`
	Result     string `json:"result,omitempty"`
	Audience   string `json:"audience,omitempty"`
}

// Manager обрабатывает WebSocket сообщения и рассылает события дел
type Manager struct {
	hub            HubInterface
	messageHandler map[string]func(data json.RawMessage, client *Client) error
}

// NewManager создает новый менеджер WebSocket
func NewManager(hub HubInterface) *Manager {
	m := &Manager{
		hub:            hub,
		messageHandler: make(map[string]func(data json.RawMessage, client *Client) error),
	}
	m.RegisterHandler(CLIENT_PING, func(_ json.RawMessage, client *Client) error {
		return m.SendEventToUser(client.UserID, SERVER_PONG, map[string]string{"connectionId": client.ConnectionID})
	})
	return m
}

// RegisterHandler регистрирует обработчик для определенного типа сообщений
func (m *Manager) RegisterHandler(eventType string, handler func(data json.RawMessage, client *Client) error) {
	m.messageHandler[eventType] = handler
}

// HandleMessage обрабатывает входящее сообщение от клиента.
// Возвращает error, если обработка не удалась и соединение нужно закрыть.
func (m *Manager) HandleMessage(message []byte, client *Client) error {
	var raw struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(message, &raw); err != nil {
		log.Printf("[WebSocketManager] Некорректный JSON от %s: %v", client.UserID, err)
		m.SendErrorToClient(client, "invalid_message_format", "Invalid JSON format")
		return err
	}

	handler, ok := m.messageHandler[raw.Type]
	if !ok {
		m.SendErrorToClient(client, "unknown_message_type", fmt.Sprintf("Unknown message type: %s", raw.Type))
		return nil
	}
	return handler(raw.Data, client)
}

// SendErrorToClient отправляет стандартизированное сообщение об ошибке клиенту.
// Этот метод НЕ закрывает соединение.
func (m *Manager) SendErrorToClient(client *Client, code string, message string) {
	err := m.SendEventToUser(client.UserID, SERVER_ERROR, map[string]string{
		"code":    code,
		"message": message,
	})
	if err != nil {
		log.Printf("[WebSocketManager] Ошибка отправки ошибки клиенту %s: %v", client.UserID, err)
	}
}

// SendEventToUser отправляет событие конкретному пользователю
func (m *Manager) SendEventToUser(userID string, eventType string, data interface{}) error {
	return m.hub.SendJSONToUsers([]string{userID}, Event{Type: eventType, Data: data})
}

// CaseUpdated рассылает CASE_UPDATED всем участникам дела
func (m *Manager) CaseUpdated(c *entity.ActiveCase) {
	ids := c.ParticipantIDs()
	recipients := make([]string, len(ids))
	for i, id := range ids {
		recipients[i] = strconv.FormatUint(uint64(id), 10)
	}
	event := Event{Type: CASE_UPDATED, Data: newCaseEventData(c, "")}
	if err := m.hub.SendJSONToUsers(recipients, event); err != nil {
		log.Printf("[WebSocketManager] Ошибка рассылки CASE_UPDATED по делу #%d: %v", c.ID, err)
	}
}

// CaseAvailable сообщает всем клиентам роли об изменении общего пула
func (m *Manager) CaseAvailable(c *entity.ActiveCase, audience entity.Role) {
	event := Event{Type: CASE_AVAILABLE, Data: newCaseEventData(c, audience)}
	if err := m.hub.SendJSONToRole(string(audience), event); err != nil {
		log.Printf("[WebSocketManager] Ошибка рассылки CASE_AVAILABLE по делу #%d: %v", c.ID, err)
	}
}

func newCaseEventData(c *entity.ActiveCase, audience entity.Role) CaseEventData {
	data := CaseEventData{
		ActiveID:   c.ID,
		CaseID:     c.CaseID,
		StatusCode: string(c.Status),
		Status:     c.Status.Label(),
		Audience:   string(audience),
	}
	if c.Result != nil {
		data.ResultCode = string(*c.Result)
		data.Result = c.Result.Label()
	}
	return data
}
