package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/detective-api/internal/config"
)

// delivery - сообщение для локальных клиентов
type delivery struct {
	userIDs []string
	role    string
	payload []byte
}

// matches проверяет, должен ли клиент получить сообщение
func (d delivery) matches(c *Client) bool {
	if d.role != "" && c.Role != d.role {
		return false
	}
	if len(d.userIDs) == 0 {
		return true
	}
	for _, id := range d.userIDs {
		if id == c.UserID {
			return true
		}
	}
	return false
}

// Hub хранит подключения и доставляет события.
// Все изменения набора клиентов и отправка выполняются в одной горутине Run.
type Hub struct {
	instanceID string
	channel    string
	provider   PubSubProvider

	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	outbound   chan delivery

	clientCount atomic.Int64
	dropped     atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub создает хаб. При provider == nil работает в одиночном режиме.
func NewHub(cfg config.WebSocketConfig, provider PubSubProvider) *Hub {
	if provider == nil {
		provider = &NoOpPubSub{}
	}
	instanceID := cfg.Cluster.InstanceID
	if instanceID == "" {
		instanceID = "instance_" + uuid.New().String()
	}
	channel := cfg.Cluster.BroadcastChannel
	if channel == "" {
		channel = "detective:ws:broadcast"
	}
	buffer := cfg.Buffers.BroadcastBuffer
	if buffer <= 0 {
		buffer = 256
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		instanceID: instanceID,
		channel:    channel,
		provider:   provider,
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan delivery, buffer),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// InstanceID возвращает ID экземпляра в кластере
func (h *Hub) InstanceID() string {
	return h.instanceID
}

// Run запускает цикл хаба и подписку на канал кластера
func (h *Hub) Run() error {
	msgCh, err := h.provider.Subscribe(h.ctx, h.channel)
	if err != nil {
		return fmt.Errorf("subscribe to cluster channel: %w", err)
	}

	h.wg.Add(2)
	go h.loop()
	go h.listenCluster(msgCh)
	log.Printf("[Hub] Запущен, instance=%s", h.instanceID)
	return nil
}

// Stop останавливает хаб и закрывает клиентов
func (h *Hub) Stop() {
	h.cancel()
	h.wg.Wait()
	log.Printf("[Hub] Остановлен, instance=%s", h.instanceID)
}

func (h *Hub) loop() {
	defer h.wg.Done()
	for {
		select {
		case c := <-h.register:
			conns, ok := h.clients[c.UserID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[c.UserID] = conns
			}
			conns[c] = struct{}{}
			h.clientCount.Add(1)

		case c := <-h.unregister:
			h.remove(c)

		case d := <-h.outbound:
			h.deliverLocal(d)

		case <-h.ctx.Done():
			for _, conns := range h.clients {
				for c := range conns {
					c.closeSend()
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			h.clientCount.Store(0)
			return
		}
	}
}

func (h *Hub) remove(c *Client) {
	conns, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.UserID)
	}
	c.closeSend()
	h.clientCount.Add(-1)
}

func (h *Hub) deliverLocal(d delivery) {
	targets := make([]*Client, 0)
	if len(d.userIDs) > 0 {
		for _, id := range d.userIDs {
			for c := range h.clients[id] {
				if d.matches(c) {
					targets = append(targets, c)
				}
			}
		}
	} else {
		for _, conns := range h.clients {
			for c := range conns {
				if d.matches(c) {
					targets = append(targets, c)
				}
			}
		}
	}

	for _, c := range targets {
		if !c.enqueue(d.payload) {
			// Медленный клиент отключается, дашборд перезапросит данные при переподключении
			h.dropped.Add(1)
			log.Printf("[Hub] Буфер клиента переполнен, отключаем: UserID=%s ConnID=%s", c.UserID, c.ConnectionID)
			h.remove(c)
		}
	}
}

func (h *Hub) listenCluster(msgCh <-chan []byte) {
	defer h.wg.Done()
	for {
		select {
		case raw, ok := <-msgCh:
			if !ok {
				return
			}
			var msg ClusterMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Printf("[Hub] Некорректное сообщение кластера: %v", err)
				continue
			}
			if msg.InstanceID == h.instanceID {
				continue
			}
			h.enqueue(delivery{userIDs: msg.RecipientIDs, role: msg.Role, payload: msg.Payload})
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.outbound <- d:
	case <-h.ctx.Done():
	}
}

// Register добавляет клиента. Возвращает false, если хаб остановлен.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Unregister удаляет клиента
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

func (h *Hub) publish(userIDs []string, role string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal ws payload: %w", err)
	}
	h.enqueue(delivery{userIDs: userIDs, role: role, payload: payload})

	msg, err := json.Marshal(ClusterMessage{
		InstanceID:   h.instanceID,
		RecipientIDs: userIDs,
		Role:         role,
		Payload:      payload,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal cluster message: %w", err)
	}
	return h.provider.Publish(h.channel, msg)
}

// SendJSONToRole отправляет структуру JSON всем клиентам роли
func (h *Hub) SendJSONToRole(role string, v interface{}) error {
	return h.publish(nil, role, v)
}

// SendJSONToUsers отправляет структуру JSON указанным пользователям
func (h *Hub) SendJSONToUsers(userIDs []string, v interface{}) error {
	if len(userIDs) == 0 {
		return nil
	}
	return h.publish(userIDs, "", v)
}

// ClientCount возвращает количество локальных подключений
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// GetMetrics возвращает метрики хаба
func (h *Hub) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"instance_id":      h.instanceID,
		"clients":          h.ClientCount(),
		"dropped_messages": h.dropped.Load(),
	}
}
