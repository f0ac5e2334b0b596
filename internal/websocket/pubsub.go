package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// PubSubProvider определяет интерфейс для провайдеров публикации/подписки
type PubSubProvider interface {
	// Publish публикует сообщение в указанный канал
	Publish(channel string, message []byte) error

	// Subscribe подписывается на указанный канал и возвращает канал для сообщений
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)

	// Close закрывает все соединения и освобождает ресурсы
	Close() error
}

// ClusterMessage представляет сообщение, передаваемое между экземплярами Hub
type ClusterMessage struct {
	// InstanceID содержит ID отправителя для избежания дублирования
	InstanceID string `json:"instance_id"`

	// RecipientIDs - адресаты; пусто вместе с Role означает всех клиентов
	RecipientIDs []string `json:"recipient_ids,omitempty"`

	// Role ограничивает доставку клиентами роли
	Role string `json:"role,omitempty"`

	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NoOpPubSub реализует PubSubProvider для одиночного режима работы
type NoOpPubSub struct{}

// Publish ничего не делает в одиночном режиме
func (p *NoOpPubSub) Publish(channel string, message []byte) error {
	return nil
}

// Subscribe возвращает канал, который закроется вместе с ctx
func (p *NoOpPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	msgCh := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(msgCh)
	}()
	return msgCh, nil
}

// Close реализует метод PubSubProvider.Close для NoOpPubSub
func (p *NoOpPubSub) Close() error {
	return nil
}

// RedisPubSub реализует PubSubProvider с использованием Redis
type RedisPubSub struct {
	client        redis.UniversalClient
	ctx           context.Context
	cancel        context.CancelFunc
	mu            sync.Mutex
	subscriptions map[string]*redis.PubSub
	ownsClient    bool
}

// RedisPubSubOption настраивает RedisPubSub
type RedisPubSubOption func(*RedisPubSub)

// WithOwnedClient передает клиента провайдеру: Close закроет и его
func WithOwnedClient() RedisPubSubOption {
	return func(p *RedisPubSub) {
		p.ownsClient = true
	}
}

// NewRedisPubSub создает Redis Pub/Sub провайдер поверх существующего UniversalClient.
// Без WithOwnedClient клиент остается во владении вызывающего кода.
func NewRedisPubSub(client redis.UniversalClient, opts ...RedisPubSubOption) (*RedisPubSub, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil for RedisPubSub")
	}

	ctx, cancelCheck := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelCheck()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("provided redis client failed ping check: %w", err)
	}

	ctxPubSub, cancelPubSub := context.WithCancel(context.Background())
	log.Println("[RedisPubSub] Провайдер создан на существующем клиенте")
	p := &RedisPubSub{
		client:        client,
		ctx:           ctxPubSub,
		cancel:        cancelPubSub,
		subscriptions: make(map[string]*redis.PubSub),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Publish публикует сообщение в указанный канал
func (p *RedisPubSub) Publish(channel string, message []byte) error {
	if err := p.client.Publish(p.ctx, channel, message).Err(); err != nil {
		log.Printf("[RedisPubSub] Ошибка публикации в канал '%s': %v", channel, err)
		return fmt.Errorf("failed to publish to Redis channel %s: %w", channel, err)
	}
	return nil
}

// Subscribe подписывается на указанный канал Redis
func (p *RedisPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.subscriptions[channel]; ok {
		return nil, fmt.Errorf("already subscribed to channel %s", channel)
	}

	pubsub := p.client.Subscribe(p.ctx, channel)
	// Ждем подтверждения подписки
	if _, err := pubsub.Receive(p.ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to Redis channel %s: %w", channel, err)
	}
	p.subscriptions[channel] = pubsub
	log.Printf("[RedisPubSub] Подписка на канал '%s' оформлена", channel)

	msgCh := make(chan []byte, 100)
	go func() {
		defer func() {
			p.mu.Lock()
			delete(p.subscriptions, channel)
			p.mu.Unlock()
			pubsub.Close()
			close(msgCh)
		}()

		redisCh := pubsub.Channel()
		for {
			select {
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case msgCh <- []byte(msg.Payload):
				case <-p.ctx.Done():
					return
				case <-ctx.Done():
					return
				}
			case <-p.ctx.Done():
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgCh, nil
}

// Close останавливает все подписки, а для WithOwnedClient закрывает и клиента
func (p *RedisPubSub) Close() error {
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for channel, pubsub := range p.subscriptions {
		if err := pubsub.Close(); err != nil {
			log.Printf("[RedisPubSub] Ошибка закрытия подписки '%s': %v", channel, err)
			lastErr = err
		}
	}
	if p.ownsClient {
		if err := p.client.Close(); err != nil {
			log.Printf("[RedisPubSub] Ошибка закрытия Redis клиента: %v", err)
			lastErr = err
		}
	}
	return lastErr
}
