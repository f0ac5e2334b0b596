package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yourusername/detective-api/internal/config"
)

const redisPingTimeout = 5 * time.Second

// RedisOptions строит опции UniversalClient для режимов single, sentinel и cluster
func RedisOptions(cfg config.RedisConfig) (*redis.UniversalOptions, error) {
	addrs := cfg.Addrs
	if len(addrs) == 0 && cfg.Addr != "" {
		addrs = []string{cfg.Addr}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("redis: addrs or addr must be provided")
	}

	opts := &redis.UniversalOptions{
		Addrs:           addrs,
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoff) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoff) * time.Millisecond,
	}

	// UniversalClient выбирает режим сам: MasterName -> sentinel, несколько адресов -> cluster
	switch cfg.Mode {
	case "", "single":
		if len(addrs) > 1 {
			opts.Addrs = addrs[:1]
		}
	case "sentinel":
		if cfg.MasterName == "" {
			return nil, fmt.Errorf("redis: sentinel mode requires master_name")
		}
		opts.MasterName = cfg.MasterName
	case "cluster":
		if cfg.DB != 0 {
			return nil, fmt.Errorf("redis: cluster mode supports only db 0")
		}
	default:
		return nil, fmt.Errorf("redis: unsupported mode %q", cfg.Mode)
	}
	return opts, nil
}

// NewUniversalRedisClient создает клиент Redis и проверяет подключение
func NewUniversalRedisClient(cfg config.RedisConfig) (redis.UniversalClient, error) {
	opts, err := RedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis (mode: %s, addrs: %v): %w", cfg.Mode, opts.Addrs, err)
	}
	return client, nil
}
