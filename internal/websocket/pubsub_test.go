package websocket

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedisClient отвечает только на Ping и Close, остальное не вызывается
type fakeRedisClient struct {
	redis.UniversalClient
	pingErr  error
	closeErr error
	closed   int
}

func (f *fakeRedisClient) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "ping")
	if f.pingErr != nil {
		cmd.SetErr(f.pingErr)
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func (f *fakeRedisClient) Close() error {
	f.closed++
	return f.closeErr
}

func TestRedisPubSub_CloseLeavesBorrowedClientOpen(t *testing.T) {
	client := &fakeRedisClient{}
	p, err := NewRedisPubSub(client)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.Equal(t, 0, client.closed)
}

func TestRedisPubSub_CloseClosesOwnedClient(t *testing.T) {
	client := &fakeRedisClient{}
	p, err := NewRedisPubSub(client, WithOwnedClient())
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.Equal(t, 1, client.closed)
}

func TestRedisPubSub_CloseReportsClientError(t *testing.T) {
	client := &fakeRedisClient{closeErr: errors.New("broken pipe")}
	p, err := NewRedisPubSub(client, WithOwnedClient())
	require.NoError(t, err)

	assert.EqualError(t, p.Close(), "broken pipe")
}

func TestNewRedisPubSub_RejectsUnreachableClient(t *testing.T) {
	_, err := NewRedisPubSub(&fakeRedisClient{pingErr: errors.New("connection refused")}, WithOwnedClient())
	assert.ErrorContains(t, err, "connection refused")

	_, err = NewRedisPubSub(nil)
	assert.Error(t, err)
}
