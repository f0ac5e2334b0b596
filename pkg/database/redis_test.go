package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/detective-api/internal/config"
)

func TestRedisOptions_Single(t *testing.T) {
	opts, err := RedisOptions(config.RedisConfig{Addr: "localhost:6379", DB: 2, MinRetryBackoff: 8})

	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:6379"}, opts.Addrs)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 8*time.Millisecond, opts.MinRetryBackoff)
	assert.Empty(t, opts.MasterName)
}

func TestRedisOptions_Sentinel(t *testing.T) {
	_, err := RedisOptions(config.RedisConfig{Mode: "sentinel", Addrs: []string{"s1:26379"}})
	assert.Error(t, err)

	opts, err := RedisOptions(config.RedisConfig{Mode: "sentinel", Addrs: []string{"s1:26379", "s2:26379"}, MasterName: "cases"})
	require.NoError(t, err)
	assert.Equal(t, "cases", opts.MasterName)
	assert.Len(t, opts.Addrs, 2)
}

func TestRedisOptions_Errors(t *testing.T) {
	_, err := RedisOptions(config.RedisConfig{})
	assert.Error(t, err)

	_, err = RedisOptions(config.RedisConfig{Mode: "ring", Addr: "localhost:6379"})
	assert.Error(t, err)

	_, err = RedisOptions(config.RedisConfig{Mode: "cluster", Addrs: []string{"a:1", "b:2"}, DB: 1})
	assert.Error(t, err)
}
