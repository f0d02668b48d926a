package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"card-game-bot/internal/config"
)

func TestPoolConfig(t *testing.T) {
	pc, err := poolConfig(&config.DatabaseConfig{
		Host:            "db",
		Port:            5433,
		User:            "bot",
		Password:        "secret",
		Name:            "cards",
		PoolSize:        20,
		ConnectTimeout:  3 * time.Second,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, "db", pc.ConnConfig.Host)
	assert.Equal(t, uint16(5433), pc.ConnConfig.Port)
	assert.Equal(t, "cards", pc.ConnConfig.Database)
	assert.Equal(t, int32(20), pc.MaxConns)
	assert.Equal(t, int32(5), pc.MinConns)
	assert.Equal(t, 3*time.Second, pc.ConnConfig.ConnectTimeout)
	assert.Equal(t, time.Hour, pc.MaxConnLifetime)
	assert.Equal(t, time.Minute, pc.MaxConnIdleTime)
	assert.Equal(t, healthCheckPeriod, pc.HealthCheckPeriod)
}

func TestPoolConfig_SmallPoolKeepsOneConnection(t *testing.T) {
	pc, err := poolConfig(&config.DatabaseConfig{Host: "db", Port: 5432, User: "bot", Name: "cards", PoolSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(2), pc.MaxConns)
	assert.Equal(t, int32(1), pc.MinConns)
}

func TestRedisOptions(t *testing.T) {
	opts := redisOptions(&config.RedisConfig{Addr: "cache:6379", Password: "pw", DB: 2, Queue: "q"})
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
}
