package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, PersistModeDirect, cfg.Collab.PersistMode)
	assert.Equal(t, 100, cfg.Collab.HistoryLimit)
	assert.Equal(t, 10*time.Second, cfg.Collab.PersistTimeout)
	assert.Equal(t, int64(1<<20), cfg.WebSocket.MaxMessageBytes)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.MinIO.Enabled())
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("COLLAB_PERSIST_MODE", "kafka")
	t.Setenv("COLLAB_STRICT_CREATE", "true")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, PersistModeKafka, cfg.Collab.PersistMode)
	assert.True(t, cfg.Collab.StrictCreate)
	assert.Len(t, cfg.WebSocket.AllowedOrigins, 2)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load(viper.New())
	assert.Error(t, err)
}

func TestLoadRejectsUnknownPersistMode(t *testing.T) {
	t.Setenv("COLLAB_PERSIST_MODE", "carrier-pigeon")

	_, err := Load(viper.New())
	assert.Error(t, err)
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: "8081"}
	assert.Equal(t, "127.0.0.1:8081", s.Addr())
}
