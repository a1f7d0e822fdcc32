package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skoll.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Gateway.Port)
	assert.Equal(t, ":8080", cfg.Feed.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
gateway:
  address: 127.0.0.1
  port: 7001
feed:
  address: ":9090"
  depth: 10
kafka:
  brokers: ["localhost:9092"]
  topic: trades
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Gateway.Address)
	assert.Equal(t, 7001, cfg.Gateway.Port)
	assert.Equal(t, 10, cfg.Feed.Depth)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SKOLL_GATEWAY_ADDRESS", "10.0.0.5")
	t.Setenv("SKOLL_KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("SKOLL_KAFKA_TOPIC", "fills")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", cfg.Gateway.Address)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "fills", cfg.Kafka.Topic)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "gateway:\n  port: -1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "logging:\n  level: loud\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "kafka:\n  brokers: [\"localhost:9092\"]\n"))
	assert.Error(t, err, "brokers without a topic must be rejected")
}
