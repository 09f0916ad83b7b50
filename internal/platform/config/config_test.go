package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 48*time.Hour, cfg.UnlockCooldown)
	assert.Equal(t, 3, cfg.AutoUnlockThreshold)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestFromEnvBrokerList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,,kafka-3:9092")

	cfg := FromEnv()

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092", "kafka-3:9092"}, cfg.Kafka.Brokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("UNLOCK_COOLDOWN", "24h")
	t.Setenv("AUTO_UNLOCK_THRESHOLD", "5")

	cfg := FromEnv()

	assert.Equal(t, 24*time.Hour, cfg.UnlockCooldown)
	assert.Equal(t, 5, cfg.AutoUnlockThreshold)
}
