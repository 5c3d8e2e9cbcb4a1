package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, KVMemory, cfg.KV.Backend)
	assert.Equal(t, 365*24*time.Hour, cfg.Consent.TTL)
	assert.Equal(t, time.Second, cfg.Consent.PromptDelay)
	assert.Equal(t, 20*time.Second, cfg.Session.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.Session.EngagementInterval)
	assert.Equal(t, "pawty.datalayer.events", cfg.Kafka.Topic)
	assert.False(t, cfg.RelayEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PAWTY_ADDR", ":9090")
	t.Setenv("PAWTY_KV_BACKEND", "redis")
	t.Setenv("PAWTY_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PAWTY_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PAWTY_PROMPT_DELAY", "0s")
	t.Setenv("PAWTY_TRUSTED_PROXIES", "10.0.0.0/8,192.168.0.0/16")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, KVRedis, cfg.KV.Backend)
	assert.Zero(t, cfg.Consent.PromptDelay)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.TrustedProxies)
	assert.True(t, cfg.RelayEnabled())
}

func TestFromEnvRejectsBadSettings(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown backend":     {"PAWTY_KV_BACKEND": "etcd"},
		"redis without url":   {"PAWTY_KV_BACKEND": "redis"},
		"bad duration":        {"PAWTY_CONSENT_TTL": "forever"},
		"zero consent ttl":    {"PAWTY_CONSENT_TTL": "0s"},
		"negative delay":      {"PAWTY_PROMPT_DELAY": "-1s"},
		"zero relay interval": {"PAWTY_RELAY_INTERVAL": "0s"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
