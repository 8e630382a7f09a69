package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setAll(t *testing.T) {
	t.Setenv("RPC_URL", "http://localhost:8899")
	t.Setenv("PRIVATE_KEY", "key")
	t.Setenv("RELAY_API_KEY", "relay-key")
	t.Setenv("DB_URL", "root:root@tcp(localhost:3306)/sniper")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("PRICE_API_KEY", "price-key")
}

func TestFromEnv(t *testing.T) {
	setAll(t)
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8899", cfg.RpcEndpoint)
	assert.Equal(t, 4, cfg.Trade.SubmitAttempts)
	assert.Equal(t, uint64(650_000_000), cfg.Trade.BuySlippagePpb)
	assert.Equal(t, uint32(600_000), cfg.Trade.ComputeUnitLimit)
}

func TestFromEnvMissingMandatory(t *testing.T) {
	setAll(t)
	t.Setenv("REDIS_URL", "")
	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestFromEnvOverrides(t *testing.T) {
	setAll(t)
	t.Setenv("SUBMIT_ATTEMPTS", "7")
	t.Setenv("CONFIRM_DELAY", "250ms")
	t.Setenv("TIP_ACCOUNT", "96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Trade.SubmitAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Trade.ConfirmDelay)
	assert.NotEmpty(t, cfg.TipAccount)
}
