package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	LogPath      = "./logs/"
	AppLog       = "sniper"
	BackendLog   = "backend"
	ExecutorLog  = "executor"
	ReconcileLog = "reconcile"
	NetworkLog   = "network"
)

// Trade carries the tunable execution parameters. The buy and sell paths
// intentionally keep separate bounds; the defaults mirror production values
// but every one of them can be overridden from the environment.
type Trade struct {
	BuySlippagePpb  uint64 // parts-per-billion
	SellSlippagePpb uint64
	SlippageStepPpb uint64 // escalation added per rebuilt attempt

	SubmitAttempts     int
	SubmitDelay        time.Duration
	ComputeFailCooloff time.Duration

	ConfirmPolls       int
	ConfirmDelay       time.Duration
	HistoryScanLimit   int
	ReconcileAttempts  int
	ReconcileDelay     time.Duration
	FetchAttempts      int
	FetchInitialDelay  time.Duration

	ComputeUnitPrice uint64 // micro-lamports
	ComputeUnitLimit uint32
	TipLamports      uint64
}

type Config struct {
	RpcEndpoint   string
	WsEndpoint    string
	RelayEndpoint string
	RelayAPIKey   string
	SignerKey     string
	DBUrl         string
	DBScheme      string
	DBUser        string
	DBPasswd      string
	RedisUrl      string
	PriceEndpoint string
	PriceAPIKey   string
	TipAccount    string
	NotifyUrl     string
	Listen        string

	Trade Trade
}

// FromEnv builds the engine configuration from the process environment.
// Every credential and endpoint is mandatory; a missing one is a startup
// error, not something to limp along without.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Listen: getenv("LISTEN", ":8062"),
		Trade: Trade{
			BuySlippagePpb:     envUint("BUY_SLIPPAGE_PPB", 650_000_000),
			SellSlippagePpb:    envUint("SELL_SLIPPAGE_PPB", 500_000_000),
			SlippageStepPpb:    envUint("SLIPPAGE_STEP_PPB", 50_000_000),
			SubmitAttempts:     envInt("SUBMIT_ATTEMPTS", 4),
			SubmitDelay:        envDuration("SUBMIT_DELAY", 5*time.Second),
			ComputeFailCooloff: envDuration("COMPUTE_FAIL_COOLOFF", 8*time.Second),
			ConfirmPolls:       envInt("CONFIRM_POLLS", 12),
			ConfirmDelay:       envDuration("CONFIRM_DELAY", 5*time.Second),
			HistoryScanLimit:   envInt("HISTORY_SCAN_LIMIT", 25),
			ReconcileAttempts:  envInt("RECONCILE_ATTEMPTS", 3),
			ReconcileDelay:     envDuration("RECONCILE_DELAY", 10*time.Second),
			FetchAttempts:      envInt("FETCH_ATTEMPTS", 5),
			FetchInitialDelay:  envDuration("FETCH_INITIAL_DELAY", 200*time.Millisecond),
			ComputeUnitPrice:   envUint("COMPUTE_UNIT_PRICE", 25_000),
			ComputeUnitLimit:   uint32(envUint("COMPUTE_UNIT_LIMIT", 600_000)),
			TipLamports:        envUint("TIP_LAMPORTS", 0),
		},
	}

	var err error
	if cfg.RpcEndpoint, err = mustEnv("RPC_URL"); err != nil {
		return nil, err
	}
	if cfg.SignerKey, err = mustEnv("PRIVATE_KEY"); err != nil {
		return nil, err
	}
	if cfg.RelayAPIKey, err = mustEnv("RELAY_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.DBUrl, err = mustEnv("DB_URL"); err != nil {
		return nil, err
	}
	cfg.DBScheme = getenv("DB_SCHEME", "sniper")
	cfg.DBUser = getenv("DB_USER", "sniper")
	cfg.DBPasswd = os.Getenv("DB_PASSWD")
	if cfg.RedisUrl, err = mustEnv("REDIS_URL"); err != nil {
		return nil, err
	}
	if cfg.PriceAPIKey, err = mustEnv("PRICE_API_KEY"); err != nil {
		return nil, err
	}
	cfg.PriceEndpoint = getenv("PRICE_URL", "https://public-api.birdeye.so")
	cfg.WsEndpoint = os.Getenv("WS_URL")
	cfg.RelayEndpoint = os.Getenv("RELAY_URL")
	cfg.TipAccount = os.Getenv("TIP_ACCOUNT")
	cfg.NotifyUrl = os.Getenv("NOTIFY_URL")
	return cfg, nil
}

func mustEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("config: %s is not set", key)
	}
	return v, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("config: %s: %s", key, err))
	}
	return n
}

func envUint(key string, def uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("config: %s: %s", key, err))
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Sprintf("config: %s: %s", key, err))
	}
	return d
}
