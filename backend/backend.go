package backend

import (
	"context"
	"log"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/solsniper/executor/config"
	"github.com/solsniper/executor/retry"
	"github.com/solsniper/executor/utils"
)

// Backend owns the chain connections: the query RPC client, the optional
// transaction relay (authenticated with an API key header) and the optional
// websocket endpoint used for signature notifications.
type Backend struct {
	ctx         context.Context
	logger      *log.Logger
	rpcClient   *rpc.Client
	relayClient *rpc.Client
	wsEndpoint  string
	wsClient    *ws.Client
	wallets     []*Wallet
	player      solana.PublicKey
	fetchPolicy retry.Policy
}

func NewBackend(ctx context.Context, cfg *config.Config) *Backend {
	backend := &Backend{
		ctx:        ctx,
		logger:     utils.NewLog(config.LogPath, config.BackendLog),
		rpcClient:  rpc.New(cfg.RpcEndpoint),
		wsEndpoint: cfg.WsEndpoint,
		fetchPolicy: retry.Policy{
			Attempts:     cfg.Trade.FetchAttempts,
			InitialDelay: cfg.Trade.FetchInitialDelay,
			Classify:     classifyFetch,
		},
	}
	if cfg.RelayEndpoint != "" {
		backend.relayClient = rpc.NewWithHeaders(cfg.RelayEndpoint, map[string]string{
			"X-API-KEY": cfg.RelayAPIKey,
		})
	}
	return backend
}

func (backend *Backend) Start() {
	if backend.wsEndpoint == "" {
		return
	}
	wsClient, err := ws.Connect(backend.ctx, backend.wsEndpoint)
	if err != nil {
		// The websocket is a fast path only; polling covers for it.
		backend.logger.Printf("ws connect err: %s", err.Error())
		return
	}
	backend.wsClient = wsClient
	backend.logger.Printf("ws connected: %s", backend.wsEndpoint)
}

func (backend *Backend) Stop() {
	if backend.wsClient != nil {
		backend.wsClient.Close()
		backend.wsClient = nil
	}
}
