package app

import (
	"context"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/solsniper/executor/backend"
	"github.com/solsniper/executor/config"
	"github.com/solsniper/executor/executor"
	"github.com/solsniper/executor/metadata"
	"github.com/solsniper/executor/netprobe"
	"github.com/solsniper/executor/notify"
	"github.com/solsniper/executor/price"
	"github.com/solsniper/executor/pubsub"
	"github.com/solsniper/executor/reconciler"
	"github.com/solsniper/executor/store"
	"github.com/solsniper/executor/utils"
	"github.com/solsniper/executor/venue"
)

// Sniper is the long lived service: one redis consumer feeding the
// execution pipeline one intent at a time. At most one execution per
// mint is in flight; the signal side guarantees it does not publish a
// second intent for a mint before the confirmation of the first.
type Sniper struct {
	ctx        context.Context
	log        *log.Logger
	config     *config.Config
	wg         sync.WaitGroup
	backend    *backend.Backend
	store      *store.Store
	bus        *pubsub.Bus
	resolver   *venue.Resolver
	controller *executor.Controller
	confirmer  *executor.Confirmer
	reconciler *reconciler.Reconciler
	metadata   *metadata.Client
	notifier   *notify.Notifier
	probe      *netprobe.Probe
	httpServer *http.Server
	startTime  int64
	handled    int64
	succeeded  int64
}

func NewSniper(ctx context.Context, cfg *config.Config) *Sniper {
	sniper := &Sniper{
		ctx:    ctx,
		config: cfg,
		log:    utils.NewLog(config.LogPath, config.AppLog),
	}

	st, err := store.NewStore(ctx, cfg.DBUrl, cfg.DBScheme, cfg.DBUser, cfg.DBPasswd)
	if err != nil {
		panic(err)
	}
	sniper.store = st

	chain := backend.NewBackend(ctx, cfg)
	if err := chain.ImportWallet(cfg.SignerKey); err != nil {
		panic(err)
	}
	sniper.backend = chain

	bus, err := pubsub.NewBus(ctx, cfg.RedisUrl, sniper.log)
	if err != nil {
		panic(err)
	}
	sniper.bus = bus

	executorLog := utils.NewLog(config.LogPath, config.ExecutorLog)
	prices := price.NewClient(cfg.PriceEndpoint, cfg.PriceAPIKey, sniper.log)
	sniper.resolver = venue.NewResolver(chain, executorLog)

	tip := solana.PublicKey{}
	if cfg.TipAccount != "" {
		tip = solana.MustPublicKeyFromBase58(cfg.TipAccount)
	}
	builder := executor.NewBuilder(chain, prices, &cfg.Trade, tip, executorLog)
	sniper.controller = executor.NewController(chain, sniper.resolver, builder, &cfg.Trade, executorLog)
	sniper.confirmer = executor.NewConfirmer(chain, &cfg.Trade, executorLog)

	sniper.notifier = notify.NewNotifier(cfg.NotifyUrl, sniper.log)
	sniper.reconciler = reconciler.NewReconciler(st, prices, bus, chain.Player(),
		utils.NewLog(config.LogPath, config.ReconcileLog))
	sniper.metadata = metadata.NewClient(chain, sniper.log)

	probe, err := netprobe.NewProbe(cfg.RpcEndpoint, sniper.notifier,
		utils.NewLog(config.LogPath, config.NetworkLog))
	if err != nil {
		sniper.log.Printf("network probe disabled: %s", err.Error())
	} else {
		sniper.probe = probe
	}
	return sniper
}

func (sniper *Sniper) Service() {
	sniper.Start()
	sniper.StartRPC()
	<-sniper.ctx.Done()
	sniper.StopRPC()
	sniper.Stop()
}

func (sniper *Sniper) Start() {
	if sniper.probe != nil {
		sniper.probe.Start()
	}
	sniper.backend.Start()
	sniper.wg.Add(1)
	go func() {
		defer sniper.wg.Done()
		if err := sniper.bus.Intents(sniper.handle); err != nil && sniper.ctx.Err() == nil {
			sniper.log.Printf("intent consumer exit: %s", err.Error())
		}
	}()
	sniper.startTime = time.Now().Unix()
	sniper.log.Printf("sniper has started......")
}

func (sniper *Sniper) Stop() {
	if sniper.probe != nil {
		sniper.probe.Stop()
	}
	sniper.backend.Stop()
	sniper.wg.Wait()
	if err := sniper.bus.Close(); err != nil {
		sniper.log.Printf("bus close err: %s", err.Error())
	}
	sniper.log.Printf("sniper has stopped......")
}

// handle runs one intent start to finish and publishes exactly one
// confirmation for it.
func (sniper *Sniper) handle(payload string) {
	atomic.AddInt64(&sniper.handled, 1)
	message, err := pubsub.DecodeTradeMessage(payload)
	if err != nil {
		sniper.log.Printf("drop intent: %s", err.Error())
		return
	}
	mint, err := solana.PublicKeyFromBase58(message.TargetMint())
	if err != nil {
		sniper.log.Printf("drop intent with bad mint %q: %s", message.TargetMint(), err.Error())
		if perr := sniper.bus.PublishConfirmation(message.TargetMint(), false); perr != nil {
			sniper.log.Printf("publish confirmation err: %s", perr.Error())
		}
		return
	}

	success := sniper.execute(message, mint)
	if success {
		atomic.AddInt64(&sniper.succeeded, 1)
	}
	if err := sniper.bus.PublishConfirmation(mint.String(), success); err != nil {
		sniper.log.Printf("publish confirmation err: %s", err.Error())
	}
}

func (sniper *Sniper) execute(message *pubsub.TradeMessage, mint solana.PublicKey) bool {
	intent := buildIntent(message, mint, &sniper.config.Trade)
	sniper.log.Printf("intent: %s %s, amount in %d", intent.Side, intent.Mint, intent.AmountIn)

	if intent.Side == executor.SideDispose {
		sold, err := sniper.reconciler.AlreadySold(mint)
		if err != nil {
			sniper.log.Printf("sold check err: %s", err.Error())
		} else if sold {
			// the position is already flat, a repeated disposal intent
			// must not trade again
			sniper.log.Printf("%s already sold, skipping disposal", mint)
			return true
		}
	}

	attempt, err := sniper.controller.Submit(intent)
	if err != nil {
		sniper.log.Printf("%s %s submit err: %s", intent.Side, mint, err.Error())
		if !executor.TransientSend(err) {
			sniper.notifier.AlertTerminal(intent.Side.String(), mint.String(), err)
			return false
		}
		// a network-class send failure leaves the outcome open, let the
		// confirmer scan the signer history before giving up
		attempt = &executor.Attempt{}
	}

	confirmation := sniper.confirmer.Confirm(intent, attempt)
	switch confirmation.Outcome {
	case executor.OutcomeLanded:
		sniper.log.Printf("%s %s landed, signature %s", intent.Side, mint, confirmation.Signature)
		sniper.reconcile(intent, confirmation, message.LpDecimals)
		if intent.Side == executor.SideAcquire {
			sniper.cacheMetadata(mint)
		}
		return true
	case executor.OutcomeFailed:
		sniper.log.Printf("%s %s failed on chain: %v", intent.Side, mint, confirmation.ChainErr)
		return false
	case executor.OutcomeExpired:
		sniper.log.Printf("%s %s expired, signature %s", intent.Side, mint, confirmation.Signature)
		return false
	default:
		sniper.log.Printf("%s %s indeterminate, signature %s", intent.Side, mint, confirmation.Signature)
		sniper.notifier.AlertIndeterminate(intent.Side.String(), mint.String(), confirmation.Signature.String())
		return false
	}
}

// reconcile retries bookkeeping until it sticks; the swap already
// landed, losing the record is worse than a late one.
func (sniper *Sniper) reconcile(intent *executor.Intent, confirmation *executor.Confirmation, decimals uint8) {
	var err error
	for attempt := 0; attempt < sniper.config.Trade.ReconcileAttempts; attempt++ {
		if intent.Side == executor.SideAcquire {
			err = sniper.reconciler.ReconcileAcquire(intent, confirmation, decimals)
		} else {
			err = sniper.reconciler.ReconcileDispose(intent, confirmation, decimals)
		}
		if err == nil {
			return
		}
		sniper.log.Printf("reconcile %s err: %s", confirmation.Signature, err.Error())
		time.Sleep(sniper.config.Trade.ReconcileDelay)
	}
	sniper.notifier.AlertUnrecorded(intent.Side.String(), intent.Mint.String(),
		confirmation.Signature.String(), err)
}

func (sniper *Sniper) cacheMetadata(mint solana.PublicKey) {
	token, err := sniper.metadata.TokenFor(mint)
	if err != nil {
		sniper.log.Printf("metadata for %s err: %s", mint, err.Error())
		return
	}
	if err := sniper.store.UpsertToken(token); err != nil {
		sniper.log.Printf("cache token %s err: %s", mint, err.Error())
	}
}

// buildIntent converts the wire message into raw chain units: lamports
// in for a buy, raw token units in for a sell.
func buildIntent(message *pubsub.TradeMessage, mint solana.PublicKey, trade *config.Trade) *executor.Intent {
	if message.Type == "buy" {
		lamports := decimal.NewFromFloat(message.AmountIn).Mul(decimal.New(1, 9)).Truncate(0)
		return &executor.Intent{
			Mint:        mint,
			Side:        executor.SideAcquire,
			AmountIn:    lamports.BigInt().Uint64(),
			SlippagePpb: trade.BuySlippagePpb,
		}
	}
	tokens := decimal.NewFromFloat(message.Amount).Mul(decimal.New(1, int32(message.LpDecimals))).Truncate(0)
	return &executor.Intent{
		Mint:        mint,
		Side:        executor.SideDispose,
		AmountIn:    tokens.BigInt().Uint64(),
		SlippagePpb: trade.SellSlippagePpb,
	}
}

type statusInfo struct {
	Uptime    int64 `json:"uptime"`
	Handled   int64 `json:"handled"`
	Succeeded int64 `json:"succeeded"`
}

func (sniper *Sniper) StartRPC() {
	router := gin.New()
	g := router.Group("/api")
	g.GET("/status", sniper.getStatus)
	g.GET("/position", sniper.getPosition)
	sniper.httpServer = &http.Server{
		Addr:    sniper.config.Listen,
		Handler: router,
	}
	sniper.log.Printf("start rpc server......")
	go func() {
		if err := sniper.httpServer.ListenAndServe(); err != nil {
			sniper.log.Printf("ListenAndServe: %s", err.Error())
		}
	}()
}

func (sniper *Sniper) StopRPC() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sniper.httpServer.Shutdown(ctx); err != nil {
		sniper.log.Printf("rpc server shutdown err: %s", err.Error())
	}
	sniper.log.Printf("rpc server has stopped......")
}

func (sniper *Sniper) getStatus(c *gin.Context) {
	c.JSON(200, &statusInfo{
		Uptime:    time.Now().Unix() - sniper.startTime,
		Handled:   atomic.LoadInt64(&sniper.handled),
		Succeeded: atomic.LoadInt64(&sniper.succeeded),
	})
}

func (sniper *Sniper) getPosition(c *gin.Context) {
	mint, ok := c.GetQuery("mint")
	if !ok {
		c.JSON(500, "parameter is invalid")
		return
	}
	state, err := sniper.store.TradeStateFor(mint)
	if err != nil {
		c.JSON(500, err.Error())
		return
	}
	if state == nil {
		c.JSON(404, "no position")
		return
	}
	c.JSON(200, state)
}
