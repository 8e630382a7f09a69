package reconciler

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/solsniper/executor/executor"
	"github.com/solsniper/executor/store"
)

var lamportsPerSol = decimal.New(1, 9)

// Store is the durable surface reconciliation writes through.
type Store interface {
	UpsertTradeState(state *store.TradeState) error
	TradeStateFor(mint string) (*store.TradeState, error)
	SaveBuyRecord(record *store.BuyRecord) error
	SaveSellRecord(record *store.SellRecord) error
	HasBuyRecord(signature string) (bool, error)
	HasSellRecord(signature string) (bool, error)
	MarkTokenSold(mint string) error
}

// Pricer supplies the reference-currency price of SOL.
type Pricer interface {
	SolPrice() (decimal.Decimal, error)
}

// Counter tracks how many positions are currently held, shared with the
// signal side of the system.
type Counter interface {
	Increment() error
	Decrement() error
}

// Reconciler is the only component that mutates durable trade state. All
// of its writes are keyed by signature or mint so that re-running the
// same confirmation is a no-op in effect.
type Reconciler struct {
	store   Store
	pricer  Pricer
	counter Counter
	owner   solana.PublicKey
	logger  *log.Logger
}

func NewReconciler(store Store, pricer Pricer, counter Counter, owner solana.PublicKey, logger *log.Logger) *Reconciler {
	return &Reconciler{
		store:   store,
		pricer:  pricer,
		counter: counter,
		owner:   owner,
		logger:  logger,
	}
}

// ReconcileAcquire books a landed acquisition: audit record, trade state
// creation or position increase, in-flight counter bump.
func (reconciler *Reconciler) ReconcileAcquire(intent *executor.Intent, confirmation *executor.Confirmation, decimals uint8) error {
	if confirmation.Outcome != executor.OutcomeLanded || confirmation.Result == nil || confirmation.Result.Meta == nil {
		return fmt.Errorf("reconcile acquire needs a landed confirmation")
	}
	signature := confirmation.Signature.String()
	done, err := reconciler.store.HasBuyRecord(signature)
	if err != nil {
		return err
	}
	if done {
		reconciler.logger.Printf("acquire %s already reconciled", signature)
		return nil
	}

	meta := confirmation.Result.Meta
	mint := intent.Mint.String()
	tokensOut := tokenDelta(meta, reconciler.owner, intent.Mint)
	if tokensOut <= 0 {
		return fmt.Errorf("landed acquire %s moved no tokens", signature)
	}
	spent := lamportsSpent(meta, intent.AmountIn)

	solPrice, err := reconciler.pricer.SolPrice()
	if err != nil {
		return err
	}
	solAmount := decimal.NewFromUint64(spent).Div(lamportsPerSol)
	uiTokens := decimal.NewFromInt(tokensOut).Div(decimal.New(1, int32(decimals)))
	usdAmount := solAmount.Mul(solPrice)
	entryPrice := decimal.Zero
	if !uiTokens.IsZero() {
		entryPrice = usdAmount.Div(uiTokens)
	}
	feeSol := decimal.NewFromUint64(meta.Fee).Div(lamportsPerSol)

	record := &store.BuyRecord{
		Signature:   signature,
		Mint:        mint,
		TokenAmount: uint64(tokensOut),
		SolAmount:   solAmount.InexactFloat64(),
		SolPrice:    solPrice.InexactFloat64(),
		UsdAmount:   usdAmount.InexactFloat64(),
		EntryPrice:  entryPrice.InexactFloat64(),
		FeeLamports: meta.Fee,
		FeeUsd:      feeSol.Mul(solPrice).InexactFloat64(),
		Time:        time.Now().Unix(),
	}
	if err := reconciler.store.SaveBuyRecord(record); err != nil {
		return err
	}

	state, err := reconciler.store.TradeStateFor(mint)
	if err != nil {
		return err
	}
	if state == nil {
		state = &store.TradeState{
			Mint:       mint,
			EntryPrice: record.EntryPrice,
		}
	}
	state.Remaining += uint64(tokensOut)
	state.Sold = false
	state.UpdatedAt = time.Now().Unix()
	if err := reconciler.store.UpsertTradeState(state); err != nil {
		return err
	}
	if err := reconciler.counter.Increment(); err != nil {
		reconciler.logger.Printf("increment position counter err: %s", err.Error())
	}
	reconciler.logger.Printf("acquire %s reconciled: %d tokens at %s usd", signature, tokensOut, entryPrice)
	return nil
}

// ReconcileDispose books a landed disposal: realized profit against the
// stored entry, position decrease, sold flag when flat.
func (reconciler *Reconciler) ReconcileDispose(intent *executor.Intent, confirmation *executor.Confirmation, decimals uint8) error {
	if confirmation.Outcome != executor.OutcomeLanded || confirmation.Result == nil || confirmation.Result.Meta == nil {
		return fmt.Errorf("reconcile dispose needs a landed confirmation")
	}
	signature := confirmation.Signature.String()
	done, err := reconciler.store.HasSellRecord(signature)
	if err != nil {
		return err
	}
	if done {
		reconciler.logger.Printf("dispose %s already reconciled", signature)
		return nil
	}

	meta := confirmation.Result.Meta
	mint := intent.Mint.String()
	tokensIn := -tokenDelta(meta, reconciler.owner, intent.Mint)
	if tokensIn <= 0 {
		return fmt.Errorf("landed dispose %s moved no tokens", signature)
	}
	received := lamportsReceived(meta)

	solPrice, err := reconciler.pricer.SolPrice()
	if err != nil {
		return err
	}
	state, err := reconciler.store.TradeStateFor(mint)
	if err != nil {
		return err
	}
	entryPrice := decimal.Zero
	if state != nil {
		entryPrice = decimal.NewFromFloat(state.EntryPrice)
	}

	solAmount := decimal.NewFromUint64(received).Div(lamportsPerSol)
	uiTokens := decimal.NewFromInt(tokensIn).Div(decimal.New(1, int32(decimals)))
	sellPrice := decimal.Zero
	if !uiTokens.IsZero() {
		sellPrice = solAmount.Mul(solPrice).Div(uiTokens)
	}
	profitUsd := sellPrice.Sub(entryPrice).Mul(uiTokens)
	profit := decimal.Zero
	if !solPrice.IsZero() {
		profit = profitUsd.Div(solPrice)
	}
	profitPercentage := decimal.Zero
	if !entryPrice.IsZero() {
		profitPercentage = sellPrice.Sub(entryPrice).Div(entryPrice).Mul(decimal.NewFromInt(100))
	}
	feeSol := decimal.NewFromUint64(meta.Fee).Div(lamportsPerSol)

	record := &store.SellRecord{
		Signature:        signature,
		Mint:             mint,
		TokenAmount:      uint64(tokensIn),
		SolAmount:        solAmount.InexactFloat64(),
		SolPrice:         solPrice.InexactFloat64(),
		SellPrice:        sellPrice.InexactFloat64(),
		EntryPrice:       entryPrice.InexactFloat64(),
		FeeLamports:      meta.Fee,
		FeeUsd:           feeSol.Mul(solPrice).InexactFloat64(),
		Profit:           profit.InexactFloat64(),
		ProfitUsd:        profitUsd.InexactFloat64(),
		ProfitPercentage: profitPercentage.InexactFloat64(),
		Time:             time.Now().Unix(),
	}
	if err := reconciler.store.SaveSellRecord(record); err != nil {
		return err
	}

	if state == nil {
		state = &store.TradeState{Mint: mint}
	}
	state.TakenOut += solAmount.InexactFloat64()
	if state.Remaining <= uint64(tokensIn) {
		state.Remaining = 0
		state.Sold = true
	} else {
		state.Remaining -= uint64(tokensIn)
	}
	state.UpdatedAt = time.Now().Unix()
	if err := reconciler.store.UpsertTradeState(state); err != nil {
		return err
	}
	if state.Sold {
		if err := reconciler.store.MarkTokenSold(mint); err != nil {
			return err
		}
	}
	if err := reconciler.counter.Decrement(); err != nil {
		reconciler.logger.Printf("decrement position counter err: %s", err.Error())
	}
	reconciler.logger.Printf("dispose %s reconciled: %d tokens, profit %s usd", signature, tokensIn, profitUsd)
	return nil
}

// AlreadySold reports whether the position was fully disposed. Checked
// before re-running a disposal after an indeterminate outcome.
func (reconciler *Reconciler) AlreadySold(mint solana.PublicKey) (bool, error) {
	state, err := reconciler.store.TradeStateFor(mint.String())
	if err != nil {
		return false, err
	}
	return state != nil && state.Sold, nil
}

func tokenDelta(meta *rpc.TransactionMeta, owner, mint solana.PublicKey) int64 {
	pre := ownedTokenAmount(meta.PreTokenBalances, owner, mint)
	post := ownedTokenAmount(meta.PostTokenBalances, owner, mint)
	return int64(post) - int64(pre)
}

func ownedTokenAmount(balances []rpc.TokenBalance, owner, mint solana.PublicKey) uint64 {
	for _, balance := range balances {
		if balance.Mint != mint || balance.Owner == nil || *balance.Owner != owner {
			continue
		}
		if balance.UiTokenAmount == nil {
			continue
		}
		amount, err := strconv.ParseUint(balance.UiTokenAmount.Amount, 10, 64)
		if err != nil {
			continue
		}
		return amount
	}
	return 0
}

// lamportsSpent reads the payer's lamport delta; the payer is always the
// first account. Falls back to the intended input when the meta is thin.
func lamportsSpent(meta *rpc.TransactionMeta, fallback uint64) uint64 {
	if len(meta.PreBalances) == 0 || len(meta.PostBalances) == 0 {
		return fallback
	}
	if meta.PreBalances[0] <= meta.PostBalances[0] {
		return fallback
	}
	return meta.PreBalances[0] - meta.PostBalances[0]
}

// lamportsReceived sums the positive lamport deltas across the
// transaction's accounts.
func lamportsReceived(meta *rpc.TransactionMeta) uint64 {
	var received uint64
	for i := range meta.PostBalances {
		if i >= len(meta.PreBalances) {
			break
		}
		if meta.PostBalances[i] > meta.PreBalances[i] {
			received += meta.PostBalances[i] - meta.PreBalances[i]
		}
	}
	return received
}
