package reconciler

import (
	"io"
	"log"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/solsniper/executor/executor"
	"github.com/solsniper/executor/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testMint  = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	testOwner = solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
)

type fakeStore struct {
	states    map[string]store.TradeState
	buys      map[string]store.BuyRecord
	sells     map[string]store.SellRecord
	soldMints map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		states:    make(map[string]store.TradeState),
		buys:      make(map[string]store.BuyRecord),
		sells:     make(map[string]store.SellRecord),
		soldMints: make(map[string]bool),
	}
}

func (f *fakeStore) UpsertTradeState(state *store.TradeState) error {
	f.states[state.Mint] = *state
	return nil
}

func (f *fakeStore) TradeStateFor(mint string) (*store.TradeState, error) {
	state, ok := f.states[mint]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (f *fakeStore) SaveBuyRecord(record *store.BuyRecord) error {
	if _, ok := f.buys[record.Signature]; !ok {
		f.buys[record.Signature] = *record
	}
	return nil
}

func (f *fakeStore) SaveSellRecord(record *store.SellRecord) error {
	if _, ok := f.sells[record.Signature]; !ok {
		f.sells[record.Signature] = *record
	}
	return nil
}

func (f *fakeStore) HasBuyRecord(signature string) (bool, error) {
	_, ok := f.buys[signature]
	return ok, nil
}

func (f *fakeStore) HasSellRecord(signature string) (bool, error) {
	_, ok := f.sells[signature]
	return ok, nil
}

func (f *fakeStore) MarkTokenSold(mint string) error {
	f.soldMints[mint] = true
	return nil
}

type fakePricer struct {
	price decimal.Decimal
}

func (f *fakePricer) SolPrice() (decimal.Decimal, error) {
	return f.price, nil
}

type fakeCounter struct {
	ups   int
	downs int
}

func (f *fakeCounter) Increment() error {
	f.ups++
	return nil
}

func (f *fakeCounter) Decrement() error {
	f.downs++
	return nil
}

func landedConfirmation(sig solana.Signature, meta *rpc.TransactionMeta) *executor.Confirmation {
	return &executor.Confirmation{
		Outcome:   executor.OutcomeLanded,
		Signature: sig,
		Result:    &rpc.GetTransactionResult{Meta: meta},
	}
}

func tradeMeta(fee, preTokens, postTokens uint64, preLamports, postLamports []uint64) *rpc.TransactionMeta {
	owner := testOwner
	return &rpc.TransactionMeta{
		Fee:          fee,
		PreBalances:  preLamports,
		PostBalances: postLamports,
		PreTokenBalances: []rpc.TokenBalance{{
			Mint:          testMint,
			Owner:         &owner,
			UiTokenAmount: &rpc.UiTokenAmount{Amount: amountString(preTokens)},
		}},
		PostTokenBalances: []rpc.TokenBalance{{
			Mint:          testMint,
			Owner:         &owner,
			UiTokenAmount: &rpc.UiTokenAmount{Amount: amountString(postTokens)},
		}},
	}
}

func amountString(amount uint64) string {
	return decimal.NewFromUint64(amount).String()
}

func newTestReconciler(st *fakeStore, counter *fakeCounter) *Reconciler {
	logger := log.New(io.Discard, "", log.LstdFlags)
	pricer := &fakePricer{price: decimal.NewFromInt(150)}
	return NewReconciler(st, pricer, counter, testOwner, logger)
}

func TestReconcileAcquire(t *testing.T) {
	st := newFakeStore()
	counter := &fakeCounter{}
	reconciler := newTestReconciler(st, counter)

	intent := &executor.Intent{Mint: testMint, Side: executor.SideAcquire, AmountIn: 1_000_000_000}
	meta := tradeMeta(5000, 0, 5_000_000_000,
		[]uint64{2_000_000_000}, []uint64{999_995_000})
	confirmation := landedConfirmation(solana.Signature{1}, meta)

	require.NoError(t, reconciler.ReconcileAcquire(intent, confirmation, 6))

	record, ok := st.buys[confirmation.Signature.String()]
	require.True(t, ok)
	assert.Equal(t, uint64(5_000_000_000), record.TokenAmount)
	assert.InDelta(t, 1.000005, record.SolAmount, 1e-9)
	assert.InDelta(t, 150.00075, record.UsdAmount, 1e-6)
	assert.InDelta(t, 0.03000015, record.EntryPrice, 1e-9)
	assert.Equal(t, uint64(5000), record.FeeLamports)

	state, ok := st.states[testMint.String()]
	require.True(t, ok)
	assert.Equal(t, uint64(5_000_000_000), state.Remaining)
	assert.InDelta(t, 0.03000015, state.EntryPrice, 1e-9)
	assert.False(t, state.Sold)
	assert.Equal(t, 1, counter.ups)
}

func TestReconcileAcquireIdempotent(t *testing.T) {
	st := newFakeStore()
	counter := &fakeCounter{}
	reconciler := newTestReconciler(st, counter)

	intent := &executor.Intent{Mint: testMint, Side: executor.SideAcquire, AmountIn: 1_000_000_000}
	meta := tradeMeta(5000, 0, 5_000_000_000,
		[]uint64{2_000_000_000}, []uint64{999_995_000})
	confirmation := landedConfirmation(solana.Signature{1}, meta)

	require.NoError(t, reconciler.ReconcileAcquire(intent, confirmation, 6))
	require.NoError(t, reconciler.ReconcileAcquire(intent, confirmation, 6))

	assert.Len(t, st.buys, 1)
	assert.Equal(t, uint64(5_000_000_000), st.states[testMint.String()].Remaining)
	assert.Equal(t, 1, counter.ups)
}

func TestReconcileAcquireNoTokensMoved(t *testing.T) {
	st := newFakeStore()
	reconciler := newTestReconciler(st, &fakeCounter{})

	intent := &executor.Intent{Mint: testMint, Side: executor.SideAcquire, AmountIn: 1_000_000_000}
	meta := tradeMeta(5000, 100, 100, []uint64{2_000_000_000}, []uint64{999_995_000})
	confirmation := landedConfirmation(solana.Signature{1}, meta)

	err := reconciler.ReconcileAcquire(intent, confirmation, 6)
	assert.Error(t, err)
	assert.Empty(t, st.buys)
}

func TestReconcileDispose(t *testing.T) {
	st := newFakeStore()
	counter := &fakeCounter{}
	reconciler := newTestReconciler(st, counter)
	st.states[testMint.String()] = store.TradeState{
		Mint:       testMint.String(),
		EntryPrice: 0.02,
		Remaining:  5_000_000_000,
	}

	intent := &executor.Intent{Mint: testMint, Side: executor.SideDispose, AmountIn: 5_000_000_000}
	meta := tradeMeta(5000, 5_000_000_000, 0,
		[]uint64{1_000_000_000}, []uint64{2_500_000_000})
	confirmation := landedConfirmation(solana.Signature{2}, meta)

	require.NoError(t, reconciler.ReconcileDispose(intent, confirmation, 6))

	record, ok := st.sells[confirmation.Signature.String()]
	require.True(t, ok)
	assert.Equal(t, uint64(5_000_000_000), record.TokenAmount)
	assert.InDelta(t, 1.5, record.SolAmount, 1e-9)
	assert.InDelta(t, 0.045, record.SellPrice, 1e-9)
	assert.InDelta(t, 125.0, record.ProfitUsd, 1e-6)
	assert.InDelta(t, 125.0/150.0, record.Profit, 1e-9)
	assert.InDelta(t, 125.0, record.ProfitPercentage, 1e-6)

	state := st.states[testMint.String()]
	assert.Equal(t, uint64(0), state.Remaining)
	assert.True(t, state.Sold)
	assert.InDelta(t, 1.5, state.TakenOut, 1e-9)
	assert.True(t, st.soldMints[testMint.String()])
	assert.Equal(t, 1, counter.downs)
}

func TestReconcileDisposePartial(t *testing.T) {
	st := newFakeStore()
	counter := &fakeCounter{}
	reconciler := newTestReconciler(st, counter)
	st.states[testMint.String()] = store.TradeState{
		Mint:       testMint.String(),
		EntryPrice: 0.02,
		Remaining:  5_000_000_000,
	}

	intent := &executor.Intent{Mint: testMint, Side: executor.SideDispose, AmountIn: 2_000_000_000}
	meta := tradeMeta(5000, 5_000_000_000, 3_000_000_000,
		[]uint64{1_000_000_000}, []uint64{1_600_000_000})
	confirmation := landedConfirmation(solana.Signature{3}, meta)

	require.NoError(t, reconciler.ReconcileDispose(intent, confirmation, 6))

	state := st.states[testMint.String()]
	assert.Equal(t, uint64(3_000_000_000), state.Remaining)
	assert.False(t, state.Sold)
	assert.False(t, st.soldMints[testMint.String()])
}

func TestReconcileDisposeIdempotent(t *testing.T) {
	st := newFakeStore()
	counter := &fakeCounter{}
	reconciler := newTestReconciler(st, counter)
	st.states[testMint.String()] = store.TradeState{
		Mint:       testMint.String(),
		EntryPrice: 0.02,
		Remaining:  5_000_000_000,
	}

	intent := &executor.Intent{Mint: testMint, Side: executor.SideDispose, AmountIn: 5_000_000_000}
	meta := tradeMeta(5000, 5_000_000_000, 0,
		[]uint64{1_000_000_000}, []uint64{2_500_000_000})
	confirmation := landedConfirmation(solana.Signature{2}, meta)

	require.NoError(t, reconciler.ReconcileDispose(intent, confirmation, 6))
	require.NoError(t, reconciler.ReconcileDispose(intent, confirmation, 6))

	assert.Len(t, st.sells, 1)
	assert.Equal(t, 1, counter.downs)
	assert.InDelta(t, 1.5, st.states[testMint.String()].TakenOut, 1e-9)
}

func TestAlreadySold(t *testing.T) {
	st := newFakeStore()
	reconciler := newTestReconciler(st, &fakeCounter{})

	sold, err := reconciler.AlreadySold(testMint)
	require.NoError(t, err)
	assert.False(t, sold)

	st.states[testMint.String()] = store.TradeState{Mint: testMint.String(), Sold: true}
	sold, err = reconciler.AlreadySold(testMint)
	require.NoError(t, err)
	assert.True(t, sold)
}
