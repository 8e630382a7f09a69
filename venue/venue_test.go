package venue

import (
	"encoding/binary"
	"io"
	"log"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/solsniper/executor/backend"
	"github.com/solsniper/executor/program"
	"github.com/solsniper/executor/pump"
	"github.com/solsniper/executor/raydium"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	accounts map[solana.PublicKey][]byte
	pools    []*backend.KeyedAccountData
	poolErr  error
	scans    int
}

func (f *fakeFetcher) AccountData(pubkey solana.PublicKey) ([]byte, uint64, error) {
	data, ok := f.accounts[pubkey]
	if !ok {
		return nil, 0, rpc.ErrNotFound
	}
	return data, 100, nil
}

func (f *fakeFetcher) ProgramAccountsData(programID solana.PublicKey, dataSize uint64, memFilters []backend.MemFilter) ([]*backend.KeyedAccountData, error) {
	f.scans++
	if f.poolErr != nil {
		return nil, f.poolErr
	}
	if len(f.pools) == 0 {
		return nil, nil
	}
	// honor the mint filters so orientation selection is observable
	for _, pool := range f.pools {
		matched := true
		for _, filter := range memFilters {
			if string(pool.Data[filter.Offset:filter.Offset+32]) != string(filter.Bytes) {
				matched = false
				break
			}
		}
		if matched {
			return []*backend.KeyedAccountData{pool}, nil
		}
	}
	return nil, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func buildPoolAccount(t *testing.T, poolKey, baseMint, quoteMint, marketID, marketProgram solana.PublicKey) *backend.KeyedAccountData {
	t.Helper()
	data := make([]byte, raydium.LiquidityLayoutSize)
	binary.LittleEndian.PutUint64(data[32:], 9)
	binary.LittleEndian.PutUint64(data[40:], 6)
	copy(data[raydium.BaseMintOffset:], baseMint.Bytes())
	copy(data[raydium.QuoteMintOffset:], quoteMint.Bytes())
	copy(data[528:], marketID.Bytes())
	copy(data[560:], marketProgram.Bytes())
	return &backend.KeyedAccountData{PubKey: poolKey, Data: data, Height: 100}
}

func buildCurveAccount(t *testing.T, virtualToken, virtualSol uint64) []byte {
	t.Helper()
	data := make([]byte, pump.BondingCurveLayoutSize)
	binary.LittleEndian.PutUint64(data[8:], virtualToken)
	binary.LittleEndian.PutUint64(data[16:], virtualSol)
	binary.LittleEndian.PutUint64(data[24:], virtualToken)
	return data
}

func TestResolvePool(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	poolKey := solana.MustPublicKeyFromBase58("58oQChx4yWmvKdwLLZzBi4ChoCc2fqCUWBkwMihLYQo2")
	marketID := solana.MustPublicKeyFromBase58("9wFFyRfZBsuAha4YcuxcXLKwMxJR43S7fPfQLusDBzvT")
	marketProgram := solana.MustPublicKeyFromBase58("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")

	fetcher := &fakeFetcher{
		pools: []*backend.KeyedAccountData{
			buildPoolAccount(t, poolKey, mint, program.WSOL, marketID, marketProgram),
		},
		accounts: map[solana.PublicKey][]byte{
			marketID: make([]byte, raydium.MarketLayoutSize),
		},
	}
	resolver := NewResolver(fetcher, testLogger())

	descriptor, err := resolver.Resolve(mint)
	require.NoError(t, err)
	assert.Equal(t, KindPool, descriptor.Kind)
	require.NotNil(t, descriptor.Pool)
	assert.Equal(t, poolKey, descriptor.Pool.ID)
	assert.Equal(t, mint, descriptor.Pool.BaseMint)
	assert.Equal(t, program.WSOL, descriptor.Pool.QuoteMint)
	assert.Equal(t, program.RaydiumAuthority, descriptor.Pool.Authority)
}

func TestResolvePoolReverseOrientation(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	poolKey := solana.MustPublicKeyFromBase58("58oQChx4yWmvKdwLLZzBi4ChoCc2fqCUWBkwMihLYQo2")
	marketID := solana.MustPublicKeyFromBase58("9wFFyRfZBsuAha4YcuxcXLKwMxJR43S7fPfQLusDBzvT")
	marketProgram := solana.MustPublicKeyFromBase58("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")

	fetcher := &fakeFetcher{
		pools: []*backend.KeyedAccountData{
			buildPoolAccount(t, poolKey, program.WSOL, mint, marketID, marketProgram),
		},
		accounts: map[solana.PublicKey][]byte{
			marketID: make([]byte, raydium.MarketLayoutSize),
		},
	}
	resolver := NewResolver(fetcher, testLogger())

	descriptor, err := resolver.Resolve(mint)
	require.NoError(t, err)
	assert.Equal(t, KindPool, descriptor.Kind)
	assert.Equal(t, program.WSOL, descriptor.Pool.BaseMint)
	assert.Equal(t, mint, descriptor.Pool.QuoteMint)
	assert.Equal(t, 2, fetcher.scans)
}

func TestResolveCurveFallback(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	curveKey, associated, err := pump.DeriveBondingCurve(mint)
	require.NoError(t, err)

	fetcher := &fakeFetcher{
		accounts: map[solana.PublicKey][]byte{
			curveKey: buildCurveAccount(t, 1_073_000_000_000_000, 30_000_000_000),
		},
	}
	resolver := NewResolver(fetcher, testLogger())

	descriptor, err := resolver.Resolve(mint)
	require.NoError(t, err)
	assert.Equal(t, KindCurve, descriptor.Kind)
	require.NotNil(t, descriptor.Curve)
	assert.Equal(t, curveKey, descriptor.Curve.Key)
	assert.Equal(t, associated, descriptor.Curve.Associated)
	assert.Equal(t, uint64(30_000_000_000), descriptor.Curve.VirtualSolReserves)
	assert.Equal(t, 2, fetcher.scans)
}

func TestResolveNoVenue(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	resolver := NewResolver(&fakeFetcher{}, testLogger())

	_, err := resolver.Resolve(mint)
	assert.ErrorIs(t, err, ErrNoVenue)
}

func TestResolveScanError(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	resolver := NewResolver(&fakeFetcher{poolErr: assert.AnError}, testLogger())

	_, err := resolver.Resolve(mint)
	assert.ErrorIs(t, err, assert.AnError)
}
