package venue

import (
	"errors"
	"log"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/solsniper/executor/backend"
	"github.com/solsniper/executor/program"
	"github.com/solsniper/executor/pump"
	"github.com/solsniper/executor/raydium"
)

// ErrNoVenue means the asset is not tradeable here. It is an expected
// outcome, not a fault.
var ErrNoVenue = errors.New("no venue for mint")

type Kind int

const (
	KindPool Kind = iota
	KindCurve
)

// Descriptor is a snapshot of the venue a swap will route through. It is
// resolved fresh per attempt since reserves move.
type Descriptor struct {
	Kind  Kind
	Pool  *raydium.PoolKeys
	Curve *pump.KeyedBondingCurve
}

type fetcher interface {
	AccountData(pubkey solana.PublicKey) ([]byte, uint64, error)
	ProgramAccountsData(program solana.PublicKey, dataSize uint64, memFilters []backend.MemFilter) ([]*backend.KeyedAccountData, error)
}

type Resolver struct {
	fetcher fetcher
	logger  *log.Logger
}

func NewResolver(fetcher fetcher, logger *log.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		logger:  logger,
	}
}

// Resolve finds where a mint trades: a liquidity pool first, then the
// bonding curve derived from the mint. ErrNoVenue when neither exists.
func (resolver *Resolver) Resolve(mint solana.PublicKey) (*Descriptor, error) {
	keys, err := resolver.resolvePool(mint)
	if err != nil {
		return nil, err
	}
	if keys != nil {
		resolver.logger.Printf("mint %s trades on pool %s", mint, keys.ID)
		return &Descriptor{Kind: KindPool, Pool: keys}, nil
	}
	curve, err := resolver.resolveCurve(mint)
	if err != nil {
		return nil, err
	}
	if curve != nil {
		resolver.logger.Printf("mint %s trades on bonding curve %s", mint, curve.Key)
		return &Descriptor{Kind: KindCurve, Curve: curve}, nil
	}
	return nil, ErrNoVenue
}

// resolvePool scans for a pool pairing the mint with wrapped SOL, in
// either orientation.
func (resolver *Resolver) resolvePool(mint solana.PublicKey) (*raydium.PoolKeys, error) {
	orientations := [][]backend.MemFilter{
		{
			{Offset: raydium.BaseMintOffset, Bytes: mint.Bytes()},
			{Offset: raydium.QuoteMintOffset, Bytes: program.WSOL.Bytes()},
		},
		{
			{Offset: raydium.BaseMintOffset, Bytes: program.WSOL.Bytes()},
			{Offset: raydium.QuoteMintOffset, Bytes: mint.Bytes()},
		},
	}
	for _, filters := range orientations {
		accounts, err := resolver.fetcher.ProgramAccountsData(program.Raydium, uint64(raydium.LiquidityLayoutSize), filters)
		if err != nil {
			return nil, err
		}
		if len(accounts) == 0 {
			continue
		}
		account := accounts[0]
		pool, err := raydium.ParsePool(account.PubKey, account.Height, account.Data)
		if err != nil {
			resolver.logger.Printf("parse pool err: %s", err.Error())
			continue
		}
		marketData, height, err := resolver.fetcher.AccountData(pool.MarketID)
		if err != nil {
			return nil, err
		}
		market, err := raydium.ParseMarket(pool.MarketID, height, marketData)
		if err != nil {
			return nil, err
		}
		return raydium.BuildPoolKeys(pool, market)
	}
	return nil, nil
}

func (resolver *Resolver) resolveCurve(mint solana.PublicKey) (*pump.KeyedBondingCurve, error) {
	curveKey, associated, err := pump.DeriveBondingCurve(mint)
	if err != nil {
		return nil, err
	}
	data, height, err := resolver.fetcher.AccountData(curveKey)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return pump.ParseBondingCurve(curveKey, associated, height, data)
}
