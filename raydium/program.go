package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/solsniper/executor/program"
)

const swapBaseInInstruction = 9

// PoolKeys is the full account set a v4 swap instruction references,
// assembled from the pool state and its serum market.
type PoolKeys struct {
	ID               solana.PublicKey
	BaseMint         solana.PublicKey
	QuoteMint        solana.PublicKey
	LpMint           solana.PublicKey
	BaseDecimals     uint8
	QuoteDecimals    uint8
	Authority        solana.PublicKey
	OpenOrders       solana.PublicKey
	TargetOrders     solana.PublicKey
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	MarketProgramID  solana.PublicKey
	MarketID         solana.PublicKey
	MarketAuthority  solana.PublicKey
	MarketBaseVault  solana.PublicKey
	MarketQuoteVault solana.PublicKey
	MarketBids       solana.PublicKey
	MarketAsks       solana.PublicKey
	MarketEventQueue solana.PublicKey
}

// ParsePool decodes a raw v4 pool account.
func ParsePool(key solana.PublicKey, height uint64, data []byte) (*KeyedPool, error) {
	if len(data) != LiquidityLayoutSize {
		return nil, fmt.Errorf("pool account(%s) data size is %d, expect %d", key, len(data), LiquidityLayoutSize)
	}
	pool := &KeyedPool{Key: key, Height: height}
	if err := pool.unpack(data); err != nil {
		return nil, fmt.Errorf("pool account(%s) data is not valid, err: %w", key, err)
	}
	return pool, nil
}

// ParseMarket decodes a raw serum v3 market account.
func ParseMarket(key solana.PublicKey, height uint64, data []byte) (*KeyedMarket, error) {
	if len(data) < MarketLayoutSize {
		return nil, fmt.Errorf("market account(%s) data size is %d, expect %d", key, len(data), MarketLayoutSize)
	}
	market := &KeyedMarket{Key: key, Height: height}
	if err := market.unpack(data[:MarketLayoutSize]); err != nil {
		return nil, fmt.Errorf("market account(%s) data is not valid, err: %w", key, err)
	}
	return market, nil
}

// AssociatedAuthority searches for the market's vault signer address.
// The nonce is not stored anywhere usable, so walk candidates until one
// lands off the ed25519 curve.
func AssociatedAuthority(marketProgram, marketID solana.PublicKey) (solana.PublicKey, error) {
	padding := make([]byte, 7)
	for nonce := uint8(0); nonce < 100; nonce++ {
		authority, err := solana.CreateProgramAddress([][]byte{marketID.Bytes(), {nonce}, padding}, marketProgram)
		if err == nil {
			return authority, nil
		}
	}
	return solana.PublicKey{}, fmt.Errorf("no associated authority for market %s", marketID)
}

// BuildPoolKeys joins the pool and market state into the account set the
// swap instruction needs.
func BuildPoolKeys(pool *KeyedPool, market *KeyedMarket) (*PoolKeys, error) {
	if pool.MarketID != market.Key {
		return nil, fmt.Errorf("market %s does not belong to pool %s", market.Key, pool.Key)
	}
	marketAuthority, err := AssociatedAuthority(pool.MarketProgramID, pool.MarketID)
	if err != nil {
		return nil, err
	}
	return &PoolKeys{
		ID:               pool.Key,
		BaseMint:         pool.BaseMint,
		QuoteMint:        pool.QuoteMint,
		LpMint:           pool.LpMint,
		BaseDecimals:     uint8(pool.BaseDecimal),
		QuoteDecimals:    uint8(pool.QuoteDecimal),
		Authority:        program.RaydiumAuthority,
		OpenOrders:       pool.OpenOrders,
		TargetOrders:     pool.TargetOrders,
		BaseVault:        pool.BaseVault,
		QuoteVault:       pool.QuoteVault,
		MarketProgramID:  pool.MarketProgramID,
		MarketID:         pool.MarketID,
		MarketAuthority:  marketAuthority,
		MarketBaseVault:  market.BaseVault,
		MarketQuoteVault: market.QuoteVault,
		MarketBids:       market.Bids,
		MarketAsks:       market.Asks,
		MarketEventQueue: market.EventQueue,
	}, nil
}

// InstructionSwap builds a fixed-input swap. The account order and
// writability are part of the program ABI.
func (keys *PoolKeys) InstructionSwap(userSource, userDestination, owner solana.PublicKey, amountIn, minAmountOut uint64) solana.Instruction {
	data := make([]byte, 17)
	data[0] = swapBaseInInstruction
	binary.LittleEndian.PutUint64(data[1:], amountIn)
	binary.LittleEndian.PutUint64(data[9:], minAmountOut)
	return &program.Instruction{
		IsAccounts: []*solana.AccountMeta{
			{PublicKey: program.Token, IsSigner: false, IsWritable: false},
			{PublicKey: keys.ID, IsSigner: false, IsWritable: true},
			{PublicKey: keys.Authority, IsSigner: false, IsWritable: false},
			{PublicKey: keys.OpenOrders, IsSigner: false, IsWritable: true},
			{PublicKey: keys.TargetOrders, IsSigner: false, IsWritable: true},
			{PublicKey: keys.BaseVault, IsSigner: false, IsWritable: true},
			{PublicKey: keys.QuoteVault, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: keys.MarketID, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketBids, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketAsks, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketEventQueue, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketBaseVault, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketQuoteVault, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketAuthority, IsSigner: false, IsWritable: false},
			{PublicKey: userSource, IsSigner: false, IsWritable: true},
			{PublicKey: userDestination, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: true, IsWritable: false},
		},
		IsData:      data,
		IsProgramID: program.Raydium,
	}
}
