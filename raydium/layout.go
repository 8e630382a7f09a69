package raydium

import (
	"bytes"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

var (
	LiquidityLayoutSize = 752
	MarketLayoutSize    = 388
)

// Byte offsets of the mint references inside the pool layout, used to
// filter program account scans by trading pair.
const (
	BaseMintOffset  = 400
	QuoteMintOffset = 432
)

type FeesLayout struct {
	MinSeparateNumerator   uint64
	MinSeparateDenominator uint64
	TradeFeeNumerator      uint64
	TradeFeeDenominator    uint64
	PnlNumerator           uint64
	PnlDenominator         uint64
	SwapFeeNumerator       uint64
	SwapFeeDenominator     uint64
}

// LiquidityLayout is the v4 constant-product pool state. The u128
// counters are kept as uint64 pairs, low word first.
type LiquidityLayout struct {
	Status              uint64
	Nonce               uint64
	MaxOrder            uint64
	Depth               uint64
	BaseDecimal         uint64
	QuoteDecimal        uint64
	State               uint64
	ResetFlag           uint64
	MinSize             uint64
	VolMaxCutRatio      uint64
	AmountWaveRatio     uint64
	BaseLotSize         uint64
	QuoteLotSize        uint64
	MinPriceMultiplier  uint64
	MaxPriceMultiplier  uint64
	SystemDecimalValue  uint64
	Fees                FeesLayout
	BaseNeedTakePnl     uint64
	QuoteNeedTakePnl    uint64
	QuoteTotalPnl       uint64
	BaseTotalPnl        uint64
	PoolOpenTime        uint64
	PunishPcAmount      uint64
	PunishCoinAmount    uint64
	OrderbookToInitTime uint64
	SwapBaseInAmount    [2]uint64
	SwapQuoteOutAmount  [2]uint64
	SwapBase2QuoteFee   uint64
	SwapQuoteInAmount   [2]uint64
	SwapBaseOutAmount   [2]uint64
	SwapQuote2BaseFee   uint64
	BaseVault           solana.PublicKey
	QuoteVault          solana.PublicKey
	BaseMint            solana.PublicKey
	QuoteMint           solana.PublicKey
	LpMint              solana.PublicKey
	OpenOrders          solana.PublicKey
	MarketID            solana.PublicKey
	MarketProgramID     solana.PublicKey
	TargetOrders        solana.PublicKey
	WithdrawQueue       solana.PublicKey
	LpVault             solana.PublicKey
	Owner               solana.PublicKey
	LpReserve           uint64
	Padding             [3]uint64
}

func (pool *LiquidityLayout) unpack(data []byte) error {
	buf := bytes.NewReader(data)
	return binary.Read(buf, binary.LittleEndian, pool)
}

type KeyedPool struct {
	Key    solana.PublicKey
	Height uint64
	LiquidityLayout
}

// MarketLayout is the serum v3 market the pool routes its order flow
// through. The swap only needs the queues and vaults out of it.
type MarketLayout struct {
	Padding                [13]byte
	OwnAddress             solana.PublicKey
	VaultSignerNonce       uint64
	BaseMint               solana.PublicKey
	QuoteMint              solana.PublicKey
	BaseVault              solana.PublicKey
	BaseDepositsTotal      uint64
	BaseFeesAccrued        uint64
	QuoteVault             solana.PublicKey
	QuoteDepositsTotal     uint64
	QuoteFeesAccrued       uint64
	QuoteDustThreshold     uint64
	RequestQueue           solana.PublicKey
	EventQueue             solana.PublicKey
	Bids                   solana.PublicKey
	Asks                   solana.PublicKey
	BaseLotSize            uint64
	QuoteLotSize           uint64
	FeeRateBps             uint64
	ReferrerRebatesAccrued uint64
	PaddingEnd             [7]byte
}

func (market *MarketLayout) unpack(data []byte) error {
	buf := bytes.NewReader(data)
	return binary.Read(buf, binary.LittleEndian, market)
}

type KeyedMarket struct {
	Key    solana.PublicKey
	Height uint64
	MarketLayout
}
