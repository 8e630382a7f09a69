package executor

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type Side int

const (
	SideAcquire Side = iota
	SideDispose
)

func (side Side) String() string {
	if side == SideAcquire {
		return "acquire"
	}
	return "dispose"
}

// Intent is one requested swap: lamports in for an acquisition, raw
// token units in for a disposal. Immutable once created.
type Intent struct {
	Mint        solana.PublicKey
	Side        Side
	AmountIn    uint64
	SlippagePpb uint64
}

// Chain is the node surface the execution pipeline runs against.
type Chain interface {
	AccountData(pubkey solana.PublicKey) ([]byte, uint64, error)
	HasAccount(pubkey solana.PublicKey) (bool, error)
	TokenBalance(account solana.PublicKey) (uint64, error)
	Balance(pubkey solana.PublicKey) (uint64, error)
	LatestBlockhash() (solana.Hash, uint64, error)
	SignTransaction(trx *solana.Transaction) error
	SendTransaction(trx *solana.Transaction) (solana.Signature, error)
	Transaction(signature solana.Signature) (*rpc.GetTransactionResult, error)
	SignatureStatus(signature solana.Signature) (*rpc.SignatureStatusesResult, error)
	BlockHeight() (uint64, error)
	SignaturesForAddress(address solana.PublicKey, limit int) ([]*rpc.TransactionSignature, error)
	WatchSignature(signature solana.Signature, window time.Duration) (bool, interface{}, bool)
	Player() solana.PublicKey
}

// Quoter prices a swap on a pool venue, where the engine cannot derive
// the output from on-chain reserves alone.
type Quoter interface {
	Quote(inMint, outMint solana.PublicKey, amountIn uint64, inDecimals, outDecimals uint8) (uint64, error)
}
