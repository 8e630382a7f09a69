package backend

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// LatestBlockhash returns a fresh blockhash together with the last block
// height at which a transaction built on it is still valid. The expiry
// height drives the confirmation state machine's Expired verdict.
func (backend *Backend) LatestBlockhash() (solana.Hash, uint64, error) {
	result, err := backend.rpcClient.GetLatestBlockhash(backend.ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, 0, err
	}
	return result.Value.Blockhash, result.Value.LastValidBlockHeight, nil
}
