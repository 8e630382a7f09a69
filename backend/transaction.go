package backend

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SendTransaction dispatches a signed transaction with preflight skipped.
// When a relay endpoint is configured the transaction goes there first;
// the plain RPC node is the fallback so a relay outage cannot stop trading.
func (backend *Backend) SendTransaction(trx *solana.Transaction) (solana.Signature, error) {
	opts := rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentConfirmed,
	}
	if backend.relayClient != nil {
		signature, err := backend.relayClient.SendTransactionWithOpts(backend.ctx, trx, opts)
		if err == nil {
			return signature, nil
		}
		backend.logger.Printf("relay send err: %s", err.Error())
	}
	return backend.rpcClient.SendTransactionWithOpts(backend.ctx, trx, opts)
}

func (backend *Backend) Transaction(signature solana.Signature) (*rpc.GetTransactionResult, error) {
	maxVersion := uint64(0)
	return backend.rpcClient.GetTransaction(backend.ctx, signature, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
}

func (backend *Backend) SignatureStatus(signature solana.Signature) (*rpc.SignatureStatusesResult, error) {
	response, err := backend.rpcClient.GetSignatureStatuses(backend.ctx, true, signature)
	if err != nil {
		return nil, err
	}
	if len(response.Value) == 0 {
		return nil, nil
	}
	return response.Value[0], nil
}

func (backend *Backend) BlockHeight() (uint64, error) {
	return backend.rpcClient.GetBlockHeight(backend.ctx, rpc.CommitmentConfirmed)
}

func (backend *Backend) SignaturesForAddress(address solana.PublicKey, limit int) ([]*rpc.TransactionSignature, error) {
	return backend.rpcClient.GetSignaturesForAddressWithOpts(backend.ctx, address,
		&rpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Commitment: rpc.CommitmentConfirmed,
		})
}
