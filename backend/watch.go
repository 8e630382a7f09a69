package backend

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// WatchSignature waits on a websocket signature notification for up to
// window. It reports (landed, txErr, ok); ok is false when no websocket is
// connected or no notification arrived in time, in which case the caller
// falls back to polling.
func (backend *Backend) WatchSignature(signature solana.Signature, window time.Duration) (bool, interface{}, bool) {
	if backend.wsClient == nil {
		return false, nil, false
	}
	sub, err := backend.wsClient.SignatureSubscribe(signature, rpc.CommitmentConfirmed)
	if err != nil {
		backend.logger.Printf("signature subscribe err: %s", err.Error())
		return false, nil, false
	}
	defer sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(backend.ctx, window)
	defer cancel()
	result, err := sub.Recv(ctx)
	if err != nil || result == nil {
		return false, nil, false
	}
	if result.Value.Err != nil {
		return false, result.Value.Err, true
	}
	return true, nil, true
}
