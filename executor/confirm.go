package executor

import (
	"log"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/solsniper/executor/config"
)

type Outcome int

const (
	OutcomeLanded Outcome = iota
	OutcomeFailed
	OutcomeExpired
	OutcomeIndeterminate
)

func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeLanded:
		return "landed"
	case OutcomeFailed:
		return "failed"
	case OutcomeExpired:
		return "expired"
	default:
		return "indeterminate"
	}
}

// Confirmation is the verdict on one attempt. Result carries the fetched
// transaction for a landed outcome so reconciliation can read fees and
// balance deltas without another fetch.
type Confirmation struct {
	Outcome   Outcome
	Signature solana.Signature
	ChainErr  interface{}
	Result    *rpc.GetTransactionResult
}

type Confirmer struct {
	chain  Chain
	trade  *config.Trade
	logger *log.Logger
}

func NewConfirmer(chain Chain, trade *config.Trade, logger *log.Logger) *Confirmer {
	return &Confirmer{
		chain:  chain,
		trade:  trade,
		logger: logger,
	}
}

// Confirm drives an attempt to a terminal verdict: websocket watch when
// available, then polling with expiry tracking, then a history scan as
// the last resort. Indeterminate is returned only when every path is
// exhausted; the caller must treat it conservatively.
func (confirmer *Confirmer) Confirm(intent *Intent, attempt *Attempt) *Confirmation {
	if attempt.Signature.IsZero() {
		// dispatch never returned a signature, only the signer's
		// history can show whether a send was accepted anyway
		if confirmation := confirmer.scanHistory(intent); confirmation != nil {
			return confirmation
		}
		return &Confirmation{Outcome: OutcomeIndeterminate}
	}

	if !attempt.Recovered {
		landed, chainErr, ok := confirmer.chain.WatchSignature(attempt.Signature, confirmer.trade.ConfirmDelay)
		if ok && chainErr != nil {
			return &Confirmation{Outcome: OutcomeFailed, Signature: attempt.Signature, ChainErr: chainErr}
		}
		if ok && landed {
			confirmer.logger.Printf("signature %s confirmed by websocket", attempt.Signature)
		}
	}

	for poll := 0; poll < confirmer.trade.ConfirmPolls; poll++ {
		if attempt.LastValidHeight > 0 {
			height, err := confirmer.chain.BlockHeight()
			if err == nil && height > attempt.LastValidHeight {
				// the blockhash is dead, one final fetch decides
				if confirmation := confirmer.fetch(attempt.Signature); confirmation != nil {
					return confirmation
				}
				confirmer.logger.Printf("signature %s expired at height %d", attempt.Signature, height)
				return &Confirmation{Outcome: OutcomeExpired, Signature: attempt.Signature}
			}
		}
		if confirmation := confirmer.fetch(attempt.Signature); confirmation != nil {
			return confirmation
		}
		time.Sleep(confirmer.trade.ConfirmDelay)
	}

	if confirmation := confirmer.scanHistory(intent); confirmation != nil {
		return confirmation
	}
	return &Confirmation{Outcome: OutcomeIndeterminate, Signature: attempt.Signature}
}

// fetch returns nil when the transaction is not visible yet. The cheap
// status lookup gates the full transaction fetch.
func (confirmer *Confirmer) fetch(signature solana.Signature) *Confirmation {
	status, err := confirmer.chain.SignatureStatus(signature)
	if err != nil || status == nil {
		return nil
	}
	result, err := confirmer.chain.Transaction(signature)
	if err != nil || result == nil {
		if status.Err != nil {
			return &Confirmation{Outcome: OutcomeFailed, Signature: signature, ChainErr: status.Err}
		}
		return nil
	}
	if result.Meta != nil && result.Meta.Err != nil {
		return &Confirmation{
			Outcome:   OutcomeFailed,
			Signature: signature,
			ChainErr:  result.Meta.Err,
			Result:    result,
		}
	}
	return &Confirmation{Outcome: OutcomeLanded, Signature: signature, Result: result}
}

// scanHistory walks the signer's recent transactions looking for one
// that moved the target mint in the expected direction. Covers the case
// where dispatch never returned a usable signature.
func (confirmer *Confirmer) scanHistory(intent *Intent) *Confirmation {
	signatures, err := confirmer.chain.SignaturesForAddress(confirmer.chain.Player(), confirmer.trade.HistoryScanLimit)
	if err != nil {
		confirmer.logger.Printf("history scan err: %s", err.Error())
		return nil
	}
	owner := confirmer.chain.Player()
	for _, entry := range signatures {
		if entry.Err != nil {
			continue
		}
		result, err := confirmer.chain.Transaction(entry.Signature)
		if err != nil || result == nil || result.Meta == nil {
			continue
		}
		pre := tokenAmount(result.Meta.PreTokenBalances, owner, intent.Mint)
		post := tokenAmount(result.Meta.PostTokenBalances, owner, intent.Mint)
		matched := false
		switch intent.Side {
		case SideAcquire:
			matched = post > pre
		case SideDispose:
			matched = post < pre
		}
		if matched {
			confirmer.logger.Printf("history scan matched signature %s for %s", entry.Signature, intent.Mint)
			return &Confirmation{Outcome: OutcomeLanded, Signature: entry.Signature, Result: result}
		}
	}
	return nil
}

func tokenAmount(balances []rpc.TokenBalance, owner, mint solana.PublicKey) uint64 {
	for _, balance := range balances {
		if balance.Mint != mint {
			continue
		}
		if balance.Owner == nil || *balance.Owner != owner {
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
