package executor

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/solsniper/executor/config"
	"github.com/solsniper/executor/program"
	"github.com/solsniper/executor/spltoken"
	"github.com/solsniper/executor/venue"
)

const (
	timeoutStartMarker = "Transaction confirmation timed out with error code 408 Request Timeout: Transaction "
	timeoutEndMarker   = "'s confirmation timed out"
)

type Resolver interface {
	Resolve(mint solana.PublicKey) (*venue.Descriptor, error)
}

// Attempt is the record of one dispatched transaction. Recovered marks a
// signature pulled out of a timeout error rather than a clean send; the
// transaction may or may not have landed.
type Attempt struct {
	Index           int
	SlippagePpb     uint64
	Signature       solana.Signature
	SentAt          time.Time
	LastValidHeight uint64
	ExpectedOut     uint64
	MinOut          uint64
	Recovered       bool
}

// Controller signs and dispatches attempts, escalating slippage and
// rebuilding when the venue rejects the terms.
type Controller struct {
	chain    Chain
	resolver Resolver
	builder  *Builder
	trade    *config.Trade
	logger   *log.Logger
}

func NewController(chain Chain, resolver Resolver, builder *Builder, trade *config.Trade, logger *log.Logger) *Controller {
	return &Controller{
		chain:    chain,
		resolver: resolver,
		builder:  builder,
		trade:    trade,
		logger:   logger,
	}
}

type submitVerdict int

const (
	submitTransient submitVerdict = iota
	submitComputeFail
	submitGeneric
)

// Submit runs the bounded dispatch loop. The venue is re-resolved on
// every attempt so each rebuild prices against fresh reserves.
func (controller *Controller) Submit(intent *Intent) (*Attempt, error) {
	slippage := intent.SlippagePpb
	var lastErr error
	for index := 0; index < controller.trade.SubmitAttempts; index++ {
		descriptor, err := controller.resolver.Resolve(intent.Mint)
		if err != nil {
			return nil, err
		}
		result, err := controller.builder.Build(intent, descriptor, slippage)
		if err != nil {
			return nil, err
		}
		blockhash, lastValid, err := controller.chain.LatestBlockhash()
		if err != nil {
			lastErr = err
			time.Sleep(controller.trade.SubmitDelay)
			continue
		}
		trx, err := solana.NewTransaction(result.Instructions, blockhash,
			solana.TransactionPayer(controller.chain.Player()))
		if err != nil {
			return nil, err
		}
		if err := controller.chain.SignTransaction(trx); err != nil {
			return nil, err
		}

		signature, err := controller.chain.SendTransaction(trx)
		if err == nil {
			controller.logger.Printf("%s %s sent, attempt %d, slippage %d ppb, signature %s",
				intent.Side, intent.Mint, index, slippage, signature)
			return &Attempt{
				Index:           index,
				SlippagePpb:     slippage,
				Signature:       signature,
				SentAt:          time.Now(),
				LastValidHeight: lastValid,
				ExpectedOut:     result.ExpectedOut,
				MinOut:          result.MinOut,
			}, nil
		}
		lastErr = err

		if recovered, ok := RecoverSignature(err.Error()); ok {
			// the network accepted the transaction but local confirmation
			// timed out, hand the signature to the confirmer
			controller.logger.Printf("send timed out, recovered signature %s", recovered)
			return &Attempt{
				Index:           index,
				SlippagePpb:     slippage,
				Signature:       recovered,
				SentAt:          time.Now(),
				LastValidHeight: lastValid,
				ExpectedOut:     result.ExpectedOut,
				MinOut:          result.MinOut,
				Recovered:       true,
			}, nil
		}

		switch classifySubmit(err) {
		case submitTransient:
			controller.logger.Printf("transient send err: %s", err.Error())
			time.Sleep(controller.trade.SubmitDelay)
		case submitComputeFail:
			settled, serr := controller.destinationSettled(intent)
			if serr != nil {
				return nil, fmt.Errorf("probe destination after compute failure: %w", serr)
			}
			if settled {
				return nil, fmt.Errorf("compute estimation failed with settled destination: %w", err)
			}
			slippage += controller.trade.SlippageStepPpb
			controller.logger.Printf("compute estimation failed, slippage now %d ppb", slippage)
			time.Sleep(controller.trade.ComputeFailCooloff)
		default:
			slippage += controller.trade.SlippageStepPpb
			controller.logger.Printf("send rejected (%s), slippage now %d ppb", err.Error(), slippage)
			time.Sleep(controller.trade.SubmitDelay)
		}
	}
	return nil, fmt.Errorf("submit attempts exhausted for %s: %w", intent.Mint, lastErr)
}

// destinationSettled checks whether the output account already holds a
// balance, meaning an earlier attempt went through after all.
func (controller *Controller) destinationSettled(intent *Intent) (bool, error) {
	outMint := intent.Mint
	if intent.Side == SideDispose {
		outMint = program.WSOL
	}
	account, err := spltoken.AssociatedTokenAddress(controller.chain.Player(), outMint)
	if err != nil {
		return false, err
	}
	balance, err := controller.chain.TokenBalance(account)
	if err != nil {
		return false, err
	}
	return balance > 0, nil
}

// TransientSend reports whether a send failure is network-class. Such a
// failure does not prove the transaction was never accepted; the caller
// should still run a signature-less confirmation before declaring the
// intent failed.
func TransientSend(err error) bool {
	return classifySubmit(err) == submitTransient
}

func classifySubmit(err error) submitVerdict {
	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "timeout"),
		strings.Contains(message, "timed out"),
		strings.Contains(message, "connection"),
		strings.Contains(message, "too many requests"),
		strings.Contains(message, "429"),
		strings.Contains(message, "eof"):
		return submitTransient
	case strings.Contains(message, "estimate"),
		strings.Contains(message, "compute unit"):
		return submitComputeFail
	default:
		return submitGeneric
	}
}

// RecoverSignature digs a transaction signature out of a structured
// timeout error message.
func RecoverSignature(message string) (solana.Signature, bool) {
	start := strings.Index(message, timeoutStartMarker)
	if start < 0 {
		return solana.Signature{}, false
	}
	rest := message[start+len(timeoutStartMarker):]
	end := strings.Index(rest, timeoutEndMarker)
	if end < 0 {
		return solana.Signature{}, false
	}
	signature, err := solana.SignatureFromBase58(rest[:end])
	if err != nil {
		return solana.Signature{}, false
	}
	return signature, true
}
