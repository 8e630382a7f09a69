package executor

import (
	"fmt"
	"log"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/solsniper/executor/config"
	"github.com/solsniper/executor/program"
	"github.com/solsniper/executor/pump"
	"github.com/solsniper/executor/spltoken"
	"github.com/solsniper/executor/venue"
)

// Builder assembles the instruction sequence for one attempt. Builder
// failures are terminal for the attempt: a bad balance or a malformed
// identifier does not get better by resending.
type Builder struct {
	chain  Chain
	quoter Quoter
	trade  *config.Trade
	tip    solana.PublicKey
	logger *log.Logger
}

func NewBuilder(chain Chain, quoter Quoter, trade *config.Trade, tip solana.PublicKey, logger *log.Logger) *Builder {
	return &Builder{
		chain:  chain,
		quoter: quoter,
		trade:  trade,
		tip:    tip,
		logger: logger,
	}
}

type BuildResult struct {
	Instructions []solana.Instruction
	ExpectedOut  uint64
	MinOut       uint64
	SlippagePpb  uint64
}

// Build produces the fixed instruction order: compute budget hints,
// missing associated account creation, wrapped-SOL top-up, the venue
// swap, and an optional tip transfer.
func (builder *Builder) Build(intent *Intent, descriptor *venue.Descriptor, slippagePpb uint64) (*BuildResult, error) {
	owner := builder.chain.Player()
	instructions := make([]solana.Instruction, 0, 8)

	if builder.trade.ComputeUnitPrice > 0 {
		instructions = append(instructions,
			computebudget.NewSetComputeUnitPriceInstruction(builder.trade.ComputeUnitPrice).Build())
	}
	if builder.trade.ComputeUnitLimit > 0 {
		instructions = append(instructions,
			computebudget.NewSetComputeUnitLimitInstruction(builder.trade.ComputeUnitLimit).Build())
	}

	var swap []solana.Instruction
	var expected, minOut uint64
	var err error
	switch descriptor.Kind {
	case venue.KindPool:
		swap, expected, minOut, err = builder.buildPoolSwap(intent, descriptor, owner, slippagePpb)
	case venue.KindCurve:
		swap, expected, minOut, err = builder.buildCurveSwap(intent, descriptor, owner, slippagePpb)
	default:
		err = fmt.Errorf("unknown venue kind %d", descriptor.Kind)
	}
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, swap...)

	if !builder.tip.IsZero() && builder.trade.TipLamports > 0 {
		instructions = append(instructions,
			system.NewTransferInstruction(builder.trade.TipLamports, owner, builder.tip).Build())
	}

	return &BuildResult{
		Instructions: instructions,
		ExpectedOut:  expected,
		MinOut:       minOut,
		SlippagePpb:  slippagePpb,
	}, nil
}

func (builder *Builder) buildPoolSwap(intent *Intent, descriptor *venue.Descriptor, owner solana.PublicKey, slippagePpb uint64) ([]solana.Instruction, uint64, uint64, error) {
	keys := descriptor.Pool
	inMint, outMint := program.WSOL, intent.Mint
	if intent.Side == SideDispose {
		inMint, outMint = intent.Mint, program.WSOL
	}
	if inMint != keys.BaseMint && inMint != keys.QuoteMint {
		return nil, 0, 0, fmt.Errorf("mint %s is not traded by pool %s", inMint, keys.ID)
	}

	source, err := spltoken.AssociatedTokenAddress(owner, inMint)
	if err != nil {
		return nil, 0, 0, err
	}
	destination, err := spltoken.AssociatedTokenAddress(owner, outMint)
	if err != nil {
		return nil, 0, 0, err
	}

	instructions := make([]solana.Instruction, 0, 5)
	creates, err := builder.ensureAccounts(owner, []accountMint{{source, inMint}, {destination, outMint}})
	if err != nil {
		return nil, 0, 0, err
	}
	instructions = append(instructions, creates...)

	if intent.Side == SideAcquire {
		// top up the wrapped account from native balance
		balance, err := builder.chain.TokenBalance(source)
		if err != nil {
			return nil, 0, 0, err
		}
		if balance < intent.AmountIn {
			instructions = append(instructions,
				system.NewTransferInstruction(intent.AmountIn-balance, owner, source).Build(),
				spltoken.InstructionSyncNative(source))
		}
	} else {
		balance, err := builder.chain.TokenBalance(source)
		if err != nil {
			return nil, 0, 0, err
		}
		if balance < intent.AmountIn {
			return nil, 0, 0, fmt.Errorf("insufficient balance for %s: have %d, need %d", inMint, balance, intent.AmountIn)
		}
	}

	expected, err := builder.quoter.Quote(inMint, outMint, intent.AmountIn,
		builder.decimalsFor(descriptor, inMint), builder.decimalsFor(descriptor, outMint))
	if err != nil {
		return nil, 0, 0, err
	}
	minOut := pump.MinOut(expected, slippagePpb)
	if minOut == 0 {
		return nil, 0, 0, fmt.Errorf("zero minimum output for %s, refusing to submit", intent.Mint)
	}
	instructions = append(instructions, keys.InstructionSwap(source, destination, owner, intent.AmountIn, minOut))
	return instructions, expected, minOut, nil
}

func (builder *Builder) buildCurveSwap(intent *Intent, descriptor *venue.Descriptor, owner solana.PublicKey, slippagePpb uint64) ([]solana.Instruction, uint64, uint64, error) {
	curve := descriptor.Curve
	if curve.Complete {
		return nil, 0, 0, fmt.Errorf("bonding curve %s is complete, trading moved elsewhere", curve.Key)
	}
	tokenAccount, err := spltoken.AssociatedTokenAddress(owner, intent.Mint)
	if err != nil {
		return nil, 0, 0, err
	}

	instructions := make([]solana.Instruction, 0, 2)
	creates, err := builder.ensureAccounts(owner, []accountMint{{tokenAccount, intent.Mint}})
	if err != nil {
		return nil, 0, 0, err
	}
	instructions = append(instructions, creates...)

	if intent.Side == SideAcquire {
		expected, minOut, err := curve.BuyQuote(intent.AmountIn, slippagePpb)
		if err != nil {
			return nil, 0, 0, err
		}
		if minOut == 0 {
			return nil, 0, 0, fmt.Errorf("zero minimum output for %s, refusing to submit", intent.Mint)
		}
		// the buy instruction takes the token amount to purchase; asking
		// for exactly the discounted minimum with the full lamport budget
		// makes the cost cap act as the slippage gate on-chain
		instructions = append(instructions, curve.InstructionBuy(intent.Mint, tokenAccount, owner, minOut, intent.AmountIn))
		return instructions, expected, minOut, nil
	}

	balance, err := builder.chain.TokenBalance(tokenAccount)
	if err != nil {
		return nil, 0, 0, err
	}
	if balance < intent.AmountIn {
		return nil, 0, 0, fmt.Errorf("insufficient balance for %s: have %d, need %d", intent.Mint, balance, intent.AmountIn)
	}
	expected, minOut, err := curve.SellQuote(intent.AmountIn, slippagePpb)
	if err != nil {
		return nil, 0, 0, err
	}
	if minOut == 0 {
		return nil, 0, 0, fmt.Errorf("zero minimum output for %s, refusing to submit", intent.Mint)
	}
	instructions = append(instructions, curve.InstructionSell(intent.Mint, tokenAccount, owner, intent.AmountIn, minOut))
	return instructions, expected, minOut, nil
}

type accountMint struct {
	account solana.PublicKey
	mint    solana.PublicKey
}

// ensureAccounts probes each associated account and emits a create for
// the missing ones, keeping the given order.
func (builder *Builder) ensureAccounts(owner solana.PublicKey, accounts []accountMint) ([]solana.Instruction, error) {
	instructions := make([]solana.Instruction, 0, len(accounts))
	for _, pair := range accounts {
		exists, err := builder.chain.HasAccount(pair.account)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		builder.logger.Printf("creating associated account %s for mint %s", pair.account, pair.mint)
		instructions = append(instructions,
			associatedtokenaccount.NewCreateInstruction(owner, owner, pair.mint).Build())
	}
	return instructions, nil
}

func (builder *Builder) decimalsFor(descriptor *venue.Descriptor, mint solana.PublicKey) uint8 {
	if descriptor.Pool.BaseMint == mint {
		return descriptor.Pool.BaseDecimals
	}
	return descriptor.Pool.QuoteDecimals
}
