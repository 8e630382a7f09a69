package spltoken

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/solsniper/executor/program"
)

const syncNativeIndex = 17

// AssociatedTokenAddress derives the per-owner per-mint associated account.
func AssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive associated token address: %w", err)
	}
	return address, nil
}

// ParseTokenAccount decodes a raw SPL token account.
func ParseTokenAccount(key solana.PublicKey, height uint64, data []byte) (*KeyedTokenAccount, error) {
	if len(data) < TokenAccountLayoutSize {
		return nil, fmt.Errorf("token account data size is %d, expect %d", len(data), TokenAccountLayoutSize)
	}
	account := &KeyedTokenAccount{Key: key, Height: height}
	if err := account.unpack(data[:TokenAccountLayoutSize]); err != nil {
		return nil, err
	}
	return account, nil
}

// InstructionSyncNative updates a wrapped-SOL account's token balance to
// match the lamports transferred into it.
func InstructionSyncNative(account solana.PublicKey) solana.Instruction {
	return &program.Instruction{
		IsAccounts: []*solana.AccountMeta{
			{PublicKey: account, IsSigner: false, IsWritable: true},
		},
		IsData:      []byte{syncNativeIndex},
		IsProgramID: program.Token,
	}
}
