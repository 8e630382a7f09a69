package program

import "github.com/gagliardetto/solana-go"

// Instruction is the raw carrier for hand-encoded program instructions.
// Account order and writability follow each on-chain program's ABI.
type Instruction struct {
	IsAccounts  []*solana.AccountMeta
	IsData      []byte
	IsProgramID solana.PublicKey
}

func (i *Instruction) Accounts() []*solana.AccountMeta {
	return i.IsAccounts
}

func (i *Instruction) ProgramID() solana.PublicKey {
	return i.IsProgramID
}

func (i *Instruction) Data() ([]byte, error) {
	return i.IsData, nil
}
