package pump

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/solsniper/executor/program"
)

const (
	buyDiscriminator  uint64 = 16927863322537952870
	sellDiscriminator uint64 = 12502976635542562355
)

// DeriveBondingCurve returns the curve account for a mint and the
// associated token account the curve holds its inventory in.
func DeriveBondingCurve(mint solana.PublicKey) (curve solana.PublicKey, associated solana.PublicKey, err error) {
	curve, _, err = solana.FindProgramAddress([][]byte{[]byte("bonding-curve"), mint.Bytes()}, program.PumpFun)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("derive bonding curve: %w", err)
	}
	associated, _, err = solana.FindAssociatedTokenAddress(curve, mint)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("derive curve token account: %w", err)
	}
	return curve, associated, nil
}

// ParseBondingCurve decodes a raw bonding curve account.
func ParseBondingCurve(key, associated solana.PublicKey, height uint64, data []byte) (*KeyedBondingCurve, error) {
	if len(data) < BondingCurveLayoutSize {
		return nil, fmt.Errorf("bonding curve data size is %d, expect %d", len(data), BondingCurveLayoutSize)
	}
	curve := &KeyedBondingCurve{Key: key, Associated: associated, Height: height}
	if err := curve.unpack(data[:BondingCurveLayoutSize]); err != nil {
		return nil, err
	}
	return curve, nil
}

func encodeArgs(discriminator, amount, limit uint64) []byte {
	data := make([]byte, 24)
	binary.LittleEndian.PutUint64(data[0:], discriminator)
	binary.LittleEndian.PutUint64(data[8:], amount)
	binary.LittleEndian.PutUint64(data[16:], limit)
	return data
}

// InstructionBuy buys tokenOut tokens from the curve, spending at most
// maxSolCost lamports.
func (curve *KeyedBondingCurve) InstructionBuy(mint, userTokenAccount, owner solana.PublicKey, tokenOut, maxSolCost uint64) solana.Instruction {
	return &program.Instruction{
		IsAccounts: []*solana.AccountMeta{
			{PublicKey: program.PumpGlobal, IsSigner: false, IsWritable: false},
			{PublicKey: program.PumpFeeRecipient, IsSigner: false, IsWritable: true},
			{PublicKey: mint, IsSigner: false, IsWritable: false},
			{PublicKey: curve.Key, IsSigner: false, IsWritable: true},
			{PublicKey: curve.Associated, IsSigner: false, IsWritable: true},
			{PublicKey: userTokenAccount, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: true, IsWritable: true},
			{PublicKey: program.System, IsSigner: false, IsWritable: false},
			{PublicKey: program.Token, IsSigner: false, IsWritable: false},
			{PublicKey: program.SysRent, IsSigner: false, IsWritable: false},
			{PublicKey: program.PumpEventAuth, IsSigner: false, IsWritable: false},
			{PublicKey: program.PumpFun, IsSigner: false, IsWritable: false},
		},
		IsData:      encodeArgs(buyDiscriminator, tokenOut, maxSolCost),
		IsProgramID: program.PumpFun,
	}
}

// InstructionSell sells tokenIn tokens back to the curve, requiring at
// least minSolOut lamports.
func (curve *KeyedBondingCurve) InstructionSell(mint, userTokenAccount, owner solana.PublicKey, tokenIn, minSolOut uint64) solana.Instruction {
	return &program.Instruction{
		IsAccounts: []*solana.AccountMeta{
			{PublicKey: program.PumpGlobal, IsSigner: false, IsWritable: false},
			{PublicKey: program.PumpFeeRecipient, IsSigner: false, IsWritable: true},
			{PublicKey: mint, IsSigner: false, IsWritable: false},
			{PublicKey: curve.Key, IsSigner: false, IsWritable: true},
			{PublicKey: curve.Associated, IsSigner: false, IsWritable: true},
			{PublicKey: userTokenAccount, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: true, IsWritable: true},
			{PublicKey: program.System, IsSigner: false, IsWritable: false},
			{PublicKey: program.AssociatedToken, IsSigner: false, IsWritable: false},
			{PublicKey: program.Token, IsSigner: false, IsWritable: false},
			{PublicKey: program.PumpEventAuth, IsSigner: false, IsWritable: false},
			{PublicKey: program.PumpFun, IsSigner: false, IsWritable: false},
		},
		IsData:      encodeArgs(sellDiscriminator, tokenIn, minSolOut),
		IsProgramID: program.PumpFun,
	}
}
