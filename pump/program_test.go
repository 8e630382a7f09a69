package pump

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/solsniper/executor/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveBondingCurve(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	curve1, associated1, err := DeriveBondingCurve(mint)
	require.NoError(t, err)
	curve2, associated2, err := DeriveBondingCurve(mint)
	require.NoError(t, err)
	assert.Equal(t, curve1, curve2)
	assert.Equal(t, associated1, associated2)
	assert.False(t, curve1.IsZero())
	assert.NotEqual(t, curve1, associated1)

	other, _, err := DeriveBondingCurve(program.WSOL)
	require.NoError(t, err)
	assert.NotEqual(t, curve1, other)
}

func TestParseBondingCurve(t *testing.T) {
	data := make([]byte, BondingCurveLayoutSize)
	binary.LittleEndian.PutUint64(data[8:], 1_073_000_000_000_000)
	binary.LittleEndian.PutUint64(data[16:], 30_000_000_000)
	binary.LittleEndian.PutUint64(data[24:], 793_100_000_000_000)
	binary.LittleEndian.PutUint64(data[32:], 0)
	binary.LittleEndian.PutUint64(data[40:], 1_000_000_000_000_000)
	data[48] = 1

	key := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	curve, err := ParseBondingCurve(key, solana.PublicKey{}, 100, data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_073_000_000_000_000), curve.VirtualTokenReserves)
	assert.Equal(t, uint64(30_000_000_000), curve.VirtualSolReserves)
	assert.Equal(t, uint64(793_100_000_000_000), curve.RealTokenReserves)
	assert.Equal(t, uint64(1_000_000_000_000_000), curve.TokenTotalSupply)
	assert.True(t, curve.Complete)
	assert.Equal(t, uint64(100), curve.Height)

	_, err = ParseBondingCurve(key, solana.PublicKey{}, 100, data[:20])
	assert.Error(t, err)
}

func TestInstructionBuy(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	curveKey, associated, err := DeriveBondingCurve(mint)
	require.NoError(t, err)
	curve := &KeyedBondingCurve{Key: curveKey, Associated: associated}

	owner := solana.MustPublicKeyFromBase58("Sysvar1nstructions1111111111111111111111111")
	userAccount := solana.MustPublicKeyFromBase58("SysvarS1otHashes111111111111111111111111111")
	instruction := curve.InstructionBuy(mint, userAccount, owner, 34_612_903_225_806, 1_050_000_000)

	assert.Equal(t, program.PumpFun, instruction.ProgramID())
	accounts := instruction.Accounts()
	require.Len(t, accounts, 12)
	assert.Equal(t, program.PumpGlobal, accounts[0].PublicKey)
	assert.Equal(t, program.PumpFeeRecipient, accounts[1].PublicKey)
	assert.True(t, accounts[1].IsWritable)
	assert.Equal(t, mint, accounts[2].PublicKey)
	assert.Equal(t, curveKey, accounts[3].PublicKey)
	assert.Equal(t, associated, accounts[4].PublicKey)
	assert.Equal(t, userAccount, accounts[5].PublicKey)
	assert.Equal(t, owner, accounts[6].PublicKey)
	assert.True(t, accounts[6].IsSigner)
	assert.Equal(t, program.System, accounts[7].PublicKey)
	assert.Equal(t, program.Token, accounts[8].PublicKey)
	assert.Equal(t, program.SysRent, accounts[9].PublicKey)
	assert.Equal(t, program.PumpEventAuth, accounts[10].PublicKey)
	assert.Equal(t, program.PumpFun, accounts[11].PublicKey)

	data, err := instruction.Data()
	require.NoError(t, err)
	require.Len(t, data, 24)
	assert.Equal(t, uint64(16927863322537952870), binary.LittleEndian.Uint64(data[0:]))
	assert.Equal(t, uint64(34_612_903_225_806), binary.LittleEndian.Uint64(data[8:]))
	assert.Equal(t, uint64(1_050_000_000), binary.LittleEndian.Uint64(data[16:]))
}

func TestInstructionSell(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	curveKey, associated, err := DeriveBondingCurve(mint)
	require.NoError(t, err)
	curve := &KeyedBondingCurve{Key: curveKey, Associated: associated}

	owner := solana.MustPublicKeyFromBase58("Sysvar1nstructions1111111111111111111111111")
	userAccount := solana.MustPublicKeyFromBase58("SysvarS1otHashes111111111111111111111111111")
	instruction := curve.InstructionSell(mint, userAccount, owner, 34_612_903_225_806, 950_000_000)

	assert.Equal(t, program.PumpFun, instruction.ProgramID())
	accounts := instruction.Accounts()
	require.Len(t, accounts, 12)
	assert.Equal(t, program.System, accounts[7].PublicKey)
	assert.Equal(t, program.AssociatedToken, accounts[8].PublicKey)
	assert.Equal(t, program.Token, accounts[9].PublicKey)
	assert.Equal(t, program.PumpEventAuth, accounts[10].PublicKey)
	assert.Equal(t, program.PumpFun, accounts[11].PublicKey)

	data, err := instruction.Data()
	require.NoError(t, err)
	require.Len(t, data, 24)
	assert.Equal(t, uint64(12502976635542562355), binary.LittleEndian.Uint64(data[0:]))
	assert.Equal(t, uint64(34_612_903_225_806), binary.LittleEndian.Uint64(data[8:]))
	assert.Equal(t, uint64(950_000_000), binary.LittleEndian.Uint64(data[16:]))
}
