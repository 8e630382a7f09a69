package pump

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveOut(t *testing.T) {
	out, err := CurveOut(30_000_000_000, 1_073_000_000_000_000, 793_100_000_000_000, 1_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(34_612_903_225_806), out)
}

func TestCurveOutInvariant(t *testing.T) {
	vin := uint64(30_000_000_000)
	vout := uint64(1_073_000_000_000_000)
	for _, in := range []uint64{1, 1_000, 1_000_000, 1_000_000_000, 100_000_000_000} {
		out, err := CurveOut(vin, vout, vout, in)
		require.NoError(t, err)
		assert.Less(t, out, vout)
		// (vin+in) * (vout-out) >= vin * vout
		before := new(big.Int).Mul(new(big.Int).SetUint64(vin), new(big.Int).SetUint64(vout))
		after := new(big.Int).Mul(
			new(big.Int).SetUint64(vin+in),
			new(big.Int).SetUint64(vout-out),
		)
		assert.True(t, after.Cmp(before) >= 0, "product shrank for in=%d", in)
	}
}

func TestCurveOutMonotonic(t *testing.T) {
	vin := uint64(30_000_000_000)
	vout := uint64(1_073_000_000_000_000)
	prev := uint64(0)
	for _, in := range []uint64{1_000_000, 10_000_000, 100_000_000, 1_000_000_000} {
		out, err := CurveOut(vin, vout, vout, in)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, out, prev)
		prev = out
	}
}

func TestCurveOutClamped(t *testing.T) {
	out, err := CurveOut(30_000_000_000, 1_073_000_000_000_000, 1_000_000, 1_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), out)
}

func TestCurveOutZeroIn(t *testing.T) {
	_, err := CurveOut(30_000_000_000, 1_073_000_000_000_000, 1_000_000, 0)
	assert.Error(t, err)
}

func TestCurveOutEmptyReserves(t *testing.T) {
	_, err := CurveOut(0, 1_073_000_000_000_000, 0, 1_000_000)
	assert.Error(t, err)
	_, err = CurveOut(30_000_000_000, 0, 0, 1_000_000)
	assert.Error(t, err)
}

func TestMinOut(t *testing.T) {
	assert.Equal(t, uint64(32_882_258_064_515), MinOut(34_612_903_225_806, 50_000_000))
	assert.Equal(t, uint64(34_612_903_225_806), MinOut(34_612_903_225_806, 0))
	assert.Equal(t, uint64(0), MinOut(34_612_903_225_806, PpbDenominator))
}

func TestMinOutMonotonic(t *testing.T) {
	prev := MinOut(1_000_000_000_000, 0)
	for _, ppb := range []uint64{10_000_000, 50_000_000, 500_000_000, 900_000_000} {
		min := MinOut(1_000_000_000_000, ppb)
		assert.Less(t, min, prev)
		prev = min
	}
}

func TestQuotes(t *testing.T) {
	curve := &KeyedBondingCurve{
		BondingCurveLayout: BondingCurveLayout{
			VirtualTokenReserves: 1_073_000_000_000_000,
			VirtualSolReserves:   30_000_000_000,
			RealTokenReserves:    793_100_000_000_000,
			RealSolReserves:      0,
		},
	}
	expected, min, err := curve.BuyQuote(1_000_000_000, 50_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(34_612_903_225_806), expected)
	assert.Equal(t, uint64(32_882_258_064_515), min)

	// sell side clamps to the real lamport reserve
	curve.RealSolReserves = 500_000_000
	expected, min, err = curve.SellQuote(34_612_903_225_806, 50_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), expected)
	assert.Equal(t, uint64(475_000_000), min)
}
