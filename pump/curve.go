package pump

import (
	"fmt"
	"math/big"
)

// PpbDenominator is the fixed-point base for slippage tolerance. Working in
// parts-per-billion keeps the min-out comparison that gates the swap
// on-chain free of floating-point drift.
const PpbDenominator = 1_000_000_000

var one = big.NewInt(1)

// CurveOut prices amountIn against the constant-product invariant of the
// virtual reserves, rounding in the pool's favor, and clamps the result to
// the real (withdrawable) reserve.
//
//	newVirtualIn  = virtualIn + amountIn
//	newVirtualOut = floor(virtualIn*virtualOut/newVirtualIn) + 1
//	amountOut     = virtualOut - newVirtualOut
func CurveOut(virtualIn, virtualOut, realOut, amountIn uint64) (uint64, error) {
	if amountIn == 0 {
		return 0, fmt.Errorf("amount in is zero")
	}
	if virtualIn == 0 || virtualOut == 0 {
		return 0, fmt.Errorf("curve reserves are empty")
	}
	vIn := new(big.Int).SetUint64(virtualIn)
	vOut := new(big.Int).SetUint64(virtualOut)
	newVIn := new(big.Int).Add(vIn, new(big.Int).SetUint64(amountIn))
	newVOut := new(big.Int).Div(new(big.Int).Mul(vIn, vOut), newVIn)
	newVOut.Add(newVOut, one)
	out := new(big.Int).Sub(vOut, newVOut)
	if out.Sign() <= 0 {
		return 0, nil
	}
	amountOut := out.Uint64()
	if amountOut > realOut {
		amountOut = realOut
	}
	return amountOut, nil
}

// MinOut discounts an expected output by the slippage tolerance,
// in fixed-point parts-per-billion.
func MinOut(expected uint64, slippagePpb uint64) uint64 {
	if slippagePpb >= PpbDenominator {
		return 0
	}
	keep := new(big.Int).SetUint64(PpbDenominator - slippagePpb)
	min := new(big.Int).Mul(new(big.Int).SetUint64(expected), keep)
	min.Div(min, big.NewInt(PpbDenominator))
	return min.Uint64()
}

// BuyQuote prices a buy: lamports in, tokens out.
func (curve *KeyedBondingCurve) BuyQuote(lamportsIn uint64, slippagePpb uint64) (expected, minOut uint64, err error) {
	expected, err = CurveOut(curve.VirtualSolReserves, curve.VirtualTokenReserves, curve.RealTokenReserves, lamportsIn)
	if err != nil {
		return 0, 0, err
	}
	return expected, MinOut(expected, slippagePpb), nil
}

// SellQuote prices a sell: tokens in, lamports out.
func (curve *KeyedBondingCurve) SellQuote(tokensIn uint64, slippagePpb uint64) (expected, minOut uint64, err error) {
	expected, err = CurveOut(curve.VirtualTokenReserves, curve.VirtualSolReserves, curve.RealSolReserves, tokensIn)
	if err != nil {
		return 0, 0, err
	}
	return expected, MinOut(expected, slippagePpb), nil
}
