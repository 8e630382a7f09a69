package pump

import (
	"bytes"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

var (
	BondingCurveLayoutSize = 49
)

// BondingCurveLayout is the on-chain state of a pump.fun bonding curve.
// Virtual reserves drive pricing; the real token reserve caps what a buy
// can actually take out. Complete flips once the curve has graduated to a
// pool and stops trading here.
type BondingCurveLayout struct {
	Discriminator        [8]byte
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
}

func (curve *BondingCurveLayout) unpack(data []byte) error {
	buf := bytes.NewReader(data)
	return binary.Read(buf, binary.LittleEndian, curve)
}

type KeyedBondingCurve struct {
	Key        solana.PublicKey
	Associated solana.PublicKey
	Height     uint64
	BondingCurveLayout
}
