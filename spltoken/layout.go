package spltoken

import (
	"bytes"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

var (
	TokenAccountLayoutSize = 165
)

type TokenAccountLayout struct {
	Mint                 solana.PublicKey
	Owner                solana.PublicKey
	Amount               uint64
	DelegateOption       [4]byte
	Delegate             solana.PublicKey
	State                uint8
	IsNativeOption       [4]byte
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption [4]byte
	CloseAuthority       solana.PublicKey
}

func (layout *TokenAccountLayout) unpack(data []byte) error {
	buf := bytes.NewReader(data)
	return binary.Read(buf, binary.LittleEndian, layout)
}

type KeyedTokenAccount struct {
	Key    solana.PublicKey
	Height uint64
	TokenAccountLayout
}
