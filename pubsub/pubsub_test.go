package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTradeMessageBuy(t *testing.T) {
	payload := `{"type_":"buy","in_token":"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v","out_token":"So11111111111111111111111111111111111111112","amount_in":0.5,"lp_decimals":6}`
	message, err := DecodeTradeMessage(payload)
	require.NoError(t, err)
	assert.Equal(t, "buy", message.Type)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", message.TargetMint())
	assert.Equal(t, 0.5, message.AmountIn)
	assert.Equal(t, uint8(6), message.LpDecimals)
}

func TestDecodeTradeMessageSell(t *testing.T) {
	payload := `{"type_":"sell","mint":"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v","amount":1234.5,"lp_decimals":6}`
	message, err := DecodeTradeMessage(payload)
	require.NoError(t, err)
	assert.Equal(t, "sell", message.Type)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", message.TargetMint())
	assert.Equal(t, 1234.5, message.Amount)
}

func TestDecodeTradeMessageRejectsUnknownType(t *testing.T) {
	_, err := DecodeTradeMessage(`{"type_":"liquidate","mint":"x"}`)
	assert.Error(t, err)
}

func TestDecodeTradeMessageRejectsGarbage(t *testing.T) {
	_, err := DecodeTradeMessage(`not json`)
	assert.Error(t, err)
}
