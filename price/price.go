package price

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/solsniper/executor/program"
)

// Client reads reference prices from a birdeye-compatible endpoint. The
// prices are advisory; they feed quotes and profit accounting, never the
// on-chain amounts.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *log.Logger
}

func NewClient(endpoint, apiKey string, logger *log.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: time.Second * 10},
		logger:   logger,
	}
}

type priceResponse struct {
	Data struct {
		Value float64 `json:"value"`
	} `json:"data"`
	Success bool `json:"success"`
}

// TokenPrice returns the USD price of one whole token of the mint.
func (client *Client) TokenPrice(mint solana.PublicKey) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/defi/price?address=%s", client.endpoint, mint.String())
	request, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	request.Header.Set("X-API-KEY", client.apiKey)
	response, err := client.client.Do(request)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch price for %s: %w", mint, err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("fetch price for %s: status %d", mint, response.StatusCode)
	}
	body := &priceResponse{}
	if err := json.NewDecoder(response.Body).Decode(body); err != nil {
		return decimal.Zero, fmt.Errorf("decode price for %s: %w", mint, err)
	}
	if body.Data.Value <= 0 {
		return decimal.Zero, fmt.Errorf("no price for %s", mint)
	}
	return decimal.NewFromFloat(body.Data.Value), nil
}

func (client *Client) SolPrice() (decimal.Decimal, error) {
	return client.TokenPrice(program.WSOL)
}

// Quote estimates the output amount of a swap from the USD prices of
// both mints. The result is in raw units of the output mint.
func (client *Client) Quote(inMint, outMint solana.PublicKey, amountIn uint64, inDecimals, outDecimals uint8) (uint64, error) {
	priceIn, err := client.TokenPrice(inMint)
	if err != nil {
		return 0, err
	}
	priceOut, err := client.TokenPrice(outMint)
	if err != nil {
		return 0, err
	}
	uiIn := decimal.NewFromUint64(amountIn).Div(decimal.New(1, int32(inDecimals)))
	raw := uiIn.Mul(priceIn).Div(priceOut).Mul(decimal.New(1, int32(outDecimals))).Truncate(0)
	if raw.IsNegative() {
		return 0, fmt.Errorf("negative quote for %s to %s", inMint, outMint)
	}
	return raw.BigInt().Uint64(), nil
}
