package metadata

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/solsniper/executor/program"
	"github.com/solsniper/executor/store"
)

// header is key(1) + update authority(32) + mint(32), the strings follow
const headerSize = 65

type fetcher interface {
	AccountData(pubkey solana.PublicKey) ([]byte, uint64, error)
}

// Client reads metaplex token metadata and the off-chain JSON it points
// at. Everything here is display data; failures never block a trade.
type Client struct {
	chain  fetcher
	http   *http.Client
	logger *log.Logger
}

func NewClient(chain fetcher, logger *log.Logger) *Client {
	return &Client{
		chain:  chain,
		http:   &http.Client{Timeout: time.Second * 10},
		logger: logger,
	}
}

// OnchainMetadata is the decoded slice of the metaplex account the
// engine cares about.
type OnchainMetadata struct {
	Name   string
	Symbol string
	Uri    string
}

type uriContent struct {
	Description string `json:"description"`
	Image       string `json:"image"`
	Twitter     string `json:"twitter"`
	CreatedOn   string `json:"createdOn"`
}

func DeriveMetadataAccount(mint solana.PublicKey) (solana.PublicKey, error) {
	account, _, err := solana.FindProgramAddress([][]byte{
		[]byte("metadata"),
		program.Metadata.Bytes(),
		mint.Bytes(),
	}, program.Metadata)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive metadata account for %s: %w", mint, err)
	}
	return account, nil
}

// ParseMetadata decodes the three borsh strings after the fixed header.
// The on-chain strings are null padded to their maximum size.
func ParseMetadata(data []byte) (*OnchainMetadata, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("metadata account too small: %d bytes", len(data))
	}
	rest := data[headerSize:]
	name, rest, err := readString(rest)
	if err != nil {
		return nil, err
	}
	symbol, rest, err := readString(rest)
	if err != nil {
		return nil, err
	}
	uri, _, err := readString(rest)
	if err != nil {
		return nil, err
	}
	return &OnchainMetadata{
		Name:   strings.TrimRight(name, "\x00"),
		Symbol: strings.TrimRight(symbol, "\x00"),
		Uri:    strings.TrimRight(uri, "\x00"),
	}, nil
}

func readString(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", nil, fmt.Errorf("truncated metadata string header")
	}
	size := binary.LittleEndian.Uint32(data)
	if uint32(len(data)-4) < size {
		return "", nil, fmt.Errorf("truncated metadata string: want %d, have %d", size, len(data)-4)
	}
	return string(data[4 : 4+size]), data[4+size:], nil
}

// TokenFor assembles the display row for a mint: on-chain name, symbol
// and uri, plus whatever the uri JSON supplies. A broken uri only costs
// the optional fields.
func (client *Client) TokenFor(mint solana.PublicKey) (*store.Token, error) {
	account, err := DeriveMetadataAccount(mint)
	if err != nil {
		return nil, err
	}
	data, _, err := client.chain.AccountData(account)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata for %s: %w", mint, err)
	}
	decoded, err := ParseMetadata(data)
	if err != nil {
		return nil, err
	}
	token := &store.Token{
		Mint:   mint.String(),
		Name:   decoded.Name,
		Symbol: decoded.Symbol,
		Uri:    decoded.Uri,
	}
	if decoded.Uri != "" {
		content, err := client.fetchUri(decoded.Uri)
		if err != nil {
			client.logger.Printf("fetch metadata uri for %s err: %s", mint, err.Error())
		} else {
			token.Description = content.Description
			token.Image = content.Image
			token.Twitter = content.Twitter
			token.CreatedOn = content.CreatedOn
		}
	}
	return token, nil
}

func (client *Client) fetchUri(uri string) (*uriContent, error) {
	response, err := client.http.Get(uri)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", response.StatusCode)
	}
	content := &uriContent{}
	if err := json.NewDecoder(response.Body).Decode(content); err != nil {
		return nil, err
	}
	return content, nil
}
