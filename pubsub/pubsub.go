package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

const (
	intentChannel       = "trading"
	confirmationChannel = "trading_confirmation"
	positionCountKey    = "buy_transaction_count"
)

// TradeMessage is the wire form of an intent published by the signal
// side. A buy names the mint in in_token with the lamport budget in
// amount_in; a sell names it in mint with the token amount in amount.
type TradeMessage struct {
	Type       string  `json:"type_"`
	InToken    string  `json:"in_token"`
	Mint       string  `json:"mint"`
	AmountIn   float64 `json:"amount_in"`
	Amount     float64 `json:"amount"`
	LpDecimals uint8   `json:"lp_decimals"`
}

func DecodeTradeMessage(payload string) (*TradeMessage, error) {
	message := &TradeMessage{}
	if err := json.Unmarshal([]byte(payload), message); err != nil {
		return nil, fmt.Errorf("decode trade message: %w", err)
	}
	switch message.Type {
	case "buy", "sell":
	default:
		return nil, fmt.Errorf("unknown trade type %q", message.Type)
	}
	return message, nil
}

// TargetMint returns the traded mint regardless of side.
func (message *TradeMessage) TargetMint() string {
	if message.Type == "buy" {
		return message.InToken
	}
	return message.Mint
}

type confirmationMessage struct {
	Status string `json:"status"`
	Mint   string `json:"mint"`
}

// Bus carries intents in and confirmations out over redis, and holds
// the shared open-position counter.
type Bus struct {
	ctx    context.Context
	client *redis.Client
	logger *log.Logger
}

func NewBus(ctx context.Context, url string, logger *log.Logger) (*Bus, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Bus{ctx: ctx, client: client, logger: logger}, nil
}

// Intents delivers raw intent payloads to the handler one at a time, in
// arrival order. Blocks until the context is cancelled.
func (bus *Bus) Intents(handler func(payload string)) error {
	subscription := bus.client.Subscribe(bus.ctx, intentChannel)
	defer subscription.Close()
	channel := subscription.Channel()
	bus.logger.Printf("subscribed to %s", intentChannel)
	for {
		select {
		case <-bus.ctx.Done():
			return bus.ctx.Err()
		case message, ok := <-channel:
			if !ok {
				return nil
			}
			handler(message.Payload)
		}
	}
}

// PublishConfirmation reports the final verdict for a mint back to the
// signal side. Exactly one confirmation goes out per intent.
func (bus *Bus) PublishConfirmation(mint string, success bool) error {
	status := "fail"
	if success {
		status = "success"
	}
	payload, err := json.Marshal(&confirmationMessage{Status: status, Mint: mint})
	if err != nil {
		return err
	}
	return bus.client.Publish(bus.ctx, confirmationChannel, payload).Err()
}

func (bus *Bus) Increment() error {
	return bus.client.Incr(bus.ctx, positionCountKey).Err()
}

func (bus *Bus) Decrement() error {
	count, err := bus.client.Decr(bus.ctx, positionCountKey).Result()
	if err != nil {
		return err
	}
	if count < 0 {
		// counter drift, clamp rather than go negative
		return bus.client.Set(bus.ctx, positionCountKey, 0, 0).Err()
	}
	return nil
}

func (bus *Bus) Close() error {
	return bus.client.Close()
}
