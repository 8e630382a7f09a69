package store

import (
	"context"
)

// Store fronts the durable trade tables. Reads and writes are
// synchronous; reconciliation depends on read-modify-write ordering.
type Store struct {
	ctx context.Context
	dao *Dao
}

func NewStore(ctx context.Context, url, scheme, user, passwd string) (*Store, error) {
	dao, err := NewDao(url, scheme, user, passwd)
	if err != nil {
		return nil, err
	}
	return &Store{ctx: ctx, dao: dao}, nil
}

func (s *Store) UpsertTradeState(state *TradeState) error {
	return s.dao.UpsertTradeState(state)
}

func (s *Store) TradeStateFor(mint string) (*TradeState, error) {
	return s.dao.TradeStateFor(mint)
}

func (s *Store) SaveBuyRecord(record *BuyRecord) error {
	return s.dao.SaveBuyRecord(record)
}

func (s *Store) HasBuyRecord(signature string) (bool, error) {
	return s.dao.HasBuyRecord(signature)
}

func (s *Store) SaveSellRecord(record *SellRecord) error {
	return s.dao.SaveSellRecord(record)
}

func (s *Store) HasSellRecord(signature string) (bool, error) {
	return s.dao.HasSellRecord(signature)
}

func (s *Store) UpsertToken(token *Token) error {
	return s.dao.UpsertToken(token)
}

func (s *Store) TokenFor(mint string) (*Token, error) {
	return s.dao.TokenFor(mint)
}

func (s *Store) MarkTokenSold(mint string) error {
	return s.dao.MarkTokenSold(mint)
}
