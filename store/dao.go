package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Dao struct {
	db *gorm.DB
}

func NewDao(url, scheme, user, passwd string) (*Dao, error) {
	Logger := logger.Default
	Logger = Logger.LogMode(logger.Warn)
	db, err := gorm.Open(mysql.Open(user+":"+passwd+"@tcp("+url+")/"+
		scheme+"?charset=utf8"), &gorm.Config{Logger: Logger})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	err = db.AutoMigrate(&TradeState{}, &BuyRecord{}, &SellRecord{}, &Token{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Dao{db: db}, nil
}

// UpsertTradeState writes the whole per-mint state, replacing any row
// with the same mint.
func (dao *Dao) UpsertTradeState(state *TradeState) error {
	return dao.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mint"}},
		UpdateAll: true,
	}).Create(state).Error
}

// TradeStateFor returns the state for a mint, nil when none exists yet.
func (dao *Dao) TradeStateFor(mint string) (*TradeState, error) {
	state := &TradeState{}
	res := dao.db.Where("mint = ?", mint).First(state)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return state, nil
}

// SaveBuyRecord inserts an audit row. A duplicate signature is a no-op,
// so re-running reconciliation cannot double-book.
func (dao *Dao) SaveBuyRecord(record *BuyRecord) error {
	return dao.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "signature"}},
		DoNothing: true,
	}).Create(record).Error
}

// HasBuyRecord reports whether an acquisition with this signature was
// already reconciled.
func (dao *Dao) HasBuyRecord(signature string) (bool, error) {
	var count int64
	res := dao.db.Model(&BuyRecord{}).Where("signature = ?", signature).Count(&count)
	if res.Error != nil {
		return false, res.Error
	}
	return count > 0, nil
}

// SaveSellRecord inserts an audit row, duplicate signatures are a no-op.
func (dao *Dao) SaveSellRecord(record *SellRecord) error {
	return dao.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "signature"}},
		DoNothing: true,
	}).Create(record).Error
}

// HasSellRecord reports whether a disposal with this signature was
// already reconciled.
func (dao *Dao) HasSellRecord(signature string) (bool, error) {
	var count int64
	res := dao.db.Model(&SellRecord{}).Where("signature = ?", signature).Count(&count)
	if res.Error != nil {
		return false, res.Error
	}
	return count > 0, nil
}

func (dao *Dao) UpsertToken(token *Token) error {
	return dao.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mint"}},
		DoNothing: true,
	}).Create(token).Error
}

func (dao *Dao) TokenFor(mint string) (*Token, error) {
	token := &Token{}
	res := dao.db.Where("mint = ?", mint).First(token)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, res.Error
	}
	return token, nil
}

// MarkTokenSold flips the sold flag, used to guard against re-running a
// disposal that already landed.
func (dao *Dao) MarkTokenSold(mint string) error {
	return dao.db.Model(&Token{}).Where("mint = ?", mint).Update("sold", true).Error
}
