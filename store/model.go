package store

// TradeState is the durable per-mint position. Created on the first
// acquisition, mutated only by reconciliation, never deleted.
type TradeState struct {
	Mint           string  `gorm:"primaryKey;type:varchar(48);not null"`
	EntryPrice     float64 `gorm:"type:double;not null"`
	TakenOut       float64 `gorm:"type:double;not null"`
	Remaining      uint64  `gorm:"type:bigint(20) unsigned;not null"`
	TakeProfitHits int     `gorm:"type:bigint(20);not null"`
	StopLossHits   int     `gorm:"type:bigint(20);not null"`
	Sold           bool    `gorm:"not null"`
	UpdatedAt      int64   `gorm:"type:bigint(20);not null"`
}

// BuyRecord is an immutable audit row, one per confirmed acquisition.
type BuyRecord struct {
	Id          uint64  `gorm:"primaryKey;autoIncrement"`
	Signature   string  `gorm:"uniqueIndex;type:varchar(120);not null"`
	Mint        string  `gorm:"index;type:varchar(48);not null"`
	TokenAmount uint64  `gorm:"type:bigint(20) unsigned;not null"`
	SolAmount   float64 `gorm:"type:double;not null"`
	SolPrice    float64 `gorm:"type:double;not null"`
	UsdAmount   float64 `gorm:"type:double;not null"`
	EntryPrice  float64 `gorm:"type:double;not null"`
	FeeLamports uint64  `gorm:"type:bigint(20) unsigned;not null"`
	FeeUsd      float64 `gorm:"type:double;not null"`
	Time        int64   `gorm:"type:bigint(20);not null"`
}

// SellRecord is an immutable audit row, one per confirmed disposal.
type SellRecord struct {
	Id               uint64  `gorm:"primaryKey;autoIncrement"`
	Signature        string  `gorm:"uniqueIndex;type:varchar(120);not null"`
	Mint             string  `gorm:"index;type:varchar(48);not null"`
	TokenAmount      uint64  `gorm:"type:bigint(20) unsigned;not null"`
	SolAmount        float64 `gorm:"type:double;not null"`
	SolPrice         float64 `gorm:"type:double;not null"`
	SellPrice        float64 `gorm:"type:double;not null"`
	EntryPrice       float64 `gorm:"type:double;not null"`
	FeeLamports      uint64  `gorm:"type:bigint(20) unsigned;not null"`
	FeeUsd           float64 `gorm:"type:double;not null"`
	Profit           float64 `gorm:"type:double;not null"`
	ProfitUsd        float64 `gorm:"type:double;not null"`
	ProfitPercentage float64 `gorm:"type:double;not null"`
	Time             int64   `gorm:"type:bigint(20);not null"`
}

// Token carries the display metadata attached to a traded mint.
type Token struct {
	Mint        string `gorm:"primaryKey;type:varchar(48);not null"`
	Name        string `gorm:"type:varchar(128);not null"`
	Symbol      string `gorm:"type:varchar(32);not null"`
	Uri         string `gorm:"type:varchar(256);not null"`
	Description string `gorm:"type:varchar(512);not null"`
	Image       string `gorm:"type:varchar(256);not null"`
	Twitter     string `gorm:"type:varchar(256);not null"`
	CreatedOn   string `gorm:"type:varchar(256);not null"`
	Sold        bool   `gorm:"not null"`
}
