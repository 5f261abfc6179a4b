package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockStatus represents whether a position is shown in the default ledger view
type StockStatus string

const (
	StockStatusActive StockStatus = "active"
	StockStatusSold   StockStatus = "sold"
	StockStatusClosed StockStatus = "closed"
)

// Stock represents one position in a user's personal stock ledger
type Stock struct {
	ID           uint             `gorm:"primaryKey;column:stock_id" json:"stock_id"`
	UserID       uint             `gorm:"not null;index" json:"user_id"`
	StockName    string           `gorm:"not null" json:"stock_name"`
	StockSymbol  string           `gorm:"size:20" json:"stock_symbol,omitempty"`
	BuyPrice     decimal.Decimal  `gorm:"column:stock_buy_price;type:decimal(20,2);not null" json:"stock_buy_price"`
	CurrentPrice decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"current_price"`
	SellPrice    *decimal.Decimal `gorm:"type:decimal(20,2)" json:"sell_price,omitempty"`
	Quantity     int64            `gorm:"not null" json:"quantity"`
	PurchaseDate time.Time        `gorm:"not null" json:"purchase_date"`
	ImageURL     *string          `json:"image_url,omitempty"`
	Status       StockStatus      `gorm:"not null;default:'active';index" json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// PercentageSetting holds the per-user charge percentages applied to the
// profit side of a position. At most one row per user is active; writes
// replace the previous active row.
type PercentageSetting struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	BrokeragePct  decimal.Decimal `gorm:"type:decimal(8,4);default:0" json:"brokerage_pct"`
	GSTPct        decimal.Decimal `gorm:"type:decimal(8,4);default:0" json:"gst_pct"`
	STTPct        decimal.Decimal `gorm:"type:decimal(8,4);default:0" json:"stt_pct"`
	TxnTaxPct     decimal.Decimal `gorm:"type:decimal(8,4);default:0" json:"txn_tax_pct"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	UpdatedByName string          `json:"updated_by_name,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// BeforeCreate hook for Stock: a position created without a market price
// starts at its buy price
func (s *Stock) BeforeCreate(tx *gorm.DB) error {
	if s.CurrentPrice.IsZero() {
		s.CurrentPrice = s.BuyPrice
	}
	if s.Status == "" {
		s.Status = StockStatusActive
	}
	return nil
}

// TableName methods
func (Stock) TableName() string             { return "stocks" }
func (PercentageSetting) TableName() string { return "user_percentage_settings" }
