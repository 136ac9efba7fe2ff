package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// DefaultMaxScans bounds how many times a redeemed card's PIN may be re-read.
const DefaultMaxScans = 3

// ShortCodeLength is fixed: callers rely on the external code being 8 chars.
const ShortCodeLength = 8

// Card is a single QR-coded prepaid card.
type Card struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	UID            string        `gorm:"column:uid;type:text;not null;uniqueIndex:ux_cards_uid" json:"uuid"`
	ShortCode      string        `gorm:"type:text;not null;uniqueIndex:ux_cards_short_code" json:"short_code"`
	QRPayload      string        `gorm:"column:qr_payload;type:text;not null" json:"qr_payload"`
	ProductID      snowflake.ID  `gorm:"not null" json:"product_id"`
	DenominationID *snowflake.ID `gorm:"index" json:"denomination_id,omitempty"`
	AmountCents    *int64        `json:"amount_cents,omitempty"`
	Currency       string        `gorm:"type:text;not null;default:'USD'" json:"currency"`
	StoreID        snowflake.ID  `gorm:"not null;index" json:"store_id"`
	BatchID        *snowflake.ID `gorm:"index" json:"batch_id,omitempty"`
	IsActivated    bool          `gorm:"not null;default:false" json:"is_activated"`
	ActivatedAt    *time.Time    `json:"activated_at,omitempty"`
	IsRedeemed     bool          `gorm:"not null;default:false" json:"is_redeemed"`
	RedeemedAt     *time.Time    `json:"redeemed_at,omitempty"`
	ScanCount      int           `gorm:"not null;default:0" json:"scan_count"`
	MaxScans       int           `gorm:"not null;default:3" json:"max_scans"`
	PIN            *string       `gorm:"column:pin;type:text" json:"-"`
	TransactionID  *string       `gorm:"type:text" json:"-"`
	KeyID          *snowflake.ID `json:"-"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Card) TableName() string { return "cards" }

// FaceAmountCents resolves the card's value from its denomination or custom amount.
func (c Card) FaceAmountCents(denominationAmount int64) int64 {
	if c.AmountCents != nil && *c.AmountCents > 0 {
		return *c.AmountCents
	}
	return denominationAmount
}

// CardBatch groups cards issued together.
type CardBatch struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	StoreID   snowflake.ID `gorm:"not null;index" json:"store_id"`
	ProductID snowflake.ID `gorm:"not null" json:"product_id"`
	Quantity  int          `gorm:"not null" json:"quantity"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CardBatch) TableName() string { return "card_batches" }

// QRPayload is the structure encoded into each card's QR string.
type QRPayload struct {
	UID         string `json:"uuid"`
	StoreCode   string `json:"store_code"`
	SKU         string `json:"sku"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}
