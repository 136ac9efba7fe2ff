package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Invoice status lifecycle.
const (
	StatusPending   = "PENDING"
	StatusPaid      = "PAID"
	StatusOverdue   = "OVERDUE"
	StatusCancelled = "CANCELLED"
)

// Invoice is the billing artifact for a company over a period. Totals are
// written once at creation; only status, paid_at and cancel_reason move
// afterwards.
type Invoice struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Number          string       `gorm:"type:text;not null;uniqueIndex:ux_invoices_number" json:"number"`
	CompanyID       snowflake.ID `gorm:"not null;index" json:"company_id"`
	PeriodStart     time.Time    `gorm:"not null" json:"period_start"`
	PeriodEnd       time.Time    `gorm:"not null" json:"period_end"`
	TotalSalesCents int64        `gorm:"not null;default:0" json:"total_sales_cents"`
	CommissionRate  float64      `gorm:"not null;default:0" json:"commission_rate"`
	CommissionCents int64        `gorm:"not null;default:0" json:"commission_cents"`
	TotalCents      int64        `gorm:"not null;default:0" json:"total_cents"`
	Currency        string       `gorm:"type:text;not null;default:'USD'" json:"currency"`
	Status          string       `gorm:"type:text;not null;default:'PENDING'" json:"status"`
	Manual          bool         `gorm:"not null;default:false" json:"manual"`
	ExchangeRate    *float64     `json:"exchange_rate,omitempty"`
	PaidAt          *time.Time   `json:"paid_at,omitempty"`
	CancelReason    *string      `gorm:"type:text" json:"cancel_reason,omitempty"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is one line of an invoice. Generated invoices group
// activations into lines; manual invoices carry operator-supplied lines.
type InvoiceItem struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	InvoiceID       snowflake.ID  `gorm:"not null;index" json:"invoice_id"`
	Description     string        `gorm:"type:text;not null" json:"description"`
	Quantity        int64         `gorm:"not null" json:"quantity"`
	UnitPriceCents  int64         `gorm:"not null" json:"unit_price_cents"`
	TotalPriceCents int64         `gorm:"not null" json:"total_price_cents"`
	StoreID         *snowflake.ID `json:"store_id,omitempty"`
	CardID          *snowflake.ID `json:"card_id,omitempty"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
