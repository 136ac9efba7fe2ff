package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Billing status lifecycle for an activation record.
const (
	BillingStatusPending   = "PENDING"
	BillingStatusInvoiced  = "INVOICED"
	BillingStatusPaid      = "PAID"
	BillingStatusCancelled = "CANCELLED"
)

// CardActivation is the billable record created exactly once when a card is
// activated. Amount and commission are stamped here, at activation time, so
// later invoice rollups never depend on the company's rate at rollup time.
type CardActivation struct {
	ID               snowflake.ID  `gorm:"primaryKey" json:"id"`
	CardID           snowflake.ID  `gorm:"not null;uniqueIndex:ux_card_activations_card" json:"card_id"`
	StoreID          snowflake.ID  `gorm:"not null;index" json:"store_id"`
	ActivatedBy      string        `gorm:"type:text;not null" json:"activated_by"`
	AmountCents      int64         `gorm:"not null;default:0" json:"amount_cents"`
	GrossProfitCents int64         `gorm:"not null;default:0" json:"gross_profit_cents"`
	CommissionCents  int64         `gorm:"not null;default:0" json:"commission_cents"`
	BillingStatus    string        `gorm:"type:text;not null;default:'PENDING';index" json:"billing_status"`
	InvoiceID        *snowflake.ID `gorm:"index" json:"invoice_id,omitempty"`
	ActivatedAt      time.Time     `gorm:"not null" json:"activated_at"`
	CreatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CardActivation) TableName() string { return "card_activations" }
