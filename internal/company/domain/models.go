package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BillingFrequency controls the invoicing cadence for a company.
type BillingFrequency string

const (
	BillingFrequencyDaily     BillingFrequency = "DAILY"
	BillingFrequencyThreeDays BillingFrequency = "THREE_DAYS"
	BillingFrequencyWeekly    BillingFrequency = "WEEKLY"
	BillingFrequencyBiweekly  BillingFrequency = "BIWEEKLY"
	BillingFrequencyMonthly   BillingFrequency = "MONTHLY"
)

// Valid reports whether the frequency is a known cadence.
func (f BillingFrequency) Valid() bool {
	switch f {
	case BillingFrequencyDaily, BillingFrequencyThreeDays, BillingFrequencyWeekly,
		BillingFrequencyBiweekly, BillingFrequencyMonthly:
		return true
	}
	return false
}

// PeriodEnd returns the end of a billing period that starts at the given time.
func (f BillingFrequency) PeriodEnd(start time.Time) time.Time {
	switch f {
	case BillingFrequencyDaily:
		return start.AddDate(0, 0, 1)
	case BillingFrequencyThreeDays:
		return start.AddDate(0, 0, 3)
	case BillingFrequencyWeekly:
		return start.AddDate(0, 0, 7)
	case BillingFrequencyBiweekly:
		return start.AddDate(0, 0, 14)
	default:
		return start.AddDate(0, 1, 0)
	}
}

// Company owns stores and receives period invoices with a commission split.
type Company struct {
	ID               snowflake.ID     `gorm:"primaryKey" json:"id"`
	Name             string           `gorm:"type:text;not null" json:"name"`
	TaxID            string           `gorm:"type:text;not null;uniqueIndex:ux_companies_tax_id" json:"tax_id"`
	BillingFrequency BillingFrequency `gorm:"type:text;not null;default:'MONTHLY'" json:"billing_frequency"`
	CommissionRate   float64          `gorm:"not null;default:0" json:"commission_rate"`
	Active           bool             `gorm:"not null;default:true" json:"active"`
	CreatedAt        time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }
