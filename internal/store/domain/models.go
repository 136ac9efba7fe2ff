package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Store is a point of sale owned by exactly one company.
type Store struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;index" json:"company_id"`
	Code      string       `gorm:"type:text;not null;uniqueIndex:ux_stores_code" json:"code"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Phone     string       `gorm:"type:text" json:"phone"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Store) TableName() string { return "stores" }

// AuthorizedPhone whitelists a phone number for webhook activation at a store.
// Revocation is soft so past activations keep their audit trail.
type AuthorizedPhone struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	StoreID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_authorized_phones_store_phone,priority:1" json:"store_id"`
	Phone     string       `gorm:"type:text;not null;uniqueIndex:ux_authorized_phones_store_phone,priority:2" json:"phone"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AuthorizedPhone) TableName() string { return "authorized_phones" }

// Contact is the remediation info returned to scanners of unactivated cards.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
