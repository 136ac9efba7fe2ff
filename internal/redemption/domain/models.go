package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ProviderKey is an activation key fetched from the upstream provider.
// Cards reference the key row that backs their PIN.
type ProviderKey struct {
	ID            snowflake.ID `gorm:"primaryKey"`
	Code          string       `gorm:"type:text;not null;uniqueIndex:ux_provider_keys_code"`
	ProductID     snowflake.ID `gorm:"not null"`
	Verified      bool         `gorm:"not null;default:false"`
	TransactionID *string      `gorm:"type:text"`
	ExpiresAt     *time.Time
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ProviderKey) TableName() string { return "provider_keys" }
