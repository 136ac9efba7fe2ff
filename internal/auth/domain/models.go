package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Staff roles.
const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)

// API key permissions, stored as a comma-separated list.
const (
	PermissionCardsCreate    = "cards:create"
	PermissionInvoicesManage = "invoices:manage"
)

// User is a back-office staff account.
type User struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	Email        string        `gorm:"type:text;not null;uniqueIndex:ux_users_email" json:"email"`
	DisplayName  string        `gorm:"type:text;not null" json:"display_name"`
	PasswordHash string        `gorm:"type:text;not null" json:"-"`
	Role         string        `gorm:"type:text;not null;default:'STAFF'" json:"role"`
	CompanyID    *snowflake.ID `json:"company_id,omitempty"`
	Active       bool          `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// APIKey authenticates machine callers. Only the SHA-256 of the key is
// stored; the plaintext is shown once at creation.
type APIKey struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID   snowflake.ID `gorm:"not null;index" json:"company_id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	KeyHash     string       `gorm:"type:text;not null;uniqueIndex:ux_api_keys_hash" json:"-"`
	Permissions string       `gorm:"type:text;not null;default:''" json:"permissions"`
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (APIKey) TableName() string { return "api_keys" }

// HasPermission checks the comma-separated permission list.
func (k APIKey) HasPermission(perm string) bool {
	for _, have := range strings.Split(k.Permissions, ",") {
		if strings.TrimSpace(have) == perm {
			return true
		}
	}
	return false
}

// HashAPIKey returns the hex SHA-256 digest stored for an API key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}
