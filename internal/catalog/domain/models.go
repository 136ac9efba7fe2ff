package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ProductKind distinguishes gift cards from other prepaid catalog entries.
type ProductKind string

const (
	ProductKindGiftCard ProductKind = "gift_card"
	ProductKindTopup    ProductKind = "topup"
)

// Valid reports whether the kind is known.
func (k ProductKind) Valid() bool {
	return k == ProductKindGiftCard || k == ProductKindTopup
}

// Product is a catalog entry cards are issued against.
type Product struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	SKU               string       `gorm:"type:text;not null;uniqueIndex:ux_products_sku" json:"sku"`
	Name              string       `gorm:"type:text;not null" json:"name"`
	Kind              ProductKind  `gorm:"type:text;not null;default:'gift_card'" json:"kind"`
	AllowCustomAmount bool         `gorm:"not null;default:false" json:"allow_custom_amount"`
	Active            bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// ProductDenomination is an allowed face value for a product.
type ProductDenomination struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	ProductID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_denominations_product_amount,priority:1" json:"product_id"`
	AmountCents int64        `gorm:"not null;uniqueIndex:ux_denominations_product_amount,priority:2" json:"amount_cents"`
	Currency    string       `gorm:"type:text;not null;default:'USD';uniqueIndex:ux_denominations_product_amount,priority:3" json:"currency"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ProductDenomination) TableName() string { return "product_denominations" }
