package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type CreateProductRequest struct {
	SKU               string `json:"sku"`
	Name              string `json:"name"`
	Kind              string `json:"kind"`
	AllowCustomAmount bool   `json:"allow_custom_amount"`
}

type AddDenominationRequest struct {
	ProductID   string `json:"product_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type Service interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context, active *bool) ([]Product, error)
	ArchiveProduct(ctx context.Context, id string) (*Product, error)
	AddDenomination(ctx context.Context, req AddDenominationRequest) (*ProductDenomination, error)
	ListDenominations(ctx context.Context, productID string) ([]ProductDenomination, error)
}

// ParseID parses a string product or denomination id.
func ParseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

var (
	ErrInvalidID            = errors.New("invalid_product_id")
	ErrInvalidSKU           = errors.New("invalid_sku")
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidKind          = errors.New("invalid_kind")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidCurrency      = errors.New("invalid_currency")
	ErrSKUTaken             = errors.New("sku_taken")
	ErrNotFound             = errors.New("product_not_found")
	ErrDenominationTaken    = errors.New("denomination_taken")
	ErrDenominationNotFound = errors.New("denomination_not_found")
)
