package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type CreateRequest struct {
	Name             string  `json:"name"`
	TaxID            string  `json:"tax_id"`
	BillingFrequency string  `json:"billing_frequency"`
	CommissionRate   float64 `json:"commission_rate"`
}

type UpdateRequest struct {
	ID               string   `json:"id"`
	Name             *string  `json:"name"`
	BillingFrequency *string  `json:"billing_frequency"`
	CommissionRate   *float64 `json:"commission_rate"`
	Active           *bool    `json:"active"`
}

type ListRequest struct {
	Active *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Company, error)
	Get(ctx context.Context, id string) (*Company, error)
	List(ctx context.Context, req ListRequest) ([]Company, error)
	Update(ctx context.Context, req UpdateRequest) (*Company, error)
}

// ParseID parses a string company id.
func ParseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

var (
	ErrInvalidID             = errors.New("invalid_company_id")
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidTaxID          = errors.New("invalid_tax_id")
	ErrInvalidFrequency      = errors.New("invalid_billing_frequency")
	ErrInvalidCommissionRate = errors.New("invalid_commission_rate")
	ErrTaxIDTaken            = errors.New("tax_id_taken")
	ErrNotFound              = errors.New("company_not_found")
)
