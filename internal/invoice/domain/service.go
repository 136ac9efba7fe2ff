package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type GenerateRequest struct {
	CompanyID     string    `json:"company_id"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	ActivationIDs []string  `json:"activation_ids"`
}

type ManualItem struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	StoreID        string `json:"store_id,omitempty"`
	CardID         string `json:"card_id,omitempty"`
}

type CreateRequest struct {
	CompanyID      string       `json:"company_id"`
	PeriodStart    time.Time    `json:"period_start"`
	PeriodEnd      time.Time    `json:"period_end"`
	Items          []ManualItem `json:"items"`
	CommissionRate float64      `json:"commission_rate"`
	ExchangeRate   *float64     `json:"exchange_rate,omitempty"`
}

type ListRequest struct {
	CompanyID string
	Status    string
}

type Service interface {
	GenerateInvoice(ctx context.Context, req GenerateRequest) (*Invoice, error)
	CreateInvoice(ctx context.Context, req CreateRequest) (*Invoice, error)
	MarkAsPaid(ctx context.Context, id string, paidAt time.Time) (*Invoice, error)
	CancelInvoice(ctx context.Context, id string, reason string) (*Invoice, error)
	GetByID(ctx context.Context, id string) (*Invoice, []InvoiceItem, error)
	List(ctx context.Context, req ListRequest) ([]Invoice, error)
}

// ParseID parses a snowflake ID from its string form.
func ParseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(raw)
}

var (
	ErrInvalidID           = errors.New("invalid_invoice_id")
	ErrNotFound            = errors.New("invoice_not_found")
	ErrCompanyNotFound     = errors.New("company_not_found")
	ErrInvalidPeriod       = errors.New("invalid_period")
	ErrNoPendingActivation = errors.New("no_pending_activations")
	ErrMissingItems        = errors.New("missing_items")
	ErrInvalidItem         = errors.New("invalid_item")
	ErrInvalidRate         = errors.New("invalid_commission_rate")
	ErrNotPending          = errors.New("invoice_not_pending")
	ErrAlreadyCancelled    = errors.New("invoice_already_cancelled")
	ErrNumberExhausted     = errors.New("invoice_number_exhausted")
)
