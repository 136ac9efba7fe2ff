package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type IssueRequest struct {
	StoreID          string `json:"store_id"`
	ProductID        string `json:"product_id"`
	DenominationID   string `json:"denomination_id"`
	CustomAmountCents int64 `json:"custom_amount_cents"`
	Quantity         int    `json:"quantity"`
	MaxScans         int    `json:"max_scans"`
}

// IssuedCard is the issuance response shape handed to printers.
type IssuedCard struct {
	ID        string `json:"id"`
	UID       string `json:"uuid"`
	ShortCode string `json:"short_code"`
	QRPayload string `json:"qr_data"`
}

// IssueResponse surfaces partial batch failures instead of hiding them.
type IssueResponse struct {
	BatchID string       `json:"batch_id"`
	Cards   []IssuedCard `json:"cards"`
	Issued  int          `json:"issued"`
	Failed  int          `json:"failed"`
}

type ListRequest struct {
	StoreID string
	BatchID string
}

type Service interface {
	Issue(ctx context.Context, req IssueRequest) (*IssueResponse, error)
	GetByUID(ctx context.Context, uid string) (*Card, error)
	List(ctx context.Context, req ListRequest) ([]Card, error)
	// Delete removes a card that has never been activated.
	Delete(ctx context.Context, id string) error
}

// ParseID parses a string card id.
func ParseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

var (
	ErrInvalidID           = errors.New("invalid_card_id")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrMissingDenomination = errors.New("missing_denomination")
	ErrStoreNotFound       = errors.New("store_not_found")
	ErrProductNotFound     = errors.New("product_not_found")
	ErrNotFound            = errors.New("card_not_found")
	ErrCardActivated       = errors.New("card_already_activated")
	ErrBatchIncomplete     = errors.New("batch_partially_issued")
)
