package domain

import (
	"context"
	"errors"

	storedomain "github.com/smallbiznis/giftway/internal/store/domain"
)

type ScanRequest struct {
	// UID is the card's external identifier (uuid or 8-char short code).
	UID       string
	ClientIP  string
	UserAgent string
}

type ScanResponse struct {
	PIN            string `json:"pin"`
	Product        string `json:"product"`
	AmountCents    int64  `json:"amount_cents"`
	Currency       string `json:"currency"`
	ScansRemaining int    `json:"scans_remaining"`
}

type Service interface {
	Scan(ctx context.Context, req ScanRequest) (*ScanResponse, error)
}

var (
	ErrCardNotFound = errors.New("card_not_found")
	ErrNotActivated = errors.New("not_activated")
	ErrMaxScans     = errors.New("max_scans_reached")
	ErrUpstream     = errors.New("matrix_error")
)

// NotActivatedError carries the store contact a scanner should call to get
// the card activated. It matches ErrNotActivated under errors.Is.
type NotActivatedError struct {
	Store storedomain.Contact
}

func (e *NotActivatedError) Error() string { return ErrNotActivated.Error() }

func (e *NotActivatedError) Is(target error) bool { return target == ErrNotActivated }
