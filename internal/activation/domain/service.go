package domain

import (
	"context"
	"errors"
)

// ActivateRequest is the parsed webhook payload.
type ActivateRequest struct {
	UID       string `json:"uuid"`
	Phone     string `json:"phone"`
	Timestamp string `json:"timestamp"`
}

type Service interface {
	// VerifySignature checks the HMAC-SHA256 signature over the raw webhook
	// body. Verification is skipped when no secret is configured and
	// signatures are not required.
	VerifySignature(raw []byte, signature string) error

	Activate(ctx context.Context, req ActivateRequest) (*CardActivation, error)
}

var (
	ErrCardNotFound       = errors.New("card_not_found")
	ErrAlreadyActivated   = errors.New("card_already_activated")
	ErrPhoneNotAuthorized = errors.New("phone_not_authorized")
	ErrInvalidSignature   = errors.New("invalid_signature")
	ErrMissingPhone       = errors.New("missing_phone")
)
