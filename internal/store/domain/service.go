package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type CreateRequest struct {
	// CompanyID comes from the authenticated caller's company context,
	// never from a hardcoded tenant.
	CompanyID snowflake.ID
	Code      string `json:"code"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
}

type UpdateRequest struct {
	ID     string  `json:"id"`
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Active *bool   `json:"active"`
}

type ListRequest struct {
	CompanyID snowflake.ID
	Active    *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Store, error)
	Get(ctx context.Context, id string) (*Store, error)
	List(ctx context.Context, req ListRequest) ([]Store, error)
	Update(ctx context.Context, req UpdateRequest) (*Store, error)
	AuthorizePhone(ctx context.Context, storeID string, phone string) (*AuthorizedPhone, error)
	RevokePhone(ctx context.Context, storeID string, phone string) error
	ListAuthorizedPhones(ctx context.Context, storeID string) ([]AuthorizedPhone, error)
}

// ParseID parses a string store id.
func ParseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

var (
	ErrInvalidID        = errors.New("invalid_store_id")
	ErrInvalidCompany   = errors.New("invalid_company")
	ErrInvalidCode      = errors.New("invalid_code")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidPhone     = errors.New("invalid_phone")
	ErrCodeTaken        = errors.New("store_code_taken")
	ErrNotFound         = errors.New("store_not_found")
	ErrPhoneNotFound    = errors.New("authorized_phone_not_found")
	ErrPhoneDuplicate   = errors.New("phone_already_authorized")
	ErrCompanyInactive  = errors.New("company_inactive")
	ErrCompanyNotFound  = errors.New("company_not_found")
	ErrMissingCompanyID = errors.New("missing_company_context")
)
