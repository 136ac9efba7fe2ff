package domain

import (
	"context"
	"errors"
	"time"
)

// Claims is the verified identity carried by a staff session token.
type Claims struct {
	UserID    string
	Role      string
	CompanyID string
	ExpiresAt time.Time
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

type CreateAPIKeyRequest struct {
	CompanyID   string   `json:"company_id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	TTL         time.Duration
}

// CreateAPIKeyResponse carries the plaintext key exactly once.
type CreateAPIKeyResponse struct {
	Key    string `json:"key"`
	Record APIKey `json:"record"`
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	VerifyToken(token string) (*Claims, error)
	CreateAPIKey(ctx context.Context, req CreateAPIKeyRequest) (*CreateAPIKeyResponse, error)
	AuthenticateAPIKey(ctx context.Context, key string) (*APIKey, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserInactive       = errors.New("user_inactive")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrTokenExpired       = errors.New("token_expired")
	ErrAPIKeyNotFound     = errors.New("api_key_not_found")
	ErrAPIKeyExpired      = errors.New("api_key_expired")
	ErrCompanyNotFound    = errors.New("company_not_found")
	ErrMissingName        = errors.New("missing_key_name")
)
