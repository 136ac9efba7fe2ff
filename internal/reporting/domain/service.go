package domain

import (
	"context"
	"errors"
)

// Service exposes read-only dashboard aggregations. No method mutates state.
type Service interface {
	DailyActivations(ctx context.Context, q Query) (DailyActivationsResponse, error)
	TopStores(ctx context.Context, q Query) (TopStoresResponse, error)
	IssuanceSummary(ctx context.Context, q Query) (IssuanceSummary, error)
}

var (
	ErrInvalidCompany = errors.New("invalid_company")
	ErrInvalidPeriod  = errors.New("invalid_period")
)
