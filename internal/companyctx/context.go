package companyctx

import "context"

type contextKey string

const companyIDKey contextKey = "company_id"

// WithCompanyID attaches the authenticated caller's company to the context.
func WithCompanyID(ctx context.Context, companyID int64) context.Context {
	return context.WithValue(ctx, companyIDKey, companyID)
}

// CompanyID extracts the company the request is scoped to, if any.
func CompanyID(ctx context.Context) (int64, bool) {
	value, ok := ctx.Value(companyIDKey).(int64)
	if !ok || value == 0 {
		return 0, false
	}
	return value, true
}
