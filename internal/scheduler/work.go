package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/smallbiznis/giftway/internal/company/domain"
)

type workCompany struct {
	ID               snowflake.ID
	BillingFrequency companydomain.BillingFrequency
}

func (s *Scheduler) fetchCompaniesForWork(ctx context.Context, limit int) ([]workCompany, error) {
	if limit <= 0 {
		limit = 50
	}
	var companies []workCompany
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, billing_frequency
		 FROM companies
		 WHERE active = true
		 ORDER BY id
		 LIMIT ?`,
		limit,
	).Scan(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

// nextPeriodStart anchors a company's next billing period: the end of its
// last auto-generated invoice, or its earliest unbilled activation when no
// invoice exists yet. Returns ok=false when there is nothing to bill.
func (s *Scheduler) nextPeriodStart(ctx context.Context, company workCompany) (time.Time, bool, error) {
	var lastEnd time.Time
	err := s.db.WithContext(ctx).Raw(
		`SELECT period_end
		 FROM invoices
		 WHERE company_id = ? AND manual = false AND status != 'CANCELLED'
		 ORDER BY period_end DESC
		 LIMIT 1`,
		company.ID,
	).Row().Scan(&lastEnd)
	if err == nil {
		return lastEnd.UTC(), true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, err
	}

	var firstActivation time.Time
	err = s.db.WithContext(ctx).Raw(
		`SELECT a.activated_at
		 FROM card_activations a
		 WHERE a.billing_status = 'PENDING'
		   AND a.store_id IN (SELECT id FROM stores WHERE company_id = ?)
		 ORDER BY a.activated_at ASC
		 LIMIT 1`,
		company.ID,
	).Row().Scan(&firstActivation)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	return firstActivation.UTC().Truncate(24 * time.Hour), true, nil
}

func (s *Scheduler) pendingActivationIDs(ctx context.Context, company workCompany, before time.Time) ([]string, error) {
	var ids []snowflake.ID
	err := s.db.WithContext(ctx).Raw(
		`SELECT a.id
		 FROM card_activations a
		 WHERE a.billing_status = 'PENDING'
		   AND a.activated_at < ?
		   AND a.store_id IN (SELECT id FROM stores WHERE company_id = ?)
		 ORDER BY a.id`,
		before, company.ID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out, nil
}
