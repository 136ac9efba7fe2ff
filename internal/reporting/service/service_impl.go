package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/smallbiznis/giftway/internal/company/domain"
	"github.com/smallbiznis/giftway/internal/reporting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultTopStores = 10

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

func NewService(p Params) domain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("reporting.service"),
	}
}

// DailyActivations buckets activations by calendar day (UTC). Bucketing
// happens in Go so the query stays portable across postgres and sqlite.
func (s *Service) DailyActivations(ctx context.Context, q domain.Query) (domain.DailyActivationsResponse, error) {
	companyID, from, to, err := normalizeQuery(q)
	if err != nil {
		return domain.DailyActivationsResponse{}, err
	}

	type row struct {
		ActivatedAt     time.Time
		AmountCents     int64
		CommissionCents int64
	}
	var rows []row
	query := s.db.WithContext(ctx).
		Table("card_activations a").
		Select("a.activated_at, a.amount_cents, a.commission_cents").
		Where("a.activated_at >= ? AND a.activated_at < ?", from, to)
	if companyID != 0 {
		query = query.Where("a.store_id IN (SELECT id FROM stores WHERE company_id = ?)", companyID)
	}
	if err := query.Find(&rows).Error; err != nil {
		return domain.DailyActivationsResponse{}, err
	}

	buckets := make(map[string]*domain.DailyActivation)
	for _, r := range rows {
		day := r.ActivatedAt.UTC().Format("2006-01-02")
		bucket, ok := buckets[day]
		if !ok {
			bucket = &domain.DailyActivation{Date: day}
			buckets[day] = bucket
		}
		bucket.Count++
		bucket.AmountCents += r.AmountCents
		bucket.CommissionCents += r.CommissionCents
	}

	days := make([]domain.DailyActivation, 0, len(buckets))
	for _, bucket := range buckets {
		days = append(days, *bucket)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return domain.DailyActivationsResponse{Days: days}, nil
}

// TopStores ranks stores by activation value within the period.
func (s *Service) TopStores(ctx context.Context, q domain.Query) (domain.TopStoresResponse, error) {
	companyID, from, to, err := normalizeQuery(q)
	if err != nil {
		return domain.TopStoresResponse{}, err
	}
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = defaultTopStores
	}

	type row struct {
		StoreID     snowflake.ID
		StoreCode   string
		StoreName   string
		Activations int64
		AmountCents int64
	}
	var rows []row
	sql := `SELECT s.id AS store_id, s.code AS store_code, s.name AS store_name,
	               COUNT(1) AS activations, SUM(a.amount_cents) AS amount_cents
	        FROM card_activations a
	        JOIN stores s ON s.id = a.store_id
	        WHERE a.activated_at >= ? AND a.activated_at < ?`
	args := []any{from, to}
	if companyID != 0 {
		sql += ` AND s.company_id = ?`
		args = append(args, companyID)
	}
	sql += ` GROUP BY s.id, s.code, s.name
	         ORDER BY amount_cents DESC, activations DESC
	         LIMIT ?`
	args = append(args, limit)
	if err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return domain.TopStoresResponse{}, err
	}

	stores := make([]domain.StoreTotals, 0, len(rows))
	for _, r := range rows {
		stores = append(stores, domain.StoreTotals{
			StoreID:     r.StoreID.String(),
			StoreCode:   r.StoreCode,
			StoreName:   r.StoreName,
			Activations: r.Activations,
			AmountCents: r.AmountCents,
		})
	}
	return domain.TopStoresResponse{Stores: stores}, nil
}

// IssuanceSummary reports the card funnel for a company (or globally).
func (s *Service) IssuanceSummary(ctx context.Context, q domain.Query) (domain.IssuanceSummary, error) {
	var companyID snowflake.ID
	if strings.TrimSpace(q.CompanyID) != "" {
		id, err := companydomain.ParseID(q.CompanyID)
		if err != nil {
			return domain.IssuanceSummary{}, domain.ErrInvalidCompany
		}
		companyID = id
	}

	var summary domain.IssuanceSummary
	sql := `SELECT COUNT(1) AS issued,
	               SUM(CASE WHEN is_activated THEN 1 ELSE 0 END) AS activated,
	               SUM(CASE WHEN is_redeemed THEN 1 ELSE 0 END) AS redeemed,
	               SUM(CASE WHEN scan_count >= max_scans THEN 1 ELSE 0 END) AS exhausted
	        FROM cards`
	args := []any{}
	if companyID != 0 {
		sql += ` WHERE store_id IN (SELECT id FROM stores WHERE company_id = ?)`
		args = append(args, companyID)
	}
	if err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&summary).Error; err != nil {
		return domain.IssuanceSummary{}, err
	}
	return summary, nil
}

func normalizeQuery(q domain.Query) (snowflake.ID, time.Time, time.Time, error) {
	var companyID snowflake.ID
	if strings.TrimSpace(q.CompanyID) != "" {
		id, err := companydomain.ParseID(q.CompanyID)
		if err != nil {
			return 0, time.Time{}, time.Time{}, domain.ErrInvalidCompany
		}
		companyID = id
	}

	to := q.To
	if to.IsZero() {
		to = time.Now().UTC()
	}
	from := q.From
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if !to.After(from) {
		return 0, time.Time{}, time.Time{}, domain.ErrInvalidPeriod
	}
	return companyID, from.UTC(), to.UTC(), nil
}
