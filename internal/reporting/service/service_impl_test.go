package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/giftway/internal/reporting/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestDailyActivationsBucketsByDay(t *testing.T) {
	db := setupReportingTestDB(t)
	svc, node := newReportingService(t, db)
	companyID, storeID := seedReportingCompany(t, db, node, "KIOSK-01", "Airport Kiosk")

	seedActivation(t, db, node, storeID, 2500, 250, time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC))
	seedActivation(t, db, node, storeID, 2500, 250, time.Date(2026, 8, 10, 22, 30, 0, 0, time.UTC))
	seedActivation(t, db, node, storeID, 5000, 500, time.Date(2026, 8, 12, 8, 0, 0, 0, time.UTC))

	resp, err := svc.DailyActivations(context.Background(), domain.Query{
		CompanyID: companyID.String(),
		From:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("daily activations: %v", err)
	}

	if len(resp.Days) != 2 {
		t.Fatalf("expected 2 day buckets, got %+v", resp.Days)
	}
	first := resp.Days[0]
	if first.Date != "2026-08-10" || first.Count != 2 || first.AmountCents != 5000 || first.CommissionCents != 500 {
		t.Fatalf("unexpected first bucket %+v", first)
	}
	if resp.Days[1].Date != "2026-08-12" || resp.Days[1].Count != 1 {
		t.Fatalf("unexpected second bucket %+v", resp.Days[1])
	}
}

func TestTopStoresRanksByAmount(t *testing.T) {
	db := setupReportingTestDB(t)
	svc, node := newReportingService(t, db)
	companyID, smallStore := seedReportingCompany(t, db, node, "KIOSK-01", "Mall Kiosk")

	bigStore := node.Generate()
	if err := db.Exec(
		`INSERT INTO stores (id, company_id, code, name, active)
		 VALUES (?, ?, 'KIOSK-02', 'Airport Kiosk', true)`,
		bigStore, companyID,
	).Error; err != nil {
		t.Fatalf("insert store: %v", err)
	}

	at := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	seedActivation(t, db, node, smallStore, 2500, 250, at)
	seedActivation(t, db, node, bigStore, 5000, 500, at)
	seedActivation(t, db, node, bigStore, 5000, 500, at)

	resp, err := svc.TopStores(context.Background(), domain.Query{
		CompanyID: companyID.String(),
		From:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Limit:     1,
	})
	if err != nil {
		t.Fatalf("top stores: %v", err)
	}

	if len(resp.Stores) != 1 {
		t.Fatalf("limit 1 must return a single store, got %d", len(resp.Stores))
	}
	top := resp.Stores[0]
	if top.StoreCode != "KIOSK-02" || top.AmountCents != 10000 || top.Activations != 2 {
		t.Fatalf("unexpected top store %+v", top)
	}
}

func TestIssuanceSummaryFunnel(t *testing.T) {
	db := setupReportingTestDB(t)
	svc, node := newReportingService(t, db)
	companyID, storeID := seedReportingCompany(t, db, node, "KIOSK-01", "Airport Kiosk")

	seedFunnelCard(t, db, node, storeID, false, false, 0, 3)
	seedFunnelCard(t, db, node, storeID, true, false, 0, 3)
	seedFunnelCard(t, db, node, storeID, true, true, 1, 3)
	seedFunnelCard(t, db, node, storeID, true, true, 3, 3)

	summary, err := svc.IssuanceSummary(context.Background(), domain.Query{CompanyID: companyID.String()})
	if err != nil {
		t.Fatalf("issuance summary: %v", err)
	}

	if summary.Issued != 4 || summary.Activated != 3 || summary.Redeemed != 2 || summary.Exhausted != 1 {
		t.Fatalf("unexpected funnel %+v", summary)
	}
}

func TestReportingQueryValidation(t *testing.T) {
	db := setupReportingTestDB(t)
	svc, _ := newReportingService(t, db)

	_, err := svc.DailyActivations(context.Background(), domain.Query{CompanyID: "not-a-snowflake"})
	if !errors.Is(err, domain.ErrInvalidCompany) {
		t.Fatalf("expected invalid_company, got %v", err)
	}

	_, err = svc.TopStores(context.Background(), domain.Query{
		From: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, domain.ErrInvalidPeriod) {
		t.Fatalf("expected invalid_period, got %v", err)
	}
}

func newReportingService(t *testing.T, db *gorm.DB) (domain.Service, *snowflake.Node) {
	t.Helper()
	node, err := snowflake.NewNode(8)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Service{db: db, log: zap.NewNop()}, node
}

func seedReportingCompany(t *testing.T, db *gorm.DB, node *snowflake.Node, code, name string) (snowflake.ID, snowflake.ID) {
	t.Helper()
	companyID := node.Generate()
	if err := db.Exec(
		`INSERT INTO companies (id, name, tax_id, billing_frequency, commission_rate, active)
		 VALUES (?, 'Acme Distribution', ?, 'MONTHLY', 0.10, true)`,
		companyID, fmt.Sprintf("TAX-%d", companyID),
	).Error; err != nil {
		t.Fatalf("insert company: %v", err)
	}
	storeID := node.Generate()
	if err := db.Exec(
		`INSERT INTO stores (id, company_id, code, name, active) VALUES (?, ?, ?, ?, true)`,
		storeID, companyID, code, name,
	).Error; err != nil {
		t.Fatalf("insert store: %v", err)
	}
	return companyID, storeID
}

func seedActivation(t *testing.T, db *gorm.DB, node *snowflake.Node, storeID snowflake.ID, amount, commission int64, at time.Time) {
	t.Helper()
	if err := db.Exec(
		`INSERT INTO card_activations (id, card_id, store_id, activated_by, amount_cents,
		                               gross_profit_cents, commission_cents, billing_status, activated_at)
		 VALUES (?, ?, ?, '+15550101', ?, ?, ?, 'PENDING', ?)`,
		node.Generate(), node.Generate(), storeID, amount, amount-commission, commission, at,
	).Error; err != nil {
		t.Fatalf("insert activation: %v", err)
	}
}

func seedFunnelCard(t *testing.T, db *gorm.DB, node *snowflake.Node, storeID snowflake.ID, activated, redeemed bool, scans, maxScans int) {
	t.Helper()
	id := node.Generate()
	if err := db.Exec(
		`INSERT INTO cards (id, uid, short_code, qr_payload, product_id, currency, store_id,
		                    is_activated, is_redeemed, scan_count, max_scans)
		 VALUES (?, ?, ?, '{}', ?, 'USD', ?, ?, ?, ?, ?)`,
		id, fmt.Sprintf("uid-%d", id), fmt.Sprintf("RC%06d", id%1000000),
		node.Generate(), storeID, activated, redeemed, scans, maxScans,
	).Error; err != nil {
		t.Fatalf("insert card: %v", err)
	}
}

func setupReportingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:reporting_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			tax_id TEXT NOT NULL UNIQUE,
			billing_frequency TEXT NOT NULL DEFAULT 'MONTHLY',
			commission_rate REAL NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS stores (
			id INTEGER PRIMARY KEY,
			company_id BIGINT NOT NULL,
			code TEXT NOT NULL,
			name TEXT NOT NULL,
			phone TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS cards (
			id INTEGER PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			short_code TEXT NOT NULL UNIQUE,
			qr_payload TEXT NOT NULL,
			product_id BIGINT NOT NULL,
			denomination_id BIGINT,
			amount_cents BIGINT,
			currency TEXT NOT NULL DEFAULT 'USD',
			store_id BIGINT NOT NULL,
			batch_id BIGINT,
			is_activated BOOLEAN NOT NULL DEFAULT FALSE,
			activated_at TIMESTAMP,
			is_redeemed BOOLEAN NOT NULL DEFAULT FALSE,
			redeemed_at TIMESTAMP,
			scan_count INTEGER NOT NULL DEFAULT 0,
			max_scans INTEGER NOT NULL DEFAULT 3,
			pin TEXT,
			transaction_id TEXT,
			key_id BIGINT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS card_activations (
			id INTEGER PRIMARY KEY,
			card_id BIGINT NOT NULL UNIQUE,
			store_id BIGINT NOT NULL,
			activated_by TEXT NOT NULL,
			amount_cents BIGINT NOT NULL DEFAULT 0,
			gross_profit_cents BIGINT NOT NULL DEFAULT 0,
			commission_cents BIGINT NOT NULL DEFAULT 0,
			billing_status TEXT NOT NULL DEFAULT 'PENDING',
			invoice_id BIGINT,
			activated_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
