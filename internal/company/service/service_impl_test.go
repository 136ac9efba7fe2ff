package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/smallbiznis/giftway/internal/company/domain"
	"github.com/smallbiznis/giftway/pkg/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCreateCompanyDefaultsAndDuplicates(t *testing.T) {
	db := setupCompanyTestDB(t)
	svc := newCompanyService(t, db)

	company, err := svc.Create(context.Background(), companydomain.CreateRequest{
		Name:           " Acme Distribution ",
		TaxID:          "TAX-001",
		CommissionRate: 0.10,
	})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	if company.Name != "Acme Distribution" {
		t.Fatalf("name not trimmed: %q", company.Name)
	}
	if company.BillingFrequency != companydomain.BillingFrequencyMonthly {
		t.Fatalf("expected MONTHLY default, got %q", company.BillingFrequency)
	}
	if !company.Active {
		t.Fatal("new company must start active")
	}

	_, err = svc.Create(context.Background(), companydomain.CreateRequest{
		Name:  "Other",
		TaxID: "TAX-001",
	})
	if !errors.Is(err, companydomain.ErrTaxIDTaken) {
		t.Fatalf("expected tax_id_taken, got %v", err)
	}
}

func TestCreateCompanyValidation(t *testing.T) {
	db := setupCompanyTestDB(t)
	svc := newCompanyService(t, db)

	cases := []struct {
		req  companydomain.CreateRequest
		want error
	}{
		{companydomain.CreateRequest{Name: " ", TaxID: "TAX-1"}, companydomain.ErrInvalidName},
		{companydomain.CreateRequest{Name: "Acme", TaxID: ""}, companydomain.ErrInvalidTaxID},
		{companydomain.CreateRequest{Name: "Acme", TaxID: "TAX-1", BillingFrequency: "HOURLY"}, companydomain.ErrInvalidFrequency},
		{companydomain.CreateRequest{Name: "Acme", TaxID: "TAX-1", CommissionRate: 1.0}, companydomain.ErrInvalidCommissionRate},
		{companydomain.CreateRequest{Name: "Acme", TaxID: "TAX-1", CommissionRate: -0.1}, companydomain.ErrInvalidCommissionRate},
	}
	for _, tc := range cases {
		if _, err := svc.Create(context.Background(), tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("req %+v: expected %v, got %v", tc.req, tc.want, err)
		}
	}
}

func TestUpdateCompanyFields(t *testing.T) {
	db := setupCompanyTestDB(t)
	svc := newCompanyService(t, db)

	company, err := svc.Create(context.Background(), companydomain.CreateRequest{
		Name:  "Acme",
		TaxID: "TAX-002",
	})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}

	frequency := "weekly"
	rate := 0.15
	inactive := false
	updated, err := svc.Update(context.Background(), companydomain.UpdateRequest{
		ID:               company.ID.String(),
		BillingFrequency: &frequency,
		CommissionRate:   &rate,
		Active:           &inactive,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.BillingFrequency != companydomain.BillingFrequencyWeekly {
		t.Fatalf("frequency not normalized: %q", updated.BillingFrequency)
	}
	if updated.CommissionRate != 0.15 || updated.Active {
		t.Fatalf("unexpected update result %+v", updated)
	}

	bad := "HOURLY"
	if _, err := svc.Update(context.Background(), companydomain.UpdateRequest{
		ID:               company.ID.String(),
		BillingFrequency: &bad,
	}); !errors.Is(err, companydomain.ErrInvalidFrequency) {
		t.Fatalf("expected invalid_billing_frequency, got %v", err)
	}

	active := true
	companies, err := svc.List(context.Background(), companydomain.ListRequest{Active: &active})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(companies) != 0 {
		t.Fatalf("deactivated company still listed as active: %+v", companies)
	}
}

func TestGetCompanyErrors(t *testing.T) {
	db := setupCompanyTestDB(t)
	svc := newCompanyService(t, db)

	if _, err := svc.Get(context.Background(), "abc"); !errors.Is(err, companydomain.ErrInvalidID) {
		t.Fatalf("expected invalid_company_id, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "123456789"); !errors.Is(err, companydomain.ErrNotFound) {
		t.Fatalf("expected company_not_found, got %v", err)
	}
}

func TestBillingFrequencyPeriodEnd(t *testing.T) {
	start := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		frequency companydomain.BillingFrequency
		want      time.Time
	}{
		{companydomain.BillingFrequencyDaily, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{companydomain.BillingFrequencyThreeDays, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)},
		{companydomain.BillingFrequencyWeekly, time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC)},
		{companydomain.BillingFrequencyBiweekly, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)},
		{companydomain.BillingFrequencyMonthly, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := tc.frequency.PeriodEnd(start); !got.Equal(tc.want) {
			t.Fatalf("%s: expected %s, got %s", tc.frequency, tc.want, got)
		}
	}
}

func newCompanyService(t *testing.T, db *gorm.DB) companydomain.Service {
	t.Helper()
	node, err := snowflake.NewNode(10)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Service{
		db:    db,
		log:   zap.NewNop(),
		genID: node,
		repo:  repository.ProvideStore[companydomain.Company](db),
	}
}

func setupCompanyTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:company_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.Exec(
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
	).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}
