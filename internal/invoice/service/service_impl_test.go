package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/giftway/internal/clock"
	"github.com/smallbiznis/giftway/internal/events"
	"github.com/smallbiznis/giftway/internal/invoice/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestGenerateInvoiceTotalsReconcile(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newInvoiceService(t, db)
	fix := seedBilling(t, db, node)
	ids := seedActivations(t, db, node, fix, 3, 2500, 250)

	invoice, err := svc.GenerateInvoice(context.Background(), domain.GenerateRequest{
		CompanyID:     fix.companyID.String(),
		PeriodStart:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		ActivationIDs: idStrings(ids),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if invoice.TotalSalesCents != 7500 {
		t.Fatalf("expected total sales 7500, got %d", invoice.TotalSalesCents)
	}
	if invoice.CommissionCents != 750 {
		t.Fatalf("expected commission 750, got %d", invoice.CommissionCents)
	}
	if invoice.TotalCents != invoice.TotalSalesCents-invoice.CommissionCents {
		t.Fatalf("total must equal sales minus commission, got %d", invoice.TotalCents)
	}
	if !strings.HasPrefix(invoice.Number, "INV-2026-") {
		t.Fatalf("unexpected invoice number %q", invoice.Number)
	}

	// Items reconcile to total sales.
	var itemTotal int64
	if err := db.Raw(
		`SELECT COALESCE(SUM(total_price_cents), 0) FROM invoice_items WHERE invoice_id = ?`,
		invoice.ID,
	).Scan(&itemTotal).Error; err != nil {
		t.Fatalf("sum items: %v", err)
	}
	if itemTotal != invoice.TotalSalesCents {
		t.Fatalf("item totals %d do not reconcile to sales %d", itemTotal, invoice.TotalSalesCents)
	}

	var invoiced int64
	if err := db.Raw(
		`SELECT COUNT(1) FROM card_activations WHERE invoice_id = ? AND billing_status = 'INVOICED'`,
		invoice.ID,
	).Scan(&invoiced).Error; err != nil {
		t.Fatalf("count invoiced: %v", err)
	}
	if invoiced != 3 {
		t.Fatalf("expected 3 claimed activations, got %d", invoiced)
	}
}

func TestGenerateInvoiceConcurrentCallsClaimOnce(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newInvoiceService(t, db)
	fix := seedBilling(t, db, node)
	ids := seedActivations(t, db, node, fix, 2, 2500, 250)

	// One connection keeps sqlite from reporting table locks; the claim
	// update still decides the race.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	req := domain.GenerateRequest{
		CompanyID:     fix.companyID.String(),
		PeriodStart:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		ActivationIDs: idStrings(ids),
	}

	var wg sync.WaitGroup
	invoices := make([]*domain.Invoice, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			invoices[i], errs[i] = svc.GenerateInvoice(context.Background(), req)
		}(i)
	}
	wg.Wait()

	var won, lost int
	var billed int64
	for i := range errs {
		switch {
		case errs[i] == nil:
			won++
			billed += invoices[i].TotalSalesCents
		case errors.Is(errs[i], domain.ErrNoPendingActivation):
			lost++
		default:
			t.Fatalf("generate %d failed: %v", i, errs[i])
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner, got %d winners and %d losers", won, lost)
	}
	if billed != 5000 {
		t.Fatalf("expected the winner to bill 5000, got %d", billed)
	}

	var invoiced int64
	if err := db.Raw(
		`SELECT COUNT(1) FROM card_activations WHERE billing_status = 'INVOICED' AND invoice_id IS NOT NULL`,
	).Scan(&invoiced).Error; err != nil {
		t.Fatalf("count invoiced: %v", err)
	}
	if invoiced != 2 {
		t.Fatalf("expected both activations claimed exactly once, got %d", invoiced)
	}
}

func TestGenerateInvoiceDropsStaleSelections(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newInvoiceService(t, db)
	fix := seedBilling(t, db, node)
	ids := seedActivations(t, db, node, fix, 2, 2500, 250)

	first, err := svc.GenerateInvoice(context.Background(), domain.GenerateRequest{
		CompanyID:     fix.companyID.String(),
		PeriodStart:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		ActivationIDs: []string{ids[0].String()},
	})
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}

	// Second request names both activations; the already-claimed one is
	// silently dropped.
	second, err := svc.GenerateInvoice(context.Background(), domain.GenerateRequest{
		CompanyID:     fix.companyID.String(),
		PeriodStart:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		ActivationIDs: idStrings(ids),
	})
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if second.TotalSalesCents != 2500 {
		t.Fatalf("expected second invoice to bill only the leftover, got %d", second.TotalSalesCents)
	}
	if first.Number == second.Number {
		t.Fatalf("invoice numbers must be unique, both %q", first.Number)
	}

	// A third request with fully claimed activations has nothing left.
	_, err = svc.GenerateInvoice(context.Background(), domain.GenerateRequest{
		CompanyID:     fix.companyID.String(),
		PeriodStart:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		ActivationIDs: idStrings(ids),
	})
	if !errors.Is(err, domain.ErrNoPendingActivation) {
		t.Fatalf("expected no_pending_activations, got %v", err)
	}

	var orphans int64
	if err := db.Raw(`SELECT COUNT(1) FROM invoices`).Scan(&orphans).Error; err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if orphans != 2 {
		t.Fatalf("failed generation must not leave an invoice shell, have %d invoices", orphans)
	}
}

func TestMarkAsPaidCascades(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newInvoiceService(t, db)
	fix := seedBilling(t, db, node)
	ids := seedActivations(t, db, node, fix, 2, 2500, 250)

	invoice := mustGenerate(t, svc, fix, ids)

	paidAt := time.Date(2026, 9, 3, 12, 0, 0, 0, time.UTC)
	paid, err := svc.MarkAsPaid(context.Background(), invoice.ID.String(), paidAt)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != domain.StatusPaid || paid.PaidAt == nil {
		t.Fatalf("expected PAID with paid_at, got %q %v", paid.Status, paid.PaidAt)
	}

	var pending int64
	if err := db.Raw(
		`SELECT COUNT(1) FROM card_activations WHERE invoice_id = ? AND billing_status != 'PAID'`,
		invoice.ID,
	).Scan(&pending).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if pending != 0 {
		t.Fatalf("expected all activations cascaded to PAID, %d left behind", pending)
	}

	// Paying again is rejected.
	_, err = svc.MarkAsPaid(context.Background(), invoice.ID.String(), paidAt)
	if !errors.Is(err, domain.ErrNotPending) {
		t.Fatalf("expected invoice_not_pending on double pay, got %v", err)
	}
}

func TestCancelInvoiceRevertsActivations(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newInvoiceService(t, db)
	fix := seedBilling(t, db, node)
	ids := seedActivations(t, db, node, fix, 2, 2500, 250)

	invoice := mustGenerate(t, svc, fix, ids)

	cancelled, err := svc.CancelInvoice(context.Background(), invoice.ID.String(), "duplicate billing")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Fatalf("expected CANCELLED, got %q", cancelled.Status)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != "duplicate billing" {
		t.Fatalf("expected cancel reason recorded, got %v", cancelled.CancelReason)
	}

	var released int64
	if err := db.Raw(
		`SELECT COUNT(1) FROM card_activations
		 WHERE billing_status = 'PENDING' AND invoice_id IS NULL AND id IN ?`,
		ids,
	).Scan(&released).Error; err != nil {
		t.Fatalf("count released: %v", err)
	}
	if released != int64(len(ids)) {
		t.Fatalf("expected %d released activations, got %d", len(ids), released)
	}

	// Released activations can be billed on a fresh invoice.
	regenerated := mustGenerate(t, svc, fix, ids)
	if regenerated.TotalSalesCents != 5000 {
		t.Fatalf("expected regenerated invoice over both activations, got %d", regenerated.TotalSalesCents)
	}

	// Cancelling twice is rejected.
	_, err = svc.CancelInvoice(context.Background(), invoice.ID.String(), "again")
	if !errors.Is(err, domain.ErrAlreadyCancelled) {
		t.Fatalf("expected invoice_already_cancelled, got %v", err)
	}
}

func TestCancelPaidInvoice(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newInvoiceService(t, db)
	fix := seedBilling(t, db, node)
	ids := seedActivations(t, db, node, fix, 1, 2500, 250)

	invoice := mustGenerate(t, svc, fix, ids)
	if _, err := svc.MarkAsPaid(context.Background(), invoice.ID.String(), time.Now().UTC()); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	cancelled, err := svc.CancelInvoice(context.Background(), invoice.ID.String(), "chargeback")
	if err != nil {
		t.Fatalf("cancel paid invoice: %v", err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Fatalf("expected CANCELLED, got %q", cancelled.Status)
	}
}

func TestCreateInvoiceManual(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newInvoiceService(t, db)
	fix := seedBilling(t, db, node)

	invoice, err := svc.CreateInvoice(context.Background(), domain.CreateRequest{
		CompanyID:   fix.companyID.String(),
		PeriodStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Items: []domain.ManualItem{
			{Description: "Game Credit USD 25.00 batch", Quantity: 4, UnitPriceCents: 2500},
			{Description: "Setup fee", Quantity: 1, UnitPriceCents: 1000},
		},
		CommissionRate: 0.10,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !invoice.Manual {
		t.Fatal("expected manual invoice")
	}
	if invoice.TotalSalesCents != 11000 {
		t.Fatalf("expected total sales 11000, got %d", invoice.TotalSalesCents)
	}
	if invoice.CommissionCents != 1100 || invoice.TotalCents != 9900 {
		t.Fatalf("unexpected split: commission=%d total=%d", invoice.CommissionCents, invoice.TotalCents)
	}

	var touched int64
	if err := db.Raw(
		`SELECT COUNT(1) FROM card_activations WHERE invoice_id IS NOT NULL`,
	).Scan(&touched).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if touched != 0 {
		t.Fatal("manual invoices must not touch the activation ledger")
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newInvoiceService(t, db)
	fix := seedBilling(t, db, node)

	_, err := svc.CreateInvoice(context.Background(), domain.CreateRequest{
		CompanyID:   fix.companyID.String(),
		PeriodStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, domain.ErrMissingItems) {
		t.Fatalf("expected missing_items, got %v", err)
	}

	_, err = svc.CreateInvoice(context.Background(), domain.CreateRequest{
		CompanyID:      fix.companyID.String(),
		PeriodStart:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Items:          []domain.ManualItem{{Description: "x", Quantity: 1, UnitPriceCents: 100}},
		CommissionRate: 1.5,
	})
	if !errors.Is(err, domain.ErrInvalidRate) {
		t.Fatalf("expected invalid_commission_rate, got %v", err)
	}
}

func TestInvoiceNumberSequence(t *testing.T) {
	db := setupInvoiceTestDB(t)
	svc, node := newInvoiceService(t, db)
	fix := seedBilling(t, db, node)

	year := time.Now().UTC().Year()
	for i := 1; i <= 3; i++ {
		invoice, err := svc.CreateInvoice(context.Background(), domain.CreateRequest{
			CompanyID:      fix.companyID.String(),
			PeriodStart:    time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			Items:          []domain.ManualItem{{Description: "fee", Quantity: 1, UnitPriceCents: 100}},
			CommissionRate: 0,
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		expected := fmt.Sprintf("INV-%d-%04d", year, i)
		if invoice.Number != expected {
			t.Fatalf("expected number %q, got %q", expected, invoice.Number)
		}
	}
}

type billingFixture struct {
	companyID snowflake.ID
	storeID   snowflake.ID
	productID snowflake.ID
}

func newInvoiceService(t *testing.T, db *gorm.DB) (domain.Service, *snowflake.Node) {
	t.Helper()
	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	svc := &Service{
		db:     db,
		log:    zap.NewNop(),
		genID:  node,
		clock:  clock.SystemClock{},
		outbox: events.NewOutbox(db, node),
	}
	return svc, node
}

func mustGenerate(t *testing.T, svc domain.Service, fix billingFixture, ids []snowflake.ID) *domain.Invoice {
	t.Helper()
	invoice, err := svc.GenerateInvoice(context.Background(), domain.GenerateRequest{
		CompanyID:     fix.companyID.String(),
		PeriodStart:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		ActivationIDs: idStrings(ids),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return invoice
}

func idStrings(ids []snowflake.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func seedBilling(t *testing.T, db *gorm.DB, node *snowflake.Node) billingFixture {
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
		`INSERT INTO stores (id, company_id, code, name, phone, active)
		 VALUES (?, ?, 'KIOSK-03', 'Airport Kiosk', '+15550100', true)`,
		storeID, companyID,
	).Error; err != nil {
		t.Fatalf("insert store: %v", err)
	}

	productID := node.Generate()
	if err := db.Exec(
		`INSERT INTO products (id, sku, name, kind, allow_custom_amount, active)
		 VALUES (?, 'GC-25', 'Game Credit', 'gift_card', false, true)`,
		productID,
	).Error; err != nil {
		t.Fatalf("insert product: %v", err)
	}

	return billingFixture{companyID: companyID, storeID: storeID, productID: productID}
}

func seedActivations(t *testing.T, db *gorm.DB, node *snowflake.Node, fix billingFixture, n int, amount, commission int64) []snowflake.ID {
	t.Helper()

	ids := make([]snowflake.ID, 0, n)
	for i := 0; i < n; i++ {
		cardID := node.Generate()
		if err := db.Exec(
			`INSERT INTO cards (id, uid, short_code, qr_payload, product_id, currency, store_id,
			                    is_activated, is_redeemed, scan_count, max_scans)
			 VALUES (?, ?, ?, '{}', ?, 'USD', ?, true, false, 0, 3)`,
			cardID, fmt.Sprintf("uid-%d", cardID), fmt.Sprintf("IV%06d", cardID%1000000),
			fix.productID, fix.storeID,
		).Error; err != nil {
			t.Fatalf("insert card: %v", err)
		}

		activationID := node.Generate()
		if err := db.Exec(
			`INSERT INTO card_activations (id, card_id, store_id, activated_by, amount_cents,
			                               gross_profit_cents, commission_cents, billing_status, activated_at)
			 VALUES (?, ?, ?, '+15550101', ?, ?, ?, 'PENDING', CURRENT_TIMESTAMP)`,
			activationID, cardID, fix.storeID, amount, amount-commission, commission,
		).Error; err != nil {
			t.Fatalf("insert activation: %v", err)
		}
		ids = append(ids, activationID)
	}
	return ids
}

func setupInvoiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:invoice_%s?mode=memory&cache=shared", t.Name())
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
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY,
			sku TEXT NOT NULL,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			allow_custom_amount BOOLEAN NOT NULL DEFAULT FALSE,
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
		`CREATE TABLE IF NOT EXISTS invoices (
			id INTEGER PRIMARY KEY,
			number TEXT NOT NULL UNIQUE,
			company_id BIGINT NOT NULL,
			period_start TIMESTAMP NOT NULL,
			period_end TIMESTAMP NOT NULL,
			total_sales_cents BIGINT NOT NULL DEFAULT 0,
			commission_rate REAL NOT NULL DEFAULT 0,
			commission_cents BIGINT NOT NULL DEFAULT 0,
			total_cents BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'USD',
			status TEXT NOT NULL DEFAULT 'PENDING',
			manual BOOLEAN NOT NULL DEFAULT FALSE,
			exchange_rate REAL,
			paid_at TIMESTAMP,
			cancel_reason TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS invoice_items (
			id INTEGER PRIMARY KEY,
			invoice_id BIGINT NOT NULL,
			description TEXT NOT NULL,
			quantity BIGINT NOT NULL,
			unit_price_cents BIGINT NOT NULL,
			total_price_cents BIGINT NOT NULL,
			store_id BIGINT,
			card_id BIGINT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS giftcard_events (
			id INTEGER PRIMARY KEY,
			company_id BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			dedupe_key TEXT,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_giftcard_events_dedupe
		 ON giftcard_events (company_id, dedupe_key)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
