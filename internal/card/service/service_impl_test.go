package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	carddomain "github.com/smallbiznis/giftway/internal/card/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestIssueBatchWithDenomination(t *testing.T) {
	db := setupCardTestDB(t)
	svc, node := newCardService(t, db)
	storeID, productID, denomID := seedCatalog(t, db, node)

	resp, err := svc.Issue(context.Background(), carddomain.IssueRequest{
		StoreID:        storeID.String(),
		ProductID:      productID.String(),
		DenominationID: denomID.String(),
		Quantity:       5,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if resp.Issued != 5 || resp.Failed != 0 || len(resp.Cards) != 5 {
		t.Fatalf("expected 5 issued cards, got %+v", resp)
	}

	seen := make(map[string]struct{})
	for _, card := range resp.Cards {
		if len(card.ShortCode) != carddomain.ShortCodeLength {
			t.Fatalf("short code %q must be %d chars", card.ShortCode, carddomain.ShortCodeLength)
		}
		if _, dup := seen[card.UID]; dup {
			t.Fatalf("duplicate uid %q", card.UID)
		}
		seen[card.UID] = struct{}{}

		var payload carddomain.QRPayload
		if err := json.Unmarshal([]byte(card.QRPayload), &payload); err != nil {
			t.Fatalf("qr payload must be json: %v", err)
		}
		if payload.UID != card.UID || payload.StoreCode != "KIOSK-03" || payload.AmountCents != 2500 {
			t.Fatalf("unexpected qr payload %+v", payload)
		}
	}

	var quantity int
	if err := db.Raw(`SELECT quantity FROM card_batches WHERE id = ?`, resp.BatchID).Scan(&quantity).Error; err != nil {
		t.Fatalf("read batch: %v", err)
	}
	if quantity != 5 {
		t.Fatalf("expected batch quantity 5, got %d", quantity)
	}
}

func TestIssueCustomAmount(t *testing.T) {
	db := setupCardTestDB(t)
	svc, node := newCardService(t, db)
	storeID, _, _ := seedCatalog(t, db, node)

	productID := node.Generate()
	if err := db.Exec(
		`INSERT INTO products (id, sku, name, kind, allow_custom_amount, active)
		 VALUES (?, 'GC-VAR', 'Open Value', 'gift_card', true, true)`,
		productID,
	).Error; err != nil {
		t.Fatalf("insert product: %v", err)
	}

	resp, err := svc.Issue(context.Background(), carddomain.IssueRequest{
		StoreID:           storeID.String(),
		ProductID:         productID.String(),
		CustomAmountCents: 12345,
		Quantity:          1,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var amount int64
	if err := db.Raw(
		`SELECT amount_cents FROM cards WHERE uid = ?`, resp.Cards[0].UID,
	).Scan(&amount).Error; err != nil {
		t.Fatalf("read card: %v", err)
	}
	if amount != 12345 {
		t.Fatalf("expected custom amount on card, got %d", amount)
	}
}

func TestIssueValidation(t *testing.T) {
	db := setupCardTestDB(t)
	svc, node := newCardService(t, db)
	storeID, productID, denomID := seedCatalog(t, db, node)

	_, err := svc.Issue(context.Background(), carddomain.IssueRequest{
		StoreID:        storeID.String(),
		ProductID:      productID.String(),
		DenominationID: denomID.String(),
		Quantity:       0,
	})
	if !errors.Is(err, carddomain.ErrInvalidQuantity) {
		t.Fatalf("expected invalid_quantity, got %v", err)
	}

	_, err = svc.Issue(context.Background(), carddomain.IssueRequest{
		StoreID:        node.Generate().String(),
		ProductID:      productID.String(),
		DenominationID: denomID.String(),
		Quantity:       1,
	})
	if !errors.Is(err, carddomain.ErrStoreNotFound) {
		t.Fatalf("expected store_not_found, got %v", err)
	}

	// Fixed-denomination product refuses a custom amount.
	_, err = svc.Issue(context.Background(), carddomain.IssueRequest{
		StoreID:           storeID.String(),
		ProductID:         productID.String(),
		CustomAmountCents: 999,
		Quantity:          1,
	})
	if !errors.Is(err, carddomain.ErrMissingDenomination) {
		t.Fatalf("expected missing_denomination, got %v", err)
	}
}

func TestGetByUIDOrShortCode(t *testing.T) {
	db := setupCardTestDB(t)
	svc, node := newCardService(t, db)
	storeID, productID, denomID := seedCatalog(t, db, node)

	resp, err := svc.Issue(context.Background(), carddomain.IssueRequest{
		StoreID:        storeID.String(),
		ProductID:      productID.String(),
		DenominationID: denomID.String(),
		Quantity:       1,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	issued := resp.Cards[0]

	byUID, err := svc.GetByUID(context.Background(), issued.UID)
	if err != nil {
		t.Fatalf("get by uid: %v", err)
	}
	byCode, err := svc.GetByUID(context.Background(), issued.ShortCode)
	if err != nil {
		t.Fatalf("get by short code: %v", err)
	}
	if byUID.ID != byCode.ID {
		t.Fatalf("uid and short code must resolve the same card")
	}

	if _, err := svc.GetByUID(context.Background(), "missing"); !errors.Is(err, carddomain.ErrNotFound) {
		t.Fatalf("expected card_not_found, got %v", err)
	}
}

func TestDeleteRefusesActivatedCard(t *testing.T) {
	db := setupCardTestDB(t)
	svc, node := newCardService(t, db)
	storeID, productID, denomID := seedCatalog(t, db, node)

	resp, err := svc.Issue(context.Background(), carddomain.IssueRequest{
		StoreID:        storeID.String(),
		ProductID:      productID.String(),
		DenominationID: denomID.String(),
		Quantity:       2,
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := db.Exec(
		`UPDATE cards SET is_activated = true WHERE uid = ?`, resp.Cards[0].UID,
	).Error; err != nil {
		t.Fatalf("activate card: %v", err)
	}

	if err := svc.Delete(context.Background(), resp.Cards[0].ID); !errors.Is(err, carddomain.ErrCardActivated) {
		t.Fatalf("expected card_already_activated, got %v", err)
	}
	if err := svc.Delete(context.Background(), resp.Cards[1].ID); err != nil {
		t.Fatalf("delete unactivated card: %v", err)
	}
	if err := svc.Delete(context.Background(), resp.Cards[1].ID); !errors.Is(err, carddomain.ErrNotFound) {
		t.Fatalf("expected card_not_found on repeat delete, got %v", err)
	}
}

func TestListByBatch(t *testing.T) {
	db := setupCardTestDB(t)
	svc, node := newCardService(t, db)
	storeID, productID, denomID := seedCatalog(t, db, node)

	first, err := svc.Issue(context.Background(), carddomain.IssueRequest{
		StoreID:        storeID.String(),
		ProductID:      productID.String(),
		DenominationID: denomID.String(),
		Quantity:       3,
	})
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if _, err := svc.Issue(context.Background(), carddomain.IssueRequest{
		StoreID:        storeID.String(),
		ProductID:      productID.String(),
		DenominationID: denomID.String(),
		Quantity:       2,
	}); err != nil {
		t.Fatalf("second issue: %v", err)
	}

	cards, err := svc.List(context.Background(), carddomain.ListRequest{BatchID: first.BatchID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards in first batch, got %d", len(cards))
	}
}

func newCardService(t *testing.T, db *gorm.DB) (carddomain.Service, *snowflake.Node) {
	t.Helper()
	node, err := snowflake.NewNode(5)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Service{db: db, log: zap.NewNop(), genID: node}, node
}

func seedCatalog(t *testing.T, db *gorm.DB, node *snowflake.Node) (storeID, productID, denomID snowflake.ID) {
	t.Helper()

	companyID := node.Generate()
	if err := db.Exec(
		`INSERT INTO companies (id, name, tax_id, billing_frequency, commission_rate, active)
		 VALUES (?, 'Acme Distribution', ?, 'MONTHLY', 0.10, true)`,
		companyID, fmt.Sprintf("TAX-%d", companyID),
	).Error; err != nil {
		t.Fatalf("insert company: %v", err)
	}

	storeID = node.Generate()
	if err := db.Exec(
		`INSERT INTO stores (id, company_id, code, name, phone, active)
		 VALUES (?, ?, 'KIOSK-03', 'Airport Kiosk', '+15550100', true)`,
		storeID, companyID,
	).Error; err != nil {
		t.Fatalf("insert store: %v", err)
	}

	productID = node.Generate()
	if err := db.Exec(
		`INSERT INTO products (id, sku, name, kind, allow_custom_amount, active)
		 VALUES (?, 'GC-25', 'Game Credit', 'gift_card', false, true)`,
		productID,
	).Error; err != nil {
		t.Fatalf("insert product: %v", err)
	}

	denomID = node.Generate()
	if err := db.Exec(
		`INSERT INTO product_denominations (id, product_id, amount_cents, currency)
		 VALUES (?, ?, 2500, 'USD')`,
		denomID, productID,
	).Error; err != nil {
		t.Fatalf("insert denomination: %v", err)
	}
	return storeID, productID, denomID
}

func setupCardTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:card_%s?mode=memory&cache=shared", t.Name())
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
		`CREATE TABLE IF NOT EXISTS product_denominations (
			id INTEGER PRIMARY KEY,
			product_id BIGINT NOT NULL,
			amount_cents BIGINT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS card_batches (
			id INTEGER PRIMARY KEY,
			store_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			quantity INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
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
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
