package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	storedomain "github.com/smallbiznis/giftway/internal/store/domain"
	"github.com/smallbiznis/giftway/pkg/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCreateStoreRejectsInactiveCompany(t *testing.T) {
	db := setupStoreTestDB(t)
	svc, node := newStoreService(t, db)
	companyID := seedCompany(t, db, node, false)

	_, err := svc.Create(context.Background(), storedomain.CreateRequest{
		CompanyID: companyID,
		Code:      "KIOSK-01",
		Name:      "Mall Kiosk",
	})
	if !errors.Is(err, storedomain.ErrCompanyInactive) {
		t.Fatalf("expected company_inactive, got %v", err)
	}
}

func TestCreateStoreDuplicateCode(t *testing.T) {
	db := setupStoreTestDB(t)
	svc, node := newStoreService(t, db)
	companyID := seedCompany(t, db, node, true)

	if _, err := svc.Create(context.Background(), storedomain.CreateRequest{
		CompanyID: companyID,
		Code:      "KIOSK-01",
		Name:      "Mall Kiosk",
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(context.Background(), storedomain.CreateRequest{
		CompanyID: companyID,
		Code:      "KIOSK-01",
		Name:      "Other Kiosk",
	})
	if !errors.Is(err, storedomain.ErrCodeTaken) {
		t.Fatalf("expected store_code_taken, got %v", err)
	}
}

func TestAuthorizePhoneLifecycle(t *testing.T) {
	db := setupStoreTestDB(t)
	svc, node := newStoreService(t, db)
	companyID := seedCompany(t, db, node, true)

	store, err := svc.Create(context.Background(), storedomain.CreateRequest{
		CompanyID: companyID,
		Code:      "KIOSK-01",
		Name:      "Mall Kiosk",
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	storeID := store.ID.String()

	if _, err := svc.AuthorizePhone(context.Background(), storeID, "+15550101"); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if _, err := svc.AuthorizePhone(context.Background(), storeID, "+15550101"); !errors.Is(err, storedomain.ErrPhoneDuplicate) {
		t.Fatalf("expected phone_already_authorized, got %v", err)
	}

	phones, err := svc.ListAuthorizedPhones(context.Background(), storeID)
	if err != nil {
		t.Fatalf("list phones: %v", err)
	}
	if len(phones) != 1 || phones[0].Phone != "+15550101" {
		t.Fatalf("unexpected phones %+v", phones)
	}

	if err := svc.RevokePhone(context.Background(), storeID, "+15550101"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := svc.RevokePhone(context.Background(), storeID, "+15550101"); !errors.Is(err, storedomain.ErrPhoneNotFound) {
		t.Fatalf("expected authorized_phone_not_found on repeat revoke, got %v", err)
	}

	phones, err = svc.ListAuthorizedPhones(context.Background(), storeID)
	if err != nil {
		t.Fatalf("list after revoke: %v", err)
	}
	if len(phones) != 0 {
		t.Fatalf("revoked phone must not be listed, got %+v", phones)
	}

	// Re-authorizing reactivates the existing row instead of duplicating it.
	if _, err := svc.AuthorizePhone(context.Background(), storeID, "+15550101"); err != nil {
		t.Fatalf("re-authorize: %v", err)
	}
	var rows int64
	if err := db.Raw(
		`SELECT COUNT(1) FROM authorized_phones WHERE store_id = ?`, store.ID,
	).Scan(&rows).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected a single phone row, got %d", rows)
	}
}

func TestUpdateStoreDeactivates(t *testing.T) {
	db := setupStoreTestDB(t)
	svc, node := newStoreService(t, db)
	companyID := seedCompany(t, db, node, true)

	store, err := svc.Create(context.Background(), storedomain.CreateRequest{
		CompanyID: companyID,
		Code:      "KIOSK-01",
		Name:      "Mall Kiosk",
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	inactive := false
	updated, err := svc.Update(context.Background(), storedomain.UpdateRequest{
		ID:     store.ID.String(),
		Active: &inactive,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Active {
		t.Fatal("expected store to be deactivated")
	}

	active := true
	stores, err := svc.List(context.Background(), storedomain.ListRequest{
		CompanyID: companyID,
		Active:    &active,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stores) != 0 {
		t.Fatalf("deactivated store must not be listed as active, got %+v", stores)
	}
}

func newStoreService(t *testing.T, db *gorm.DB) (storedomain.Service, *snowflake.Node) {
	t.Helper()
	node, err := snowflake.NewNode(6)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	svc := &Service{
		db:        db,
		log:       zap.NewNop(),
		genID:     node,
		storeRepo: repository.ProvideStore[storedomain.Store](db),
		phoneRepo: repository.ProvideStore[storedomain.AuthorizedPhone](db),
	}
	return svc, node
}

func seedCompany(t *testing.T, db *gorm.DB, node *snowflake.Node, active bool) snowflake.ID {
	t.Helper()
	id := node.Generate()
	if err := db.Exec(
		`INSERT INTO companies (id, name, tax_id, billing_frequency, commission_rate, active)
		 VALUES (?, 'Acme Distribution', ?, 'MONTHLY', 0.10, ?)`,
		id, fmt.Sprintf("TAX-%d", id), active,
	).Error; err != nil {
		t.Fatalf("insert company: %v", err)
	}
	return id
}

func setupStoreTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:store_%s?mode=memory&cache=shared", t.Name())
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
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			phone TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS authorized_phones (
			id INTEGER PRIMARY KEY,
			store_id BIGINT NOT NULL,
			phone TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (store_id, phone)
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}
