package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	activationdomain "github.com/smallbiznis/giftway/internal/activation/domain"
	"github.com/smallbiznis/giftway/internal/clock"
	companydomain "github.com/smallbiznis/giftway/internal/company/domain"
	"github.com/smallbiznis/giftway/internal/events"
	"github.com/smallbiznis/giftway/internal/invoice/domain"
	"github.com/smallbiznis/giftway/internal/observability/metrics"
	storedomain "github.com/smallbiznis/giftway/internal/store/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// numberAttempts bounds retries when two generations race for the same
// sequential invoice number; the unique index arbitrates.
const numberAttempts = 3

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	outbox  *events.Outbox
	metrics *metrics.ScanMetrics
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Outbox  *events.Outbox
	Metrics *metrics.ScanMetrics `optional:"true"`
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("invoice.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		outbox:  p.Outbox,
		metrics: p.Metrics,
	}
}

// GenerateInvoice rolls the named PENDING activations into a new invoice.
// The activations are claimed with a conditional update inside the same
// transaction that writes the invoice, so two concurrent generations can
// never bill the same activation twice. Stale selections (already invoiced,
// wrong company, unknown ids) are dropped silently.
func (s *Service) GenerateInvoice(ctx context.Context, req domain.GenerateRequest) (*domain.Invoice, error) {
	company, err := s.loadCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if !req.PeriodEnd.After(req.PeriodStart) {
		return nil, domain.ErrInvalidPeriod
	}

	activationIDs := make([]snowflake.ID, 0, len(req.ActivationIDs))
	for _, raw := range req.ActivationIDs {
		id, err := snowflake.ParseString(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		activationIDs = append(activationIDs, id)
	}
	if len(activationIDs) == 0 {
		return nil, domain.ErrNoPendingActivation
	}

	now := s.clock.Now()
	var invoice *domain.Invoice
	for attempt := 0; attempt < numberAttempts; attempt++ {
		invoice = nil
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, err := s.nextNumber(tx, now)
			if err != nil {
				return err
			}
			inv := domain.Invoice{
				ID:             s.genID.Generate(),
				Number:         number,
				CompanyID:      company.ID,
				PeriodStart:    req.PeriodStart.UTC(),
				PeriodEnd:      req.PeriodEnd.UTC(),
				CommissionRate: company.CommissionRate,
				Currency:       "USD",
				Status:         domain.StatusPending,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.Create(&inv).Error; err != nil {
				return err
			}

			// Claim: only still-PENDING activations belonging to this
			// company survive the filter.
			result := tx.Exec(
				`UPDATE card_activations
				 SET billing_status = ?, invoice_id = ?, updated_at = ?
				 WHERE id IN ?
				   AND billing_status = ?
				   AND store_id IN (SELECT id FROM stores WHERE company_id = ?)`,
				activationdomain.BillingStatusInvoiced, inv.ID, now,
				activationIDs, activationdomain.BillingStatusPending, company.ID,
			)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domain.ErrNoPendingActivation
			}

			lines, err := s.groupClaimed(tx, inv.ID)
			if err != nil {
				return err
			}

			var totalSales, commission int64
			for _, line := range lines {
				totalSales += line.TotalCents
				commission += line.CommissionCents
				storeID := line.StoreID
				item := domain.InvoiceItem{
					ID:              s.genID.Generate(),
					InvoiceID:       inv.ID,
					Description:     fmt.Sprintf("%s %s - %s", line.ProductName, fmtMoney(line.AmountCents, inv.Currency), line.StoreName),
					Quantity:        line.Quantity,
					UnitPriceCents:  line.AmountCents,
					TotalPriceCents: line.TotalCents,
					StoreID:         &storeID,
					CreatedAt:       now,
				}
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
			}

			inv.TotalSalesCents = totalSales
			inv.CommissionCents = commission
			inv.TotalCents = totalSales - commission
			if err := tx.Exec(
				`UPDATE invoices
				 SET total_sales_cents = ?, commission_cents = ?, total_cents = ?, updated_at = ?
				 WHERE id = ?`,
				totalSales, commission, inv.TotalCents, now, inv.ID,
			).Error; err != nil {
				return err
			}

			if err := s.outbox.PublishTx(ctx, tx, events.Event{
				CompanyID: company.ID,
				Type:      events.EventInvoiceGenerated,
				Payload: events.InvoiceEventPayload{
					InvoiceID: inv.ID.String(),
					Number:    inv.Number,
				}.ToMap(),
				DedupeKey: "invoice:" + inv.Number,
			}); err != nil {
				return err
			}
			invoice = &inv
			return nil
		})
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	if err != nil {
		return nil, domain.ErrNumberExhausted
	}

	s.metrics.RecordInvoiceGenerated(ctx, false)
	s.log.Info("invoice generated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.Int64("total_sales_cents", invoice.TotalSalesCents),
	)
	return invoice, nil
}

// CreateInvoice is the manual path: operator-supplied line items, no
// activation ledger side effects.
func (s *Service) CreateInvoice(ctx context.Context, req domain.CreateRequest) (*domain.Invoice, error) {
	company, err := s.loadCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if !req.PeriodEnd.After(req.PeriodStart) {
		return nil, domain.ErrInvalidPeriod
	}
	if len(req.Items) == 0 {
		return nil, domain.ErrMissingItems
	}
	if req.CommissionRate < 0 || req.CommissionRate >= 1 {
		return nil, domain.ErrInvalidRate
	}

	var totalSales int64
	for _, item := range req.Items {
		if strings.TrimSpace(item.Description) == "" || item.Quantity <= 0 || item.UnitPriceCents < 0 {
			return nil, domain.ErrInvalidItem
		}
		totalSales += item.Quantity * item.UnitPriceCents
	}
	commission := int64(math.Round(float64(totalSales) * req.CommissionRate))

	now := s.clock.Now()
	var invoice *domain.Invoice
	for attempt := 0; attempt < numberAttempts; attempt++ {
		invoice = nil
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, err := s.nextNumber(tx, now)
			if err != nil {
				return err
			}
			inv := domain.Invoice{
				ID:              s.genID.Generate(),
				Number:          number,
				CompanyID:       company.ID,
				PeriodStart:     req.PeriodStart.UTC(),
				PeriodEnd:       req.PeriodEnd.UTC(),
				TotalSalesCents: totalSales,
				CommissionRate:  req.CommissionRate,
				CommissionCents: commission,
				TotalCents:      totalSales - commission,
				Currency:        "USD",
				Status:          domain.StatusPending,
				Manual:          true,
				ExchangeRate:    req.ExchangeRate,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := tx.Create(&inv).Error; err != nil {
				return err
			}
			for _, item := range req.Items {
				row := domain.InvoiceItem{
					ID:              s.genID.Generate(),
					InvoiceID:       inv.ID,
					Description:     strings.TrimSpace(item.Description),
					Quantity:        item.Quantity,
					UnitPriceCents:  item.UnitPriceCents,
					TotalPriceCents: item.Quantity * item.UnitPriceCents,
					CreatedAt:       now,
				}
				if id, err := storedomain.ParseID(item.StoreID); err == nil && item.StoreID != "" {
					row.StoreID = &id
				}
				if id, err := snowflake.ParseString(item.CardID); err == nil && item.CardID != "" {
					row.CardID = &id
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
			if err := s.outbox.PublishTx(ctx, tx, events.Event{
				CompanyID: company.ID,
				Type:      events.EventInvoiceGenerated,
				Payload: events.InvoiceEventPayload{
					InvoiceID: inv.ID.String(),
					Number:    inv.Number,
				}.ToMap(),
				DedupeKey: "invoice:" + inv.Number,
			}); err != nil {
				return err
			}
			invoice = &inv
			return nil
		})
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	if err != nil {
		return nil, domain.ErrNumberExhausted
	}

	s.metrics.RecordInvoiceGenerated(ctx, true)
	return invoice, nil
}

// MarkAsPaid advances a PENDING invoice to PAID and cascades the status to
// every activation billed on it.
func (s *Service) MarkAsPaid(ctx context.Context, id string, paidAt time.Time) (*domain.Invoice, error) {
	invoiceID, err := domain.ParseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	if paidAt.IsZero() {
		paidAt = s.clock.Now()
	}
	now := s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(
			`UPDATE invoices SET status = ?, paid_at = ?, updated_at = ?
			 WHERE id = ? AND status = ?`,
			domain.StatusPaid, paidAt.UTC(), now, invoiceID, domain.StatusPending,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return s.transitionError(tx, invoiceID)
		}
		if err := tx.Exec(
			`UPDATE card_activations SET billing_status = ?, updated_at = ?
			 WHERE invoice_id = ?`,
			activationdomain.BillingStatusPaid, now, invoiceID,
		).Error; err != nil {
			return err
		}
		var inv domain.Invoice
		if err := tx.First(&inv, "id = ?", invoiceID).Error; err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			CompanyID: inv.CompanyID,
			Type:      events.EventInvoicePaid,
			Payload: events.InvoiceEventPayload{
				InvoiceID: inv.ID.String(),
				Number:    inv.Number,
			}.ToMap(),
			DedupeKey: "invoice_paid:" + inv.Number,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, invoiceID)
}

// CancelInvoice voids a PENDING or PAID invoice and releases its activations
// back to PENDING so a future generation can pick them up again.
func (s *Service) CancelInvoice(ctx context.Context, id string, reason string) (*domain.Invoice, error) {
	invoiceID, err := domain.ParseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	now := s.clock.Now()

	var reasonValue *string
	if trimmed := strings.TrimSpace(reason); trimmed != "" {
		reasonValue = &trimmed
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(
			`UPDATE invoices SET status = ?, cancel_reason = ?, updated_at = ?
			 WHERE id = ? AND status IN ?`,
			domain.StatusCancelled, reasonValue, now,
			invoiceID, []string{domain.StatusPending, domain.StatusPaid},
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Raw(`SELECT COUNT(1) FROM invoices WHERE id = ?`, invoiceID).Scan(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.ErrNotFound
			}
			return domain.ErrAlreadyCancelled
		}
		if err := tx.Exec(
			`UPDATE card_activations SET billing_status = ?, invoice_id = NULL, updated_at = ?
			 WHERE invoice_id = ?`,
			activationdomain.BillingStatusPending, now, invoiceID,
		).Error; err != nil {
			return err
		}
		var inv domain.Invoice
		if err := tx.First(&inv, "id = ?", invoiceID).Error; err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			CompanyID: inv.CompanyID,
			Type:      events.EventInvoiceCancelled,
			Payload: events.InvoiceEventPayload{
				InvoiceID: inv.ID.String(),
				Number:    inv.Number,
			}.ToMap(),
			DedupeKey: "invoice_cancelled:" + inv.Number,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.get(ctx, invoiceID)
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Invoice, []domain.InvoiceItem, error) {
	invoiceID, err := domain.ParseID(id)
	if err != nil {
		return nil, nil, domain.ErrInvalidID
	}
	invoice, err := s.get(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	var items []domain.InvoiceItem
	if err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return invoice, items, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Invoice, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if strings.TrimSpace(req.CompanyID) != "" {
		companyID, err := companydomain.ParseID(req.CompanyID)
		if err != nil {
			return nil, domain.ErrCompanyNotFound
		}
		query = query.Where("company_id = ?", companyID)
	}
	if strings.TrimSpace(req.Status) != "" {
		query = query.Where("status = ?", strings.ToUpper(strings.TrimSpace(req.Status)))
	}
	var invoices []domain.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// nextNumber allocates the next sequential number within the invoice year.
// The count is advisory; the unique index on number is the real arbiter and
// callers retry on a duplicate.
func (s *Service) nextNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := fmt.Sprintf("INV-%d-", now.UTC().Year())
	var count int64
	if err := tx.Raw(
		`SELECT COUNT(1) FROM invoices WHERE number LIKE ?`, prefix+"%",
	).Scan(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

type claimedLine struct {
	StoreID         snowflake.ID
	ProductID       snowflake.ID
	ProductName     string
	StoreName       string
	AmountCents     int64
	Quantity        int64
	TotalCents      int64
	CommissionCents int64
}

func (s *Service) groupClaimed(tx *gorm.DB, invoiceID snowflake.ID) ([]claimedLine, error) {
	var lines []claimedLine
	err := tx.Raw(
		`SELECT a.store_id, c.product_id, p.name AS product_name, s.name AS store_name,
		        a.amount_cents, COUNT(1) AS quantity,
		        SUM(a.amount_cents) AS total_cents,
		        SUM(a.commission_cents) AS commission_cents
		 FROM card_activations a
		 JOIN cards c ON c.id = a.card_id
		 JOIN products p ON p.id = c.product_id
		 JOIN stores s ON s.id = a.store_id
		 WHERE a.invoice_id = ?
		 GROUP BY a.store_id, c.product_id, p.name, s.name, a.amount_cents
		 ORDER BY s.name, p.name, a.amount_cents`,
		invoiceID,
	).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *Service) loadCompany(ctx context.Context, id string) (*companydomain.Company, error) {
	companyID, err := companydomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrCompanyNotFound
	}
	var company companydomain.Company
	if err := s.db.WithContext(ctx).First(&company, "id = ? AND active = true", companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, err
	}
	return &company, nil
}

func (s *Service) get(ctx context.Context, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := s.db.WithContext(ctx).First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (s *Service) transitionError(tx *gorm.DB, id snowflake.ID) error {
	var count int64
	if err := tx.Raw(`SELECT COUNT(1) FROM invoices WHERE id = ?`, id).Scan(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrNotPending
}

func fmtMoney(cents int64, currency string) string {
	return fmt.Sprintf("%s %.2f", strings.ToUpper(currency), float64(cents)/100.0)
}
