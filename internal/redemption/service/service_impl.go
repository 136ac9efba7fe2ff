package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	carddomain "github.com/smallbiznis/giftway/internal/card/domain"
	catalogdomain "github.com/smallbiznis/giftway/internal/catalog/domain"
	"github.com/smallbiznis/giftway/internal/cache"
	"github.com/smallbiznis/giftway/internal/clock"
	"github.com/smallbiznis/giftway/internal/events"
	"github.com/smallbiznis/giftway/internal/observability/metrics"
	"github.com/smallbiznis/giftway/internal/redemption/domain"
	"github.com/smallbiznis/giftway/internal/redemption/matrix"
	scanlogdomain "github.com/smallbiznis/giftway/internal/scanlog/domain"
	storedomain "github.com/smallbiznis/giftway/internal/store/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const storeCacheTTL = 5 * time.Minute

// errAlreadyKeyed aborts the claim transaction when another writer set the
// PIN between our read and our update.
var errAlreadyKeyed = errors.New("already_keyed")

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	provider matrix.Client
	scans    scanlogdomain.Recorder
	metrics  *metrics.ScanMetrics
	outbox   *events.Outbox

	stores cache.Cache[string, storedomain.Store]
	locks  *keyedMutex
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Provider matrix.Client
	Scans    scanlogdomain.Recorder
	Metrics  *metrics.ScanMetrics `optional:"true"`
	Outbox   *events.Outbox
	Stores   cache.Cache[string, storedomain.Store]
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("redemption.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		provider: p.Provider,
		scans:    p.Scans,
		metrics:  p.Metrics,
		outbox:   p.Outbox,
		stores:   p.Stores,
		locks:    newKeyedMutex(),
	}
}

// Scan resolves a card identifier and walks the redemption state machine:
// unknown card, not activated, scan budget exhausted, repeat scan of a
// redeemed card, or first redemption against the key provider. Every branch
// leaves a scan log row.
func (s *Service) Scan(ctx context.Context, req domain.ScanRequest) (*domain.ScanResponse, error) {
	uid := strings.TrimSpace(req.UID)
	if uid == "" {
		s.record(ctx, req, nil, scanlogdomain.ReasonCardNotFound, nil)
		return nil, domain.ErrCardNotFound
	}

	card, err := s.loadCard(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.record(ctx, req, nil, scanlogdomain.ReasonCardNotFound, nil)
			return nil, domain.ErrCardNotFound
		}
		return nil, err
	}

	if !card.IsActivated {
		s.record(ctx, req, card, scanlogdomain.ReasonNotActivated, nil)
		store, err := s.loadStore(ctx, card.StoreID)
		if err != nil {
			s.log.Warn("store lookup failed for unactivated card",
				zap.String("card_uid", card.UID),
				zap.Error(err),
			)
			return nil, &domain.NotActivatedError{}
		}
		return nil, &domain.NotActivatedError{
			Store: storedomain.Contact{Name: store.Name, Phone: store.Phone},
		}
	}

	if card.ScanCount >= card.MaxScans {
		s.record(ctx, req, card, scanlogdomain.ReasonMaxScansReached, nil)
		return nil, domain.ErrMaxScans
	}

	if card.PIN != nil {
		return s.repeatScan(ctx, req, card)
	}
	return s.firstRedemption(ctx, req, card)
}

// repeatScan re-reads an already redeemed card's PIN. The increment is
// guarded so concurrent scans can never push scan_count past max_scans.
func (s *Service) repeatScan(ctx context.Context, req domain.ScanRequest, card *carddomain.Card) (*domain.ScanResponse, error) {
	result := s.db.WithContext(ctx).Exec(
		`UPDATE cards SET scan_count = scan_count + 1, updated_at = ?
		 WHERE id = ? AND scan_count < max_scans`,
		s.clock.Now(), card.ID,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		s.record(ctx, req, card, scanlogdomain.ReasonMaxScansReached, nil)
		return nil, domain.ErrMaxScans
	}

	var scanCount int
	if err := s.db.WithContext(ctx).Raw(
		`SELECT scan_count FROM cards WHERE id = ?`, card.ID,
	).Scan(&scanCount).Error; err != nil {
		return nil, err
	}

	resp, err := s.buildResponse(ctx, card, *card.PIN, card.MaxScans-scanCount)
	if err != nil {
		return nil, err
	}
	s.record(ctx, req, card, scanlogdomain.ReasonSuccess, map[string]any{"scan_count": scanCount})
	return resp, nil
}

// firstRedemption fetches a key from the provider and claims the card with a
// pin-null compare-and-set. The per-card lock keeps one process from issuing
// two provider calls for the same card; the CAS covers other instances.
func (s *Service) firstRedemption(ctx context.Context, req domain.ScanRequest, card *carddomain.Card) (*domain.ScanResponse, error) {
	unlock := s.locks.Lock(card.ID)
	defer unlock()

	// Re-read under the lock: a queued scan may have already fetched the key.
	fresh, err := s.reload(ctx, card.ID)
	if err != nil {
		return nil, err
	}
	if fresh.PIN != nil {
		return s.repeatScan(ctx, req, fresh)
	}
	card = fresh

	store, err := s.loadStore(ctx, card.StoreID)
	if err != nil {
		return nil, err
	}
	product, amountCents, currency, err := s.resolveProduct(ctx, card)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	key, err := s.provider.FetchKey(ctx, matrix.KeyRequest{
		SKU:         product.SKU,
		Product:     product.Name,
		AmountCents: amountCents,
		Currency:    currency,
		StoreCode:   store.Code,
		Reference:   card.UID,
	})
	s.metrics.RecordProviderCall(ctx, time.Since(started), err == nil)
	if err != nil {
		s.record(ctx, req, card, scanlogdomain.ReasonMatrixError, map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	now := s.clock.Now()
	keyRow := domain.ProviderKey{
		ID:        s.genID.Generate(),
		Code:      key.PIN,
		ProductID: card.ProductID,
		Verified:  true,
		CreatedAt: now,
	}
	if key.TransactionID != "" {
		tx := key.TransactionID
		keyRow.TransactionID = &tx
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&keyRow).Error; err != nil {
			return err
		}
		result := tx.Exec(
			`UPDATE cards
			 SET pin = ?, transaction_id = ?, key_id = ?,
			     is_redeemed = true, redeemed_at = ?, scan_count = 1, updated_at = ?
			 WHERE id = ? AND pin IS NULL`,
			key.PIN, keyRow.TransactionID, keyRow.ID, now, now, card.ID,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errAlreadyKeyed
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			CompanyID: store.CompanyID,
			Type:      events.EventCardRedeemed,
			Payload: events.CardEventPayload{
				CardUID:     card.UID,
				StoreID:     card.StoreID.String(),
				AmountCents: amountCents,
			}.ToMap(),
			DedupeKey: "redeem:" + card.UID,
		})
	})
	if err != nil {
		if errors.Is(err, errAlreadyKeyed) {
			// Lost the race to another instance; serve the stored PIN.
			fresh, rerr := s.reload(ctx, card.ID)
			if rerr != nil {
				return nil, rerr
			}
			if fresh.PIN == nil {
				return nil, errAlreadyKeyed
			}
			return s.repeatScan(ctx, req, fresh)
		}
		return nil, err
	}

	s.record(ctx, req, card, scanlogdomain.ReasonSuccess, map[string]any{"scan_count": 1, "first": true})
	return &domain.ScanResponse{
		PIN:            key.PIN,
		Product:        product.Name,
		AmountCents:    amountCents,
		Currency:       currency,
		ScansRemaining: card.MaxScans - 1,
	}, nil
}

func (s *Service) loadCard(ctx context.Context, uid string) (*carddomain.Card, error) {
	var card carddomain.Card
	err := s.db.WithContext(ctx).Where("uid = ? OR short_code = ?", uid, uid).First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *Service) reload(ctx context.Context, id snowflake.ID) (*carddomain.Card, error) {
	var card carddomain.Card
	if err := s.db.WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *Service) loadStore(ctx context.Context, id snowflake.ID) (*storedomain.Store, error) {
	key := id.String()
	if cached, ok := s.stores.Get(key); ok {
		return &cached, nil
	}
	var store storedomain.Store
	if err := s.db.WithContext(ctx).First(&store, "id = ?", id).Error; err != nil {
		return nil, err
	}
	s.stores.Set(key, store, storeCacheTTL)
	return &store, nil
}

func (s *Service) resolveProduct(ctx context.Context, card *carddomain.Card) (*catalogdomain.Product, int64, string, error) {
	var product catalogdomain.Product
	if err := s.db.WithContext(ctx).First(&product, "id = ?", card.ProductID).Error; err != nil {
		return nil, 0, "", err
	}

	if card.DenominationID != nil {
		var denom catalogdomain.ProductDenomination
		if err := s.db.WithContext(ctx).First(&denom, "id = ?", *card.DenominationID).Error; err != nil {
			return nil, 0, "", err
		}
		return &product, denom.AmountCents, denom.Currency, nil
	}
	if card.AmountCents != nil {
		return &product, *card.AmountCents, card.Currency, nil
	}
	return &product, 0, card.Currency, nil
}

func (s *Service) buildResponse(ctx context.Context, card *carddomain.Card, pin string, remaining int) (*domain.ScanResponse, error) {
	product, amountCents, currency, err := s.resolveProduct(ctx, card)
	if err != nil {
		return nil, err
	}
	if remaining < 0 {
		remaining = 0
	}
	return &domain.ScanResponse{
		PIN:            pin,
		Product:        product.Name,
		AmountCents:    amountCents,
		Currency:       currency,
		ScansRemaining: remaining,
	}, nil
}

// record writes the scan log entry and bumps the scan counter. Failures are
// logged and swallowed; auditing never blocks a scan.
func (s *Service) record(ctx context.Context, req domain.ScanRequest, card *carddomain.Card, reason string, metadata map[string]any) {
	s.metrics.RecordScan(ctx, reason)

	entry := scanlogdomain.Entry{
		CardUID:   strings.TrimSpace(req.UID),
		Reason:    reason,
		Success:   reason == scanlogdomain.ReasonSuccess,
		ClientIP:  req.ClientIP,
		UserAgent: req.UserAgent,
		Metadata:  metadata,
	}
	if card != nil {
		id := card.ID
		entry.CardID = &id
		entry.CardUID = card.UID
	}
	if err := s.scans.Record(ctx, entry); err != nil {
		s.log.Warn("scan log write failed",
			zap.String("card_uid", entry.CardUID),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
}
