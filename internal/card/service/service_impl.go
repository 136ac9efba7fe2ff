package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	carddomain "github.com/smallbiznis/giftway/internal/card/domain"
	catalogdomain "github.com/smallbiznis/giftway/internal/catalog/domain"
	storedomain "github.com/smallbiznis/giftway/internal/store/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Crockford-style alphabet: no I, L, O, or U, so printed codes survive retyping.
const shortCodeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const maxBatchSize = 1000

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

func NewService(p Params) carddomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("card.service"),
		genID: p.GenID,
	}
}

// Issue creates a batch of cards. The batch is deliberately not atomic: cards
// already persisted stay issued when a later insert fails, and the failure is
// surfaced through the Issued/Failed counts plus ErrBatchIncomplete.
func (s *Service) Issue(ctx context.Context, req carddomain.IssueRequest) (*carddomain.IssueResponse, error) {
	if req.Quantity <= 0 || req.Quantity > maxBatchSize {
		return nil, carddomain.ErrInvalidQuantity
	}

	storeID, err := storedomain.ParseID(req.StoreID)
	if err != nil {
		return nil, carddomain.ErrStoreNotFound
	}
	var store storedomain.Store
	if err := s.db.WithContext(ctx).Raw(
		`SELECT id, code, name FROM stores WHERE id = ? AND active = true`, storeID,
	).Scan(&store).Error; err != nil {
		return nil, err
	}
	if store.ID == 0 {
		return nil, carddomain.ErrStoreNotFound
	}

	productID, err := catalogdomain.ParseID(req.ProductID)
	if err != nil {
		return nil, carddomain.ErrProductNotFound
	}
	var product catalogdomain.Product
	if err := s.db.WithContext(ctx).Raw(
		`SELECT id, sku, name, kind, allow_custom_amount FROM products WHERE id = ? AND active = true`, productID,
	).Scan(&product).Error; err != nil {
		return nil, err
	}
	if product.ID == 0 {
		return nil, carddomain.ErrProductNotFound
	}

	denomination, amountCents, currency, err := s.resolveAmount(ctx, product, req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	batch := carddomain.CardBatch{
		ID:        s.genID.Generate(),
		StoreID:   store.ID,
		ProductID: product.ID,
		Quantity:  req.Quantity,
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&batch).Error; err != nil {
		return nil, err
	}

	maxScans := req.MaxScans
	if maxScans <= 0 {
		maxScans = carddomain.DefaultMaxScans
	}

	resp := &carddomain.IssueResponse{BatchID: batch.ID.String()}
	for i := 0; i < req.Quantity; i++ {
		card, err := s.issueOne(ctx, store, product, denomination, amountCents, currency, batch.ID, maxScans, now)
		if err != nil {
			s.log.Warn("card issuance failed mid-batch",
				zap.String("batch_id", batch.ID.String()),
				zap.Int("index", i),
				zap.Error(err),
			)
			resp.Failed++
			continue
		}
		resp.Cards = append(resp.Cards, carddomain.IssuedCard{
			ID:        card.ID.String(),
			UID:       card.UID,
			ShortCode: card.ShortCode,
			QRPayload: card.QRPayload,
		})
		resp.Issued++
	}

	if resp.Issued == 0 {
		return nil, carddomain.ErrBatchIncomplete
	}
	if resp.Failed > 0 {
		return resp, carddomain.ErrBatchIncomplete
	}
	return resp, nil
}

func (s *Service) resolveAmount(
	ctx context.Context,
	product catalogdomain.Product,
	req carddomain.IssueRequest,
) (*catalogdomain.ProductDenomination, int64, string, error) {
	if strings.TrimSpace(req.DenominationID) != "" {
		denomID, err := catalogdomain.ParseID(req.DenominationID)
		if err != nil {
			return nil, 0, "", carddomain.ErrMissingDenomination
		}
		var denom catalogdomain.ProductDenomination
		if err := s.db.WithContext(ctx).Raw(
			`SELECT id, product_id, amount_cents, currency
			 FROM product_denominations
			 WHERE id = ? AND product_id = ?`,
			denomID,
			product.ID,
		).Scan(&denom).Error; err != nil {
			return nil, 0, "", err
		}
		if denom.ID == 0 {
			return nil, 0, "", carddomain.ErrMissingDenomination
		}
		return &denom, denom.AmountCents, denom.Currency, nil
	}

	if !product.AllowCustomAmount {
		return nil, 0, "", carddomain.ErrMissingDenomination
	}
	if req.CustomAmountCents <= 0 {
		return nil, 0, "", carddomain.ErrInvalidAmount
	}
	return nil, req.CustomAmountCents, "USD", nil
}

func (s *Service) issueOne(
	ctx context.Context,
	store storedomain.Store,
	product catalogdomain.Product,
	denomination *catalogdomain.ProductDenomination,
	amountCents int64,
	currency string,
	batchID snowflake.ID,
	maxScans int,
	now time.Time,
) (*carddomain.Card, error) {
	// Short code collisions are rare but possible; retry a few times.
	for attempt := 0; attempt < 3; attempt++ {
		uid := uuid.NewString()
		shortCode, err := generateShortCode()
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(carddomain.QRPayload{
			UID:         uid,
			StoreCode:   store.Code,
			SKU:         product.SKU,
			AmountCents: amountCents,
			Currency:    currency,
		})
		if err != nil {
			return nil, err
		}

		card := carddomain.Card{
			ID:        s.genID.Generate(),
			UID:       uid,
			ShortCode: shortCode,
			QRPayload: string(payload),
			ProductID: product.ID,
			StoreID:   store.ID,
			BatchID:   &batchID,
			Currency:  currency,
			ScanCount: 0,
			MaxScans:  maxScans,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if denomination != nil {
			denomID := denomination.ID
			card.DenominationID = &denomID
		} else {
			amount := amountCents
			card.AmountCents = &amount
		}

		err = s.db.WithContext(ctx).Create(&card).Error
		if err == nil {
			return &card, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	return nil, errors.New("short_code_exhausted")
}

func (s *Service) GetByUID(ctx context.Context, uid string) (*carddomain.Card, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, carddomain.ErrNotFound
	}
	var card carddomain.Card
	err := s.db.WithContext(ctx).Where("uid = ? OR short_code = ?", uid, uid).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, carddomain.ErrNotFound
		}
		return nil, err
	}
	return &card, nil
}

func (s *Service) List(ctx context.Context, req carddomain.ListRequest) ([]carddomain.Card, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if strings.TrimSpace(req.StoreID) != "" {
		storeID, err := storedomain.ParseID(req.StoreID)
		if err != nil {
			return nil, carddomain.ErrStoreNotFound
		}
		query = query.Where("store_id = ?", storeID)
	}
	if strings.TrimSpace(req.BatchID) != "" {
		batchID, err := carddomain.ParseID(req.BatchID)
		if err != nil {
			return nil, carddomain.ErrInvalidID
		}
		query = query.Where("batch_id = ?", batchID)
	}
	var cards []carddomain.Card
	if err := query.Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// Delete only removes cards that were never activated.
func (s *Service) Delete(ctx context.Context, id string) error {
	cardID, err := carddomain.ParseID(id)
	if err != nil {
		return carddomain.ErrInvalidID
	}
	result := s.db.WithContext(ctx).Exec(
		`DELETE FROM cards WHERE id = ? AND is_activated = false`, cardID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := s.db.WithContext(ctx).Raw(
			`SELECT COUNT(1) FROM cards WHERE id = ?`, cardID,
		).Scan(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return carddomain.ErrNotFound
		}
		return carddomain.ErrCardActivated
	}
	return nil
}

func generateShortCode() (string, error) {
	buf := make([]byte, carddomain.ShortCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, carddomain.ShortCodeLength)
	for i, b := range buf {
		code[i] = shortCodeAlphabet[int(b)%len(shortCodeAlphabet)]
	}
	return string(code), nil
}
