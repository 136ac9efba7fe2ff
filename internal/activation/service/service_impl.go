package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/giftway/internal/activation/domain"
	carddomain "github.com/smallbiznis/giftway/internal/card/domain"
	catalogdomain "github.com/smallbiznis/giftway/internal/catalog/domain"
	"github.com/smallbiznis/giftway/internal/clock"
	companydomain "github.com/smallbiznis/giftway/internal/company/domain"
	"github.com/smallbiznis/giftway/internal/config"
	"github.com/smallbiznis/giftway/internal/events"
	"github.com/smallbiznis/giftway/internal/observability/logger"
	storedomain "github.com/smallbiznis/giftway/internal/store/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	outbox *events.Outbox

	secret           string
	requireSignature bool
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Outbox *events.Outbox
	Config config.Config
}

func NewService(p Params) domain.Service {
	return &Service{
		db:               p.DB,
		log:              p.Log.Named("activation.service"),
		genID:            p.GenID,
		clock:            p.Clock,
		outbox:           p.Outbox,
		secret:           p.Config.WebhookSecret,
		requireSignature: p.Config.RequireSignature,
	}
}

// VerifySignature checks the hex-encoded HMAC-SHA256 of the raw body. With
// no secret configured and signatures not required this is a no-op, which is
// the documented dev-mode escape hatch. Once a secret is configured every
// delivery must carry a valid signature; a missing header is rejected, not
// skipped.
func (s *Service) VerifySignature(raw []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if s.secret == "" {
		if s.requireSignature {
			return domain.ErrInvalidSignature
		}
		return nil
	}
	if signature == "" {
		return domain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(raw)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// Activate flips a card to activated and writes its billing record. The card
// update is a compare-and-set on is_activated so a webhook retry or a
// concurrent duplicate can never activate twice or overwrite activated_at.
func (s *Service) Activate(ctx context.Context, req domain.ActivateRequest) (*domain.CardActivation, error) {
	uid := strings.TrimSpace(req.UID)
	if uid == "" {
		return nil, domain.ErrCardNotFound
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return nil, domain.ErrMissingPhone
	}

	var card carddomain.Card
	err := s.db.WithContext(ctx).Where("uid = ? OR short_code = ?", uid, uid).First(&card).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCardNotFound
		}
		return nil, err
	}
	if card.IsActivated {
		return nil, domain.ErrAlreadyActivated
	}

	var store storedomain.Store
	if err := s.db.WithContext(ctx).First(&store, "id = ?", card.StoreID).Error; err != nil {
		return nil, err
	}

	var authorized int64
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM authorized_phones
		 WHERE store_id = ? AND phone = ? AND active = true`,
		store.ID, phone,
	).Scan(&authorized).Error; err != nil {
		return nil, err
	}
	if authorized == 0 {
		s.log.Warn("activation rejected, phone not authorized",
			zap.String("card_uid", card.UID),
			zap.String("store_id", store.ID.String()),
			zap.String("phone", logger.MaskPhone(phone)),
		)
		return nil, domain.ErrPhoneNotAuthorized
	}

	amountCents, err := s.resolveAmount(ctx, &card)
	if err != nil {
		return nil, err
	}
	var company companydomain.Company
	if err := s.db.WithContext(ctx).First(&company, "id = ?", store.CompanyID).Error; err != nil {
		return nil, err
	}
	commissionCents := int64(math.Round(float64(amountCents) * company.CommissionRate))

	now := s.clock.Now()
	record := domain.CardActivation{
		ID:               s.genID.Generate(),
		CardID:           card.ID,
		StoreID:          store.ID,
		ActivatedBy:      phone,
		AmountCents:      amountCents,
		GrossProfitCents: amountCents - commissionCents,
		CommissionCents:  commissionCents,
		BillingStatus:    domain.BillingStatusPending,
		ActivatedAt:      now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(
			`UPDATE cards SET is_activated = true, activated_at = ?, updated_at = ?
			 WHERE id = ? AND is_activated = false`,
			now, now, card.ID,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrAlreadyActivated
		}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAlreadyActivated
			}
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			CompanyID: store.CompanyID,
			Type:      events.EventCardActivated,
			Payload: events.CardEventPayload{
				CardUID:     card.UID,
				StoreID:     store.ID.String(),
				AmountCents: amountCents,
			}.ToMap(),
			DedupeKey: "activate:" + card.UID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("card activated",
		zap.String("card_uid", card.UID),
		zap.String("store_id", store.ID.String()),
		zap.Int64("amount_cents", amountCents),
	)
	return &record, nil
}

func (s *Service) resolveAmount(ctx context.Context, card *carddomain.Card) (int64, error) {
	if card.DenominationID != nil {
		var denom catalogdomain.ProductDenomination
		if err := s.db.WithContext(ctx).First(&denom, "id = ?", *card.DenominationID).Error; err != nil {
			return 0, err
		}
		return denom.AmountCents, nil
	}
	if card.AmountCents != nil {
		return *card.AmountCents, nil
	}
	return 0, nil
}
