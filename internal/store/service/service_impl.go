package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/smallbiznis/giftway/internal/company/domain"
	storedomain "github.com/smallbiznis/giftway/internal/store/domain"
	"github.com/smallbiznis/giftway/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	storeRepo repository.Repository[storedomain.Store]
	phoneRepo repository.Repository[storedomain.AuthorizedPhone]
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

func NewService(p Params) storedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("store.service"),
		genID:     p.GenID,
		storeRepo: repository.ProvideStore[storedomain.Store](p.DB),
		phoneRepo: repository.ProvideStore[storedomain.AuthorizedPhone](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req storedomain.CreateRequest) (*storedomain.Store, error) {
	if req.CompanyID == 0 {
		return nil, storedomain.ErrMissingCompanyID
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, storedomain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, storedomain.ErrInvalidName
	}

	var company companydomain.Company
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, active FROM companies WHERE id = ?`, req.CompanyID,
	).Scan(&company).Error
	if err != nil {
		return nil, err
	}
	if company.ID == 0 {
		return nil, storedomain.ErrCompanyNotFound
	}
	if !company.Active {
		return nil, storedomain.ErrCompanyInactive
	}

	now := time.Now().UTC()
	store := storedomain.Store{
		ID:        s.genID.Generate(),
		CompanyID: req.CompanyID,
		Code:      code,
		Name:      name,
		Phone:     strings.TrimSpace(req.Phone),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.storeRepo.Create(ctx, &store); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, storedomain.ErrCodeTaken
		}
		return nil, err
	}
	return &store, nil
}

func (s *Service) Get(ctx context.Context, id string) (*storedomain.Store, error) {
	storeID, err := storedomain.ParseID(id)
	if err != nil {
		return nil, storedomain.ErrInvalidID
	}
	store, err := s.storeRepo.FindOne(ctx, "id = ?", storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, storedomain.ErrNotFound
	}
	return store, nil
}

func (s *Service) List(ctx context.Context, req storedomain.ListRequest) ([]storedomain.Store, error) {
	query := s.db.WithContext(ctx).Order("code ASC")
	if req.CompanyID != 0 {
		query = query.Where("company_id = ?", req.CompanyID)
	}
	if req.Active != nil {
		query = query.Where("active = ?", *req.Active)
	}
	var stores []storedomain.Store
	if err := query.Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (s *Service) Update(ctx context.Context, req storedomain.UpdateRequest) (*storedomain.Store, error) {
	store, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, storedomain.ErrInvalidName
		}
		store.Name = name
	}
	if req.Phone != nil {
		store.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Active != nil {
		store.Active = *req.Active
	}
	store.UpdatedAt = time.Now().UTC()

	if err := s.storeRepo.Save(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Service) AuthorizePhone(ctx context.Context, storeID string, phone string) (*storedomain.AuthorizedPhone, error) {
	store, err := s.Get(ctx, storeID)
	if err != nil {
		return nil, err
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, storedomain.ErrInvalidPhone
	}

	// Re-authorizing a revoked phone flips it back to active.
	existing, err := s.phoneRepo.FindOne(ctx, "store_id = ? AND phone = ?", store.ID, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Active {
			return nil, storedomain.ErrPhoneDuplicate
		}
		existing.Active = true
		if err := s.phoneRepo.Save(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	entry := storedomain.AuthorizedPhone{
		ID:        s.genID.Generate(),
		StoreID:   store.ID,
		Phone:     phone,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.phoneRepo.Create(ctx, &entry); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, storedomain.ErrPhoneDuplicate
		}
		return nil, err
	}
	return &entry, nil
}

func (s *Service) RevokePhone(ctx context.Context, storeID string, phone string) error {
	store, err := s.Get(ctx, storeID)
	if err != nil {
		return err
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return storedomain.ErrInvalidPhone
	}

	result := s.db.WithContext(ctx).Exec(
		`UPDATE authorized_phones SET active = false WHERE store_id = ? AND phone = ? AND active = true`,
		store.ID,
		phone,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storedomain.ErrPhoneNotFound
	}
	return nil
}

func (s *Service) ListAuthorizedPhones(ctx context.Context, storeID string) ([]storedomain.AuthorizedPhone, error) {
	store, err := s.Get(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return s.phoneRepo.Find(ctx, "store_id = ? AND active = true", store.ID)
}
