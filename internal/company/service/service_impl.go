package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/smallbiznis/giftway/internal/company/domain"
	"github.com/smallbiznis/giftway/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	repo  repository.Repository[companydomain.Company]
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

func NewService(p Params) companydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("company.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[companydomain.Company](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req companydomain.CreateRequest) (*companydomain.Company, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, companydomain.ErrInvalidName
	}
	taxID := strings.TrimSpace(req.TaxID)
	if taxID == "" {
		return nil, companydomain.ErrInvalidTaxID
	}
	frequency := companydomain.BillingFrequency(strings.ToUpper(strings.TrimSpace(req.BillingFrequency)))
	if frequency == "" {
		frequency = companydomain.BillingFrequencyMonthly
	}
	if !frequency.Valid() {
		return nil, companydomain.ErrInvalidFrequency
	}
	if req.CommissionRate < 0 || req.CommissionRate >= 1 {
		return nil, companydomain.ErrInvalidCommissionRate
	}

	now := time.Now().UTC()
	company := companydomain.Company{
		ID:               s.genID.Generate(),
		Name:             name,
		TaxID:            taxID,
		BillingFrequency: frequency,
		CommissionRate:   req.CommissionRate,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, &company); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, companydomain.ErrTaxIDTaken
		}
		return nil, err
	}
	return &company, nil
}

func (s *Service) Get(ctx context.Context, id string) (*companydomain.Company, error) {
	companyID, err := companydomain.ParseID(id)
	if err != nil {
		return nil, companydomain.ErrInvalidID
	}
	company, err := s.repo.FindOne(ctx, "id = ?", companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, companydomain.ErrNotFound
	}
	return company, nil
}

func (s *Service) List(ctx context.Context, req companydomain.ListRequest) ([]companydomain.Company, error) {
	query := s.db.WithContext(ctx).Order("name ASC")
	if req.Active != nil {
		query = query.Where("active = ?", *req.Active)
	}
	var companies []companydomain.Company
	if err := query.Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (s *Service) Update(ctx context.Context, req companydomain.UpdateRequest) (*companydomain.Company, error) {
	company, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, companydomain.ErrInvalidName
		}
		company.Name = name
	}
	if req.BillingFrequency != nil {
		frequency := companydomain.BillingFrequency(strings.ToUpper(strings.TrimSpace(*req.BillingFrequency)))
		if !frequency.Valid() {
			return nil, companydomain.ErrInvalidFrequency
		}
		company.BillingFrequency = frequency
	}
	if req.CommissionRate != nil {
		if *req.CommissionRate < 0 || *req.CommissionRate >= 1 {
			return nil, companydomain.ErrInvalidCommissionRate
		}
		company.CommissionRate = *req.CommissionRate
	}
	if req.Active != nil {
		company.Active = *req.Active
	}
	company.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}
