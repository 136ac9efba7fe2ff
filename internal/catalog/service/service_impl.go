package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/giftway/internal/catalog/domain"
	"github.com/smallbiznis/giftway/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	productRepo repository.Repository[catalogdomain.Product]
	denomRepo   repository.Repository[catalogdomain.ProductDenomination]
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

func NewService(p Params) catalogdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("catalog.service"),
		genID:       p.GenID,
		productRepo: repository.ProvideStore[catalogdomain.Product](p.DB),
		denomRepo:   repository.ProvideStore[catalogdomain.ProductDenomination](p.DB),
	}
}

func (s *Service) CreateProduct(ctx context.Context, req catalogdomain.CreateProductRequest) (*catalogdomain.Product, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return nil, catalogdomain.ErrInvalidSKU
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}
	kind := catalogdomain.ProductKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	if kind == "" {
		kind = catalogdomain.ProductKindGiftCard
	}
	if !kind.Valid() {
		return nil, catalogdomain.ErrInvalidKind
	}

	now := time.Now().UTC()
	product := catalogdomain.Product{
		ID:                s.genID.Generate(),
		SKU:               sku,
		Name:              name,
		Kind:              kind,
		AllowCustomAmount: req.AllowCustomAmount,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.productRepo.Create(ctx, &product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, catalogdomain.ErrSKUTaken
		}
		return nil, err
	}
	return &product, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*catalogdomain.Product, error) {
	productID, err := catalogdomain.ParseID(id)
	if err != nil {
		return nil, catalogdomain.ErrInvalidID
	}
	product, err := s.productRepo.FindOne(ctx, "id = ?", productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, catalogdomain.ErrNotFound
	}
	return product, nil
}

func (s *Service) ListProducts(ctx context.Context, active *bool) ([]catalogdomain.Product, error) {
	query := s.db.WithContext(ctx).Order("sku ASC")
	if active != nil {
		query = query.Where("active = ?", *active)
	}
	var products []catalogdomain.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Service) ArchiveProduct(ctx context.Context, id string) (*catalogdomain.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Active = false
	product.UpdatedAt = time.Now().UTC()
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *Service) AddDenomination(ctx context.Context, req catalogdomain.AddDenominationRequest) (*catalogdomain.ProductDenomination, error) {
	product, err := s.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if req.AmountCents <= 0 {
		return nil, catalogdomain.ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return nil, catalogdomain.ErrInvalidCurrency
	}

	denom := catalogdomain.ProductDenomination{
		ID:          s.genID.Generate(),
		ProductID:   product.ID,
		AmountCents: req.AmountCents,
		Currency:    currency,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.denomRepo.Create(ctx, &denom); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, catalogdomain.ErrDenominationTaken
		}
		return nil, err
	}
	return &denom, nil
}

func (s *Service) ListDenominations(ctx context.Context, productID string) ([]catalogdomain.ProductDenomination, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.denomRepo.Find(ctx, "product_id = ?", product.ID)
}
