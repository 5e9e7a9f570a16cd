package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/facturio/facturio/internal/product/domain"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("product.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProductRequest) (domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Product{}, domain.ErrInvalidName
	}
	if req.UnitPrice < 0 {
		return domain.Product{}, domain.ErrInvalidUnitPrice
	}
	if req.DefaultRate < 0 {
		return domain.Product{}, domain.ErrInvalidRate
	}

	taxGroupID, err := parseOptionalID(req.TaxGroupID)
	if err != nil {
		return domain.Product{}, err
	}

	now := time.Now().UTC()
	product := domain.Product{
		ID:          s.genID.Generate(),
		Name:        name,
		Reference:   strings.TrimSpace(req.Reference),
		UnitPrice:   req.UnitPrice,
		DefaultRate: req.DefaultRate,
		TaxGroupID:  taxGroupID,
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, &product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *Service) List(ctx context.Context, req domain.ListProductRequest) ([]domain.Product, error) {
	return s.repo.List(ctx, domain.ListProductRequest{
		Name:      strings.TrimSpace(req.Name),
		Reference: strings.TrimSpace(req.Reference),
	})
}

func (s *Service) GetByID(ctx context.Context, req domain.GetProductRequest) (domain.Product, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Product{}, domain.ErrInvalidID
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if product == nil {
		return domain.Product{}, domain.ErrNotFound
	}
	return *product, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProductRequest) (domain.Product, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return domain.Product{}, domain.ErrInvalidID
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if product == nil {
		return domain.Product{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, domain.ErrInvalidName
		}
		product.Name = name
	}
	if req.UnitPrice != nil {
		if *req.UnitPrice < 0 {
			return domain.Product{}, domain.ErrInvalidUnitPrice
		}
		product.UnitPrice = *req.UnitPrice
	}
	if req.DefaultRate != nil {
		if *req.DefaultRate < 0 {
			return domain.Product{}, domain.ErrInvalidRate
		}
		product.DefaultRate = *req.DefaultRate
	}
	if req.TaxGroupID != nil {
		taxGroupID, err := parseOptionalID(req.TaxGroupID)
		if err != nil {
			return domain.Product{}, err
		}
		product.TaxGroupID = taxGroupID
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

// parseOptionalID treats nil and empty string as "no group" so callers can
// clear a product's tax group.
func parseOptionalID(raw *string) (*snowflake.ID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	return &id, nil
}
