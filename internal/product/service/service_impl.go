package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Cfg   config.Config
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db                *gorm.DB
	log               *zap.Logger
	repo              domain.Repository
	genID             *snowflake.Node
	clock             clock.Clock
	lowStockThreshold int64
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:                p.DB,
		log:               p.Log.Named("product.service"),
		repo:              p.Repo,
		genID:             p.GenID,
		clock:             clk,
		lowStockThreshold: p.Cfg.LowStockThreshold,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListRequest{
		Name:   strings.TrimSpace(req.Name),
		Status: domain.Status(strings.TrimSpace(string(req.Status))),
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}

	return resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Price < 0 {
		return nil, domain.ErrInvalidPrice
	}
	if req.Stock < 0 {
		return nil, domain.ErrInvalidStock
	}

	id := s.genID.Generate()

	productSlug := slug.Make(strings.TrimSpace(req.Slug))
	explicitSlug := productSlug != ""
	if !explicitSlug {
		productSlug = slug.Make(name)
	}
	if productSlug == "" || !slug.IsSlug(productSlug) {
		return nil, domain.ErrInvalidSlug
	}

	existing, err := s.repo.FindBySlug(ctx, s.db, productSlug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if explicitSlug {
			return nil, domain.ErrSlugTaken
		}
		// Derived slugs get the id suffix so two products may share a name.
		productSlug = productSlug + "-" + strings.ToLower(id.Base36())
	}

	now := s.clock.Now()
	p := &domain.Product{
		ID:           id.Int64(),
		Slug:         productSlug,
		Name:         name,
		Price:        req.Price,
		Stock:        req.Stock,
		Status:       domain.StatusForStock(req.Stock, s.lowStockThreshold),
		IsGiftCard:   req.IsGiftCard,
		IsDiscounted: req.IsDiscounted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Metadata != nil {
		p.Metadata = datatypes.JSONMap(req.Metadata)
	}
	if err := s.repo.Create(ctx, s.db, p); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	s.log.Info("product created", zap.Int64("product_id", p.ID), zap.String("slug", p.Slug))
	resp := toResponse(p)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func toResponse(p *domain.Product) domain.Response {
	resp := domain.Response{
		ID:           snowflake.ID(p.ID).String(),
		Slug:         p.Slug,
		Name:         p.Name,
		Price:        p.Price,
		Stock:        p.Stock,
		Status:       p.Status,
		IsGiftCard:   p.IsGiftCard,
		IsDiscounted: p.IsDiscounted,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}

	if len(p.Metadata) > 0 {
		resp.Metadata = map[string]any(p.Metadata)
	}

	return resp
}
