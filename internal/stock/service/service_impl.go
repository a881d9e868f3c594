package service

import (
	"context"
	"fmt"

	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/internal/stock/domain"
	"github.com/smallbiznis/storefront/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Cfg     config.Config
	Metrics *metrics.Metrics `optional:"true"`
	Clock   clock.Clock      `optional:"true"`
}

type Service struct {
	db                *gorm.DB
	log               *zap.Logger
	repo              domain.Repository
	metrics           *metrics.Metrics
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
		log:               p.Log.Named("stock.service"),
		repo:              p.Repo,
		metrics:           p.Metrics,
		clock:             clk,
		lowStockThreshold: p.Cfg.LowStockThreshold,
	}
}

func (s *Service) Decrement(ctx context.Context, productID int64, qty int64) (*domain.Result, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	result, err := s.repo.Decrement(ctx, db.Conn(ctx, s.db), productID, qty, s.lowStockThreshold, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	if result == nil {
		return nil, domain.ErrProductNotFound
	}

	s.metrics.RecordStockDecrement(ctx, string(result.Status))
	s.log.Debug("stock decremented",
		zap.Int64("product_id", productID),
		zap.Int64("qty", qty),
		zap.Int64("stock", result.Stock),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

func (s *Service) Restock(ctx context.Context, productID int64, qty int64) (*domain.Result, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	result, err := s.repo.Increment(ctx, db.Conn(ctx, s.db), productID, qty, s.lowStockThreshold, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("restock: %w", err)
	}
	if result == nil {
		return nil, domain.ErrProductNotFound
	}

	s.log.Info("product restocked",
		zap.Int64("product_id", productID),
		zap.Int64("qty", qty),
		zap.Int64("stock", result.Stock),
	)
	return result, nil
}
