package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/pricewindow/domain"
	"github.com/smallbiznis/storefront/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultMaxItems = 50

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
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	clock    clock.Clock
	maxItems int
}

func New(p Params) domain.Service {
	maxItems := p.Cfg.MaxPriceWindowItems
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("pricewindow.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		clock:    clk,
		maxItems: maxItems,
	}
}

func (s *Service) ResolveActivePrices(ctx context.Context, today time.Time) (map[int64]int64, error) {
	conn := db.Conn(ctx, s.db)

	window, err := s.repo.FindActive(ctx, conn, domain.DateOnly(today))
	if err != nil {
		return nil, fmt.Errorf("find active price window: %w", err)
	}
	prices := make(map[int64]int64)
	if window == nil {
		return prices, nil
	}

	items, err := s.repo.FindItems(ctx, conn, window.ID)
	if err != nil {
		return nil, fmt.Errorf("load price window items: %w", err)
	}
	for _, item := range items {
		prices[item.ProductID] = item.Price
	}
	return prices, nil
}

func (s *Service) GetActive(ctx context.Context, today time.Time) (*domain.Response, error) {
	window, err := s.repo.FindActive(ctx, s.db, domain.DateOnly(today))
	if err != nil {
		return nil, err
	}
	if window == nil {
		return nil, domain.ErrNotFound
	}
	return s.withItems(ctx, window)
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, domain.ErrInvalidDateRange
	}
	if len(req.Items) == 0 {
		return nil, domain.ErrInvalidItems
	}
	if len(req.Items) > s.maxItems {
		return nil, domain.ErrTooManyItems
	}

	productIDs := make([]int64, 0, len(req.Items))
	seen := make(map[int64]struct{}, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID <= 0 {
			return nil, domain.ErrInvalidItems
		}
		if item.Price <= 0 {
			return nil, domain.ErrInvalidPrice
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, domain.ErrDuplicateProduct
		}
		seen[item.ProductID] = struct{}{}
		productIDs = append(productIDs, item.ProductID)
	}

	window := &domain.PriceWindow{
		ID:           s.genID.Generate().Int64(),
		Name:         name,
		StartDate:    start,
		EndDate:      end,
		AllowOverlap: req.AllowOverlap,
		CreatedAt:    s.clock.Now(),
	}
	window.Items = make([]domain.PriceWindowItem, 0, len(req.Items))
	for _, item := range req.Items {
		window.Items = append(window.Items, domain.PriceWindowItem{
			ID:            s.genID.Generate().Int64(),
			PriceWindowID: window.ID,
			ProductID:     item.ProductID,
			Price:         item.Price,
		})
	}

	err = db.Transact(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		if err := s.repo.LockWindows(ctx, tx); err != nil {
			return err
		}

		count, err := s.repo.CountProducts(ctx, tx, productIDs)
		if err != nil {
			return err
		}
		if count != int64(len(productIDs)) {
			return domain.ErrProductNotFound
		}

		if !window.AllowOverlap {
			overlapping, err := s.repo.FindOverlapping(ctx, tx, start, end)
			if err != nil {
				return err
			}
			if len(overlapping) > 0 {
				s.log.Info("price window rejected",
					zap.String("name", name),
					zap.Int64("conflicts_with", overlapping[0].ID),
				)
				return domain.ErrOverlapConflict
			}
		}

		if err := s.repo.Insert(ctx, tx, window); err != nil {
			return err
		}
		return s.repo.InsertItems(ctx, tx, window.Items)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("price window created",
		zap.Int64("price_window_id", window.ID),
		zap.Time("start_date", start),
		zap.Time("end_date", end),
		zap.Bool("allow_overlap", window.AllowOverlap),
	)
	resp := toResponse(window)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	windowID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || windowID == 0 {
		return nil, domain.ErrInvalidID
	}

	window, err := s.repo.FindByID(ctx, s.db, windowID.Int64())
	if err != nil {
		return nil, err
	}
	if window == nil {
		return nil, domain.ErrNotFound
	}
	return s.withItems(ctx, window)
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	var activeOn *time.Time
	if req.ActiveOn != nil {
		day := domain.DateOnly(*req.ActiveOn)
		activeOn = &day
	}

	windows, err := s.repo.List(ctx, s.db, activeOn)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return []domain.Response{}, nil
	}

	ids := make([]int64, 0, len(windows))
	for _, w := range windows {
		ids = append(ids, w.ID)
	}
	items, err := s.repo.FindItems(ctx, s.db, ids...)
	if err != nil {
		return nil, err
	}
	byWindow := make(map[int64][]domain.PriceWindowItem, len(windows))
	for _, item := range items {
		byWindow[item.PriceWindowID] = append(byWindow[item.PriceWindowID], item)
	}

	resp := make([]domain.Response, 0, len(windows))
	for i := range windows {
		windows[i].Items = byWindow[windows[i].ID]
		resp = append(resp, toResponse(&windows[i]))
	}
	return resp, nil
}

func (s *Service) withItems(ctx context.Context, window *domain.PriceWindow) (*domain.Response, error) {
	items, err := s.repo.FindItems(ctx, s.db, window.ID)
	if err != nil {
		return nil, err
	}
	window.Items = items
	resp := toResponse(window)
	return &resp, nil
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, domain.ErrInvalidDate
	}
	return t.UTC(), nil
}

func toResponse(w *domain.PriceWindow) domain.Response {
	resp := domain.Response{
		ID:           snowflake.ID(w.ID).String(),
		Name:         w.Name,
		StartDate:    w.StartDate.UTC().Format(domain.DateLayout),
		EndDate:      w.EndDate.UTC().Format(domain.DateLayout),
		AllowOverlap: w.AllowOverlap,
		Items:        make([]domain.ItemResponse, 0, len(w.Items)),
		CreatedAt:    w.CreatedAt,
	}
	for _, item := range w.Items {
		resp.Items = append(resp.Items, domain.ItemResponse{
			ProductID: snowflake.ID(item.ProductID).String(),
			Price:     item.Price,
		})
	}
	return resp
}
