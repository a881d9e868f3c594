package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	customerdomain "github.com/smallbiznis/storefront/internal/customer/domain"
	customerservice "github.com/smallbiznis/storefront/internal/customer/service"
	loyaltydomain "github.com/smallbiznis/storefront/internal/loyalty/domain"
	"github.com/smallbiznis/storefront/internal/observability/logger"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/internal/order/domain"
	pricewindowdomain "github.com/smallbiznis/storefront/internal/pricewindow/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	stockdomain "github.com/smallbiznis/storefront/internal/stock/domain"
	"github.com/smallbiznis/storefront/pkg/db"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	effectAward    = "award_points"
	effectReverse  = "reverse_points"
	effectRecredit = "recredit_points"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Cfg       config.Config
	Repo      domain.Repository
	Products  productdomain.Repository
	Customers customerdomain.Service
	Prices    pricewindowdomain.Service
	Stock     stockdomain.Service
	Loyalty   loyaltydomain.Service
	Clock     clock.Clock      `optional:"true"`
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	loc       *time.Location
	repo      domain.Repository
	products  productdomain.Repository
	customers customerdomain.Service
	prices    pricewindowdomain.Service
	stock     stockdomain.Service
	loyalty   loyaltydomain.Service
	clock     clock.Clock
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("order.service"),
		genID:     p.GenID,
		loc:       p.Cfg.Location(),
		repo:      p.Repo,
		products:  p.Products,
		customers: p.Customers,
		prices:    p.Prices,
		stock:     p.Stock,
		loyalty:   p.Loyalty,
		clock:     clk,
		metrics:   p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.CreateResult, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	today := clock.Today(s.clock, s.loc)
	id := s.genID.Generate()

	order := &domain.Order{
		ID:             id.Int64(),
		CustomerName:   strings.TrimSpace(req.Contact.Name),
		Phone:          customerservice.NormalizePhone(req.Contact.Phone),
		Email:          strings.ToLower(strings.TrimSpace(req.Contact.Email)),
		AddressLine:    strings.TrimSpace(req.Address.Line),
		City:           strings.TrimSpace(req.Address.City),
		PostalCode:     strings.TrimSpace(req.Address.PostalCode),
		Notes:          strings.TrimSpace(req.Address.Notes),
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		DeliveryFee:    req.DeliveryFee,
		Status:         domain.StatusPending,
		PaymentStatus:  domain.PaymentStatusUnpaid,
		ReceiptLocator: domain.ReceiptLocator(id),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var redemption loyaltydomain.Redemption
	err := db.Transact(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		overrides, err := s.prices.ResolveActivePrices(ctx, today)
		if err != nil {
			return fmt.Errorf("resolve active prices: %w", err)
		}

		customer, err := s.customers.ResolveOrRegister(ctx, customerdomain.Identity{
			Name:  req.Contact.Name,
			Phone: req.Contact.Phone,
			Email: req.Contact.Email,
		})
		if err != nil {
			return fmt.Errorf("resolve customer: %w", err)
		}
		order.CustomerID = &customer.ID

		items, subtotal, err := s.buildItems(ctx, tx, order.ID, req.Items, overrides, now)
		if err != nil {
			return err
		}
		order.Subtotal = subtotal

		if req.RequestedRedeemedPoints > 0 {
			redemption, err = s.loyalty.PlanRedemption(ctx, loyaltydomain.PlanRequest{
				CustomerID:      customer.ID,
				RequestedPoints: req.RequestedRedeemedPoints,
				Subtotal:        subtotal,
				Discount:        req.Discount,
			})
			if err != nil {
				return fmt.Errorf("plan redemption: %w", err)
			}
		}

		order.PointsRedeemed = redemption.Points
		order.Discount = min(subtotal, req.Discount+redemption.Discount)
		order.Total = subtotal - order.Discount + req.DeliveryFee

		if err := s.repo.Insert(ctx, tx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}

		for _, item := range items {
			if item.ProductID == nil {
				continue
			}
			if _, err := s.stock.Decrement(ctx, *item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, stockdomain.ErrProductNotFound) {
					return domain.ErrProductNotFound
				}
				return fmt.Errorf("decrement stock: %w", err)
			}
		}

		if redemption.Points > 0 {
			if _, err := s.loyalty.RedeemPointsForOrder(ctx, order.ID, customer.ID, redemption.Points); err != nil {
				return fmt.Errorf("redeem points: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn("order creation rolled back", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrTransactionFailed, err)
	}

	log := logger.WithOrder(logger.WithContext(ctx, s.log), order.ID)
	if req.Total != order.Total {
		s.metrics.RecordTotalMismatch(ctx)
		log.Warn("client total differs from computed total",
			zap.Int64("client_total", req.Total),
			zap.Int64("computed_total", order.Total),
			zap.Int64("client_subtotal", req.Subtotal),
			zap.Int64("computed_subtotal", order.Subtotal),
		)
	}
	s.metrics.RecordOrderCreated(ctx, order.PaymentMethod, redemption.Points > 0)
	log.Info("order created",
		zap.String("receipt_locator", order.ReceiptLocator),
		zap.Int64("total", order.Total),
		zap.Int64("points_redeemed", order.PointsRedeemed),
	)

	return &domain.CreateResult{
		OrderID:        strconv.FormatInt(order.ID, 10),
		ReceiptLocator: order.ReceiptLocator,
		AppliedPoints:  redemption.Points,
		PointsDiscount: redemption.Discount,
		Subtotal:       order.Subtotal,
		Discount:       order.Discount,
		Total:          order.Total,
	}, nil
}

// buildItems prices each line, applying the active window override to catalog products.
func (s *Service) buildItems(ctx context.Context, tx *gorm.DB, orderID int64, reqItems []domain.ItemRequest, overrides map[int64]int64, now time.Time) ([]domain.OrderItem, int64, error) {
	items := make([]domain.OrderItem, 0, len(reqItems))
	var subtotal int64
	for _, reqItem := range reqItems {
		item := domain.OrderItem{
			ID:        s.genID.Generate().Int64(),
			OrderID:   orderID,
			Name:      strings.TrimSpace(reqItem.Name),
			UnitPrice: reqItem.Price,
			Quantity:  reqItem.Quantity,
			CreatedAt: now,
		}

		if reqItem.ProductID != nil {
			product, err := s.products.FindByID(ctx, tx, *reqItem.ProductID)
			if err != nil {
				return nil, 0, fmt.Errorf("find product: %w", err)
			}
			if product == nil {
				return nil, 0, domain.ErrProductNotFound
			}
			productID := product.ID
			item.ProductID = &productID
			item.IsGiftCard = product.IsGiftCard
			item.IsDiscounted = product.IsDiscounted
			if price, ok := overrides[product.ID]; ok {
				item.UnitPrice = price
				item.IsDiscounted = true
			}
		}

		item.LineTotal = item.UnitPrice * item.Quantity
		subtotal += item.LineTotal
		items = append(items, item)
	}
	return items, subtotal, nil
}

func validateCreate(req domain.CreateRequest) error {
	if strings.TrimSpace(req.Contact.Name) == "" {
		return domain.ErrInvalidCustomerName
	}
	if customerservice.NormalizePhone(req.Contact.Phone) == "" {
		return domain.ErrInvalidPhone
	}
	if strings.TrimSpace(req.Address.Line) == "" {
		return domain.ErrInvalidAddress
	}
	if len(req.Items) == 0 {
		return domain.ErrEmptyItems
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			return domain.ErrInvalidItemName
		}
		if item.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		if item.Price < 0 {
			return domain.ErrInvalidPrice
		}
	}
	if req.Discount < 0 || req.DeliveryFee < 0 || req.RequestedRedeemedPoints < 0 {
		return domain.ErrInvalidAmount
	}
	return nil
}

func (s *Service) UpdateStatus(ctx context.Context, req domain.UpdateStatusRequest) (*domain.Response, error) {
	orderID, err := parseID(req.OrderID)
	if err != nil {
		return nil, err
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if req.PaymentStatus != nil && !req.PaymentStatus.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	if req.ReceiptLocator != nil && strings.TrimSpace(*req.ReceiptLocator) == "" {
		return nil, domain.ErrInvalidReceipt
	}

	var (
		order     *domain.Order
		changedTo domain.Status
	)
	err = db.Transact(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		order, err = s.repo.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		if order == nil {
			return domain.ErrNotFound
		}

		now := s.clock.Now().UTC()
		changed := false

		if req.Status != nil && *req.Status != order.Status {
			if !domain.CanTransition(order.Status, *req.Status) {
				return domain.ErrInvalidTransition
			}
			order.Status = *req.Status
			stampStatus(order, now)
			changedTo = order.Status
			changed = true
		}

		if req.PaymentStatus != nil && *req.PaymentStatus != order.PaymentStatus {
			if !domain.CanTransitionPayment(order.PaymentStatus, *req.PaymentStatus) {
				return domain.ErrInvalidPaymentTransition
			}
			order.PaymentStatus = *req.PaymentStatus
			order.PaidAt = &now
			changed = true
		}

		if req.ReceiptLocator != nil {
			locator := strings.ToUpper(strings.TrimSpace(*req.ReceiptLocator))
			if locator != order.ReceiptLocator {
				order.ReceiptLocator = locator
				changed = true
			}
		}

		if !changed {
			return nil
		}
		order.UpdatedAt = now
		if err := s.repo.UpdateLifecycle(ctx, tx, order); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrReceiptTaken
			}
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := logger.WithOrder(logger.WithContext(ctx, s.log), order.ID)
	if changedTo != "" {
		log.Info("order status changed", zap.String("status", string(changedTo)))
	}

	// Loyalty effects run after commit; their failures never undo the status change.
	// A client disconnect after commit must not skip them.
	effectCtx := context.WithoutCancel(ctx)
	switch changedTo {
	case domain.StatusDelivered:
		s.sideEffect(effectCtx, log, effectAward, func() (loyaltydomain.AwardResult, error) {
			return s.loyalty.AwardPointsForDeliveredOrder(effectCtx, order.ID)
		})
	case domain.StatusCancelled:
		s.sideEffect(effectCtx, log, effectReverse, func() (loyaltydomain.AwardResult, error) {
			return s.loyalty.ReversePointsForCancelledOrder(effectCtx, order.ID)
		})
		s.sideEffect(effectCtx, log, effectRecredit, func() (loyaltydomain.AwardResult, error) {
			return s.loyalty.RecreditRedeemedPointsOnCancel(effectCtx, order.ID)
		})
	}

	items, err := s.repo.FindItems(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	resp := toResponse(order)
	return &resp, nil
}

func (s *Service) sideEffect(ctx context.Context, log *zap.Logger, effect string, fn func() (loyaltydomain.AwardResult, error)) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.RecordSideEffectFailure(ctx, effect)
			log.Error("loyalty side effect panicked", zap.String("effect", effect), zap.Any("panic", r))
		}
	}()

	result, err := fn()
	if err != nil {
		s.metrics.RecordSideEffectFailure(ctx, effect)
		log.Warn("loyalty side effect failed", zap.String("effect", effect), zap.Error(err))
		return
	}
	if result.Awarded {
		log.Info("loyalty side effect applied",
			zap.String("effect", effect),
			zap.Int64("points", result.Points),
		)
	}
}

func stampStatus(order *domain.Order, now time.Time) {
	switch order.Status {
	case domain.StatusConfirmed:
		order.ConfirmedAt = &now
	case domain.StatusShipped:
		order.ShippedAt = &now
	case domain.StatusDelivered:
		order.DeliveredAt = &now
	case domain.StatusCancelled:
		order.CancelledAt = &now
	}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, order)
}

func (s *Service) GetByReceipt(ctx context.Context, locator string) (*domain.Response, error) {
	locator = strings.ToUpper(strings.TrimSpace(locator))
	if locator == "" {
		return nil, domain.ErrInvalidReceipt
	}
	order, err := s.repo.FindByReceipt(ctx, s.db, locator)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, order)
}

func (s *Service) withItems(ctx context.Context, order *domain.Order) (*domain.Response, error) {
	if order == nil {
		return nil, domain.ErrNotFound
	}
	items, err := s.repo.FindItems(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	resp := toResponse(order)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	if req.Status != "" && !req.Status.Valid() {
		return domain.ListResponse{}, domain.ErrInvalidStatus
	}
	if req.PaymentStatus != "" && !req.PaymentStatus.Valid() {
		return domain.ListResponse{}, domain.ErrInvalidStatus
	}

	filter := domain.ListFilter{
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
		Phone:         customerservice.NormalizePhone(req.Phone),
	}
	page := pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  req.PageSize,
	}

	orders, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListResponse{}, err
	}

	orders, pageInfo := pagination.BuildCursorPageInfo(orders, page.Limit(), func(order *domain.Order) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        strconv.FormatInt(order.ID, 10),
			CreatedAt: order.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	resp := make([]domain.Response, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, toResponse(order))
	}
	return domain.ListResponse{PageInfo: pageInfo, Orders: resp}, nil
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func toResponse(order *domain.Order) domain.Response {
	resp := domain.Response{
		ID:             strconv.FormatInt(order.ID, 10),
		CustomerName:   order.CustomerName,
		Phone:          order.Phone,
		Email:          order.Email,
		AddressLine:    order.AddressLine,
		City:           order.City,
		PostalCode:     order.PostalCode,
		Notes:          order.Notes,
		PaymentMethod:  order.PaymentMethod,
		Subtotal:       order.Subtotal,
		Discount:       order.Discount,
		DeliveryFee:    order.DeliveryFee,
		Total:          order.Total,
		PointsRedeemed: order.PointsRedeemed,
		Status:         order.Status,
		PaymentStatus:  order.PaymentStatus,
		ReceiptLocator: order.ReceiptLocator,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
		ConfirmedAt:    order.ConfirmedAt,
		ShippedAt:      order.ShippedAt,
		DeliveredAt:    order.DeliveredAt,
		CancelledAt:    order.CancelledAt,
		PaidAt:         order.PaidAt,
	}
	if order.CustomerID != nil {
		id := strconv.FormatInt(*order.CustomerID, 10)
		resp.CustomerID = &id
	}
	for _, item := range order.Items {
		itemResp := domain.ItemResponse{
			ID:           strconv.FormatInt(item.ID, 10),
			Name:         item.Name,
			UnitPrice:    item.UnitPrice,
			Quantity:     item.Quantity,
			LineTotal:    item.LineTotal,
			IsDiscounted: item.IsDiscounted,
			IsGiftCard:   item.IsGiftCard,
		}
		if item.ProductID != nil {
			productID := strconv.FormatInt(*item.ProductID, 10)
			itemResp.ProductID = &productID
		}
		resp.Items = append(resp.Items, itemResp)
	}
	return resp
}
