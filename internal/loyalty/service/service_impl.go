package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/loyalty/domain"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxHistoryEntries = 200

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Rules   *config.LoyaltyConfigHolder
	Clock   clock.Clock      `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	rules   *config.LoyaltyConfigHolder
	clock   clock.Clock
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	rules := p.Rules
	if rules == nil {
		rules = config.NewStaticLoyaltyConfigHolder(config.DefaultLoyaltyConfig())
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("loyalty.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		rules:   rules,
		clock:   clk,
		metrics: p.Metrics,
	}
}

func (s *Service) AwardPointsForDeliveredOrder(ctx context.Context, orderID int64) (domain.AwardResult, error) {
	result := domain.AwardResult{Reason: domain.ReasonOrderDelivered}
	err := db.Transact(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		order, err := s.loadOrder(ctx, tx, orderID)
		if err != nil || order.CustomerID == nil {
			return err
		}

		lines, err := s.repo.LoadOrderLines(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("load order lines: %w", err)
		}
		points := domain.PointsForSpend(domain.EligibleSpend(lines, order.Discount), s.rules.Get())
		if points <= 0 {
			return nil
		}

		awarded, err := s.appendEntry(ctx, tx, *order.CustomerID, &orderID, points, domain.ReasonOrderDelivered)
		if err != nil {
			return err
		}
		result.Awarded = awarded
		result.Points = points
		return nil
	})
	if err != nil {
		return domain.AwardResult{}, err
	}
	return result, nil
}

func (s *Service) ReversePointsForCancelledOrder(ctx context.Context, orderID int64) (domain.AwardResult, error) {
	result := domain.AwardResult{Reason: domain.ReasonOrderCancelledReversal}
	err := db.Transact(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		order, err := s.loadOrder(ctx, tx, orderID)
		if err != nil || order.CustomerID == nil {
			return err
		}

		awarded, err := s.repo.SumForOrder(ctx, tx, orderID, domain.ReasonOrderDelivered)
		if err != nil {
			return fmt.Errorf("sum awarded points: %w", err)
		}
		if awarded <= 0 {
			return nil
		}

		reversed, err := s.appendEntry(ctx, tx, *order.CustomerID, &orderID, -awarded, domain.ReasonOrderCancelledReversal)
		if err != nil {
			return err
		}
		result.Awarded = reversed
		result.Points = -awarded
		return nil
	})
	if err != nil {
		return domain.AwardResult{}, err
	}
	return result, nil
}

func (s *Service) RedeemPointsForOrder(ctx context.Context, orderID, customerID, points int64) (domain.AwardResult, error) {
	if points <= 0 {
		return domain.AwardResult{}, domain.ErrInvalidPoints
	}

	result := domain.AwardResult{Reason: domain.ReasonRedeem, Points: -points}
	err := db.Transact(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		redeemed, err := s.appendEntry(ctx, tx, customerID, &orderID, -points, domain.ReasonRedeem)
		result.Awarded = redeemed
		return err
	})
	if err != nil {
		return domain.AwardResult{}, err
	}
	return result, nil
}

func (s *Service) RecreditRedeemedPointsOnCancel(ctx context.Context, orderID int64) (domain.AwardResult, error) {
	result := domain.AwardResult{Reason: domain.ReasonRedeemCancelledRecredit}
	err := db.Transact(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		order, err := s.loadOrder(ctx, tx, orderID)
		if err != nil || order.CustomerID == nil {
			return err
		}

		redeemed, err := s.repo.SumForOrder(ctx, tx, orderID, domain.ReasonRedeem)
		if err != nil {
			return fmt.Errorf("sum redeemed points: %w", err)
		}
		amount := -redeemed
		if amount <= 0 {
			return nil
		}

		recredited, err := s.appendEntry(ctx, tx, *order.CustomerID, &orderID, amount, domain.ReasonRedeemCancelledRecredit)
		if err != nil {
			return err
		}
		result.Awarded = recredited
		result.Points = amount
		return nil
	})
	if err != nil {
		return domain.AwardResult{}, err
	}
	return result, nil
}

func (s *Service) GrantReferralBonus(ctx context.Context, customerID, orderID, points int64) (domain.AwardResult, error) {
	if points <= 0 {
		return domain.AwardResult{}, domain.ErrInvalidPoints
	}

	result := domain.AwardResult{Reason: domain.ReasonReferralBonus, Points: points}
	err := db.Transact(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		customer, err := s.repo.FindCustomer(ctx, tx, customerID)
		if err != nil {
			return fmt.Errorf("find customer: %w", err)
		}
		if customer == nil {
			return domain.ErrCustomerNotFound
		}
		if _, err := s.loadOrder(ctx, tx, orderID); err != nil {
			return err
		}

		granted, err := s.appendEntry(ctx, tx, customerID, &orderID, points, domain.ReasonReferralBonus)
		result.Awarded = granted
		return err
	})
	if err != nil {
		return domain.AwardResult{}, err
	}
	return result, nil
}

func (s *Service) GetRedeemablePoints(ctx context.Context, customerID int64) (int64, error) {
	since := s.clock.Now().AddDate(0, -s.rules.Get().RedeemableWindowMonths, 0)

	earned, redeemed, err := s.repo.SumRedeemable(ctx, db.Conn(ctx, s.db), customerID, since)
	if err != nil {
		return 0, fmt.Errorf("sum redeemable points: %w", err)
	}
	return max(earned-redeemed, 0), nil
}

func (s *Service) PlanRedemption(ctx context.Context, req domain.PlanRequest) (domain.Redemption, error) {
	if req.RequestedPoints <= 0 {
		return domain.Redemption{}, nil
	}

	conn := db.Conn(ctx, s.db)
	customer, err := s.repo.LockCustomer(ctx, conn, req.CustomerID)
	if err != nil {
		return domain.Redemption{}, fmt.Errorf("lock customer: %w", err)
	}
	if customer == nil {
		return domain.Redemption{}, domain.ErrCustomerNotFound
	}

	redeemable, err := s.GetRedeemablePoints(ctx, req.CustomerID)
	if err != nil {
		return domain.Redemption{}, err
	}
	return domain.ClampRedemption(req.RequestedPoints, redeemable, req.Subtotal, req.Discount, s.rules.Get()), nil
}

func (s *Service) PreviewRedemption(ctx context.Context, req domain.PreviewRequest) (domain.PreviewResponse, error) {
	if req.RequestedPoints < 0 || req.Subtotal < 0 || req.Discount < 0 || req.DeliveryFee < 0 {
		return domain.PreviewResponse{}, domain.ErrInvalidRequest
	}

	customer, err := s.repo.FindCustomer(ctx, s.db, req.CustomerID)
	if err != nil {
		return domain.PreviewResponse{}, err
	}
	if customer == nil {
		return domain.PreviewResponse{}, domain.ErrCustomerNotFound
	}

	redeemable, err := s.GetRedeemablePoints(ctx, req.CustomerID)
	if err != nil {
		return domain.PreviewResponse{}, err
	}

	redemption := domain.ClampRedemption(req.RequestedPoints, redeemable, req.Subtotal, req.Discount, s.rules.Get())
	discount := min(req.Subtotal, req.Discount+redemption.Discount)
	return domain.PreviewResponse{
		RedeemablePoints: redeemable,
		RequestedPoints:  req.RequestedPoints,
		AppliedPoints:    redemption.Points,
		PointsDiscount:   redemption.Discount,
		Total:            req.Subtotal - discount + req.DeliveryFee,
	}, nil
}

func (s *Service) ReconcileBalance(ctx context.Context, customerID int64) (domain.ReconcileResult, error) {
	result := domain.ReconcileResult{CustomerID: customerID}
	err := db.Transact(ctx, s.db, func(ctx context.Context, tx *gorm.DB) error {
		customer, err := s.repo.LockCustomer(ctx, tx, customerID)
		if err != nil {
			return fmt.Errorf("lock customer: %w", err)
		}
		if customer == nil {
			return domain.ErrCustomerNotFound
		}

		sum, err := s.repo.SumLifetime(ctx, tx, customerID)
		if err != nil {
			return fmt.Errorf("sum ledger: %w", err)
		}

		result.Previous = customer.Points
		result.Recomputed = max(sum, 0)
		if result.Previous == result.Recomputed {
			return nil
		}

		result.Corrected = true
		return s.repo.SetCustomerPoints(ctx, tx, customerID, result.Recomputed, s.clock.Now())
	})
	if err != nil {
		return domain.ReconcileResult{}, err
	}

	if result.Corrected {
		s.log.Warn("points balance corrected",
			zap.Int64("customer_id", customerID),
			zap.Int64("previous", result.Previous),
			zap.Int64("recomputed", result.Recomputed),
		)
	}
	return result, nil
}

func (s *Service) ReconcileBatch(ctx context.Context, afterID int64, limit int) (domain.ReconcileBatchResult, error) {
	if limit <= 0 {
		limit = 100
	}
	out := domain.ReconcileBatchResult{LastID: afterID}

	ids, err := s.repo.ListCustomerIDs(ctx, s.db, afterID, limit)
	if err != nil {
		return out, fmt.Errorf("list customers: %w", err)
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		res, err := s.ReconcileBalance(ctx, id)
		if err != nil {
			return out, err
		}
		out.LastID = id
		out.Processed++
		if res.Corrected {
			out.Corrected++
		}
	}
	return out, nil
}

func (s *Service) ListEntries(ctx context.Context, customerID int64) ([]domain.LedgerEntry, error) {
	customer, err := s.repo.FindCustomer(ctx, s.db, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrCustomerNotFound
	}

	entries, err := s.repo.ListEntries(ctx, s.db, customerID, maxHistoryEntries)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	return entries, nil
}

func (s *Service) loadOrder(ctx context.Context, tx *gorm.DB, orderID int64) (*domain.OrderSnapshot, error) {
	order, err := s.repo.LoadOrder(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// appendEntry writes one ledger entry and, only when it was inserted, moves the cached
// balance by the same amount.
func (s *Service) appendEntry(ctx context.Context, tx *gorm.DB, customerID int64, orderID *int64, points int64, reason domain.Reason) (bool, error) {
	now := s.clock.Now()
	entry := &domain.LedgerEntry{
		ID:         s.genID.Generate().Int64(),
		CustomerID: customerID,
		OrderID:    orderID,
		Points:     points,
		Reason:     reason,
		CreatedAt:  now,
	}

	inserted, err := s.repo.InsertEntry(ctx, tx, entry)
	if err != nil {
		return false, fmt.Errorf("insert %s entry: %w", reason, err)
	}
	if !inserted {
		s.log.Debug("ledger entry already present",
			zap.Int64p("order_id", orderID),
			zap.String("reason", string(reason)),
		)
		return false, nil
	}

	if err := s.repo.AdjustCustomerPoints(ctx, tx, customerID, points, now); err != nil {
		return false, fmt.Errorf("adjust customer points: %w", err)
	}

	s.metrics.RecordLedgerEntry(ctx, string(reason))
	s.log.Info("ledger entry appended",
		zap.Int64("customer_id", customerID),
		zap.Int64p("order_id", orderID),
		zap.Int64("points", points),
		zap.String("reason", string(reason)),
	)
	return true, nil
}

