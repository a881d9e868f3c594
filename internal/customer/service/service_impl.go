package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/customer/domain"
	"github.com/smallbiznis/storefront/pkg/db"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: clk,
	}
}

func (s *Service) ResolveOrRegister(ctx context.Context, identity domain.Identity) (*domain.Customer, error) {
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	phone := NormalizePhone(identity.Phone)
	if phone == "" {
		return nil, domain.ErrInvalidPhone
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email != "" && !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidEmail
	}

	conn := db.Conn(ctx, s.db)

	existing, err := s.repo.FindByPhone(ctx, conn, phone)
	if err != nil {
		return nil, fmt.Errorf("find customer by phone: %w", err)
	}
	if existing == nil && email != "" {
		existing, err = s.repo.FindByEmail(ctx, conn, email)
		if err != nil {
			return nil, fmt.Errorf("find customer by email: %w", err)
		}
	}
	if existing != nil {
		return s.fillContact(ctx, conn, existing, phone, email)
	}

	now := s.clock.Now()
	customer := &domain.Customer{
		ID:        s.genID.Generate().Int64(),
		Name:      name,
		Phone:     &phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if email != "" {
		customer.Email = &email
	}

	inserted, err := s.repo.InsertIfAbsent(ctx, conn, customer)
	if err != nil {
		return nil, fmt.Errorf("register customer: %w", err)
	}
	if !inserted {
		// A concurrent checkout registered the same phone first.
		existing, err = s.repo.FindByPhone(ctx, conn, phone)
		if err != nil {
			return nil, fmt.Errorf("find customer by phone: %w", err)
		}
		if existing == nil {
			return nil, domain.ErrNotFound
		}
		return existing, nil
	}

	s.log.Info("customer registered", zap.Int64("customer_id", customer.ID))
	return customer, nil
}

func (s *Service) fillContact(ctx context.Context, conn *gorm.DB, customer *domain.Customer, phone, email string) (*domain.Customer, error) {
	needsPhone := customer.Phone == nil
	needsEmail := customer.Email == nil && email != ""
	if !needsPhone && !needsEmail {
		return customer, nil
	}

	if needsPhone {
		customer.Phone = &phone
	}
	if needsEmail {
		customer.Email = &email
	}
	customer.UpdatedAt = s.clock.Now()
	if err := s.repo.FillContact(ctx, conn, customer); err != nil {
		return nil, fmt.Errorf("update customer contact: %w", err)
	}
	return customer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	filter := domain.ListCustomerFilter{
		Name:  strings.TrimSpace(req.Name),
		Phone: NormalizePhone(req.Phone),
		Email: strings.TrimSpace(req.Email),
	}

	page := pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(req.PageSize),
	}
	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Limit(), func(customer *domain.Customer) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        strconv.FormatInt(customer.ID, 10),
			CreatedAt: customer.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	return domain.ListCustomerResponse{PageInfo: pageInfo, Customers: customers}, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.Customer{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, id.Int64())
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	return *item, nil
}

// NormalizePhone strips formatting so "+62 812-3456" and "628123456" match.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
