package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/storefront/internal/audit"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/customer"
	customerdomain "github.com/smallbiznis/storefront/internal/customer/domain"
	"github.com/smallbiznis/storefront/internal/loyalty"
	loyaltydomain "github.com/smallbiznis/storefront/internal/loyalty/domain"
	"github.com/smallbiznis/storefront/internal/observability"
	obsmiddleware "github.com/smallbiznis/storefront/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	obstracing "github.com/smallbiznis/storefront/internal/observability/tracing"
	"github.com/smallbiznis/storefront/internal/order"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/pricewindow"
	pricewindowdomain "github.com/smallbiznis/storefront/internal/pricewindow/domain"
	"github.com/smallbiznis/storefront/internal/product"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/providers"
	"github.com/smallbiznis/storefront/internal/providers/pdf"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"github.com/smallbiznis/storefront/internal/stock"
	stockdomain "github.com/smallbiznis/storefront/internal/stock/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	product.Module,
	stock.Module,
	pricewindow.Module,
	customer.Module,
	loyalty.Module,
	order.Module,
	audit.Module,
	providers.Module,
	ratelimit.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if obsCfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	clock           clock.Clock
	orderSvc        orderdomain.Service
	priceWindowSvc  pricewindowdomain.Service
	productSvc      productdomain.Service
	stockSvc        stockdomain.Service
	customerSvc     customerdomain.Service
	loyaltySvc      loyaltydomain.Service
	auditSvc        auditdomain.Service
	rules           *config.LoyaltyConfigHolder
	receipts        pdf.Provider
	checkoutLimiter *ratelimit.CheckoutLimiter
	metrics         *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	Clock           clock.Clock `optional:"true"`
	OrderSvc        orderdomain.Service
	PriceWindowSvc  pricewindowdomain.Service
	ProductSvc      productdomain.Service
	StockSvc        stockdomain.Service
	CustomerSvc     customerdomain.Service
	LoyaltySvc      loyaltydomain.Service
	AuditSvc        auditdomain.Service         `optional:"true"`
	Rules           *config.LoyaltyConfigHolder `optional:"true"`
	Receipts        pdf.Provider
	CheckoutLimiter *ratelimit.CheckoutLimiter `optional:"true"`
	Metrics         *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	rules := p.Rules
	if rules == nil {
		rules = config.NewStaticLoyaltyConfigHolder(config.DefaultLoyaltyConfig())
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             log.Named("http"),
		clock:           clk,
		orderSvc:        p.OrderSvc,
		priceWindowSvc:  p.PriceWindowSvc,
		productSvc:      p.ProductSvc,
		stockSvc:        p.StockSvc,
		customerSvc:     p.CustomerSvc,
		loyaltySvc:      p.LoyaltySvc,
		auditSvc:        p.AuditSvc,
		rules:           rules,
		receipts:        p.Receipts,
		checkoutLimiter: p.CheckoutLimiter,
		metrics:         p.Metrics,
	}

	svc.RegisterPublicRoutes()
	svc.RegisterAdminRoutes()
	svc.RegisterFallback()

	return svc
}

func (s *Server) RegisterPublicRoutes() {
	api := s.engine.Group("/api")
	{
		api.POST("/orders", s.CheckoutRateLimit(), s.CreateOrder)
		api.POST("/loyalty/redemption-preview", s.PreviewRedemption)
		api.GET("/customers/:id/redeemable-points", s.GetRedeemablePoints)
		api.GET("/receipts/:locator", s.GetReceipt)
		api.GET("/receipts/:locator/pdf", s.DownloadReceiptPDF)
	}
}

func (s *Server) RegisterAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(s.AdminAuthRequired())
	{
		admin.GET("/orders", s.ListOrders)
		admin.GET("/orders/:id", s.GetOrderByID)
		admin.PATCH("/orders/:id/status", s.UpdateOrderStatus)

		admin.POST("/price-windows", s.CreatePriceWindow)
		admin.GET("/price-windows", s.ListPriceWindows)
		admin.GET("/price-windows/active", s.GetActivePriceWindow)
		admin.GET("/price-windows/:id", s.GetPriceWindowByID)

		admin.POST("/products", s.CreateProduct)
		admin.GET("/products", s.ListProducts)
		admin.GET("/products/:id", s.GetProductByID)
		admin.POST("/products/:id/restock", s.RestockProduct)

		admin.GET("/customers", s.ListCustomers)
		admin.GET("/customers/:id", s.GetCustomerByID)
		admin.GET("/customers/:id/points", s.GetCustomerPoints)
		admin.POST("/customers/:id/points/reconcile", s.ReconcileCustomerPoints)
		admin.POST("/customers/:id/points/referral", s.GrantReferralBonus)

		if s.auditSvc != nil {
			admin.GET("/audit-logs", s.ListAuditLogs)
		}
	}
}

func (s *Server) RegisterFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

func (s *Server) today() time.Time {
	return clock.Today(s.clock, s.cfg.Location())
}
