package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/storefront/internal/authorization"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/coupon"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	"github.com/smallbiznis/storefront/internal/inventory"
	"github.com/smallbiznis/storefront/internal/notification"
	"github.com/smallbiznis/storefront/internal/observability"
	obsmiddleware "github.com/smallbiznis/storefront/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	obstracing "github.com/smallbiznis/storefront/internal/observability/tracing"
	"github.com/smallbiznis/storefront/internal/order"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/paymentmethod"
	paymentmethoddomain "github.com/smallbiznis/storefront/internal/paymentmethod/domain"
	"github.com/smallbiznis/storefront/internal/product"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/providers"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"github.com/smallbiznis/storefront/internal/reporting"
	reportingdomain "github.com/smallbiznis/storefront/internal/reporting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	providers.Module,
	product.Module,
	coupon.Module,
	paymentmethod.Module,
	inventory.Module,
	notification.Module,
	order.Module,
	reporting.Module,
	ratelimit.Module,
	authorization.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
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

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// loginAlerter is the part of the notifier the auth-event hook needs.
type loginAlerter interface {
	AdminLogin(ctx context.Context, event notification.LoginEvent)
}

type Server struct {
	engine           *gin.Engine
	cfg              config.Config
	settings         config.StoreSettings
	clock            clock.Clock
	productSvc       productdomain.Service
	couponSvc        coupondomain.Service
	paymentMethodSvc paymentmethoddomain.Service
	orderSvc         orderdomain.Service
	reportingSvc     reportingdomain.Service
	loginAlerts      loginAlerter
	authzSvc         authorization.Service
	checkoutLimiter  *ratelimit.CheckoutLimiter
	obsMetrics       *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Cfg              config.Config
	Settings         config.StoreSettings
	Clock            clock.Clock
	ProductSvc       productdomain.Service
	CouponSvc        coupondomain.Service
	PaymentMethodSvc paymentmethoddomain.Service
	OrderSvc         orderdomain.Service
	ReportingSvc     reportingdomain.Service
	Notifier         *notification.Notifier
	AuthzSvc         authorization.Service
	CheckoutLimiter  *ratelimit.CheckoutLimiter `optional:"true"`
	ObsMetrics       *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		settings:         p.Settings,
		clock:            p.Clock,
		productSvc:       p.ProductSvc,
		couponSvc:        p.CouponSvc,
		paymentMethodSvc: p.PaymentMethodSvc,
		orderSvc:         p.OrderSvc,
		reportingSvc:     p.ReportingSvc,
		loginAlerts:      p.Notifier,
		authzSvc:         p.AuthzSvc,
		checkoutLimiter:  p.CheckoutLimiter,
		obsMetrics:       p.ObsMetrics,
	}

	svc.registerPublicRoutes()
	svc.registerAdminRoutes()
	svc.registerInternalRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}

func (s *Server) registerPublicRoutes() {
	api := s.engine.Group("/api")

	api.POST("/checkout", s.CheckoutRateLimit(), s.Checkout)
	api.GET("/orders/:number", s.GetOrderByNumber)
	api.GET("/payment-methods", s.ListActivePaymentMethods)
	api.GET("/coupons/:code/validate", s.ValidateCoupon)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin")
	admin.Use(s.AdminAuthRequired())

	// -------- Products --------
	admin.GET("/products", s.authorize(authorization.ObjectProduct, authorization.ActionProductView), s.ListProducts)
	admin.POST("/products", s.authorize(authorization.ObjectProduct, authorization.ActionProductCreate), s.CreateProduct)
	admin.GET("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductView), s.GetProductByID)
	admin.PATCH("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductUpdate), s.UpdateProduct)
	admin.PATCH("/products/:id/stock", s.authorize(authorization.ObjectProduct, authorization.ActionProductStock), s.SetProductStock)
	admin.POST("/products/:id/duplicate", s.authorize(authorization.ObjectProduct, authorization.ActionProductDuplicate), s.DuplicateProduct)

	// -------- Coupons --------
	admin.GET("/coupons", s.authorize(authorization.ObjectCoupon, authorization.ActionCouponView), s.ListCoupons)
	admin.POST("/coupons", s.authorize(authorization.ObjectCoupon, authorization.ActionCouponManage), s.CreateCoupon)
	admin.PATCH("/coupons/:id", s.authorize(authorization.ObjectCoupon, authorization.ActionCouponManage), s.SetCouponActive)

	// -------- Payment methods --------
	admin.GET("/payment-methods", s.authorize(authorization.ObjectPaymentMethod, authorization.ActionPaymentMethodView), s.ListPaymentMethods)
	admin.PATCH("/payment-methods/:code", s.authorize(authorization.ObjectPaymentMethod, authorization.ActionPaymentMethodManage), s.SetPaymentMethodActive)

	// -------- Orders --------
	admin.GET("/orders", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.ListOrders)
	admin.GET("/orders/:id", s.authorize(authorization.ObjectOrder, authorization.ActionOrderView), s.GetOrderByID)
	admin.PATCH("/orders/:id/status", s.authorize(authorization.ObjectOrder, authorization.ActionOrderTransition), s.TransitionOrder)
	admin.POST("/orders/:id/notes", s.authorize(authorization.ObjectOrderNote, authorization.ActionOrderNoteCreate), s.AddOrderNote)
	admin.GET("/orders/:id/notes", s.authorize(authorization.ObjectOrderNote, authorization.ActionOrderNoteView), s.ListOrderNotes)
	admin.GET("/orders/:id/receipt.pdf", s.authorize(authorization.ObjectOrder, authorization.ActionOrderReceipt), s.DownloadReceipt)
	admin.DELETE("/notes/:id", s.authorize(authorization.ObjectOrderNote, authorization.ActionOrderNoteDelete), s.DeleteOrderNote)

	// -------- Reports --------
	admin.GET("/reports/sales", s.authorize(authorization.ObjectReport, authorization.ActionReportView), s.GetSalesReport)
	admin.GET("/reports/customers", s.authorize(authorization.ObjectReport, authorization.ActionReportView), s.GetCustomerReport)
}

func (s *Server) registerInternalRoutes() {
	internal := s.engine.Group("/internal", s.AdminAuthRequired())
	internal.POST("/auth-events", s.authorize(authorization.ObjectAuthEvent, authorization.ActionAuthEventReport), s.ReportAuthEvent)
}
