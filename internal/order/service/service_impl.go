package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	inventorydomain "github.com/smallbiznis/storefront/internal/inventory/domain"
	obslogger "github.com/smallbiznis/storefront/internal/observability/logger"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/internal/order/domain"
	paymentmethoddomain "github.com/smallbiznis/storefront/internal/paymentmethod/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/providers/pdf"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Cfg      config.Config
	Settings config.StoreSettings

	Repo           domain.Repository
	Products       productdomain.Repository
	Coupons        coupondomain.Repository
	PaymentMethods paymentmethoddomain.Repository
	Inventory      inventorydomain.Service
	PDF            pdf.Provider

	Notifier     domain.Notifier     `optional:"true"`
	Metrics      *metrics.Metrics    `optional:"true"`
	StockChecker domain.StockChecker `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	cfg      config.Config
	settings config.StoreSettings

	repo           domain.Repository
	products       productdomain.Repository
	coupons        coupondomain.Repository
	paymentMethods paymentmethoddomain.Repository
	inventory      inventorydomain.Service
	pdf            pdf.Provider
	notifier       domain.Notifier
	metrics        *metrics.Metrics

	checkStock domain.StockChecker
	newNumber  func() string
}

func New(p Params) domain.Service {
	svc := &Service{
		db:       p.DB,
		log:      p.Log.Named("order.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		cfg:      p.Cfg,
		settings: p.Settings,

		repo:           p.Repo,
		products:       p.Products,
		coupons:        p.Coupons,
		paymentMethods: p.PaymentMethods,
		inventory:      p.Inventory,
		pdf:            p.PDF,
		notifier:       p.Notifier,
		metrics:        p.Metrics,

		checkStock: p.StockChecker,
	}
	if svc.checkStock == nil {
		svc.checkStock = domain.DefaultStockChecker
	}
	if svc.notifier == nil {
		svc.notifier = noopNotifier{}
	}
	svc.newNumber = func() string {
		return NewOrderNumber(svc.settings.OrderPrefix, svc.clock.Now())
	}
	return svc
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return s.withItems(ctx, s.db, order)
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, domain.ErrNotFound
	}
	order, err := s.repo.FindByNumber(ctx, s.db, number)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return s.withItems(ctx, s.db, order)
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	page := pagination.Pagination{Page: req.Page, PageSize: req.PageSize}.Normalize(defaultPageSize, maxPageSize)

	filter := domain.ListFilter{
		Email:  strings.TrimSpace(req.Email),
		UserID: req.UserID,
		Limit:  page.Limit(),
		Offset: page.Offset(),
	}
	if req.Status != "" {
		status, err := domain.ParseStatus(req.Status)
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.Status = &status
	}

	orders, total, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListResponse{}, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return domain.ListResponse{
		Orders:   orders,
		PageInfo: pagination.BuildPageInfo(page, total),
	}, nil
}

func (s *Service) withItems(ctx context.Context, db *gorm.DB, order *domain.Order) (*domain.Order, error) {
	items, err := s.repo.ListItems(ctx, db, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (s *Service) logger(ctx context.Context, orderNumber string) *zap.Logger {
	return obslogger.WithOrder(obslogger.WithContext(ctx, s.log), orderNumber)
}

func parseID(value string) (int64, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id.Int64() <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id.Int64(), nil
}

type noopNotifier struct{}

func (noopNotifier) CustomerNote(context.Context, domain.Order, domain.OrderNote) {}
func (noopNotifier) OrderEvent(context.Context, domain.Event)                    {}
