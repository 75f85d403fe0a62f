package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	couponrepo "github.com/smallbiznis/storefront/internal/coupon/repository"
	inventoryrepo "github.com/smallbiznis/storefront/internal/inventory/repository"
	inventoryservice "github.com/smallbiznis/storefront/internal/inventory/service"
	"github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/order/repository"
	"github.com/smallbiznis/storefront/internal/order/service"
	paymentmethoddomain "github.com/smallbiznis/storefront/internal/paymentmethod/domain"
	paymentmethodrepo "github.com/smallbiznis/storefront/internal/paymentmethod/repository"
	productrepo "github.com/smallbiznis/storefront/internal/product/repository"
	"github.com/smallbiznis/storefront/internal/providers/pdf"
	"github.com/smallbiznis/storefront/internal/storetest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var now = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	notes  []domain.OrderNote
	events []domain.Event
}

func (r *recordingNotifier) CustomerNote(_ context.Context, _ domain.Order, note domain.OrderNote) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note)
}

func (r *recordingNotifier) OrderEvent(_ context.Context, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

func (r *recordingNotifier) Notes() []domain.OrderNote {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.OrderNote(nil), r.notes...)
}

type harness struct {
	svc      domain.Service
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	notifier *recordingNotifier
}

type harnessOption func(*service.Params)

func withoutAllocation() harnessOption {
	return func(p *service.Params) { p.Cfg.Checkout.DeductStock = false }
}

func withStockChecker(fn domain.StockChecker) harnessOption {
	return func(p *service.Params) { p.StockChecker = fn }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	db := storetest.Open(t)
	node := storetest.Node(t)
	clk := clock.NewFakeClock(now)
	notifier := &recordingNotifier{}
	log := zaptest.NewLogger(t)

	var cfg config.Config
	cfg.Checkout.DeductStock = true
	cfg.Checkout.MaxNumberAttempts = 5

	settings := config.DefaultStoreSettings()
	settings.SiteName = "Tea House"

	params := service.Params{
		DB:             db,
		Log:            log,
		GenID:          node,
		Clock:          clk,
		Cfg:            cfg,
		Settings:       settings,
		Repo:           repository.Provide(),
		Products:       productrepo.Provide(),
		Coupons:        couponrepo.Provide(),
		PaymentMethods: paymentmethodrepo.Provide(),
		Inventory: inventoryservice.New(inventoryservice.Params{
			Log:  log,
			Repo: inventoryrepo.Provide(),
		}),
		PDF:      pdf.New(),
		Notifier: notifier,
	}
	for _, opt := range opts {
		opt(&params)
	}

	return &harness{
		svc:      service.New(params),
		db:       db,
		node:     node,
		clock:    clk,
		notifier: notifier,
	}
}

func (h *harness) product(t *testing.T, seed storetest.ProductSeed) string {
	t.Helper()
	return snowflake.ID(storetest.SeedProduct(t, h.db, h.node, seed)).String()
}

func (h *harness) stock(t *testing.T, productID string) int64 {
	t.Helper()
	id, err := snowflake.ParseString(productID)
	require.NoError(t, err)
	return storetest.Stock(t, h.db, id.Int64())
}

func (h *harness) coupon(t *testing.T, code string, kind coupondomain.DiscountType, amount string, from, to time.Time, active bool) {
	t.Helper()
	err := couponrepo.Provide().Create(context.Background(), h.db, &coupondomain.Coupon{
		ID:           h.node.Generate().Int64(),
		Code:         code,
		DiscountType: kind,
		Discount:     decimal.RequireFromString(amount),
		ValidFrom:    from,
		ValidTo:      to,
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
}

func (h *harness) paymentMethod(t *testing.T, code string, requiresProof, active bool) {
	t.Helper()
	_, err := paymentmethodrepo.Provide().Upsert(context.Background(), h.db, &paymentmethoddomain.PaymentMethod{
		ID:            h.node.Generate().Int64(),
		Name:          code,
		Code:          code,
		RequiresProof: requiresProof,
		Active:        active,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)
}

func (h *harness) order(t *testing.T, lines ...domain.LineRequest) *domain.Order {
	t.Helper()
	order, err := h.svc.Create(context.Background(), checkout(lines...))
	require.NoError(t, err)
	return order
}

func (h *harness) transition(t *testing.T, order *domain.Order, status domain.Status) *domain.Order {
	t.Helper()
	updated, err := h.svc.Transition(context.Background(), domain.TransitionRequest{
		OrderID: idOf(order),
		Status:  string(status),
	})
	require.NoError(t, err)
	return updated
}

func (h *harness) noteCount(t *testing.T, order *domain.Order) int64 {
	t.Helper()
	return storetest.Count(t, h.db, `SELECT COUNT(*) FROM order_notes WHERE order_id = ?`, order.ID)
}

func checkout(lines ...domain.LineRequest) domain.CreateRequest {
	return domain.CreateRequest{
		Customer: domain.Customer{
			Name:    "Amy Chan",
			Email:   "amy@example.com",
			Phone:   "+852 5555 0000",
			Address: "1 Queen's Road, Central",
		},
		Lines: lines,
	}
}

func item(productID string, qty int64) domain.LineRequest {
	return domain.LineRequest{ProductID: productID, Quantity: qty}
}

func idOf(order *domain.Order) string {
	return snowflake.ID(order.ID).String()
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
