package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/authorization"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	couponrepo "github.com/smallbiznis/storefront/internal/coupon/repository"
	couponservice "github.com/smallbiznis/storefront/internal/coupon/service"
	inventoryrepo "github.com/smallbiznis/storefront/internal/inventory/repository"
	inventoryservice "github.com/smallbiznis/storefront/internal/inventory/service"
	"github.com/smallbiznis/storefront/internal/notification"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	orderrepo "github.com/smallbiznis/storefront/internal/order/repository"
	orderservice "github.com/smallbiznis/storefront/internal/order/service"
	paymentmethodrepo "github.com/smallbiznis/storefront/internal/paymentmethod/repository"
	paymentmethodservice "github.com/smallbiznis/storefront/internal/paymentmethod/service"
	productrepo "github.com/smallbiznis/storefront/internal/product/repository"
	productservice "github.com/smallbiznis/storefront/internal/product/service"
	"github.com/smallbiznis/storefront/internal/providers/pdf"
	reportingrepo "github.com/smallbiznis/storefront/internal/reporting/repository"
	reportingservice "github.com/smallbiznis/storefront/internal/reporting/service"
	"github.com/smallbiznis/storefront/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const testAdminToken = "s3cret"

var testNow = time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

type recordingAlerter struct {
	mu     sync.Mutex
	events []notification.LoginEvent
}

func (r *recordingAlerter) AdminLogin(_ context.Context, event notification.LoginEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

type testServer struct {
	srv    *Server
	db     *gorm.DB
	node   *snowflake.Node
	alerts *recordingAlerter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := storetest.Open(t)
	node := storetest.Node(t)
	clk := clock.NewFakeClock(testNow)
	log := zaptest.NewLogger(t)

	var cfg config.Config
	cfg.AdminToken = testAdminToken
	cfg.Checkout.DeductStock = true
	cfg.Checkout.MaxNumberAttempts = 5
	cfg.Checkout.PaymentCacheTTL = 60
	settings := config.DefaultStoreSettings()

	paymentMethods := paymentmethodservice.New(paymentmethodservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Cfg: cfg, Repo: paymentmethodrepo.Provide(),
	})
	require.NoError(t, paymentMethods.EnsureDefaults(context.Background()))

	orders := orderservice.New(orderservice.Params{
		DB:             db,
		Log:            log,
		GenID:          node,
		Clock:          clk,
		Cfg:            cfg,
		Settings:       settings,
		Repo:           orderrepo.Provide(),
		Products:       productrepo.Provide(),
		Coupons:        couponrepo.Provide(),
		PaymentMethods: paymentmethodrepo.Provide(),
		Inventory:      inventoryservice.New(inventoryservice.Params{Log: log, Repo: inventoryrepo.Provide()}),
		PDF:            pdf.New(),
	})

	enforcer, err := authorization.NewEnforcer(db)
	require.NoError(t, err)

	alerts := &recordingAlerter{}
	srv := &Server{
		engine:           gin.New(),
		cfg:              cfg,
		settings:         settings,
		clock:            clk,
		productSvc:       productservice.New(productservice.Params{DB: db, Log: log, GenID: node, Clock: clk, Repo: productrepo.Provide()}),
		couponSvc:        couponservice.New(couponservice.Params{DB: db, Log: log, GenID: node, Clock: clk, Repo: couponrepo.Provide()}),
		paymentMethodSvc: paymentMethods,
		orderSvc:         orders,
		reportingSvc:     reportingservice.New(reportingservice.Params{DB: db, Log: log, Clock: clk, Repo: reportingrepo.Provide()}),
		loginAlerts:      alerts,
		authzSvc:         authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer}),
	}
	srv.engine.Use(ErrorHandlingMiddleware())
	srv.registerPublicRoutes()
	srv.registerAdminRoutes()
	srv.registerInternalRoutes()

	return &testServer{srv: srv, db: db, node: node, alerts: alerts}
}

func (ts *testServer) do(t *testing.T, method, path, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("Authorization", "Bearer "+testAdminToken)
	}
	resp := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(resp, req)
	return resp
}

func (ts *testServer) product(t *testing.T, sku string, stock int64) string {
	t.Helper()
	id := storetest.SeedProduct(t, ts.db, ts.node, storetest.ProductSeed{Name: "Tea " + sku, SKU: sku, Price: "40", Stock: stock})
	return snowflake.ID(id).String()
}

func (ts *testServer) stock(t *testing.T, productID string) int64 {
	t.Helper()
	id, err := snowflake.ParseString(productID)
	require.NoError(t, err)
	return storetest.Stock(t, ts.db, id.Int64())
}

func decodeOrder(t *testing.T, resp *httptest.ResponseRecorder) orderdomain.Order {
	t.Helper()
	var body struct {
		Data orderdomain.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body.Data
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body.Error
}

func checkoutBody(productID string, qty int64, extra string) string {
	body := `{"customer":{"name":"Amy Chan","email":"amy@example.com","address":"1 Queen's Road"},` +
		`"items":[{"product_id":"` + productID + `","quantity":` + decimal.NewFromInt(qty).String() + `}]`
	if extra != "" {
		body += "," + extra
	}
	return body + "}"
}

func TestAdminRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/admin/orders", "", false)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "unauthorized", decodeError(t, resp).Type)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	wrong := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(wrong, req)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)

	resp = ts.do(t, http.MethodGet, "/admin/orders", "", true)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAdminRoutesLockedWithoutConfiguredToken(t *testing.T) {
	ts := newTestServer(t)
	ts.srv.cfg.AdminToken = ""

	resp := ts.do(t, http.MethodGet, "/admin/orders", "", true)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminRolesAreEnforced(t *testing.T) {
	ts := newTestServer(t)

	call := func(method, path, role string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+testAdminToken)
		req.Header.Set(HeaderActor, "7")
		req.Header.Set(HeaderActorRole, role)
		resp := httptest.NewRecorder()
		ts.srv.Engine().ServeHTTP(resp, req)
		return resp
	}

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/admin/orders", "staff").Code)

	denied := call(http.MethodGet, "/admin/reports/sales", "staff")
	assert.Equal(t, http.StatusForbidden, denied.Code)
	assert.Equal(t, "forbidden", decodeError(t, denied).Type)

	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/admin/reports/sales", "superuser").Code)

	unknown := call(http.MethodGet, "/admin/orders", "owner")
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, "invalid_role", decodeError(t, unknown).Errors[0].Code)
}

func TestCheckoutPlacesOrder(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.product(t, "OOL", 5)

	resp := ts.do(t, http.MethodPost, "/api/checkout", checkoutBody(productID, 2, ""), false)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	order := decodeOrder(t, resp)
	assert.Equal(t, orderdomain.StatusCreated, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(80)))
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(3), ts.stock(t, productID))

	lookup := ts.do(t, http.MethodGet, "/api/orders/"+order.OrderNumber+"?email=AMY@example.com", "", false)
	require.Equal(t, http.StatusOK, lookup.Code)
	assert.Contains(t, lookup.Body.String(), order.OrderNumber)
	assert.NotContains(t, lookup.Body.String(), "ip_address")

	other := ts.do(t, http.MethodGet, "/api/orders/"+order.OrderNumber+"?email=eve@example.com", "", false)
	assert.Equal(t, http.StatusNotFound, other.Code)
}

func TestCheckoutErrors(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.product(t, "PU", 1)

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "malformed", body: `{"items":`, status: http.StatusBadRequest, code: "invalid_request"},
		{name: "no items", body: `{"customer":{"name":"Amy","email":"amy@example.com","address":"x"},"items":[]}`, status: http.StatusBadRequest, code: "empty_order"},
		{name: "zero quantity", body: checkoutBody(productID, 0, ""), status: http.StatusBadRequest, code: "invalid_quantity"},
		{name: "insufficient stock", body: checkoutBody(productID, 2, ""), status: http.StatusUnprocessableEntity, code: "product_unavailable"},
		{name: "proof required", body: checkoutBody(productID, 1, `"payment_method":"bank_transfer"`), status: http.StatusUnprocessableEntity, code: "payment_proof_required"},
		{name: "unknown coupon", body: checkoutBody(productID, 1, `"coupon_code":"NOPE"`), status: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/checkout", tc.body, false)
			require.Equal(t, tc.status, resp.Code, resp.Body.String())
			if tc.code == "" {
				return
			}
			payload := decodeError(t, resp)
			if payload.Code != "" {
				assert.Equal(t, tc.code, payload.Code)
			} else {
				require.NotEmpty(t, payload.Errors)
				assert.Equal(t, tc.code, payload.Errors[0].Code)
			}
		})
	}

	assert.Equal(t, int64(1), ts.stock(t, productID), "failed checkouts leave stock untouched")
}

func TestTransitionRestocksOnCancel(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.product(t, "EG", 4)

	created := decodeOrder(t, ts.do(t, http.MethodPost, "/api/checkout", checkoutBody(productID, 3, ""), false))
	require.Equal(t, int64(1), ts.stock(t, productID))
	orderID := snowflake.ID(created.ID).String()

	req := httptest.NewRequest(http.MethodPatch, "/admin/orders/"+orderID+"/status", strings.NewReader(`{"status":"canceled"}`))
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	req.Header.Set(HeaderActor, "77")
	resp := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, orderdomain.StatusCanceled, decodeOrder(t, resp).Status)
	assert.Equal(t, int64(4), ts.stock(t, productID))

	notes := ts.do(t, http.MethodGet, "/admin/orders/"+orderID+"/notes", "", true)
	require.Equal(t, http.StatusOK, notes.Code)
	assert.Contains(t, notes.Body.String(), `"actor_id"`)

	bad := ts.do(t, http.MethodPatch, "/admin/orders/"+orderID+"/status", `{"status":"teleported"}`, true)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	missing := ts.do(t, http.MethodPatch, "/admin/orders/1234/status", `{"status":"paid"}`, true)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestOrderNotesLifecycle(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.product(t, "GEN", 10)
	created := decodeOrder(t, ts.do(t, http.MethodPost, "/api/checkout", checkoutBody(productID, 1, ""), false))
	orderID := snowflake.ID(created.ID).String()

	resp := ts.do(t, http.MethodPost, "/admin/orders/"+orderID+"/notes", `{"message":"packed","is_customer_note":false}`, true)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var body struct {
		Data orderdomain.OrderNote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	noteID := snowflake.ID(body.Data.ID).String()

	empty := ts.do(t, http.MethodPost, "/admin/orders/"+orderID+"/notes", `{"message":"  "}`, true)
	assert.Equal(t, http.StatusBadRequest, empty.Code)

	del := ts.do(t, http.MethodDelete, "/admin/notes/"+noteID, "", true)
	assert.Equal(t, http.StatusNoContent, del.Code)

	again := ts.do(t, http.MethodDelete, "/admin/notes/"+noteID, "", true)
	assert.Equal(t, http.StatusNotFound, again.Code)
}

func TestDownloadReceipt(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.product(t, "SEN", 10)
	created := decodeOrder(t, ts.do(t, http.MethodPost, "/api/checkout", checkoutBody(productID, 2, ""), false))

	resp := ts.do(t, http.MethodGet, "/admin/orders/"+snowflake.ID(created.ID).String()+"/receipt.pdf", "", true)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")))
}

func TestPublicPaymentMethods(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/payment-methods", "", false)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"bank_transfer"`)
	assert.Equal(t, "public, max-age=60", resp.Header().Get("Cache-Control"))

	off := ts.do(t, http.MethodPatch, "/admin/payment-methods/bank_transfer", `{"active":false}`, true)
	require.Equal(t, http.StatusOK, off.Code, off.Body.String())

	resp = ts.do(t, http.MethodGet, "/api/payment-methods", "", false)
	assert.NotContains(t, resp.Body.String(), `"bank_transfer"`)
}

func TestValidateCoupon(t *testing.T) {
	ts := newTestServer(t)

	created := ts.do(t, http.MethodPost, "/admin/coupons", `{"code":"tea10","discount_type":"percent","discount":"10",`+
		`"valid_from":"2024-05-01T00:00:00Z","valid_to":"2024-05-31T23:59:59Z"}`, true)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	resp := ts.do(t, http.MethodGet, "/api/coupons/TEA10/validate?total=50", "", false)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"discount_amount":"5"`)

	missing := ts.do(t, http.MethodGet, "/api/coupons/NOPE/validate?total=50", "", false)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	badTotal := ts.do(t, http.MethodGet, "/api/coupons/TEA10/validate?total=abc", "", false)
	assert.Equal(t, http.StatusBadRequest, badTotal.Code)
}

func TestSalesReportValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/admin/reports/sales?period=7days", "", true)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"daily_trend"`)

	bad := ts.do(t, http.MethodGet, "/admin/reports/sales?period=decade", "", true)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	noCustomer := ts.do(t, http.MethodGet, "/admin/reports/customers", "", true)
	assert.Equal(t, http.StatusBadRequest, noCustomer.Code)
}

func TestAuthEventRaisesAlert(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/internal/auth-events", `{"username":"root","email":"root@example.com","is_superuser":true,"ip":"10.0.0.1"}`, true)
	require.Equal(t, http.StatusAccepted, resp.Code)
	require.Len(t, ts.alerts.events, 1)
	assert.Equal(t, testNow, ts.alerts.events[0].At)

	resp = ts.do(t, http.MethodPost, "/internal/auth-events", `{"username":" "}`, true)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.do(t, http.MethodPost, "/internal/auth-events", `{"username":"root"}`, false)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthEventRejectsHeaderBreaks(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/internal/auth-events",
		`{"username":"bob\r\nBcc: attacker@evil.test","is_superuser":true}`, true)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.do(t, http.MethodPost, "/internal/auth-events",
		`{"username":"bob","email":"bob@example.com\nBcc: attacker@evil.test","is_superuser":true}`, true)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	assert.Empty(t, ts.alerts.events)
}

func TestCheckoutRateLimitDisabledPassesThrough(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.product(t, "DH", 3)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(checkoutBody(productID, 1, "")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderIdempotencyKey, "abc")
	resp := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(resp, req)
	assert.Equal(t, http.StatusCreated, resp.Code)
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		typ    string
	}{
		{err: orderdomain.ErrConcurrentTransition, status: http.StatusConflict, typ: "conflict"},
		{err: orderdomain.ErrProductUnavailable, status: http.StatusUnprocessableEntity, typ: "unprocessable"},
		{err: orderdomain.ErrNotFound, status: http.StatusNotFound, typ: "not_found"},
		{err: orderdomain.ErrInvalidStatus, status: http.StatusBadRequest, typ: "validation_error"},
		{err: ErrRateLimited, status: http.StatusTooManyRequests, typ: "rate_limited"},
		{err: ErrDuplicateRequest, status: http.StatusConflict, typ: "conflict"},
		{err: gorm.ErrInvalidDB, status: http.StatusInternalServerError, typ: "internal_error"},
	}
	for _, tc := range cases {
		status, payload := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.typ, payload.Type, tc.err.Error())
	}

	typ, code := classifyErrorForLog(orderdomain.ErrEmptyOrder)
	assert.Equal(t, "validation_error", typ)
	assert.Equal(t, "empty_order", code)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", retryAfterSeconds(0))
	assert.Equal(t, "3", retryAfterSeconds(2100*time.Millisecond))
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken(""))
}
