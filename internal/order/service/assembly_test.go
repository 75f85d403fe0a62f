package service_test

import (
	"context"
	"testing"
	"time"

	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	"github.com/smallbiznis/storefront/internal/order/domain"
	paymentmethoddomain "github.com/smallbiznis/storefront/internal/paymentmethod/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTotalsAndAllocates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tea := h.product(t, storetest.ProductSeed{Name: "Oolong", SKU: "TEA-01", Price: "50", Stock: 10})
	cup := h.product(t, storetest.ProductSeed{Name: "Cup", SKU: "CUP-01", Price: "30", DiscountPrice: "25.50", Stock: 4})
	h.coupon(t, "TEN", coupondomain.DiscountPercent, "10", now.Add(-time.Hour), now.Add(time.Hour), true)

	req := checkout(item(tea, 2), item(cup, 1))
	req.CouponCode = "ten"
	order, err := h.svc.Create(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCreated, order.Status)
	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[0].Subtotal.Equal(dec("100")))
	assert.True(t, order.Items[1].UnitPrice.Equal(dec("25.50")), "discount price is frozen")
	assert.True(t, order.DiscountAmount.Equal(dec("12.55")))
	assert.True(t, order.TotalAmount.Equal(order.Subtotal().Sub(order.DiscountAmount)))
	assert.True(t, order.TotalAmount.Equal(dec("112.95")))
	require.NotNil(t, order.CouponID)

	assert.Equal(t, int64(8), h.stock(t, tea))
	assert.Equal(t, int64(3), h.stock(t, cup))

	stored, err := h.svc.GetByNumber(ctx, order.OrderNumber)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(dec("112.95")))
	assert.Len(t, stored.Items, 2)

	events := h.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventOrderCreated, events[0].Type)
	assert.Equal(t, order.OrderNumber, events[0].OrderNumber)
}

func TestCreateFreezesUnitPrice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tea := h.product(t, storetest.ProductSeed{Name: "Oolong", SKU: "TEA-01", Price: "50", Stock: 10})
	order := h.order(t, item(tea, 1))

	require.NoError(t, h.db.Exec(`UPDATE products SET price = ?, discount_price = ? WHERE sku = ?`, dec("80"), dec("70"), "TEA-01").Error)
	require.NoError(t, h.db.Exec(`UPDATE products SET name = ? WHERE sku = ?`, "Renamed", "TEA-01").Error)

	stored, err := h.svc.Get(ctx, idOf(order))
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.True(t, stored.Items[0].UnitPrice.Equal(dec("50")))
	assert.Equal(t, "Oolong", stored.Items[0].ProductName)
	assert.True(t, stored.TotalAmount.Equal(dec("50")))
}

func TestCreateMergesRepeatedProducts(t *testing.T) {
	h := newHarness(t)
	tea := h.product(t, storetest.ProductSeed{Name: "Oolong", SKU: "TEA-01", Price: "10", Stock: 5})

	order := h.order(t, item(tea, 2), item(tea, 3))
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(5), order.Items[0].Quantity)
	assert.Equal(t, int64(0), h.stock(t, tea))
}

func TestCreateRejectsUnavailableProducts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tea := h.product(t, storetest.ProductSeed{Name: "Oolong", SKU: "TEA-01", Price: "10", Stock: 5})
	scarce := h.product(t, storetest.ProductSeed{Name: "Rare", SKU: "TEA-02", Price: "10", Stock: 1})
	hidden := h.product(t, storetest.ProductSeed{Name: "Hidden", SKU: "TEA-03", Price: "10", Stock: 9, Inactive: true})

	_, err := h.svc.Create(ctx, checkout(item(tea, 2), item(scarce, 2)))
	assert.ErrorIs(t, err, domain.ErrProductUnavailable)

	_, err = h.svc.Create(ctx, checkout(item(hidden, 1)))
	assert.ErrorIs(t, err, domain.ErrProductUnavailable)

	_, err = h.svc.Create(ctx, checkout(item("123456", 1)))
	assert.ErrorIs(t, err, domain.ErrProductUnavailable)

	assert.Equal(t, int64(5), h.stock(t, tea), "no partial allocation")
	assert.Zero(t, storetest.Count(t, h.db, `SELECT COUNT(*) FROM orders`))
	assert.Zero(t, storetest.Count(t, h.db, `SELECT COUNT(*) FROM order_items`))
	assert.Empty(t, h.notifier.Events())
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tea := h.product(t, storetest.ProductSeed{Name: "Oolong", SKU: "TEA-01", Price: "10", Stock: 5})

	cases := []struct {
		name   string
		mutate func(*domain.CreateRequest)
		want   error
	}{
		{name: "no items", mutate: func(r *domain.CreateRequest) { r.Lines = nil }, want: domain.ErrEmptyOrder},
		{name: "zero quantity", mutate: func(r *domain.CreateRequest) { r.Lines[0].Quantity = 0 }, want: domain.ErrInvalidQuantity},
		{name: "negative quantity", mutate: func(r *domain.CreateRequest) { r.Lines[0].Quantity = -3 }, want: domain.ErrInvalidQuantity},
		{name: "bad product id", mutate: func(r *domain.CreateRequest) { r.Lines[0].ProductID = "tea" }, want: domain.ErrInvalidID},
		{name: "missing name", mutate: func(r *domain.CreateRequest) { r.Customer.Name = " " }, want: domain.ErrInvalidCustomer},
		{name: "missing address", mutate: func(r *domain.CreateRequest) { r.Customer.Address = "" }, want: domain.ErrInvalidCustomer},
		{name: "bad email", mutate: func(r *domain.CreateRequest) { r.Customer.Email = "amy at example" }, want: domain.ErrInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := checkout(item(tea, 1))
			tc.mutate(&req)
			_, err := h.svc.Create(ctx, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateCouponRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tea := h.product(t, storetest.ProductSeed{Name: "Oolong", SKU: "TEA-01", Price: "10", Stock: 50})

	h.coupon(t, "OFF", coupondomain.DiscountFixed, "5", now.Add(-time.Hour), now.Add(time.Hour), false)
	h.coupon(t, "OLD", coupondomain.DiscountFixed, "5", now.Add(-48*time.Hour), now.Add(-24*time.Hour), true)
	h.coupon(t, "SOON", coupondomain.DiscountFixed, "5", now.Add(time.Hour), now.Add(48*time.Hour), true)
	h.coupon(t, "EDGE", coupondomain.DiscountFixed, "5", now.Add(-time.Hour), now, true)

	cases := map[string]error{
		"MISSING": coupondomain.ErrCouponNotFound,
		"OFF":     coupondomain.ErrCouponInactive,
		"OLD":     coupondomain.ErrCouponExpired,
		"SOON":    coupondomain.ErrCouponNotYetValid,
		"EDGE":    nil,
	}
	for code, want := range cases {
		t.Run(code, func(t *testing.T) {
			req := checkout(item(tea, 1))
			req.CouponCode = code
			_, err := h.svc.Create(ctx, req)
			if want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, want)
		})
	}

	assert.Equal(t, int64(1), storetest.Count(t, h.db, `SELECT COUNT(*) FROM orders`))
	assert.Equal(t, int64(49), h.stock(t, tea))
}

func TestCreateFixedCouponCanExceedSubtotal(t *testing.T) {
	h := newHarness(t)
	tea := h.product(t, storetest.ProductSeed{Name: "Oolong", SKU: "TEA-01", Price: "10", Stock: 5})
	h.coupon(t, "BIG", coupondomain.DiscountFixed, "15", now.Add(-time.Hour), now.Add(time.Hour), true)

	req := checkout(item(tea, 1))
	req.CouponCode = "BIG"
	order, err := h.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, order.DiscountAmount.Equal(dec("15")))
	assert.True(t, order.TotalAmount.Equal(dec("-5")))
}

func TestCreatePaymentMethodRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tea := h.product(t, storetest.ProductSeed{Name: "Oolong", SKU: "TEA-01", Price: "10", Stock: 50})

	h.paymentMethod(t, "fps", true, true)
	h.paymentMethod(t, "cod", false, true)
	h.paymentMethod(t, "payme", true, false)

	req := checkout(item(tea, 1))
	req.PaymentMethodCode = "fps"
	_, err := h.svc.Create(ctx, req)
	assert.ErrorIs(t, err, paymentmethoddomain.ErrPaymentProofRequired)

	req.PaymentProof = "proofs/2024/03/slip.jpg"
	order, err := h.svc.Create(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, order.PaymentProof)
	assert.Equal(t, "proofs/2024/03/slip.jpg", *order.PaymentProof)
	require.NotNil(t, order.PaymentMethodID)

	req = checkout(item(tea, 1))
	req.PaymentMethodCode = "cod"
	_, err = h.svc.Create(ctx, req)
	assert.NoError(t, err)

	req.PaymentMethodCode = "payme"
	req.PaymentProof = "x"
	_, err = h.svc.Create(ctx, req)
	assert.ErrorIs(t, err, paymentmethoddomain.ErrPaymentMethodInactive)

	req.PaymentMethodCode = "bitcoin"
	_, err = h.svc.Create(ctx, req)
	assert.ErrorIs(t, err, paymentmethoddomain.ErrPaymentMethodNotFound)
}

func TestCreateWithoutAllocation(t *testing.T) {
	backorder := func(p productdomain.Product, qty int64) error {
		if !p.Active {
			return domain.ErrProductUnavailable
		}
		return nil
	}
	h := newHarness(t, withoutAllocation(), withStockChecker(backorder))
	tea := h.product(t, storetest.ProductSeed{Name: "Oolong", SKU: "TEA-01", Price: "10", Stock: 1})

	order := h.order(t, item(tea, 3))
	assert.True(t, order.TotalAmount.Equal(dec("30")))
	assert.Equal(t, int64(1), h.stock(t, tea))
}

func TestCreateRecordsContext(t *testing.T) {
	h := newHarness(t)
	tea := h.product(t, storetest.ProductSeed{Name: "Oolong", SKU: "TEA-01", Price: "10", Stock: 1})

	userID := int64(42)
	req := checkout(item(tea, 1))
	req.UserID = &userID
	req.IPAddress = "203.0.113.7"
	req.Notes = "  leave at the door "
	order, err := h.svc.Create(context.Background(), req)
	require.NoError(t, err)

	stored, err := h.svc.Get(context.Background(), idOf(order))
	require.NoError(t, err)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, int64(42), *stored.UserID)
	require.NotNil(t, stored.IPAddress)
	assert.Equal(t, "203.0.113.7", *stored.IPAddress)
	assert.Equal(t, "leave at the door", stored.Notes)
	assert.Regexp(t, `^ORD-20240301-[0-9A-Z]{10}$`, stored.OrderNumber)
}
