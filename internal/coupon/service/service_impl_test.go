package service_test

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/coupon/domain"
	"github.com/smallbiznis/storefront/internal/coupon/repository"
	"github.com/smallbiznis/storefront/internal/coupon/service"
	"github.com/smallbiznis/storefront/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(now)
	return service.New(service.Params{
		DB:    storetest.Open(t),
		Log:   zap.NewNop(),
		GenID: storetest.Node(t),
		Clock: clk,
		Repo:  repository.Provide(),
	}), clk
}

func TestCreateNormalizesCode(t *testing.T) {
	svc, _ := newService(t)

	c, err := svc.Create(context.Background(), domain.CreateRequest{
		Code:         " summer10 ",
		DiscountType: "percent",
		Discount:     decimal.NewFromInt(10),
		ValidFrom:    now.Add(-time.Hour),
		ValidTo:      now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER10", c.Code)
	assert.True(t, c.Active)

	_, err = svc.Create(context.Background(), domain.CreateRequest{
		Code:         "Summer10",
		DiscountType: "fixed",
		Discount:     decimal.NewFromInt(5),
		ValidFrom:    now,
		ValidTo:      now,
	})
	assert.ErrorIs(t, err, domain.ErrCodeExists)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	base := domain.CreateRequest{Code: "X", DiscountType: "percent", Discount: decimal.NewFromInt(10), ValidFrom: now, ValidTo: now.Add(time.Hour)}

	bad := base
	bad.DiscountType = "bogo"
	_, err := svc.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidDiscountType)

	bad = base
	bad.Discount = decimal.NewFromInt(101)
	_, err = svc.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidDiscount)

	bad = base
	bad.ValidTo = now.Add(-time.Hour)
	_, err = svc.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)

	bad = base
	bad.Code = strings.Repeat("C", domain.MaxCodeLength+1)
	_, err = svc.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestPreview(t *testing.T) {
	svc, clk := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{
		Code:         "TEN",
		DiscountType: "percent",
		Discount:     decimal.NewFromInt(10),
		ValidFrom:    now.Add(-24 * time.Hour),
		ValidTo:      now.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	preview, err := svc.Preview(ctx, "ten", decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, preview.DiscountAmount.Equal(decimal.NewFromInt(10)))
	assert.True(t, preview.Total.Equal(decimal.NewFromInt(90)))

	_, err = svc.Preview(ctx, "missing", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, domain.ErrCouponNotFound)

	clk.Advance(48 * time.Hour)
	_, err = svc.Preview(ctx, "TEN", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, domain.ErrCouponExpired)
}

func TestCheckUsable(t *testing.T) {
	c := domain.Coupon{Active: true, ValidFrom: now, ValidTo: now.Add(time.Hour)}

	assert.NoError(t, c.CheckUsable(now), "window start is inclusive")
	assert.NoError(t, c.CheckUsable(now.Add(time.Hour)), "window end is inclusive")
	assert.ErrorIs(t, c.CheckUsable(now.Add(-time.Second)), domain.ErrCouponNotYetValid)
	assert.ErrorIs(t, c.CheckUsable(now.Add(time.Hour+time.Second)), domain.ErrCouponExpired)

	c.Active = false
	assert.ErrorIs(t, c.CheckUsable(now), domain.ErrCouponInactive)
}

func TestSetActive(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, domain.CreateRequest{Code: "OFF", DiscountType: "fixed", Discount: decimal.NewFromInt(5), ValidFrom: now, ValidTo: now.Add(time.Hour)})
	require.NoError(t, err)

	_, err = svc.SetActive(ctx, strconv.FormatInt(c.ID, 10), false)
	require.NoError(t, err)

	_, err = svc.Preview(ctx, "OFF", decimal.NewFromInt(20))
	assert.ErrorIs(t, err, domain.ErrCouponInactive)

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
}
