package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/product/repository"
	"github.com/smallbiznis/storefront/internal/product/service"
	"github.com/smallbiznis/storefront/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var createdAt = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func newService(t *testing.T) domain.Service {
	t.Helper()
	svc, _ := newServiceWithClock(t)
	return svc
}

func newServiceWithClock(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(createdAt)
	db := storetest.Open(t)
	return service.New(service.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: storetest.Node(t),
		Clock: clk,
		Repo:  repository.Provide(),
	}), clk
}

func TestCreateGeneratesUniqueSlugs(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	first, err := svc.Create(ctx, domain.CreateRequest{Name: "Jasmine Green Tea", SKU: "TEA-01", Price: decimal.RequireFromString("50")})
	require.NoError(t, err)
	assert.Equal(t, "jasmine-green-tea", first.Slug)

	second, err := svc.Create(ctx, domain.CreateRequest{Name: "Jasmine Green Tea", SKU: "TEA-02", Price: decimal.RequireFromString("55")})
	require.NoError(t, err)
	assert.Equal(t, "jasmine-green-tea-1", second.Slug)

	third, err := svc.Create(ctx, domain.CreateRequest{Name: "Jasmine Green Tea", SKU: "TEA-03", Price: decimal.RequireFromString("60")})
	require.NoError(t, err)
	assert.Equal(t, "jasmine-green-tea-2", third.Slug)
}

func TestCreateRejectsDuplicateSKU(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Create(ctx, domain.CreateRequest{Name: "Oolong", SKU: "TEA-01", Price: decimal.RequireFromString("80")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Oolong 2", SKU: "TEA-01", Price: decimal.RequireFromString("80")})
	assert.ErrorIs(t, err, domain.ErrSKUExists)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	cases := []struct {
		name string
		req  domain.CreateRequest
		want error
	}{
		{name: "missing name", req: domain.CreateRequest{SKU: "X", Price: decimal.NewFromInt(1)}, want: domain.ErrInvalidName},
		{name: "missing sku", req: domain.CreateRequest{Name: "X", Price: decimal.NewFromInt(1)}, want: domain.ErrInvalidSKU},
		{name: "sku too long", req: domain.CreateRequest{Name: "X", SKU: strings.Repeat("S", domain.MaxSKULength+1), Price: decimal.NewFromInt(1)}, want: domain.ErrInvalidSKU},
		{name: "negative price", req: domain.CreateRequest{Name: "X", SKU: "X", Price: decimal.NewFromInt(-1)}, want: domain.ErrInvalidPrice},
		{name: "negative stock", req: domain.CreateRequest{Name: "X", SKU: "X", Price: decimal.NewFromInt(1), Stock: -2}, want: domain.ErrInvalidStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEffectivePricePrefersDiscount(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	discount := decimal.RequireFromString("39.90")
	created, err := svc.Create(ctx, domain.CreateRequest{
		Name:          "Pu-erh",
		SKU:           "TEA-PU",
		Price:         decimal.RequireFromString("49.90"),
		DiscountPrice: &discount,
		Stock:         3,
	})
	require.NoError(t, err)
	assert.True(t, created.EffectivePrice.Equal(discount))

	updated, err := svc.Update(ctx, domain.UpdateRequest{ID: created.ID, ClearDiscount: true})
	require.NoError(t, err)
	assert.Nil(t, updated.DiscountPrice)
	assert.True(t, updated.EffectivePrice.Equal(decimal.RequireFromString("49.90")))
}

func TestDuplicateAddsCopySuffix(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	src, err := svc.Create(ctx, domain.CreateRequest{Name: "Earl Grey", SKU: "TEA-EG", Price: decimal.NewFromInt(30), Stock: 7})
	require.NoError(t, err)

	dup, err := svc.Duplicate(ctx, src.ID)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, "earl-grey-copy", dup.Slug)
	assert.Equal(t, "TEA-EG-copy", dup.SKU)
	assert.Equal(t, int64(7), dup.Stock)

	again, err := svc.Duplicate(ctx, src.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(again.Slug, "earl-grey-copy-"))
	assert.True(t, strings.HasPrefix(again.SKU, "TEA-EG-copy-"))
	assert.Len(t, strings.TrimPrefix(again.SKU, "TEA-EG-copy-"), 4)
}

func TestTimestampsFollowClock(t *testing.T) {
	ctx := context.Background()
	svc, clk := newServiceWithClock(t)

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Sencha", SKU: "TEA-S", Price: decimal.NewFromInt(40)})
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(createdAt))
	assert.True(t, created.UpdatedAt.Equal(createdAt))

	clk.Advance(time.Hour)
	name := "Sencha Select"
	updated, err := svc.Update(ctx, domain.UpdateRequest{ID: created.ID, Name: &name})
	require.NoError(t, err)
	assert.True(t, updated.CreatedAt.Equal(createdAt))
	assert.True(t, updated.UpdatedAt.Equal(createdAt.Add(time.Hour)))

	clk.Advance(time.Hour)
	dup, err := svc.Duplicate(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, dup.CreatedAt.Equal(createdAt.Add(2*time.Hour)))
}

func TestGeneratedKeysFitColumns(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	sku := strings.Repeat("K", domain.MaxSKULength)
	src, err := svc.Create(ctx, domain.CreateRequest{Name: strings.Repeat("long name ", 40), SKU: sku, Price: decimal.NewFromInt(5)})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(src.Slug), domain.MaxSlugLength)

	dup, err := svc.Duplicate(ctx, src.ID)
	require.NoError(t, err)
	assert.Len(t, dup.SKU, domain.MaxSKULength)
	assert.True(t, strings.HasSuffix(dup.SKU, "-copy"))
	assert.LessOrEqual(t, len(dup.Slug), domain.MaxSlugLength)
	assert.True(t, strings.HasSuffix(dup.Slug, "-copy"))

	again, err := svc.Duplicate(ctx, src.ID)
	require.NoError(t, err)
	assert.Len(t, again.SKU, domain.MaxSKULength)
	assert.NotEqual(t, dup.SKU, again.SKU)
}

func TestSetStock(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "Matcha", SKU: "TEA-M", Price: decimal.NewFromInt(120), Stock: 1})
	require.NoError(t, err)

	updated, err := svc.SetStock(ctx, created.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(25), updated.Stock)

	_, err = svc.SetStock(ctx, created.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidStock)

	_, err = svc.SetStock(ctx, "1234", 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Get(ctx, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	inactive := false
	_, err := svc.Create(ctx, domain.CreateRequest{Name: "Black Tea", SKU: "B1", Price: decimal.NewFromInt(10), Stock: 2})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRequest{Name: "White Tea", SKU: "W1", Price: decimal.NewFromInt(10), Stock: 50, Active: &inactive})
	require.NoError(t, err)

	low := int64(5)
	items, err := svc.List(ctx, domain.ListRequest{LowStock: &low})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "B1", items[0].SKU)

	items, err = svc.List(ctx, domain.ListRequest{Active: &inactive})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "W1", items[0].SKU)

	items, err = svc.List(ctx, domain.ListRequest{Name: "tea"})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
