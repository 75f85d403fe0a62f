package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	SetStock(ctx context.Context, id string, stock int64) (*Response, error)
	Duplicate(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	Name     string
	Active   *bool
	LowStock *int64
}

type CreateRequest struct {
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	SKU           string           `json:"sku"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Stock         int64            `json:"stock"`
	Active        *bool            `json:"active"`
	Description   *string          `json:"description"`
}

type UpdateRequest struct {
	ID            string           `json:"-"`
	Name          *string          `json:"name"`
	Price         *decimal.Decimal `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	ClearDiscount bool             `json:"clear_discount"`
	Active        *bool            `json:"active"`
	Description   *string          `json:"description"`
}

type Response struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	SKU            string           `json:"sku"`
	Price          decimal.Decimal  `json:"price"`
	DiscountPrice  *decimal.Decimal `json:"discount_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	Stock          int64            `json:"stock"`
	Active         bool             `json:"active"`
	Description    *string          `json:"description,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidSKU   = errors.New("invalid_sku")
	ErrInvalidPrice = errors.New("invalid_price")
	ErrInvalidStock = errors.New("invalid_stock")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
	ErrSKUExists    = errors.New("sku_exists")
	ErrSlugExists   = errors.New("slug_exists")
)
