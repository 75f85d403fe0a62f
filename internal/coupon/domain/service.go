package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Coupon, error)
	SetActive(ctx context.Context, id string, active bool) (*Coupon, error)
	List(ctx context.Context, activeOnly bool) ([]Coupon, error)
	// Preview validates a code against the current time and returns the
	// discount it would grant on total.
	Preview(ctx context.Context, code string, total decimal.Decimal) (*PreviewResponse, error)
}

type CreateRequest struct {
	Code         string          `json:"code"`
	Description  *string         `json:"description"`
	DiscountType string          `json:"discount_type"`
	Discount     decimal.Decimal `json:"discount"`
	ValidFrom    time.Time       `json:"valid_from"`
	ValidTo      time.Time       `json:"valid_to"`
	Active       *bool           `json:"active"`
}

type PreviewResponse struct {
	Code           string          `json:"code"`
	DiscountType   DiscountType    `json:"discount_type"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
}

var (
	ErrCouponNotFound      = errors.New("coupon_not_found")
	ErrCouponInactive      = errors.New("coupon_inactive")
	ErrCouponExpired       = errors.New("coupon_expired")
	ErrCouponNotYetValid   = errors.New("coupon_not_yet_valid")
	ErrInvalidCode         = errors.New("invalid_code")
	ErrInvalidDiscountType = errors.New("invalid_discount_type")
	ErrInvalidDiscount     = errors.New("invalid_discount")
	ErrInvalidWindow       = errors.New("invalid_window")
	ErrInvalidID           = errors.New("invalid_id")
	ErrCodeExists          = errors.New("code_exists")
)
