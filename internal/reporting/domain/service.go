package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	SalesSummary(ctx context.Context, req SalesRequest) (*SalesSummary, error)
	CustomerStats(ctx context.Context, req CustomerRequest) (*CustomerStats, error)
}

type SalesRequest struct {
	Period string
	// From and To are inclusive calendar days, used with the custom period.
	From *time.Time
	To   *time.Time
}

type CustomerRequest struct {
	UserID *int64
	Email  string
}

var (
	ErrInvalidPeriod   = errors.New("invalid_period")
	ErrInvalidRange    = errors.New("invalid_range")
	ErrInvalidCustomer = errors.New("invalid_customer")
)
