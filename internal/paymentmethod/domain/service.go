package domain

import (
	"context"
	"errors"
)

type Service interface {
	ListActive(ctx context.Context) ([]PaymentMethod, error)
	List(ctx context.Context) ([]PaymentMethod, error)
	GetByCode(ctx context.Context, code string) (*PaymentMethod, error)
	SetActive(ctx context.Context, code string, active bool) error
	EnsureDefaults(ctx context.Context) error
}

var (
	ErrPaymentMethodNotFound = errors.New("payment_method_not_found")
	ErrPaymentMethodInactive = errors.New("payment_method_inactive")
	ErrPaymentProofRequired  = errors.New("payment_proof_required")
	ErrInvalidCode           = errors.New("invalid_code")
)
