package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Service moves stock inside the caller's transaction. None of its methods
// are idempotent; callers decide when a movement is due.
type Service interface {
	Restock(ctx context.Context, tx *gorm.DB, lines []Line) error
	Deduct(ctx context.Context, tx *gorm.DB, lines []Line) error
	Allocate(ctx context.Context, tx *gorm.DB, lines []Line) error
}

var (
	ErrProductUnavailable = errors.New("product_unavailable")
	ErrProductNotFound    = errors.New("product_not_found")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
)
