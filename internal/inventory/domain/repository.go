package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// AdjustStock adds delta to the product's stock in a single statement.
	AdjustStock(ctx context.Context, db *gorm.DB, productID int64, delta int64) (int64, error)
	// DecrementAvailable subtracts qty only when at least qty is in stock.
	DecrementAvailable(ctx context.Context, db *gorm.DB, productID int64, qty int64) (int64, error)
}
