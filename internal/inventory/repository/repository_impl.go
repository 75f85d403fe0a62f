package repository

import (
	"context"

	"github.com/smallbiznis/storefront/internal/inventory/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) AdjustStock(ctx context.Context, db *gorm.DB, productID int64, delta int64) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock + ? WHERE id = ?`,
		delta,
		productID,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) DecrementAvailable(ctx context.Context, db *gorm.DB, productID int64, qty int64) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`,
		qty,
		productID,
		qty,
	)
	return result.RowsAffected, result.Error
}
