package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Upsert inserts a method or updates the existing row with the same code.
	Upsert(ctx context.Context, db *gorm.DB, method *PaymentMethod) (created bool, err error)
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*PaymentMethod, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*PaymentMethod, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]PaymentMethod, error)
	SetActive(ctx context.Context, db *gorm.DB, code string, active bool) (int64, error)
}
