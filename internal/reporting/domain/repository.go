package domain

import (
	"context"

	"gorm.io/gorm"
)

type CustomerFilter struct {
	UserID *int64
	Email  string
}

type Repository interface {
	RevenueOrders(ctx context.Context, db *gorm.DB, r Range, statuses []string) ([]RevenueOrder, error)
	TopProducts(ctx context.Context, db *gorm.DB, r Range, statuses []string, limit int) ([]TopProduct, error)
	CountOrders(ctx context.Context, db *gorm.DB, filter CustomerFilter, statuses []string) (int64, error)
	CustomerRevenueOrders(ctx context.Context, db *gorm.DB, filter CustomerFilter, statuses []string) ([]RevenueOrder, error)
}
