package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Product, error)
	SlugExists(ctx context.Context, db *gorm.DB, slug string, excludeID int64) (bool, error)
	SKUExists(ctx context.Context, db *gorm.DB, sku string) (bool, error)
	SetStock(ctx context.Context, db *gorm.DB, id int64, stock int64) (int64, error)
}
