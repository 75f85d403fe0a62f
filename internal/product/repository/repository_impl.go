package repository

import (
	"context"

	"github.com/smallbiznis/storefront/internal/product/domain"
	"gorm.io/gorm"
)

const productColumns = `id, name, slug, sku, price, discount_price, stock, active, description, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (`+productColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.Name,
		product.Slug,
		product.SKU,
		product.Price,
		product.DiscountPrice,
		product.Stock,
		product.Active,
		product.Description,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

// Update writes catalog fields only. Stock is owned by SetStock and the
// inventory ledger.
func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	if product == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE products
		 SET name = ?, price = ?, discount_price = ?, active = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		product.Name,
		product.Price,
		product.DiscountPrice,
		product.Active,
		product.Description,
		product.UpdatedAt,
		product.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products WHERE id IN ?`,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Product, error) {
	var items []domain.Product
	stmt := db.WithContext(ctx).Model(&domain.Product{})

	if filter.Name != "" {
		stmt = stmt.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}
	if filter.LowStock != nil {
		stmt = stmt.Where("stock <= ?", *filter.LowStock)
	}

	if err := stmt.Order("created_at DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) SlugExists(ctx context.Context, db *gorm.DB, slug string, excludeID int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM products WHERE slug = ? AND id <> ?`,
		slug,
		excludeID,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repo) SKUExists(ctx context.Context, db *gorm.DB, sku string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM products WHERE sku = ?`,
		sku,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repo) SetStock(ctx context.Context, db *gorm.DB, id int64, stock int64) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE products SET stock = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		stock,
		id,
	)
	return result.RowsAffected, result.Error
}
