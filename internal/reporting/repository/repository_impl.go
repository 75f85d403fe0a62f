package repository

import (
	"context"

	"github.com/smallbiznis/storefront/internal/reporting/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) RevenueOrders(ctx context.Context, db *gorm.DB, rng domain.Range, statuses []string) ([]domain.RevenueOrder, error) {
	var rows []domain.RevenueOrder
	err := db.WithContext(ctx).Raw(
		`SELECT o.id, o.total_amount, o.created_at, pm.name AS payment_method
		 FROM orders o
		 LEFT JOIN payment_methods pm ON pm.id = o.payment_method_id
		 WHERE o.status IN ? AND o.created_at >= ? AND o.created_at < ?
		 ORDER BY o.created_at ASC`,
		statuses,
		rng.From,
		rng.To,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) TopProducts(ctx context.Context, db *gorm.DB, rng domain.Range, statuses []string, limit int) ([]domain.TopProduct, error) {
	var rows []domain.TopProduct
	err := db.WithContext(ctx).Raw(
		`SELECT oi.product_id, MAX(oi.product_name) AS product_name,
		        SUM(oi.quantity) AS quantity, SUM(oi.subtotal) AS revenue
		 FROM order_items oi
		 JOIN orders o ON o.id = oi.order_id
		 WHERE o.status IN ? AND o.created_at >= ? AND o.created_at < ?
		 GROUP BY oi.product_id
		 ORDER BY quantity DESC, oi.product_id ASC
		 LIMIT ?`,
		statuses,
		rng.From,
		rng.To,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) CountOrders(ctx context.Context, db *gorm.DB, filter domain.CustomerFilter, statuses []string) (int64, error) {
	var count int64
	err := customerScope(db.WithContext(ctx).Table("orders"), filter, statuses).Count(&count).Error
	return count, err
}

func (r *repo) CustomerRevenueOrders(ctx context.Context, db *gorm.DB, filter domain.CustomerFilter, statuses []string) ([]domain.RevenueOrder, error) {
	var rows []domain.RevenueOrder
	err := customerScope(db.WithContext(ctx).Table("orders"), filter, statuses).
		Select("id, total_amount, created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func customerScope(stmt *gorm.DB, filter domain.CustomerFilter, statuses []string) *gorm.DB {
	if filter.UserID != nil {
		stmt = stmt.Where("user_id = ?", *filter.UserID)
	} else {
		stmt = stmt.Where("LOWER(email) = LOWER(?)", filter.Email)
	}
	if len(statuses) > 0 {
		stmt = stmt.Where("status IN ?", statuses)
	}
	return stmt
}
