package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/storefront/internal/coupon/domain"
	"gorm.io/gorm"
)

const couponColumns = `id, code, description, discount_type, discount, valid_from, valid_to, active, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, c *domain.Coupon) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO coupons (`+couponColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Code,
		c.Description,
		string(c.DiscountType),
		c.Discount,
		c.ValidFrom,
		c.ValidTo,
		c.Active,
		c.CreatedAt,
		c.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, c *domain.Coupon) error {
	return db.WithContext(ctx).Exec(
		`UPDATE coupons
		 SET description = ?, discount_type = ?, discount = ?, valid_from = ?, valid_to = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		c.Description,
		string(c.DiscountType),
		c.Discount,
		c.ValidFrom,
		c.ValidTo,
		c.Active,
		c.UpdatedAt,
		c.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Coupon, error) {
	var c domain.Coupon
	err := db.WithContext(ctx).Raw(
		`SELECT `+couponColumns+` FROM coupons WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

// FindByCode matches codes case-insensitively.
func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := db.WithContext(ctx).Raw(
		`SELECT `+couponColumns+` FROM coupons WHERE UPPER(code) = ?`,
		strings.ToUpper(strings.TrimSpace(code)),
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.Coupon, error) {
	var items []domain.Coupon
	stmt := db.WithContext(ctx).Model(&domain.Coupon{})
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	if err := stmt.Order("valid_to DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
