package repository

import (
	"context"

	"github.com/smallbiznis/storefront/internal/paymentmethod/domain"
	"gorm.io/gorm"
)

const methodColumns = `id, name, code, description, instructions, requires_proof, active, sort_order, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// Upsert keeps the existing id and active flag of a known code and rewrites
// its descriptive fields.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, m *domain.PaymentMethod) (bool, error) {
	existing, err := r.FindByCode(ctx, db, m.Code)
	if err != nil {
		return false, err
	}

	if existing != nil {
		m.ID = existing.ID
		m.Active = existing.Active
		m.CreatedAt = existing.CreatedAt
		err := db.WithContext(ctx).Exec(
			`UPDATE payment_methods
			 SET name = ?, description = ?, instructions = ?, requires_proof = ?, sort_order = ?, updated_at = ?
			 WHERE id = ?`,
			m.Name,
			m.Description,
			m.Instructions,
			m.RequiresProof,
			m.SortOrder,
			m.UpdatedAt,
			m.ID,
		).Error
		return false, err
	}

	err = db.WithContext(ctx).Exec(
		`INSERT INTO payment_methods (`+methodColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.Name,
		m.Code,
		m.Description,
		m.Instructions,
		m.RequiresProof,
		m.Active,
		m.SortOrder,
		m.CreatedAt,
		m.UpdatedAt,
	).Error
	return err == nil, err
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.PaymentMethod, error) {
	var m domain.PaymentMethod
	err := db.WithContext(ctx).Raw(
		`SELECT `+methodColumns+` FROM payment_methods WHERE id = ?`,
		id,
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.PaymentMethod, error) {
	var m domain.PaymentMethod
	err := db.WithContext(ctx).Raw(
		`SELECT `+methodColumns+` FROM payment_methods WHERE code = ?`,
		code,
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.PaymentMethod, error) {
	var items []domain.PaymentMethod
	stmt := db.WithContext(ctx).Model(&domain.PaymentMethod{})
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	if err := stmt.Order("sort_order ASC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, code string, active bool) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE payment_methods SET active = ?, updated_at = CURRENT_TIMESTAMP WHERE code = ?`,
		active,
		code,
	)
	return result.RowsAffected, result.Error
}
