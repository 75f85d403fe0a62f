package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, o *domain.Order) error {
	err := conn.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, order_number, status, user_id, customer_name, email, phone, address, ip_address, notes,
			coupon_id, payment_method_id, payment_proof, discount_amount, total_amount, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID,
		o.OrderNumber,
		o.Status,
		o.UserID,
		o.CustomerName,
		o.Email,
		o.Phone,
		o.Address,
		o.IPAddress,
		o.Notes,
		o.CouponID,
		o.PaymentMethodID,
		o.PaymentProof,
		o.DiscountAmount,
		o.TotalAmount,
		o.CreatedAt,
		o.UpdatedAt,
	).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicateOrderNumber
	}
	return err
}

func (r *repo) InsertItems(ctx context.Context, conn *gorm.DB, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return conn.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id int64) (*domain.Order, error) {
	return r.findOne(conn.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindByIDForUpdate(ctx context.Context, conn *gorm.DB, id int64) (*domain.Order, error) {
	return r.findOne(conn.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *repo) FindByNumber(ctx context.Context, conn *gorm.DB, number string) (*domain.Order, error) {
	return r.findOne(conn.WithContext(ctx).Where("order_number = ?", number))
}

func (r *repo) findOne(stmt *gorm.DB) (*domain.Order, error) {
	var o domain.Order
	if err := stmt.Limit(1).Find(&o).Error; err != nil {
		return nil, err
	}
	if o.ID == 0 {
		return nil, nil
	}
	return &o, nil
}

func (r *repo) ListItems(ctx context.Context, conn *gorm.DB, orderID int64) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := conn.WithContext(ctx).Raw(
		`SELECT id, order_id, product_id, product_name, sku, unit_price, quantity, subtotal
		 FROM order_items
		 WHERE order_id = ?
		 ORDER BY id ASC`,
		orderID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListFilter) ([]domain.Order, int64, error) {
	stmt := conn.WithContext(ctx).Model(&domain.Order{})
	if filter.Status != nil {
		stmt = stmt.Where("status = ?", *filter.Status)
	}
	if filter.Email != "" {
		stmt = stmt.Where("LOWER(email) = LOWER(?)", filter.Email)
	}
	if filter.UserID != nil {
		stmt = stmt.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := stmt.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []domain.Order
	err := stmt.
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repo) CompareAndSetStatus(ctx context.Context, conn *gorm.DB, id int64, from, to domain.Status, at time.Time) (int64, error) {
	result := conn.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to,
		at,
		id,
		from,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) InsertNote(ctx context.Context, conn *gorm.DB, note *domain.OrderNote) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO order_notes (id, order_id, user_id, message, is_customer_note, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.OrderID,
		note.UserID,
		note.Message,
		note.IsCustomerNote,
		note.Metadata,
		note.CreatedAt,
	).Error
}

func (r *repo) FindNoteByID(ctx context.Context, conn *gorm.DB, id int64) (*domain.OrderNote, error) {
	var note domain.OrderNote
	if err := conn.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&note).Error; err != nil {
		return nil, err
	}
	if note.ID == 0 {
		return nil, nil
	}
	return &note, nil
}

func (r *repo) ListNotes(ctx context.Context, conn *gorm.DB, orderID int64) ([]domain.OrderNote, error) {
	var notes []domain.OrderNote
	err := conn.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *repo) DeleteNote(ctx context.Context, conn *gorm.DB, id int64) (int64, error) {
	result := conn.WithContext(ctx).Exec(`DELETE FROM order_notes WHERE id = ?`, id)
	return result.RowsAffected, result.Error
}
