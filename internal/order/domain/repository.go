package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ListFilter struct {
	Status *Status
	Email  string
	UserID *int64
	Limit  int
	Offset int
}

type Repository interface {
	// Insert returns ErrDuplicateOrderNumber when the number is taken.
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []OrderItem) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Order, error)
	// FindByIDForUpdate locks the order row until the transaction ends.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id int64) (*Order, error)
	FindByNumber(ctx context.Context, db *gorm.DB, number string) (*Order, error)
	ListItems(ctx context.Context, db *gorm.DB, orderID int64) ([]OrderItem, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Order, int64, error)
	// CompareAndSetStatus writes to only when the stored status is still from.
	CompareAndSetStatus(ctx context.Context, db *gorm.DB, id int64, from, to Status, at time.Time) (int64, error)

	InsertNote(ctx context.Context, db *gorm.DB, note *OrderNote) error
	FindNoteByID(ctx context.Context, db *gorm.DB, id int64) (*OrderNote, error)
	ListNotes(ctx context.Context, db *gorm.DB, orderID int64) ([]OrderNote, error)
	DeleteNote(ctx context.Context, db *gorm.DB, id int64) (int64, error)
}
