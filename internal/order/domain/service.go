package domain

import (
	"context"
	"errors"
	"io"

	inventorydomain "github.com/smallbiznis/storefront/internal/inventory/domain"
	"github.com/smallbiznis/storefront/internal/pricing"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Order, error)
	Transition(ctx context.Context, req TransitionRequest) (*Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)

	AddNote(ctx context.Context, req AddNoteRequest) (*OrderNote, error)
	ListNotes(ctx context.Context, orderID string) ([]OrderNote, error)
	DeleteNote(ctx context.Context, noteID string) error

	Receipt(ctx context.Context, orderID string) (io.Reader, error)
}

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type LineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type CreateRequest struct {
	Customer          Customer      `json:"customer"`
	Lines             []LineRequest `json:"items"`
	CouponCode        string        `json:"coupon_code"`
	PaymentMethodCode string        `json:"payment_method"`
	PaymentProof      string        `json:"payment_proof"`
	Notes             string        `json:"notes"`
	UserID            *int64        `json:"-"`
	IPAddress         string        `json:"-"`
}

type TransitionRequest struct {
	OrderID string `json:"-"`
	Status  string `json:"status"`
	ActorID *int64 `json:"-"`
}

type ListRequest struct {
	Status   string
	Email    string
	UserID   *int64
	Page     int
	PageSize int
}

type ListResponse struct {
	Orders   []Order             `json:"orders"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type AddNoteRequest struct {
	OrderID        string `json:"-"`
	Message        string `json:"message"`
	IsCustomerNote bool   `json:"is_customer_note"`
	UserID         *int64 `json:"-"`
}

// StockChecker decides whether a product can be sold in the requested
// quantity. It returns nil when the line may proceed.
type StockChecker func(p productdomain.Product, quantity int64) error

// DefaultStockChecker requires an active product with enough stock.
func DefaultStockChecker(p productdomain.Product, quantity int64) error {
	if !p.Active || p.Stock < quantity {
		return ErrProductUnavailable
	}
	return nil
}

// Notifier receives order side effects after the owning transaction has
// committed. Implementations log their own failures.
type Notifier interface {
	CustomerNote(ctx context.Context, order Order, note OrderNote)
	OrderEvent(ctx context.Context, event Event)
}

var (
	ErrNotFound             = errors.New("order_not_found")
	ErrNoteNotFound         = errors.New("order_note_not_found")
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidCustomer      = errors.New("invalid_customer")
	ErrInvalidEmail         = errors.New("invalid_email")
	ErrEmptyOrder           = errors.New("empty_order")
	ErrInvalidQuantity      = pricing.ErrInvalidQuantity
	ErrInvalidNote          = errors.New("invalid_note")
	ErrProductUnavailable   = inventorydomain.ErrProductUnavailable
	ErrDuplicateOrderNumber = errors.New("duplicate_order_number")
	ErrConcurrentTransition = errors.New("concurrent_transition")
)
