package domain

import (
	"time"

	"github.com/shopspring/decimal"
	inventorydomain "github.com/smallbiznis/storefront/internal/inventory/domain"
	"gorm.io/datatypes"
)

type Order struct {
	ID              int64           `json:"id" gorm:"column:id;primaryKey"`
	OrderNumber     string          `json:"order_number" gorm:"column:order_number;type:varchar(64);not null;uniqueIndex"`
	Status          Status          `json:"status" gorm:"column:status;type:varchar(32);not null"`
	UserID          *int64          `json:"user_id,omitempty" gorm:"column:user_id"`
	CustomerName    string          `json:"customer_name" gorm:"column:customer_name;type:text;not null"`
	Email           string          `json:"email" gorm:"column:email;type:text;not null"`
	Phone           string          `json:"phone" gorm:"column:phone;type:text"`
	Address         string          `json:"address" gorm:"column:address;type:text;not null"`
	IPAddress       *string         `json:"ip_address,omitempty" gorm:"column:ip_address;type:text"`
	Notes           string          `json:"notes" gorm:"column:notes;type:text"`
	CouponID        *int64          `json:"coupon_id,omitempty" gorm:"column:coupon_id"`
	PaymentMethodID *int64          `json:"payment_method_id,omitempty" gorm:"column:payment_method_id"`
	PaymentProof    *string         `json:"payment_proof,omitempty" gorm:"column:payment_proof;type:text"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" gorm:"column:discount_amount;type:numeric(12,2);not null"`
	TotalAmount     decimal.Decimal `json:"total_amount" gorm:"column:total_amount;type:numeric(12,2);not null"`
	CreatedAt       time.Time       `json:"created_at" gorm:"column:created_at;not null"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"column:updated_at;not null"`

	Items []OrderItem `json:"items,omitempty" gorm:"-"`
}

func (Order) TableName() string { return "orders" }

// Subtotal sums the frozen item subtotals.
func (o Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.Subtotal)
	}
	return sum
}

// Lines converts the order items into ledger lines.
func (o Order) Lines() []inventorydomain.Line {
	lines := make([]inventorydomain.Line, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, inventorydomain.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

// OrderItem keeps the product name, SKU and unit price as they were when the
// order was placed.
type OrderItem struct {
	ID          int64           `json:"id" gorm:"column:id;primaryKey"`
	OrderID     int64           `json:"order_id" gorm:"column:order_id;not null;index"`
	ProductID   int64           `json:"product_id" gorm:"column:product_id;not null"`
	ProductName string          `json:"product_name" gorm:"column:product_name;type:text;not null"`
	SKU         string          `json:"sku" gorm:"column:sku;type:varchar(64);not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity    int64           `json:"quantity" gorm:"column:quantity;not null"`
	Subtotal    decimal.Decimal `json:"subtotal" gorm:"column:subtotal;type:numeric(12,2);not null"`
}

func (OrderItem) TableName() string { return "order_items" }

type OrderNote struct {
	ID             int64             `json:"id" gorm:"column:id;primaryKey"`
	OrderID        int64             `json:"order_id" gorm:"column:order_id;not null;index"`
	UserID         *int64            `json:"user_id,omitempty" gorm:"column:user_id"`
	Message        string            `json:"message" gorm:"column:message;type:text;not null"`
	IsCustomerNote bool              `json:"is_customer_note" gorm:"column:is_customer_note;not null;default:false"`
	Metadata       datatypes.JSONMap `json:"metadata,omitempty" gorm:"column:metadata"`
	CreatedAt      time.Time         `json:"created_at" gorm:"column:created_at;not null"`
}

func (OrderNote) TableName() string { return "order_notes" }

// EventType names an order lifecycle event published to subscribers.
type EventType string

const (
	EventOrderCreated  EventType = "order.created"
	EventStatusChanged EventType = "order.status_changed"
)

type Event struct {
	Type        EventType       `json:"type"`
	OrderID     int64           `json:"order_id,string"`
	OrderNumber string          `json:"order_number"`
	From        Status          `json:"from,omitempty"`
	To          Status          `json:"to"`
	Total       decimal.Decimal `json:"total"`
	Email       string          `json:"email"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
