package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodToday     Period = "today"
	Period7Days     Period = "7days"
	Period30Days    Period = "30days"
	PeriodThisMonth Period = "this_month"
	PeriodCustom    Period = "custom"
)

// Range is a half-open time interval [From, To).
type Range struct {
	From time.Time
	To   time.Time
}

type DailyPoint struct {
	Date   string          `json:"date"`
	Sales  decimal.Decimal `json:"sales"`
	Orders int64           `json:"orders"`
}

type TopProduct struct {
	ProductID   int64           `json:"product_id,string" gorm:"column:product_id"`
	ProductName string          `json:"product_name" gorm:"column:product_name"`
	Quantity    int64           `json:"quantity" gorm:"column:quantity"`
	Revenue     decimal.Decimal `json:"revenue" gorm:"column:revenue"`
}

type PaymentBreakdown struct {
	Method string          `json:"method"`
	Orders int64           `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

type SalesSummary struct {
	Period            Period             `json:"period"`
	From              string             `json:"from"`
	To                string             `json:"to"`
	TotalSales        decimal.Decimal    `json:"total_sales"`
	OrderCount        int64              `json:"order_count"`
	AverageOrderValue decimal.Decimal    `json:"average_order_value"`
	DailyTrend        []DailyPoint       `json:"daily_trend"`
	TopProducts       []TopProduct       `json:"top_products"`
	PaymentMethods    []PaymentBreakdown `json:"payment_methods"`
}

type CustomerStats struct {
	TotalOrders       int64           `json:"total_orders"`
	RevenueOrders     int64           `json:"revenue_orders"`
	TotalSpent        decimal.Decimal `json:"total_spent"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

// RevenueOrder is the slice of an order the sales summary needs.
type RevenueOrder struct {
	ID            int64           `gorm:"column:id"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	PaymentMethod *string         `gorm:"column:payment_method"`
}
