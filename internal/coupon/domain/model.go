package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

func ParseDiscountType(raw string) (DiscountType, error) {
	switch DiscountType(strings.ToLower(strings.TrimSpace(raw))) {
	case DiscountPercent:
		return DiscountPercent, nil
	case DiscountFixed:
		return DiscountFixed, nil
	default:
		return "", ErrInvalidDiscountType
	}
}

const MaxCodeLength = 64

type Coupon struct {
	ID           int64           `json:"id" gorm:"column:id;primaryKey"`
	Code         string          `json:"code" gorm:"column:code;type:varchar(64);not null;uniqueIndex"`
	Description  *string         `json:"description,omitempty" gorm:"column:description;type:text"`
	DiscountType DiscountType    `json:"discount_type" gorm:"column:discount_type;type:varchar(16);not null"`
	Discount     decimal.Decimal `json:"discount" gorm:"column:discount;type:numeric(12,2);not null"`
	ValidFrom    time.Time       `json:"valid_from" gorm:"column:valid_from;not null"`
	ValidTo      time.Time       `json:"valid_to" gorm:"column:valid_to;not null"`
	Active       bool            `json:"active" gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time       `json:"created_at" gorm:"column:created_at;not null"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"column:updated_at;not null"`
}

func (Coupon) TableName() string { return "coupons" }

var hundred = decimal.NewFromInt(100)

// CalculateDiscount returns the discount granted on total. A fixed coupon
// returns its face value even when it exceeds total. Validity is not checked.
func (c Coupon) CalculateDiscount(total decimal.Decimal) decimal.Decimal {
	switch c.DiscountType {
	case DiscountPercent:
		return total.Mul(c.Discount).Div(hundred)
	case DiscountFixed:
		return c.Discount
	default:
		return decimal.Zero
	}
}

// CheckUsable reports whether the coupon may be redeemed at now. The window
// is inclusive on both ends.
func (c Coupon) CheckUsable(now time.Time) error {
	if !c.Active {
		return ErrCouponInactive
	}
	if now.Before(c.ValidFrom) {
		return ErrCouponNotYetValid
	}
	if now.After(c.ValidTo) {
		return ErrCouponExpired
	}
	return nil
}
