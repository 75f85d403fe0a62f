// Package pricing holds the money rules applied when an order is placed:
// unit price freezing, line subtotals and coupon discounts.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
)

var ErrInvalidQuantity = errors.New("invalid_quantity")

// FreezeUnitPrice returns the unit price captured on an order item. It is
// called once per item at creation and never re-evaluated.
func FreezeUnitPrice(p productdomain.Product) decimal.Decimal {
	return p.EffectivePrice()
}

// ComputeSubtotal multiplies a frozen unit price by quantity.
func ComputeSubtotal(unitPrice decimal.Decimal, quantity int64) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, ErrInvalidQuantity
	}
	return unitPrice.Mul(decimal.NewFromInt(quantity)), nil
}

// ApplyCoupon returns the discount a coupon grants on total. Validity is
// checked by the caller.
func ApplyCoupon(c coupondomain.Coupon, total decimal.Decimal) decimal.Decimal {
	return c.CalculateDiscount(total)
}

// RoundMoney rounds to cents, half away from zero.
func RoundMoney(m decimal.Decimal) decimal.Decimal {
	return m.Round(2)
}
