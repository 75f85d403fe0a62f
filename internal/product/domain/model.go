package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Column widths of the indexed product keys.
const (
	MaxSlugLength = 255
	MaxSKULength  = 64
)

type Product struct {
	ID            int64               `json:"id" gorm:"column:id;primaryKey"`
	Name          string              `json:"name" gorm:"column:name;type:text;not null"`
	Slug          string              `json:"slug" gorm:"column:slug;type:varchar(255);not null;uniqueIndex"`
	SKU           string              `json:"sku" gorm:"column:sku;type:varchar(64);not null;uniqueIndex"`
	Price         decimal.Decimal     `json:"price" gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPrice decimal.NullDecimal `json:"discount_price" gorm:"column:discount_price;type:numeric(12,2)"`
	Stock         int64               `json:"stock" gorm:"column:stock;not null;default:0"`
	Active        bool                `json:"active" gorm:"column:active;not null;default:true"`
	Description   *string             `json:"description,omitempty" gorm:"column:description;type:text"`
	CreatedAt     time.Time           `json:"created_at" gorm:"column:created_at;not null"`
	UpdatedAt     time.Time           `json:"updated_at" gorm:"column:updated_at;not null"`
}

func (Product) TableName() string { return "products" }

// EffectivePrice is the price a customer pays right now: the discount price
// when one is set, otherwise the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice.Valid {
		return p.DiscountPrice.Decimal
	}
	return p.Price
}
