package service

import (
	"context"
	"io"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/providers/pdf"
)

func (s *Service) Receipt(ctx context.Context, orderID string) (io.Reader, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	payment := "-"
	if order.PaymentMethodID != nil {
		method, err := s.paymentMethods.FindByID(ctx, s.db, *order.PaymentMethodID)
		if err != nil {
			return nil, err
		}
		if method != nil {
			payment = method.Name
		}
	}

	data := pdf.ReceiptData{
		StoreName:       s.settings.SiteName,
		StoreAddress:    s.settings.Address,
		StoreEmail:      s.settings.ContactEmail,
		OrderNumber:     order.OrderNumber,
		OrderDate:       order.CreatedAt.Format("2006-01-02 15:04"),
		Status:          order.Status.Label(),
		PaymentMethod:   payment,
		CustomerName:    order.CustomerName,
		CustomerEmail:   order.Email,
		CustomerPhone:   order.Phone,
		CustomerAddress: order.Address,
		Subtotal:        s.money(order.Subtotal()),
		Total:           s.money(order.TotalAmount),
	}
	if !order.DiscountAmount.IsZero() {
		data.Discount = s.money(order.DiscountAmount)
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, pdf.ReceiptItem{
			Description: item.ProductName,
			SKU:         item.SKU,
			Qty:         item.Quantity,
			UnitPrice:   s.money(item.UnitPrice),
			Amount:      s.money(item.Subtotal),
		})
	}

	return s.pdf.GenerateReceipt(ctx, data)
}

func (s *Service) money(m decimal.Decimal) string {
	if s.settings.Currency == "" {
		return m.StringFixed(2)
	}
	return s.settings.Currency + " " + m.StringFixed(2)
}
