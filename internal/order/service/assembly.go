package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	coupondomain "github.com/smallbiznis/storefront/internal/coupon/domain"
	inventorydomain "github.com/smallbiznis/storefront/internal/inventory/domain"
	"github.com/smallbiznis/storefront/internal/order/domain"
	paymentmethoddomain "github.com/smallbiznis/storefront/internal/paymentmethod/domain"
	"github.com/smallbiznis/storefront/internal/pricing"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultNumberAttempts = 5

type line struct {
	productID int64
	quantity  int64
}

// Create places an order. Either the order, its items, and any stock
// allocation are all persisted, or nothing is.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Order, error) {
	customer, err := normalizeCustomer(req.Customer)
	if err != nil {
		return nil, err
	}
	lines, err := mergeLines(req.Lines)
	if err != nil {
		return nil, err
	}

	attempts := s.cfg.Checkout.MaxNumberAttempts
	if attempts <= 0 {
		attempts = defaultNumberAttempts
	}

	var order *domain.Order
	for attempt := 1; ; attempt++ {
		order, err = s.assemble(ctx, req, customer, lines)
		if !errors.Is(err, domain.ErrDuplicateOrderNumber) || attempt >= attempts {
			break
		}
		s.log.Warn("order number collision, retrying", zap.Int("attempt", attempt))
	}
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateOrderNumber) {
			return nil, fmt.Errorf("allocate order number after %d attempts: %w", attempts, err)
		}
		return nil, err
	}

	methodCode := strings.TrimSpace(req.PaymentMethodCode)
	if methodCode == "" {
		methodCode = "none"
	}
	s.metrics.RecordOrderCreated(ctx, methodCode)
	s.notifier.OrderEvent(ctx, domain.Event{
		Type:        domain.EventOrderCreated,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		To:          order.Status,
		Total:       order.TotalAmount,
		Email:       order.Email,
		OccurredAt:  order.CreatedAt,
	})
	s.logger(ctx, order.OrderNumber).Info("order created",
		zap.Int64("order_id", order.ID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.String("payment_method", methodCode),
	)

	return order, nil
}

func (s *Service) assemble(ctx context.Context, req domain.CreateRequest, customer domain.Customer, lines []line) (*domain.Order, error) {
	now := s.clock.Now()
	order := &domain.Order{
		ID:           s.genID.Generate().Int64(),
		OrderNumber:  s.newNumber(),
		Status:       domain.StatusCreated,
		UserID:       req.UserID,
		CustomerName: customer.Name,
		Email:        customer.Email,
		Phone:        customer.Phone,
		Address:      customer.Address,
		Notes:        strings.TrimSpace(req.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if ip := strings.TrimSpace(req.IPAddress); ip != "" {
		order.IPAddress = &ip
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, subtotal, err := s.priceLines(ctx, tx, order.ID, lines)
		if err != nil {
			return err
		}

		discount := decimal.Zero
		if code := strings.TrimSpace(req.CouponCode); code != "" {
			coupon, err := s.coupons.FindByCode(ctx, tx, code)
			if err != nil {
				return err
			}
			if coupon == nil {
				return coupondomain.ErrCouponNotFound
			}
			if err := coupon.CheckUsable(now); err != nil {
				return err
			}
			discount = pricing.RoundMoney(pricing.ApplyCoupon(*coupon, subtotal))
			order.CouponID = &coupon.ID
		}

		if code := strings.TrimSpace(req.PaymentMethodCode); code != "" {
			method, err := s.paymentMethods.FindByCode(ctx, tx, code)
			if err != nil {
				return err
			}
			if method == nil {
				return paymentmethoddomain.ErrPaymentMethodNotFound
			}
			proof := strings.TrimSpace(req.PaymentProof)
			if err := method.CheckUsable(proof); err != nil {
				return err
			}
			order.PaymentMethodID = &method.ID
			if proof != "" {
				order.PaymentProof = &proof
			}
		}

		order.DiscountAmount = discount
		order.TotalAmount = subtotal.Sub(discount)
		order.Items = items

		if s.cfg.Checkout.DeductStock {
			if err := s.inventory.Allocate(ctx, tx, order.Lines()); err != nil {
				return err
			}
		}

		if err := s.repo.Insert(ctx, tx, order); err != nil {
			return err
		}
		return s.repo.InsertItems(ctx, tx, items)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// priceLines resolves products and freezes their prices into order items.
func (s *Service) priceLines(ctx context.Context, tx *gorm.DB, orderID int64, lines []line) ([]domain.OrderItem, decimal.Decimal, error) {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.productID)
	}
	products, err := s.products.FindByIDs(ctx, tx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[int64]productdomain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	subtotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		product, ok := byID[l.productID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: product %d not found", inventorydomain.ErrProductUnavailable, l.productID)
		}
		if err := s.checkStock(product, l.quantity); err != nil {
			return nil, decimal.Zero, fmt.Errorf("%w: %s", err, product.SKU)
		}

		unitPrice := pricing.RoundMoney(pricing.FreezeUnitPrice(product))
		lineTotal, err := pricing.ComputeSubtotal(unitPrice, l.quantity)
		if err != nil {
			return nil, decimal.Zero, err
		}
		items = append(items, domain.OrderItem{
			ID:          s.genID.Generate().Int64(),
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			SKU:         product.SKU,
			UnitPrice:   unitPrice,
			Quantity:    l.quantity,
			Subtotal:    lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	return items, subtotal, nil
}

func normalizeCustomer(c domain.Customer) (domain.Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)

	if c.Name == "" || c.Address == "" {
		return c, domain.ErrInvalidCustomer
	}
	addr, err := mail.ParseAddress(c.Email)
	if err != nil || addr.Address != c.Email {
		return c, domain.ErrInvalidEmail
	}
	return c, nil
}

// mergeLines parses product ids and folds repeated products into one line,
// keeping the order in which products first appear.
func mergeLines(reqs []domain.LineRequest) ([]line, error) {
	if len(reqs) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	lines := make([]line, 0, len(reqs))
	index := make(map[int64]int, len(reqs))
	for _, req := range reqs {
		if req.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		id, err := snowflake.ParseString(strings.TrimSpace(req.ProductID))
		if err != nil || id.Int64() <= 0 {
			return nil, domain.ErrInvalidID
		}
		if i, ok := index[id.Int64()]; ok {
			lines[i].quantity += req.Quantity
			continue
		}
		index[id.Int64()] = len(lines)
		lines = append(lines, line{productID: id.Int64(), quantity: req.Quantity})
	}
	return lines, nil
}
