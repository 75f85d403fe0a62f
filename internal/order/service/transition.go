package service

import (
	"context"
	"fmt"

	"github.com/smallbiznis/storefront/internal/order/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Transition moves an order to a new status. Crossing into a canceled,
// refunded or returned status puts the items back in stock; leaving one of
// those statuses takes them out again. Status, stock and the audit note are
// written in one transaction.
func (s *Service) Transition(ctx context.Context, req domain.TransitionRequest) (*domain.Order, error) {
	orderID, err := parseID(req.OrderID)
	if err != nil {
		return nil, err
	}
	next, err := domain.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var (
		order    *domain.Order
		previous domain.Status
		changed  bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if current, err = s.withItems(ctx, tx, current); err != nil {
			return err
		}
		order = current
		previous = current.Status

		if previous == next {
			return nil
		}

		switch {
		case !previous.IsTerminalNegative() && next.IsTerminalNegative():
			if err := s.inventory.Restock(ctx, tx, order.Lines()); err != nil {
				return err
			}
		case previous.IsTerminalNegative() && !next.IsTerminalNegative():
			if err := s.inventory.Deduct(ctx, tx, order.Lines()); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		affected, err := s.repo.CompareAndSetStatus(ctx, tx, order.ID, previous, next, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrConcurrentTransition
		}

		metadata := datatypes.JSONMap{
			"from": string(previous),
			"to":   string(next),
		}
		if req.ActorID != nil {
			metadata["actor_id"] = fmt.Sprintf("%d", *req.ActorID)
		}
		note := &domain.OrderNote{
			ID:        s.genID.Generate().Int64(),
			OrderID:   order.ID,
			Message:   StatusChangeMessage(previous, next),
			Metadata:  metadata,
			CreatedAt: now,
		}
		if err := s.repo.InsertNote(ctx, tx, note); err != nil {
			return err
		}

		order.Status = next
		order.UpdatedAt = now
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !changed {
		return order, nil
	}

	s.metrics.RecordStatusTransition(ctx, string(previous), string(next))
	s.notifier.OrderEvent(ctx, domain.Event{
		Type:        domain.EventStatusChanged,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		From:        previous,
		To:          next,
		Total:       order.TotalAmount,
		Email:       order.Email,
		OccurredAt:  order.UpdatedAt,
	})
	s.logger(ctx, order.OrderNumber).Info("order status changed",
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)
	return order, nil
}

// StatusChangeMessage is the text of the system note written on every
// status change.
func StatusChangeMessage(from, to domain.Status) string {
	return fmt.Sprintf("Order status changed from '%s' to '%s'.", from.Label(), to.Label())
}
