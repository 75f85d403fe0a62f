package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/storefront/internal/order/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) AddNote(ctx context.Context, req domain.AddNoteRequest) (*domain.OrderNote, error) {
	orderID, err := parseID(req.OrderID)
	if err != nil {
		return nil, err
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, domain.ErrInvalidNote
	}

	var (
		order *domain.Order
		note  *domain.OrderNote
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if found == nil {
			return domain.ErrNotFound
		}
		order = found

		note = &domain.OrderNote{
			ID:             s.genID.Generate().Int64(),
			OrderID:        order.ID,
			UserID:         req.UserID,
			Message:        message,
			IsCustomerNote: req.IsCustomerNote,
			CreatedAt:      s.clock.Now(),
		}
		return s.repo.InsertNote(ctx, tx, note)
	})
	if err != nil {
		return nil, err
	}

	if note.IsCustomerNote && order.Email != "" {
		s.notifier.CustomerNote(ctx, *order, *note)
	}
	s.logger(ctx, order.OrderNumber).Info("order note added",
		zap.Int64("note_id", note.ID),
		zap.Bool("customer_note", note.IsCustomerNote),
	)
	return note, nil
}

// ListNotes returns the notes of an order, newest first.
func (s *Service) ListNotes(ctx context.Context, orderID string) ([]domain.OrderNote, error) {
	id, err := parseID(orderID)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	notes, err := s.repo.ListNotes(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []domain.OrderNote{}
	}
	return notes, nil
}

func (s *Service) DeleteNote(ctx context.Context, noteID string) error {
	id, err := parseID(noteID)
	if err != nil {
		return err
	}
	affected, err := s.repo.DeleteNote(ctx, s.db, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}
