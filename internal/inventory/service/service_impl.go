package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/smallbiznis/storefront/internal/inventory/domain"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	repo    domain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("inventory.service"),
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Restock(ctx context.Context, tx *gorm.DB, lines []domain.Line) error {
	return s.adjust(ctx, tx, lines, domain.DirectionRestock, 1)
}

// Deduct has no floor: stock may end up negative.
func (s *Service) Deduct(ctx context.Context, tx *gorm.DB, lines []domain.Line) error {
	return s.adjust(ctx, tx, lines, domain.DirectionDeduct, -1)
}

// Allocate takes stock for a sale and fails with ErrProductUnavailable when
// any line cannot be covered. The caller rolls back on error.
func (s *Service) Allocate(ctx context.Context, tx *gorm.DB, lines []domain.Line) error {
	ordered, err := normalize(lines)
	if err != nil {
		return err
	}
	for _, line := range ordered {
		affected, err := s.repo.DecrementAvailable(ctx, tx, line.ProductID, line.Quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: product %d", domain.ErrProductUnavailable, line.ProductID)
		}
	}
	s.record(ctx, ordered, domain.DirectionAllocate)
	return nil
}

func (s *Service) adjust(ctx context.Context, tx *gorm.DB, lines []domain.Line, dir domain.Direction, sign int64) error {
	ordered, err := normalize(lines)
	if err != nil {
		return err
	}
	for _, line := range ordered {
		affected, err := s.repo.AdjustStock(ctx, tx, line.ProductID, sign*line.Quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: product %d", domain.ErrProductNotFound, line.ProductID)
		}
	}
	s.record(ctx, ordered, dir)
	return nil
}

func (s *Service) record(ctx context.Context, lines []domain.Line, dir domain.Direction) {
	var total int64
	for _, line := range lines {
		total += line.Quantity
	}
	s.metrics.RecordStockMovement(ctx, string(dir), total)
	s.log.Info("stock moved",
		zap.String("direction", string(dir)),
		zap.Int("lines", len(lines)),
		zap.Int64("quantity", total),
	)
}

// normalize merges lines per product and sorts them by product id so that
// concurrent transactions touch rows in the same order.
func normalize(lines []domain.Line) ([]domain.Line, error) {
	merged := make(map[int64]int64, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		merged[line.ProductID] += line.Quantity
	}
	out := make([]domain.Line, 0, len(merged))
	for id, qty := range merged {
		out = append(out, domain.Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}
