package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/paymentmethod/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cfg   config.Config
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	cache *activeCache
}

func New(p Params) domain.Service {
	ttl := time.Duration(p.Cfg.Checkout.PaymentCacheTTL) * time.Second
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("paymentmethod.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		cache: newActiveCache(ttl, p.Clock.Now),
	}
}

func (s *Service) ListActive(ctx context.Context) ([]domain.PaymentMethod, error) {
	if methods, ok := s.cache.Get(); ok {
		return methods, nil
	}
	methods, err := s.repo.List(ctx, s.db, true)
	if err != nil {
		return nil, err
	}
	s.cache.Set(methods)
	return methods, nil
}

func (s *Service) List(ctx context.Context) ([]domain.PaymentMethod, error) {
	return s.repo.List(ctx, s.db, false)
}

func (s *Service) GetByCode(ctx context.Context, code string) (*domain.PaymentMethod, error) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > domain.MaxCodeLength {
		return nil, domain.ErrInvalidCode
	}
	m, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrPaymentMethodNotFound
	}
	return m, nil
}

func (s *Service) SetActive(ctx context.Context, code string, active bool) error {
	affected, err := s.repo.SetActive(ctx, s.db, strings.TrimSpace(code), active)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrPaymentMethodNotFound
	}
	s.cache.Invalidate()
	s.log.Info("payment method toggled", zap.String("code", code), zap.Bool("active", active))
	return nil
}

// EnsureDefaults creates or refreshes the built-in payment methods.
func (s *Service) EnsureDefaults(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, def := range domain.Defaults {
			now := s.clock.Now()
			m := def
			m.ID = s.genID.Generate().Int64()
			m.Active = true
			m.CreatedAt = now
			m.UpdatedAt = now

			created, err := s.repo.Upsert(ctx, tx, &m)
			if err != nil {
				return err
			}
			if created {
				s.log.Info("payment method created", zap.String("code", m.Code))
			} else {
				s.log.Debug("payment method updated", zap.String("code", m.Code))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}
