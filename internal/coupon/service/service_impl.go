package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/coupon/domain"
	"github.com/smallbiznis/storefront/internal/pricing"
	"github.com/smallbiznis/storefront/pkg/db"
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
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("coupon.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" || len(code) > domain.MaxCodeLength {
		return nil, domain.ErrInvalidCode
	}
	discountType, err := domain.ParseDiscountType(req.DiscountType)
	if err != nil {
		return nil, err
	}
	if !req.Discount.IsPositive() {
		return nil, domain.ErrInvalidDiscount
	}
	if discountType == domain.DiscountPercent && req.Discount.GreaterThan(decimal.NewFromInt(100)) {
		return nil, domain.ErrInvalidDiscount
	}
	if req.ValidFrom.IsZero() || req.ValidTo.IsZero() || req.ValidTo.Before(req.ValidFrom) {
		return nil, domain.ErrInvalidWindow
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now()
	c := &domain.Coupon{
		ID:           s.genID.Generate().Int64(),
		Code:         code,
		Description:  req.Description,
		DiscountType: discountType,
		Discount:     req.Discount.Round(2),
		ValidFrom:    req.ValidFrom.UTC(),
		ValidTo:      req.ValidTo.UTC(),
		Active:       active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, s.db, c); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCodeExists
		}
		return nil, err
	}

	s.log.Info("coupon created", zap.String("code", c.Code), zap.String("discount_type", string(c.DiscountType)))
	return c, nil
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (*domain.Coupon, error) {
	couponID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || couponID == 0 {
		return nil, domain.ErrInvalidID
	}

	c, err := s.repo.FindByID(ctx, s.db, couponID.Int64())
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrCouponNotFound
	}

	c.Active = active
	c.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.Coupon, error) {
	return s.repo.List(ctx, s.db, activeOnly)
}

func (s *Service) Preview(ctx context.Context, code string, total decimal.Decimal) (*domain.PreviewResponse, error) {
	c, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrCouponNotFound
	}
	if err := c.CheckUsable(s.clock.Now()); err != nil {
		return nil, err
	}

	discount := pricing.RoundMoney(pricing.ApplyCoupon(*c, total))
	return &domain.PreviewResponse{
		Code:           c.Code,
		DiscountType:   c.DiscountType,
		DiscountAmount: discount,
		Total:          total.Sub(discount),
	}, nil
}
