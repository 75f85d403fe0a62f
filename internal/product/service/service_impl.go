package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/product/domain"
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
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListRequest{
		Name:     strings.TrimSpace(req.Name),
		Active:   req.Active,
		LowStock: req.LowStock,
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	sku := strings.TrimSpace(req.SKU)
	if sku == "" || utf8.RuneCountInString(sku) > domain.MaxSKULength {
		return nil, domain.ErrInvalidSKU
	}
	if req.Price.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}
	if req.DiscountPrice != nil && req.DiscountPrice.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}
	if req.Stock < 0 {
		return nil, domain.ErrInvalidStock
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now().UTC()
	p := &domain.Product{
		ID:          s.genID.Generate().Int64(),
		Name:        name,
		SKU:         sku,
		Price:       req.Price.Round(2),
		Stock:       req.Stock,
		Active:      active,
		Description: trimmedOrNil(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.DiscountPrice != nil {
		p.DiscountPrice = decimal.NewNullDecimal(req.DiscountPrice.Round(2))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.SKUExists(ctx, tx, sku)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrSKUExists
		}

		base := strings.TrimSpace(req.Slug)
		if base == "" {
			base = name
		}
		p.Slug, err = s.uniqueSlug(ctx, tx, base, p.ID)
		if err != nil {
			return err
		}

		if err := s.repo.Create(ctx, tx, p); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrSlugExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("product created", zap.Int64("product_id", p.ID), zap.String("sku", p.SKU))
	resp := toResponse(p)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	item, err := s.find(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		item.Price = req.Price.Round(2)
	}
	switch {
	case req.ClearDiscount:
		item.DiscountPrice = decimal.NullDecimal{}
	case req.DiscountPrice != nil:
		if req.DiscountPrice.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		item.DiscountPrice = decimal.NewNullDecimal(req.DiscountPrice.Round(2))
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if req.Description != nil {
		item.Description = trimmedOrNil(req.Description)
	}

	item.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

// SetStock overwrites the stock count after a physical count. It is the only
// stock write outside the inventory ledger.
func (s *Service) SetStock(ctx context.Context, id string, stock int64) (*domain.Response, error) {
	if stock < 0 {
		return nil, domain.ErrInvalidStock
	}
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	affected, err := s.repo.SetStock(ctx, s.db, productID, stock)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotFound
	}

	s.log.Info("product stock set", zap.Int64("product_id", productID), zap.Int64("stock", stock))
	return s.Get(ctx, id)
}

// Duplicate copies a product under "-copy" slug and SKU, adding a short random
// suffix when a copy already exists.
func (s *Service) Duplicate(ctx context.Context, id string) (*domain.Response, error) {
	src, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	dup := *src
	dup.ID = s.genID.Generate().Int64()
	dup.CreatedAt = now
	dup.UpdatedAt = now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup.Slug = withSuffix(src.Slug, "-copy", domain.MaxSlugLength)
		exists, err := s.repo.SlugExists(ctx, tx, dup.Slug, 0)
		if err != nil {
			return err
		}
		if exists {
			dup.Slug = withSuffix(src.Slug, "-copy-"+shortSuffix(), domain.MaxSlugLength)
		}

		dup.SKU = withSuffix(src.SKU, "-copy", domain.MaxSKULength)
		exists, err = s.repo.SKUExists(ctx, tx, dup.SKU)
		if err != nil {
			return err
		}
		if exists {
			dup.SKU = withSuffix(src.SKU, "-copy-"+shortSuffix(), domain.MaxSKULength)
		}

		return s.repo.Create(ctx, tx, &dup)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSKUExists
		}
		return nil, err
	}

	s.log.Info("product duplicated",
		zap.Int64("source_id", src.ID),
		zap.Int64("product_id", dup.ID),
		zap.String("sku", dup.SKU),
	)
	resp := toResponse(&dup)
	return &resp, nil
}

// uniqueSlug slugifies base and appends -1, -2, ... until no other product
// uses it.
func (s *Service) uniqueSlug(ctx context.Context, tx *gorm.DB, base string, selfID int64) (string, error) {
	root := slug.Make(base)
	if root == "" {
		root = "product"
	}

	candidate := withSuffix(root, "", domain.MaxSlugLength)
	for counter := 1; ; counter++ {
		exists, err := s.repo.SlugExists(ctx, tx, candidate, selfID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = withSuffix(root, fmt.Sprintf("-%d", counter), domain.MaxSlugLength)
	}
}

func (s *Service) find(ctx context.Context, id string) (*domain.Product, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func parseID(id string) (int64, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed.Int64(), nil
}

// withSuffix appends suffix to base, cutting base so the result fits in limit
// runes.
func withSuffix(base, suffix string, limit int) string {
	room := limit - utf8.RuneCountInString(suffix)
	if runes := []rune(base); len(runes) > room {
		base = strings.TrimRight(string(runes[:room]), "-")
	}
	return base + suffix
}

func shortSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

func toResponse(p *domain.Product) domain.Response {
	resp := domain.Response{
		ID:             snowflake.ID(p.ID).String(),
		Name:           p.Name,
		Slug:           p.Slug,
		SKU:            p.SKU,
		Price:          p.Price,
		EffectivePrice: p.EffectivePrice(),
		Stock:          p.Stock,
		Active:         p.Active,
		Description:    p.Description,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.DiscountPrice.Valid {
		d := p.DiscountPrice.Decimal
		resp.DiscountPrice = &d
	}
	return resp
}
