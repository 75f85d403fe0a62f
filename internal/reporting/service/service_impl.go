package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/clock"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/pricing"
	"github.com/smallbiznis/storefront/internal/reporting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	topProductsLimit = 10
	maxCustomDays    = 366
	dayLayout        = "2006-01-02"
	unspecified      = "Unspecified"
	defaultPeriod    = domain.Period30Days
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("reporting.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func revenueStatuses() []string {
	out := make([]string, 0, len(orderdomain.RevenueStatuses))
	for _, s := range orderdomain.RevenueStatuses {
		out = append(out, string(s))
	}
	return out
}

func (s *Service) SalesSummary(ctx context.Context, req domain.SalesRequest) (*domain.SalesSummary, error) {
	period, rng, err := s.resolve(req)
	if err != nil {
		return nil, err
	}
	statuses := revenueStatuses()

	orders, err := s.repo.RevenueOrders(ctx, s.db, rng, statuses)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopProducts(ctx, s.db, rng, statuses, topProductsLimit)
	if err != nil {
		return nil, err
	}
	if top == nil {
		top = []domain.TopProduct{}
	}

	days := make(map[string]*domain.DailyPoint)
	trend := make([]domain.DailyPoint, 0)
	for day := rng.From; day.Before(rng.To); day = day.AddDate(0, 0, 1) {
		trend = append(trend, domain.DailyPoint{Date: day.Format(dayLayout), Sales: decimal.Zero})
	}
	for i := range trend {
		days[trend[i].Date] = &trend[i]
	}

	total := decimal.Zero
	methods := make(map[string]*domain.PaymentBreakdown)
	for _, o := range orders {
		total = total.Add(o.TotalAmount)

		if point, ok := days[o.CreatedAt.UTC().Format(dayLayout)]; ok {
			point.Sales = point.Sales.Add(o.TotalAmount)
			point.Orders++
		}

		name := unspecified
		if o.PaymentMethod != nil && *o.PaymentMethod != "" {
			name = *o.PaymentMethod
		}
		entry, ok := methods[name]
		if !ok {
			entry = &domain.PaymentBreakdown{Method: name, Total: decimal.Zero}
			methods[name] = entry
		}
		entry.Orders++
		entry.Total = entry.Total.Add(o.TotalAmount)
	}

	breakdown := make([]domain.PaymentBreakdown, 0, len(methods))
	for _, entry := range methods {
		breakdown = append(breakdown, *entry)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if !breakdown[i].Total.Equal(breakdown[j].Total) {
			return breakdown[i].Total.GreaterThan(breakdown[j].Total)
		}
		return breakdown[i].Method < breakdown[j].Method
	})

	count := int64(len(orders))
	return &domain.SalesSummary{
		Period:            period,
		From:              rng.From.Format(dayLayout),
		To:                rng.To.AddDate(0, 0, -1).Format(dayLayout),
		TotalSales:        total,
		OrderCount:        count,
		AverageOrderValue: average(total, count),
		DailyTrend:        trend,
		TopProducts:       top,
		PaymentMethods:    breakdown,
	}, nil
}

func (s *Service) CustomerStats(ctx context.Context, req domain.CustomerRequest) (*domain.CustomerStats, error) {
	filter := domain.CustomerFilter{UserID: req.UserID, Email: strings.TrimSpace(req.Email)}
	if filter.UserID == nil && filter.Email == "" {
		return nil, domain.ErrInvalidCustomer
	}

	count, err := s.repo.CountOrders(ctx, s.db, filter, nil)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.CustomerRevenueOrders(ctx, s.db, filter, revenueStatuses())
	if err != nil {
		return nil, err
	}

	spent := decimal.Zero
	for _, o := range orders {
		spent = spent.Add(o.TotalAmount)
	}
	return &domain.CustomerStats{
		TotalOrders:       count,
		RevenueOrders:     int64(len(orders)),
		TotalSpent:        spent,
		AverageOrderValue: average(spent, int64(len(orders))),
	}, nil
}

// resolve turns a period into a range of whole UTC days ending today.
func (s *Service) resolve(req domain.SalesRequest) (domain.Period, domain.Range, error) {
	now := s.clock.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	period := domain.Period(strings.ToLower(strings.TrimSpace(req.Period)))
	if period == "" {
		period = defaultPeriod
	}

	switch period {
	case domain.PeriodToday:
		return period, domain.Range{From: today, To: tomorrow}, nil
	case domain.Period7Days:
		return period, domain.Range{From: today.AddDate(0, 0, -6), To: tomorrow}, nil
	case domain.Period30Days:
		return period, domain.Range{From: today.AddDate(0, 0, -29), To: tomorrow}, nil
	case domain.PeriodThisMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return period, domain.Range{From: first, To: tomorrow}, nil
	case domain.PeriodCustom:
		if req.From == nil || req.To == nil {
			return "", domain.Range{}, domain.ErrInvalidRange
		}
		from := truncateDay(*req.From)
		to := truncateDay(*req.To).AddDate(0, 0, 1)
		if !from.Before(to) || to.Sub(from) > maxCustomDays*24*time.Hour {
			return "", domain.Range{}, domain.ErrInvalidRange
		}
		return period, domain.Range{From: from, To: to}, nil
	default:
		return "", domain.Range{}, domain.ErrInvalidPeriod
	}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func average(total decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return pricing.RoundMoney(total.Div(decimal.NewFromInt(count)))
}
