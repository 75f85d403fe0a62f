package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// LoginEvent describes a sign-in to the admin reported by the auth host.
type LoginEvent struct {
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	IsSuperuser bool      `json:"is_superuser"`
	IP          string    `json:"ip"`
	UserAgent   string    `json:"user_agent"`
	At          time.Time `json:"at"`
}

const defaultDeliveryTimeout = 15 * time.Second

type Params struct {
	fx.In

	Lc        fx.Lifecycle  `optional:"true"`
	Cfg       config.Config `optional:"true"`
	Log       *zap.Logger
	Settings  config.StoreSettings
	Email     email.Provider
	Publisher Publisher
	Metrics   *metrics.Metrics `optional:"true"`
}

// Notifier sends order and security notifications. Deliveries run in the
// background under their own deadline, detached from the request that
// triggered them. Failures are logged and counted, never returned to the
// caller.
type Notifier struct {
	log       *zap.Logger
	settings  config.StoreSettings
	email     email.Provider
	publisher Publisher
	metrics   *metrics.Metrics
	timeout   time.Duration

	inflight sync.WaitGroup
}

func New(p Params) *Notifier {
	n := &Notifier{
		log:       p.Log.Named("notification"),
		settings:  p.Settings,
		email:     p.Email,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		timeout:   deliveryTimeout(p.Cfg),
	}
	if p.Lc != nil {
		p.Lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return n.Drain(ctx)
			},
		})
	}
	return n
}

// deliveryTimeout covers the slower of the two channels plus a little slack
// for rendering and marshalling.
func deliveryTimeout(cfg config.Config) time.Duration {
	secs := max(cfg.Email.SendTimeout, cfg.Kafka.SendTimeout)
	if secs <= 0 {
		return defaultDeliveryTimeout
	}
	return time.Duration(secs)*time.Second + time.Second
}

// dispatch runs fn on its own goroutine. The context keeps ctx's values, such
// as the trace span, but not its cancellation.
func (n *Notifier) dispatch(ctx context.Context, fn func(ctx context.Context)) {
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until every dispatched delivery has finished.
func (n *Notifier) Wait() {
	n.inflight.Wait()
}

// Drain waits for in-flight deliveries or gives up when ctx is done.
func (n *Notifier) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		n.log.Warn("notifications still in flight at shutdown")
		return ctx.Err()
	}
}

func (n *Notifier) CustomerNote(ctx context.Context, order orderdomain.Order, note orderdomain.OrderNote) {
	if strings.TrimSpace(order.Email) == "" {
		return
	}
	data := map[string]any{
		"subject":       fmt.Sprintf("Order note - %s", order.OrderNumber),
		"site_name":     n.settings.SiteName,
		"contact_email": n.settings.ContactEmail,
		"customer_name": order.CustomerName,
		"order_number":  order.OrderNumber,
		"status":        order.Status.Label(),
		"message":       note.Message,
	}
	n.dispatch(ctx, func(ctx context.Context) {
		if err := n.email.SendTemplate(ctx, []string{order.Email}, "order_note", data); err != nil {
			n.fail(ctx, "email", "customer_note", err, zap.String("order_number", order.OrderNumber))
			return
		}
		n.log.Info("customer note emailed", zap.String("order_number", order.OrderNumber))
	})
}

func (n *Notifier) OrderEvent(ctx context.Context, event orderdomain.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.fail(ctx, "kafka", string(event.Type), err)
		return
	}
	n.dispatch(ctx, func(ctx context.Context) {
		if err := n.publisher.Publish(ctx, event.OrderNumber, payload); err != nil {
			n.fail(ctx, "kafka", string(event.Type), err, zap.String("order_number", event.OrderNumber))
		}
	})
}

// AdminLogin alerts the store admin, and the account owner when their address
// differs, that a superuser signed in. Other sign-ins are ignored.
func (n *Notifier) AdminLogin(ctx context.Context, event LoginEvent) {
	if !event.IsSuperuser {
		return
	}

	recipients := []string{n.settings.AdminEmail}
	if e := strings.TrimSpace(event.Email); e != "" && !strings.EqualFold(e, n.settings.AdminEmail) {
		recipients = append(recipients, e)
	}

	userAgent := event.UserAgent
	if userAgent == "" {
		userAgent = "Unknown"
	}
	data := map[string]any{
		"subject":    fmt.Sprintf("Security Alert: Admin Login Detected - %s", event.Username),
		"site_name":  n.settings.SiteName,
		"username":   event.Username,
		"email":      event.Email,
		"ip":         event.IP,
		"user_agent": userAgent,
		"time":       event.At.UTC().Format(time.RFC1123),
	}
	n.dispatch(ctx, func(ctx context.Context) {
		if err := n.email.SendTemplate(ctx, recipients, "admin_login", data); err != nil {
			n.fail(ctx, "email", "admin_login", err, zap.String("username", event.Username))
			return
		}
		n.log.Info("admin login alert sent", zap.String("username", event.Username), zap.Int("recipients", len(recipients)))
	})
}

func (n *Notifier) fail(ctx context.Context, channel, kind string, err error, fields ...zap.Field) {
	n.metrics.RecordNotificationFailure(ctx, channel, kind)
	fields = append(fields, zap.String("channel", channel), zap.String("kind", kind), zap.Error(err))
	n.log.Warn("notification failed", fields...)
}
