package service

import (
	"sync"
	"time"

	"github.com/smallbiznis/storefront/internal/paymentmethod/domain"
)

// activeCache holds the storefront's active payment method list for a short
// TTL. Any admin write invalidates it.
type activeCache struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.RWMutex
	expiresAt time.Time
	methods   []domain.PaymentMethod
	loaded    bool
}

func newActiveCache(ttl time.Duration, now func() time.Time) *activeCache {
	return &activeCache{ttl: ttl, now: now}
}

func (c *activeCache) Get() ([]domain.PaymentMethod, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded || c.now().After(c.expiresAt) {
		return nil, false
	}
	return append([]domain.PaymentMethod(nil), c.methods...), true
}

func (c *activeCache) Set(methods []domain.PaymentMethod) {
	if c == nil || c.ttl <= 0 {
		return
	}
	cloned := append([]domain.PaymentMethod(nil), methods...)
	c.mu.Lock()
	c.methods = cloned
	c.expiresAt = c.now().Add(c.ttl)
	c.loaded = true
	c.mu.Unlock()
}

func (c *activeCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.loaded = false
	c.methods = nil
	c.mu.Unlock()
}
