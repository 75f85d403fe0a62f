package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyCheckoutClient = "storefront:checkout:ip:%s"
	keyCheckoutIdem   = "storefront:checkout:idem:%s"
)

const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// CheckoutLimiter throttles checkout submissions per client and rejects
// replays of the same Idempotency-Key while the first one is remembered.
// A nil limiter allows everything.
type CheckoutLimiter struct {
	client  redis.UniversalClient
	bucket  *TokenBucket
	release *redis.Script

	rate    float64
	burst   int
	idemTTL time.Duration
}

func NewCheckoutLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*CheckoutLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		log.Info("checkout rate limiting disabled")
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.CheckoutRate <= 0 || limitCfg.CheckoutBurst <= 0 {
		return nil, errors.New("checkout rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return newCheckoutLimiter(client, limitCfg), nil
}

func newCheckoutLimiter(client redis.UniversalClient, cfg config.RateLimitConfig) *CheckoutLimiter {
	ttl := time.Duration(cfg.IdempotencyTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CheckoutLimiter{
		client:  client,
		bucket:  NewTokenBucket(client),
		release: redis.NewScript(releaseScript),
		rate:    cfg.CheckoutRate,
		burst:   cfg.CheckoutBurst,
		idemTTL: ttl,
	}
}

func (l *CheckoutLimiter) Enabled() bool {
	return l != nil && l.client != nil
}

// AllowClient takes a token from the bucket of the client IP.
func (l *CheckoutLimiter) AllowClient(ctx context.Context, clientIP string) (Decision, error) {
	if !l.Enabled() {
		return Decision{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, ClientKey(clientIP), l.rate, l.burst)
}

// ClaimIdempotencyKey records key for the configured TTL. It returns false
// when the key is already held. The returned token releases the claim.
func (l *CheckoutLimiter) ClaimIdempotencyKey(ctx context.Context, key string) (string, bool, error) {
	if !l.Enabled() || strings.TrimSpace(key) == "" {
		return "", true, nil
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, IdempotencyKey(key), token, l.idemTTL).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// ReleaseIdempotencyKey drops a claim so a failed checkout can be retried
// with the same key.
func (l *CheckoutLimiter) ReleaseIdempotencyKey(ctx context.Context, key, token string) error {
	if !l.Enabled() || key == "" || token == "" {
		return nil
	}
	return l.release.Run(ctx, l.client, []string{IdempotencyKey(key)}, token).Err()
}

func ClientKey(clientIP string) string {
	ip := strings.TrimSpace(clientIP)
	if ip == "" {
		ip = "unknown"
	}
	return fmt.Sprintf(keyCheckoutClient, ip)
}

func IdempotencyKey(key string) string {
	return fmt.Sprintf(keyCheckoutIdem, strings.TrimSpace(key))
}
