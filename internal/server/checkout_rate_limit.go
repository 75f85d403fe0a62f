package server

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storefront/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"

	rateLimitReasonClientRate     = "client-rate"
	rateLimitReasonDuplicateClaim = "idempotency-key"

	maxIdempotencyKeyLength = 128
)

// CheckoutRateLimit throttles checkout per client IP and holds the
// Idempotency-Key for the duration of the request. A key is released when
// the checkout fails so the client may retry, and kept until it expires when
// the order was placed.
func (s *Server) CheckoutRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.checkoutLimiter == nil || !s.checkoutLimiter.Enabled() {
			c.Next()
			return
		}

		endpoint := normalizeRateLimitEndpoint(c)
		ctx := c.Request.Context()

		decision, err := s.checkoutLimiter.AllowClient(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("checkout rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !decision.Allowed {
			denyCheckout(c, endpoint, rateLimitReasonClientRate, decision.RetryAfter, s.obsMetrics)
			return
		}

		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if len(key) > maxIdempotencyKeyLength {
			AbortWithError(c, newValidationError("idempotency_key", "invalid_idempotency_key", "idempotency key too long"))
			return
		}
		if key == "" {
			c.Next()
			return
		}

		token, claimed, err := s.checkoutLimiter.ClaimIdempotencyKey(ctx, key)
		if err != nil {
			logger.FromContext(ctx).Warn("checkout idempotency claim failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !claimed {
			logger.FromContext(ctx).Info("checkout replay rejected", zap.String("endpoint", endpoint))
			s.obsMetrics.RecordRateLimitDenied(ctx, endpoint, rateLimitReasonDuplicateClaim)
			AbortWithError(c, ErrDuplicateRequest)
			return
		}

		c.Next()

		if c.Writer.Status() >= 400 || len(c.Errors) > 0 {
			// Detached so a client disconnect does not leave the key held.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := s.checkoutLimiter.ReleaseIdempotencyKey(releaseCtx, key, token); err != nil {
				logger.FromContext(ctx).Warn("checkout idempotency release failed", zap.Error(err))
			}
		}
	}
}

func denyCheckout(c *gin.Context, endpoint, reason string, retryAfter time.Duration, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("checkout rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	metrics.RecordRateLimitDenied(ctx, endpoint, reason)

	c.Header("Retry-After", retryAfterSeconds(retryAfter))
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func retryAfterSeconds(d time.Duration) string {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
