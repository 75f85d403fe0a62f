package tracing

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const actorRoleHeader = "X-Actor-Role"

// GinMiddleware opens a server span per request named after the matched
// route, e.g. "GET /api/orders/:number". Order routes carry the order number
// or id so a checkout or transition can be found by the order it touched.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("storefront/http")
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(SafeAttributes(routeAttributes(c, route)...)...),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []attribute.KeyValue{
			attribute.Int("http.status_code", status),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		}
		if requestID := obscontext.RequestIDFromContext(c.Request.Context()); requestID != "" {
			attrs = append(attrs, attribute.String("request_id", requestID))
		}
		span.SetAttributes(SafeAttributes(attrs...)...)

		switch {
		case status >= http.StatusInternalServerError:
			if last := c.Errors.Last(); last != nil {
				if err := SafeError(last.Err); err != nil {
					span.RecordError(err)
				}
			}
			span.SetStatus(codes.Error, http.StatusText(status))
		case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
			span.AddEvent("order rule rejected", trace.WithAttributes(attribute.Int("http.status_code", status)))
		}
	}
}

func routeAttributes(c *gin.Context, route string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", c.Request.Method),
		attribute.String("http.route", route),
	}
	if number := c.Param("number"); number != "" {
		attrs = append(attrs, attribute.String("order.number", number))
	}
	if id := c.Param("id"); id != "" && strings.HasPrefix(route, "/admin/orders/") {
		attrs = append(attrs, attribute.String("order.id", id))
	}
	if role := strings.TrimSpace(c.GetHeader(actorRoleHeader)); role != "" {
		attrs = append(attrs, attribute.String("actor.role", role))
	}
	return attrs
}
