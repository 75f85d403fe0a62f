package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestGinMiddlewareNamesSpansByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := recordSpans(t)

	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/orders/:number", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.PATCH("/admin/orders/:id/status", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })

	req := httptest.NewRequest(http.MethodGet, "/api/orders/ORD-20240501-ABCDEFGHIJ", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPatch, "/admin/orders/42/status", nil)
	req.Header.Set(actorRoleHeader, "staff")
	req.Header.Set("X-Customer-Email", "amy@example.com")
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	lookup := spans[0]
	assert.Equal(t, "GET /api/orders/:number", lookup.Name())
	attrs := spanAttrs(lookup)
	assert.Equal(t, "ORD-20240501-ABCDEFGHIJ", attrs["order.number"].AsString())
	assert.Equal(t, int64(http.StatusOK), attrs["http.status_code"].AsInt64())

	transition := spans[1]
	assert.Equal(t, "PATCH /admin/orders/:id/status", transition.Name())
	attrs = spanAttrs(transition)
	assert.Equal(t, "42", attrs["order.id"].AsString())
	assert.Equal(t, "staff", attrs["actor.role"].AsString())
	require.Len(t, transition.Events(), 1)
	assert.Equal(t, codes.Unset, transition.Status().Code)
}

func TestGinMiddlewareMarksServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := recordSpans(t)

	r := gin.New()
	r.Use(GinMiddleware())
	r.POST("/api/checkout", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/checkout", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "GET unmatched", spans[1].Name())
}
