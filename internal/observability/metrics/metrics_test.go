package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("store_id", "123"),
		attribute.String("coupon_code", "SAVE10"),
		attribute.String("reason", "expired"),
	)
	require.Len(t, attrs, 2)
	keys := []attribute.Key{attrs[0].Key, attrs[1].Key}
	assert.Contains(t, keys, attribute.Key("store_id"))
	assert.Contains(t, keys, attribute.Key("reason"))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordQuote(context.Background(), "1", "priced")
	m.RecordCheckout(context.Background(), "1", "created", 10)

	nop := NewNop()
	require.NotNil(t, nop)
	nop.RecordCouponRejection(context.Background(), "1", "coupon_expired")
}

func TestHTTPMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetricsWithRegisterer(reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders/9", nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/orders/:id", "204")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inflight))
}
