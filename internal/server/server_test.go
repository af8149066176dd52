package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

type testServer struct {
	engine  *gin.Engine
	storeID snowflake.ID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := testutil.OpenSQLite(t)
	node := testutil.NewNode(t)
	fake := clock.NewFakeClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))

	var srv *Server
	fxtest.New(t,
		fx.Supply(
			conn,
			node,
			zap.NewNop(),
			config.Config{HTTPAddr: "127.0.0.1:0"},
			observability.Config{Environment: "test"},
			config.NewStaticPricingPolicyHolder(config.DefaultPricingPolicy()),
			metrics.NewNop(),
		),
		fx.Provide(func() clock.Clock { return fake }),
		fx.Provide(func() (*metrics.HTTPMetrics, error) {
			return metrics.NewHTTPMetricsWithRegisterer(prometheus.NewRegistry())
		}),
		Module,
		fx.Populate(&srv),
	)

	return &testServer{engine: srv.Engine(), storeID: node.Generate()}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderStore, ts.storeID.String())
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

type idResponse struct {
	ID string `json:"id"`
}

type totalsResponse struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountTotal   decimal.Decimal `json:"discount_total"`
	TaxTotal        decimal.Decimal `json:"tax_total"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Total           decimal.Decimal `json:"total"`
	CouponRejection *struct {
		Kind   string `json:"kind"`
		Reason string `json:"reason"`
	} `json:"coupon_rejection"`
	Lines []struct {
		ProductID string          `json:"product_id"`
		Discount  decimal.Decimal `json:"discount"`
	} `json:"lines"`
}

// seedStore creates a product priced 100 with a 10% VAT and a US flat rate
// of 5 and returns the product id.
func (ts *testServer) seedStore(t *testing.T) string {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/categories", gin.H{"name": "Shoes"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var category idResponse
	decodeData(t, rec, &category)

	rec = ts.do(t, http.MethodPost, "/api/products", gin.H{
		"name": "Runner", "category_id": category.ID, "price": "100",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var product idResponse
	decodeData(t, rec, &product)

	rec = ts.do(t, http.MethodPost, "/api/taxes", gin.H{
		"code": "VAT", "name": "VAT", "tax_kind": "percentage", "value": "10",
		"scope": gin.H{"kind": "all"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/shipping-rates", gin.H{
		"name": "Flat", "country": "US", "price": "5",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return product.ID
}

func quoteBody(productID, country, coupon string) gin.H {
	return gin.H{
		"items":       []gin.H{{"product_id": productID, "quantity": 2}},
		"destination": gin.H{"country": country},
		"coupon_code": coupon,
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRequiresStoreHeader(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "missing_store", payload.Errors[0].Code)

	rec = ts.do(t, http.MethodGet, "/api/categories", nil, HeaderStore, "abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteSeesRuleWrites(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.seedStore(t)

	rec := ts.do(t, http.MethodPost, "/api/quote", quoteBody(productID, "us", ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var before totalsResponse
	decodeData(t, rec, &before)
	assert.Equal(t, "200.00", before.Subtotal.StringFixed(2))
	assert.Equal(t, "20.00", before.TaxTotal.StringFixed(2))
	assert.Equal(t, "225.00", before.Total.StringFixed(2))
	require.Len(t, before.Lines, 1)
	assert.Equal(t, productID, before.Lines[0].ProductID)

	rec = ts.do(t, http.MethodPost, "/api/discounts", gin.H{
		"name": "Sitewide", "amount_kind": "percentage", "value": "10",
		"scope": gin.H{"kind": "all"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/quote", quoteBody(productID, "US", ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var after totalsResponse
	decodeData(t, rec, &after)
	assert.Equal(t, "20.00", after.DiscountTotal.StringFixed(2))
	assert.Equal(t, "18.00", after.TaxTotal.StringFixed(2))
	assert.Equal(t, "203.00", after.Total.StringFixed(2))
}

func TestQuoteReportsCouponRejection(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.seedStore(t)

	rec := ts.do(t, http.MethodPost, "/api/quote", quoteBody(productID, "US", "MISSING"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var totals totalsResponse
	decodeData(t, rec, &totals)
	require.NotNil(t, totals.CouponRejection)
	assert.Equal(t, "coupon", totals.CouponRejection.Kind)
	assert.Equal(t, "not_found", totals.CouponRejection.Reason)
	assert.Equal(t, "225.00", totals.Total.StringFixed(2))
}

func TestQuoteErrors(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.seedStore(t)

	rec := ts.do(t, http.MethodPost, "/api/quote", quoteBody(productID, "FR", ""))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "rejected", payload.Type)
	assert.Equal(t, "shipping_unshippable", payload.Code)

	rec = ts.do(t, http.MethodPost, "/api/quote", gin.H{"destination": gin.H{"country": "US"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/quote", quoteBody("123", "US", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload = decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "unknown_product", payload.Errors[0].Code)
}

func TestDuplicateCouponCodeConflicts(t *testing.T) {
	ts := newTestServer(t)
	coupon := gin.H{
		"code": "SAVE", "amount_kind": "fixed_amount", "value": "5",
		"scope": gin.H{"kind": "all"},
	}

	rec := ts.do(t, http.MethodPost, "/api/coupons", coupon)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/coupons", coupon)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "code_taken", decodeError(t, rec).Code)
}

func TestCheckoutAndOrderLifecycle(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.seedStore(t)

	rec := ts.do(t, http.MethodPost, "/api/checkout", quoteBody(productID, "US", ""), HeaderIdempotencyKey, "cart-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Order struct {
			ID     string          `json:"id"`
			Status string          `json:"status"`
			Total  decimal.Decimal `json:"total"`
		} `json:"order"`
		Replayed bool `json:"replayed"`
	}
	decodeData(t, rec, &created)
	assert.False(t, created.Replayed)
	assert.Equal(t, "pending", created.Order.Status)
	assert.Equal(t, "225.00", created.Order.Total.StringFixed(2))
	orderPath := "/api/orders/" + created.Order.ID

	rec = ts.do(t, http.MethodPost, "/api/checkout", quoteBody(productID, "US", ""), HeaderIdempotencyKey, "cart-1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var list struct {
		Orders []idResponse `json:"orders"`
	}
	decodeData(t, rec, &list)
	require.Len(t, list.Orders, 1)

	rec = ts.do(t, http.MethodPost, orderPath+"/status", gin.H{"status": "payment_pending"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, orderPath+"/status", gin.H{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, orderPath+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var history []json.RawMessage
	decodeData(t, rec, &history)
	assert.NotEmpty(t, history)

	rec = ts.do(t, http.MethodPost, orderPath+"/comments", gin.H{"author": "ops", "body": "Packed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do(t, http.MethodGet, orderPath+"/comments", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var comments []json.RawMessage
	decodeData(t, rec, &comments)
	assert.Len(t, comments, 1)

	rec = ts.do(t, http.MethodGet, orderPath+"/invoice.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestOrderLookupErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/orders/"+ts.storeID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/orders/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassifyErrorForLog(t *testing.T) {
	errType, code := classifyErrorForLog(ErrRateLimited)
	assert.Equal(t, "rate_limited", errType)
	assert.Equal(t, "rate_limited", code)

	errType, code = classifyErrorForLog(invalidRequestError())
	assert.Equal(t, "validation_error", errType)
	assert.Equal(t, "invalid_request", code)
}
