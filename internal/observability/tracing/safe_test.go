package tracing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributes(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/quote"),
		attribute.String("coupon_code", "SAVE10"),
		attribute.String("store_id", ""),
		attribute.Int("http.status_code", 200),
	)
	assert.Len(t, attrs, 2)
}

func TestSafeError(t *testing.T) {
	assert.Nil(t, SafeError(nil))
	assert.Equal(t, "first", SafeError(errors.New("first\nsecond")).Error())
	assert.Len(t, SafeError(errors.New(strings.Repeat("x", 500))).Error(), 200)
}
