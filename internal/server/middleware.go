package server

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"github.com/smallbiznis/storefront/internal/storecontext"
	"go.uber.org/zap"
)

const HeaderStore = "X-Store-ID"

// StoreContext resolves the tenant from the X-Store-ID header and scopes the
// request context to it.
func StoreContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderStore))
		if raw == "" {
			AbortWithError(c, newValidationError("store_id", "missing_store", "X-Store-ID header is required"))
			return
		}
		storeID, err := snowflake.ParseString(raw)
		if err != nil || storeID <= 0 {
			AbortWithError(c, newValidationError("store_id", "invalid_store", "invalid X-Store-ID header"))
			return
		}

		ctx := storecontext.WithStoreID(c.Request.Context(), storeID.Int64())
		c.Request = c.Request.WithContext(ctx)
		c.Set("store_id", storeID.String())
		c.Next()
	}
}

type allowFunc func(ctx context.Context, storeID string) (*ratelimit.Result, error)

// RateLimit throttles a route per store with the given token bucket. Limiter
// errors fail open.
func (s *Server) RateLimit(allow allowFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.RateLimited() {
			c.Next()
			return
		}

		storeID := c.GetString("store_id")
		result, err := allow(c.Request.Context(), storeID)
		if err != nil {
			s.log.Warn("rate limiter unavailable", zap.String("store_id", storeID), zap.Error(err))
			c.Next()
			return
		}

		if result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		}
		if !result.Allowed {
			if result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			}
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
