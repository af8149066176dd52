package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestLimiterWithoutRedisPassesThrough(t *testing.T) {
	l, err := NewLimiter(config.Config{}, nil, zap.NewNop())
	require.NoError(t, err)

	res, err := l.AllowQuote(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	token, ok, err := l.AcquireCheckout(context.Background(), "1", "key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, token)
	assert.NoError(t, l.ReleaseCheckout(context.Background(), "1", "key", token))
}

func TestLimiterRequiresRedisWhenEnabled(t *testing.T) {
	_, err := NewLimiter(config.Config{RateLimit: config.RateLimitConfig{Enabled: true}}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestTokenBucketExhaustsBurst(t *testing.T) {
	_, client := newRedis(t)
	bucket := NewTokenBucket(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := bucket.Allow(ctx, "bucket", 0.5, 3)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
	}

	res, err := bucket.Allow(ctx, "bucket", 0.5, 3)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 3, res.Limit)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	other, err := bucket.Allow(ctx, "other", 0.5, 3)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestTokenBucketValidation(t *testing.T) {
	_, client := newRedis(t)
	bucket := NewTokenBucket(client)

	_, err := bucket.Allow(context.Background(), "", 1, 1)
	assert.ErrorIs(t, err, ErrEmptyBucketKey)
	_, err = bucket.Allow(context.Background(), "k", 0, 1)
	assert.ErrorIs(t, err, ErrInvalidBucketRate)

	var nilBucket *TokenBucket
	_, err = nilBucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrBucketNotConfigured)
}

func TestCheckoutLock(t *testing.T) {
	srv, client := newRedis(t)
	cfg := config.Config{Checkout: config.CheckoutConfig{LockTTLSeconds: 10}}
	l, err := NewLimiter(cfg, client, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	token, ok, err := l.AcquireCheckout(ctx, "1", "abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, token)

	_, ok, err = l.AcquireCheckout(ctx, "1", "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = l.AcquireCheckout(ctx, "2", "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, l.ReleaseCheckout(ctx, "1", "abc", "not-the-token"))
	assert.True(t, srv.Exists(checkoutLockKey("1", "abc")))

	require.NoError(t, l.ReleaseCheckout(ctx, "1", "abc", token))
	assert.False(t, srv.Exists(checkoutLockKey("1", "abc")))

	_, ok, err = l.AcquireCheckout(ctx, "1", "abc")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimitedQuote(t *testing.T) {
	_, client := newRedis(t)
	cfg := config.Config{RateLimit: config.RateLimitConfig{
		Enabled: true, QuoteRate: 0.1, QuoteBurst: 1, CheckoutRate: 0.1, CheckoutBurst: 1,
	}}
	l, err := NewLimiter(cfg, client, zap.NewNop())
	require.NoError(t, err)
	require.True(t, l.RateLimited())

	res, err := l.AllowQuote(context.Background(), "7")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = l.AllowQuote(context.Background(), "7")
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = l.AllowCheckout(context.Background(), "7")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
