package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/storefront/internal/clock"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
	"github.com/stretchr/testify/assert"
)

func TestTTLCacheExpiry(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewTTLCacheWithClock[string, int](fake)

	c.Set("a", 1, time.Minute)
	c.Set("zero", 2, 0)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("zero")
	assert.False(t, ok)

	fake.Advance(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCacheConcurrentAccess(t *testing.T) {
	c := NewTTLCache[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Set(i%4, i, time.Minute)
			c.Get(i % 4)
			if i%8 == 0 {
				c.Delete(i % 4)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 4)
}

func TestSnapshotCacheDropsCoupons(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewSnapshotCache(fake)

	c.Set(7, pricingdomain.Snapshot{
		Coupons:   []pricingdomain.Coupon{{ID: 1, Code: "X"}},
		Discounts: []pricingdomain.Discount{{ID: 2}},
	}, 30*time.Second)

	snap, ok := c.Get(7)
	assert.True(t, ok)
	assert.Empty(t, snap.Coupons)
	assert.Len(t, snap.Discounts, 1)

	c.Invalidate(7)
	_, ok = c.Get(7)
	assert.False(t, ok)

	c.Set(0, pricingdomain.Snapshot{}, time.Minute)
	_, ok = c.Get(0)
	assert.False(t, ok)
}
