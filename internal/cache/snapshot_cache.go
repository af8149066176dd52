package cache

import (
	"time"

	"github.com/smallbiznis/storefront/internal/clock"
	pricingdomain "github.com/smallbiznis/storefront/internal/pricing/domain"
)

// SnapshotCache holds each store's rule snapshot between quotes. Coupons are
// never part of a cached snapshot; their usage counters must be read fresh.
type SnapshotCache interface {
	Get(storeID int64) (pricingdomain.Snapshot, bool)
	Set(storeID int64, snapshot pricingdomain.Snapshot, ttl time.Duration)
	Invalidate(storeID int64)
}

type snapshotCache struct {
	snapshots Cache[int64, pricingdomain.Snapshot]
}

func NewSnapshotCache(c clock.Clock) SnapshotCache {
	return &snapshotCache{snapshots: NewTTLCacheWithClock[int64, pricingdomain.Snapshot](c)}
}

func (c *snapshotCache) Get(storeID int64) (pricingdomain.Snapshot, bool) {
	return c.snapshots.Get(storeID)
}

func (c *snapshotCache) Set(storeID int64, snapshot pricingdomain.Snapshot, ttl time.Duration) {
	if storeID == 0 {
		return
	}
	snapshot.Coupons = nil
	c.snapshots.Set(storeID, snapshot, ttl)
}

func (c *snapshotCache) Invalidate(storeID int64) {
	c.snapshots.Delete(storeID)
}
