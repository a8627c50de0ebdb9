package http

import (
	"time"

	"tontine/internal/cache"
	"tontine/internal/core"
)

const (
	reportCacheTTL = 5 * time.Second
	cacheKeyActive = "active"
)

// reportCache holds short-lived copies of the report endpoints' payloads.
// Reports walk the whole transaction log, so repeated polling gets the
// cached answer. Any ledger mutation invalidates both caches.
type reportCache struct {
	monthly     *cache.LRUCache[core.MonthlyReport]
	outstanding *cache.LRUCache[[]core.MemberDue]
	manager     *cache.Manager
}

func newReportCache() *reportCache {
	rc := &reportCache{
		monthly:     cache.NewLRUCache[core.MonthlyReport](4, reportCacheTTL),
		outstanding: cache.NewLRUCache[[]core.MemberDue](4, reportCacheTTL),
		manager:     cache.NewManager(),
	}
	rc.manager.Register(rc.monthly)
	rc.manager.Register(rc.outstanding)
	rc.manager.StartCleanup(time.Minute)
	return rc
}

func (rc *reportCache) invalidate() {
	rc.monthly.Delete(cacheKeyActive)
	rc.outstanding.Delete(cacheKeyActive)
}

func (rc *reportCache) stop() {
	rc.manager.Stop()
}
