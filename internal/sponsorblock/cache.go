package sponsorblock

import (
	"sync"
	"time"
)

const (
	segmentTTL      = time.Hour
	maxCachedVideos = 1024
)

type cachedSegments struct {
	segs    []Segment
	expires time.Time
}

// segmentCache remembers segment lookups per video for a while. Expired
// entries are dropped as soon as they are seen, and a full cache is swept
// before it grows.
type segmentCache struct {
	ttl time.Duration
	max int
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cachedSegments
}

func newSegmentCache(ttl time.Duration, max int) *segmentCache {
	return &segmentCache{
		ttl:     ttl,
		max:     max,
		now:     time.Now,
		entries: make(map[string]cachedSegments),
	}
}

func (c *segmentCache) get(videoID string) ([]Segment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ent, ok := c.entries[videoID]
	if !ok {
		return nil, false
	}
	if !c.now().Before(ent.expires) {
		delete(c.entries, videoID)
		return nil, false
	}
	return ent.segs, true
}

func (c *segmentCache) put(videoID string, segs []Segment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, ok := c.entries[videoID]; !ok && len(c.entries) >= c.max {
		c.sweepLocked(now)
	}
	c.entries[videoID] = cachedSegments{segs: segs, expires: now.Add(c.ttl)}
}

// sweepLocked drops expired entries, then the ones closest to expiring
// until there is room for one more.
func (c *segmentCache) sweepLocked(now time.Time) {
	for id, ent := range c.entries {
		if !now.Before(ent.expires) {
			delete(c.entries, id)
		}
	}
	for len(c.entries) >= c.max {
		var oldest string
		var oldestExp time.Time
		for id, ent := range c.entries {
			if oldest == "" || ent.expires.Before(oldestExp) {
				oldest, oldestExp = id, ent.expires
			}
		}
		delete(c.entries, oldest)
	}
}

func (c *segmentCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
