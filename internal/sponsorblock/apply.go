package sponsorblock

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const category = "music_offtopic"

// Applier trims non-music intros and outros off YouTube tracks.
type Applier struct {
	client     *Client
	cache      *segmentCache
	disableFor time.Duration

	mu            sync.Mutex
	disabledUntil time.Time
}

func NewApplier(timeoutMinutes int) *Applier {
	return &Applier{
		client:     NewClient(),
		cache:      newSegmentCache(segmentTTL, maxCachedVideos),
		disableFor: time.Duration(timeoutMinutes) * time.Minute,
	}
}

// Adjust returns the window to play: offset seconds in, for length seconds.
// changed is false when nothing is trimmed or segments are unavailable.
func (a *Applier) Adjust(ctx context.Context, youtubeID string, lengthSec int) (offset, length int, changed bool) {
	if youtubeID == "" || lengthSec <= 0 {
		return 0, lengthSec, false
	}

	a.mu.Lock()
	disabled := time.Now().Before(a.disabledUntil)
	a.mu.Unlock()
	if disabled {
		return 0, lengthSec, false
	}

	segs, ok := a.cache.get(youtubeID)
	if !ok {
		var err error
		segs, err = a.client.GetSegments(ctx, youtubeID, []string{category})
		if err != nil {
			if errors.Is(err, errUnavailable) {
				a.mu.Lock()
				a.disabledUntil = time.Now().Add(a.disableFor)
				a.mu.Unlock()
			}
			slog.Debug("sponsorblock lookup failed", "id", youtubeID, "err", err)
			return 0, lengthSec, false
		}
		a.cache.put(youtubeID, segs)
	}
	return window(MergeSegments(segs), lengthSec)
}

// window skips a segment starting within 2s of the beginning and cuts one
// ending within 2s of the end.
func window(segs []Segment, lengthSec int) (offset, length int, changed bool) {
	length = lengthSec
	if len(segs) == 0 {
		return 0, length, false
	}

	last := segs[len(segs)-1]
	if last.Segment[1] >= float64(lengthSec-2) {
		if end := int(last.Segment[0]); end > 0 && end < lengthSec {
			length = end
			changed = true
		}
	}

	first := segs[0]
	if first.Segment[0] <= 2.0 {
		if skip := int(first.Segment[1]); skip > 0 && skip < length {
			offset = skip
			length -= skip
			changed = true
		}
	}
	return offset, length, changed
}
