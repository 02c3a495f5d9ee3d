package player

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sonroyaalmerol/rconjukebox/internal/config"
	"github.com/sonroyaalmerol/rconjukebox/internal/utils"
)

const (
	DefaultSkipThreshold = 4
	DefaultGracePeriod   = 2 * time.Second
)

type Resolver interface {
	Resolve(ctx context.Context, query string) (Song, error)
}

type Announcer interface {
	Announce(ctx context.Context, text string, team bool)
}

// Host receives change-song events. ChangeSong is called with the player
// lock held, so it must not block or call back into the Player.
type Host interface {
	ChangeSong(song QueuedSong)
}

// Player owns the song queue and the vote-skip tally. The current song is
// always the queue head; there is no separate slot to keep in sync.
type Player struct {
	resolver  Resolver
	announcer Announcer
	host      Host
	threshold int
	grace     time.Duration
	afterFunc func(d time.Duration, f func())

	mu     sync.Mutex
	queue  []QueuedSong
	voters map[string]struct{}
	votes  int

	// entry IDs of the current song whose playing/finished report was
	// already handled; every open page sends its own
	started  string
	finished string
}

func NewPlayer(cfg *config.Config, resolver Resolver, announcer Announcer, host Host) *Player {
	threshold := cfg.SkipThreshold
	if threshold <= 0 {
		threshold = DefaultSkipThreshold
	}
	return &Player{
		resolver:  resolver,
		announcer: announcer,
		host:      host,
		threshold: threshold,
		grace:     cfg.GracePeriod,
		afterFunc: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		voters:    make(map[string]struct{}),
	}
}

// Enqueue looks up query and appends the result. A song landing on an empty
// queue starts playing right away; the now-playing announcement waits for
// the host to report that audio has loaded.
func (p *Player) Enqueue(ctx context.Context, query, requestedBy string) error {
	p.announcer.Announce(ctx, searchingText(query), true)

	song, err := p.resolver.Resolve(ctx, query)
	if err != nil {
		return fmt.Errorf("lookup %q: %w", query, err)
	}
	slog.Info("found song", "title", song.Title, "channel", song.Channel, "length", utils.PrettyTime(song.Duration))

	entry := QueuedSong{EntryID: uuid.NewString(), Song: song, RequestedBy: requestedBy}

	p.mu.Lock()
	p.queue = append(p.queue, entry)
	first := len(p.queue) == 1
	if first {
		p.resetVotesLocked()
		p.host.ChangeSong(entry)
	}
	p.mu.Unlock()

	if !first {
		p.announcer.Announce(ctx, addedText(song), true)
	}
	return nil
}

// RegisterSkipVote counts at most one vote per actor for the current song.
func (p *Player) RegisterSkipVote(ctx context.Context, actor string) {
	p.mu.Lock()
	if len(p.queue) == 0 {
		p.mu.Unlock()
		return
	}
	if _, voted := p.voters[actor]; !voted {
		p.voters[actor] = struct{}{}
		p.votes++
	}
	votes := p.votes
	if votes < p.threshold {
		p.mu.Unlock()
		p.announcer.Announce(ctx, voteProgressText(actor, votes, p.threshold), false)
		return
	}
	entryID := p.queue[0].EntryID
	p.resetVotesLocked()
	p.mu.Unlock()

	slog.Info("vote skip passed", "entry", entryID, "votes", votes)
	p.announcer.Announce(ctx, skippingText, true)
	p.scheduleAdvance(entryID)
}

// ManualSkip skips the current song without a vote.
func (p *Player) ManualSkip(ctx context.Context) {
	p.mu.Lock()
	entryID := ""
	if len(p.queue) > 0 {
		entryID = p.queue[0].EntryID
	}
	p.mu.Unlock()

	p.announcer.Announce(ctx, skippingText, true)
	if entryID != "" {
		p.scheduleAdvance(entryID)
	}
}

// Advance drops the current song and starts the next one, if any. With
// nothing current it does nothing.
func (p *Player) Advance() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked()
}

// OnPlaybackStarted handles a host report that entryID began playing. An
// empty entryID means whatever is current. Reports for any other entry, or
// repeats for the same one, are dropped.
func (p *Player) OnPlaybackStarted(ctx context.Context, entryID string) {
	p.mu.Lock()
	cur, ok := p.claimLocked(entryID, &p.started)
	p.mu.Unlock()
	if !ok {
		return
	}

	p.announcer.Announce(ctx, nowPlayingText(cur.Song), true)
}

// OnPlaybackFinished is OnPlaybackStarted for the end of a song; the first
// report schedules the advance.
func (p *Player) OnPlaybackFinished(ctx context.Context, entryID string) {
	p.mu.Lock()
	cur, ok := p.claimLocked(entryID, &p.finished)
	p.mu.Unlock()
	if !ok {
		return
	}

	p.announcer.Announce(ctx, finishedText(cur.Song), false)
	p.scheduleAdvance(cur.EntryID)
}

// claimLocked reports whether a host event for entryID applies to the
// current song and has not been seen yet, marking it seen in *handled.
func (p *Player) claimLocked(entryID string, handled *string) (QueuedSong, bool) {
	if len(p.queue) == 0 {
		return QueuedSong{}, false
	}
	cur := p.queue[0]
	if entryID != "" && entryID != cur.EntryID {
		slog.Debug("stale playback event", "entry", entryID, "current", cur.EntryID)
		return QueuedSong{}, false
	}
	if *handled == cur.EntryID {
		slog.Debug("duplicate playback event", "entry", cur.EntryID)
		return QueuedSong{}, false
	}
	*handled = cur.EntryID
	return cur, true
}

func (p *Player) Current() *QueuedSong {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return nil
	}
	cur := p.queue[0]
	return &cur
}

func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := Snapshot{
		Queue:     slices.Clone(p.queue),
		SkipVotes: p.votes,
		Threshold: p.threshold,
	}
	if snap.Queue == nil {
		snap.Queue = []QueuedSong{}
	}
	if len(p.queue) > 0 {
		cur := p.queue[0]
		snap.Current = &cur
	}
	return snap
}

// scheduleAdvance advances after the grace period, but only if entryID is
// still the current song by then.
func (p *Player) scheduleAdvance(entryID string) {
	p.afterFunc(p.grace, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if len(p.queue) == 0 || p.queue[0].EntryID != entryID {
			slog.Debug("stale advance ignored", "entry", entryID)
			return
		}
		p.advanceLocked()
	})
}

func (p *Player) advanceLocked() {
	if len(p.queue) == 0 {
		return
	}
	p.queue = slices.Delete(p.queue, 0, 1)
	p.resetVotesLocked()

	if len(p.queue) == 0 {
		slog.Info("queue finished")
		return
	}
	p.host.ChangeSong(p.queue[0])
}

func (p *Player) resetVotesLocked() {
	clear(p.voters)
	p.votes = 0
}
