package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sonroyaalmerol/rconjukebox/internal/config"
	"github.com/sonroyaalmerol/rconjukebox/internal/host"
	"github.com/sonroyaalmerol/rconjukebox/internal/ingest"
	"github.com/sonroyaalmerol/rconjukebox/internal/notifier"
	"github.com/sonroyaalmerol/rconjukebox/internal/player"
	"github.com/sonroyaalmerol/rconjukebox/internal/rcon"
	"github.com/sonroyaalmerol/rconjukebox/internal/voice"
	"golang.org/x/sync/errgroup"
)

// Bridge owns every long-running piece: the RCON session and its
// keep-alive, the player page host, and the console log ingestor.
type Bridge struct {
	cfg     *config.Config
	session *rcon.Session
	hub     *host.Hub
	player  *player.Player
	cmd     *CommandHandler
	ledger  ingest.Ledger
}

// NewBridge wires the components. store may be nil in rewrite mode.
func NewBridge(cfg *config.Config, store ingest.OffsetStore, dial rcon.Dialer) (*Bridge, error) {
	ledger, err := ingest.NewLedger(cfg, store)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}

	session := rcon.NewSession(cfg, dial)
	hub := host.NewHub()
	p := player.NewPlayer(cfg, player.NewLookup(cfg), notifier.New(session), hub)
	fixer := voice.NewFixer(cfg, session)

	session.OnConnect = func(ctx context.Context) {
		_ = fixer.Fix(ctx)
	}

	return &Bridge{
		cfg:     cfg,
		session: session,
		hub:     hub,
		player:  p,
		cmd:     NewCommandHandler(p, fixer),
		ledger:  ledger,
	}, nil
}

func (b *Bridge) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return b.session.Run(ctx) })
	g.Go(func() error { return b.session.KeepAlive(ctx) })
	g.Go(func() error { return b.hub.Run(ctx) })
	g.Go(func() error {
		return host.NewServer(ctx, b.cfg, b.hub, b.cmd).Run(ctx)
	})
	g.Go(func() error {
		// chat commands are only read once announcements can be delivered
		select {
		case <-ctx.Done():
			return nil
		case <-b.session.Authenticated():
		}
		slog.Info("rcon ready, reading console log", "path", b.cfg.LogFile, "ledger", b.cfg.LedgerMode)
		return ingest.NewIngestor(b.cfg, b.ledger, b.cmd).Run(ctx)
	})

	return g.Wait()
}
