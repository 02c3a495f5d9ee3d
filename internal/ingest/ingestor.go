package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sonroyaalmerol/rconjukebox/internal/command"
	"github.com/sonroyaalmerol/rconjukebox/internal/config"
)

// Dispatcher applies one chat command. Dispatch returns once the command has
// been fully handled.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command)
}

// Ingestor tails the console log and feeds commands to a Dispatcher. All
// batches run on the Run goroutine, one after another.
type Ingestor struct {
	path     string
	ledger   Ledger
	dispatch Dispatcher
	poll     time.Duration
}

func NewIngestor(cfg *config.Config, ledger Ledger, d Dispatcher) *Ingestor {
	return &Ingestor{
		path:     filepath.Clean(cfg.LogFile),
		ledger:   ledger,
		dispatch: d,
		poll:     cfg.PollInterval,
	}
}

// Run watches the log's directory until ctx is done. The directory is
// watched rather than the file so truncation and recreation are both seen.
func (in *Ingestor) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(in.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var tick <-chan time.Time
	if in.poll > 0 {
		t := time.NewTicker(in.poll)
		defer t.Stop()
		tick = t.C
	}

	slog.Info("watching console log", "path", in.path, "poll", in.poll)
	in.process(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != in.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				in.process(ctx)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("log watcher error", "err", err)
		case <-tick:
			in.process(ctx)
		}
	}
}

// process drains one batch and dispatches it in file order.
func (in *Ingestor) process(ctx context.Context) {
	cmds, err := in.ledger.Drain(ctx)
	if err != nil {
		slog.Warn("drain console log", "path", in.path, "err", err)
		return
	}
	for _, c := range cmds {
		if ctx.Err() != nil {
			return
		}
		slog.Info("chat command", "kind", c.Kind, "actor", c.Actor, "query", c.Query)
		in.dispatch.Dispatch(ctx, c)
	}
}
