package handlers

import (
	"context"
	"log/slog"

	"github.com/sonroyaalmerol/rconjukebox/internal/command"
	"github.com/sonroyaalmerol/rconjukebox/internal/player"
)

// Engine is the part of the queue engine driven by chat and the player page.
type Engine interface {
	Enqueue(ctx context.Context, query, requestedBy string) error
	RegisterSkipVote(ctx context.Context, actor string)
	ManualSkip(ctx context.Context)
	OnPlaybackStarted(ctx context.Context, entryID string)
	OnPlaybackFinished(ctx context.Context, entryID string)
	Snapshot() player.Snapshot
}

type MicFixer interface {
	Fix(ctx context.Context) error
}

// CommandHandler routes chat commands from the console log and control
// messages from the player page into the engine.
type CommandHandler struct {
	engine Engine
	mic    MicFixer
}

func NewCommandHandler(engine Engine, mic MicFixer) *CommandHandler {
	return &CommandHandler{engine: engine, mic: mic}
}

func (h *CommandHandler) Dispatch(ctx context.Context, c command.Command) {
	switch c.Kind {
	case command.PlaySong:
		slog.Info("cmd play", "actor", c.Actor, "query", c.Query)
		if err := h.engine.Enqueue(ctx, c.Query, c.Actor); err != nil {
			slog.Warn("enqueue failed", "actor", c.Actor, "query", c.Query, "err", err)
		}
	case command.VoteSkip:
		slog.Info("cmd skip", "actor", c.Actor)
		h.engine.RegisterSkipVote(ctx, c.Actor)
	default:
		slog.Debug("ignored line", "line", c.Line)
	}
}

func (h *CommandHandler) PlaybackStarted(ctx context.Context, entryID string) {
	h.engine.OnPlaybackStarted(ctx, entryID)
}

func (h *CommandHandler) PlaybackFinished(ctx context.Context, entryID string) {
	h.engine.OnPlaybackFinished(ctx, entryID)
}

func (h *CommandHandler) Skip(ctx context.Context) {
	slog.Info("manual skip")
	h.engine.ManualSkip(ctx)
}

func (h *CommandHandler) FixMicrophone(ctx context.Context) {
	slog.Info("manual microphone fix")
	// Fix logs its own failures
	_ = h.mic.Fix(ctx)
}

func (h *CommandHandler) Snapshot() player.Snapshot {
	return h.engine.Snapshot()
}
