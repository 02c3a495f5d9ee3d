package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sonroyaalmerol/rconjukebox/internal/config"
	"github.com/sonroyaalmerol/rconjukebox/internal/utils"
)

var ErrAudioRouting = errors.New("audio routing failed")

type Executor interface {
	Execute(ctx context.Context, cmd string) (string, error)
}

// Fixer points the game's voice input at the virtual cable and restarts
// voice recording so the game picks it up.
type Fixer struct {
	exec   Executor
	nircmd string
	device string
	pulse  time.Duration

	route func(ctx context.Context, name string, args ...string) error
	sleep func(ctx context.Context, d time.Duration) error
}

func NewFixer(cfg *config.Config, exec Executor) *Fixer {
	return &Fixer{
		exec:   exec,
		nircmd: cfg.NircmdPath,
		device: cfg.AudioDevice,
		pulse:  time.Second,
		route:  runTool,
		sleep:  sleepCtx,
	}
}

var voiceSetup = []string{
	"voice_loopback 1",
	"voice_buffer_ms 200",
	"-voicerecord",
}

// Fix routes audio, then pulses voice recording. A routing failure abandons
// the rest of the sequence.
func (f *Fixer) Fix(ctx context.Context) error {
	if f.nircmd != "" {
		if err := f.route(ctx, f.nircmd, "setdefaultsounddevice", f.device, "1"); err != nil {
			err = fmt.Errorf("%w: %w", ErrAudioRouting, err)
			slog.Error("fix microphone", "device", f.device, "err", err)
			return err
		}
	} else {
		slog.Debug("audio routing skipped, no nircmd configured")
	}

	for _, cmd := range voiceSetup {
		f.execute(ctx, cmd)
	}
	if err := f.sleep(ctx, f.pulse); err != nil {
		return err
	}
	f.execute(ctx, "+voicerecord")
	slog.Info("microphone fixed", "device", f.device)
	return nil
}

func (f *Fixer) execute(ctx context.Context, cmd string) {
	if _, err := f.exec.Execute(ctx, cmd); err != nil {
		slog.Warn("voice command failed", "cmd", cmd, "err", err)
	}
}

func runTool(ctx context.Context, name string, args ...string) error {
	_, err := utils.CmdCombinedOutput(utils.ExecWith(ctx, name, args...))
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
