package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/sonroyaalmerol/rconjukebox/internal/command"
	"github.com/sonroyaalmerol/rconjukebox/internal/config"
)

const lineSep = "\r\n"

// Ledger records which log lines have been consumed. Drain returns the
// commands not yet handed out, in file order, and marks them consumed before
// returning.
type Ledger interface {
	Drain(ctx context.Context) ([]command.Command, error)
}

// OffsetStore persists the consumed byte offset per log file.
type OffsetStore interface {
	GetLogOffset(ctx context.Context, path string) (int64, bool, error)
	SetLogOffset(ctx context.Context, path string, offset int64) error
}

func NewLedger(cfg *config.Config, store OffsetStore) (Ledger, error) {
	switch cfg.LedgerMode {
	case config.LedgerRewrite:
		return NewRewriteLedger(cfg.LogFile), nil
	case config.LedgerOffset, "":
		if store == nil {
			return nil, errors.New("offset ledger needs a store")
		}
		return NewOffsetLedger(cfg.LogFile, store), nil
	default:
		return nil, fmt.Errorf("unknown ledger mode %q", cfg.LedgerMode)
	}
}

// RewriteLedger consumes commands by deleting their lines from the log file
// itself. Everything that is not a command is written back untouched.
type RewriteLedger struct {
	path string
}

func NewRewriteLedger(path string) *RewriteLedger {
	return &RewriteLedger{path: path}
}

func (l *RewriteLedger) Drain(_ context.Context) ([]command.Command, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log: %w", err)
	}

	// the last segment has no separator yet; the game may still be
	// writing it, so it is kept as is and parsed on a later pass
	lines := strings.Split(string(data), lineSep)
	tail := lines[len(lines)-1]
	kept := make([]string, 0, len(lines))
	var cmds []command.Command
	for _, line := range lines[:len(lines)-1] {
		if c := command.Parse(line); c.Kind != command.None {
			cmds = append(cmds, c)
			continue
		}
		kept = append(kept, line)
	}
	kept = append(kept, tail)
	if len(cmds) == 0 {
		return nil, nil
	}

	if err := overwrite(l.path, strings.Join(kept, lineSep)); err != nil {
		return nil, fmt.Errorf("rewrite log: %w", err)
	}
	return cmds, nil
}

// overwrite truncates and rewrites the file in place so the game's open
// handle keeps pointing at it.
func overwrite(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(f, content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// OffsetLedger reads the log from the last consumed offset and never writes
// to it. Only complete lines are consumed; a partial trailing line waits for
// its newline.
type OffsetLedger struct {
	path   string
	store  OffsetStore
	offset int64
	loaded bool
}

func NewOffsetLedger(path string, store OffsetStore) *OffsetLedger {
	return &OffsetLedger{path: path, store: store}
}

func (l *OffsetLedger) Drain(ctx context.Context) ([]command.Command, error) {
	if !l.loaded {
		if err := l.load(ctx); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}
	start := l.offset
	if st.Size() < start {
		// truncated or replaced
		start = 0
	}
	if st.Size() == start {
		if start != l.offset {
			return nil, l.commit(ctx, start)
		}
		return nil, nil
	}

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek log: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(f, st.Size()-start))
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		if start != l.offset {
			return nil, l.commit(ctx, start)
		}
		return nil, nil
	}
	data = data[:end+1]

	if err := l.commit(ctx, start+int64(len(data))); err != nil {
		return nil, err
	}

	var cmds []command.Command
	for _, line := range strings.Split(string(data[:end]), "\n") {
		if c := command.Parse(strings.TrimSuffix(line, "\r")); c.Kind != command.None {
			cmds = append(cmds, c)
		}
	}
	return cmds, nil
}

// load restores the stored offset. With nothing stored, consumption starts
// at the current end of the file so old chat is not replayed.
func (l *OffsetLedger) load(ctx context.Context) error {
	off, ok, err := l.store.GetLogOffset(ctx, l.path)
	if err != nil {
		return fmt.Errorf("load offset: %w", err)
	}
	if !ok {
		st, err := os.Stat(l.path)
		switch {
		case err == nil:
			off = st.Size()
		case errors.Is(err, fs.ErrNotExist):
			off = 0
		default:
			return fmt.Errorf("stat log: %w", err)
		}
		if err := l.store.SetLogOffset(ctx, l.path, off); err != nil {
			return fmt.Errorf("save offset: %w", err)
		}
	}
	l.offset = off
	l.loaded = true
	return nil
}

func (l *OffsetLedger) commit(ctx context.Context, off int64) error {
	if err := l.store.SetLogOffset(ctx, l.path, off); err != nil {
		return fmt.Errorf("save offset: %w", err)
	}
	l.offset = off
	return nil
}

// Offset is the consumed position, for logs and tests.
func (l *OffsetLedger) Offset() int64 { return l.offset }
