package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sonroyaalmerol/rconjukebox/internal/command"
	"github.com/sonroyaalmerol/rconjukebox/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	offsets map[string]int64
	setErr  error
}

func newMemStore() *memStore { return &memStore{offsets: map[string]int64{}} }

func (m *memStore) GetLogOffset(_ context.Context, path string) (int64, bool, error) {
	off, ok := m.offsets[path]
	return off, ok, nil
}

func (m *memStore) SetLogOffset(_ context.Context, path string, off int64) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.offsets[path] = off
	return nil
}

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func kinds(cmds []command.Command) []command.Kind {
	out := make([]command.Kind, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.Kind)
	}
	return out
}

func TestRewriteLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("consumed lines are removed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "console.log")
		writeLog(t, path, "A\r\nuser1?play foo\r\nB\r\nuser2?skip\r\nC")

		l := NewRewriteLedger(path)
		cmds, err := l.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, []command.Kind{command.PlaySong, command.VoteSkip}, kinds(cmds))
		assert.Equal(t, "foo", cmds[0].Query)
		assert.Equal(t, "user2", cmds[1].Actor)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "A\r\nB\r\nC", string(data))

		cmds, err = l.Drain(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmds, "a repeated notification finds nothing")
	})

	t.Run("file without commands is left alone", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "console.log")
		writeLog(t, path, "A\r\nB\r\n")
		before, err := os.Stat(path)
		require.NoError(t, err)

		cmds, err := NewRewriteLedger(path).Drain(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmds)

		after, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, before.ModTime(), after.ModTime())
	})

	t.Run("trailing separator survives", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "console.log")
		writeLog(t, path, "A\r\nx?skip\r\n")
		_, err := NewRewriteLedger(path).Drain(ctx)
		require.NoError(t, err)
		data, _ := os.ReadFile(path)
		assert.Equal(t, "A\r\n", string(data))
	})

	t.Run("unterminated line waits for its separator", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "console.log")
		writeLog(t, path, "A\r\nuser1 :  ?play never gon")
		l := NewRewriteLedger(path)

		cmds, err := l.Drain(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmds)
		data, _ := os.ReadFile(path)
		assert.Equal(t, "A\r\nuser1 :  ?play never gon", string(data))

		appendLog(t, path, "na\r\nB")
		cmds, err = l.Drain(ctx)
		require.NoError(t, err)
		require.Len(t, cmds, 1)
		assert.Equal(t, "never gonna", cmds[0].Query)
		data, _ = os.ReadFile(path)
		assert.Equal(t, "A\r\nB", string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		cmds, err := NewRewriteLedger(filepath.Join(t.TempDir(), "nope.log")).Drain(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmds)
	})
}

func TestOffsetLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("starts at end of existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "console.log")
		writeLog(t, path, "old?play history\r\n")
		store := newMemStore()
		l := NewOffsetLedger(path, store)

		cmds, err := l.Drain(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmds)
		assert.Equal(t, int64(len("old?play history\r\n")), store.offsets[path])
	})

	t.Run("only appended lines are returned", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "console.log")
		writeLog(t, path, "A\r\n")
		l := NewOffsetLedger(path, newMemStore())
		_, err := l.Drain(ctx)
		require.NoError(t, err)

		appendLog(t, path, "user1?play foo\r\nB\r\nuser2?skip\r\n")
		cmds, err := l.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, []command.Kind{command.PlaySong, command.VoteSkip}, kinds(cmds))
		assert.Equal(t, "foo", cmds[0].Query)

		cmds, err = l.Drain(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmds)

		data, _ := os.ReadFile(path)
		assert.Equal(t, "A\r\nuser1?play foo\r\nB\r\nuser2?skip\r\n", string(data), "log is never written")
	})

	t.Run("partial line waits for newline", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "console.log")
		writeLog(t, path, "")
		l := NewOffsetLedger(path, newMemStore())
		_, err := l.Drain(ctx)
		require.NoError(t, err)

		appendLog(t, path, "user3?play ba")
		cmds, err := l.Drain(ctx)
		require.NoError(t, err)
		assert.Empty(t, cmds)
		assert.Equal(t, int64(0), l.Offset())

		appendLog(t, path, "r\r\n")
		cmds, err = l.Drain(ctx)
		require.NoError(t, err)
		require.Len(t, cmds, 1)
		assert.Equal(t, "bar", cmds[0].Query)
	})

	t.Run("truncation resets to start", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "console.log")
		writeLog(t, path, "a long line of chatter that is consumed\r\n")
		l := NewOffsetLedger(path, newMemStore())
		_, err := l.Drain(ctx)
		require.NoError(t, err)

		writeLog(t, path, "x?skip\r\n")
		cmds, err := l.Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, []command.Kind{command.VoteSkip}, kinds(cmds))
		assert.Equal(t, int64(len("x?skip\r\n")), l.Offset())
	})

	t.Run("stored offset is resumed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "console.log")
		writeLog(t, path, "A\r\nu?skip\r\n")
		store := newMemStore()
		store.offsets[path] = 3

		cmds, err := NewOffsetLedger(path, store).Drain(ctx)
		require.NoError(t, err)
		assert.Equal(t, []command.Kind{command.VoteSkip}, kinds(cmds))
	})

	t.Run("failed save hands out nothing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "console.log")
		writeLog(t, path, "")
		store := newMemStore()
		l := NewOffsetLedger(path, store)
		_, err := l.Drain(ctx)
		require.NoError(t, err)

		appendLog(t, path, "u?skip\r\n")
		store.setErr = errors.New("database is locked")
		cmds, err := l.Drain(ctx)
		assert.Error(t, err)
		assert.Empty(t, cmds)

		store.setErr = nil
		cmds, err = l.Drain(ctx)
		require.NoError(t, err)
		assert.Len(t, cmds, 1)
	})
}

func TestNewLedger(t *testing.T) {
	l, err := NewLedger(&config.Config{LedgerMode: config.LedgerRewrite, LogFile: "x"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &RewriteLedger{}, l)

	l, err = NewLedger(&config.Config{LedgerMode: config.LedgerOffset, LogFile: "x"}, newMemStore())
	require.NoError(t, err)
	assert.IsType(t, &OffsetLedger{}, l)

	_, err = NewLedger(&config.Config{LedgerMode: config.LedgerOffset}, nil)
	assert.Error(t, err)

	_, err = NewLedger(&config.Config{LedgerMode: "tail"}, newMemStore())
	assert.Error(t, err)
}
