package host

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sonroyaalmerol/rconjukebox/internal/config"
	"github.com/sonroyaalmerol/rconjukebox/internal/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeControls struct {
	mu       sync.Mutex
	calls    []string
	snapshot player.Snapshot
}

func (f *fakeControls) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeControls) PlaybackStarted(_ context.Context, entryID string) {
	f.record("started " + entryID)
}

func (f *fakeControls) PlaybackFinished(_ context.Context, entryID string) {
	f.record("finished " + entryID)
}

func (f *fakeControls) Skip(context.Context)          { f.record("skip") }
func (f *fakeControls) FixMicrophone(context.Context) { f.record("mic") }

func (f *fakeControls) Snapshot() player.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func (f *fakeControls) setSnapshot(s player.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = s
}

func (f *fakeControls) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func song(entry, title string) player.QueuedSong {
	return player.QueuedSong{
		EntryID: entry,
		Song:    player.Song{ID: "id-" + title, Title: title, Channel: "chan", AudioURL: "https://audio/" + title},
	}
}

type harness struct {
	hub      *Hub
	controls *fakeControls
	srv      *Server
	http     *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{hub: NewHub(), controls: &fakeControls{}}
	go h.hub.Run(ctx)
	h.srv = NewServer(ctx, &config.Config{}, h.hub, h.controls)
	h.http = httptest.NewServer(h.srv.Router())
	t.Cleanup(h.http.Close)
	return h
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	before := h.hub.Clients()
	url := "ws" + strings.TrimPrefix(h.http.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	require.Eventually(t, func() bool { return h.hub.Clients() == before+1 }, time.Second, 5*time.Millisecond)
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := httptest.NewRecorder()
	h.srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestQueueEndpoint(t *testing.T) {
	h := newHarness(t)
	cur := song("e1", "A")
	h.controls.setSnapshot(player.Snapshot{
		Current:   &cur,
		Queue:     []player.QueuedSong{cur, song("e2", "B")},
		SkipVotes: 2,
		Threshold: 4,
	})

	rec := httptest.NewRecorder()
	h.srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/queue", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap player.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.NotNil(t, snap.Current)
	assert.Equal(t, "e1", snap.Current.EntryID)
	assert.Len(t, snap.Queue, 2)
	assert.Equal(t, 2, snap.SkipVotes)
}

func TestIndex(t *testing.T) {
	h := newHarness(t)
	rec := httptest.NewRecorder()
	h.srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/ws")
}

func TestChangeSongReachesPages(t *testing.T) {
	h := newHarness(t)
	first := h.dial(t)
	second := h.dial(t)

	h.hub.ChangeSong(song("e1", "A"))

	for _, ws := range []*websocket.Conn{first, second} {
		msg := readMessage(t, ws)
		assert.Equal(t, TypeChangeSong, msg.Type)
		require.NotNil(t, msg.Song)
		assert.Equal(t, "A", msg.Song.Song.Title)
		assert.Equal(t, "https://audio/A", msg.Song.Song.AudioURL)
	}
}

func TestCurrentSongReplayedOnConnect(t *testing.T) {
	h := newHarness(t)
	cur := song("e7", "Current")
	h.controls.setSnapshot(player.Snapshot{Current: &cur, Queue: []player.QueuedSong{cur}})

	ws := h.dial(t)
	msg := readMessage(t, ws)
	assert.Equal(t, TypeChangeSong, msg.Type)
	assert.Equal(t, "e7", msg.Song.EntryID)
}

func TestInboundMessages(t *testing.T) {
	h := newHarness(t)
	cur := song("e1", "A")
	h.controls.setSnapshot(player.Snapshot{Current: &cur, Queue: []player.QueuedSong{cur}})
	ws := h.dial(t)
	_ = readMessage(t, ws) // replay

	for _, m := range []Message{
		{Type: TypeSongPlaying, EntryID: "e1"},
		{Type: TypeSongFinished, EntryID: "old"},
		{Type: "volume"},
		{Type: TypeSongFinished},
		{Type: TypeSkipSong},
		{Type: TypeFixMicrophone},
	} {
		require.NoError(t, ws.WriteJSON(m))
	}

	assert.Eventually(t, func() bool {
		return len(h.controls.recorded()) == 5
	}, 2*time.Second, 5*time.Millisecond)
	// entry checks belong to the engine; the server forwards the id as sent
	assert.Equal(t, []string{"started e1", "finished old", "finished ", "skip", "mic"}, h.controls.recorded())
}

func TestDisconnectUnregisters(t *testing.T) {
	h := newHarness(t)
	ws := h.dial(t)
	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return h.hub.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestChangeSongNeverBlocks(t *testing.T) {
	hub := NewHub() // not running
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.ChangeSong(song("e", "A"))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ChangeSong blocked")
	}
}

func TestCORS(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub()
	go hub.Run(ctx)
	srv := NewServer(ctx, &config.Config{HostAllowedOrigins: []string{"http://localhost:5173"}}, hub, &fakeControls{})

	req := httptest.NewRequest(http.MethodGet, "/api/queue", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
