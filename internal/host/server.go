package host

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/sonroyaalmerol/rconjukebox/internal/config"
	"github.com/sonroyaalmerol/rconjukebox/internal/player"
)

//go:embed web/index.html
var indexHTML []byte

// Controls is what a player page can trigger.
type Controls interface {
	PlaybackStarted(ctx context.Context, entryID string)
	PlaybackFinished(ctx context.Context, entryID string)
	Skip(ctx context.Context)
	FixMicrophone(ctx context.Context)
	Snapshot() player.Snapshot
}

var upgrader = websocket.Upgrader{
	// pages are served from this same listener
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	cfg      *config.Config
	hub      *Hub
	controls Controls
	router   chi.Router
	ctx      context.Context
}

// NewServer builds the player page server. ctx bounds the work triggered by
// page messages, which outlives the upgrade request.
func NewServer(ctx context.Context, cfg *config.Config, hub *Hub, controls Controls) *Server {
	s := &Server{cfg: cfg, hub: hub, controls: controls, ctx: ctx}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	if len(cfg.HostAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.HostAllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			MaxAge:         300,
		}))
	}

	r.Get("/", s.handleIndex)
	r.Get("/ws", s.handleWS)
	r.Get("/health", s.handleHealth)
	r.Get("/api/queue", s.handleQueue)

	s.router = r
	return s
}

func (s *Server) Router() chi.Router {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HostListen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("player host listening", "addr", s.cfg.HostListen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("player host: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.hub.Clients(),
	})
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controls.Snapshot())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade", "err", err)
		return
	}

	client := &Client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, 16),
		handle: s.handleMessage,
	}

	// a page that joins mid-song starts playing it right away
	if cur := s.controls.Snapshot().Current; cur != nil {
		if b, err := json.Marshal(Message{Type: TypeChangeSong, Song: cur}); err == nil {
			client.send <- b
		}
	}

	if !s.hub.add(client) {
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

func (s *Server) handleMessage(msg Message) {
	switch msg.Type {
	case TypeSongPlaying:
		s.controls.PlaybackStarted(s.ctx, msg.EntryID)
	case TypeSongFinished:
		s.controls.PlaybackFinished(s.ctx, msg.EntryID)
	case TypeSkipSong:
		s.controls.Skip(s.ctx)
	case TypeFixMicrophone:
		s.controls.FixMicrophone(s.ctx)
	default:
		slog.Debug("unknown message from player page", "type", msg.Type)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
