// Package rcon owns the single authenticated remote-console connection to the
// game: authentication with retry, serialized command execution and the
// voice keep-alive.
package rcon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorcon/rcon"
	"github.com/sonroyaalmerol/rconjukebox/internal/config"
)

var errAuthFailed = rcon.ErrAuthFailed

type State int

const (
	Disconnected State = iota
	Authenticating
	Connected
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Conn is the part of *rcon.Conn the session needs.
type Conn interface {
	Execute(command string) (string, error)
	Close() error
}

type Dialer func(addr, password string) (Conn, error)

// GorconDialer dials with github.com/gorcon/rcon.
func GorconDialer(timeout time.Duration) Dialer {
	return func(addr, password string) (Conn, error) {
		opts := []rcon.Option{}
		if timeout > 0 {
			opts = append(opts, rcon.SetDialTimeout(timeout), rcon.SetDeadline(timeout))
		}
		c, err := rcon.Dial(addr, password, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

type Session struct {
	addr              string
	password          string
	retryInterval     time.Duration
	keepAliveInterval time.Duration
	keepAliveCommand  string
	dial              Dialer

	mu    sync.Mutex // guards state and conn; held across Execute to serialize the wire
	state State
	conn  Conn

	lost     chan struct{} // buffered(1): connection dropped, wake the retry loop
	authOnce sync.Once
	authed   chan struct{}

	OnConnect func(ctx context.Context)
}

func NewSession(cfg *config.Config, dial Dialer) *Session {
	if dial == nil {
		dial = GorconDialer(cfg.RCONDialTimeout)
	}
	return &Session{
		addr:              cfg.RCONAddr,
		password:          cfg.RCONPassword,
		retryInterval:     cfg.RetryInterval,
		keepAliveInterval: cfg.KeepAliveInterval,
		keepAliveCommand:  cfg.KeepAliveCommand,
		dial:              dial,
		state:             Disconnected,
		lost:              make(chan struct{}, 1),
		authed:            make(chan struct{}),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Authenticated is closed after the first successful authentication and
// stays closed for the life of the session.
func (s *Session) Authenticated() <-chan struct{} {
	return s.authed
}

// Authenticate performs one connect+auth round-trip.
func (s *Session) Authenticate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state == Connected {
		s.mu.Unlock()
		return nil
	}
	s.state = Authenticating
	s.mu.Unlock()

	conn, err := s.dial(s.addr, s.password)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = Disconnected
		if isConnRefused(err) {
			return fmt.Errorf("%w: %w", ErrConnectionRefused, err)
		}
		return &AuthError{Code: errorCode(err), Err: err}
	}
	s.conn = conn
	s.state = Connected
	return nil
}

// Execute sends one command over the established connection. A transport
// failure drops the connection; reconnecting is left to Run.
func (s *Session) Execute(ctx context.Context, command string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Connected || s.conn == nil {
		return "", ErrNotConnected
	}

	resp, err := s.conn.Execute(command)
	if err == nil {
		return resp, nil
	}

	if !isCommandError(err) {
		_ = s.conn.Close()
		s.conn = nil
		s.state = Disconnected
		select {
		case s.lost <- struct{}{}:
		default:
		}
		slog.Warn("rcon connection lost", "addr", s.addr, "err", err)
	}
	return "", &ExecError{Command: command, Err: err}
}

func isCommandError(err error) bool {
	return errors.Is(err, rcon.ErrCommandEmpty) || errors.Is(err, rcon.ErrCommandTooLong)
}

// Run keeps the session authenticated until ctx is done: it retries every
// retry interval while disconnected and idles while connected.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.close()
			return nil
		case <-ticker.C:
		}

		err := s.Authenticate(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrConnectionRefused):
			slog.Info("failed to connect to rcon, retrying", "addr", s.addr, "in", s.retryInterval)
			continue
		case ctx.Err() != nil:
			continue
		default:
			slog.Warn("rcon authentication failed, retrying", "addr", s.addr, "err", err)
			continue
		}

		slog.Info("successfully connected to rcon", "addr", s.addr)
		s.authOnce.Do(func() { close(s.authed) })
		if s.OnConnect != nil {
			go s.OnConnect(ctx)
		}

		// no retries while connected
		ticker.Stop()
		select {
		case <-ctx.Done():
			s.close()
			return nil
		case <-s.lost:
		}
		ticker.Reset(s.retryInterval)
	}
}

// KeepAlive re-issues the voice record command on a fixed interval whatever
// the connection state. Failures are swallowed.
func (s *Session) KeepAlive(ctx context.Context) error {
	ticker := time.NewTicker(s.keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Execute(ctx, s.keepAliveCommand); err != nil {
				slog.Debug("keep-alive failed", "command", s.keepAliveCommand, "err", err)
			}
		}
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.state = Disconnected
}
