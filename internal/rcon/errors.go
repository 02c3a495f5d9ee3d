package rcon

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	ErrConnectionRefused = errors.New("rcon: connection refused")
	ErrNotConnected      = errors.New("rcon: not connected")
)

// AuthError is any authentication failure other than a refused connection.
type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("rcon auth failed (%s): %v", e.Code, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ExecError wraps a failed command execution.
type ExecError struct {
	Command string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("rcon exec %q: %v", e.Command, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// WSAECONNREFUSED; syscall.ECONNREFUSED is a placeholder value on Windows.
const wsaConnRefused = syscall.Errno(10061)

func isConnRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == wsaConnRefused
}

func errorCode(err error) string {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return fmt.Sprintf("errno %d", uint(errno))
	}
	switch {
	case errors.Is(err, errAuthFailed):
		return "auth_failed"
	default:
		return "unknown"
	}
}
