package errors

import (
	"errors"
	"fmt"
	"time"
)

// ServerHostError is the base interface for all server host errors.
type ServerHostError interface {
	error
	IsServerHostError() bool
}

// Compile-time verification that all error types implement ServerHostError.
var (
	_ ServerHostError = (*AllocationError)(nil)
	_ ServerHostError = (*LaunchError)(nil)
	_ ServerHostError = (*RendezvousError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrAlreadyStarted indicates Start was called while a session is starting or running.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrNotRunning indicates an operation that requires a running session was
	// invoked while the session is stopped. Callers may treat it as a no-op.
	ErrNotRunning = errors.New("session not running")

	// ErrStartAborted indicates Stop was called while Start was still in progress.
	ErrStartAborted = errors.New("start aborted by stop")
)

// AllocationErrorKind classifies endpoint allocation failures.
type AllocationErrorKind int

const (
	// PortInUse means another socket already holds the requested port.
	PortInUse AllocationErrorKind = iota + 1
	// PermissionDenied means the OS refused the bind.
	PermissionDenied
	// BindFailed covers any other bind failure.
	BindFailed
)

func (k AllocationErrorKind) String() string {
	switch k {
	case PortInUse:
		return "port in use"
	case PermissionDenied:
		return "permission denied"
	case BindFailed:
		return "bind failed"
	default:
		return "unknown"
	}
}

// AllocationError indicates the listening endpoint could not be opened.
type AllocationError struct {
	Kind    AllocationErrorKind
	Address string
	Err     error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocate endpoint %s: %s: %v", e.Address, e.Kind, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}

// IsServerHostError implements ServerHostError.
func (e *AllocationError) IsServerHostError() bool { return true }

// LaunchErrorKind classifies process launch failures.
type LaunchErrorKind int

const (
	// SpawnFailed means the executable could not be located or started.
	SpawnFailed LaunchErrorKind = iota + 1
	// PrematureExit means the process exited before a transport was established.
	PrematureExit
)

func (k LaunchErrorKind) String() string {
	switch k {
	case SpawnFailed:
		return "spawn failed"
	case PrematureExit:
		return "premature exit"
	default:
		return "unknown"
	}
}

// LaunchError indicates the external server process failed to start or
// exited before connecting.
type LaunchError struct {
	Kind          LaunchErrorKind
	Executable    string
	SearchedPaths []string
	ExitCode      int
	Stderr        string
	Err           error
}

func (e *LaunchError) Error() string {
	switch {
	case e.Kind == PrematureExit && e.Stderr != "":
		return fmt.Sprintf("server process exited with code %d: %s", e.ExitCode, e.Stderr)
	case e.Kind == PrematureExit:
		return fmt.Sprintf("server process exited with code %d", e.ExitCode)
	case len(e.SearchedPaths) > 0:
		return fmt.Sprintf("server executable %q not found in: %v", e.Executable, e.SearchedPaths)
	default:
		return fmt.Sprintf("start server process %q: %v", e.Executable, e.Err)
	}
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsServerHostError implements ServerHostError.
func (e *LaunchError) IsServerHostError() bool { return true }

// RendezvousErrorKind classifies failures while waiting for the server to connect.
type RendezvousErrorKind int

const (
	// ServerExited means the server process exited before connecting.
	ServerExited RendezvousErrorKind = iota + 1
	// Timeout means no connection arrived within the configured timeout.
	Timeout
	// AcceptFailed means the listener returned an unexpected error.
	AcceptFailed
	// HandshakeFailed means the first connection did not present the expected token.
	HandshakeFailed
)

func (k RendezvousErrorKind) String() string {
	switch k {
	case ServerExited:
		return "server exited"
	case Timeout:
		return "timeout"
	case AcceptFailed:
		return "accept failed"
	case HandshakeFailed:
		return "handshake failed"
	default:
		return "unknown"
	}
}

// RendezvousError indicates the server never delivered a usable connection.
type RendezvousError struct {
	Kind     RendezvousErrorKind
	Address  string
	ExitCode int
	Timeout  time.Duration
	Err      error
}

func (e *RendezvousError) Error() string {
	switch e.Kind {
	case ServerExited:
		return fmt.Sprintf("rendezvous on %s: server exited before connecting (exit %d): %v",
			e.Address, e.ExitCode, e.Err)
	case Timeout:
		return fmt.Sprintf("rendezvous on %s: no connection after %s", e.Address, e.Timeout)
	default:
		return fmt.Sprintf("rendezvous on %s: %s: %v", e.Address, e.Kind, e.Err)
	}
}

func (e *RendezvousError) Unwrap() error {
	return e.Err
}

// IsServerHostError implements ServerHostError.
func (e *RendezvousError) IsServerHostError() bool { return true }
