package serverhost

import "github.com/wagiedev/serverhost-go/internal/errors"

// Re-export error types from internal package

// ServerHostError is the base interface for all server host errors.
type ServerHostError = errors.ServerHostError

// AllocationError indicates the listening endpoint could not be opened.
type AllocationError = errors.AllocationError

// AllocationErrorKind classifies AllocationError.
type AllocationErrorKind = errors.AllocationErrorKind

// LaunchError indicates the server process failed to start or exited early.
type LaunchError = errors.LaunchError

// LaunchErrorKind classifies LaunchError.
type LaunchErrorKind = errors.LaunchErrorKind

// RendezvousError indicates the server never delivered a usable connection.
type RendezvousError = errors.RendezvousError

// RendezvousErrorKind classifies RendezvousError.
type RendezvousErrorKind = errors.RendezvousErrorKind

// Error kinds.
const (
	PortInUse        = errors.PortInUse
	PermissionDenied = errors.PermissionDenied
	BindFailed       = errors.BindFailed

	SpawnFailed   = errors.SpawnFailed
	PrematureExit = errors.PrematureExit

	ServerExited    = errors.ServerExited
	Timeout         = errors.Timeout
	AcceptFailed    = errors.AcceptFailed
	HandshakeFailed = errors.HandshakeFailed
)

// Re-export sentinel errors from internal package.
var (
	// ErrAlreadyStarted indicates Start was called while starting or running.
	ErrAlreadyStarted = errors.ErrAlreadyStarted

	// ErrNotRunning indicates an operation that needs a running session was
	// called while stopped. Callers may treat it as a no-op.
	ErrNotRunning = errors.ErrNotRunning

	// ErrStartAborted indicates Stop interrupted Start.
	ErrStartAborted = errors.ErrStartAborted
)
