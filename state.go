package serverhost

import (
	"github.com/wagiedev/serverhost-go/internal/launcher"
	"github.com/wagiedev/serverhost-go/internal/observer"
	"github.com/wagiedev/serverhost-go/internal/session"
)

// State is the lifecycle state of a client's session.
type State = session.State

// Session states.
const (
	StateStopped  = session.StateStopped
	StateStarting = session.StateStarting
	StateRunning  = session.StateRunning
)

// StateChangeEvent describes one state transition.
type StateChangeEvent = session.StateChangeEvent

// Disposable cancels an observer registration. Dispose is idempotent.
type Disposable = observer.Disposable

// Status is a diagnostic snapshot of a client.
type Status = session.Status

// ProcessStats is a resource usage sample of the server process.
type ProcessStats = launcher.Stats
