package session

import (
	"fmt"
	"time"

	"github.com/wagiedev/serverhost-go/internal/launcher"
)

// State is the lifecycle state of a session.
type State int

const (
	// StateStopped is the initial and terminal state.
	StateStopped State = iota
	// StateStarting is entered by Start and lasts until the server connects
	// or the start fails.
	StateStarting
	// StateRunning means the server is connected and the transport is usable.
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StateChangeEvent describes one state transition.
type StateChangeEvent struct {
	OldState State `json:"old_state"`
	NewState State `json:"new_state"`
}

func (e StateChangeEvent) String() string {
	return e.OldState.String() + " -> " + e.NewState.String()
}

// Status is a diagnostic snapshot of the supervisor.
//
// Fields other than State describe the most recent session and are kept
// after it stops.
type Status struct {
	SessionID string          `json:"session_id,omitempty"`
	State     State           `json:"state"`
	Endpoint  string          `json:"endpoint,omitempty"`
	PID       int             `json:"pid,omitempty"`
	ExitCode  *int            `json:"exit_code,omitempty"`
	StartedAt time.Time       `json:"started_at,omitzero"`
	LastError string          `json:"last_error,omitempty"`
	Process   *launcher.Stats `json:"process,omitempty"`
}
