package serverhost

import "context"

// Client owns one server session at a time.
//
// Lifecycle: Clients are reusable. After Stop, Start launches a fresh
// session with no state carried over from the previous one.
//
// Example usage:
//
//	client := serverhost.NewClient(serverhost.WithExecutable("my-server"))
//
//	client.OnStateChange(func(ev serverhost.StateChangeEvent) {
//	    log.Printf("server %s", ev.NewState)
//	})
//
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop(context.Background())
type Client interface {
	// Start launches the server and blocks until it connects.
	// Returns ErrAlreadyStarted if a session is starting or running,
	// ErrStartAborted if Stop interrupts it, or an AllocationError,
	// LaunchError or RendezvousError describing the failure.
	Start(ctx context.Context) error

	// Stop ends the session, closing the transport and terminating the
	// server gracefully then forcefully. It is a no-op while stopped.
	Stop(ctx context.Context) error

	// State returns the current state.
	State() State

	// Transport returns the connection to the server, or nil unless Running.
	// It becomes available once the Running event has been delivered to the
	// observers, which can be after Start returns when another goroutine is
	// still delivering earlier events.
	Transport() Transport

	// OnStateChange registers fn for every state transition.
	OnStateChange(fn func(StateChangeEvent)) Disposable

	// ObserveOnce registers fn for the first transition satisfying match,
	// after which the registration disposes itself. A nil match accepts any
	// transition.
	ObserveOnce(match func(StateChangeEvent) bool, fn func(StateChangeEvent)) Disposable

	// ReportTransportError stops a running session after the protocol layer
	// hit an I/O failure on the transport. Returns ErrNotRunning if no
	// session is running.
	ReportTransportError(err error) error

	// Status returns a diagnostic snapshot including process resource usage.
	Status(ctx context.Context) Status
}

// NewClient creates a stopped client configured by opts.
//
// Options are captured at construction; they apply to every session the
// client starts.
func NewClient(opts ...Option) Client {
	return newClientImpl(applyOptions(opts))
}
