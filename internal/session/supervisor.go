package session

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/serverhost-go/internal/config"
	"github.com/wagiedev/serverhost-go/internal/endpoint"
	"github.com/wagiedev/serverhost-go/internal/errors"
	"github.com/wagiedev/serverhost-go/internal/launcher"
	"github.com/wagiedev/serverhost-go/internal/observer"
	"github.com/wagiedev/serverhost-go/internal/rendezvous"
	"github.com/wagiedev/serverhost-go/internal/transport"
)

// Allocator opens the listening endpoint for a session.
type Allocator interface {
	Allocate(ctx context.Context) (*endpoint.Listener, error)
}

// Launcher starts the server process for a session.
type Launcher interface {
	Launch(ctx context.Context, ep endpoint.Endpoint, token string) (launcher.Process, error)
}

// Config holds the collaborators and settings of a Supervisor.
type Config struct {
	Allocator Allocator
	Launcher  Launcher

	// Rendezvous configures the connection wait. Token is set per session
	// when Handshake is enabled.
	Rendezvous rendezvous.Config

	// Handshake generates a fresh token for every session.
	Handshake bool

	// GracePeriod is the time between the termination request and the kill.
	GracePeriod time.Duration

	// Logger is an optional logger. If nil, logging is disabled.
	Logger *slog.Logger
}

// Supervisor owns the session state machine and the session's resources.
type Supervisor struct {
	cfg Config
	log *slog.Logger

	observers observer.Registry[StateChangeEvent]

	queueMu  sync.Mutex
	queue    []func()
	draining bool

	mu            sync.Mutex
	state         State
	sessionID     string
	endpoint      endpoint.Endpoint
	proc          launcher.Process
	conn          *transport.Conn
	published     bool
	startedAt     time.Time
	lastErr       error
	stopRequested bool
	startCancel   context.CancelFunc
	startDone     chan struct{}
}

// New creates a supervisor in the Stopped state.
func New(cfg *Config) *Supervisor {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := *cfg
	if c.GracePeriod <= 0 {
		c.GracePeriod = config.DefaultGracePeriod
	}

	if c.Rendezvous.Logger == nil {
		c.Rendezvous.Logger = log
	}

	return &Supervisor{
		cfg: c,
		log: log.With("component", "session"),
	}
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Transport returns the session's transport, or nil unless Running.
//
// The transport becomes visible only after the Running event has been
// delivered to every observer registered at the time of the transition.
// If another goroutine is still delivering earlier events when Start
// returns, Start leaves its events to that goroutine and Transport returns
// nil until the Running event has been delivered. Observe the Running event
// to be notified when the transport is available.
func (s *Supervisor) Transport() config.Transport {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning || !s.published || s.conn == nil {
		return nil
	}

	return s.conn
}

// OnStateChange registers fn for every state change.
func (s *Supervisor) OnStateChange(fn func(StateChangeEvent)) observer.Disposable {
	return s.observers.Register(fn)
}

// ObserveOnce registers fn for the first state change satisfying match.
// A nil match accepts any event.
func (s *Supervisor) ObserveOnce(match func(StateChangeEvent) bool, fn func(StateChangeEvent)) observer.Disposable {
	return observer.Once(&s.observers, match, fn)
}

// Start launches the server and blocks until it connects or the start fails.
//
// Start delivers its own state change events before returning unless another
// goroutine is already delivering events; see Transport.
//
// Returns ErrAlreadyStarted immediately if a session is starting or running,
// ErrStartAborted if Stop interrupts the start, or the AllocationError,
// LaunchError or RendezvousError that caused the failure.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.state != StateStopped {
		s.mu.Unlock()

		return errors.ErrAlreadyStarted
	}

	startCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	defer close(done)

	s.sessionID = ulid.Make().String()
	s.endpoint = endpoint.Endpoint{}
	s.proc = nil
	s.conn = nil
	s.published = false
	s.startedAt = time.Now()
	s.lastErr = nil
	s.stopRequested = false
	s.startCancel = cancel
	s.startDone = done

	log := s.log.With("session_id", s.sessionID)

	s.transitionLocked(StateStarting)
	s.mu.Unlock()
	s.drain()

	log.Info("Starting session")

	var token string
	if s.cfg.Handshake {
		token = ulid.MustNew(ulid.Now(), rand.Reader).String()
	}

	conn, err := s.establish(startCtx, log, token)

	s.mu.Lock()

	if err == nil && s.stopRequested {
		_ = conn.Close()
		conn = nil
	}

	if s.stopRequested {
		err = errors.ErrStartAborted
	}

	if err != nil {
		proc := s.proc
		s.lastErr = err
		s.startCancel = nil
		s.transitionLocked(StateStopped)
		s.mu.Unlock()

		log.Warn("Session start failed", "error", err)

		cleanupCtx, cancelCleanup := s.cleanupContext(ctx)
		_ = s.terminate(cleanupCtx, proc)
		cancelCleanup()

		s.drain()

		return err
	}

	s.conn = transport.New(log, conn)
	s.startCancel = nil
	s.transitionLocked(StateRunning)

	published := s.conn
	s.enqueue(func() { s.publish(published) })

	proc := s.proc
	s.mu.Unlock()
	s.drain()

	log.Info("Session running", "endpoint", s.endpointAddress(), "pid", proc.PID())

	go s.watchExit(log, proc)

	return nil
}

// establish allocates the endpoint, then launches the server and waits for
// its connection concurrently.
func (s *Supervisor) establish(ctx context.Context, log *slog.Logger, token string) (net.Conn, error) {
	ln, err := s.cfg.Allocator.Allocate(ctx)
	if err != nil {
		return nil, err
	}

	defer func() { _ = ln.Close() }()

	s.mu.Lock()
	s.endpoint = ln.Endpoint()
	s.mu.Unlock()

	rvCfg := s.cfg.Rendezvous
	rvCfg.Token = token
	coordinator := rendezvous.New(&rvCfg)

	exits := make(chan rendezvous.ServerExit, 1)

	var conn net.Conn

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		proc, err := s.cfg.Launcher.Launch(gctx, ln.Endpoint(), token)
		if err != nil {
			return err
		}

		s.mu.Lock()
		s.proc = proc
		s.mu.Unlock()

		log.Debug("Server launched", "pid", proc.PID())

		go func() {
			<-proc.Done()

			exit, _ := proc.Exit()
			exits <- rendezvous.ServerExit{Code: exit.Code, Stderr: proc.Stderr(), Err: exit.Err}
		}()

		return nil
	})

	g.Go(func() error {
		c, err := coordinator.Wait(gctx, ln, exits)
		if err != nil {
			return err
		}

		conn = c

		return nil
	})

	if err := g.Wait(); err != nil {
		if conn != nil {
			_ = conn.Close()
		}

		return nil, err
	}

	return conn, nil
}

// Stop ends the session.
//
// While Running it emits the Stopped event, closes the transport and
// terminates the server. While Starting it aborts the start and waits for it
// to unwind. While Stopped it does nothing.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()

	switch s.state {
	case StateStopped:
		s.mu.Unlock()

		return nil

	case StateStarting:
		s.stopRequested = true
		cancel, done := s.startCancel, s.startDone
		s.mu.Unlock()

		s.log.Info("Aborting session start")

		if cancel != nil {
			cancel()
		}

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.log.Info("Stopping session", "session_id", s.sessionID)

	return s.shutdownLocked(ctx, nil)
}

// ReportTransportError tears down a running session after the protocol
// layer observed an I/O failure on the transport.
//
// Returns ErrNotRunning if no session is running.
func (s *Supervisor) ReportTransportError(err error) error {
	s.mu.Lock()

	if s.state != StateRunning {
		s.mu.Unlock()

		return errors.ErrNotRunning
	}

	s.log.Warn("Transport failure reported", "session_id", s.sessionID, "error", err)

	ctx, cancel := s.cleanupContext(context.Background())
	defer cancel()

	return s.shutdownLocked(ctx, err)
}

// cleanupContext bounds a teardown that must outlive the caller's context.
// Termination takes at most the grace period plus the wait after the kill.
func (s *Supervisor) cleanupContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), 2*s.cfg.GracePeriod)
}

// shutdownLocked moves a running session to Stopped and releases it.
// Caller holds s.mu; it is released before returning.
func (s *Supervisor) shutdownLocked(ctx context.Context, cause error) error {
	conn, proc := s.conn, s.proc
	s.conn = nil
	s.published = false

	if cause != nil {
		s.lastErr = cause
	}

	s.transitionLocked(StateStopped)
	s.mu.Unlock()
	s.drain()

	if conn != nil {
		if err := conn.Close(); err != nil {
			s.log.Debug("Transport close failed", "error", err)
		}
	}

	return s.terminate(ctx, proc)
}

// terminate stops proc if it is still alive.
func (s *Supervisor) terminate(ctx context.Context, proc launcher.Process) error {
	if proc == nil {
		return nil
	}

	if _, exited := proc.Exit(); exited {
		return nil
	}

	if err := proc.Terminate(ctx, s.cfg.GracePeriod); err != nil {
		s.log.Error("Failed to terminate server process", "pid", proc.PID(), "error", err)

		return err
	}

	return nil
}

// transitionLocked assigns the state and queues the change event.
// It is the only writer of s.state. Caller holds s.mu.
func (s *Supervisor) transitionLocked(to State) {
	ev := StateChangeEvent{OldState: s.state, NewState: to}
	s.state = to

	s.log.Debug("State changed", "from", ev.OldState, "to", ev.NewState, "session_id", s.sessionID)

	s.enqueue(func() { s.observers.Notify(ev) })
}

// publish exposes conn through Transport once the Running event is delivered.
func (s *Supervisor) publish(conn *transport.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning && s.conn == conn {
		s.published = true
	}
}

// watchExit logs a server exit during a running session. The exit does not
// change state; teardown is driven by Stop or ReportTransportError.
func (s *Supervisor) watchExit(log *slog.Logger, proc launcher.Process) {
	<-proc.Done()

	exit, _ := proc.Exit()

	s.mu.Lock()
	running := s.state == StateRunning && s.proc == proc
	s.mu.Unlock()

	if running {
		log.Warn("Server process exited while session is running", "exit_code", exit.Code)
	}
}

func (s *Supervisor) endpointAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.endpoint.Address()
}

// Status returns a diagnostic snapshot.
func (s *Supervisor) Status(ctx context.Context) Status {
	s.mu.Lock()

	st := Status{
		SessionID: s.sessionID,
		State:     s.state,
		StartedAt: s.startedAt,
	}

	if s.endpoint.Port != 0 {
		st.Endpoint = s.endpoint.Address()
	}

	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}

	proc := s.proc
	s.mu.Unlock()

	if proc == nil {
		return st
	}

	st.PID = proc.PID()

	if exit, ok := proc.Exit(); ok {
		st.ExitCode = &exit.Code
	}

	stats, err := proc.Stats(ctx)
	if err != nil {
		s.log.Debug("Failed to sample process stats", "pid", st.PID, "error", err)
	} else {
		st.Process = stats
	}

	return st
}
