package rendezvous

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/wagiedev/serverhost-go/internal/errors"
)

// ServerExit reports that the server process exited.
type ServerExit struct {
	Code   int
	Stderr string
	Err    error
}

// Config holds configuration for a rendezvous.
type Config struct {
	// Timeout bounds the wait for the connection. Zero or negative waits
	// until the server connects, exits, or the context is cancelled.
	Timeout time.Duration

	// DrainWindow is how long to keep waiting for an already-queued
	// connection after the server exits.
	DrainWindow time.Duration

	// Token, when non-empty, must be sent by the server as the first line
	// on the connection.
	Token string

	// HandshakeTimeout bounds reading the token.
	HandshakeTimeout time.Duration

	// Logger is an optional logger. If nil, logging is disabled.
	Logger *slog.Logger
}

// Coordinator performs rendezvous.
type Coordinator struct {
	cfg Config
	log *slog.Logger
}

// New creates a coordinator with the given configuration.
func New(cfg *Config) *Coordinator {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Coordinator{
		cfg: *cfg,
		log: log.With("component", "rendezvous"),
	}
}

type acceptResult struct {
	conn net.Conn
	err  error
}

// Wait accepts the server's connection on ln.
//
// exited delivers at most one value when the server process exits; it may
// be nil if the process is not observed. ln is closed before Wait returns.
//
// Errors are a RendezvousError, or ctx.Err() if ctx is cancelled first.
func (c *Coordinator) Wait(ctx context.Context, ln net.Listener, exited <-chan ServerExit) (net.Conn, error) {
	addr := ln.Addr().String()

	defer func() { _ = ln.Close() }()

	results := make(chan acceptResult, 1)

	go func() {
		conn, err := ln.Accept()
		if err == nil && c.cfg.Token != "" {
			if hsErr := c.handshake(conn); hsErr != nil {
				_ = conn.Close()
				conn, err = nil, hsErr
			}
		}

		results <- acceptResult{conn: conn, err: err}
	}()

	var timeout <-chan time.Time

	if c.cfg.Timeout > 0 {
		timer := time.NewTimer(c.cfg.Timeout)
		defer timer.Stop()

		timeout = timer.C
	}

	var (
		exit  *ServerExit
		drain <-chan time.Time
	)

	c.log.Debug("Waiting for server connection", "address", addr, "timeout", c.cfg.Timeout)

	for {
		select {
		case res := <-results:
			if res.err == nil {
				c.log.Info("Server connected", "address", addr, "remote", res.conn.RemoteAddr().String())

				return res.conn, nil
			}

			return nil, c.acceptError(addr, exit, res.err)

		case e := <-exited:
			exited = nil
			exit = &e

			c.log.Debug("Server exited during rendezvous, draining", "exit_code", e.Code, "window", c.cfg.DrainWindow)

			drainTimer := time.NewTimer(c.cfg.DrainWindow)
			defer drainTimer.Stop()

			drain = drainTimer.C

		case <-drain:
			return nil, c.abandon(results, exitedError(addr, exit))

		case <-timeout:
			c.log.Warn("Server did not connect in time", "address", addr, "timeout", c.cfg.Timeout)

			return nil, c.abandon(results, &errors.RendezvousError{
				Kind:    errors.Timeout,
				Address: addr,
				Timeout: c.cfg.Timeout,
			})

		case <-ctx.Done():
			return nil, c.abandon(results, ctx.Err())
		}
	}
}

// abandon closes any connection the accept goroutine delivers after Wait
// gives up, and returns err.
func (c *Coordinator) abandon(results <-chan acceptResult, err error) error {
	go func() {
		if res := <-results; res.conn != nil {
			c.log.Debug("Closing connection accepted after rendezvous ended")

			_ = res.conn.Close()
		}
	}()

	return err
}

func (c *Coordinator) acceptError(addr string, exit *ServerExit, err error) error {
	if exit != nil {
		return exitedError(addr, exit)
	}

	if handshakeErr, ok := stderrors.AsType[*handshakeError](err); ok {
		c.log.Warn("Server handshake failed", "address", addr, "error", handshakeErr.Err)

		return &errors.RendezvousError{
			Kind:    errors.HandshakeFailed,
			Address: addr,
			Err:     handshakeErr.Err,
		}
	}

	c.log.Error("Accept failed", "address", addr, "error", err)

	return &errors.RendezvousError{
		Kind:    errors.AcceptFailed,
		Address: addr,
		Err:     err,
	}
}

func exitedError(addr string, exit *ServerExit) error {
	return &errors.RendezvousError{
		Kind:     errors.ServerExited,
		Address:  addr,
		ExitCode: exit.Code,
		Err: &errors.LaunchError{
			Kind:     errors.PrematureExit,
			ExitCode: exit.Code,
			Stderr:   exit.Stderr,
			Err:      exit.Err,
		},
	}
}
