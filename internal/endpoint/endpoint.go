package endpoint

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/wagiedev/serverhost-go/internal/config"
	"github.com/wagiedev/serverhost-go/internal/errors"
)

// Endpoint is the address the external server connects to.
type Endpoint struct {
	Host string
	Port int
}

// Address returns the endpoint in host:port form.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	return e.Address()
}

// Listener is a bound listener together with the endpoint it serves.
type Listener struct {
	net.Listener

	endpoint  Endpoint
	closeOnce sync.Once
	closeErr  error
}

// Endpoint returns the bound endpoint.
func (l *Listener) Endpoint() Endpoint {
	return l.endpoint
}

// Close closes the listener. It's safe to call Close multiple times.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.Listener.Close()
	})

	return l.closeErr
}

// Config holds configuration for endpoint allocation.
type Config struct {
	// Host is the bind address. Defaults to config.DefaultHost.
	Host string

	// Port is the fixed port used under config.PortFixed.
	Port int

	// Policy selects fixed or ephemeral allocation.
	Policy config.PortPolicy

	// Logger is an optional logger. If nil, logging is disabled.
	Logger *slog.Logger
}

// Allocator opens listening endpoints.
type Allocator struct {
	cfg Config
	log *slog.Logger
}

// NewAllocator creates an allocator with the given configuration.
func NewAllocator(cfg *Config) *Allocator {
	if cfg == nil {
		cfg = &Config{}
	}

	c := *cfg
	if c.Host == "" {
		c.Host = config.DefaultHost
	}

	if c.Port == 0 {
		c.Port = config.DefaultPort
	}

	log := c.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Allocator{
		cfg: c,
		log: log.With("component", "endpoint"),
	}
}

// Allocate binds a listener according to the configured policy.
//
// Returns an AllocationError if the bind fails. The listener has no other
// side effects until a connection arrives.
func (a *Allocator) Allocate(ctx context.Context) (*Listener, error) {
	port := a.cfg.Port
	if a.cfg.Policy == config.PortEphemeral {
		port = 0
	}

	address := net.JoinHostPort(a.cfg.Host, strconv.Itoa(port))

	a.log.Debug("Binding listener", "address", address, "policy", a.cfg.Policy)

	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		kind := classify(err)

		a.log.Error("Failed to bind listener", "address", address, "kind", kind, "error", err)

		return nil, &errors.AllocationError{Kind: kind, Address: address, Err: err}
	}

	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		_ = ln.Close()

		return nil, &errors.AllocationError{
			Kind:    errors.BindFailed,
			Address: address,
			Err:     stderrors.New("listener address is not TCP"),
		}
	}

	l := &Listener{
		Listener: ln,
		endpoint: Endpoint{Host: a.cfg.Host, Port: tcpAddr.Port},
	}

	a.log.Info("Listener bound", "address", l.endpoint.Address())

	return l, nil
}

// classify maps a bind error to an allocation error kind.
func classify(err error) errors.AllocationErrorKind {
	switch {
	case addrInUse(err):
		return errors.PortInUse
	case accessDenied(err), stderrors.Is(err, os.ErrPermission):
		return errors.PermissionDenied
	default:
		return errors.BindFailed
	}
}
