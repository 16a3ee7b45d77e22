package serverhost

import (
	"context"

	"github.com/wagiedev/serverhost-go/internal/config"
	"github.com/wagiedev/serverhost-go/internal/endpoint"
	"github.com/wagiedev/serverhost-go/internal/launcher"
	"github.com/wagiedev/serverhost-go/internal/rendezvous"
	"github.com/wagiedev/serverhost-go/internal/session"
)

// clientWrapper adapts the session supervisor to the public interface.
type clientWrapper struct {
	impl *session.Supervisor
}

// Compile-time check that *clientWrapper implements the Client interface.
var _ Client = (*clientWrapper)(nil)

// newClientImpl wires the allocator, launcher and rendezvous for options.
func newClientImpl(options *config.Options) Client {
	o := options.Clone()

	log := o.Logger
	if log == nil {
		log = NopLogger()
	}

	allocator := endpoint.NewAllocator(&endpoint.Config{
		Host:   o.Host,
		Port:   o.Port,
		Policy: o.PortPolicy,
		Logger: log,
	})

	l := launcher.New(&launcher.Config{
		Executable:  o.Executable,
		Args:        o.Args,
		EntryPoint:  o.EntryPoint,
		ConnectArgs: o.EffectiveConnectArgs(),
		Env:         o.Env,
		Cwd:         o.Cwd,
		SearchPaths: o.SearchPaths,
		Stderr:      o.Stderr,
		Logger:      log,
	})

	sup := session.New(&session.Config{
		Allocator: allocator,
		Launcher:  l,
		Rendezvous: rendezvous.Config{
			Timeout:          o.ConnectTimeout,
			DrainWindow:      o.ExitDrainWindow,
			HandshakeTimeout: o.HandshakeTimeout,
		},
		Handshake:   o.Handshake,
		GracePeriod: o.GracePeriod,
		Logger:      log,
	})

	return &clientWrapper{impl: sup}
}

// Start launches the server and blocks until it connects.
func (c *clientWrapper) Start(ctx context.Context) error {
	return c.impl.Start(ctx)
}

// Stop ends the session.
func (c *clientWrapper) Stop(ctx context.Context) error {
	return c.impl.Stop(ctx)
}

// State returns the current state.
func (c *clientWrapper) State() State {
	return c.impl.State()
}

// Transport returns the connection to the server, or nil unless Running.
func (c *clientWrapper) Transport() Transport {
	return c.impl.Transport()
}

// OnStateChange registers fn for every state transition.
func (c *clientWrapper) OnStateChange(fn func(StateChangeEvent)) Disposable {
	return c.impl.OnStateChange(fn)
}

// ObserveOnce registers fn for the first transition satisfying match.
func (c *clientWrapper) ObserveOnce(match func(StateChangeEvent) bool, fn func(StateChangeEvent)) Disposable {
	return c.impl.ObserveOnce(match, fn)
}

// ReportTransportError stops a running session after a transport failure.
func (c *clientWrapper) ReportTransportError(err error) error {
	return c.impl.ReportTransportError(err)
}

// Status returns a diagnostic snapshot.
func (c *clientWrapper) Status(ctx context.Context) Status {
	return c.impl.Status(ctx)
}
