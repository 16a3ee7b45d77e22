package config

import (
	"log/slog"
	"maps"
	"slices"
	"time"
)

const (
	// DefaultHost is the loopback address the listener binds to.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the well-known port external servers dial when the
	// fixed port policy is in effect.
	DefaultPort = 2088

	// DefaultConnectTimeout bounds how long Start waits for the server to connect.
	DefaultConnectTimeout = 30 * time.Second

	// DefaultGracePeriod is how long a terminated server gets before it is killed.
	DefaultGracePeriod = 3 * time.Second

	// DefaultExitDrainWindow is how long the rendezvous keeps accepting after
	// the server exits, for connections already queued in the backlog.
	DefaultExitDrainWindow = 250 * time.Millisecond

	// DefaultHandshakeTimeout bounds reading the handshake token.
	DefaultHandshakeTimeout = 5 * time.Second
)

// PortPolicy selects how the listening port is chosen.
type PortPolicy int

const (
	// PortFixed binds Options.Port, failing fast if it is taken.
	PortFixed PortPolicy = iota
	// PortEphemeral binds port 0 and passes the assigned port to the server.
	PortEphemeral
)

func (p PortPolicy) String() string {
	if p == PortEphemeral {
		return "ephemeral"
	}

	return "fixed"
}

// Options configures how the external server is launched and connected.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Executable is the program to run, e.g. "java" or an absolute path.
	Executable string

	// Args is the fixed launcher/runtime invocation, e.g. {"-cp", "server.jar"}.
	Args []string

	// EntryPoint identifies the server inside the runtime, e.g. a main class.
	// It is appended after Args when non-empty.
	EntryPoint string

	// ConnectArgs is appended last and tells the server where to connect.
	// Placeholders {host}, {port}, {address} and {token} are expanded.
	// If nil, defaults depend on PortPolicy (see EffectiveConnectArgs).
	ConnectArgs []string

	// Env provides additional environment variables for the server process.
	Env map[string]string

	// Cwd sets the working directory for the server process.
	Cwd string

	// SearchPaths lists extra directories searched for Executable after PATH.
	SearchPaths []string

	// Host is the address the listener binds to. Defaults to DefaultHost.
	Host string

	// Port is the listening port under PortFixed. Defaults to DefaultPort.
	Port int

	// PortPolicy selects fixed or ephemeral port allocation.
	PortPolicy PortPolicy

	// ConnectTimeout bounds the wait for the server's connection.
	// Zero uses DefaultConnectTimeout; a negative value disables the timeout.
	ConnectTimeout time.Duration

	// GracePeriod is the time between the termination request and the kill.
	GracePeriod time.Duration

	// ExitDrainWindow is how long to keep accepting after the server exits.
	ExitDrainWindow time.Duration

	// Handshake requires the server to send a per-session token as the first
	// line on the connection before it is accepted as the transport.
	Handshake bool

	// HandshakeTimeout bounds reading the handshake token.
	HandshakeTimeout time.Duration

	// Stderr is a callback receiving each line the server writes to stderr.
	Stderr func(string)
}

// Clone returns a deep copy of the options with defaults filled in.
func (o *Options) Clone() *Options {
	if o == nil {
		o = &Options{}
	}

	c := *o
	c.Args = slices.Clone(o.Args)
	c.ConnectArgs = slices.Clone(o.ConnectArgs)
	c.SearchPaths = slices.Clone(o.SearchPaths)
	c.Env = maps.Clone(o.Env)

	if c.Host == "" {
		c.Host = DefaultHost
	}

	if c.Port == 0 {
		c.Port = DefaultPort
	}

	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}

	if c.GracePeriod <= 0 {
		c.GracePeriod = DefaultGracePeriod
	}

	if c.ExitDrainWindow <= 0 {
		c.ExitDrainWindow = DefaultExitDrainWindow
	}

	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}

	return &c
}

// EffectiveConnectArgs returns the connect argument template in force.
//
// An explicit ConnectArgs always wins. Otherwise a fixed port needs no
// arguments (the server already knows the well-known port) and an
// ephemeral port is announced with --host and --port.
func (o *Options) EffectiveConnectArgs() []string {
	if o.ConnectArgs != nil {
		return o.ConnectArgs
	}

	if o.PortPolicy == PortEphemeral {
		return []string{"--host", "{host}", "--port", "{port}"}
	}

	return nil
}
