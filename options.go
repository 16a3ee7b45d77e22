package serverhost

import (
	"log/slog"
	"maps"
	"time"

	"github.com/wagiedev/serverhost-go/internal/config"
)

// Options configures how the server is launched and connected.
type Options = config.Options

// Profile is a launch profile loaded from YAML.
type Profile = config.Profile

// PortPolicy selects how the listening port is chosen.
type PortPolicy = config.PortPolicy

// Port policies.
const (
	PortFixed     = config.PortFixed
	PortEphemeral = config.PortEphemeral
)

// Defaults applied to unset options.
const (
	DefaultHost           = config.DefaultHost
	DefaultPort           = config.DefaultPort
	DefaultConnectTimeout = config.DefaultConnectTimeout
	DefaultGracePeriod    = config.DefaultGracePeriod
)

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to an Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// LoadProfile reads a YAML launch profile from path.
func LoadProfile(path string) (*Profile, error) {
	return config.LoadProfile(path)
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithProfile applies a launch profile. Options given after it override the
// profile's values.
func WithProfile(p *Profile) Option {
	return func(o *Options) {
		if p != nil {
			p.Apply(o)
		}
	}
}

// ===== Process =====

// WithExecutable sets the program to run, as a name searched in PATH or a path.
func WithExecutable(executable string) Option {
	return func(o *Options) {
		o.Executable = executable
	}
}

// WithArgs sets the fixed runtime invocation placed before the entry point,
// e.g. WithArgs("-cp", "server.jar").
func WithArgs(args ...string) Option {
	return func(o *Options) {
		o.Args = args
	}
}

// WithEntryPoint sets the server's entry point inside the runtime,
// e.g. a main class.
func WithEntryPoint(entryPoint string) Option {
	return func(o *Options) {
		o.EntryPoint = entryPoint
	}
}

// WithConnectArgs sets the arguments that tell the server where to connect.
// {host}, {port}, {address} and {token} are expanded per session.
func WithConnectArgs(args ...string) Option {
	return func(o *Options) {
		o.ConnectArgs = args
	}
}

// WithEnv provides additional environment variables for the server process.
// Repeated calls merge.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		merged := make(map[string]string, len(o.Env)+len(env))
		maps.Copy(merged, o.Env)
		maps.Copy(merged, env)
		o.Env = merged
	}
}

// WithCwd sets the working directory for the server process.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// WithSearchPaths adds directories searched for the executable after PATH.
func WithSearchPaths(paths ...string) Option {
	return func(o *Options) {
		o.SearchPaths = append(o.SearchPaths, paths...)
	}
}

// WithStderr sets a callback receiving each line the server writes to stderr.
func WithStderr(fn func(line string)) Option {
	return func(o *Options) {
		o.Stderr = fn
	}
}

// ===== Endpoint =====

// WithHost sets the address the listener binds to.
func WithHost(host string) Option {
	return func(o *Options) {
		o.Host = host
	}
}

// WithPort binds a fixed port.
func WithPort(port int) Option {
	return func(o *Options) {
		o.Port = port
		o.PortPolicy = config.PortFixed
	}
}

// WithEphemeralPort binds an OS-assigned port and passes it to the server
// through the connect arguments and SERVERHOST_ENDPOINT.
func WithEphemeralPort() Option {
	return func(o *Options) {
		o.PortPolicy = config.PortEphemeral
	}
}

// WithHandshake requires the server to send the per-session token from
// SERVERHOST_TOKEN as the first line of its connection.
func WithHandshake() Option {
	return func(o *Options) {
		o.Handshake = true
	}
}

// ===== Timing =====

// WithConnectTimeout bounds the wait for the server to connect.
// A negative value waits until the server connects, exits, or Start's
// context is done.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ConnectTimeout = d
	}
}

// WithGracePeriod sets how long a terminated server gets before it is killed.
func WithGracePeriod(d time.Duration) Option {
	return func(o *Options) {
		o.GracePeriod = d
	}
}
