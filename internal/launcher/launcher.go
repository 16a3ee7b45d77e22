package launcher

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/wagiedev/serverhost-go/internal/endpoint"
	"github.com/wagiedev/serverhost-go/internal/errors"
)

// Process is a launched server process.
type Process interface {
	// PID returns the operating system process ID.
	PID() int

	// Done returns a channel that is closed once the process has exited.
	Done() <-chan struct{}

	// Exit returns the exit status and true once the process has exited.
	Exit() (Exit, bool)

	// Terminate requests a graceful shutdown, then kills the process if it
	// is still alive after grace. It is a no-op once the process has exited.
	Terminate(ctx context.Context, grace time.Duration) error

	// Stderr returns the buffered stderr output.
	Stderr() string

	// Stats samples resource usage of the process.
	Stats(ctx context.Context) (*Stats, error)
}

// Config holds configuration for launching the server.
type Config struct {
	// Executable is the program name or path.
	Executable string

	// Args is the fixed runtime invocation placed before EntryPoint.
	Args []string

	// EntryPoint identifies the server inside the runtime.
	EntryPoint string

	// ConnectArgs is the connect argument template appended last.
	ConnectArgs []string

	// Env provides additional environment variables.
	Env map[string]string

	// Cwd sets the working directory. Empty inherits the host's.
	Cwd string

	// SearchPaths lists extra directories searched for Executable.
	SearchPaths []string

	// Stderr receives each stderr line written by the server.
	Stderr func(string)

	// Logger is an optional logger. If nil, logging is disabled.
	Logger *slog.Logger
}

// Launcher starts server processes.
type Launcher struct {
	cfg        *Config
	log        *slog.Logger
	discoverer Discoverer
}

// New creates a launcher with the given configuration.
func New(cfg *Config) *Launcher {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	log = log.With("component", "launcher")

	return &Launcher{
		cfg:        cfg,
		log:        log,
		discoverer: NewDiscoverer(log, cfg.Executable, cfg.SearchPaths),
	}
}

// Launch spawns the server configured to reach ep.
//
// The token is passed through the environment and the {token} placeholder;
// it may be empty. The child is not bound to ctx: it keeps running until it
// exits on its own or is terminated.
//
// Returns a LaunchError with Kind SpawnFailed if the executable cannot be
// located or started.
func (l *Launcher) Launch(ctx context.Context, ep endpoint.Endpoint, token string) (Process, error) {
	path, err := l.discoverer.Discover(ctx)
	if err != nil {
		return nil, err
	}

	args := BuildArgs(l.cfg, ep, token)
	l.log.Debug("Built command arguments", "path", path, "args", args)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	//nolint:gosec // G204: launching a configured server executable is the purpose of this package
	cmd := exec.Command(path, args...)
	cmd.Dir = l.cfg.Cwd
	cmd.Env = BuildEnvironment(l.cfg, ep, token)

	proc := newChildProcess(l.log, cmd, l.cfg.Stderr)

	if err := cmd.Start(); err != nil {
		l.log.Error("Failed to start server process", "path", path, "error", err)

		return nil, &errors.LaunchError{
			Kind:       errors.SpawnFailed,
			Executable: path,
			Err:        err,
		}
	}

	proc.log = l.log.With("pid", cmd.Process.Pid)
	go proc.watch()

	l.log.Info("Server process started", "pid", proc.PID(), "endpoint", ep.Address())

	return proc, nil
}
