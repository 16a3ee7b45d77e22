package launcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/wagiedev/serverhost-go/internal/errors"
)

// Discoverer locates the server executable.
type Discoverer interface {
	// Discover returns the path of the executable to run.
	Discover(ctx context.Context) (string, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	executable  string
	searchPaths []string
	log         *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a discoverer for the given executable name or path.
func NewDiscoverer(log *slog.Logger, executable string, searchPaths []string) Discoverer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &discoverer{
		executable:  executable,
		searchPaths: searchPaths,
		log:         log,
	}
}

// Discover locates the server executable.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if d.executable == "" {
		return "", &errors.LaunchError{
			Kind: errors.SpawnFailed,
			Err:  os.ErrInvalid,
		}
	}

	// Explicit paths are used as-is and never searched for.
	if strings.ContainsRune(d.executable, os.PathSeparator) || strings.ContainsRune(d.executable, '/') {
		d.log.Debug("Using explicit executable path", "path", d.executable)

		if _, err := os.Stat(d.executable); err != nil {
			return "", &errors.LaunchError{
				Kind:          errors.SpawnFailed,
				Executable:    d.executable,
				SearchedPaths: []string{d.executable},
				Err:           err,
			}
		}

		return d.executable, nil
	}

	searched := make([]string, 0, len(d.searchPaths)+1)

	if path, err := exec.LookPath(d.executable); err == nil {
		d.log.Debug("Found executable in PATH", "path", path)

		return path, nil
	}

	searched = append(searched, "$PATH")

	for _, dir := range d.searchPaths {
		candidate := filepath.Join(dir, d.executable)
		searched = append(searched, candidate)

		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			d.log.Debug("Found executable in search path", "path", candidate)

			return candidate, nil
		}
	}

	d.log.Warn("Server executable not found", "executable", d.executable, "searched_paths", searched)

	return "", &errors.LaunchError{
		Kind:          errors.SpawnFailed,
		Executable:    d.executable,
		SearchedPaths: searched,
	}
}
