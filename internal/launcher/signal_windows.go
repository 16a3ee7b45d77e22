//go:build windows

package launcher

import (
	"errors"
	"os"
)

// terminate reports that graceful termination is unavailable; the caller
// falls back to Kill.
func terminate(_ *os.Process) error {
	return errors.New("graceful termination not supported on windows")
}
