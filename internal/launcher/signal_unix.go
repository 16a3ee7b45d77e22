//go:build !windows

package launcher

import (
	"os"
	"syscall"
)

// terminate asks the process to shut down gracefully.
func terminate(proc *os.Process) error {
	return signalProcess(proc, syscall.SIGTERM)
}
