package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

// Mock server modes, passed to the binary through MOCK_SERVER_MODE.
const (
	ModeEcho         = "echo"
	ModeConnectExit0 = "connect-exit0"
	ModeExit1        = "exit1"
	ModeHold         = "hold"
	ModeBadHandshake = "bad-handshake"
)

var (
	buildOnce  sync.Once
	binaryPath string
	errBuild   error
)

func buildMockServer() {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		errBuild = fmt.Errorf("locate testutil source")

		return
	}

	src := filepath.Join(filepath.Dir(file), "testdata", "mockserver", "main.go")

	dir, err := os.MkdirTemp("", "mockserver-*")
	if err != nil {
		errBuild = fmt.Errorf("tmpdir: %w", err)

		return
	}

	binaryPath = filepath.Join(dir, "mockserver")

	cmd := exec.Command("go", "build", "-o", binaryPath, src)
	if out, err := cmd.CombinedOutput(); err != nil {
		errBuild = fmt.Errorf("build mock server: %w: %s", err, out)
		_ = os.RemoveAll(dir)
	}
}

// MockServer returns the path of the compiled mock server, building it once
// per test binary. Tests are skipped on Windows.
func MockServer(t *testing.T) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("mock server wrapper scripts require a Unix shell")
	}

	buildOnce.Do(buildMockServer)

	if errBuild != nil {
		t.Fatalf("mock server build failed: %v", errBuild)
	}

	return binaryPath
}

// Script writes an executable wrapper that runs the mock server in mode and
// returns its path.
func Script(t *testing.T, mode string) string {
	t.Helper()

	bin := MockServer(t)

	wrapper := filepath.Join(t.TempDir(), "mockserver-"+mode)
	script := fmt.Sprintf("#!/bin/sh\nexport MOCK_SERVER_MODE=%s\nexec %s \"$@\"\n", mode, bin)

	if err := os.WriteFile(wrapper, []byte(script), 0o755); err != nil { //nolint:gosec // test wrapper must be executable
		t.Fatalf("write wrapper: %v", err)
	}

	return wrapper
}
