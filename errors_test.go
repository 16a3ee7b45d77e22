package serverhost

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllocationError_Format(t *testing.T) {
	err := &AllocationError{Kind: PortInUse, Address: "127.0.0.1:2088", Err: errors.New("address already in use")}

	require.Equal(t, "allocate endpoint 127.0.0.1:2088: port in use: address already in use", err.Error())
	require.True(t, err.IsServerHostError())
}

func TestLaunchError_Format(t *testing.T) {
	notFound := &LaunchError{Kind: SpawnFailed, Executable: "java", SearchedPaths: []string{"$PATH", "/opt/bin/java"}}
	require.Contains(t, notFound.Error(), `server executable "java" not found`)
	require.Contains(t, notFound.Error(), "/opt/bin/java")

	exited := &LaunchError{Kind: PrematureExit, ExitCode: 1, Stderr: "no main class"}
	require.Equal(t, "server process exited with code 1: no main class", exited.Error())
}

func TestRendezvousError_Format(t *testing.T) {
	timeout := &RendezvousError{Kind: Timeout, Address: "127.0.0.1:2088", Timeout: 30 * time.Second}
	require.Equal(t, "rendezvous on 127.0.0.1:2088: no connection after 30s", timeout.Error())

	inner := &LaunchError{Kind: PrematureExit, ExitCode: 3}
	exited := &RendezvousError{Kind: ServerExited, Address: "127.0.0.1:2088", ExitCode: 3, Err: inner}
	require.Contains(t, exited.Error(), "server exited before connecting (exit 3)")

	launchErr, ok := errors.AsType[*LaunchError](exited)
	require.True(t, ok)
	require.Same(t, inner, launchErr)
}

func TestErrors_WrappedStillMatch(t *testing.T) {
	err := fmt.Errorf("start server: %w", &RendezvousError{Kind: HandshakeFailed, Address: "x"})

	rvErr, ok := errors.AsType[*RendezvousError](err)
	require.True(t, ok)
	require.Equal(t, HandshakeFailed, rvErr.Kind)

	hostErr, ok := errors.AsType[ServerHostError](err)
	require.True(t, ok)
	require.True(t, hostErr.IsServerHostError())

	require.ErrorIs(t, fmt.Errorf("wrap: %w", ErrAlreadyStarted), ErrAlreadyStarted)
}
