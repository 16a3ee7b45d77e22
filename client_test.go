package serverhost_test

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	serverhost "github.com/wagiedev/serverhost-go"
	"github.com/wagiedev/serverhost-go/internal/testutil"
)

const integrationTimeout = 10 * time.Second

// recorder collects state change events.
type recorder struct {
	mu     sync.Mutex
	events []serverhost.StateChangeEvent
}

func (r *recorder) observe(ev serverhost.StateChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, ev)
}

func (r *recorder) states() []serverhost.State {
	r.mu.Lock()
	defer r.mu.Unlock()

	states := make([]serverhost.State, 0, len(r.events))
	for _, ev := range r.events {
		states = append(states, ev.NewState)
	}

	return states
}

func newClient(t *testing.T, mode string, opts ...serverhost.Option) (serverhost.Client, *recorder) {
	t.Helper()

	script := testutil.Script(t, mode)

	defaults := []serverhost.Option{
		serverhost.WithExecutable(script),
		serverhost.WithEphemeralPort(),
		serverhost.WithConnectTimeout(integrationTimeout),
		serverhost.WithGracePeriod(2 * time.Second),
	}

	client := serverhost.NewClient(append(defaults, opts...)...)
	rec := &recorder{}
	client.OnStateChange(rec.observe)

	t.Cleanup(func() { _ = client.Stop(context.Background()) })

	return client, rec
}

func startCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), integrationTimeout)
	t.Cleanup(cancel)

	return ctx
}

func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	return port
}

func TestClient_EchoRoundTrip(t *testing.T) {
	client, rec := newClient(t, testutil.ModeEcho)

	require.NoError(t, client.Start(startCtx(t)))
	require.Equal(t, serverhost.StateRunning, client.State())
	require.Equal(t, []serverhost.State{serverhost.StateStarting, serverhost.StateRunning}, rec.states())

	transport := client.Transport()
	require.NotNil(t, transport)

	_, err := transport.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = io.ReadFull(transport, buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf))

	require.NoError(t, client.Stop(context.Background()))
	require.Equal(t, []serverhost.State{
		serverhost.StateStarting, serverhost.StateRunning, serverhost.StateStopped,
	}, rec.states())
}

// A server that connects and then exits 0 leaves the session Running.
func TestClient_ConnectThenExit(t *testing.T) {
	client, _ := newClient(t, testutil.ModeConnectExit0)

	require.NoError(t, client.Start(startCtx(t)))
	require.Equal(t, serverhost.StateRunning, client.State())
	require.NotNil(t, client.Transport())

	require.Eventually(t, func() bool {
		st := client.Status(context.Background())

		return st.ExitCode != nil && *st.ExitCode == 0
	}, integrationTimeout, 20*time.Millisecond)

	require.Equal(t, serverhost.StateRunning, client.State())
}

func TestClient_FixedPortUsesEndpointEnvironment(t *testing.T) {
	port := freePort(t)

	client, _ := newClient(t, testutil.ModeEcho, serverhost.WithPort(port))

	require.NoError(t, client.Start(startCtx(t)))

	st := client.Status(context.Background())
	require.Equal(t, net.JoinHostPort(serverhost.DefaultHost, strconv.Itoa(port)), st.Endpoint)
}

func TestClient_PortInUse(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer occupied.Close()

	client, rec := newClient(t, testutil.ModeEcho, serverhost.WithPort(occupied.Addr().(*net.TCPAddr).Port))

	err = client.Start(startCtx(t))

	allocErr, ok := errors.AsType[*serverhost.AllocationError](err)
	require.True(t, ok)
	require.Equal(t, serverhost.PortInUse, allocErr.Kind)
	require.Equal(t, serverhost.StateStopped, client.State())
	require.Equal(t, []serverhost.State{serverhost.StateStarting, serverhost.StateStopped}, rec.states())
	require.Zero(t, client.Status(context.Background()).PID, "no process spawned")
}

func TestClient_ServerExitsBeforeConnecting(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)

	port := freePort(t)

	client, rec := newClient(t, testutil.ModeExit1,
		serverhost.WithPort(port),
		serverhost.WithStderr(func(line string) {
			mu.Lock()
			defer mu.Unlock()

			lines = append(lines, line)
		}),
	)

	start := time.Now()
	err := client.Start(startCtx(t))

	require.Less(t, time.Since(start), integrationTimeout/2, "exit must not wait for the connect timeout")

	rvErr, ok := errors.AsType[*serverhost.RendezvousError](err)
	require.True(t, ok)
	require.Equal(t, serverhost.ServerExited, rvErr.Kind)
	require.Equal(t, 1, rvErr.ExitCode)
	require.Contains(t, err.Error(), "fatal startup error")

	require.Equal(t, serverhost.StateStopped, client.State())
	require.Nil(t, client.Transport())
	require.Equal(t, []serverhost.State{serverhost.StateStarting, serverhost.StateStopped}, rec.states())

	// The endpoint was released.
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	mu.Lock()
	defer mu.Unlock()

	require.Contains(t, lines, "mockserver: fatal startup error")
}

func TestClient_ServerExitsWhileChildHoldsStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts require a Unix shell")
	}

	// A wrapper that backgrounds a long-lived child and fails keeps the
	// stderr pipe open after its own exit.
	script := filepath.Join(t.TempDir(), "wrapper.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 8 &\nexit 1\n"), 0o755)) //nolint:gosec // test script must be executable

	client := serverhost.NewClient(
		serverhost.WithExecutable(script),
		serverhost.WithEphemeralPort(),
		serverhost.WithConnectTimeout(-1),
	)

	t.Cleanup(func() { _ = client.Stop(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := client.Start(ctx)

	require.Less(t, time.Since(start), 2*time.Second)

	rvErr, ok := errors.AsType[*serverhost.RendezvousError](err)
	require.True(t, ok, "got %v", err)
	require.Equal(t, serverhost.ServerExited, rvErr.Kind)
	require.Equal(t, 1, rvErr.ExitCode)
	require.Equal(t, serverhost.StateStopped, client.State())
}

func TestClient_StopThenRestart(t *testing.T) {
	client, rec := newClient(t, testutil.ModeEcho)

	require.NoError(t, client.Start(startCtx(t)))

	first := client.Transport()
	firstStatus := client.Status(context.Background())
	require.NotZero(t, firstStatus.PID)

	require.NoError(t, client.Stop(context.Background()))
	require.Nil(t, client.Transport())

	select {
	case <-first.Done():
	default:
		t.Fatal("transport not closed by Stop")
	}

	stopped := client.Status(context.Background())
	require.NotNil(t, stopped.ExitCode, "server process terminated")

	require.NoError(t, client.Start(startCtx(t)))
	require.NotNil(t, client.Transport())

	second := client.Status(context.Background())
	require.NotEqual(t, firstStatus.SessionID, second.SessionID)
	require.NotEqual(t, firstStatus.PID, second.PID)
	require.Nil(t, second.ExitCode)

	require.Equal(t, []serverhost.State{
		serverhost.StateStarting, serverhost.StateRunning, serverhost.StateStopped,
		serverhost.StateStarting, serverhost.StateRunning,
	}, rec.states())
}

func TestClient_AlreadyStarted(t *testing.T) {
	client, _ := newClient(t, testutil.ModeEcho)

	require.NoError(t, client.Start(startCtx(t)))

	pid := client.Status(context.Background()).PID

	require.ErrorIs(t, client.Start(startCtx(t)), serverhost.ErrAlreadyStarted)
	require.Equal(t, pid, client.Status(context.Background()).PID)
}

func TestClient_StopWhileStopped(t *testing.T) {
	client, rec := newClient(t, testutil.ModeEcho)

	require.NoError(t, client.Stop(context.Background()))
	require.Empty(t, rec.states())
	require.ErrorIs(t, client.ReportTransportError(io.EOF), serverhost.ErrNotRunning)
}

func TestClient_StopDuringStarting(t *testing.T) {
	client, rec := newClient(t, testutil.ModeHold)

	startErr := make(chan error, 1)

	go func() { startErr <- client.Start(startCtx(t)) }()

	require.Eventually(t, func() bool {
		return client.Status(context.Background()).PID != 0
	}, integrationTimeout, 20*time.Millisecond)

	require.NoError(t, client.Stop(context.Background()))
	require.ErrorIs(t, <-startErr, serverhost.ErrStartAborted)
	require.Equal(t, []serverhost.State{serverhost.StateStarting, serverhost.StateStopped}, rec.states())

	st := client.Status(context.Background())
	require.NotNil(t, st.ExitCode, "held server terminated")
}

func TestClient_ConnectTimeout(t *testing.T) {
	client, _ := newClient(t, testutil.ModeHold, serverhost.WithConnectTimeout(200*time.Millisecond))

	err := client.Start(startCtx(t))

	rvErr, ok := errors.AsType[*serverhost.RendezvousError](err)
	require.True(t, ok)
	require.Equal(t, serverhost.Timeout, rvErr.Kind)
}

func TestClient_Handshake(t *testing.T) {
	client, _ := newClient(t, testutil.ModeEcho, serverhost.WithHandshake())

	require.NoError(t, client.Start(startCtx(t)))

	transport := client.Transport()

	_, err := transport.Write([]byte("after-token"))
	require.NoError(t, err)

	buf := make([]byte, len("after-token"))
	_, err = io.ReadFull(transport, buf)
	require.NoError(t, err)
	require.Equal(t, "after-token", string(buf))
}

func TestClient_BadHandshake(t *testing.T) {
	client, _ := newClient(t, testutil.ModeBadHandshake, serverhost.WithHandshake())

	err := client.Start(startCtx(t))

	rvErr, ok := errors.AsType[*serverhost.RendezvousError](err)
	require.True(t, ok)
	require.Equal(t, serverhost.HandshakeFailed, rvErr.Kind)
	require.Equal(t, serverhost.StateStopped, client.State())
}

func TestClient_ReportTransportError(t *testing.T) {
	client, rec := newClient(t, testutil.ModeEcho)

	require.NoError(t, client.Start(startCtx(t)))
	require.NoError(t, client.ReportTransportError(io.ErrUnexpectedEOF))
	require.Equal(t, serverhost.StateStopped, client.State())
	require.Equal(t, []serverhost.State{
		serverhost.StateStarting, serverhost.StateRunning, serverhost.StateStopped,
	}, rec.states())
	require.Equal(t, io.ErrUnexpectedEOF.Error(), client.Status(context.Background()).LastError)
}

func TestClient_ObserveOnceAndDispose(t *testing.T) {
	client, _ := newClient(t, testutil.ModeEcho)

	var (
		once     int
		disposed int
	)

	client.ObserveOnce(func(ev serverhost.StateChangeEvent) bool {
		return ev.NewState == serverhost.StateRunning
	}, func(serverhost.StateChangeEvent) { once++ })

	d := client.OnStateChange(func(serverhost.StateChangeEvent) { disposed++ })
	d.Dispose()

	require.NoError(t, client.Start(startCtx(t)))
	require.NoError(t, client.Stop(context.Background()))
	require.NoError(t, client.Start(startCtx(t)))

	require.Equal(t, 1, once)
	require.Zero(t, disposed)
}

func TestClient_StatusProcessStats(t *testing.T) {
	client, _ := newClient(t, testutil.ModeEcho)

	require.NoError(t, client.Start(startCtx(t)))

	st := client.Status(context.Background())
	require.Equal(t, serverhost.StateRunning, st.State)
	require.NotNil(t, st.Process)
	require.Equal(t, st.PID, st.Process.PID)
	require.True(t, st.Process.Running)
}

func TestControlServer(t *testing.T) {
	client, _ := newClient(t, testutil.ModeEcho)
	ctrl := serverhost.NewControlServer(client, "test", nil)

	result, err := ctrl.CallTool(startCtx(t), serverhost.ToolSessionStart, nil)
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, serverhost.StateRunning, client.State())

	result, err = ctrl.CallTool(context.Background(), serverhost.ToolSessionStop, map[string]any{"timeout": "5s"})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, serverhost.StateStopped, client.State())
}
