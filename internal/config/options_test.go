package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClone_Defaults(t *testing.T) {
	var o *Options

	c := o.Clone()

	require.Equal(t, DefaultHost, c.Host)
	require.Equal(t, DefaultPort, c.Port)
	require.Equal(t, PortFixed, c.PortPolicy)
	require.Equal(t, DefaultConnectTimeout, c.ConnectTimeout)
	require.Equal(t, DefaultGracePeriod, c.GracePeriod)
	require.Equal(t, DefaultExitDrainWindow, c.ExitDrainWindow)
	require.False(t, c.Handshake)
}

func TestClone_DoesNotAlias(t *testing.T) {
	o := &Options{
		Args: []string{"-cp", "a.jar"},
		Env:  map[string]string{"A": "1"},
	}

	c := o.Clone()
	c.Args[1] = "b.jar"
	c.Env["A"] = "2"

	require.Equal(t, "a.jar", o.Args[1])
	require.Equal(t, "1", o.Env["A"])
}

func TestClone_NegativeTimeoutDisables(t *testing.T) {
	c := (&Options{ConnectTimeout: -1}).Clone()
	require.Less(t, c.ConnectTimeout, time.Duration(0))
}

func TestEffectiveConnectArgs(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{
			name: "fixed port needs no arguments",
			opts: Options{PortPolicy: PortFixed},
			want: nil,
		},
		{
			name: "ephemeral port announces host and port",
			opts: Options{PortPolicy: PortEphemeral},
			want: []string{"--host", "{host}", "--port", "{port}"},
		},
		{
			name: "explicit template wins",
			opts: Options{PortPolicy: PortEphemeral, ConnectArgs: []string{"{address}"}},
			want: []string{"{address}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.opts.EffectiveConnectArgs())
		})
	}
}

func TestParseProfile(t *testing.T) {
	data := []byte(`
executable: java
args: ["-cp", "server.jar"]
entry_point: PolyglotLanguageServerLauncher
env:
  JAVA_OPTS: -Xmx512m
ephemeral: true
connect_timeout: 20s
grace_period: 1500ms
handshake: true
`)

	profile, err := ParseProfile(data)
	require.NoError(t, err)
	require.Equal(t, "java", profile.Executable)
	require.Equal(t, []string{"-cp", "server.jar"}, profile.Args)
	require.Equal(t, 20*time.Second, profile.ConnectTimeout)
	require.Equal(t, 1500*time.Millisecond, profile.GracePeriod)

	opts := &Options{Env: map[string]string{"KEEP": "1"}}
	profile.Apply(opts)

	require.Equal(t, "PolyglotLanguageServerLauncher", opts.EntryPoint)
	require.Equal(t, PortEphemeral, opts.PortPolicy)
	require.True(t, opts.Handshake)
	require.Equal(t, map[string]string{"KEEP": "1", "JAVA_OPTS": "-Xmx512m"}, opts.Env)
}

func TestParseProfile_Invalid(t *testing.T) {
	_, err := ParseProfile([]byte("args: [a]"))
	require.ErrorContains(t, err, "executable is required")

	_, err = ParseProfile([]byte("executable: x\nport: 70000"))
	require.ErrorContains(t, err, "out of range")

	_, err = ParseProfile([]byte("executable: [unterminated"))
	require.Error(t, err)
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("executable: /opt/server/bin/run\nport: 3000\n"), 0o600))

	profile, err := LoadProfile(path)
	require.NoError(t, err)
	require.Equal(t, 3000, profile.Port)

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read profile")
}
