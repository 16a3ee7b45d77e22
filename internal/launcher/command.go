package launcher

import (
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/wagiedev/serverhost-go/internal/endpoint"
)

const (
	// EnvEndpoint carries the host:port the server must connect to.
	EnvEndpoint = "SERVERHOST_ENDPOINT"

	// EnvToken carries the handshake token when handshakes are enabled.
	EnvToken = "SERVERHOST_TOKEN"
)

// BuildArgs constructs the server argument list.
//
// The order is the fixed runtime invocation (Args), the entry point, then
// the connect arguments with {host}, {port}, {address} and {token} expanded.
func BuildArgs(cfg *Config, ep endpoint.Endpoint, token string) []string {
	args := make([]string, 0, len(cfg.Args)+len(cfg.ConnectArgs)+1)
	args = append(args, cfg.Args...)

	if cfg.EntryPoint != "" {
		args = append(args, cfg.EntryPoint)
	}

	replacer := strings.NewReplacer(
		"{host}", ep.Host,
		"{port}", strconv.Itoa(ep.Port),
		"{address}", ep.Address(),
		"{token}", token,
	)

	for _, arg := range cfg.ConnectArgs {
		args = append(args, replacer.Replace(arg))
	}

	return args
}

// BuildEnvironment constructs the environment variables for the server process.
func BuildEnvironment(cfg *Config, ep endpoint.Endpoint, token string) []string {
	// Start with current environment
	env := os.Environ()

	// Add or override with user-provided environment variables in a stable order
	keys := make([]string, 0, len(cfg.Env))
	for key := range cfg.Env {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	for _, key := range keys {
		env = append(env, key+"="+cfg.Env[key])
	}

	env = append(env, EnvEndpoint+"="+ep.Address())

	if token != "" {
		env = append(env, EnvToken+"="+token)
	}

	return env
}
