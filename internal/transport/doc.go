// Package transport wraps the connection accepted from the server process
// as the host's duplex byte stream.
package transport
