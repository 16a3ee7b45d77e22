// Package config provides configuration types for the server host.
package config

import (
	"io"
	"net"
)

// Transport is the duplex byte stream delivered by a successful rendezvous.
//
// The host layers its own message protocol on top of it; this package only
// guarantees a connected, open stream. The default implementation wraps the
// first connection accepted from the server process.
type Transport interface {
	io.Reader
	io.Writer

	// Close releases both ends of the stream. It's safe to call Close multiple times.
	io.Closer

	// LocalAddr returns the host side of the connection.
	LocalAddr() net.Addr

	// RemoteAddr returns the server side of the connection.
	RemoteAddr() net.Addr

	// Done returns a channel that is closed when the transport is closed.
	Done() <-chan struct{}

	// Err returns the first read or write error observed, if any.
	Err() error
}
