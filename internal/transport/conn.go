package transport

import (
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/wagiedev/serverhost-go/internal/config"
)

// Conn implements config.Transport over a net.Conn.
type Conn struct {
	conn net.Conn
	log  *slog.Logger

	errMu sync.Mutex
	err   error

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// Compile-time verification that Conn implements config.Transport.
var _ config.Transport = (*Conn)(nil)

// New wraps conn. A nil logger disables logging.
func New(log *slog.Logger, conn net.Conn) *Conn {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Conn{
		conn: conn,
		log:  log.With("component", "transport", "remote", conn.RemoteAddr().String()),
		done: make(chan struct{}),
	}
}

// Read reads from the connection.
func (c *Conn) Read(p []byte) (int, error) {
	n, err := c.conn.Read(p)
	if err != nil {
		c.record(err)
	}

	return n, err
}

// Write writes to the connection.
func (c *Conn) Write(p []byte) (int, error) {
	n, err := c.conn.Write(p)
	if err != nil {
		c.record(err)
	}

	return n, err
}

// Close closes the connection. It's safe to call Close multiple times.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
		close(c.done)

		c.log.Debug("Transport closed")
	})

	return c.closeErr
}

// LocalAddr returns the host side of the connection.
func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the server side of the connection.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Done returns a channel that is closed when the transport is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the first read or write error observed, if any.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()

	return c.err
}

// NetConn returns the underlying connection.
func (c *Conn) NetConn() net.Conn {
	return c.conn
}

func (c *Conn) record(err error) {
	// Errors after our own Close are not transport failures.
	select {
	case <-c.done:
		return
	default:
	}

	c.errMu.Lock()
	defer c.errMu.Unlock()

	if c.err == nil {
		c.err = err

		if stderrors.Is(err, io.EOF) {
			c.log.Debug("Transport reached EOF")
		} else {
			c.log.Warn("Transport I/O error", "error", err)
		}
	}
}
