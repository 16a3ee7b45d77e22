package rendezvous

import (
	"bytes"
	"crypto/subtle"
	stderrors "errors"
	"fmt"
	"net"
	"time"
)

// maxTokenLineLength bounds the handshake line, newline included.
const maxTokenLineLength = 128

var (
	errTokenMismatch = stderrors.New("token mismatch")
	errTokenTooLong  = stderrors.New("token line too long")
)

type handshakeError struct {
	Err error
}

func (e *handshakeError) Error() string {
	return fmt.Sprintf("handshake: %v", e.Err)
}

func (e *handshakeError) Unwrap() error {
	return e.Err
}

// handshake reads the first line from conn and compares it with the token.
//
// The line is read a byte at a time so nothing past the newline is consumed
// from the stream handed to the host.
func (c *Coordinator) handshake(conn net.Conn) error {
	if c.cfg.HandshakeTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(c.cfg.HandshakeTimeout)); err != nil {
			return &handshakeError{Err: err}
		}
	}

	line := make([]byte, 0, maxTokenLineLength)
	b := make([]byte, 1)

	for {
		if _, err := conn.Read(b); err != nil {
			return &handshakeError{Err: err}
		}

		if b[0] == '\n' {
			break
		}

		if len(line) == maxTokenLineLength {
			return &handshakeError{Err: errTokenTooLong}
		}

		line = append(line, b[0])
	}

	line = bytes.TrimSuffix(line, []byte("\r"))

	if subtle.ConstantTimeCompare(line, []byte(c.cfg.Token)) != 1 {
		return &handshakeError{Err: errTokenMismatch}
	}

	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return &handshakeError{Err: err}
	}

	return nil
}
