// Package session represents a single connection lifecycle, binding a
// network connection with I/O endpoints, a cipher machine and a scoped
// logger.
//
// Capabilities operate on sessions rather than raw connections, so a
// capability doesn't need to know whether it's reading from os.Stdin,
// a TCP peer or a test buffer.
package session

import (
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"enigma/enigma"
	"enigma/util"
)

// Session encapsulates the runtime context for a single connection.
type Session struct {
	ID      string
	Conn    net.Conn
	Stdin   io.Reader
	Stdout  io.Writer
	Machine *enigma.Machine // owned by this session only
	Logger  *util.Logger
	Started time.Time
}

// New creates a Session bound to the given connection and I/O pair.
// The session gets a random id and a logger scoped to it.
func New(conn net.Conn, stdin io.Reader, stdout io.Writer, logger *util.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		ID:      id,
		Conn:    conn,
		Stdin:   stdin,
		Stdout:  stdout,
		Logger:  logger.With("session " + ShortID(id)),
		Started: time.Now(),
	}
}

// ShortID returns the first block of a uuid, enough to tell sessions
// apart in logs.
func ShortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// Peer returns the remote address, or "-" for sessions without a
// connection.
func (s *Session) Peer() string {
	if s.Conn == nil || s.Conn.RemoteAddr() == nil {
		return "-"
	}
	return s.Conn.RemoteAddr().String()
}
