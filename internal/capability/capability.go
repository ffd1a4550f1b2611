// Package capability defines what happens over an established
// connection.  Each Capability encapsulates a single behaviour
// (encipher the peer's stream, relay local I/O) and operates on a
// Session rather than a raw net.Conn, which keeps capabilities testable
// and decoupled from transport details.
package capability

import (
	"context"

	"enigma/internal/session"
)

// Capability handles a single connection according to a specific
// behaviour.  Implementations are Cipher on the service side and Relay
// on the client side.
type Capability interface {
	// Handle runs the capability against the given session.
	// It blocks until the connection is done or the context is
	// cancelled.
	Handle(ctx context.Context, sess *session.Session) error
}

var (
	_ Capability = (*Cipher)(nil)
	_ Capability = (*Relay)(nil)
)
