package capability

import (
	"context"

	"enigma/internal/session"
	"enigma/util"
)

// Relay copies data bidirectionally between the connection and the
// session's stdin/stdout: the client side of a remote cipher session.
type Relay struct{}

// Handle shuttles bytes between the network connection and the local
// I/O endpoints until one side closes or the context is cancelled.
func (r *Relay) Handle(ctx context.Context, sess *session.Session) error {
	stats, err := util.BidirectionalCopy(ctx, sess.Conn, sess.Stdin, sess.Stdout)
	sess.Logger.Verbose("relay done: %d bytes sent, %d received", stats.Sent, stats.Received)
	return err
}
