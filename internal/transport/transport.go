// Package transport provides abstractions for reaching the cipher
// service.  Transports handle the "how" of data movement (plain TCP or
// an SSH-tunnelled connection) independent of what happens over the
// connection, which is the capability layer's job.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound network connections.  Implementations include
// a plain TCP dialer and an SSH-tunnelled dialer that routes traffic
// through a gateway.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

var (
	_ Dialer = (*TCPDialer)(nil)
	_ Dialer = (*SSHDialer)(nil)
)
