package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"enigma/internal/capability"
	"enigma/internal/retry"
	"enigma/internal/session"
	"enigma/internal/transport"
	"enigma/util"
)

// ConnectMode is the client of a remote cipher service.  It dials the
// service, backing off while the service is not up yet, and relays
// local I/O over the connection.
type ConnectMode struct {
	Dialer     transport.Dialer
	Capability capability.Capability
	Address    string
	Backoff    *retry.Backoff // nil dials once
	Logger     *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

// Run dials the remote address, creates a session, and hands it to
// the capability.  The transport is closed when Run returns.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	conn, err := m.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}
	defer conn.Close()

	m.Logger.Verbose("connected to %s", conn.RemoteAddr())

	sess := session.New(conn, orStdin(m.Stdin), orStdout(m.Stdout), m.Logger)
	return m.Capability.Handle(ctx, sess)
}

func (m *ConnectMode) dial(ctx context.Context) (net.Conn, error) {
	m.Logger.Verbose("connecting to %s", m.Address)
	if m.Backoff == nil {
		return m.Dialer.Dial(ctx, "tcp", m.Address)
	}

	b := *m.Backoff
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		m.Logger.Warn("attempt %d: %v; retrying in %v", attempt, err, wait.Truncate(time.Millisecond))
	}

	var conn net.Conn
	err := b.Do(ctx, func(int) error {
		c, err := m.Dialer.Dial(ctx, "tcp", m.Address)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	return conn, err
}
