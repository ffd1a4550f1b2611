package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"enigma/config"
	"enigma/internal/capability"
	"enigma/internal/metrics"
	"enigma/internal/retry"
	"enigma/internal/session"
	"enigma/util"
)

// ListenMode is the cipher service.  It accepts TCP connections and
// runs the capability on each one with a machine of its own, so every
// peer starts from the day's key regardless of what other peers send.
// With KeepOpen=true it serves connections concurrently; otherwise it
// handles one connection and returns.
type ListenMode struct {
	Address     string // ":port"
	KeepOpen    bool
	Timeout     time.Duration // idle limit per connection, 0 for none
	Factory     config.MachineFactory
	Capability  capability.Capability
	Metrics     *metrics.Collector // optional
	MetricsAddr string             // serve /metrics here when set
	GracePeriod time.Duration      // how long shutdown waits for open sessions
	Logger      *util.Logger

	// Breaker guards Accept; a default one is used when nil.
	Breaker *retry.Breaker
}

// Run listens until ctx is cancelled (or, without KeepOpen, until the
// first session ends).
func (m *ListenMode) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", m.Address, err)
	}
	defer ln.Close()

	if m.MetricsAddr != "" {
		stop, err := m.serveMetrics()
		if err != nil {
			return err
		}
		defer stop()
	}

	m.Logger.Info("cipher service listening on %s", ln.Addr())

	// Shut the listener down when the context expires.
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	err = m.acceptLoop(ctx, ln, &wg)
	m.drain(&wg)

	m.Logger.Verbose("service stats: %s", m.Metrics.JSON())
	return err
}

func (m *ListenMode) acceptLoop(ctx context.Context, ln net.Listener, wg *sync.WaitGroup) error {
	breaker := m.Breaker
	if breaker == nil {
		breaker = retry.NewBreaker(&retry.BreakerConfig{
			OnStateChange: func(from, to retry.State) {
				m.Logger.Verbose("accept breaker %s → %s", from, to)
			},
		})
	}

	for {
		var conn net.Conn
		err := breaker.Execute(func() error {
			var aerr error
			conn, aerr = ln.Accept()
			return aerr
		})
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, retry.ErrOpen):
			m.Logger.Warn("too many accept errors; pausing for %v", breaker.Wait())
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(breaker.Wait()):
			}
			continue
		case errors.Is(err, net.ErrClosed):
			return fmt.Errorf("accept: %w", err)
		default:
			m.Metrics.RecordError(err.Error())
			m.Logger.Warn("accept: %v", err)
			continue
		}

		if !m.KeepOpen {
			return m.serveConn(ctx, conn)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.serveConn(ctx, conn) //nolint:errcheck
		}()
	}
}

// drain waits for open sessions, but no longer than the grace period.
func (m *ListenMode) drain(wg *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	grace := m.GracePeriod
	if grace <= 0 {
		grace = config.DefaultGracePeriod
	}
	select {
	case <-done:
	case <-time.After(grace):
		m.Logger.Warn("%d session(s) still open after %v; leaving them", m.Metrics.ActiveSessions(), grace)
	}
}

// serveConn runs one cipher session.  Its error is also recorded in the
// metrics, since concurrent sessions have nobody to return it to.
func (m *ListenMode) serveConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()

	if m.Timeout > 0 {
		conn = idleConn{Conn: conn, limit: m.Timeout}
	}

	sess := session.New(conn, nil, nil, m.Logger)
	machine, err := m.Factory()
	if err != nil {
		m.Metrics.RecordError(err.Error())
		return fmt.Errorf("session %s: %w", session.ShortID(sess.ID), err)
	}
	sess.Machine = machine

	m.Metrics.SessionOpened()
	defer m.Metrics.SessionClosed()
	sess.Logger.Verbose("connection from %s, window %s", sess.Peer(), machine.Window())

	err = m.Capability.Handle(ctx, sess)
	if err != nil {
		m.Metrics.RecordError(err.Error())
		sess.Logger.Warn("%v", err)
	}
	sess.Logger.Verbose("closed after %v", time.Since(sess.Started).Truncate(time.Millisecond))
	return err
}

// serveMetrics exposes the collector over HTTP and returns a function
// that shuts the server down.
func (m *ListenMode) serveMetrics() (func(), error) {
	ln, err := net.Listen("tcp", m.MetricsAddr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener on %s: %w", m.MetricsAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.Logger.Warn("metrics server: %v", err)
		}
	}()
	m.Logger.Verbose("metrics on http://%s/metrics", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx) //nolint:errcheck
	}, nil
}

// idleConn drops a peer that has sent nothing for limit.
type idleConn struct {
	net.Conn
	limit time.Duration
}

func (c idleConn) Read(p []byte) (int, error) {
	c.Conn.SetReadDeadline(time.Now().Add(c.limit)) //nolint:errcheck
	return c.Conn.Read(p)
}
