package tunnel

import (
	"context"
	"net"
	"sync"

	ncerr "enigma/internal/errors"
	"enigma/util"
)

// Manager keeps an SSHTunnel usable across dials: it connects on first
// use and reconnects once the gateway has dropped.
type Manager struct {
	tunnel   *SSHTunnel
	logger   *util.Logger
	mu       sync.Mutex
	connects int
	stopped  bool
}

// NewManager returns a Manager for the given tunnel.
func NewManager(t *SSHTunnel, logger *util.Logger) *Manager {
	return &Manager{tunnel: t, logger: logger}
}

// Ensure connects the tunnel unless it is already alive.
func (m *Manager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ncerr.ErrTunnelClosed
	}
	if m.tunnel.IsAlive() {
		return nil
	}
	if err := m.tunnel.Connect(ctx); err != nil {
		return err
	}
	m.connects++
	go m.watch(m.tunnel.Done())
	return nil
}

// Dial forwards a connection, (re)connecting the gateway first if
// needed.
func (m *Manager) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := m.Ensure(ctx); err != nil {
		return nil, err
	}
	return m.tunnel.Dial(ctx, network, address)
}

// Connects returns how many times the gateway connection was
// established.
func (m *Manager) Connects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects
}

// Stop shuts the tunnel down for good.
func (m *Manager) Stop() error {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
	return m.tunnel.Close()
}

func (m *Manager) watch(done <-chan struct{}) {
	<-done
	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if !stopped {
		m.logger.Warn("SSH gateway connection lost; the next dial reconnects")
	}
}
