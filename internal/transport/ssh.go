package transport

import (
	"context"
	"fmt"
	"net"

	"enigma/tunnel"
	"enigma/util"
)

// SSHDialer routes connections through an SSH gateway.  The gateway is
// connected lazily on the first Dial, reconnected if it drops between
// dials, and torn down on Close.
type SSHDialer struct {
	manager *tunnel.Manager
	config  *tunnel.SSHConfig
	logger  *util.Logger
}

// NewSSHDialer creates a dialer that forwards connections through an
// SSH gateway.  Nothing is dialed until the first Dial.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	return &SSHDialer{
		manager: tunnel.NewManager(tunnel.NewSSHTunnel(cfg, logger), logger),
		config:  cfg,
		logger:  logger,
	}
}

// Dial connects to address through the gateway.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	d.logger.Verbose("via SSH gateway %s@%s:%d", d.config.User, d.config.Host, d.config.Port)
	conn, err := d.manager.Dial(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("tunnel: %w", err)
	}
	return conn, nil
}

// Close tears down the underlying SSH connection.
func (d *SSHDialer) Close() error {
	return d.manager.Stop()
}
