package core

import (
	"fmt"

	"enigma/config"
	"enigma/internal/capability"
	ncerr "enigma/internal/errors"
	"enigma/internal/metrics"
	"enigma/internal/retry"
	"enigma/internal/transport"
	"enigma/tunnel"
	"enigma/util"
)

// Build constructs the Mode selected by cfg.  The factory supplies a
// fresh machine for every run or session.
func Build(cfg *config.Config, factory config.MachineFactory, logger *util.Logger) (Mode, error) {
	if factory == nil {
		return nil, fmt.Errorf("core: no machine factory")
	}
	switch {
	case cfg.Listen:
		return buildListen(cfg, factory, logger), nil
	case cfg.Connecting():
		return buildConnect(cfg, logger), nil
	case cfg.Interactive:
		return &InteractiveMode{Factory: factory, Logger: logger}, nil
	default:
		return &TextMode{Factory: factory, Text: cfg.Text, Logger: logger}, nil
	}
}

// ── mode builders ────────────────────────────────────────────────────

func buildListen(cfg *config.Config, factory config.MachineFactory, logger *util.Logger) Mode {
	collector := metrics.New()
	return &ListenMode{
		Address:     fmt.Sprintf(":%d", cfg.LocalPort),
		KeepOpen:    cfg.KeepOpen,
		Timeout:     cfg.Timeout,
		Factory:     factory,
		Capability:  &capability.Cipher{Metrics: collector},
		Metrics:     collector,
		MetricsAddr: cfg.MetricsAddr,
		GracePeriod: config.DefaultGracePeriod,
		Logger:      logger,
	}
}

func buildConnect(cfg *config.Config, logger *util.Logger) Mode {
	backoff := &retry.Backoff{
		InitialDelay: config.DefaultRetryBackoff,
		MaxDelay:     config.DefaultMaxRetryBackoff,
		Multiplier:   2.0,
		MaxAttempts:  cfg.Retries + 1,
		Jitter:       true,
		Retryable:    ncerr.IsRetryable,
	}
	return &ConnectMode{
		Dialer:     buildDialer(cfg, logger),
		Capability: &capability.Relay{},
		Address:    util.FormatAddr(cfg.Host, cfg.Port),
		Backoff:    backoff,
		Logger:     logger,
	}
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.Timeout,
		}, logger)
	}
	return &transport.TCPDialer{Timeout: cfg.Timeout}
}
