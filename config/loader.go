package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Key sheet  (keysheet.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the ENIGMA_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Settings lists use the
// same syntax as the flags.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flags are applied so that flags take precedence.  A malformed
// setting list is reported rather than ignored.
func LoadFromEnv(cfg *Config) error {
	// Key setting
	if v := os.Getenv("ENIGMA_ROTORS"); v != "" {
		rotors, err := ParseRotorList(v)
		if err != nil {
			return err
		}
		cfg.Rotors = rotors
	}
	if v := os.Getenv("ENIGMA_POSITIONS"); v != "" {
		pos, err := ParseSettings("positions", v)
		if err != nil {
			return err
		}
		cfg.Positions = pos
	}
	if v := os.Getenv("ENIGMA_RINGS"); v != "" {
		rings, err := ParseSettings("rings", v)
		if err != nil {
			return err
		}
		cfg.Rings = rings
	}
	if v := os.Getenv("ENIGMA_REFLECTOR"); v != "" {
		cfg.Reflector = strings.ToUpper(strings.TrimSpace(v))
	}
	if v := os.Getenv("ENIGMA_PLUGBOARD"); v != "" {
		cfg.Plugboard = v
	}
	if v := os.Getenv("ENIGMA_KEYSHEET"); v != "" {
		cfg.KeySheet = v
	}

	// Service
	if v := envInt("ENIGMA_PORT"); v > 0 {
		cfg.LocalPort = v
	}
	if envBool("ENIGMA_KEEP_OPEN") {
		cfg.KeepOpen = true
	}
	if v := envInt("ENIGMA_TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}
	if v := envInt("ENIGMA_RETRIES"); v > 0 {
		cfg.Retries = v
	}
	if v := os.Getenv("ENIGMA_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	// SSH tunnel
	if v := os.Getenv("ENIGMA_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("ENIGMA_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("ENIGMA_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("ENIGMA_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("ENIGMA_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("ENIGMA_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := envInt("ENIGMA_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
