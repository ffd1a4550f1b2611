package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, key sheets, and environment variable loading.

var (
	// DefaultRotors is the classic three-rotor order, leftmost first.
	DefaultRotors = []string{"III", "II", "I"}

	// DefaultReflector is the reflector fitted when none is configured.
	DefaultReflector = "B"
)

const (
	// DefaultPort is the TCP port of the cipher service.
	DefaultPort = 7474

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultLocalAddress is the address used for local service binding.
	DefaultLocalAddress = "127.0.0.1"

	// DefaultConnTimeout is the TCP/SSH connection timeout.
	DefaultConnTimeout = 30 * time.Second

	// DefaultRetries is how many times connect mode redials a refused
	// cipher service before giving up.
	DefaultRetries = 3

	// DefaultRetryBackoff is the first delay between dial attempts.
	DefaultRetryBackoff = 500 * time.Millisecond

	// DefaultMaxRetryBackoff caps the exponential backoff between dial
	// attempts.
	DefaultMaxRetryBackoff = 10 * time.Second

	// DefaultGracePeriod is how long the service waits for open sessions
	// after shutdown is requested.
	DefaultGracePeriod = 5 * time.Second
)

// ApplyDefaults fills every key-setting field that is still unset.
// Positions and ring settings left empty stay empty: the machine starts
// each rotor at 1.
func (c *Config) ApplyDefaults() {
	if len(c.Rotors) == 0 {
		c.Rotors = append([]string(nil), DefaultRotors...)
	}
	if c.Reflector == "" {
		c.Reflector = DefaultReflector
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultConnTimeout
	}
}
