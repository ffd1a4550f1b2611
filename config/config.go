// Package config defines the runtime configuration for enigma: the key
// setting for the machine and the run mode around it.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"enigma/enigma"
	ncerr "enigma/internal/errors"
)

// Config holds every tuneable for a single enigma run.
type Config struct {
	// ── Key setting ──────────────────────────────────────────────────
	Rotors    []string // left to right, e.g. III,II,I
	Positions []int    // 1-based, same order as Rotors
	Rings     []int    // 1-based, same order as Rotors
	Reflector string
	Plugboard string // "AB CD EF"
	KeySheet  string // path to a YAML key sheet

	// ── Mode ─────────────────────────────────────────────────────────
	Text        []string // positional text; stdin when empty
	Interactive bool
	Listen      bool
	LocalPort   int // -p: listen port
	KeepOpen    bool
	Host        string // connect target
	Port        int
	Timeout     time.Duration
	Retries     int

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	MetricsAddr string
	Verbose     int
	DryRun      bool

	// components defined by the key sheet, by upper-case name
	customRotors     map[string]RotorDef
	customReflectors map[string]ReflectorDef
}

// Connecting reports whether the run relays to a remote cipher service.
func (c *Config) Connecting() bool { return c.Host != "" }

// ── Key-setting parsers ──────────────────────────────────────────────

// ParseRotorList splits "III,II,I" (commas and/or spaces) into
// upper-case rotor names, leftmost first.
func ParseRotorList(spec string) ([]string, error) {
	fields := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, ncerr.Config("rotors", spec, ncerr.ErrNoRotors)
	}
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.ToUpper(f)
	}
	return out, nil
}

// ParseSettings accepts either 1-based numbers ("1,5,22") or window
// letters ("AEV") and returns the numeric settings.
func ParseSettings(field, spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, ncerr.Configf(field, spec, ncerr.ErrInvalidSymbol, "setting list is empty")
	}

	if isLetters(spec) {
		out := make([]int, 0, len(spec))
		for _, r := range spec {
			sym, _ := enigma.Index(r)
			out = append(out, sym+1)
		}
		return out, nil
	}

	parts := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > enigma.Size {
			ce := ncerr.Configf(field, spec, ncerr.ErrInvalidSymbol, "%q is not a setting between 1 and %d", p, enigma.Size)
			ce.Hint = "use numbers like 1,5,22 or window letters like AEV"
			return nil, ce
		}
		out = append(out, n)
	}
	return out, nil
}

func isLetters(s string) bool {
	for _, r := range s {
		if _, ok := enigma.Index(r); !ok {
			return false
		}
	}
	return true
}

// ── Port helpers ─────────────────────────────────────────────────────

// ParsePortSpec accepts a single numeric port.
func ParsePortSpec(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q: expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.  It
// does not build the machine; [Config.Factory] reports wiring problems.
func (c *Config) Validate() error {
	if len(c.Rotors) == 0 {
		return &ncerr.ConfigError{
			Field: "rotors", Message: ncerr.ErrNoRotors.Error(), Err: ncerr.ErrNoRotors,
			Hint: "e.g. --rotors III,II,I",
		}
	}
	if len(c.Positions) > len(c.Rotors) {
		return ncerr.Configf("positions", c.Positions, ncerr.ErrInvalidSymbol,
			"%d positions for %d rotors", len(c.Positions), len(c.Rotors))
	}
	if len(c.Rings) > len(c.Rotors) {
		return ncerr.Configf("rings", c.Rings, ncerr.ErrInvalidSymbol,
			"%d ring settings for %d rotors", len(c.Rings), len(c.Rotors))
	}
	if c.Reflector == "" {
		return &ncerr.ConfigError{
			Field: "reflector", Message: ncerr.ErrNoReflector.Error(), Err: ncerr.ErrNoReflector,
			Hint: "choose from " + strings.Join(enigma.ReflectorNames(), ", "),
		}
	}

	modes := 0
	for _, on := range []bool{c.Interactive, c.Listen, c.Connecting()} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return &ncerr.ConfigError{
			Field:   "listen",
			Message: "--interactive, --listen and --connect are mutually exclusive",
		}
	}
	if len(c.Text) > 0 && modes > 0 {
		return &ncerr.ConfigError{
			Field:   "text",
			Message: "positional text is only used in text mode",
			Hint:    "drop the text or the mode flag",
		}
	}

	if c.Listen {
		if c.LocalPort == 0 {
			return &ncerr.ConfigError{
				Field: "port", Message: "listen mode requires a port",
				Hint: fmt.Sprintf("add -p %d", DefaultPort),
			}
		}
		if c.TunnelEnabled {
			return &ncerr.ConfigError{
				Field: "tunnel", Value: c.TunnelSpec,
				Message: "SSH tunnels are only used with --connect",
			}
		}
	}
	if c.Connecting() && (c.Port < 1 || c.Port > 65535) {
		return ncerr.Configf("connect", fmt.Sprintf("%s:%d", c.Host, c.Port), nil,
			"destination port out of range 1-65535")
	}
	if c.TunnelEnabled && c.TunnelHost == "" {
		return &ncerr.ConfigError{Field: "tunnel", Message: "tunnel host is required"}
	}
	if c.Retries < 0 {
		return ncerr.Configf("retries", c.Retries, nil, "must not be negative")
	}
	if c.MetricsAddr != "" && !c.Listen {
		return &ncerr.ConfigError{
			Field: "metrics-addr", Value: c.MetricsAddr,
			Message: "metrics are only served in listen mode",
		}
	}
	return nil
}
