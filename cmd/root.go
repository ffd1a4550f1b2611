// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"enigma/config"
	"enigma/internal/core"
	"enigma/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X enigma/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// flags holds raw flag values until they are layered over the
// environment and the key sheet.
type flags struct {
	rotors, positions, rings string
	reflector, plugboard     string
	keySheet                 string

	interactive, listen, keepOpen bool
	port                          int
	connect                       string
	timeoutSec, retries           int

	tunnel, sshKey, knownHosts         string
	sshPassword, sshAgent, strictHost bool

	metricsAddr string
	verbose     int
	dryRun      bool
}

// Execute parses args and runs the selected enigma mode against the
// process's stdin and stdout.
func Execute(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var f flags
	fs := flag.NewFlagSet("enigma", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── key setting ──────────────────────────────────────────────
	fs.StringVarP(&f.rotors, "rotors", "r", "", "Rotors left to right (default III,II,I)")
	fs.StringVarP(&f.positions, "positions", "P", "", "Start positions, 1,1,1 or AAA")
	fs.StringVarP(&f.rings, "rings", "R", "", "Ring settings, 1,1,1 or AAA")
	fs.StringVarP(&f.reflector, "reflector", "u", "", "Reflector A, B or C (default B)")
	fs.StringVarP(&f.plugboard, "plugboard", "b", "", `Plugboard pairs, e.g. "AB CD EF"`)
	fs.StringVarP(&f.keySheet, "keysheet", "K", "", "YAML key sheet with the day's setting")

	// ── mode ─────────────────────────────────────────────────────
	fs.BoolVarP(&f.interactive, "interactive", "i", false, "Typewriter mode on a raw terminal")
	fs.BoolVarP(&f.listen, "listen", "l", false, "Serve the cipher over TCP")
	fs.IntVarP(&f.port, "port", "p", 0, "Listen port")
	fs.BoolVarP(&f.keepOpen, "keep-open", "k", false, "Serve many connections (with -l)")
	fs.StringVarP(&f.connect, "connect", "c", "", "Relay stdin to a cipher service at host:port")
	fs.IntVarP(&f.timeoutSec, "timeout", "w", 0, "Dial and idle timeout in seconds")
	fs.IntVar(&f.retries, "retries", config.DefaultRetries, "Redials of a refused cipher service")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&f.tunnel, "tunnel", "T", "", "Reach the service via SSH gateway [user@]host[:port]")
	fs.StringVar(&f.sshKey, "ssh-key", "", "SSH private key file")
	fs.BoolVar(&f.sshPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&f.sshAgent, "ssh-agent", false, "Use SSH agent")
	fs.BoolVar(&f.strictHost, "strict-hostkey", false, "Verify SSH host keys")
	fs.StringVar(&f.knownHosts, "known-hosts", "", "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics here (with -l)")
	fs.CountVarP(&f.verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Validate the setting and exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs, stderr) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showHelp {
		printUsage(fs, stderr)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "enigma %s\n", version)
		return nil
	}

	// ── layer: defaults < key sheet < env < flags ────────────────
	cfg := &config.Config{Retries: config.DefaultRetries}
	if err := config.LoadFromEnv(cfg); err != nil {
		return err
	}
	if err := applyFlags(cfg, fs, &f, fs.Args()); err != nil {
		return err
	}
	if cfg.KeySheet != "" {
		ks, err := config.LoadKeySheet(cfg.KeySheet)
		if err != nil {
			return err
		}
		cfg.ApplyKeySheet(ks)
	}
	cfg.ApplyDefaults()

	if cfg.TunnelSpec != "" {
		user, host, port, err := config.ParseTunnelSpec(cfg.TunnelSpec)
		if err != nil {
			return fmt.Errorf("tunnel: %w", err)
		}
		cfg.TunnelEnabled = true
		cfg.TunnelUser = user
		cfg.TunnelHost = host
		cfg.TunnelPort = port
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}
	factory, err := cfg.Factory()
	if err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(stderr)

	if cfg.DryRun {
		return describe(stdout, cfg, factory)
	}

	mode, err := core.Build(cfg, factory, logger)
	if err != nil {
		return err
	}
	return core.WithIO(mode, stdin, stdout).Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// applyFlags copies every flag the user actually set onto cfg, so env
// values survive unless overridden on the command line.
func applyFlags(cfg *config.Config, fs *flag.FlagSet, f *flags, positional []string) error {
	set := fs.Changed

	if set("rotors") {
		rotors, err := config.ParseRotorList(f.rotors)
		if err != nil {
			return err
		}
		cfg.Rotors = rotors
	}
	if set("positions") {
		pos, err := config.ParseSettings("positions", f.positions)
		if err != nil {
			return err
		}
		cfg.Positions = pos
	}
	if set("rings") {
		rings, err := config.ParseSettings("rings", f.rings)
		if err != nil {
			return err
		}
		cfg.Rings = rings
	}
	if set("reflector") {
		cfg.Reflector = strings.ToUpper(strings.TrimSpace(f.reflector))
	}
	if set("plugboard") {
		cfg.Plugboard = f.plugboard
	}
	if set("keysheet") {
		cfg.KeySheet = f.keySheet
	}

	if set("interactive") {
		cfg.Interactive = f.interactive
	}
	if set("listen") {
		cfg.Listen = f.listen
	}
	if set("port") {
		cfg.LocalPort = f.port
	}
	if set("keep-open") {
		cfg.KeepOpen = f.keepOpen
	}
	if set("timeout") && f.timeoutSec > 0 {
		cfg.Timeout = time.Duration(f.timeoutSec) * time.Second
	}
	if set("retries") {
		cfg.Retries = f.retries
	}

	if set("tunnel") {
		cfg.TunnelSpec = f.tunnel
	}
	if set("ssh-key") {
		cfg.SSHKeyPath = f.sshKey
	}
	if set("ssh-password") {
		cfg.SSHPassword = f.sshPassword
	}
	if set("ssh-agent") {
		cfg.UseSSHAgent = f.sshAgent
	}
	if set("strict-hostkey") {
		cfg.StrictHostKey = f.strictHost
	}
	if set("known-hosts") {
		cfg.KnownHostsPath = f.knownHosts
	}

	if set("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
	if set("verbose") {
		cfg.Verbose = f.verbose
	}
	cfg.DryRun = f.dryRun

	if set("connect") {
		return parseConnect(cfg, f.connect, positional)
	}
	cfg.Text = positional
	return nil
}

// parseConnect accepts "--connect host:port" or "--connect host port".
func parseConnect(cfg *config.Config, target string, positional []string) error {
	if strings.Contains(target, ":") {
		if len(positional) > 0 {
			return fmt.Errorf("unexpected arguments after --connect %s: %s",
				target, strings.Join(positional, " "))
		}
		host, port, err := util.SplitAddr(target)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		cfg.Host, cfg.Port = host, port
		return nil
	}

	switch len(positional) {
	case 0:
		return fmt.Errorf("port required (use --connect host:port)")
	case 1:
		port, err := config.ParsePortSpec(positional[0])
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.Host, cfg.Port = target, port
		return nil
	default:
		return fmt.Errorf("too many arguments for connect mode")
	}
}

// describe prints the resolved setting for --dry-run.
func describe(w io.Writer, cfg *config.Config, factory config.MachineFactory) error {
	m, err := factory()
	if err != nil {
		return err
	}
	names := make([]string, 0, len(m.Rotors()))
	for _, r := range m.Rotors() {
		names = append(names, r.Name())
	}
	plugs := m.Plugboard().String()
	if plugs == "" {
		plugs = "-"
	}

	fmt.Fprintf(w, "rotors:    %s\n", strings.Join(names, " "))
	fmt.Fprintf(w, "rings:     %s\n", settingLetters(m.RingSettings()))
	fmt.Fprintf(w, "window:    %s\n", m.Window())
	fmt.Fprintf(w, "reflector: %s\n", m.Reflector().Name())
	fmt.Fprintf(w, "plugboard: %s\n", plugs)
	fmt.Fprintf(w, "mode:      %s\n", modeName(cfg))
	return nil
}

func settingLetters(settings []int) string {
	var b strings.Builder
	for _, s := range settings {
		b.WriteByte(byte('A' + s - 1))
	}
	return b.String()
}

func modeName(cfg *config.Config) string {
	switch {
	case cfg.Listen:
		return fmt.Sprintf("listen :%d", cfg.LocalPort)
	case cfg.Connecting() && cfg.TunnelEnabled:
		return fmt.Sprintf("connect %s via %s@%s", util.FormatAddr(cfg.Host, cfg.Port), cfg.TunnelUser, cfg.TunnelHost)
	case cfg.Connecting():
		return "connect " + util.FormatAddr(cfg.Host, cfg.Port)
	case cfg.Interactive:
		return "interactive"
	default:
		return "text"
	}
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `Enigma – rotor cipher machine v%s

Usage:
  enigma [options] [text...]                  Encipher text (stdin if none)
  enigma -i [options]                         Typewriter mode
  enigma -l -p <port> [-k] [options]          Cipher service
  enigma -c <host:port> [options]             Use a remote cipher service

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  enigma HELLOWORLD                           Default key: MFNCZBBFZM
  enigma -r IV,V,I -P CIN -u C secret         Choose the key
  enigma -K today.yaml < signal.txt           Key from a key sheet
  enigma -l -p 7474 -k --metrics-addr :9174   Serve with metrics
  echo HELLO | enigma -T kurier@bastion -c cipher:7474
`)
}
