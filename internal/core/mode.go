// Package core is the orchestration layer.  It composes the machine
// factory, transports and capabilities into complete operational modes
// and provides a builder that selects the right mode from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  capability  →  session  →  core  →  cmd (CLI)
package core

import (
	"context"
	"io"
	"os"
)

// Mode represents a complete operational mode of enigma (text,
// interactive, listen or connect).  Each mode owns its full lifecycle
// from building a machine to teardown.
type Mode interface {
	Run(ctx context.Context) error
}

// WithIO points the local endpoints of mode at stdin and stdout.  Modes
// that only talk to the network are returned unchanged.
func WithIO(mode Mode, stdin io.Reader, stdout io.Writer) Mode {
	switch m := mode.(type) {
	case *TextMode:
		m.Stdin, m.Stdout = stdin, stdout
	case *InteractiveMode:
		m.Stdin, m.Stdout = stdin, stdout
	case *ConnectMode:
		m.Stdin, m.Stdout = stdin, stdout
	}
	return mode
}

func orStdin(r io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return os.Stdin
}

func orStdout(w io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return os.Stdout
}
