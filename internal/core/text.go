package core

import (
	"context"
	"fmt"
	"io"
	"strings"

	"enigma/config"
	"enigma/enigma"
	"enigma/util"
)

// TextMode enciphers the words given on the command line, or standard
// input when there are none, and writes the result to standard output.
type TextMode struct {
	Factory config.MachineFactory
	Text    []string
	Logger  *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

// Run builds one machine and feeds it the whole message.
func (m *TextMode) Run(ctx context.Context) error {
	machine, err := m.Factory()
	if err != nil {
		return err
	}
	m.Logger.Verbose("start window %s", machine.Window())

	if len(m.Text) > 0 {
		out := machine.Encrypt(strings.Join(m.Text, " "))
		if _, err := fmt.Fprintln(orStdout(m.Stdout), out); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		m.Logger.Verbose("end window %s", machine.Window())
		return nil
	}

	buf := util.GetBuf()
	defer util.PutBuf(buf)

	w := enigma.NewWriter(orStdout(m.Stdout), machine)
	n, err := io.CopyBuffer(w, ctxReader{ctx: ctx, r: orStdin(m.Stdin)}, *buf)
	if err != nil {
		return fmt.Errorf("encipher stdin: %w", err)
	}
	m.Logger.Verbose("enciphered %d bytes, end window %s", n, machine.Window())
	return nil
}

// ctxReader stops a copy at the next read once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
