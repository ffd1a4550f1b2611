package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"enigma/config"
	"enigma/enigma"
	"enigma/util"
)

// Control keys understood by the typewriter.
const (
	keyInterrupt = 0x03 // ctrl-C
	keyEOF       = 0x04 // ctrl-D
	keyReturn    = '\r'
)

// InteractiveMode turns the terminal into a typewriter: every key press
// steps the machine and the lamp letter is echoed straight away.  When
// stdin is not a terminal it falls back to enciphering line by line.
type InteractiveMode struct {
	Factory config.MachineFactory
	Logger  *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

// Run reads keys until ctrl-C, ctrl-D or end of input.
func (m *InteractiveMode) Run(ctx context.Context) error {
	machine, err := m.Factory()
	if err != nil {
		return err
	}

	in := orStdin(m.Stdin)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("raw terminal: %w", err)
		}
		defer term.Restore(int(f.Fd()), state) //nolint:errcheck

		fmt.Fprintf(orStdout(m.Stdout), "[%s] type to encipher, ctrl-D to quit\r\n", machine.Window())
		return typewriter(ctx, in, orStdout(m.Stdout), machine)
	}

	m.Logger.Verbose("stdin is not a terminal; enciphering line by line")
	return lineMode(ctx, in, orStdout(m.Stdout), machine)
}

// typewriter echoes the lamp for each letter read from r.  Letters are
// shown in groups of five as on a cipher clerk's pad.
func typewriter(ctx context.Context, r io.Reader, w io.Writer, machine *enigma.Machine) error {
	br := bufio.NewReader(r)
	group := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		c, err := br.ReadByte()
		if err == io.EOF {
			_, werr := io.WriteString(w, "\r\n")
			return werr
		}
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}

		var out []byte
		switch {
		case c == keyInterrupt || c == keyEOF:
			_, werr := io.WriteString(w, "\r\n")
			return werr
		case c == keyReturn || c == '\n':
			out = []byte("\r\n")
			group = 0
		default:
			if _, ok := enigma.Index(rune(c)); !ok {
				continue
			}
			if group == 5 {
				out = append(out, ' ')
				group = 0
			}
			out = append(out, machine.EncryptByte(c))
			group++
		}
		if _, err := w.Write(out); err != nil {
			return fmt.Errorf("write lamp: %w", err)
		}
	}
}

// lineMode enciphers each input line and prints it as soon as the line
// is complete.
func lineMode(ctx context.Context, r io.Reader, w io.Writer, machine *enigma.Machine) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := fmt.Fprintln(w, machine.Encrypt(sc.Text())); err != nil {
			return fmt.Errorf("write: %w", err)
		}
	}
	return sc.Err()
}
