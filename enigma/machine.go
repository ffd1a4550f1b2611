package enigma

import (
	"strings"

	ncerr "enigma/internal/errors"
)

// Machine wires rotors, a reflector and a plugboard together.  Rotors
// are ordered left to right as the operator sees them; the rightmost
// one moves on every key press.
type Machine struct {
	rotors    []*Rotor
	reflector *Reflector
	plugboard *Plugboard
}

// New assembles a Machine.  A nil plugboard means no plugs.  The
// machine takes ownership of its components: the same *Rotor may not
// be mounted twice, and callers should not keep using them elsewhere.
func New(rotors []*Rotor, reflector *Reflector, plugboard *Plugboard) (*Machine, error) {
	if len(rotors) == 0 {
		return nil, ncerr.Config("rotors", nil, ncerr.ErrNoRotors)
	}
	if reflector == nil {
		return nil, ncerr.Config("reflector", nil, ncerr.ErrNoReflector)
	}
	seen := make(map[*Rotor]bool, len(rotors))
	for i, r := range rotors {
		if r == nil {
			return nil, ncerr.Configf("rotors", i, ncerr.ErrNoRotors, "rotor %d is nil", i)
		}
		if seen[r] {
			return nil, ncerr.Configf("rotors", r.Name(), ncerr.ErrAliasedRotor,
				"rotor %d is the same instance as an earlier slot", i)
		}
		seen[r] = true
	}
	if plugboard == nil {
		plugboard, _ = NewPlugboard()
	}
	return &Machine{
		rotors:    append([]*Rotor(nil), rotors...),
		reflector: reflector,
		plugboard: plugboard,
	}, nil
}

// Rotors returns the mounted rotors, leftmost first.
func (m *Machine) Rotors() []*Rotor { return append([]*Rotor(nil), m.rotors...) }

// Reflector returns the mounted reflector.
func (m *Machine) Reflector() *Reflector { return m.reflector }

// Plugboard returns the plugboard.
func (m *Machine) Plugboard() *Plugboard { return m.plugboard }

// SetRotorPositions sets positions left to right.  A shorter list only
// updates the leading rotors; extra values are ignored.
func (m *Machine) SetRotorPositions(positions []int) {
	for i, p := range positions {
		if i >= len(m.rotors) {
			break
		}
		m.rotors[i].SetPosition(p)
	}
}

// SetRingSettings sets ring offsets left to right, with the same prefix
// rule as SetRotorPositions.
func (m *Machine) SetRingSettings(settings []int) {
	for i, s := range settings {
		if i >= len(m.rotors) {
			break
		}
		m.rotors[i].SetRingSetting(s)
	}
}

// Positions returns the current positions, leftmost first.
func (m *Machine) Positions() []int {
	out := make([]int, len(m.rotors))
	for i, r := range m.rotors {
		out[i] = r.Position()
	}
	return out
}

// RingSettings returns the ring offsets, leftmost first.
func (m *Machine) RingSettings() []int {
	out := make([]int, len(m.rotors))
	for i, r := range m.rotors {
		out[i] = r.RingSetting()
	}
	return out
}

// Window returns the letters currently showing, e.g. "AEV".
func (m *Machine) Window() string {
	var b strings.Builder
	for _, r := range m.rotors {
		b.WriteRune(r.Window())
	}
	return b.String()
}

// step moves the rotors for one key press.  Carry runs right to left
// and stops at the first rotor that does not trip its neighbour.  The
// second rotor from the right also carries when it has just moved one
// past its own notch, which makes it step on two presses in a row.
func (m *Machine) step() {
	last := len(m.rotors) - 1
	advance := m.rotors[last].Rotate()
	for i := last - 1; i >= 0; i-- {
		if !advance {
			return
		}
		advance = m.rotors[i].Rotate()
		if i == last-1 && m.rotors[i].PastNotch() {
			advance = true
		}
	}
}

// encipher runs a symbol through the wiring without stepping.
func (m *Machine) encipher(sym int) int {
	sym = m.plugboard.Process(sym)
	for i := len(m.rotors) - 1; i >= 0; i-- {
		sym = m.rotors[i].Forward(sym)
	}
	sym = m.reflector.Reflect(sym)
	for _, r := range m.rotors {
		sym = r.Backward(sym)
	}
	return m.plugboard.Process(sym)
}

// EncryptChar presses one key.  Letters (either case) step the rotors
// and come back upper-case; anything else is returned as is and leaves
// the rotors alone.
func (m *Machine) EncryptChar(r rune) rune {
	sym, ok := Index(r)
	if !ok {
		return r
	}
	m.step()
	return Letter(m.encipher(sym))
}

// EncryptByte is EncryptChar for a single byte of ASCII text.
func (m *Machine) EncryptByte(c byte) byte {
	sym, ok := Index(rune(c))
	if !ok {
		return c
	}
	m.step()
	return byte('A' + m.encipher(sym))
}

// Encrypt enciphers text in order.  Decryption is the same call made
// from the same starting positions.
func (m *Machine) Encrypt(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		b.WriteRune(m.EncryptChar(r))
	}
	return b.String()
}
