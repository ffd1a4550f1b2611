package enigma

import (
	"strings"

	ncerr "enigma/internal/errors"
)

// Rotor is one wheel: a fixed wiring turned to a position, offset by a
// ring setting.  Position and ring setting are 1-based (1 = A).
type Rotor struct {
	name     string
	wiring   [Size]int
	inverse  [Size]int
	notches  []int // symbol indices, ascending
	ring     int
	position int
}

// NewRotor builds a rotor from a 26-letter wiring and one or more notch
// letters.  Ring setting and position are normalised into [1,26].
func NewRotor(name, wiring, notches string, ring, position int) (*Rotor, error) {
	fwd, inv, err := parsePermutation("wiring", wiring)
	if err != nil {
		return nil, err
	}

	var marks [Size]bool
	for _, r := range strings.ToUpper(notches) {
		sym, ok := Index(r)
		if !ok {
			return nil, ncerr.Configf("notch", notches, ncerr.ErrInvalidSymbol,
				"notch %q is not a letter", r)
		}
		marks[sym] = true
	}
	var ns []int
	for sym, on := range marks {
		if on {
			ns = append(ns, sym)
		}
	}
	if len(ns) == 0 {
		return nil, &ncerr.ConfigError{
			Field:   "notch",
			Message: "rotor needs at least one notch",
			Err:     ncerr.ErrInvalidSymbol,
		}
	}

	return &Rotor{
		name:     name,
		wiring:   fwd,
		inverse:  inv,
		notches:  ns,
		ring:     wrap(ring),
		position: wrap(position),
	}, nil
}

// Name returns the label the rotor was built with.
func (r *Rotor) Name() string { return r.name }

// Position returns the current position in [1,26].
func (r *Rotor) Position() int { return r.position }

// SetPosition turns the rotor to p, normalised into [1,26].
func (r *Rotor) SetPosition(p int) { r.position = wrap(p) }

// RingSetting returns the ring offset in [1,26].
func (r *Rotor) RingSetting() int { return r.ring }

// SetRingSetting sets the ring offset, normalised into [1,26].
func (r *Rotor) SetRingSetting(s int) { r.ring = wrap(s) }

// Wiring returns the forward wiring as letters.
func (r *Rotor) Wiring() string { return letters(r.wiring) }

// Notches returns the turnover letters.
func (r *Rotor) Notches() string {
	var b strings.Builder
	for _, sym := range r.notches {
		b.WriteRune(Letter(sym))
	}
	return b.String()
}

// Window returns the letter showing in the machine window.
func (r *Rotor) Window() rune { return Letter(r.position - 1) }

// Rotate advances one step and reports whether the rotor has just
// arrived on a notch, meaning its left neighbour moves too.
func (r *Rotor) Rotate() bool {
	r.position = r.position%Size + 1
	return r.atNotch(r.position)
}

// PastNotch reports whether the rotor sits exactly one step beyond one
// of its notches.
func (r *Rotor) PastNotch() bool {
	for _, n := range r.notches {
		if r.position == (n+1)%Size+1 {
			return true
		}
	}
	return false
}

func (r *Rotor) atNotch(pos int) bool {
	for _, n := range r.notches {
		if pos == n+1 {
			return true
		}
	}
	return false
}

// Forward maps a contact on the entry side through the wiring.
func (r *Rotor) Forward(sym int) int {
	mustSymbol(sym)
	shift := r.position - r.ring
	return mod(r.wiring[mod(sym+shift)] - shift)
}

// Backward maps a contact on the reflector side back through the
// wiring.  Backward(Forward(x)) == x for every setting.
func (r *Rotor) Backward(sym int) int {
	mustSymbol(sym)
	shift := r.position - r.ring
	return mod(r.inverse[mod(sym+shift)] - shift)
}
