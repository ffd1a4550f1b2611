package enigma

import ncerr "enigma/internal/errors"

// Reflector sends the signal back through the rotors.  Its wiring is a
// fixed-point-free involution, which is what makes the cipher
// reciprocal.
type Reflector struct {
	name   string
	wiring [Size]int
}

// NewReflector validates wiring and builds a Reflector.
func NewReflector(name, wiring string) (*Reflector, error) {
	fwd, _, err := parsePermutation("reflector", wiring)
	if err != nil {
		return nil, err
	}
	for i, sym := range fwd {
		if sym == i {
			return nil, ncerr.Configf("reflector", wiring, ncerr.ErrSelfMapping,
				"%c is wired to itself", Letter(i))
		}
		if fwd[sym] != i {
			return nil, ncerr.Configf("reflector", wiring, ncerr.ErrNotInvolution,
				"%c→%c but %c→%c", Letter(i), Letter(sym), Letter(sym), Letter(fwd[sym]))
		}
	}
	return &Reflector{name: name, wiring: fwd}, nil
}

// Name returns the label the reflector was built with.
func (f *Reflector) Name() string { return f.name }

// Wiring returns the wiring as letters.
func (f *Reflector) Wiring() string { return letters(f.wiring) }

// Reflect looks sym up in the wiring.
func (f *Reflector) Reflect(sym int) int {
	mustSymbol(sym)
	return f.wiring[sym]
}
