package enigma

import (
	"fmt"
	"strings"

	ncerr "enigma/internal/errors"
)

// Plugboard swaps letter pairs on the way in and on the way out.
// The zero value is not usable; NewPlugboard() with no pairs is the
// identity.
type Plugboard struct {
	mapping [Size]int
	pairs   []string
}

// NewPlugboard connects each two-letter pair, e.g. "AB".  A letter may
// appear in at most one pair and may not be paired with itself.
func NewPlugboard(pairs ...string) (*Plugboard, error) {
	p := &Plugboard{}
	for i := range p.mapping {
		p.mapping[i] = i
	}

	var used [Size]bool
	for _, pair := range pairs {
		up := strings.ToUpper(pair)
		if len(up) != 2 {
			return nil, ncerr.Configf("plugboard", pair, ncerr.ErrInvalidSymbol,
				"pair must be exactly two letters")
		}
		a, okA := Index(rune(up[0]))
		b, okB := Index(rune(up[1]))
		if !okA || !okB {
			return nil, ncerr.Configf("plugboard", pair, ncerr.ErrInvalidSymbol,
				"pair must be exactly two letters")
		}
		if a == b {
			return nil, ncerr.Configf("plugboard", pair, ncerr.ErrSelfMapping,
				"%c cannot be plugged to itself", Letter(a))
		}
		for _, sym := range []int{a, b} {
			if used[sym] {
				return nil, &ncerr.ConfigError{
					Field:   "plugboard",
					Value:   pair,
					Message: fmt.Sprintf("%c is already plugged", Letter(sym)),
					Hint:    "each letter can take part in one pair only",
					Err:     ncerr.ErrPlugConflict,
				}
			}
			used[sym] = true
		}
		p.mapping[a] = b
		p.mapping[b] = a
		p.pairs = append(p.pairs, up)
	}
	return p, nil
}

// ParsePlugboard reads the usual space- or comma-separated notation,
// e.g. "AB CD EF".  An empty string gives the identity board.
func ParsePlugboard(spec string) (*Plugboard, error) {
	fields := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	return NewPlugboard(fields...)
}

// Process swaps sym if it is plugged.
func (p *Plugboard) Process(sym int) int {
	mustSymbol(sym)
	return p.mapping[sym]
}

// Pairs returns the connected pairs in the order they were given.
func (p *Plugboard) Pairs() []string {
	return append([]string(nil), p.pairs...)
}

// String renders the board in "AB CD" notation.
func (p *Plugboard) String() string { return strings.Join(p.pairs, " ") }
