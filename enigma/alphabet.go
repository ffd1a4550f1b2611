// Package enigma implements a three-or-more rotor cipher machine with a
// reflector and a plugboard.
//
// Every component works on symbol indices 0..25 (A..Z).  Letters are
// converted only at the edges: [Machine.EncryptChar] and the stream
// adapters accept runes or bytes, the wiring constructors accept
// strings.  A Machine is not safe for concurrent use; build one per
// session.
package enigma

import (
	"fmt"
	"strings"

	ncerr "enigma/internal/errors"
)

// Alphabet is the canonical symbol ordering.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Size is the number of symbols every component permutes.
const Size = len(Alphabet)

// mod normalises n into [0, Size).
func mod(n int) int {
	n %= Size
	if n < 0 {
		n += Size
	}
	return n
}

// wrap normalises a 1-based setting into [1, Size]: 27 → 1, 0 → 26.
func wrap(n int) int {
	return mod(n-1) + 1
}

// Index returns the symbol index of a letter.  Lower-case letters are
// accepted; anything else reports false.
func Index(r rune) (int, bool) {
	switch {
	case r >= 'A' && r <= 'Z':
		return int(r - 'A'), true
	case r >= 'a' && r <= 'z':
		return int(r - 'a'), true
	}
	return 0, false
}

// Letter returns the upper-case letter for a symbol index.
func Letter(sym int) rune {
	mustSymbol(sym)
	return rune('A' + sym)
}

// ValidSymbol reports whether sym is in [0, Size).
func ValidSymbol(sym int) bool { return sym >= 0 && sym < Size }

// mustSymbol panics on an out-of-range index.  Component lookups are
// internal entry points; a bad index there is a caller bug.
func mustSymbol(sym int) {
	if !ValidSymbol(sym) {
		panic(fmt.Sprintf("enigma: symbol %d out of range [0,%d)", sym, Size))
	}
}

// parsePermutation turns a 26-letter wiring string into forward and
// inverse tables.
func parsePermutation(field, wiring string) (fwd, inv [Size]int, err error) {
	w := strings.ToUpper(strings.TrimSpace(wiring))
	if len(w) != Size {
		return fwd, inv, ncerr.Configf(field, wiring, ncerr.ErrNotPermutation,
			"wiring has %d letters, want %d", len(w), Size)
	}
	var seen [Size]bool
	for i := 0; i < Size; i++ {
		sym, ok := Index(rune(w[i]))
		if !ok {
			return fwd, inv, ncerr.Configf(field, wiring, ncerr.ErrInvalidSymbol,
				"wiring contains %q", w[i])
		}
		if seen[sym] {
			return fwd, inv, ncerr.Configf(field, wiring, ncerr.ErrNotPermutation,
				"letter %c appears more than once", w[i])
		}
		seen[sym] = true
		fwd[i] = sym
		inv[sym] = i
	}
	return fwd, inv, nil
}

// letters renders a table back to its wiring string.
func letters(table [Size]int) string {
	var b strings.Builder
	b.Grow(Size)
	for _, sym := range table {
		b.WriteByte(byte('A' + sym))
	}
	return b.String()
}
