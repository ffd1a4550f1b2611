package enigma

import (
	"sort"
	"strings"

	ncerr "enigma/internal/errors"
)

type rotorSpec struct {
	wiring string
	notch  string
}

// Historical wheel and reflector wirings.  These strings must stay
// byte-for-byte identical to other simulators for messages to
// interoperate.
var rotorPresets = map[string]rotorSpec{ //nolint:gochecknoglobals
	"I":   {"EKMFLGDQVZNTOWYHXUSPAIBRCJ", "Q"},
	"II":  {"AJDKSIRUXBLHWTMCQGZNPYFVOE", "E"},
	"III": {"BDFHJLCPRTXVZNYEIWGAKMUSQO", "V"},
	"IV":  {"ESOVPZJAYQUIRHXLNFTGKDCMWB", "J"},
	"V":   {"VZBRGITYUPSDNHLXAWMJQOFECK", "Z"},
}

var reflectorPresets = map[string]string{ //nolint:gochecknoglobals
	"A": "EJMZALYXVBWFCRQUONTSPIKHGD",
	"B": "YRUHQSLDPXNGOKMIEBFZCWVJAT",
	"C": "FVPJIAOYEDRZXWGCTKUQSBNMHL",
}

// PresetRotor returns a fresh rotor of the named type (I–V).
func PresetRotor(name string, ring, position int) (*Rotor, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	spec, ok := rotorPresets[key]
	if !ok {
		return nil, &ncerr.ConfigError{
			Field:   "rotors",
			Value:   name,
			Message: ncerr.ErrUnknownPreset.Error(),
			Hint:    "choose from " + strings.Join(RotorNames(), ", "),
			Err:     ncerr.ErrUnknownPreset,
		}
	}
	return NewRotor(key, spec.wiring, spec.notch, ring, position)
}

// PresetReflector returns the named reflector (A, B or C).
func PresetReflector(name string) (*Reflector, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	wiring, ok := reflectorPresets[key]
	if !ok {
		return nil, &ncerr.ConfigError{
			Field:   "reflector",
			Value:   name,
			Message: ncerr.ErrUnknownPreset.Error(),
			Hint:    "choose from " + strings.Join(ReflectorNames(), ", "),
			Err:     ncerr.ErrUnknownPreset,
		}
	}
	return NewReflector(key, wiring)
}

// RotorNames lists the preset rotor names in roman-numeral order.
func RotorNames() []string {
	return sortedKeys(rotorPresets, func(a, b string) bool {
		return romanValue(a) < romanValue(b)
	})
}

// ReflectorNames lists the preset reflector names.
func ReflectorNames() []string {
	return sortedKeys(reflectorPresets, func(a, b string) bool { return a < b })
}

func sortedKeys[V any](m map[string]V, less func(a, b string) bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func romanValue(s string) int {
	vals := map[byte]int{'I': 1, 'V': 5, 'X': 10}
	total := 0
	for i := 0; i < len(s); i++ {
		v := vals[s[i]]
		if i+1 < len(s) && vals[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total
}
