package config

import (
	"strings"

	"enigma/enigma"
	ncerr "enigma/internal/errors"
)

// MachineFactory builds a fresh machine at the configured start
// setting.  Machines are single-owner; concurrent sessions each call
// the factory.
type MachineFactory func() (*enigma.Machine, error)

// Factory snapshots the key setting and returns a factory for it.  One
// machine is built up front so wiring and plugboard errors surface
// before any session starts.
func (c *Config) Factory() (MachineFactory, error) {
	snap := keySetting{
		rotors:     append([]string(nil), c.Rotors...),
		positions:  append([]int(nil), c.Positions...),
		rings:      append([]int(nil), c.Rings...),
		reflector:  c.Reflector,
		plugboard:  c.Plugboard,
		rotorDefs:  c.customRotors,
		reflectors: c.customReflectors,
	}
	if _, err := snap.build(); err != nil {
		return nil, err
	}
	return snap.build, nil
}

type keySetting struct {
	rotors     []string
	positions  []int
	rings      []int
	reflector  string
	plugboard  string
	rotorDefs  map[string]RotorDef
	reflectors map[string]ReflectorDef
}

func (k keySetting) build() (*enigma.Machine, error) {
	rotors := make([]*enigma.Rotor, len(k.rotors))
	for i, name := range k.rotors {
		r, err := k.rotor(name, settingAt(k.rings, i), settingAt(k.positions, i))
		if err != nil {
			return nil, err
		}
		rotors[i] = r
	}

	refl, err := k.reflectorFor(k.reflector)
	if err != nil {
		return nil, err
	}

	pb, err := enigma.ParsePlugboard(k.plugboard)
	if err != nil {
		return nil, err
	}
	return enigma.New(rotors, refl, pb)
}

func (k keySetting) rotor(name string, ring, pos int) (*enigma.Rotor, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if d, ok := k.rotorDefs[key]; ok {
		return enigma.NewRotor(key, d.Wiring, d.Notches, ring, pos)
	}
	r, err := enigma.PresetRotor(key, ring, pos)
	if err != nil && len(k.rotorDefs) > 0 {
		var ce *ncerr.ConfigError
		if ncerr.As(err, &ce) {
			ce.Hint += " or a custom rotor from the key sheet"
		}
	}
	return r, err
}

func (k keySetting) reflectorFor(name string) (*enigma.Reflector, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if d, ok := k.reflectors[key]; ok {
		return enigma.NewReflector(key, d.Wiring)
	}
	return enigma.PresetReflector(key)
}

// settingAt returns the i-th setting, or 1 when the list is shorter.
func settingAt(list []int, i int) int {
	if i < len(list) {
		return list[i]
	}
	return 1
}
