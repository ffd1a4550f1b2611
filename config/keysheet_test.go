package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	ncerr "enigma/internal/errors"
)

const sampleSheet = `
name: 1944-06-06
rotors: [iii, VI, I]
positions: AAA
rings: [1, 1, 1]
reflector: b
plugboard: ""
custom_rotors:
  - name: VI
    wiring: JPGVOUMFYQBENHZRDKASXLICTW
    notches: ZM
`

// ── parsing ──────────────────────────────────────────────────────────

func TestParseKeySheet(t *testing.T) {
	ks, err := ParseKeySheet([]byte(sampleSheet))
	if err != nil {
		t.Fatalf("ParseKeySheet: %v", err)
	}
	if ks.Name != "1944-06-06" {
		t.Errorf("Name = %q", ks.Name)
	}
	if len(ks.Rotors) != 3 || len(ks.CustomRotors) != 1 {
		t.Fatalf("Rotors = %v, CustomRotors = %v", ks.Rotors, ks.CustomRotors)
	}
	if len(ks.Positions) != 3 || ks.Positions[0] != 1 {
		t.Errorf("Positions = %v", ks.Positions)
	}
}

func TestParseKeySheet_SettingForms(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []int
	}{
		{"letters", "positions: AEV", []int{1, 5, 22}},
		{"number string", `positions: "1,5,22"`, []int{1, 5, 22}},
		{"sequence", "positions: [1, 5, 22]", []int{1, 5, 22}},
		{"single number", "positions: 7", []int{7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ks, err := ParseKeySheet([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("ParseKeySheet: %v", err)
			}
			if len(ks.Positions) != len(tt.want) {
				t.Fatalf("Positions = %v, want %v", ks.Positions, tt.want)
			}
			for i := range tt.want {
				if ks.Positions[i] != tt.want[i] {
					t.Errorf("Positions = %v, want %v", ks.Positions, tt.want)
				}
			}
		})
	}
}

func TestParseKeySheet_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantSub string
	}{
		{"not yaml", "rotors: [", "keysheet"},
		{"position out of range", "positions: [1, 27]", "must not exceed 26"},
		{"position zero", "rings: [0]", "must be at least 1"},
		{"bad setting string", "positions: A-B", "not a setting"},
		{"short wiring", "custom_rotors:\n  - {name: X, wiring: ABC, notches: A}", "exactly 26 letters"},
		{"digit in wiring", "custom_reflectors:\n  - {name: T, wiring: YRUHQSLDPXNGOKMIEBFZCWVJA1}", "only letters"},
		{"missing notches", "custom_rotors:\n  - {name: X, wiring: JPGVOUMFYQBENHZRDKASXLICTW}", "Notches: field is required"},
		{"missing name", "custom_rotors:\n  - {wiring: JPGVOUMFYQBENHZRDKASXLICTW, notches: Z}", "Name: field is required"},
		{"duplicate custom rotor", "custom_rotors:\n  - {name: X, wiring: JPGVOUMFYQBENHZRDKASXLICTW, notches: Z}\n  - {name: x, wiring: JPGVOUMFYQBENHZRDKASXLICTW, notches: Z}", "defined twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseKeySheet([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !ncerr.IsConfig(err) {
				t.Errorf("expected *ConfigError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestLoadKeySheet_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "today.yaml")
	if err := os.WriteFile(path, []byte(sampleSheet), 0o600); err != nil {
		t.Fatal(err)
	}
	ks, err := LoadKeySheet(path)
	if err != nil {
		t.Fatalf("LoadKeySheet: %v", err)
	}
	if ks.Reflector != "b" {
		t.Errorf("Reflector = %q", ks.Reflector)
	}

	if _, err := LoadKeySheet(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// ── precedence ───────────────────────────────────────────────────────

func TestApplyKeySheet_FillsUnsetOnly(t *testing.T) {
	ks := &KeySheet{
		Rotors:    []string{"iii", "VI", "I"},
		Positions: Settings{1, 5, 22},
		Reflector: "b",
		Plugboard: "AB CD",
	}

	cfg := &Config{Reflector: "C", Positions: []int{2, 2, 2}}
	cfg.ApplyKeySheet(ks)

	if strings.Join(cfg.Rotors, ",") != "III,VI,I" {
		t.Errorf("Rotors = %v", cfg.Rotors)
	}
	if cfg.Reflector != "C" {
		t.Errorf("Reflector = %q, the configured value must win", cfg.Reflector)
	}
	if cfg.Positions[1] != 2 {
		t.Errorf("Positions = %v, the configured value must win", cfg.Positions)
	}
	if cfg.Plugboard != "AB CD" {
		t.Errorf("Plugboard = %q", cfg.Plugboard)
	}
}
