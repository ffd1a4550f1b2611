package enigma

import (
	"testing"

	ncerr "enigma/internal/errors"
)

const wiringI = "EKMFLGDQVZNTOWYHXUSPAIBRCJ"

func mustRotor(t testing.TB, wiring, notch string, ring, pos int) *Rotor {
	t.Helper()
	r, err := NewRotor("test", wiring, notch, ring, pos)
	if err != nil {
		t.Fatalf("NewRotor: %v", err)
	}
	return r
}

func sym(r rune) int {
	i, _ := Index(r)
	return i
}

// ── construction ─────────────────────────────────────────────────────

func TestNewRotor_Defaults(t *testing.T) {
	r := mustRotor(t, wiringI, "Q", 1, 1)
	if r.Position() != 1 {
		t.Errorf("position = %d, want 1", r.Position())
	}
	if r.RingSetting() != 1 {
		t.Errorf("ring = %d, want 1", r.RingSetting())
	}
	if r.Wiring() != wiringI {
		t.Errorf("wiring = %q", r.Wiring())
	}
	if r.Notches() != "Q" {
		t.Errorf("notches = %q", r.Notches())
	}
	if r.Window() != 'A' {
		t.Errorf("window = %c, want A", r.Window())
	}
}

func TestNewRotor_Normalises(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{1, 1}, {26, 26}, {27, 1}, {0, 26}, {-1, 25}, {53, 1},
	}
	for _, tt := range tests {
		r := mustRotor(t, wiringI, "Q", tt.in, tt.in)
		if r.Position() != tt.want || r.RingSetting() != tt.want {
			t.Errorf("in %d: position=%d ring=%d, want %d",
				tt.in, r.Position(), r.RingSetting(), tt.want)
		}
	}
}

func TestNewRotor_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		wiring string
		notch  string
		want   error
	}{
		{"short", "ABC", "Q", ncerr.ErrNotPermutation},
		{"duplicate", "AAMFLGDQVZNTOWYHXUSPEIBRCJ", "Q", ncerr.ErrNotPermutation},
		{"digit", "1KMFLGDQVZNTOWYHXUSPAIBRCJ", "Q", ncerr.ErrInvalidSymbol},
		{"bad notch", wiringI, "?", ncerr.ErrInvalidSymbol},
		{"no notch", wiringI, "", ncerr.ErrInvalidSymbol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRotor("x", tt.wiring, tt.notch, 1, 1)
			if !ncerr.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewRotor_LowerCaseAndMultiNotch(t *testing.T) {
	r := mustRotor(t, "jpgvoumfyqbenhzrdkasxlictw", "zm", 1, 1)
	if r.Notches() != "MZ" {
		t.Errorf("notches = %q, want MZ", r.Notches())
	}
	if r.Wiring() != "JPGVOUMFYQBENHZRDKASXLICTW" {
		t.Errorf("wiring = %q", r.Wiring())
	}
}

// ── stepping ─────────────────────────────────────────────────────────

func TestRotor_RotateWraps(t *testing.T) {
	r := mustRotor(t, wiringI, "Q", 1, 1)
	r.Rotate()
	if r.Position() != 2 {
		t.Fatalf("position = %d, want 2", r.Position())
	}
	for i := 0; i < 24; i++ {
		r.Rotate()
	}
	if r.Position() != 26 {
		t.Fatalf("position = %d, want 26", r.Position())
	}
	r.Rotate()
	if r.Position() != 1 {
		t.Fatalf("position = %d, want 1 after wrap", r.Position())
	}
}

func TestRotor_RotateSignalsNotch(t *testing.T) {
	r := mustRotor(t, wiringI, "Q", 1, 1)
	hits := 0
	for i := 1; i <= 26; i++ {
		if r.Rotate() {
			hits++
			if r.Position() != 17 {
				t.Errorf("turnover at position %d, want 17 (Q)", r.Position())
			}
		}
	}
	if hits != 1 {
		t.Errorf("turnovers per revolution = %d, want 1", hits)
	}
}

func TestRotor_RotateMultiNotch(t *testing.T) {
	r := mustRotor(t, wiringI, "ZM", 1, 1)
	var at []int
	for i := 0; i < 26; i++ {
		if r.Rotate() {
			at = append(at, r.Position())
		}
	}
	if len(at) != 2 || at[0] != 13 || at[1] != 26 {
		t.Errorf("turnovers at %v, want [13 26]", at)
	}
}

func TestRotor_PastNotch(t *testing.T) {
	tests := []struct {
		notch string
		pos   int
		want  bool
	}{
		{"Q", 17, false},
		{"Q", 18, true},
		{"E", 6, true},
		{"Z", 1, true},  // wraps past 26
		{"Y", 26, true}, // one past Y is Z
		{"Z", 26, false},
	}
	for _, tt := range tests {
		r := mustRotor(t, wiringI, tt.notch, 1, tt.pos)
		if got := r.PastNotch(); got != tt.want {
			t.Errorf("notch %s pos %d: PastNotch = %v, want %v", tt.notch, tt.pos, got, tt.want)
		}
	}
}

// ── mapping ──────────────────────────────────────────────────────────

func TestRotor_Forward(t *testing.T) {
	r := mustRotor(t, wiringI, "Q", 1, 1)
	for in, want := range map[rune]rune{'A': 'E', 'B': 'K', 'C': 'M'} {
		if got := Letter(r.Forward(sym(in))); got != want {
			t.Errorf("Forward(%c) = %c, want %c", in, got, want)
		}
	}
}

func TestRotor_Backward(t *testing.T) {
	r := mustRotor(t, wiringI, "Q", 1, 1)
	for in, want := range map[rune]rune{'E': 'A', 'K': 'B', 'M': 'C'} {
		if got := Letter(r.Backward(sym(in))); got != want {
			t.Errorf("Backward(%c) = %c, want %c", in, got, want)
		}
	}
}

func TestRotor_RingSetting(t *testing.T) {
	r := mustRotor(t, wiringI, "Q", 2, 1)
	if got := Letter(r.Forward(sym('A'))); got != 'K' {
		t.Errorf("Forward(A) = %c, want K", got)
	}
	if got := Letter(r.Backward(sym('J'))); got != 'W' {
		t.Errorf("Backward(J) = %c, want W", got)
	}
}

func TestRotor_PositionAndRingCancel(t *testing.T) {
	// Equal position and ring shift cancel: the rotor behaves like AA.
	a := mustRotor(t, wiringI, "Q", 1, 1)
	b := mustRotor(t, wiringI, "Q", 7, 7)
	for s := 0; s < Size; s++ {
		if a.Forward(s) != b.Forward(s) {
			t.Fatalf("Forward(%d) differs: %d vs %d", s, a.Forward(s), b.Forward(s))
		}
	}
}

func TestRotor_InverseLawExhaustive(t *testing.T) {
	r := mustRotor(t, wiringI, "Q", 1, 1)
	for ring := 1; ring <= Size; ring++ {
		for pos := 1; pos <= Size; pos++ {
			r.SetRingSetting(ring)
			r.SetPosition(pos)
			for s := 0; s < Size; s++ {
				if got := r.Backward(r.Forward(s)); got != s {
					t.Fatalf("ring %d pos %d: Backward(Forward(%d)) = %d", ring, pos, s, got)
				}
				if got := r.Forward(r.Backward(s)); got != s {
					t.Fatalf("ring %d pos %d: Forward(Backward(%d)) = %d", ring, pos, s, got)
				}
			}
		}
	}
}

func TestRotor_OutOfRangePanics(t *testing.T) {
	r := mustRotor(t, wiringI, "Q", 1, 1)
	for _, s := range []int{-1, Size, 100} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Forward(%d) should panic", s)
				}
			}()
			r.Forward(s)
		}()
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Backward(%d) should panic", s)
				}
			}()
			r.Backward(s)
		}()
	}
}
