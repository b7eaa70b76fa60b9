package price

import (
	"strconv"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "euro with thousands separator", in: "1.234 €", want: 1234},
		{name: "plain number", in: "450", want: 450},
		{name: "surrounding whitespace", in: "  980 €  ", want: 980},
		{name: "negotiable marker without digits", in: "VB", want: 0},
		{name: "empty string", in: "", want: 0},
		{name: "digits mixed with text", in: "ab1c2d3", want: 123},
		{name: "price with VB suffix", in: "550 € VB", want: 550},
		{name: "zero", in: "0 €", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"1.234 €", "450", "VB", "12a34"}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(strconv.Itoa(once))
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %d != %d", in, once, twice)
		}
	}
}
