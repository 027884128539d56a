package tempo

import (
	"errors"
	"math/big"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals uint8
		want     string
		wantErr  bool
	}{
		{"whole amount", "10", 6, "10000000", false},
		{"fractional amount", "1.5", 6, "1500000", false},
		{"full precision", "0.000001", 6, "1", false},
		{"surrounding whitespace", " 2.25 ", 6, "2250000", false},
		{"zero decimals token", "42", 0, "42", false},
		{"zero", "0", 6, "", true},
		{"negative", "-1", 6, "", true},
		{"empty", "", 6, "", true},
		{"not a number", "ten", 6, "", true},
		{"beyond precision", "0.0000001", 6, "", true},
		{"fraction on zero decimals", "1.5", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.amount, tt.decimals)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("error should wrap ErrInvalidAmount, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got.String(), tt.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		units    *big.Int
		decimals uint8
		want     string
	}{
		{"whole", big.NewInt(10000000), 6, "10"},
		{"fractional", big.NewInt(1500000), 6, "1.5"},
		{"smallest unit", big.NewInt(1), 6, "0.000001"},
		{"nil", nil, 6, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAmount(tt.units, tt.decimals); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAbbreviateAmount(t *testing.T) {
	tests := []struct {
		name     string
		units    *big.Int
		decimals uint8
		want     string
	}{
		{"zero", big.NewInt(0), 6, "0.00"},
		{"nil", nil, 6, "0.00"},
		{"small", big.NewInt(12_345_678), 6, "12.35"},
		{"just under a thousand", big.NewInt(999_990_000), 6, "999.99"},
		{"thousands", big.NewInt(1_500_000_000), 6, "1.50K"},
		{"millions", big.NewInt(2_250_000_000_000), 6, "2.25M"},
		{"exactly a million", big.NewInt(1_000_000_000_000), 6, "1.00M"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AbbreviateAmount(tt.units, tt.decimals); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// Parse then format must round-trip exactly; the abbreviated display is the
// only lossy path.
func TestParseFormatRoundTrip(t *testing.T) {
	for _, amount := range []string{"1.5", "0.000001", "1000000", "123.456789"} {
		units, err := ParseAmount(amount, 6)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", amount, err)
		}
		back, err := ParseAmount(FormatAmount(units, 6), 6)
		if err != nil {
			t.Fatalf("re-parse of %q: %v", amount, err)
		}
		if units.Cmp(back) != 0 {
			t.Errorf("round trip of %q: %s != %s", amount, units, back)
		}
	}
}
