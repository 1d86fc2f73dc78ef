package fixedpoint

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
)

func TestParse(t *testing.T) {
	cases := []struct {
		raw      string
		decimals uint8
		want     string
	}{
		{"100", 6, "100000000"},
		{"0.5", 6, "500000"},
		{"0", 6, "0"},
		{"1.2345678", 6, "1234567"}, // beyond precision truncates
		{" 42 ", 2, "4200"},
	}
	for _, c := range cases {
		got, err := Parse(c.raw, c.decimals)
		if err != nil {
			t.Fatalf("Parse(%q, %d) error: %v", c.raw, c.decimals, err)
		}
		if got.String() != c.want {
			t.Fatalf("Parse(%q, %d) got=%s want=%s", c.raw, c.decimals, got, c.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	for _, raw := range []string{"", "  ", "abc", "-1", "-0.001", "1..2"} {
		_, err := Parse(raw, 6)
		if !errors.Is(err, ErrParse) {
			t.Fatalf("Parse(%q) expected ErrParse, got %v", raw, err)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, raw := range []string{"100.000000", "0.000001", "0.000000", "12345.678901"} {
		scaled, err := Parse(raw, 6)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", raw, err)
		}
		if got := Format(scaled, 6); got != raw {
			t.Fatalf("round trip %q -> %q", raw, got)
		}
	}
}

func TestValidate(t *testing.T) {
	avail := big.NewInt(100_000000)
	min := big.NewInt(10_000000)

	if got := Validate(big.NewInt(50_000000), avail, nil); got != Ok {
		t.Fatalf("got %v want Ok", got)
	}
	if got := Validate(big.NewInt(100_000001), avail, nil); got != InsufficientBalance {
		t.Fatalf("got %v want InsufficientBalance", got)
	}
	if got := Validate(big.NewInt(5_000000), avail, min); got != BelowMinimum {
		t.Fatalf("got %v want BelowMinimum", got)
	}
	// at exactly the minimum is fine
	if got := Validate(min, avail, min); got != Ok {
		t.Fatalf("got %v want Ok at minimum", got)
	}
	// insufficient wins over below-minimum
	if got := Validate(big.NewInt(200_000000), avail, min); got != InsufficientBalance {
		t.Fatalf("got %v want InsufficientBalance", got)
	}
}
