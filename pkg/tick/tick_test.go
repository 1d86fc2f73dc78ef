package tick

import (
	"math/big"
	"testing"
)

func TestToTick(t *testing.T) {
	cases := []struct {
		price string
		want  int64
	}{
		{"1", 10000000},
		{"0.0000001", 1},
		{"60000", 600000000000},
		{"1.23456789", 12345679}, // rounds 8th digit
		{"0", 0},
	}
	for _, c := range cases {
		got, err := ToTick(c.price)
		if err != nil {
			t.Fatalf("ToTick(%q) error: %v", c.price, err)
		}
		if got.Int64() != c.want {
			t.Fatalf("ToTick(%q) got=%d want=%d", c.price, got.Int64(), c.want)
		}
	}
}

func TestToTickRejectsNegative(t *testing.T) {
	if _, err := ToTick("-0.5"); err == nil {
		t.Fatal("expected error for negative price")
	}
	if _, err := ToTick("x"); err == nil {
		t.Fatal("expected error for non-numeric price")
	}
}

func TestRoundTripPriceFirst(t *testing.T) {
	// toPrice(toTick(p)) equals p padded to 7 fractional digits
	cases := map[string]string{
		"1.5":        "1.5000000",
		"0.0000001":  "0.0000001",
		"60000":      "60000.0000000",
		"12.3456789": "12.3456789",
	}
	for in, want := range cases {
		tk, err := ToTick(in)
		if err != nil {
			t.Fatalf("ToTick(%q) error: %v", in, err)
		}
		if got := ToPrice(tk); got != want {
			t.Fatalf("ToPrice(ToTick(%q)) got=%q want=%q", in, got, want)
		}
	}
}

func TestRoundTripTickFirst(t *testing.T) {
	for _, v := range []int64{0, 1, 7, 12345679, 600000000000} {
		tk := big.NewInt(v)
		back, err := ToTick(ToPrice(tk))
		if err != nil {
			t.Fatalf("round trip %d error: %v", v, err)
		}
		if back.Cmp(tk) != 0 {
			t.Fatalf("round trip %d got=%s", v, back)
		}
	}
}
