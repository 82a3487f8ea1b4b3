package cbor

import (
	"math"
	"testing"
)

func TestHalfBitsToDoubleBasics(t *testing.T) {
	cases := []struct {
		bits uint16
		want float64
	}{
		{0x0000, 0},
		{0x8000, math.Copysign(0, -1)},
		{0x3C00, 1.0},
		{0xBC00, -1.0},
		{0x7C00, math.Inf(1)},
		{0xFC00, math.Inf(-1)},
	}
	for _, c := range cases {
		got := HalfBitsToDouble(c.bits)
		if math.Signbit(got) != math.Signbit(c.want) || (got != c.want && !(math.IsInf(got, 0) && math.IsInf(c.want, 0))) {
			t.Fatalf("bits %x: got %v want %v", c.bits, got, c.want)
		}
	}
}

func TestHalfBitsToDoubleNaN(t *testing.T) {
	got := HalfBitsToDouble(0x7E00)
	if !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
}

func TestDoubleToHalfBitsExactRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1, -1, 2, 0.5, 100, -100, 65504} {
		bits, ok := DoubleToHalfBitsExact(f)
		if !ok {
			t.Fatalf("%v: expected exact half representation", f)
		}
		if back := HalfBitsToDouble(bits); back != f {
			t.Fatalf("%v: round-trip got %v", f, back)
		}
	}
}

func TestDoubleToHalfBitsExactRejectsLossy(t *testing.T) {
	if _, ok := DoubleToHalfBitsExact(1.0 / 3.0); ok {
		t.Fatal("1/3 is not exactly representable in half precision")
	}
	if _, ok := DoubleToHalfBitsExact(100000); ok {
		t.Fatal("100000 overflows half precision's exponent range")
	}
}

func TestDoubleToHalfBitsExactSubnormal(t *testing.T) {
	// Smallest positive half subnormal: 2^-24.
	f := math.Ldexp(1, -24)
	bits, ok := DoubleToHalfBitsExact(f)
	if !ok || bits != 0x0001 {
		t.Fatalf("got (%x,%v) want (0001,true)", bits, ok)
	}
}
