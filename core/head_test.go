package cbor

import "testing"

func TestHeadRoundTripWidths(t *testing.T) {
	cases := []uint64{0, 23, 24, 255, 256, 65535, 65536, 1<<32 - 1, 1 << 32}
	for _, arg := range cases {
		out := NewOutBuf(make([]byte, 16))
		EncodeHead(out, majorTypeUint, arg, 0)
		if out.Error() != nil {
			t.Fatalf("arg %d: encode error %v", arg, out.Error())
		}
		in := NewInBuf(out.Bytes())
		h, err := DecodeHead(in)
		if err != nil {
			t.Fatalf("arg %d: decode error %v", arg, err)
		}
		if h.Argument != arg {
			t.Fatalf("arg %d: got %d", arg, h.Argument)
		}
		if !in.AtEnd() {
			t.Fatalf("arg %d: trailing bytes after minimal head", arg)
		}
	}
}

func TestHeadMinimalWidthChoice(t *testing.T) {
	cases := []struct {
		arg  uint64
		want int
	}{
		{0, 1}, {23, 1}, {24, 2}, {255, 2}, {256, 3}, {65535, 3}, {65536, 5}, {1<<32 - 1, 5}, {1 << 32, 9},
	}
	for _, c := range cases {
		out := NewOutBuf(make([]byte, 16))
		EncodeHead(out, majorTypeUint, c.arg, 0)
		if out.Position() != c.want {
			t.Fatalf("arg %d: got len %d want %d", c.arg, out.Position(), c.want)
		}
	}
}

func TestDecodeHeadIndefiniteAndBreak(t *testing.T) {
	in := NewInBuf([]byte{makeByte(majorTypeArray, addInfoIndefinite), makeByte(majorTypeSimple, simpleBreak)})
	h, err := DecodeHead(in)
	if err != nil || !h.Indefinite {
		t.Fatalf("got (%+v, %v) want indefinite array", h, err)
	}
	h2, err := DecodeHead(in)
	if err != nil || !h2.IsBreak {
		t.Fatalf("got (%+v, %v) want break", h2, err)
	}
}

func TestDecodeHeadReservedAddInfo(t *testing.T) {
	in := NewInBuf([]byte{makeByte(majorTypeUint, 28)})
	if _, err := DecodeHead(in); err != errUnsupported {
		t.Fatalf("got %v want Unsupported", err)
	}
}
