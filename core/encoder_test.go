package cbor

import "testing"

func TestEncoderFlatArray(t *testing.T) {
	e := NewEncoder(make([]byte, 32), 0)
	e.OpenArray()
	e.AddUint64(1)
	e.AddUint64(2)
	e.AddUint64(3)
	e.CloseArray()
	got, _, err := e.Finish()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x83, 0x01, 0x02, 0x03}
	if string(got) != string(want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

func TestEncoderBstrWrapGrowsHead(t *testing.T) {
	// Mirrors the seed scenario: open_array; add_u64 451; bstr_wrap_open;
	// add_u64 466; bstr_wrap_close; close_array; finish.
	e := NewEncoder(make([]byte, 32), 0)
	e.OpenArray()
	e.AddUint64(451)
	e.BstrWrapOpen()
	e.AddUint64(466)
	e.BstrWrapClose()
	e.CloseArray()
	got, _, err := e.Finish()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x82, 0x19, 0x01, 0xC3, 0x43, 0x19, 0x01, 0xD2}
	if string(got) != string(want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

func TestEncoderMapPairCount(t *testing.T) {
	e := NewEncoder(make([]byte, 32), 0)
	e.OpenMap()
	e.AddText("a")
	e.AddUint64(1)
	e.AddText("b")
	e.AddUint64(2)
	e.CloseMap()
	got, _, err := e.Finish()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xA2, 0x61, 'a', 0x01, 0x61, 'b', 0x02}
	if string(got) != string(want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

func TestEncoderFinishRejectsOpenContainer(t *testing.T) {
	e := NewEncoder(make([]byte, 32), 0)
	e.OpenArray()
	if _, _, err := e.Finish(); err != errArrayOrMapStillOpen {
		t.Fatalf("got %v want ArrayOrMapStillOpen", err)
	}
}

func TestEncoderCloseMismatch(t *testing.T) {
	e := NewEncoder(make([]byte, 32), 0)
	e.OpenArray()
	e.CloseMap()
	if e.Error() != errCloseMismatch {
		t.Fatalf("got %v want CloseMismatch", e.Error())
	}
}

func TestEncoderSizeCalcMode(t *testing.T) {
	sizer := NewEncoder(nil, 0)
	sizer.OpenArray()
	sizer.AddUint64(451)
	sizer.CloseArray()
	n, err := sizer.FinishGetSize()
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("got size %d want 4", n)
	}
}

func TestEncoderFloatCanonicalPicksNarrowestWidth(t *testing.T) {
	e := NewEncoder(make([]byte, 16), 0)
	e.AddFloatCanonical(1.0)
	got, _, err := e.Finish()
	if err != nil {
		t.Fatal(err)
	}
	// 1.0 is exactly representable in half: 0xF9 0x3C 0x00.
	want := []byte{0xF9, 0x3C, 0x00}
	if string(got) != string(want) {
		t.Fatalf("got % x want % x", got, want)
	}
}

func TestEncoderStickyErrorShortCircuits(t *testing.T) {
	e := NewEncoder(make([]byte, 1), 0)
	e.AddBytes([]byte{1, 2, 3, 4})
	if e.Error() == nil {
		t.Fatal("expected BufferTooSmall")
	}
	e.AddUint64(5) // must be a no-op once the sticky error is set
	if _, _, err := e.Finish(); err == nil {
		t.Fatal("expected the sticky error to surface from Finish")
	}
}
