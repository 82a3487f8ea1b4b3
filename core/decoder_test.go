package cbor

import "testing"

func encodeFixture(t *testing.T, build func(e *Encoder)) []byte {
	t.Helper()
	e := NewEncoder(make([]byte, 256), 0)
	build(e)
	got, _, err := e.Finish()
	if err != nil {
		t.Fatalf("fixture encode failed: %v", err)
	}
	return got
}

func TestDecoderFlatArray(t *testing.T) {
	buf := encodeFixture(t, func(e *Encoder) {
		e.OpenArray()
		e.AddUint64(1)
		e.AddUint64(2)
		e.AddUint64(3)
		e.CloseArray()
	})
	d := NewDecoder(buf, DecodeModeNormal, 0)

	arr, err := d.GetNext()
	if err != nil || arr.DataType != ItemArray || arr.Count != 3 || arr.NestingLevel != 0 || arr.NextNestingLevel != 1 {
		t.Fatalf("got %+v, %v", arr, err)
	}
	for i := int64(1); i <= 3; i++ {
		it, err := d.GetNext()
		if err != nil || it.DataType != ItemInt64 || it.Int64 != i || it.NestingLevel != 1 {
			t.Fatalf("item %d: got %+v, %v", i, it, err)
		}
	}
	// Finish confirms the third element's cascade closed the array back to depth 0.
	if err := d.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestDecoderIndefiniteArrayNestingCascade(t *testing.T) {
	e := NewEncoder(make([]byte, 32), 0)
	e.out.AppendByte(makeByte(majorTypeArray, addInfoIndefinite))
	e.AddUint64(1)
	e.AddUint64(2)
	e.out.AppendByte(makeByte(majorTypeSimple, simpleBreak))
	buf, _, err := e.Finish()
	if err != nil {
		t.Fatal(err)
	}

	d := NewDecoder(buf, DecodeModeNormal, 0)
	arr, err := d.GetNext()
	if err != nil || !arr.Indefinite || arr.NextNestingLevel != 1 {
		t.Fatalf("got %+v, %v", arr, err)
	}
	it1, _ := d.GetNext()
	if it1.Int64 != 1 || it1.NextNestingLevel != 1 {
		t.Fatalf("got %+v", it1)
	}
	it2, err := d.GetNext()
	if err != nil || it2.Int64 != 2 || it2.NextNestingLevel != 0 {
		t.Fatalf("got %+v, %v want nesting dropping to 0", it2, err)
	}
	if err := d.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestDecoderMapLabelPairing(t *testing.T) {
	buf := encodeFixture(t, func(e *Encoder) {
		e.OpenMap()
		e.AddText("a")
		e.AddUint64(1)
		e.AddText("b")
		e.AddUint64(2)
		e.CloseMap()
	})
	d := NewDecoder(buf, DecodeModeNormal, 0)
	m, err := d.GetNext()
	if err != nil || m.DataType != ItemMap || m.Count != 2 {
		t.Fatalf("got %+v, %v", m, err)
	}
	v1, err := d.GetNext()
	if err != nil || v1.LabelType != LabelTextString || v1.LabelText != "a" || v1.Int64 != 1 {
		t.Fatalf("got %+v, %v", v1, err)
	}
	v2, err := d.GetNext()
	if err != nil || v2.LabelType != LabelTextString || v2.LabelText != "b" || v2.Int64 != 2 {
		t.Fatalf("got %+v, %v", v2, err)
	}
	if err := d.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestDecoderMapAsArrayMode(t *testing.T) {
	buf := encodeFixture(t, func(e *Encoder) {
		e.OpenMap()
		e.AddText("a")
		e.AddUint64(1)
		e.CloseMap()
	})
	d := NewDecoder(buf, DecodeModeMapAsArray, 0)
	m, err := d.GetNext()
	if err != nil || m.DataType != ItemMapAsArray || m.Count != 2 {
		t.Fatalf("got %+v, %v", m, err)
	}
	lbl, _ := d.GetNext()
	if lbl.LabelType != LabelNone || lbl.DataType != ItemTextString || lbl.Text != "a" {
		t.Fatalf("map-as-array must not pair labels, got %+v", lbl)
	}
	val, _ := d.GetNext()
	if val.DataType != ItemInt64 || val.Int64 != 1 {
		t.Fatalf("got %+v", val)
	}
}

func TestDecoderTagDateEpoch(t *testing.T) {
	buf := encodeFixture(t, func(e *Encoder) {
		e.AddDateEpoch(1000000000)
	})
	d := NewDecoder(buf, DecodeModeNormal, 0)
	it, err := d.GetNext()
	if err != nil || it.DataType != ItemDateEpoch || it.DateEpoch.Seconds != 1000000000 {
		t.Fatalf("got %+v, %v", it, err)
	}
	if !IsTagged(&it, tagEpochDateTime, nil) {
		t.Fatal("expected TagBits to record tag 1")
	}
}

func TestDecoderTagDateString(t *testing.T) {
	buf := encodeFixture(t, func(e *Encoder) {
		e.AddDateString("2024-01-01T00:00:00Z")
	})
	d := NewDecoder(buf, DecodeModeNormal, 0)
	it, err := d.GetNext()
	if err != nil || it.DataType != ItemDateString || it.Text != "2024-01-01T00:00:00Z" {
		t.Fatalf("got %+v, %v", it, err)
	}
}

func TestDecoderIndefiniteStringAggregation(t *testing.T) {
	e := NewEncoder(make([]byte, 64), 0)
	e.out.AppendByte(makeByte(majorTypeText, addInfoIndefinite))
	e.AddText("Hello, ")
	e.AddText("world!")
	e.out.AppendByte(makeByte(majorTypeSimple, simpleBreak))
	buf, _, err := e.Finish()
	if err != nil {
		t.Fatal(err)
	}

	d := NewDecoder(buf, DecodeModeNormal, 0)
	d.SetStringAllocator(HeapStringAllocator{})
	it, err := d.GetNext()
	if err != nil || it.DataType != ItemTextString || it.Text != "Hello, world!" {
		t.Fatalf("got %+v, %v", it, err)
	}
	if it.AllocationFlags&AllocValue == 0 {
		t.Fatal("expected AllocValue flag on aggregated string")
	}
}

func TestDecoderIndefiniteStringWithoutAllocatorFails(t *testing.T) {
	e := NewEncoder(make([]byte, 32), 0)
	e.out.AppendByte(makeByte(majorTypeText, addInfoIndefinite))
	e.AddText("x")
	e.out.AppendByte(makeByte(majorTypeSimple, simpleBreak))
	buf, _, err := e.Finish()
	if err != nil {
		t.Fatal(err)
	}
	d := NewDecoder(buf, DecodeModeNormal, 0)
	if _, err := d.GetNext(); err != errNoStringAllocator {
		t.Fatalf("got %v want NoStringAllocator", err)
	}
}

func TestDecoderEnterMapAndSearch(t *testing.T) {
	buf := encodeFixture(t, func(e *Encoder) {
		e.OpenMap()
		e.AddText("x")
		e.AddUint64(10)
		e.AddText("y")
		e.AddUint64(20)
		e.CloseMap()
	})
	d := NewDecoder(buf, DecodeModeNormal, 0)
	if _, err := d.GetNext(); err != nil {
		t.Fatal(err)
	}
	if err := d.EnterMap(); err != nil {
		t.Fatal(err)
	}
	y, err := d.GetItemInMapSz("y")
	if err != nil || y.Int64 != 20 {
		t.Fatalf("got %+v, %v", y, err)
	}
	x, err := d.GetItemInMapSz("x")
	if err != nil || x.Int64 != 10 {
		t.Fatalf("got %+v, %v", x, err)
	}
	if _, err := d.GetItemInMapSz("missing"); err != errNotFound {
		t.Fatalf("got %v want NotFound", err)
	}
}

func TestDecoderDuplicateLabelDetected(t *testing.T) {
	buf := encodeFixture(t, func(e *Encoder) {
		e.OpenMap()
		e.AddText("x")
		e.AddUint64(1)
		e.AddText("x")
		e.AddUint64(2)
		e.CloseMap()
	})
	d := NewDecoder(buf, DecodeModeNormal, 0)
	d.GetNext()
	d.EnterMap()
	if _, err := d.GetItemInMapSz("x"); err != errDuplicateLabel {
		t.Fatalf("got %v want DuplicateLabel", err)
	}
}

func TestDecoderBadBreakWhenNotIndefinite(t *testing.T) {
	buf := []byte{makeByte(majorTypeSimple, simpleBreak)}
	d := NewDecoder(buf, DecodeModeNormal, 0)
	if _, err := d.GetNext(); err != errBadBreak {
		t.Fatalf("got %v want BadBreak", err)
	}
}

func TestDecoderExtraBytesAfterTopLevelItem(t *testing.T) {
	buf := encodeFixture(t, func(e *Encoder) {
		e.AddUint64(1)
		e.AddUint64(2)
	})
	d := NewDecoder(buf, DecodeModeNormal, 0)
	if _, err := d.GetNext(); err != nil {
		t.Fatal(err)
	}
	if err := d.Finish(); err != errExtraBytes {
		t.Fatalf("got %v want ExtraBytes", err)
	}
}
