package cbor

import "testing"

func TestEncodeNestingArrayClose(t *testing.T) {
	n := NewEncodeNesting(0)
	if err := n.Open(majorTypeArray, 0); err != nil {
		t.Fatal(err)
	}
	n.Increment()
	n.Increment()
	res, err := n.Close(majorTypeArray, 5)
	if err != nil {
		t.Fatal(err)
	}
	if res.encodedArg != 2 {
		t.Fatalf("got arg %d want 2", res.encodedArg)
	}
	if n.Depth() != 0 {
		t.Fatalf("got depth %d want 0", n.Depth())
	}
}

func TestEncodeNestingMapClosePairsNotItems(t *testing.T) {
	n := NewEncodeNesting(0)
	n.Open(majorTypeMap, 0)
	n.Increment() // label
	n.Increment() // value
	n.Increment() // label
	n.Increment() // value
	res, err := n.Close(majorTypeMap, 9)
	if err != nil {
		t.Fatal(err)
	}
	if res.encodedArg != 2 {
		t.Fatalf("got arg %d want 2 pairs", res.encodedArg)
	}
}

func TestEncodeNestingCloseMismatch(t *testing.T) {
	n := NewEncodeNesting(0)
	n.Open(majorTypeArray, 0)
	if _, err := n.Close(majorTypeMap, 1); err != errCloseMismatch {
		t.Fatalf("got %v want CloseMismatch", err)
	}
}

func TestEncodeNestingTooDeep(t *testing.T) {
	n := NewEncodeNesting(2)
	n.Open(majorTypeArray, 0)
	n.Open(majorTypeArray, 1)
	if err := n.Open(majorTypeArray, 2); err != errArrayNestingTooDeep {
		t.Fatalf("got %v want ArrayNestingTooDeep", err)
	}
}

func TestEncodeNestingTooManyCloses(t *testing.T) {
	n := NewEncodeNesting(0)
	if _, err := n.Close(majorTypeArray, 0); err != errTooManyCloses {
		t.Fatalf("got %v want TooManyCloses", err)
	}
}

func TestDecodeNestingDefiniteCascade(t *testing.T) {
	n := NewDecodeNesting(0)
	n.Descend(majorTypeArray, 2, false, 1)
	if n.DecrementTop() {
		t.Fatal("expected not-yet-zero after first decrement")
	}
	if !n.DecrementTop() {
		t.Fatal("expected zeroed-and-definite on second decrement")
	}
	n.Ascend()
	if n.Depth() != 0 {
		t.Fatalf("got depth %d want 0", n.Depth())
	}
}

func TestDecodeNestingIndefiniteNeverAutoCloses(t *testing.T) {
	n := NewDecodeNesting(0)
	n.Descend(majorTypeArray, 0, true, 1)
	if n.DecrementTop() {
		t.Fatal("indefinite frames must never report zeroed-and-closeable")
	}
	if !n.CurrentIndefinite() {
		t.Fatal("expected CurrentIndefinite true")
	}
}

func TestDecodeNestingEnterMapModeRewindsRemaining(t *testing.T) {
	n := NewDecodeNesting(0)
	n.Descend(majorTypeMap, 4, false, 7)
	n.DecrementTop()
	n.DecrementTop()
	off, count, ok := n.EnterMapMode()
	if !ok || off != 7 || count != 4 {
		t.Fatalf("got (%d,%d,%v) want (7,4,true)", off, count, ok)
	}
	if n.top().remaining != 4 {
		t.Fatalf("EnterMapMode must rewind remaining to savedCount, got %d", n.top().remaining)
	}
}

func TestDecodeNestingEnterMapModeRejectsNonMap(t *testing.T) {
	n := NewDecodeNesting(0)
	n.Descend(majorTypeArray, 2, false, 0)
	if _, _, ok := n.EnterMapMode(); ok {
		t.Fatal("EnterMapMode must reject a non-map current frame")
	}
}
