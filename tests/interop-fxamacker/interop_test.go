// Package interop_fxamacker cross-checks the encoder and decoder
// against github.com/fxamacker/cbor/v2, an independent RFC 8949
// implementation, so that a bug shared between the hand-written head
// and reader logic can't hide behind self-consistent round-trips.
package interop_fxamacker

import (
	"bytes"
	"testing"

	fxcbor "github.com/fxamacker/cbor/v2"
	cbor "github.com/laurencelundblade/qcbor-go/core"
)

// TestEncoderBytesDecodeWithFxamacker feeds bytes produced by the local
// Encoder into fxamacker's Unmarshal, confirming the two libraries
// agree on the wire meaning of the same byte string.
func TestEncoderBytesDecodeWithFxamacker(t *testing.T) {
	e := cbor.NewEncoder(make([]byte, 256), 0)
	e.OpenMap()
	e.AddText("name")
	e.AddText("nats")
	e.AddText("count")
	e.AddUint64(451)
	e.AddText("ratio")
	e.AddFloatCanonical(0.5)
	e.AddText("tags")
	e.OpenArray()
	e.AddText("a")
	e.AddText("b")
	e.CloseArray()
	e.CloseMap()
	got, _, err := e.Finish()
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := fxcbor.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("fxamacker could not decode local encoder output: %v", err)
	}
	if decoded["name"] != "nats" {
		t.Fatalf("got name %v", decoded["name"])
	}
	if decoded["count"] != uint64(451) {
		t.Fatalf("got count %v (%T)", decoded["count"], decoded["count"])
	}
	if decoded["ratio"] != float64(0.5) {
		t.Fatalf("got ratio %v", decoded["ratio"])
	}
	tags, ok := decoded["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
		t.Fatalf("got tags %v", decoded["tags"])
	}
}

// TestFxamackerBytesDecodeWithDecoder is the reverse direction: bytes
// produced by fxamacker's Marshal are read back with the local
// Decoder's traversal and map-search API.
func TestFxamackerBytesDecodeWithDecoder(t *testing.T) {
	type animal struct {
		Age  int64  `cbor:"age"`
		Name string `cbor:"name"`
	}
	encoded, err := fxcbor.Marshal(animal{Age: 4, Name: "Candy"})
	if err != nil {
		t.Fatal(err)
	}

	d := cbor.NewDecoder(encoded, cbor.DecodeModeNormal, 0)
	m, err := d.GetNext()
	if err != nil || m.DataType != cbor.ItemMap || m.Count != 2 {
		t.Fatalf("got %+v, %v", m, err)
	}
	if err := d.EnterMap(); err != nil {
		t.Fatal(err)
	}
	name, err := d.GetItemInMapSz("name")
	if err != nil || name.Text != "Candy" {
		t.Fatalf("got %+v, %v", name, err)
	}
	age, err := d.GetItemInMapSz("age")
	if err != nil || age.Int64 != 4 {
		t.Fatalf("got %+v, %v", age, err)
	}
}

// TestCanonicalFloatMatchesFxamackerShortestFloat confirms that
// AddFloatCanonical's narrowest-exact-width choice agrees byte-for-byte
// with fxamacker's ShortestFloat mode, since both claim to implement
// the same canonical-CBOR float-minimization rule.
func TestCanonicalFloatMatchesFxamackerShortestFloat(t *testing.T) {
	em, err := fxcbor.CanonicalEncOptions().EncMode()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range []float64{1.0, 0.5, 100.0, -2.0, 65504.0} {
		e := cbor.NewEncoder(make([]byte, 32), 0)
		e.AddFloatCanonical(f)
		got, _, err := e.Finish()
		if err != nil {
			t.Fatal(err)
		}
		want, err := em.Marshal(f)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("%v: got % x want % x", f, got, want)
		}
	}
}
