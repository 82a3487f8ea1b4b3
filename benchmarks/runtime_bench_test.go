// Package benchmarks compares the byte-slice append/read primitives
// against tinylib/msgp's MessagePack runtime for similar operations.
// msgp and this codec target the same allocation-free, append-style
// API shape, which makes them a natural head-to-head.
package benchmarks

import (
	"testing"

	cbor "github.com/laurencelundblade/qcbor-go/core"
	msgp "github.com/tinylib/msgp/msgp"
)

func BenchmarkCBOR_AppendInt64(b *testing.B) {
	var out []byte
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out = cbor.AppendInt64(out[:0], int64(i))
	}
	_ = out
}

func BenchmarkMsgp_AppendInt64(b *testing.B) {
	var out []byte
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out = msgp.AppendInt64(out[:0], int64(i))
	}
	_ = out
}

func BenchmarkCBOR_AppendString(b *testing.B) {
	var out []byte
	s := "hello world"
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out = cbor.AppendString(out[:0], s)
	}
	_ = out
}

func BenchmarkMsgp_AppendString(b *testing.B) {
	var out []byte
	s := "hello world"
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out = msgp.AppendString(out[:0], s)
	}
	_ = out
}

func BenchmarkCBOR_AppendBytes(b *testing.B) {
	var out []byte
	data := []byte("payload bytes for comparison purposes")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out = cbor.AppendBytes(out[:0], data)
	}
	_ = out
}

func BenchmarkMsgp_AppendBytes(b *testing.B) {
	var out []byte
	data := []byte("payload bytes for comparison purposes")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out = msgp.AppendBytes(out[:0], data)
	}
	_ = out
}

func BenchmarkCBOR_EncoderOpenMap(b *testing.B) {
	buf := make([]byte, 256)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e := cbor.NewEncoder(buf, 0)
		e.OpenMap()
		e.AddText("id")
		e.AddUint64(uint64(i))
		e.AddText("ok")
		e.AddBool(true)
		e.CloseMap()
		if _, _, err := e.Finish(); err != nil {
			b.Fatal(err)
		}
	}
}
