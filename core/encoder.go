package cbor

import (
	"math"
)

// Encoder builds a CBOR byte stream from a sequence of typed Add/Open/
// Close calls. It holds no heap state beyond what the caller supplies:
// the backing OutBuf and a bounded EncodeNesting stack live on the
// Encoder value itself. Once any operation fails, the sticky error
// short-circuits every subsequent call so a caller can write
// straight-line code and check the result once, at Finish.
type Encoder struct {
	out     *OutBuf
	nesting *EncodeNesting
	err     error
}

// NewEncoder creates an Encoder writing into buf. A nil buf puts the
// Encoder into size-calculation mode (see OutBuf), letting a caller
// compute the exact encoded length of a sequence before allocating the
// real output buffer. maxDepth <= 0 selects DefaultMaxNestingDepth.
func NewEncoder(buf []byte, maxDepth int) *Encoder {
	return &Encoder{out: NewOutBuf(buf), nesting: NewEncodeNesting(maxDepth)}
}

// Error returns the sticky error, if any has been set so far.
func (e *Encoder) Error() error { return e.err }

func (e *Encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// ok reports whether the encoder may still accept operations, syncing
// in any error OutBuf or the nesting tracker may have newly recorded.
func (e *Encoder) ok() bool {
	if e.err != nil {
		return false
	}
	if oe := e.out.Error(); oe != nil {
		e.err = oe
		return false
	}
	return true
}

func (e *Encoder) bumpCount() {
	if !e.ok() {
		return
	}
	if err := e.nesting.Increment(); err != nil {
		e.fail(err)
	}
}

// AddUint64 appends an unsigned integer (major type 0).
func (e *Encoder) AddUint64(u uint64) {
	if !e.ok() {
		return
	}
	EncodeHead(e.out, majorTypeUint, u, 0)
	e.bumpCount()
}

// AddInt64 appends a signed integer, choosing major type 0 for
// non-negative values and major type 1 (encoded as -1-n) for negative
// ones.
func (e *Encoder) AddInt64(n int64) {
	if !e.ok() {
		return
	}
	if n >= 0 {
		EncodeHead(e.out, majorTypeUint, uint64(n), 0)
	} else {
		EncodeHead(e.out, majorTypeNegInt, uint64(-1-n), 0)
	}
	e.bumpCount()
}

// AddBytes appends a definite-length byte string.
func (e *Encoder) AddBytes(b []byte) {
	if !e.ok() {
		return
	}
	EncodeHead(e.out, majorTypeBytes, uint64(len(b)), 0)
	e.out.Append(b)
	e.bumpCount()
}

// AddText appends a definite-length UTF-8 text string.
func (e *Encoder) AddText(s string) {
	if !e.ok() {
		return
	}
	EncodeHead(e.out, majorTypeText, uint64(len(s)), 0)
	e.out.Append([]byte(s))
	e.bumpCount()
}

// AddSimple appends a major-7 simple value. v must be in {0..19,
// 32..255} (unknown-simple) or {20..23} (false/true/null/undef); the
// reserved range 24..31 is rejected with InvalidSimple.
func (e *Encoder) AddSimple(v uint8) {
	if !e.ok() {
		return
	}
	if v >= 24 && v <= 31 {
		e.fail(errInvalidSimple)
		return
	}
	if v <= addInfoDirect {
		e.out.AppendByte(makeByte(majorTypeSimple, v))
	} else {
		e.out.AppendByte(makeByte(majorTypeSimple, addInfoUint8))
		e.out.AppendByte(v)
	}
	e.bumpCount()
}

// AddBool appends simple-true or simple-false.
func (e *Encoder) AddBool(b bool) {
	if b {
		e.AddSimple(simpleTrue)
	} else {
		e.AddSimple(simpleFalse)
	}
}

// AddNull appends simple-null.
func (e *Encoder) AddNull() { e.AddSimple(simpleNull) }

// AddUndef appends simple-undefined.
func (e *Encoder) AddUndef() { e.AddSimple(simpleUndefined) }

// AddFloat appends a 4-byte IEEE 754 single-precision float, always at
// full width (no canonical shrink to half; use AddFloatCanonical for
// that).
func (e *Encoder) AddFloat(f float32) {
	if !e.ok() {
		return
	}
	e.out.AppendByte(makeByte(majorTypeSimple, simpleFloat32))
	e.out.AppendUintBE(uint64(math.Float32bits(f)), 4)
	e.bumpCount()
}

// AddDouble appends an 8-byte IEEE 754 double-precision float, always
// at full width.
func (e *Encoder) AddDouble(f float64) {
	if !e.ok() {
		return
	}
	e.out.AppendByte(makeByte(majorTypeSimple, simpleFloat64))
	e.out.AppendUintBE(math.Float64bits(f), 8)
	e.bumpCount()
}

// AddFloatCanonical appends f at the narrowest IEEE 754 width (half,
// single, or double) that represents it exactly, per the minimality
// invariant extended to floats.
func (e *Encoder) AddFloatCanonical(f float64) {
	if !e.ok() {
		return
	}
	if h, ok := DoubleToHalfBitsExact(f); ok {
		e.out.AppendByte(makeByte(majorTypeSimple, simpleFloat16))
		e.out.AppendUintBE(uint64(h), 2)
		e.bumpCount()
		return
	}
	if f32 := float32(f); float64(f32) == f {
		e.AddFloat(f32)
		return
	}
	e.AddDouble(f)
}

// AddTag appends a major-6 tag head. It does not increment the
// enclosing container's count; the item the tag applies to is the
// next operation.
func (e *Encoder) AddTag(tag uint64) {
	if !e.ok() {
		return
	}
	EncodeHead(e.out, majorTypeTag, tag, 0)
}

// AddDateEpoch appends tag(1) followed by the integer seconds count.
func (e *Encoder) AddDateEpoch(seconds int64) {
	e.AddTag(tagEpochDateTime)
	e.AddInt64(seconds)
}

// AddDateString appends tag(0) followed by an RFC 3339 text string.
func (e *Encoder) AddDateString(s string) {
	e.AddTag(tagDateTimeString)
	e.AddText(s)
}

// AddEncoded splices already-encoded CBOR bytes in verbatim; it counts
// as exactly one item in the enclosing container.
func (e *Encoder) AddEncoded(raw []byte) {
	if !e.ok() {
		return
	}
	e.out.Append(raw)
	e.bumpCount()
}

// OpenArray reserves the container's one-byte head placeholder and
// pushes an array frame.
func (e *Encoder) OpenArray() { e.open(majorTypeArray) }

// OpenMap reserves the container's one-byte head placeholder and
// pushes a map frame. Map frames count items (label + value), not
// pairs; CloseMap divides by two when computing the final head.
func (e *Encoder) OpenMap() { e.open(majorTypeMap) }

// BstrWrapOpen reserves the container's one-byte head placeholder and
// pushes a byte-string-wrap frame, whose contents are themselves
// arbitrary CBOR that will be wrapped in a byte string on close.
func (e *Encoder) BstrWrapOpen() { e.open(majorTypeBytes) }

func (e *Encoder) open(majorType uint8) {
	if !e.ok() {
		return
	}
	headOffset := e.out.Reserve(1)
	if !e.ok() {
		return
	}
	if err := e.nesting.Open(majorType, headOffset); err != nil {
		e.fail(err)
	}
}

// CloseArray closes the innermost frame, which must be an array.
func (e *Encoder) CloseArray() { e.close(majorTypeArray) }

// CloseMap closes the innermost frame, which must be a map.
func (e *Encoder) CloseMap() { e.close(majorTypeMap) }

func (e *Encoder) close(majorType uint8) {
	if !e.ok() {
		return
	}
	e.finishClose(majorType)
}

// BstrWrapClose closes the innermost byte-string-wrap frame and
// returns the slice of bytes it wrapped (nil in size-calculation mode
// or on error).
func (e *Encoder) BstrWrapClose() []byte {
	if !e.ok() {
		return nil
	}
	start := e.finishClose(majorTypeBytes)
	if !e.ok() || e.out.sizeCalcOnly() {
		return nil
	}
	return e.out.Bytes()[start:e.out.Position()]
}

// finishClose implements the shared back-patch protocol of §4.4 for
// CloseArray/CloseMap/BstrWrapClose, returning the offset just past the
// final head (the start of the wrapped contents), valid only when ok.
func (e *Encoder) finishClose(majorType uint8) int {
	currentPos := e.out.Position()
	res, err := e.nesting.Close(majorType, currentPos)
	if err != nil {
		e.fail(err)
		return 0
	}

	width := headWidthFor(res.encodedArg)
	finalLen := headEncodedLen(width)
	growth := finalLen - 1 // one byte was reserved at Open

	if growth > 0 {
		e.out.ShiftRight(res.headOffset+1, growth)
		if !e.ok() {
			return 0
		}
	}

	if !e.out.sizeCalcOnly() {
		var headBuf [9]byte
		n := EncodeHeadInto(headBuf[:], majorType, res.encodedArg, width)
		e.out.InsertAt(res.headOffset, headBuf[:n])
	}

	if err := e.nesting.Increment(); err != nil {
		e.fail(err)
	}
	return res.headOffset + finalLen
}

// Finish validates that every opened container has been closed and
// returns the encoded bytes (nil in size-calculation mode) together
// with their length, or the sticky error if one occurred.
func (e *Encoder) Finish() ([]byte, int, error) {
	if e.err != nil {
		return nil, 0, e.err
	}
	if oe := e.out.Error(); oe != nil {
		return nil, 0, oe
	}
	if e.nesting.Depth() != 0 {
		return nil, 0, errArrayOrMapStillOpen
	}
	if e.out.sizeCalcOnly() {
		return nil, e.out.Position(), nil
	}
	return e.out.Bytes(), e.out.Position(), nil
}

// FinishGetSize is a convenience for callers that only want the final
// encoded length (typically from a size-calculation-mode Encoder),
// without requiring a backing buffer.
func (e *Encoder) FinishGetSize() (int, error) {
	_, n, err := e.Finish()
	return n, err
}
