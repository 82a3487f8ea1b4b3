package cbor

import "encoding/binary"

// maxStreamBufferSize is the largest input/output size the streaming
// Encoder/Decoder will address. Internal offsets are tracked as int,
// but no single buffer may exceed this so behavior stays uniform on
// 32-bit platforms.
const maxStreamBufferSize = 1 << 32 // 4 GiB

// OutBuf is a thin cursored view over a caller-owned contiguous byte
// region. It never grows or reallocates: once capacity is exhausted it
// sets a sticky error and further appends silently no-op, so a caller
// can run a whole encode sequence and check the error once at the end.
//
// A zero-value base (nil) puts OutBuf into size-calculation mode: every
// append succeeds and advances position without storing anything,
// which lets an Encoder compute the exact output length in a dry run.
type OutBuf struct {
	base     []byte
	position int
	err      error
}

// NewOutBuf wraps buf for appending. A nil buf puts the OutBuf into
// size-calculation mode.
func NewOutBuf(buf []byte) *OutBuf {
	if len(buf) > maxStreamBufferSize {
		return &OutBuf{err: errBufferTooLarge}
	}
	return &OutBuf{base: buf}
}

// Position returns the current write offset.
func (o *OutBuf) Position() int { return o.position }

// Tell is an alias for Position matching the component design vocabulary.
func (o *OutBuf) Tell() int { return o.position }

// Error returns the sticky error, if any.
func (o *OutBuf) Error() error { return o.err }

// SetError sticks err if one is not already set. Subsequent appends
// become no-ops once this is called.
func (o *OutBuf) SetError(err error) {
	if o.err == nil {
		o.err = err
	}
}

// sizeCalcOnly reports whether this OutBuf has no backing store.
func (o *OutBuf) sizeCalcOnly() bool { return o.base == nil }

// Append copies b to the end of the buffer, advancing position. On
// overflow it sets the sticky error and does nothing.
func (o *OutBuf) Append(b []byte) {
	if o.err != nil {
		return
	}
	if o.sizeCalcOnly() {
		o.position += len(b)
		return
	}
	if o.position+len(b) > len(o.base) {
		o.err = errBufferTooSmall
		return
	}
	copy(o.base[o.position:], b)
	o.position += len(b)
}

// AppendByte appends a single byte.
func (o *OutBuf) AppendByte(b byte) {
	if o.err != nil {
		return
	}
	if o.sizeCalcOnly() {
		o.position++
		return
	}
	if o.position+1 > len(o.base) {
		o.err = errBufferTooSmall
		return
	}
	o.base[o.position] = b
	o.position++
}

// AppendUintBE appends n as a big-endian integer occupying exactly
// width bytes. width must be one of {1, 2, 4, 8}.
func (o *OutBuf) AppendUintBE(n uint64, width int) {
	if o.err != nil {
		return
	}
	switch width {
	case 1:
		o.AppendByte(byte(n))
	case 2:
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], uint16(n))
		o.Append(tmp[:])
	case 4:
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(n))
		o.Append(tmp[:])
	case 8:
		var tmp [8]byte
		binary.BigEndian.PutUint64(tmp[:], n)
		o.Append(tmp[:])
	default:
		o.err = errInvalidCBOR
	}
}

// Reserve advances position by n without writing, returning the
// starting offset for a later InsertAt. Used to reserve a container
// head's minimum one byte before the final count is known.
func (o *OutBuf) Reserve(n int) int {
	start := o.position
	if o.err != nil {
		return start
	}
	if o.sizeCalcOnly() {
		o.position += n
		return start
	}
	if o.position+n > len(o.base) {
		o.err = errBufferTooSmall
		return start
	}
	o.position += n
	return start
}

// InsertAt overwrites len(b) bytes at offset in place. offset+len(b)
// must not exceed the current position. It is used to back-patch a
// container head once its final minimal width is known.
func (o *OutBuf) InsertAt(offset int, b []byte) {
	if o.err != nil {
		return
	}
	if o.sizeCalcOnly() {
		return
	}
	if offset+len(b) > o.position {
		o.err = errInvalidCBOR
		return
	}
	copy(o.base[offset:], b)
}

// ShiftRight moves the bytes in [from, position) to start at
// from+growth, growing the buffer's logical content by growth bytes.
// It is used by the nesting tracker's back-patch protocol when a
// container head turns out to need more than the one byte reserved at
// Open. In size-calculation mode only position bookkeeping changes; no
// bytes are physically moved.
func (o *OutBuf) ShiftRight(from, growth int) {
	if o.err != nil || growth == 0 {
		return
	}
	if o.sizeCalcOnly() {
		o.position += growth
		return
	}
	newEnd := o.position + growth
	if newEnd > len(o.base) {
		o.err = errBufferTooSmall
		return
	}
	copy(o.base[from+growth:newEnd], o.base[from:o.position])
	o.position = newEnd
}

// Bytes returns the slice of written bytes in real-buffer mode. It
// must not be called in size-calculation mode.
func (o *OutBuf) Bytes() []byte {
	return o.base[:o.position]
}
