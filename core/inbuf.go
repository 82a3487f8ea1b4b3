package cbor

import "encoding/binary"

// InBuf is a forward cursor over a caller-owned contiguous byte region.
// Reads past the end of the buffer set a sticky EOF bit and return
// zero-filled scalars / nil slices, so downstream control flow (the
// traversal state machine) can keep running straight-line code and
// check for the error once.
type InBuf struct {
	base   []byte
	cursor int
	err    error
}

// NewInBuf wraps buf for sequential reading.
func NewInBuf(buf []byte) *InBuf {
	if len(buf) > maxStreamBufferSize {
		return &InBuf{err: errBufferTooLarge}
	}
	return &InBuf{base: buf}
}

// Tell returns the current read offset.
func (in *InBuf) Tell() int { return in.cursor }

// Len returns the total length of the wrapped buffer.
func (in *InBuf) Len() int { return len(in.base) }

// Error returns the sticky error, if any.
func (in *InBuf) Error() error { return in.err }

// SetError sticks err if one is not already set.
func (in *InBuf) SetError(err error) {
	if in.err == nil {
		in.err = err
	}
}

// AtEnd reports whether the cursor has consumed the entire buffer.
func (in *InBuf) AtEnd() bool { return in.cursor >= len(in.base) }

// Seek moves the cursor to an absolute offset, used by the map-search
// / enter-map auxiliary layer for rewind. It does not clear a sticky
// error; seeking after EOF was observed is still possible so callers
// can rewind out of an error state deliberately.
func (in *InBuf) Seek(abs int) {
	if abs < 0 || abs > len(in.base) {
		in.err = errHitEnd
		return
	}
	in.cursor = abs
}

// GetByte reads and advances past one byte, or sets the sticky EOF bit
// and returns 0.
func (in *InBuf) GetByte() byte {
	if in.err != nil || in.cursor+1 > len(in.base) {
		in.SetError(errHitEnd)
		return 0
	}
	b := in.base[in.cursor]
	in.cursor++
	return b
}

// PeekByte returns the next byte without advancing, or 0 at EOF
// without setting the sticky error (used for break-scanning lookahead).
func (in *InBuf) PeekByte() (byte, bool) {
	if in.cursor+1 > len(in.base) {
		return 0, false
	}
	return in.base[in.cursor], true
}

// GetUint16 reads a big-endian uint16 and advances.
func (in *InBuf) GetUint16() uint16 {
	b := in.GetBytes(2)
	if in.err != nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

// GetUint32 reads a big-endian uint32 and advances.
func (in *InBuf) GetUint32() uint32 {
	b := in.GetBytes(4)
	if in.err != nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// GetUint64 reads a big-endian uint64 and advances.
func (in *InBuf) GetUint64() uint64 {
	b := in.GetBytes(8)
	if in.err != nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// GetBytes returns a borrowed slice of n bytes and advances, or sets
// the sticky EOF bit and returns nil.
func (in *InBuf) GetBytes(n int) []byte {
	if in.err != nil {
		return nil
	}
	if n < 0 || in.cursor+n > len(in.base) {
		in.SetError(errHitEnd)
		return nil
	}
	b := in.base[in.cursor : in.cursor+n]
	in.cursor += n
	return b
}
