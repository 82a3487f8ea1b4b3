package cbor

import (
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
)

// diagFrame is one open bracket on DiagString's render stack: the
// container's closing character plus any tag-closing parens deferred
// until the container itself closes, and whether a sibling has
// already been printed at this depth (for comma placement).
type diagFrame struct {
	bracket  byte
	tagParen int
	printed  bool
}

// tagBitNumbers maps a TagBits bit position to its built-in tag
// number, mirroring builtinTagBitTable in tagtable.go.
var tagBitNumbers = [16]uint64{
	tagDateTimeString, tagEpochDateTime, tagPosBignum, tagNegBignum,
	tagDecimalFrac, tagBigfloat, tagBase64URL, tagBase64, tagBase16,
	tagCBOR, tagURI, tagBase64URLString, tagBase64String, tagRegexp,
	tagMIME, tagSelfDescribeCBOR,
}

// DiagString renders the next top-level CBOR item in data as RFC 8949
// §8 diagnostic notation, walking a full decode via repeated
// Decoder.GetNext calls. It is read-only with respect to the core
// codec: it never participates in round-tripping and reports a plain
// decode error if data is ill-formed.
//
// Only the first top-level item is rendered; any bytes belonging to a
// subsequent item in a CBOR sequence are left unconsumed and ignored,
// matching the core decoder's one-document-at-a-time contract.
func DiagString(data []byte) (string, error) {
	d := NewDecoder(data, DecodeModeNormal, 0)
	buf := GetByteBuffer()
	defer PutByteBuffer(buf)

	var stack []diagFrame
	first := true
	for {
		item, err := d.GetNext()
		if err != nil {
			if err == errNoMoreItems && !first {
				// The base decoder only reports this once every frame it
				// opened has actually closed, so any frames still open on
				// our own render stack are known-closed; finish them.
				closeFramesAbove(buf, &stack, 0)
				break
			}
			return "", err
		}

		closeFramesAbove(buf, &stack, item.NestingLevel)

		if !first && item.NestingLevel == 0 {
			// This item is a later top-level document in the same
			// buffer; our decode is already complete.
			break
		}
		first = false

		if n := len(stack); n > 0 {
			if stack[n-1].printed {
				buf.WriteString(", ")
			}
			stack[n-1].printed = true
		}

		if item.LabelType != LabelNone {
			writeDiagLabel(buf, &item)
			buf.WriteString(": ")
		}

		tagParen := writeDiagTagOpen(buf, &item)

		opensContainer := item.NextNestingLevel > item.NestingLevel &&
			(item.DataType == ItemArray || item.DataType == ItemMap || item.DataType == ItemMapAsArray)
		if opensContainer {
			bracket := byte(']')
			if item.DataType == ItemMap {
				buf.WriteString("{")
				bracket = '}'
			} else {
				buf.WriteString("[")
			}
			stack = append(stack, diagFrame{bracket: bracket, tagParen: tagParen})
			continue
		}

		writeDiagLeaf(buf, &item)
		for i := 0; i < tagParen; i++ {
			buf.WriteString(")")
		}
		closeFramesAbove(buf, &stack, item.NextNestingLevel)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return string(out), nil
}

// closeFramesAbove pops and renders every open frame deeper than
// target, deepest first.
func closeFramesAbove(buf *ByteBuffer, stack *[]diagFrame, target int) {
	s := *stack
	for len(s) > target {
		f := s[len(s)-1]
		s = s[:len(s)-1]
		buf.WriteByte(f.bracket)
		for i := 0; i < f.tagParen; i++ {
			buf.WriteString(")")
		}
	}
	*stack = s
}

// writeDiagTagOpen writes the tag-number prefixes wrapping item (an
// unrecognized leading tag, if any, outermost, followed by any
// recognized tags in bit order) and returns how many closing parens
// the caller must emit once the wrapped value is fully rendered.
func writeDiagTagOpen(buf *ByteBuffer, item *Item) int {
	n := 0
	if item.TagValue != 0 {
		buf.WriteString(strconv.FormatUint(item.TagValue, 10))
		buf.WriteString("(")
		n++
	}
	for bit := uint(0); bit < 16; bit++ {
		if item.TagBits.Test(bit) {
			buf.WriteString(strconv.FormatUint(tagBitNumbers[bit], 10))
			buf.WriteString("(")
			n++
		}
	}
	return n
}

func writeDiagLabel(buf *ByteBuffer, item *Item) {
	switch item.LabelType {
	case LabelInt64:
		buf.WriteString(strconv.FormatInt(item.LabelInt, 10))
	case LabelUint64:
		buf.WriteString(strconv.FormatUint(item.LabelUint, 10))
	case LabelTextString:
		buf.WriteString(strconv.Quote(item.LabelText))
	case LabelByteString:
		writeDiagHex(buf, item.LabelBin)
	}
}

func writeDiagHex(buf *ByteBuffer, b []byte) {
	buf.WriteString("h'")
	d := buf.Extend(hex.EncodedLen(len(b)))
	hex.Encode(d, b)
	buf.WriteString("'")
}

// writeDiagLeaf renders an item that carries its own value directly
// (not a container being opened): atoms, and containers that opened
// and closed empty in the same step.
func writeDiagLeaf(buf *ByteBuffer, item *Item) {
	switch item.DataType {
	case ItemInt64:
		buf.WriteString(strconv.FormatInt(item.Int64, 10))
	case ItemUint64:
		buf.WriteString(strconv.FormatUint(item.Uint64, 10))
	case ItemByteString:
		writeDiagHex(buf, item.Bytes)
	case ItemTextString:
		buf.WriteString(strconv.Quote(item.Text))
	case ItemArray, ItemMapAsArray:
		buf.WriteString("[]")
	case ItemMap:
		buf.WriteString("{}")
	case ItemDouble:
		buf.WriteString(formatFloat64Diag(item.Double))
	case ItemDateEpoch:
		if item.DateEpoch.Fraction == 0 {
			buf.WriteString(strconv.FormatInt(item.DateEpoch.Seconds, 10))
		} else {
			buf.WriteString(formatFloat64Diag(float64(item.DateEpoch.Seconds) + item.DateEpoch.Fraction))
		}
	case ItemDateString:
		buf.WriteString(strconv.Quote(item.Text))
	case ItemPosBignum, ItemNegBignum:
		writeDiagHex(buf, item.Bytes)
	case ItemDecimalFraction, ItemBigfloat:
		buf.WriteString("[")
		buf.WriteString(strconv.FormatInt(item.DecFloat.Exponent, 10))
		buf.WriteString(", ")
		if item.DecFloat.MantissaIsBig {
			if item.DecFloat.MantissaNeg {
				buf.WriteString("-")
			}
			writeDiagHex(buf, item.DecFloat.MantissaBignum)
		} else {
			buf.WriteString(strconv.FormatInt(item.DecFloat.MantissaInt, 10))
		}
		buf.WriteString("]")
	case ItemTrue:
		buf.WriteString("true")
	case ItemFalse:
		buf.WriteString("false")
	case ItemNull:
		buf.WriteString("null")
	case ItemUndefined:
		buf.WriteString("undefined")
	case ItemUnknownSimple:
		buf.WriteString(fmt.Sprintf("simple(%d)", item.UnknownSimp))
	default:
		buf.WriteString("undefined")
	}
}

// formatFloat64Diag returns a diagnostic string for float64 matching RFC examples
func formatFloat64Diag(f float64) string {
	if math.IsInf(f, +1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if math.IsNaN(f) {
		return "NaN"
	}
	af := math.Abs(f)
	// Prefer fixed-point for reasonable magnitudes
	if af == 0 || af < 1e15 {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		return trimTrailingZerosDot(s)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatFloat32Diag returns a diagnostic string for float32 matching RFC examples
func formatFloat32Diag(f float32) string {
	if math.IsInf(float64(f), +1) {
		return "Infinity"
	}
	if math.IsInf(float64(f), -1) {
		return "-Infinity"
	}
	if math.IsNaN(float64(f)) {
		return "NaN"
	}
	af := math.Abs(float64(f))
	if af == 0 || af < 1e15 {
		s := strconv.FormatFloat(float64(f), 'f', -1, 32)
		return trimTrailingZerosDot(s)
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func trimTrailingZerosDot(s string) string {
	// Trim trailing zeros and optional dot
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	return s[:i]
}
