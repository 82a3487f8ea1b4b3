package cbor

// headWidthFor returns the minimum argument width (0, 1, 2, 4, or 8)
// needed to encode arg, where 0 means the argument fits directly in
// the initial byte's additional-info field.
func headWidthFor(arg uint64) int {
	switch {
	case arg <= addInfoDirect:
		return 0
	case arg <= 0xFF:
		return 1
	case arg <= 0xFFFF:
		return 2
	case arg <= 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}

// headAddInfoForWidth maps an argument width to the CBOR additional-info
// value that introduces it.
func headAddInfoForWidth(width int) uint8 {
	switch width {
	case 0:
		return 0 // caller supplies the direct value separately
	case 1:
		return addInfoUint8
	case 2:
		return addInfoUint16
	case 4:
		return addInfoUint32
	case 8:
		return addInfoUint64
	default:
		return addInfoUint64
	}
}

// headEncodedLen returns the total byte length (initial byte + argument
// bytes) of a head with the given argument width.
func headEncodedLen(width int) int {
	return 1 + width
}

// EncodeHead appends a CBOR initial byte plus 0/1/2/4/8 argument bytes
// for (majorType, argument) to out, using the minimal width unless
// minWidth forces a specific one (0 means "pick minimal").
func EncodeHead(out *OutBuf, majorType uint8, argument uint64, minWidth int) {
	width := minWidth
	if width == 0 {
		width = headWidthFor(argument)
	}
	if width == 0 {
		out.AppendByte(makeByte(majorType, uint8(argument)))
		return
	}
	out.AppendByte(makeByte(majorType, headAddInfoForWidth(width)))
	out.AppendUintBE(argument, width)
}

// EncodeHeadInto writes the same head as EncodeHead directly into a
// plain byte slice at a known offset, used by the nesting tracker's
// back-patch protocol once the final minimal width is known. buf must
// have at least headEncodedLen(width) bytes available starting at 0.
func EncodeHeadInto(buf []byte, majorType uint8, argument uint64, width int) int {
	if width == 0 {
		buf[0] = makeByte(majorType, uint8(argument))
		return 1
	}
	buf[0] = makeByte(majorType, headAddInfoForWidth(width))
	switch width {
	case 1:
		buf[1] = byte(argument)
	case 2:
		buf[1] = byte(argument >> 8)
		buf[2] = byte(argument)
	case 4:
		buf[1] = byte(argument >> 24)
		buf[2] = byte(argument >> 16)
		buf[3] = byte(argument >> 8)
		buf[4] = byte(argument)
	case 8:
		buf[1] = byte(argument >> 56)
		buf[2] = byte(argument >> 48)
		buf[3] = byte(argument >> 40)
		buf[4] = byte(argument >> 32)
		buf[5] = byte(argument >> 24)
		buf[6] = byte(argument >> 16)
		buf[7] = byte(argument >> 8)
		buf[8] = byte(argument)
	}
	return headEncodedLen(width)
}

// DecodedHead is the result of parsing a CBOR initial byte plus any
// trailing argument bytes.
type DecodedHead struct {
	MajorType    uint8
	AddInfo      uint8
	Argument     uint64
	Indefinite   bool
	IsBreak      bool
}

// DecodeHead reads one CBOR head from in: the initial byte, split into
// major type and additional info, followed by 0/1/2/4/8 big-endian
// argument bytes per info. Additional-info 28-30 are reserved and
// reported as Unsupported. Info 31 signals either an indefinite-length
// container/string (majors 2-5) or the break stop-code (major 7).
func DecodeHead(in *InBuf) (DecodedHead, error) {
	b := in.GetByte()
	if in.Error() != nil {
		return DecodedHead{}, in.Error()
	}
	major := getMajorType(b)
	info := getAddInfo(b)

	var h DecodedHead
	h.MajorType = major
	h.AddInfo = info

	switch {
	case info <= addInfoDirect:
		h.Argument = uint64(info)
	case info == addInfoUint8:
		h.Argument = uint64(in.GetByte())
	case info == addInfoUint16:
		h.Argument = uint64(in.GetUint16())
	case info == addInfoUint32:
		h.Argument = uint64(in.GetUint32())
	case info == addInfoUint64:
		h.Argument = in.GetUint64()
	case info == 28 || info == 29 || info == 30:
		return DecodedHead{}, errUnsupported
	case info == addInfoIndefinite:
		switch major {
		case majorTypeSimple:
			h.IsBreak = true
		case majorTypeBytes, majorTypeText, majorTypeArray, majorTypeMap:
			h.Indefinite = true
		default:
			// Indefinite-length is only defined for byte/text strings and
			// arrays/maps; major types 0, 1, and 6 have no indefinite form.
			return DecodedHead{}, errInvalidCBOR
		}
	}
	if in.Error() != nil {
		return DecodedHead{}, in.Error()
	}
	return h, nil
}
