package cbor

// TagBits is a 64-bit bitmap of recognized tags seen wrapping a single
// item: the low 48 bits correspond to built-in tag values (via
// builtinTagBit), the high 16 bits to a caller-configured tag list
// (via CallerTagList). Unrecognized tags set no bit, but the first
// tag's raw numeric value is still preserved on the decoded Item.
type TagBits uint64

// Set returns a copy of t with bit set.
func (t TagBits) Set(bit uint) TagBits {
	if bit >= 64 {
		return t
	}
	return t | (1 << bit)
}

// Test reports whether bit is set.
func (t TagBits) Test(bit uint) bool {
	if bit >= 64 {
		return false
	}
	return t&(1<<bit) != 0
}

// Union returns the bitwise union of t and o.
func (t TagBits) Union(o TagBits) TagBits { return t | o }

// builtinTagBitTable maps the built-in tag numbers recognized by this
// package to their fixed bit position in the low 48 bits of TagBits.
var builtinTagBitTable = map[uint64]uint{
	tagDateTimeString:   0,
	tagEpochDateTime:    1,
	tagPosBignum:        2,
	tagNegBignum:        3,
	tagDecimalFrac:      4,
	tagBigfloat:         5,
	tagBase64URL:        6,
	tagBase64:           7,
	tagBase16:           8,
	tagCBOR:             9,
	tagURI:              10,
	tagBase64URLString:  11,
	tagBase64String:     12,
	tagRegexp:           13,
	tagMIME:             14,
	tagSelfDescribeCBOR: 15,
}

// builtinTagBit returns the bit position for a built-in tag number and
// whether it is recognized.
func builtinTagBit(tag uint64) (uint, bool) {
	b, ok := builtinTagBitTable[tag]
	return b, ok
}

// CallerTagList lets a Decoder caller reserve bits 48..63 of TagBits
// for application-specific tag numbers, mirroring the built-in table's
// shape without needing to modify this package.
type CallerTagList struct {
	tags []uint64
}

// NewCallerTagList builds a caller tag list. Index i (0-based) occupies
// bit 48+i; at most 16 entries are honored.
func NewCallerTagList(tags ...uint64) *CallerTagList {
	if len(tags) > 16 {
		tags = tags[:16]
	}
	return &CallerTagList{tags: tags}
}

// bitFor returns the TagBits bit position for tag, if this list
// recognizes it.
func (l *CallerTagList) bitFor(tag uint64) (uint, bool) {
	if l == nil {
		return 0, false
	}
	for i, t := range l.tags {
		if t == tag {
			return uint(48 + i), true
		}
	}
	return 0, false
}
