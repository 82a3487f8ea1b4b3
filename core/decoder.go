package cbor

import "math"

// DecodeMode selects how the decoder surfaces map containers and
// validates map labels.
type DecodeMode int

const (
	// DecodeModeNormal pairs each map entry's label with its value and
	// accepts text, byte-string, int64, and uint64 labels.
	DecodeModeNormal DecodeMode = iota
	// DecodeModeMapStringsOnly behaves like Normal but rejects any
	// non-text-string label with MapLabelType.
	DecodeModeMapStringsOnly
	// DecodeModeMapAsArray surfaces every map as an array of 2*pairs
	// items (label, value, label, value, ...) with no label pairing.
	DecodeModeMapAsArray
)

// mapLabel is the intermediate result of reading a map entry's label,
// before it is attached to the paired value Item.
type mapLabel struct {
	labelType LabelType
	intVal    int64
	uintVal   uint64
	text      string
	bin       []byte
	allocated bool
}

// Decoder performs a pre-order traversal of a CBOR input buffer,
// yielding one fully decorated Item per GetNext call. Like Encoder, it
// holds no heap state of its own beyond the wrapped InBuf and bounded
// DecodeNesting stack; the only externally shared resource is the
// optional string allocator used for indefinite-length string chunks.
type Decoder struct {
	in         *InBuf
	nesting    *DecodeNesting
	mode       DecodeMode
	stringAlloc StringAllocator
	callerTags *CallerTagList
	err        error

	lastMap *mapEntrySnapshot
}

// mapEntrySnapshot remembers a map's content offset and item count so
// it can be searched again by label after a prior search has fully
// drained and popped its nesting frame.
type mapEntrySnapshot struct {
	contentStart int
	count        int
}

// NewDecoder creates a Decoder reading buf in the given mode. maxDepth
// <= 0 selects DefaultMaxNestingDepth.
func NewDecoder(buf []byte, mode DecodeMode, maxDepth int) *Decoder {
	return &Decoder{in: NewInBuf(buf), nesting: NewDecodeNesting(maxDepth), mode: mode}
}

// SetStringAllocator installs the allocator used to aggregate
// indefinite-length string chunks. A nil allocator (the default)
// causes any indefinite-length string to fail with NoStringAllocator.
func (d *Decoder) SetStringAllocator(a StringAllocator) { d.stringAlloc = a }

// SetCallerTagList installs an application-specific tag table
// occupying TagBits bits 48..63.
func (d *Decoder) SetCallerTagList(l *CallerTagList) { d.callerTags = l }

// Error returns the sticky error, if any has been set so far.
func (d *Decoder) Error() error { return d.err }

// getNextItemRaw implements the §4.6 item layer: one CBOR data item
// with no label pairing, no tag aggregation, and no indefinite-string
// aggregation. Indefinite-length byte/text strings are returned as a
// zero-value placeholder with Indefinite set, for the caller to
// aggregate; indefinite-length arrays/maps are returned with
// Indefinite set and Count meaningless.
func (d *Decoder) getNextItemRaw() (Item, error) {
	h, err := DecodeHead(d.in)
	if err != nil {
		return Item{}, err
	}

	switch h.MajorType {
	case majorTypeUint:
		if h.Argument <= math.MaxInt64 {
			return Item{DataType: ItemInt64, Int64: int64(h.Argument)}, nil
		}
		return Item{DataType: ItemUint64, Uint64: h.Argument}, nil

	case majorTypeNegInt:
		if h.Argument > math.MaxInt64 {
			return Item{}, errIntOverflow
		}
		return Item{DataType: ItemInt64, Int64: -1 - int64(h.Argument)}, nil

	case majorTypeBytes, majorTypeText:
		dt := ItemByteString
		if h.MajorType == majorTypeText {
			dt = ItemTextString
		}
		if h.Indefinite {
			return Item{DataType: dt, Indefinite: true}, nil
		}
		b := d.in.GetBytes(int(h.Argument))
		if d.in.Error() != nil {
			return Item{}, d.in.Error()
		}
		if dt == ItemTextString {
			return Item{DataType: dt, Text: string(b)}, nil
		}
		return Item{DataType: dt, Bytes: b}, nil

	case majorTypeArray, majorTypeMap:
		dt := ItemArray
		if h.MajorType == majorTypeMap {
			dt = ItemMap
		}
		if h.Indefinite {
			return Item{DataType: dt, Indefinite: true}, nil
		}
		if h.Argument > maxContainerItems {
			return Item{}, errArrayTooLong
		}
		return Item{DataType: dt, Count: int(h.Argument)}, nil

	case majorTypeTag:
		return Item{DataType: itemOptTag, TagValue: h.Argument}, nil

	case majorTypeSimple:
		if h.IsBreak {
			return Item{DataType: itemBreak}, nil
		}
		switch h.AddInfo {
		case simpleFalse:
			return Item{DataType: ItemFalse}, nil
		case simpleTrue:
			return Item{DataType: ItemTrue}, nil
		case simpleNull:
			return Item{DataType: ItemNull}, nil
		case simpleUndefined:
			return Item{DataType: ItemUndefined}, nil
		case addInfoUint8: // one-byte simple value, must be 32..255
			v := uint8(h.Argument)
			if v < 32 {
				return Item{}, errBadTypeSeven
			}
			return Item{DataType: ItemUnknownSimple, UnknownSimp: v}, nil
		case simpleFloat16:
			return Item{DataType: ItemDouble, Double: HalfBitsToDouble(uint16(h.Argument))}, nil
		case simpleFloat32:
			return Item{DataType: ItemDouble, Double: float64(math.Float32frombits(uint32(h.Argument)))}, nil
		case simpleFloat64:
			return Item{DataType: ItemDouble, Double: math.Float64frombits(h.Argument)}, nil
		default:
			// Additional info 0..19: direct unknown-simple value.
			return Item{DataType: ItemUnknownSimple, UnknownSimp: h.AddInfo}, nil
		}
	}
	return Item{}, errInvalidCBOR
}

// nextStringAggregatedItem implements §4.6 plus §4.7: a byte/text
// string item returned by the item layer as indefinite is aggregated
// here via the installed string allocator before being handed further
// up the pipeline.
func (d *Decoder) nextStringAggregatedItem() (Item, error) {
	raw, err := d.getNextItemRaw()
	if err != nil {
		return Item{}, err
	}
	if (raw.DataType == ItemByteString || raw.DataType == ItemTextString) && raw.Indefinite {
		return d.aggregateIndefiniteString(raw.DataType)
	}
	return raw, nil
}

func (d *Decoder) aggregateIndefiniteString(kind ItemDataType) (Item, error) {
	if d.stringAlloc == nil {
		return Item{}, errNoStringAllocator
	}
	var acc []byte
	for {
		chunk, err := d.getNextItemRaw()
		if err != nil {
			return Item{}, err
		}
		if chunk.DataType == itemBreak {
			break
		}
		if chunk.DataType != kind || chunk.Indefinite {
			return Item{}, errIndefiniteStringChunk
		}
		var chunkBytes []byte
		if kind == ItemTextString {
			chunkBytes = []byte(chunk.Text)
		} else {
			chunkBytes = chunk.Bytes
		}
		if len(chunkBytes) == 0 {
			continue
		}
		grown := d.stringAlloc.Alloc(acc, len(acc)+len(chunkBytes))
		if grown == nil {
			return Item{}, errStringAllocate
		}
		copy(grown[len(acc):], chunkBytes)
		acc = grown
	}
	item := Item{DataType: kind, AllocationFlags: AllocValue}
	if kind == ItemTextString {
		// acc was just produced by d.stringAlloc for this item alone and
		// is never grown again once returned, so aliasing it as a string
		// is safe under UnsafeString's trusted-buffer contract and saves
		// a copy on every indefinite-length text string decoded.
		item.Text = UnsafeString(acc)
	} else {
		item.Bytes = acc
	}
	return item, nil
}

// readTaggedItem implements §4.8: it consumes a run of major-6 tag
// heads, ORing each recognized tag's bit into a running TagBits, then
// fetches the real item and applies tag-specific reclassification.
func (d *Decoder) readTaggedItem() (Item, error) {
	var bits TagBits
	haveTag := false
	var firstTag uint64
	firstRecognized := false

	for {
		raw, err := d.nextStringAggregatedItem()
		if err != nil {
			return Item{}, err
		}
		if raw.DataType != itemOptTag {
			if haveTag && raw.DataType == itemBreak {
				return Item{}, errBadOptTag
			}
			return d.applyTagPostProcessing(raw, bits, haveTag, firstTag, firstRecognized)
		}
		tag := raw.TagValue
		recognized := false
		if bit, ok := builtinTagBit(tag); ok {
			bits = bits.Set(bit)
			recognized = true
		} else if bit, ok := d.callerTags.bitFor(tag); ok {
			bits = bits.Set(bit)
			recognized = true
		}
		if !haveTag {
			firstTag = tag
			firstRecognized = recognized
		}
		haveTag = true
	}
}

// applyTagPostProcessing reclassifies real per any recognized tags in
// bits. When the outermost tag was unrecognized, its raw number is
// preserved on the returned item's TagValue for diagnostic rendering;
// a recognized tag is instead expressed via DataType/TagBits and
// TagValue is cleared.
func (d *Decoder) applyTagPostProcessing(real Item, bits TagBits, haveTag bool, firstTag uint64, firstRecognized bool) (Item, error) {
	if !haveTag {
		return real, nil
	}

	structural := 0
	for _, b := range [6]uint{0, 1, 2, 3, 4, 5} {
		if bits.Test(b) {
			structural++
		}
	}
	if structural > 1 {
		return Item{}, errBadOptTag
	}

	item := real
	item.TagBits = bits

	switch {
	case bits.Test(0) && real.DataType == ItemTextString:
		item.DataType = ItemDateString

	case bits.Test(1) && (real.DataType == ItemInt64 || real.DataType == ItemUint64 || real.DataType == ItemDouble):
		switch real.DataType {
		case ItemInt64:
			item.DataType = ItemDateEpoch
			item.DateEpoch = DateEpoch{Seconds: real.Int64}
		case ItemUint64:
			if real.Uint64 > math.MaxInt64 {
				return Item{}, errDateOverflow
			}
			item.DataType = ItemDateEpoch
			item.DateEpoch = DateEpoch{Seconds: int64(real.Uint64)}
		case ItemDouble:
			const safetyMargin = 1.0
			if real.Double > float64(math.MaxInt64)-safetyMargin || real.Double < float64(math.MinInt64)+safetyMargin {
				return Item{}, errDateOverflow
			}
			sec := math.Floor(real.Double)
			item.DataType = ItemDateEpoch
			item.DateEpoch = DateEpoch{Seconds: int64(sec), Fraction: real.Double - sec}
		}

	case bits.Test(2) && real.DataType == ItemByteString:
		item.DataType = ItemPosBignum

	case bits.Test(3) && real.DataType == ItemByteString:
		item.DataType = ItemNegBignum

	case (bits.Test(4) || bits.Test(5)) && real.DataType == ItemArray && real.Count == 2 && !real.Indefinite:
		return d.decodeExpMantissa(bits.Test(5))

	default:
		if bits.Test(0) || bits.Test(1) || bits.Test(2) || bits.Test(3) || bits.Test(4) || bits.Test(5) {
			return Item{}, errBadOptTag
		}
	}

	if firstRecognized {
		item.TagValue = 0
	} else {
		item.TagValue = firstTag
	}
	return item, nil
}

func (d *Decoder) decodeExpMantissa(isBigfloat bool) (Item, error) {
	expItem, err := d.nextStringAggregatedItem()
	if err != nil {
		return Item{}, err
	}
	var exponent int64
	switch expItem.DataType {
	case ItemInt64:
		exponent = expItem.Int64
	case ItemUint64:
		if expItem.Uint64 > math.MaxInt64 {
			return Item{}, errBadOptTag
		}
		exponent = int64(expItem.Uint64)
	default:
		return Item{}, errBadOptTag
	}

	mantItem, err := d.readTaggedItem()
	if err != nil {
		return Item{}, err
	}
	var em ExponentMantissa
	em.Exponent = exponent
	switch mantItem.DataType {
	case ItemInt64:
		em.MantissaInt = mantItem.Int64
	case ItemUint64:
		if mantItem.Uint64 > math.MaxInt64 {
			return Item{}, errBadOptTag
		}
		em.MantissaInt = int64(mantItem.Uint64)
	case ItemPosBignum:
		em.MantissaIsBig = true
		em.MantissaBignum = mantItem.Bytes
	case ItemNegBignum:
		em.MantissaIsBig = true
		em.MantissaNeg = true
		em.MantissaBignum = mantItem.Bytes
	default:
		return Item{}, errBadOptTag
	}

	dt := ItemDecimalFraction
	if isBigfloat {
		dt = ItemBigfloat
	}
	return Item{DataType: dt, DecFloat: em}, nil
}

// decrementAndCascade consumes one slot of the current top frame (the
// item just produced, or a just-closed child container) and, whenever
// that zeroes a definite-length frame, ascends and repeats against the
// new top -- this is how closing one container can cascade through any
// number of enclosing definite containers that become complete as a
// result.
func (d *Decoder) decrementAndCascade() {
	for {
		if d.nesting.top() == nil {
			return
		}
		if !d.nesting.DecrementTop() {
			return
		}
		d.nesting.Ascend()
	}
}

// readOneRawSlot reads the next genuine (non-break, non-tag-head) item
// at the decoder's current position, transparently handling any number
// of consecutive break bytes that close indefinite-length container
// frames (§4.10 step 5) before arriving at it.
func (d *Decoder) readOneRawSlot() (Item, error) {
	for {
		if d.nesting.Depth() == 0 && d.in.AtEnd() {
			return Item{}, errNoMoreItems
		}
		if d.nesting.CurrentRemainingZero() {
			return Item{}, errNoMoreItems
		}

		raw, err := d.readTaggedItem()
		if err != nil {
			return Item{}, err
		}
		if raw.DataType != itemBreak {
			if raw.DataType == ItemMap && d.mode == DecodeModeMapAsArray {
				raw.DataType = ItemMapAsArray
				raw.Count *= 2
			}
			return raw, nil
		}
		if !d.nesting.CurrentIndefinite() {
			return Item{}, errBadBreak
		}
		d.nesting.Ascend()
		d.decrementAndCascade()
	}
}

func labelFromItem(raw Item, mode DecodeMode) (mapLabel, error) {
	if mode == DecodeModeMapStringsOnly && raw.DataType != ItemTextString {
		return mapLabel{}, errMapLabelType
	}
	alloc := raw.AllocationFlags&AllocValue != 0
	switch raw.DataType {
	case ItemInt64:
		return mapLabel{labelType: LabelInt64, intVal: raw.Int64}, nil
	case ItemUint64:
		return mapLabel{labelType: LabelUint64, uintVal: raw.Uint64}, nil
	case ItemTextString:
		return mapLabel{labelType: LabelTextString, text: raw.Text, allocated: alloc}, nil
	case ItemByteString:
		return mapLabel{labelType: LabelByteString, bin: raw.Bytes, allocated: alloc}, nil
	default:
		return mapLabel{}, errMapLabelType
	}
}

func applyLabel(item *Item, lbl mapLabel) {
	item.LabelType = lbl.labelType
	item.LabelInt = lbl.intVal
	item.LabelUint = lbl.uintVal
	item.LabelText = lbl.text
	item.LabelBin = lbl.bin
	if lbl.allocated {
		item.AllocationFlags |= AllocLabel
	}
}

// finalizeNestingForItem applies §4.10 step 4: recording the item's
// nesting level, descending into it if it is a non-empty or indefinite
// container, or otherwise consuming its slot in the enclosing frame
// (cascading through any frames that close as a result), then §4.10
// step 5: consuming every break byte that immediately follows and
// closes an indefinite-length frame, and finally computing
// next_nesting_level from the resulting decoder depth.
func (d *Decoder) finalizeNestingForItem(item *Item, level int) error {
	item.NestingLevel = level
	contentStart := d.in.Tell()

	switch item.DataType {
	case ItemArray, ItemMap, ItemMapAsArray:
		frameMajor := uint8(majorTypeArray)
		remaining := item.Count
		if item.DataType == ItemMap {
			frameMajor = majorTypeMap
			remaining = item.Count * 2
		}
		if item.Indefinite || remaining > 0 {
			if err := d.nesting.Descend(frameMajor, remaining, item.Indefinite, contentStart); err != nil {
				return err
			}
		} else {
			d.decrementAndCascade()
		}
	default:
		d.decrementAndCascade()
	}

	for d.nesting.CurrentIndefinite() {
		b, ok := d.in.PeekByte()
		if !ok || b != makeByte(majorTypeSimple, simpleBreak) {
			break
		}
		d.in.GetByte()
		d.nesting.Ascend()
		d.decrementAndCascade()
	}

	item.NextNestingLevel = d.nesting.Depth()
	return nil
}

// GetItemInMapN searches the current map for an integer-labeled entry,
// matching get_item_in_map_n. It rewinds the map first, so repeated
// calls for different labels each see the whole map. It returns
// NotFound if no entry carries that label.
func (d *Decoder) GetItemInMapN(label int64) (Item, error) {
	if err := d.EnterMap(); err != nil {
		return Item{}, err
	}
	queries := []MapQuery{{LabelType: LabelInt64, LabelInt: label}}
	results := make([]Item, 1)
	if err := d.GetItemsInMap(queries, results); err != nil {
		return Item{}, err
	}
	if results[0].DataType == ItemNone {
		return Item{}, errNotFound
	}
	return results[0], nil
}

// GetItemInMapSz searches the current map for a text-labeled entry,
// matching get_item_in_map_sz. It rewinds the map first, so repeated
// calls for different labels each see the whole map. It returns
// NotFound if no entry carries that label.
func (d *Decoder) GetItemInMapSz(label string) (Item, error) {
	if err := d.EnterMap(); err != nil {
		return Item{}, err
	}
	queries := []MapQuery{{LabelType: LabelTextString, LabelText: label}}
	results := make([]Item, 1)
	if err := d.GetItemsInMap(queries, results); err != nil {
		return Item{}, err
	}
	if results[0].DataType == ItemNone {
		return Item{}, errNotFound
	}
	return results[0], nil
}

// GetNext performs one step of the pre-order traversal, returning the
// next fully decorated Item: labels are paired with their map values,
// tags are aggregated into TagBits and applied, and indefinite-length
// strings/containers are handled transparently.
func (d *Decoder) GetNext() (Item, error) {
	if d.err != nil {
		return Item{}, d.err
	}

	if d.nesting.Depth() == 0 && d.in.AtEnd() {
		return Item{}, errNoMoreItems
	}
	if d.nesting.CurrentRemainingZero() {
		return Item{}, errNoMoreItems
	}

	parentDepth := d.nesting.Depth()
	pairing := d.nesting.CurrentIsMapMode() && d.mode != DecodeModeMapAsArray

	first, err := d.readOneRawSlot()
	if err != nil {
		if err != errNoMoreItems {
			d.err = err
		}
		return Item{}, err
	}

	if pairing && d.nesting.Depth() == parentDepth {
		lbl, lerr := labelFromItem(first, d.mode)
		if lerr != nil {
			d.err = lerr
			return Item{}, lerr
		}
		d.decrementAndCascade()

		value, verr := d.readOneRawSlot()
		if verr != nil {
			d.err = verr
			return Item{}, verr
		}
		applyLabel(&value, lbl)
		if ferr := d.finalizeNestingForItem(&value, parentDepth); ferr != nil {
			d.err = ferr
			return Item{}, ferr
		}
		return value, nil
	}

	level := d.nesting.Depth()
	if ferr := d.finalizeNestingForItem(&first, level); ferr != nil {
		d.err = ferr
		return Item{}, ferr
	}
	return first, nil
}

// Finish reports whether the decoder reached a well-formed end of
// input: every opened container closed and no trailing bytes.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.nesting.Depth() != 0 {
		return errArrayOrMapStillOpen
	}
	if !d.in.AtEnd() {
		return errExtraBytes
	}
	return nil
}

// EnterMap rewinds the most recently delivered map to its first
// entry, so its labels can be searched or iterated again from the
// start. If a prior search already fully drained and popped that
// map's frame, EnterMap reconstructs it from the snapshot taken the
// first time it was entered. It fails with UnexpectedType if there is
// no current or previously entered map to rewind.
func (d *Decoder) EnterMap() error {
	if d.err != nil {
		return d.err
	}

	contentStart, count, ok := d.nesting.EnterMapMode()
	if ok {
		d.lastMap = &mapEntrySnapshot{contentStart: contentStart, count: count}
	} else if d.lastMap != nil {
		if err := d.nesting.Descend(majorTypeMap, d.lastMap.count, false, d.lastMap.contentStart); err != nil {
			return err
		}
		contentStart = d.lastMap.contentStart
	} else {
		return errUnexpectedType
	}

	d.in.Seek(contentStart)
	if d.in.Error() != nil {
		return d.in.Error()
	}
	return nil
}

// ExitMap consumes any remaining entries of the current map (so the
// cursor lands just past it), restoring the outer nesting and
// decrementing its parent exactly as an ordinary GetNext traversal
// would have.
func (d *Decoder) ExitMap() error {
	if d.err != nil {
		return d.err
	}
	targetDepth := d.nesting.Depth()
	if targetDepth == 0 {
		return errUnexpectedType
	}
	for d.nesting.Depth() >= targetDepth {
		if _, err := d.GetNext(); err != nil {
			if err == errNoMoreItems {
				break
			}
			return err
		}
	}
	return nil
}

// RewindMap is an alias for EnterMap matching the component design's
// auxiliary-operation vocabulary.
func (d *Decoder) RewindMap() error { return d.EnterMap() }

// MapQuery is one (label, expected-type) search criterion for
// GetItemsInMap. ExpectedType of ItemNone acts as a type wildcard.
type MapQuery struct {
	LabelType LabelType
	LabelInt  int64
	LabelUint uint64
	LabelText string
	LabelBin  []byte

	ExpectedType ItemDataType
}

func (q *MapQuery) matchesLabel(it *Item) bool {
	if it.LabelType != q.LabelType {
		return false
	}
	switch q.LabelType {
	case LabelInt64:
		return it.LabelInt == q.LabelInt
	case LabelUint64:
		return it.LabelUint == q.LabelUint
	case LabelTextString:
		return it.LabelText == q.LabelText
	case LabelByteString:
		return string(it.LabelBin) == string(q.LabelBin)
	}
	return false
}

// GetItemsInMap searches the current map (entered via EnterMap) for
// each of queries, iterating the entire map once to also detect
// duplicate labels. Matches are written into results at the same
// index as their query; unmatched queries leave results[i].DataType
// == ItemNone. It leaves the decoder positioned just past the map.
func (d *Decoder) GetItemsInMap(queries []MapQuery, results []Item) error {
	if d.err != nil {
		return d.err
	}
	if len(results) != len(queries) {
		return errInvalidCBOR
	}
	matched := make([]bool, len(queries))
	targetDepth := d.nesting.Depth()
	if targetDepth == 0 {
		return errUnexpectedType
	}

	for d.nesting.Depth() >= targetDepth {
		item, err := d.GetNext()
		if err != nil {
			if err == errNoMoreItems {
				break
			}
			return err
		}
		if item.NestingLevel < targetDepth {
			// The map had already closed before this item was read; it
			// belongs to the enclosing container, not to this search.
			break
		}
		if item.NestingLevel > targetDepth {
			// An item inside a nested container, not an entry of this map.
			continue
		}
		for i := range queries {
			if !queries[i].matchesLabel(&item) {
				continue
			}
			if matched[i] {
				return errDuplicateLabel
			}
			if queries[i].ExpectedType != ItemNone && queries[i].ExpectedType != item.DataType {
				continue
			}
			matched[i] = true
			results[i] = item
		}
	}
	return nil
}
