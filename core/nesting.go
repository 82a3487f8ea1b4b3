package cbor

// DefaultMaxNestingDepth is the default bound on the encoder/decoder
// nesting stacks. Callers may raise it up to MaxNestingDepthCap.
const DefaultMaxNestingDepth = 10

// MaxNestingDepthCap is the hard upper bound on nesting depth; frame
// indices are stored in a byte-sized counter in the original design.
const MaxNestingDepthCap = 255

// maxContainerItems is the largest item/pair count a single array or
// map frame may accumulate before ArrayTooLong is raised.
const maxContainerItems = 65535

// encodeFrame is one entry in the encoder's nesting stack: the state
// needed to back-patch a container's head once its final count is
// known.
type encodeFrame struct {
	majorType  uint8
	headOffset int // offset of the reserved 1-byte head in the OutBuf
	count      int // raw item count (pairs counted twice for maps until Close)
}

// EncodeNesting is the encoder's bounded stack of open-container
// frames. The zero value is usable with DefaultMaxNestingDepth.
type EncodeNesting struct {
	frames  []encodeFrame
	maxSize int
}

// NewEncodeNesting returns a nesting tracker bounded to maxDepth frames.
// maxDepth <= 0 selects DefaultMaxNestingDepth; it is clamped to
// MaxNestingDepthCap.
func NewEncodeNesting(maxDepth int) *EncodeNesting {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxNestingDepth
	}
	if maxDepth > MaxNestingDepthCap {
		maxDepth = MaxNestingDepthCap
	}
	return &EncodeNesting{frames: make([]encodeFrame, 0, maxDepth), maxSize: maxDepth}
}

// Depth returns the number of currently open containers.
func (n *EncodeNesting) Depth() int { return len(n.frames) }

// top returns a pointer to the current frame, or nil if none is open.
func (n *EncodeNesting) top() *encodeFrame {
	if len(n.frames) == 0 {
		return nil
	}
	return &n.frames[len(n.frames)-1]
}

// Open pushes a new frame for majorType at headOffset (the position of
// the reserved one-byte head placeholder). It returns ArrayNestingTooDeep
// if the stack is already at capacity.
func (n *EncodeNesting) Open(majorType uint8, headOffset int) error {
	if len(n.frames) >= n.maxSize {
		return errArrayNestingTooDeep
	}
	n.frames = append(n.frames, encodeFrame{majorType: majorType, headOffset: headOffset})
	return nil
}

// Increment records one atomic addition against the current frame, if
// any open frame exists. It returns ArrayTooLong if the frame's raw
// count would exceed maxContainerItems.
func (n *EncodeNesting) Increment() error {
	f := n.top()
	if f == nil {
		return nil // top-level additions aren't tracked by any frame
	}
	if f.count >= maxContainerItems {
		return errArrayTooLong
	}
	f.count++
	return nil
}

// closeResult carries what the encoder needs to finish emitting a
// container's final head after Close computes it.
type closeResult struct {
	headOffset  int
	encodedArg  uint64
	contentsLen int // for byte-string-wrap: length of the wrapped payload
}

// Close pops the current frame, verifying it matches expectedMajor.
// It returns the information the caller needs to back-patch the
// container's head (the encoded argument, i.e. the minimal count or,
// for byte-string-wrap, the payload length) and, on success, the caller
// must still call Increment on the new top to count the just-closed
// container as one item of its parent.
func (n *EncodeNesting) Close(expectedMajor uint8, currentPos int) (closeResult, error) {
	if len(n.frames) == 0 {
		return closeResult{}, errTooManyCloses
	}
	f := n.frames[len(n.frames)-1]
	if f.majorType != expectedMajor {
		return closeResult{}, errCloseMismatch
	}
	n.frames = n.frames[:len(n.frames)-1]

	var arg uint64
	switch f.majorType {
	case majorTypeArray:
		arg = uint64(f.count)
	case majorTypeMap:
		// count tracks items, not pairs; a well-formed map always adds
		// an even number of items (label, value per Increment call).
		arg = uint64(f.count / 2)
	case majorTypeBytes:
		arg = uint64(currentPos - (f.headOffset + 1))
	}
	return closeResult{headOffset: f.headOffset, encodedArg: arg, contentsLen: currentPos - (f.headOffset + 1)}, nil
}

// decodeFrame is one entry in the decoder's nesting stack.
type decodeFrame struct {
	majorType   uint8
	remaining   int // items left to consume; for maps this counts items (2x pairs)
	savedCount  int // original remaining, for rewind/enter-map
	indefinite  bool
	headOffset  int // byte offset just past the container head (its first entry), for seek-based rewind
}

// DecodeNesting is the decoder's bounded stack of entered-container
// frames.
type DecodeNesting struct {
	frames  []decodeFrame
	maxSize int
}

// NewDecodeNesting returns a nesting tracker bounded to maxDepth frames.
func NewDecodeNesting(maxDepth int) *DecodeNesting {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxNestingDepth
	}
	if maxDepth > MaxNestingDepthCap {
		maxDepth = MaxNestingDepthCap
	}
	return &DecodeNesting{frames: make([]decodeFrame, 0, maxDepth), maxSize: maxDepth}
}

// Depth returns the current nesting depth (0 = top level).
func (n *DecodeNesting) Depth() int { return len(n.frames) }

func (n *DecodeNesting) top() *decodeFrame {
	if len(n.frames) == 0 {
		return nil
	}
	return &n.frames[len(n.frames)-1]
}

// Descend pushes a new frame for an entered array/map.
func (n *DecodeNesting) Descend(majorType uint8, count int, indefinite bool, headOffset int) error {
	if len(n.frames) >= n.maxSize {
		return errArrayNestingTooDeep
	}
	n.frames = append(n.frames, decodeFrame{
		majorType:  majorType,
		remaining:  count,
		savedCount: count,
		indefinite: indefinite,
		headOffset: headOffset,
	})
	return nil
}

// DecrementTop decrements the current frame's remaining-items counter
// by one, reporting whether the frame has now reached zero. It is a
// no-op (returns false) at top level.
func (n *DecodeNesting) DecrementTop() bool {
	f := n.top()
	if f == nil {
		return false
	}
	if f.remaining > 0 {
		f.remaining--
	}
	return f.remaining == 0 && !f.indefinite
}

// Ascend pops the current frame. It is the caller's responsibility to
// have confirmed the frame is ready to close (definite-length and
// zeroed, or an explicit break for indefinite-length).
func (n *DecodeNesting) Ascend() {
	if len(n.frames) > 0 {
		n.frames = n.frames[:len(n.frames)-1]
	}
}

// CurrentIsMapMode reports whether the current frame is a map being
// traversed in item-count (not pair) units, i.e. every DecrementTop
// call corresponds to one label-or-value item.
func (n *DecodeNesting) CurrentIsMapMode() bool {
	f := n.top()
	return f != nil && f.majorType == majorTypeMap
}

// CurrentRemainingZero reports whether the current frame's remaining
// counter has reached zero (used by the traversal state machine's
// map-mode NoMoreItems check).
func (n *DecodeNesting) CurrentRemainingZero() bool {
	f := n.top()
	return f != nil && !f.indefinite && f.remaining == 0
}

// CurrentIndefinite reports whether the current frame was opened as an
// indefinite-length container (and therefore expects a break byte,
// not a zeroed counter, to close).
func (n *DecodeNesting) CurrentIndefinite() bool {
	f := n.top()
	return f != nil && f.indefinite
}

// EnterMapMode rewinds the current map frame's remaining count to its
// saved initial count, for the map-search/enter-map auxiliary layer to
// iterate it again from the start. It returns the offset of the map's
// first entry and its original item count, so the caller can seek InBuf there and,
// later, reconstruct the frame after a full search drains and pops it.
func (n *DecodeNesting) EnterMapMode() (headOffset, count int, ok bool) {
	f := n.top()
	if f == nil || f.majorType != majorTypeMap {
		return 0, 0, false
	}
	f.remaining = f.savedCount
	return f.headOffset, f.savedCount, true
}
