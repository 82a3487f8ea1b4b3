package cbor

import (
	"bytes"
	"sort"
)

// AddMapDeterministic is the §4.13-style additive helper: given a set
// of already-encoded (key, value) pairs, it opens a map on e, emits
// the pairs sorted by RFC 8949 §4.2.1's bytewise-lexicographic-on-
// encoded-key rule, and closes the map. It never re-encodes a pair --
// only AddEncoded, inside an OpenMap/CloseMap bracket -- so it composes
// with everything else an Encoder can do (nested containers, tags,
// interleaved non-deterministic maps at other levels of the same
// document).
func AddMapDeterministic(e *Encoder, pairs []RawPair) {
	ordered := make([]RawPair, len(pairs))
	copy(ordered, pairs)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i].Key, ordered[j].Key) < 0
	})
	e.OpenMap()
	for _, p := range ordered {
		e.AddEncoded(p.Key)
		e.AddEncoded(p.Value)
	}
	e.CloseMap()
}

// MapDeterministic encodes m's keys and values with encKey/encVal --
// each called with a nil dst to produce one standalone encoded item,
// following the EncKeyXxx/EncValXxx convention in write_bytes.go --
// then adds the resulting pairs to e via AddMapDeterministic.
func MapDeterministic[K comparable, V any](e *Encoder, m map[K]V,
	encKey func(dst []byte, k K) []byte,
	encVal func(dst []byte, v V) ([]byte, error),
) error {
	pairs := make([]RawPair, 0, len(m))
	for k, v := range m {
		val, err := encVal(nil, v)
		if err != nil {
			return err
		}
		pairs = append(pairs, RawPair{Key: encKey(nil, k), Value: val})
	}
	AddMapDeterministic(e, pairs)
	return nil
}

// AddMapStrStrDeterministic adds m to e as a deterministically
// ordered CBOR map of text-string keys and values.
func AddMapStrStrDeterministic(e *Encoder, m map[string]string) {
	_ = MapDeterministic(e, m, EncKeyString, EncValString)
}

// AddMapStrInt64Deterministic adds m to e as a deterministically
// ordered CBOR map of text-string keys to signed integers.
func AddMapStrInt64Deterministic(e *Encoder, m map[string]int64) {
	_ = MapDeterministic(e, m, EncKeyString, EncValInt64)
}

// AddMapStrUint64Deterministic adds m to e as a deterministically
// ordered CBOR map of text-string keys to unsigned integers.
func AddMapStrUint64Deterministic(e *Encoder, m map[string]uint64) {
	_ = MapDeterministic(e, m, EncKeyString, EncValUint64)
}

// AddMapStrBoolDeterministic adds m to e as a deterministically
// ordered CBOR map of text-string keys to booleans.
func AddMapStrBoolDeterministic(e *Encoder, m map[string]bool) {
	_ = MapDeterministic(e, m, EncKeyString, EncValBool)
}

// AddMapStrFloat64Deterministic adds m to e as a deterministically
// ordered CBOR map of text-string keys to doubles.
func AddMapStrFloat64Deterministic(e *Encoder, m map[string]float64) {
	_ = MapDeterministic(e, m, EncKeyString, EncValFloat64)
}

// AddMapStrBytesDeterministic adds m to e as a deterministically
// ordered CBOR map of text-string keys to byte strings.
func AddMapStrBytesDeterministic(e *Encoder, m map[string][]byte) {
	_ = MapDeterministic(e, m, EncKeyString, EncValBytes)
}

// AddMapStrInterfaceDeterministic adds m to e as a deterministically
// ordered CBOR map of text-string keys to arbitrary reflected values,
// reporting the first reflection error AppendInterface hits, if any.
func AddMapStrInterfaceDeterministic(e *Encoder, m map[string]any) error {
	return MapDeterministic(e, m, EncKeyString, EncValInterface)
}
