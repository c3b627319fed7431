// Package metadata implements transaction metadata: the recursive
// Metadatum value {Int, Bytes, Text, List, Map} bounded per protocol
// rules, and the auxiliary-data wrapper that bundles metadata with any
// scripts carried alongside a transaction.
package metadata

import (
	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/cbor/bigint"
	"github.com/cardano-go/txforge/serialization/script"
)

// maxBoundedSize is the protocol limit on a metadatum text or byte
// string: 64 bytes per chunk, matching the Plutus chunking constant.
const maxBoundedSize = 64

// Kind discriminates the Metadatum sum type.
type Kind int

const (
	KindInt Kind = iota
	KindBytes
	KindText
	KindList
	KindMap
)

// Pair is a key/value entry inside a Metadatum map.
type Pair struct {
	Key   Metadatum
	Value Metadatum
}

// Metadatum is the recursive transaction-metadata value type.
type Metadatum struct {
	kind    Kind
	integer *bigint.Int
	bytes   []byte
	text    string
	items   []Metadatum
	pairs   []Pair
}

func NewInt(v int64) Metadatum              { return Metadatum{kind: KindInt, integer: bigint.FromInt64(v)} }
func NewBigInt(v *bigint.Int) Metadatum     { return Metadatum{kind: KindInt, integer: v} }
func NewList(items ...Metadatum) Metadatum  { return Metadatum{kind: KindList, items: items} }
func NewMap(pairs ...Pair) Metadatum        { return Metadatum{kind: KindMap, pairs: pairs} }

// NewBytes builds a bounded byte-string metadatum; b must be at most
// 64 bytes (split into a list of chunks at a higher level if longer).
func NewBytes(b []byte) (Metadatum, error) {
	if len(b) > maxBoundedSize {
		return Metadatum{}, &cbor.Error{Kind: cbor.KindInvalidMetadatumBoundedBytesSize, Context: "metadatum byte string exceeds 64 bytes"}
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return Metadatum{kind: KindBytes, bytes: cp}, nil
}

// NewText builds a bounded text-string metadatum; s must be at most
// 64 bytes when UTF-8 encoded.
func NewText(s string) (Metadatum, error) {
	if len(s) > maxBoundedSize {
		return Metadatum{}, &cbor.Error{Kind: cbor.KindInvalidMetadatumTextStringSize, Context: "metadatum text string exceeds 64 bytes"}
	}
	return Metadatum{kind: KindText, text: s}, nil
}

func (m Metadatum) Kind() Kind { return m.kind }

func (m Metadatum) Encode(w *cbor.Writer) error {
	switch m.kind {
	case KindInt:
		if m.integer.IsInt64() {
			w.WriteSignedInt(m.integer.Int64())
			return nil
		}
		neg, mag := m.integer.Magnitude()
		w.WriteBigintMagnitude(neg, mag)
		return nil
	case KindBytes:
		w.WriteBytestring(m.bytes)
		return nil
	case KindText:
		w.WriteTextstring(m.text)
		return nil
	case KindList:
		// Non-empty lists use indefinite length; empty lists use an
		// explicit zero-length array. This intentional asymmetry
		// matches the canonical metadata encoder's list form.
		length := int64(-1)
		if len(m.items) == 0 {
			length = 0
		}
		if err := w.WriteStartArray(length); err != nil {
			return err
		}
		for _, item := range m.items {
			if err := item.Encode(w); err != nil {
				return err
			}
		}
		return w.WriteEndArray()
	case KindMap:
		if err := w.WriteStartMap(int64(len(m.pairs))); err != nil {
			return err
		}
		for _, p := range m.pairs {
			if err := p.Key.Encode(w); err != nil {
				return err
			}
			if err := p.Value.Encode(w); err != nil {
				return err
			}
			w.DoneMapEntry()
		}
		return w.WriteEndMap()
	default:
		return &cbor.Error{Kind: cbor.KindInvalidMetadatumConversion, Context: "invalid metadatum zero value"}
	}
}

func DecodeMetadatum(r *cbor.Reader) (Metadatum, error) {
	st, err := r.PeekState()
	if err != nil {
		return Metadatum{}, err
	}
	switch st {
	case cbor.StateUnsignedInt, cbor.StateNegativeInt:
		neg, mag, err := r.ReadBigint()
		if err != nil {
			return Metadatum{}, err
		}
		return Metadatum{kind: KindInt, integer: bigint.FromMagnitude(neg, mag)}, nil
	case cbor.StateByteString, cbor.StateStartIndefByteString:
		b, err := r.ReadBytestring()
		if err != nil {
			return Metadatum{}, err
		}
		return Metadatum{kind: KindBytes, bytes: b}, nil
	case cbor.StateTextString, cbor.StateStartIndefTextString:
		s, err := r.ReadTextstring()
		if err != nil {
			return Metadatum{}, err
		}
		return Metadatum{kind: KindText, text: s}, nil
	case cbor.StateStartArray:
		n, err := r.ReadStartArray()
		if err != nil {
			return Metadatum{}, err
		}
		var items []Metadatum
		for i := int64(0); n == -1 || i < n; i++ {
			if n == -1 {
				st, err := r.PeekState()
				if err != nil {
					return Metadatum{}, err
				}
				if st == cbor.StateEndArray {
					break
				}
			}
			item, err := DecodeMetadatum(r)
			if err != nil {
				return Metadatum{}, err
			}
			items = append(items, item)
		}
		if err := r.ReadEndArray(); err != nil {
			return Metadatum{}, err
		}
		return Metadatum{kind: KindList, items: items}, nil
	case cbor.StateStartMap:
		n, err := r.ReadStartMap()
		if err != nil {
			return Metadatum{}, err
		}
		var pairs []Pair
		for i := int64(0); n == -1 || i < n; i++ {
			if n == -1 {
				st, err := r.PeekState()
				if err != nil {
					return Metadatum{}, err
				}
				if st == cbor.StateEndMap {
					break
				}
			}
			keyStart := r.Offset()
			k, err := DecodeMetadatum(r)
			if err != nil {
				return Metadatum{}, err
			}
			if err := r.MarkMapKey(keyStart); err != nil {
				return Metadatum{}, err
			}
			v, err := DecodeMetadatum(r)
			if err != nil {
				return Metadatum{}, err
			}
			r.DoneMapEntry()
			pairs = append(pairs, Pair{Key: k, Value: v})
		}
		if err := r.ReadEndMap(); err != nil {
			return Metadatum{}, err
		}
		return Metadatum{kind: KindMap, pairs: pairs}, nil
	default:
		return Metadatum{}, &cbor.Error{Kind: cbor.KindInvalidMetadatumConversion, Context: "unexpected CBOR item in metadatum position"}
	}
}

// AuxiliaryData is the tag-259 map bundling transaction metadata with
// any scripts submitted alongside the transaction: key 0 holds the
// metadata label map, keys 1-4 hold native/PlutusV1/V2/V3 scripts.
type AuxiliaryData struct {
	Labels      map[uint64]Metadatum
	NativeScripts []script.NativeScript
	PlutusV1    [][]byte
	PlutusV2    [][]byte
	PlutusV3    [][]byte
}

func (a AuxiliaryData) fieldCount() int64 {
	var n int64
	if len(a.Labels) > 0 {
		n++
	}
	if len(a.NativeScripts) > 0 {
		n++
	}
	if len(a.PlutusV1) > 0 {
		n++
	}
	if len(a.PlutusV2) > 0 {
		n++
	}
	if len(a.PlutusV3) > 0 {
		n++
	}
	return n
}

// Encode writes the auxiliary data as tag 259 wrapping a map, keys in
// ascending order.
func (a AuxiliaryData) Encode(w *cbor.Writer) error {
	w.WriteTag(259)
	if err := w.WriteStartMap(a.fieldCount()); err != nil {
		return err
	}
	if len(a.Labels) > 0 {
		w.WriteUint(0)
		if err := encodeLabels(w, a.Labels); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	if len(a.NativeScripts) > 0 {
		w.WriteUint(1)
		if err := w.WriteStartArray(int64(len(a.NativeScripts))); err != nil {
			return err
		}
		for _, s := range a.NativeScripts {
			if err := s.Encode(w); err != nil {
				return err
			}
		}
		if err := w.WriteEndArray(); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	for _, ks := range []struct {
		key     uint64
		scripts [][]byte
	}{{2, a.PlutusV1}, {3, a.PlutusV2}, {4, a.PlutusV3}} {
		key, scripts := ks.key, ks.scripts
		if len(scripts) == 0 {
			continue
		}
		w.WriteUint(key)
		if err := w.WriteStartArray(int64(len(scripts))); err != nil {
			return err
		}
		for _, s := range scripts {
			w.WriteBytestring(s)
		}
		if err := w.WriteEndArray(); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	return w.WriteEndMap()
}

// Decode reads the tag-259 auxiliary data map.
func Decode(r *cbor.Reader) (AuxiliaryData, error) {
	tag, err := r.ReadTag()
	if err != nil {
		return AuxiliaryData{}, err
	}
	if tag != 259 {
		return AuxiliaryData{}, &cbor.Error{Kind: cbor.KindInvalidMetadatumConversion, Context: "auxiliary data must be wrapped in tag 259"}
	}
	n, err := r.ReadStartMap()
	if err != nil {
		return AuxiliaryData{}, err
	}
	var out AuxiliaryData
	count := n
	indef := n == -1
	for indef || count > 0 {
		if indef {
			st, err := r.PeekState()
			if err != nil {
				return AuxiliaryData{}, err
			}
			if st == cbor.StateEndMap {
				break
			}
		}
		keyStart := r.Offset()
		key, err := r.ReadUint()
		if err != nil {
			return AuxiliaryData{}, err
		}
		if err := r.MarkMapKey(keyStart); err != nil {
			return AuxiliaryData{}, err
		}
		switch key {
		case 0:
			labels, err := decodeLabels(r)
			if err != nil {
				return AuxiliaryData{}, err
			}
			out.Labels = labels
		case 1:
			scripts, err := decodeNativeScriptList(r)
			if err != nil {
				return AuxiliaryData{}, err
			}
			out.NativeScripts = scripts
		case 2:
			items, err := decodeByteList(r)
			if err != nil {
				return AuxiliaryData{}, err
			}
			out.PlutusV1 = items
		case 3:
			items, err := decodeByteList(r)
			if err != nil {
				return AuxiliaryData{}, err
			}
			out.PlutusV2 = items
		case 4:
			items, err := decodeByteList(r)
			if err != nil {
				return AuxiliaryData{}, err
			}
			out.PlutusV3 = items
		default:
			return AuxiliaryData{}, &cbor.Error{Kind: cbor.KindInvalidMapKey, Context: "unrecognized auxiliary data field key"}
		}
		r.DoneMapEntry()
		if !indef {
			count--
		}
	}
	if err := r.ReadEndMap(); err != nil {
		return AuxiliaryData{}, err
	}
	return out, nil
}

func decodeLabels(r *cbor.Reader) (map[uint64]Metadatum, error) {
	n, err := r.ReadStartMap()
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]Metadatum)
	count := n
	indef := n == -1
	for indef || count > 0 {
		if indef {
			st, err := r.PeekState()
			if err != nil {
				return nil, err
			}
			if st == cbor.StateEndMap {
				break
			}
		}
		labelStart := r.Offset()
		label, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		if err := r.MarkMapKey(labelStart); err != nil {
			return nil, err
		}
		m, err := DecodeMetadatum(r)
		if err != nil {
			return nil, err
		}
		out[label] = m
		r.DoneMapEntry()
		if !indef {
			count--
		}
	}
	if err := r.ReadEndMap(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeNativeScriptList(r *cbor.Reader) ([]script.NativeScript, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return nil, err
	}
	var out []script.NativeScript
	for i := int64(0); n == -1 || i < n; i++ {
		if n == -1 {
			st, err := r.PeekState()
			if err != nil {
				return nil, err
			}
			if st == cbor.StateEndArray {
				break
			}
		}
		s, err := script.DecodeNativeScript(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := r.ReadEndArray(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeByteList(r *cbor.Reader) ([][]byte, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for i := int64(0); n == -1 || i < n; i++ {
		if n == -1 {
			st, err := r.PeekState()
			if err != nil {
				return nil, err
			}
			if st == cbor.StateEndArray {
				break
			}
		}
		b, err := r.ReadBytestring()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := r.ReadEndArray(); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeLabels(w *cbor.Writer, labels map[uint64]Metadatum) error {
	keys := make([]uint64, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	if err := w.WriteStartMap(int64(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		w.WriteUint(k)
		if err := labels[k].Encode(w); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	return w.WriteEndMap()
}
