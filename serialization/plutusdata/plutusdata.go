// Package plutusdata implements the recursive Plutus Data sum type
// {Constr, Map, List, Integer, Bytes} with 64-byte indefinite-length
// chunking for oversized byte strings/bignums and byte-exact
// preservation of a decoded node's original received encoding, which
// on-chain datum/redeemer hashes depend on.
package plutusdata

import (
	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/cbor/bigint"
)

// Kind discriminates the PlutusData sum type.
type Kind int

const (
	KindConstr Kind = iota
	KindMap
	KindList
	KindInteger
	KindBytes
)

// Entry is a key/value pair inside a Plutus Map node. Order is
// preserved as constructed or decoded; Map nodes are not canonically
// sorted the way Value's multi-asset map is.
type Entry struct {
	Key   PlutusData
	Value PlutusData
}

// PlutusData is the Plutus Data sum type. The zero value is not valid;
// use the New* constructors or Decode.
type PlutusData struct {
	kind      Kind
	constrTag uint64
	fields    []PlutusData // Constr, List
	entries   []Entry      // Map
	integer   *bigint.Int
	bytes     []byte

	cache []byte // exact received CBOR bytes, if decoded; nil once invalidated
}

// NewConstr builds a constructor application with the given alternative
// tag and ordered fields.
func NewConstr(tag uint64, fields ...PlutusData) PlutusData {
	return PlutusData{kind: KindConstr, constrTag: tag, fields: fields}
}

// NewMap builds a Plutus Map node from ordered key/value entries.
func NewMap(entries ...Entry) PlutusData {
	return PlutusData{kind: KindMap, entries: entries}
}

// NewList builds a Plutus List node.
func NewList(items ...PlutusData) PlutusData {
	return PlutusData{kind: KindList, fields: items}
}

// NewInteger builds a Plutus Integer node.
func NewInteger(v *bigint.Int) PlutusData {
	return PlutusData{kind: KindInteger, integer: v}
}

// NewIntegerFromInt64 is a convenience wrapper over NewInteger.
func NewIntegerFromInt64(v int64) PlutusData {
	return NewInteger(bigint.FromInt64(v))
}

// NewBytes builds a Plutus Bytes node.
func NewBytes(b []byte) PlutusData {
	cp := make([]byte, len(b))
	copy(cp, b)
	return PlutusData{kind: KindBytes, bytes: cp}
}

// Kind returns the node's discriminant.
func (p PlutusData) Kind() Kind { return p.kind }

// ConstrTag returns the constructor alternative (KindConstr only).
func (p PlutusData) ConstrTag() uint64 { return p.constrTag }

// Fields returns the ordered fields of a Constr or items of a List.
func (p PlutusData) Fields() []PlutusData { return p.fields }

// Entries returns the ordered entries of a Map.
func (p PlutusData) Entries() []Entry { return p.entries }

// Integer returns the integer value (KindInteger only).
func (p PlutusData) Integer() *bigint.Int { return p.integer }

// Bytes returns the raw byte payload (KindBytes only).
func (p PlutusData) Bytes() []byte { return p.bytes }

// Cache returns the exact received CBOR bytes for this node, or nil if
// the node was constructed fresh or had its cache cleared.
func (p PlutusData) Cache() []byte { return p.cache }

// ClearCache invalidates this node's cached bytes and recurses into
// children, per the contract that any mutation invalidates the cache
// through the whole subtree rooted at the mutated node.
func (p *PlutusData) ClearCache() {
	p.cache = nil
	for i := range p.fields {
		p.fields[i].ClearCache()
	}
	for i := range p.entries {
		p.entries[i].Key.ClearCache()
		p.entries[i].Value.ClearCache()
	}
}

// SetField replaces field i of a Constr/List node, invalidating cache.
func (p *PlutusData) SetField(i int, v PlutusData) {
	p.fields[i] = v
	p.cache = nil
}

// AppendField appends a field to a Constr/List node, invalidating cache.
func (p *PlutusData) AppendField(v PlutusData) {
	p.fields = append(p.fields, v)
	p.cache = nil
}

// Equal reports deep structural equality: same kind, same constructor
// tag, same integer magnitude+sign, same byte content, and recursively
// equal children in the same order. Cached raw bytes are not compared.
func Equal(a, b PlutusData) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindInteger:
		return bigint.Equal(a.integer, b.integer)
	case KindBytes:
		if len(a.bytes) != len(b.bytes) {
			return false
		}
		for i := range a.bytes {
			if a.bytes[i] != b.bytes[i] {
				return false
			}
		}
		return true
	case KindConstr:
		if a.constrTag != b.constrTag || len(a.fields) != len(b.fields) {
			return false
		}
		for i := range a.fields {
			if !Equal(a.fields[i], b.fields[i]) {
				return false
			}
		}
		return true
	case KindList:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for i := range a.fields {
			if !Equal(a.fields[i], b.fields[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.entries) != len(b.entries) {
			return false
		}
		for i := range a.entries {
			if !Equal(a.entries[i].Key, b.entries[i].Key) || !Equal(a.entries[i].Value, b.entries[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

const (
	tagConstr0    = 121 // alt 0..6 -> 121+alt
	tagConstr0Max = 127
	tagConstr7    = 1280 // alt 7..127 -> 1280+(alt-7)
	tagConstr7Max = 1400
	tagConstrGen  = 102 // [alt, fields] generic form
	tagBigUint    = 2
	tagBigNint    = 3
)

// Encode writes p to w. If p carries a cache of its exact received
// bytes, those are emitted verbatim so the re-encoding matches the
// original producer's (possibly non-canonical) choice of definite vs
// indefinite form and integer width.
func (p PlutusData) Encode(w *cbor.Writer) error {
	if p.cache != nil {
		w.WriteEncoded(p.cache)
		return nil
	}
	return p.encodeFresh(w)
}

func (p PlutusData) encodeFresh(w *cbor.Writer) error {
	switch p.kind {
	case KindInteger:
		encodeInteger(w, p.integer)
		return nil
	case KindBytes:
		encodeChunkedBytes(w, p.bytes)
		return nil
	case KindList:
		if err := w.WriteStartArray(int64(len(p.fields))); err != nil {
			return err
		}
		for _, f := range p.fields {
			if err := f.Encode(w); err != nil {
				return err
			}
		}
		return w.WriteEndArray()
	case KindMap:
		if err := w.WriteStartMap(int64(len(p.entries))); err != nil {
			return err
		}
		for _, e := range p.entries {
			if err := e.Key.Encode(w); err != nil {
				return err
			}
			if err := e.Value.Encode(w); err != nil {
				return err
			}
			w.DoneMapEntry()
		}
		return w.WriteEndMap()
	case KindConstr:
		switch {
		case p.constrTag <= 6:
			w.WriteTag(tagConstr0 + p.constrTag)
		case p.constrTag <= 127:
			w.WriteTag(tagConstr7 + (p.constrTag - 7))
		default:
			w.WriteTag(tagConstrGen)
			if err := w.WriteStartArray(2); err != nil {
				return err
			}
			w.WriteUint(p.constrTag)
			if err := (PlutusData{kind: KindList, fields: p.fields}).encodeFresh(w); err != nil {
				return err
			}
			return w.WriteEndArray()
		}
		return (PlutusData{kind: KindList, fields: p.fields}).encodeFresh(w)
	default:
		return &cbor.Error{Kind: cbor.KindEncoding, Context: "invalid PlutusData zero value"}
	}
}

func encodeInteger(w *cbor.Writer, v *bigint.Int) {
	if v.IsInt64() {
		w.WriteSignedInt(v.Int64())
		return
	}
	neg, mag := v.Magnitude()
	w.WriteBigintMagnitude(neg, mag)
}

// encodeChunkedBytes applies the Plutus 64-byte chunking rule: a byte
// string longer than 64 bytes is emitted as an indefinite-length byte
// string made of 64-byte chunks plus a final tail chunk.
func encodeChunkedBytes(w *cbor.Writer, b []byte) {
	if len(b) <= 64 {
		w.WriteBytestring(b)
		return
	}
	w.WriteIndefiniteBytestringChunks(b, 64)
}

// Decode reads the next PlutusData item from r, caching its exact
// received byte range so Encode can reproduce it verbatim.
func Decode(r *cbor.Reader) (PlutusData, error) {
	start := r.Offset()
	p, err := decodeNode(r)
	if err != nil {
		return PlutusData{}, err
	}
	p.cache = r.RawSlice(start, r.Offset())
	return p, nil
}

func decodeNode(r *cbor.Reader) (PlutusData, error) {
	st, err := r.PeekState()
	if err != nil {
		return PlutusData{}, err
	}
	switch st {
	case cbor.StateUnsignedInt, cbor.StateNegativeInt:
		neg, mag, err := r.ReadBigint()
		if err != nil {
			return PlutusData{}, err
		}
		return PlutusData{kind: KindInteger, integer: bigint.FromMagnitude(neg, mag)}, nil
	case cbor.StateByteString, cbor.StateStartIndefByteString:
		b, err := r.ReadBytestring()
		if err != nil {
			return PlutusData{}, err
		}
		return PlutusData{kind: KindBytes, bytes: b}, nil
	case cbor.StateStartArray:
		return decodeList(r)
	case cbor.StateStartMap:
		return decodeMap(r)
	case cbor.StateTag:
		return decodeTagged(r)
	default:
		return PlutusData{}, &cbor.Error{Kind: cbor.KindDecoding, Context: "unexpected CBOR item in Plutus data position"}
	}
}

func decodeList(r *cbor.Reader) (PlutusData, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return PlutusData{}, err
	}
	var items []PlutusData
	for i := int64(0); n == -1 || i < n; i++ {
		if n == -1 {
			st, err := r.PeekState()
			if err != nil {
				return PlutusData{}, err
			}
			if st == cbor.StateEndArray {
				break
			}
		}
		item, err := decodeNode(r)
		if err != nil {
			return PlutusData{}, err
		}
		items = append(items, item)
	}
	if err := r.ReadEndArray(); err != nil {
		return PlutusData{}, err
	}
	return PlutusData{kind: KindList, fields: items}, nil
}

func decodeMap(r *cbor.Reader) (PlutusData, error) {
	n, err := r.ReadStartMap()
	if err != nil {
		return PlutusData{}, err
	}
	var entries []Entry
	for i := int64(0); n == -1 || i < n; i++ {
		if n == -1 {
			st, err := r.PeekState()
			if err != nil {
				return PlutusData{}, err
			}
			if st == cbor.StateEndMap {
				break
			}
		}
		k, err := decodeNode(r)
		if err != nil {
			return PlutusData{}, err
		}
		v, err := decodeNode(r)
		if err != nil {
			return PlutusData{}, err
		}
		r.DoneMapEntry()
		entries = append(entries, Entry{Key: k, Value: v})
	}
	if err := r.ReadEndMap(); err != nil {
		return PlutusData{}, err
	}
	return PlutusData{kind: KindMap, entries: entries}, nil
}

func decodeTagged(r *cbor.Reader) (PlutusData, error) {
	tag, err := r.PeekTag()
	if err != nil {
		return PlutusData{}, err
	}
	switch {
	case tag == tagBigUint || tag == tagBigNint:
		neg, mag, err := r.ReadBigint()
		if err != nil {
			return PlutusData{}, err
		}
		return PlutusData{kind: KindInteger, integer: bigint.FromMagnitude(neg, mag)}, nil
	case tag >= tagConstr0 && tag <= tagConstr0Max:
		if _, err := r.ReadTag(); err != nil {
			return PlutusData{}, err
		}
		list, err := decodeList(r)
		if err != nil {
			return PlutusData{}, err
		}
		return PlutusData{kind: KindConstr, constrTag: tag - tagConstr0, fields: list.fields}, nil
	case tag >= tagConstr7 && tag <= tagConstr7Max:
		if _, err := r.ReadTag(); err != nil {
			return PlutusData{}, err
		}
		list, err := decodeList(r)
		if err != nil {
			return PlutusData{}, err
		}
		return PlutusData{kind: KindConstr, constrTag: tag - tagConstr7 + 7, fields: list.fields}, nil
	case tag == tagConstrGen:
		if _, err := r.ReadTag(); err != nil {
			return PlutusData{}, err
		}
		if err := cbor.ValidateArrayOfNElements("plutus_constr_generic", r, 2); err != nil {
			return PlutusData{}, err
		}
		alt, err := r.ReadUint()
		if err != nil {
			return PlutusData{}, err
		}
		list, err := decodeList(r)
		if err != nil {
			return PlutusData{}, err
		}
		if err := cbor.ValidateEndArray("plutus_constr_generic", r); err != nil {
			return PlutusData{}, err
		}
		return PlutusData{kind: KindConstr, constrTag: alt, fields: list.fields}, nil
	default:
		return PlutusData{}, &cbor.Error{Kind: cbor.KindDecoding, Context: "unsupported Plutus data tag"}
	}
}
