// Package transactionoutput implements the post-Alonzo (Babbage) map-form
// transaction output: address, value, optional inline/hash datum, and an
// optional reference script.
package transactionoutput

import (
	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/serialization/address"
	"github.com/cardano-go/txforge/serialization/datum"
	"github.com/cardano-go/txforge/serialization/script"
	"github.com/cardano-go/txforge/serialization/value"
)

// Output is a transaction output: `{0: address, 1: value, ?2: datum_option,
// ?3: script_ref}`.
type Output struct {
	Address   address.Address
	Value     value.Value
	Datum     *datum.Option
	ScriptRef *script.Script
}

func New(addr address.Address, v value.Value) Output {
	return Output{Address: addr, Value: v}
}

func (o Output) WithDatum(d datum.Option) Output {
	o.Datum = &d
	return o
}

func (o Output) WithScriptRef(s script.Script) Output {
	o.ScriptRef = &s
	return o
}

// fieldCount reports how many of the optional map entries are present,
// for the map's declared length.
func (o Output) fieldCount() int64 {
	n := int64(2)
	if o.Datum != nil {
		n++
	}
	if o.ScriptRef != nil {
		n++
	}
	return n
}

// Encode writes the output as a definite-length map, keys in ascending
// order (0, 1, 2, 3) as Cardano's canonical form requires.
func (o Output) Encode(w *cbor.Writer) error {
	if err := w.WriteStartMap(o.fieldCount()); err != nil {
		return err
	}
	w.WriteUint(0)
	if err := o.Address.EncodeCBOR(w); err != nil {
		return err
	}
	w.DoneMapEntry()

	w.WriteUint(1)
	if err := o.Value.EncodeCBOR(w); err != nil {
		return err
	}
	w.DoneMapEntry()

	if o.Datum != nil {
		w.WriteUint(2)
		if err := o.Datum.Encode(w); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	if o.ScriptRef != nil {
		w.WriteUint(3)
		inner := cbor.NewWriter()
		if err := encodeScript(inner, *o.ScriptRef); err != nil {
			return err
		}
		w.WriteTag(24)
		w.WriteBytestring(inner.Bytes())
		w.DoneMapEntry()
	}
	return w.WriteEndMap()
}

// encodeScript writes a script as `[language_tag, script_bytes]`, the
// form a script_ref wraps.
func encodeScript(w *cbor.Writer, s script.Script) error {
	if err := w.WriteStartArray(2); err != nil {
		return err
	}
	w.WriteUint(uint64(s.Language))
	switch s.Language {
	case script.LanguageNative:
		inner := cbor.NewWriter()
		if err := s.Native.Encode(inner); err != nil {
			return err
		}
		w.WriteBytestring(inner.Bytes())
	default:
		w.WriteBytestring(s.Compiled)
	}
	return w.WriteEndArray()
}

func decodeScript(r *cbor.Reader) (script.Script, error) {
	if err := cbor.ValidateArrayOfNElements("script_ref", r, 2); err != nil {
		return script.Script{}, err
	}
	lang, err := r.ReadUint()
	if err != nil {
		return script.Script{}, err
	}
	raw, err := r.ReadBytestring()
	if err != nil {
		return script.Script{}, err
	}
	if err := cbor.ValidateEndArray("script_ref", r); err != nil {
		return script.Script{}, err
	}
	if script.Language(lang) == script.LanguageNative {
		inner := cbor.NewReader(raw)
		n, err := script.DecodeNativeScript(inner)
		if err != nil {
			return script.Script{}, err
		}
		return script.NewNative(n), nil
	}
	switch script.Language(lang) {
	case script.LanguagePlutusV1:
		return script.NewPlutusV1(raw), nil
	case script.LanguagePlutusV2:
		return script.NewPlutusV2(raw), nil
	case script.LanguagePlutusV3:
		return script.NewPlutusV3(raw), nil
	default:
		return script.Script{}, &cbor.Error{Kind: cbor.KindInvalidScriptLanguage, Context: "unknown script_ref language tag"}
	}
}

// Decode reads a transaction output in either the legacy array form
// `[address, value, ?datum_hash]` or the post-Alonzo map form.
func Decode(r *cbor.Reader) (Output, error) {
	st, err := r.PeekState()
	if err != nil {
		return Output{}, err
	}
	if st == cbor.StateStartArray {
		return decodeLegacy(r)
	}
	return decodeMap(r)
}

func decodeLegacy(r *cbor.Reader) (Output, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return Output{}, err
	}
	addrBytes, err := r.ReadBytestring()
	if err != nil {
		return Output{}, err
	}
	addr, err := address.FromBytes(addrBytes)
	if err != nil {
		return Output{}, err
	}
	v, err := value.DecodeCBOR(r)
	if err != nil {
		return Output{}, err
	}
	out := New(addr, v)
	if n == 3 || (n == -1 && mustHasMore(r)) {
		h, err := r.ReadBytestring()
		if err != nil {
			return Output{}, err
		}
		var hash [32]byte
		copy(hash[:], h)
		d := datum.NewHash(hash)
		out.Datum = &d
	}
	if err := r.ReadEndArray(); err != nil {
		return Output{}, err
	}
	return out, nil
}

func mustHasMore(r *cbor.Reader) bool {
	st, err := r.PeekState()
	if err != nil {
		return false
	}
	return st != cbor.StateEndArray
}

func decodeMap(r *cbor.Reader) (Output, error) {
	n, err := r.ReadStartMap()
	if err != nil {
		return Output{}, err
	}
	var out Output
	count := n
	indef := n == -1
	for indef || count > 0 {
		if indef {
			st, err := r.PeekState()
			if err != nil {
				return Output{}, err
			}
			if st == cbor.StateEndMap {
				break
			}
		}
		keyStart := r.Offset()
		key, err := r.ReadUint()
		if err != nil {
			return Output{}, err
		}
		if err := r.MarkMapKey(keyStart); err != nil {
			return Output{}, err
		}
		switch key {
		case 0:
			addrBytes, err := r.ReadBytestring()
			if err != nil {
				return Output{}, err
			}
			addr, err := address.FromBytes(addrBytes)
			if err != nil {
				return Output{}, err
			}
			out.Address = addr
		case 1:
			v, err := value.DecodeCBOR(r)
			if err != nil {
				return Output{}, err
			}
			out.Value = v
		case 2:
			d, err := datum.Decode(r)
			if err != nil {
				return Output{}, err
			}
			out.Datum = &d
		case 3:
			if _, err := r.ReadTag(); err != nil {
				return Output{}, err
			}
			raw, err := r.ReadBytestring()
			if err != nil {
				return Output{}, err
			}
			inner := cbor.NewReader(raw)
			s, err := decodeScript(inner)
			if err != nil {
				return Output{}, err
			}
			out.ScriptRef = &s
		default:
			return Output{}, &cbor.Error{Kind: cbor.KindInvalidMapKey, Context: "unrecognized transaction output field key"}
		}
		r.DoneMapEntry()
		if !indef {
			count--
		}
	}
	if err := r.ReadEndMap(); err != nil {
		return Output{}, err
	}
	return out, nil
}
