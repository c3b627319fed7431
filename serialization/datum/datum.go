// Package datum models the optional datum attached to a transaction
// output: either a hash reference or an inline Plutus data value.
package datum

import (
	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/serialization/plutusdata"
)

// Kind discriminates a datum option.
type Kind int

const (
	KindHash Kind = iota
	KindInline
)

// Option is the tagged union `[0, hash] | [1, #24(bytes .cbor data)]`
// that appears in a transaction output.
type Option struct {
	Kind   Kind
	Hash   [32]byte
	Inline plutusdata.PlutusData
}

func NewHash(h [32]byte) Option {
	return Option{Kind: KindHash, Hash: h}
}

func NewInline(d plutusdata.PlutusData) Option {
	return Option{Kind: KindInline, Inline: d}
}

// Encode writes the datum option. The inline form wraps the embedded
// Plutus data's CBOR bytes in tag 24 (encoded-CBOR-data-item), per
// the Babbage wire format.
func (o Option) Encode(w *cbor.Writer) error {
	if err := w.WriteStartArray(2); err != nil {
		return err
	}
	switch o.Kind {
	case KindHash:
		w.WriteUint(0)
		w.WriteBytestring(o.Hash[:])
	case KindInline:
		w.WriteUint(1)
		inner := cbor.NewWriter()
		if err := o.Inline.Encode(inner); err != nil {
			return err
		}
		w.WriteTag(24)
		w.WriteBytestring(inner.Bytes())
	default:
		return &cbor.Error{Kind: cbor.KindInvalidDatumType, Context: "unknown datum option kind"}
	}
	return w.WriteEndArray()
}

// Decode reads a datum option.
func Decode(r *cbor.Reader) (Option, error) {
	if err := cbor.ValidateArrayOfNElements("datum_option", r, 2); err != nil {
		return Option{}, err
	}
	kind, err := r.ReadUint()
	if err != nil {
		return Option{}, err
	}
	switch kind {
	case 0:
		h, err := r.ReadBytestring()
		if err != nil {
			return Option{}, err
		}
		if err := cbor.ValidateEndArray("datum_option", r); err != nil {
			return Option{}, err
		}
		var out [32]byte
		copy(out[:], h)
		return NewHash(out), nil
	case 1:
		if _, err := r.ReadTag(); err != nil {
			return Option{}, err
		}
		raw, err := r.ReadBytestring()
		if err != nil {
			return Option{}, err
		}
		if err := cbor.ValidateEndArray("datum_option", r); err != nil {
			return Option{}, err
		}
		inner := cbor.NewReader(raw)
		d, err := plutusdata.Decode(inner)
		if err != nil {
			return Option{}, err
		}
		return NewInline(d), nil
	default:
		return Option{}, &cbor.Error{Kind: cbor.KindInvalidDatumType, Context: "unknown datum option tag"}
	}
}
