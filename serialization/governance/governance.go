// Package governance implements the DRep (delegated representative)
// tagged union used by vote-delegation certificates.
package governance

import "github.com/cardano-go/txforge/cbor"

// DRepKind discriminates the DRep sum type.
type DRepKind int

const (
	DRepKeyHash DRepKind = iota
	DRepScriptHash
	DRepAlwaysAbstain
	DRepAlwaysNoConfidence
)

// DRep is `[0, key_hash] | [1, script_hash] | [2] | [3]`.
type DRep struct {
	Kind DRepKind
	Hash [28]byte // valid for DRepKeyHash/DRepScriptHash
}

func NewKeyHashDRep(h [28]byte) DRep    { return DRep{Kind: DRepKeyHash, Hash: h} }
func NewScriptHashDRep(h [28]byte) DRep { return DRep{Kind: DRepScriptHash, Hash: h} }
func AlwaysAbstain() DRep               { return DRep{Kind: DRepAlwaysAbstain} }
func AlwaysNoConfidence() DRep          { return DRep{Kind: DRepAlwaysNoConfidence} }

func (d DRep) Encode(w *cbor.Writer) error {
	switch d.Kind {
	case DRepKeyHash, DRepScriptHash:
		if err := w.WriteStartArray(2); err != nil {
			return err
		}
		w.WriteUint(uint64(d.Kind))
		w.WriteBytestring(d.Hash[:])
		return w.WriteEndArray()
	case DRepAlwaysAbstain, DRepAlwaysNoConfidence:
		if err := w.WriteStartArray(1); err != nil {
			return err
		}
		w.WriteUint(uint64(d.Kind))
		return w.WriteEndArray()
	default:
		return &cbor.Error{Kind: cbor.KindInvalidProcedureProposalType, Context: "unknown DRep kind"}
	}
}

func Decode(r *cbor.Reader) (DRep, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return DRep{}, err
	}
	tag, err := r.ReadUint()
	if err != nil {
		return DRep{}, err
	}
	var out DRep
	switch tag {
	case 0, 1:
		h, err := r.ReadBytestring()
		if err != nil {
			return DRep{}, err
		}
		var hash [28]byte
		copy(hash[:], h)
		out = DRep{Kind: DRepKind(tag), Hash: hash}
	case 2:
		out = AlwaysAbstain()
	case 3:
		out = AlwaysNoConfidence()
	default:
		return DRep{}, &cbor.Error{Kind: cbor.KindInvalidProcedureProposalType, Context: "unknown DRep tag"}
	}
	_ = n
	if err := r.ReadEndArray(); err != nil {
		return DRep{}, err
	}
	return out, nil
}
