// Package transaction implements the top-level transaction envelope:
// body, witness set, the phase-2-validity flag, and optional auxiliary
// data, as a 4-element CBOR array.
package transaction

import (
	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/serialization/metadata"
	"github.com/cardano-go/txforge/serialization/transactionbody"
	"github.com/cardano-go/txforge/serialization/transactionwitnessset"
)

// Transaction is `[body, witness_set, is_valid, auxiliary_data | null]`.
type Transaction struct {
	Body          transactionbody.Body
	WitnessSet    transactionwitnessset.WitnessSet
	IsValid       bool
	AuxiliaryData *metadata.AuxiliaryData
}

func New(body transactionbody.Body, ws transactionwitnessset.WitnessSet) Transaction {
	return Transaction{Body: body, WitnessSet: ws, IsValid: true}
}

func (t Transaction) WithAuxiliaryData(aux metadata.AuxiliaryData) Transaction {
	t.AuxiliaryData = &aux
	return t
}

// Encode writes the transaction as a definite-length 4-element array.
func (t Transaction) Encode(w *cbor.Writer) error {
	if err := w.WriteStartArray(4); err != nil {
		return err
	}
	if err := t.Body.Encode(w); err != nil {
		return err
	}
	if err := t.WitnessSet.Encode(w); err != nil {
		return err
	}
	w.WriteBool(t.IsValid)
	if t.AuxiliaryData != nil {
		if err := t.AuxiliaryData.Encode(w); err != nil {
			return err
		}
	} else {
		w.WriteNull()
	}
	return w.WriteEndArray()
}

// Decode reads a transaction.
func Decode(r *cbor.Reader) (Transaction, error) {
	if err := cbor.ValidateArrayOfNElements("transaction", r, 4); err != nil {
		return Transaction{}, err
	}
	body, err := transactionbody.Decode(r)
	if err != nil {
		return Transaction{}, err
	}
	ws, err := transactionwitnessset.Decode(r)
	if err != nil {
		return Transaction{}, err
	}
	valid, err := r.ReadBool()
	if err != nil {
		return Transaction{}, err
	}
	out := Transaction{Body: body, WitnessSet: ws, IsValid: valid}

	st, err := r.PeekState()
	if err != nil {
		return Transaction{}, err
	}
	if st == cbor.StateNull {
		if err := r.ReadNull(); err != nil {
			return Transaction{}, err
		}
	} else {
		aux, err := metadata.Decode(r)
		if err != nil {
			return Transaction{}, err
		}
		out.AuxiliaryData = &aux
	}

	if err := cbor.ValidateEndArray("transaction", r); err != nil {
		return Transaction{}, err
	}
	return out, nil
}
