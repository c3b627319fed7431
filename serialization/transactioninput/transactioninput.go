// Package transactioninput implements the transaction input reference:
// a transaction id plus output index, as it appears in a transaction
// body's inputs, collateral inputs, and reference inputs sets.
package transactioninput

import (
	"bytes"
	"sort"

	"github.com/cardano-go/txforge/cbor"
)

// Input is the CBOR 2-tuple [tx_id (32 bytes), index (uint)].
type Input struct {
	TransactionID [32]byte
	Index         uint64
}

func New(txID [32]byte, index uint64) Input {
	return Input{TransactionID: txID, Index: index}
}

// Encode writes the input as `[tx_id, index]`.
func (i Input) Encode(w *cbor.Writer) error {
	if err := w.WriteStartArray(2); err != nil {
		return err
	}
	w.WriteBytestring(i.TransactionID[:])
	w.WriteUint(i.Index)
	return w.WriteEndArray()
}

// Decode reads an input.
func Decode(r *cbor.Reader) (Input, error) {
	if err := cbor.ValidateArrayOfNElements("transaction_input", r, 2); err != nil {
		return Input{}, err
	}
	idBytes, err := r.ReadBytestring()
	if err != nil {
		return Input{}, err
	}
	index, err := r.ReadUint()
	if err != nil {
		return Input{}, err
	}
	if err := cbor.ValidateEndArray("transaction_input", r); err != nil {
		return Input{}, err
	}
	var id [32]byte
	copy(id[:], idBytes)
	return Input{TransactionID: id, Index: index}, nil
}

// Compare orders inputs the way Cardano's canonical input-set ordering
// requires: by transaction id bytes, then by index.
func Compare(a, b Input) int {
	if c := bytes.Compare(a.TransactionID[:], b.TransactionID[:]); c != 0 {
		return c
	}
	switch {
	case a.Index < b.Index:
		return -1
	case a.Index > b.Index:
		return 1
	default:
		return 0
	}
}

// Sort orders a slice of inputs in canonical order, in place.
func Sort(inputs []Input) {
	sort.Slice(inputs, func(i, j int) bool { return Compare(inputs[i], inputs[j]) < 0 })
}

// EncodeSet writes inputs as a definite-length array in canonical
// (sorted) order, the form Cardano requires for input/collateral/
// reference-input sets inside a transaction body.
func EncodeSet(w *cbor.Writer, inputs []Input) error {
	sorted := make([]Input, len(inputs))
	copy(sorted, inputs)
	Sort(sorted)
	if err := w.WriteStartArray(int64(len(sorted))); err != nil {
		return err
	}
	for _, in := range sorted {
		if err := in.Encode(w); err != nil {
			return err
		}
	}
	return w.WriteEndArray()
}

// DecodeSet reads a definite- or indefinite-length array of inputs.
func DecodeSet(r *cbor.Reader) ([]Input, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return nil, err
	}
	var out []Input
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
		in, err := Decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	if err := r.ReadEndArray(); err != nil {
		return nil, err
	}
	return out, nil
}
