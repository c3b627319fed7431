// Package transactionwitnessset implements the transaction witness set:
// verification-key signatures, scripts of every language, Plutus data,
// and redeemers, keyed exactly as the wire map requires.
package transactionwitnessset

import (
	"sort"

	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/serialization/plutusdata"
	"github.com/cardano-go/txforge/serialization/script"
)

// VKeyWitness is a single Ed25519 verification-key/signature pair.
type VKeyWitness struct {
	VKey      [32]byte
	Signature [64]byte
}

func (w VKeyWitness) Encode(cw *cbor.Writer) error {
	if err := cw.WriteStartArray(2); err != nil {
		return err
	}
	cw.WriteBytestring(w.VKey[:])
	cw.WriteBytestring(w.Signature[:])
	return cw.WriteEndArray()
}

func decodeVKeyWitness(r *cbor.Reader) (VKeyWitness, error) {
	if err := cbor.ValidateArrayOfNElements("vkey_witness", r, 2); err != nil {
		return VKeyWitness{}, err
	}
	vkey, err := r.ReadBytestring()
	if err != nil {
		return VKeyWitness{}, err
	}
	sig, err := r.ReadBytestring()
	if err != nil {
		return VKeyWitness{}, err
	}
	if err := cbor.ValidateEndArray("vkey_witness", r); err != nil {
		return VKeyWitness{}, err
	}
	var out VKeyWitness
	copy(out.VKey[:], vkey)
	copy(out.Signature[:], sig)
	return out, nil
}

// RedeemerTag discriminates which part of the transaction a redeemer's
// script is being invoked for.
type RedeemerTag int

const (
	RedeemerTagSpend RedeemerTag = iota
	RedeemerTagMint
	RedeemerTagCert
	RedeemerTagReward
	RedeemerTagVoting
	RedeemerTagProposing
)

// ExUnits is the execution-unit budget a redeemer is evaluated against.
type ExUnits struct {
	Mem   uint64
	Steps uint64
}

// RedeemerKey locates a redeemer within the tag's ordered index space:
// for spend redeemers, the position of the spent input within the
// body's sorted inputs set; for mint redeemers, the position of the
// policy within the sorted mint map; analogous for cert/reward.
type RedeemerKey struct {
	Tag   RedeemerTag
	Index uint32
}

// RedeemerValue pairs a redeemer's Plutus data argument with its
// execution-unit budget.
type RedeemerValue struct {
	Data    plutusdata.PlutusData
	ExUnits ExUnits
}

// WitnessSet is the transaction witness set: key 0 vkey witnesses,
// 1 native scripts, 3 plutus v1 scripts, 4 plutus data, 5 redeemers,
// 6 plutus v2 scripts, 7 plutus v3 scripts.
type WitnessSet struct {
	VKeyWitnesses []VKeyWitness
	NativeScripts []script.NativeScript
	PlutusV1      [][]byte
	PlutusData    []plutusdata.PlutusData
	Redeemers     map[RedeemerKey]RedeemerValue
	PlutusV2      [][]byte
	PlutusV3      [][]byte
}

func (ws WitnessSet) fieldCount() int64 {
	var n int64
	if len(ws.VKeyWitnesses) > 0 {
		n++
	}
	if len(ws.NativeScripts) > 0 {
		n++
	}
	if len(ws.PlutusV1) > 0 {
		n++
	}
	if len(ws.PlutusData) > 0 {
		n++
	}
	if len(ws.Redeemers) > 0 {
		n++
	}
	if len(ws.PlutusV2) > 0 {
		n++
	}
	if len(ws.PlutusV3) > 0 {
		n++
	}
	return n
}

// Encode writes the witness set as a definite-length map, keys
// ascending.
func (ws WitnessSet) Encode(w *cbor.Writer) error {
	if err := w.WriteStartMap(ws.fieldCount()); err != nil {
		return err
	}
	if len(ws.VKeyWitnesses) > 0 {
		w.WriteUint(0)
		if err := w.WriteStartArray(int64(len(ws.VKeyWitnesses))); err != nil {
			return err
		}
		for _, v := range ws.VKeyWitnesses {
			if err := v.Encode(w); err != nil {
				return err
			}
		}
		if err := w.WriteEndArray(); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	if len(ws.NativeScripts) > 0 {
		w.WriteUint(1)
		if err := w.WriteStartArray(int64(len(ws.NativeScripts))); err != nil {
			return err
		}
		for _, s := range ws.NativeScripts {
			if err := s.Encode(w); err != nil {
				return err
			}
		}
		if err := w.WriteEndArray(); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	if len(ws.PlutusV1) > 0 {
		w.WriteUint(3)
		if err := encodeByteList(w, ws.PlutusV1); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	if len(ws.PlutusData) > 0 {
		w.WriteUint(4)
		if err := w.WriteStartArray(int64(len(ws.PlutusData))); err != nil {
			return err
		}
		for _, d := range ws.PlutusData {
			if err := d.Encode(w); err != nil {
				return err
			}
		}
		if err := w.WriteEndArray(); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	if len(ws.Redeemers) > 0 {
		w.WriteUint(5)
		if err := encodeRedeemers(w, ws.Redeemers); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	if len(ws.PlutusV2) > 0 {
		w.WriteUint(6)
		if err := encodeByteList(w, ws.PlutusV2); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	if len(ws.PlutusV3) > 0 {
		w.WriteUint(7)
		if err := encodeByteList(w, ws.PlutusV3); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	return w.WriteEndMap()
}

func encodeByteList(w *cbor.Writer, items [][]byte) error {
	if err := w.WriteStartArray(int64(len(items))); err != nil {
		return err
	}
	for _, b := range items {
		w.WriteBytestring(b)
	}
	return w.WriteEndArray()
}

// encodeRedeemers writes the redeemers map as `{[tag, index]: [data,
// [mem, steps]]}`, entries ordered by (tag, index) for canonical form.
func encodeRedeemers(w *cbor.Writer, redeemers map[RedeemerKey]RedeemerValue) error {
	keys := make([]RedeemerKey, 0, len(redeemers))
	for k := range redeemers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Tag != keys[j].Tag {
			return keys[i].Tag < keys[j].Tag
		}
		return keys[i].Index < keys[j].Index
	})
	if err := w.WriteStartMap(int64(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		if err := w.WriteStartArray(2); err != nil {
			return err
		}
		w.WriteUint(uint64(k.Tag))
		w.WriteUint(uint64(k.Index))
		if err := w.WriteEndArray(); err != nil {
			return err
		}
		v := redeemers[k]
		if err := w.WriteStartArray(2); err != nil {
			return err
		}
		if err := v.Data.Encode(w); err != nil {
			return err
		}
		if err := w.WriteStartArray(2); err != nil {
			return err
		}
		w.WriteUint(v.ExUnits.Mem)
		w.WriteUint(v.ExUnits.Steps)
		if err := w.WriteEndArray(); err != nil {
			return err
		}
		if err := w.WriteEndArray(); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	return w.WriteEndMap()
}

// Decode reads a witness set.
func Decode(r *cbor.Reader) (WitnessSet, error) {
	n, err := r.ReadStartMap()
	if err != nil {
		return WitnessSet{}, err
	}
	var out WitnessSet
	count := n
	indef := n == -1
	for indef || count > 0 {
		if indef {
			st, err := r.PeekState()
			if err != nil {
				return WitnessSet{}, err
			}
			if st == cbor.StateEndMap {
				break
			}
		}
		keyStart := r.Offset()
		key, err := r.ReadUint()
		if err != nil {
			return WitnessSet{}, err
		}
		if err := r.MarkMapKey(keyStart); err != nil {
			return WitnessSet{}, err
		}
		if err := out.decodeField(r, key); err != nil {
			return WitnessSet{}, err
		}
		r.DoneMapEntry()
		if !indef {
			count--
		}
	}
	if err := r.ReadEndMap(); err != nil {
		return WitnessSet{}, err
	}
	return out, nil
}

func (ws *WitnessSet) decodeField(r *cbor.Reader, key uint64) error {
	switch key {
	case 0:
		n, err := r.ReadStartArray()
		if err != nil {
			return err
		}
		for i := int64(0); n == -1 || i < n; i++ {
			if n == -1 {
				st, err := r.PeekState()
				if err != nil {
					return err
				}
				if st == cbor.StateEndArray {
					break
				}
			}
			v, err := decodeVKeyWitness(r)
			if err != nil {
				return err
			}
			ws.VKeyWitnesses = append(ws.VKeyWitnesses, v)
		}
		return r.ReadEndArray()
	case 1:
		scripts, err := decodeNativeScriptList(r)
		if err != nil {
			return err
		}
		ws.NativeScripts = scripts
		return nil
	case 3:
		items, err := decodeByteList(r)
		if err != nil {
			return err
		}
		ws.PlutusV1 = items
		return nil
	case 4:
		n, err := r.ReadStartArray()
		if err != nil {
			return err
		}
		for i := int64(0); n == -1 || i < n; i++ {
			if n == -1 {
				st, err := r.PeekState()
				if err != nil {
					return err
				}
				if st == cbor.StateEndArray {
					break
				}
			}
			d, err := plutusdata.Decode(r)
			if err != nil {
				return err
			}
			ws.PlutusData = append(ws.PlutusData, d)
		}
		return r.ReadEndArray()
	case 5:
		redeemers, err := decodeRedeemers(r)
		if err != nil {
			return err
		}
		ws.Redeemers = redeemers
		return nil
	case 6:
		items, err := decodeByteList(r)
		if err != nil {
			return err
		}
		ws.PlutusV2 = items
		return nil
	case 7:
		items, err := decodeByteList(r)
		if err != nil {
			return err
		}
		ws.PlutusV3 = items
		return nil
	default:
		return &cbor.Error{Kind: cbor.KindInvalidMapKey, Context: "unrecognized witness set field key"}
	}
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

func decodeRedeemers(r *cbor.Reader) (map[RedeemerKey]RedeemerValue, error) {
	n, err := r.ReadStartMap()
	if err != nil {
		return nil, err
	}
	out := make(map[RedeemerKey]RedeemerValue)
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
		keyStart := r.Offset()
		if err := cbor.ValidateArrayOfNElements("redeemer_key", r, 2); err != nil {
			return nil, err
		}
		tag, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		idx, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		if err := cbor.ValidateEndArray("redeemer_key", r); err != nil {
			return nil, err
		}
		if err := r.MarkMapKey(keyStart); err != nil {
			return nil, err
		}
		if err := cbor.ValidateArrayOfNElements("redeemer_value", r, 2); err != nil {
			return nil, err
		}
		data, err := plutusdata.Decode(r)
		if err != nil {
			return nil, err
		}
		if err := cbor.ValidateArrayOfNElements("ex_units", r, 2); err != nil {
			return nil, err
		}
		mem, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		steps, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		if err := cbor.ValidateEndArray("ex_units", r); err != nil {
			return nil, err
		}
		if err := cbor.ValidateEndArray("redeemer_value", r); err != nil {
			return nil, err
		}
		out[RedeemerKey{Tag: RedeemerTag(tag), Index: uint32(idx)}] = RedeemerValue{
			Data:    data,
			ExUnits: ExUnits{Mem: mem, Steps: steps},
		}
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
