// Package transactionbody implements the transaction body map: the set
// of fields the balancer reads and writes (inputs, outputs, fee, ttl,
// certificates, withdrawals, mint, collateral, required signers,
// reference inputs, script data hash) plus the surrounding fields
// needed for a byte-exact, spec-complete body encoding.
package transactionbody

import (
	"math/big"
	"sort"

	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/serialization/address"
	"github.com/cardano-go/txforge/serialization/certificate"
	"github.com/cardano-go/txforge/serialization/transactioninput"
	"github.com/cardano-go/txforge/serialization/transactionoutput"
	"github.com/cardano-go/txforge/serialization/value"
)

// Withdrawal is one entry of the withdrawals map: a reward account and
// the lovelace amount withdrawn from it.
type Withdrawal struct {
	RewardAccount address.Address
	Amount        int64
}

// Body is the transaction body, keyed exactly as the wire map is:
// key 0 inputs, 1 outputs, 2 fee, 3 ttl, 4 certificates, 5 withdrawals,
// 7 auxiliary_data_hash, 8 validity_interval_start, 9 mint,
// 11 script_data_hash, 13 collateral_inputs, 14 required_signers,
// 15 network_id, 16 collateral_return, 17 total_collateral,
// 18 reference_inputs.
type Body struct {
	Inputs  []transactioninput.Input
	Outputs []transactionoutput.Output
	Fee     int64

	TTL                   *uint64
	Certificates          []certificate.Certificate
	Withdrawals           []Withdrawal
	AuxiliaryDataHash     *[32]byte
	ValidityIntervalStart *uint64
	Mint                  *value.MultiAsset
	ScriptDataHash        *[32]byte
	CollateralInputs      []transactioninput.Input
	RequiredSigners       [][28]byte
	NetworkID             *uint64
	CollateralReturn      *transactionoutput.Output
	TotalCollateral       *uint64
	ReferenceInputs       []transactioninput.Input
}

func fieldKeys(b Body) []uint64 {
	keys := []uint64{0, 1, 2}
	if b.TTL != nil {
		keys = append(keys, 3)
	}
	if len(b.Certificates) > 0 {
		keys = append(keys, 4)
	}
	if len(b.Withdrawals) > 0 {
		keys = append(keys, 5)
	}
	if b.AuxiliaryDataHash != nil {
		keys = append(keys, 7)
	}
	if b.ValidityIntervalStart != nil {
		keys = append(keys, 8)
	}
	if b.Mint != nil {
		keys = append(keys, 9)
	}
	if b.ScriptDataHash != nil {
		keys = append(keys, 11)
	}
	if len(b.CollateralInputs) > 0 {
		keys = append(keys, 13)
	}
	if len(b.RequiredSigners) > 0 {
		keys = append(keys, 14)
	}
	if b.NetworkID != nil {
		keys = append(keys, 15)
	}
	if b.CollateralReturn != nil {
		keys = append(keys, 16)
	}
	if b.TotalCollateral != nil {
		keys = append(keys, 17)
	}
	if len(b.ReferenceInputs) > 0 {
		keys = append(keys, 18)
	}
	return keys
}

// Encode writes the body as a definite-length map with keys in
// ascending numeric order, as Cardano's canonical form requires.
func (b Body) Encode(w *cbor.Writer) error {
	keys := fieldKeys(b)
	if err := w.WriteStartMap(int64(len(keys))); err != nil {
		return err
	}
	for _, key := range keys {
		w.WriteUint(key)
		if err := b.encodeField(w, key); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	return w.WriteEndMap()
}

func (b Body) encodeField(w *cbor.Writer, key uint64) error {
	switch key {
	case 0:
		return transactioninput.EncodeSet(w, b.Inputs)
	case 1:
		if err := w.WriteStartArray(int64(len(b.Outputs))); err != nil {
			return err
		}
		for _, o := range b.Outputs {
			if err := o.Encode(w); err != nil {
				return err
			}
		}
		return w.WriteEndArray()
	case 2:
		w.WriteUint(uint64(b.Fee))
		return nil
	case 3:
		w.WriteUint(*b.TTL)
		return nil
	case 4:
		if err := w.WriteStartArray(int64(len(b.Certificates))); err != nil {
			return err
		}
		for _, c := range b.Certificates {
			if err := c.Encode(w); err != nil {
				return err
			}
		}
		return w.WriteEndArray()
	case 5:
		return encodeWithdrawals(w, b.Withdrawals)
	case 7:
		w.WriteBytestring(b.AuxiliaryDataHash[:])
		return nil
	case 8:
		w.WriteUint(*b.ValidityIntervalStart)
		return nil
	case 9:
		return encodeMint(w, *b.Mint)
	case 11:
		w.WriteBytestring(b.ScriptDataHash[:])
		return nil
	case 13:
		return transactioninput.EncodeSet(w, b.CollateralInputs)
	case 14:
		return encodeRequiredSigners(w, b.RequiredSigners)
	case 15:
		w.WriteUint(*b.NetworkID)
		return nil
	case 16:
		return b.CollateralReturn.Encode(w)
	case 17:
		w.WriteUint(*b.TotalCollateral)
		return nil
	case 18:
		return transactioninput.EncodeSet(w, b.ReferenceInputs)
	default:
		return &cbor.Error{Kind: cbor.KindEncoding, Context: "unknown transaction body field key"}
	}
}

func encodeWithdrawals(w *cbor.Writer, ws []Withdrawal) error {
	sorted := make([]Withdrawal, len(ws))
	copy(sorted, ws)
	sort.Slice(sorted, func(i, j int) bool {
		return compareBytes(sorted[i].RewardAccount.Bytes(), sorted[j].RewardAccount.Bytes()) < 0
	})
	if err := w.WriteStartMap(int64(len(sorted))); err != nil {
		return err
	}
	for _, ww := range sorted {
		w.WriteBytestring(ww.RewardAccount.Bytes())
		w.WriteUint(uint64(ww.Amount))
		w.DoneMapEntry()
	}
	return w.WriteEndMap()
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// encodeMint writes a mint multi-asset map, keys and quantities in the
// same wire shape value.Value uses for its asset bundle (quantities
// here may legitimately be negative, representing a burn).
func encodeMint(w *cbor.Writer, m value.MultiAsset) error {
	policies := m.Policies()
	if err := w.WriteStartMap(int64(len(policies))); err != nil {
		return err
	}
	for _, p := range policies {
		w.WriteBytestring(p[:])
		names := m.AssetNames(p)
		if err := w.WriteStartMap(int64(len(names))); err != nil {
			return err
		}
		for _, name := range names {
			w.WriteBytestring([]byte(name))
			qty := m[p][name]
			if qty.IsInt64() {
				w.WriteSignedInt(qty.Int64())
			} else {
				neg := qty.Sign() < 0
				mag := new(big.Int).Abs(qty)
				w.WriteBigintMagnitude(neg, mag.Bytes())
			}
			w.DoneMapEntry()
		}
		if err := w.WriteEndMap(); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	return w.WriteEndMap()
}

func encodeRequiredSigners(w *cbor.Writer, signers [][28]byte) error {
	sorted := make([][28]byte, len(signers))
	copy(sorted, signers)
	sort.Slice(sorted, func(i, j int) bool {
		return compareBytes(sorted[i][:], sorted[j][:]) < 0
	})
	if err := w.WriteStartArray(int64(len(sorted))); err != nil {
		return err
	}
	for _, s := range sorted {
		w.WriteBytestring(s[:])
	}
	return w.WriteEndArray()
}

// Decode reads a transaction body map.
func Decode(r *cbor.Reader) (Body, error) {
	n, err := r.ReadStartMap()
	if err != nil {
		return Body{}, err
	}
	var out Body
	count := n
	indef := n == -1
	for indef || count > 0 {
		if indef {
			st, err := r.PeekState()
			if err != nil {
				return Body{}, err
			}
			if st == cbor.StateEndMap {
				break
			}
		}
		keyStart := r.Offset()
		key, err := r.ReadUint()
		if err != nil {
			return Body{}, err
		}
		if err := r.MarkMapKey(keyStart); err != nil {
			return Body{}, err
		}
		if err := out.decodeField(r, key); err != nil {
			return Body{}, err
		}
		r.DoneMapEntry()
		if !indef {
			count--
		}
	}
	if err := r.ReadEndMap(); err != nil {
		return Body{}, err
	}
	return out, nil
}

func (b *Body) decodeField(r *cbor.Reader, key uint64) error {
	switch key {
	case 0:
		inputs, err := transactioninput.DecodeSet(r)
		if err != nil {
			return err
		}
		b.Inputs = inputs
	case 1:
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
			o, err := transactionoutput.Decode(r)
			if err != nil {
				return err
			}
			b.Outputs = append(b.Outputs, o)
		}
		if err := r.ReadEndArray(); err != nil {
			return err
		}
	case 2:
		fee, err := r.ReadUint()
		if err != nil {
			return err
		}
		b.Fee = int64(fee)
	case 3:
		ttl, err := r.ReadUint()
		if err != nil {
			return err
		}
		b.TTL = &ttl
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
			c, err := certificate.Decode(r)
			if err != nil {
				return err
			}
			b.Certificates = append(b.Certificates, c)
		}
		if err := r.ReadEndArray(); err != nil {
			return err
		}
	case 5:
		ws, err := decodeWithdrawals(r)
		if err != nil {
			return err
		}
		b.Withdrawals = ws
	case 7:
		h, err := r.ReadBytestring()
		if err != nil {
			return err
		}
		var hash [32]byte
		copy(hash[:], h)
		b.AuxiliaryDataHash = &hash
	case 8:
		v, err := r.ReadUint()
		if err != nil {
			return err
		}
		b.ValidityIntervalStart = &v
	case 9:
		m, err := decodeMint(r)
		if err != nil {
			return err
		}
		b.Mint = &m
	case 11:
		h, err := r.ReadBytestring()
		if err != nil {
			return err
		}
		var hash [32]byte
		copy(hash[:], h)
		b.ScriptDataHash = &hash
	case 13:
		ins, err := transactioninput.DecodeSet(r)
		if err != nil {
			return err
		}
		b.CollateralInputs = ins
	case 14:
		signers, err := decodeRequiredSigners(r)
		if err != nil {
			return err
		}
		b.RequiredSigners = signers
	case 15:
		v, err := r.ReadUint()
		if err != nil {
			return err
		}
		b.NetworkID = &v
	case 16:
		o, err := transactionoutput.Decode(r)
		if err != nil {
			return err
		}
		b.CollateralReturn = &o
	case 17:
		v, err := r.ReadUint()
		if err != nil {
			return err
		}
		b.TotalCollateral = &v
	case 18:
		ins, err := transactioninput.DecodeSet(r)
		if err != nil {
			return err
		}
		b.ReferenceInputs = ins
	default:
		return &cbor.Error{Kind: cbor.KindInvalidMapKey, Context: "unrecognized transaction body field key"}
	}
	return nil
}

func decodeWithdrawals(r *cbor.Reader) ([]Withdrawal, error) {
	n, err := r.ReadStartMap()
	if err != nil {
		return nil, err
	}
	var out []Withdrawal
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
		raw, err := r.ReadBytestring()
		if err != nil {
			return nil, err
		}
		if err := r.MarkMapKey(keyStart); err != nil {
			return nil, err
		}
		addr, err := address.FromBytes(raw)
		if err != nil {
			return nil, err
		}
		amt, err := r.ReadUint()
		if err != nil {
			return nil, err
		}
		r.DoneMapEntry()
		out = append(out, Withdrawal{RewardAccount: addr, Amount: int64(amt)})
		if !indef {
			count--
		}
	}
	if err := r.ReadEndMap(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeMint(r *cbor.Reader) (value.MultiAsset, error) {
	m := make(value.MultiAsset)
	n, err := r.ReadStartMap()
	if err != nil {
		return m, err
	}
	count := n
	indef := n == -1
	for indef || count > 0 {
		if indef {
			st, err := r.PeekState()
			if err != nil {
				return m, err
			}
			if st == cbor.StateEndMap {
				break
			}
		}
		policyKeyStart := r.Offset()
		pBytes, err := r.ReadBytestring()
		if err != nil {
			return m, err
		}
		if err := r.MarkMapKey(policyKeyStart); err != nil {
			return m, err
		}
		var policy value.PolicyID
		copy(policy[:], pBytes)
		nn, err := r.ReadStartMap()
		if err != nil {
			return m, err
		}
		innerCount := nn
		innerIndef := nn == -1
		assets := make(map[string]*big.Int)
		for innerIndef || innerCount > 0 {
			if innerIndef {
				st, err := r.PeekState()
				if err != nil {
					return m, err
				}
				if st == cbor.StateEndMap {
					break
				}
			}
			assetKeyStart := r.Offset()
			name, err := r.ReadBytestring()
			if err != nil {
				return m, err
			}
			if err := r.MarkMapKey(assetKeyStart); err != nil {
				return m, err
			}
			neg, mag, err := r.ReadBigint()
			if err != nil {
				return m, err
			}
			qty := new(big.Int).SetBytes(mag)
			if neg {
				qty.Neg(qty)
			}
			assets[string(name)] = qty
			r.DoneMapEntry()
			if !innerIndef {
				innerCount--
			}
		}
		if err := r.ReadEndMap(); err != nil {
			return m, err
		}
		m[policy] = assets
		r.DoneMapEntry()
		if !indef {
			count--
		}
	}
	if err := r.ReadEndMap(); err != nil {
		return m, err
	}
	return m, nil
}

func decodeRequiredSigners(r *cbor.Reader) ([][28]byte, error) {
	n, err := r.ReadStartArray()
	if err != nil {
		return nil, err
	}
	var out [][28]byte
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
		raw, err := r.ReadBytestring()
		if err != nil {
			return nil, err
		}
		var h [28]byte
		copy(h[:], raw)
		out = append(out, h)
	}
	if err := r.ReadEndArray(); err != nil {
		return nil, err
	}
	return out, nil
}
