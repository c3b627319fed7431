// Package value implements Cardano's Value type: a lovelace coin amount
// plus a nested multi-asset map policy -> asset -> signed quantity, with
// the add/subtract/intersection arithmetic the balancer depends on.
package value

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/cardano-go/txforge/cbor"
)

// PolicyID is a 28-byte BLAKE2b-224 hash identifying a minting policy.
type PolicyID [28]byte

// AssetID is the pair (policy id, asset name) that identifies a native
// asset. Lovelace is represented out-of-band by Value.Coin, never as an
// AssetID, except where AsAssetsMap's reserved sentinel is requested.
type AssetID struct {
	Policy PolicyID
	Name   string // raw asset name bytes, held as a string for map-key use
}

// LovelacePolicy and LovelaceAsset form the reserved sentinel AssetID
// used by AsAssetsMap and Intersection to represent the coin component
// alongside native assets in a single flat map.
var (
	LovelacePolicy PolicyID
	LovelaceAsset  = AssetID{Policy: LovelacePolicy, Name: ""}
)

// MultiAsset is policy -> asset name -> signed quantity.
type MultiAsset map[PolicyID]map[string]*big.Int

// Value is a lovelace coin amount plus an optional multi-asset bundle.
type Value struct {
	Coin   int64
	Assets MultiAsset
}

// Zero is the additive identity.
func Zero() Value { return Value{} }

// NewCoin builds a lovelace-only Value.
func NewCoin(lovelace int64) Value { return Value{Coin: lovelace} }

// Clone returns a deep copy.
func (v Value) Clone() Value {
	out := Value{Coin: v.Coin}
	if v.Assets != nil {
		out.Assets = v.Assets.Clone()
	}
	return out
}

// Clone returns a deep copy of a MultiAsset.
func (m MultiAsset) Clone() MultiAsset {
	if m == nil {
		return nil
	}
	out := make(MultiAsset, len(m))
	for p, assets := range m {
		cp := make(map[string]*big.Int, len(assets))
		for n, q := range assets {
			cp[n] = new(big.Int).Set(q)
		}
		out[p] = cp
	}
	return out
}

// set writes qty under policy/name, removing the entry if qty is zero,
// and removing the policy map entirely if it becomes empty.
func (m MultiAsset) set(p PolicyID, name string, qty *big.Int) {
	if qty.Sign() == 0 {
		if assets, ok := m[p]; ok {
			delete(assets, name)
			if len(assets) == 0 {
				delete(m, p)
			}
		}
		return
	}
	assets, ok := m[p]
	if !ok {
		assets = make(map[string]*big.Int)
		m[p] = assets
	}
	assets[name] = qty
}

func (m MultiAsset) get(p PolicyID, name string) *big.Int {
	if m == nil {
		return big.NewInt(0)
	}
	assets, ok := m[p]
	if !ok {
		return big.NewInt(0)
	}
	q, ok := assets[name]
	if !ok {
		return big.NewInt(0)
	}
	return q
}

// Add returns a+b. Entries that net to zero are removed, per invariant.
func Add(a, b Value) Value {
	out := Value{Coin: a.Coin + b.Coin, Assets: make(MultiAsset)}
	for p, assets := range a.Assets {
		for n, q := range assets {
			out.Assets.set(p, n, new(big.Int).Set(q))
		}
	}
	for p, assets := range b.Assets {
		for n, q := range assets {
			sum := new(big.Int).Add(out.Assets.get(p, n), q)
			out.Assets.set(p, n, sum)
		}
	}
	if len(out.Assets) == 0 {
		out.Assets = nil
	}
	return out
}

// Subtract returns a-b. May produce negative coin or asset quantities;
// callers must check IsNonNegative before treating the result as a
// valid output value.
func Subtract(a, b Value) Value {
	neg := b.Clone()
	neg.Coin = -neg.Coin
	for _, assets := range neg.Assets {
		for n, q := range assets {
			assets[n] = new(big.Int).Neg(q)
		}
	}
	return Add(a, neg)
}

// IsZero reports coin == 0 and no asset policies present.
func (v Value) IsZero() bool {
	return v.Coin == 0 && len(v.Assets) == 0
}

// IsNonNegative reports that coin and every asset quantity are >= 0.
func (v Value) IsNonNegative() bool {
	if v.Coin < 0 {
		return false
	}
	for _, assets := range v.Assets {
		for _, q := range assets {
			if q.Sign() < 0 {
				return false
			}
		}
	}
	return true
}

// Get returns the quantity of the given asset (0 if absent).
func (v Value) Get(id AssetID) *big.Int {
	if id == LovelaceAsset {
		return big.NewInt(v.Coin)
	}
	return v.Assets.get(id.Policy, id.Name)
}

// Intersection returns the list of AssetIDs (including the lovelace
// sentinel when both coins are positive) present with a positive
// quantity in both a and b.
func Intersection(a, b Value) []AssetID {
	var out []AssetID
	if a.Coin > 0 && b.Coin > 0 {
		out = append(out, LovelaceAsset)
	}
	for p, assets := range a.Assets {
		bAssets, ok := b.Assets[p]
		if !ok {
			continue
		}
		for n, q := range assets {
			if q.Sign() <= 0 {
				continue
			}
			bq, ok := bAssets[n]
			if !ok || bq.Sign() <= 0 {
				continue
			}
			out = append(out, AssetID{Policy: p, Name: n})
		}
	}
	sortAssetIDs(out)
	return out
}

// AsAssetsMap flattens v into a single asset-id -> quantity map,
// representing lovelace via the reserved LovelaceAsset sentinel.
func (v Value) AsAssetsMap() map[AssetID]*big.Int {
	out := make(map[AssetID]*big.Int)
	if v.Coin != 0 {
		out[LovelaceAsset] = big.NewInt(v.Coin)
	}
	for p, assets := range v.Assets {
		for n, q := range assets {
			out[AssetID{Policy: p, Name: n}] = new(big.Int).Set(q)
		}
	}
	return out
}

// Policies returns the policy IDs present, byte-lexicographically sorted.
func (m MultiAsset) Policies() []PolicyID {
	out := make([]PolicyID, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

// AssetNames returns the asset names under a policy, byte-lexicographically sorted.
func (m MultiAsset) AssetNames(p PolicyID) []string {
	assets := m[p]
	out := make([]string, 0, len(assets))
	for n := range assets {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func sortAssetIDs(ids []AssetID) {
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Policy != ids[j].Policy {
			return bytes.Compare(ids[i].Policy[:], ids[j].Policy[:]) < 0
		}
		return ids[i].Name < ids[j].Name
	})
}

// EncodeCBOR writes v in Cardano's canonical form: a bare uint/int when
// Assets is empty, or a 2-element array [coin, multiasset-map] otherwise,
// with policies and asset names emitted in byte-lexicographic order.
func (v Value) EncodeCBOR(w *cbor.Writer) error {
	if len(v.Assets) == 0 {
		w.WriteSignedInt(v.Coin)
		return nil
	}
	if err := w.WriteStartArray(2); err != nil {
		return err
	}
	w.WriteSignedInt(v.Coin)
	if err := encodeMultiAsset(w, v.Assets); err != nil {
		return err
	}
	return w.WriteEndArray()
}

func encodeMultiAsset(w *cbor.Writer, m MultiAsset) error {
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
		for _, n := range names {
			w.WriteBytestring([]byte(n))
			q := m[p][n]
			encodeAssetQuantity(w, q)
			w.DoneMapEntry()
		}
		if err := w.WriteEndMap(); err != nil {
			return err
		}
		w.DoneMapEntry()
	}
	return w.WriteEndMap()
}

func encodeAssetQuantity(w *cbor.Writer, q *big.Int) {
	if q.IsInt64() {
		w.WriteSignedInt(q.Int64())
		return
	}
	neg := q.Sign() < 0
	mag := new(big.Int).Abs(q)
	w.WriteBigintMagnitude(neg, mag.Bytes())
}

// DecodeCBOR reads a Value in either bare-coin or [coin, multiasset] form.
func DecodeCBOR(r *cbor.Reader) (Value, error) {
	st, err := r.PeekState()
	if err != nil {
		return Value{}, err
	}
	if st == cbor.StateUnsignedInt || st == cbor.StateNegativeInt {
		coin, err := r.ReadInt()
		if err != nil {
			return Value{}, err
		}
		return Value{Coin: coin}, nil
	}
	if _, err := r.ReadStartArray(); err != nil {
		return Value{}, err
	}
	coin, err := r.ReadInt()
	if err != nil {
		return Value{}, err
	}
	assets, err := decodeMultiAsset(r)
	if err != nil {
		return Value{}, err
	}
	if err := r.ReadEndArray(); err != nil {
		return Value{}, err
	}
	return Value{Coin: coin, Assets: assets}, nil
}

func decodeMultiAsset(r *cbor.Reader) (MultiAsset, error) {
	n, err := r.ReadStartMap()
	if err != nil {
		return nil, err
	}
	out := make(MultiAsset)
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
		policyKeyStart := r.Offset()
		policyBytes, err := r.ReadBytestring()
		if err != nil {
			return nil, err
		}
		if err := r.MarkMapKey(policyKeyStart); err != nil {
			return nil, err
		}
		var p PolicyID
		copy(p[:], policyBytes)

		inner, err := r.ReadStartMap()
		if err != nil {
			return nil, err
		}
		innerCount := inner
		innerIndef := inner == -1
		assets := make(map[string]*big.Int)
		for innerIndef || innerCount > 0 {
			if innerIndef {
				st, err := r.PeekState()
				if err != nil {
					return nil, err
				}
				if st == cbor.StateEndMap {
					break
				}
			}
			assetKeyStart := r.Offset()
			nameBytes, err := r.ReadBytestring()
			if err != nil {
				return nil, err
			}
			if err := r.MarkMapKey(assetKeyStart); err != nil {
				return nil, err
			}
			neg, mag, err := r.ReadBigint()
			if err != nil {
				return nil, err
			}
			q := new(big.Int).SetBytes(mag)
			if neg {
				q.Neg(q)
			}
			assets[string(nameBytes)] = q
			r.DoneMapEntry()
			if !innerIndef {
				innerCount--
			}
		}
		if err := r.ReadEndMap(); err != nil {
			return nil, err
		}
		out[p] = assets
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
