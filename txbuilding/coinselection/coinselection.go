// Package coinselection implements the largest-first multi-asset UTxO
// selector the balancer runs to cover a required target value and,
// with a lovelace-only target, to cover required collateral.
package coinselection

import (
	"bytes"
	"sort"

	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/serialization/utxo"
	"github.com/cardano-go/txforge/serialization/value"
)

// Select runs largest-first multi-asset selection: preSelected is
// honored as already-committed inputs; available is the pool to draw
// additional inputs from; target is the value the combined selection
// must cover, component-wise (coin and every asset).
//
// Returns the full selected set (preSelected plus whatever was drawn
// from available) and the remaining, unselected pool.
func Select(preSelected, available []utxo.UTxO, target value.Value) (selected, remaining []utxo.UTxO, err error) {
	accumulated := value.Zero()
	for _, u := range preSelected {
		accumulated = value.Add(accumulated, u.Value())
	}

	selected = make([]utxo.UTxO, len(preSelected))
	copy(selected, preSelected)
	remaining = make([]utxo.UTxO, len(available))
	copy(remaining, available)

	if coversTarget(accumulated, target) {
		return selected, remaining, nil
	}

	for _, assetID := range orderedComponents(target) {
		required := target.Get(assetID)
		if accumulated.Get(assetID).Cmp(required) >= 0 {
			continue
		}
		for accumulated.Get(assetID).Cmp(required) < 0 {
			idx := indexOfLargest(remaining, assetID)
			if idx == -1 {
				return nil, nil, &cbor.Error{Kind: cbor.KindBalanceInsufficient, Context: "no remaining utxo can cover the required component"}
			}
			picked := remaining[idx]
			remaining = append(remaining[:idx], remaining[idx+1:]...)
			selected = append(selected, picked)
			accumulated = value.Add(accumulated, picked.Value())
		}
	}

	return selected, remaining, nil
}

// coversTarget reports whether acc covers every positive component of
// target (coin and assets).
func coversTarget(acc, target value.Value) bool {
	for id, want := range target.AsAssetsMap() {
		if want.Sign() <= 0 {
			continue
		}
		if acc.Get(id).Cmp(want) < 0 {
			return false
		}
	}
	if target.Coin > acc.Coin {
		return false
	}
	return true
}

// orderedComponents returns target's positive-quantity asset ids in a
// deterministic order (policy then name, byte-lexicographic), with the
// lovelace component always last, matching the algorithm's
// "iterate coin last" instruction.
func orderedComponents(target value.Value) []value.AssetID {
	var assets []value.AssetID
	for id, want := range target.AsAssetsMap() {
		if id == value.LovelaceAsset || want.Sign() <= 0 {
			continue
		}
		assets = append(assets, id)
	}
	sort.Slice(assets, func(i, j int) bool {
		if assets[i].Policy != assets[j].Policy {
			return bytes.Compare(assets[i].Policy[:], assets[j].Policy[:]) < 0
		}
		return assets[i].Name < assets[j].Name
	})
	if target.Coin > 0 {
		assets = append(assets, value.LovelaceAsset)
	}
	return assets
}

// indexOfLargest returns the index, within pool, of the UTxO carrying
// the largest positive quantity of assetID; original order is the
// tie-break (first such max found wins), and -1 means no UTxO in pool
// carries a positive quantity.
func indexOfLargest(pool []utxo.UTxO, assetID value.AssetID) int {
	best := -1
	for i, u := range pool {
		q := u.Value().Get(assetID)
		if q.Sign() <= 0 {
			continue
		}
		if best == -1 || q.Cmp(pool[best].Value().Get(assetID)) > 0 {
			best = i
		}
	}
	return best
}
