// Package fee implements the linear transaction fee formula and the
// per-output minimum lovelace requirement the balancer enforces before
// a transaction is considered complete.
package fee

import (
	"math"

	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/serialization/transaction"
	"github.com/cardano-go/txforge/serialization/transactionoutput"
	"github.com/cardano-go/txforge/serialization/transactionwitnessset"
	"github.com/cardano-go/txforge/txbuilding/backend"
)

// Estimate computes a transaction's fee as the linear byte-size term
// plus the cost of every redeemer's execution units:
//
//	fee = minFeeConstant + minFeeCoefficient * size(tx) + ceil(priceMem * totalMem + priceStep * totalSteps)
//
// tx should already carry its final witness set (including placeholder
// vkey witnesses sized to the signers that will eventually sign) so
// that size(tx) reflects the transaction that will actually be submitted.
func Estimate(tx transaction.Transaction, pp backend.ProtocolParameters) (int64, error) {
	w := cbor.NewWriter()
	if err := tx.Encode(w); err != nil {
		return 0, err
	}
	size := int64(len(w.Bytes()))
	f := pp.MinFeeConstant + pp.MinFeeCoefficient*size

	var totalMem, totalSteps uint64
	for _, rv := range tx.WitnessSet.Redeemers {
		totalMem += rv.ExUnits.Mem
		totalSteps += rv.ExUnits.Steps
	}
	if totalMem > 0 || totalSteps > 0 {
		exUnitCost := math.Ceil(pp.PriceMem*float64(totalMem) + pp.PriceStep*float64(totalSteps))
		f += int64(exUnitCost)
	}
	return f, nil
}

// PlaceholderVKeyWitnesses returns n zero-filled VKeyWitness values, used
// to pad a fee-estimation transaction's witness set to its expected
// final size before the real signatures exist.
func PlaceholderVKeyWitnesses(n int) []transactionwitnessset.VKeyWitness {
	out := make([]transactionwitnessset.VKeyWitness, n)
	return out
}

// MinUTxOLovelace computes the minimum lovelace a transaction output
// must carry: coinsPerUtxoByte * (serialized_size(output) + 160).
func MinUTxOLovelace(out transactionoutput.Output, coinsPerUtxoByte int64) (int64, error) {
	w := cbor.NewWriter()
	if err := out.Encode(w); err != nil {
		return 0, err
	}
	size := int64(len(w.Bytes()))
	return coinsPerUtxoByte * (size + 160), nil
}

// MeetsMinUTxO reports whether out's coin amount is at least the
// minimum lovelace required for its own serialized size.
func MeetsMinUTxO(out transactionoutput.Output, coinsPerUtxoByte int64) (bool, int64, error) {
	min, err := MinUTxOLovelace(out, coinsPerUtxoByte)
	if err != nil {
		return false, 0, err
	}
	return out.Value.Coin >= min, min, nil
}
