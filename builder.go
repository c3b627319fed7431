// Package txforge assembles and balances Cardano transactions: given a
// set of outputs, certificates, withdrawals, and mint instructions plus
// a pool of available UTxOs, Builder runs the iterative
// select -> add-change -> recompute-fee -> evaluate-scripts ->
// set-collateral loop against a backend.Provider until the transaction
// balances and every output meets its minimum-UTxO requirement.
package txforge

import (
	"math/big"

	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/serialization/address"
	"github.com/cardano-go/txforge/serialization/certificate"
	"github.com/cardano-go/txforge/serialization/metadata"
	"github.com/cardano-go/txforge/serialization/transaction"
	"github.com/cardano-go/txforge/serialization/transactionbody"
	"github.com/cardano-go/txforge/serialization/transactioninput"
	"github.com/cardano-go/txforge/serialization/transactionoutput"
	"github.com/cardano-go/txforge/serialization/transactionwitnessset"
	"github.com/cardano-go/txforge/serialization/utxo"
	"github.com/cardano-go/txforge/serialization/value"
	"github.com/cardano-go/txforge/txbuilding/backend"
	"github.com/cardano-go/txforge/txbuilding/coinselection"
	"github.com/cardano-go/txforge/txbuilding/fee"
)

const (
	defaultMaxIterations  = 16
	minCollateralLovelace = 5_000_000
)

// Builder collects the inputs to a balanced transaction and runs the
// balancing loop against a backend.Provider.
type Builder struct {
	Provider      backend.Provider
	ChangeAddress address.Address

	Outputs      []transactionoutput.Output
	Certificates []certificate.Certificate
	Withdrawals  []transactionbody.Withdrawal
	Mint         *value.MultiAsset
	TTL          *uint64

	// PreSelected are inputs the caller requires in the transaction
	// regardless of balance (e.g. script inputs). Available is the pool
	// the selector draws additional plain inputs from.
	PreSelected []utxo.UTxO
	Available   []utxo.UTxO

	// CollateralPool is the set of pure-ADA, few-asset UTxOs eligible as
	// collateral for script transactions.
	CollateralPool []utxo.UTxO

	WitnessSet    transactionwitnessset.WitnessSet
	AuxiliaryData *metadata.AuxiliaryData

	// SpendRedeemers keys a spend redeemer by the input it unlocks; at
	// Complete, the builder resolves each entry's final RedeemerKey from
	// the canonically sorted input set (see mergeSpendRedeemers).
	SpendRedeemers map[transactioninput.Input]transactionwitnessset.RedeemerValue

	// ExtraSigners is the number of placeholder vkey witnesses to size
	// the fee estimate for, beyond the one implicit signer.
	ExtraSigners int

	MaxIterations int
}

// NewBuilder creates a Builder that sends change to changeAddress.
func NewBuilder(p backend.Provider, changeAddress address.Address) *Builder {
	return &Builder{Provider: p, ChangeAddress: changeAddress, MaxIterations: defaultMaxIterations}
}

func (b *Builder) WithAvailableUTxOs(utxos []utxo.UTxO) *Builder {
	b.Available = utxos
	return b
}

func (b *Builder) WithCollateralPool(utxos []utxo.UTxO) *Builder {
	b.CollateralPool = utxos
	return b
}

func (b *Builder) AddOutput(out transactionoutput.Output) *Builder {
	b.Outputs = append(b.Outputs, out)
	return b
}

func (b *Builder) AddCertificate(c certificate.Certificate) *Builder {
	b.Certificates = append(b.Certificates, c)
	return b
}

// Complete runs the balancing loop and returns the finished transaction,
// unsigned: its witness set holds 1+ExtraSigners zero-filled placeholder
// vkey witnesses, which the caller replaces with real signatures.
func (b *Builder) Complete() (transaction.Transaction, error) {
	pp, err := b.Provider.GetParameters()
	if err != nil {
		return transaction.Transaction{}, err
	}
	maxIter := b.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	selected := append([]utxo.UTxO(nil), b.PreSelected...)
	available := append([]utxo.UTxO(nil), b.Available...)
	outputs := append([]transactionoutput.Output(nil), b.Outputs...)

	var changeIdx = -1
	var estimatedFee int64
	var padLovelace int64

	var tx transaction.Transaction
	converged := false

	for iter := 0; !converged; iter++ {
		if iter >= maxIter {
			return transaction.Transaction{}, &cbor.Error{Kind: cbor.KindBalanceInsufficient, Context: "balancer exceeded max iterations without converging"}
		}

		required := value.Add(valueFromOutputs(outputs), burnValue(b.Mint))
		required = value.Add(required, depositValue(b.Certificates, pp.KeyDeposit))
		required = value.Add(required, value.NewCoin(estimatedFee+padLovelace))

		provided := value.Add(valueFromUTxOs(selected), mintedValue(b.Mint))
		provided = value.Add(provided, withdrawalValue(b.Withdrawals))

		shortfall := value.Subtract(required, provided)
		if hasPositiveComponent(shortfall) {
			newSelected, newAvailable, serr := coinselection.Select(selected, available, positivePart(shortfall))
			if serr != nil {
				return transaction.Transaction{}, serr
			}
			selected, available = newSelected, newAvailable
			provided = value.Add(valueFromUTxOs(selected), mintedValue(b.Mint))
			provided = value.Add(provided, withdrawalValue(b.Withdrawals))
		}

		change := value.Subtract(provided, required)
		if !change.IsNonNegative() {
			return transaction.Transaction{}, &cbor.Error{Kind: cbor.KindBalanceInsufficient, Context: "selected inputs do not cover outputs, deposits, and fee"}
		}

		if changeIdx >= 0 {
			outputs = append(outputs[:changeIdx], outputs[changeIdx+1:]...)
			changeIdx = -1
		}
		if !change.IsZero() {
			changeOut := transactionoutput.New(b.ChangeAddress, change)
			ok, minRequired, merr := fee.MeetsMinUTxO(changeOut, pp.CoinsPerUtxoByte)
			if merr != nil {
				return transaction.Transaction{}, merr
			}
			if !ok {
				padLovelace += minRequired - change.Coin
				continue
			}
			changeIdx = len(outputs)
			outputs = append(outputs, changeOut)
		}
		padLovelace = 0

		body := b.buildBody(selected, outputs, estimatedFee)
		ws := b.WitnessSet
		ws.Redeemers = mergeSpendRedeemers(ws.Redeemers, b.SpendRedeemers, selected)
		ws.VKeyWitnesses = fee.PlaceholderVKeyWitnesses(1 + b.ExtraSigners)

		tx = transaction.New(body, ws)
		if b.AuxiliaryData != nil {
			tx = tx.WithAuxiliaryData(*b.AuxiliaryData)
		}

		newFee, ferr := fee.Estimate(tx, pp)
		if ferr != nil {
			return transaction.Transaction{}, ferr
		}
		if newFee == estimatedFee {
			converged = true
			continue
		}
		estimatedFee = newFee
	}

	if len(tx.WitnessSet.Redeemers) > 0 {
		evaluated, eerr := b.Provider.EvaluateTransaction(tx, append(selected, available...))
		if eerr != nil {
			return transaction.Transaction{}, eerr
		}
		for k, units := range evaluated {
			if rv, ok := tx.WitnessSet.Redeemers[k]; ok {
				rv.ExUnits = units
				tx.WitnessSet.Redeemers[k] = rv
			}
		}
		refreshedFee, ferr := fee.Estimate(tx, pp)
		if ferr != nil {
			return transaction.Transaction{}, ferr
		}
		tx.Body.Fee = refreshedFee

		collateralTx, cerr := b.setCollateral(tx, refreshedFee, pp)
		if cerr != nil {
			return transaction.Transaction{}, cerr
		}
		tx = collateralTx
	}

	return tx, nil
}

// setCollateral runs the collateral loop: select collateral-eligible
// UTxOs to cover a percentage of the fee, padding the requirement
// upward and reselecting if the resulting collateral return would fall
// below the minimum UTxO.
func (b *Builder) setCollateral(tx transaction.Transaction, txFee int64, pp backend.ProtocolParameters) (transaction.Transaction, error) {
	required := txFee * pp.CollateralPercent / 100
	if txFee*pp.CollateralPercent%100 != 0 {
		required++
	}
	if required < minCollateralLovelace {
		required = minCollateralLovelace
	}

	pool := append([]utxo.UTxO(nil), b.CollateralPool...)
	for {
		target := value.NewCoin(required)
		collateral, _, err := coinselection.Select(nil, pool, target)
		if err != nil {
			return transaction.Transaction{}, err
		}

		var totalCoin int64
		for _, u := range collateral {
			totalCoin += u.Output.Value.Coin
		}
		returnAmount := totalCoin - required

		if returnAmount > 0 {
			returnOut := transactionoutput.New(b.ChangeAddress, value.NewCoin(returnAmount))
			ok, _, merr := fee.MeetsMinUTxO(returnOut, pp.CoinsPerUtxoByte)
			if merr != nil {
				return transaction.Transaction{}, merr
			}
			if !ok {
				required += minCollateralLovelace
				continue
			}
			tx.Body.CollateralReturn = &returnOut
		}

		collateralInputs := make([]transactioninput.Input, len(collateral))
		for i, u := range collateral {
			collateralInputs[i] = u.Input
		}
		tx.Body.CollateralInputs = collateralInputs
		total := uint64(totalCoin)
		tx.Body.TotalCollateral = &total
		return tx, nil
	}
}

func (b *Builder) buildBody(selected []utxo.UTxO, outputs []transactionoutput.Output, fee int64) transactionbody.Body {
	inputs := make([]transactioninput.Input, len(selected))
	for i, u := range selected {
		inputs[i] = u.Input
	}
	body := transactionbody.Body{
		Inputs:       inputs,
		Outputs:      outputs,
		Fee:          fee,
		TTL:          b.TTL,
		Certificates: b.Certificates,
		Withdrawals:  b.Withdrawals,
		Mint:         b.Mint,
	}
	return body
}

// mergeSpendRedeemers resolves spend-keyed redeemers into the final
// RedeemerKey space by the input's position within the canonically
// sorted final input set (every selected UTxO, preselected or drawn).
func mergeSpendRedeemers(base map[transactionwitnessset.RedeemerKey]transactionwitnessset.RedeemerValue, bySpend map[transactioninput.Input]transactionwitnessset.RedeemerValue, selected []utxo.UTxO) map[transactionwitnessset.RedeemerKey]transactionwitnessset.RedeemerValue {
	if len(bySpend) == 0 {
		return base
	}
	sorted := make([]transactioninput.Input, len(selected))
	for i, u := range selected {
		sorted[i] = u.Input
	}
	transactioninput.Sort(sorted)

	out := make(map[transactionwitnessset.RedeemerKey]transactionwitnessset.RedeemerValue, len(base)+len(bySpend))
	for k, v := range base {
		out[k] = v
	}
	for idx, in := range sorted {
		if rv, ok := bySpend[in]; ok {
			out[transactionwitnessset.RedeemerKey{Tag: transactionwitnessset.RedeemerTagSpend, Index: uint32(idx)}] = rv
		}
	}
	return out
}

func valueFromOutputs(outputs []transactionoutput.Output) value.Value {
	out := value.Zero()
	for _, o := range outputs {
		out = value.Add(out, o.Value)
	}
	return out
}

func valueFromUTxOs(utxos []utxo.UTxO) value.Value {
	out := value.Zero()
	for _, u := range utxos {
		out = value.Add(out, u.Value())
	}
	return out
}

func withdrawalValue(withdrawals []transactionbody.Withdrawal) value.Value {
	var total int64
	for _, w := range withdrawals {
		total += w.Amount
	}
	return value.NewCoin(total)
}

// depositValue sums each certificate's deposit delta: positive for
// stake registration (consumes balance), negative for deregistration
// (returns balance).
func depositValue(certs []certificate.Certificate, keyDeposit int64) value.Value {
	var total int64
	for _, c := range certs {
		total += c.Deposit(keyDeposit)
	}
	return value.NewCoin(total)
}

// burnValue returns the positive value of every negative mint quantity:
// burning a native asset consumes it from the selected inputs just like
// an output would.
func burnValue(mint *value.MultiAsset) value.Value {
	if mint == nil {
		return value.Zero()
	}
	out := value.MultiAsset{}
	for p, assets := range *mint {
		for n, qty := range assets {
			if qty.Sign() < 0 {
				addAsset(out, p, n, new(big.Int).Neg(qty))
			}
		}
	}
	if len(out) == 0 {
		return value.Zero()
	}
	return value.Value{Assets: out}
}

// mintedValue returns the positive value of every positive mint
// quantity: newly minted assets are available to spend immediately.
func mintedValue(mint *value.MultiAsset) value.Value {
	if mint == nil {
		return value.Zero()
	}
	out := value.MultiAsset{}
	for p, assets := range *mint {
		for n, qty := range assets {
			if qty.Sign() > 0 {
				addAsset(out, p, n, new(big.Int).Set(qty))
			}
		}
	}
	if len(out) == 0 {
		return value.Zero()
	}
	return value.Value{Assets: out}
}

func positivePart(v value.Value) value.Value {
	out := value.NewCoin(v.Coin)
	if out.Coin < 0 {
		out.Coin = 0
	}
	if len(v.Assets) == 0 {
		return out
	}
	assets := value.MultiAsset{}
	for p, names := range v.Assets {
		for n, qty := range names {
			if qty.Sign() > 0 {
				addAsset(assets, p, n, new(big.Int).Set(qty))
			}
		}
	}
	out.Assets = assets
	return out
}

// addAsset writes qty under policy/name in m, allocating the inner map
// on first use.
func addAsset(m value.MultiAsset, p value.PolicyID, name string, qty *big.Int) {
	assets, ok := m[p]
	if !ok {
		assets = make(map[string]*big.Int)
		m[p] = assets
	}
	assets[name] = qty
}

func hasPositiveComponent(v value.Value) bool {
	if v.Coin > 0 {
		return true
	}
	for _, names := range v.Assets {
		for _, qty := range names {
			if qty.Sign() > 0 {
				return true
			}
		}
	}
	return false
}
