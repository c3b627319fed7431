// Package fixed implements a static, in-memory backend.Provider:
// preset protocol parameters and a fixed UTxO set, useful for testing
// the balancer without a live chain connection.
package fixed

import (
	"encoding/hex"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/cardano-go/txforge/serialization/address"
	"github.com/cardano-go/txforge/serialization/plutusdata"
	"github.com/cardano-go/txforge/serialization/transaction"
	"github.com/cardano-go/txforge/serialization/transactioninput"
	"github.com/cardano-go/txforge/serialization/transactionwitnessset"
	"github.com/cardano-go/txforge/serialization/utxo"
	"github.com/cardano-go/txforge/serialization/value"
	"github.com/cardano-go/txforge/txbuilding/backend"
	"github.com/cardano-go/txforge/txlog"
)

// Provider is a backend with preset protocol/genesis parameters and
// UTxOs, keyed by the CIP-19 address bytes.
type Provider struct {
	params ProtocolParameters
	mu     sync.RWMutex
	utxos  map[string][]utxo.UTxO
	datums map[[32]byte]plutusdata.PlutusData
	awaits map[[32]byte]bool
	log    *txlog.Logger
}

// SetLogger attaches a diagnostic logger; passing nil (the default)
// makes every trace call a no-op.
func (p *Provider) SetLogger(l *txlog.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = l
}

// ProtocolParameters is an alias so callers don't need to reach into
// the backend package just to build a Provider.
type ProtocolParameters = backend.ProtocolParameters

// New creates a Provider with the given protocol parameters.
func New(pp ProtocolParameters) *Provider {
	return &Provider{
		params: pp,
		utxos:  make(map[string][]utxo.UTxO),
		datums: make(map[[32]byte]plutusdata.PlutusData),
		awaits: make(map[[32]byte]bool),
	}
}

// NewDefault creates a Provider with representative mainnet-era
// protocol parameters, the way the teacher's empty fixed context
// bootstraps a workable default for tests.
func NewDefault() *Provider {
	return New(ProtocolParameters{
		MinFeeConstant:      155381,
		MinFeeCoefficient:   44,
		MaxTxSize:           16384,
		CoinsPerUtxoByte:    4310,
		CollateralPercent:   150,
		MaxCollateralInputs: 3,
		MaxValSize:          5000,
		PriceMem:            0.0577,
		PriceStep:           0.0000721,
		MaxTxExMem:          14000000,
		MaxTxExSteps:        10000000000,
		KeyDeposit:          2000000,
		PoolDeposit:         500000000,
	})
}

// AddUTxO registers a UTxO as sitting at its output's address.
func (p *Provider) AddUTxO(u utxo.UTxO) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := string(u.Output.Address.Bytes())
	p.utxos[key] = append(p.utxos[key], u)
	p.log.Debug("added utxo", zap.Int64("lovelace", u.Output.Value.Coin), zap.Int("index", int(u.Input.Index)))
}

// SetDatum registers a Plutus data value resolvable by its hash.
func (p *Provider) SetDatum(hash [32]byte, d plutusdata.PlutusData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.datums[hash] = d
}

// SetConfirmed marks a transaction id as confirmed for
// AwaitTransactionConfirmation.
func (p *Provider) SetConfirmed(txID [32]byte, confirmed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.awaits[txID] = confirmed
}

func (p *Provider) GetParameters() (ProtocolParameters, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pp := p.params
	if pp.CostModels != nil {
		cm := make(map[string][]int64, len(pp.CostModels))
		for k, v := range pp.CostModels {
			dup := make([]int64, len(v))
			copy(dup, v)
			cm[k] = dup
		}
		pp.CostModels = cm
	}
	return pp, nil
}

func (p *Provider) GetUnspentOutputs(addr address.Address) ([]utxo.UTxO, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	src := p.utxos[string(addr.Bytes())]
	out := make([]utxo.UTxO, len(src))
	copy(out, src)
	return out, nil
}

func (p *Provider) GetRewardsAvailable(address.Address) (int64, error) {
	return 0, nil
}

func (p *Provider) GetUnspentOutputsWithAsset(addr address.Address, asset value.AssetID) ([]utxo.UTxO, error) {
	all, err := p.GetUnspentOutputs(addr)
	if err != nil {
		return nil, err
	}
	var out []utxo.UTxO
	for _, u := range all {
		if u.Output.Value.Get(asset).Sign() > 0 {
			out = append(out, u)
		}
	}
	return out, nil
}

func (p *Provider) GetUnspentOutputByNFT(asset value.AssetID) (utxo.UTxO, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, utxos := range p.utxos {
		for _, u := range utxos {
			if u.Output.Value.Get(asset).Sign() > 0 {
				return u, nil
			}
		}
	}
	return utxo.UTxO{}, errors.New("no utxo found holding the requested asset")
}

func (p *Provider) ResolveUnspentOutputs(refs []transactioninput.Input) ([]utxo.UTxO, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	wanted := make(map[transactioninput.Input]bool, len(refs))
	for _, r := range refs {
		wanted[r] = true
	}
	var out []utxo.UTxO
	for _, utxos := range p.utxos {
		for _, u := range utxos {
			if wanted[u.Input] {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func (p *Provider) ResolveDatum(hash [32]byte) (plutusdata.PlutusData, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	d, ok := p.datums[hash]
	if !ok {
		p.log.Debug("datum miss", zap.String("hash", hex.EncodeToString(hash[:])))
		return plutusdata.PlutusData{}, errors.New("no datum registered for the requested hash")
	}
	return d, nil
}

func (p *Provider) SubmitTransaction(transaction.Transaction) ([32]byte, error) {
	p.log.Warn("submit rejected: fixed provider cannot submit")
	return [32]byte{}, errors.New("cannot submit a transaction through a fixed provider")
}

func (p *Provider) EvaluateTransaction(tx transaction.Transaction, _ []utxo.UTxO) (map[transactionwitnessset.RedeemerKey]transactionwitnessset.ExUnits, error) {
	p.log.Debug("evaluate rejected: fixed provider cannot run scripts", zap.Int("redeemers", len(tx.WitnessSet.Redeemers)))
	return nil, errors.New("cannot evaluate scripts through a fixed provider")
}

func (p *Provider) AwaitTransactionConfirmation(txID [32]byte, _ int64) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.awaits[txID], nil
}
