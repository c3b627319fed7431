// Package backend defines the capability vtable the balancer depends
// on to reach a Cardano chain: protocol parameters, UTxO queries,
// datum resolution, transaction submission and evaluation. No
// concrete provider (HTTP, local node) lives in the core; backend/fixed
// supplies a static implementation for tests and documentation.
package backend

import (
	"github.com/cardano-go/txforge/serialization/address"
	"github.com/cardano-go/txforge/serialization/plutusdata"
	"github.com/cardano-go/txforge/serialization/transaction"
	"github.com/cardano-go/txforge/serialization/transactioninput"
	"github.com/cardano-go/txforge/serialization/transactionwitnessset"
	"github.com/cardano-go/txforge/serialization/utxo"
	"github.com/cardano-go/txforge/serialization/value"
)

// GenesisParameters holds the genesis configuration values a balancer
// rarely needs but a provider still exposes (network magic, epoch
// length, slot timing).
type GenesisParameters struct {
	ActiveSlotsCoefficient float64
	UpdateQuorum           int
	MaxLovelaceSupply      string
	NetworkMagic           int
	EpochLength            int
	SystemStart            int64
	SlotsPerKesPeriod      int
	SlotLength             int
	MaxKesEvolutions       int
	SecurityParam          int
}

// ProtocolParameters holds the current Cardano protocol parameters the
// fee calculator, min-UTxO calculator, and collateral selector consume.
type ProtocolParameters struct {
	MinFeeConstant      int64
	MinFeeCoefficient   int64
	MaxTxSize           int
	MaxBlockHeaderSize  int
	KeyDeposit          int64
	PoolDeposit         int64
	PriceMem            float64
	PriceStep           float64
	MaxTxExMem          int64
	MaxTxExSteps        int64
	MaxValSize          int64
	CollateralPercent   int64
	MaxCollateralInputs int
	CoinsPerUtxoByte    int64
	CostModels          map[string][]int64
}

// Provider is the capability vtable the balancer depends on.
type Provider interface {
	// GetParameters returns the current protocol parameters.
	GetParameters() (ProtocolParameters, error)

	// GetUnspentOutputs lists the UTxOs currently sitting at an address.
	GetUnspentOutputs(addr address.Address) ([]utxo.UTxO, error)

	// GetRewardsAvailable reports the lovelace currently withdrawable
	// from a reward (stake) address.
	GetRewardsAvailable(rewardAccount address.Address) (int64, error)

	// GetUnspentOutputsWithAsset lists the UTxOs at an address that
	// carry a positive quantity of the given asset.
	GetUnspentOutputsWithAsset(addr address.Address, asset value.AssetID) ([]utxo.UTxO, error)

	// GetUnspentOutputByNFT locates the single UTxO currently holding
	// an asset whose total on-chain supply is exactly one (an NFT).
	GetUnspentOutputByNFT(asset value.AssetID) (utxo.UTxO, error)

	// ResolveUnspentOutputs looks up UTxOs by their input references.
	ResolveUnspentOutputs(refs []transactioninput.Input) ([]utxo.UTxO, error)

	// ResolveDatum looks up the Plutus data behind a datum hash
	// referenced by an output that only carries the hash on-chain.
	ResolveDatum(hash [32]byte) (plutusdata.PlutusData, error)

	// SubmitTransaction submits a signed transaction, returning its id.
	SubmitTransaction(tx transaction.Transaction) ([32]byte, error)

	// EvaluateTransaction runs Plutus script evaluation against a draft
	// transaction plus any additional UTxOs the inputs resolve to,
	// returning the redeemers' actual execution-unit costs.
	EvaluateTransaction(tx transaction.Transaction, additional []utxo.UTxO) (map[transactionwitnessset.RedeemerKey]transactionwitnessset.ExUnits, error)

	// AwaitTransactionConfirmation polls for on-chain confirmation of
	// txID, giving up after timeoutMs milliseconds.
	AwaitTransactionConfirmation(txID [32]byte, timeoutMs int64) (bool, error)
}
