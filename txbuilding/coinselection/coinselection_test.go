package coinselection

import (
	"math/big"
	"testing"

	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/serialization/address"
	"github.com/cardano-go/txforge/serialization/transactioninput"
	"github.com/cardano-go/txforge/serialization/transactionoutput"
	"github.com/cardano-go/txforge/serialization/utxo"
	"github.com/cardano-go/txforge/serialization/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hash28(b byte) [28]byte {
	var h [28]byte
	h[0] = b
	return h
}

func hash32(b byte) [32]byte {
	var h [32]byte
	h[0] = b
	return h
}

func coinUTxO(t *testing.T, idByte byte, lovelace int64) utxo.UTxO {
	t.Helper()
	addr := address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(hash28(0x01)))
	in := transactioninput.New(hash32(idByte), 0)
	out := transactionoutput.New(addr, value.NewCoin(lovelace))
	return utxo.New(in, out)
}

// S3 — Largest-first multi-asset: lovelace {10, 5, 3}; target coin = 7
// selects {10}, leaving {5, 3}.
func TestLargestFirstCoinOnly(t *testing.T) {
	u10 := coinUTxO(t, 0x10, 10)
	u5 := coinUTxO(t, 0x05, 5)
	u3 := coinUTxO(t, 0x03, 3)
	available := []utxo.UTxO{u10, u5, u3}

	selected, remaining, err := Select(nil, available, value.NewCoin(7))
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, int64(10), selected[0].Output.Value.Coin)
	require.Len(t, remaining, 2)
}

// S3 continued: target coin = 12 with asset X only on the 5-UTxO,
// target asset X = 1 — selection yields {10, 5}.
func TestLargestFirstMultiAsset(t *testing.T) {
	addr := address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(hash28(0x01)))
	var policy value.PolicyID
	policy[0] = 0x99

	v10 := value.NewCoin(10)
	out10 := transactionoutput.New(addr, v10)
	u10 := utxo.New(transactioninput.New(hash32(0x10), 0), out10)

	v5 := value.Value{Coin: 5, Assets: value.MultiAsset{policy: {"X": big.NewInt(1)}}}
	out5 := transactionoutput.New(addr, v5)
	u5 := utxo.New(transactioninput.New(hash32(0x05), 0), out5)

	v3 := value.NewCoin(3)
	out3 := transactionoutput.New(addr, v3)
	u3 := utxo.New(transactioninput.New(hash32(0x03), 0), out3)

	available := []utxo.UTxO{u10, u5, u3}
	target := value.Value{Coin: 12, Assets: value.MultiAsset{policy: {"X": big.NewInt(1)}}}

	selected, remaining, err := Select(nil, available, target)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	require.Len(t, remaining, 1)
	assert.Equal(t, int64(3), remaining[0].Output.Value.Coin)
}

func TestPreSelectedAlreadyCoveringTargetSelectsNothingMore(t *testing.T) {
	pre := []utxo.UTxO{coinUTxO(t, 0x01, 20)}
	available := []utxo.UTxO{coinUTxO(t, 0x02, 100)}

	selected, remaining, err := Select(pre, available, value.NewCoin(10))
	require.NoError(t, err)
	assert.Len(t, selected, 1)
	assert.Len(t, remaining, 1)
}

func TestInsufficientBalanceFails(t *testing.T) {
	available := []utxo.UTxO{coinUTxO(t, 0x01, 5)}
	_, _, err := Select(nil, available, value.NewCoin(100))
	require.Error(t, err)
	var cerr *cbor.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cbor.KindBalanceInsufficient, cerr.Kind)
}
