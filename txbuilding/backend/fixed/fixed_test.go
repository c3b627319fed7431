package fixed

import (
	"math/big"
	"testing"

	"github.com/cardano-go/txforge/serialization/address"
	"github.com/cardano-go/txforge/serialization/transactioninput"
	"github.com/cardano-go/txforge/serialization/transactionoutput"
	"github.com/cardano-go/txforge/serialization/utxo"
	"github.com/cardano-go/txforge/serialization/value"
	"github.com/cardano-go/txforge/txbuilding/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ backend.Provider = (*Provider)(nil)

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

func TestGetParametersReturnsCopy(t *testing.T) {
	p := NewDefault()
	pp, err := p.GetParameters()
	require.NoError(t, err)
	assert.Equal(t, int64(155381), pp.MinFeeConstant)
}

func TestAddAndGetUnspentOutputs(t *testing.T) {
	p := NewDefault()
	addr := address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(hash28(0x01)))
	in := transactioninput.New(hash32(0x02), 0)
	out := transactionoutput.New(addr, value.NewCoin(5_000_000))
	p.AddUTxO(utxo.New(in, out))

	got, err := p.GetUnspentOutputs(addr)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5_000_000), got[0].Output.Value.Coin)
}

func TestGetUnspentOutputsWithAssetFilters(t *testing.T) {
	p := NewDefault()
	addr := address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(hash28(0x03)))
	plain := transactionoutput.New(addr, value.NewCoin(2_000_000))

	var policy value.PolicyID
	policy[0] = 0x04
	withAsset := value.NewCoin(2_000_000)
	withAsset.Assets = value.MultiAsset{policy: {"token": big.NewInt(1)}}
	tagged := transactionoutput.New(addr, withAsset)

	p.AddUTxO(utxo.New(transactioninput.New(hash32(0x05), 0), plain))
	p.AddUTxO(utxo.New(transactioninput.New(hash32(0x06), 0), tagged))

	got, err := p.GetUnspentOutputsWithAsset(addr, value.AssetID{Policy: policy, Name: "token"})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestResolveUnspentOutputs(t *testing.T) {
	p := NewDefault()
	addr := address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(hash28(0x07)))
	in := transactioninput.New(hash32(0x08), 1)
	p.AddUTxO(utxo.New(in, transactionoutput.New(addr, value.NewCoin(1_000_000))))

	got, err := p.ResolveUnspentOutputs([]transactioninput.Input{in})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, in, got[0].Input)
}

func TestResolveDatumUnknownHashErrors(t *testing.T) {
	p := NewDefault()
	_, err := p.ResolveDatum(hash32(0x09))
	require.Error(t, err)
}

func TestAwaitTransactionConfirmation(t *testing.T) {
	p := NewDefault()
	txID := hash32(0x0a)
	p.SetConfirmed(txID, true)
	confirmed, err := p.AwaitTransactionConfirmation(txID, 1000)
	require.NoError(t, err)
	assert.True(t, confirmed)
}
