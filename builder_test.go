package txforge

import (
	"testing"

	"github.com/cardano-go/txforge/txbuilding/backend/fixed"
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

func simpleUTxO(idByte byte, addr address.Address, lovelace int64) utxo.UTxO {
	return utxo.New(transactioninput.New(hash32(idByte), 0), transactionoutput.New(addr, value.NewCoin(lovelace)))
}

func TestBuilderBalancesSimplePayment(t *testing.T) {
	provider := fixed.NewDefault()
	changeAddr := address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(hash28(0x01)))
	payeeAddr := address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(hash28(0x02)))

	available := []utxo.UTxO{simpleUTxO(0x10, changeAddr, 50_000_000)}

	b := NewBuilder(provider, changeAddr).WithAvailableUTxOs(available)
	b.AddOutput(transactionoutput.New(payeeAddr, value.NewCoin(10_000_000)))

	tx, err := b.Complete()
	require.NoError(t, err)

	require.Len(t, tx.Body.Inputs, 1)
	require.Len(t, tx.Body.Outputs, 2) // payment + change
	assert.Greater(t, tx.Body.Fee, int64(0))

	var totalIn int64 = 50_000_000
	var totalOut int64
	for _, o := range tx.Body.Outputs {
		totalOut += o.Value.Coin
	}
	assert.Equal(t, totalIn, totalOut+tx.Body.Fee)
}

func TestBuilderDrawsMultipleUTxOsWhenNeeded(t *testing.T) {
	provider := fixed.NewDefault()
	changeAddr := address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(hash28(0x03)))
	payeeAddr := address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(hash28(0x04)))

	available := []utxo.UTxO{
		simpleUTxO(0x20, changeAddr, 10_000_000),
		simpleUTxO(0x21, changeAddr, 10_000_000),
		simpleUTxO(0x22, changeAddr, 10_000_000),
	}

	b := NewBuilder(provider, changeAddr).WithAvailableUTxOs(available)
	b.AddOutput(transactionoutput.New(payeeAddr, value.NewCoin(15_000_000)))

	tx, err := b.Complete()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(tx.Body.Inputs), 2)
}

func TestBuilderFailsWhenUnfunded(t *testing.T) {
	provider := fixed.NewDefault()
	changeAddr := address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(hash28(0x05)))
	payeeAddr := address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(hash28(0x06)))

	available := []utxo.UTxO{simpleUTxO(0x30, changeAddr, 1_000_000)}

	b := NewBuilder(provider, changeAddr).WithAvailableUTxOs(available)
	b.AddOutput(transactionoutput.New(payeeAddr, value.NewCoin(50_000_000)))

	_, err := b.Complete()
	require.Error(t, err)
}
