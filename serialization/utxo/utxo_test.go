package utxo

import (
	"testing"

	"github.com/cardano-go/txforge/serialization/address"
	"github.com/cardano-go/txforge/serialization/transactioninput"
	"github.com/cardano-go/txforge/serialization/transactionoutput"
	"github.com/cardano-go/txforge/serialization/value"
	"github.com/stretchr/testify/assert"
)

func TestValueReturnsOutputValue(t *testing.T) {
	var kh [28]byte
	kh[0] = 0x01
	addr := address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(kh))
	out := transactionoutput.New(addr, value.NewCoin(4_000_000))
	var txid [32]byte
	u := New(transactioninput.New(txid, 0), out)

	assert.Equal(t, int64(4_000_000), u.Value().Coin)
}
