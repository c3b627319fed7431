package txforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardano-go/txforge/serialization/address"
)

func TestExternalWalletCannotSign(t *testing.T) {
	cred := address.NewKeyCredential([28]byte{0x01})
	addr := address.NewEnterpriseAddress(address.Mainnet, cred)
	paymentHash := [28]byte{0x02}
	stakeHash := [28]byte{0x03}

	w := NewExternalWallet(addr, paymentHash, stakeHash)
	assert.Equal(t, addr, w.Address())
	assert.Equal(t, paymentHash, w.PubKeyHash())
	assert.Equal(t, stakeHash, w.StakePubKeyHash())

	_, err := w.SignTxBody([32]byte{})
	require.Error(t, err)
}

func TestBlake2b224IsDeterministicAndSizeCorrect(t *testing.T) {
	h1 := blake2b224([]byte("payment key bytes"))
	h2 := blake2b224([]byte("payment key bytes"))
	assert.Equal(t, h1, h2)

	h3 := blake2b224([]byte("a different key"))
	assert.NotEqual(t, h1, h3)
}
