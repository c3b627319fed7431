package certificate

import (
	"testing"

	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/serialization/address"
	"github.com/cardano-go/txforge/serialization/governance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hash28(b byte) [28]byte {
	var h [28]byte
	h[0] = b
	return h
}

func roundTrip(t *testing.T, c Certificate) Certificate {
	t.Helper()
	w := cbor.NewWriter()
	require.NoError(t, c.Encode(w))
	r := cbor.NewReader(w.Bytes())
	got, err := Decode(r)
	require.NoError(t, err)
	return got
}

func TestStakeRegistrationRoundTrip(t *testing.T) {
	cred := address.NewKeyCredential(hash28(0x01))
	c := NewStakeRegistration(cred)
	got := roundTrip(t, c)
	assert.Equal(t, c, got)
	assert.Equal(t, int64(2_000_000), c.Deposit(2_000_000))
}

func TestStakeDeregistrationDepositIsNegative(t *testing.T) {
	c := NewStakeDeregistration(address.NewKeyCredential(hash28(0x02)))
	assert.Equal(t, int64(-2_000_000), c.Deposit(2_000_000))
}

func TestStakeDelegationRoundTrip(t *testing.T) {
	c := NewStakeDelegation(address.NewKeyCredential(hash28(0x03)), hash28(0x04))
	got := roundTrip(t, c)
	assert.Equal(t, c, got)
	assert.Equal(t, int64(0), c.Deposit(2_000_000))
}

func TestVoteDelegationRoundTrip(t *testing.T) {
	c := NewVoteDelegation(address.NewKeyCredential(hash28(0x05)), governance.AlwaysAbstain())
	got := roundTrip(t, c)
	assert.Equal(t, c, got)
}

func TestPoolRetirementRoundTrip(t *testing.T) {
	c := NewPoolRetirement(hash28(0x06), 450)
	got := roundTrip(t, c)
	assert.Equal(t, c, got)
}
