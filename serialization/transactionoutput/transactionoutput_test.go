package transactionoutput

import (
	"math/big"
	"testing"

	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/serialization/address"
	"github.com/cardano-go/txforge/serialization/datum"
	"github.com/cardano-go/txforge/serialization/script"
	"github.com/cardano-go/txforge/serialization/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hash28(b byte) [28]byte {
	var h [28]byte
	for i := range h {
		h[i] = b
	}
	return h
}

func testAddr() address.Address {
	return address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(hash28(0x01)))
}

func TestSimpleOutputRoundTrip(t *testing.T) {
	o := New(testAddr(), value.NewCoin(5_000_000))
	w := cbor.NewWriter()
	require.NoError(t, o.Encode(w))

	r := cbor.NewReader(w.Bytes())
	got, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, o.Address, got.Address)
	assert.Equal(t, o.Value.Coin, got.Value.Coin)
}

func TestOutputWithDatumHashRoundTrip(t *testing.T) {
	var h [32]byte
	h[0] = 0x42
	o := New(testAddr(), value.NewCoin(2_000_000)).WithDatum(datum.NewHash(h))

	w := cbor.NewWriter()
	require.NoError(t, o.Encode(w))

	r := cbor.NewReader(w.Bytes())
	got, err := Decode(r)
	require.NoError(t, err)
	require.NotNil(t, got.Datum)
	assert.Equal(t, datum.KindHash, got.Datum.Kind)
	assert.Equal(t, h, got.Datum.Hash)
}

func TestOutputWithScriptRefRoundTrip(t *testing.T) {
	var kh [28]byte
	kh[0] = 0x07
	n := script.Sig(kh)
	o := New(testAddr(), value.NewCoin(3_000_000)).WithScriptRef(script.NewNative(n))

	w := cbor.NewWriter()
	require.NoError(t, o.Encode(w))

	r := cbor.NewReader(w.Bytes())
	got, err := Decode(r)
	require.NoError(t, err)
	require.NotNil(t, got.ScriptRef)
	assert.Equal(t, script.LanguageNative, got.ScriptRef.Language)
	assert.Equal(t, n, got.ScriptRef.Native)
}

func TestOutputWithAssetsRoundTrip(t *testing.T) {
	var policy value.PolicyID
	policy[0] = 0x09
	v := value.Value{Coin: 1_500_000, Assets: value.MultiAsset{
		policy: {"token": big.NewInt(1)},
	}}
	o := New(testAddr(), v)
	w := cbor.NewWriter()
	require.NoError(t, o.Encode(w))

	r := cbor.NewReader(w.Bytes())
	got, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000), got.Value.Coin)
	assert.Len(t, got.Value.Assets, 1)
}
