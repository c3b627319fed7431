package transactioninput

import (
	"testing"

	"github.com/cardano-go/txforge/cbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txid(b byte) [32]byte {
	var h [32]byte
	for i := range h {
		h[i] = b
	}
	return h
}

func TestRoundTrip(t *testing.T) {
	in := New(txid(0x01), 3)
	w := cbor.NewWriter()
	require.NoError(t, in.Encode(w))

	r := cbor.NewReader(w.Bytes())
	got, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestCompareOrdersByTxIDThenIndex(t *testing.T) {
	a := New(txid(0x01), 5)
	b := New(txid(0x01), 2)
	c := New(txid(0x02), 0)
	assert.True(t, Compare(b, a) < 0)
	assert.True(t, Compare(a, c) < 0)
}

func TestEncodeSetCanonicalOrder(t *testing.T) {
	inputs := []Input{New(txid(0x02), 0), New(txid(0x01), 5), New(txid(0x01), 2)}
	w := cbor.NewWriter()
	require.NoError(t, EncodeSet(w, inputs))

	r := cbor.NewReader(w.Bytes())
	got, err := DecodeSet(r)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, New(txid(0x01), 2), got[0])
	assert.Equal(t, New(txid(0x01), 5), got[1])
	assert.Equal(t, New(txid(0x02), 0), got[2])
}

func TestEncodeSetDoesNotMutateInput(t *testing.T) {
	inputs := []Input{New(txid(0x02), 0), New(txid(0x01), 0)}
	w := cbor.NewWriter()
	require.NoError(t, EncodeSet(w, inputs))
	assert.Equal(t, byte(0x02), inputs[0].TransactionID[0])
}
