package plutusdata

import (
	"testing"

	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/cbor/bigint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, p PlutusData) []byte {
	t.Helper()
	w := cbor.NewWriter()
	require.NoError(t, p.Encode(w))
	return w.Bytes()
}

func TestRoundTripConstr(t *testing.T) {
	p := NewConstr(0, NewIntegerFromInt64(1), NewBytes([]byte{0xAB}))
	raw := encode(t, p)

	r := cbor.NewReader(raw)
	got, err := Decode(r)
	require.NoError(t, err)
	assert.True(t, Equal(p, got))
}

func TestRoundTripHighConstrAlternative(t *testing.T) {
	p := NewConstr(42, NewIntegerFromInt64(7))
	raw := encode(t, p)
	r := cbor.NewReader(raw)
	got, err := Decode(r)
	require.NoError(t, err)
	assert.True(t, Equal(p, got))
	assert.Equal(t, uint64(42), got.ConstrTag())
}

func TestRoundTripGenericConstrAlternative(t *testing.T) {
	p := NewConstr(200, NewIntegerFromInt64(1))
	raw := encode(t, p)
	r := cbor.NewReader(raw)
	got, err := Decode(r)
	require.NoError(t, err)
	assert.True(t, Equal(p, got))
}

func TestRoundTripMapAndList(t *testing.T) {
	p := NewList(
		NewMap(Entry{Key: NewBytes([]byte("k")), Value: NewIntegerFromInt64(9)}),
		NewIntegerFromInt64(-5),
	)
	raw := encode(t, p)
	r := cbor.NewReader(raw)
	got, err := Decode(r)
	require.NoError(t, err)
	assert.True(t, Equal(p, got))
}

func TestPlutusChunkedBytesScenario(t *testing.T) {
	b := make([]byte, 100)
	for i := range b {
		b[i] = byte(i)
	}
	p := NewBytes(b)
	raw := encode(t, p)
	require.Equal(t, byte(0x5F), raw[0])
	require.Equal(t, byte(0x58), raw[1])
	require.Equal(t, byte(0x40), raw[2])
	require.Equal(t, byte(0xFF), raw[len(raw)-1])

	r := cbor.NewReader(raw)
	got, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, b, got.Bytes())

	reencoded := encode(t, got)
	assert.Equal(t, raw, reencoded)
}

func TestCachePreservesNonCanonicalIndefiniteArray(t *testing.T) {
	// Producer encoded a short list as indefinite-length: 9F 01 02 FF
	raw := []byte{0x9F, 0x01, 0x02, 0xFF}
	r := cbor.NewReader(raw)
	got, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, raw, got.Cache())

	reencoded := encode(t, got)
	assert.Equal(t, raw, reencoded)
}

func TestClearCacheForcesCanonicalReencode(t *testing.T) {
	raw := []byte{0x9F, 0x01, 0x02, 0xFF}
	r := cbor.NewReader(raw)
	got, err := Decode(r)
	require.NoError(t, err)

	got.ClearCache()
	reencoded := encode(t, got)
	assert.NotEqual(t, raw, reencoded)
	assert.Equal(t, []byte{0x82, 0x01, 0x02}, reencoded)
}

func TestSetFieldInvalidatesCache(t *testing.T) {
	p := NewConstr(0, NewIntegerFromInt64(1))
	raw := encode(t, p)
	r := cbor.NewReader(raw)
	got, err := Decode(r)
	require.NoError(t, err)
	require.NotNil(t, got.Cache())

	got.SetField(0, NewIntegerFromInt64(99))
	assert.Nil(t, got.Cache())
}

func TestLargeIntegerRoundTrip(t *testing.T) {
	big := bigint.FromUint64(1)
	for i := 0; i < 100; i++ {
		big = bigint.Add(big, big)
	}
	p := NewInteger(big)
	raw := encode(t, p)
	r := cbor.NewReader(raw)
	got, err := Decode(r)
	require.NoError(t, err)
	assert.True(t, Equal(p, got))
}

func TestNegativeLargeIntegerRoundTrip(t *testing.T) {
	n := bigint.FromUint64(1)
	for i := 0; i < 100; i++ {
		n = bigint.Add(n, n)
	}
	n = bigint.Neg(n)
	p := NewInteger(n)
	raw := encode(t, p)
	r := cbor.NewReader(raw)
	got, err := Decode(r)
	require.NoError(t, err)
	assert.True(t, Equal(p, got))
}
