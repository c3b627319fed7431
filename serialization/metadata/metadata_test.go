package metadata

import (
	"testing"

	"github.com/cardano-go/txforge/cbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, m Metadatum) Metadatum {
	t.Helper()
	w := cbor.NewWriter()
	require.NoError(t, m.Encode(w))
	r := cbor.NewReader(w.Bytes())
	got, err := DecodeMetadatum(r)
	require.NoError(t, err)
	return got
}

func TestIntRoundTrip(t *testing.T) {
	got := roundTrip(t, NewInt(-42))
	assert.Equal(t, KindInt, got.Kind())
	assert.Equal(t, int64(-42), got.integer.Int64())
}

func TestTextRoundTrip(t *testing.T) {
	m, err := NewText("hello metadata")
	require.NoError(t, err)
	got := roundTrip(t, m)
	assert.Equal(t, "hello metadata", got.text)
}

func TestTextTooLongRejected(t *testing.T) {
	_, err := NewText(string(make([]byte, 65)))
	require.Error(t, err)
	var cerr *cbor.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cbor.KindInvalidMetadatumTextStringSize, cerr.Kind)
}

func TestBytesTooLongRejected(t *testing.T) {
	_, err := NewBytes(make([]byte, 65))
	require.Error(t, err)
	var cerr *cbor.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, cbor.KindInvalidMetadatumBoundedBytesSize, cerr.Kind)
}

func TestEmptyListEncodesDefiniteLength(t *testing.T) {
	w := cbor.NewWriter()
	require.NoError(t, NewList().Encode(w))
	assert.Equal(t, []byte{0x80}, w.Bytes())
}

func TestNonEmptyListEncodesIndefiniteLength(t *testing.T) {
	w := cbor.NewWriter()
	require.NoError(t, NewList(NewInt(1), NewInt(2)).Encode(w))
	b := w.Bytes()
	require.NotEmpty(t, b)
	assert.Equal(t, byte(0x9F), b[0])
	assert.Equal(t, byte(0xFF), b[len(b)-1])
}

func TestListRoundTrip(t *testing.T) {
	orig := NewList(NewInt(1), NewInt(2), NewInt(3))
	got := roundTrip(t, orig)
	require.Equal(t, KindList, got.Kind())
	require.Len(t, got.items, 3)
	for i, want := range []int64{1, 2, 3} {
		assert.Equal(t, want, got.items[i].integer.Int64())
	}
}

func TestMapRoundTrip(t *testing.T) {
	keyA, err := NewText("a")
	require.NoError(t, err)
	keyB, err := NewText("b")
	require.NoError(t, err)
	orig := NewMap(Pair{Key: keyA, Value: NewInt(1)}, Pair{Key: keyB, Value: NewInt(2)})
	got := roundTrip(t, orig)
	require.Equal(t, KindMap, got.Kind())
	require.Len(t, got.pairs, 2)
}

func TestNestedMetadatumRoundTrip(t *testing.T) {
	key, err := NewText("items")
	require.NoError(t, err)
	nested := NewMap(Pair{Key: key, Value: NewList(NewInt(1), NewInt(2))})
	got := roundTrip(t, nested)
	require.Len(t, got.pairs, 1)
	assert.Equal(t, KindList, got.pairs[0].Value.Kind())
}

func TestAuxiliaryDataEncodesTag259(t *testing.T) {
	label, err := NewText("hi")
	require.NoError(t, err)
	aux := AuxiliaryData{Labels: map[uint64]Metadatum{721: label}}
	w := cbor.NewWriter()
	require.NoError(t, aux.Encode(w))
	b := w.Bytes()
	require.True(t, len(b) >= 2)
	assert.Equal(t, byte(0xD9), b[0])
	assert.Equal(t, byte(0x01), b[1])
	assert.Equal(t, byte(0x03), b[2])
}

func TestAuxiliaryDataRoundTrip(t *testing.T) {
	label, err := NewText("hi")
	require.NoError(t, err)
	aux := AuxiliaryData{
		Labels:   map[uint64]Metadatum{721: label},
		PlutusV2: [][]byte{{0x01, 0x02}},
	}
	w := cbor.NewWriter()
	require.NoError(t, aux.Encode(w))
	r := cbor.NewReader(w.Bytes())
	got, err := Decode(r)
	require.NoError(t, err)
	require.Contains(t, got.Labels, uint64(721))
	assert.Equal(t, "hi", got.Labels[721].text)
	assert.Equal(t, [][]byte{{0x01, 0x02}}, got.PlutusV2)
}
