package cbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUintBoundaryRoundTrip(t *testing.T) {
	cases := []struct {
		v    uint64
		want string
	}{
		{23, "17"},
		{24, "1818"},
		{1<<63 - 1, "1b7fffffffffffffff"},
	}
	for _, c := range cases {
		w := NewWriter()
		w.WriteUint(c.v)
		assert.Equal(t, c.want, hexOf(w.Bytes()))

		r := NewReader(w.Bytes())
		got, err := r.ReadUint()
		require.NoError(t, err)
		assert.Equal(t, c.v, got)
	}
}

func TestNegativeIntRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteSignedInt(-1000)
	r := NewReader(w.Bytes())
	got, err := r.ReadInt()
	require.NoError(t, err)
	assert.Equal(t, int64(-1000), got)
}

func TestByteStringRoundTrip(t *testing.T) {
	data := []byte("hello cardano")
	w := NewWriter()
	w.WriteBytestring(data)
	r := NewReader(w.Bytes())
	got, err := r.ReadBytestring()
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestIndefiniteByteStringDecodesChunks(t *testing.T) {
	// 5F 44 'abcd' 43 'efg' FF
	raw := []byte{0x5F, 0x44, 'a', 'b', 'c', 'd', 0x43, 'e', 'f', 'g', 0xFF}
	r := NewReader(raw)
	got, err := r.ReadBytestring()
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdefg"), got)
}

func TestArrayRoundTripDefinite(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteStartArray(3))
	w.WriteUint(1)
	w.WriteUint(2)
	w.WriteUint(3)
	require.NoError(t, w.WriteEndArray())

	r := NewReader(w.Bytes())
	n, err := r.ReadStartArray()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	for i := uint64(1); i <= 3; i++ {
		v, err := r.ReadUint()
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	require.NoError(t, r.ReadEndArray())
}

func TestArrayIndefiniteRoundTrip(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteStartArray(-1))
	w.WriteUint(42)
	require.NoError(t, w.WriteEndArray())

	r := NewReader(w.Bytes())
	n, err := r.ReadStartArray()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), n)
	st, err := r.PeekState()
	require.NoError(t, err)
	assert.Equal(t, StateUnsignedInt, st)
	v, err := r.ReadUint()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)
	st, err = r.PeekState()
	require.NoError(t, err)
	assert.Equal(t, StateEndArray, st)
	require.NoError(t, r.ReadEndArray())
}

func TestMapRoundTrip(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteStartMap(2))
	w.WriteUint(1)
	w.WriteTextstring("one")
	w.DoneMapEntry()
	w.WriteUint(2)
	w.WriteTextstring("two")
	w.DoneMapEntry()
	require.NoError(t, w.WriteEndMap())

	r := NewReader(w.Bytes())
	n, err := r.ReadStartMap()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	for i := 0; i < 2; i++ {
		_, err := r.ReadUint()
		require.NoError(t, err)
		_, err = r.ReadTextstring()
		require.NoError(t, err)
		r.DoneMapEntry()
	}
	require.NoError(t, r.ReadEndMap())
}

func TestMarkMapKeyDetectsDuplicate(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteStartMap(2))
	w.WriteUint(1)
	w.WriteTextstring("one")
	w.DoneMapEntry()
	w.WriteUint(1)
	w.WriteTextstring("one again")
	w.DoneMapEntry()
	require.NoError(t, w.WriteEndMap())

	r := NewReader(w.Bytes())
	_, err := r.ReadStartMap()
	require.NoError(t, err)

	keyStart := r.Offset()
	_, err = r.ReadUint()
	require.NoError(t, err)
	require.NoError(t, r.MarkMapKey(keyStart))
	_, err = r.ReadTextstring()
	require.NoError(t, err)
	r.DoneMapEntry()

	keyStart = r.Offset()
	_, err = r.ReadUint()
	require.NoError(t, err)
	err = r.MarkMapKey(keyStart)
	require.Error(t, err)
	cborErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, KindDuplicatedMapKey, cborErr.Kind)
}

func TestMarkMapKeyAllowsDistinctKeysAcrossFrames(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteStartMap(1))
	w.WriteUint(1)
	require.NoError(t, w.WriteStartMap(1))
	w.WriteUint(1)
	w.WriteTextstring("nested")
	w.DoneMapEntry()
	require.NoError(t, w.WriteEndMap())
	w.DoneMapEntry()
	require.NoError(t, w.WriteEndMap())

	r := NewReader(w.Bytes())
	_, err := r.ReadStartMap()
	require.NoError(t, err)
	outerKeyStart := r.Offset()
	_, err = r.ReadUint()
	require.NoError(t, err)
	require.NoError(t, r.MarkMapKey(outerKeyStart))

	_, err = r.ReadStartMap()
	require.NoError(t, err)
	innerKeyStart := r.Offset()
	_, err = r.ReadUint()
	require.NoError(t, err)
	require.NoError(t, r.MarkMapKey(innerKeyStart))
	_, err = r.ReadTextstring()
	require.NoError(t, err)
	r.DoneMapEntry()
	require.NoError(t, r.ReadEndMap())
	r.DoneMapEntry()
	require.NoError(t, r.ReadEndMap())
}

func TestArrayWrongCountFails(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteStartArray(2))
	w.WriteUint(1)
	err := w.WriteEndArray()
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindEncoding, cerr.Kind)
}

func TestDefiniteArrayUnderReadFails(t *testing.T) {
	raw := []byte{0x82, 0x01, 0x02} // array of 2: [1,2]
	r := NewReader(raw)
	n, err := r.ReadStartArray()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	_, err = r.ReadUint()
	require.NoError(t, err)
	err = r.ReadEndArray()
	require.Error(t, err)
}

func TestTagAndBignum(t *testing.T) {
	w := NewWriter()
	w.WriteTag(2)
	w.WriteBytestring([]byte{0x01, 0x00})
	r := NewReader(w.Bytes())
	neg, mag, err := r.ReadBigint()
	require.NoError(t, err)
	assert.False(t, neg)
	assert.Equal(t, []byte{0x01, 0x00}, mag)
}

func TestPlutusChunkedBytes(t *testing.T) {
	b := make([]byte, 100)
	for i := range b {
		b[i] = byte(i)
	}
	w := NewWriter()
	writeChunkedBytes(w, b)
	encoded := w.Bytes()
	require.Equal(t, byte(0x5F), encoded[0])
	require.Equal(t, byte(0x58), encoded[1])
	require.Equal(t, byte(0x40), encoded[2])

	r := NewReader(encoded)
	got, err := r.ReadBytestring()
	require.NoError(t, err)
	assert.Equal(t, b, got)

	w2 := NewWriter()
	writeChunkedBytes(w2, got)
	assert.Equal(t, encoded, w2.Bytes())
}

func TestEncodedValueRoundTrip(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteStartArray(2))
	w.WriteUint(1)
	w.WriteTextstring("x")
	require.NoError(t, w.WriteEndArray())

	r := NewReader(w.Bytes())
	raw, err := r.ReadEncodedValue()
	require.NoError(t, err)
	assert.Equal(t, w.Bytes(), raw)
}

func TestMaxNestingGuard(t *testing.T) {
	w := NewWriter()
	for i := 0; i < maxNesting+1; i++ {
		require.NoError(t, w.WriteStartArray(1))
	}
	// Writer itself does not enforce the guard (only Reader does, per spec
	// §9's "suggested guard" for untrusted input); verify the Reader rejects it.
	r := NewReader(w.Bytes())
	var err error
	for i := 0; i < maxNesting; i++ {
		_, err = r.ReadStartArray()
		require.NoError(t, err)
	}
	_, err = r.ReadStartArray()
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindInvalidCborValue, cerr.Kind)
}

func hexOf(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = digits[v>>4]
		out[i*2+1] = digits[v&0xF]
	}
	return string(out)
}
