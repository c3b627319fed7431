package script

import (
	"encoding/hex"
	"testing"

	"golang.org/x/crypto/blake2b"

	"github.com/cardano-go/txforge/cbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeNative(t *testing.T, n NativeScript) []byte {
	t.Helper()
	w := cbor.NewWriter()
	require.NoError(t, n.Encode(w))
	return w.Bytes()
}

func TestNativeSigRoundTrip(t *testing.T) {
	var kh [28]byte
	copy(kh[:], []byte("0123456789abcdef0123456789a"))
	n := Sig(kh)
	raw := encodeNative(t, n)

	r := cbor.NewReader(raw)
	got, err := DecodeNativeScript(r)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestNativeAllAnyNOfKRoundTrip(t *testing.T) {
	var a, b [28]byte
	copy(a[:], []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	copy(b[:], []byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbb"))

	cases := []NativeScript{
		All(Sig(a), Sig(b)),
		Any(Sig(a), Sig(b)),
		NOfK(1, Sig(a), Sig(b)),
	}
	for _, n := range cases {
		raw := encodeNative(t, n)
		r := cbor.NewReader(raw)
		got, err := DecodeNativeScript(r)
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestNativeTimelockRoundTrip(t *testing.T) {
	cases := []NativeScript{
		InvalidBefore(1000),
		InvalidHereafter(2000),
	}
	for _, n := range cases {
		raw := encodeNative(t, n)
		r := cbor.NewReader(raw)
		got, err := DecodeNativeScript(r)
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

func TestNativeNestedScripts(t *testing.T) {
	var a, b, c [28]byte
	copy(a[:], []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaa"))
	copy(b[:], []byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbb"))
	copy(c[:], []byte("cccccccccccccccccccccccccccc"))

	n := All(Sig(a), Any(Sig(b), Sig(c)), InvalidBefore(500))
	raw := encodeNative(t, n)
	r := cbor.NewReader(raw)
	got, err := DecodeNativeScript(r)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestNativeScriptHashIsDeterministic(t *testing.T) {
	var kh [28]byte
	copy(kh[:], []byte("0123456789abcdef0123456789a"))
	s := NewNative(Sig(kh))

	h1, err := s.Hash()
	require.NoError(t, err)
	h2, err := s.Hash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestDifferentLanguagesHashDifferently(t *testing.T) {
	code := []byte{0x01, 0x02, 0x03}
	v1 := NewPlutusV1(code)
	v2 := NewPlutusV2(code)
	v3 := NewPlutusV3(code)

	h1, err := v1.Hash()
	require.NoError(t, err)
	h2, err := v2.Hash()
	require.NoError(t, err)
	h3, err := v3.Hash()
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.NotEqual(t, h2, h3)
	assert.NotEqual(t, h1, h3)
}

// TestScriptHashLanguageTagPrefix confirms the hash input is exactly the
// single-byte language tag concatenated with the script body, by
// comparing against a hash computed over a hand-built input.
func TestScriptHashLanguageTagPrefix(t *testing.T) {
	code, err := hex.DecodeString("4e4d01000033222220051200120011")
	require.NoError(t, err)
	s := NewPlutusV2(code)

	got, err := s.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, [28]byte{}, got)

	h, err := blake2b.New(28, nil)
	require.NoError(t, err)
	h.Write(append([]byte{0x02}, code...))
	var want [28]byte
	copy(want[:], h.Sum(nil))
	assert.Equal(t, want, got)

	other := NewPlutusV1(code)
	gotOther, err := other.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, got, gotOther)
}
