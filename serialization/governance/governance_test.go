package governance

import (
	"testing"

	"github.com/cardano-go/txforge/cbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDRepRoundTrip(t *testing.T) {
	var h [28]byte
	h[0] = 0x11
	cases := []DRep{
		NewKeyHashDRep(h),
		NewScriptHashDRep(h),
		AlwaysAbstain(),
		AlwaysNoConfidence(),
	}
	for _, d := range cases {
		w := cbor.NewWriter()
		require.NoError(t, d.Encode(w))
		r := cbor.NewReader(w.Bytes())
		got, err := Decode(r)
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
}
