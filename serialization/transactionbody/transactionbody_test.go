package transactionbody

import (
	"math/big"
	"testing"

	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/serialization/address"
	"github.com/cardano-go/txforge/serialization/certificate"
	"github.com/cardano-go/txforge/serialization/transactioninput"
	"github.com/cardano-go/txforge/serialization/transactionoutput"
	"github.com/cardano-go/txforge/serialization/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hash28(b byte) [28]byte {
	var h [28]byte
	h[0] = b
	return h
}

func hash32(b byte) [32]byte {
	var h [32]byte
	h[0] = b
	return h
}

func sampleOutput(t *testing.T) transactionoutput.Output {
	t.Helper()
	addr := address.NewEnterpriseAddress(address.Mainnet, address.NewKeyCredential(hash28(0x01)))
	return transactionoutput.New(addr, value.NewCoin(2_000_000))
}

func roundTrip(t *testing.T, b Body) Body {
	t.Helper()
	w := cbor.NewWriter()
	require.NoError(t, b.Encode(w))
	r := cbor.NewReader(w.Bytes())
	got, err := Decode(r)
	require.NoError(t, err)
	return got
}

func TestMinimalBodyRoundTrip(t *testing.T) {
	b := Body{
		Inputs:  []transactioninput.Input{transactioninput.New(hash32(0x02), 0)},
		Outputs: []transactionoutput.Output{sampleOutput(t)},
		Fee:     170000,
	}
	got := roundTrip(t, b)
	assert.Equal(t, b.Inputs, got.Inputs)
	assert.Len(t, got.Outputs, 1)
	assert.Equal(t, b.Fee, got.Fee)
	assert.Nil(t, got.TTL)
}

func TestBodyWithOptionalFieldsRoundTrip(t *testing.T) {
	ttl := uint64(500000)
	netID := uint64(1)
	scriptHash := hash32(0x03)
	b := Body{
		Inputs:         []transactioninput.Input{transactioninput.New(hash32(0x04), 1)},
		Outputs:        []transactionoutput.Output{sampleOutput(t)},
		Fee:            200000,
		TTL:            &ttl,
		NetworkID:      &netID,
		ScriptDataHash: &scriptHash,
		RequiredSigners: [][28]byte{hash28(0x05)},
	}
	got := roundTrip(t, b)
	require.NotNil(t, got.TTL)
	assert.Equal(t, ttl, *got.TTL)
	require.NotNil(t, got.NetworkID)
	assert.Equal(t, netID, *got.NetworkID)
	require.NotNil(t, got.ScriptDataHash)
	assert.Equal(t, scriptHash, *got.ScriptDataHash)
	require.Len(t, got.RequiredSigners, 1)
	assert.Equal(t, hash28(0x05), got.RequiredSigners[0])
}

func TestBodyWithCertificatesAndWithdrawalsRoundTrip(t *testing.T) {
	cred := address.NewKeyCredential(hash28(0x06))
	reward := address.NewRewardAddress(address.Mainnet, cred)
	b := Body{
		Inputs:       []transactioninput.Input{transactioninput.New(hash32(0x07), 0)},
		Outputs:      []transactionoutput.Output{sampleOutput(t)},
		Fee:          170000,
		Certificates: []certificate.Certificate{certificate.NewStakeRegistration(cred)},
		Withdrawals:  []Withdrawal{{RewardAccount: reward, Amount: 5_000_000}},
	}
	got := roundTrip(t, b)
	require.Len(t, got.Certificates, 1)
	assert.Equal(t, certificate.KindStakeRegistration, got.Certificates[0].Kind)
	require.Len(t, got.Withdrawals, 1)
	assert.Equal(t, int64(5_000_000), got.Withdrawals[0].Amount)
}

func TestBodyWithMintRoundTrip(t *testing.T) {
	var policy value.PolicyID
	policy[0] = 0x08
	mint := value.MultiAsset{
		policy: {"token": big.NewInt(-5)},
	}
	b := Body{
		Inputs:  []transactioninput.Input{transactioninput.New(hash32(0x09), 0)},
		Outputs: []transactionoutput.Output{sampleOutput(t)},
		Fee:     170000,
		Mint:    &mint,
	}
	got := roundTrip(t, b)
	require.NotNil(t, got.Mint)
	qty := (*got.Mint)[policy]["token"]
	require.NotNil(t, qty)
	assert.Equal(t, int64(-5), qty.Int64())
}

func TestBodyWithCollateralRoundTrip(t *testing.T) {
	totalCollateral := uint64(300000)
	b := Body{
		Inputs:           []transactioninput.Input{transactioninput.New(hash32(0x0a), 0)},
		Outputs:          []transactionoutput.Output{sampleOutput(t)},
		Fee:              170000,
		CollateralInputs: []transactioninput.Input{transactioninput.New(hash32(0x0b), 2)},
		CollateralReturn: func() *transactionoutput.Output { o := sampleOutput(t); return &o }(),
		TotalCollateral:  &totalCollateral,
	}
	got := roundTrip(t, b)
	require.Len(t, got.CollateralInputs, 1)
	require.NotNil(t, got.CollateralReturn)
	require.NotNil(t, got.TotalCollateral)
	assert.Equal(t, totalCollateral, *got.TotalCollateral)
}

func TestUnknownFieldKeyRejected(t *testing.T) {
	b := Body{
		Inputs:  []transactioninput.Input{transactioninput.New(hash32(0x0c), 0)},
		Outputs: []transactionoutput.Output{sampleOutput(t)},
		Fee:     170000,
	}
	w := cbor.NewWriter()
	require.NoError(t, w.WriteStartMap(4))
	w.WriteUint(0)
	require.NoError(t, transactioninput.EncodeSet(w, b.Inputs))
	w.DoneMapEntry()
	w.WriteUint(1)
	require.NoError(t, w.WriteStartArray(1))
	require.NoError(t, b.Outputs[0].Encode(w))
	require.NoError(t, w.WriteEndArray())
	w.DoneMapEntry()
	w.WriteUint(2)
	w.WriteUint(uint64(b.Fee))
	w.DoneMapEntry()
	w.WriteUint(99)
	w.WriteTextstring("future field")
	w.DoneMapEntry()
	require.NoError(t, w.WriteEndMap())

	r := cbor.NewReader(w.Bytes())
	_, err := Decode(r)
	require.Error(t, err)
	cborErr, ok := err.(*cbor.Error)
	require.True(t, ok)
	assert.Equal(t, cbor.KindInvalidMapKey, cborErr.Kind)
}

func TestDuplicateFieldKeyRejected(t *testing.T) {
	b := Body{
		Inputs:  []transactioninput.Input{transactioninput.New(hash32(0x0d), 0)},
		Outputs: []transactionoutput.Output{sampleOutput(t)},
		Fee:     170000,
	}
	w := cbor.NewWriter()
	require.NoError(t, w.WriteStartMap(4))
	w.WriteUint(0)
	require.NoError(t, transactioninput.EncodeSet(w, b.Inputs))
	w.DoneMapEntry()
	w.WriteUint(1)
	require.NoError(t, w.WriteStartArray(1))
	require.NoError(t, b.Outputs[0].Encode(w))
	require.NoError(t, w.WriteEndArray())
	w.DoneMapEntry()
	w.WriteUint(2)
	w.WriteUint(uint64(b.Fee))
	w.DoneMapEntry()
	w.WriteUint(2)
	w.WriteUint(999999)
	w.DoneMapEntry()
	require.NoError(t, w.WriteEndMap())

	r := cbor.NewReader(w.Bytes())
	_, err := Decode(r)
	require.Error(t, err)
	cborErr, ok := err.(*cbor.Error)
	require.True(t, ok)
	assert.Equal(t, cbor.KindDuplicatedMapKey, cborErr.Kind)
}
