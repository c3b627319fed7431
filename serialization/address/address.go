// Package address models Cardano addresses: the CIP-19 header-byte
// format (network id + credential kind bits) wrapping a payment
// credential and an optional staking credential or pointer.
//
// Bech32 encoding/decoding is an assumed-available external primitive
// (not reimplemented here); this package works on the raw address
// bytes that appear on the wire inside a transaction output, which is
// the form the CBOR codec actually needs.
package address

import (
	"github.com/cardano-go/txforge/cbor"
)

// NetworkID is the low nibble of an address header byte.
type NetworkID byte

const (
	Testnet NetworkID = 0
	Mainnet NetworkID = 1
)

// CredentialKind discriminates a payment or staking credential.
type CredentialKind int

const (
	CredentialKeyHash CredentialKind = iota
	CredentialScriptHash
)

// Credential is a 28-byte key or script hash.
type Credential struct {
	Kind CredentialKind
	Hash [28]byte
}

func NewKeyCredential(h [28]byte) Credential {
	return Credential{Kind: CredentialKeyHash, Hash: h}
}

func NewScriptCredential(h [28]byte) Credential {
	return Credential{Kind: CredentialScriptHash, Hash: h}
}

// Pointer addresses a stake registration certificate by chain position.
type Pointer struct {
	Slot      uint64
	TxIndex   uint64
	CertIndex uint64
}

// Kind enumerates the eight Shelley address shapes plus the reward
// (stake) address shapes. Byron addresses are carried opaquely.
type Kind int

const (
	KindBasePaymentKeyStakeKey Kind = iota
	KindBasePaymentKeyStakeScript
	KindBasePaymentScriptStakeKey
	KindBasePaymentScriptStakeScript
	KindPointerPaymentKey
	KindPointerPaymentScript
	KindEnterprisePaymentKey
	KindEnterprisePaymentScript
	KindRewardKey
	KindRewardScript
	KindByron
)

// Address is the tagged sum over the Shelley address variants, lifting
// the shared network-id/credential header into one record rather than
// one Go type per variant.
type Address struct {
	Network    NetworkID
	Kind       Kind
	Payment    Credential // valid for all Kinds except Reward* and Byron
	Staking    *Credential // valid only for Base* kinds
	StakingPtr *Pointer    // valid only for Pointer* kinds
	Reward     Credential  // valid only for Reward* kinds
	ByronBytes []byte      // valid only for KindByron: opaque legacy payload
}

func NewEnterpriseAddress(network NetworkID, payment Credential) Address {
	kind := KindEnterprisePaymentKey
	if payment.Kind == CredentialScriptHash {
		kind = KindEnterprisePaymentScript
	}
	return Address{Network: network, Kind: kind, Payment: payment}
}

func NewBaseAddress(network NetworkID, payment, staking Credential) Address {
	var kind Kind
	switch {
	case payment.Kind == CredentialKeyHash && staking.Kind == CredentialKeyHash:
		kind = KindBasePaymentKeyStakeKey
	case payment.Kind == CredentialKeyHash && staking.Kind == CredentialScriptHash:
		kind = KindBasePaymentKeyStakeScript
	case payment.Kind == CredentialScriptHash && staking.Kind == CredentialKeyHash:
		kind = KindBasePaymentScriptStakeKey
	default:
		kind = KindBasePaymentScriptStakeScript
	}
	return Address{Network: network, Kind: kind, Payment: payment, Staking: &staking}
}

func NewPointerAddress(network NetworkID, payment Credential, ptr Pointer) Address {
	kind := KindPointerPaymentKey
	if payment.Kind == CredentialScriptHash {
		kind = KindPointerPaymentScript
	}
	return Address{Network: network, Kind: kind, Payment: payment, StakingPtr: &ptr}
}

func NewRewardAddress(network NetworkID, cred Credential) Address {
	kind := KindRewardKey
	if cred.Kind == CredentialScriptHash {
		kind = KindRewardScript
	}
	return Address{Network: network, Kind: kind, Reward: cred}
}

// headerByte packs the variant's type tag into the top 4 bits and the
// network id into the bottom 4, per CIP-19.
func (a Address) headerByte() byte {
	var tag byte
	switch a.Kind {
	case KindBasePaymentKeyStakeKey:
		tag = 0b0000
	case KindBasePaymentScriptStakeKey:
		tag = 0b0001
	case KindBasePaymentKeyStakeScript:
		tag = 0b0010
	case KindBasePaymentScriptStakeScript:
		tag = 0b0011
	case KindPointerPaymentKey:
		tag = 0b0100
	case KindPointerPaymentScript:
		tag = 0b0101
	case KindEnterprisePaymentKey:
		tag = 0b0110
	case KindEnterprisePaymentScript:
		tag = 0b0111
	case KindByron:
		tag = 0b1000
	case KindRewardKey:
		tag = 0b1110
	case KindRewardScript:
		tag = 0b1111
	}
	return tag<<4 | byte(a.Network)&0x0F
}

func putVarUint(buf []byte, v uint64) []byte {
	var chunks []byte
	chunks = append(chunks, byte(v&0x7F))
	v >>= 7
	for v > 0 {
		chunks = append(chunks, byte(v&0x7F)|0x80)
		v >>= 7
	}
	for i, j := 0, len(chunks)-1; i < j; i, j = i+1, j-1 {
		chunks[i], chunks[j] = chunks[j], chunks[i]
	}
	return append(buf, chunks...)
}

func readVarUint(b []byte) (uint64, int, error) {
	var v uint64
	for i, c := range b {
		v = v<<7 | uint64(c&0x7F)
		if c&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, &cbor.Error{Kind: cbor.KindInvalidAddressFormat, Context: "address: truncated pointer varint"}
}

// Bytes serializes the address into its raw on-chain byte form.
func (a Address) Bytes() []byte {
	if a.Kind == KindByron {
		return append([]byte(nil), a.ByronBytes...)
	}
	out := make([]byte, 0, 57)
	out = append(out, a.headerByte())
	switch a.Kind {
	case KindRewardKey, KindRewardScript:
		out = append(out, a.Reward.Hash[:]...)
	case KindPointerPaymentKey, KindPointerPaymentScript:
		out = append(out, a.Payment.Hash[:]...)
		out = putVarUint(out, a.StakingPtr.Slot)
		out = putVarUint(out, a.StakingPtr.TxIndex)
		out = putVarUint(out, a.StakingPtr.CertIndex)
	case KindEnterprisePaymentKey, KindEnterprisePaymentScript:
		out = append(out, a.Payment.Hash[:]...)
	default: // base addresses
		out = append(out, a.Payment.Hash[:]...)
		out = append(out, a.Staking.Hash[:]...)
	}
	return out
}

// FromBytes parses an address in its raw on-chain byte form.
func FromBytes(b []byte) (Address, error) {
	if len(b) == 0 {
		return Address{}, &cbor.Error{Kind: cbor.KindInvalidAddressFormat, Context: "address: empty"}
	}
	header := b[0]
	tag := header >> 4
	network := NetworkID(header & 0x0F)

	if tag == 0b1000 {
		return Address{Kind: KindByron, ByronBytes: append([]byte(nil), b...)}, nil
	}

	credKind := func(scriptBit byte) CredentialKind {
		if scriptBit == 1 {
			return CredentialScriptHash
		}
		return CredentialKeyHash
	}

	switch tag {
	case 0b1110, 0b1111:
		if len(b) < 29 {
			return Address{}, &cbor.Error{Kind: cbor.KindInvalidAddressFormat, Context: "address: reward address too short"}
		}
		var h [28]byte
		copy(h[:], b[1:29])
		kind := CredentialKeyHash
		if tag == 0b1111 {
			kind = CredentialScriptHash
		}
		return Address{Network: network, Kind: Kind(map[byte]Kind{0b1110: KindRewardKey, 0b1111: KindRewardScript}[tag]), Reward: Credential{Kind: kind, Hash: h}}, nil
	case 0b0110, 0b0111:
		if len(b) < 29 {
			return Address{}, &cbor.Error{Kind: cbor.KindInvalidAddressFormat, Context: "address: enterprise address too short"}
		}
		var h [28]byte
		copy(h[:], b[1:29])
		k := KindEnterprisePaymentKey
		if tag == 0b0111 {
			k = KindEnterprisePaymentScript
		}
		return Address{Network: network, Kind: k, Payment: Credential{Kind: credKind(tag & 1), Hash: h}}, nil
	case 0b0100, 0b0101:
		if len(b) < 29 {
			return Address{}, &cbor.Error{Kind: cbor.KindInvalidAddressFormat, Context: "address: pointer address too short"}
		}
		var h [28]byte
		copy(h[:], b[1:29])
		rest := b[29:]
		slot, n1, err := readVarUint(rest)
		if err != nil {
			return Address{}, err
		}
		rest = rest[n1:]
		txIdx, n2, err := readVarUint(rest)
		if err != nil {
			return Address{}, err
		}
		rest = rest[n2:]
		certIdx, _, err := readVarUint(rest)
		if err != nil {
			return Address{}, err
		}
		k := KindPointerPaymentKey
		if tag == 0b0101 {
			k = KindPointerPaymentScript
		}
		return Address{
			Network: network, Kind: k,
			Payment:    Credential{Kind: credKind(tag & 1), Hash: h},
			StakingPtr: &Pointer{Slot: slot, TxIndex: txIdx, CertIndex: certIdx},
		}, nil
	case 0b0000, 0b0001, 0b0010, 0b0011:
		if len(b) < 57 {
			return Address{}, &cbor.Error{Kind: cbor.KindInvalidAddressFormat, Context: "address: base address too short"}
		}
		var ph, sh [28]byte
		copy(ph[:], b[1:29])
		copy(sh[:], b[29:57])
		kinds := map[byte]Kind{
			0b0000: KindBasePaymentKeyStakeKey,
			0b0001: KindBasePaymentScriptStakeKey,
			0b0010: KindBasePaymentKeyStakeScript,
			0b0011: KindBasePaymentScriptStakeScript,
		}
		payment := Credential{Kind: credKind(tag & 1), Hash: ph}
		staking := Credential{Kind: credKind((tag >> 1) & 1), Hash: sh}
		return Address{Network: network, Kind: kinds[tag], Payment: payment, Staking: &staking}, nil
	default:
		return Address{}, &cbor.Error{Kind: cbor.KindInvalidAddressFormat, Context: "address: unknown header tag"}
	}
}

// EncodeCBOR writes the address as a CBOR byte string (major type 2),
// the form it takes inside a transaction output.
func (a Address) EncodeCBOR(w *cbor.Writer) error {
	w.WriteBytestring(a.Bytes())
	return nil
}

// DecodeCBOR reads an address from a CBOR byte string.
func DecodeCBOR(r *cbor.Reader) (Address, error) {
	b, err := r.ReadBytestring()
	if err != nil {
		return Address{}, err
	}
	return FromBytes(b)
}
