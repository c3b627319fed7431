// Package certificate implements the certificate tagged union the
// teacher's builder wires into deposit/withdrawal accounting:
// stake registration/deregistration, stake delegation, and vote
// delegation. Pool registration/retirement carry only the fields the
// balancer needs (operator hash, reward account) rather than the full
// pool-parameters schema, since the balancer never inspects them.
package certificate

import (
	"github.com/cardano-go/txforge/cbor"
	"github.com/cardano-go/txforge/serialization/address"
	"github.com/cardano-go/txforge/serialization/governance"
)

// Kind discriminates the certificate sum type, numbered per the
// Conway-era certificate tag set.
type Kind int

const (
	KindStakeRegistration Kind = iota
	KindStakeDeregistration
	KindStakeDelegation
	KindPoolRegistration
	KindPoolRetirement
	KindVoteDelegation Kind = 9
)

// Certificate is a tagged union over the certificate shapes a balancer
// needs to account for (stake key deposit/refund, delegation).
type Certificate struct {
	Kind            Kind
	Credential      address.Credential // StakeRegistration, StakeDeregistration, StakeDelegation, VoteDelegation
	PoolKeyHash     [28]byte           // StakeDelegation, PoolRegistration, PoolRetirement
	RewardAccount   address.Address    // PoolRegistration
	RetirementEpoch uint64             // PoolRetirement
	DRep            governance.DRep    // VoteDelegation
}

func NewStakeRegistration(cred address.Credential) Certificate {
	return Certificate{Kind: KindStakeRegistration, Credential: cred}
}

func NewStakeDeregistration(cred address.Credential) Certificate {
	return Certificate{Kind: KindStakeDeregistration, Credential: cred}
}

func NewStakeDelegation(cred address.Credential, poolKeyHash [28]byte) Certificate {
	return Certificate{Kind: KindStakeDelegation, Credential: cred, PoolKeyHash: poolKeyHash}
}

func NewPoolRegistration(poolKeyHash [28]byte, rewardAccount address.Address) Certificate {
	return Certificate{Kind: KindPoolRegistration, PoolKeyHash: poolKeyHash, RewardAccount: rewardAccount}
}

func NewPoolRetirement(poolKeyHash [28]byte, epoch uint64) Certificate {
	return Certificate{Kind: KindPoolRetirement, PoolKeyHash: poolKeyHash, RetirementEpoch: epoch}
}

func NewVoteDelegation(cred address.Credential, drep governance.DRep) Certificate {
	return Certificate{Kind: KindVoteDelegation, Credential: cred, DRep: drep}
}

func encodeCredential(w *cbor.Writer, c address.Credential) error {
	if err := w.WriteStartArray(2); err != nil {
		return err
	}
	w.WriteUint(uint64(c.Kind))
	w.WriteBytestring(c.Hash[:])
	return w.WriteEndArray()
}

func decodeCredential(r *cbor.Reader) (address.Credential, error) {
	if err := cbor.ValidateArrayOfNElements("stake_credential", r, 2); err != nil {
		return address.Credential{}, err
	}
	kind, err := r.ReadUint()
	if err != nil {
		return address.Credential{}, err
	}
	h, err := r.ReadBytestring()
	if err != nil {
		return address.Credential{}, err
	}
	if err := cbor.ValidateEndArray("stake_credential", r); err != nil {
		return address.Credential{}, err
	}
	var hash [28]byte
	copy(hash[:], h)
	return address.Credential{Kind: address.CredentialKind(kind), Hash: hash}, nil
}

// Encode writes the certificate in `[cert_type, ...]` array form.
func (c Certificate) Encode(w *cbor.Writer) error {
	switch c.Kind {
	case KindStakeRegistration, KindStakeDeregistration:
		if err := w.WriteStartArray(2); err != nil {
			return err
		}
		w.WriteUint(uint64(c.Kind))
		if err := encodeCredential(w, c.Credential); err != nil {
			return err
		}
		return w.WriteEndArray()
	case KindStakeDelegation:
		if err := w.WriteStartArray(3); err != nil {
			return err
		}
		w.WriteUint(uint64(c.Kind))
		if err := encodeCredential(w, c.Credential); err != nil {
			return err
		}
		w.WriteBytestring(c.PoolKeyHash[:])
		return w.WriteEndArray()
	case KindPoolRegistration:
		if err := w.WriteStartArray(3); err != nil {
			return err
		}
		w.WriteUint(uint64(c.Kind))
		w.WriteBytestring(c.PoolKeyHash[:])
		if err := c.RewardAccount.EncodeCBOR(w); err != nil {
			return err
		}
		return w.WriteEndArray()
	case KindPoolRetirement:
		if err := w.WriteStartArray(3); err != nil {
			return err
		}
		w.WriteUint(uint64(c.Kind))
		w.WriteBytestring(c.PoolKeyHash[:])
		w.WriteUint(c.RetirementEpoch)
		return w.WriteEndArray()
	case KindVoteDelegation:
		if err := w.WriteStartArray(3); err != nil {
			return err
		}
		w.WriteUint(uint64(c.Kind))
		if err := encodeCredential(w, c.Credential); err != nil {
			return err
		}
		if err := c.DRep.Encode(w); err != nil {
			return err
		}
		return w.WriteEndArray()
	default:
		return &cbor.Error{Kind: cbor.KindInvalidCertificateType, Context: "unknown certificate kind"}
	}
}

// Decode reads a certificate.
func Decode(r *cbor.Reader) (Certificate, error) {
	if _, err := r.ReadStartArray(); err != nil {
		return Certificate{}, err
	}
	tag, err := r.ReadUint()
	if err != nil {
		return Certificate{}, err
	}
	var out Certificate
	switch Kind(tag) {
	case KindStakeRegistration, KindStakeDeregistration:
		cred, err := decodeCredential(r)
		if err != nil {
			return Certificate{}, err
		}
		out = Certificate{Kind: Kind(tag), Credential: cred}
	case KindStakeDelegation:
		cred, err := decodeCredential(r)
		if err != nil {
			return Certificate{}, err
		}
		pkh, err := r.ReadBytestring()
		if err != nil {
			return Certificate{}, err
		}
		var hash [28]byte
		copy(hash[:], pkh)
		out = Certificate{Kind: KindStakeDelegation, Credential: cred, PoolKeyHash: hash}
	case KindPoolRegistration:
		pkh, err := r.ReadBytestring()
		if err != nil {
			return Certificate{}, err
		}
		var hash [28]byte
		copy(hash[:], pkh)
		reward, err := address.DecodeCBOR(r)
		if err != nil {
			return Certificate{}, err
		}
		out = Certificate{Kind: KindPoolRegistration, PoolKeyHash: hash, RewardAccount: reward}
	case KindPoolRetirement:
		pkh, err := r.ReadBytestring()
		if err != nil {
			return Certificate{}, err
		}
		var hash [28]byte
		copy(hash[:], pkh)
		epoch, err := r.ReadUint()
		if err != nil {
			return Certificate{}, err
		}
		out = Certificate{Kind: KindPoolRetirement, PoolKeyHash: hash, RetirementEpoch: epoch}
	case KindVoteDelegation:
		cred, err := decodeCredential(r)
		if err != nil {
			return Certificate{}, err
		}
		drep, err := governance.Decode(r)
		if err != nil {
			return Certificate{}, err
		}
		out = Certificate{Kind: KindVoteDelegation, Credential: cred, DRep: drep}
	default:
		return Certificate{}, &cbor.Error{Kind: cbor.KindInvalidCertificateType, Context: "unknown certificate type tag"}
	}
	if err := r.ReadEndArray(); err != nil {
		return Certificate{}, err
	}
	return out, nil
}

// Deposit reports the stake-key deposit delta this certificate imposes
// on the balancer's required-value accounting: positive for
// registration (coin leaves the balance), negative for deregistration
// (coin returns), zero otherwise.
func (c Certificate) Deposit(keyDeposit int64) int64 {
	switch c.Kind {
	case KindStakeRegistration:
		return keyDeposit
	case KindStakeDeregistration:
		return -keyDeposit
	default:
		return 0
	}
}
