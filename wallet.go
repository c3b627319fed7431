// Package txforge's wallet support derives Ed25519 payment and staking
// keys from a BIP39 mnemonic via bursa's HD derivation path and signs
// transaction body hashes into witness-set entries.
package txforge

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/bursa"
	"github.com/blinklabs-io/bursa/bip32"
	"golang.org/x/crypto/blake2b"

	"github.com/cardano-go/txforge/serialization/address"
	"github.com/cardano-go/txforge/serialization/transactionwitnessset"
)

// Wallet provides signing and address capabilities for transaction building.
type Wallet interface {
	// Address returns the payment address for this wallet.
	Address() address.Address
	// SignTxBody signs a transaction body hash and returns a VKeyWitness.
	SignTxBody(txBodyHash [32]byte) (transactionwitnessset.VKeyWitness, error)
	// PubKeyHash returns the blake2b-224 hash of the payment public key.
	PubKeyHash() [28]byte
	// StakePubKeyHash returns the blake2b-224 hash of the staking public
	// key, or the zero hash if this wallet has no staking key.
	StakePubKeyHash() [28]byte
}

func blake2b224(b []byte) [28]byte {
	h, err := blake2b.New(28, nil)
	if err != nil {
		panic(err) // only fails for an invalid size/key, both fixed here
	}
	h.Write(b)
	var out [28]byte
	copy(out[:], h.Sum(nil))
	return out
}

func signWith(key bip32.XPrv, hash [32]byte) transactionwitnessset.VKeyWitness {
	var w transactionwitnessset.VKeyWitness
	copy(w.VKey[:], key.Public().PublicKey())
	copy(w.Signature[:], key.Sign(hash[:]))
	return w
}

// BursaWallet derives payment and staking keys from a BIP39 mnemonic
// using bursa's standard Cardano HD wallet derivation path.
type BursaWallet struct {
	mnemonic   string
	address    address.Address
	paymentKey bip32.XPrv
	stakeKey   bip32.XPrv
}

// NewBursaWallet creates a new wallet from a mnemonic string.
func NewBursaWallet(network address.NetworkID, mnemonic string, opts ...bursa.WalletOption) (*BursaWallet, error) {
	return NewBursaWalletWithPassphrase(network, mnemonic, "", opts...)
}

// NewBursaWalletWithPassphrase creates a new wallet from a mnemonic and
// passphrase. The passphrase is used for BIP39 key derivation.
func NewBursaWalletWithPassphrase(network address.NetworkID, mnemonic string, passphrase string, opts ...bursa.WalletOption) (*BursaWallet, error) {
	allOpts := append(append([]bursa.WalletOption{}, opts...), bursa.WithPassword(passphrase))
	w, err := bursa.NewWallet(mnemonic, allOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bursa wallet: %w", err)
	}

	rootKey, err := bursa.GetRootKeyFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to derive root key: %w", err)
	}
	accountKey, err := bursa.GetAccountKey(rootKey, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to derive account key: %w", err)
	}
	paymentKey, err := bursa.GetPaymentKey(accountKey, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to derive payment key: %w", err)
	}
	stakeKey, err := bursa.GetStakeKey(accountKey, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to derive stake key: %w", err)
	}

	paymentCred := address.NewKeyCredential(blake2b224(paymentKey.Public().PublicKey()))
	stakeCred := address.NewKeyCredential(blake2b224(stakeKey.Public().PublicKey()))
	addr := address.NewBaseAddress(network, paymentCred, stakeCred)

	return &BursaWallet{
		mnemonic:   w.Mnemonic,
		address:    addr,
		paymentKey: paymentKey,
		stakeKey:   stakeKey,
	}, nil
}

// NewBursaWalletGenerate creates a new wallet with a freshly generated mnemonic.
func NewBursaWalletGenerate(network address.NetworkID, opts ...bursa.WalletOption) (*BursaWallet, error) {
	mnemonic, err := bursa.GenerateMnemonic()
	if err != nil {
		return nil, fmt.Errorf("failed to generate mnemonic: %w", err)
	}
	return NewBursaWallet(network, mnemonic, opts...)
}

func (w *BursaWallet) Address() address.Address { return w.address }

func (w *BursaWallet) SignTxBody(txBodyHash [32]byte) (transactionwitnessset.VKeyWitness, error) {
	return signWith(w.paymentKey, txBodyHash), nil
}

func (w *BursaWallet) PubKeyHash() [28]byte {
	return blake2b224(w.paymentKey.Public().PublicKey())
}

func (w *BursaWallet) StakePubKeyHash() [28]byte {
	return blake2b224(w.stakeKey.Public().PublicKey())
}

// Mnemonic returns the mnemonic for this wallet.
func (w *BursaWallet) Mnemonic() string { return w.mnemonic }

// String returns a safe string representation that does not expose key material.
func (w *BursaWallet) String() string {
	return fmt.Sprintf("BursaWallet{address: %x}", w.address.Bytes())
}

// GoString implements fmt.GoStringer to prevent key material from leaking via %#v.
func (w *BursaWallet) GoString() string { return w.String() }

// ExternalWallet is an address-only wallet for watch-only flows. It
// cannot sign transactions.
type ExternalWallet struct {
	addr           address.Address
	paymentKeyHash [28]byte
	stakeKeyHash   [28]byte
}

// NewExternalWallet creates a watch-only wallet from an address and the
// key hashes backing it (the caller already knows these from the
// address's own credentials).
func NewExternalWallet(addr address.Address, paymentKeyHash, stakeKeyHash [28]byte) *ExternalWallet {
	return &ExternalWallet{addr: addr, paymentKeyHash: paymentKeyHash, stakeKeyHash: stakeKeyHash}
}

func (w *ExternalWallet) Address() address.Address { return w.addr }

func (w *ExternalWallet) SignTxBody(_ [32]byte) (transactionwitnessset.VKeyWitness, error) {
	return transactionwitnessset.VKeyWitness{}, errors.New("external wallet cannot sign transactions")
}

func (w *ExternalWallet) PubKeyHash() [28]byte { return w.paymentKeyHash }

func (w *ExternalWallet) StakePubKeyHash() [28]byte { return w.stakeKeyHash }
