// Package bigint implements Cardano's arbitrary-precision signed integer,
// used wherever a Plutus Integer or protocol value exceeds 64 bits. It
// round-trips through CBOR tags 2 (UnsignedBigNum) and 3 (NegativeBigNum),
// falling back to the direct major-type-0/1 form when the value fits in
// 64 bits, matching the canonical encoding the rest of this module expects.
package bigint

import "math/big"

// Int is a thin, explicitly-named wrapper around math/big.Int so call
// sites in this module read as domain code ("a Plutus Integer") rather
// than generic arbitrary-precision arithmetic.
type Int struct {
	v *big.Int
}

// Zero returns the additive identity.
func Zero() *Int { return &Int{v: big.NewInt(0)} }

// FromInt64 builds an Int from a native 64-bit signed integer.
func FromInt64(n int64) *Int { return &Int{v: big.NewInt(n)} }

// FromUint64 builds an Int from a native 64-bit unsigned integer.
func FromUint64(n uint64) *Int { return &Int{v: new(big.Int).SetUint64(n)} }

// FromBigInt adopts an existing math/big.Int by value (copied).
func FromBigInt(b *big.Int) *Int { return &Int{v: new(big.Int).Set(b)} }

// FromMagnitude builds an Int from a sign (true = negative) and the
// big-endian magnitude bytes used by CBOR tags 2/3.
func FromMagnitude(negative bool, magnitude []byte) *Int {
	m := new(big.Int).SetBytes(magnitude)
	if negative {
		// Tag 3 encodes -1 - n, per RFC 8949 §3.4.3.
		one := big.NewInt(1)
		m.Add(m, one)
		m.Neg(m)
	}
	return &Int{v: m}
}

// Big returns the underlying math/big.Int. Callers must not mutate it.
func (i *Int) Big() *big.Int {
	if i == nil {
		return big.NewInt(0)
	}
	return i.v
}

// Sign returns -1, 0, or 1.
func (i *Int) Sign() int { return i.Big().Sign() }

// IsInt64 reports whether the value fits in a signed 64-bit integer.
func (i *Int) IsInt64() bool { return i.Big().IsInt64() }

// Int64 returns the value truncated/wrapped to int64 if it does not fit;
// callers needing strict range checks should call IsInt64 first.
func (i *Int) Int64() int64 { return i.Big().Int64() }

// Add returns a new Int equal to a+b.
func Add(a, b *Int) *Int { return &Int{v: new(big.Int).Add(a.Big(), b.Big())} }

// Sub returns a new Int equal to a-b.
func Sub(a, b *Int) *Int { return &Int{v: new(big.Int).Sub(a.Big(), b.Big())} }

// Neg returns a new Int equal to -a.
func Neg(a *Int) *Int { return &Int{v: new(big.Int).Neg(a.Big())} }

// Cmp returns -1, 0, or 1 comparing a and b.
func Cmp(a, b *Int) int { return a.Big().Cmp(b.Big()) }

// Equal reports value equality.
func Equal(a, b *Int) bool { return Cmp(a, b) == 0 }

// Magnitude returns (negative, magnitudeBytes) suitable for tag 2/3 encoding.
// For tag 3 the magnitude is n' = -1 - n per RFC 8949 §3.4.3.
func (i *Int) Magnitude() (negative bool, magnitude []byte) {
	v := i.Big()
	if v.Sign() >= 0 {
		return false, v.Bytes()
	}
	one := big.NewInt(1)
	m := new(big.Int).Neg(v)
	m.Sub(m, one)
	return true, m.Bytes()
}

// String renders the decimal form, for diagnostics and tests.
func (i *Int) String() string { return i.Big().String() }
