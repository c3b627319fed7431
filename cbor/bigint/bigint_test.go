package bigint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMagnitudeRoundTripPositive(t *testing.T) {
	v := FromInt64(1000)
	neg, mag := v.Magnitude()
	assert.False(t, neg)
	got := FromMagnitude(neg, mag)
	assert.True(t, Equal(v, got))
}

func TestMagnitudeRoundTripNegative(t *testing.T) {
	v := FromInt64(-12345)
	neg, mag := v.Magnitude()
	assert.True(t, neg)
	got := FromMagnitude(neg, mag)
	assert.True(t, Equal(v, got))
}

func TestArithmetic(t *testing.T) {
	a := FromInt64(10)
	b := FromInt64(3)
	assert.Equal(t, "13", Add(a, b).String())
	assert.Equal(t, "7", Sub(a, b).String())
	assert.Equal(t, "-10", Neg(a).String())
	assert.Equal(t, -1, Cmp(b, a))
}

func TestLargeValueBeyond64Bits(t *testing.T) {
	// 2^100
	big := FromUint64(1)
	for i := 0; i < 100; i++ {
		big = Add(big, big)
	}
	assert.False(t, big.IsInt64())
	neg, mag := big.Magnitude()
	assert.False(t, neg)
	got := FromMagnitude(neg, mag)
	assert.True(t, Equal(big, got))
}
