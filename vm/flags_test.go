package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlags_ToWordAndFromWordRoundTrip(t *testing.T) {
	f := Flags{Z: true, N: false, C: true, V: false}
	got := FlagsFromWord(f.ToWord())
	assert.Equal(t, f, got)
}

func TestFlags_FromWordIgnoresHighBits(t *testing.T) {
	got := FlagsFromWord(0xFF0)
	assert.Equal(t, Flags{}, got)
}

func TestFlags_CompareEqual(t *testing.T) {
	var f Flags
	f.compare(5, 5)
	assert.True(t, f.Z)
	assert.False(t, f.N)
	assert.False(t, f.C)
	assert.False(t, f.V)
}

func TestFlags_CompareUnsignedBorrow(t *testing.T) {
	var f Flags
	f.compare(1, 2)
	assert.True(t, f.C, "1 < 2 unsigned should set carry/borrow")
}

func TestFlags_CompareSignedLessThan(t *testing.T) {
	var f Flags
	f.compare(uint64(int64(-1)), 1)
	assert.True(t, f.N)
}

func TestFlags_CompareSignedOverflow(t *testing.T) {
	var f Flags
	// MaxInt64 - (-1) overflows signed subtraction.
	f.compare(uint64(int64(math.MaxInt64)), uint64(int64(-1)))
	assert.True(t, f.V)
}

func TestFlags_FCompareEqual(t *testing.T) {
	var f Flags
	f.fcompare(1.5, 1.5)
	assert.True(t, f.Z)
	assert.False(t, f.N)
	assert.False(t, f.C)
}

func TestFlags_FCompareLessThan(t *testing.T) {
	var f Flags
	f.fcompare(1.0, 2.0)
	assert.True(t, f.N)
}

func TestFlags_FCompareUnorderedOnNaN(t *testing.T) {
	var f Flags
	f.fcompare(math.NaN(), 1.0)
	assert.True(t, f.C)
	assert.False(t, f.Z)
	assert.False(t, f.N)
}

func TestFlags_UpdateArithZeroAndNegative(t *testing.T) {
	var f Flags
	f.updateArith(0, false)
	assert.True(t, f.Z)
	assert.False(t, f.N)

	f.updateArith(uint64(int64(-5)), true)
	assert.False(t, f.Z)
	assert.True(t, f.N)
	assert.True(t, f.C)
	assert.True(t, f.V)
}
