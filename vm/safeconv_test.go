package vm_test

import (
	"math"
	"testing"

	"github.com/lookbusy1344/alya-vm/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeIntToUint64_NonNegative(t *testing.T) {
	v, err := vm.SafeIntToUint64(42)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)
}

func TestSafeIntToUint64_NegativeFails(t *testing.T) {
	_, err := vm.SafeIntToUint64(-1)
	require.Error(t, err)
}

func TestSafeUint64ToInt_InRange(t *testing.T) {
	v, err := vm.SafeUint64ToInt(42)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSafeUint64ToInt_Overflow(t *testing.T) {
	_, err := vm.SafeUint64ToInt(math.MaxUint64)
	require.Error(t, err)
}

func TestSafeUint64ToUint32_InRange(t *testing.T) {
	v, err := vm.SafeUint64ToUint32(0xFFFFFFFF)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFFFF), v)
}

func TestSafeUint64ToUint32_Overflow(t *testing.T) {
	_, err := vm.SafeUint64ToUint32(0x100000000)
	require.Error(t, err)
}

func TestAsInt64_ReinterpretsBitPattern(t *testing.T) {
	assert.Equal(t, int64(-1), vm.AsInt64(math.MaxUint64))
	assert.Equal(t, int64(42), vm.AsInt64(42))
}
