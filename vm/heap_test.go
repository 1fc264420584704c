package vm_test

import (
	"testing"

	"github.com/lookbusy1344/alya-vm/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHeap(t *testing.T, size uint64) (*vm.Memory, *vm.Heap) {
	t.Helper()
	mem := vm.NewMemory(vm.DefaultMemorySize)
	h, err := vm.NewHeap(mem, vm.HeapSegmentStart, size)
	require.NoError(t, err)
	return mem, h
}

func TestHeap_NewHeapTooSmallFails(t *testing.T) {
	mem := vm.NewMemory(vm.DefaultMemorySize)
	_, err := vm.NewHeap(mem, vm.HeapSegmentStart, vm.HeapHeaderSize)
	require.Error(t, err)
}

func TestHeap_AllocReturnsPayloadPastHeader(t *testing.T) {
	_, h := newTestHeap(t, 256)
	ptr, err := h.Alloc(16)
	require.NoError(t, err)
	assert.Equal(t, vm.HeapSegmentStart+vm.HeapHeaderSize, ptr)
}

func TestHeap_AllocSplitsRemainderWhenLargeEnough(t *testing.T) {
	_, h := newTestHeap(t, 256)
	first, err := h.Alloc(16)
	require.NoError(t, err)
	second, err := h.Alloc(16)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Greater(t, second, first)
}

func TestHeap_AllocFirstFitReusesFreedBlock(t *testing.T) {
	_, h := newTestHeap(t, 256)
	a, err := h.Alloc(16)
	require.NoError(t, err)
	b, err := h.Alloc(16)
	require.NoError(t, err)
	require.NoError(t, h.Free(a))

	c, err := h.Alloc(8)
	require.NoError(t, err)
	assert.Equal(t, a, c, "first-fit should reuse the freed block before extending")
	_ = b
}

func TestHeap_AllocExhaustionFails(t *testing.T) {
	_, h := newTestHeap(t, 64)
	_, err := h.Alloc(1000)
	require.Error(t, err)
}

func TestHeap_FreeInvalidPointerFails(t *testing.T) {
	_, h := newTestHeap(t, 256)
	err := h.Free(vm.HeapSegmentStart)
	require.Error(t, err)

	err = h.Free(vm.HeapSegmentStart + 10000)
	require.Error(t, err)
}

func TestHeap_FreeThenReallocDoesNotCoalesceAdjacent(t *testing.T) {
	_, h := newTestHeap(t, 256)
	a, err := h.Alloc(16)
	require.NoError(t, err)
	b, err := h.Alloc(16)
	require.NoError(t, err)
	require.NoError(t, h.Free(a))
	require.NoError(t, h.Free(b))

	// A request bigger than either individual freed block must fail, since
	// the allocator never coalesces adjacent free blocks.
	_, err = h.Alloc(200)
	require.Error(t, err)
}
