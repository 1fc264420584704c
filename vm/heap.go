package vm

import "fmt"

// heapBlock is the 24-byte header at the start of every allocated or free
// region: size (8), next_offset (8, 0 meaning none), free (1, padded to 8).
type heapBlock struct {
	size uint64
	next uint64 // offset from heap start; 0 means none
	free bool
}

func readHeapBlock(mem *Memory, addr uint64) (heapBlock, error) {
	size, err := mem.ReadQword(addr)
	if err != nil {
		return heapBlock{}, err
	}
	next, err := mem.ReadQword(addr + 8)
	if err != nil {
		return heapBlock{}, err
	}
	freeByte, err := mem.ReadByte(addr + 16)
	if err != nil {
		return heapBlock{}, err
	}
	return heapBlock{size: size, next: next, free: freeByte != 0}, nil
}

func writeHeapBlock(mem *Memory, addr uint64, b heapBlock) error {
	if err := mem.WriteQword(addr, b.size); err != nil {
		return err
	}
	if err := mem.WriteQword(addr+8, b.next); err != nil {
		return err
	}
	var freeByte byte
	if b.free {
		freeByte = 1
	}
	return mem.WriteByte(addr+16, freeByte)
}

// Heap is a first-fit, singly-linked free-list allocator embedded directly
// in a Memory segment's bytes -- there is no side structure, matching the
// design notes on the free list.
type Heap struct {
	mem   *Memory
	start uint64
	size  uint64
}

// NewHeap binds a Heap to the [start, start+size) range of mem and
// initializes it as a single free block spanning the whole segment minus
// one header.
func NewHeap(mem *Memory, start, size uint64) (*Heap, error) {
	h := &Heap{mem: mem, start: start, size: size}
	if size <= HeapHeaderSize {
		return nil, fmt.Errorf("heap segment too small: %d bytes", size)
	}
	if err := writeHeapBlock(mem, start, heapBlock{size: size - HeapHeaderSize, next: 0, free: true}); err != nil {
		return nil, err
	}
	return h, nil
}

// Alloc reserves n bytes, splitting the first sufficiently large free block
// when the remainder would still hold a header plus at least 8 payload
// bytes. Returns the payload address, i.e. block address + header size.
func (h *Heap) Alloc(n uint64) (uint64, error) {
	addr := h.start
	for {
		blk, err := readHeapBlock(h.mem, addr)
		if err != nil {
			return 0, err
		}
		if blk.free && blk.size >= n {
			if blk.size > n+HeapHeaderSize+8 {
				newAddr := addr + HeapHeaderSize + n
				newSize := blk.size - n - HeapHeaderSize
				if err := writeHeapBlock(h.mem, newAddr, heapBlock{size: newSize, next: blk.next, free: true}); err != nil {
					return 0, err
				}
				blk.size = n
				blk.next = newAddr - h.start
			}
			blk.free = false
			if err := writeHeapBlock(h.mem, addr, blk); err != nil {
				return 0, err
			}
			return addr + HeapHeaderSize, nil
		}
		if blk.next == 0 {
			return 0, fmt.Errorf("heap out of memory: cannot allocate %d bytes", n)
		}
		addr = h.start + blk.next
	}
}

// Free marks the block backing ptr as free. ptr must be a value previously
// returned by Alloc; coalescing of adjacent free blocks is not performed,
// matching the allocator's documented limitation.
func (h *Heap) Free(ptr uint64) error {
	if ptr < h.start+HeapHeaderSize || ptr >= h.start+h.size {
		return fmt.Errorf("free: pointer 0x%X is not a valid heap allocation", ptr)
	}
	addr := ptr - HeapHeaderSize
	blk, err := readHeapBlock(h.mem, addr)
	if err != nil {
		return err
	}
	blk.free = true
	return writeHeapBlock(h.mem, addr, blk)
}
