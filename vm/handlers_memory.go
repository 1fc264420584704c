package vm

// execMemoryOp implements Load/Store/LoadIndexed/StoreIndexed/Alloc/Free/
// MemCopy/MemSet, delegating bounds and permission checks to Memory and
// first-fit allocation to Heap.
func (v *VM) execMemoryOp(inst Instruction) error {
	switch inst.Op {
	case OpLoad:
		val, err := v.Memory.ReadQword(v.Reg(inst.A))
		if err != nil {
			return err
		}
		if v.Statistics != nil {
			v.Statistics.RecordMemoryRead(8)
		}
		v.SetReg(inst.Dst, val)
		return nil

	case OpStore:
		if err := v.Memory.WriteQword(v.Reg(inst.B), v.Reg(inst.A)); err != nil {
			return err
		}
		if v.Statistics != nil {
			v.Statistics.RecordMemoryWrite(8)
		}
		return nil

	case OpLoadIndexed:
		addr := v.Reg(inst.A) + v.Reg(inst.B)*8
		val, err := v.Memory.ReadQword(addr)
		if err != nil {
			return err
		}
		if v.Statistics != nil {
			v.Statistics.RecordMemoryRead(8)
		}
		v.SetReg(inst.Dst, val)
		return nil

	case OpStoreIndexed:
		addr := v.Reg(inst.A) + v.Reg(inst.B)*8
		if err := v.Memory.WriteQword(addr, v.Reg(inst.Dst)); err != nil {
			return err
		}
		if v.Statistics != nil {
			v.Statistics.RecordMemoryWrite(8)
		}
		return nil

	case OpAlloc:
		if v.Heap == nil {
			return &MemoryError{Kind: SegmentationFault, Address: 0, Length: v.Reg(inst.A)}
		}
		ptr, err := v.Heap.Alloc(v.Reg(inst.A))
		if err != nil {
			return err
		}
		v.SetReg(inst.Dst, ptr)
		return nil

	case OpFree:
		if v.Heap == nil {
			return &MemoryError{Kind: SegmentationFault, Address: v.Reg(inst.A)}
		}
		return v.Heap.Free(v.Reg(inst.A))

	case OpMemCopy:
		dst, src, n := v.Reg(inst.Dst), v.Reg(inst.A), v.Reg(inst.B)
		// Overlap is explicitly undefined behaviour; a straightforward
		// forward byte copy is the teacher-grounded choice (§9 open
		// questions).
		for i := uint64(0); i < n; i++ {
			b, err := v.Memory.ReadByte(src + i)
			if err != nil {
				return err
			}
			if err := v.Memory.WriteByte(dst+i, b); err != nil {
				return err
			}
		}
		return nil

	case OpMemSet:
		addr, val, n := v.Reg(inst.Dst), byte(v.Reg(inst.A)), v.Reg(inst.B)
		for i := uint64(0); i < n; i++ {
			if err := v.Memory.WriteByte(addr+i, val); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}
