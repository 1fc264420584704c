package vm

import "math/bits"

// execBitwise implements And/Or/Xor/Not/Shl/Shr. Logic and shifts always
// report overflow=false to the flag update, per the execution engine design.
func (v *VM) execBitwise(inst Instruction) error {
	var result uint64
	switch inst.Op {
	case OpAnd:
		result = v.Reg(inst.A) & v.Reg(inst.B)
	case OpOr:
		result = v.Reg(inst.A) | v.Reg(inst.B)
	case OpXor:
		result = v.Reg(inst.A) ^ v.Reg(inst.B)
	case OpNot:
		result = ^v.Reg(inst.A)
	case OpShl:
		shift := v.Reg(inst.B) & 63
		result = v.Reg(inst.A) << shift
	case OpShr:
		shift := v.Reg(inst.B) & 63
		result = v.Reg(inst.A) >> shift
	}
	v.SetReg(inst.Dst, result)
	v.Flags.updateArith(result, false)
	return nil
}

// execBitExtension implements PopCnt/Clz/Ctz/BSwap/RotL/RotR. These are not
// named among the flag-affecting families in the data model's Flags
// invariant, so they leave the flags register untouched.
func (v *VM) execBitExtension(inst Instruction) error {
	var result uint64
	switch inst.Op {
	case OpPopCnt:
		result = uint64(bits.OnesCount64(v.Reg(inst.A)))
	case OpClz:
		result = uint64(bits.LeadingZeros64(v.Reg(inst.A)))
	case OpCtz:
		result = uint64(bits.TrailingZeros64(v.Reg(inst.A)))
	case OpBSwap:
		result = bits.ReverseBytes64(v.Reg(inst.A))
	case OpRotL:
		amount, err := SafeUint64ToInt(v.Reg(inst.B) & 63)
		if err != nil {
			return err
		}
		result = bits.RotateLeft64(v.Reg(inst.A), amount)
	case OpRotR:
		amount, err := SafeUint64ToInt(v.Reg(inst.B) & 63)
		if err != nil {
			return err
		}
		result = bits.RotateLeft64(v.Reg(inst.A), -amount)
	}
	v.SetReg(inst.Dst, result)
	return nil
}
