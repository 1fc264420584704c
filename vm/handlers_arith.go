package vm

import "math/bits"

// execArith implements Add/Sub/Mul/Div/Mod: Dst = A op B, unsigned wrapping,
// flags derived from the result and, for Add/Sub/Mul, the detected overflow.
func (v *VM) execArith(inst Instruction, pc int) error {
	a, b := v.Reg(inst.A), v.Reg(inst.B)
	var result uint64
	var overflow bool

	switch inst.Op {
	case OpAdd:
		var carry uint64
		result, carry = bits.Add64(a, b, 0)
		overflow = carry != 0
	case OpSub:
		var borrow uint64
		result, borrow = bits.Sub64(a, b, 0)
		overflow = borrow != 0
	case OpMul:
		hi, lo := bits.Mul64(a, b)
		result = lo
		overflow = hi != 0
	case OpDiv:
		if b == 0 {
			return &DivisionByZeroError{PC: uint64(pc)}
		}
		result = a / b
	case OpMod:
		if b == 0 {
			return &DivisionByZeroError{PC: uint64(pc)}
		}
		result = a % b
	}

	v.SetReg(inst.Dst, result)
	v.Flags.updateArith(result, overflow)
	return nil
}

// execCompoundAssign implements the *Assign family: Dst = Dst op A, same
// flag treatment as the three-operand arithmetic instructions.
func (v *VM) execCompoundAssign(inst Instruction, pc int) error {
	d, a := v.Reg(inst.Dst), v.Reg(inst.A)
	var result uint64
	var overflow bool

	switch inst.Op {
	case OpAddAssign:
		var carry uint64
		result, carry = bits.Add64(d, a, 0)
		overflow = carry != 0
	case OpSubAssign:
		var borrow uint64
		result, borrow = bits.Sub64(d, a, 0)
		overflow = borrow != 0
	case OpMulAssign:
		hi, lo := bits.Mul64(d, a)
		result = lo
		overflow = hi != 0
	case OpDivAssign:
		if a == 0 {
			return &DivisionByZeroError{PC: uint64(pc)}
		}
		result = d / a
	}

	v.SetReg(inst.Dst, result)
	v.Flags.updateArith(result, overflow)
	return nil
}
