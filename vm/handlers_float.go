package vm

import "math"

func regToFloat(v uint64) float64 { return math.Float64frombits(v) }
func floatToReg(f float64) uint64 { return math.Float64bits(f) }

// execFloatArith implements FAdd/FSub/FMul/FDiv: the registers' bit
// patterns are reinterpreted as IEEE-754 doubles. These do not touch the
// integer flags; FCmp is the only floating instruction that does.
func (v *VM) execFloatArith(inst Instruction) error {
	a := regToFloat(v.Reg(inst.A))
	b := regToFloat(v.Reg(inst.B))
	var result float64
	switch inst.Op {
	case OpFAdd:
		result = a + b
	case OpFSub:
		result = a - b
	case OpFMul:
		result = a * b
	case OpFDiv:
		result = a / b
	}
	v.SetReg(inst.Dst, floatToReg(result))
	return nil
}

// execFloatUnary implements FSqrt/FAbs/FNeg/F2I/I2F.
func (v *VM) execFloatUnary(inst Instruction) error {
	switch inst.Op {
	case OpFSqrt:
		v.SetReg(inst.Dst, floatToReg(math.Sqrt(regToFloat(v.Reg(inst.A)))))
	case OpFAbs:
		v.SetReg(inst.Dst, floatToReg(math.Abs(regToFloat(v.Reg(inst.A)))))
	case OpFNeg:
		v.SetReg(inst.Dst, floatToReg(-regToFloat(v.Reg(inst.A))))
	case OpF2I:
		v.SetReg(inst.Dst, uint64(int64(regToFloat(v.Reg(inst.A)))))
	case OpI2F:
		v.SetReg(inst.Dst, floatToReg(float64(AsInt64(v.Reg(inst.A)))))
	}
	return nil
}
