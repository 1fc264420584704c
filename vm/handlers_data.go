package vm

func (v *VM) execLoadImm(inst Instruction) error {
	v.SetReg(inst.Dst, inst.Imm)
	return nil
}

func (v *VM) execMove(inst Instruction) error {
	v.SetReg(inst.Dst, v.Reg(inst.A))
	return nil
}

func (v *VM) execSwap(inst Instruction) error {
	a, b := v.Reg(inst.A), v.Reg(inst.B)
	v.SetReg(inst.A, b)
	v.SetReg(inst.B, a)
	return nil
}
