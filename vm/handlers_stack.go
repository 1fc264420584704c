package vm

func (v *VM) execPush(inst Instruction) error {
	return v.Stack.Push(v.Reg(inst.A))
}

func (v *VM) execPop(inst Instruction) error {
	val, err := v.Stack.Pop()
	if err != nil {
		return err
	}
	v.SetReg(inst.Dst, val)
	return nil
}

func (v *VM) execPeek(inst Instruction) error {
	val, err := v.Stack.Peek()
	if err != nil {
		return err
	}
	v.SetReg(inst.Dst, val)
	return nil
}
