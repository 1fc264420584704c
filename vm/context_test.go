package vm_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/lookbusy1344/alya-vm/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prog(insts ...vm.Instruction) *vm.Program {
	lines := make([]int, len(insts))
	return &vm.Program{Instructions: insts, Lines: lines}
}

func TestVM_RunHaltsOnOpHalt(t *testing.T) {
	v := vm.NewVM(0)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpLoadImm, Dst: vm.R0, Imm: 5},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, uint64(5), v.Reg(vm.R0))
	assert.True(t, v.Halted)
}

func TestVM_RunOffEndOfProgramHalts(t *testing.T) {
	v := vm.NewVM(0)
	err := v.Run(prog(vm.Instruction{Op: vm.OpNop}))
	require.True(t, errors.Is(err, vm.ErrHalted))
}

func TestVM_LoadImmAndMove(t *testing.T) {
	v := vm.NewVM(0)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpLoadImm, Dst: vm.R0, Imm: 42},
		vm.Instruction{Op: vm.OpMove, Dst: vm.R1, A: vm.R0},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, uint64(42), v.Reg(vm.R1))
}

func TestVM_Swap(t *testing.T) {
	v := vm.NewVM(0)
	v.SetReg(vm.R0, 1)
	v.SetReg(vm.R1, 2)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpSwap, A: vm.R0, B: vm.R1},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, uint64(2), v.Reg(vm.R0))
	assert.Equal(t, uint64(1), v.Reg(vm.R1))
}

func TestVM_ArithOverflowSetsCarryAndOverflow(t *testing.T) {
	v := vm.NewVM(0)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpLoadImm, Dst: vm.R0, Imm: ^uint64(0)},
		vm.Instruction{Op: vm.OpLoadImm, Dst: vm.R1, Imm: 1},
		vm.Instruction{Op: vm.OpAdd, Dst: vm.R2, A: vm.R0, B: vm.R1},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, uint64(0), v.Reg(vm.R2))
	assert.True(t, v.Flags.Z)
	assert.True(t, v.Flags.C)
}

func TestVM_DivisionByZeroFails(t *testing.T) {
	v := vm.NewVM(0)
	v.SetReg(vm.R0, 10)
	v.SetReg(vm.R1, 0)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpDiv, Dst: vm.R2, A: vm.R0, B: vm.R1},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.Error(t, err)
	var divErr *vm.DivisionByZeroError
	assert.ErrorAs(t, err, &divErr)
}

func TestVM_CompoundAssign(t *testing.T) {
	v := vm.NewVM(0)
	v.SetReg(vm.R0, 10)
	v.SetReg(vm.R1, 5)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpAddAssign, Dst: vm.R0, A: vm.R1},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, uint64(15), v.Reg(vm.R0))
}

func TestVM_Bitwise(t *testing.T) {
	v := vm.NewVM(0)
	v.SetReg(vm.R0, 0b1100)
	v.SetReg(vm.R1, 0b1010)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpAnd, Dst: vm.R2, A: vm.R0, B: vm.R1},
		vm.Instruction{Op: vm.OpOr, Dst: vm.R3, A: vm.R0, B: vm.R1},
		vm.Instruction{Op: vm.OpXor, Dst: vm.R4, A: vm.R0, B: vm.R1},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, uint64(0b1000), v.Reg(vm.R2))
	assert.Equal(t, uint64(0b1110), v.Reg(vm.R3))
	assert.Equal(t, uint64(0b0110), v.Reg(vm.R4))
}

func TestVM_BitExtensionLeavesFlagsUntouched(t *testing.T) {
	v := vm.NewVM(0)
	v.SetReg(vm.R0, 0b1011)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpCompare, A: vm.R0, B: vm.R0}, // sets Z=true first
		vm.Instruction{Op: vm.OpPopCnt, Dst: vm.R1, A: vm.R0},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, uint64(3), v.Reg(vm.R1))
	assert.True(t, v.Flags.Z, "PopCnt must not clear flags set by a prior instruction")
}

func TestVM_PushPopPeek(t *testing.T) {
	v := vm.NewVM(0)
	v.SetReg(vm.R0, 99)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpPush, A: vm.R0},
		vm.Instruction{Op: vm.OpPeek, Dst: vm.R1},
		vm.Instruction{Op: vm.OpPop, Dst: vm.R2},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, uint64(99), v.Reg(vm.R1))
	assert.Equal(t, uint64(99), v.Reg(vm.R2))
}

func TestVM_JumpUnconditional(t *testing.T) {
	v := vm.NewVM(0)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpJump, Imm: 2},
		vm.Instruction{Op: vm.OpLoadImm, Dst: vm.R0, Imm: 1}, // skipped
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, uint64(0), v.Reg(vm.R0))
}

func TestVM_CompareAndConditionalJumpTaken(t *testing.T) {
	v := vm.NewVM(0)
	v.SetReg(vm.R0, 5)
	v.SetReg(vm.R1, 5)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpCompare, A: vm.R0, B: vm.R1},
		vm.Instruction{Op: vm.OpJumpIfEq, Imm: 3},
		vm.Instruction{Op: vm.OpLoadImm, Dst: vm.R2, Imm: 1}, // skipped
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, uint64(0), v.Reg(vm.R2))
}

func TestVM_CompareAndConditionalJumpNotTaken(t *testing.T) {
	v := vm.NewVM(0)
	v.SetReg(vm.R0, 5)
	v.SetReg(vm.R1, 6)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpCompare, A: vm.R0, B: vm.R1},
		vm.Instruction{Op: vm.OpJumpIfEq, Imm: 3},
		vm.Instruction{Op: vm.OpLoadImm, Dst: vm.R2, Imm: 1},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, uint64(1), v.Reg(vm.R2))
}

func TestVM_UnsignedConditionalJumps(t *testing.T) {
	v := vm.NewVM(0)
	// Compare a small unsigned value against a huge one stored via two's
	// complement of -1, to exercise the unsigned-specific branch family.
	v.SetReg(vm.R0, 1)
	v.SetReg(vm.R1, ^uint64(0))
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpCompare, A: vm.R0, B: vm.R1},
		vm.Instruction{Op: vm.OpJumpIfBelow, Imm: 3},
		vm.Instruction{Op: vm.OpLoadImm, Dst: vm.R2, Imm: 1}, // skipped: 1 < MaxUint64
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, uint64(0), v.Reg(vm.R2))
}

func TestVM_CallAndReturn(t *testing.T) {
	v := vm.NewVM(0)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpCall, Imm: 3},
		vm.Instruction{Op: vm.OpLoadImm, Dst: vm.R0, Imm: 1}, // after return
		vm.Instruction{Op: vm.OpHalt},
		vm.Instruction{Op: vm.OpLoadImm, Dst: vm.R1, Imm: 2}, // callee at idx 3
		vm.Instruction{Op: vm.OpReturn},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, uint64(1), v.Reg(vm.R0))
	assert.Equal(t, uint64(2), v.Reg(vm.R1))
}

func TestVM_ReturnWithoutCallFails(t *testing.T) {
	v := vm.NewVM(0)
	err := v.Run(prog(vm.Instruction{Op: vm.OpReturn}))
	require.Error(t, err)
	var execErr *vm.ExecutionError
	require.ErrorAs(t, err, &execErr)
}

func TestVM_SyscallPrintInt(t *testing.T) {
	v := vm.NewVM(0)
	var out bytes.Buffer
	v.OutputWriter = &out
	v.SetReg(vm.R0, 1)
	v.SetReg(vm.R1, 123)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpSyscall},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Contains(t, out.String(), "123")
}

func TestVM_FloatArith(t *testing.T) {
	v := vm.NewVM(0)
	v.SetReg(vm.R0, math.Float64bits(2.5))
	v.SetReg(vm.R1, math.Float64bits(1.5))
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpFAdd, Dst: vm.R2, A: vm.R0, B: vm.R1},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.Equal(t, 4.0, math.Float64frombits(v.Reg(vm.R2)))
}

func TestVM_FCmpSetsFlags(t *testing.T) {
	v := vm.NewVM(0)
	v.SetReg(vm.R0, math.Float64bits(1.0))
	v.SetReg(vm.R1, math.Float64bits(2.0))
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpFCmp, A: vm.R0, B: vm.R1},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.True(t, v.Flags.N)
}

func TestVM_BreakpointSetsLastBreakpointOnlyWhenAttached(t *testing.T) {
	v := vm.NewVM(0)
	v.DebuggerAttached = true
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpBreakpoint},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.True(t, v.LastBreakpoint)
}

func TestVM_TraceOnOffTogglesTrace(t *testing.T) {
	v := vm.NewVM(0)
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpTraceOn},
		vm.Instruction{Op: vm.OpNop},
		vm.Instruction{Op: vm.OpTraceOff},
		vm.Instruction{Op: vm.OpHalt},
	))
	require.True(t, errors.Is(err, vm.ErrHalted))
	assert.False(t, v.Trace)
}

func TestVM_InstructionBudgetExceededFails(t *testing.T) {
	v := vm.NewVM(0)
	v.MaxInstructions = 2
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpJump, Imm: 0}, // infinite loop
	))
	require.Error(t, err)
	var execErr *vm.ExecutionError
	require.ErrorAs(t, err, &execErr)
}

func TestVM_CallStackOverflowFails(t *testing.T) {
	v := vm.NewVM(0)
	v.MaxInstructions = 1_000_000
	err := v.Run(prog(
		vm.Instruction{Op: vm.OpCall, Imm: 0}, // calls itself forever
	))
	require.Error(t, err)
	var execErr *vm.ExecutionError
	require.ErrorAs(t, err, &execErr)
}

func TestVM_ResetClearsRegistersAndMemory(t *testing.T) {
	v := vm.NewVM(0)
	v.SetReg(vm.R0, 5)
	v.Reset()
	assert.Equal(t, uint64(0), v.Reg(vm.R0))
	assert.Equal(t, 0, v.PC)
	assert.False(t, v.Halted)
}

func TestVM_UnknownOpcodeAtRuntimeFails(t *testing.T) {
	v := vm.NewVM(0)
	err := v.Run(prog(vm.Instruction{Op: vm.Opcode(0xEE)}))
	require.Error(t, err)
	var execErr *vm.ExecutionError
	require.ErrorAs(t, err, &execErr)
}
