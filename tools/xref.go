package tools

import (
	"sort"

	"github.com/lookbusy1344/alya-vm/vm"
)

// branchOpcodes is every opcode whose Imm operand is an instruction-index
// target rather than a literal value.
var branchOpcodes = map[vm.Opcode]bool{
	vm.OpJump: true, vm.OpCall: true,
	vm.OpJumpIfZero: true, vm.OpJumpIfNotZero: true,
	vm.OpJumpIfGt: true, vm.OpJumpIfLt: true, vm.OpJumpIfGe: true, vm.OpJumpIfLe: true,
	vm.OpJumpIfEq: true, vm.OpJumpIfNe: true,
	vm.OpJumpIfAbove: true, vm.OpJumpIfBelow: true, vm.OpJumpIfAe: true, vm.OpJumpIfBe: true,
}

// CrossReference maps each label name to the sorted instruction indices of
// every jump or call instruction that targets it. Labels with no symbol
// table entry in program (e.g. when loaded from a binary with Symbols
// stripped) are simply absent from the result.
func CrossReference(program *vm.Program) map[string][]int {
	pcToName := make(map[int]string, len(program.Symbols))
	for name, pc := range program.Symbols {
		pcToName[pc] = name
	}

	refs := make(map[string][]int)
	for idx, inst := range program.Instructions {
		if !branchOpcodes[inst.Op] {
			continue
		}
		name, ok := pcToName[inst.Target()]
		if !ok {
			continue
		}
		refs[name] = append(refs[name], idx)
	}
	for name := range refs {
		sort.Ints(refs[name])
	}
	return refs
}
