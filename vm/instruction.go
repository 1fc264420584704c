package vm

import "fmt"

// operandShape describes how an opcode's operands are laid out, both in the
// in-memory Instruction struct and in the encoded byte stream. This is the
// flat (opcode, operand_bytes) realisation the design notes call out as
// equivalent to a per-variant tagged union: one shared struct, dispatch and
// codec both driven from this table.
type operandShape int

const (
	shapeNone     operandShape = iota // no operands
	shapeDstImm                       // Dst, Imm (8-byte LE)
	shapeDstSrc                       // Dst, A
	shapePair                         // A, B (symmetric, e.g. Swap)
	shapeDstAB                        // Dst, A, B
	shapeAB                           // A, B (no destination register)
	shapeSrc                          // A only
	shapeDst                          // Dst only
	shapeImm                          // Imm only (8-byte LE; jump/call target or literal)
)

var opcodeShapes = map[Opcode]operandShape{
	OpHalt: shapeNone, OpNop: shapeNone, OpReturn: shapeNone, OpSyscall: shapeNone,
	OpBreakpoint: shapeNone, OpTraceOn: shapeNone, OpTraceOff: shapeNone,

	OpLoadImm: shapeDstImm,

	OpMove: shapeDstSrc, OpNot: shapeDstSrc,
	OpAddAssign: shapeDstSrc, OpSubAssign: shapeDstSrc, OpMulAssign: shapeDstSrc, OpDivAssign: shapeDstSrc,
	OpLoad: shapeDstSrc, OpAlloc: shapeDstSrc,
	OpFSqrt: shapeDstSrc, OpFAbs: shapeDstSrc, OpFNeg: shapeDstSrc, OpF2I: shapeDstSrc, OpI2F: shapeDstSrc,
	OpPopCnt: shapeDstSrc, OpClz: shapeDstSrc, OpCtz: shapeDstSrc, OpBSwap: shapeDstSrc,

	OpSwap: shapePair,

	OpAdd: shapeDstAB, OpSub: shapeDstAB, OpMul: shapeDstAB, OpDiv: shapeDstAB, OpMod: shapeDstAB,
	OpAnd: shapeDstAB, OpOr: shapeDstAB, OpXor: shapeDstAB, OpShl: shapeDstAB, OpShr: shapeDstAB,
	OpRotL: shapeDstAB, OpRotR: shapeDstAB,
	OpFAdd: shapeDstAB, OpFSub: shapeDstAB, OpFMul: shapeDstAB, OpFDiv: shapeDstAB,
	OpLoadIndexed: shapeDstAB, OpStoreIndexed: shapeDstAB, OpMemCopy: shapeDstAB, OpMemSet: shapeDstAB,

	OpCompare: shapeAB, OpFCmp: shapeAB, OpStore: shapeAB,

	OpPush: shapeSrc, OpFree: shapeSrc,

	OpPop: shapeDst, OpPeek: shapeDst,

	OpJump: shapeImm, OpCall: shapeImm,
	OpJumpIfZero: shapeImm, OpJumpIfNotZero: shapeImm,
	OpJumpIfGt: shapeImm, OpJumpIfLt: shapeImm, OpJumpIfGe: shapeImm, OpJumpIfLe: shapeImm,
	OpJumpIfEq: shapeImm, OpJumpIfNe: shapeImm,
	OpJumpIfAbove: shapeImm, OpJumpIfBelow: shapeImm, OpJumpIfAe: shapeImm, OpJumpIfBe: shapeImm,
}

// Instruction is a single decoded bytecode instruction. Not every field is
// meaningful for every Op; operandShape (see opcodeShapes) says which of
// Dst/A/B/Imm the opcode actually uses, and in what order they were
// encoded. There are no per-variant accessor methods: the handlers in
// handlers_*.go read Dst/A/B/Imm directly (e.g. Alloc's size is in A,
// LoadIndexed's base and index are in A and B).
type Instruction struct {
	Op  Opcode
	Dst Register
	A   Register
	B   Register
	Imm uint64
}

// Target returns Imm reinterpreted as an instruction index, for the jump
// and call family.
func (i Instruction) Target() int { return int(i.Imm) }

func (i Instruction) String() string {
	shape := opcodeShapes[i.Op]
	switch shape {
	case shapeNone:
		return i.Op.String()
	case shapeDstImm:
		return fmt.Sprintf("%s %s, 0x%X", i.Op, i.Dst, i.Imm)
	case shapeDstSrc:
		return fmt.Sprintf("%s %s, %s", i.Op, i.Dst, i.A)
	case shapePair:
		return fmt.Sprintf("%s %s, %s", i.Op, i.A, i.B)
	case shapeDstAB:
		return fmt.Sprintf("%s %s, %s, %s", i.Op, i.Dst, i.A, i.B)
	case shapeAB:
		return fmt.Sprintf("%s %s, %s", i.Op, i.A, i.B)
	case shapeSrc:
		return fmt.Sprintf("%s %s", i.Op, i.A)
	case shapeDst:
		return fmt.Sprintf("%s %s", i.Op, i.Dst)
	case shapeImm:
		return fmt.Sprintf("%s %d", i.Op, i.Imm)
	default:
		return i.Op.String()
	}
}
