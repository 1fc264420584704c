package vm

import "encoding/binary"

// Encode serialises an instruction as one opcode byte followed by its
// operands in declaration order: registers as one byte each, immediates and
// branch targets as 8-byte little-endian. decode(encode(i)) == (i,
// len(encode(i))) for every defined instruction, by construction from the
// shared shape table in instruction.go.
func Encode(i Instruction) []byte {
	buf := []byte{i.Op.ToByte()}
	switch opcodeShapes[i.Op] {
	case shapeNone:
		// no operands
	case shapeDstImm:
		buf = append(buf, i.Dst.ToByte())
		buf = appendImm(buf, i.Imm)
	case shapeDstSrc:
		buf = append(buf, i.Dst.ToByte(), i.A.ToByte())
	case shapePair:
		buf = append(buf, i.A.ToByte(), i.B.ToByte())
	case shapeDstAB:
		buf = append(buf, i.Dst.ToByte(), i.A.ToByte(), i.B.ToByte())
	case shapeAB:
		buf = append(buf, i.A.ToByte(), i.B.ToByte())
	case shapeSrc:
		buf = append(buf, i.A.ToByte())
	case shapeDst:
		buf = append(buf, i.Dst.ToByte())
	case shapeImm:
		buf = appendImm(buf, i.Imm)
	}
	return buf
}

func appendImm(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

// Decode consumes bytes from the front of data and returns the decoded
// instruction together with the number of bytes consumed. It fails with an
// *ExecutionError wrapping "unexpected end of bytecode" on truncated input,
// or an *OpcodeError for an unknown opcode byte.
func Decode(data []byte) (Instruction, int, error) {
	if len(data) < 1 {
		return Instruction{}, 0, &ExecutionError{Message: "unexpected end of bytecode"}
	}
	op, err := OpcodeFromByte(data[0])
	if err != nil {
		return Instruction{}, 0, err
	}
	pos := 1
	inst := Instruction{Op: op}

	need := func(n int) error {
		if len(data)-pos < n {
			return &ExecutionError{Message: "unexpected end of bytecode"}
		}
		return nil
	}
	readReg := func() (Register, error) {
		if err := need(1); err != nil {
			return 0, err
		}
		r, err := RegisterFromByte(data[pos])
		if err != nil {
			return 0, err
		}
		pos++
		return r, nil
	}
	readImm := func() (uint64, error) {
		if err := need(8); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint64(data[pos : pos+8])
		pos += 8
		return v, nil
	}

	switch opcodeShapes[op] {
	case shapeNone:
	case shapeDstImm:
		if inst.Dst, err = readReg(); err != nil {
			return Instruction{}, 0, err
		}
		if inst.Imm, err = readImm(); err != nil {
			return Instruction{}, 0, err
		}
	case shapeDstSrc:
		if inst.Dst, err = readReg(); err != nil {
			return Instruction{}, 0, err
		}
		if inst.A, err = readReg(); err != nil {
			return Instruction{}, 0, err
		}
	case shapePair:
		if inst.A, err = readReg(); err != nil {
			return Instruction{}, 0, err
		}
		if inst.B, err = readReg(); err != nil {
			return Instruction{}, 0, err
		}
	case shapeDstAB:
		if inst.Dst, err = readReg(); err != nil {
			return Instruction{}, 0, err
		}
		if inst.A, err = readReg(); err != nil {
			return Instruction{}, 0, err
		}
		if inst.B, err = readReg(); err != nil {
			return Instruction{}, 0, err
		}
	case shapeAB:
		if inst.A, err = readReg(); err != nil {
			return Instruction{}, 0, err
		}
		if inst.B, err = readReg(); err != nil {
			return Instruction{}, 0, err
		}
	case shapeSrc:
		if inst.A, err = readReg(); err != nil {
			return Instruction{}, 0, err
		}
	case shapeDst:
		if inst.Dst, err = readReg(); err != nil {
			return Instruction{}, 0, err
		}
	case shapeImm:
		if inst.Imm, err = readImm(); err != nil {
			return Instruction{}, 0, err
		}
	}
	return inst, pos, nil
}
