// Package loader serialises an assembled vm.Program to and from the ALYA
// binary container format written by Save: magic, version, code, data, and
// the PC-to-source-line table.
package loader

import (
	"encoding/binary"
	"fmt"

	"github.com/lookbusy1344/alya-vm/vm"
)

const (
	magic          = "ALYA"
	currentVersion = 1
)

// FormatError reports a malformed or unsupported binary container.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("alya binary: %s", e.Message)
}

// Save encodes program into the ALYA binary format.
func Save(program *vm.Program) []byte {
	var code []byte
	for _, inst := range program.Instructions {
		code = append(code, vm.Encode(inst)...)
	}

	buf := make([]byte, 0, len(magic)+2+8+len(code)+8+len(program.Data)+8+len(program.Lines)*8)
	buf = append(buf, magic...)
	buf = appendUint16(buf, currentVersion)
	buf = appendUint64(buf, uint64(len(code)))
	buf = append(buf, code...)
	buf = appendUint64(buf, uint64(len(program.Data)))
	buf = append(buf, program.Data...)
	buf = appendUint64(buf, uint64(len(program.Lines)))
	for _, line := range program.Lines {
		buf = appendUint64(buf, uint64(line))
	}
	return buf
}

// Load decodes an ALYA binary container into a Program. Symbols are not
// part of the on-disk format and come back empty; callers that need label
// names (the debugger, disassembler cross-references) resolve them from the
// source at assemble time instead.
func Load(data []byte) (*vm.Program, error) {
	if len(data) >= len(magic) && string(data[:len(magic)]) != magic {
		return nil, &FormatError{Message: "missing ALYA magic; legacy or foreign file rejected"}
	}
	if len(data) < len(magic)+2+8 {
		return nil, &FormatError{Message: "truncated header"}
	}
	pos := 4

	version := binary.LittleEndian.Uint16(data[pos : pos+2])
	pos += 2
	if version != currentVersion {
		return nil, &FormatError{Message: fmt.Sprintf("unsupported version %d", version)}
	}

	codeSize, err := readUint64(data, &pos)
	if err != nil {
		return nil, err
	}
	code, err := readBytes(data, &pos, codeSize)
	if err != nil {
		return nil, err
	}

	dataSize, err := readUint64(data, &pos)
	if err != nil {
		return nil, err
	}
	section, err := readBytes(data, &pos, dataSize)
	if err != nil {
		return nil, err
	}

	lineCount, err := readUint64(data, &pos)
	if err != nil {
		return nil, err
	}
	lines := make([]int, lineCount)
	for i := range lines {
		v, err := readUint64(data, &pos)
		if err != nil {
			return nil, err
		}
		lines[i] = int(v)
	}

	instructions, err := decodeCode(code)
	if err != nil {
		return nil, err
	}
	if len(instructions) != len(lines) {
		return nil, &FormatError{Message: fmt.Sprintf("instruction count %d does not match line table length %d", len(instructions), len(lines))}
	}

	return &vm.Program{
		Instructions: instructions,
		Data:         section,
		Lines:        lines,
	}, nil
}

func decodeCode(code []byte) ([]vm.Instruction, error) {
	var instructions []vm.Instruction
	for len(code) > 0 {
		inst, n, err := vm.Decode(code)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, inst)
		code = code[n:]
	}
	return instructions, nil
}

func appendUint16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func readUint64(data []byte, pos *int) (uint64, error) {
	if len(data)-*pos < 8 {
		return 0, &FormatError{Message: "truncated u64 field"}
	}
	v := binary.LittleEndian.Uint64(data[*pos : *pos+8])
	*pos += 8
	return v, nil
}

func readBytes(data []byte, pos *int, n uint64) ([]byte, error) {
	if uint64(len(data)-*pos) < n {
		return nil, &FormatError{Message: "truncated section"}
	}
	b := data[*pos : *pos+int(n)]
	*pos += int(n)
	return b, nil
}
