package vm

// Program is the immutable, assembled unit the VM executes: an ordered
// instruction sequence, a data-section byte blob loaded at address 0 before
// execution starts, and a line table mapping each instruction index back to
// its originating source line.
type Program struct {
	Name         string
	Instructions []Instruction
	Data         []byte
	Lines        []int // same length as Instructions

	// Symbols optionally maps label name -> instruction index, threaded
	// through from the code generator for debugger/tool consumption
	// (breakpoints by label, cross-reference). May be nil.
	Symbols map[string]int
}

// Len returns the number of instructions in the program.
func (p *Program) Len() int { return len(p.Instructions) }

// LineFor returns the source line for instruction index idx, or 0 if idx is
// out of range.
func (p *Program) LineFor(idx int) int {
	if idx < 0 || idx >= len(p.Lines) {
		return 0
	}
	return p.Lines[idx]
}
