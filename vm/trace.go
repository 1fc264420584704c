package vm

import (
	"fmt"
	"io"
	"strings"
)

// TraceEntry is one line of execution trace, emitted while TraceOn is in
// effect: the instruction index, its disassembly, which registers changed,
// and the flags left behind.
type TraceEntry struct {
	Sequence uint64
	PC       int
	Text     string
	Changes  map[Register]uint64
	Flags    Flags
}

// Tracer watches a VM's register file across steps and records one
// TraceEntry per instruction while v.Trace is set, grounded in the
// teacher's ExecutionTrace/RegisterTrace/FlagTrace/StackTrace quartet,
// collapsed into a single facility since this VM's register file and flag
// set are both much smaller than ARM's.
type Tracer struct {
	vm       *VM
	Writer   io.Writer
	entries  []TraceEntry
	snapshot [NumRegisters]uint64
}

// NewTracer creates a Tracer bound to v. Writer defaults to nil (no
// streaming output); entries still accumulate and can be read with
// Entries.
func NewTracer(v *VM) *Tracer {
	return &Tracer{vm: v}
}

// Record compares the current register file to the last recorded snapshot,
// appends a TraceEntry describing what changed, and streams it to Writer if
// set.
func (t *Tracer) Record(pc int, inst Instruction) {
	changes := make(map[Register]uint64)
	for i := 0; i < NumRegisters; i++ {
		if t.vm.Regs[i] != t.snapshot[i] {
			changes[Register(i)] = t.vm.Regs[i]
			t.snapshot[i] = t.vm.Regs[i]
		}
	}
	entry := TraceEntry{
		Sequence: uint64(len(t.entries)),
		PC:       pc,
		Text:     inst.String(),
		Changes:  changes,
		Flags:    t.vm.Flags,
	}
	t.entries = append(t.entries, entry)
	if t.Writer != nil {
		fmt.Fprintln(t.Writer, entry.String())
	}
}

// Entries returns all recorded trace entries.
func (t *Tracer) Entries() []TraceEntry { return t.entries }

// Clear discards recorded entries and resets the change-detection snapshot.
func (t *Tracer) Clear() {
	t.entries = nil
	t.snapshot = [NumRegisters]uint64{}
}

func (e TraceEntry) String() string {
	var changes []string
	for r, v := range e.Changes {
		changes = append(changes, fmt.Sprintf("%s=0x%X", r, v))
	}
	flags := ""
	for _, b := range []bool{e.Flags.N, e.Flags.Z, e.Flags.C, e.Flags.V} {
		if b {
			flags += "1"
		} else {
			flags += "-"
		}
	}
	return fmt.Sprintf("[%06d] %04d: %-24s | %-32s | NZCV=%s", e.Sequence, e.PC, e.Text, strings.Join(changes, " "), flags)
}
