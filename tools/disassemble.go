// Package tools holds the static-analysis and presentation helpers built on
// top of the assembled vm.Program and parser.Statement forms: disassembly,
// cross-referencing, and linting.
package tools

import (
	"fmt"

	"github.com/lookbusy1344/alya-vm/vm"
)

// Disassemble renders every instruction in program as one text line, each
// prefixed with its instruction index and, when the program carries a
// symbol table, annotated with the label at that address.
func Disassemble(program *vm.Program) []string {
	resolver := vm.NewSymbolResolver(program.Symbols)
	lines := make([]string, 0, program.Len())
	for pc, inst := range program.Instructions {
		prefix := fmt.Sprintf("%04d", pc)
		if name := resolver.LookupPC(pc); name != "" {
			prefix = fmt.Sprintf("%s [%s]", prefix, name)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", prefix, inst.String()))
	}
	return lines
}
