package tools

import (
	"fmt"
	"sort"

	"github.com/lookbusy1344/alya-vm/parser"
)

const reservedScratchName = "__tmp"

// Lint runs static, advisory-only checks over a parsed program: labels that
// are defined but never jumped or called to, and any use of the reserved
// scratch register name that the code generator uses internally to
// materialize immediates and string addresses. Findings never block
// assembly; callers decide whether to surface them.
func Lint(stmts []parser.Statement) []string {
	defined := map[string]int{}
	referenced := map[string]bool{}
	var findings []string

	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case parser.LabelStmt:
			if _, exists := defined[s.Name]; !exists {
				defined[s.Name] = s.Line
			}
		case parser.GotoStmt:
			referenced[s.Label] = true
		case parser.IfGotoStmt:
			referenced[s.Label] = true
		case parser.CallStmt:
			referenced[s.Label] = true
		}
		checkScratchClobber(stmt, &findings)
	}

	var unused []string
	for name := range defined {
		if !referenced[name] {
			unused = append(unused, name)
		}
	}
	sort.Strings(unused)
	for _, name := range unused {
		findings = append(findings, fmt.Sprintf("line %d: label %q is never referenced", defined[name], name))
	}

	sort.Strings(findings)
	return findings
}

func checkScratchClobber(stmt parser.Statement, findings *[]string) {
	line := stmt.SourceLine()
	warn := func(name string) {
		if name == reservedScratchName {
			*findings = append(*findings, fmt.Sprintf("line %d: %q is reserved for the code generator's scratch register and should not be assigned directly", line, reservedScratchName))
		}
	}

	switch s := stmt.(type) {
	case parser.AssignStmt:
		warn(s.Dst)
	case parser.CompoundAssignStmt:
		warn(s.Dst)
	case parser.SwapStmt:
		warn(s.A)
		warn(s.B)
	case parser.IndexedLoadStmt:
		warn(s.Dst)
	case parser.LoadStmt:
		warn(s.Dst)
	case parser.AllocStmt:
		warn(s.Dst)
	}
}
