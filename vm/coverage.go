package vm

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// CoverageEntry is the execution info recorded for one instruction index.
type CoverageEntry struct {
	PC             int
	ExecutionCount uint64
	FirstExecution uint64 // instruction budget value at first execution
	LastExecution  uint64
}

// CodeCoverage tracks which instruction indices of a Program have been
// executed, grounded on the teacher's address-keyed coverage map but keyed
// on instruction index since this VM has no separate code addresses.
type CodeCoverage struct {
	Enabled bool
	Writer  io.Writer

	executed map[int]*CoverageEntry
	total    int // program.Len(), 0 if unset

	symbols         map[string]int
	addressToSymbol map[int]string
}

// NewCodeCoverage creates a coverage tracker. total is the program's
// instruction count (0 if unknown, in which case percentages are omitted).
func NewCodeCoverage(writer io.Writer, total int) *CodeCoverage {
	return &CodeCoverage{
		Enabled:         true,
		Writer:          writer,
		executed:        make(map[int]*CoverageEntry),
		total:           total,
		symbols:         make(map[string]int),
		addressToSymbol: make(map[int]string),
	}
}

// LoadSymbols loads a program's label table for annotated reports.
func (c *CodeCoverage) LoadSymbols(symbols map[string]int) {
	c.symbols = symbols
	for name, pc := range symbols {
		c.addressToSymbol[pc] = name
	}
}

// Record marks instruction index pc as executed at the given budget/cycle
// value; called once per Step from the VM when Coverage is set.
func (c *CodeCoverage) Record(pc int, cycle uint64) {
	if !c.Enabled {
		return
	}
	if entry, exists := c.executed[pc]; exists {
		entry.ExecutionCount++
		entry.LastExecution = cycle
	} else {
		c.executed[pc] = &CoverageEntry{
			PC:             pc,
			ExecutionCount: 1,
			FirstExecution: cycle,
			LastExecution:  cycle,
		}
	}
}

// Percent returns the fraction of instructions executed, 0 if total is unset.
func (c *CodeCoverage) Percent() float64 {
	if c.total == 0 {
		return 0.0
	}
	return float64(len(c.executed)) / float64(c.total) * 100.0
}

// ExecutedPCs returns all executed instruction indices, sorted.
func (c *CodeCoverage) ExecutedPCs() []int {
	pcs := make([]int, 0, len(c.executed))
	for pc := range c.executed {
		pcs = append(pcs, pc)
	}
	sort.Ints(pcs)
	return pcs
}

// UnexecutedPCs returns instruction indices in [0,total) never executed.
func (c *CodeCoverage) UnexecutedPCs() []int {
	if c.total == 0 {
		return nil
	}
	unexecuted := make([]int, 0)
	for pc := 0; pc < c.total; pc++ {
		if _, exists := c.executed[pc]; !exists {
			unexecuted = append(unexecuted, pc)
		}
	}
	return unexecuted
}

// Entry returns the coverage entry for an instruction index, or nil.
func (c *CodeCoverage) Entry(pc int) *CoverageEntry {
	return c.executed[pc]
}

// Flush writes a human-readable coverage report to Writer.
func (c *CodeCoverage) Flush() error {
	if c.Writer == nil {
		return nil
	}

	header := "Code Coverage Report\n"
	header += "====================\n\n"

	if c.total != 0 {
		header += fmt.Sprintf("Total Instructions:   %d\n", c.total)
		header += fmt.Sprintf("Executed:             %d\n", len(c.executed))
		header += fmt.Sprintf("Not Executed:         %d\n", c.total-len(c.executed))
		header += fmt.Sprintf("Coverage:             %.2f%%\n\n", c.Percent())
	} else {
		header += fmt.Sprintf("Total Executed:       %d unique instructions\n\n", len(c.executed))
	}

	if _, err := io.WriteString(c.Writer, header); err != nil {
		return err
	}
	if _, err := io.WriteString(c.Writer, "Executed:\n---------\n"); err != nil {
		return err
	}
	for _, pc := range c.ExecutedPCs() {
		entry := c.executed[pc]
		line := fmt.Sprintf("%04d: executed %6d times (first: cycle %6d, last: cycle %6d)",
			pc, entry.ExecutionCount, entry.FirstExecution, entry.LastExecution)
		if symbol, exists := c.addressToSymbol[pc]; exists {
			line += fmt.Sprintf(" [%s]", symbol)
		}
		if _, err := io.WriteString(c.Writer, line+"\n"); err != nil {
			return err
		}
	}

	unexecuted := c.UnexecutedPCs()
	if len(unexecuted) > 0 {
		if _, err := io.WriteString(c.Writer, "\nNot Executed:\n-------------\n"); err != nil {
			return err
		}
		for _, pc := range unexecuted {
			line := fmt.Sprintf("%04d", pc)
			if symbol, exists := c.addressToSymbol[pc]; exists {
				line += fmt.Sprintf(" [%s]", symbol)
			}
			if _, err := io.WriteString(c.Writer, line+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExportJSON exports coverage data as JSON.
func (c *CodeCoverage) ExportJSON(w io.Writer) error {
	data := map[string]interface{}{
		"total":             c.total,
		"coverage_percent":  c.Percent(),
		"executed_count":    len(c.executed),
		"unexecuted_count":  len(c.UnexecutedPCs()),
		"executed":          c.executed,
		"unexecuted_pcs":    c.UnexecutedPCs(),
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// String returns a short summary.
func (c *CodeCoverage) String() string {
	var sb strings.Builder
	sb.WriteString("Code Coverage Summary\n=====================\n\n")
	if c.total != 0 {
		sb.WriteString(fmt.Sprintf("Total Instructions: %d\n", c.total))
		sb.WriteString(fmt.Sprintf("Executed:           %d\n", len(c.executed)))
		sb.WriteString(fmt.Sprintf("Not Executed:       %d\n", c.total-len(c.executed)))
		sb.WriteString(fmt.Sprintf("Coverage:           %.2f%%\n", c.Percent()))
	} else {
		sb.WriteString(fmt.Sprintf("Executed:           %d unique instructions\n", len(c.executed)))
	}
	return sb.String()
}
