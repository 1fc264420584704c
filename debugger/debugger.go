package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lookbusy1344/alya-vm/vm"
)

// Debugger wraps a VM and program with breakpoint, watchpoint, and
// step/next/continue control flow, plus a line-oriented command interface.
type Debugger struct {
	VM      *vm.VM
	Program *vm.Program

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory

	Running bool

	// Symbols maps label names to instruction indices, for address resolution.
	Symbols map[string]int

	// SourceMap maps instruction indices to a line of source text, for display.
	SourceMap map[int]string

	LastCommand string

	Output strings.Builder
}

// NewDebugger creates a debugger attached to machine running program. The
// program's data segment is loaded into memory immediately so the first
// Step/Next/Continue call runs against initialized state.
func NewDebugger(machine *vm.VM, program *vm.Program) *Debugger {
	machine.DebuggerAttached = true
	d := &Debugger{
		VM:          machine,
		Program:     program,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistory(),
		Symbols:     program.Symbols,
		SourceMap:   make(map[int]string),
	}
	if d.Symbols == nil {
		d.Symbols = make(map[string]int)
	}
	d.resetAndLoad()
	return d
}

// resetAndLoad resets the VM and reloads the program's data segment, since
// Reset zeroes the whole memory buffer.
func (d *Debugger) resetAndLoad() {
	d.VM.Reset()
	_ = d.VM.Memory.LoadProgram(d.Program.Data)
}

// LoadSymbols loads the label table used by address resolution.
func (d *Debugger) LoadSymbols(symbols map[string]int) {
	d.Symbols = symbols
}

// LoadSourceMap loads the instruction-index to source-line-text mapping.
func (d *Debugger) LoadSourceMap(sourceMap map[int]string) {
	d.SourceMap = sourceMap
}

// ResolveAddress resolves a label to an instruction index, or parses a
// decimal or 0x-prefixed hex index directly.
func (d *Debugger) ResolveAddress(addrStr string) (int, error) {
	if addr, exists := d.Symbols[addrStr]; exists {
		return addr, nil
	}

	if strings.HasPrefix(addrStr, "0x") || strings.HasPrefix(addrStr, "0X") {
		addr, err := strconv.ParseInt(addrStr[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid address: %s", addrStr)
		}
		return int(addr), nil
	}

	addr, err := strconv.ParseInt(addrStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address: %s", addrStr)
	}
	return int(addr), nil
}

// ExecuteCommand parses and runs a single debugger command line.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)

	if cmdLine == "" {
		cmdLine = d.LastCommand
	}

	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	return d.handleCommand(cmd, args)
}

// handleCommand dispatches a parsed command to its handler.
func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "run", "r":
		return d.cmdRun(args)
	case "continue", "c":
		return d.cmdContinue(args)
	case "step", "s", "si":
		return d.cmdStep(args)
	case "next", "n":
		return d.cmdNext(args)

	case "break", "b":
		return d.cmdBreak(args)
	case "tbreak", "tb":
		return d.cmdTBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)

	case "watch", "w":
		return d.cmdWatch(args)

	case "print", "p":
		return d.cmdPrint(args)
	case "info", "i":
		return d.cmdInfo(args)
	case "backtrace", "bt", "where":
		return d.cmdBacktrace(args)
	case "list", "l":
		return d.cmdList(args)

	case "reset":
		return d.cmdReset(args)

	case "help", "h", "?":
		return d.cmdHelp(args)

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// Step executes a single instruction and reports whether the debugger
// should report a stop (halt, breakpoint, or watchpoint) along
// with a human-readable reason.
func (d *Debugger) Step() (bool, string, error) {
	if d.VM.Halted {
		return false, "", fmt.Errorf("program is not running")
	}

	if err := d.VM.Step(d.Program); err != nil {
		return false, "", err
	}

	return d.checkStop()
}

// Next steps the VM until the source line at PC differs from the line
// recorded when Next was first invoked for this sequence, the VM halts, or
// PC runs past the end of the program.
func (d *Debugger) Next() (bool, string, error) {
	if d.VM.Halted {
		return false, "", fmt.Errorf("program is not running")
	}

	startLine := d.Program.LineFor(d.VM.PC)
	for d.VM.PC < d.Program.Len() && !d.VM.Halted {
		if err := d.VM.Step(d.Program); err != nil {
			return false, "", err
		}
		if d.VM.Halted || d.VM.PC >= d.Program.Len() {
			break
		}
		if d.Program.LineFor(d.VM.PC) != startLine {
			break
		}
		if stop, reason, _ := d.checkBreakAndWatch(); stop {
			return true, reason, nil
		}
	}

	return d.checkStop()
}

// Continue steps the VM until it halts or PC lands on an enabled breakpoint.
func (d *Debugger) Continue() (bool, string, error) {
	if d.VM.Halted {
		return false, "", fmt.Errorf("program is not running")
	}

	for !d.VM.Halted {
		if err := d.VM.Step(d.Program); err != nil {
			return false, "", err
		}
		if d.VM.Halted {
			break
		}
		if stop, reason, _ := d.checkBreakAndWatch(); stop {
			return true, reason, nil
		}
	}

	return false, "halted", nil
}

// checkStop reports whether execution halted.
func (d *Debugger) checkStop() (bool, string, error) {
	if d.VM.Halted {
		return true, "halted", nil
	}
	if stop, reason, err := d.checkBreakAndWatch(); stop || err != nil {
		return stop, reason, err
	}
	return false, "", nil
}

// checkBreakAndWatch checks whether the current PC sits on an enabled
// breakpoint, or whether any watchpoint has changed value.
func (d *Debugger) checkBreakAndWatch() (bool, string, error) {
	if bp := d.Breakpoints.GetBreakpoint(d.VM.PC); bp != nil && bp.Enabled {
		hit := d.Breakpoints.ProcessHit(d.VM.PC)
		return true, fmt.Sprintf("breakpoint %d", hit.ID), nil
	}

	if wp, changed := d.Watchpoints.CheckWatchpoints(d.VM); wp != nil && changed {
		return true, fmt.Sprintf("watchpoint %d: %s", wp.ID, wp.Expression), nil
	}

	return false, "", nil
}

// GetOutput returns and clears the accumulated output buffer.
func (d *Debugger) GetOutput() string {
	output := d.Output.String()
	d.Output.Reset()
	return output
}

// Printf writes formatted output to the output buffer.
func (d *Debugger) Printf(format string, args ...interface{}) {
	d.Output.WriteString(fmt.Sprintf(format, args...))
}

// Println writes a line to the output buffer.
func (d *Debugger) Println(args ...interface{}) {
	d.Output.WriteString(fmt.Sprintln(args...))
}
