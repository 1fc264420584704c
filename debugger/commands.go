package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lookbusy1344/alya-vm/vm"
)

// Command handler implementations.

// cmdRun resets the VM and starts execution from the beginning.
func (d *Debugger) cmdRun(args []string) error {
	d.resetAndLoad()
	d.Running = true

	d.Println("Starting program execution...")
	return nil
}

// cmdContinue resumes execution until a breakpoint, watchpoint, or halt.
func (d *Debugger) cmdContinue(args []string) error {
	stop, reason, err := d.Continue()
	if err != nil {
		return err
	}
	if stop {
		d.Printf("Stopped: %s\n", reason)
	} else {
		d.Println("Program halted")
	}
	return nil
}

// cmdStep executes a single instruction.
func (d *Debugger) cmdStep(args []string) error {
	stop, reason, err := d.Step()
	if err != nil {
		return err
	}
	if stop {
		d.Printf("Stopped: %s\n", reason)
	}
	return nil
}

// cmdNext steps until the source line changes; a call stops at the first
// instruction of the callee when that lies on a different line.
func (d *Debugger) cmdNext(args []string) error {
	stop, reason, err := d.Next()
	if err != nil {
		return err
	}
	if stop {
		d.Printf("Stopped: %s\n", reason)
	}
	return nil
}

// cmdBreak sets a breakpoint.
func (d *Debugger) cmdBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <address|label>")
	}

	address, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}

	bp := d.Breakpoints.AddBreakpoint(address, false)
	d.Printf("Breakpoint %d at %d\n", bp.ID, address)

	return nil
}

// cmdTBreak sets a temporary breakpoint (auto-delete after hit).
func (d *Debugger) cmdTBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tbreak <address|label>")
	}

	address, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}

	bp := d.Breakpoints.AddBreakpoint(address, true)
	d.Printf("Temporary breakpoint %d at %d\n", bp.ID, address)

	return nil
}

// cmdDelete deletes breakpoint(s).
func (d *Debugger) cmdDelete(args []string) error {
	if len(args) == 0 {
		d.Breakpoints.Clear()
		d.Println("All breakpoints deleted")
		return nil
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.DeleteBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d deleted\n", id)
	return nil
}

// cmdEnable enables a breakpoint.
func (d *Debugger) cmdEnable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: enable <breakpoint-id>")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.EnableBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d enabled\n", id)
	return nil
}

// cmdDisable disables a breakpoint.
func (d *Debugger) cmdDisable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: disable <breakpoint-id>")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.DisableBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d disabled\n", id)
	return nil
}

// cmdWatch sets a watchpoint on a register or memory qword.
func (d *Debugger) cmdWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: watch <register|[address]>")
	}

	expression := strings.Join(args, " ")

	isRegister, register, address, err := d.parseWatchExpression(expression)
	if err != nil {
		return err
	}

	wp := d.Watchpoints.AddWatchpoint(WatchReadWrite, expression, address, isRegister, register)

	if err := d.Watchpoints.InitializeWatchpoint(wp.ID, d.VM); err != nil {
		_ = d.Watchpoints.DeleteWatchpoint(wp.ID)
		return err
	}

	d.Printf("Watchpoint %d: %s\n", wp.ID, expression)
	return nil
}

// parseWatchExpression parses a watch expression naming either a register
// mnemonic (r0, sp, fl, ...) or a bracketed memory address ([0x1000]).
func (d *Debugger) parseWatchExpression(expr string) (isRegister bool, register vm.Register, address uint64, err error) {
	expr = strings.ToLower(strings.TrimSpace(expr))

	if reg, ok := registerByName(expr); ok {
		return true, reg, 0, nil
	}

	if strings.HasPrefix(expr, "[") && strings.HasSuffix(expr, "]") {
		addrStr := strings.TrimSuffix(strings.TrimPrefix(expr, "["), "]")
		addr, err := d.ResolveAddress(addrStr)
		if err != nil {
			return false, 0, 0, err
		}
		addrWord, err := vm.SafeIntToUint64(addr)
		if err != nil {
			return false, 0, 0, fmt.Errorf("invalid watch expression: %s: %w", expr, err)
		}
		return false, 0, addrWord, nil
	}

	return false, 0, 0, fmt.Errorf("invalid watch expression: %s", expr)
}

// registerByName resolves a register mnemonic to its Register value.
func registerByName(name string) (vm.Register, bool) {
	for r := vm.R0; r <= vm.FL; r++ {
		if r.String() == name {
			return r, true
		}
	}
	return 0, false
}

// cmdPrint displays the value of a register or a resolved numeric/label address.
func (d *Debugger) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <register|address|label>")
	}

	name := strings.ToLower(args[0])
	if reg, ok := registerByName(name); ok {
		value := d.VM.Reg(reg)
		d.Printf("%s = 0x%016X (%d)\n", name, value, value)
		return nil
	}

	address, err := d.ResolveAddress(args[0])
	if err != nil {
		return err
	}
	d.Printf("%s = %d\n", args[0], address)
	return nil
}

// cmdInfo displays information about program state.
func (d *Debugger) cmdInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: info <registers|breakpoints|watchpoints|stack>")
	}

	switch strings.ToLower(args[0]) {
	case "registers", "reg", "r":
		return d.showRegisters()
	case "breakpoints", "break", "b":
		return d.showBreakpoints()
	case "watchpoints", "watch", "w":
		return d.showWatchpoints()
	case "stack", "s":
		return d.showStack()
	default:
		return fmt.Errorf("unknown info command: %s", args[0])
	}
}

// showRegisters displays all register values and the flags word.
func (d *Debugger) showRegisters() error {
	d.Println("Registers:")
	for r := vm.R0; r <= vm.FL; r++ {
		value := d.VM.Reg(r)
		d.Printf("  %-3s = 0x%016X (%d)\n", r.String(), value, value)
	}
	d.Printf("  pc  = %d\n", d.VM.PC)
	d.Printf("  flags = [%s]\n", flagsString(d.VM.Flags))

	return nil
}

func flagsString(f vm.Flags) string {
	render := func(set bool, letter string) string {
		if set {
			return letter
		}
		return "-"
	}
	return render(f.N, "N") + render(f.Z, "Z") + render(f.C, "C") + render(f.V, "V")
}

// showBreakpoints displays all breakpoints.
func (d *Debugger) showBreakpoints() error {
	breakpoints := d.Breakpoints.GetAllBreakpoints()
	if len(breakpoints) == 0 {
		d.Println("No breakpoints")
		return nil
	}

	d.Println("Breakpoints:")
	for _, bp := range breakpoints {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}

		temp := ""
		if bp.Temporary {
			temp = " (temporary)"
		}

		d.Printf("  %d: %d %s%s (hit %d times)\n", bp.ID, bp.Address, status, temp, bp.HitCount)
	}

	return nil
}

// showWatchpoints displays all watchpoints.
func (d *Debugger) showWatchpoints() error {
	watchpoints := d.Watchpoints.GetAllWatchpoints()
	if len(watchpoints) == 0 {
		d.Println("No watchpoints")
		return nil
	}

	d.Println("Watchpoints:")
	for _, wp := range watchpoints {
		status := "enabled"
		if !wp.Enabled {
			status = "disabled"
		}

		d.Printf("  %d: %s %s (hit %d times, last value: 0x%016X)\n",
			wp.ID, wp.Expression, status, wp.HitCount, wp.LastValue)
	}

	return nil
}

// showStack displays the qwords nearest the current stack pointer.
func (d *Debugger) showStack() error {
	sp := d.VM.Reg(vm.SP)
	d.Printf("Stack (sp = 0x%016X):\n", sp)

	for i := 0; i < StackDisplayWords; i++ {
		addr := sp + uint64(i*8)
		value, err := d.VM.Memory.ReadQword(addr)
		if err != nil {
			break
		}
		d.Printf("  0x%016X: 0x%016X (%d)\n", addr, value, value)
	}

	return nil
}

// cmdBacktrace shows the call stack.
func (d *Debugger) cmdBacktrace(args []string) error {
	d.Println("Call stack:")
	d.Printf("  #0  pc=%d\n", d.VM.PC)

	for i := len(d.VM.CallStack) - 1; i >= 0; i-- {
		d.Printf("  #%d  return=%d\n", len(d.VM.CallStack)-i, d.VM.CallStack[i])
	}

	return nil
}

// cmdList shows source lines around the current PC.
func (d *Debugger) cmdList(args []string) error {
	pc := d.VM.PC

	if source, exists := d.SourceMap[pc]; exists {
		d.Printf("=> %d: %s\n", pc, source)
	} else {
		d.Printf("=> %d: <no source>\n", pc)
	}

	for offset := 1; offset <= CodeContextLinesAfterCompact; offset++ {
		addr := pc + offset
		if source, exists := d.SourceMap[addr]; exists {
			d.Printf("   %d: %s\n", addr, source)
		}
	}

	return nil
}

// cmdReset resets the VM to its initial state.
func (d *Debugger) cmdReset(args []string) error {
	d.resetAndLoad()
	d.Println("VM reset")
	return nil
}

// cmdHelp displays help information.
func (d *Debugger) cmdHelp(args []string) error {
	if len(args) > 0 {
		return d.showCommandHelp(args[0])
	}

	d.Println("Debugger commands:")
	d.Println()
	d.Println("Execution control:")
	d.Println("  run (r)           - Reset and start program execution")
	d.Println("  continue (c)      - Continue execution")
	d.Println("  step (s, si)      - Execute a single instruction")
	d.Println("  next (n)          - Step to the next source line")
	d.Println()
	d.Println("Breakpoints:")
	d.Println("  break (b) <addr>  - Set breakpoint")
	d.Println("  tbreak (tb) <addr>- Set temporary breakpoint")
	d.Println("  delete (d) [id]   - Delete breakpoint(s)")
	d.Println("  enable <id>       - Enable breakpoint")
	d.Println("  disable <id>      - Disable breakpoint")
	d.Println()
	d.Println("Watchpoints:")
	d.Println("  watch (w) <expr>  - Watch a register or memory qword for changes")
	d.Println()
	d.Println("Inspection:")
	d.Println("  print (p) <expr>  - Show a register or resolved address")
	d.Println("  info (i) <what>   - Show registers, breakpoints, watchpoints, or stack")
	d.Println("  backtrace (bt)    - Show call stack")
	d.Println("  list (l)          - List source code")
	d.Println()
	d.Println("Control:")
	d.Println("  reset             - Reset VM")
	d.Println("  help (h, ?)       - Show this help")
	d.Println()
	d.Println("Type 'help <command>' for detailed help on a specific command.")

	return nil
}

// showCommandHelp shows detailed help for a specific command.
func (d *Debugger) showCommandHelp(cmd string) error {
	helpText := map[string]string{
		"break": "break <address|label>\n  Set a breakpoint at the specified instruction index or label.",
		"step":  "step\n  Execute a single instruction.",
		"next":  "next\n  Step until the source line changes (entering a call on another line also stops).",
		"print": "print <register|address|label>\n  Show a register's value or a resolved address.",
		"watch": "watch <register|[address]>\n  Break when a register or memory qword changes value.",
		"info":  "info <registers|breakpoints|watchpoints|stack>\n  Display information about program state.",
	}

	if help, exists := helpText[cmd]; exists {
		d.Println(help)
		return nil
	}

	return fmt.Errorf("no help available for command: %s", cmd)
}
