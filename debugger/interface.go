package debugger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// RunCLI runs the line-oriented command-line debugger interface, reading
// commands from stdin until "quit"/"q"/"exit" or EOF.
func RunCLI(dbg *Debugger) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("(alya-dbg) ")

		if !scanner.Scan() {
			break
		}

		cmdLine := strings.TrimSpace(scanner.Text())

		if cmdLine == "quit" || cmdLine == "q" || cmdLine == "exit" {
			fmt.Println("Exiting debugger...")
			break
		}

		if err := dbg.ExecuteCommand(cmdLine); err != nil {
			fmt.Printf("Error: %v\n", err)
		}

		output := dbg.GetOutput()
		if output != "" {
			fmt.Print(output)
		}

		if dbg.Running {
			runUntilStop(dbg)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("input error: %w", err)
	}

	return nil
}

// runUntilStop drives the VM via Continue until a breakpoint, watchpoint, or
// halt, printing the stop reason.
func runUntilStop(dbg *Debugger) {
	stop, reason, err := dbg.Continue()
	dbg.Running = false

	if err != nil {
		fmt.Printf("Runtime error: %v\n", err)
		return
	}

	if stop {
		fmt.Printf("Stopped: %s at pc=%d\n", reason, dbg.VM.PC)
		return
	}

	fmt.Println("Program halted")
}

// RunTUI runs the text user interface debugger.
func RunTUI(dbg *Debugger) error {
	tui := NewTUI(dbg)
	return tui.Run()
}
