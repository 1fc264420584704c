package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lookbusy1344/alya-vm/tools"
	"github.com/lookbusy1344/alya-vm/vm"
)

// TUI is the text user interface for the debugger, built on tcell/tview.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	SourceView      *tview.TextView
	RegisterView    *tview.TextView
	MemoryView      *tview.TextView
	StackView       *tview.TextView
	DisassemblyView *tview.TextView
	BreakpointsView *tview.TextView
	OutputView      *tview.TextView
	CommandInput    *tview.InputField

	MemoryAddress uint64

	SourceLines []string
	SourceFile  string
}

// NewTUI creates a text user interface bound to debugger.
func NewTUI(debugger *Debugger) *TUI {
	return newTUI(debugger, tview.NewApplication())
}

// NewTUIWithScreen creates a TUI bound to a caller-supplied tcell screen,
// letting tests drive it against a simulation screen instead of a real terminal.
func NewTUIWithScreen(debugger *Debugger, screen tcell.Screen) *TUI {
	app := tview.NewApplication().SetScreen(screen)
	return newTUI(debugger, app)
}

func newTUI(debugger *Debugger, app *tview.Application) *TUI {
	t := &TUI{
		Debugger: debugger,
		App:      app,
	}

	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()

	return t
}

// initializeViews creates all the view panels.
func (t *TUI) initializeViews() {
	t.SourceView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.SourceView.SetBorder(true).SetTitle(" Source ")

	t.RegisterView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.MemoryView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.StackView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.StackView.SetBorder(true).SetTitle(" Stack ")

	t.DisassemblyView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.DisassemblyView.SetBorder(true).SetTitle(" Disassembly ")

	t.BreakpointsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints/Watchpoints ")

	t.OutputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

// buildLayout constructs the TUI layout.
func (t *TUI) buildLayout() {
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.SourceView, 0, 3, false).
		AddItem(t.DisassemblyView, 0, 2, false)

	rightTop := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 10, 0, false).
		AddItem(t.MemoryView, 0, 1, false).
		AddItem(t.StackView, 0, 1, false)

	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(rightTop, 0, 3, false).
		AddItem(t.BreakpointsView, 8, 0, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().
		AddPage("main", t.MainLayout, true, true)
}

// setupKeyBindings wires keyboard shortcuts to debugger commands.
func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF9:
			t.executeCommand("break")
			return nil
		case tcell.KeyF10:
			t.executeCommand("next")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

// handleCommand processes command input from the input field.
func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			go t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

// executeCommand runs a debugger command and refreshes all views.
func (t *TUI) executeCommand(cmd string) {
	t.Debugger.Output.Reset()

	err := t.Debugger.ExecuteCommand(cmd)

	output := t.Debugger.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	t.RefreshAll()
}

// WriteOutput appends text to the output view.
func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text))
	t.OutputView.ScrollToEnd()
}

// RefreshAll refreshes every view panel.
func (t *TUI) RefreshAll() {
	t.UpdateSourceView()
	t.UpdateRegisterView()
	t.UpdateMemoryView()
	t.UpdateStackView()
	t.UpdateDisassemblyView()
	t.UpdateBreakpointsView()
}

// UpdateSourceView updates the source code view.
func (t *TUI) UpdateSourceView() {
	t.SourceView.Clear()

	if len(t.Debugger.SourceMap) == 0 {
		t.SourceView.SetText("[yellow]No source code available[white]")
		return
	}

	pc := t.Debugger.VM.PC

	startIdx := pc - CodeContextLinesBeforeCompact
	if startIdx < 0 {
		startIdx = 0
	}

	var lines []string
	for idx := startIdx; idx <= pc+CodeContextLinesAfterCompact; idx++ {
		sourceLine, exists := t.Debugger.SourceMap[idx]
		if !exists {
			continue
		}

		marker := "  "
		color := "white"
		if idx == pc {
			marker = "->"
			color = "yellow"
		}

		if t.Debugger.Breakpoints.GetBreakpoint(idx) != nil {
			marker = "* "
		}

		lines = append(lines, fmt.Sprintf("[%s]%s %04d: %s[white]", color, marker, idx, sourceLine))
	}

	t.SourceView.SetText(strings.Join(lines, "\n"))
}

// UpdateRegisterView updates the register and flags display.
func (t *TUI) UpdateRegisterView() {
	t.RegisterView.Clear()

	var lines []string
	for row := 0; row*RegisterGroupSize < vm.NumRegisters; row++ {
		var cols []string
		for col := 0; col < RegisterGroupSize; col++ {
			r := vm.Register(row*RegisterGroupSize + col)
			if int(r) >= vm.NumRegisters {
				break
			}
			cols = append(cols, fmt.Sprintf("%-3s: 0x%016X", r.String(), t.Debugger.VM.Reg(r)))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}

	lines = append(lines, "")

	f := t.Debugger.VM.Flags
	flags := ""
	flags += colorFlag(f.N, "N", "red")
	flags += colorFlag(f.Z, "Z", "blue")
	flags += colorFlag(f.C, "C", "green")
	flags += colorFlag(f.V, "V", "yellow")

	lines = append(lines, fmt.Sprintf("pc: %d  flags: %s", t.Debugger.VM.PC, flags))
	lines = append(lines, fmt.Sprintf("call depth: %d", len(t.Debugger.VM.CallStack)))

	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

func colorFlag(set bool, letter, color string) string {
	if set {
		return fmt.Sprintf("[%s]%s[white]", color, letter)
	}
	return strings.ToLower(letter)
}

// UpdateMemoryView updates the memory hex-dump view.
func (t *TUI) UpdateMemoryView() {
	t.MemoryView.Clear()

	addr := t.MemoryAddress

	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]Address: 0x%016X[white]", addr))

	for row := 0; row < MemoryDisplayRows; row++ {
		rowAddr := addr + uint64(row*MemoryDisplayBytesPerRow)

		var line string
		if rowAddr32, err := vm.SafeUint64ToUint32(rowAddr); err == nil {
			line = fmt.Sprintf("0x%08X: ", rowAddr32)
		} else {
			line = fmt.Sprintf("0x%016X: ", rowAddr)
		}

		var hexBytes []string
		var asciiBytes []byte

		for col := 0; col < MemoryDisplayColumns; col++ {
			byteAddr := rowAddr + uint64(col)
			b, err := t.Debugger.VM.Memory.ReadByte(byteAddr)
			if err != nil {
				hexBytes = append(hexBytes, "??")
				asciiBytes = append(asciiBytes, '.')
				continue
			}
			hexBytes = append(hexBytes, fmt.Sprintf("%02X", b))
			if b >= 32 && b < 127 {
				asciiBytes = append(asciiBytes, b)
			} else {
				asciiBytes = append(asciiBytes, '.')
			}
		}

		line += strings.Join(hexBytes, " ") + "  " + string(asciiBytes)
		lines = append(lines, line)
	}

	t.MemoryView.SetText(strings.Join(lines, "\n"))
}

// UpdateStackView updates the stack view.
func (t *TUI) UpdateStackView() {
	t.StackView.Clear()

	sp := t.Debugger.VM.Reg(vm.SP)

	var lines []string
	lines = append(lines, fmt.Sprintf("[yellow]sp: 0x%016X[white]", sp))

	for i := 0; i < StackDisplayWords; i++ {
		addr := sp + uint64(i*8)

		word, err := t.Debugger.VM.Memory.ReadQword(addr)
		if err != nil {
			lines = append(lines, fmt.Sprintf("0x%016X: ????????????????", addr))
			continue
		}

		marker := "  "
		if addr == sp {
			marker = "->"
		}

		lines = append(lines, fmt.Sprintf("%s 0x%016X: 0x%016X", marker, addr, word))
	}

	t.StackView.SetText(strings.Join(lines, "\n"))
}

// UpdateDisassemblyView updates the disassembly view around the current PC.
func (t *TUI) UpdateDisassemblyView() {
	t.DisassemblyView.Clear()

	if t.Debugger.Program == nil {
		t.DisassemblyView.SetText("[yellow]No program loaded[white]")
		return
	}

	pc := t.Debugger.VM.PC
	disasm := tools.Disassemble(t.Debugger.Program)

	start := pc - CodeContextLinesBeforeCompact
	if start < 0 {
		start = 0
	}
	end := pc + CodeContextLinesAfterCompact
	if end > len(disasm) {
		end = len(disasm)
	}

	var lines []string
	for idx := start; idx < end; idx++ {
		marker := "  "
		color := "white"
		if idx == pc {
			marker = "->"
			color = "yellow"
		}
		if t.Debugger.Breakpoints.GetBreakpoint(idx) != nil {
			marker = "* "
		}
		lines = append(lines, fmt.Sprintf("[%s]%s %s[white]", color, marker, disasm[idx]))
	}

	t.DisassemblyView.SetText(strings.Join(lines, "\n"))
}

// UpdateBreakpointsView updates the breakpoints and watchpoints panel.
func (t *TUI) UpdateBreakpointsView() {
	t.BreakpointsView.Clear()

	var lines []string

	bps := t.Debugger.Breakpoints.GetAllBreakpoints()
	if len(bps) > 0 {
		lines = append(lines, "[yellow]Breakpoints:[white]")
		for _, bp := range bps {
			status := "enabled"
			color := "green"
			if !bp.Enabled {
				status = "disabled"
				color = "red"
			}

			line := fmt.Sprintf("  %d: [%s]%s[white] %d", bp.ID, color, status, bp.Address)

			if sym := t.findSymbolForAddress(bp.Address); sym != "" {
				line += fmt.Sprintf(" <%s>", sym)
			}

			line += fmt.Sprintf(" (hits: %d)", bp.HitCount)

			lines = append(lines, line)
		}
	} else {
		lines = append(lines, "[yellow]No breakpoints set[white]")
	}

	lines = append(lines, "")

	wps := t.Debugger.Watchpoints.GetAllWatchpoints()
	if len(wps) > 0 {
		lines = append(lines, "[yellow]Watchpoints:[white]")
		for _, wp := range wps {
			lines = append(lines, fmt.Sprintf("  %d: %s = 0x%016X", wp.ID, wp.Expression, wp.LastValue))
		}
	}

	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// findSymbolForAddress finds a label name for an instruction index.
func (t *TUI) findSymbolForAddress(addr int) string {
	for sym, symAddr := range t.Debugger.Symbols {
		if symAddr == addr {
			return sym
		}
	}
	return ""
}

// Run starts the TUI application event loop.
func (t *TUI) Run() error {
	t.RefreshAll()

	t.WriteOutput("[green]alya-vm debugger[white]\n")
	t.WriteOutput("Press F1 for help, F5 to continue, F10 for next line, F11 to step\n")
	t.WriteOutput("Type 'help' for command list\n\n")

	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop stops the TUI application.
func (t *TUI) Stop() {
	t.App.Stop()
}

// LoadSource loads source code for display.
func (t *TUI) LoadSource(filename string, lines []string) {
	t.SourceFile = filename
	t.SourceLines = lines
	t.UpdateSourceView()
}
