package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lookbusy1344/alya-vm/api"
	"github.com/lookbusy1344/alya-vm/codegen"
	"github.com/lookbusy1344/alya-vm/config"
	"github.com/lookbusy1344/alya-vm/debugger"
	"github.com/lookbusy1344/alya-vm/loader"
	"github.com/lookbusy1344/alya-vm/parser"
	"github.com/lookbusy1344/alya-vm/tools"
	"github.com/lookbusy1344/alya-vm/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "assemble":
		err = runAssemble(args)
	case "run":
		err = runRun(args)
	case "disasm":
		err = runDisasm(args)
	case "debug":
		err = runDebug(args)
	case "serve":
		err = runServe(args)
	case "-help", "--help", "help":
		printHelp()
		return
	case "-version", "--version", "version":
		printVersion()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printHelp()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runAssemble implements the "assemble" subcommand: source -> parser ->
// codegen -> ALYA binary container on disk.
func runAssemble(args []string) error {
	fs := newFlagSet("assemble")
	out := fs.String("o", "", "output binary path (default: input file with .bin extension)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: alya-vm assemble [-o out.bin] <in.asm>")
	}
	inputPath := fs.Arg(0)

	outputPath := *out
	if outputPath == "" {
		outputPath = withExtension(inputPath, ".bin")
	}

	program, err := assembleFile(inputPath)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, loader.Save(program), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	fmt.Printf("assembled %s -> %s (%d instructions)\n", inputPath, outputPath, program.Len())
	return nil
}

// runRun implements the "run" subcommand: load an assembled binary and
// execute it to completion, honouring the persistent config's execution
// budget unless overridden on the command line.
func runRun(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := newFlagSet("run")
	maxInstructions := fs.Uint64("max-instructions", cfg.Execution.MaxInstructions, "maximum instructions before aborting as a runaway loop")
	memorySize := fs.Uint64("memory-size", cfg.Execution.MemorySize, "VM memory size in bytes")
	trace := fs.Bool("trace", cfg.Execution.EnableTrace, "enable execution trace")
	enableStats := fs.Bool("stats", cfg.Execution.EnableStats, "enable performance statistics")
	statsFile := fs.String("stats-file", cfg.Statistics.OutputFile, "statistics output file (used with -stats)")
	statsFormat := fs.String("stats-format", cfg.Statistics.Format, "statistics format: json, csv, html (used with -stats)")
	enableCoverage := fs.Bool("coverage", cfg.Execution.EnableCoverage, "enable code coverage tracking")
	coverageFile := fs.String("coverage-file", "coverage.txt", "coverage output file (used with -coverage)")
	coverageFormat := fs.String("coverage-format", "text", "coverage format: text, json (used with -coverage)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: alya-vm run [-max-instructions N] [-stats] [-coverage] <program.bin>")
	}

	program, err := loadBinary(fs.Arg(0))
	if err != nil {
		return err
	}

	machine := vm.NewVM(*memorySize)
	machine.MaxInstructions = *maxInstructions
	machine.Trace = *trace

	if *enableStats {
		machine.Statistics = vm.NewPerformanceStatistics()
		machine.Statistics.Start()
	}
	if *enableCoverage {
		machine.Coverage = vm.NewCodeCoverage(nil, program.Len())
		machine.Coverage.LoadSymbols(program.Symbols)
	}

	runErr := machine.Run(program)
	if runErr != nil && !errors.Is(runErr, vm.ErrHalted) {
		runErr = fmt.Errorf("runtime error at pc=%d: %w", machine.PC, runErr)
	} else {
		runErr = nil
	}

	if *enableStats {
		if err := exportStatistics(machine.Statistics, *statsFile, *statsFormat); err != nil {
			return err
		}
	}
	if *enableCoverage {
		if err := exportCoverage(machine.Coverage, *coverageFile, *coverageFormat); err != nil {
			return err
		}
	}

	return runErr
}

// exportStatistics writes the performance statistics collected by a -stats
// run to path in the requested format.
func exportStatistics(stats *vm.PerformanceStatistics, path, format string) error {
	f, err := os.Create(path) // #nosec G304 -- path is a user-supplied CLI flag
	if err != nil {
		return fmt.Errorf("failed to create statistics file %s: %w", path, err)
	}
	defer f.Close()

	switch format {
	case "csv":
		err = stats.ExportCSV(f)
	case "html":
		err = stats.ExportHTML(f)
	default:
		err = stats.ExportJSON(f)
	}
	if err != nil {
		return fmt.Errorf("failed to write statistics to %s: %w", path, err)
	}
	fmt.Printf("statistics written to %s\n", path)
	return nil
}

// exportCoverage writes the code coverage collected by a -coverage run to
// path in the requested format.
func exportCoverage(coverage *vm.CodeCoverage, path, format string) error {
	f, err := os.Create(path) // #nosec G304 -- path is a user-supplied CLI flag
	if err != nil {
		return fmt.Errorf("failed to create coverage file %s: %w", path, err)
	}
	defer f.Close()

	if format == "json" {
		err = coverage.ExportJSON(f)
	} else {
		coverage.Writer = f
		err = coverage.Flush()
	}
	if err != nil {
		return fmt.Errorf("failed to write coverage to %s: %w", path, err)
	}
	fmt.Printf("coverage written to %s\n", path)
	return nil
}

// runDisasm implements the "disasm" subcommand: load an assembled binary
// and print one line of disassembly per instruction.
func runDisasm(args []string) error {
	fs := newFlagSet("disasm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: alya-vm disasm <program.bin>")
	}

	program, err := loadBinary(fs.Arg(0))
	if err != nil {
		return err
	}

	for _, line := range tools.Disassemble(program) {
		fmt.Println(line)
	}
	return nil
}

// runDebug implements the "debug" subcommand: load an assembled binary into
// a debugger-attached VM and drive either the line-oriented CLI or the TUI.
func runDebug(args []string) error {
	fs := newFlagSet("debug")
	tui := fs.Bool("tui", false, "use the text user interface debugger instead of the line-oriented CLI")
	memorySize := fs.Uint64("memory-size", 0, "VM memory size in bytes (default: standard layout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: alya-vm debug [-tui] <program.bin>")
	}

	program, err := loadBinary(fs.Arg(0))
	if err != nil {
		return err
	}

	machine := vm.NewVM(*memorySize)
	dbg := debugger.NewDebugger(machine, program)

	if *tui {
		return debugger.RunTUI(dbg)
	}
	return debugger.RunCLI(dbg)
}

// runServe implements the "serve" subcommand: start the HTTP/WebSocket
// debugger API and block until interrupted.
func runServe(args []string) error {
	fs := newFlagSet("serve")
	port := fs.Int("port", 8080, "API server port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server := api.NewServer(*port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		fmt.Println("\nshutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}

// newFlagSet builds a subcommand flag set that reports errors to the caller
// instead of exiting the process, so main can print them uniformly.
func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// assembleFile reads, lexes, parses, and generates code for a source file.
func assembleFile(path string) (*vm.Program, error) {
	source, err := os.ReadFile(path) // #nosec G304 -- path is a user-supplied CLI argument
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	statements, err := parser.Parse(string(source))
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	program, err := codegen.Generate(statements)
	if err != nil {
		return nil, fmt.Errorf("codegen error: %w", err)
	}
	program.Name = path
	return program, nil
}

// loadBinary reads an ALYA binary container from disk.
func loadBinary(path string) (*vm.Program, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is a user-supplied CLI argument
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	program, err := loader.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	program.Name = path
	return program, nil
}

// withExtension replaces path's extension with ext.
func withExtension(path, ext string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[:idx] + ext
	}
	return path + ext
}

func printVersion() {
	fmt.Printf("alya-vm %s\n", Version)
	if Commit != "unknown" {
		fmt.Printf("commit: %s\n", Commit)
	}
	if Date != "unknown" {
		fmt.Printf("built: %s\n", Date)
	}
}

func printHelp() {
	fmt.Print(`alya-vm: assemble, run, and debug register-machine programs

Usage:
  alya-vm assemble [-o out.bin] <in.asm>     Assemble source into a binary
  alya-vm run [options] <f.bin>              Run an assembled binary
  alya-vm disasm <f.bin>                     Print disassembly
  alya-vm debug [-tui] <f.bin>                Start the interactive debugger
  alya-vm serve [-port N]                    Start the HTTP/WebSocket debugger API
  alya-vm -version                           Show version information
  alya-vm -help                              Show this help message

Run options:
  -max-instructions N   Abort as a runaway loop after N instructions
  -memory-size N        VM memory size in bytes
  -trace                Enable execution trace
  -stats                Enable performance statistics
  -stats-file FILE      Statistics output file (default: stats.json)
  -stats-format FMT     Statistics format: json, csv, html
  -coverage             Enable code coverage tracking
  -coverage-file FILE   Coverage output file (default: coverage.txt)
  -coverage-format FMT  Coverage format: text, json

Examples:
  alya-vm assemble -o fib.bin examples/fib.asm
  alya-vm run fib.bin
  alya-vm run -stats -coverage fib.bin
  alya-vm debug -tui fib.bin
  alya-vm serve -port 8080
`)
}
