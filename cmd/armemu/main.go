package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"armemu/common"
	"armemu/internal/emu"
	"armemu/internal/runner"
)

func main() {
	programPath := flag.String("program", "", "Program image: ELF, .hex listing or raw words (default: built-in sample)")
	entry := flag.Uint64("entry", 0, "Entry point in instruction units for raw and hex images")
	settingsPath := flag.String("config", "", "Machine settings INI file")
	step := flag.Bool("step", false, "Step one instruction at a time, printing each frame")
	scriptPath := flag.String("script", "", "Lua script driving a stepped run")
	interactive := flag.Bool("interactive", false, "Step interactively from stdin")
	noStats := flag.Bool("no_stats", false, "Do not print statistics")
	logLevel := flag.String("log", "", "Log level (debug, info, warning, error); overrides the settings file")
	timeout := flag.Duration("timeout", 0, "Abandon the run after this long")

	flag.Parse()

	cfg := runner.Config{
		ProgramPath:  *programPath,
		Entry:        emu.Address(*entry),
		SettingsPath: *settingsPath,
		Step:         *step,
		Script:       *scriptPath,
		Interactive:  *interactive,
		NoStats:      *noStats,
		Output:       os.Stdout,
		Input:        os.Stdin,
		LogOutput:    os.Stderr,
		Timeout:      *timeout,
	}
	if *logLevel != "" {
		sev, err := common.ParseSeverity(*logLevel)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Logger = common.NewStdLoggerWithWriter(os.Stderr, os.Stderr, sev)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runner.Run(ctx, cfg); err != nil {
		fmt.Printf("Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
