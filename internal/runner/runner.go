// Package runner loads a program and settings, runs the program on a module
// and reports the final frame.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"armemu/common"
	"armemu/internal/config"
	"armemu/internal/core"
	"armemu/internal/emu"
	"armemu/internal/program"
	"armemu/internal/result"
	"armemu/internal/script"
)

// Config mirrors the command line of armemu.
type Config struct {
	ProgramPath  string // empty runs the built-in sample
	Entry        emu.Address
	SettingsPath string // empty uses config.Default

	Step        bool   // step one instruction at a time, printing each frame
	Script      string // Lua file driving a stepped run
	Interactive bool
	NoStats     bool

	Output io.Writer
	Input  io.Reader
	// Logger takes precedence over LogOutput, which gets a logger at the
	// settings log level. With neither, nothing is logged.
	Logger    common.Logger
	LogOutput io.Writer
	// Timeout bounds the whole run; zero means none.
	Timeout time.Duration
}

func (cfg Config) mode() string {
	switch {
	case cfg.Script != "":
		return "script"
	case cfg.Interactive:
		return "interactive"
	case cfg.Step:
		return "step"
	default:
		return "run"
	}
}

func loadSettings(path string) (config.SystemSettings, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

func loadProgram(cfg Config) (program.Program, string, error) {
	if cfg.ProgramPath == "" {
		return program.Sample(), "sample", nil
	}
	p, err := program.Load(cfg.ProgramPath, cfg.Entry)
	return p, cfg.ProgramPath, err
}

// Run executes the configured program and prints its final state. A program
// that ends Interrupted is reported but is not an error of Run.
func Run(ctx context.Context, cfg Config) error {
	w := cfg.Output
	if w == nil {
		w = os.Stdout
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	fmt.Fprintln(w, "ARM Emulator : processing unit lister")
	fmt.Fprintln(w, "-------------------------------------")

	settings, err := loadSettings(cfg.SettingsPath)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	var logger common.Logger = common.NewNoOpLogger()
	switch {
	case cfg.Logger != nil:
		logger = cfg.Logger
	case cfg.LogOutput != nil:
		logger = common.NewStdLoggerWithWriter(cfg.LogOutput, cfg.LogOutput, settings.LogLevel)
	}

	p, name, err := loadProgram(cfg)
	if err != nil {
		return fmt.Errorf("failed to load program: %w", err)
	}

	fmt.Fprintf(w, "Program : %s (%d units, entry %d)\n", name, p.Size(), p.Entry)
	fmt.Fprintf(w, "Machine : %s\n", settings)
	fmt.Fprintf(w, "Mode    : %s\n", cfg.mode())

	m, err := core.NewModule(settings, core.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("error creating module: %w", err)
	}
	defer m.Close()

	var h result.Handle
	if cfg.mode() == "run" {
		r, err := m.Run(ctx, p)
		if err != nil {
			return err
		}
		h = r
	} else {
		cr, err := m.StepIn(ctx, p)
		if err != nil {
			return err
		}
		h = cr
		if err := drive(ctx, cfg, cr, w); err != nil {
			cr.Close()
			return err
		}
		// Leaving the controller early abandons the rest of the program.
		if !cr.GetState().IsTerminal() {
			cr.Close()
		}
	}

	if err := h.WaitReady(ctx); err != nil {
		return fmt.Errorf("waiting for program: %w", err)
	}

	fmt.Fprintln(w)
	PrintFrame(w, h)
	if !cfg.NoStats {
		fmt.Fprintln(w)
		PrintStats(w, m)
	}
	return nil
}

func drive(ctx context.Context, cfg Config, cr *result.ControlledResult, w io.Writer) error {
	switch cfg.mode() {
	case "script":
		c := script.NewController(cr, w)
		defer c.Close()
		return c.RunFile(ctx, cfg.Script)
	case "interactive":
		in := cfg.Input
		if in == nil {
			in = os.Stdin
		}
		return runInteractive(ctx, cr, in, w)
	default:
		return stepAll(ctx, cr, w)
	}
}

// stepAll steps cr to the end, printing one line per step.
func stepAll(ctx context.Context, cr *result.ControlledResult, w io.Writer) error {
	for step := 1; !cr.GetState().IsTerminal(); step++ {
		if err := cr.StepIn(ctx); err != nil {
			return err
		}
		printStep(w, step, cr.GetResultFrame())
	}
	return nil
}

func printStep(w io.Writer, step int, f result.ResultFrame) {
	fmt.Fprintf(w, "step %d pc=0x%x sp=0x%x %s x0=0x%x\n", step, f.PC, f.SP, f.Flags(), f.X[0])
}
