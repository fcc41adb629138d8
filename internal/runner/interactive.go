package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"armemu/internal/result"
)

const prompt = "armemu> "

const interactiveHelp = `commands:
  s [n]  step n instructions (default 1)
  c      continue to the end
  r      print registers
  q      quit, abandoning the program
`

// lineReader yields one command line at a time.
type lineReader interface {
	ReadLine() (string, error)
}

type scannerReader struct {
	s   *bufio.Scanner
	out io.Writer
}

func (r scannerReader) ReadLine() (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.s.Text(), nil
}

// runInteractive reads commands from in until the program ends or the user
// quits. A terminal on stdin is put in raw mode for line editing.
func runInteractive(ctx context.Context, cr *result.ControlledResult, in io.Reader, out io.Writer) error {
	var lines lineReader = scannerReader{s: bufio.NewScanner(in), out: out}
	perRow := regsPerRow

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		old, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("raw mode: %w", err)
		}
		defer func() { _ = term.Restore(fd, old) }()

		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{f, out}, prompt)
		if width, _, err := term.GetSize(fd); err == nil {
			// Each register column is 26 characters wide.
			perRow = max(1, width/26)
		}
		lines = t
		out = t
	}

	fmt.Fprint(out, interactiveHelp)
	step := 0
	for !cr.GetState().IsTerminal() {
		line, err := lines.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "s", "step":
			n := 1
			if len(fields) > 1 {
				if n, err = strconv.Atoi(fields[1]); err != nil || n < 0 {
					fmt.Fprintf(out, "bad step count %q\n", fields[1])
					continue
				}
			}
			for i := 0; i < n && !cr.GetState().IsTerminal(); i++ {
				if err := cr.StepIn(ctx); err != nil {
					return err
				}
				step++
				printStep(out, step, cr.GetResultFrame())
			}
		case "c", "continue":
			if err := stepAll(ctx, cr, io.Discard); err != nil {
				return err
			}
		case "r", "regs":
			printRegisters(out, cr.GetResultFrame(), perRow)
		case "q", "quit":
			return nil
		default:
			fmt.Fprint(out, interactiveHelp)
		}
	}
	return nil
}
