package result

import (
	"fmt"
	"strings"

	"armemu/internal/emu"
)

// State is the lifecycle state of a result element.
type State int

const (
	StateWaiting State = iota
	StateRunning
	StateReady
	StateInterrupted
	StateStepInMode
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "Waiting"
	case StateRunning:
		return "Running"
	case StateReady:
		return "Ready"
	case StateInterrupted:
		return "Interrupted"
	case StateStepInMode:
		return "StepInMode"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether no further transition can follow s.
func (s State) IsTerminal() bool {
	return s == StateReady || s == StateInterrupted
}

// ResultFrame is a committed register snapshot.
type ResultFrame struct {
	X    [31]uint64
	PC   uint64
	SP   uint64
	NZCV uint8
	EL   emu.ExceptionLevel
}

// Reg returns register i, reading 31 as the zero register.
func (f ResultFrame) Reg(i int) uint64 {
	if i == 31 {
		return 0
	}
	return f.X[i]
}

// Flags renders NZCV as four letters, upper case when set.
func (f ResultFrame) Flags() string {
	var b strings.Builder
	for i, c := range "nzcv" {
		if f.NZCV&(8>>i) != 0 {
			b.WriteString(strings.ToUpper(string(c)))
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}
