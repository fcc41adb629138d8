package runner

import (
	"fmt"
	"io"

	"armemu/internal/core"
	"armemu/internal/memory"
	"armemu/internal/result"
)

const regsPerRow = 4

// PrintFrame writes the state, error and registers of h.
func PrintFrame(w io.Writer, h result.Handle) {
	f := h.GetResultFrame()
	fmt.Fprintf(w, "State   : %s\n", h.GetState())
	if err := h.Err(); err != nil {
		fmt.Fprintf(w, "Error   : %v\n", err)
	}
	fmt.Fprintf(w, "PC      : 0x%016x\n", f.PC)
	fmt.Fprintf(w, "SP      : 0x%016x\n", f.SP)
	fmt.Fprintf(w, "NZCV    : %s\n", f.Flags())
	fmt.Fprintf(w, "EL      : %s\n", f.EL)
	printRegisters(w, f, regsPerRow)
}

func printRegisters(w io.Writer, f result.ResultFrame, perRow int) {
	if perRow < 1 {
		perRow = 1
	}
	for i, v := range f.X {
		if i%perRow != 0 {
			fmt.Fprint(w, "  ")
		}
		fmt.Fprintf(w, "X%-2d = 0x%016x", i, v)
		if i%perRow == perRow-1 || i == len(f.X)-1 {
			fmt.Fprintln(w)
		}
	}
}

// PrintStats writes the processing unit and memory counters of m.
func PrintStats(w io.Writer, m *core.Module) {
	fmt.Fprintln(w, "Statistics")
	for _, c := range m.Cores() {
		s := c.ProcessingUnit().Watcher().Snapshot()
		fmt.Fprintf(w, "%s : handled %d, interrupted %d, instructions %d\n",
			c.ProcessingUnit().Name(), s.ProcessesHandled, s.ProcessesInterrupted, s.Instructions)
		for _, cc := range s.Classes {
			fmt.Fprintf(w, "  %-36s %d\n", cc.Class, cc.Count)
		}
		printCache(w, c.Name()+".l1", c.Cache())
	}
	shared := m.SharedCaches()
	printCache(w, "l2", shared[0])
	printCache(w, "l3", shared[1])
	ram := m.RAM().Watcher().Snapshot()
	fmt.Fprintf(w, "ram : reads %d, writes %d, backed %d of %d units\n",
		ram.Read+ram.ReadBlock, ram.Write+ram.WriteBlock, m.RAM().Backed(), m.RAM().Size())
}

func printCache(w io.Writer, name string, c *memory.CacheMemory) {
	s := c.Watcher().Snapshot()
	fmt.Fprintf(w, "%s : hits %d, misses %d, ratio %.2f\n", name, s.Hit, s.Miss, s.HitRatio())
}
