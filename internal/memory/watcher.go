package memory

import "sync/atomic"

// Hint tells a Watcher which level of the hierarchy it is attached to.
type Hint int

const (
	HintRAM Hint = iota
	HintCache
)

func (h Hint) String() string {
	if h == HintCache {
		return "Cache"
	}
	return "RAM"
}

// Watcher counts accesses to one memory level. It is purely observational.
// A nil *Watcher is valid and records nothing.
type Watcher struct {
	hint Hint

	read       atomic.Uint64
	readBlock  atomic.Uint64
	write      atomic.Uint64
	writeBlock atomic.Uint64

	upRead       atomic.Uint64
	upReadBlock  atomic.Uint64
	upWrite      atomic.Uint64
	upWriteBlock atomic.Uint64

	hit  atomic.Uint64
	miss atomic.Uint64
}

// WatcherSnapshot is a point-in-time copy of a Watcher's counters.
type WatcherSnapshot struct {
	Hint Hint

	Read       uint64
	ReadBlock  uint64
	Write      uint64
	WriteBlock uint64

	UpStreamRead       uint64
	UpStreamReadBlock  uint64
	UpStreamWrite      uint64
	UpStreamWriteBlock uint64

	Hit  uint64
	Miss uint64
}

func NewWatcher(hint Hint) *Watcher {
	return &Watcher{hint: hint}
}

func (w *Watcher) Hint() Hint {
	if w == nil {
		return HintRAM
	}
	return w.hint
}

func (w *Watcher) RecordRead() {
	if w != nil {
		w.read.Add(1)
	}
}

func (w *Watcher) RecordReadBlock() {
	if w != nil {
		w.readBlock.Add(1)
	}
}

func (w *Watcher) RecordWrite() {
	if w != nil {
		w.write.Add(1)
	}
}

func (w *Watcher) RecordWriteBlock() {
	if w != nil {
		w.writeBlock.Add(1)
	}
}

func (w *Watcher) RecordUpStreamRead() {
	if w != nil {
		w.upRead.Add(1)
	}
}

func (w *Watcher) RecordUpStreamReadBlock() {
	if w != nil {
		w.upReadBlock.Add(1)
	}
}

func (w *Watcher) RecordUpStreamWrite() {
	if w != nil {
		w.upWrite.Add(1)
	}
}

func (w *Watcher) RecordUpStreamWriteBlock() {
	if w != nil {
		w.upWriteBlock.Add(1)
	}
}

func (w *Watcher) RecordHit() {
	if w != nil {
		w.hit.Add(1)
	}
}

func (w *Watcher) RecordMiss() {
	if w != nil {
		w.miss.Add(1)
	}
}

// MemoryAccessCount is hit+miss for a cache and the sum of local accesses for RAM.
func (w *Watcher) MemoryAccessCount() uint64 {
	return w.Snapshot().MemoryAccessCount()
}

func (w *Watcher) HitRatio() float64 {
	return w.Snapshot().HitRatio()
}

func (w *Watcher) MissRatio() float64 {
	return w.Snapshot().MissRatio()
}

// Snapshot copies the current counters.
func (w *Watcher) Snapshot() WatcherSnapshot {
	if w == nil {
		return WatcherSnapshot{}
	}
	return WatcherSnapshot{
		Hint:               w.hint,
		Read:               w.read.Load(),
		ReadBlock:          w.readBlock.Load(),
		Write:              w.write.Load(),
		WriteBlock:         w.writeBlock.Load(),
		UpStreamRead:       w.upRead.Load(),
		UpStreamReadBlock:  w.upReadBlock.Load(),
		UpStreamWrite:      w.upWrite.Load(),
		UpStreamWriteBlock: w.upWriteBlock.Load(),
		Hit:                w.hit.Load(),
		Miss:               w.miss.Load(),
	}
}

// Reset zeroes every counter.
func (w *Watcher) Reset() {
	if w == nil {
		return
	}
	for _, c := range []*atomic.Uint64{
		&w.read, &w.readBlock, &w.write, &w.writeBlock,
		&w.upRead, &w.upReadBlock, &w.upWrite, &w.upWriteBlock,
		&w.hit, &w.miss,
	} {
		c.Store(0)
	}
}

func (s WatcherSnapshot) MemoryAccessCount() uint64 {
	if s.Hint == HintCache {
		return s.Hit + s.Miss
	}
	return s.Read + s.ReadBlock + s.Write + s.WriteBlock
}

func (s WatcherSnapshot) HitRatio() float64 {
	total := s.Hit + s.Miss
	if total == 0 {
		return 0
	}
	return float64(s.Hit) / float64(total)
}

func (s WatcherSnapshot) MissRatio() float64 {
	total := s.Hit + s.Miss
	if total == 0 {
		return 0
	}
	return float64(s.Miss) / float64(total)
}
