package pu

import (
	"sort"
	"sync"
	"sync/atomic"

	"armemu/internal/idec"
)

// Watcher counts what a processing unit executed. A nil *Watcher is valid and
// records nothing.
type Watcher struct {
	handled     atomic.Uint64
	interrupted atomic.Uint64
	total       atomic.Uint64

	mu      sync.Mutex
	byClass map[idec.Class]uint64
}

// ClassCount is the number of executed instructions of one class.
type ClassCount struct {
	Class idec.Class
	Count uint64
}

// WatcherSnapshot is a point-in-time copy of a Watcher.
type WatcherSnapshot struct {
	ProcessesHandled     uint64
	ProcessesInterrupted uint64
	Instructions         uint64
	// Classes is ordered by class.
	Classes []ClassCount
}

func NewWatcher() *Watcher {
	return &Watcher{byClass: make(map[idec.Class]uint64)}
}

func (w *Watcher) RecordInstruction(c idec.Class) {
	if w == nil {
		return
	}
	w.total.Add(1)
	w.mu.Lock()
	w.byClass[c]++
	w.mu.Unlock()
}

func (w *Watcher) RecordProcessHandled() {
	if w != nil {
		w.handled.Add(1)
	}
}

func (w *Watcher) RecordProcessInterrupted() {
	if w != nil {
		w.interrupted.Add(1)
	}
}

func (w *Watcher) ProcessesHandled() uint64 {
	if w == nil {
		return 0
	}
	return w.handled.Load()
}

func (w *Watcher) ProcessesInterrupted() uint64 {
	if w == nil {
		return 0
	}
	return w.interrupted.Load()
}

// InstructionCount returns how many instructions executed successfully.
func (w *Watcher) InstructionCount() uint64 {
	if w == nil {
		return 0
	}
	return w.total.Load()
}

// ClassCount returns how many instructions of class c executed.
func (w *Watcher) ClassCount(c idec.Class) uint64 {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.byClass[c]
}

func (w *Watcher) Snapshot() WatcherSnapshot {
	if w == nil {
		return WatcherSnapshot{}
	}
	s := WatcherSnapshot{
		ProcessesHandled:     w.handled.Load(),
		ProcessesInterrupted: w.interrupted.Load(),
		Instructions:         w.total.Load(),
	}
	w.mu.Lock()
	for c, n := range w.byClass {
		s.Classes = append(s.Classes, ClassCount{Class: c, Count: n})
	}
	w.mu.Unlock()
	sort.Slice(s.Classes, func(i, j int) bool { return s.Classes[i].Class < s.Classes[j].Class })
	return s
}

func (w *Watcher) Reset() {
	if w == nil {
		return
	}
	w.handled.Store(0)
	w.interrupted.Store(0)
	w.total.Store(0)
	w.mu.Lock()
	w.byClass = make(map[idec.Class]uint64)
	w.mu.Unlock()
}
