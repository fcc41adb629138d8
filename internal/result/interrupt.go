package result

import (
	"sync"
	"sync/atomic"
)

// Interrupt is a shared cancellation flag. The flag can be polled without
// locking, and Done exposes it as a channel for select-based waits.
type Interrupt struct {
	flag atomic.Bool

	mu sync.Mutex
	ch chan struct{}
}

func NewInterrupt() *Interrupt {
	return &Interrupt{ch: make(chan struct{})}
}

// Trigger sets the flag and wakes every waiter on Done.
func (i *Interrupt) Trigger() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.flag.Swap(true) {
		close(i.ch)
	}
}

// Reset clears the flag. Channels returned by earlier Done calls stay closed.
func (i *Interrupt) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.flag.Swap(false) {
		i.ch = make(chan struct{})
	}
}

func (i *Interrupt) IsTriggered() bool {
	return i.flag.Load()
}

// Done returns a channel closed once the flag is triggered.
func (i *Interrupt) Done() <-chan struct{} {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.ch
}
