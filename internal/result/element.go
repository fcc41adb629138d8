// Package result implements the handles returned by Run and StepIn and the
// shared element that synchronises an executing program with its controller.
//
// The executor publishes committed register frames and state transitions on
// the element. A step-in controller hands single-step permits to the executor
// over the advance channel. Every state transition closes the current
// changed channel, so a waiter never misses a transition made between its
// check and its wait.
package result

import (
	"sync"

	icommon "armemu/internal/common"
	"armemu/internal/emu"
)

var (
	ErrCannotStep        = icommon.NewErrorMsg(emu.ErrSevError, emu.ErrCannotStep, "result was created by Run")
	ErrStateUnreachable  = icommon.NewError(emu.ErrSevError, emu.ErrStateUnreachable)
	ErrUndefinedRegister = icommon.NewError(emu.ErrSevError, emu.ErrUndefinedRegister)
	ErrClosed            = icommon.NewErrorMsg(emu.ErrSevWarn, emu.ErrClosed, "result closed before completion")
)

// Element is the state shared by one executing program and its handle.
type Element struct {
	mu      sync.Mutex
	state   State
	frame   ResultFrame
	err     error
	seq     uint64
	changed chan struct{}

	advance  chan struct{}
	done     chan struct{}
	doneOnce sync.Once

	stepping  bool
	interrupt *Interrupt
}

// NewElement creates an element in the Waiting state. stepping marks an
// element created by StepIn.
func NewElement(stepping bool) *Element {
	return &Element{
		state:     StateWaiting,
		changed:   make(chan struct{}),
		advance:   make(chan struct{}),
		done:      make(chan struct{}),
		stepping:  stepping,
		interrupt: NewInterrupt(),
	}
}

func (e *Element) Stepping() bool {
	return e.stepping
}

// Interrupt returns the element's cancellation token.
func (e *Element) Interrupt() *Interrupt {
	return e.interrupt
}

// Done is closed once the element reaches a terminal state.
func (e *Element) Done() <-chan struct{} {
	return e.done
}

// setLocked moves to s and wakes every waiter. e.mu must be held.
func (e *Element) setLocked(s State) {
	e.state = s
	close(e.changed)
	e.changed = make(chan struct{})
}

func (e *Element) closeDone() {
	e.doneOnce.Do(func() { close(e.done) })
}

// watch returns the current state, commit sequence and the channel closed by
// the next transition.
func (e *Element) watch() (State, uint64, <-chan struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.seq, e.changed
}

// Signal moves to a non-terminal state. It is ignored once terminal.
func (e *Element) Signal(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.IsTerminal() || e.state == s {
		return
	}
	e.setLocked(s)
}

// Commit publishes frame as the last fully committed snapshot.
func (e *Element) Commit(frame ResultFrame) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.IsTerminal() {
		return
	}
	e.frame = frame
	e.seq++
}

// Park commits frame, enters StepInMode and blocks until the controller
// grants one step. It returns false if the element is torn down, its
// interrupt fires, or stop closes first.
func (e *Element) Park(frame ResultFrame, stop <-chan struct{}) bool {
	e.mu.Lock()
	if e.state.IsTerminal() {
		e.mu.Unlock()
		return false
	}
	e.frame = frame
	e.seq++
	e.setLocked(StateStepInMode)
	e.mu.Unlock()

	select {
	case <-e.advance:
	case <-e.done:
		return false
	case <-e.interrupt.Done():
		return false
	case <-stop:
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.IsTerminal() {
		return false
	}
	e.setLocked(StateRunning)
	return true
}

// Finish moves to the terminal state s. The first terminal transition wins.
func (e *Element) Finish(s State, frame ResultFrame, err error) {
	e.mu.Lock()
	if !e.state.IsTerminal() {
		e.frame = frame
		e.err = err
		e.seq++
		e.setLocked(s)
	}
	e.mu.Unlock()
	e.closeDone()
}

// Close tears the element down. A non-terminal element becomes Interrupted,
// and any executor or controller blocked on it is released.
func (e *Element) Close() {
	e.interrupt.Trigger()
	e.mu.Lock()
	if !e.state.IsTerminal() {
		if e.err == nil {
			e.err = ErrClosed
		}
		e.setLocked(StateInterrupted)
	}
	e.mu.Unlock()
	e.closeDone()
}

func (e *Element) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Element) Frame() ResultFrame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

func (e *Element) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Commits returns how many frames have been committed.
func (e *Element) Commits() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}
