package result

import (
	"context"
	"runtime"
	"sync"

	icommon "armemu/internal/common"
	"armemu/internal/emu"
)

// Handle is the caller's view of a submitted program.
type Handle interface {
	IsReady() bool
	GetState() State
	GetGPRegisterValue(i int) (uint64, error)
	GetPC() uint64
	GetSP() uint64
	GetResultFrame() ResultFrame
	Err() error
	Done() <-chan struct{}

	WaitReady(ctx context.Context) error
	WaitForState(ctx context.Context, s State) error

	CanStepIn() bool
	StepIn(ctx context.Context) error

	Close()
}

// handle implements the read and wait side shared by both result kinds.
type handle struct {
	el *Element
}

// IsReady reports whether the program ran to completion.
func (h *handle) IsReady() bool {
	return h.el.State() == StateReady
}

func (h *handle) GetState() State {
	return h.el.State()
}

// GetGPRegisterValue returns X[i] from the last committed frame. Index 31 is
// the zero register.
func (h *handle) GetGPRegisterValue(i int) (uint64, error) {
	if i < 0 || i > 31 {
		return 0, icommon.NewErrorMsg(emu.ErrSevError, emu.ErrUndefinedRegister, "general register index out of range")
	}
	return h.el.Frame().Reg(i), nil
}

func (h *handle) GetPC() uint64 {
	return h.el.Frame().PC
}

func (h *handle) GetSP() uint64 {
	return h.el.Frame().SP
}

func (h *handle) GetResultFrame() ResultFrame {
	return h.el.Frame()
}

// Err returns the fault that interrupted the program, if any.
func (h *handle) Err() error {
	return h.el.Err()
}

func (h *handle) Done() <-chan struct{} {
	return h.el.Done()
}

// Element exposes the shared element to the executor side.
func (h *handle) Element() *Element {
	return h.el
}

// WaitReady blocks until the program reaches any terminal state.
func (h *handle) WaitReady(ctx context.Context) error {
	defer runtime.KeepAlive(h)
	select {
	case <-h.el.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitForState blocks until the element is in s. It fails with
// ErrStateUnreachable once a different terminal state is reached.
func (h *handle) WaitForState(ctx context.Context, s State) error {
	defer runtime.KeepAlive(h)
	for {
		st, _, changed := h.el.watch()
		if st == s {
			return nil
		}
		if st.IsTerminal() {
			return icommon.Errorf(emu.ErrStateUnreachable, "waiting for %s, reached %s", s, st)
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *handle) Close() {
	h.el.Close()
}

// Result is the handle of a run-to-completion request.
type Result struct {
	handle
}

// NewResult wraps el, which must not be a stepping element. Once the
// returned handle is unreachable el is closed, so its program is dropped.
func NewResult(el *Element) *Result {
	r := &Result{handle{el: el}}
	runtime.AddCleanup(r, (*Element).Close, el)
	return r
}

func (r *Result) CanStepIn() bool {
	return false
}

// StepIn always fails: a run-to-completion result cannot be stepped.
func (r *Result) StepIn(context.Context) error {
	return ErrCannotStep
}

// ControlledResult is the handle of a step-in request.
type ControlledResult struct {
	handle
	stepMu sync.Mutex
}

// NewControlledResult wraps el, which must be a stepping element. Once the
// returned handle is unreachable el is closed, releasing a parked executor.
func NewControlledResult(el *Element) *ControlledResult {
	c := &ControlledResult{handle: handle{el: el}}
	runtime.AddCleanup(c, (*Element).Close, el)
	return c
}

func (c *ControlledResult) CanStepIn() bool {
	return true
}

// StepIn lets exactly one instruction execute and returns once it has
// committed or the program has ended. It is a no-op once the result is
// terminal. Concurrent callers are serialised.
func (c *ControlledResult) StepIn(ctx context.Context) error {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()
	defer runtime.KeepAlive(c)

	e := c.el
	for {
		st, seq, changed := e.watch()
		if st.IsTerminal() {
			return nil
		}
		if st != StateStepInMode {
			select {
			case <-changed:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		select {
		case e.advance <- struct{}{}:
		case <-e.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
		return c.waitCommit(ctx, seq)
	}
}

// waitCommit waits for the executor to park again after seq, or to finish.
func (c *ControlledResult) waitCommit(ctx context.Context, seq uint64) error {
	for {
		st, cur, changed := c.el.watch()
		if st.IsTerminal() || (st == StateStepInMode && cur > seq) {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Steps advances up to n instructions and returns how many were granted.
func (c *ControlledResult) Steps(ctx context.Context, n int) (int, error) {
	for i := 0; i < n; i++ {
		if c.GetState().IsTerminal() {
			return i, nil
		}
		if err := c.StepIn(ctx); err != nil {
			return i, err
		}
	}
	return n, nil
}

var (
	_ Handle = (*Result)(nil)
	_ Handle = (*ControlledResult)(nil)
)
