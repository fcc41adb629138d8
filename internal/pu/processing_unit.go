// Package pu implements the A64 processing unit: the register file, process
// state and the execution loop that runs programs against a memory hierarchy.
package pu

import (
	"errors"
	"fmt"
	"sync"

	"armemu/common"
	icommon "armemu/internal/common"
	"armemu/internal/emu"
	"armemu/internal/idec"
	"armemu/internal/memory"
	"armemu/internal/program"
	"armemu/internal/result"
)

// DefaultStackSize is the stack reserved at the top of the data memory
// window when no WithStackSize option is given.
var DefaultStackSize = emu.KB(1)

var (
	ErrInterrupted = icommon.NewErrorMsg(emu.ErrSevWarn, emu.ErrInterrupted, "processing unit stopped")
	ErrClosed      = icommon.NewErrorMsg(emu.ErrSevWarn, emu.ErrClosed, "processing unit closed")
	ErrRunning     = icommon.NewError(emu.ErrSevError, emu.ErrProcessRunning)
)

// Option configures a ProcessingUnit.
type Option func(*options)

type options struct {
	name      string
	logger    common.Logger
	stackSize emu.Address
	watcher   *Watcher
}

func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func WithLogger(logger common.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStackSize sets the stack size in data units.
func WithStackSize(units emu.Address) Option {
	return func(o *options) { o.stackSize = units }
}

// WithWatcher records execution statistics into w instead of a private
// watcher.
func WithWatcher(w *Watcher) Option {
	return func(o *options) { o.watcher = w }
}

// clearer is implemented by cache levels that can drop their lines.
type clearer interface {
	ClearCache()
}

type request struct {
	prog program.Program
	el   *result.Element
}

// ProcessingUnit executes queued programs one at a time on a single worker
// goroutine. Run and StepIn return immediately; the returned handle tracks
// the program.
type ProcessingUnit struct {
	name      string
	logger    common.Logger
	upstream  memory.Memory
	stackSize emu.Address
	watcher   *Watcher
	decoders  *idec.Decoders

	// stop is the unit-wide cancellation token set by Stop.
	stop *result.Interrupt

	mu      sync.Mutex
	status  emu.ProcessStatus
	queue   []*request
	current *request
	ps      ProcessState
	closed  bool

	wake chan struct{}
	quit chan struct{}
	wg   sync.WaitGroup
}

// New creates a processing unit whose loads and stores go to upstream.
func New(upstream memory.Memory, opts ...Option) (*ProcessingUnit, error) {
	o := options{
		name:      "pu",
		logger:    common.NewNoOpLogger(),
		stackSize: DefaultStackSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if upstream == nil {
		return nil, icommon.NewErrorMsg(emu.ErrSevError, emu.ErrInvalidSettings, "processing unit needs a data memory")
	}
	if o.stackSize == 0 || o.stackSize > upstream.Size() {
		return nil, icommon.Errorf(emu.ErrInvalidSettings, "stack size %d does not fit a %d unit memory", o.stackSize, upstream.Size())
	}
	if o.watcher == nil {
		o.watcher = NewWatcher()
	}

	pu := &ProcessingUnit{
		name:      o.name,
		logger:    common.Named(o.logger, o.name),
		upstream:  upstream,
		stackSize: o.stackSize,
		watcher:   o.watcher,
		decoders:  idec.DefaultDecoders(),
		stop:      result.NewInterrupt(),
		status:    emu.StatusIdle,
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
	}
	pu.ps.EL = emu.EL0
	pu.wg.Add(1)
	go pu.loop()
	return pu, nil
}

func (pu *ProcessingUnit) Name() string {
	return pu.name
}

// Run queues prog for execution to completion.
func (pu *ProcessingUnit) Run(prog program.Program) *result.Result {
	el := result.NewElement(false)
	pu.submit(prog, el)
	return result.NewResult(el)
}

// StepIn queues prog for lock-step execution driven by the returned handle.
func (pu *ProcessingUnit) StepIn(prog program.Program) *result.ControlledResult {
	el := result.NewElement(true)
	pu.submit(prog, el)
	return result.NewControlledResult(el)
}

func (pu *ProcessingUnit) submit(prog program.Program, el *result.Element) {
	if err := validate(prog); err != nil {
		el.Finish(result.StateInterrupted, result.ResultFrame{}, err)
		return
	}

	pu.mu.Lock()
	if pu.closed {
		pu.mu.Unlock()
		el.Finish(result.StateInterrupted, result.ResultFrame{}, ErrClosed)
		return
	}
	pu.queue = append(pu.queue, &request{prog: prog, el: el})
	pu.mu.Unlock()

	select {
	case pu.wake <- struct{}{}:
	default:
	}
}

func validate(prog program.Program) error {
	if prog.Empty() || prog.Size() == 0 {
		return icommon.NewErrorMsg(emu.ErrSevError, emu.ErrBadProgram, "empty program")
	}
	if prog.Entry >= prog.Size() {
		return icommon.Errorf(emu.ErrBadProgram, "entry %d outside a %d word program", prog.Entry, prog.Size())
	}
	return nil
}

func (pu *ProcessingUnit) loop() {
	defer pu.wg.Done()
	for {
		req, ok := pu.next()
		if !ok {
			return
		}
		pu.execute(req)
	}
}

// next pops the oldest queued request, blocking until one arrives or the
// unit closes.
func (pu *ProcessingUnit) next() (*request, bool) {
	for {
		pu.mu.Lock()
		if pu.closed {
			pu.mu.Unlock()
			return nil, false
		}
		if len(pu.queue) > 0 {
			req := pu.queue[0]
			pu.queue[0] = nil
			pu.queue = pu.queue[1:]
			if pu.stop.IsTriggered() {
				pu.status = emu.StatusInterrupted
				pu.mu.Unlock()
				pu.drop(req, ErrInterrupted)
				continue
			}
			pu.current = req
			pu.status = emu.StatusRunning
			pu.mu.Unlock()
			return req, true
		}
		pu.mu.Unlock()

		select {
		case <-pu.wake:
		case <-pu.quit:
			return nil, false
		}
	}
}

func (pu *ProcessingUnit) execute(req *request) {
	el := req.el
	m := newMachine(pu.upstream, req.prog.Memory, req.prog.Entry, pu.stackSize)
	pu.publish(m)

	if pu.stop.IsTriggered() {
		pu.interrupt(req, m, ErrInterrupted)
		return
	}
	if el.Stepping() {
		el.Signal(result.StateWaiting)
	} else {
		el.Signal(result.StateRunning)
	}
	pu.logger.Info(fmt.Sprintf("starting %d word program at entry %d", req.prog.Size(), req.prog.Entry))

	size := uint64(req.prog.Size())
	for {
		if m.regs.PC >= size {
			pu.complete(req, m)
			return
		}

		if el.Stepping() {
			if !el.Park(m.frame(), pu.stop.Done()) {
				pu.interrupt(req, m, ErrInterrupted)
				return
			}
		} else if el.Interrupt().IsTriggered() || pu.stop.IsTriggered() {
			pu.interrupt(req, m, ErrInterrupted)
			return
		}

		if err := pu.execOne(m, req.prog.Memory); err != nil {
			pu.fault(req, m, err)
			return
		}
		pu.publish(m)
		if !el.Stepping() {
			el.Commit(m.frame())
		}
	}
}

// execOne fetches, decodes and executes the instruction at PC.
func (pu *ProcessingUnit) execOne(m *machine, code memory.Memory) error {
	pc := m.regs.PC
	word, err := code.Read(emu.Address(pc))
	if err != nil {
		return err
	}
	d, err := pu.decoders.Decode(idec.Instruction(word))
	if err != nil {
		return withAddr(err, pc)
	}
	pu.logger.Debug(fmt.Sprintf("executing %s as %s from %s group", d.Inst.Bits(), d.Class, d.Group))
	if err := m.step(d); err != nil {
		return withAddr(err, pc)
	}
	pu.watcher.RecordInstruction(d.Class)
	return nil
}

// withAddr attaches the faulting PC to an emulator error that has none.
func withAddr(err error, pc uint64) error {
	var e *icommon.Error
	if !errors.As(err, &e) || e.Addr != emu.BadAddress {
		return err
	}
	cp := *e
	cp.Addr = emu.Address(pc)
	return &cp
}

func (pu *ProcessingUnit) publish(m *machine) {
	pu.mu.Lock()
	pu.ps = m.ps
	pu.mu.Unlock()
}

// complete and finishInterrupted settle the unit before finishing the
// element, so a caller woken by the result observes the final status.
func (pu *ProcessingUnit) complete(req *request, m *machine) {
	pu.watcher.RecordProcessHandled()
	pu.logger.Info(fmt.Sprintf("program finished, PC=0x%x", m.regs.PC))
	pu.settle(req, emu.StatusIdle)
	req.el.Finish(result.StateReady, m.frame(), nil)
}

func (pu *ProcessingUnit) fault(req *request, m *machine, err error) {
	pu.logger.Warning(fmt.Sprintf("program interrupted at PC=0x%x: %v", m.regs.PC, err))
	pu.finishInterrupted(req, m, err)
}

func (pu *ProcessingUnit) interrupt(req *request, m *machine, err error) {
	pu.logger.Info(fmt.Sprintf("program stopped at PC=0x%x", m.regs.PC))
	pu.finishInterrupted(req, m, err)
}

func (pu *ProcessingUnit) finishInterrupted(req *request, m *machine, err error) {
	pu.watcher.RecordProcessHandled()
	pu.watcher.RecordProcessInterrupted()
	pu.settle(req, emu.StatusInterrupted)
	req.el.Finish(result.StateInterrupted, m.frame(), err)
}

// drop finishes a request that never started, counting it like any other
// interrupted program.
func (pu *ProcessingUnit) drop(req *request, err error) {
	pu.watcher.RecordProcessHandled()
	pu.watcher.RecordProcessInterrupted()
	req.el.Finish(result.StateInterrupted, result.ResultFrame{}, err)
}

func (pu *ProcessingUnit) settle(req *request, status emu.ProcessStatus) {
	pu.mu.Lock()
	defer pu.mu.Unlock()
	if pu.current == req {
		pu.current = nil
	}
	if pu.stop.IsTriggered() {
		status = emu.StatusInterrupted
	}
	pu.status = status
}

// Stop interrupts the running program and every queued one. Programs
// submitted afterwards are interrupted as well until Reset.
func (pu *ProcessingUnit) Stop() {
	pu.stop.Trigger()

	pu.mu.Lock()
	queued := pu.queue
	pu.queue = nil
	if pu.current != nil {
		pu.current.el.Interrupt().Trigger()
	} else {
		pu.status = emu.StatusInterrupted
	}
	pu.mu.Unlock()

	for _, req := range queued {
		pu.drop(req, ErrInterrupted)
	}
	pu.logger.Info("stop requested")
}

// Reset clears a previous Stop, drops the lines of a cache data memory and
// returns the unit to Idle. It fails while a program is running.
func (pu *ProcessingUnit) Reset() error {
	pu.mu.Lock()
	defer pu.mu.Unlock()
	if pu.closed {
		return ErrClosed
	}
	if pu.status == emu.StatusRunning {
		return ErrRunning
	}
	pu.stop.Reset()
	if c, ok := pu.upstream.(clearer); ok {
		c.ClearCache()
	}
	pu.status = emu.StatusIdle
	pu.ps = ProcessState{EL: emu.EL0}
	return nil
}

// Close stops the unit, tears down every outstanding result and waits for
// the worker goroutine to exit. It is safe to call more than once.
func (pu *ProcessingUnit) Close() {
	pu.mu.Lock()
	if pu.closed {
		pu.mu.Unlock()
		return
	}
	pu.closed = true
	queued := pu.queue
	pu.queue = nil
	current := pu.current
	pu.mu.Unlock()

	pu.stop.Trigger()
	for _, req := range queued {
		pu.drop(req, ErrClosed)
	}
	if current != nil {
		current.el.Close()
	}
	close(pu.quit)
	pu.wg.Wait()
	pu.logger.Info("closed")
}

func (pu *ProcessingUnit) Status() emu.ProcessStatus {
	pu.mu.Lock()
	defer pu.mu.Unlock()
	return pu.status
}

// GetCurrentProcessState returns the process state as of the last executed
// instruction.
func (pu *ProcessingUnit) GetCurrentProcessState() ProcessState {
	pu.mu.Lock()
	defer pu.mu.Unlock()
	return pu.ps
}

func (pu *ProcessingUnit) Watcher() *Watcher {
	return pu.watcher
}

// StackSize returns the stack size in data units.
func (pu *ProcessingUnit) StackSize() emu.Address {
	return pu.stackSize
}

// Memory returns the data memory the unit loads from and stores to.
func (pu *ProcessingUnit) Memory() memory.Memory {
	return pu.upstream
}

// Pending returns the number of queued programs, excluding the running one.
func (pu *ProcessingUnit) Pending() int {
	pu.mu.Lock()
	defer pu.mu.Unlock()
	return len(pu.queue)
}
