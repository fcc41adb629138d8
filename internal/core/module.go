package core

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"armemu/common"
	icommon "armemu/internal/common"
	"armemu/internal/config"
	"armemu/internal/emu"
	"armemu/internal/memory"
	"armemu/internal/program"
	"armemu/internal/result"
)

var ErrClosed = icommon.NewErrorMsg(emu.ErrSevWarn, emu.ErrClosed, "module closed")

// Dispatcher picks the index of the core that runs p.
type Dispatcher interface {
	Pick(cores []*Core, p program.Program) int
}

// FirstCoreDispatcher sends every program to core 0.
type FirstCoreDispatcher struct{}

func (FirstCoreDispatcher) Pick([]*Core, program.Program) int {
	return 0
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(cores []*Core, p program.Program) int

func (f DispatcherFunc) Pick(cores []*Core, p program.Program) int {
	return f(cores, p)
}

// Module is a set of cores over a shared L2, L3 and RAM. RAM is split into
// equal windows, one per core, through an MMU. At most
// Cores*ThreadsPerCore programs are admitted at once; further Run and StepIn
// calls block until a slot frees or their context ends.
type Module struct {
	settings   config.SystemSettings
	logger     common.Logger
	dispatcher Dispatcher

	ram   *memory.RandomAccessMemory
	mmu   *memory.MMU
	l3    *memory.CacheMemory
	l2    *memory.CacheMemory
	cores []*Core

	slots *semaphore.Weighted

	mu          sync.Mutex
	outstanding map[*result.Element]struct{}
	closed      bool
}

// NewModule validates settings and builds RAM, the shared caches and the
// cores.
func NewModule(settings config.SystemSettings, opts ...Option) (*Module, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	window := settings.RAMSize / emu.Address(settings.Cores)
	if settings.StackSize > window {
		return nil, icommon.Errorf(emu.ErrInvalidSettings, "stack size %d exceeds the %d unit window of each core", settings.StackSize, window)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	m := &Module{
		settings:    settings,
		logger:      common.Named(o.logger, "module"),
		dispatcher:  o.dispatcher,
		mmu:         memory.NewMMU(),
		slots:       semaphore.NewWeighted(int64(settings.Slots())),
		outstanding: make(map[*result.Element]struct{}),
	}
	m.ram = memory.NewRandomAccessMemory(settings.RAMSize, memory.WithName("ram"), memory.WithLogger(o.logger))

	var err error
	m.l3, err = memory.NewCacheMemory(m.ram, settings.L3Size,
		memory.WithName("l3"), memory.WithLineSize(settings.CacheLineSize), memory.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	m.l2, err = memory.NewCacheMemory(m.l3, settings.L2Size,
		memory.WithName("l2"), memory.WithLineSize(settings.CacheLineSize), memory.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	for i := 0; i < settings.Cores; i++ {
		h := memory.ProcessHandle(i + 1)
		start := emu.Address(i) * window
		if err := m.mmu.AddProcess(h, start, start+window); err != nil {
			m.Close()
			return nil, err
		}
		c, err := NewCore(fmt.Sprintf("core%d", i), m.l2, settings,
			WithLogger(o.logger), WithAddressSpace(m.mmu, h))
		if err != nil {
			m.Close()
			return nil, err
		}
		m.cores = append(m.cores, c)
	}
	m.logger.Info("built " + settings.String())
	return m, nil
}

func (m *Module) pick(p program.Program) (*Core, error) {
	i := m.dispatcher.Pick(m.cores, p)
	if i < 0 || i >= len(m.cores) {
		return nil, icommon.Errorf(emu.ErrInvalidSettings, "dispatcher picked core %d of %d", i, len(m.cores))
	}
	return m.cores[i], nil
}

// admit takes an execution slot and the target core.
func (m *Module) admit(ctx context.Context, p program.Program) (*Core, error) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	c, err := m.pick(p)
	if err != nil {
		return nil, err
	}
	if err := m.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return c, nil
}

// track holds el until it reaches a terminal state, then frees its slot. Only
// the element is retained, so a caller dropping its handle still releases
// the slot.
func (m *Module) track(el *result.Element) {
	m.mu.Lock()
	m.outstanding[el] = struct{}{}
	m.mu.Unlock()

	go func() {
		<-el.Done()
		m.mu.Lock()
		delete(m.outstanding, el)
		m.mu.Unlock()
		m.slots.Release(1)
	}()
}

// Run admits p and runs it to completion on the dispatched core.
func (m *Module) Run(ctx context.Context, p program.Program) (*result.Result, error) {
	c, err := m.admit(ctx, p)
	if err != nil {
		return nil, err
	}
	r := c.Run(p)
	m.track(r.Element())
	return r, nil
}

// StepIn admits p for lock-step execution on the dispatched core.
func (m *Module) StepIn(ctx context.Context, p program.Program) (*result.ControlledResult, error) {
	c, err := m.admit(ctx, p)
	if err != nil {
		return nil, err
	}
	cr := c.StepIn(p)
	m.track(cr.Element())
	return cr, nil
}

// Outstanding returns the number of admitted programs not yet finished.
func (m *Module) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outstanding)
}

// WaitAll blocks until every outstanding program reaches a terminal state.
func (m *Module) WaitAll(ctx context.Context) error {
	m.mu.Lock()
	pending := make([]*result.Element, 0, len(m.outstanding))
	for el := range m.outstanding {
		pending = append(pending, el)
	}
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, el := range pending {
		g.Go(func() error {
			select {
			case <-el.Done():
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	return g.Wait()
}

// Stop interrupts every core.
func (m *Module) Stop() {
	for _, c := range m.cores {
		c.Stop()
	}
}

// Reset resets every core after a Stop.
func (m *Module) Reset() error {
	for _, c := range m.cores {
		if err := c.Reset(); err != nil {
			return fmt.Errorf("%s: %w", c.Name(), err)
		}
	}
	return nil
}

// Close tears the cores down in reverse order, then the shared caches.
func (m *Module) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	for i := len(m.cores) - 1; i >= 0; i-- {
		m.cores[i].Close()
	}
	if m.l2 != nil {
		m.l2.ClearCache()
	}
	if m.l3 != nil {
		m.l3.ClearCache()
	}
	m.logger.Info("closed")
}

func (m *Module) Settings() config.SystemSettings {
	return m.settings
}

func (m *Module) MMU() *memory.MMU {
	return m.mmu
}

func (m *Module) RAM() *memory.RandomAccessMemory {
	return m.ram
}

func (m *Module) Cores() []*Core {
	return m.cores
}

// SharedCaches returns L2 then L3.
func (m *Module) SharedCaches() []*memory.CacheMemory {
	return []*memory.CacheMemory{m.l2, m.l3}
}
