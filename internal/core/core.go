// Package core assembles processing units and caches into cores, and cores
// into a module sharing one memory hierarchy.
package core

import (
	"armemu/common"
	"armemu/internal/config"
	"armemu/internal/memory"
	"armemu/internal/program"
	"armemu/internal/pu"
	"armemu/internal/result"
)

// Option configures a Core or a Module.
type Option func(*options)

type options struct {
	logger     common.Logger
	dispatcher Dispatcher
	mmu        *memory.MMU
	process    memory.ProcessHandle
}

func defaultOptions() options {
	return options{
		logger:     common.NewNoOpLogger(),
		dispatcher: FirstCoreDispatcher{},
	}
}

func WithLogger(logger common.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDispatcher selects the core each module request runs on.
func WithDispatcher(d Dispatcher) Option {
	return func(o *options) {
		if d != nil {
			o.dispatcher = d
		}
	}
}

// WithAddressSpace confines a core's loads and stores to the range the MMU
// holds for h.
func WithAddressSpace(mmu *memory.MMU, h memory.ProcessHandle) Option {
	return func(o *options) {
		o.mmu = mmu
		o.process = h
	}
}

// Core is one processing unit with a private L1 cache.
type Core struct {
	name  string
	cache *memory.CacheMemory
	data  memory.Memory
	unit  *pu.ProcessingUnit
}

// NewCore builds an L1 cache of settings.L1Size over upstream and a
// processing unit that loads and stores through it.
func NewCore(name string, upstream memory.Memory, settings config.SystemSettings, opts ...Option) (*Core, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	l1, err := memory.NewCacheMemory(upstream, settings.L1Size,
		memory.WithName(name+".l1"),
		memory.WithLineSize(settings.CacheLineSize),
		memory.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	var data memory.Memory = l1
	if o.mmu != nil {
		data = memory.NewMMUProxy(o.mmu, o.process, l1)
	}
	unit, err := pu.New(data,
		pu.WithName(name+".pu"),
		pu.WithStackSize(settings.StackSize),
		pu.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return &Core{name: name, cache: l1, data: data, unit: unit}, nil
}

func (c *Core) Name() string {
	return c.name
}

func (c *Core) Run(p program.Program) *result.Result {
	return c.unit.Run(p)
}

func (c *Core) StepIn(p program.Program) *result.ControlledResult {
	return c.unit.StepIn(p)
}

func (c *Core) Stop() {
	c.unit.Stop()
}

// Reset clears a stop and the L1 contents.
func (c *Core) Reset() error {
	if err := c.unit.Reset(); err != nil {
		return err
	}
	c.cache.ClearCache()
	return nil
}

func (c *Core) Cache() *memory.CacheMemory {
	return c.cache
}

// Memory is the data memory the processing unit sees.
func (c *Core) Memory() memory.Memory {
	return c.data
}

func (c *Core) ProcessingUnit() *pu.ProcessingUnit {
	return c.unit
}

// Close shuts the processing unit down before invalidating the cache it
// loads through.
func (c *Core) Close() {
	c.unit.Close()
	c.cache.ClearCache()
}
