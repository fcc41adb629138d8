// Package memory implements the word-addressed memory hierarchy: flat RAM,
// program memory, caches, access watchers and the process MMU.
package memory

import (
	"fmt"
	"sync"

	"armemu/common"
	icommon "armemu/internal/common"
	"armemu/internal/emu"
)

// Memory is a word-addressed storage level.
type Memory interface {
	// Read returns the unit at addr, or 0 if it was never written.
	Read(addr emu.Address) (emu.DataUnit, error)

	// ReadBlock returns count units starting at start, zero-filled past the backing store.
	ReadBlock(start, count emu.Address) ([]emu.DataUnit, error)

	// Write stores value at addr, growing the backing store if needed.
	Write(addr emu.Address, value emu.DataUnit) error

	// WriteBlock stores data starting at start.
	WriteBlock(start emu.Address, data []emu.DataUnit) error

	// Size returns the declared addressable size in units.
	Size() emu.Address

	// Watcher returns the access counters of this level.
	Watcher() *Watcher
}

// InitialAllocationCap bounds how many units a new memory pre-allocates.
const InitialAllocationCap emu.Address = 10 * 1024 / emu.DataUnitSize

var (
	ErrOutOfBounds            = icommon.NewError(emu.ErrSevError, emu.ErrOutOfBounds)
	ErrAlreadyTracked         = icommon.NewError(emu.ErrSevError, emu.ErrAlreadyTracked)
	ErrUntracked              = icommon.NewError(emu.ErrSevError, emu.ErrUntracked)
	ErrInvalidPhysicalAccess  = icommon.NewError(emu.ErrSevError, emu.ErrInvalidPhysicalAccess)
	ErrStrategyNotImplemented = icommon.NewError(emu.ErrSevError, emu.ErrStrategyUnsupported)
)

func outOfBounds(addr, size emu.Address) error {
	return icommon.NewErrorWithAddrMsg(emu.ErrSevError, emu.ErrOutOfBounds, addr,
		fmt.Sprintf("declared size is %d units", size))
}

// Option configures a memory level.
type Option func(*options)

type options struct {
	logger    common.Logger
	name      string
	lineSize  emu.Address
	writePol  WritePolicy
	mapPol    MappingPolicy
	noWatcher bool
}

func defaultOptions() options {
	return options{
		logger:   common.NewNoOpLogger(),
		lineSize: DefaultLineSize,
		writePol: WriteThrough,
		mapPol:   DirectMapping,
	}
}

// WithLogger sets the logger used by the memory level.
func WithLogger(logger common.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName names the memory level in logs.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithoutWatcher disables access counting.
func WithoutWatcher() Option {
	return func(o *options) { o.noWatcher = true }
}

// RandomAccessMemory is a flat, lazily grown backing store.
type RandomAccessMemory struct {
	mu      sync.RWMutex
	data    []emu.DataUnit
	size    emu.Address
	watcher *Watcher
	logger  common.Logger
}

// NewRandomAccessMemory declares a memory of size units.
func NewRandomAccessMemory(size emu.Address, opts ...Option) *RandomAccessMemory {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	initial := size
	if initial > InitialAllocationCap {
		initial = InitialAllocationCap
	}
	m := &RandomAccessMemory{
		data:   make([]emu.DataUnit, initial),
		size:   size,
		logger: common.Named(o.logger, nameOr(o.name, "ram")),
	}
	if !o.noWatcher {
		m.watcher = NewWatcher(HintRAM)
	}
	return m
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func (m *RandomAccessMemory) Read(addr emu.Address) (emu.DataUnit, error) {
	if addr >= m.size {
		return 0, outOfBounds(addr, m.size)
	}
	m.watcher.RecordRead()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if addr >= emu.Address(len(m.data)) {
		return 0, nil
	}
	return m.data[addr], nil
}

func (m *RandomAccessMemory) ReadBlock(start, count emu.Address) ([]emu.DataUnit, error) {
	if count == 0 {
		return []emu.DataUnit{}, nil
	}
	if start >= m.size || count > m.size-start {
		return nil, outOfBounds(start+count-1, m.size)
	}
	m.watcher.RecordReadBlock()

	out := make([]emu.DataUnit, count)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if backed := emu.Address(len(m.data)); start < backed {
		copy(out, m.data[start:min(start+count, backed)])
	}
	return out, nil
}

func (m *RandomAccessMemory) Write(addr emu.Address, value emu.DataUnit) error {
	if addr >= m.size {
		return outOfBounds(addr, m.size)
	}
	m.watcher.RecordWrite()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.growLocked(addr + 1)
	m.data[addr] = value
	return nil
}

func (m *RandomAccessMemory) WriteBlock(start emu.Address, data []emu.DataUnit) error {
	count := emu.Address(len(data))
	if count == 0 {
		return nil
	}
	if start >= m.size || count > m.size-start {
		return outOfBounds(start+count-1, m.size)
	}
	m.watcher.RecordWriteBlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.growLocked(start + count)
	copy(m.data[start:], data)
	return nil
}

// growLocked extends the backing store to at least n units. It never shrinks.
func (m *RandomAccessMemory) growLocked(n emu.Address) {
	if n <= emu.Address(len(m.data)) {
		return
	}
	if n <= emu.Address(cap(m.data)) {
		m.data = m.data[:n]
		return
	}
	grown := make([]emu.DataUnit, n, max(n, 2*emu.Address(len(m.data))))
	copy(grown, m.data)
	m.data = grown
	m.logger.Logf(common.SeverityDebug, "backing store grown to %d units", n)
}

func (m *RandomAccessMemory) Size() emu.Address {
	return m.size
}

// Backed returns how many units are physically allocated.
func (m *RandomAccessMemory) Backed() emu.Address {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return emu.Address(len(m.data))
}

func (m *RandomAccessMemory) Watcher() *Watcher {
	return m.watcher
}
