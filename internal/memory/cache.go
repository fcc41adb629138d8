package memory

import (
	"fmt"
	"math/bits"
	"sync"

	"armemu/common"
	icommon "armemu/internal/common"
	"armemu/internal/emu"
)

// WritePolicy decides when writes reach the upstream level.
type WritePolicy int

const (
	WriteThrough WritePolicy = iota
	WriteBack
)

func (p WritePolicy) String() string {
	switch p {
	case WriteThrough:
		return "WriteThrough"
	case WriteBack:
		return "WriteBack"
	default:
		return "Unknown"
	}
}

// MappingPolicy decides which cache line an address may occupy.
type MappingPolicy int

const (
	DirectMapping MappingPolicy = iota
	FullyAssociative
	SetAssociative
)

func (p MappingPolicy) String() string {
	switch p {
	case DirectMapping:
		return "DirectMapping"
	case FullyAssociative:
		return "FullyAssociative"
	case SetAssociative:
		return "SetAssociative"
	default:
		return "Unknown"
	}
}

// Strategy is one point of the cache policy space.
type Strategy struct {
	Write   WritePolicy
	Mapping MappingPolicy
}

func (s Strategy) String() string {
	return s.Write.String() + "/" + s.Mapping.String()
}

// StrategySupport reports whether a declared strategy has an implementation.
type StrategySupport struct {
	Strategy    Strategy
	Implemented bool
}

// DefaultLineSize is the cache line size in units.
const DefaultLineSize emu.Address = 4

// SupportedStrategies lists every declared strategy.
func SupportedStrategies() []StrategySupport {
	var out []StrategySupport
	for _, w := range []WritePolicy{WriteThrough, WriteBack} {
		for _, m := range []MappingPolicy{DirectMapping, FullyAssociative, SetAssociative} {
			s := Strategy{Write: w, Mapping: m}
			out = append(out, StrategySupport{Strategy: s, Implemented: s.implemented()})
		}
	}
	return out
}

func (s Strategy) implemented() bool {
	return s.Write == WriteThrough && s.Mapping == DirectMapping
}

// WithStrategy selects the write and mapping policy of a cache.
func WithStrategy(w WritePolicy, m MappingPolicy) Option {
	return func(o *options) {
		o.writePol = w
		o.mapPol = m
	}
}

// WithLineSize sets the cache line size in units. It must be a power of two.
func WithLineSize(n emu.Address) Option {
	return func(o *options) { o.lineSize = n }
}

type cacheLine struct {
	valid bool
	tag   emu.Address
	data  []emu.DataUnit
}

// CacheMemory is a transparent cache level in front of an upstream Memory.
// The upstream is borrowed; its lifetime is managed by the owner of both.
type CacheMemory struct {
	mu       sync.Mutex
	upstream Memory
	lines    []cacheLine
	lineSize emu.Address
	size     emu.Address
	strategy Strategy
	watcher  *Watcher
	logger   common.Logger
}

// NewCacheMemory builds a cache of size units over upstream.
func NewCacheMemory(upstream Memory, size emu.Address, opts ...Option) (*CacheMemory, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	strategy := Strategy{Write: o.writePol, Mapping: o.mapPol}
	if !strategy.implemented() {
		return nil, icommon.Errorf(emu.ErrStrategyUnsupported, "%s", strategy)
	}
	if upstream == nil {
		return nil, icommon.Errorf(emu.ErrInvalidSettings, "cache needs an upstream memory")
	}
	if o.lineSize == 0 || bits.OnesCount64(uint64(o.lineSize)) != 1 {
		return nil, icommon.Errorf(emu.ErrInvalidSettings, "line size %d is not a power of two", o.lineSize)
	}
	if size < o.lineSize || size%o.lineSize != 0 {
		return nil, icommon.Errorf(emu.ErrInvalidSettings, "cache size %d is not a multiple of line size %d", size, o.lineSize)
	}

	c := &CacheMemory{
		upstream: upstream,
		lines:    make([]cacheLine, size/o.lineSize),
		lineSize: o.lineSize,
		size:     size,
		strategy: strategy,
		logger:   common.Named(o.logger, nameOr(o.name, "cache")),
	}
	for i := range c.lines {
		c.lines[i].data = make([]emu.DataUnit, o.lineSize)
	}
	if !o.noWatcher {
		c.watcher = NewWatcher(HintCache)
	}
	return c, nil
}

// locate splits addr into line index, tag and offset within the line.
func (c *CacheMemory) locate(addr emu.Address) (idx int, tag, offset emu.Address) {
	numLines := emu.Address(len(c.lines))
	idx = int((addr / c.lineSize) % numLines)
	tag = addr / (c.lineSize * numLines)
	offset = addr % c.lineSize
	return idx, tag, offset
}

// lookupLocked returns the line holding addr, filling it from upstream on a miss.
func (c *CacheMemory) lookupLocked(addr emu.Address) (*cacheLine, emu.Address, error) {
	idx, tag, offset := c.locate(addr)
	line := &c.lines[idx]
	if line.valid && line.tag == tag {
		c.watcher.RecordHit()
		return line, offset, nil
	}

	c.watcher.RecordMiss()
	base := addr - offset
	count := min(c.lineSize, c.upstream.Size()-base)
	c.watcher.RecordUpStreamReadBlock()
	block, err := c.upstream.ReadBlock(base, count)
	if err != nil {
		line.valid = false
		return nil, 0, err
	}
	clear(line.data)
	copy(line.data, block)
	line.valid = true
	line.tag = tag
	return line, offset, nil
}

func (c *CacheMemory) checkRange(start, count emu.Address) error {
	size := c.upstream.Size()
	if start >= size || count > size-start {
		return outOfBounds(start+count-1, size)
	}
	return nil
}

func (c *CacheMemory) Read(addr emu.Address) (emu.DataUnit, error) {
	if err := c.checkRange(addr, 1); err != nil {
		return 0, err
	}
	c.watcher.RecordRead()

	c.mu.Lock()
	defer c.mu.Unlock()
	line, offset, err := c.lookupLocked(addr)
	if err != nil {
		return 0, err
	}
	return line.data[offset], nil
}

func (c *CacheMemory) ReadBlock(start, count emu.Address) ([]emu.DataUnit, error) {
	if count == 0 {
		return []emu.DataUnit{}, nil
	}
	if err := c.checkRange(start, count); err != nil {
		return nil, err
	}
	c.watcher.RecordReadBlock()

	out := make([]emu.DataUnit, count)
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range out {
		line, offset, err := c.lookupLocked(start + emu.Address(i))
		if err != nil {
			return nil, err
		}
		out[i] = line.data[offset]
	}
	return out, nil
}

// Write allocates the line on a miss, updates it, then writes through to upstream.
func (c *CacheMemory) Write(addr emu.Address, value emu.DataUnit) error {
	if err := c.checkRange(addr, 1); err != nil {
		return err
	}
	c.watcher.RecordWrite()

	c.mu.Lock()
	defer c.mu.Unlock()
	line, offset, err := c.lookupLocked(addr)
	if err != nil {
		return err
	}
	line.data[offset] = value

	c.watcher.RecordUpStreamWrite()
	if err := c.upstream.Write(addr, value); err != nil {
		line.valid = false
		return err
	}
	return nil
}

func (c *CacheMemory) WriteBlock(start emu.Address, data []emu.DataUnit) error {
	count := emu.Address(len(data))
	if count == 0 {
		return nil
	}
	if err := c.checkRange(start, count); err != nil {
		return err
	}
	c.watcher.RecordWriteBlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	touched := make([]*cacheLine, 0, len(data))
	for i, v := range data {
		line, offset, err := c.lookupLocked(start + emu.Address(i))
		if err != nil {
			return err
		}
		line.data[offset] = v
		touched = append(touched, line)
	}

	c.watcher.RecordUpStreamWriteBlock()
	if err := c.upstream.WriteBlock(start, data); err != nil {
		for _, line := range touched {
			line.valid = false
		}
		return err
	}
	return nil
}

// ClearCache invalidates every line. Upstream data is untouched.
func (c *CacheMemory) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.lines {
		c.lines[i].valid = false
	}
	c.logger.Debug("cache cleared")
}

// Size returns the upstream's declared size; a cache is transparent in the address space.
func (c *CacheMemory) Size() emu.Address {
	return c.upstream.Size()
}

// CacheSize returns the cache capacity in units.
func (c *CacheMemory) CacheSize() emu.Address {
	return c.size
}

func (c *CacheMemory) LineSize() emu.Address {
	return c.lineSize
}

func (c *CacheMemory) Strategy() Strategy {
	return c.strategy
}

func (c *CacheMemory) Upstream() Memory {
	return c.upstream
}

func (c *CacheMemory) Watcher() *Watcher {
	return c.watcher
}

func (c *CacheMemory) String() string {
	return fmt.Sprintf("Cache: %d units; Line: %d units; Strategy: %s", c.size, c.lineSize, c.strategy)
}
