package memory

import (
	"sync"

	icommon "armemu/internal/common"
	"armemu/internal/emu"
)

// ProcessHandle identifies a process to the MMU. It is never dereferenced.
type ProcessHandle uintptr

type physRange struct {
	start emu.Address
	end   emu.Address
}

// MMU maps process handles to contiguous [start,end) physical ranges.
type MMU struct {
	mu      sync.RWMutex
	mapping map[ProcessHandle]physRange
}

func NewMMU() *MMU {
	return &MMU{mapping: make(map[ProcessHandle]physRange)}
}

// AddProcess registers h with the range [start,end).
func (m *MMU) AddProcess(h ProcessHandle, start, end emu.Address) error {
	if start >= end {
		return icommon.NewErrorWithAddrMsg(emu.ErrSevError, emu.ErrInvalidPhysicalAccess, start, "empty process range")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.mapping[h]; ok {
		return icommon.Errorf(emu.ErrAlreadyTracked, "handle 0x%X", uintptr(h))
	}
	m.mapping[h] = physRange{start: start, end: end}
	return nil
}

// RemoveProcess forgets h.
func (m *MMU) RemoveProcess(h ProcessHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.mapping[h]; !ok {
		return icommon.Errorf(emu.ErrUntracked, "handle 0x%X", uintptr(h))
	}
	delete(m.mapping, h)
	return nil
}

// Translate relocates virtual address v of process h.
func (m *MMU) Translate(h ProcessHandle, v emu.Address) (emu.Address, error) {
	m.mu.RLock()
	r, ok := m.mapping[h]
	m.mu.RUnlock()
	if !ok {
		return 0, icommon.Errorf(emu.ErrUntracked, "handle 0x%X", uintptr(h))
	}
	if v >= r.end-r.start {
		return 0, icommon.NewErrorWithAddrMsg(emu.ErrSevError, emu.ErrInvalidPhysicalAccess, v, "outside process range")
	}
	return r.start + v, nil
}

// Range returns the physical range registered for h.
func (m *MMU) Range(h ProcessHandle) (start, end emu.Address, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.mapping[h]
	if !ok {
		return 0, 0, icommon.Errorf(emu.ErrUntracked, "handle 0x%X", uintptr(h))
	}
	return r.start, r.end, nil
}

func (m *MMU) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mapping)
}

// MMUProxy binds one process handle so callers need not repeat it. It is a
// Memory over the process's translated range of backing.
type MMUProxy struct {
	mmu     *MMU
	handle  ProcessHandle
	backing Memory
}

func NewMMUProxy(mmu *MMU, h ProcessHandle, backing Memory) *MMUProxy {
	return &MMUProxy{mmu: mmu, handle: h, backing: backing}
}

func (p *MMUProxy) Handle() ProcessHandle {
	return p.handle
}

func (p *MMUProxy) Translate(v emu.Address) (emu.Address, error) {
	return p.mmu.Translate(p.handle, v)
}

func (p *MMUProxy) translateRange(start, count emu.Address) (emu.Address, error) {
	phys, err := p.Translate(start)
	if err != nil {
		return 0, err
	}
	if count > 1 {
		if _, err := p.Translate(start + count - 1); err != nil {
			return 0, err
		}
	}
	return phys, nil
}

func (p *MMUProxy) Read(addr emu.Address) (emu.DataUnit, error) {
	phys, err := p.Translate(addr)
	if err != nil {
		return 0, err
	}
	return p.backing.Read(phys)
}

func (p *MMUProxy) ReadBlock(start, count emu.Address) ([]emu.DataUnit, error) {
	if count == 0 {
		return []emu.DataUnit{}, nil
	}
	phys, err := p.translateRange(start, count)
	if err != nil {
		return nil, err
	}
	return p.backing.ReadBlock(phys, count)
}

func (p *MMUProxy) Write(addr emu.Address, value emu.DataUnit) error {
	phys, err := p.Translate(addr)
	if err != nil {
		return err
	}
	return p.backing.Write(phys, value)
}

func (p *MMUProxy) WriteBlock(start emu.Address, data []emu.DataUnit) error {
	if len(data) == 0 {
		return nil
	}
	phys, err := p.translateRange(start, emu.Address(len(data)))
	if err != nil {
		return err
	}
	return p.backing.WriteBlock(phys, data)
}

// Size returns the length of the process range, or 0 if the handle is untracked.
func (p *MMUProxy) Size() emu.Address {
	start, end, err := p.mmu.Range(p.handle)
	if err != nil {
		return 0
	}
	return end - start
}

func (p *MMUProxy) Watcher() *Watcher {
	return p.backing.Watcher()
}
