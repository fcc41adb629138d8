package pu

import (
	icommon "armemu/internal/common"
	"armemu/internal/emu"
	"armemu/internal/idec"
	"armemu/internal/memory"
	"armemu/internal/result"
)

// machine is the architectural state of one executing program.
type machine struct {
	regs Registers
	ps   ProcessState

	// data is the load/store memory; code holds the program image and serves
	// PC-relative literal loads.
	data memory.Memory
	code memory.Memory

	// branched is set by a handler that assigned PC.
	branched bool
}

func newMachine(data, code memory.Memory, entry emu.Address, stackSize emu.Address) *machine {
	m := &machine{data: data, code: code}
	m.regs.PC = uint64(entry)
	if stackSize > 0 {
		m.regs.SP = uint64(stackSize - 1)
	}
	m.regs.X[30] = emu.ReturnAddress
	m.ps.EL = emu.EL0
	return m
}

func (m *machine) frame() result.ResultFrame {
	return result.ResultFrame{
		X:    m.regs.X,
		PC:   m.regs.PC,
		SP:   m.regs.SP,
		NZCV: m.ps.NZCV(),
		EL:   m.ps.EL,
	}
}

// branchTo assigns PC and suppresses the sequential advance.
func (m *machine) branchTo(target uint64) {
	m.regs.PC = target
	m.branched = true
}

// relative returns the current PC displaced by a signed instruction count.
func (m *machine) relative(offset int64) uint64 {
	return m.regs.PC + uint64(offset)
}

// step executes one decoded instruction and advances PC unless it branched.
func (m *machine) step(d idec.Decoded) error {
	m.branched = false

	var err error
	switch d.Group {
	case idec.GroupDataProcessingImmediate:
		err = m.execDataProcessingImmediate(d)
	case idec.GroupBranchExceptionSystem:
		err = m.execBranchExceptionSystem(d)
	case idec.GroupDataProcessingRegister:
		err = m.execDataProcessingRegister(d)
	case idec.GroupLoadStore:
		err = m.execLoadStore(d)
	case idec.GroupReserved:
		err = icommon.NewErrorWithAddrMsg(emu.ErrSevError, emu.ErrUndefinedInstruction, emu.Address(m.regs.PC), "permanently undefined "+d.Inst.String())
	default:
		err = notImplemented(d)
	}
	if err != nil {
		return err
	}
	if !m.branched {
		m.regs.PC++
	}
	return nil
}

func notImplemented(d idec.Decoded) error {
	return icommon.Errorf(emu.ErrNotImplemented, "%s", d)
}

func undefinedBehaviour(d idec.Decoded, why string) error {
	return icommon.Errorf(emu.ErrUndefinedBehaviour, "%s: %s", d, why)
}

func field(d idec.Decoded, t idec.Tag) uint32 {
	return idec.Get(d.Inst, t).Value
}

func flag(d idec.Decoded, t idec.Tag) bool {
	return idec.Get(d.Inst, t).Bool()
}
