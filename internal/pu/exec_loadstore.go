package pu

import (
	"armemu/internal/emu"
	"armemu/internal/idec"
	"armemu/internal/memory"
)

// access describes the transfer of one load/store operation. Offsets are
// scaled by the byte size of the element and the resulting address indexes
// data units directly.
type access struct {
	size   uint // log2 of the element size in bytes
	load   bool
	signed bool
}

var accesses = map[idec.Op]access{
	idec.OpSTRB:  {size: 0},
	idec.OpLDRB:  {size: 0, load: true},
	idec.OpSTRH:  {size: 1},
	idec.OpLDRH:  {size: 1, load: true},
	idec.OpSTR32: {size: 2},
	idec.OpLDR32: {size: 2, load: true},
	idec.OpLDRSW: {size: 2, load: true, signed: true},
	idec.OpSTR64: {size: 3},
	idec.OpLDR64: {size: 3, load: true},
	idec.OpSTP32: {size: 2},
	idec.OpLDP32: {size: 2, load: true},
	idec.OpSTP64: {size: 3},
	idec.OpLDP64: {size: 3, load: true},
}

func (m *machine) execLoadStore(d idec.Decoded) error {
	acc, ok := accesses[d.Op]
	if !ok {
		return notImplemented(d)
	}
	switch d.Class {
	case idec.ClassLoadStoreUnsignedImmediate:
		offset := uint64(field(d, idec.Imm12)) << acc.size
		return m.transferIndexed(d, acc, offset, false, false)
	case idec.ClassLoadStoreUnscaledImmediate:
		return m.transferIndexed(d, acc, imm9(d), false, false)
	case idec.ClassLoadStoreImmediatePostIndexed:
		return m.transferIndexed(d, acc, imm9(d), true, true)
	case idec.ClassLoadStoreImmediatePreIndexed:
		return m.transferIndexed(d, acc, imm9(d), true, false)
	case idec.ClassLoadStoreRegisterOffset:
		return m.transferRegisterOffset(d, acc)
	case idec.ClassLoadRegisterLiteral:
		return m.loadLiteral(d, acc)
	case idec.ClassLoadStorePairOffset:
		return m.transferPair(d, acc, false, false)
	case idec.ClassLoadStorePairPostIndexed:
		return m.transferPair(d, acc, true, true)
	case idec.ClassLoadStorePairPreIndexed:
		return m.transferPair(d, acc, true, false)
	}
	return notImplemented(d)
}

func imm9(d idec.Decoded) uint64 {
	return uint64(idec.Get(d.Inst, idec.Imm9).SignExtend())
}

// transferIndexed moves one register at Rn+offset. With writeback the base
// register is updated; post selects whether the access uses the old base.
func (m *machine) transferIndexed(d idec.Decoded, acc access, offset uint64, writeback, post bool) error {
	rn, rt := field(d, idec.Rn), field(d, idec.Rt)
	if writeback && acc.load && rn == rt && rn != 31 {
		return undefinedBehaviour(d, "load with writeback into the base register")
	}
	base := m.regs.GetSP(rn)
	addr := base + offset
	if post {
		addr = base
	}
	if err := m.transfer(acc, rt, addr); err != nil {
		return err
	}
	if writeback {
		m.regs.SetSP(rn, base+offset)
	}
	return nil
}

func (m *machine) transferRegisterOffset(d idec.Decoded, acc access) error {
	option := field(d, idec.Option)
	switch option {
	case ExtendUXTW, ExtendUXTX, ExtendSXTW, ExtendSXTX:
	default:
		return undefinedBehaviour(d, "register offset extend must be UXTW, LSL, SXTW or SXTX")
	}
	var shift uint
	if flag(d, idec.Scale) {
		shift = acc.size
	}
	offset := extendReg(m.regs.Get(field(d, idec.Rm)), option, shift, 64)
	return m.transfer(acc, field(d, idec.Rt), m.regs.GetSP(field(d, idec.Rn))+offset)
}

// loadLiteral reads PC-relative data from the program image.
func (m *machine) loadLiteral(d idec.Decoded, acc access) error {
	addr := m.relative(idec.Get(d.Inst, idec.Imm19).SignExtend())
	v, err := readUnits(m.code, acc, emu.Address(addr))
	if err != nil {
		return err
	}
	m.regs.Set(field(d, idec.Rt), v)
	return nil
}

func (m *machine) transferPair(d idec.Decoded, acc access, writeback, post bool) error {
	rn, rt, rt2 := field(d, idec.Rn), field(d, idec.Rt), field(d, idec.Rt2)
	if acc.load && rt == rt2 {
		return undefinedBehaviour(d, "load pair into the same register twice")
	}
	if writeback && acc.load && rn != 31 && (rn == rt || rn == rt2) {
		return undefinedBehaviour(d, "load pair with writeback into the base register")
	}
	step := uint64(1) << acc.size
	offset := uint64(idec.Get(d.Inst, idec.Imm7).SignExtend()) << acc.size

	base := m.regs.GetSP(rn)
	addr := base + offset
	if post {
		addr = base
	}
	if err := m.transfer(acc, rt, addr); err != nil {
		return err
	}
	if err := m.transfer(acc, rt2, addr+step); err != nil {
		return err
	}
	if writeback {
		m.regs.SetSP(rn, base+offset)
	}
	return nil
}

// transfer performs a single register load or store at addr.
func (m *machine) transfer(acc access, rt uint32, addr uint64) error {
	if acc.load {
		v, err := readUnits(m.data, acc, emu.Address(addr))
		if err != nil {
			return err
		}
		m.regs.Set(rt, v)
		return nil
	}
	return writeUnits(m.data, acc, emu.Address(addr), m.regs.Get(rt))
}

// readUnits loads one element. Byte and halfword loads take the low bits of
// a unit, words take one unit and doublewords two consecutive units, low
// word first.
func readUnits(mem memory.Memory, acc access, addr emu.Address) (uint64, error) {
	if acc.size == 3 {
		block, err := mem.ReadBlock(addr, 2)
		if err != nil {
			return 0, err
		}
		return uint64(block[0]) | uint64(block[1])<<32, nil
	}
	unit, err := mem.Read(addr)
	if err != nil {
		return 0, err
	}
	bitsWide := uint(8) << acc.size
	v := uint64(unit) & idec.Ones(bitsWide)
	if acc.signed {
		return uint64(idec.SignExtend(v, bitsWide)), nil
	}
	return v, nil
}

func writeUnits(mem memory.Memory, acc access, addr emu.Address, v uint64) error {
	switch acc.size {
	case 3:
		return mem.WriteBlock(addr, []emu.DataUnit{emu.DataUnit(v), emu.DataUnit(v >> 32)})
	case 2:
		return mem.Write(addr, emu.DataUnit(v))
	}
	unit, err := mem.Read(addr)
	if err != nil {
		return err
	}
	keep := emu.DataUnit(idec.Ones(8 << acc.size))
	return mem.Write(addr, unit&^keep|emu.DataUnit(v)&keep)
}
