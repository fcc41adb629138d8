package pu

import (
	"armemu/internal/idec"
)

func (m *machine) execDataProcessingImmediate(d idec.Decoded) error {
	switch d.Class {
	case idec.ClassPCRelAddressing:
		return m.execPCRel(d)
	case idec.ClassAddSubImmediate:
		return m.execAddSubImmediate(d)
	case idec.ClassLogicalImmediate:
		return m.execLogicalImmediate(d)
	case idec.ClassMoveWideImmediate:
		return m.execMoveWide(d)
	case idec.ClassBitfield:
		return m.execBitfield(d)
	case idec.ClassExtract:
		return m.execExtract(d)
	}
	return notImplemented(d)
}

// execPCRel handles ADR and ADRP. Pages are 4KB, which is 1024 units.
func (m *machine) execPCRel(d idec.Decoded) error {
	imm := idec.SignExtend(uint64(field(d, idec.Immhi))<<2|uint64(field(d, idec.Immlo)), 21)
	rd := field(d, idec.Rd)
	if d.Op == idec.OpADRP {
		const pageUnits = 1024
		base := m.regs.PC &^ (pageUnits - 1)
		m.regs.Set(rd, base+uint64(imm*pageUnits))
		return nil
	}
	m.regs.Set(rd, m.relative(imm))
	return nil
}

func (m *machine) execAddSubImmediate(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	w := width(sf)
	imm := uint64(field(d, idec.Imm12))
	if flag(d, idec.Sh) {
		imm <<= 12
	}
	rd, rn := field(d, idec.Rd), field(d, idec.Rn)
	op1 := m.regs.getSPN(rn, sf)

	var res uint64
	var nzcv uint8
	setFlags := false
	switch d.Op {
	case idec.OpADDi32, idec.OpADDi64:
		res, _ = AddWithCarry(op1, imm, false, w)
	case idec.OpADDSi32, idec.OpADDSi64:
		res, nzcv = AddWithCarry(op1, imm, false, w)
		setFlags = true
	case idec.OpSUBi32, idec.OpSUBi64:
		res, _ = AddWithCarry(op1, ^imm, true, w)
	case idec.OpSUBSi32, idec.OpSUBSi64:
		res, nzcv = AddWithCarry(op1, ^imm, true, w)
		setFlags = true
	default:
		return notImplemented(d)
	}

	if setFlags {
		m.ps.SetNZCV(nzcv)
		m.regs.setN(rd, res, sf)
		return nil
	}
	m.regs.setSPN(rd, res, sf)
	return nil
}

func (m *machine) execLogicalImmediate(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	n := field(d, idec.N)
	if !sf && n == 1 {
		return undefinedBehaviour(d, "N=1 in a 32-bit logical immediate")
	}
	w := width(sf)
	imm, _, ok := idec.DecodeBitMasks(n, field(d, idec.Imms), field(d, idec.Immr), true, w)
	if !ok {
		return undefinedBehaviour(d, "reserved bitmask immediate")
	}

	rd := field(d, idec.Rd)
	op1 := m.regs.getN(field(d, idec.Rn), sf)
	switch d.Op {
	case idec.OpANDi32, idec.OpANDi64:
		m.regs.setSPN(rd, op1&imm, sf)
	case idec.OpORRi32, idec.OpORRi64:
		m.regs.setSPN(rd, op1|imm, sf)
	case idec.OpEORi32, idec.OpEORi64:
		m.regs.setSPN(rd, op1^imm, sf)
	case idec.OpANDSi32, idec.OpANDSi64:
		res := op1 & imm
		m.ps.SetNZCV(logicFlags(res, w))
		m.regs.setN(rd, res, sf)
	default:
		return notImplemented(d)
	}
	return nil
}

func (m *machine) execMoveWide(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	hw := field(d, idec.Hw)
	if !sf && hw > 1 {
		return undefinedBehaviour(d, "hw shift beyond a 32-bit register")
	}
	pos := uint(hw) * 16
	imm := uint64(field(d, idec.Imm16)) << pos
	rd := field(d, idec.Rd)

	switch d.Op {
	case idec.OpMOVN32, idec.OpMOVN64:
		m.regs.setN(rd, ^imm, sf)
	case idec.OpMOVZ32, idec.OpMOVZ64:
		m.regs.setN(rd, imm, sf)
	case idec.OpMOVK32, idec.OpMOVK64:
		old := m.regs.Get(rd) &^ (uint64(0xFFFF) << pos)
		m.regs.setN(rd, old|imm, sf)
	default:
		return notImplemented(d)
	}
	return nil
}

func (m *machine) execBitfield(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	n := field(d, idec.N)
	if sf != (n == 1) {
		return undefinedBehaviour(d, "N must equal sf for bitfield moves")
	}
	immr, imms := field(d, idec.Immr), field(d, idec.Imms)
	if !sf && (immr > 31 || imms > 31) {
		return undefinedBehaviour(d, "bitfield position beyond a 32-bit register")
	}
	w := width(sf)
	wmask, tmask, ok := idec.DecodeBitMasks(n, imms, immr, false, w)
	if !ok {
		return undefinedBehaviour(d, "reserved bitfield encoding")
	}

	rd := field(d, idec.Rd)
	src := m.regs.getN(field(d, idec.Rn), sf)
	rotated := idec.Ror(src, uint(immr), w)

	var res uint64
	switch d.Op {
	case idec.OpBFM32, idec.OpBFM64:
		dst := m.regs.getN(rd, sf)
		bot := (dst &^ wmask) | (rotated & wmask)
		res = (dst &^ tmask) | (bot & tmask)
	case idec.OpSBFM32, idec.OpSBFM64:
		bot := rotated & wmask
		var top uint64
		if (src>>imms)&1 == 1 {
			top = idec.Ones(w)
		}
		res = (top &^ tmask) | (bot & tmask)
	case idec.OpUBFM32, idec.OpUBFM64:
		res = rotated & wmask & tmask
	default:
		return notImplemented(d)
	}
	m.regs.setN(rd, res, sf)
	return nil
}

func (m *machine) execExtract(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	if sf != flag(d, idec.N) {
		return undefinedBehaviour(d, "N must equal sf for EXTR")
	}
	lsb := uint(field(d, idec.Imms))
	w := width(sf)
	if lsb >= w {
		return undefinedBehaviour(d, "EXTR lsb beyond register width")
	}

	hi := m.regs.getN(field(d, idec.Rn), sf)
	lo := m.regs.getN(field(d, idec.Rm), sf)
	res := lo
	if lsb > 0 {
		res = (lo >> lsb) | (hi << (w - lsb))
	}
	m.regs.setN(field(d, idec.Rd), res, sf)
	return nil
}
