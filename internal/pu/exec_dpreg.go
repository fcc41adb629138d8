package pu

import (
	"math/bits"

	"armemu/internal/idec"
)

func (m *machine) execDataProcessingRegister(d idec.Decoded) error {
	switch d.Class {
	case idec.ClassDataProcessing2Source:
		return m.execDP2Source(d)
	case idec.ClassDataProcessing1Source:
		return m.execDP1Source(d)
	case idec.ClassLogicalShiftedRegister:
		return m.execLogicalShifted(d)
	case idec.ClassAddSubShiftedRegister:
		return m.execAddSubShifted(d)
	case idec.ClassAddSubExtendedRegister:
		return m.execAddSubExtended(d)
	case idec.ClassAddSubWithCarry:
		return m.execAddSubCarry(d)
	case idec.ClassConditionalCompareRegister, idec.ClassConditionalCompareImmediate:
		return m.execCondCompare(d)
	case idec.ClassConditionalSelect:
		return m.execCondSelect(d)
	case idec.ClassDataProcessing3Source:
		return m.execDP3Source(d)
	}
	return notImplemented(d)
}

func (m *machine) execDP2Source(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	w := width(sf)
	a := m.regs.getN(field(d, idec.Rn), sf)
	b := m.regs.getN(field(d, idec.Rm), sf)

	var res uint64
	switch d.Op {
	case idec.OpUDIV:
		if b != 0 {
			res = a / b
		}
	case idec.OpSDIV:
		sa, sb := idec.SignExtend(a, w), idec.SignExtend(b, w)
		switch {
		case sb == 0:
			res = 0
		case sb == -1:
			// avoids the MinInt64 / -1 trap; negation wraps like the hardware
			res = uint64(-sa)
		default:
			res = uint64(sa / sb)
		}
	case idec.OpLSLV:
		res = shiftReg(a, ShiftLSL, uint(b%uint64(w)), w)
	case idec.OpLSRV:
		res = shiftReg(a, ShiftLSR, uint(b%uint64(w)), w)
	case idec.OpASRV:
		res = shiftReg(a, ShiftASR, uint(b%uint64(w)), w)
	case idec.OpRORV:
		res = shiftReg(a, ShiftROR, uint(b%uint64(w)), w)
	default:
		return notImplemented(d)
	}
	m.regs.setN(field(d, idec.Rd), res, sf)
	return nil
}

func reverseBytesInWords(v uint64) uint64 {
	return uint64(bits.ReverseBytes32(uint32(v>>32)))<<32 | uint64(bits.ReverseBytes32(uint32(v)))
}

func reverseBytesInHalves(v uint64) uint64 {
	return (v&0x00FF00FF00FF00FF)<<8 | (v&0xFF00FF00FF00FF00)>>8
}

func (m *machine) execDP1Source(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	w := width(sf)
	v := m.regs.getN(field(d, idec.Rn), sf)

	var res uint64
	switch d.Op {
	case idec.OpRBIT:
		res = bits.Reverse64(v) >> (64 - w)
	case idec.OpREV16:
		res = reverseBytesInHalves(v)
	case idec.OpREV32:
		res = reverseBytesInWords(v)
	case idec.OpREV64:
		if !sf {
			return undefinedBehaviour(d, "REV with opc=11 on a 32-bit register")
		}
		res = bits.ReverseBytes64(v)
	case idec.OpCLZ:
		res = uint64(bits.LeadingZeros64(v) - (64 - int(w)))
	case idec.OpCLS:
		z := (v >> 1) ^ (v & idec.Ones(w-1))
		res = uint64(bits.LeadingZeros64(z) - (64 - int(w-1)))
	default:
		return notImplemented(d)
	}
	m.regs.setN(field(d, idec.Rd), res, sf)
	return nil
}

// shiftedOperand reads Rm shifted by the shift and imm6 fields.
func (m *machine) shiftedOperand(d idec.Decoded, sf bool) (uint64, error) {
	amount := uint(field(d, idec.Imm6))
	if !sf && amount > 31 {
		return 0, undefinedBehaviour(d, "shift amount beyond a 32-bit register")
	}
	return shiftReg(m.regs.getN(field(d, idec.Rm), sf), field(d, idec.Shift), amount, width(sf)), nil
}

func (m *machine) execLogicalShifted(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	w := width(sf)
	op2, err := m.shiftedOperand(d, sf)
	if err != nil {
		return err
	}
	op1 := m.regs.getN(field(d, idec.Rn), sf)

	var res uint64
	setFlags := false
	switch d.Op {
	case idec.OpAND:
		res = op1 & op2
	case idec.OpBIC:
		res = op1 &^ op2
	case idec.OpORR:
		res = op1 | op2
	case idec.OpORN:
		res = op1 | ^op2
	case idec.OpEOR:
		res = op1 ^ op2
	case idec.OpEON:
		res = op1 ^ ^op2
	case idec.OpANDS:
		res, setFlags = op1&op2, true
	case idec.OpBICS:
		res, setFlags = op1&^op2, true
	default:
		return notImplemented(d)
	}
	res &= mask(sf)
	if setFlags {
		m.ps.SetNZCV(logicFlags(res, w))
	}
	m.regs.setN(field(d, idec.Rd), res, sf)
	return nil
}

// addSub computes op1 +/- op2 for the ADD, ADDS, SUB and SUBS families.
func addSub(op1, op2 uint64, sub bool, w uint) (uint64, uint8) {
	if sub {
		return AddWithCarry(op1, ^op2, true, w)
	}
	return AddWithCarry(op1, op2, false, w)
}

func (m *machine) execAddSubShifted(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	if field(d, idec.Shift) == ShiftROR {
		return undefinedBehaviour(d, "ROR shift in add/subtract")
	}
	op2, err := m.shiftedOperand(d, sf)
	if err != nil {
		return err
	}
	op1 := m.regs.getN(field(d, idec.Rn), sf)

	sub := d.Op == idec.OpSUB || d.Op == idec.OpSUBS
	res, nzcv := addSub(op1, op2, sub, width(sf))
	if d.Op == idec.OpADDS || d.Op == idec.OpSUBS {
		m.ps.SetNZCV(nzcv)
	}
	m.regs.setN(field(d, idec.Rd), res, sf)
	return nil
}

func (m *machine) execAddSubExtended(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	shift := uint(field(d, idec.Imm3))
	if shift > 4 {
		return undefinedBehaviour(d, "extended register shift above 4")
	}
	w := width(sf)
	op1 := m.regs.getSPN(field(d, idec.Rn), sf)
	op2 := extendReg(m.regs.Get(field(d, idec.Rm)), field(d, idec.Option), shift, w)

	sub := d.Op == idec.OpSUBext || d.Op == idec.OpSUBSext
	res, nzcv := addSub(op1, op2, sub, w)
	rd := field(d, idec.Rd)
	if d.Op == idec.OpADDSext || d.Op == idec.OpSUBSext {
		m.ps.SetNZCV(nzcv)
		m.regs.setN(rd, res, sf)
		return nil
	}
	m.regs.setSPN(rd, res, sf)
	return nil
}

func (m *machine) execAddSubCarry(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	op1 := m.regs.getN(field(d, idec.Rn), sf)
	op2 := m.regs.getN(field(d, idec.Rm), sf)
	if d.Op == idec.OpSBC || d.Op == idec.OpSBCS {
		op2 = ^op2
	}
	res, nzcv := AddWithCarry(op1, op2, m.ps.C, width(sf))
	if d.Op == idec.OpADCS || d.Op == idec.OpSBCS {
		m.ps.SetNZCV(nzcv)
	}
	m.regs.setN(field(d, idec.Rd), res, sf)
	return nil
}

func (m *machine) execCondCompare(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	if !m.ps.ConditionHolds(uint8(field(d, idec.CondSel))) {
		m.ps.SetNZCV(uint8(field(d, idec.NZCV)))
		return nil
	}

	op1 := m.regs.getN(field(d, idec.Rn), sf)
	var op2 uint64
	if d.Class == idec.ClassConditionalCompareImmediate {
		op2 = uint64(field(d, idec.Imm5))
	} else {
		op2 = m.regs.getN(field(d, idec.Rm), sf)
	}
	sub := d.Op == idec.OpCCMPr || d.Op == idec.OpCCMPi
	_, nzcv := addSub(op1, op2, sub, width(sf))
	m.ps.SetNZCV(nzcv)
	return nil
}

func (m *machine) execCondSelect(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	var res uint64
	if m.ps.ConditionHolds(uint8(field(d, idec.CondSel))) {
		res = m.regs.Get(field(d, idec.Rn))
	} else {
		res = m.regs.Get(field(d, idec.Rm))
		switch d.Op {
		case idec.OpCSINC:
			res++
		case idec.OpCSINV:
			res = ^res
		case idec.OpCSNEG:
			res = -res
		}
	}
	m.regs.setN(field(d, idec.Rd), res, sf)
	return nil
}

func (m *machine) execDP3Source(d idec.Decoded) error {
	sf := flag(d, idec.Sf)
	rn, rm := field(d, idec.Rn), field(d, idec.Rm)
	acc := m.regs.Get(field(d, idec.Ra))

	var res uint64
	switch d.Op {
	case idec.OpMADD:
		res = acc + m.regs.Get(rn)*m.regs.Get(rm)
	case idec.OpMSUB:
		res = acc - m.regs.Get(rn)*m.regs.Get(rm)
	case idec.OpSMADDL:
		res = acc + uint64(int64(int32(m.regs.W(rn)))*int64(int32(m.regs.W(rm))))
	case idec.OpSMSUBL:
		res = acc - uint64(int64(int32(m.regs.W(rn)))*int64(int32(m.regs.W(rm))))
	case idec.OpUMADDL:
		res = acc + uint64(m.regs.W(rn))*uint64(m.regs.W(rm))
	case idec.OpUMSUBL:
		res = acc - uint64(m.regs.W(rn))*uint64(m.regs.W(rm))
	case idec.OpSMULH:
		res = mulHighSigned(int64(m.regs.Get(rn)), int64(m.regs.Get(rm)))
	case idec.OpUMULH:
		res, _ = bits.Mul64(m.regs.Get(rn), m.regs.Get(rm))
	default:
		return notImplemented(d)
	}
	m.regs.setN(field(d, idec.Rd), res, sf)
	return nil
}
