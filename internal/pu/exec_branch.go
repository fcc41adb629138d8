package pu

import (
	"fmt"

	icommon "armemu/internal/common"
	"armemu/internal/emu"
	"armemu/internal/idec"
)

func (m *machine) execBranchExceptionSystem(d idec.Decoded) error {
	switch d.Op {
	case idec.OpBcond:
		if m.ps.ConditionHolds(uint8(field(d, idec.Cond))) {
			m.branchTo(m.relative(idec.Get(d.Inst, idec.Imm19).SignExtend()))
		}
	case idec.OpB:
		m.branchTo(m.relative(idec.Get(d.Inst, idec.Imm26).SignExtend()))
	case idec.OpBL:
		m.regs.Set(30, m.regs.PC+1)
		m.branchTo(m.relative(idec.Get(d.Inst, idec.Imm26).SignExtend()))
	case idec.OpBR, idec.OpRET:
		m.branchTo(m.regs.Get(field(d, idec.Rn)))
	case idec.OpBLR:
		target := m.regs.Get(field(d, idec.Rn))
		m.regs.Set(30, m.regs.PC+1)
		m.branchTo(target)
	case idec.OpERET:
		if m.ps.EL == emu.EL0 {
			return undefinedBehaviour(d, "ERET at EL0")
		}
		return notImplemented(d)
	case idec.OpCBZ32, idec.OpCBNZ32, idec.OpCBZ64, idec.OpCBNZ64:
		sf := d.Op == idec.OpCBZ64 || d.Op == idec.OpCBNZ64
		zero := m.regs.getN(field(d, idec.Rt), sf) == 0
		wantZero := d.Op == idec.OpCBZ32 || d.Op == idec.OpCBZ64
		if zero == wantZero {
			m.branchTo(m.relative(idec.Get(d.Inst, idec.Imm19).SignExtend()))
		}
	case idec.OpTBZ, idec.OpTBNZ:
		pos := field(d, idec.B5)<<5 | field(d, idec.B40)
		set := (m.regs.Get(field(d, idec.Rt))>>pos)&1 == 1
		if set == (d.Op == idec.OpTBNZ) {
			m.branchTo(m.relative(idec.Get(d.Inst, idec.Imm14).SignExtend()))
		}
	case idec.OpSVC:
		return m.exceptionCall(d, emu.EL1)
	case idec.OpHVC:
		return m.exceptionCall(d, emu.EL2)
	case idec.OpSMC:
		return m.exceptionCall(d, emu.EL3)
	case idec.OpBRK, idec.OpHLT:
		return icommon.NewErrorWithAddrMsg(emu.ErrSevError, emu.ErrFail, emu.Address(m.regs.PC),
			fmt.Sprintf("%s #%d", d.Op, field(d, idec.Imm16)))
	case idec.OpNOP, idec.OpHINT, idec.OpCLREX, idec.OpDSB, idec.OpDMB, idec.OpISB:
		// single in-order core: hints and barriers have no effect
	default:
		return notImplemented(d)
	}
	return nil
}

// exceptionCall models SVC, HVC and SMC. Asking for a lower exception level
// than the current one is undefined; taking the exception is not modelled.
func (m *machine) exceptionCall(d idec.Decoded, target emu.ExceptionLevel) error {
	if target < m.ps.EL {
		return undefinedBehaviour(d, "exception call from "+m.ps.EL.String()+" to "+target.String())
	}
	return icommon.Errorf(emu.ErrNotImplemented, "%s: exception entry to %s", d, target)
}
