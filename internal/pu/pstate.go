package pu

import "armemu/internal/emu"

// ProcessState is the PSTATE flag bundle.
type ProcessState struct {
	N, Z, C, V bool

	D, A, I, F bool
	PAN        bool
	UAO        bool
	DIT        bool
	TCO        bool
	SS         bool
	IL         bool
	NRW        bool
	SP         bool
	Q          bool
	SSBS       bool
	J          bool
	T          bool
	E          bool

	BTYPE uint8 // 2 bits
	EL    emu.ExceptionLevel
	GE    uint8 // 4 bits
	IT    uint8
	M     uint8 // 5 bits
}

// NZCV packs the condition flags as bits 3..0.
func (p *ProcessState) NZCV() uint8 {
	var v uint8
	if p.N {
		v |= 8
	}
	if p.Z {
		v |= 4
	}
	if p.C {
		v |= 2
	}
	if p.V {
		v |= 1
	}
	return v
}

func (p *ProcessState) SetNZCV(v uint8) {
	p.N = v&8 != 0
	p.Z = v&4 != 0
	p.C = v&2 != 0
	p.V = v&1 != 0
}

// Condition codes.
const (
	CondEQ uint8 = iota
	CondNE
	CondCS
	CondCC
	CondMI
	CondPL
	CondVS
	CondVC
	CondHI
	CondLS
	CondGE
	CondLT
	CondGT
	CondLE
	CondAL
	CondNV
)

var condNames = [16]string{"EQ", "NE", "CS", "CC", "MI", "PL", "VS", "VC", "HI", "LS", "GE", "LT", "GT", "LE", "AL", "NV"}

// CondName returns the mnemonic suffix of cond.
func CondName(cond uint8) string {
	return condNames[cond&0xF]
}

// ConditionHolds evaluates cond against the current flags.
func (p *ProcessState) ConditionHolds(cond uint8) bool {
	var result bool
	switch (cond >> 1) & 7 {
	case 0:
		result = p.Z
	case 1:
		result = p.C
	case 2:
		result = p.N
	case 3:
		result = p.V
	case 4:
		result = p.C && !p.Z
	case 5:
		result = p.N == p.V
	case 6:
		result = p.N == p.V && !p.Z
	case 7:
		result = true
	}
	if cond&1 == 1 && cond != CondNV {
		result = !result
	}
	return result
}
