package pu

import (
	"math/bits"

	"armemu/internal/idec"
)

// AddWithCarry returns x+y+carry truncated to width bits and the NZCV flags
// of the addition.
func AddWithCarry(x, y uint64, carry bool, width uint) (uint64, uint8) {
	m := idec.Ones(width)
	x &= m
	y &= m
	var c uint64
	if carry {
		c = 1
	}

	var result uint64
	var carryOut bool
	if width == 64 {
		var co uint64
		result, co = bits.Add64(x, y, c)
		carryOut = co != 0
	} else {
		sum := x + y + c
		result = sum & m
		carryOut = sum>>width != 0
	}

	var nzcv uint8
	if result>>(width-1)&1 == 1 {
		nzcv |= 8
	}
	if result == 0 {
		nzcv |= 4
	}
	if carryOut {
		nzcv |= 2
	}
	if ((x^result)&(y^result))>>(width-1)&1 == 1 {
		nzcv |= 1
	}
	return result, nzcv
}

// logicFlags returns the NZCV of a logical result: N and Z set, C and V clear.
func logicFlags(result uint64, width uint) uint8 {
	var nzcv uint8
	if result>>(width-1)&1 == 1 {
		nzcv |= 8
	}
	if result&idec.Ones(width) == 0 {
		nzcv |= 4
	}
	return nzcv
}

// Shift types of shifted register operands.
const (
	ShiftLSL uint32 = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

// shiftReg applies a shifted-register operand shift within width bits.
func shiftReg(v uint64, typ uint32, amount, width uint) uint64 {
	v &= idec.Ones(width)
	if amount == 0 {
		return v
	}
	switch typ {
	case ShiftLSL:
		return (v << amount) & idec.Ones(width)
	case ShiftLSR:
		return v >> amount
	case ShiftASR:
		return uint64(idec.SignExtend(v, width)>>amount) & idec.Ones(width)
	default:
		return idec.Ror(v, amount, width)
	}
}

// Extend types of extended register operands.
const (
	ExtendUXTB uint32 = iota
	ExtendUXTH
	ExtendUXTW
	ExtendUXTX
	ExtendSXTB
	ExtendSXTH
	ExtendSXTW
	ExtendSXTX
)

// extendReg extends the low bytes of v selected by option, then shifts left.
func extendReg(v uint64, option uint32, shift, width uint) uint64 {
	size := uint(8) << (option & 3)
	var out uint64
	if option&4 != 0 {
		out = uint64(idec.SignExtend(v&idec.Ones(size), size))
	} else {
		out = v & idec.Ones(size)
	}
	return (out << shift) & idec.Ones(width)
}

// mulHighSigned returns the upper 64 bits of the signed 128-bit product.
func mulHighSigned(a, b int64) uint64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	if a < 0 {
		hi -= uint64(b)
	}
	if b < 0 {
		hi -= uint64(a)
	}
	return hi
}
