package idec

import (
	"math/bits"
)

// SignExtend treats the low n bits of v as a signed value.
func SignExtend(v uint64, n uint) int64 {
	if n == 0 || n >= 64 {
		return int64(v)
	}
	shift := 64 - n
	return int64(v<<shift) >> shift
}

// Ones returns a value with the low n bits set.
func Ones(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return 1<<n - 1
}

// Ror rotates the low width bits of v right by amount.
func Ror(v uint64, amount, width uint) uint64 {
	if width == 64 {
		return bits.RotateLeft64(v, -int(amount))
	}
	amount %= width
	v &= Ones(width)
	return ((v >> amount) | (v << (width - amount))) & Ones(width)
}

func replicate(v uint64, esize, width uint) uint64 {
	out := uint64(0)
	for i := uint(0); i < width; i += esize {
		out |= v << i
	}
	return out & Ones(width)
}

// DecodeBitMasks expands the N:imms:immr logical immediate encoding into the
// wmask and tmask of the given data size. ok is false for reserved encodings.
func DecodeBitMasks(n, imms, immr uint32, immediate bool, datasize uint) (wmask, tmask uint64, ok bool) {
	combined := (n << 6) | (^imms & 0x3f)
	if combined == 0 {
		return 0, 0, false
	}
	length := uint(bits.Len32(combined)) - 1
	if length < 1 {
		return 0, 0, false
	}
	levels := uint32(Ones(length))
	if immediate && imms&levels == levels {
		return 0, 0, false
	}

	s := uint(imms & levels)
	r := uint(immr & levels)
	diff := (s - r) & uint(levels)
	esize := uint(1) << length
	if esize > datasize {
		return 0, 0, false
	}

	welem := Ones(s + 1)
	telem := Ones(diff + 1)
	wmask = replicate(Ror(welem, r, esize), esize, datasize)
	tmask = replicate(telem, esize, datasize)
	return wmask, tmask, true
}
