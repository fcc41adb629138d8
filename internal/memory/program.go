package memory

import (
	"encoding/binary"

	"armemu/internal/emu"
)

// ProgramMemory holds loaded machine code. It behaves like RandomAccessMemory
// sized exactly to the loaded image.
type ProgramMemory struct {
	*RandomAccessMemory
	words emu.Address
}

// NewProgramMemory loads words as a program image.
func NewProgramMemory(words []emu.DataUnit, opts ...Option) *ProgramMemory {
	n := emu.Address(len(words))
	pm := &ProgramMemory{
		RandomAccessMemory: NewRandomAccessMemory(n, append([]Option{WithName("program")}, opts...)...),
		words:              n,
	}
	if n > 0 {
		pm.mu.Lock()
		pm.growLocked(n)
		copy(pm.data, words)
		pm.mu.Unlock()
	}
	return pm
}

// NewProgramMemoryFromBytes decodes little-endian 32-bit words. A trailing
// partial word is zero padded.
func NewProgramMemoryFromBytes(b []byte, opts ...Option) *ProgramMemory {
	words := make([]emu.DataUnit, (len(b)+emu.DataUnitSize-1)/emu.DataUnitSize)
	for i := range words {
		var buf [emu.DataUnitSize]byte
		copy(buf[:], b[i*emu.DataUnitSize:])
		words[i] = emu.DataUnit(binary.LittleEndian.Uint32(buf[:]))
	}
	return NewProgramMemory(words, opts...)
}

// Len returns the number of instruction words loaded.
func (pm *ProgramMemory) Len() emu.Address {
	return pm.words
}
