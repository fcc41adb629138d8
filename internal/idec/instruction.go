// Package idec classifies 32-bit A64 instruction words and extracts their fields.
//
// Decoding is three table lookups: the top-level group from op0, the class
// within the group, then the concrete operation within the class. Every table
// is an ordered list of (mask, expected, value) entries where the first match
// wins. Nothing in this package holds mutable state.
package idec

import "fmt"

// Instruction is an immutable 32-bit instruction word.
type Instruction uint32

func (i Instruction) Raw() uint32 {
	return uint32(i)
}

// And returns the raw word masked with m.
func (i Instruction) And(m uint32) uint32 {
	return uint32(i) & m
}

// Or returns the raw word with the bits of m set.
func (i Instruction) Or(m uint32) uint32 {
	return uint32(i) | m
}

// Bit reports whether bit n is set. n must be below 32.
func (i Instruction) Bit(n uint) bool {
	return (uint32(i)>>n)&1 == 1
}

// Bits renders the word as 32 binary digits, most significant first.
func (i Instruction) Bits() string {
	return fmt.Sprintf("%032b", uint32(i))
}

func (i Instruction) String() string {
	return fmt.Sprintf("0x%08x", uint32(i))
}
