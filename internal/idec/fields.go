package idec

import "fmt"

// Tag names a fixed bitfield of the A64 encoding.
type Tag int

const (
	DecodeFields Tag = iota // op0, bits [28:25]
	Cond                    // branch condition
	CondSel                 // condition of CSEL and CCMP
	Imm3
	Imm5
	Imm6
	Imm7
	Imm9
	Imm12
	Imm14
	Imm16
	Imm19
	Imm26
	Immhi
	Immlo
	Imms
	Immr
	UImm4
	UImm6
	Hw
	Ra
	Rd
	Rn
	Rm
	Rt
	Rt2
	Xd
	Xn
	Sh
	CRm
	CRn
	Size
	Option
	Shift
	Scale
	NZCV
	A
	L
	N
	S
	Sf
	Op1
	Op2
	Opc
	O0
	B5
	B40

	tagCount
)

type field struct {
	name   string
	offset uint8
	width  uint8
}

var fields = [tagCount]field{
	DecodeFields: {"op0", 25, 4},
	Cond:         {"cond", 0, 4},
	CondSel:      {"cond", 12, 4},
	Imm3:         {"imm3", 10, 3},
	Imm5:         {"imm5", 16, 5},
	Imm6:         {"imm6", 10, 6},
	Imm7:         {"imm7", 15, 7},
	Imm9:         {"imm9", 12, 9},
	Imm12:        {"imm12", 10, 12},
	Imm14:        {"imm14", 5, 14},
	Imm16:        {"imm16", 5, 16},
	Imm19:        {"imm19", 5, 19},
	Imm26:        {"imm26", 0, 26},
	Immhi:        {"immhi", 5, 19},
	Immlo:        {"immlo", 29, 2},
	Imms:         {"imms", 10, 6},
	Immr:         {"immr", 16, 6},
	UImm4:        {"uimm4", 10, 4},
	UImm6:        {"uimm6", 16, 6},
	Hw:           {"hw", 21, 2},
	Ra:           {"Ra", 10, 5},
	Rd:           {"Rd", 0, 5},
	Rn:           {"Rn", 5, 5},
	Rm:           {"Rm", 16, 5},
	Rt:           {"Rt", 0, 5},
	Rt2:          {"Rt2", 10, 5},
	Xd:           {"Xd", 0, 5},
	Xn:           {"Xn", 5, 5},
	Sh:           {"sh", 22, 1},
	CRm:          {"CRm", 8, 4},
	CRn:          {"CRn", 12, 4},
	Size:         {"size", 30, 2},
	Option:       {"option", 13, 3},
	Shift:        {"shift", 22, 2},
	Scale:        {"S", 12, 1},
	NZCV:         {"nzcv", 0, 4},
	A:            {"A", 23, 1},
	L:            {"L", 22, 1},
	N:            {"N", 22, 1},
	S:            {"S", 29, 1},
	Sf:           {"sf", 31, 1},
	Op1:          {"op1", 16, 3},
	Op2:          {"op2", 5, 3},
	Opc:          {"opc", 29, 2},
	O0:           {"o0", 19, 1},
	B5:           {"b5", 31, 1},
	B40:          {"b40", 19, 5},
}

func (t Tag) String() string {
	if t < 0 || t >= tagCount {
		return fmt.Sprintf("Tag(%d)", int(t))
	}
	return fields[t].name
}

// Offset returns the position of the field's least significant bit.
func (t Tag) Offset() uint {
	return uint(fields[t].offset)
}

// Width returns the field width in bits.
func (t Tag) Width() uint {
	return uint(fields[t].width)
}

// Tags lists every defined tag.
func Tags() []Tag {
	out := make([]Tag, tagCount)
	for i := range out {
		out[i] = Tag(i)
	}
	return out
}

// Bitset is an extracted field: Width significant bits held in Value.
type Bitset struct {
	Width uint8
	Value uint32
}

func (b Bitset) Uint64() uint64 {
	return uint64(b.Value)
}

func (b Bitset) Int() int {
	return int(b.Value)
}

func (b Bitset) Bool() bool {
	return b.Value != 0
}

// SignExtend interprets the field as a two's complement number.
func (b Bitset) SignExtend() int64 {
	return SignExtend(uint64(b.Value), uint(b.Width))
}

func (b Bitset) String() string {
	return fmt.Sprintf("%0*b", int(b.Width), b.Value)
}

// Get extracts tag from inst. It panics only for a tag outside the enum.
func Get(inst Instruction, tag Tag) Bitset {
	f := fields[tag]
	return Bitset{
		Width: f.width,
		Value: (uint32(inst) >> f.offset) & (1<<f.width - 1),
	}
}
