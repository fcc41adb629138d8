package pu

// Registers is the general purpose register file. Index 31 encodes either
// the zero register or SP depending on the instruction; the accessors make
// that choice explicit.
type Registers struct {
	X  [31]uint64
	PC uint64
	SP uint64
}

// Get reads register i with 31 as XZR.
func (r *Registers) Get(i uint32) uint64 {
	if i == 31 {
		return 0
	}
	return r.X[i]
}

// GetSP reads register i with 31 as SP.
func (r *Registers) GetSP(i uint32) uint64 {
	if i == 31 {
		return r.SP
	}
	return r.X[i]
}

// W reads the low 32 bits of register i with 31 as WZR.
func (r *Registers) W(i uint32) uint32 {
	return uint32(r.Get(i))
}

// Set writes register i. Writes to XZR are discarded.
func (r *Registers) Set(i uint32, v uint64) {
	if i != 31 {
		r.X[i] = v
	}
}

// SetW writes the low 32 bits of register i, zeroing the upper half.
func (r *Registers) SetW(i uint32, v uint32) {
	r.Set(i, uint64(v))
}

// SetSP writes register i with 31 as SP.
func (r *Registers) SetSP(i uint32, v uint64) {
	if i == 31 {
		r.SP = v
		return
	}
	r.X[i] = v
}

// Sized helpers: sf selects 64 bits, otherwise the value is truncated to 32
// bits and zero extended.

func width(sf bool) uint {
	if sf {
		return 64
	}
	return 32
}

func mask(sf bool) uint64 {
	if sf {
		return ^uint64(0)
	}
	return 0xFFFFFFFF
}

func (r *Registers) getN(i uint32, sf bool) uint64 {
	return r.Get(i) & mask(sf)
}

func (r *Registers) getSPN(i uint32, sf bool) uint64 {
	return r.GetSP(i) & mask(sf)
}

func (r *Registers) setN(i uint32, v uint64, sf bool) {
	r.Set(i, v&mask(sf))
}

func (r *Registers) setSPN(i uint32, v uint64, sf bool) {
	r.SetSP(i, v&mask(sf))
}
