package idec

import (
	icommon "armemu/internal/common"
	"armemu/internal/emu"
)

// Decoded is the result of classifying one instruction word.
type Decoded struct {
	Inst  Instruction
	Group DecodeGroup
	Class Class
	Op    Op
}

func (d Decoded) String() string {
	return d.Op.String() + " (" + d.Class.String() + "/" + d.Group.String() + ")"
}

// Decode classifies inst against the group, class and op tables.
//
// A word outside every group or class fails with a decode fault. A class
// without a modelled operation fails with a not implemented error and still
// reports the group and class it found.
func (ds *Decoders) Decode(inst Instruction) (Decoded, error) {
	d := Decoded{Inst: inst, Group: GroupOf(inst), Class: ClassUndefined, Op: OpUndefined}
	if d.Group == GroupUndefined {
		return d, icommon.NewErrorMsg(emu.ErrSevError, emu.ErrUndefinedInstruction, "unallocated op0 "+Get(inst, DecodeFields).String())
	}

	cd, ok := ds.For(d.Group)
	if !ok {
		return d, icommon.Errorf(emu.ErrUnclassifiable, "no decoder for group %s", d.Group)
	}
	d.Class = cd.GetInstructionClass(inst)
	if d.Class == ClassUndefined {
		return d, icommon.Errorf(emu.ErrUnclassifiable, "%s matches no %s class", inst, d.Group)
	}

	d.Op = OpOf(d.Class, inst)
	if d.Op == OpUndefined {
		return d, icommon.Errorf(emu.ErrNotImplemented, "%s in class %s", inst, d.Class)
	}
	return d, nil
}

var defaultDecoders = DefaultDecoders()

// Decode classifies inst with the default decoders.
func Decode(inst Instruction) (Decoded, error) {
	return defaultDecoders.Decode(inst)
}
