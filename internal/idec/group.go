package idec

// DecodeGroup is the top-level encoding group of an A64 instruction.
type DecodeGroup uint32

const (
	GroupReserved DecodeGroup = iota
	GroupSVE
	GroupDataProcessingImmediate
	GroupBranchExceptionSystem
	GroupLoadStore
	GroupDataProcessingRegister
	GroupScalarFPAdvancedSIMD

	// GroupUndefined is the no-match sentinel. It is not a dispatchable group.
	GroupUndefined DecodeGroup = ^DecodeGroup(0)
)

var groupNames = map[DecodeGroup]string{
	GroupReserved:                "Reserved",
	GroupSVE:                     "ScalableVectorExtension",
	GroupDataProcessingImmediate: "DataProcessingImmediate",
	GroupBranchExceptionSystem:   "BranchExceptionSystem",
	GroupLoadStore:               "LoadStore",
	GroupDataProcessingRegister:  "DataProcessingRegister",
	GroupScalarFPAdvancedSIMD:    "DataProcessingScalarFloatingPointAdvancedSIMD",
	GroupUndefined:               "Undefined",
}

func (g DecodeGroup) String() string {
	if s, ok := groupNames[g]; ok {
		return s
	}
	return "Unknown"
}

// groupTable is indexed by op0, bits [28:25].
var groupTable = Table[DecodeGroup]{
	{0b1111, 0b0000, GroupReserved},
	{0b1111, 0b0010, GroupSVE},
	{0b1110, 0b1000, GroupDataProcessingImmediate},
	{0b1110, 0b1010, GroupBranchExceptionSystem},
	{0b0111, 0b0101, GroupDataProcessingRegister},
	{0b0111, 0b0111, GroupScalarFPAdvancedSIMD},
	{0b0101, 0b0100, GroupLoadStore},
}

// GroupOf classifies inst by its op0 field.
func GroupOf(inst Instruction) DecodeGroup {
	return groupTable.Lookup(uint32(Get(inst, DecodeFields).Value))
}
