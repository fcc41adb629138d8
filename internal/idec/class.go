package idec

// Class is the instruction class within a decode group.
type Class uint32

const (
	ClassReservedUDF Class = iota
	ClassSVE
	ClassScalarFPAdvancedSIMD

	// Data processing (immediate)
	ClassPCRelAddressing
	ClassAddSubImmediate
	ClassAddSubImmediateWithTags
	ClassLogicalImmediate
	ClassMoveWideImmediate
	ClassBitfield
	ClassExtract

	// Branches, exception generating and system instructions
	ClassConditionalBranch
	ClassExceptionGeneration
	ClassHints
	ClassBarriers
	ClassPState
	ClassSystemInstructions
	ClassSystemRegisterMove
	ClassUnconditionalBranchRegister
	ClassUnconditionalBranchImmediate
	ClassCompareAndBranch
	ClassTestAndBranch

	// Data processing (register)
	ClassDataProcessing2Source
	ClassDataProcessing1Source
	ClassLogicalShiftedRegister
	ClassAddSubShiftedRegister
	ClassAddSubExtendedRegister
	ClassAddSubWithCarry
	ClassRotateRightIntoFlags
	ClassEvaluateIntoFlags
	ClassConditionalCompareRegister
	ClassConditionalCompareImmediate
	ClassConditionalSelect
	ClassDataProcessing3Source

	// Loads and stores
	ClassLoadStoreExclusive
	ClassLoadRegisterLiteral
	ClassLoadStoreNoAllocatePairOffset
	ClassLoadStorePairPostIndexed
	ClassLoadStorePairOffset
	ClassLoadStorePairPreIndexed
	ClassLoadStoreUnscaledImmediate
	ClassLoadStoreImmediatePostIndexed
	ClassLoadStoreUnprivileged
	ClassLoadStoreImmediatePreIndexed
	ClassAtomicMemoryOperations
	ClassLoadStoreRegisterOffset
	ClassLoadStoreUnsignedImmediate

	classCount

	ClassUndefined Class = ^Class(0)
)

var classNames = [classCount]string{
	ClassReservedUDF:                   "UDF",
	ClassSVE:                           "SVE",
	ClassScalarFPAdvancedSIMD:          "ScalarFPAdvancedSIMD",
	ClassPCRelAddressing:               "PCRelAddressing",
	ClassAddSubImmediate:               "AddSubImmediate",
	ClassAddSubImmediateWithTags:       "AddSubImmediateWithTags",
	ClassLogicalImmediate:              "LogicalImmediate",
	ClassMoveWideImmediate:             "MoveWideImmediate",
	ClassBitfield:                      "Bitfield",
	ClassExtract:                       "Extract",
	ClassConditionalBranch:             "ConditionalBranch",
	ClassExceptionGeneration:           "ExceptionGeneration",
	ClassHints:                         "Hints",
	ClassBarriers:                      "Barriers",
	ClassPState:                        "PState",
	ClassSystemInstructions:            "SystemInstructions",
	ClassSystemRegisterMove:            "SystemRegisterMove",
	ClassUnconditionalBranchRegister:   "UnconditionalBranchRegister",
	ClassUnconditionalBranchImmediate:  "UnconditionalBranchImmediate",
	ClassCompareAndBranch:              "CompareAndBranch",
	ClassTestAndBranch:                 "TestAndBranch",
	ClassDataProcessing2Source:         "DataProcessing2Source",
	ClassDataProcessing1Source:         "DataProcessing1Source",
	ClassLogicalShiftedRegister:        "LogicalShiftedRegister",
	ClassAddSubShiftedRegister:         "AddSubShiftedRegister",
	ClassAddSubExtendedRegister:        "AddSubExtendedRegister",
	ClassAddSubWithCarry:               "AddSubWithCarry",
	ClassRotateRightIntoFlags:          "RotateRightIntoFlags",
	ClassEvaluateIntoFlags:             "EvaluateIntoFlags",
	ClassConditionalCompareRegister:    "ConditionalCompareRegister",
	ClassConditionalCompareImmediate:   "ConditionalCompareImmediate",
	ClassConditionalSelect:             "ConditionalSelect",
	ClassDataProcessing3Source:         "DataProcessing3Source",
	ClassLoadStoreExclusive:            "LoadStoreExclusive",
	ClassLoadRegisterLiteral:           "LoadRegisterLiteral",
	ClassLoadStoreNoAllocatePairOffset: "LoadStoreNoAllocatePairOffset",
	ClassLoadStorePairPostIndexed:      "LoadStorePairPostIndexed",
	ClassLoadStorePairOffset:           "LoadStorePairOffset",
	ClassLoadStorePairPreIndexed:       "LoadStorePairPreIndexed",
	ClassLoadStoreUnscaledImmediate:    "LoadStoreUnscaledImmediate",
	ClassLoadStoreImmediatePostIndexed: "LoadStoreImmediatePostIndexed",
	ClassLoadStoreUnprivileged:         "LoadStoreUnprivileged",
	ClassLoadStoreImmediatePreIndexed:  "LoadStoreImmediatePreIndexed",
	ClassAtomicMemoryOperations:        "AtomicMemoryOperations",
	ClassLoadStoreRegisterOffset:       "LoadStoreRegisterOffset",
	ClassLoadStoreUnsignedImmediate:    "LoadStoreUnsignedImmediate",
}

func (c Class) String() string {
	if c < classCount {
		return classNames[c]
	}
	if c == ClassUndefined {
		return "Undefined"
	}
	return "Unknown"
}

// Classes lists every defined class.
func Classes() []Class {
	out := make([]Class, classCount)
	for i := range out {
		out[i] = Class(i)
	}
	return out
}

// ClassDecoder classifies instructions of one decode group.
type ClassDecoder interface {
	Group() DecodeGroup
	GetInstructionClass(inst Instruction) Class
}

// tableDecoder is the ClassDecoder of every group: a class table over the raw word.
type tableDecoder struct {
	group   DecodeGroup
	classes Table[Class]
}

func (d *tableDecoder) Group() DecodeGroup {
	return d.group
}

func (d *tableDecoder) GetInstructionClass(inst Instruction) Class {
	return d.classes.Lookup(uint32(inst))
}

var reservedClasses = Table[Class]{
	{0xFFFF0000, 0x00000000, ClassReservedUDF},
}

var sveClasses = Table[Class]{
	{0x1E000000, 0x04000000, ClassSVE},
}

var simdClasses = Table[Class]{
	{0x0E000000, 0x0E000000, ClassScalarFPAdvancedSIMD},
}

var dataProcessingImmediateClasses = Table[Class]{
	{0x1F000000, 0x10000000, ClassPCRelAddressing},
	{0x1F800000, 0x11000000, ClassAddSubImmediate},
	{0x1F800000, 0x11800000, ClassAddSubImmediateWithTags},
	{0x1F800000, 0x12000000, ClassLogicalImmediate},
	{0x1F800000, 0x12800000, ClassMoveWideImmediate},
	{0x1F800000, 0x13000000, ClassBitfield},
	{0x1F800000, 0x13800000, ClassExtract},
}

var branchExceptionSystemClasses = Table[Class]{
	{0xFE000000, 0x54000000, ClassConditionalBranch},
	{0xFF000000, 0xD4000000, ClassExceptionGeneration},
	{0xFFFFF01F, 0xD503201F, ClassHints},
	{0xFFFFF000, 0xD5033000, ClassBarriers},
	{0xFFF8F000, 0xD5004000, ClassPState},
	{0xFFD80000, 0xD5080000, ClassSystemInstructions},
	{0xFFD00000, 0xD5100000, ClassSystemRegisterMove},
	{0xFE000000, 0xD6000000, ClassUnconditionalBranchRegister},
	{0x7C000000, 0x14000000, ClassUnconditionalBranchImmediate},
	{0x7E000000, 0x34000000, ClassCompareAndBranch},
	{0x7E000000, 0x36000000, ClassTestAndBranch},
}

var dataProcessingRegisterClasses = Table[Class]{
	{0x5FE00000, 0x1AC00000, ClassDataProcessing2Source},
	{0x5FE00000, 0x5AC00000, ClassDataProcessing1Source},
	{0x1F000000, 0x0A000000, ClassLogicalShiftedRegister},
	{0x1F200000, 0x0B000000, ClassAddSubShiftedRegister},
	{0x1F200000, 0x0B200000, ClassAddSubExtendedRegister},
	{0x1FE0FC00, 0x1A000000, ClassAddSubWithCarry},
	{0x1FE07C00, 0x1A000400, ClassRotateRightIntoFlags},
	{0x1FE03C00, 0x1A000800, ClassEvaluateIntoFlags},
	{0x1FE00800, 0x1A400000, ClassConditionalCompareRegister},
	{0x1FE00800, 0x1A400800, ClassConditionalCompareImmediate},
	{0x1FE00000, 0x1A800000, ClassConditionalSelect},
	{0x1F000000, 0x1B000000, ClassDataProcessing3Source},
}

var loadStoreClasses = Table[Class]{
	{0x3F000000, 0x08000000, ClassLoadStoreExclusive},
	{0x3B000000, 0x18000000, ClassLoadRegisterLiteral},
	{0x3B800000, 0x28000000, ClassLoadStoreNoAllocatePairOffset},
	{0x3B800000, 0x28800000, ClassLoadStorePairPostIndexed},
	{0x3B800000, 0x29000000, ClassLoadStorePairOffset},
	{0x3B800000, 0x29800000, ClassLoadStorePairPreIndexed},
	{0x3B200C00, 0x38000000, ClassLoadStoreUnscaledImmediate},
	{0x3B200C00, 0x38000400, ClassLoadStoreImmediatePostIndexed},
	{0x3B200C00, 0x38000800, ClassLoadStoreUnprivileged},
	{0x3B200C00, 0x38000C00, ClassLoadStoreImmediatePreIndexed},
	{0x3B200C00, 0x38200000, ClassAtomicMemoryOperations},
	{0x3B200C00, 0x38200800, ClassLoadStoreRegisterOffset},
	{0x3B000000, 0x39000000, ClassLoadStoreUnsignedImmediate},
}

// Decoders holds one stateless ClassDecoder per dispatchable group.
type Decoders struct {
	byGroup map[DecodeGroup]ClassDecoder
}

// DefaultDecoders builds the class decoders of every group.
func DefaultDecoders() *Decoders {
	d := &Decoders{byGroup: make(map[DecodeGroup]ClassDecoder)}
	for _, td := range []*tableDecoder{
		{GroupReserved, reservedClasses},
		{GroupSVE, sveClasses},
		{GroupDataProcessingImmediate, dataProcessingImmediateClasses},
		{GroupBranchExceptionSystem, branchExceptionSystemClasses},
		{GroupLoadStore, loadStoreClasses},
		{GroupDataProcessingRegister, dataProcessingRegisterClasses},
		{GroupScalarFPAdvancedSIMD, simdClasses},
	} {
		d.byGroup[td.group] = td
	}
	return d
}

// For returns the decoder of g. ok is false for GroupUndefined.
func (d *Decoders) For(g DecodeGroup) (ClassDecoder, bool) {
	cd, ok := d.byGroup[g]
	return cd, ok
}
