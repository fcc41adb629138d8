package idec

// Op is a concrete operation. Register-form data processing ops carry no
// width; the sf bit selects 32 or 64 bits at execution.
type Op uint32

const (
	OpUDF Op = iota

	// Data processing (immediate)
	OpADR
	OpADRP
	OpADDi32
	OpADDSi32
	OpSUBi32
	OpSUBSi32
	OpADDi64
	OpADDSi64
	OpSUBi64
	OpSUBSi64
	OpANDi32
	OpORRi32
	OpEORi32
	OpANDSi32
	OpANDi64
	OpORRi64
	OpEORi64
	OpANDSi64
	OpMOVN32
	OpMOVZ32
	OpMOVK32
	OpMOVN64
	OpMOVZ64
	OpMOVK64
	OpSBFM32
	OpBFM32
	OpUBFM32
	OpSBFM64
	OpBFM64
	OpUBFM64
	OpEXTR32
	OpEXTR64

	// Branches, exception generating and system instructions
	OpBcond
	OpSVC
	OpHVC
	OpSMC
	OpBRK
	OpHLT
	OpNOP
	OpHINT
	OpCLREX
	OpDSB
	OpDMB
	OpISB
	OpBR
	OpBLR
	OpRET
	OpERET
	OpB
	OpBL
	OpCBZ32
	OpCBNZ32
	OpCBZ64
	OpCBNZ64
	OpTBZ
	OpTBNZ

	// Data processing (register)
	OpUDIV
	OpSDIV
	OpLSLV
	OpLSRV
	OpASRV
	OpRORV
	OpRBIT
	OpREV16
	OpREV32
	OpREV64
	OpCLZ
	OpCLS
	OpAND
	OpBIC
	OpORR
	OpORN
	OpEOR
	OpEON
	OpANDS
	OpBICS
	OpADD
	OpADDS
	OpSUB
	OpSUBS
	OpADDext
	OpADDSext
	OpSUBext
	OpSUBSext
	OpADC
	OpADCS
	OpSBC
	OpSBCS
	OpCCMNr
	OpCCMPr
	OpCCMNi
	OpCCMPi
	OpCSEL
	OpCSINC
	OpCSINV
	OpCSNEG
	OpMADD
	OpMSUB
	OpSMADDL
	OpSMSUBL
	OpSMULH
	OpUMADDL
	OpUMSUBL
	OpUMULH

	// Loads and stores
	OpSTRB
	OpLDRB
	OpSTRH
	OpLDRH
	OpSTR32
	OpLDR32
	OpLDRSW
	OpSTR64
	OpLDR64
	OpSTP32
	OpLDP32
	OpSTP64
	OpLDP64

	opCount

	OpUndefined Op = ^Op(0)
)

var opNames = [opCount]string{
	OpUDF: "UDF", OpADR: "ADR", OpADRP: "ADRP",
	OpADDi32: "ADDi32", OpADDSi32: "ADDSi32", OpSUBi32: "SUBi32", OpSUBSi32: "SUBSi32",
	OpADDi64: "ADDi64", OpADDSi64: "ADDSi64", OpSUBi64: "SUBi64", OpSUBSi64: "SUBSi64",
	OpANDi32: "ANDi32", OpORRi32: "ORRi32", OpEORi32: "EORi32", OpANDSi32: "ANDSi32",
	OpANDi64: "ANDi64", OpORRi64: "ORRi64", OpEORi64: "EORi64", OpANDSi64: "ANDSi64",
	OpMOVN32: "MOVN32", OpMOVZ32: "MOVZ32", OpMOVK32: "MOVK32",
	OpMOVN64: "MOVN64", OpMOVZ64: "MOVZ64", OpMOVK64: "MOVK64",
	OpSBFM32: "SBFM32", OpBFM32: "BFM32", OpUBFM32: "UBFM32",
	OpSBFM64: "SBFM64", OpBFM64: "BFM64", OpUBFM64: "UBFM64",
	OpEXTR32: "EXTR32", OpEXTR64: "EXTR64",
	OpBcond: "B.cond", OpSVC: "SVC", OpHVC: "HVC", OpSMC: "SMC", OpBRK: "BRK", OpHLT: "HLT",
	OpNOP: "NOP", OpHINT: "HINT", OpCLREX: "CLREX", OpDSB: "DSB", OpDMB: "DMB", OpISB: "ISB",
	OpBR: "BR", OpBLR: "BLR", OpRET: "RET", OpERET: "ERET", OpB: "B", OpBL: "BL",
	OpCBZ32: "CBZ32", OpCBNZ32: "CBNZ32", OpCBZ64: "CBZ64", OpCBNZ64: "CBNZ64",
	OpTBZ: "TBZ", OpTBNZ: "TBNZ",
	OpUDIV: "UDIV", OpSDIV: "SDIV", OpLSLV: "LSLV", OpLSRV: "LSRV", OpASRV: "ASRV", OpRORV: "RORV",
	OpRBIT: "RBIT", OpREV16: "REV16", OpREV32: "REV32", OpREV64: "REV64", OpCLZ: "CLZ", OpCLS: "CLS",
	OpAND: "AND", OpBIC: "BIC", OpORR: "ORR", OpORN: "ORN", OpEOR: "EOR", OpEON: "EON",
	OpANDS: "ANDS", OpBICS: "BICS",
	OpADD: "ADD", OpADDS: "ADDS", OpSUB: "SUB", OpSUBS: "SUBS",
	OpADDext: "ADDext", OpADDSext: "ADDSext", OpSUBext: "SUBext", OpSUBSext: "SUBSext",
	OpADC: "ADC", OpADCS: "ADCS", OpSBC: "SBC", OpSBCS: "SBCS",
	OpCCMNr: "CCMNr", OpCCMPr: "CCMPr", OpCCMNi: "CCMNi", OpCCMPi: "CCMPi",
	OpCSEL: "CSEL", OpCSINC: "CSINC", OpCSINV: "CSINV", OpCSNEG: "CSNEG",
	OpMADD: "MADD", OpMSUB: "MSUB", OpSMADDL: "SMADDL", OpSMSUBL: "SMSUBL", OpSMULH: "SMULH",
	OpUMADDL: "UMADDL", OpUMSUBL: "UMSUBL", OpUMULH: "UMULH",
	OpSTRB: "STRB", OpLDRB: "LDRB", OpSTRH: "STRH", OpLDRH: "LDRH",
	OpSTR32: "STR32", OpLDR32: "LDR32", OpLDRSW: "LDRSW", OpSTR64: "STR64", OpLDR64: "LDR64",
	OpSTP32: "STP32", OpLDP32: "LDP32", OpSTP64: "STP64", OpLDP64: "LDP64",
}

func (o Op) String() string {
	if o < opCount {
		return opNames[o]
	}
	if o == OpUndefined {
		return "Undefined"
	}
	return "Unknown"
}

var singleRegisterOps = Table[Op]{
	{0xFFC00000, 0x38000000, OpSTRB},
	{0xFFC00000, 0x38400000, OpLDRB},
	{0xFFC00000, 0x78000000, OpSTRH},
	{0xFFC00000, 0x78400000, OpLDRH},
	{0xFFC00000, 0xB8000000, OpSTR32},
	{0xFFC00000, 0xB8400000, OpLDR32},
	{0xFFC00000, 0xB8800000, OpLDRSW},
	{0xFFC00000, 0xF8000000, OpSTR64},
	{0xFFC00000, 0xF8400000, OpLDR64},
}

var pairOps = Table[Op]{
	{0xFE400000, 0x28000000, OpSTP32},
	{0xFE400000, 0x28400000, OpLDP32},
	{0xFE400000, 0xA8000000, OpSTP64},
	{0xFE400000, 0xA8400000, OpLDP64},
}

// opTables maps a class to its operation table. Classes without a table have
// no modelled operations.
var opTables = map[Class]Table[Op]{
	ClassReservedUDF: {
		{0xFFFF0000, 0x00000000, OpUDF},
	},
	ClassPCRelAddressing: {
		{0x9F000000, 0x10000000, OpADR},
		{0x9F000000, 0x90000000, OpADRP},
	},
	ClassAddSubImmediate: {
		{0xFF800000, 0x11000000, OpADDi32},
		{0xFF800000, 0x31000000, OpADDSi32},
		{0xFF800000, 0x51000000, OpSUBi32},
		{0xFF800000, 0x71000000, OpSUBSi32},
		{0xFF800000, 0x91000000, OpADDi64},
		{0xFF800000, 0xB1000000, OpADDSi64},
		{0xFF800000, 0xD1000000, OpSUBi64},
		{0xFF800000, 0xF1000000, OpSUBSi64},
	},
	ClassLogicalImmediate: {
		{0xFF800000, 0x12000000, OpANDi32},
		{0xFF800000, 0x32000000, OpORRi32},
		{0xFF800000, 0x52000000, OpEORi32},
		{0xFF800000, 0x72000000, OpANDSi32},
		{0xFF800000, 0x92000000, OpANDi64},
		{0xFF800000, 0xB2000000, OpORRi64},
		{0xFF800000, 0xD2000000, OpEORi64},
		{0xFF800000, 0xF2000000, OpANDSi64},
	},
	ClassMoveWideImmediate: {
		{0xFF800000, 0x12800000, OpMOVN32},
		{0xFF800000, 0x52800000, OpMOVZ32},
		{0xFF800000, 0x72800000, OpMOVK32},
		{0xFF800000, 0x92800000, OpMOVN64},
		{0xFF800000, 0xD2800000, OpMOVZ64},
		{0xFF800000, 0xF2800000, OpMOVK64},
	},
	ClassBitfield: {
		{0xFF800000, 0x13000000, OpSBFM32},
		{0xFF800000, 0x33000000, OpBFM32},
		{0xFF800000, 0x53000000, OpUBFM32},
		{0xFF800000, 0x93000000, OpSBFM64},
		{0xFF800000, 0xB3000000, OpBFM64},
		{0xFF800000, 0xD3000000, OpUBFM64},
	},
	ClassExtract: {
		{0xFFA00000, 0x13800000, OpEXTR32},
		{0xFFA00000, 0x93800000, OpEXTR64},
	},

	ClassConditionalBranch: {
		{0xFF000010, 0x54000000, OpBcond},
	},
	ClassExceptionGeneration: {
		{0xFFE0001F, 0xD4000001, OpSVC},
		{0xFFE0001F, 0xD4000002, OpHVC},
		{0xFFE0001F, 0xD4000003, OpSMC},
		{0xFFE0001F, 0xD4200000, OpBRK},
		{0xFFE0001F, 0xD4400000, OpHLT},
	},
	ClassHints: {
		{0xFFFFFFFF, 0xD503201F, OpNOP},
		{0xFFFFF01F, 0xD503201F, OpHINT},
	},
	ClassBarriers: {
		{0xFFFFF0FF, 0xD503305F, OpCLREX},
		{0xFFFFF0FF, 0xD503309F, OpDSB},
		{0xFFFFF0FF, 0xD50330BF, OpDMB},
		{0xFFFFF0FF, 0xD50330DF, OpISB},
	},
	ClassUnconditionalBranchRegister: {
		{0xFFFFFC1F, 0xD61F0000, OpBR},
		{0xFFFFFC1F, 0xD63F0000, OpBLR},
		{0xFFFFFC1F, 0xD65F0000, OpRET},
		{0xFFFFFFFF, 0xD69F03E0, OpERET},
	},
	ClassUnconditionalBranchImmediate: {
		{0xFC000000, 0x14000000, OpB},
		{0xFC000000, 0x94000000, OpBL},
	},
	ClassCompareAndBranch: {
		{0xFF000000, 0x34000000, OpCBZ32},
		{0xFF000000, 0x35000000, OpCBNZ32},
		{0xFF000000, 0xB4000000, OpCBZ64},
		{0xFF000000, 0xB5000000, OpCBNZ64},
	},
	ClassTestAndBranch: {
		{0x7F000000, 0x36000000, OpTBZ},
		{0x7F000000, 0x37000000, OpTBNZ},
	},

	ClassDataProcessing2Source: {
		{0x7FE0FC00, 0x1AC00800, OpUDIV},
		{0x7FE0FC00, 0x1AC00C00, OpSDIV},
		{0x7FE0FC00, 0x1AC02000, OpLSLV},
		{0x7FE0FC00, 0x1AC02400, OpLSRV},
		{0x7FE0FC00, 0x1AC02800, OpASRV},
		{0x7FE0FC00, 0x1AC02C00, OpRORV},
	},
	ClassDataProcessing1Source: {
		{0x7FFFFC00, 0x5AC00000, OpRBIT},
		{0x7FFFFC00, 0x5AC00400, OpREV16},
		{0x7FFFFC00, 0x5AC00800, OpREV32},
		{0x7FFFFC00, 0x5AC00C00, OpREV64},
		{0x7FFFFC00, 0x5AC01000, OpCLZ},
		{0x7FFFFC00, 0x5AC01400, OpCLS},
	},
	ClassLogicalShiftedRegister: {
		{0x7F200000, 0x0A000000, OpAND},
		{0x7F200000, 0x0A200000, OpBIC},
		{0x7F200000, 0x2A000000, OpORR},
		{0x7F200000, 0x2A200000, OpORN},
		{0x7F200000, 0x4A000000, OpEOR},
		{0x7F200000, 0x4A200000, OpEON},
		{0x7F200000, 0x6A000000, OpANDS},
		{0x7F200000, 0x6A200000, OpBICS},
	},
	ClassAddSubShiftedRegister: {
		{0x7F200000, 0x0B000000, OpADD},
		{0x7F200000, 0x2B000000, OpADDS},
		{0x7F200000, 0x4B000000, OpSUB},
		{0x7F200000, 0x6B000000, OpSUBS},
	},
	ClassAddSubExtendedRegister: {
		{0x7FE00000, 0x0B200000, OpADDext},
		{0x7FE00000, 0x2B200000, OpADDSext},
		{0x7FE00000, 0x4B200000, OpSUBext},
		{0x7FE00000, 0x6B200000, OpSUBSext},
	},
	ClassAddSubWithCarry: {
		{0x7FE0FC00, 0x1A000000, OpADC},
		{0x7FE0FC00, 0x3A000000, OpADCS},
		{0x7FE0FC00, 0x5A000000, OpSBC},
		{0x7FE0FC00, 0x7A000000, OpSBCS},
	},
	ClassConditionalCompareRegister: {
		{0x7FE00C10, 0x3A400000, OpCCMNr},
		{0x7FE00C10, 0x7A400000, OpCCMPr},
	},
	ClassConditionalCompareImmediate: {
		{0x7FE00C10, 0x3A400800, OpCCMNi},
		{0x7FE00C10, 0x7A400800, OpCCMPi},
	},
	ClassConditionalSelect: {
		{0x7FE00C00, 0x1A800000, OpCSEL},
		{0x7FE00C00, 0x1A800400, OpCSINC},
		{0x7FE00C00, 0x5A800000, OpCSINV},
		{0x7FE00C00, 0x5A800400, OpCSNEG},
	},
	ClassDataProcessing3Source: {
		{0x7FE08000, 0x1B000000, OpMADD},
		{0x7FE08000, 0x1B008000, OpMSUB},
		{0xFFE08000, 0x9B200000, OpSMADDL},
		{0xFFE08000, 0x9B208000, OpSMSUBL},
		{0xFFE08000, 0x9B400000, OpSMULH},
		{0xFFE08000, 0x9BA00000, OpUMADDL},
		{0xFFE08000, 0x9BA08000, OpUMSUBL},
		{0xFFE08000, 0x9BC00000, OpUMULH},
	},

	ClassLoadRegisterLiteral: {
		{0xFF000000, 0x18000000, OpLDR32},
		{0xFF000000, 0x58000000, OpLDR64},
		{0xFF000000, 0x98000000, OpLDRSW},
	},
	ClassLoadStorePairPostIndexed:      pairOps,
	ClassLoadStorePairOffset:           pairOps,
	ClassLoadStorePairPreIndexed:       pairOps,
	ClassLoadStoreUnscaledImmediate:    singleRegisterOps,
	ClassLoadStoreImmediatePostIndexed: singleRegisterOps,
	ClassLoadStoreImmediatePreIndexed:  singleRegisterOps,
	ClassLoadStoreRegisterOffset: {
		{0xFFE00000, 0x38200000, OpSTRB},
		{0xFFE00000, 0x38600000, OpLDRB},
		{0xFFE00000, 0x78200000, OpSTRH},
		{0xFFE00000, 0x78600000, OpLDRH},
		{0xFFE00000, 0xB8200000, OpSTR32},
		{0xFFE00000, 0xB8600000, OpLDR32},
		{0xFFE00000, 0xB8A00000, OpLDRSW},
		{0xFFE00000, 0xF8200000, OpSTR64},
		{0xFFE00000, 0xF8600000, OpLDR64},
	},
	ClassLoadStoreUnsignedImmediate: {
		{0xFFC00000, 0x39000000, OpSTRB},
		{0xFFC00000, 0x39400000, OpLDRB},
		{0xFFC00000, 0x79000000, OpSTRH},
		{0xFFC00000, 0x79400000, OpLDRH},
		{0xFFC00000, 0xB9000000, OpSTR32},
		{0xFFC00000, 0xB9400000, OpLDR32},
		{0xFFC00000, 0xB9800000, OpLDRSW},
		{0xFFC00000, 0xF9000000, OpSTR64},
		{0xFFC00000, 0xF9400000, OpLDR64},
	},
}

// OpOf returns the operation of inst within class c, or OpUndefined when the
// class has no modelled operation for it.
func OpOf(c Class, inst Instruction) Op {
	t, ok := opTables[c]
	if !ok {
		return OpUndefined
	}
	return t.Lookup(uint32(inst))
}
