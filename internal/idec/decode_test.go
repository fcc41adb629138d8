package idec

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	icommon "armemu/internal/common"
	"armemu/internal/emu"
)

func TestDecode_SampleProgram(t *testing.T) {
	tests := []struct {
		word  uint32
		group DecodeGroup
		class Class
		op    Op
	}{
		{0xd10043ff, GroupDataProcessingImmediate, ClassAddSubImmediate, OpSUBi64},
		{0x528000a0, GroupDataProcessingImmediate, ClassMoveWideImmediate, OpMOVZ32},
		{0xb9000fe0, GroupLoadStore, ClassLoadStoreUnsignedImmediate, OpSTR32},
		{0xb9400fe0, GroupLoadStore, ClassLoadStoreUnsignedImmediate, OpLDR32},
		{0x71000c1f, GroupDataProcessingImmediate, ClassAddSubImmediate, OpSUBSi32},
		{0x54000061, GroupBranchExceptionSystem, ClassConditionalBranch, OpBcond},
		{0x14000007, GroupBranchExceptionSystem, ClassUnconditionalBranchImmediate, OpB},
		{0x910043ff, GroupDataProcessingImmediate, ClassAddSubImmediate, OpADDi64},
		{0xd65f03c0, GroupBranchExceptionSystem, ClassUnconditionalBranchRegister, OpRET},
	}

	for _, tt := range tests {
		t.Run(Instruction(tt.word).String(), func(t *testing.T) {
			got, err := Decode(Instruction(tt.word))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			want := Decoded{Inst: Instruction(tt.word), Group: tt.group, Class: tt.class, Op: tt.op}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_Encodings(t *testing.T) {
	tests := []struct {
		name string
		word uint32
		op   Op
	}{
		{"adr x0, #0", 0x10000000, OpADR},
		{"adrp x0, #0", 0x90000000, OpADRP},
		{"orr w0, wzr, #1", 0x320003e0, OpORRi32},
		{"and x0, x1, #0xff", 0x92401c20, OpANDi64},
		{"movk x1, #1, lsl #16", 0xf2a00021, OpMOVK64},
		{"movn x0, #0", 0x92800000, OpMOVN64},
		{"ubfm w0, w1, #1, #31", 0x53017c20, OpUBFM32},
		{"sbfm x0, x1, #0, #31", 0x93407c20, OpSBFM64},
		{"extr x0, x1, x2, #4", 0x93c21020, OpEXTR64},
		{"svc #0", 0xd4000001, OpSVC},
		{"brk #0", 0xd4200000, OpBRK},
		{"nop", 0xd503201f, OpNOP},
		{"yield", 0xd503203f, OpHINT},
		{"dmb ish", 0xd5033bbf, OpDMB},
		{"br x1", 0xd61f0020, OpBR},
		{"blr x1", 0xd63f0020, OpBLR},
		{"bl #4", 0x94000004, OpBL},
		{"cbz w0, #2", 0x34000040, OpCBZ32},
		{"cbnz x3, #2", 0xb5000043, OpCBNZ64},
		{"tbnz w0, #3, #2", 0x37180040, OpTBNZ},
		{"udiv x0, x1, x2", 0x9ac20820, OpUDIV},
		{"lslv w0, w1, w2", 0x1ac22020, OpLSLV},
		{"rev x0, x1", 0xdac00c20, OpREV64},
		{"clz w0, w1", 0x5ac01020, OpCLZ},
		{"orr x0, x1, x2", 0xaa020020, OpORR},
		{"bics w0, w1, w2", 0x6a220020, OpBICS},
		{"add x0, x1, x2, lsl #2", 0x8b020820, OpADD},
		{"subs w0, w1, w2", 0x6b020020, OpSUBS},
		{"add x0, sp, w1, uxtw", 0x8b2143e0, OpADDext},
		{"adc x0, x1, x2", 0x9a020020, OpADC},
		{"ccmp x0, #1, #0, eq", 0xfa410800, OpCCMPi},
		{"ccmn w0, w1, #2, ne", 0x3a411002, OpCCMNr},
		{"csinc w0, w1, w2, ge", 0x1a82a420, OpCSINC},
		{"madd x0, x1, x2, x3", 0x9b020c20, OpMADD},
		{"umulh x0, x1, x2", 0x9bc27c20, OpUMULH},
		{"strb w0, [x1]", 0x39000020, OpSTRB},
		{"ldrsw x0, [x1, #4]", 0xb9800420, OpLDRSW},
		{"str x0, [x1, #8]", 0xf9000420, OpSTR64},
		{"ldr x0, [x1], #8", 0xf8408420, OpLDR64},
		{"str w0, [x1, #-4]!", 0xb81fcc20, OpSTR32},
		{"stur w0, [x1, #-4]", 0xb81fc020, OpSTR32},
		{"ldr x0, [x1, x2]", 0xf8626820, OpLDR64},
		{"ldr w0, #8", 0x18000040, OpLDR32},
		{"stp x29, x30, [sp, #-16]!", 0xa9bf7bfd, OpSTP64},
		{"ldp w0, w1, [x2]", 0x29400440, OpLDP32},
		{"udf #0", 0x00000000, OpUDF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(Instruction(tt.word))
			if err != nil {
				t.Fatalf("Decode(0x%08x) error = %v", tt.word, err)
			}
			if got.Op != tt.op {
				t.Errorf("Decode(0x%08x).Op = %v, want %v (class %v)", tt.word, got.Op, tt.op, got.Class)
			}
		})
	}
}

func TestDecode_Failures(t *testing.T) {
	tests := []struct {
		name     string
		word     uint32
		wantCode emu.Err
		wantKind icommon.Kind
	}{
		{"unallocated op0 0001", 0x02000000, emu.ErrUndefinedInstruction, icommon.KindDecodeFault},
		{"unallocated op0 0011", 0x06000000, emu.ErrUndefinedInstruction, icommon.KindDecodeFault},
		{"reserved group outside UDF", 0x00010000, emu.ErrUnclassifiable, icommon.KindDecodeFault},
		{"simd add v0.4s", 0x4ea18400, emu.ErrNotImplemented, icommon.KindExecutionFault},
		{"sve", 0x04200000, emu.ErrNotImplemented, icommon.KindExecutionFault},
		{"ldxr x0, [x1]", 0xc85f7c20, emu.ErrNotImplemented, icommon.KindExecutionFault},
		{"mrs x0, nzcv", 0xd53b4200, emu.ErrNotImplemented, icommon.KindExecutionFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(Instruction(tt.word))
			var e *icommon.Error
			if !errors.As(err, &e) {
				t.Fatalf("Decode(0x%08x) error = %v, want *common.Error", tt.word, err)
			}
			if e.Code != tt.wantCode {
				t.Errorf("code = %v, want %v", e.Code, tt.wantCode)
			}
			if e.Kind() != tt.wantKind {
				t.Errorf("kind = %v, want %v", e.Kind(), tt.wantKind)
			}
		})
	}
}

func TestGroupOf_Totality(t *testing.T) {
	valid := map[DecodeGroup]bool{GroupUndefined: true}
	for g := range groupNames {
		valid[g] = true
	}

	// Every op0 value either classifies or yields the sentinel, and the
	// first-match result never changes between evaluations.
	for op0 := uint32(0); op0 < 16; op0++ {
		inst := Instruction(op0 << 25)
		g1, g2 := GroupOf(inst), GroupOf(inst)
		if g1 != g2 {
			t.Errorf("op0 %04b: GroupOf not deterministic: %v vs %v", op0, g1, g2)
		}
		if !valid[g1] {
			t.Errorf("op0 %04b: GroupOf = %d, not a group or the sentinel", op0, uint32(g1))
		}
	}

	seed := uint32(0x9e3779b9)
	for i := 0; i < 20000; i++ {
		seed = seed*1664525 + 1013904223
		d1, err1 := Decode(Instruction(seed))
		d2, err2 := Decode(Instruction(seed))
		if d1 != d2 || (err1 == nil) != (err2 == nil) {
			t.Fatalf("Decode(0x%08x) not deterministic", seed)
		}
		if err1 == nil && (d1.Class == ClassUndefined || d1.Op == OpUndefined) {
			t.Fatalf("Decode(0x%08x) succeeded with sentinel values %v", seed, d1)
		}
	}
}

func TestGroupUndefined_IsMaxValue(t *testing.T) {
	if GroupUndefined != DecodeGroup(^uint32(0)) {
		t.Errorf("GroupUndefined = %d, want max uint32", uint32(GroupUndefined))
	}
	if _, ok := DefaultDecoders().For(GroupUndefined); ok {
		t.Error("GroupUndefined must not have a class decoder")
	}
	for g := range groupNames {
		if g == GroupUndefined {
			continue
		}
		cd, ok := DefaultDecoders().For(g)
		if !ok || cd.Group() != g {
			t.Errorf("For(%v) = %v, %v", g, cd, ok)
		}
	}
}

func TestTable_Lookup(t *testing.T) {
	tbl := Table[Op]{
		{0xF0, 0x10, OpADD},
		{0xFF, 0x11, OpSUB},
	}
	if got := tbl.Lookup(0x11); got != OpADD {
		t.Errorf("Lookup(0x11) = %v, want first match ADD", got)
	}
	if got := tbl.Lookup(0x20); got != OpUndefined {
		t.Errorf("Lookup(0x20) = %v, want Undefined", got)
	}
	if diff := cmp.Diff([]Op{OpADD, OpSUB}, tbl.Matches(0x11)); diff != "" {
		t.Errorf("Matches mismatch (-want +got):\n%s", diff)
	}
}
