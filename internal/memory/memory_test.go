package memory

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	icommon "armemu/internal/common"
	"armemu/internal/emu"
)

func TestRandomAccessMemory_WriteRead(t *testing.T) {
	ram := NewRandomAccessMemory(emu.KB(64))

	tests := []struct {
		addr  emu.Address
		value emu.DataUnit
	}{
		{0, 0xdeadbeef},
		{1, 1},
		{InitialAllocationCap - 1, 0x1234},
		{InitialAllocationCap, 0x5678},
		{emu.KB(64) - 1, 0xffffffff},
	}

	for _, tt := range tests {
		if err := ram.Write(tt.addr, tt.value); err != nil {
			t.Fatalf("Write(%d) error = %v", tt.addr, err)
		}
		if ram.Size() < tt.addr+1 {
			t.Errorf("Size() = %d, want at least %d", ram.Size(), tt.addr+1)
		}
		got, err := ram.Read(tt.addr)
		if err != nil {
			t.Fatalf("Read(%d) error = %v", tt.addr, err)
		}
		if got != tt.value {
			t.Errorf("Read(%d) = 0x%X, want 0x%X", tt.addr, got, tt.value)
		}
	}
}

func TestRandomAccessMemory_LazyGrowth(t *testing.T) {
	ram := NewRandomAccessMemory(emu.MB(1))
	if got := ram.Backed(); got != InitialAllocationCap {
		t.Errorf("Backed() = %d, want initial cap %d", got, InitialAllocationCap)
	}

	// unwritten but declared addresses read as zero
	v, err := ram.Read(emu.MB(1) - 1)
	if err != nil || v != 0 {
		t.Errorf("Read beyond backing = (%d, %v), want (0, nil)", v, err)
	}

	if err := ram.Write(InitialAllocationCap+10, 7); err != nil {
		t.Fatal(err)
	}
	if got := ram.Backed(); got < InitialAllocationCap+11 {
		t.Errorf("Backed() = %d after growth, want >= %d", got, InitialAllocationCap+11)
	}

	small := NewRandomAccessMemory(16)
	if got := small.Backed(); got != 16 {
		t.Errorf("small Backed() = %d, want 16", got)
	}
}

func TestRandomAccessMemory_OutOfBounds(t *testing.T) {
	ram := NewRandomAccessMemory(8)

	_, err := ram.Read(8)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Read(8) error = %v, want ErrOutOfBounds", err)
	}
	if err := ram.Write(100, 1); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Write(100) error = %v, want ErrOutOfBounds", err)
	}
	if _, err := ram.ReadBlock(6, 3); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("ReadBlock(6,3) error = %v, want ErrOutOfBounds", err)
	}
	if err := ram.WriteBlock(7, []emu.DataUnit{1, 2}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("WriteBlock(7, 2 units) error = %v, want ErrOutOfBounds", err)
	}

	var e *icommon.Error
	if errors.As(err, &e) && e.Kind() != icommon.KindPrecondition {
		t.Errorf("out of bounds kind = %v, want PreconditionViolation", e.Kind())
	}
}

func TestRandomAccessMemory_Blocks(t *testing.T) {
	ram := NewRandomAccessMemory(InitialAllocationCap * 2)
	data := []emu.DataUnit{1, 2, 3, 4}

	start := InitialAllocationCap - 2
	if err := ram.WriteBlock(start, data); err != nil {
		t.Fatal(err)
	}
	got, err := ram.ReadBlock(start-1, 6)
	if err != nil {
		t.Fatal(err)
	}
	want := []emu.DataUnit{0, 1, 2, 3, 4, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadBlock mismatch (-want +got):\n%s", diff)
	}

	empty, err := ram.ReadBlock(0, 0)
	if err != nil || len(empty) != 0 {
		t.Errorf("ReadBlock(0,0) = (%v, %v), want empty", empty, err)
	}

	snap := ram.Watcher().Snapshot()
	want2 := WatcherSnapshot{Hint: HintRAM, ReadBlock: 1, WriteBlock: 1}
	if diff := cmp.Diff(want2, snap); diff != "" {
		t.Errorf("watcher mismatch (-want +got):\n%s", diff)
	}
	if snap.MemoryAccessCount() != 2 {
		t.Errorf("MemoryAccessCount() = %d, want 2", snap.MemoryAccessCount())
	}
}

func TestProgramMemory(t *testing.T) {
	pm := NewProgramMemoryFromBytes([]byte{0xff, 0x43, 0x00, 0xd1, 0xa0, 0x00})
	if pm.Len() != 2 || pm.Size() != 2 {
		t.Fatalf("Len() = %d, Size() = %d, want 2, 2", pm.Len(), pm.Size())
	}

	w0, _ := pm.Read(0)
	w1, _ := pm.Read(1)
	if w0 != 0xd10043ff {
		t.Errorf("word 0 = 0x%08X, want 0xD10043FF", w0)
	}
	if w1 != 0x000000a0 {
		t.Errorf("word 1 = 0x%08X, want zero padded 0x000000A0", w1)
	}
	if _, err := pm.Read(2); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Read past program error = %v, want ErrOutOfBounds", err)
	}
}

func TestWatcher_Ratios(t *testing.T) {
	var nilWatcher *Watcher
	nilWatcher.RecordHit()
	if nilWatcher.HitRatio() != 0 || nilWatcher.MemoryAccessCount() != 0 {
		t.Error("nil watcher should report zeros")
	}

	w := NewWatcher(HintCache)
	if w.HitRatio() != 0 || w.MissRatio() != 0 {
		t.Error("empty watcher ratios should be 0")
	}
	w.RecordHit()
	w.RecordHit()
	w.RecordHit()
	w.RecordMiss()
	w.RecordRead()

	if got := w.HitRatio(); got != 0.75 {
		t.Errorf("HitRatio() = %v, want 0.75", got)
	}
	if got := w.MissRatio(); got != 0.25 {
		t.Errorf("MissRatio() = %v, want 0.25", got)
	}
	if got := w.MemoryAccessCount(); got != 4 {
		t.Errorf("cache MemoryAccessCount() = %d, want hit+miss 4", got)
	}

	w.Reset()
	if diff := cmp.Diff(WatcherSnapshot{Hint: HintCache}, w.Snapshot()); diff != "" {
		t.Errorf("Reset() left counters (-want +got):\n%s", diff)
	}
}
