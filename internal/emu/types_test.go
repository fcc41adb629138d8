package emu

import "testing"

func TestUnitLiterals(t *testing.T) {
	tests := []struct {
		name string
		got  Address
		want Address
	}{
		{"zero bytes", B(0), 0},
		{"one byte rounds up", B(1), 1},
		{"exact unit", B(4), 1},
		{"partial second unit", B(5), 2},
		{"1KB", KB(1), 256},
		{"10KB", KB(10), 2560},
		{"1MB", MB(1), 256 * 1024},
		{"1GB", GB(1), 256 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %d units, want %d", tt.got, tt.want)
			}
		})
	}
}

func TestSentinels(t *testing.T) {
	if BadAddress != Address(0xFFFFFFFFFFFFFFFF) {
		t.Errorf("BadAddress = 0x%X, want all ones", BadAddress)
	}
	if ReturnAddress != 0xFFFFFFFFFFFFFFFF {
		t.Errorf("ReturnAddress = 0x%X, want all ones", ReturnAddress)
	}
	if ErrLast <= ErrInterrupted {
		t.Error("ErrLast must terminate the code list")
	}
}

func TestStatusStrings(t *testing.T) {
	tests := []struct {
		status ProcessStatus
		want   string
	}{
		{StatusIdle, "Idle"},
		{StatusRunning, "Running"},
		{StatusInterrupted, "Interrupted"},
		{ProcessStatus(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("ProcessStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}

	if EL1.String() != "EL1" || ExceptionLevel(9).String() != "EL?" {
		t.Error("ExceptionLevel.String() mismatch")
	}
}
