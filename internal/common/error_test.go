package common

import (
	"errors"
	"fmt"
	"testing"

	"armemu/internal/emu"
)

func TestErrorStrings(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "Invalid SevNone",
			err:      NewError(emu.ErrSevNone, emu.OK),
			expected: "EMULATOR INTERNAL ERROR: Invalid Error Object",
		},
		{
			name:     "Invalid Sev Out of Bounds",
			err:      NewError(emu.ErrSeverity(99), emu.OK),
			expected: "EMULATOR INTERNAL ERROR: Invalid Error Object",
		},
		{
			name:     "Error Basic",
			err:      NewError(emu.ErrSevError, emu.ErrFail),
			expected: "ERROR:0x0001 (EMU_ERR_FAIL) [General failure.]; ",
		},
		{
			name:     "Warning with address",
			err:      NewErrorWithAddr(emu.ErrSevWarn, emu.ErrOutOfBounds, 0x40),
			expected: "WARN :0x000c (EMU_ERR_OUT_OF_BOUNDS) [Memory access beyond declared size.]; Addr=0x40; ",
		},
		{
			name:     "Info with message",
			err:      NewErrorMsg(emu.ErrSevInfo, emu.ErrUntracked, "handle 7"),
			expected: "INFO :0x0008 (EMU_ERR_UNTRACKED) [Process handle not tracked by the MMU.]; handle 7",
		},
		{
			name:     "Error with address and message",
			err:      NewErrorWithAddrMsg(emu.ErrSevError, emu.ErrUndefinedInstruction, 3, "0x00000000"),
			expected: "ERROR:0x0002 (EMU_ERR_UNDEFINED_INSTRUCTION) [Undefined instruction encoding.]; Addr=0x3; 0x00000000",
		},
		{
			name:     "Unknown error code",
			err:      NewError(emu.ErrSevError, 9999),
			expected: "ERROR:0x270f (unknown); ",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.err.Error()
			if got != tc.expected {
				t.Errorf("Expected string: %q, got: %q", tc.expected, got)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	sentinel := NewError(emu.ErrSevError, emu.ErrAlreadyTracked)
	err := fmt.Errorf("add process: %w", Errorf(emu.ErrAlreadyTracked, "handle %d", 4))

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should match on error code through wrapping")
	}
	if errors.Is(err, NewError(emu.ErrSevError, emu.ErrUntracked)) {
		t.Error("errors.Is should not match a different code")
	}

	var target *Error
	if !errors.As(err, &target) || target.Message != "handle 4" {
		t.Errorf("errors.As returned %v", target)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		code emu.Err
		want Kind
	}{
		{emu.ErrUndefinedInstruction, KindDecodeFault},
		{emu.ErrUnclassifiable, KindDecodeFault},
		{emu.ErrNotImplemented, KindExecutionFault},
		{emu.ErrUndefinedBehaviour, KindUndefinedBehaviour},
		{emu.ErrAlreadyTracked, KindConfiguration},
		{emu.ErrInvalidPhysicalAccess, KindConfiguration},
		{emu.ErrStrategyUnsupported, KindConfiguration},
		{emu.ErrOutOfBounds, KindPrecondition},
		{emu.ErrCannotStep, KindPrecondition},
		{emu.OK, KindNone},
	}

	for _, tt := range tests {
		if got := KindOf(tt.code); got != tt.want {
			t.Errorf("KindOf(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}

	if got := NewError(emu.ErrSevError, emu.ErrNotImplemented).Kind().String(); got != "ExecutionFault" {
		t.Errorf("Kind().String() = %q, want ExecutionFault", got)
	}
}

func TestKindOfError(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", Errorf(emu.ErrBadProgram, "empty"))
	if got := KindOfError(wrapped); got != KindPrecondition {
		t.Errorf("KindOfError(wrapped) = %v, want %v", got, KindPrecondition)
	}
	if got := KindOfError(errors.New("plain")); got != KindNone {
		t.Errorf("KindOfError(plain) = %v, want %v", got, KindNone)
	}
	if got := KindOfError(nil); got != KindNone {
		t.Errorf("KindOfError(nil) = %v, want %v", got, KindNone)
	}
}
