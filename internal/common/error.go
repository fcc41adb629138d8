package common

import (
	"errors"
	"fmt"
	"strings"

	"armemu/internal/emu"
)

// Kind groups error codes by how the caller is expected to react.
type Kind int

const (
	KindNone Kind = iota
	KindDecodeFault
	KindExecutionFault
	KindUndefinedBehaviour
	KindConfiguration
	KindPrecondition
)

func (k Kind) String() string {
	switch k {
	case KindDecodeFault:
		return "DecodeFault"
	case KindExecutionFault:
		return "ExecutionFault"
	case KindUndefinedBehaviour:
		return "UndefinedBehaviour"
	case KindConfiguration:
		return "ConfigurationError"
	case KindPrecondition:
		return "PreconditionViolation"
	default:
		return "None"
	}
}

// Error represents the emulator error object.
type Error struct {
	Code    emu.Err
	Sev     emu.ErrSeverity
	Addr    emu.Address
	Message string
}

func NewError(sev emu.ErrSeverity, code emu.Err) *Error {
	return &Error{
		Code: code,
		Sev:  sev,
		Addr: emu.BadAddress,
	}
}

func NewErrorWithAddr(sev emu.ErrSeverity, code emu.Err, addr emu.Address) *Error {
	return &Error{
		Code: code,
		Sev:  sev,
		Addr: addr,
	}
}

func NewErrorMsg(sev emu.ErrSeverity, code emu.Err, msg string) *Error {
	return &Error{
		Code:    code,
		Sev:     sev,
		Addr:    emu.BadAddress,
		Message: msg,
	}
}

func NewErrorWithAddrMsg(sev emu.ErrSeverity, code emu.Err, addr emu.Address, msg string) *Error {
	return &Error{
		Code:    code,
		Sev:     sev,
		Addr:    addr,
		Message: msg,
	}
}

// Errorf builds an error-severity Error with a formatted message.
func Errorf(code emu.Err, format string, args ...any) *Error {
	return NewErrorMsg(emu.ErrSevError, code, fmt.Sprintf(format, args...))
}

// Error implements the standard error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	switch e.Sev {
	case emu.ErrSevNone:
		return "EMULATOR INTERNAL ERROR: Invalid Error Object"
	case emu.ErrSevError:
		sb.WriteString("ERROR:")
	case emu.ErrSevWarn:
		sb.WriteString("WARN :")
	case emu.ErrSevInfo:
		sb.WriteString("INFO :")
	default:
		return "EMULATOR INTERNAL ERROR: Invalid Error Object"
	}

	sb.WriteString(fmt.Sprintf("0x%04x ", e.Code))

	if desc, ok := errorCodeDesc[e.Code]; ok {
		sb.WriteString(fmt.Sprintf("(%s) [%s]; ", desc.name, desc.msg))
	} else {
		sb.WriteString("(unknown); ")
	}

	if e.Addr != emu.BadAddress {
		sb.WriteString(fmt.Sprintf("Addr=0x%X; ", uint64(e.Addr)))
	}

	sb.WriteString(e.Message)
	return sb.String()
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Kind classifies the error code.
func (e *Error) Kind() Kind {
	return KindOf(e.Code)
}

// KindOf classifies an error code.
func KindOf(code emu.Err) Kind {
	switch code {
	case emu.ErrUndefinedInstruction, emu.ErrUnclassifiable:
		return KindDecodeFault
	case emu.ErrNotImplemented, emu.ErrUndefinedRegister, emu.ErrFail:
		return KindExecutionFault
	case emu.ErrUndefinedBehaviour:
		return KindUndefinedBehaviour
	case emu.ErrAlreadyTracked, emu.ErrUntracked, emu.ErrInvalidPhysicalAccess,
		emu.ErrInvalidSettings, emu.ErrStrategyUnsupported:
		return KindConfiguration
	case emu.ErrOutOfBounds, emu.ErrCannotStep, emu.ErrBadProgram, emu.ErrProcessRunning,
		emu.ErrStateUnreachable, emu.ErrClosed, emu.ErrInterrupted:
		return KindPrecondition
	default:
		return KindNone
	}
}

// KindOfError classifies err, or returns KindNone when err carries no
// emulator error code.
func KindOfError(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindNone
}

type errDesc struct {
	name string
	msg  string
}

var errorCodeDesc = map[emu.Err]errDesc{
	emu.OK:                       {"EMU_OK", "No Error."},
	emu.ErrFail:                  {"EMU_ERR_FAIL", "General failure."},
	emu.ErrUndefinedInstruction:  {"EMU_ERR_UNDEFINED_INSTRUCTION", "Undefined instruction encoding."},
	emu.ErrUnclassifiable:        {"EMU_ERR_UNCLASSIFIABLE", "Instruction does not belong to any decode group."},
	emu.ErrNotImplemented:        {"EMU_ERR_NOT_IMPLEMENTED", "Instruction semantics not implemented."},
	emu.ErrUndefinedRegister:     {"EMU_ERR_UNDEFINED_REGISTER", "Undefined register access."},
	emu.ErrUndefinedBehaviour:    {"EMU_ERR_UNDEFINED_BEHAVIOUR", "Architectural precondition violated."},
	emu.ErrAlreadyTracked:        {"EMU_ERR_ALREADY_TRACKED", "Process handle already tracked by the MMU."},
	emu.ErrUntracked:             {"EMU_ERR_UNTRACKED", "Process handle not tracked by the MMU."},
	emu.ErrInvalidPhysicalAccess: {"EMU_ERR_INVALID_PHYSICAL_ACCESS", "Translated address outside the process range."},
	emu.ErrInvalidSettings:       {"EMU_ERR_INVALID_SETTINGS", "Invalid system settings."},
	emu.ErrStrategyUnsupported:   {"EMU_ERR_STRATEGY_UNSUPPORTED", "Cache strategy declared but not implemented."},
	emu.ErrOutOfBounds:           {"EMU_ERR_OUT_OF_BOUNDS", "Memory access beyond declared size."},
	emu.ErrCannotStep:            {"EMU_ERR_CANNOT_STEP", "Result was not created in step-in mode."},
	emu.ErrBadProgram:            {"EMU_ERR_BAD_PROGRAM", "Program image is empty or malformed."},
	emu.ErrProcessRunning:        {"EMU_ERR_PROCESS_RUNNING", "Operation not allowed while a program is running."},
	emu.ErrStateUnreachable:      {"EMU_ERR_STATE_UNREACHABLE", "Result reached a different terminal state."},
	emu.ErrClosed:                {"EMU_ERR_CLOSED", "Component has been closed."},
	emu.ErrInterrupted:           {"EMU_ERR_INTERRUPTED", "Program interrupted before completion."},
	emu.ErrLast:                  {"EMU_ERR_LAST", "No error - error code end marker"},
}
