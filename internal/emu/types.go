package emu

// Addressing

// DataUnit is the architecture's addressable word.
type DataUnit uint32

// Address is a data-unit index, not a byte index.
type Address uint64

// DataUnitSize is the size of one DataUnit in bytes.
const DataUnitSize = 4

const (
	// BadAddress is an invalid address value
	BadAddress Address = ^Address(0)

	// ReturnAddress is the link register value a program returns to when it ends.
	ReturnAddress uint64 = ^uint64(0)
)

// B converts a byte count into data units, rounding up.
func B(n uint64) Address {
	return Address((n + DataUnitSize - 1) / DataUnitSize)
}

// KB converts kilobytes into data units.
func KB(n uint64) Address {
	return B(n * 1024)
}

// MB converts megabytes into data units.
func MB(n uint64) Address {
	return KB(n * 1024)
}

// GB converts gigabytes into data units.
func GB(n uint64) Address {
	return MB(n * 1024)
}

// General Return and Error Codes

// Err represents an emulator error code
type Err uint32

const (
	OK                       Err = 0
	ErrFail                  Err = 1
	ErrUndefinedInstruction  Err = 2
	ErrUnclassifiable        Err = 3
	ErrNotImplemented        Err = 4
	ErrUndefinedRegister     Err = 5
	ErrUndefinedBehaviour    Err = 6
	ErrAlreadyTracked        Err = 7
	ErrUntracked             Err = 8
	ErrInvalidPhysicalAccess Err = 9
	ErrInvalidSettings       Err = 10
	ErrStrategyUnsupported   Err = 11
	ErrOutOfBounds           Err = 12
	ErrCannotStep            Err = 13
	ErrBadProgram            Err = 14
	ErrProcessRunning        Err = 15
	ErrStateUnreachable      Err = 16
	ErrClosed                Err = 17
	ErrInterrupted           Err = 18
	ErrLast                  Err = 19
)

// ErrSeverity used to indicate the severity of an error
type ErrSeverity uint32

const (
	ErrSevNone  ErrSeverity = 0
	ErrSevError ErrSeverity = 1
	ErrSevWarn  ErrSeverity = 2
	ErrSevInfo  ErrSeverity = 3
)

// Processing unit status

// ProcessStatus is the run status of a processing unit.
type ProcessStatus uint32

const (
	StatusIdle ProcessStatus = iota
	StatusRunning
	StatusInterrupted
)

func (s ProcessStatus) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusRunning:
		return "Running"
	case StatusInterrupted:
		return "Interrupted"
	default:
		return "Unknown"
	}
}

// ExceptionLevel is the current exception level of a processing unit.
type ExceptionLevel uint8

const (
	EL0 ExceptionLevel = iota
	EL1
	EL2
	EL3
)

func (el ExceptionLevel) String() string {
	switch el {
	case EL0:
		return "EL0"
	case EL1:
		return "EL1"
	case EL2:
		return "EL2"
	case EL3:
		return "EL3"
	default:
		return "EL?"
	}
}
