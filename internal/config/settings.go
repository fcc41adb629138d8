// Package config holds the system settings that size the emulated machine
// and reads them from INI files.
package config

import (
	"fmt"
	"io"
	"math/bits"
	"os"
	"strconv"
	"strings"

	"armemu/common"
	icommon "armemu/internal/common"
	"armemu/internal/emu"
)

// CPUType selects the instruction set of every core.
type CPUType int

const (
	CPUTypeA64 CPUType = iota
)

func (c CPUType) String() string {
	if c == CPUTypeA64 {
		return "A64"
	}
	return "unknown"
}

func ParseCPUType(s string) (CPUType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a64", "aarch64", "armv8":
		return CPUTypeA64, nil
	}
	return 0, invalid("unknown cpu type %q", s)
}

// SystemSettings describes the machine built by a module. Sizes are in data
// units.
type SystemSettings struct {
	CPUType        CPUType
	Cores          int
	ThreadsPerCore int

	L1Size        emu.Address
	L2Size        emu.Address
	L3Size        emu.Address
	CacheLineSize emu.Address

	StackSize emu.Address
	RAMSize   emu.Address

	LogLevel common.Severity
}

// Default returns a single-core machine with 64KB of RAM.
func Default() SystemSettings {
	return SystemSettings{
		CPUType:        CPUTypeA64,
		Cores:          1,
		ThreadsPerCore: 1,
		L1Size:         emu.KB(1),
		L2Size:         emu.KB(4),
		L3Size:         emu.KB(16),
		CacheLineSize:  4,
		StackSize:      emu.KB(1),
		RAMSize:        emu.KB(64),
		LogLevel:       common.SeverityInfo,
	}
}

func invalid(format string, args ...any) error {
	return icommon.Errorf(emu.ErrInvalidSettings, format, args...)
}

// Validate checks that the settings describe a machine that can be built.
func (s SystemSettings) Validate() error {
	if s.CPUType != CPUTypeA64 {
		return invalid("unsupported cpu type %v", s.CPUType)
	}
	if s.Cores < 1 {
		return invalid("cores must be at least 1, got %d", s.Cores)
	}
	if s.ThreadsPerCore < 1 {
		return invalid("threads per core must be at least 1, got %d", s.ThreadsPerCore)
	}
	if s.RAMSize == 0 {
		return invalid("ram size must not be zero")
	}
	if s.StackSize == 0 || s.StackSize >= s.RAMSize {
		return invalid("stack size %d must be non-zero and below ram size %d", s.StackSize, s.RAMSize)
	}
	if s.CacheLineSize == 0 || bits.OnesCount64(uint64(s.CacheLineSize)) != 1 {
		return invalid("cache line size %d is not a power of two", s.CacheLineSize)
	}
	for _, c := range []struct {
		name string
		size emu.Address
	}{{"l1", s.L1Size}, {"l2", s.L2Size}, {"l3", s.L3Size}} {
		if c.size == 0 || c.size%s.CacheLineSize != 0 {
			return invalid("%s size %d is not a non-zero multiple of the line size %d", c.name, c.size, s.CacheLineSize)
		}
	}
	return nil
}

// Slots is the number of programs the machine executes at once.
func (s SystemSettings) Slots() int {
	return s.Cores * s.ThreadsPerCore
}

func (s SystemSettings) String() string {
	return fmt.Sprintf("%v x%d (%d threads/core) L1=%d L2=%d L3=%d line=%d stack=%d ram=%d",
		s.CPUType, s.Cores, s.ThreadsPerCore, s.L1Size, s.L2Size, s.L3Size, s.CacheLineSize, s.StackSize, s.RAMSize)
}

// ParseSize reads a size in data units. A B, KB, MB or GB suffix gives a
// byte quantity that is converted to units.
func ParseSize(s string) (emu.Address, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	conv := func(n uint64) emu.Address { return emu.Address(n) }
	for _, u := range []struct {
		suffix string
		fn     func(uint64) emu.Address
	}{{"KB", emu.KB}, {"MB", emu.MB}, {"GB", emu.GB}, {"B", emu.B}} {
		if strings.HasSuffix(v, u.suffix) {
			v = strings.TrimSpace(strings.TrimSuffix(v, u.suffix))
			conv = u.fn
			break
		}
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, invalid("malformed size %q", s)
	}
	return conv(n), nil
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, invalid("malformed count %q", s)
	}
	return n, nil
}

// Load reads settings from an INI document over the defaults. Unknown keys
// are ignored. The result is validated.
func Load(r io.Reader) (SystemSettings, error) {
	ini, err := ParseIni(r)
	if err != nil {
		return SystemSettings{}, err
	}
	s := Default()

	type binding struct {
		section, key string
		apply        func(string) error
	}
	size := func(dst *emu.Address) func(string) error {
		return func(v string) error {
			n, err := ParseSize(v)
			*dst = n
			return err
		}
	}
	count := func(dst *int) func(string) error {
		return func(v string) error {
			n, err := parseCount(v)
			*dst = n
			return err
		}
	}
	bindings := []binding{
		{"cpu", "type", func(v string) (err error) { s.CPUType, err = ParseCPUType(v); return }},
		{"cpu", "cores", count(&s.Cores)},
		{"cpu", "threads_per_core", count(&s.ThreadsPerCore)},
		{"cache", "l1", size(&s.L1Size)},
		{"cache", "l2", size(&s.L2Size)},
		{"cache", "l3", size(&s.L3Size)},
		{"cache", "line_size", size(&s.CacheLineSize)},
		{"memory", "stack", size(&s.StackSize)},
		{"memory", "ram", size(&s.RAMSize)},
		{"log", "level", func(v string) error {
			lvl, err := common.ParseSeverity(v)
			if err != nil {
				return invalid("%v", err)
			}
			s.LogLevel = lvl
			return nil
		}},
	}
	for _, b := range bindings {
		v, ok := ini.Get(b.section, b.key)
		if !ok {
			continue
		}
		if err := b.apply(v); err != nil {
			return SystemSettings{}, fmt.Errorf("[%s] %s: %w", b.section, b.key, err)
		}
	}
	if err := s.Validate(); err != nil {
		return SystemSettings{}, err
	}
	return s, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string) (SystemSettings, error) {
	f, err := os.Open(path)
	if err != nil {
		return SystemSettings{}, err
	}
	defer f.Close()
	return Load(f)
}
