// Package program holds loadable machine-code images and their entry points.
package program

import (
	"bufio"
	"bytes"
	"debug/elf"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	icommon "armemu/internal/common"
	"armemu/internal/emu"
	"armemu/internal/memory"
)

// Program is a code image and the unit index execution starts at.
type Program struct {
	Memory *memory.ProgramMemory
	Entry  emu.Address
}

// Size returns the number of instruction words in the image.
func (p Program) Size() emu.Address {
	if p.Memory == nil {
		return 0
	}
	return p.Memory.Len()
}

// Empty reports whether the program has no image.
func (p Program) Empty() bool {
	return p.Memory == nil
}

func FromWords(words []emu.DataUnit, entry emu.Address) Program {
	return Program{Memory: memory.NewProgramMemory(words), Entry: entry}
}

// FromBytes decodes a little-endian byte image.
func FromBytes(b []byte, entry emu.Address) Program {
	return Program{Memory: memory.NewProgramMemoryFromBytes(b), Entry: entry}
}

var sampleWords = []emu.DataUnit{
	0xd10043ff, // sub  sp, sp, #16
	0x528000a0, // mov  w0, #5
	0xb9000fe0, // str  w0, [sp, #12]
	0xb9400fe0, // ldr  w0, [sp, #12]
	0x71000c1f, // cmp  w0, #3
	0x54000061, // b.ne +3
	0x52800060, // mov  w0, #3
	0x14000007, // b    +7
	0xb9400fe0, // ldr  w0, [sp, #12]
	0x7100141f, // cmp  w0, #5
	0x54000061, // b.ne +3
	0x528000a0, // mov  w0, #5
	0x14000002, // b    +2
	0x52800000, // mov  w0, #0
	0x910043ff, // add  sp, sp, #16
	0xd65f03c0, // ret
}

// SampleWords returns a copy of the built-in sample program.
func SampleWords() []emu.DataUnit {
	return append([]emu.DataUnit(nil), sampleWords...)
}

// Sample returns the built-in sample program at entry 0. It leaves 5 in X0.
func Sample() Program {
	return FromWords(SampleWords(), 0)
}

func badProgram(format string, args ...any) error {
	return icommon.Errorf(emu.ErrBadProgram, format, args...)
}

// Load reads a program image from path. Raw .bin images are little-endian
// words, .hex and .txt files hold one hexadecimal word per line, and ELF
// files are recognised by their magic number. For ELF the entry comes from
// the file and the entry argument is ignored.
func Load(path string, entry emu.Address) (Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Program{}, err
	}
	if bytes.HasPrefix(data, []byte(elf.ELFMAG)) {
		return loadELF(data)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".txt":
		words, err := ParseHex(bytes.NewReader(data))
		if err != nil {
			return Program{}, fmt.Errorf("%s: %w", path, err)
		}
		return checked(FromWords(words, entry))
	default:
		if len(data)%emu.DataUnitSize != 0 {
			return Program{}, badProgram("%s: %d bytes is not a whole number of words", path, len(data))
		}
		return checked(FromBytes(data, entry))
	}
}

func checked(p Program) (Program, error) {
	if p.Size() == 0 {
		return Program{}, badProgram("empty program")
	}
	if p.Entry >= p.Size() {
		return Program{}, badProgram("entry %d outside a %d word program", p.Entry, p.Size())
	}
	return p, nil
}

// ParseHex reads one 32-bit word per line, with or without a 0x prefix.
// Blank lines and text after '#' or "//" are ignored.
func ParseHex(r io.Reader) ([]emu.DataUnit, error) {
	var words []emu.DataUnit
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimPrefix(strings.TrimPrefix(line, "0x"), "0X")
		v, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return nil, badProgram("line %d: malformed instruction word %q", lineNo, sc.Text())
		}
		words = append(words, emu.DataUnit(v))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// loadELF takes the .text section of an AArch64 little-endian ELF image.
func loadELF(data []byte) (Program, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return Program{}, badProgram("elf: %v", err)
	}
	defer f.Close()

	if f.Machine != elf.EM_AARCH64 {
		return Program{}, badProgram("elf: machine %v is not AArch64", f.Machine)
	}
	if f.ByteOrder.String() != "LittleEndian" {
		return Program{}, badProgram("elf: big-endian images are not supported")
	}
	text := f.Section(".text")
	if text == nil {
		return Program{}, badProgram("elf: no .text section")
	}
	code, err := text.Data()
	if err != nil {
		return Program{}, badProgram("elf: read .text: %v", err)
	}
	if f.Entry < text.Addr || f.Entry >= text.Addr+text.Size {
		return Program{}, badProgram("elf: entry 0x%x outside .text", f.Entry)
	}
	entry := emu.Address((f.Entry - text.Addr) / emu.DataUnitSize)
	return checked(FromBytes(code, entry))
}
