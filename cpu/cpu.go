// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"log"
	"slices"
	"sync"
)

// Cpu is the register file and memory that instructions act upon.
//
// The embedded mutex guards every field. Accessors do not lock; callers take
// the lock around a burst of reads or writes and release it before the end of
// the frame.
type Cpu struct {
	sync.Mutex

	Verbose bool // Set to enable verbose logging.

	Gpr    [GPR_COUNT]uint64                 // General purpose register bank.
	Vector [VECTOR_COUNT][VECTOR_BYTES]uint8 // Vector register bank, zmm sized.
	Rflags uint64                            // Flags register.

	Memory *Memory // Data memory.
}

// NewCpu creates a new, zeroed CPU.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Memory: NewMemory(),
	}

	return
}

// Reset clears registers, flags and memory.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Gpr[:])
	for n := range cpu.Vector {
		clear(cpu.Vector[n][:])
	}
	cpu.Rflags = 0
	cpu.Memory.Reset()
}

// GetGprValue reads a general-purpose register view, zero extended.
func (cpu *Cpu) GetGprValue(name GPRName) (value uint64) {
	view := gprViews[name]
	value = cpu.Gpr[view.base]

	switch {
	case view.high:
		value = (value >> 8) & 0xff
	case view.width < 64:
		value &= (uint64(1) << view.width) - 1
	}

	return
}

// SetGprValue writes a general-purpose register view.
// 32-bit writes zero the upper half, 16-bit and 8-bit writes merge.
func (cpu *Cpu) SetGprValue(name GPRName, value uint64) {
	view := gprViews[name]
	reg := &cpu.Gpr[view.base]

	switch {
	case view.high:
		*reg = (*reg &^ 0xff00) | ((value & 0xff) << 8)
	case view.width == 64:
		*reg = value
	case view.width == 32:
		*reg = value & 0xffffffff
	default:
		mask := (uint64(1) << view.width) - 1
		*reg = (*reg &^ mask) | (value & mask)
	}

	if cpu.Verbose {
		log.Printf("cpu: %v <- %#x", name, cpu.GetGprValue(name))
	}
}

// GetFlagsValue reads a single flag as 0 or 1.
func (cpu *Cpu) GetFlagsValue(flag FlagName) uint64 {
	return (cpu.Rflags >> uint(flag)) & 1
}

// SetFlagsValue sets a single flag from the low bit of value.
func (cpu *Cpu) SetFlagsValue(flag FlagName, value uint64) {
	cpu.Rflags = (cpu.Rflags &^ (1 << uint(flag))) | ((value & 1) << uint(flag))
}

// vectorView returns the live bytes of a vector register view.
func (cpu *Cpu) vectorView(kind VecRegName, index int) (data []uint8, err error) {
	if index < 0 || index >= VECTOR_COUNT {
		err = ErrRegisterIndex
		return
	}
	if kind < XMM || kind > ZMM {
		err = ErrRegisterKind
		return
	}

	data = cpu.Vector[index][:kind.Bytes()]
	return
}

// VectorBytes returns a copy of a vector register view, little endian.
func (cpu *Cpu) VectorBytes(kind VecRegName, index int) (data []uint8, err error) {
	view, err := cpu.vectorView(kind, index)
	if err != nil {
		return
	}

	data = slices.Clone(view)
	return
}

// SetVectorBytes writes a vector register view. With zeroUpper set, the
// bytes of the zmm register beyond the view are cleared, as VEX encoded
// instructions do. Legacy SSE writes leave them untouched.
func (cpu *Cpu) SetVectorBytes(kind VecRegName, index int, data []uint8, zeroUpper bool) (err error) {
	view, err := cpu.vectorView(kind, index)
	if err != nil {
		return
	}
	if len(data) != len(view) {
		err = ErrSectionCount
		return
	}

	copy(view, data)
	if zeroUpper {
		clear(cpu.Vector[index][len(view):])
	}

	if cpu.Verbose {
		log.Printf("cpu: %v <- % x", MakeVec(kind, index), data)
	}

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	for n := range GPR_COUNT {
		val := cpu.Gpr[n]
		text += fmt.Sprintf("% 6s: %08X_%08X\n", RAX+GPRName(n), val>>32, val&0xffffffff)
	}

	text += fmt.Sprintf("% 6s: %08X", "rflags", cpu.Rflags)
	for _, flag := range []FlagName{FLAG_CF, FLAG_PF, FLAG_AF, FLAG_ZF, FLAG_SF, FLAG_OF} {
		if cpu.GetFlagsValue(flag) != 0 {
			text += " " + flag.String()
		}
	}
	text += "\n"

	for n := range VECTOR_COUNT {
		data := cpu.Vector[n][:]
		if !slices.ContainsFunc(data, func(b uint8) bool { return b != 0 }) {
			continue
		}
		text += fmt.Sprintf("% 6s:", MakeVec(ZMM, n))
		for lane := VECTOR_BYTES/4 - 1; lane >= 0; lane-- {
			word := uint32(data[lane*4]) | uint32(data[lane*4+1])<<8 | uint32(data[lane*4+2])<<16 | uint32(data[lane*4+3])<<24
			text += fmt.Sprintf(" %08X", word)
		}
		text += "\n"
	}

	return
}
