package visual

import (
	"errors"
	"slices"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
)

// Display is the list of registers shown, in drawing order, and the lane
// type each is shown as.
type Display struct {
	Registers []cpu.Register
	Types     map[cpu.Register]ValueType
}

// NewDisplay creates a display of regs with their default lane types.
func NewDisplay(regs ...cpu.Register) *Display {
	return &Display{
		Registers: slices.Clone(regs),
		Types:     map[cpu.Register]ValueType{},
	}
}

// DefaultType is the lane type of a register without an explicit type:
// 32-bit lanes for vectors, the whole register for general purpose ones.
func DefaultType(reg cpu.Register) ValueType {
	if reg.IsGpr() {
		switch reg.Bits() {
		case 8:
			return VALUE_U8
		case 16:
			return VALUE_U16
		case 32:
			return VALUE_U32
		}
		return VALUE_U64
	}
	return VALUE_U32
}

// Add shows reg as lanes of type vt, appending it if not already shown.
func (d *Display) Add(reg cpu.Register, vt ValueType) {
	if d.Types == nil {
		d.Types = map[cpu.Register]ValueType{}
	}
	d.Types[reg] = vt
	if !d.Contains(reg) {
		d.Registers = append(d.Registers, reg)
	}
}

// Remove stops showing reg.
func (d *Display) Remove(reg cpu.Register) {
	d.Registers = slices.DeleteFunc(d.Registers, func(r cpu.Register) bool { return r == reg })
	delete(d.Types, reg)
}

// Index is the display position of reg, or -1.
func (d *Display) Index(reg cpu.Register) int {
	return slices.Index(d.Registers, reg)
}

// Contains is true if reg is displayed.
func (d *Display) Contains(reg cpu.Register) bool {
	return d.Index(reg) >= 0
}

// TypeOf is the lane type reg is shown as, whether displayed or not.
func (d *Display) TypeOf(reg cpu.Register) ValueType {
	vt, ok := d.Types[reg]
	if !ok {
		vt = DefaultType(reg)
	}
	return vt
}

// Snapshot reads the lanes of every displayed register. Registers that
// cannot be read are left out, and their errors joined.
// The caller must hold the CPU lock.
func (d *Display) Snapshot(cp *cpu.Cpu) (snapshot map[cpu.Register][]Value, err error) {
	snapshot = make(map[cpu.Register][]Value, len(d.Registers))

	var errs []error
	for _, reg := range d.Registers {
		values, rerr := ValuesFromRegister(cp, reg, d.TypeOf(reg))
		if rerr != nil {
			errs = append(errs, &ErrRegister{Register: reg, Err: rerr})
			continue
		}
		snapshot[reg] = values
	}

	err = errors.Join(errs...)
	return
}
