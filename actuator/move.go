package actuator

import (
	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

// identity maps every shown lane of the destination to the same lane of
// operand 1.
func identity(count int) (mapping []laneRef) {
	mapping = make([]laneRef, count)
	for n := range mapping {
		mapping[n] = laneRef{operand: 1, lane: n}
	}
	return
}

// gprMove copies a general purpose register, immediate or memory into a
// register, or a register or immediate into memory.
//
//	reg, reg/imm/mem
//	mem, reg
type gprMove struct{}

func (*gprMove) Check(ops []cpu.Operand) error {
	if len(ops) != 2 {
		return ErrShapeMismatch
	}

	dst, src := ops[0], ops[1]
	switch {
	case isGpr(dst):
		if isGpr(src) && src.Reg.Bits() != dst.Reg.Bits() {
			return ErrShapeMismatch
		}
		if !isGpr(src) && !src.IsImm() && !src.IsMem() {
			return ErrShapeMismatch
		}
	case dst.IsMem():
		if !isGpr(src) {
			return ErrShapeMismatch
		}
	default:
		return ErrShapeMismatch
	}
	return nil
}

func (*gprMove) Apply(cp *cpu.Cpu, ops []cpu.Operand) (err error) {
	dst, src := ops[0], ops[1]

	if dst.IsMem() {
		addr, err := dst.Address(cp)
		if err != nil {
			return err
		}
		writeSized(cp.Memory, addr, src.Reg.Bits(), cp.GetGprValue(src.Reg.Gpr))
		return nil
	}

	value, err := scalar(cp, src, dst.Reg.Bits())
	if err != nil {
		return
	}

	cp.SetGprValue(dst.Reg.Gpr, value)
	return
}

func (*gprMove) Animate(placed []Placed, cp *cpu.Cpu, display *visual.Display) (visual.Sequence, error) {
	return mappingSequence(placed, cp, display, 0, identity(1))
}

// vectorMove copies a vector register or memory into a vector register,
// or a vector register into memory.
//
//	vec, vec/mem
//	mem, vec
type vectorMove struct{}

func (*vectorMove) Check(ops []cpu.Operand) error {
	if len(ops) != 2 {
		return ErrShapeMismatch
	}

	dst, src := ops[0], ops[1]
	switch {
	case isVector(dst):
		if !sameVector(src, dst.Reg.Vec) && !src.IsMem() {
			return ErrShapeMismatch
		}
	case dst.IsMem():
		if !isVector(src) {
			return ErrShapeMismatch
		}
	default:
		return ErrShapeMismatch
	}
	return nil
}

func (*vectorMove) Apply(cp *cpu.Cpu, ops []cpu.Operand) (err error) {
	dst, src := ops[0], ops[1]

	if dst.IsMem() {
		addr, err := dst.Address(cp)
		if err != nil {
			return err
		}
		data, err := cp.VectorBytes(src.Reg.Vec, src.Reg.Index)
		if err != nil {
			return err
		}
		cp.Memory.WriteBytes(addr, data)
		return nil
	}

	var data []uint8
	if src.IsMem() {
		var addr uint64
		addr, err = src.Address(cp)
		if err != nil {
			return
		}
		data = cp.Memory.ReadBytes(addr, dst.Reg.Vec.Bytes())
	} else {
		data, err = cp.VectorBytes(src.Reg.Vec, src.Reg.Index)
		if err != nil {
			return
		}
	}

	return cp.SetVectorBytes(dst.Reg.Vec, dst.Reg.Index, data, true)
}

func (*vectorMove) Animate(placed []Placed, cp *cpu.Cpu, display *visual.Display) (visual.Sequence, error) {
	_, count := laneShape(display, placed[0].Reg)
	return mappingSequence(placed, cp, display, 0, identity(count))
}
