package actuator

import (
	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

func isVector(op cpu.Operand) bool {
	return op.IsReg() && op.Reg.IsVector()
}

func isGpr(op cpu.Operand) bool {
	return op.IsReg() && op.Reg.IsGpr()
}

// sameVector is true if op is a vector register of the given width.
func sameVector(op cpu.Operand, kind cpu.VecRegName) bool {
	return isVector(op) && op.Reg.Vec == kind
}

// sourceLanes reads a vector register, or count lanes of memory, as lanes
// of type T.
func sourceLanes[T cpu.Section](cp *cpu.Cpu, op cpu.Operand, count int) (lanes []T, err error) {
	switch op.Kind {
	case cpu.OPERAND_REG:
		if !op.Reg.IsVector() {
			err = ErrShapeMismatch
			return
		}
		lanes, err = cpu.GetBySections[T](cp, op.Reg.Vec, op.Reg.Index)
	case cpu.OPERAND_MEM:
		var addr uint64
		addr, err = op.Address(cp)
		if err != nil {
			return
		}
		lanes = cpu.ReadVec[T](cp.Memory, addr, count)
	default:
		err = ErrShapeMismatch
	}

	return
}

// readSized reads an unsigned value of bits width from memory.
func readSized(mem *cpu.Memory, addr uint64, bits int) uint64 {
	switch bits {
	case 8:
		return uint64(cpu.Read[uint8](mem, addr))
	case 16:
		return uint64(cpu.Read[uint16](mem, addr))
	case 32:
		return uint64(cpu.Read[uint32](mem, addr))
	}
	return cpu.Read[uint64](mem, addr)
}

// writeSized writes the low bits of value to memory.
func writeSized(mem *cpu.Memory, addr uint64, bits int, value uint64) {
	switch bits {
	case 8:
		cpu.Write(mem, addr, uint8(value))
	case 16:
		cpu.Write(mem, addr, uint16(value))
	case 32:
		cpu.Write(mem, addr, uint32(value))
	default:
		cpu.Write(mem, addr, value)
	}
}

// scalar reads a general purpose register, immediate or memory operand
// as an unsigned value of bits width.
func scalar(cp *cpu.Cpu, op cpu.Operand, bits int) (value uint64, err error) {
	switch op.Kind {
	case cpu.OPERAND_REG:
		if !op.Reg.IsGpr() {
			err = ErrShapeMismatch
			return
		}
		value = cp.GetGprValue(op.Reg.Gpr)
	case cpu.OPERAND_IMM:
		value = op.Imm
		if bits < 64 {
			value &= (uint64(1) << bits) - 1
		}
	case cpu.OPERAND_MEM:
		var addr uint64
		addr, err = op.Address(cp)
		if err != nil {
			return
		}
		value = readSized(cp.Memory, addr, bits)
	default:
		err = ErrShapeMismatch
	}

	return
}

// laneShape is the lane type and count a register is shown with.
func laneShape(display *visual.Display, reg cpu.Register) (vt visual.ValueType, count int) {
	vt = display.TypeOf(reg)
	count = reg.Bits() / vt.Bits()
	return
}

// operandValues reads the shown lanes of a placed operand. Memory is read
// as count lanes of type vt, and an immediate is a single lane.
func operandValues(cp *cpu.Cpu, display *visual.Display, p Placed, vt visual.ValueType, count int) (values []visual.Value, err error) {
	switch p.Operand.Kind {
	case cpu.OPERAND_REG:
		values, err = visual.ValuesFromRegister(cp, p.Operand.Reg, display.TypeOf(p.Operand.Reg))
	case cpu.OPERAND_MEM:
		var addr uint64
		addr, err = p.Operand.Address(cp)
		if err != nil {
			return
		}
		values = visual.ValuesFromMemory(cp.Memory, addr, vt, count)
	case cpu.OPERAND_IMM:
		values = []visual.Value{visual.U64(visual.VALUE_U64, p.Operand.Imm)}
	default:
		err = ErrShapeMismatch
	}

	return
}
