package actuator

import (
	"math/bits"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

// lanewise is a vector operation applied lane by lane, in lanes of type T.
//
//	dst, src1, src2/mem
type lanewise[T cpu.Section] struct {
	symbol string
	fn     func(a, b T) T
}

func (lw *lanewise[T]) Check(ops []cpu.Operand) error {
	if len(ops) != 3 || !isVector(ops[0]) {
		return ErrShapeMismatch
	}
	kind := ops[0].Reg.Vec
	if !sameVector(ops[1], kind) {
		return ErrShapeMismatch
	}
	if !sameVector(ops[2], kind) && !ops[2].IsMem() {
		return ErrShapeMismatch
	}
	return nil
}

func (lw *lanewise[T]) Apply(cp *cpu.Cpu, ops []cpu.Operand) (err error) {
	dst := ops[0].Reg
	count := dst.Vec.Bytes() / cpu.SectionBytes[T]()

	a, err := sourceLanes[T](cp, ops[1], count)
	if err != nil {
		return
	}
	b, err := sourceLanes[T](cp, ops[2], count)
	if err != nil {
		return
	}

	out := make([]T, count)
	for n := range out {
		out[n] = lw.fn(a[n], b[n])
	}

	return cpu.SetBySections(cp, dst.Vec, dst.Index, out)
}

func (lw *lanewise[T]) Animate(placed []Placed, cp *cpu.Cpu, display *visual.Display) (visual.Sequence, error) {
	return arithmeticSequence(placed, cp, display, lw.symbol)
}

// gprArith is integer addition or subtraction on general purpose
// registers, setting the arithmetic flags. A compare sets only the flags.
//
//	dst, src1, src2/imm/mem (add, sub)
//	src1, src2/imm/mem (cmp)
type gprArith struct {
	symbol  string
	sub     bool
	compare bool
}

func (ga *gprArith) operands(ops []cpu.Operand) (a, b cpu.Operand) {
	return ops[len(ops)-2], ops[len(ops)-1]
}

func (ga *gprArith) Check(ops []cpu.Operand) error {
	want := 3
	if ga.compare {
		want = 2
	}
	if len(ops) != want {
		return ErrShapeMismatch
	}

	a, b := ga.operands(ops)
	if !isGpr(a) {
		return ErrShapeMismatch
	}
	if !ga.compare && ops[0] != a {
		return ErrShapeMismatch
	}
	switch {
	case isGpr(b):
		if b.Reg.Bits() != a.Reg.Bits() {
			return ErrShapeMismatch
		}
	case b.IsImm(), b.IsMem():
	default:
		return ErrShapeMismatch
	}
	return nil
}

func (ga *gprArith) Apply(cp *cpu.Cpu, ops []cpu.Operand) (err error) {
	a, b := ga.operands(ops)
	width := a.Reg.Bits()

	x, err := scalar(cp, a, width)
	if err != nil {
		return
	}
	y, err := scalar(cp, b, width)
	if err != nil {
		return
	}

	result := setArithFlags(cp, x, y, width, ga.sub)
	if !ga.compare {
		cp.SetGprValue(ops[0].Reg.Gpr, result)
	}

	return
}

func (ga *gprArith) Animate(placed []Placed, cp *cpu.Cpu, display *visual.Display) (visual.Sequence, error) {
	if ga.compare {
		return nil, nil
	}
	return arithmeticSequence(placed, cp, display, ga.symbol)
}

// setArithFlags computes x+y, or x-y, in width bits and sets CF, PF, ZF,
// SF and OF from it.
func setArithFlags(cp *cpu.Cpu, x, y uint64, width int, sub bool) (result uint64) {
	mask := ^uint64(0)
	if width < 64 {
		mask = (uint64(1) << width) - 1
	}
	sign := uint64(1) << (width - 1)

	var carry, overflow bool
	if sub {
		result = (x - y) & mask
		carry = x < y
		overflow = (x^y)&(x^result)&sign != 0
	} else {
		result = (x + y) & mask
		carry = result < x
		overflow = (x^result)&(y^result)&sign != 0
	}

	flag := func(set bool) uint64 {
		if set {
			return 1
		}
		return 0
	}

	cp.SetFlagsValue(cpu.FLAG_CF, flag(carry))
	cp.SetFlagsValue(cpu.FLAG_PF, flag(bits.OnesCount8(uint8(result))%2 == 0))
	cp.SetFlagsValue(cpu.FLAG_ZF, flag(result == 0))
	cp.SetFlagsValue(cpu.FLAG_SF, flag(result&sign != 0))
	cp.SetFlagsValue(cpu.FLAG_OF, flag(overflow))

	return
}
