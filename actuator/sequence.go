package actuator

import (
	"fmt"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

// LANE_ZERO is the operand of a laneRef that clears its destination lane.
const LANE_ZERO = -1

// laneRef is the source of a destination lane: a lane of an operand, or
// zero.
type laneRef struct {
	operand int
	lane    int
}

var zeroLane = laneRef{operand: LANE_ZERO}

func setText(text string) func(*visual.Element) {
	return func(el *visual.Element) {
		el.SetText(text)
	}
}

// landGroup moves the destination's staging row into its main row.
func landGroup(dst Placed, count int) (group visual.Group) {
	for col := range count {
		group.Moves = append(group.Moves, visual.Move{
			Source: dst.Slot(col),
			Target: visual.MainSlot(dst.Reg, col),
		})
	}
	return
}

// checkShown verifies that every register operand is shown with lanes of
// the same width as the destination.
func checkShown(placed []Placed, display *visual.Display, vt visual.ValueType) error {
	for _, p := range placed {
		if !p.Operand.IsReg() {
			continue
		}
		if display.TypeOf(p.Operand.Reg).Bits() != vt.Bits() {
			return ErrShapeMismatch
		}
	}
	return nil
}

// mappingSequence animates a lane permutation. mapping holds the source of
// each destination lane, in lanes of bits width; a bits of zero means the
// lanes as shown. An immediate source lands its value as text.
func mappingSequence(placed []Placed, cp *cpu.Cpu, display *visual.Display, bits int, mapping []laneRef) (seq visual.Sequence, err error) {
	dst := placed[0]
	vt, count := laneShape(display, dst.Reg)

	err = checkShown(placed, display, vt)
	if err != nil {
		return
	}

	ratio := 1
	if bits > 0 {
		if bits%vt.Bits() != 0 {
			err = ErrShapeMismatch
			return
		}
		ratio = bits / vt.Bits()
	}
	if len(mapping)*ratio != count {
		err = ErrShapeMismatch
		return
	}

	var moves visual.Group
	for col := range count {
		ref := mapping[col/ratio]
		if ref.operand == LANE_ZERO {
			moves.Moves = append(moves.Moves, visual.Move{
				Source:   dst.Slot(col),
				Target:   dst.Slot(col),
				Callback: setText("0"),
			})
			continue
		}

		src := placed[ref.operand]
		if src.Operand.IsImm() {
			moves.Moves = append(moves.Moves, visual.Move{
				Source:   dst.Slot(col),
				Target:   dst.Slot(col),
				Callback: setText(visual.U64(visual.VALUE_U64, src.Operand.Imm).String()),
			})
			continue
		}

		moves.Moves = append(moves.Moves, visual.Move{
			Source: src.Slot(ref.lane*ratio + col%ratio),
			Target: dst.Slot(col),
		})
	}

	seq = visual.Sequence{moves, landGroup(dst, count)}
	return
}

// arithmeticSequence animates a lane-wise operation: the first source
// lands on the destination's staging row, then the second source lands
// on it showing the operation, then the staging row lands on the
// destination.
func arithmeticSequence(placed []Placed, cp *cpu.Cpu, display *visual.Display, symbol string) (seq visual.Sequence, err error) {
	dst, a, b := placed[0], placed[1], placed[2]
	vt, count := laneShape(display, dst.Reg)

	err = checkShown(placed, display, vt)
	if err != nil {
		return
	}

	av, err := operandValues(cp, display, a, vt, count)
	if err != nil {
		return
	}
	bv, err := operandValues(cp, display, b, vt, count)
	if err != nil {
		return
	}
	if len(av) != count || (len(bv) != count && !b.Operand.IsImm()) {
		err = ErrShapeMismatch
		return
	}

	var first, second visual.Group
	for col := range count {
		first.Moves = append(first.Moves, visual.Move{
			Source: a.Slot(col),
			Target: dst.Slot(col),
		})

		var text string
		source := dst.Slot(col)
		if b.Operand.IsImm() {
			text = fmt.Sprintf("%v %s %v", av[col], symbol, bv[0])
		} else {
			text = fmt.Sprintf("%v %s %v", av[col], symbol, bv[col])
			source = b.Slot(col)
		}
		second.Moves = append(second.Moves, visual.Move{
			Source:   source,
			Target:   dst.Slot(col),
			Callback: setText(text),
		})
	}

	seq = visual.Sequence{first, second, landGroup(dst, count)}
	return
}
