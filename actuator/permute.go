package actuator

import (
	"slices"

	"github.com/holiman/uint256"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

// permute moves whole lanes of bits width from its sources into the
// destination, as selected by its mapping.
type permute struct {
	bits    int  // Lane width: 32, 64 or 128
	imm     bool // The last operand is an imm8 control
	merge   bool // Legacy SSE: keep the register above the destination view
	check   func(ops []cpu.Operand) error
	mapping func(imm uint8, lanes int) []laneRef
}

func (p *permute) Check(ops []cpu.Operand) error {
	if len(ops) < 2 || !isVector(ops[0]) {
		return ErrShapeMismatch
	}
	if p.imm && !ops[len(ops)-1].IsImm() {
		return ErrShapeMismatch
	}
	if ops[0].Reg.Bits() < p.bits {
		return ErrShapeMismatch
	}
	return p.check(ops)
}

func (p *permute) lanes(ops []cpu.Operand) (mapping []laneRef) {
	var imm uint8
	if p.imm {
		imm = uint8(ops[len(ops)-1].Imm)
	}
	return p.mapping(imm, ops[0].Reg.Bits()/p.bits)
}

func (p *permute) Apply(cp *cpu.Cpu, ops []cpu.Operand) (err error) {
	mapping := p.lanes(ops)

	switch p.bits {
	case 32:
		err = permuteLanes[uint32](cp, ops, mapping, p.merge)
	case 64:
		err = permuteLanes[uint64](cp, ops, mapping, p.merge)
	case 128:
		err = permuteWide(cp, ops, mapping)
	default:
		err = cpu.ErrSectionWidth
	}

	return
}

func (p *permute) Animate(placed []Placed, cp *cpu.Cpu, display *visual.Display) (visual.Sequence, error) {
	ops := make([]cpu.Operand, len(placed))
	for n, pl := range placed {
		ops[n] = pl.Operand
	}
	return mappingSequence(placed, cp, display, p.bits, p.lanes(ops))
}

func permuteLanes[T cpu.Section](cp *cpu.Cpu, ops []cpu.Operand, mapping []laneRef, merge bool) (err error) {
	dst := ops[0].Reg

	sources := map[int][]T{}
	out := make([]T, len(mapping))
	for n, ref := range mapping {
		if ref.operand == LANE_ZERO {
			continue
		}

		src, ok := sources[ref.operand]
		if !ok {
			src, err = sourceLanes[T](cp, ops[ref.operand], len(mapping))
			if err != nil {
				return
			}
			sources[ref.operand] = src
		}
		if ref.lane >= len(src) {
			err = ErrShapeMismatch
			return
		}

		out[n] = src[ref.lane]
	}

	if merge {
		return cpu.MergeBySections(cp, dst.Vec, dst.Index, out)
	}
	return cpu.SetBySections(cp, dst.Vec, dst.Index, out)
}

func permuteWide(cp *cpu.Cpu, ops []cpu.Operand, mapping []laneRef) (err error) {
	dst := ops[0].Reg

	sources := map[int][]uint256.Int{}
	out := make([]uint256.Int, len(mapping))
	for n, ref := range mapping {
		if ref.operand == LANE_ZERO {
			continue
		}

		src, ok := sources[ref.operand]
		if !ok {
			op := ops[ref.operand]
			if !isVector(op) {
				err = ErrShapeMismatch
				return
			}
			src, err = cpu.GetWideSections(cp, op.Reg.Vec, op.Reg.Index, 128)
			if err != nil {
				return
			}
			sources[ref.operand] = src
		}
		if ref.lane >= len(src) {
			err = ErrShapeMismatch
			return
		}

		out[n] = src[ref.lane]
	}

	return cpu.SetWideSections(cp, dst.Vec, dst.Index, 128, out)
}

// threeVector checks dst, src1, src2 of one vector width, optionally
// followed by an immediate. src2 may be memory if mem is set.
func threeVector(imm bool, mem bool, kinds ...cpu.VecRegName) func(ops []cpu.Operand) error {
	return func(ops []cpu.Operand) error {
		want := 3
		if imm {
			want = 4
		}
		if len(ops) != want {
			return ErrShapeMismatch
		}

		kind := ops[0].Reg.Vec
		if len(kinds) > 0 && !slices.Contains(kinds, kind) {
			return ErrShapeMismatch
		}

		if !sameVector(ops[1], kind) {
			return ErrShapeMismatch
		}
		if !sameVector(ops[2], kind) && !(mem && ops[2].IsMem()) {
			return ErrShapeMismatch
		}
		return nil
	}
}

// vshufps selects, in every 128-bit block, two dwords of src1 then two
// dwords of src2 by the 2-bit fields of imm8.
var vshufps = &permute{
	bits:  32,
	imm:   true,
	check: threeVector(true, true),
	mapping: func(imm uint8, lanes int) (mapping []laneRef) {
		for block := 0; block < lanes; block += 4 {
			for n := range 4 {
				sel := int(imm>>(2*n)) & 3
				src := 1
				if n >= 2 {
					src = 2
				}
				mapping = append(mapping, laneRef{operand: src, lane: block + sel})
			}
		}
		return
	},
}

func unpack(high bool) func(imm uint8, lanes int) []laneRef {
	return func(_ uint8, lanes int) (mapping []laneRef) {
		base := 0
		if high {
			base = 2
		}
		for block := 0; block < lanes; block += 4 {
			mapping = append(mapping,
				laneRef{operand: 1, lane: block + base},
				laneRef{operand: 2, lane: block + base},
				laneRef{operand: 1, lane: block + base + 1},
				laneRef{operand: 2, lane: block + base + 1},
			)
		}
		return
	}
}

// vunpcklps interleaves the low dwords of every 128-bit block.
var vunpcklps = &permute{
	bits:    32,
	check:   threeVector(false, true),
	mapping: unpack(false),
}

// vunpckhps interleaves the high dwords of every 128-bit block.
var vunpckhps = &permute{
	bits:    32,
	check:   threeVector(false, true),
	mapping: unpack(true),
}

// valignd shifts the concatenation src1:src2 right by imm8 dwords, modulo
// the lane count, and keeps the low half.
var valignd = &permute{
	bits:  32,
	imm:   true,
	check: threeVector(true, true),
	mapping: func(imm uint8, lanes int) (mapping []laneRef) {
		shift := int(imm) & (lanes - 1)
		for n := range lanes {
			at := n + shift
			if at < lanes {
				mapping = append(mapping, laneRef{operand: 2, lane: at})
			} else {
				mapping = append(mapping, laneRef{operand: 1, lane: at - lanes})
			}
		}
		return
	},
}

// shufpd selects a qword of the destination, then a qword of the source.
//
//	xmm, xmm, xmm/mem, imm8
var shufpd = &permute{
	bits:  64,
	imm:   true,
	merge: true,
	check: threeVector(true, true, cpu.XMM),
	mapping: func(imm uint8, lanes int) []laneRef {
		return []laneRef{
			{operand: 1, lane: int(imm) & 1},
			{operand: 2, lane: int(imm>>1) & 1},
		}
	},
}

// vperm2f128 selects each 128-bit half from the halves of both sources,
// or zero.
//
//	ymm, ymm, ymm, imm8
var vperm2f128 = &permute{
	bits:  128,
	imm:   true,
	check: threeVector(true, false, cpu.YMM),
	mapping: func(imm uint8, lanes int) (mapping []laneRef) {
		for half := range 2 {
			ctl := int(imm>>(4*half)) & 0xf
			if ctl&8 != 0 {
				mapping = append(mapping, zeroLane)
				continue
			}
			sel := ctl & 3
			mapping = append(mapping, laneRef{operand: 1 + sel/2, lane: sel % 2})
		}
		return
	},
}

// vextractf128 copies one 128-bit half of a ymm register.
//
//	xmm, ymm, imm8
var vextractf128 = &permute{
	bits: 128,
	imm:  true,
	check: func(ops []cpu.Operand) error {
		if len(ops) != 3 || !sameVector(ops[0], cpu.XMM) || !sameVector(ops[1], cpu.YMM) {
			return ErrShapeMismatch
		}
		return nil
	},
	mapping: func(imm uint8, lanes int) []laneRef {
		return []laneRef{{operand: 1, lane: int(imm) & 1}}
	},
}

// vbroadcastss copies the low dword of an xmm register, or a dword of
// memory, into every dword.
//
//	vec, xmm/mem
var broadcastss = &permute{
	bits: 32,
	check: func(ops []cpu.Operand) error {
		if len(ops) != 2 || (!sameVector(ops[1], cpu.XMM) && !ops[1].IsMem()) {
			return ErrShapeMismatch
		}
		return nil
	},
	mapping: func(_ uint8, lanes int) (mapping []laneRef) {
		for range lanes {
			mapping = append(mapping, laneRef{operand: 1, lane: 0})
		}
		return
	},
}
