package actuator

import (
	"slices"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

// Placed is an operand with the staging row it is shown on while animated.
// Memory operands are shown on a staging row of the destination register.
// Operands that are not shown have Loc LOCATION_NONE.
type Placed struct {
	Operand cpu.Operand
	Reg     cpu.Register
	Loc     visual.LayoutLocation
	Row     int
}

// Staged is true when the operand has a staging row.
func (p Placed) Staged() bool {
	return p.Loc != visual.LOCATION_NONE
}

// Slot addresses a lane of the operand's staging row.
func (p Placed) Slot(col int) visual.Slot {
	return visual.StagingSlot(p.Reg, p.Loc, p.Row, col)
}

type regPlacement struct {
	index int // Display index
	loc   visual.LayoutLocation
	count int // Staging rows
}

// Placement is where every operand of an instruction is staged.
type Placement struct {
	Operands  []Placed
	Configs   map[cpu.Register]visual.RegAnimationConfig
	Target    cpu.Register
	HasTarget bool

	registers []cpu.Register
}

// Registers lists the staged registers in display order.
func (pl *Placement) Registers() []cpu.Register {
	return slices.Clone(pl.registers)
}

// Place assigns staging rows to the displayed register operands of an
// instruction, and to its memory sources.
//
// Each register gets a single side. Of the destination and a source, the
// one shown first is staged on top and the other below, so that neither
// staging row crosses the other register's main row. A register used by
// several operands gets a row per use. A destination without a distinct
// source is staged below.
func Place(display *visual.Display, ops []cpu.Operand) (pl *Placement) {
	pl = &Placement{
		Configs: map[cpu.Register]visual.RegAnimationConfig{},
	}

	regs := map[cpu.Register]*regPlacement{}
	for _, op := range ops {
		if !op.IsReg() {
			continue
		}
		index := display.Index(op.Reg)
		if index < 0 {
			continue
		}
		if rp, ok := regs[op.Reg]; ok {
			rp.count++
			continue
		}
		regs[op.Reg] = &regPlacement{index: index, count: 1}
		pl.registers = append(pl.registers, op.Reg)
	}

	var target *regPlacement
	if len(ops) > 0 && ops[0].IsReg() {
		target = regs[ops[0].Reg]
	}

	if target != nil {
		pl.Target = ops[0].Reg
		pl.HasTarget = true

		for _, op := range ops[1:] {
			if !op.IsReg() || op.Reg == pl.Target {
				continue
			}
			rp, ok := regs[op.Reg]
			if !ok || rp.loc != visual.LOCATION_NONE {
				continue
			}
			if target.loc == visual.LOCATION_NONE {
				if target.index < rp.index {
					target.loc, rp.loc = visual.LOCATION_TOP, visual.LOCATION_BOTTOM
				} else {
					target.loc, rp.loc = visual.LOCATION_BOTTOM, visual.LOCATION_TOP
				}
				continue
			}
			if rp.index < target.index {
				rp.loc = visual.LOCATION_TOP
			} else {
				rp.loc = visual.LOCATION_BOTTOM
			}
		}

		for _, op := range ops[1:] {
			if op.IsMem() {
				target.count++
			}
		}
	}

	for _, rp := range regs {
		if rp.loc == visual.LOCATION_NONE {
			rp.loc = visual.LOCATION_BOTTOM
		}
	}

	rows := map[cpu.Register]int{}
	for n, op := range ops {
		placed := Placed{Operand: op}
		switch {
		case op.IsReg() && regs[op.Reg] != nil:
			placed.Reg = op.Reg
		case op.IsMem() && n > 0 && target != nil:
			placed.Reg = pl.Target
		}
		if rp := regs[placed.Reg]; rp != nil {
			placed.Loc = rp.loc
			placed.Row = rows[placed.Reg]
			rows[placed.Reg]++
		}
		pl.Operands = append(pl.Operands, placed)
	}

	slices.SortFunc(pl.registers, func(a, b cpu.Register) int {
		return regs[a].index - regs[b].index
	})

	for reg, rp := range regs {
		cfg := visual.RegAnimationConfig{Location: rp.loc}
		if rp.loc == visual.LOCATION_TOP {
			cfg.Repeat.Top = rp.count
		} else {
			cfg.Repeat.Bottom = rp.count
		}
		pl.Configs[reg] = cfg
	}

	return
}
