package actuator

import (
	"log"
	"maps"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/fsm"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

// lookup resolves the opcode of an instruction and expands its operands.
func lookup(inst cpu.Instruction, verbose bool) (op Opcode, ops []cpu.Operand, err error) {
	op, err = ParseOpcode(inst.Opcode)
	if err != nil {
		log.Printf("actuator: %v", err)
		return
	}

	if len(inst.Operands) == 0 {
		err = ErrNoOperands
		return
	}

	ops = op.Operands(inst.Operands)
	err = op.Choreographer().Check(ops)
	if err != nil {
		if verbose {
			log.Printf("actuator: %v: %v", op, err)
		}
		err = &ErrInstruction{Instruction: inst.String(), Err: err}
		return
	}

	return
}

// Apply performs an instruction on the CPU without animation, taking the
// CPU lock.
func Apply(cp *cpu.Cpu, inst cpu.Instruction) (err error) {
	op, ops, err := lookup(inst, cp.Verbose)
	if err != nil {
		return
	}

	cp.Lock()
	defer cp.Unlock()

	return op.Choreographer().Apply(cp, ops)
}

// ExecuteText parses a single instruction and executes it.
func ExecuteText(vis *visual.Visualizer, cp *cpu.Cpu, machine *fsm.Fsm, display *visual.Display, text string, withAnimation bool) (err error) {
	var asm cpu.Assembler
	inst, err := asm.ParseInstruction(text)
	if err != nil || inst.Opcode == "" {
		return
	}

	return Execute(vis, cp, machine, display, inst, withAnimation, nil)
}

// Execute steps an instruction through the phases of machine, which must be
// idle. The CPU is mutated exactly once, in the update data phase. With
// animation, and when the destination and every register operand are
// displayed, the operands are staged and animated first; otherwise every
// other phase passes straight through. The destination register is
// highlighted in the destroy layout phase, after which done, if not nil,
// receives the error of the data function.
//
// Unsupported opcodes, instructions without operands, and operand shape
// mismatches are returned without starting the machine.
func Execute(vis *visual.Visualizer, cp *cpu.Cpu, machine *fsm.Fsm, display *visual.Display, inst cpu.Instruction, withAnimation bool, done func(error)) (err error) {
	if !machine.IsIdle() {
		err = ErrBusy
		return
	}

	vis.ResetHighlight()

	op, ops, err := lookup(inst, vis.Verbose)
	if err != nil {
		return
	}

	chore := op.Choreographer()

	var applyErr error
	machine.SetUpdateData(func(machine *fsm.Fsm) {
		cp.Lock()
		applyErr = chore.Apply(cp, ops)
		cp.Unlock()
		if applyErr != nil {
			log.Printf("actuator: %v: %v", inst, applyErr)
		}
		machine.Next()
	})

	animate := withAnimation && !op.FlagsOnly() && ops[0].IsReg()
	for _, operand := range ops {
		if operand.IsReg() && !display.Contains(operand.Reg) {
			animate = false
		}
	}

	if !animate {
		machine.SetCreateLayout(func(machine *fsm.Fsm) { machine.Next() })
		machine.SetRunAnimation(func(machine *fsm.Fsm) { machine.Next() })
		machine.SetDestroyLayout(func(machine *fsm.Fsm) {
			if ops[0].IsReg() && !op.FlagsOnly() {
				vis.Highlight(ops[0].Reg)
			}
			if done != nil {
				done(applyErr)
			}
			machine.Next()
		})
		machine.Start()
		return
	}

	placement := Place(display, ops)

	machine.SetCreateLayout(func(machine *fsm.Fsm) {
		cp.Lock()
		configs := stageMemory(cp, display, placement)
		cp.Unlock()

		for _, reg := range placement.Registers() {
			err := vis.CreateAnimationLayout(reg, configs[reg])
			if err != nil {
				log.Printf("actuator: %v: %v", reg, err)
			}
		}
		machine.Next()
	})

	machine.SetRunAnimation(func(machine *fsm.Fsm) {
		cp.Lock()
		seq, err := chore.Animate(placement.Operands, cp, display)
		cp.Unlock()
		if err != nil {
			if vis.Verbose {
				log.Printf("actuator: %v: no animation: %v", inst, err)
			}
			seq = nil
		}

		vis.SetGroupMoveAnimationSequence(seq)
		vis.SetSequenceFinishedCallback(machine.Next)
		vis.StartMoveAnimationSequenceAfterStartAnimation(placement.Registers())
	})

	machine.SetDestroyLayout(func(machine *fsm.Fsm) {
		for _, reg := range placement.Registers() {
			vis.RemoveAnimationLayout(reg)
		}
		vis.Highlight(placement.Target)
		if done != nil {
			done(applyErr)
		}
		machine.Next()
	})

	machine.Start()
	return
}

// stageMemory fills the staging rows of memory operands with the lanes at
// their addresses, shown as the destination's lane type.
// The caller must hold the CPU lock.
func stageMemory(cp *cpu.Cpu, display *visual.Display, placement *Placement) (configs map[cpu.Register]visual.RegAnimationConfig) {
	configs = maps.Clone(placement.Configs)

	for _, p := range placement.Operands {
		if !p.Operand.IsMem() || !p.Staged() {
			continue
		}

		addr, err := p.Operand.Address(cp)
		if err != nil {
			log.Printf("actuator: %v: %v", p.Operand, err)
			continue
		}

		vt, count := laneShape(display, p.Reg)
		cfg := configs[p.Reg]
		if cfg.RowValues == nil {
			cfg.RowValues = map[visual.StagingRow][]visual.Value{}
		}
		cfg.RowValues[visual.StagingRow{Loc: p.Loc, Row: p.Row}] = visual.ValuesFromMemory(cp.Memory, addr, vt, count)
		configs[p.Reg] = cfg
	}

	return
}
