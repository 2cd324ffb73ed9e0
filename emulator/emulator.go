// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"io"
	"log"

	"github.com/Akiko97/simd-asm-code-visualization/actuator"
	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/fsm"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

const (
	FRAME_DT    = 1.0 / 60 // Default frame time, in seconds.
	FRAME_LIMIT = 100000   // Frames a headless step may take before giving up.
)

// Emulator state. CPU + visualizer + step controller + program listing.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently loaded program listing.

	Visual  *visual.Visualizer // Register display and animation.
	Machine *fsm.Fsm           // Instruction step controller.
	Display *visual.Display    // Displayed registers and their lane types.
	Speed   visual.Speed       // Element motion speed.
	Animate bool               // If set, steps are animated.

	Surface visual.Surface // Where frames are drawn, a fresh Frame if nil.

	ip      int             // Index of the next instruction to step.
	current cpu.Instruction // Instruction being stepped.
	fault   error           // Pending runtime error of the current step.
}

// NewEmulator creates a new emulator, with an empty display.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
		Visual:  visual.NewVisualizer(),
		Machine: fsm.NewFsm(),
		Display: visual.NewDisplay(),
		Speed:   visual.DefaultSpeed,
		Animate: true,
	}

	return
}

// Assemble parses a listing and makes it the current program.
func (emu *Emulator) Assemble(input io.Reader) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	emu.Program = prog
	emu.ip = 0
	return
}

// SetVerbose sets the verbosity of the emulator and everything it owns.
func (emu *Emulator) SetVerbose(verbose bool) {
	emu.Verbose = verbose
	emu.Cpu.Verbose = verbose
	emu.Machine.Verbose = verbose
	emu.Visual.SetVerbose(verbose)
}

// Reset abandons any step in flight, removes all staging rows and
// highlights, and rewinds the program. The CPU is left alone.
func (emu *Emulator) Reset() {
	if emu.Verbose {
		log.Printf("emulator: reset")
	}

	// The machine goes idle first, so no pending phase can stage rows or
	// post controls after the layout is cleared.
	emu.Machine.Abort()
	emu.Visual.StopMoveAnimationSequence()
	emu.Visual.ClearAnimationLayout()
	emu.Visual.ResetHighlight()
	emu.ip = 0
	emu.current = cpu.Instruction{}
	emu.fault = nil
}

// Ip returns the index of the next instruction to step.
func (emu *Emulator) Ip() int {
	return emu.ip
}

// Done is true once every instruction of the program has been stepped.
func (emu *Emulator) Done() bool {
	return emu.ip >= emu.Program.Len()
}

// LineNo returns the source line of the instruction being stepped, or of the
// next one when idle. Zero past the end of the program.
func (emu *Emulator) LineNo() int {
	if emu.Busy() {
		return emu.current.LineNo
	}

	if emu.Done() {
		return 0
	}

	return emu.Program.Instructions[emu.ip].LineNo
}

// Busy is true while an instruction is being stepped or animated.
func (emu *Emulator) Busy() bool {
	return !emu.Machine.IsIdle() || emu.Visual.Busy()
}

// Tick performs a single frame: the step controller runs, elements move by
// dt, the display is drawn, and the sequencer is pumped. A runtime error of
// the instruction being stepped is returned once, on the frame it completes.
func (emu *Emulator) Tick(dt float32) (err error) {
	surface := emu.Surface
	if surface == nil {
		surface = &visual.Frame{}
	}

	emu.Machine.Run()
	emu.Visual.Update(dt, emu.Speed)
	err = emu.Visual.Show(surface, emu.Display, emu.Cpu)
	if err != nil {
		return
	}
	emu.Visual.MoveAnimationSequence()
	emu.Visual.MoveAnimationFinish()

	err = emu.fault
	emu.fault = nil
	return
}

// Step starts the next instruction of the program. It returns done when the
// program is exhausted. An instruction that cannot be executed is skipped
// and its error is returned.
func (emu *Emulator) Step() (done bool, err error) {
	if emu.Busy() {
		err = actuator.ErrBusy
		return
	}

	if emu.Done() {
		done = true
		return
	}

	inst := emu.Program.Instructions[emu.ip]
	emu.ip++

	emu.current = inst
	err = actuator.Execute(emu.Visual, emu.Cpu, emu.Machine, emu.Display, inst, emu.Animate, func(err error) {
		if err != nil {
			emu.fault = &ErrRuntime{LineNo: inst.LineNo, Err: err}
		}
	})
	if err != nil {
		if emu.Verbose {
			log.Printf("emulator: line %d: %v", inst.LineNo, err)
		}
		err = &ErrRuntime{LineNo: inst.LineNo, Err: err}
		return
	}

	return
}

// Execute starts a single ad-hoc instruction, outside of the program.
func (emu *Emulator) Execute(text string) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	inst, err := asm.ParseInstruction(text)
	if err != nil || inst.Opcode == "" {
		return
	}

	emu.current = inst
	return actuator.Execute(emu.Visual, emu.Cpu, emu.Machine, emu.Display, inst, emu.Animate, func(err error) {
		emu.fault = err
	})
}

// Settle ticks frames of dt until the current step completes.
func (emu *Emulator) Settle(dt float32) (err error) {
	for range FRAME_LIMIT {
		err = emu.Tick(dt)
		if err != nil {
			return
		}
		if !emu.Busy() {
			return
		}
	}

	err = ErrStalled
	return
}

// Run steps the rest of the program, ticking frames of dt after each step
// until it settles. It stops at the first error.
func (emu *Emulator) Run(dt float32) (err error) {
	for {
		var done bool
		done, err = emu.Step()
		if err != nil || done {
			return
		}

		err = emu.Settle(dt)
		if err != nil {
			return
		}
	}
}
