// Package fsm steps one instruction through the phases of its animation.
//
// The cycle is Idle, CreateLayout, RunAnimation, UpdateData, DestroyLayout
// and back to Idle. Each phase may hold one pending closure, run at most once
// by Run while the phase is current. Phases advance only by control messages
// (or Next), so a phase may span any number of frames.
package fsm

import (
	"fmt"
	"log"
)

// State is a phase of the instruction step.
type State int

const (
	STATE_IDLE           = State(0) // idle
	STATE_CREATE_LAYOUT  = State(1) // create layout
	STATE_RUN_ANIMATION  = State(2) // run animation
	STATE_UPDATE_DATA    = State(3) // update data
	STATE_DESTROY_LAYOUT = State(4) // destroy layout
	stateCount           = 5
)

var stateNames = [stateCount]string{
	"idle",
	"create layout",
	"run animation",
	"update data",
	"destroy layout",
}

func (state State) String() string {
	if state < 0 || state >= stateCount {
		return fmt.Sprintf("State(%d)", int(state))
	}
	return stateNames[state]
}

// Next is the state after state.
func (state State) Next() State {
	return (state + 1) % stateCount
}

// Control is a message forcing a transition.
type Control int

const (
	CONTROL_TO_IDLE = Control(0) // Reset to idle, dropping every pending phase.
	CONTROL_NEXT    = Control(1) // Advance to the next phase.
)

func (ctl Control) String() string {
	switch ctl {
	case CONTROL_TO_IDLE:
		return "to idle"
	case CONTROL_NEXT:
		return "next"
	}
	return fmt.Sprintf("Control(%d)", int(ctl))
}

// CONTROL_DEPTH is the capacity of the control channel.
const CONTROL_DEPTH = 16

// Phase is the work of one state. It may send control messages to the
// machine that runs it.
type Phase func(fsm *Fsm)

// Fsm is the instruction step controller.
type Fsm struct {
	Verbose bool // Set to enable verbose logging.

	state   State
	phases  [stateCount]Phase
	control chan Control
}

// NewFsm creates an idle machine.
func NewFsm() *Fsm {
	return &Fsm{
		control: make(chan Control, CONTROL_DEPTH),
	}
}

// State is the current phase.
func (fsm *Fsm) State() State {
	return fsm.state
}

// IsIdle is true when no instruction is being stepped.
func (fsm *Fsm) IsIdle() bool {
	return fsm.state == STATE_IDLE
}

func (fsm *Fsm) SetCreateLayout(phase Phase) {
	fsm.phases[STATE_CREATE_LAYOUT] = phase
}

func (fsm *Fsm) SetRunAnimation(phase Phase) {
	fsm.phases[STATE_RUN_ANIMATION] = phase
}

func (fsm *Fsm) SetUpdateData(phase Phase) {
	fsm.phases[STATE_UPDATE_DATA] = phase
}

func (fsm *Fsm) SetDestroyLayout(phase Phase) {
	fsm.phases[STATE_DESTROY_LAYOUT] = phase
}

// Start leaves Idle. It does nothing mid-cycle.
func (fsm *Fsm) Start() {
	if fsm.state == STATE_IDLE {
		fsm.next()
	}
}

func (fsm *Fsm) next() {
	fsm.state = fsm.state.Next()
	if fsm.Verbose {
		log.Printf("fsm: %v", fsm.state)
	}
}

// Sender is the control channel of the machine.
func (fsm *Fsm) Sender() chan<- Control {
	return fsm.control
}

// Send posts a control message, without blocking. It reports false if the
// channel is full and the message was dropped.
func (fsm *Fsm) Send(ctl Control) bool {
	select {
	case fsm.control <- ctl:
		return true
	default:
		log.Printf("fsm: control %v dropped", ctl)
		return false
	}
}

// Next posts CONTROL_NEXT.
func (fsm *Fsm) Next() {
	fsm.Send(CONTROL_NEXT)
}

// Reset posts CONTROL_TO_IDLE.
func (fsm *Fsm) Reset() {
	fsm.Send(CONTROL_TO_IDLE)
}

// Abort returns to idle at once, from outside the machine's phases. Pending
// phases and control messages are dropped and never run.
func (fsm *Fsm) Abort() {
	fsm.toIdle()
}

func (fsm *Fsm) toIdle() {
	fsm.state = STATE_IDLE
	clear(fsm.phases[:])
	for drained := false; !drained; {
		select {
		case <-fsm.control:
		default:
			drained = true
		}
	}
	if fsm.Verbose {
		log.Printf("fsm: %v", fsm.state)
	}
}

// Run executes the pending closure of the current phase, if any, then acts
// on at most one control message. Call once per frame.
func (fsm *Fsm) Run() {
	if phase := fsm.phases[fsm.state]; phase != nil {
		fsm.phases[fsm.state] = nil
		phase(fsm)
	}

	select {
	case ctl := <-fsm.control:
		switch ctl {
		case CONTROL_TO_IDLE:
			fsm.toIdle()
		case CONTROL_NEXT:
			fsm.next()
		}
	default:
	}
}
