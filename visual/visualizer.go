package visual

import (
	"log"
	"maps"
	"slices"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
)

// Visualizer shows displayed registers and animates instructions on them.
type Visualizer struct {
	Verbose bool // Set to enable verbose logging.

	layout    *Layout
	sequencer *Sequencer
	configs   map[cpu.Register]RegAnimationConfig
	highlight map[cpu.Register]bool
}

// NewVisualizer creates a visualizer with nothing to show.
func NewVisualizer() *Visualizer {
	layout := NewLayout()
	return &Visualizer{
		layout:    layout,
		sequencer: NewSequencer(layout),
		configs:   map[cpu.Register]RegAnimationConfig{},
		highlight: map[cpu.Register]bool{},
	}
}

// SetVerbose sets verbose logging of the visualizer and its sequencer.
func (vis *Visualizer) SetVerbose(verbose bool) {
	vis.Verbose = verbose
	vis.sequencer.Verbose = verbose
}

// Layout is the layout engine of the visualizer.
func (vis *Visualizer) Layout() *Layout {
	return vis.layout
}

// Update advances every element by dt seconds.
func (vis *Visualizer) Update(dt float32, speed Speed) {
	// Collect first: arrival callbacks may add ghosts.
	for _, el := range slices.Collect(vis.layout.Elements()) {
		el.Update(dt, speed)
	}
}

// Show lays out the displayed registers with their current values and the
// active staging rows, then draws them. The CPU lock is taken only while the
// register values are read.
func (vis *Visualizer) Show(surface Surface, display *Display, cp *cpu.Cpu) (err error) {
	cp.Lock()
	snapshot, err := display.Snapshot(cp)
	cp.Unlock()

	if err != nil && vis.Verbose {
		log.Printf("visual: %v", err)
	}

	vis.layout.Reconcile(display, snapshot, vis.configs, vis.highlight)
	vis.layout.Draw(surface)

	return
}

// IsAnimating is true while any element is moving.
func (vis *Visualizer) IsAnimating() bool {
	for el := range vis.layout.Elements() {
		if el.IsAnimating() {
			return true
		}
	}
	return false
}

// Busy is true while animating, or while sequences are still queued.
func (vis *Visualizer) Busy() bool {
	return vis.IsAnimating() || vis.sequencer.Busy()
}

// MoveAnimationSequence pumps the sequencer. Call once per frame, after Show.
func (vis *Visualizer) MoveAnimationSequence() {
	vis.sequencer.Pump()
}

// MoveAnimationFinish lands arrived elements on their targets. Call once per
// frame, after MoveAnimationSequence.
func (vis *Visualizer) MoveAnimationFinish() {
	vis.sequencer.Finish()
}

// SetGroupMoveAnimationSequence replaces the queue with a single sequence.
func (vis *Visualizer) SetGroupMoveAnimationSequence(seq Sequence) {
	vis.sequencer.Set(seq)
}

// StopMoveAnimationSequence abandons the queue.
func (vis *Visualizer) StopMoveAnimationSequence() {
	vis.sequencer.Stop()
}

// AddGroupMoveAnimationSequence queues another sequence.
func (vis *Visualizer) AddGroupMoveAnimationSequence(seq Sequence) {
	vis.sequencer.Add(seq)
}

// StartMoveAnimationSequence starts the queue without a reveal step.
func (vis *Visualizer) StartMoveAnimationSequence() {
	vis.sequencer.Start()
}

// StartMoveAnimationSequenceAfterStartAnimation reveals the staging rows of
// registers, and starts the queue once they are all in place.
func (vis *Visualizer) StartMoveAnimationSequenceAfterStartAnimation(registers []cpu.Register) {
	vis.sequencer.StartAfterReveal(slices.Clone(registers))
}

// SetSequenceFinishedCallback sets the callback run once when the queue
// drains.
func (vis *Visualizer) SetSequenceFinishedCallback(finished func()) {
	vis.sequencer.SetFinished(finished)
}

// GroupsExecuted counts the animation groups executed so far.
func (vis *Visualizer) GroupsExecuted() int {
	return vis.sequencer.Executed()
}

// CreateAnimationLayout requests staging rows for reg. The rows appear on
// the next Show.
func (vis *Visualizer) CreateAnimationLayout(reg cpu.Register, cfg RegAnimationConfig) (err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}

	if vis.Verbose {
		log.Printf("visual: %v: staging %v %+v", reg, cfg.Location, cfg.Repeat)
	}

	vis.configs[reg] = cfg
	return
}

// AnimationLayout returns the staging configuration of reg, if any.
func (vis *Visualizer) AnimationLayout(reg cpu.Register) (cfg RegAnimationConfig, ok bool) {
	cfg, ok = vis.configs[reg]
	return
}

// RemoveAnimationLayout drops the staging rows of reg, and restores its main
// row to the live values on the next Show.
func (vis *Visualizer) RemoveAnimationLayout(reg cpu.Register) {
	delete(vis.configs, reg)
	vis.layout.Rebuild(reg)
}

// ClearAnimationLayout drops every staging row, as RemoveAnimationLayout.
func (vis *Visualizer) ClearAnimationLayout() {
	for reg := range vis.configs {
		vis.layout.Rebuild(reg)
	}
	clear(vis.configs)
}

// AnimatedRegisters lists the registers with staging rows.
func (vis *Visualizer) AnimatedRegisters() []cpu.Register {
	return slices.Collect(maps.Keys(vis.configs))
}

// Highlight marks the main row of reg.
func (vis *Visualizer) Highlight(reg cpu.Register) {
	vis.highlight[reg] = true
}

// ResetHighlight clears every highlight.
func (vis *Visualizer) ResetHighlight() {
	clear(vis.highlight)
}

// IsHighlighted is true if reg is highlighted.
func (vis *Visualizer) IsHighlighted(reg cpu.Register) bool {
	return vis.highlight[reg]
}

// Element finds the element in a slot.
func (vis *Visualizer) Element(slot Slot) (*Element, bool) {
	return vis.layout.Element(slot)
}

// LayoutTree renders the current layout as a tree.
func (vis *Visualizer) LayoutTree() string {
	return vis.layout.Tree()
}
