package visual

import (
	"fmt"
	"log"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/internal"
)

// Slot addresses one element: a register's main row (LOCATION_NONE, row 0)
// or one of its staging rows.
type Slot struct {
	Reg cpu.Register
	Loc LayoutLocation
	Row int
	Col int
}

// MainSlot addresses a lane of a register's main row.
func MainSlot(reg cpu.Register, col int) Slot {
	return Slot{Reg: reg, Loc: LOCATION_NONE, Col: col}
}

// StagingSlot addresses a lane of a staging row.
func StagingSlot(reg cpu.Register, loc LayoutLocation, row, col int) Slot {
	return Slot{Reg: reg, Loc: loc, Row: row, Col: col}
}

func (slot Slot) String() string {
	if slot.Loc == LOCATION_NONE {
		return fmt.Sprintf("%v[%d]", slot.Reg, slot.Col)
	}
	return fmt.Sprintf("%v.%v%d[%d]", slot.Reg, slot.Loc, slot.Row, slot.Col)
}

// Move sends the element in Source to the position of the element in
// Target. Callback, if not nil, runs on the moved element when it arrives,
// before its text is handed over to the target.
type Move struct {
	Source   Slot
	Target   Slot
	Callback func(*Element)
}

// Group is a set of moves that start together. With LayoutRelative set,
// moves head for the target's slot rather than the target's current
// position.
type Group struct {
	Moves          []Move
	LayoutRelative bool
}

// Sequence is an ordered list of groups.
type Sequence []Group

type sequencerOp int

const (
	SEQUENCER_REVEAL    = sequencerOp(0) // Reveal staging rows, then execute group 0.
	SEQUENCER_EXECUTE   = sequencerOp(1) // Execute a group of the current sequence.
	SEQUENCER_TERMINATE = sequencerOp(2) // The current sequence is done.
)

type sequencerMsg struct {
	op         sequencerOp
	generation int
	index      int
	registers  []cpu.Register
}

// handoff lands a moved element's text on its target.
type handoff struct {
	source *Element
	target *Element
}

// Sequencer runs queued sequences over the elements of a Layout, one group
// at a time.
type Sequencer struct {
	Verbose bool

	layout     *Layout
	queue      []Sequence
	finished   func()
	generation int
	executed   int
	messages   *internal.Mailbox[sequencerMsg]
	handoffs   *internal.Mailbox[handoff]
}

// NewSequencer creates an idle sequencer over a layout.
func NewSequencer(layout *Layout) *Sequencer {
	return &Sequencer{
		layout:   layout,
		messages: internal.NewMailbox[sequencerMsg](),
		handoffs: internal.NewMailbox[handoff](),
	}
}

func (seq *Sequencer) send(op sequencerOp, index int) {
	seq.messages.Send(sequencerMsg{op: op, generation: seq.generation, index: index})
}

// Set replaces all queued sequences with sequence. Moves still in flight
// from a replaced sequence are no longer tracked.
func (seq *Sequencer) Set(sequence Sequence) {
	seq.generation++
	seq.messages.Clear()
	seq.queue = []Sequence{sequence}
}

// Stop drops every queued sequence and pending message, forgets the
// finished callback and removes ghosts. Other elements already in flight
// keep moving.
func (seq *Sequencer) Stop() {
	seq.generation++
	seq.messages.Clear()
	seq.handoffs.Clear()
	seq.queue = nil
	seq.finished = nil
	seq.layout.clearGhosts()
}

// Add queues sequence to run after those already queued.
func (seq *Sequencer) Add(sequence Sequence) {
	seq.queue = append(seq.queue, sequence)
}

// SetFinished sets the callback run once the queue drains.
func (seq *Sequencer) SetFinished(finished func()) {
	seq.finished = finished
}

// Start executes group 0 of the queue on the next pump.
func (seq *Sequencer) Start() {
	seq.send(SEQUENCER_EXECUTE, 0)
}

// StartAfterReveal reveals the staging rows of registers on the next pump,
// and executes group 0 once every revealed element has reached its slot.
func (seq *Sequencer) StartAfterReveal(registers []cpu.Register) {
	seq.messages.Send(sequencerMsg{op: SEQUENCER_REVEAL, generation: seq.generation, registers: registers})
}

// Busy is true while sequences are queued or messages are pending.
func (seq *Sequencer) Busy() bool {
	return len(seq.queue) > 0 || seq.messages.Len() > 0 || seq.handoffs.Len() > 0
}

// Executed counts groups executed, including empty ones.
func (seq *Sequencer) Executed() int {
	return seq.executed
}

// Pump processes every pending sequencer message.
func (seq *Sequencer) Pump() {
	for {
		msg, ok := seq.messages.TryRecv()
		if !ok {
			return
		}

		if msg.generation != seq.generation {
			continue
		}

		switch msg.op {
		case SEQUENCER_REVEAL:
			seq.reveal(msg.registers)
		case SEQUENCER_EXECUTE:
			seq.execute(msg.index)
		case SEQUENCER_TERMINATE:
			seq.terminate()
		}
	}
}

// Finish lands every arrived element on its target: the source is hidden,
// and the target takes on its text, paint order and colors.
func (seq *Sequencer) Finish() {
	for {
		ho, ok := seq.handoffs.TryRecv()
		if !ok {
			return
		}

		ho.source.Visible = false
		ho.target.SetText(ho.source.Text())
		ho.target.Order = ho.source.Order
		ho.target.Color = ho.source.Color
		ho.target.BorderColor = ho.source.BorderColor
		ho.target.Visible = true

		seq.layout.removeGhost(ho.source)
	}
}

func (seq *Sequencer) reveal(registers []cpu.Register) {
	var revealed []*Element
	for _, reg := range registers {
		for _, loc := range []LayoutLocation{LOCATION_TOP, LOCATION_BOTTOM} {
			for _, row := range seq.layout.StagingElements(reg, loc) {
				revealed = append(revealed, row...)
			}
		}
	}

	if seq.Verbose {
		log.Printf("visual: reveal %d elements of %v", len(revealed), registers)
	}

	if len(revealed) == 0 {
		seq.send(SEQUENCER_EXECUTE, 0)
		return
	}

	generation := seq.generation
	remaining := len(revealed)
	for _, el := range revealed {
		el.Visible = true
		el.MoveTo(el.LayoutPosition, func(*Element) {
			remaining--
			if remaining == 0 {
				seq.messages.Send(sequencerMsg{op: SEQUENCER_EXECUTE, generation: generation})
			}
		})
	}
}

type startedMove struct {
	move   Move
	source *Element
	target *Element
	dest   Vec2
}

func (seq *Sequencer) execute(index int) {
	if len(seq.queue) == 0 {
		return
	}

	current := seq.queue[0]
	if index >= len(current) {
		seq.send(SEQUENCER_TERMINATE, 0)
		return
	}

	seq.executed++
	group := current[index]

	used := map[*Element]bool{}
	var started []startedMove
	for _, move := range group.Moves {
		target, ok := seq.layout.Element(move.Target)
		if !ok {
			if seq.Verbose {
				log.Printf("visual: group %d: no target %v", index, move.Target)
			}
			continue
		}
		source, ok := seq.layout.Element(move.Source)
		if !ok {
			if seq.Verbose {
				log.Printf("visual: group %d: no source %v", index, move.Source)
			}
			continue
		}

		if used[source] {
			source = seq.layout.addGhost(source)
		}
		used[source] = true

		dest := target.Position
		if group.LayoutRelative {
			dest = target.LayoutPosition
		}

		started = append(started, startedMove{move: move, source: source, target: target, dest: dest})
	}

	if seq.Verbose {
		log.Printf("visual: group %d: %d of %d moves", index, len(started), len(group.Moves))
	}

	if len(started) == 0 {
		seq.send(SEQUENCER_EXECUTE, index+1)
		return
	}

	generation := seq.generation
	remaining := len(started)
	for _, sm := range started {
		sm.source.Visible = true
		if sm.source.Order <= sm.target.Order {
			sm.source.Order = sm.target.Order + 1
		}

		sm.source.MoveTo(sm.dest, func(el *Element) {
			if sm.move.Callback != nil {
				sm.move.Callback(el)
			}
			seq.handoffs.Send(handoff{source: el, target: sm.target})

			remaining--
			if remaining == 0 {
				seq.messages.Send(sequencerMsg{op: SEQUENCER_EXECUTE, generation: generation, index: index + 1})
			}
		})
	}
}

func (seq *Sequencer) terminate() {
	if len(seq.queue) > 0 {
		seq.queue = seq.queue[1:]
	}

	if len(seq.queue) > 0 {
		seq.send(SEQUENCER_EXECUTE, 0)
		return
	}

	if seq.finished != nil {
		finished := seq.finished
		seq.finished = nil
		finished()
	}
}
