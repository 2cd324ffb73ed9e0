package web

import (
	"errors"

	"github.com/Akiko97/simd-asm-code-visualization/translate"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

var f = translate.From

var (
	ErrSpeed = errors.New(f("speed must be positive"))
)

// ErrMessageType is an unknown control message type.
type ErrMessageType string

func (err ErrMessageType) Error() string {
	return f("unknown message type '%v'", string(err))
}

// MessageType names a control message.
type MessageType string

const (
	MESSAGE_STEP    = MessageType("step")    // Step one instruction.
	MESSAGE_RUN     = MessageType("run")     // Step until the end of the program.
	MESSAGE_PAUSE   = MessageType("pause")   // Stop running after the current step.
	MESSAGE_RESET   = MessageType("reset")   // Abandon the step, rewind the program.
	MESSAGE_SPEED   = MessageType("speed")   // Scale the animation speed by Value.
	MESSAGE_ANIMATE = MessageType("animate") // Animate steps if Value is non-zero.
	MESSAGE_EXEC    = MessageType("exec")    // Execute Text as a single instruction.
)

// Message is a control message from a browser.
type Message struct {
	Type  MessageType `json:"type"`
	Value float64     `json:"value,omitempty"`
	Text  string      `json:"text,omitempty"`
}

// Status is streamed to browsers once per frame.
type Status struct {
	LineNo  int           `json:"line"`
	Busy    bool          `json:"busy"`
	Done    bool          `json:"done"`
	Running bool          `json:"running"`
	Error   string        `json:"error,omitempty"`
	Frame   *visual.Frame `json:"frame"`
}
