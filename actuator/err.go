package actuator

import (
	"errors"

	"github.com/Akiko97/simd-asm-code-visualization/translate"
)

var f = translate.From

var (
	ErrUnsupported   = errors.New(f("unsupported opcode"))
	ErrShapeMismatch = errors.New(f("operand shape mismatch"))
	ErrBusy          = errors.New(f("instruction step in progress"))
	ErrNoOperands    = errors.New(f("no operands"))
)

// ErrOpcode is an opcode without a choreography.
type ErrOpcode string

func (err ErrOpcode) Error() string {
	return f("unsupported opcode '%v'", string(err))
}

func (err ErrOpcode) Unwrap() error {
	return ErrUnsupported
}

// ErrInstruction locates an error on an instruction.
type ErrInstruction struct {
	Instruction string
	Err         error
}

func (err *ErrInstruction) Error() string {
	return f("'%v' %v", err.Instruction, err.Err)
}

func (err *ErrInstruction) Unwrap() error {
	return err.Err
}
