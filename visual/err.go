package visual

import (
	"errors"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/translate"
)

var f = translate.From

var (
	ErrValueType      = errors.New(f("unknown value type"))
	ErrValueWidth     = errors.New(f("value type wider than register"))
	ErrRepeatLocation = errors.New(f("staging repeat counts do not match location"))
	ErrNotDisplayed   = errors.New(f("register not displayed"))
)

// ErrRegister locates an error on a displayed register.
type ErrRegister struct {
	Register cpu.Register
	Err      error
}

func (err *ErrRegister) Error() string {
	return f("%v: %v", err.Register.Name(), err.Err)
}

func (err *ErrRegister) Unwrap() error {
	return err.Err
}
