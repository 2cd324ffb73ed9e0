package emulator

import (
	"errors"

	"github.com/Akiko97/simd-asm-code-visualization/translate"
)

var f = translate.From

var (
	ErrStalled = errors.New(f("step did not settle"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
