package config

import (
	"errors"

	"github.com/Akiko97/simd-asm-code-visualization/translate"
)

var f = translate.From

var (
	ErrUnknownKey  = errors.New(f("unknown configuration key"))
	ErrLaneValue   = errors.New(f("lane value"))
	ErrLaneCount   = errors.New(f("too many lane values"))
	ErrFrameRate   = errors.New(f("frame rate must be positive"))
	ErrSpeedBounds = errors.New(f("min_speed above max_speed"))
)

// ErrEntry locates an error in a configuration entry.
type ErrEntry struct {
	Name string
	Err  error
}

func (err *ErrEntry) Error() string {
	return f("%v: %v", err.Name, err.Err)
}

func (err *ErrEntry) Unwrap() error {
	return err.Err
}
