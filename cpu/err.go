package cpu

import (
	"errors"

	"github.com/Akiko97/simd-asm-code-visualization/translate"
)

var f = translate.From

var (
	// Register file errors
	ErrRegisterKind    = errors.New(f("register kind"))
	ErrRegisterIndex   = errors.New(f("register index out of range"))
	ErrSectionWidth    = errors.New(f("section width"))
	ErrSectionCount    = errors.New(f("section count"))
	ErrOperandKind     = errors.New(f("operand kind"))
	ErrAddressNegative = errors.New(f("negative address"))

	// Assembler errors
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrOpcodeMissing   = errors.New(f("opcode missing"))
	ErrOperandMissing  = errors.New(f("operand missing"))
)

// ErrSyntax locates a parse error in a listing.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseValue string

func (err ErrParseValue) Error() string {
	return f("'%v' is not a value or register", string(err))
}

type ErrParseRegister string

func (err ErrParseRegister) Error() string {
	return f("'%v' is not a register", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrAddress string

func (err ErrAddress) Error() string {
	return f("[%v] is not a valid address", string(err))
}
