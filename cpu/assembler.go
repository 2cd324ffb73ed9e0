// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":      "0",
	"MEMORY_BASE": fmt.Sprintf("%#x", MEMORY_BASE),
}

// Assembler parses x86 SIMD assembly listings, one instruction per line.
type Assembler struct {
	Verbose bool              // If set, verbosely logs the assembler actions.
	Equate  map[string]string // Map of equates.

	predefine map[string]string // Predefines
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// reset restores the equates to the predefined set.
func (asm *Assembler) reset() {
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
}

// valueOf returns the value of a simple numeric word.
func (asm *Assembler) valueOf(word string) (value uint64, err error) {
	value, err = strconv.ParseUint(word, 0, 64)
	if err == nil {
		return
	}

	v64, err := strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = uint64(v64)
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value64 uint64
		value64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeUint64(value64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	if st_int.Sign() < 0 {
		st_int64, ok := st_int.Int64()
		if !ok {
			err = ErrParseExpression(expr)
			return
		}
		value = uint64(st_int64)
		return
	}
	value, ok = st_int.Uint64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

var parenRegexp = regexp.MustCompile(`\$\([^\$]*\)`)

// parseOperand parses a single operand word.
func (asm *Assembler) parseOperand(word string) (op Operand, err error) {
	if equate, ok := asm.Equate[word]; ok {
		word = equate
	}

	if strings.HasPrefix(word, "[") {
		if !strings.HasSuffix(word, "]") || len(strings.TrimSpace(word[1:len(word)-1])) == 0 {
			err = ErrAddress(word)
			return
		}
		op = MemOperand(strings.TrimSpace(word[1 : len(word)-1]))
		return
	}

	reg, err := ParseRegister(word)
	if err == nil {
		op = RegOperand(reg)
		return
	}

	value, err := asm.valueOf(word)
	if err != nil {
		err = ErrParseValue(word)
		return
	}

	op = ImmOperand(value)
	return
}

// ParseInstruction parses a single line of text as an instruction.
// A blank or comment-only line yields an instruction with no opcode.
func (asm *Assembler) ParseInstruction(text string) (inst Instruction, err error) {
	if asm.Equate == nil {
		asm.reset()
	}

	return asm.parseLine(text, 0)
}

func (asm *Assembler) parseLine(text string, lineno int) (inst Instruction, err error) {
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	if cut := strings.IndexAny(text, ";#"); cut >= 0 {
		text = text[:cut]
	}
	text = strings.TrimSpace(text)

	inst.LineNo = lineno
	inst.Text = text

	if len(text) == 0 {
		return
	}

	// Do $() evaluations
	line := parenRegexp.ReplaceAllStringFunc(text, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#x", value)
	})
	if err != nil {
		return
	}

	opcode, rest := line, ""
	if cut := strings.IndexFunc(line, unicode.IsSpace); cut >= 0 {
		opcode, rest = line[:cut], line[cut:]
	}
	opcode = strings.ToLower(opcode)

	// .equ CONST VALUE
	if opcode == ".equ" {
		words := strings.Fields(rest)
		if len(words) != 2 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[0]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[0]] = words[1]
		inst.Text = ""
		return
	}

	if strings.ContainsAny(opcode, ",[]$") {
		err = ErrOpcodeMissing
		return
	}

	inst.Opcode = opcode

	rest = strings.TrimSpace(rest)
	if len(rest) == 0 {
		return
	}

	for _, word := range strings.Split(rest, ",") {
		word = strings.TrimSpace(word)
		if len(word) == 0 {
			err = ErrOperandMissing
			return
		}

		var op Operand
		op, err = asm.parseOperand(word)
		if err != nil {
			return
		}
		inst.Operands = append(inst.Operands, op)
	}

	return
}

// Parse parses an input stream into a Program containing instructions.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
			prog = nil
		}
	}()

	asm.reset()
	prog = &Program{}

	for scanner.Scan() {
		line = scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, line)
		}

		var inst Instruction
		inst, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		if len(inst.Opcode) == 0 {
			continue
		}

		prog.Instructions = append(prog.Instructions, inst)
	}

	err = scanner.Err()
	return
}
