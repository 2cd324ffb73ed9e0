package cpu

import (
	"iter"
	"strings"
)

// Instruction is a single parsed line of a listing.
type Instruction struct {
	LineNo   int       // Source line number, 1 based. Zero for ad-hoc lines.
	Text     string    // Source text, without comments.
	Opcode   string    // Lower-case mnemonic.
	Operands []Operand // Operands, destination first.
}

func (inst Instruction) String() string {
	if len(inst.Operands) == 0 {
		return inst.Opcode
	}

	words := make([]string, len(inst.Operands))
	for n, op := range inst.Operands {
		words[n] = op.String()
	}

	return inst.Opcode + " " + strings.Join(words, ", ")
}

// Registers yields the register operands of the instruction, in order.
func (inst Instruction) Registers() iter.Seq[Register] {
	return func(yield func(Register) bool) {
		for _, op := range inst.Operands {
			if op.Kind != OPERAND_REG {
				continue
			}
			if !yield(op.Reg) {
				return
			}
		}
	}
}

// Program is an assembled listing.
type Program struct {
	Instructions []Instruction
}

// Len is the number of instructions in the program.
func (prog *Program) Len() int {
	return len(prog.Instructions)
}

// Line finds the instruction assembled from a source line.
func (prog *Program) Line(lineno int) (inst *Instruction, ok bool) {
	for n := range prog.Instructions {
		if prog.Instructions[n].LineNo == lineno {
			inst = &prog.Instructions[n]
			ok = true
			break
		}
	}

	return
}

// All yields every instruction with its index.
func (prog *Program) All() iter.Seq2[int, *Instruction] {
	return func(yield func(int, *Instruction) bool) {
		for n := range prog.Instructions {
			if !yield(n, &prog.Instructions[n]) {
				return
			}
		}
	}
}
