package cpu

import (
	"fmt"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// OperandKind discriminates Operand.
type OperandKind int

const (
	OPERAND_NONE = OperandKind(0) // none
	OPERAND_REG  = OperandKind(1) // reg
	OPERAND_MEM  = OperandKind(2) // mem
	OPERAND_IMM  = OperandKind(3) // imm
)

func (kind OperandKind) String() string {
	switch kind {
	case OPERAND_REG:
		return "reg"
	case OPERAND_MEM:
		return "mem"
	case OPERAND_IMM:
		return "imm"
	}
	return "none"
}

// Operand is a single parsed instruction operand.
type Operand struct {
	Kind OperandKind
	Reg  Register // OPERAND_REG
	Mem  string   // OPERAND_MEM: address expression, without brackets
	Imm  uint64   // OPERAND_IMM
}

// RegOperand makes a register operand.
func RegOperand(reg Register) Operand {
	return Operand{Kind: OPERAND_REG, Reg: reg}
}

// MemOperand makes a memory operand from an address expression.
func MemOperand(expr string) Operand {
	return Operand{Kind: OPERAND_MEM, Mem: expr}
}

// ImmOperand makes an immediate operand.
func ImmOperand(value uint64) Operand {
	return Operand{Kind: OPERAND_IMM, Imm: value}
}

// IsReg is true for register operands.
func (op Operand) IsReg() bool {
	return op.Kind == OPERAND_REG
}

// IsMem is true for memory operands.
func (op Operand) IsMem() bool {
	return op.Kind == OPERAND_MEM
}

// IsImm is true for immediate operands.
func (op Operand) IsImm() bool {
	return op.Kind == OPERAND_IMM
}

func (op Operand) String() string {
	switch op.Kind {
	case OPERAND_REG:
		return op.Reg.String()
	case OPERAND_MEM:
		return "[" + op.Mem + "]"
	case OPERAND_IMM:
		return fmt.Sprintf("%#x", op.Imm)
	}
	return "-"
}

// Address evaluates a memory operand's address expression. General purpose
// register names in the expression take their current values, so the caller
// must hold the CPU lock.
func (op Operand) Address(cpu *Cpu) (addr uint64, err error) {
	if op.Kind != OPERAND_MEM {
		err = ErrOperandKind
		return
	}

	expr := strings.TrimSpace(op.Mem)
	addr, err = strconv.ParseUint(expr, 0, 64)
	if err == nil {
		return
	}

	pred := starlark.StringDict{}
	for name := range gprNameCount {
		pred[name.String()] = starlark.MakeUint64(cpu.GetGprValue(name))
	}

	thread := starlark.Thread{Name: "address"}
	opts := syntax.FileOptions{}
	dict, err := starlark.ExecFileOptions(&opts, &thread, "address", "rc="+expr+"\n", pred)
	if err != nil {
		err = ErrAddress(op.Mem)
		return
	}

	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrAddress(op.Mem)
		return
	}

	if st_int.Sign() < 0 {
		err = ErrAddressNegative
		return
	}

	addr, ok = st_int.Uint64()
	if !ok {
		err = ErrAddress(op.Mem)
		return
	}

	return
}
