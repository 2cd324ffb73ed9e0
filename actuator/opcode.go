package actuator

import (
	"fmt"
	"math"
	"strings"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

// Choreographer is the data and animation function pair of an opcode.
// Operands are those of the instruction, destination first, with the
// destination repeated as the first source for target-read opcodes.
type Choreographer interface {
	// Check validates the operand kinds and widths.
	Check(ops []cpu.Operand) error
	// Apply performs the instruction. The caller holds the CPU lock.
	Apply(cp *cpu.Cpu, ops []cpu.Operand) error
	// Animate describes the moves of the instruction, reading the values
	// before Apply. The caller holds the CPU lock.
	Animate(placed []Placed, cp *cpu.Cpu, display *visual.Display) (visual.Sequence, error)
}

// Opcode is a supported instruction mnemonic.
type Opcode int

const (
	OPCODE_ADD          = Opcode(0)  // add
	OPCODE_SUB          = Opcode(1)  // sub
	OPCODE_CMP          = Opcode(2)  // cmp
	OPCODE_MOV          = Opcode(3)  // mov
	OPCODE_VADDPS       = Opcode(4)  // vaddps
	OPCODE_VADDPD       = Opcode(5)  // vaddpd
	OPCODE_VSUBPS       = Opcode(6)  // vsubps
	OPCODE_VSUBPD       = Opcode(7)  // vsubpd
	OPCODE_VMULPS       = Opcode(8)  // vmulps
	OPCODE_VMULPD       = Opcode(9)  // vmulpd
	OPCODE_VPADDD       = Opcode(10) // vpaddd
	OPCODE_VPADDQ       = Opcode(11) // vpaddq
	OPCODE_VPSUBD       = Opcode(12) // vpsubd
	OPCODE_VMOVAPS      = Opcode(13) // vmovaps
	OPCODE_VMOVAPD      = Opcode(14) // vmovapd
	OPCODE_VMOVDQA      = Opcode(15) // vmovdqa
	OPCODE_VBROADCASTSS = Opcode(16) // vbroadcastss
	OPCODE_VALIGND      = Opcode(17) // valignd
	OPCODE_VUNPCKLPS    = Opcode(18) // vunpcklps
	OPCODE_VUNPCKHPS    = Opcode(19) // vunpckhps
	OPCODE_VSHUFPS      = Opcode(20) // vshufps
	OPCODE_SHUFPD       = Opcode(21) // shufpd
	OPCODE_VPERM2F128   = Opcode(22) // vperm2f128
	OPCODE_VEXTRACTF128 = Opcode(23) // vextractf128
	opcodeCount         = 24
)

type opcodeInfo struct {
	name       string
	targetRead bool // The destination is also the first source.
	flagsOnly  bool // Only RFLAGS change; nothing to animate.
	chore      Choreographer
}

var opcodeTable = [opcodeCount]opcodeInfo{
	OPCODE_ADD:          {"add", true, false, &gprArith{symbol: "+"}},
	OPCODE_SUB:          {"sub", true, false, &gprArith{symbol: "-", sub: true}},
	OPCODE_CMP:          {"cmp", false, true, &gprArith{symbol: "-", sub: true, compare: true}},
	OPCODE_MOV:          {"mov", false, false, &gprMove{}},
	OPCODE_VADDPS:       {"vaddps", false, false, &lanewise[uint32]{symbol: "+", fn: floatOp32(func(a, b float32) float32 { return a + b })}},
	OPCODE_VADDPD:       {"vaddpd", false, false, &lanewise[uint64]{symbol: "+", fn: floatOp64(func(a, b float64) float64 { return a + b })}},
	OPCODE_VSUBPS:       {"vsubps", false, false, &lanewise[uint32]{symbol: "-", fn: floatOp32(func(a, b float32) float32 { return a - b })}},
	OPCODE_VSUBPD:       {"vsubpd", false, false, &lanewise[uint64]{symbol: "-", fn: floatOp64(func(a, b float64) float64 { return a - b })}},
	OPCODE_VMULPS:       {"vmulps", false, false, &lanewise[uint32]{symbol: "*", fn: floatOp32(func(a, b float32) float32 { return a * b })}},
	OPCODE_VMULPD:       {"vmulpd", false, false, &lanewise[uint64]{symbol: "*", fn: floatOp64(func(a, b float64) float64 { return a * b })}},
	OPCODE_VPADDD:       {"vpaddd", false, false, &lanewise[uint32]{symbol: "+", fn: func(a, b uint32) uint32 { return a + b }}},
	OPCODE_VPADDQ:       {"vpaddq", false, false, &lanewise[uint64]{symbol: "+", fn: func(a, b uint64) uint64 { return a + b }}},
	OPCODE_VPSUBD:       {"vpsubd", false, false, &lanewise[uint32]{symbol: "-", fn: func(a, b uint32) uint32 { return a - b }}},
	OPCODE_VMOVAPS:      {"vmovaps", false, false, &vectorMove{}},
	OPCODE_VMOVAPD:      {"vmovapd", false, false, &vectorMove{}},
	OPCODE_VMOVDQA:      {"vmovdqa", false, false, &vectorMove{}},
	OPCODE_VBROADCASTSS: {"vbroadcastss", false, false, broadcastss},
	OPCODE_VALIGND:      {"valignd", false, false, valignd},
	OPCODE_VUNPCKLPS:    {"vunpcklps", false, false, vunpcklps},
	OPCODE_VUNPCKHPS:    {"vunpckhps", false, false, vunpckhps},
	OPCODE_VSHUFPS:      {"vshufps", false, false, vshufps},
	OPCODE_SHUFPD:       {"shufpd", true, false, shufpd},
	OPCODE_VPERM2F128:   {"vperm2f128", false, false, vperm2f128},
	OPCODE_VEXTRACTF128: {"vextractf128", false, false, vextractf128},
}

func (op Opcode) valid() bool {
	return op >= 0 && op < opcodeCount
}

func (op Opcode) String() string {
	if !op.valid() {
		return fmt.Sprintf("Opcode(%d)", int(op))
	}
	return opcodeTable[op].name
}

// TargetRead is true when the destination is also the first source.
func (op Opcode) TargetRead() bool {
	return opcodeTable[op].targetRead
}

// FlagsOnly is true for opcodes that only change RFLAGS.
func (op Opcode) FlagsOnly() bool {
	return opcodeTable[op].flagsOnly
}

// Choreographer is the data and animation functions of the opcode.
func (op Opcode) Choreographer() Choreographer {
	return opcodeTable[op].chore
}

// Operands expands the written operands of an instruction into those the
// choreographer expects.
func (op Opcode) Operands(written []cpu.Operand) (ops []cpu.Operand) {
	if op.TargetRead() && len(written) > 0 {
		ops = append(ops, written[0])
	}
	ops = append(ops, written...)
	return
}

// ParseOpcode looks up a mnemonic, case-insensitively.
func ParseOpcode(name string) (op Opcode, err error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for n := range opcodeTable {
		if opcodeTable[n].name == name {
			op = Opcode(n)
			return
		}
	}

	err = ErrOpcode(name)
	return
}

// Opcodes lists every supported opcode.
func Opcodes() (ops []Opcode) {
	for n := range opcodeCount {
		ops = append(ops, Opcode(n))
	}
	return
}

func floatOp32(fn func(a, b float32) float32) func(a, b uint32) uint32 {
	return func(a, b uint32) uint32 {
		return math.Float32bits(fn(math.Float32frombits(a), math.Float32frombits(b)))
	}
}

func floatOp64(fn func(a, b float64) float64) func(a, b uint64) uint64 {
	return func(a, b uint64) uint64 {
		return math.Float64bits(fn(math.Float64frombits(a), math.Float64frombits(b)))
	}
}
