package cpu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	GPR_COUNT    = 16 // rax..r15
	VECTOR_COUNT = 16 // xmm0..xmm15 (and their ymm/zmm views)
	VECTOR_BYTES = 64 // Storage of a single zmm register.
)

// GPRName is a general-purpose register view.
type GPRName int

const (
	RAX = GPRName(iota)
	RBX
	RCX
	RDX
	RSI
	RDI
	RBP
	RSP
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	EAX
	EBX
	ECX
	EDX
	ESI
	EDI
	EBP
	ESP
	R8D
	R9D
	R10D
	R11D
	R12D
	R13D
	R14D
	R15D
	AX
	BX
	CX
	DX
	SI
	DI
	BP
	SP
	R8W
	R9W
	R10W
	R11W
	R12W
	R13W
	R14W
	R15W
	AH
	BH
	CH
	DH
	AL
	BL
	CL
	DL
	SIL
	DIL
	BPL
	SPL
	R8B
	R9B
	R10B
	R11B
	R12B
	R13B
	R14B
	R15B
	gprNameCount
)

// gprView describes how a GPRName maps onto the 64-bit register bank.
type gprView struct {
	name  string
	base  int  // Index into Cpu.Gpr
	width int  // View width in bits
	high  bool // Bits 15:8 of the base register
}

var gprViews [gprNameCount]gprView

var gprByName = map[string]GPRName{}

func init() {
	names64 := []string{"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rbp", "rsp"}
	names32 := []string{"eax", "ebx", "ecx", "edx", "esi", "edi", "ebp", "esp"}
	names16 := []string{"ax", "bx", "cx", "dx", "si", "di", "bp", "sp"}
	names8 := []string{"al", "bl", "cl", "dl", "sil", "dil", "bpl", "spl"}

	set := func(name GPRName, view gprView) {
		gprViews[name] = view
		gprByName[view.name] = name
	}

	for n := range 16 {
		var r64, r32, r16, r8 string
		if n < 8 {
			r64, r32, r16, r8 = names64[n], names32[n], names16[n], names8[n]
		} else {
			r64 = fmt.Sprintf("r%d", n)
			r32, r16, r8 = r64+"d", r64+"w", r64+"b"
		}
		set(RAX+GPRName(n), gprView{name: r64, base: n, width: 64})
		set(EAX+GPRName(n), gprView{name: r32, base: n, width: 32})
		set(AX+GPRName(n), gprView{name: r16, base: n, width: 16})
		if n < 4 {
			set(AL+GPRName(n), gprView{name: r8, base: n, width: 8})
		} else {
			// SIL..R15B follow AL..DL in declaration order.
			set(SIL+GPRName(n-4), gprView{name: r8, base: n, width: 8})
		}
	}

	for n, name := range []string{"ah", "bh", "ch", "dh"} {
		set(AH+GPRName(n), gprView{name: name, base: n, width: 8, high: true})
	}
}

func (name GPRName) String() string {
	if name < 0 || name >= gprNameCount {
		return fmt.Sprintf("GPRName(%d)", int(name))
	}
	return gprViews[name].name
}

// Bits is the width of the register view.
func (name GPRName) Bits() int {
	return gprViews[name].width
}

// VecRegName is the view width of a vector register.
type VecRegName int

const (
	XMM = VecRegName(0) // xmm
	YMM = VecRegName(1) // ymm
	ZMM = VecRegName(2) // zmm
)

func (kind VecRegName) String() string {
	switch kind {
	case XMM:
		return "xmm"
	case YMM:
		return "ymm"
	case ZMM:
		return "zmm"
	}
	return fmt.Sprintf("VecRegName(%d)", int(kind))
}

// Bits is the width of the vector view.
func (kind VecRegName) Bits() int {
	return 128 << int(kind)
}

// Bytes is the width of the vector view in bytes.
func (kind VecRegName) Bytes() int {
	return kind.Bits() / 8
}

// RegType discriminates Register.
type RegType int

const (
	REG_TYPE_NONE   = RegType(0)
	REG_TYPE_GPR    = RegType(1)
	REG_TYPE_VECTOR = RegType(2)
)

// Register identifies a general-purpose register view or a vector register.
// It is comparable and used as a map key.
type Register struct {
	Type  RegType
	Gpr   GPRName    // Valid for REG_TYPE_GPR
	Vec   VecRegName // Valid for REG_TYPE_VECTOR
	Index int        // Valid for REG_TYPE_VECTOR
}

// MakeGpr creates a general-purpose register reference.
func MakeGpr(name GPRName) Register {
	return Register{Type: REG_TYPE_GPR, Gpr: name}
}

// MakeVec creates a vector register reference.
func MakeVec(kind VecRegName, index int) Register {
	return Register{Type: REG_TYPE_VECTOR, Vec: kind, Index: index}
}

// IsGpr is true for general-purpose registers.
func (reg Register) IsGpr() bool {
	return reg.Type == REG_TYPE_GPR
}

// IsVector is true for vector registers.
func (reg Register) IsVector() bool {
	return reg.Type == REG_TYPE_VECTOR
}

// Bits is the width of the register.
func (reg Register) Bits() (bits int) {
	switch reg.Type {
	case REG_TYPE_GPR:
		bits = reg.Gpr.Bits()
	case REG_TYPE_VECTOR:
		bits = reg.Vec.Bits()
	}
	return
}

// SameKind is true when both registers are of the same type and width class.
func (reg Register) SameKind(other Register) bool {
	if reg.Type != other.Type {
		return false
	}
	if reg.Type == REG_TYPE_VECTOR {
		return reg.Vec == other.Vec
	}
	return true
}

func (reg Register) String() string {
	switch reg.Type {
	case REG_TYPE_GPR:
		return reg.Gpr.String()
	case REG_TYPE_VECTOR:
		return fmt.Sprintf("%v%d", reg.Vec, reg.Index)
	}
	return "-"
}

// Name is the upper-case display name, i.e. "YMM3" or "RAX".
func (reg Register) Name() string {
	return strings.ToUpper(reg.String())
}

var vecRegexp = regexp.MustCompile(`^(xmm|ymm|zmm)([0-9]+)$`)

// ParseRegister parses a register name, case-insensitively.
func ParseRegister(word string) (reg Register, err error) {
	word = strings.ToLower(strings.TrimSpace(word))

	if name, ok := gprByName[word]; ok {
		reg = MakeGpr(name)
		return
	}

	match := vecRegexp.FindStringSubmatch(word)
	if match == nil {
		err = ErrParseRegister(word)
		return
	}

	index, err := strconv.Atoi(match[2])
	if err != nil || index >= VECTOR_COUNT {
		err = ErrParseRegister(word)
		return
	}

	var kind VecRegName
	switch match[1] {
	case "xmm":
		kind = XMM
	case "ymm":
		kind = YMM
	case "zmm":
		kind = ZMM
	}

	reg = MakeVec(kind, index)
	return
}

// FlagName is a bit of RFLAGS.
type FlagName int

const (
	FLAG_CF = FlagName(0)  // cf
	FLAG_PF = FlagName(2)  // pf
	FLAG_AF = FlagName(4)  // af
	FLAG_ZF = FlagName(6)  // zf
	FLAG_SF = FlagName(7)  // sf
	FLAG_TF = FlagName(8)  // tf
	FLAG_IF = FlagName(9)  // if
	FLAG_DF = FlagName(10) // df
	FLAG_OF = FlagName(11) // of
)

var flagNames = map[FlagName]string{
	FLAG_CF: "cf",
	FLAG_PF: "pf",
	FLAG_AF: "af",
	FLAG_ZF: "zf",
	FLAG_SF: "sf",
	FLAG_TF: "tf",
	FLAG_IF: "if",
	FLAG_DF: "df",
	FLAG_OF: "of",
}

func (flag FlagName) String() string {
	name, ok := flagNames[flag]
	if !ok {
		return fmt.Sprintf("FlagName(%d)", int(flag))
	}
	return name
}
