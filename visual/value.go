package visual

import (
	"encoding/binary"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/holiman/uint256"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
)

// ValueType is the lane type a register or memory row is shown as.
type ValueType int

const (
	VALUE_U8   = ValueType(0) // u8
	VALUE_U16  = ValueType(1) // u16
	VALUE_U32  = ValueType(2) // u32
	VALUE_U64  = ValueType(3) // u64
	VALUE_U128 = ValueType(4) // u128
	VALUE_U256 = ValueType(5) // u256
	VALUE_U512 = ValueType(6) // u512
	VALUE_F32  = ValueType(7) // f32
	VALUE_F64  = ValueType(8) // f64
)

var valueTypeInfo = []struct {
	name  string
	bits  int
	width float32
}{
	VALUE_U8:   {"u8", 8, 15},
	VALUE_U16:  {"u16", 16, 30},
	VALUE_U32:  {"u32", 32, 60},
	VALUE_U64:  {"u64", 64, 120},
	VALUE_U128: {"u128", 128, 240},
	VALUE_U256: {"u256", 256, 480},
	VALUE_U512: {"u512", 512, 920},
	VALUE_F32:  {"f32", 32, 60},
	VALUE_F64:  {"f64", 64, 120},
}

// ELEMENT_HEIGHT is the height of every element box.
const ELEMENT_HEIGHT = 25

func (vt ValueType) valid() bool {
	return vt >= VALUE_U8 && vt <= VALUE_F64
}

func (vt ValueType) String() string {
	if !vt.valid() {
		return "ValueType(" + strconv.Itoa(int(vt)) + ")"
	}
	return valueTypeInfo[vt].name
}

// Bits is the lane width in bits.
func (vt ValueType) Bits() int {
	return valueTypeInfo[vt].bits
}

// Bytes is the lane width in bytes.
func (vt ValueType) Bytes() int {
	return vt.Bits() / 8
}

// IsFloat is true for the floating point lane types.
func (vt ValueType) IsFloat() bool {
	return vt == VALUE_F32 || vt == VALUE_F64
}

// Size is the on-screen footprint of a lane of this type.
func (vt ValueType) Size() Vec2 {
	return Vec2{X: valueTypeInfo[vt].width, Y: ELEMENT_HEIGHT}
}

// ParseValueType parses a lane type name such as "u32" or "f64".
func ParseValueType(name string) (vt ValueType, err error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for n, info := range valueTypeInfo {
		if info.name == name {
			vt = ValueType(n)
			return
		}
	}

	err = ErrValueType
	return
}

// MarshalText implements encoding.TextMarshaler.
func (vt ValueType) MarshalText() ([]byte, error) {
	if !vt.valid() {
		return nil, ErrValueType
	}
	return []byte(vt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (vt *ValueType) UnmarshalText(text []byte) (err error) {
	*vt, err = ParseValueType(string(text))
	return
}

// Value is a snapshot of a single lane. Lanes up to 256 bits live in Lo;
// a 512-bit lane keeps its upper half in Hi.
type Value struct {
	Type ValueType
	Lo   uint256.Int
	Hi   uint256.Int
}

// U64 makes an integer value of type vt from the low bits of word.
func U64(vt ValueType, word uint64) (value Value) {
	value.Type = vt
	if vt.Bits() < 64 {
		word &= (uint64(1) << vt.Bits()) - 1
	}
	value.Lo[0] = word
	return
}

// F32 makes a single precision float value.
func F32(x float32) Value {
	return U64(VALUE_F32, uint64(math.Float32bits(x)))
}

// F64 makes a double precision float value.
func F64(x float64) Value {
	return U64(VALUE_F64, math.Float64bits(x))
}

// Wide makes a 128-bit or 256-bit value.
func Wide(vt ValueType, lo *uint256.Int) (value Value) {
	value.Type = vt
	value.Lo.Set(lo)
	if vt == VALUE_U128 {
		value.Lo[2], value.Lo[3] = 0, 0
	}
	return
}

// Uint64 is the low 64 bits of the value.
func (value Value) Uint64() uint64 {
	return value.Lo[0]
}

// Float64 is the value of a float lane, or the low 64 bits of an integer lane.
func (value Value) Float64() float64 {
	switch value.Type {
	case VALUE_F32:
		return float64(math.Float32frombits(uint32(value.Lo[0])))
	case VALUE_F64:
		return math.Float64frombits(value.Lo[0])
	}
	return float64(value.Lo[0])
}

// String renders the lane in decimal.
func (value Value) String() string {
	switch value.Type {
	case VALUE_U8, VALUE_U16, VALUE_U32, VALUE_U64:
		return strconv.FormatUint(value.Lo[0], 10)
	case VALUE_U128, VALUE_U256:
		return value.Lo.Dec()
	case VALUE_U512:
		wide := new(big.Int).Lsh(value.Hi.ToBig(), 256)
		return wide.Add(wide, value.Lo.ToBig()).String()
	case VALUE_F32:
		return strconv.FormatFloat(value.Float64(), 'g', -1, 32)
	case VALUE_F64:
		return strconv.FormatFloat(value.Float64(), 'g', -1, 64)
	}
	return "?"
}

// Size is the on-screen footprint of the value.
func (value Value) Size() Vec2 {
	return value.Type.Size()
}

// ValuesFromBytes splits little endian data into lanes of type vt.
// Trailing bytes that do not fill a lane are ignored.
func ValuesFromBytes(data []uint8, vt ValueType) (values []Value) {
	width := vt.Bytes()
	values = make([]Value, len(data)/width)
	for n := range values {
		var lane [64]uint8
		copy(lane[:], data[n*width:(n+1)*width])

		value := Value{Type: vt}
		for limb := range 4 {
			value.Lo[limb] = binary.LittleEndian.Uint64(lane[limb*8:])
			value.Hi[limb] = binary.LittleEndian.Uint64(lane[32+limb*8:])
		}
		values[n] = value
	}

	return
}

// ValuesFromRegister reads a register as lanes of type vt.
// The caller must hold the CPU lock.
func ValuesFromRegister(cp *cpu.Cpu, reg cpu.Register, vt ValueType) (values []Value, err error) {
	if !vt.valid() {
		err = ErrValueType
		return
	}
	if vt.Bits() > reg.Bits() {
		err = ErrValueWidth
		return
	}

	var data []uint8
	switch reg.Type {
	case cpu.REG_TYPE_GPR:
		data = binary.LittleEndian.AppendUint64(nil, cp.GetGprValue(reg.Gpr))
		data = data[:reg.Bits()/8]
	case cpu.REG_TYPE_VECTOR:
		data, err = cp.VectorBytes(reg.Vec, reg.Index)
		if err != nil {
			return
		}
	default:
		err = cpu.ErrRegisterKind
		return
	}

	values = ValuesFromBytes(data, vt)
	return
}

// ValuesFromMemory reads count lanes of type vt starting at addr.
func ValuesFromMemory(mem *cpu.Memory, addr uint64, vt ValueType, count int) []Value {
	return ValuesFromBytes(mem.ReadBytes(addr, count*vt.Bytes()), vt)
}
