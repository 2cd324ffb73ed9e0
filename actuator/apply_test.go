package actuator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
)

func setLanes(t *testing.T, cp *cpu.Cpu, reg cpu.Register, values ...uint32) {
	require.NoError(t, cpu.SetBySections(cp, reg.Vec, reg.Index, values))
}

func lanes(t *testing.T, cp *cpu.Cpu, reg cpu.Register) []uint32 {
	values, err := cpu.GetBySections[uint32](cp, reg.Vec, reg.Index)
	require.NoError(t, err)
	return values
}

func floats(values ...float32) (bits []uint32) {
	for _, v := range values {
		bits = append(bits, math.Float32bits(v))
	}
	return
}

// newApplyCpu has ymm0 = [1..8], ymm1 = [10..80] and rsi at the data segment.
func newApplyCpu(t *testing.T) *cpu.Cpu {
	cp := cpu.NewCpu()
	setLanes(t, cp, ymm0, 1, 2, 3, 4, 5, 6, 7, 8)
	setLanes(t, cp, ymm1, 10, 20, 30, 40, 50, 60, 70, 80)
	cp.SetGprValue(cpu.RSI, cpu.MEMORY_BASE)
	return cp
}

func TestApplyVector(t *testing.T) {
	table := []struct {
		text string
		reg  cpu.Register
		want []uint32
	}{
		{"vpaddd ymm2, ymm0, ymm1", ymm2, []uint32{11, 22, 33, 44, 55, 66, 77, 88}},
		{"vpsubd ymm2, ymm1, ymm0", ymm2, []uint32{9, 18, 27, 36, 45, 54, 63, 72}},
		{"vshufps ymm2, ymm0, ymm1, 0x1b", ymm2, []uint32{4, 3, 20, 10, 8, 7, 60, 50}},
		{"vshufps ymm2, ymm0, ymm1, 0", ymm2, []uint32{1, 1, 10, 10, 5, 5, 50, 50}},
		{"vunpcklps ymm2, ymm0, ymm1", ymm2, []uint32{1, 10, 2, 20, 5, 50, 6, 60}},
		{"vunpckhps ymm2, ymm0, ymm1", ymm2, []uint32{3, 30, 4, 40, 7, 70, 8, 80}},
		{"vunpcklps xmm2, xmm0, xmm1", ymm2, []uint32{1, 10, 2, 20, 0, 0, 0, 0}},
		{"valignd ymm2, ymm0, ymm1, 3", ymm2, []uint32{40, 50, 60, 70, 80, 1, 2, 3}},
		{"valignd ymm2, ymm0, ymm1, 11", ymm2, []uint32{40, 50, 60, 70, 80, 1, 2, 3}},
		{"vperm2f128 ymm2, ymm0, ymm1, 0x21", ymm2, []uint32{5, 6, 7, 8, 10, 20, 30, 40}},
		{"vperm2f128 ymm2, ymm0, ymm1, 0x83", ymm2, []uint32{50, 60, 70, 80, 0, 0, 0, 0}},
		{"vextractf128 xmm2, ymm0, 1", ymm2, []uint32{5, 6, 7, 8, 0, 0, 0, 0}},
		{"vbroadcastss ymm2, xmm1", ymm2, []uint32{10, 10, 10, 10, 10, 10, 10, 10}},
		{"vmovaps ymm2, ymm1", ymm2, []uint32{10, 20, 30, 40, 50, 60, 70, 80}},
		{"vmovdqa xmm2, xmm0", ymm2, []uint32{1, 2, 3, 4, 0, 0, 0, 0}},
		// Legacy SSE keeps the upper half of ymm0.
		{"shufpd xmm0, xmm1, 1", ymm0, []uint32{3, 4, 10, 20, 5, 6, 7, 8}},
	}

	for _, entry := range table {
		t.Run(entry.text, func(t *testing.T) {
			assert := assert.New(t)

			cp := newApplyCpu(t)
			setLanes(t, cp, ymm2, 9, 9, 9, 9, 9, 9, 9, 9)

			assert.NoError(Apply(cp, parse(t, entry.text)))
			assert.Equal(entry.want, lanes(t, cp, entry.reg))
		})
	}
}

func TestApplyFloat(t *testing.T) {
	assert := assert.New(t)

	cp := cpu.NewCpu()
	setLanes(t, cp, ymm0, floats(1.5, 2, 3, 4, 0, 0, 0, 0)...)
	setLanes(t, cp, ymm1, floats(0.5, 1, 1, 1, 0, 0, 0, 0)...)

	assert.NoError(Apply(cp, parse(t, "vaddps xmm2, xmm0, xmm1")))
	assert.Equal(floats(2, 3, 4, 5, 0, 0, 0, 0), lanes(t, cp, ymm2))

	assert.NoError(Apply(cp, parse(t, "vmulps xmm2, xmm0, xmm1")))
	assert.Equal(floats(0.75, 2, 3, 4, 0, 0, 0, 0), lanes(t, cp, ymm2))

	require.NoError(t, cpu.SetBySections(cp, cpu.XMM, 3, []uint64{math.Float64bits(2.5), math.Float64bits(-1)}))
	assert.NoError(Apply(cp, parse(t, "vsubpd xmm2, xmm3, xmm3")))
	assert.NoError(Apply(cp, parse(t, "vmulpd xmm3, xmm3, xmm3")))
	pd, err := cpu.GetBySections[uint64](cp, cpu.XMM, 3)
	assert.NoError(err)
	assert.Equal([]uint64{math.Float64bits(6.25), math.Float64bits(1)}, pd)
}

func TestApplyMemory(t *testing.T) {
	assert := assert.New(t)

	cp := newApplyCpu(t)
	cpu.WriteVec(cp.Memory, cpu.MEMORY_BASE, []uint32{100, 200, 300, 400, 500, 600, 700, 800})

	assert.NoError(Apply(cp, parse(t, "vpaddd ymm2, ymm0, [rsi]")))
	assert.Equal([]uint32{101, 202, 303, 404, 505, 606, 707, 808}, lanes(t, cp, ymm2))

	assert.NoError(Apply(cp, parse(t, "vbroadcastss ymm2, [rsi + 4]")))
	assert.Equal([]uint32{200, 200, 200, 200, 200, 200, 200, 200}, lanes(t, cp, ymm2))

	assert.NoError(Apply(cp, parse(t, "vmovaps [rsi + 32], ymm1")))
	assert.Equal([]uint32{10, 20, 30, 40, 50, 60, 70, 80}, cpu.ReadVec[uint32](cp.Memory, cpu.MEMORY_BASE+32, 8))

	assert.NoError(Apply(cp, parse(t, "vmovapd ymm3, [0x40000020]")))
	assert.Equal([]uint32{10, 20, 30, 40, 50, 60, 70, 80}, lanes(t, cp, ymm3))

	// A bad address leaves the destination alone.
	err := Apply(cp, parse(t, "vmovaps ymm3, [rax - 8]"))
	assert.ErrorIs(err, cpu.ErrAddressNegative)
	assert.Equal([]uint32{10, 20, 30, 40, 50, 60, 70, 80}, lanes(t, cp, ymm3))
}

func TestApplyGpr(t *testing.T) {
	assert := assert.New(t)

	cp := cpu.NewCpu()

	assert.NoError(Apply(cp, parse(t, "mov rax, 5")))
	assert.NoError(Apply(cp, parse(t, "mov rbx, rax")))
	assert.NoError(Apply(cp, parse(t, "add rax, rbx")))
	assert.Equal(uint64(10), cp.GetGprValue(cpu.RAX))
	assert.Equal(uint64(0), cp.GetFlagsValue(cpu.FLAG_ZF))

	assert.NoError(Apply(cp, parse(t, "sub rax, 10")))
	assert.Equal(uint64(0), cp.GetGprValue(cpu.RAX))
	assert.Equal(uint64(1), cp.GetFlagsValue(cpu.FLAG_ZF))
	assert.Equal(uint64(0), cp.GetFlagsValue(cpu.FLAG_CF))

	// Compare sets the flags only.
	assert.NoError(Apply(cp, parse(t, "cmp rax, rbx")))
	assert.Equal(uint64(0), cp.GetGprValue(cpu.RAX))
	assert.Equal(uint64(1), cp.GetFlagsValue(cpu.FLAG_CF))
	assert.Equal(uint64(1), cp.GetFlagsValue(cpu.FLAG_SF))
	assert.Equal(uint64(0), cp.GetFlagsValue(cpu.FLAG_ZF))

	// 32-bit results zero extend, and carry out.
	assert.NoError(Apply(cp, parse(t, "mov rcx, -1")))
	assert.NoError(Apply(cp, parse(t, "add ecx, 1")))
	assert.Equal(uint64(0), cp.GetGprValue(cpu.RCX))
	assert.Equal(uint64(1), cp.GetFlagsValue(cpu.FLAG_CF))
	assert.Equal(uint64(1), cp.GetFlagsValue(cpu.FLAG_ZF))

	// Signed overflow.
	assert.NoError(Apply(cp, parse(t, "mov al, 0x7f")))
	assert.NoError(Apply(cp, parse(t, "add al, 1")))
	assert.Equal(uint64(0x80), cp.GetGprValue(cpu.AL))
	assert.Equal(uint64(1), cp.GetFlagsValue(cpu.FLAG_OF))

	assert.NoError(Apply(cp, parse(t, "mov [0x40000000], ebx")))
	assert.NoError(Apply(cp, parse(t, "mov edx, [0x40000000]")))
	assert.Equal(uint64(5), cp.GetGprValue(cpu.RDX))
}

func TestApplyErrors(t *testing.T) {
	table := []struct {
		text string
		err  error
	}{
		{"vfoo ymm0, ymm1", ErrUnsupported},
		{"vpaddd", ErrNoOperands},
		{"vpaddd ymm0, xmm1, ymm2", ErrShapeMismatch},
		{"vpaddd ymm0, ymm1", ErrShapeMismatch},
		{"vpaddd rax, rbx, rcx", ErrShapeMismatch},
		{"vperm2f128 xmm0, xmm1, xmm2, 1", ErrShapeMismatch},
		{"vperm2f128 ymm0, ymm1, [rsi], 1", ErrShapeMismatch},
		{"vextractf128 ymm0, ymm1, 1", ErrShapeMismatch},
		{"vshufps ymm0, ymm1, ymm2, ymm3", ErrShapeMismatch},
		{"shufpd ymm0, ymm1, 1", ErrShapeMismatch},
		{"vbroadcastss ymm0, ymm1", ErrShapeMismatch},
		{"add rax, ebx", ErrShapeMismatch},
		{"add 5, rax", ErrShapeMismatch},
		{"mov [rsi], 5", ErrShapeMismatch},
		{"vmovaps ymm0, xmm1", ErrShapeMismatch},
	}

	for _, entry := range table {
		t.Run(entry.text, func(t *testing.T) {
			assert := assert.New(t)

			cp := newApplyCpu(t)
			before := cp.Vector

			err := Apply(cp, parse(t, entry.text))
			assert.ErrorIs(err, entry.err)
			assert.Equal(before, cp.Vector)
		})
	}

	var opErr ErrOpcode
	err := Apply(cpu.NewCpu(), parse(t, "VFOO xmm0"))
	assert.True(t, errors.As(err, &opErr))
	assert.Equal(t, ErrOpcode("vfoo"), opErr)
}

func TestOpcode(t *testing.T) {
	assert := assert.New(t)

	for _, op := range Opcodes() {
		parsed, err := ParseOpcode(op.String())
		assert.NoError(err)
		assert.Equal(op, parsed)
		assert.NotNil(op.Choreographer(), op)
	}

	assert.True(OPCODE_CMP.FlagsOnly())
	assert.True(OPCODE_SHUFPD.TargetRead())
	assert.False(OPCODE_VSHUFPS.TargetRead())
	assert.Equal("Opcode(99)", Opcode(99).String())
}
