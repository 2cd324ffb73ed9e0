package emulator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akiko97/simd-asm-code-visualization/actuator"
	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/fsm"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

var fastSpeed = visual.Speed{Factor: 0, Min: 5000, Max: 5000}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.True(emu.Animate)
	assert.NotNil(emu.Cpu.Memory)
	assert.True(emu.Done())
	assert.False(emu.Busy())
	assert.Equal(0, emu.LineNo())
}

func newEmulator(t *testing.T, animate bool, regs ...cpu.Register) (emu *Emulator) {
	emu = NewEmulator()
	emu.Animate = animate
	emu.Speed = fastSpeed
	for _, reg := range regs {
		emu.Display.Add(reg, visual.DefaultType(reg))
	}
	return
}

func doRunSingle(emu *Emulator, program []string, t *testing.T) {
	assert := assert.New(t)

	err := emu.Assemble(strings.NewReader(strings.Join(program, "\n")))
	require.NoError(t, err)

	for _, inst := range emu.Program.Instructions {
		assert.Equal(inst.LineNo, emu.LineNo())
		here := program[inst.LineNo-1]

		done, err := emu.Step()
		assert.NoError(err, here)
		assert.False(done, here)
		assert.Equal(inst.LineNo, emu.LineNo(), here)

		err = emu.Settle(FRAME_DT)
		if err != nil {
			t.Log(emu.Cpu.String())
			t.Fatalf("%v: %v", here, err)
		}
	}

	done, err := emu.Step()
	assert.NoError(err)
	assert.True(done)
}

func TestEmulatorGpr(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		".equ COUNT 10",
		"mov rax, COUNT",
		"mov rbx, $(COUNT * 2)",
		"add rax, rbx   ; 30",
		"sub rbx, 5",
		"cmp rax, rbx",
		"mov [$(MEMORY_BASE)], rax",
		"mov ecx, [$(MEMORY_BASE)]",
	}

	for _, animate := range []bool{false, true} {
		emu := newEmulator(t, animate, cpu.MakeGpr(cpu.RAX), cpu.MakeGpr(cpu.RBX))
		doRunSingle(emu, program, t)

		assert.Equal(uint64(30), emu.Cpu.GetGprValue(cpu.RAX))
		assert.Equal(uint64(15), emu.Cpu.GetGprValue(cpu.RBX))
		assert.Equal(uint64(30), emu.Cpu.GetGprValue(cpu.RCX))
		assert.Equal(uint64(0), emu.Cpu.GetFlagsValue(cpu.FLAG_ZF))
		assert.False(emu.Visual.IsHighlighted(cpu.MakeGpr(cpu.RAX)))
	}
}

func TestEmulatorPrefixSum(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"mov rsi, MEMORY_BASE",
		"vmovdqa zmm0, [rsi]",
		"valignd zmm1, zmm0, zmm2, 15",
		"vpaddd zmm0, zmm0, zmm1",
		"valignd zmm1, zmm0, zmm2, 14",
		"vpaddd zmm0, zmm0, zmm1",
		"valignd zmm1, zmm0, zmm2, 12",
		"vpaddd zmm0, zmm0, zmm1",
		"valignd zmm1, zmm0, zmm2, 8",
		"vpaddd zmm0, zmm0, zmm1",
		"vmovdqa [rsi + 64], zmm0",
	}

	input := make([]uint32, 16)
	want := make([]uint32, 16)
	sum := uint32(0)
	for n := range input {
		input[n] = uint32(n + 1)
		sum += input[n]
		want[n] = sum
	}

	zmm := []cpu.Register{cpu.MakeVec(cpu.ZMM, 0), cpu.MakeVec(cpu.ZMM, 1), cpu.MakeVec(cpu.ZMM, 2)}

	var vectors [][cpu.VECTOR_COUNT][cpu.VECTOR_BYTES]uint8
	for _, animate := range []bool{false, true} {
		emu := newEmulator(t, animate, zmm...)
		cpu.WriteVec(emu.Cpu.Memory, cpu.MEMORY_BASE, input)

		doRunSingle(emu, program, t)

		assert.Equal(want, cpu.ReadVec[uint32](emu.Cpu.Memory, cpu.MEMORY_BASE+64, 16))
		vectors = append(vectors, emu.Cpu.Vector)
	}

	assert.Equal(vectors[0], vectors[1])
}

func TestEmulatorRun(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, true, cpu.MakeVec(cpu.YMM, 0), cpu.MakeVec(cpu.YMM, 1))
	cpu.WriteVec(emu.Cpu.Memory, cpu.MEMORY_BASE, []uint32{1, 2, 3, 4, 5, 6, 7, 8})

	err := emu.Assemble(strings.NewReader(strings.Join([]string{
		"vmovaps ymm0, [$(MEMORY_BASE)]",
		"vbroadcastss ymm1, xmm0",
		"vpaddd ymm1, ymm1, ymm1",
	}, "\n")))
	require.NoError(t, err)

	err = emu.Run(FRAME_DT)
	assert.NoError(err)
	assert.True(emu.Done())
	assert.False(emu.Busy())

	got, err := cpu.GetBySections[uint32](emu.Cpu, cpu.YMM, 1)
	assert.NoError(err)
	assert.Equal([]uint32{2, 2, 2, 2, 2, 2, 2, 2}, got)
	// xmm0 is not displayed, so the broadcast is not animated.
	assert.Equal(2+3, emu.Visual.GroupsExecuted())
	assert.Empty(emu.Visual.AnimatedRegisters())
}

func TestEmulatorErrors(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, true, cpu.MakeVec(cpu.YMM, 0))

	err := emu.Assemble(strings.NewReader(strings.Join([]string{
		"vfoo ymm0, ymm0",
		"vmovaps ymm0, [rax - 8]",
		"vmovaps ymm0, ymm1",
	}, "\n")))
	require.NoError(t, err)

	// Unsupported opcodes are skipped.
	_, err = emu.Step()
	var runErr *ErrRuntime
	assert.ErrorAs(err, &runErr)
	assert.Equal(1, runErr.LineNo)
	assert.ErrorIs(err, actuator.ErrUnsupported)
	assert.False(emu.Busy())

	// Data errors surface when the step completes.
	_, err = emu.Step()
	assert.NoError(err)
	_, err = emu.Step()
	assert.ErrorIs(err, actuator.ErrBusy)

	err = emu.Settle(FRAME_DT)
	assert.ErrorAs(err, &runErr)
	assert.Equal(2, runErr.LineNo)
	assert.ErrorIs(err, cpu.ErrAddressNegative)

	assert.NoError(emu.Settle(FRAME_DT))
	assert.NoError(emu.Run(FRAME_DT))
	assert.True(emu.Done())

	// Syntax errors keep the previous program.
	err = emu.Assemble(strings.NewReader("vmovaps ymm0, ,"))
	assert.Error(err)
	assert.Equal(3, emu.Program.Len())
}

func TestEmulatorReset(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, true, cpu.MakeVec(cpu.YMM, 0), cpu.MakeVec(cpu.YMM, 1))
	err := emu.Assemble(strings.NewReader("vmovaps ymm1, ymm0\nvmovaps ymm0, ymm1\n"))
	require.NoError(t, err)

	_, err = emu.Step()
	require.NoError(t, err)
	for range 3 {
		assert.NoError(emu.Tick(FRAME_DT))
	}
	assert.True(emu.Busy())
	assert.NotEmpty(emu.Visual.AnimatedRegisters())

	emu.Reset()
	assert.Empty(emu.Visual.AnimatedRegisters())
	assert.NoError(emu.Settle(FRAME_DT))
	assert.False(emu.Busy())
	assert.Equal(0, emu.Ip())
	assert.Equal(1, emu.LineNo())
	assert.False(emu.Visual.IsHighlighted(cpu.MakeVec(cpu.YMM, 1)))
}

func TestEmulatorResetPending(t *testing.T) {
	assert := assert.New(t)

	ymm0, ymm1 := cpu.MakeVec(cpu.YMM, 0), cpu.MakeVec(cpu.YMM, 1)
	emu := newEmulator(t, true, ymm0, ymm1)
	require.NoError(t, cpu.SetBySections(emu.Cpu, cpu.YMM, 0, []uint32{1, 2, 3, 4, 5, 6, 7, 8}))
	err := emu.Assemble(strings.NewReader("vmovaps ymm1, ymm0\nvpaddd ymm1, ymm1, ymm0\n"))
	require.NoError(t, err)

	lanes := func() []uint32 {
		values, err := cpu.GetBySections[uint32](emu.Cpu, cpu.YMM, 1)
		require.NoError(t, err)
		return values
	}
	zero := make([]uint32, 8)

	// Reset before the create layout phase has had a frame.
	_, err = emu.Step()
	require.NoError(t, err)
	emu.Reset()
	assert.True(emu.Machine.IsIdle())

	assert.NoError(emu.Settle(FRAME_DT))
	assert.False(emu.Busy())
	assert.Empty(emu.Visual.AnimatedRegisters())
	assert.Equal(zero, lanes())

	// The step after the reset animates before its data lands.
	executed := emu.Visual.GroupsExecuted()
	_, err = emu.Step()
	require.NoError(t, err)
	for range FRAME_LIMIT {
		require.NoError(t, emu.Tick(FRAME_DT))
		if emu.Machine.State() == fsm.STATE_UPDATE_DATA || !emu.Busy() {
			break
		}
	}
	assert.Equal(fsm.STATE_UPDATE_DATA, emu.Machine.State())
	assert.Greater(emu.Visual.GroupsExecuted(), executed)
	assert.Equal(zero, lanes())

	assert.NoError(emu.Settle(FRAME_DT))
	assert.Equal([]uint32{1, 2, 3, 4, 5, 6, 7, 8}, lanes())

	_, err = emu.Step()
	require.NoError(t, err)
	assert.NoError(emu.Settle(FRAME_DT))
	assert.False(emu.Busy())
	assert.True(emu.Done())
	assert.Equal([]uint32{2, 4, 6, 8, 10, 12, 14, 16}, lanes())
	assert.Empty(emu.Visual.AnimatedRegisters())
}

func TestEmulatorExecute(t *testing.T) {
	assert := assert.New(t)

	emu := newEmulator(t, false, cpu.MakeGpr(cpu.RDX))
	frame := &visual.Frame{}
	emu.Surface = frame

	assert.NoError(emu.Execute("mov rdx, 0x1234"))
	assert.NoError(emu.Settle(FRAME_DT))
	assert.Equal(uint64(0x1234), emu.Cpu.GetGprValue(cpu.RDX))
	assert.Contains(frame.Texts(), "4660")

	assert.NoError(emu.Execute("; just a comment"))
	assert.ErrorIs(emu.Execute("vfoo rdx"), actuator.ErrUnsupported)
}
