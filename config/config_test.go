package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/emulator"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

const sample = `
program = """
vaddps ymm2, ymm0, ymm1
"""

[animation]
animate = false
fps = 30
max_speed = 900.0

[display]
registers = ["ymm0", "YMM1", "ymm2", "rax"]

[display.types]
ymm1 = "f32"
ymm2 = "f32"
ymm0 = "f32"

[[init.register]]
name = "ymm0"
values = [1.5, 2, "0.25"]

[[init.register]]
name = "ymm1"
values = [1, 1, 1, 1, 1, 1, 1, 1]

[[init.register]]
name = "rax"
values = ["0xffffffffffffffff"]

[[init.register]]
name = "xmm5"
type = "u128"
values = ["0x112233445566778899aabbccddeeff00"]

[[init.memory]]
address = 0x40000010
type = "u16"
values = [1, 2, -1]
`

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.False(cfg.Animation.Animate)
	assert.Equal(30, cfg.Animation.Fps)
	assert.Equal(float32(900), cfg.Animation.MaxSpeed)
	assert.Equal(visual.DefaultSpeed.Min, cfg.Animation.MinSpeed)
	assert.Equal(time.Second/30, cfg.Animation.FrameTime())
	assert.Equal(float32(1)/30, cfg.Animation.Dt())
	assert.Equal(visual.VALUE_F32, cfg.Display.Types["ymm1"])
	assert.Len(cfg.Init.Register, 4)
	assert.Equal(uint64(0x40000010), cfg.Init.Memory[0].Address)
}

func TestDecodeErrors(t *testing.T) {
	table := []struct {
		name string
		text string
		err  error
	}{
		{"unknown key", "[animation]\nspeed = 3\n", ErrUnknownKey},
		{"frame rate", "[animation]\nfps = 0\n", ErrFrameRate},
		{"speed bounds", "[animation]\nmin_speed = 10.0\nmax_speed = 5.0\n", ErrSpeedBounds},
		{"value type", "[display.types]\nymm0 = \"u7\"\n", nil},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			cfg, err := Decode(strings.NewReader(entry.text))
			assert.Error(err)
			if entry.err != nil {
				assert.ErrorIs(err, entry.err)
			}
			assert.Nil(cfg)
		})
	}

	_, err := Decode(strings.NewReader("[animation\n"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	emu := emulator.NewEmulator()
	require.NoError(t, cfg.Apply(emu))

	assert.False(emu.Animate)
	assert.Equal(float32(900), emu.Speed.Max)
	assert.Equal([]cpu.Register{
		cpu.MakeVec(cpu.YMM, 0),
		cpu.MakeVec(cpu.YMM, 1),
		cpu.MakeVec(cpu.YMM, 2),
		cpu.MakeGpr(cpu.RAX),
	}, emu.Display.Registers)
	assert.Equal(visual.VALUE_F32, emu.Display.TypeOf(cpu.MakeVec(cpu.YMM, 1)))
	assert.Equal(visual.VALUE_U64, emu.Display.TypeOf(cpu.MakeGpr(cpu.RAX)))

	ymm0, err := cpu.GetBySections[uint32](emu.Cpu, cpu.YMM, 0)
	assert.NoError(err)
	assert.Equal(math.Float32bits(1.5), ymm0[0])
	assert.Equal(math.Float32bits(2), ymm0[1])
	assert.Equal(math.Float32bits(0.25), ymm0[2])
	assert.Equal(uint32(0), ymm0[7])

	assert.Equal(uint64(math.MaxUint64), emu.Cpu.GetGprValue(cpu.RAX))

	xmm5, err := cpu.GetBySections[uint64](emu.Cpu, cpu.XMM, 5)
	assert.NoError(err)
	assert.Equal([]uint64{0x99aabbccddeeff00, 0x1122334455667788}, xmm5)

	assert.Equal([]uint16{1, 2, 0xffff}, cpu.ReadVec[uint16](emu.Cpu.Memory, 0x40000010, 3))

	assert.Equal(1, emu.Program.Len())
	require.NoError(t, emu.Run(cfg.Animation.Dt()))

	ymm2, err := cpu.GetBySections[uint32](emu.Cpu, cpu.YMM, 2)
	assert.NoError(err)
	assert.Equal(math.Float32bits(2.5), ymm2[0])
	assert.Equal(math.Float32bits(1.25), ymm2[2])
	assert.Equal(math.Float32bits(1), ymm2[3])
}

func TestApplyErrors(t *testing.T) {
	table := []struct {
		name string
		cfg  Config
		err  error
	}{
		{
			name: "bad register",
			cfg:  Config{Display: Display{Registers: []string{"ymm99"}}},
		},
		{
			name: "lane too wide",
			cfg: Config{Display: Display{
				Registers: []string{"eax"},
				Types:     map[string]visual.ValueType{"eax": visual.VALUE_U64},
			}},
			err: visual.ErrValueWidth,
		},
		{
			name: "too many lanes",
			cfg: Config{Init: Init{Register: []Register{
				{Name: "xmm0", Values: []any{int64(1), int64(2), int64(3), int64(4), int64(5)}},
			}}},
			err: ErrLaneCount,
		},
		{
			name: "gpr lanes",
			cfg: Config{Init: Init{Register: []Register{
				{Name: "rbx", Values: []any{int64(1), int64(2)}},
			}}},
			err: ErrLaneCount,
		},
		{
			name: "lane value",
			cfg: Config{Init: Init{Memory: []Memory{
				{Address: cpu.MEMORY_BASE, Values: []any{"twelve"}},
			}}},
			err: ErrLaneValue,
		},
		{
			name: "float integer lane",
			cfg: Config{Init: Init{Memory: []Memory{
				{Address: cpu.MEMORY_BASE, Type: "u64", Values: []any{1.5}},
			}}},
			err: ErrLaneValue,
		},
		{
			name: "program syntax",
			cfg:  Config{Program: "vaddps ymm0, ,"},
			err:  cpu.ErrOperandMissing,
		},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			err := entry.cfg.Apply(emulator.NewEmulator())
			assert.Error(err)
			if entry.err != nil {
				assert.ErrorIs(err, entry.err)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	assert := assert.New(t)

	cfg := Default()
	assert.NoError(cfg.Animation.Validate())

	emu := emulator.NewEmulator()
	require.NoError(t, cfg.Apply(emu))
	emu.Animate = false
	require.NoError(t, emu.Run(cfg.Animation.Dt()))

	sums := cpu.ReadVec[uint32](emu.Cpu.Memory, cpu.MEMORY_BASE+64, 16)
	assert.Equal(uint32(1), sums[0])
	assert.Equal(uint32(10), sums[3])
	assert.Equal(uint32(136), sums[15])
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "simdviz.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	assert.NoError(err)
	assert.Len(cfg.Display.Registers, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(err, os.ErrNotExist)
}
