package actuator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/visual"
)

var (
	rax  = cpu.MakeGpr(cpu.RAX)
	xmm1 = cpu.MakeVec(cpu.XMM, 1)
	xmm3 = cpu.MakeVec(cpu.XMM, 3)
	ymm0 = cpu.MakeVec(cpu.YMM, 0)
	ymm1 = cpu.MakeVec(cpu.YMM, 1)
	ymm2 = cpu.MakeVec(cpu.YMM, 2)
	ymm3 = cpu.MakeVec(cpu.YMM, 3)
	zmm0 = cpu.MakeVec(cpu.ZMM, 0)
	zmm1 = cpu.MakeVec(cpu.ZMM, 1)
	zmm2 = cpu.MakeVec(cpu.ZMM, 2)
)

func parse(t *testing.T, text string) cpu.Instruction {
	var asm cpu.Assembler
	inst, err := asm.ParseInstruction(text)
	require.NoError(t, err, text)
	return inst
}

func expand(t *testing.T, text string) []cpu.Operand {
	inst := parse(t, text)
	op, err := ParseOpcode(inst.Opcode)
	require.NoError(t, err, text)
	return op.Operands(inst.Operands)
}

type placedRow struct {
	reg cpu.Register
	loc visual.LayoutLocation
	row int
}

func TestPlace(t *testing.T) {
	none := placedRow{}

	table := []struct {
		name    string
		display []cpu.Register
		text    string
		configs map[cpu.Register]visual.RegAnimationConfig
		rows    []placedRow
		regs    []cpu.Register
	}{
		{
			name:    "source shown first",
			display: []cpu.Register{ymm0, ymm1},
			text:    "vmovaps ymm1, ymm0",
			configs: map[cpu.Register]visual.RegAnimationConfig{
				ymm0: {Location: visual.LOCATION_TOP, Repeat: visual.Repeat{Top: 1}},
				ymm1: {Location: visual.LOCATION_BOTTOM, Repeat: visual.Repeat{Bottom: 1}},
			},
			rows: []placedRow{{ymm1, visual.LOCATION_BOTTOM, 0}, {ymm0, visual.LOCATION_TOP, 0}},
			regs: []cpu.Register{ymm0, ymm1},
		},
		{
			name:    "destination shown first",
			display: []cpu.Register{ymm1, ymm0},
			text:    "vmovaps ymm1, ymm0",
			configs: map[cpu.Register]visual.RegAnimationConfig{
				ymm1: {Location: visual.LOCATION_TOP, Repeat: visual.Repeat{Top: 1}},
				ymm0: {Location: visual.LOCATION_BOTTOM, Repeat: visual.Repeat{Bottom: 1}},
			},
			rows: []placedRow{{ymm1, visual.LOCATION_TOP, 0}, {ymm0, visual.LOCATION_BOTTOM, 0}},
			regs: []cpu.Register{ymm1, ymm0},
		},
		{
			name:    "destination reused as source",
			display: []cpu.Register{ymm0, ymm1},
			text:    "vpaddd ymm0, ymm0, ymm1",
			configs: map[cpu.Register]visual.RegAnimationConfig{
				ymm0: {Location: visual.LOCATION_TOP, Repeat: visual.Repeat{Top: 2}},
				ymm1: {Location: visual.LOCATION_BOTTOM, Repeat: visual.Repeat{Bottom: 1}},
			},
			rows: []placedRow{
				{ymm0, visual.LOCATION_TOP, 0},
				{ymm0, visual.LOCATION_TOP, 1},
				{ymm1, visual.LOCATION_BOTTOM, 0},
			},
			regs: []cpu.Register{ymm0, ymm1},
		},
		{
			name:    "two sources above",
			display: []cpu.Register{ymm0, ymm1, ymm2},
			text:    "vaddps ymm2, ymm0, ymm1",
			configs: map[cpu.Register]visual.RegAnimationConfig{
				ymm0: {Location: visual.LOCATION_TOP, Repeat: visual.Repeat{Top: 1}},
				ymm1: {Location: visual.LOCATION_TOP, Repeat: visual.Repeat{Top: 1}},
				ymm2: {Location: visual.LOCATION_BOTTOM, Repeat: visual.Repeat{Bottom: 1}},
			},
			rows: []placedRow{
				{ymm2, visual.LOCATION_BOTTOM, 0},
				{ymm0, visual.LOCATION_TOP, 0},
				{ymm1, visual.LOCATION_TOP, 0},
			},
			regs: []cpu.Register{ymm0, ymm1, ymm2},
		},
		{
			name:    "memory source",
			display: []cpu.Register{ymm0},
			text:    "vmovaps ymm0, [0x40000000]",
			configs: map[cpu.Register]visual.RegAnimationConfig{
				ymm0: {Location: visual.LOCATION_BOTTOM, Repeat: visual.Repeat{Bottom: 2}},
			},
			rows: []placedRow{{ymm0, visual.LOCATION_BOTTOM, 0}, {ymm0, visual.LOCATION_BOTTOM, 1}},
			regs: []cpu.Register{ymm0},
		},
		{
			name:    "target read with immediate",
			display: []cpu.Register{rax},
			text:    "add rax, 5",
			configs: map[cpu.Register]visual.RegAnimationConfig{
				rax: {Location: visual.LOCATION_BOTTOM, Repeat: visual.Repeat{Bottom: 2}},
			},
			rows: []placedRow{{rax, visual.LOCATION_BOTTOM, 0}, {rax, visual.LOCATION_BOTTOM, 1}, none},
			regs: []cpu.Register{rax},
		},
		{
			name:    "source not shown",
			display: []cpu.Register{ymm0, ymm1},
			text:    "vmovaps ymm1, ymm3",
			configs: map[cpu.Register]visual.RegAnimationConfig{
				ymm1: {Location: visual.LOCATION_BOTTOM, Repeat: visual.Repeat{Bottom: 1}},
			},
			rows: []placedRow{{ymm1, visual.LOCATION_BOTTOM, 0}, none},
			regs: []cpu.Register{ymm1},
		},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			ops := expand(t, entry.text)
			pl := Place(visual.NewDisplay(entry.display...), ops)

			assert.Equal(entry.configs, pl.Configs)
			assert.Equal(entry.regs, pl.Registers())
			require.Len(t, pl.Operands, len(entry.rows))
			for n, row := range entry.rows {
				placed := pl.Operands[n]
				assert.Equal(ops[n], placed.Operand, n)
				assert.Equal(row.loc, placed.Loc, n)
				if row.loc == visual.LOCATION_NONE {
					assert.False(placed.Staged(), n)
					continue
				}
				assert.Equal(row.reg, placed.Reg, n)
				assert.Equal(row.row, placed.Row, n)
				assert.NoError(pl.Configs[placed.Reg].Validate(), n)
			}
		})
	}
}

func TestPlaceSymmetry(t *testing.T) {
	assert := assert.New(t)

	ops := expand(t, "vunpcklps ymm1, ymm0, ymm0")

	forward := Place(visual.NewDisplay(ymm0, ymm1), ops)
	reverse := Place(visual.NewDisplay(ymm1, ymm0), ops)

	assert.Equal(visual.LOCATION_TOP, forward.Configs[ymm0].Location)
	assert.Equal(visual.LOCATION_BOTTOM, forward.Configs[ymm1].Location)
	assert.Equal(visual.LOCATION_BOTTOM, reverse.Configs[ymm0].Location)
	assert.Equal(visual.LOCATION_TOP, reverse.Configs[ymm1].Location)

	// A register used twice gets two rows on its side.
	assert.Equal(2, forward.Configs[ymm0].Rows(visual.LOCATION_TOP))
	assert.Equal(2, reverse.Configs[ymm0].Rows(visual.LOCATION_BOTTOM))
	assert.Equal(1, forward.Operands[2].Row)
}
