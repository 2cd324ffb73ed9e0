package visual

import (
	"fmt"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
)

const (
	MEMORY_ROW_BYTES  = 8  // Bytes shown per memory row.
	MEMORY_ROW_COUNT  = 16 // Rows shown per memory page.
	MEMORY_ADDR_SIZE  = 15 // Font size of the address column.
	MEMORY_ROW_HEIGHT = ELEMENT_HEIGHT
)

// MemoryRow is one row of the memory viewer.
type MemoryRow struct {
	Addr   uint64
	Values []Value
}

// MemoryRows reads count rows of memory starting at addr, as lanes of type
// vt. Rows are at least as wide as one lane.
func MemoryRows(mem *cpu.Memory, addr uint64, vt ValueType, count int) (rows []MemoryRow) {
	stride := max(MEMORY_ROW_BYTES, vt.Bytes())
	rows = make([]MemoryRow, count)
	for n := range rows {
		at := addr + uint64(n*stride)
		rows[n] = MemoryRow{
			Addr:   at,
			Values: ValuesFromMemory(mem, at, vt, stride/vt.Bytes()),
		}
	}
	return
}

// ShowMemory draws memory rows with their address column at origin.
func ShowMemory(surface Surface, origin Vec2, rows []MemoryRow) {
	var column float32
	for _, row := range rows {
		column = max(column, surface.MeasureText(fmt.Sprintf("%X", row.Addr), MEMORY_ADDR_SIZE).X)
	}

	pos := origin
	for _, row := range rows {
		surface.Text(pos, fmt.Sprintf("%X", row.Addr), MEMORY_ADDR_SIZE, COLOR_GRAY)

		lane := Vec2{X: pos.X + column + LANE_GAP, Y: pos.Y}
		for _, value := range row.Values {
			el := NewElement(value, lane)
			el.Color = COLOR_LIGHT_GRAY
			el.Show(surface)
			lane.X += value.Size().X + LANE_GAP
		}

		pos.Y += MEMORY_ROW_HEIGHT + ROW_GAP
	}
}
