package visual

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/Akiko97/simd-asm-code-visualization/cpu"
	"github.com/Akiko97/simd-asm-code-visualization/internal"
)

// LayoutLocation is where a register's staging rows are, relative to its
// main row.
type LayoutLocation int

const (
	LOCATION_NONE   = LayoutLocation(0) // No staging rows.
	LOCATION_TOP    = LayoutLocation(1) // Staging rows above the main row.
	LOCATION_BOTTOM = LayoutLocation(2) // Staging rows below the main row.
	LOCATION_BOTH   = LayoutLocation(3) // Staging rows on both sides.
)

func (loc LayoutLocation) String() string {
	switch loc {
	case LOCATION_NONE:
		return "none"
	case LOCATION_TOP:
		return "top"
	case LOCATION_BOTTOM:
		return "bottom"
	case LOCATION_BOTH:
		return "both"
	}
	return fmt.Sprintf("LayoutLocation(%d)", int(loc))
}

// HasTop is true if the location includes staging rows above.
func (loc LayoutLocation) HasTop() bool {
	return loc == LOCATION_TOP || loc == LOCATION_BOTH
}

// HasBottom is true if the location includes staging rows below.
func (loc LayoutLocation) HasBottom() bool {
	return loc == LOCATION_BOTTOM || loc == LOCATION_BOTH
}

// Merge combines two locations.
func (loc LayoutLocation) Merge(other LayoutLocation) LayoutLocation {
	top := loc.HasTop() || other.HasTop()
	bottom := loc.HasBottom() || other.HasBottom()
	switch {
	case top && bottom:
		return LOCATION_BOTH
	case top:
		return LOCATION_TOP
	case bottom:
		return LOCATION_BOTTOM
	}
	return LOCATION_NONE
}

// Repeat is the number of stacked staging rows above and below a register.
type Repeat struct {
	Top    int
	Bottom int
}

// StagingRow names one staging row of a register.
type StagingRow struct {
	Loc LayoutLocation // LOCATION_TOP or LOCATION_BOTTOM
	Row int
}

// RegAnimationConfig requests staging rows for a register while an
// instruction is animated.
type RegAnimationConfig struct {
	Location LayoutLocation
	Repeat   Repeat

	// RowValues presets the lanes of individual staging rows, such as a
	// memory operand's lanes. Other rows show the register's own values.
	RowValues map[StagingRow][]Value
}

// Validate checks that the repeat counts agree with the location.
func (cfg RegAnimationConfig) Validate() error {
	top, bottom := cfg.Repeat.Top > 0, cfg.Repeat.Bottom > 0
	if cfg.Repeat.Top < 0 || cfg.Repeat.Bottom < 0 {
		return ErrRepeatLocation
	}
	if top != cfg.Location.HasTop() || bottom != cfg.Location.HasBottom() {
		return ErrRepeatLocation
	}
	return nil
}

// Rows is the number of staging rows at loc.
func (cfg RegAnimationConfig) Rows(loc LayoutLocation) int {
	switch loc {
	case LOCATION_TOP:
		return cfg.Repeat.Top
	case LOCATION_BOTTOM:
		return cfg.Repeat.Bottom
	}
	return 0
}

// StagingKey identifies the staging rows of a register on one side.
type StagingKey struct {
	Reg cpu.Register
	Loc LayoutLocation
}

const (
	LABEL_HEIGHT  = 20 // Height of a register's name label.
	LABEL_SIZE    = 15 // Font size of the label.
	LANE_GAP      = 2  // Horizontal gap between lanes.
	ROW_GAP       = 5  // Vertical gap between rows.
	REGISTER_GAP  = 15 // Vertical gap between registers.
	ROW_HEIGHT    = ELEMENT_HEIGHT + ROW_GAP
	LAYOUT_MARGIN = 10
	ORDER_STAGING = 1 // Base paint order of staging elements.
	ORDER_MAIN    = 0 // Base paint order of main row elements.
)

// slotTable holds slot rectangles and their elements, one or more rows per key.
type slotTable[K comparable] struct {
	rects    map[K][][]Rect
	elements map[K][][]*Element
}

func newSlotTable[K comparable]() *slotTable[K] {
	return &slotTable[K]{
		rects:    map[K][][]Rect{},
		elements: map[K][][]*Element{},
	}
}

// createLayout lays out one row of boxes per entry of values, each row
// starting at its origin, and stores the rectangles.
func (tbl *slotTable[K]) createLayout(key K, origins []Vec2, values [][]Value) {
	rows := make([][]Rect, len(values))
	for row, lanes := range values {
		pos := origins[row]
		rows[row] = make([]Rect, len(lanes))
		for col, value := range lanes {
			size := value.Size()
			rows[row][col] = Rect{Min: pos, Size: size}
			pos.X += size.X + LANE_GAP
		}
	}

	tbl.rects[key] = rows
}

// createElements rebuilds the elements of key when their shape or values
// differ from values. Otherwise the existing elements keep their motion,
// translated by however far their slots moved. New elements start at
// spawn(row, col), or at their slot if spawn is nil.
func (tbl *slotTable[K]) createElements(key K, values [][]Value, color Color, order int, visible bool, spawn func(row, col int) Vec2) (rebuilt bool) {
	rects := tbl.rects[key]
	rows, ok := tbl.elements[key]

	if !ok || !sameValues(rows, values) {
		rows = make([][]*Element, len(values))
		for row, lanes := range values {
			rows[row] = make([]*Element, len(lanes))
			for col, value := range lanes {
				slot := rects[row][col].Min
				pos := slot
				if spawn != nil {
					pos = spawn(row, col)
				}
				el := NewElement(value, pos)
				el.LayoutPosition = slot
				el.Color = color
				el.Order = order
				el.Visible = visible
				rows[row][col] = el
			}
		}
		tbl.elements[key] = rows
		rebuilt = true
		return
	}

	for row, lanes := range rows {
		for col, el := range lanes {
			slot := rects[row][col].Min
			if el.LayoutPosition != slot {
				el.Translate(slot.Sub(el.LayoutPosition))
				el.LayoutPosition = slot
			}
		}
	}

	return
}

func sameValues(rows [][]*Element, values [][]Value) bool {
	if len(rows) != len(values) {
		return false
	}
	for row, lanes := range rows {
		if len(lanes) != len(values[row]) {
			return false
		}
		for col, el := range lanes {
			if el.Value != values[row][col] {
				return false
			}
		}
	}
	return true
}

// retain purges every key not in keep.
func (tbl *slotTable[K]) retain(keep map[K]bool) {
	maps.DeleteFunc(tbl.rects, func(key K, _ [][]Rect) bool { return !keep[key] })
	maps.DeleteFunc(tbl.elements, func(key K, _ [][]*Element) bool { return !keep[key] })
}

func (tbl *slotTable[K]) element(key K, row, col int) (el *Element, ok bool) {
	rows, ok := tbl.elements[key]
	if !ok || row < 0 || row >= len(rows) || col < 0 || col >= len(rows[row]) {
		ok = false
		return
	}

	el = rows[row][col]
	return
}

func (tbl *slotTable[K]) rows(key K) [][]*Element {
	return tbl.elements[key]
}

// Layout places the rows of displayed registers and owns their elements.
type Layout struct {
	Origin Vec2

	main    *slotTable[cpu.Register]
	staging *slotTable[StagingKey]
	labels  map[cpu.Register]Vec2
	order   []cpu.Register
	ghosts  []*Element
}

// NewLayout creates an empty layout.
func NewLayout() *Layout {
	return &Layout{
		Origin:  Vec2{X: LAYOUT_MARGIN, Y: LAYOUT_MARGIN},
		main:    newSlotTable[cpu.Register](),
		staging: newSlotTable[StagingKey](),
		labels:  map[cpu.Register]Vec2{},
	}
}

// Reconcile lays out the displayed registers with their current values and
// staging configuration, creating, keeping or purging elements to match.
// Registers without values in snapshot are not shown.
func (lay *Layout) Reconcile(display *Display, snapshot map[cpu.Register][]Value, configs map[cpu.Register]RegAnimationConfig, highlight map[cpu.Register]bool) {
	seenMain := map[cpu.Register]bool{}
	seenStaging := map[StagingKey]bool{}

	lay.order = lay.order[:0]

	pos := lay.Origin
	for idx, reg := range display.Registers {
		values, ok := snapshot[reg]
		if !ok || len(values) == 0 {
			continue
		}

		lay.order = append(lay.order, reg)
		seenMain[reg] = true
		color := PaletteColor(idx)
		cfg := configs[reg]

		lay.labels[reg] = pos
		pos.Y += LABEL_HEIGHT

		topCount := cfg.Rows(LOCATION_TOP)
		topY := pos.Y
		pos.Y += float32(topCount) * ROW_HEIGHT

		mainRow := [][]Value{values}
		lay.main.createLayout(reg, []Vec2{pos}, mainRow)
		lay.main.createElements(reg, mainRow, color, ORDER_MAIN, true, nil)
		for _, el := range lay.main.rows(reg)[0] {
			el.Highlight = highlight[reg]
		}
		pos.Y += ROW_HEIGHT

		mainRects := lay.main.rects[reg][0]
		spawn := func(row, col int) Vec2 {
			return mainRects[min(col, len(mainRects)-1)].Min
		}

		bottomCount := cfg.Rows(LOCATION_BOTTOM)
		bottomY := pos.Y
		pos.Y += float32(bottomCount) * ROW_HEIGHT

		for _, loc := range []LayoutLocation{LOCATION_TOP, LOCATION_BOTTOM} {
			count := cfg.Rows(loc)
			if count == 0 {
				continue
			}

			key := StagingKey{Reg: reg, Loc: loc}
			seenStaging[key] = true

			rows := make([][]Value, count)
			origins := make([]Vec2, count)
			for row := range count {
				rows[row] = values
				if preset, ok := cfg.RowValues[StagingRow{Loc: loc, Row: row}]; ok {
					rows[row] = preset
				}
				// Row 0 is always the one nearest the main row.
				if loc == LOCATION_TOP {
					origins[row] = Vec2{X: pos.X, Y: topY + float32(count-1-row)*ROW_HEIGHT}
				} else {
					origins[row] = Vec2{X: pos.X, Y: bottomY + float32(row)*ROW_HEIGHT}
				}
			}

			lay.staging.createLayout(key, origins, rows)
			lay.staging.createElements(key, rows, color, ORDER_STAGING, false, spawn)
		}

		pos.Y += REGISTER_GAP
	}

	lay.main.retain(seenMain)
	lay.staging.retain(seenStaging)
	maps.DeleteFunc(lay.labels, func(reg cpu.Register, _ Vec2) bool { return !seenMain[reg] })
}

// Element finds the element in a slot. A slot at LOCATION_NONE, row 0, is
// the register's main row.
func (lay *Layout) Element(slot Slot) (el *Element, ok bool) {
	switch slot.Loc {
	case LOCATION_NONE:
		if slot.Row != 0 {
			return
		}
		return lay.main.element(slot.Reg, 0, slot.Col)
	case LOCATION_TOP, LOCATION_BOTTOM:
		return lay.staging.element(StagingKey{Reg: slot.Reg, Loc: slot.Loc}, slot.Row, slot.Col)
	}

	return
}

// MainElements returns the main row elements of a register.
func (lay *Layout) MainElements(reg cpu.Register) []*Element {
	rows := lay.main.rows(reg)
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

// StagingElements returns the staging rows of a register on one side.
func (lay *Layout) StagingElements(reg cpu.Register, loc LayoutLocation) [][]*Element {
	return lay.staging.rows(StagingKey{Reg: reg, Loc: loc})
}

// Registers lists the laid out registers, in display order.
func (lay *Layout) Registers() []cpu.Register {
	return slices.Clone(lay.order)
}

// Rebuild drops the main row elements of reg, so the next Reconcile
// recreates them at their slots from the live values. Text, colors and
// paint order landed by moves are forgotten.
func (lay *Layout) Rebuild(reg cpu.Register) {
	delete(lay.main.elements, reg)
}

// addGhost adds a transient copy of el, used when one element is the source
// of more than one move in a group.
func (lay *Layout) addGhost(el *Element) *Element {
	ghost := el.Clone()
	ghost.TargetPosition = ghost.Position
	ghost.Visible = true
	lay.ghosts = append(lay.ghosts, ghost)
	return ghost
}

func (lay *Layout) clearGhosts() {
	lay.ghosts = nil
}

func (lay *Layout) removeGhost(el *Element) {
	lay.ghosts = slices.DeleteFunc(lay.ghosts, func(ghost *Element) bool { return ghost == el })
}

// Elements yields every element: main rows, staging rows, then ghosts.
func (lay *Layout) Elements() iter.Seq[*Element] {
	var rows iter.Seq[[]*Element] = func(yield func([]*Element) bool) {
		for _, reg := range lay.order {
			top := lay.staging.rows(StagingKey{Reg: reg, Loc: LOCATION_TOP})
			bottom := lay.staging.rows(StagingKey{Reg: reg, Loc: LOCATION_BOTTOM})
			for row := range internal.Concat(slices.Values(lay.main.rows(reg)), slices.Values(top), slices.Values(bottom)) {
				if !yield(row) {
					return
				}
			}
		}
	}

	return internal.Concat(internal.Flatten(rows), slices.Values(lay.ghosts))
}

// Draw paints the labels, then every visible element in paint order.
func (lay *Layout) Draw(surface Surface) {
	for _, reg := range lay.order {
		surface.Text(lay.labels[reg], reg.Name(), LABEL_SIZE, COLOR_GRAY)
	}

	elements := slices.Collect(lay.Elements())
	slices.SortStableFunc(elements, func(a, b *Element) int { return a.Order - b.Order })
	for _, el := range elements {
		el.Show(surface)
	}
}

// Tree renders the layout as a tree of registers, rows and lanes.
func (lay *Layout) Tree() string {
	tree := treeprint.NewWithRoot("layout")

	rowText := func(row []*Element) string {
		words := make([]string, len(row))
		for n, el := range row {
			words[n] = el.Text()
			if !el.Visible {
				words[n] = "(" + words[n] + ")"
			}
		}
		return strings.Join(words, " ")
	}

	for _, reg := range lay.order {
		branch := tree.AddMetaBranch(fmt.Sprintf("y=%v", lay.labels[reg].Y), reg.Name())

		tops := lay.staging.rows(StagingKey{Reg: reg, Loc: LOCATION_TOP})
		for row := len(tops) - 1; row >= 0; row-- {
			branch.AddMetaNode(fmt.Sprintf("top[%d]", row), rowText(tops[row]))
		}
		branch.AddMetaNode("main", rowText(lay.MainElements(reg)))
		for row, lanes := range lay.staging.rows(StagingKey{Reg: reg, Loc: LOCATION_BOTTOM}) {
			branch.AddMetaNode(fmt.Sprintf("bottom[%d]", row), rowText(lanes))
		}
	}

	return tree.String()
}
