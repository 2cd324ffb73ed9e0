package visual

// Speed parameterizes element motion. An element travels at its remaining
// distance times Factor per second, clamped to [Min, Max] units per second.
type Speed struct {
	Factor float32
	Min    float32
	Max    float32
}

// DefaultSpeed is a comfortable teaching pace.
var DefaultSpeed = Speed{Factor: 3, Min: 60, Max: 600}

// Scaled multiplies the speed limits by k.
func (speed Speed) Scaled(k float32) Speed {
	return Speed{Factor: speed.Factor * k, Min: speed.Min * k, Max: speed.Max * k}
}

const (
	ELEMENT_FONT_SIZE = 20 // Starting font size, shrunk until the text fits.
	ELEMENT_PADDING   = 4  // Horizontal text padding inside the box.
	ELEMENT_EPSILON   = 1  // Distance at which a moving element snaps.
)

// Element is one animated value cell.
type Element struct {
	Value Value

	Position       Vec2 // Current top left corner.
	TargetPosition Vec2 // Where the element is heading.
	LayoutPosition Vec2 // The slot the element belongs to.

	Color       Color
	BorderColor Color
	Highlight   bool
	Visible     bool
	Order       int // Paint order, higher is drawn later.

	text      string
	hasText   bool
	animating bool
	finished  func(*Element)
}

// NewElement creates a visible element resting at pos.
func NewElement(value Value, pos Vec2) *Element {
	return &Element{
		Value:          value,
		Position:       pos,
		TargetPosition: pos,
		LayoutPosition: pos,
		Color:          COLOR_LIGHT_GRAY,
		BorderColor:    COLOR_GRAY,
		Visible:        true,
	}
}

// Clone copies the element, without its completion callback.
func (el *Element) Clone() *Element {
	clone := *el
	clone.finished = nil
	return &clone
}

// Size is the box size of the element.
func (el *Element) Size() Vec2 {
	return el.Value.Size()
}

// Rect is the box of the element at its current position.
func (el *Element) Rect() Rect {
	return Rect{Min: el.Position, Size: el.Size()}
}

// Text is the rendered text: the override text if set, else the value.
func (el *Element) Text() string {
	if el.hasText {
		return el.text
	}
	return el.Value.String()
}

// SetText overrides the rendered text.
func (el *Element) SetText(text string) {
	el.text = text
	el.hasText = true
}

// ClearText removes the text override.
func (el *Element) ClearText() {
	el.text = ""
	el.hasText = false
}

// IsAnimating is true while the element is travelling.
func (el *Element) IsAnimating() bool {
	return el.animating
}

// MoveTo sends the element toward target. finished, if not nil, is called
// once on arrival, replacing any pending callback. A move to the current
// position completes on the next Update.
func (el *Element) MoveTo(target Vec2, finished func(*Element)) {
	el.TargetPosition = target
	el.finished = finished
	el.animating = true
}

// Translate shifts both the current and the target position.
func (el *Element) Translate(delta Vec2) {
	el.Position = el.Position.Add(delta)
	el.TargetPosition = el.TargetPosition.Add(delta)
}

// Update advances the element by dt seconds.
func (el *Element) Update(dt float32, speed Speed) {
	direction := el.TargetPosition.Sub(el.Position)
	distance := direction.Length()

	if distance > ELEMENT_EPSILON {
		el.animating = true

		step := min(max(distance*speed.Factor, speed.Min), speed.Max) * dt
		if step < distance {
			el.Position = el.Position.Add(direction.Scale(step / distance))
			return
		}
	}

	el.Position = el.TargetPosition
	el.animating = false

	if el.finished != nil {
		finished := el.finished
		el.finished = nil
		finished(el)
	}
}

// Show draws the element, if visible.
func (el *Element) Show(surface Surface) {
	if !el.Visible {
		return
	}

	rect := el.Rect()
	surface.FillRect(rect, el.Color)

	border := el.BorderColor
	switch {
	case el.Highlight:
		border = COLOR_RED
	case el.animating:
		border = COLOR_AMBER
	}
	surface.StrokeRect(rect, border)

	text := el.Text()
	size := float32(ELEMENT_FONT_SIZE)
	extent := surface.MeasureText(text, size)
	for extent.X >= rect.Size.X-ELEMENT_PADDING && size > 1 {
		size -= 1
		extent = surface.MeasureText(text, size)
	}

	center := rect.Center()
	surface.Text(Vec2{X: center.X - extent.X/2, Y: center.Y - extent.Y/2}, text, size, COLOR_BLACK)
}
