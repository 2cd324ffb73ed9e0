package visual

import (
	"unicode/utf8"
)

// Surface is what elements and labels are drawn on.
type Surface interface {
	// FillRect paints a filled rectangle.
	FillRect(rect Rect, fill Color)
	// StrokeRect paints a rectangle outline.
	StrokeRect(rect Rect, stroke Color)
	// Text paints text with its top left corner at pos.
	Text(pos Vec2, text string, size float32, color Color)
	// MeasureText is the extent of text at a font size.
	MeasureText(text string, size float32) Vec2
}

// DrawKind discriminates DrawOp.
type DrawKind string

const (
	DRAW_FILL   = DrawKind("fill")
	DRAW_STROKE = DrawKind("stroke")
	DRAW_TEXT   = DrawKind("text")
)

// DrawOp is one recorded drawing call.
type DrawOp struct {
	Kind  DrawKind `json:"kind"`
	Rect  Rect     `json:"rect"`
	Color Color    `json:"color"`
	Text  string   `json:"text,omitempty"`
	Size  float32  `json:"size,omitempty"`
}

// MONOSPACE_ASPECT is the advance of a glyph relative to its font size.
const MONOSPACE_ASPECT = 0.6

// Frame is a Surface that records drawing calls, measuring text as a
// monospace font. A recorded frame is what the web host streams.
type Frame struct {
	Ops []DrawOp `json:"ops"`
}

// Reset drops all recorded calls.
func (fr *Frame) Reset() {
	fr.Ops = fr.Ops[:0]
}

func (fr *Frame) FillRect(rect Rect, fill Color) {
	fr.Ops = append(fr.Ops, DrawOp{Kind: DRAW_FILL, Rect: rect, Color: fill})
}

func (fr *Frame) StrokeRect(rect Rect, stroke Color) {
	fr.Ops = append(fr.Ops, DrawOp{Kind: DRAW_STROKE, Rect: rect, Color: stroke})
}

func (fr *Frame) Text(pos Vec2, text string, size float32, color Color) {
	rect := Rect{Min: pos, Size: fr.MeasureText(text, size)}
	fr.Ops = append(fr.Ops, DrawOp{Kind: DRAW_TEXT, Rect: rect, Color: color, Text: text, Size: size})
}

func (fr *Frame) MeasureText(text string, size float32) Vec2 {
	return Vec2{X: float32(utf8.RuneCountInString(text)) * size * MONOSPACE_ASPECT, Y: size}
}

// Texts lists the text of every recorded text call, in drawing order.
func (fr *Frame) Texts() (texts []string) {
	for _, op := range fr.Ops {
		if op.Kind == DRAW_TEXT {
			texts = append(texts, op.Text)
		}
	}
	return
}
