package visual

import (
	"math"
)

// Vec2 is a position or a size on the surface.
type Vec2 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(k float32) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// Length is the euclidean length of the vector.
func (v Vec2) Length() float32 {
	return float32(math.Hypot(float64(v.X), float64(v.Y)))
}

// Rect is an axis aligned rectangle.
type Rect struct {
	Min  Vec2 `json:"min"`
	Size Vec2 `json:"size"`
}

func (r Rect) Max() Vec2 {
	return r.Min.Add(r.Size)
}

func (r Rect) Center() Vec2 {
	return r.Min.Add(r.Size.Scale(0.5))
}

// Color is an RGBA color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

var (
	COLOR_BLACK      = Color{0x00, 0x00, 0x00, 0xff}
	COLOR_GRAY       = Color{0x80, 0x80, 0x80, 0xff}
	COLOR_LIGHT_GRAY = Color{0xd3, 0xd3, 0xd3, 0xff}
	COLOR_RED        = Color{0xff, 0x00, 0x00, 0xff}
	COLOR_AMBER      = Color{0xff, 0xbf, 0x00, 0xff}
)

// palette colors register rows by display index.
var palette = []Color{
	{0xad, 0xd8, 0xe6, 0xff}, // light blue
	{0x90, 0xee, 0x90, 0xff}, // light green
	{0xff, 0xe4, 0xb5, 0xff}, // moccasin
	{0xdd, 0xa0, 0xdd, 0xff}, // plum
	{0xf0, 0xe6, 0x8c, 0xff}, // khaki
	{0xff, 0xb6, 0xc1, 0xff}, // light pink
	{0xaf, 0xee, 0xee, 0xff}, // pale turquoise
	{0xd2, 0xb4, 0x8c, 0xff}, // tan
}

// PaletteColor is the row color of the n'th displayed register.
func PaletteColor(n int) Color {
	return palette[n%len(palette)]
}
