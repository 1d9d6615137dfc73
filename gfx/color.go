package gfx

import (
	"honnef.co/go/color"
)

// Color is a straight-alpha RGBA color with float32 channels in [0, 1].
type Color struct {
	R float32
	G float32
	B float32
	A float32
}

var (
	Transparent = Color{0, 0, 0, 0}
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
	Red         = Color{1, 0, 0, 1}
	Green       = Color{0, 1, 0, 1}
	Blue        = Color{0, 0, 1, 1}
	Yellow      = Color{1, 1, 0, 1}
	Cyan        = Color{0, 1, 1, 1}
	Magenta     = Color{1, 0, 1, 1}
)

func RGBA(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// Premultiply returns the color with its channels multiplied by alpha.
func (c Color) Premultiply() Color {
	return Color{
		R: c.R * c.A,
		G: c.G * c.A,
		B: c.B * c.A,
		A: c.A,
	}
}

func (c Color) WithAlphaFactor(alpha float32) Color {
	return Color{c.R, c.G, c.B, c.A * alpha}
}

// Vec4 returns the color as a 4-element array in RGBA order, the layout the
// shaders read vec4 colors in.
func (c Color) Vec4() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// FromColor converts a colorspace-aware color to the linear-sRGB Color the
// renderers consume.
func FromColor(c *color.Color) Color {
	cc := c.Convert(color.LinearSRGB)
	return Color{
		R: float32(cc.Values[0]),
		G: float32(cc.Values[1]),
		B: float32(cc.Values[2]),
		A: float32(cc.Values[3]),
	}
}
