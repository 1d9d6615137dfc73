// Package rmath provides the small amount of GPU-oriented math the renderers
// need: 4x4 column-major float32 matrices and conversions from 2D affine
// transforms.
package rmath

import (
	"math"
	"structs"

	"honnef.co/go/curve"
)

// Mat4 is a 4x4 float32 matrix in column-major order, the layout WGSL reads
// mat4x4<f32> in.
type Mat4 struct {
	_ structs.HostLayout

	Cols [16]float32
}

// Vec4 is a 4-component float32 vector.
type Vec4 struct {
	_ structs.HostLayout

	X, Y, Z, W float32
}

func Identity() Mat4 {
	return Mat4{Cols: [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// FromAffine expands a 2D affine transform to a 4x4 matrix. The affine
// coefficients follow the [a b c d e f] convention where
// x' = a*x + c*y + e and y' = b*x + d*y + f.
func FromAffine(t curve.Affine) Mat4 {
	c := t.Coefficients()
	return Mat4{Cols: [16]float32{
		float32(c[0]), float32(c[1]), 0, 0,
		float32(c[2]), float32(c[3]), 0, 0,
		0, 0, 1, 0,
		float32(c[4]), float32(c[5]), 0, 1,
	}}
}

// Translation2D returns a matrix translating by (x, y).
func Translation2D(x, y float32) Mat4 {
	m := Identity()
	m.Cols[12] = x
	m.Cols[13] = y
	return m
}

// Scale2D returns a matrix scaling by (x, y).
func Scale2D(x, y float32) Mat4 {
	m := Identity()
	m.Cols[0] = x
	m.Cols[5] = y
	return m
}

// Rotation2D returns a matrix rotating by angle radians around the origin,
// counterclockwise in a y-up coordinate system.
func Rotation2D(angle float32) Mat4 {
	sin := float32(math.Sin(float64(angle)))
	cos := float32(math.Cos(float64(angle)))
	m := Identity()
	m.Cols[0] = cos
	m.Cols[1] = sin
	m.Cols[4] = -sin
	m.Cols[5] = cos
	return m
}

// Ortho2D returns an orthographic projection mapping the rectangle
// [left, right] x [bottom, top] onto clip space [-1, 1] x [-1, 1].
func Ortho2D(left, right, bottom, top float32) Mat4 {
	m := Identity()
	m.Cols[0] = 2 / (right - left)
	m.Cols[5] = 2 / (top - bottom)
	m.Cols[12] = -(right + left) / (right - left)
	m.Cols[13] = -(top + bottom) / (top - bottom)
	return m
}

// Mul returns m * other, applying other first.
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m.Cols[k*4+row] * other.Cols[col*4+k]
			}
			out.Cols[col*4+row] = sum
		}
	}
	return out
}

// Apply transforms v by m.
func (m Mat4) Apply(v Vec4) Vec4 {
	return Vec4{
		X: m.Cols[0]*v.X + m.Cols[4]*v.Y + m.Cols[8]*v.Z + m.Cols[12]*v.W,
		Y: m.Cols[1]*v.X + m.Cols[5]*v.Y + m.Cols[9]*v.Z + m.Cols[13]*v.W,
		Z: m.Cols[2]*v.X + m.Cols[6]*v.Y + m.Cols[10]*v.Z + m.Cols[14]*v.W,
		W: m.Cols[3]*v.X + m.Cols[7]*v.Y + m.Cols[11]*v.Z + m.Cols[15]*v.W,
	}
}

func (v Vec4) Add(other Vec4) Vec4 {
	return Vec4{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z, W: v.W + other.W}
}

func (v Vec4) Array() [4]float32 {
	return [4]float32{v.X, v.Y, v.Z, v.W}
}
