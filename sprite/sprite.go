// Package sprite renders batched textured quads. Draws are submitted one at a
// time with a transform, a tint color, and a resource binding, then flushed
// into a single command stream per frame. All per-draw variation travels in a
// small constant block; the quad geometry is uploaded once and shared by every
// draw.
package sprite

import (
	"structs"
)

// Vertex is one sprite vertex: a 2D position and a 2D texture coordinate.
type Vertex struct {
	_ structs.HostLayout

	Position  [2]float32
	TexCoords [2]float32
}

// Mesh is sprite geometry on the host: a vertex list plus a uint16 index list
// forming triangles.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
}

// RectangleMesh builds an axis-aligned rectangle from the origin to
// (width, height), with texture coordinates covering the full texture.
func RectangleMesh(width, height float32) Mesh {
	return Mesh{
		Vertices: []Vertex{
			{Position: [2]float32{0, 0}, TexCoords: [2]float32{0, 0}},
			{Position: [2]float32{0, height}, TexCoords: [2]float32{0, 1}},
			{Position: [2]float32{width, height}, TexCoords: [2]float32{1, 1}},
			{Position: [2]float32{width, 0}, TexCoords: [2]float32{1, 0}},
		},
		Indices: []uint16{0, 1, 3, 3, 1, 2},
	}
}

// QuadMesh builds a rectangle spanned by two opposite corner vertices, in any
// order. Positions and texture coordinates are normalized together so the
// texture is not mirrored.
func QuadMesh(v1, v2 Vertex) Mesh {
	lp, rp, lt, rt := v1.Position[0], v2.Position[0], v1.TexCoords[0], v2.TexCoords[0]
	if lp > rp {
		lp, rp, lt, rt = rp, lp, rt, lt
	}
	tp, bp, tt, bt := v1.Position[1], v2.Position[1], v1.TexCoords[1], v2.TexCoords[1]
	if tp > bp {
		tp, bp, tt, bt = bp, tp, bt, tt
	}
	return Mesh{
		Vertices: []Vertex{
			{Position: [2]float32{lp, tp}, TexCoords: [2]float32{lt, tt}},
			{Position: [2]float32{lp, bp}, TexCoords: [2]float32{lt, bt}},
			{Position: [2]float32{rp, bp}, TexCoords: [2]float32{rt, bt}},
			{Position: [2]float32{rp, tp}, TexCoords: [2]float32{rt, tt}},
		},
		Indices: []uint16{0, 1, 3, 3, 1, 2},
	}
}

// UnitQuadMesh is the shared unit quad: RectangleMesh(1, 1).
func UnitQuadMesh() Mesh {
	return RectangleMesh(1, 1)
}
