// Package text renders glyph-atlas text. A Font rasterizes a character set
// into a layered coverage atlas with one glyph quad per layer; the Renderer
// batches per-glyph draws whose constant blocks carry the text transform, the
// glyph's screen-space cell offset, and the text color.
package text

import (
	"structs"

	"github.com/DavideCorradiDev/red-orango-engine/graphics"
	"github.com/DavideCorradiDev/red-orango-engine/rmath"
)

// Vertex is one glyph-mesh vertex. The third texture-coordinate component
// selects the atlas layer holding the glyph's coverage mask; the renderer
// never looks layers up itself.
type Vertex struct {
	_ structs.HostLayout

	Position  [2]float32
	TexCoords [3]float32
}

// PushConstants is the per-draw constant block the text shaders read, in
// declaration order: the text transform, the glyph offset applied to the quad
// before the transform, and the text color.
type PushConstants struct {
	_ structs.HostLayout

	Transform   rmath.Mat4
	GlyphOffset [4]float32
	Color       [4]float32
}

// BindingLayout is the descriptor-set layout text pipelines expect: binding 0
// a sampled 2D texture array (the glyph atlas), binding 1 a sampler.
func BindingLayout() graphics.BindingLayout {
	return graphics.BindingLayout{Slots: []graphics.BindingSlot{
		{Binding: 0, Kind: graphics.BindingSampledTexture, Visibility: graphics.StageFragment, Dimension: graphics.TextureD2Array},
		{Binding: 1, Kind: graphics.BindingSampler, Visibility: graphics.StageFragment},
	}}
}

// GlyphDraw locates one glyph's quad: the atlas binding, the font's shared
// mesh buffers, and the index range covering the glyph. Values come from
// Font.Glyph and stay valid for the font's lifetime.
type GlyphDraw struct {
	Binding    *graphics.ResourceBinding
	Vertices   graphics.BufferProxy
	Indices    graphics.BufferProxy
	FirstIndex uint32
	IndexCount uint32
}

// Options configures a Renderer at construction.
type Options struct {
	Blend        graphics.BlendState
	TargetFormat graphics.TextureFormat
}

func DefaultOptions() Options {
	return Options{
		Blend:        graphics.DefaultBlendState(),
		TargetFormat: graphics.RGBA8Unorm,
	}
}
