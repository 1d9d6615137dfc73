package text

import (
	"unsafe"

	"honnef.co/go/curve"
	"honnef.co/go/safeish"

	"github.com/DavideCorradiDev/red-orango-engine/gfx"
	"github.com/DavideCorradiDev/red-orango-engine/graphics"
	"github.com/DavideCorradiDev/red-orango-engine/mem"
	"github.com/DavideCorradiDev/red-orango-engine/rmath"
)

// Renderer batches glyph draws for one frame. It shares the batching contract
// of the sprite renderer: Submit enqueues in O(1) and cannot fail, Flush emits
// one pipeline bind and one resource bind per run of consecutive draws sharing
// an atlas binding, preserving submission order.
type Renderer struct {
	pipeline *graphics.Pipeline
	queue    []drawRequest
}

type drawRequest struct {
	constants PushConstants
	glyph     GlyphDraw
}

func NewRenderer(opts Options) (*Renderer, error) {
	pipeline, err := graphics.NewPipeline(graphics.PipelineDescriptor{
		Shader: shaderSource(),
		VertexLayout: graphics.VertexLayout{
			Stride: uint64(unsafe.Sizeof(Vertex{})),
			Attributes: []graphics.VertexAttribute{
				{Location: 0, Offset: 0, Format: graphics.Float32x2},
				{Location: 1, Offset: 8, Format: graphics.Float32x3},
			},
		},
		BindingLayout: BindingLayout(),
		PushConstants: graphics.PushConstantLayout{
			Size:       uint32(unsafe.Sizeof(PushConstants{})),
			Visibility: graphics.StageVertex,
		},
		Blend:        opts.Blend,
		TargetFormat: opts.TargetFormat,
	})
	if err != nil {
		return nil, err
	}
	return &Renderer{pipeline: pipeline}, nil
}

// Pipeline returns the renderer's compiled pipeline.
func (r *Renderer) Pipeline() *graphics.Pipeline {
	return r.pipeline
}

// Submit enqueues one glyph draw. The glyph offset is applied to the quad in
// glyph-local space before the transform, so text lays out in the transform's
// source coordinate system.
func (r *Renderer) Submit(transform rmath.Mat4, glyphOffset rmath.Vec4, color gfx.Color, glyph GlyphDraw) {
	r.queue = append(r.queue, drawRequest{
		constants: PushConstants{
			Transform:   transform,
			GlyphOffset: glyphOffset.Array(),
			Color:       color.Vec4(),
		},
		glyph: glyph,
	})
}

// SubmitAffine is Submit with a 2D affine transform.
func (r *Renderer) SubmitAffine(transform curve.Affine, glyphOffset rmath.Vec4, color gfx.Color, glyph GlyphDraw) {
	r.Submit(rmath.FromAffine(transform), glyphOffset, color, glyph)
}

// DrawText shapes text with the font's shaper and submits one draw per shaped
// glyph. The pen starts at the transform's origin and advances per glyph;
// glyphs the font did not rasterize still advance the pen but draw nothing.
func (r *Renderer) DrawText(font *Font, s string, transform rmath.Mat4, color gfx.Color) {
	var cursor rmath.Vec4
	for _, g := range font.ShapeText(s) {
		if info, ok := font.Glyph(g.ID); ok {
			offset := cursor.Add(rmath.Vec4{
				X: info.Bearing[0] + g.Offset[0],
				Y: info.Bearing[1] + g.Offset[1],
			})
			r.Submit(transform, offset, color, GlyphDraw{
				Binding:    font.Binding(),
				Vertices:   font.VertexBuffer(),
				Indices:    font.IndexBuffer(),
				FirstIndex: info.FirstIndex,
				IndexCount: info.IndexCount,
			})
		}
		cursor.X += g.Advance[0]
		cursor.Y += g.Advance[1]
	}
}

// Flush drains the queue into a command stream. See Renderer.
func (r *Renderer) Flush(arena *mem.Arena) graphics.Recording {
	var rec graphics.Recording
	if len(r.queue) == 0 {
		return rec
	}
	rec.BindPipeline(arena, r.pipeline)
	var bound *graphics.ResourceBinding
	for i := range r.queue {
		req := &r.queue[i]
		if req.glyph.Binding != bound {
			rec.BindResources(arena, req.glyph.Binding)
			bound = req.glyph.Binding
		}
		constants := mem.MakeSlice(arena, safeish.AsBytes(&req.constants))
		rec.Draw(arena, req.glyph.Vertices, req.glyph.Indices, req.glyph.FirstIndex, req.glyph.IndexCount, constants)
	}
	clear(r.queue)
	r.queue = r.queue[:0]
	return rec
}
