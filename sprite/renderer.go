package sprite

import (
	"structs"
	"unsafe"

	"honnef.co/go/curve"
	"honnef.co/go/safeish"

	"github.com/DavideCorradiDev/red-orango-engine/gfx"
	"github.com/DavideCorradiDev/red-orango-engine/graphics"
	"github.com/DavideCorradiDev/red-orango-engine/mem"
	"github.com/DavideCorradiDev/red-orango-engine/rmath"
)

// PushConstants is the per-draw constant block the sprite shaders read:
// the placement transform followed by the tint color. It is an immutable value
// captured at Submit time.
type PushConstants struct {
	_ structs.HostLayout

	Transform rmath.Mat4
	Color     [4]float32
}

// Options configures a Renderer at construction.
type Options struct {
	// Mesh is the shared geometry drawn by every submit. Defaults to the unit
	// quad.
	Mesh         Mesh
	Blend        graphics.BlendState
	TargetFormat graphics.TextureFormat
}

func DefaultOptions() Options {
	return Options{
		Mesh:         UnitQuadMesh(),
		Blend:        graphics.DefaultBlendState(),
		TargetFormat: graphics.RGBA8Unorm,
	}
}

// BindingLayout is the descriptor-set layout sprite pipelines expect:
// binding 0 a sampled 2D texture, binding 1 a sampler, both fragment-visible.
func BindingLayout() graphics.BindingLayout {
	return graphics.BindingLayout{Slots: []graphics.BindingSlot{
		{Binding: 0, Kind: graphics.BindingSampledTexture, Visibility: graphics.StageFragment, Dimension: graphics.TextureD2},
		{Binding: 1, Kind: graphics.BindingSampler, Visibility: graphics.StageFragment},
	}}
}

// Renderer batches sprite draws for one frame. Submit enqueues; Flush turns
// the queue into a command stream. A Renderer is used from the frame's single
// draw-issuing thread.
type Renderer struct {
	pipeline   *graphics.Pipeline
	vertices   graphics.BufferProxy
	indices    graphics.BufferProxy
	indexCount uint32
	queue      []drawRequest
}

type drawRequest struct {
	constants PushConstants
	binding   *graphics.ResourceBinding
}

// NewRenderer compiles the sprite pipeline and records the shared geometry
// upload onto setup, which must run before the renderer's first flushed frame.
func NewRenderer(setup *graphics.Recording, arena *mem.Arena, opts Options) (*Renderer, error) {
	pipeline, err := graphics.NewPipeline(graphics.PipelineDescriptor{
		Shader: shaderSource(),
		VertexLayout: graphics.VertexLayout{
			Stride: uint64(unsafe.Sizeof(Vertex{})),
			Attributes: []graphics.VertexAttribute{
				{Location: 0, Offset: 0, Format: graphics.Float32x2},
				{Location: 1, Offset: 8, Format: graphics.Float32x2},
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

	mesh := opts.Mesh
	if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		mesh = UnitQuadMesh()
	}
	vertices := setup.Upload(arena, "sprite vertices", safeish.SliceCast[[]byte](mesh.Vertices))
	indices := setup.Upload(arena, "sprite indices", safeish.SliceCast[[]byte](mesh.Indices))

	return &Renderer{
		pipeline:   pipeline,
		vertices:   vertices,
		indices:    indices,
		indexCount: uint32(len(mesh.Indices)),
	}, nil
}

// Pipeline returns the renderer's compiled pipeline.
func (r *Renderer) Pipeline() *graphics.Pipeline {
	return r.pipeline
}

// NewBinding pairs a 2D texture with a sampler against the sprite binding
// layout.
func (r *Renderer) NewBinding(texture graphics.TextureProxy, sampler graphics.SamplerProxy) (*graphics.ResourceBinding, error) {
	return graphics.NewResourceBinding(texture, sampler, BindingLayout())
}

// Submit enqueues one sprite draw. No GPU work happens until Flush; the call
// only appends to the queue and cannot fail.
func (r *Renderer) Submit(transform rmath.Mat4, color gfx.Color, binding *graphics.ResourceBinding) {
	r.queue = append(r.queue, drawRequest{
		constants: PushConstants{
			Transform: transform,
			Color:     color.Vec4(),
		},
		binding: binding,
	})
}

// SubmitAffine is Submit with a 2D affine transform.
func (r *Renderer) SubmitAffine(transform curve.Affine, color gfx.Color, binding *graphics.ResourceBinding) {
	r.Submit(rmath.FromAffine(transform), color, binding)
}

// Flush drains the queue into a command stream: one pipeline bind, then one
// resource bind per run of consecutive draws sharing a binding, then one draw
// per request with its constant block. Submission order is preserved
// throughout; runs are never merged across a binding change. Flushing an empty
// queue returns an empty stream.
func (r *Renderer) Flush(arena *mem.Arena) graphics.Recording {
	var rec graphics.Recording
	if len(r.queue) == 0 {
		return rec
	}
	rec.BindPipeline(arena, r.pipeline)
	var bound *graphics.ResourceBinding
	for i := range r.queue {
		req := &r.queue[i]
		if req.binding != bound {
			rec.BindResources(arena, req.binding)
			bound = req.binding
		}
		constants := mem.MakeSlice(arena, safeish.AsBytes(&req.constants))
		rec.Draw(arena, r.vertices, r.indices, 0, r.indexCount, constants)
	}
	clear(r.queue)
	r.queue = r.queue[:0]
	return rec
}
