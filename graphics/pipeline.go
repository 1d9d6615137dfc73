package graphics

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/naga"
)

// VertexInput is one vertex-stage input a shader declares.
type VertexInput struct {
	Location uint32
	Format   VertexFormat
}

// ShaderSource pairs WGSL with the interface the code declares: its
// vertex-stage inputs, its set-0 bindings, and the size of its per-draw
// constant block. Pipeline construction checks the declarations structurally
// against the supplied layouts, so a drifting shader fails fast instead of
// tripping backend validation at draw time.
type ShaderSource struct {
	Name string
	WGSL string

	Inputs           []VertexInput
	Bindings         []BindingSlot
	PushConstantSize uint32
}

// PipelineDescriptor fixes everything a pipeline needs at construction: the
// shader pair, the vertex layout, the descriptor-set layout, the per-draw
// constant block, blending, and the render-target format.
type PipelineDescriptor struct {
	Shader        ShaderSource
	VertexLayout  VertexLayout
	BindingLayout BindingLayout
	PushConstants PushConstantLayout
	Blend         BlendState
	TargetFormat  TextureFormat
}

var pipelineID atomic.Uint64

type PipelineID uint64

// Pipeline is a compiled shader pair bound to fixed layouts. It is created
// once, immutable, and shared read-only across draws and frames. The engine
// compiles and caches the GPU-side object per ID.
type Pipeline struct {
	ID   PipelineID
	Desc PipelineDescriptor
}

// NewPipeline validates desc and returns a pipeline proxy. The shader is
// compiled with naga to surface diagnostics now; the backend pipeline object is
// built lazily by the engine on first use.
func NewPipeline(desc PipelineDescriptor) (*Pipeline, error) {
	if err := checkShaderLayout(desc); err != nil {
		return nil, err
	}
	if _, err := naga.Compile(desc.Shader.WGSL); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrShaderCompile, desc.Shader.Name, err)
	}
	return &Pipeline{
		ID:   PipelineID(pipelineID.Add(1)),
		Desc: desc,
	}, nil
}

func checkShaderLayout(desc PipelineDescriptor) error {
	sh := desc.Shader
	if len(sh.Inputs) != len(desc.VertexLayout.Attributes) {
		return fmt.Errorf("%w: %s declares %d vertex inputs, layout supplies %d",
			ErrLayoutMismatch, sh.Name, len(sh.Inputs), len(desc.VertexLayout.Attributes))
	}
	for _, in := range sh.Inputs {
		attr, ok := attributeAt(desc.VertexLayout, in.Location)
		if !ok {
			return fmt.Errorf("%w: %s reads vertex input at location %d, which the layout does not supply",
				ErrLayoutMismatch, sh.Name, in.Location)
		}
		if attr.Format != in.Format {
			return fmt.Errorf("%w: %s expects %v at location %d, layout supplies %v",
				ErrLayoutMismatch, sh.Name, in.Format, in.Location, attr.Format)
		}
		if attr.Offset+attr.Format.Size() > desc.VertexLayout.Stride {
			return fmt.Errorf("%w: %s: attribute at location %d overruns the vertex stride",
				ErrLayoutMismatch, sh.Name, in.Location)
		}
	}

	if len(sh.Bindings) != len(desc.BindingLayout.Slots) {
		return fmt.Errorf("%w: %s declares %d bindings, layout supplies %d",
			ErrLayoutMismatch, sh.Name, len(sh.Bindings), len(desc.BindingLayout.Slots))
	}
	for _, b := range sh.Bindings {
		slot, ok := slotAt(desc.BindingLayout, b.Binding)
		if !ok {
			return fmt.Errorf("%w: %s reads binding %d, which the layout does not supply",
				ErrLayoutMismatch, sh.Name, b.Binding)
		}
		if slot.Kind != b.Kind {
			return fmt.Errorf("%w: %s: binding %d kind differs between shader and layout",
				ErrLayoutMismatch, sh.Name, b.Binding)
		}
		if b.Kind == BindingSampledTexture && slot.Dimension != b.Dimension {
			return fmt.Errorf("%w: %s samples a %v texture at binding %d, layout supplies %v",
				ErrLayoutMismatch, sh.Name, b.Dimension, b.Binding, slot.Dimension)
		}
	}

	if sh.PushConstantSize != desc.PushConstants.Size {
		return fmt.Errorf("%w: %s reads a %d byte constant block, layout supplies %d bytes",
			ErrLayoutMismatch, sh.Name, sh.PushConstantSize, desc.PushConstants.Size)
	}
	return nil
}

func attributeAt(l VertexLayout, location uint32) (VertexAttribute, bool) {
	for _, attr := range l.Attributes {
		if attr.Location == location {
			return attr, true
		}
	}
	return VertexAttribute{}, false
}

func slotAt(l BindingLayout, binding uint32) (BindingSlot, bool) {
	for _, s := range l.Slots {
		if s.Binding == binding {
			return s, true
		}
	}
	return BindingSlot{}, false
}
