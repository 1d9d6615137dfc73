package graphics

import "fmt"

type VertexFormat int

const (
	Float32x2 VertexFormat = iota + 1
	Float32x3
	Float32x4
)

func (f VertexFormat) Size() uint64 {
	switch f {
	case Float32x2:
		return 8
	case Float32x3:
		return 12
	case Float32x4:
		return 16
	default:
		panic(fmt.Sprintf("unhandled vertex format %d", f))
	}
}

func (f VertexFormat) String() string {
	switch f {
	case Float32x2:
		return "float32x2"
	case Float32x3:
		return "float32x3"
	case Float32x4:
		return "float32x4"
	default:
		return fmt.Sprintf("VertexFormat(%d)", int(f))
	}
}

// VertexAttribute places one shader input within a vertex.
type VertexAttribute struct {
	Location uint32
	Offset   uint64
	Format   VertexFormat
}

// VertexLayout describes how a pipeline reads its vertex buffer.
type VertexLayout struct {
	Stride     uint64
	Attributes []VertexAttribute
}

type ShaderStage uint32

const (
	StageVertex ShaderStage = 1 << iota
	StageFragment
)

type TextureFormat int

const (
	RGBA8Unorm TextureFormat = iota + 1
	RGBA8UnormSrgb
	BGRA8Unorm
	R8Unorm
)

// BytesPerPixel returns the size of one texel.
func (f TextureFormat) BytesPerPixel() uint32 {
	switch f {
	case RGBA8Unorm, RGBA8UnormSrgb, BGRA8Unorm:
		return 4
	case R8Unorm:
		return 1
	default:
		panic(fmt.Sprintf("unhandled texture format %d", f))
	}
}

type TextureDimension int

const (
	// TextureD2 is a single 2D texture.
	TextureD2 TextureDimension = iota + 1
	// TextureD2Array is a layered 2D texture array.
	TextureD2Array
)

func (d TextureDimension) String() string {
	switch d {
	case TextureD2:
		return "2d"
	case TextureD2Array:
		return "2d-array"
	default:
		return fmt.Sprintf("TextureDimension(%d)", int(d))
	}
}

type BindingKind int

const (
	BindingSampledTexture BindingKind = iota + 1
	BindingSampler
)

// BindingSlot declares one entry of a pipeline's descriptor set. Dimension is
// meaningful only for sampled textures.
type BindingSlot struct {
	Binding    uint32
	Kind       BindingKind
	Visibility ShaderStage
	Dimension  TextureDimension
}

// BindingLayout declares the descriptor set a pipeline reads during draws. By
// convention binding 0 is the sampled texture and binding 1 the sampler.
type BindingLayout struct {
	Slots []BindingSlot
}

// textureSlot returns the layout's sampled-texture slot.
func (l BindingLayout) textureSlot() (BindingSlot, bool) {
	for _, s := range l.Slots {
		if s.Kind == BindingSampledTexture {
			return s, true
		}
	}
	return BindingSlot{}, false
}

func (l BindingLayout) samplerSlot() (BindingSlot, bool) {
	for _, s := range l.Slots {
		if s.Kind == BindingSampler {
			return s, true
		}
	}
	return BindingSlot{}, false
}

// PushConstantLayout describes the per-draw constant block a pipeline expects:
// its size in bytes and the stages that read it.
type PushConstantLayout struct {
	Size       uint32
	Visibility ShaderStage
}

type BlendFactor int

const (
	BlendZero BlendFactor = iota + 1
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
)

type BlendOperation int

const (
	BlendAdd BlendOperation = iota + 1
	BlendMax
)

type BlendComponent struct {
	SrcFactor BlendFactor
	DstFactor BlendFactor
	Operation BlendOperation
}

// BlendState controls how fragment output is combined with the render target.
type BlendState struct {
	Color BlendComponent
	Alpha BlendComponent
}

// DefaultBlendState is standard alpha compositing: straight-alpha color blend
// with the alpha channel accumulating towards opaque.
func DefaultBlendState() BlendState {
	return BlendState{
		Color: BlendComponent{
			SrcFactor: BlendSrcAlpha,
			DstFactor: BlendOneMinusSrcAlpha,
			Operation: BlendAdd,
		},
		Alpha: BlendComponent{
			SrcFactor: BlendOne,
			DstFactor: BlendOne,
			Operation: BlendMax,
		},
	}
}
