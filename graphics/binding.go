package graphics

import "fmt"

type FilterMode int

const (
	FilterNearest FilterMode = iota + 1
	FilterLinear
)

type AddressMode int

const (
	AddressClampToEdge AddressMode = iota + 1
	AddressRepeat
)

// SamplerDescriptor is a value key: two samplers with equal descriptors are
// interchangeable, and the engine dedupes them.
type SamplerDescriptor struct {
	MinFilter   FilterMode
	MagFilter   FilterMode
	AddressMode AddressMode
}

func DefaultSamplerDescriptor() SamplerDescriptor {
	return SamplerDescriptor{
		MinFilter:   FilterLinear,
		MagFilter:   FilterLinear,
		AddressMode: AddressClampToEdge,
	}
}

type SamplerProxy struct {
	Desc SamplerDescriptor
	ID   ResourceID
}

func NewSampler(desc SamplerDescriptor) SamplerProxy {
	return SamplerProxy{Desc: desc, ID: nextResourceID()}
}

// ResourceBinding pairs one sampled texture with one sampler, matched against a
// pipeline's binding layout. It is immutable; binding different resources means
// constructing a new one. The underlying texture must outlive every submission
// that references the binding.
type ResourceBinding struct {
	Texture TextureProxy
	Sampler SamplerProxy
	Layout  BindingLayout
}

// NewResourceBinding checks texture and sampler against the layout's declared
// slots. Dimensionality must match: a single 2D slot takes exactly one layer, a
// 2D-array slot takes one or more.
func NewResourceBinding(texture TextureProxy, sampler SamplerProxy, layout BindingLayout) (*ResourceBinding, error) {
	slot, ok := layout.textureSlot()
	if !ok {
		return nil, fmt.Errorf("%w: layout declares no sampled-texture slot", ErrBindingLayout)
	}
	if texture.Dimension != slot.Dimension {
		return nil, fmt.Errorf("%w: binding %d wants a %v texture, got %v",
			ErrBindingLayout, slot.Binding, slot.Dimension, texture.Dimension)
	}
	if _, ok := layout.samplerSlot(); !ok {
		return nil, fmt.Errorf("%w: layout declares no sampler slot", ErrBindingLayout)
	}
	return &ResourceBinding{
		Texture: texture,
		Sampler: sampler,
		Layout:  layout,
	}, nil
}
