package graphics

import (
	"errors"
	"testing"
)

const testWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
};

@vertex
fn vs_main(@location(0) position: vec2<f32>) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(position, 0.0, 1.0);
    return out;
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 1.0, 1.0, 1.0);
}
`

func testDescriptor() PipelineDescriptor {
	return PipelineDescriptor{
		Shader: ShaderSource{
			Name:   "test",
			WGSL:   testWGSL,
			Inputs: []VertexInput{{Location: 0, Format: Float32x2}},
		},
		VertexLayout: VertexLayout{
			Stride:     8,
			Attributes: []VertexAttribute{{Location: 0, Offset: 0, Format: Float32x2}},
		},
		Blend:        DefaultBlendState(),
		TargetFormat: RGBA8Unorm,
	}
}

func TestNewPipeline(t *testing.T) {
	p, err := NewPipeline(testDescriptor())
	if err != nil {
		if errors.Is(err, ErrShaderCompile) {
			t.Skipf("shader compiler limitation: %v", err)
		}
		t.Fatal(err)
	}
	if p.ID == 0 {
		t.Error("pipeline has zero ID")
	}
	p2, err := NewPipeline(testDescriptor())
	if err != nil {
		t.Fatal(err)
	}
	if p.ID == p2.ID {
		t.Error("distinct pipelines share an ID")
	}
}

func TestNewPipelineLayoutMismatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PipelineDescriptor)
	}{
		{
			"missing attribute",
			func(d *PipelineDescriptor) {
				d.Shader.Inputs = append(d.Shader.Inputs, VertexInput{Location: 1, Format: Float32x2})
				d.VertexLayout.Attributes = append(d.VertexLayout.Attributes, VertexAttribute{Location: 2, Offset: 8, Format: Float32x2})
				d.VertexLayout.Stride = 16
			},
		},
		{
			"attribute count",
			func(d *PipelineDescriptor) {
				d.VertexLayout.Attributes = append(d.VertexLayout.Attributes, VertexAttribute{Location: 1, Offset: 8, Format: Float32x2})
				d.VertexLayout.Stride = 16
			},
		},
		{
			"format",
			func(d *PipelineDescriptor) {
				d.VertexLayout.Attributes[0].Format = Float32x3
				d.VertexLayout.Stride = 12
			},
		},
		{
			"stride overrun",
			func(d *PipelineDescriptor) {
				d.VertexLayout.Stride = 4
			},
		},
		{
			"binding count",
			func(d *PipelineDescriptor) {
				d.BindingLayout.Slots = []BindingSlot{
					{Binding: 0, Kind: BindingSampledTexture, Visibility: StageFragment, Dimension: TextureD2},
				}
			},
		},
		{
			"binding kind",
			func(d *PipelineDescriptor) {
				d.Shader.Bindings = []BindingSlot{
					{Binding: 0, Kind: BindingSampledTexture, Dimension: TextureD2},
				}
				d.BindingLayout.Slots = []BindingSlot{
					{Binding: 0, Kind: BindingSampler},
				}
			},
		},
		{
			"texture dimension",
			func(d *PipelineDescriptor) {
				d.Shader.Bindings = []BindingSlot{
					{Binding: 0, Kind: BindingSampledTexture, Dimension: TextureD2Array},
				}
				d.BindingLayout.Slots = []BindingSlot{
					{Binding: 0, Kind: BindingSampledTexture, Dimension: TextureD2},
				}
			},
		},
		{
			"constant size",
			func(d *PipelineDescriptor) {
				d.Shader.PushConstantSize = 80
				d.PushConstants = PushConstantLayout{Size: 96, Visibility: StageVertex}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := testDescriptor()
			tt.mutate(&desc)
			_, err := NewPipeline(desc)
			if !errors.Is(err, ErrLayoutMismatch) {
				t.Errorf("got %v, want ErrLayoutMismatch", err)
			}
		})
	}
}

func TestNewPipelineShaderCompileError(t *testing.T) {
	desc := testDescriptor()
	desc.Shader.WGSL = "@vertex fn vs_main( -> {"
	_, err := NewPipeline(desc)
	if !errors.Is(err, ErrShaderCompile) {
		t.Errorf("got %v, want ErrShaderCompile", err)
	}
}

func TestNewResourceBinding(t *testing.T) {
	layout2D := BindingLayout{Slots: []BindingSlot{
		{Binding: 0, Kind: BindingSampledTexture, Visibility: StageFragment, Dimension: TextureD2},
		{Binding: 1, Kind: BindingSampler, Visibility: StageFragment},
	}}
	layoutArray := BindingLayout{Slots: []BindingSlot{
		{Binding: 0, Kind: BindingSampledTexture, Visibility: StageFragment, Dimension: TextureD2Array},
		{Binding: 1, Kind: BindingSampler, Visibility: StageFragment},
	}}
	tex2D := NewTextureProxy(64, 64, RGBA8Unorm)
	texArray := NewTextureArrayProxy(32, 32, 8, R8Unorm)
	sampler := NewSampler(DefaultSamplerDescriptor())

	if _, err := NewResourceBinding(tex2D, sampler, layout2D); err != nil {
		t.Errorf("2d texture against 2d layout: %v", err)
	}
	if _, err := NewResourceBinding(texArray, sampler, layoutArray); err != nil {
		t.Errorf("array texture against array layout: %v", err)
	}
	if _, err := NewResourceBinding(tex2D, sampler, layoutArray); !errors.Is(err, ErrBindingLayout) {
		t.Errorf("2d texture against array layout: got %v, want ErrBindingLayout", err)
	}
	if _, err := NewResourceBinding(texArray, sampler, layout2D); !errors.Is(err, ErrBindingLayout) {
		t.Errorf("array texture against 2d layout: got %v, want ErrBindingLayout", err)
	}

	noTexture := BindingLayout{Slots: []BindingSlot{{Binding: 1, Kind: BindingSampler}}}
	if _, err := NewResourceBinding(tex2D, sampler, noTexture); !errors.Is(err, ErrBindingLayout) {
		t.Errorf("layout without texture slot: got %v, want ErrBindingLayout", err)
	}
	noSampler := BindingLayout{Slots: []BindingSlot{{Binding: 0, Kind: BindingSampledTexture, Dimension: TextureD2}}}
	if _, err := NewResourceBinding(tex2D, sampler, noSampler); !errors.Is(err, ErrBindingLayout) {
		t.Errorf("layout without sampler slot: got %v, want ErrBindingLayout", err)
	}
}
