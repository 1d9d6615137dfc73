package sprite

import (
	"unsafe"

	"github.com/DavideCorradiDev/red-orango-engine/graphics"
)

const spriteWGSL = `
struct Constants {
    transform: mat4x4<f32>,
    color: vec4<f32>,
};

@group(0) @binding(0) var color_texture: texture_2d<f32>;
@group(0) @binding(1) var color_sampler: sampler;
@group(1) @binding(0) var<uniform> constants: Constants;

struct VertexInput {
    @location(0) position: vec2<f32>,
    @location(1) tex_coords: vec2<f32>,
};

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
    @location(1) tex_coords: vec2<f32>,
};

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = constants.transform * vec4<f32>(in.position, 0.0, 1.0);
    out.color = constants.color;
    out.tex_coords = in.tex_coords;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return in.color * textureSample(color_texture, color_sampler, in.tex_coords);
}
`

func shaderSource() graphics.ShaderSource {
	return graphics.ShaderSource{
		Name: "sprite",
		WGSL: spriteWGSL,
		Inputs: []graphics.VertexInput{
			{Location: 0, Format: graphics.Float32x2},
			{Location: 1, Format: graphics.Float32x2},
		},
		Bindings: []graphics.BindingSlot{
			{Binding: 0, Kind: graphics.BindingSampledTexture, Visibility: graphics.StageFragment, Dimension: graphics.TextureD2},
			{Binding: 1, Kind: graphics.BindingSampler, Visibility: graphics.StageFragment},
		},
		PushConstantSize: uint32(unsafe.Sizeof(PushConstants{})),
	}
}
