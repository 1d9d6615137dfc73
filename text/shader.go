package text

import (
	"unsafe"

	"github.com/DavideCorradiDev/red-orango-engine/graphics"
)

// The atlas stores coverage only; the fragment stage multiplies it against the
// draw color, so the texture never carries RGB.
const textWGSL = `
struct Constants {
    transform: mat4x4<f32>,
    glyph_offset: vec4<f32>,
    color: vec4<f32>,
};

@group(0) @binding(0) var atlas_texture: texture_2d_array<f32>;
@group(0) @binding(1) var atlas_sampler: sampler;
@group(1) @binding(0) var<uniform> constants: Constants;

struct VertexInput {
    @location(0) position: vec2<f32>,
    @location(1) tex_coords: vec3<f32>,
};

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec4<f32>,
    @location(1) tex_coords: vec3<f32>,
};

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = constants.transform * (vec4<f32>(in.position, 0.0, 1.0) + constants.glyph_offset);
    out.color = constants.color;
    out.tex_coords = in.tex_coords;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let coverage = textureSample(atlas_texture, atlas_sampler, in.tex_coords.xy, i32(in.tex_coords.z)).r;
    return in.color * coverage;
}
`

func shaderSource() graphics.ShaderSource {
	return graphics.ShaderSource{
		Name: "text",
		WGSL: textWGSL,
		Inputs: []graphics.VertexInput{
			{Location: 0, Format: graphics.Float32x2},
			{Location: 1, Format: graphics.Float32x3},
		},
		Bindings: []graphics.BindingSlot{
			{Binding: 0, Kind: graphics.BindingSampledTexture, Visibility: graphics.StageFragment, Dimension: graphics.TextureD2Array},
			{Binding: 1, Kind: graphics.BindingSampler, Visibility: graphics.StageFragment},
		},
		PushConstantSize: uint32(unsafe.Sizeof(PushConstants{})),
	}
}
