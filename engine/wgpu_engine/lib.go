// Package wgpu_engine executes graphics recordings on a wgpu device. It owns
// every real GPU object: compiled render pipelines (cached per pipeline ID),
// samplers (deduplicated by descriptor), buffers and textures materialized for
// proxies, the per-frame uniform ring that realizes per-draw constants, and the
// frame fence. Everything above this package deals in proxies only.
package wgpu_engine

import (
	"fmt"

	"github.com/DavideCorradiDev/red-orango-engine/graphics"
	"honnef.co/go/wgpu"
)

type Options struct {
	// Profiler enables GPU timestamp profiling. When false, profiler calls
	// are no-ops.
	Profiler bool
}

type Engine struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	pipelines map[graphics.PipelineID]*renderPipeline
	samplers  map[graphics.SamplerDescriptor]*wgpu.Sampler
	bindMap   bindMap
	pool      resourcePool
	uniforms  uniformRing
	profiler  *Profiler

	fence   *wgpu.Buffer
	fenceCh <-chan error
}

const fenceSize = 16

func New(dev *wgpu.Device, queue *wgpu.Queue, options *Options) *Engine {
	if options == nil {
		options = &Options{}
	}
	eng := &Engine{
		Device:    dev,
		Queue:     queue,
		pipelines: make(map[graphics.PipelineID]*renderPipeline),
		samplers:  make(map[graphics.SamplerDescriptor]*wgpu.Sampler),
		bindMap: bindMap{
			buffers:  make(map[graphics.ResourceID]*wgpu.Buffer),
			textures: make(map[graphics.ResourceID]*boundTexture),
		},
		pool: resourcePool{
			bufs: make(map[bufferProperties][]*wgpu.Buffer),
		},
	}
	eng.uniforms.init(dev)
	if options.Profiler {
		eng.profiler = NewProfiler(dev)
	} else {
		eng.profiler = NewNopProfiler()
	}
	eng.fence = dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "frame fence",
		Size:  fenceSize,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	slogger().Debug("engine created", "profiler", options.Profiler)
	return eng
}

func (eng *Engine) Profiler() *Profiler {
	return eng.profiler
}

// BeginFrame blocks until the GPU has retired the previous frame, then starts
// a profiler group for the new one. Renderers never see this wait; pacing is
// the engine's alone.
func (eng *Engine) BeginFrame(tag uint64) (*ProfilerGroup, error) {
	if eng.fenceCh != nil {
		err := <-eng.fenceCh
		eng.fenceCh = nil
		eng.fence.Unmap()
		if err != nil {
			return nil, fmt.Errorf("%w: waiting for previous frame: %v", graphics.ErrDevice, err)
		}
	}
	return eng.profiler.Start(tag), nil
}

// EndFrame closes the frame's profiler group, resolves its queries, and arms
// the frame fence. The fence is a map-buffer round trip: a small buffer is
// cleared at the tail of the frame's GPU work and mapped for reading; the map
// completes only once the queue has caught up.
func (eng *Engine) EndFrame(pgroup *ProfilerGroup) {
	pgroup.End()
	encoder := eng.Device.CreateCommandEncoder(nil)
	encoder.ClearBuffer(eng.fence, 0, fenceSize)
	eng.profiler.Resolve(encoder)
	cmd := encoder.Finish(nil)
	encoder.Release()
	eng.Queue.Submit(cmd)
	cmd.Release()
	eng.profiler.Map()
	eng.fenceCh = eng.fence.Map(eng.Device, wgpu.MapModeRead, 0, fenceSize)
}

// Release frees every GPU object the engine owns. The engine must not be used
// afterwards. Proxies created against the engine become dangling.
func (eng *Engine) Release() {
	if eng.fenceCh != nil {
		<-eng.fenceCh
		eng.fence.Unmap()
		eng.fenceCh = nil
	}
	eng.fence.Release()
	for _, rp := range eng.pipelines {
		rp.pipeline.Release()
		rp.bindLayout.Release()
	}
	clear(eng.pipelines)
	for _, s := range eng.samplers {
		s.Release()
	}
	clear(eng.samplers)
	eng.bindMap.release()
	eng.pool.release()
	eng.uniforms.release()
	slogger().Debug("engine released")
}

type renderPipeline struct {
	pipeline     *wgpu.RenderPipeline
	bindLayout   *wgpu.BindGroupLayout
	constantSize uint32
}

// realizePipeline returns the compiled GPU pipeline for p, building it on
// first use. Construction-time validation already ran in graphics.NewPipeline,
// so realization is unconditional.
func (eng *Engine) realizePipeline(p *graphics.Pipeline) *renderPipeline {
	if rp, ok := eng.pipelines[p.ID]; ok {
		return rp
	}
	desc := p.Desc

	module := eng.Device.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  desc.Shader.Name,
		Source: wgpu.ShaderSourceWGSL(desc.Shader.WGSL),
	})

	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.BindingLayout.Slots))
	for i, slot := range desc.BindingLayout.Slots {
		switch slot.Kind {
		case graphics.BindingSampledTexture:
			entries[i] = wgpu.BindGroupLayoutEntry{
				Binding:    slot.Binding,
				Visibility: shaderStagesToWGPU(slot.Visibility),
				Texture: &wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: dimensionToWGPU(slot.Dimension),
					Multisampled:  false,
				},
			}
		case graphics.BindingSampler:
			entries[i] = wgpu.BindGroupLayoutEntry{
				Binding:    slot.Binding,
				Visibility: shaderStagesToWGPU(slot.Visibility),
				Sampler: &wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			}
		default:
			panic(fmt.Sprintf("unhandled binding kind %d", slot.Kind))
		}
	}
	bindLayout := eng.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: entries,
	})
	pipelineLayout := eng.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Shader.Name,
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindLayout, eng.uniforms.layout},
	})

	attrs := make([]wgpu.VertexAttribute, len(desc.VertexLayout.Attributes))
	for i, attr := range desc.VertexLayout.Attributes {
		attrs[i] = wgpu.VertexAttribute{
			Format:         vertexFormatToWGPU(attr.Format),
			Offset:         attr.Offset,
			ShaderLocation: attr.Location,
		}
	}

	pipeline := eng.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Shader.Name,
		Layout: pipelineLayout,
		Vertex: &wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: desc.VertexLayout.Stride,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes:  attrs,
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    textureFormatToWGPU(desc.TargetFormat),
					Blend:     blendToWGPU(desc.Blend),
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: &wgpu.PrimitiveState{
			Topology:         wgpu.PrimitiveTopologyTriangleList,
			StripIndexFormat: ^wgpu.IndexFormat(0),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeBack,
		},
		Multisample: &wgpu.MultisampleState{
			Count:                  1,
			Mask:                   ^uint32(0),
			AlphaToCoverageEnabled: false,
		},
	})
	pipelineLayout.Release()
	module.Release()

	rp := &renderPipeline{
		pipeline:     pipeline,
		bindLayout:   bindLayout,
		constantSize: desc.PushConstants.Size,
	}
	eng.pipelines[p.ID] = rp
	slogger().Debug("pipeline realized", "name", desc.Shader.Name, "id", uint64(p.ID))
	return rp
}

// sampler returns the GPU sampler for desc, deduplicating by value.
func (eng *Engine) sampler(desc graphics.SamplerDescriptor) *wgpu.Sampler {
	if s, ok := eng.samplers[desc]; ok {
		return s
	}
	s := eng.Device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  addressModeToWGPU(desc.AddressMode),
		AddressModeV:  addressModeToWGPU(desc.AddressMode),
		AddressModeW:  addressModeToWGPU(desc.AddressMode),
		MagFilter:     filterToWGPU(desc.MagFilter),
		MinFilter:     filterToWGPU(desc.MinFilter),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LODMinClamp:   0,
		LODMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	eng.samplers[desc] = s
	return s
}

func shaderStagesToWGPU(s graphics.ShaderStage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&graphics.StageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&graphics.StageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

func textureFormatToWGPU(f graphics.TextureFormat) wgpu.TextureFormat {
	switch f {
	case graphics.RGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case graphics.RGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case graphics.BGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case graphics.R8Unorm:
		return wgpu.TextureFormatR8Unorm
	default:
		panic(fmt.Sprintf("unhandled texture format %d", f))
	}
}

func vertexFormatToWGPU(f graphics.VertexFormat) wgpu.VertexFormat {
	switch f {
	case graphics.Float32x2:
		return wgpu.VertexFormatFloat32x2
	case graphics.Float32x3:
		return wgpu.VertexFormatFloat32x3
	case graphics.Float32x4:
		return wgpu.VertexFormatFloat32x4
	default:
		panic(fmt.Sprintf("unhandled vertex format %d", f))
	}
}

func dimensionToWGPU(d graphics.TextureDimension) wgpu.TextureViewDimension {
	switch d {
	case graphics.TextureD2:
		return wgpu.TextureViewDimension2D
	case graphics.TextureD2Array:
		return wgpu.TextureViewDimension2DArray
	default:
		panic(fmt.Sprintf("unhandled texture dimension %d", d))
	}
}

func blendFactorToWGPU(f graphics.BlendFactor) wgpu.BlendFactor {
	switch f {
	case graphics.BlendZero:
		return wgpu.BlendFactorZero
	case graphics.BlendOne:
		return wgpu.BlendFactorOne
	case graphics.BlendSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case graphics.BlendOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	default:
		panic(fmt.Sprintf("unhandled blend factor %d", f))
	}
}

func blendOperationToWGPU(op graphics.BlendOperation) wgpu.BlendOperation {
	switch op {
	case graphics.BlendAdd:
		return wgpu.BlendOperationAdd
	case graphics.BlendMax:
		return wgpu.BlendOperationMax
	default:
		panic(fmt.Sprintf("unhandled blend operation %d", op))
	}
}

func blendToWGPU(b graphics.BlendState) *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: blendFactorToWGPU(b.Color.SrcFactor),
			DstFactor: blendFactorToWGPU(b.Color.DstFactor),
			Operation: blendOperationToWGPU(b.Color.Operation),
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: blendFactorToWGPU(b.Alpha.SrcFactor),
			DstFactor: blendFactorToWGPU(b.Alpha.DstFactor),
			Operation: blendOperationToWGPU(b.Alpha.Operation),
		},
	}
}

func filterToWGPU(f graphics.FilterMode) wgpu.FilterMode {
	switch f {
	case graphics.FilterNearest:
		return wgpu.FilterModeNearest
	case graphics.FilterLinear:
		return wgpu.FilterModeLinear
	default:
		panic(fmt.Sprintf("unhandled filter mode %d", f))
	}
}

func addressModeToWGPU(m graphics.AddressMode) wgpu.AddressMode {
	switch m {
	case graphics.AddressClampToEdge:
		return wgpu.AddressModeClampToEdge
	case graphics.AddressRepeat:
		return wgpu.AddressModeRepeat
	default:
		panic(fmt.Sprintf("unhandled address mode %d", m))
	}
}
