package wgpu_engine

// OPT reuse bind groups across frames for bindings that recur

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/DavideCorradiDev/red-orango-engine/graphics"
	"github.com/DavideCorradiDev/red-orango-engine/mem"
	"honnef.co/go/wgpu"
)

const wholeSize = ^uint64(0)

// ExternalResource is one of ExternalBuffer and ExternalTexture. Externals
// stand in for proxies whose GPU objects the caller owns, most commonly the
// surface texture a frame renders to.
type ExternalResource interface {
	isExternalResource()
}

type ExternalBuffer struct {
	Proxy  graphics.BufferProxy
	Buffer *wgpu.Buffer
}

type ExternalTexture struct {
	Proxy graphics.TextureProxy
	View  *wgpu.TextureView
}

func (ExternalBuffer) isExternalResource()  {}
func (ExternalTexture) isExternalResource() {}

type boundTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

// bindMap tracks the GPU objects materialized for proxies. It persists across
// frames: mesh buffers and glyph atlases are uploaded once and referenced by
// every later recording.
type bindMap struct {
	buffers  map[graphics.ResourceID]*wgpu.Buffer
	textures map[graphics.ResourceID]*boundTexture
}

func (m *bindMap) release() {
	for _, buf := range m.buffers {
		buf.Release()
	}
	clear(m.buffers)
	for _, tex := range m.textures {
		tex.texture.Release()
		tex.view.Release()
	}
	clear(m.textures)
}

// transientBindMap overlays caller-owned externals for the duration of one
// recording. It lives in the frame arena.
type transientBindMap struct {
	bufs  mem.SortedMap[graphics.ResourceID, *wgpu.Buffer]
	views mem.SortedMap[graphics.ResourceID, *wgpu.TextureView]
}

func newTransientBindMap(arena *mem.Arena, externalResources []ExternalResource) transientBindMap {
	var m transientBindMap
	for _, res := range externalResources {
		switch res := res.(type) {
		case ExternalBuffer:
			m.bufs.Insert(arena, res.Proxy.ID, res.Buffer)
		case ExternalTexture:
			m.views.Insert(arena, res.Proxy.ID, res.View)
		default:
			panic(fmt.Sprintf("unhandled external resource %T", res))
		}
	}
	return m
}

type bufferProperties struct {
	size   uint64
	usages wgpu.BufferUsage
}

type resourcePool struct {
	bufs map[bufferProperties][]*wgpu.Buffer
}

func (pool *resourcePool) getBuf(
	size uint64,
	name string,
	usage wgpu.BufferUsage,
	dev *wgpu.Device,
) *wgpu.Buffer {
	const sizeClassBits = 1

	roundedSize := poolSizeClass(size, sizeClassBits)
	props := bufferProperties{
		size:   roundedSize,
		usages: usage,
	}
	if bufVec, ok := pool.bufs[props]; ok {
		if len(bufVec) > 0 {
			buf := bufVec[len(bufVec)-1]
			bufVec = bufVec[:len(bufVec)-1]
			pool.bufs[props] = bufVec
			return buf
		}
	}
	return dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: name,
		Size:  roundedSize,
		Usage: usage,
	})
}

func (pool *resourcePool) returnBuf(buf *wgpu.Buffer) {
	props := bufferProperties{
		size:   buf.Size(),
		usages: buf.Usage(),
	}
	pool.bufs[props] = append(pool.bufs[props], buf)
}

func (pool *resourcePool) release() {
	for _, bufVec := range pool.bufs {
		for _, buf := range bufVec {
			buf.Release()
		}
	}
	clear(pool.bufs)
}

// poolSizeClass rounds x up to the next power-of-two size class with numBits
// bits of mantissa, so buffers of similar size share pool entries.
func poolSizeClass(x uint64, numBits uint32) uint64 {
	if x > 1<<numBits {
		a := bits.LeadingZeros64(x - 1)
		b := (x - 1) | (((math.MaxUint64 / 2) >> numBits) >> a)
		return b + 1
	} else {
		return 1 << numBits
	}
}

// uniformSlotSize is the stride between per-draw constant blocks in the
// uniform ring. 256 is the most common value of
// minUniformBufferOffsetAlignment, and no constant block exceeds it.
const uniformSlotSize = 256

// maxUniformBytes caps the per-frame constant ring.
const maxUniformBytes = 1 << 26

// uniformRing realizes per-draw constants: one uniform buffer per engine,
// bound at group 1 with a dynamic offset. Each draw owns one slot; the whole
// frame's constants are staged CPU-side and written with a single WriteBuffer
// before submission.
type uniformRing struct {
	layout *wgpu.BindGroupLayout
	buf    *wgpu.Buffer
	group  *wgpu.BindGroup
	size   uint64
	staged []byte
}

func (r *uniformRing) init(dev *wgpu.Device) {
	r.layout = dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: &wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   0,
				},
			},
		},
	})
}

// ensure grows the ring to hold draws slots. Growing reallocates the buffer
// and bind group, so it must happen before any draw of the frame is encoded.
func (r *uniformRing) ensure(dev *wgpu.Device, draws int) error {
	need := uint64(draws) * uniformSlotSize
	if need > maxUniformBytes {
		return fmt.Errorf("%w: frame needs %d bytes of per-draw constants, limit is %d",
			graphics.ErrResourceExhausted, need, maxUniformBytes)
	}
	if need > r.size {
		newSize := max(r.size*2, need, 64*uniformSlotSize)
		if r.buf != nil {
			r.buf.Release()
			r.group.Release()
		}
		r.buf = dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "per-draw constants",
			Size:  newSize,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		r.group = dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: r.layout,
			Entries: []wgpu.BindGroupEntry{
				{
					Binding: 0,
					Buffer:  r.buf,
					Size:    uniformSlotSize,
				},
			},
		})
		r.size = newSize
	}
	if uint64(cap(r.staged)) < need {
		r.staged = make([]byte, need)
	}
	r.staged = r.staged[:cap(r.staged)]
	return nil
}

// stage copies one draw's constants into its slot and returns the slot's
// dynamic offset.
func (r *uniformRing) stage(draw int, constants []byte) uint32 {
	offset := draw * uniformSlotSize
	copy(r.staged[offset:offset+uniformSlotSize], constants)
	return uint32(offset)
}

func (r *uniformRing) release() {
	if r.buf != nil {
		r.buf.Release()
		r.group.Release()
		r.buf = nil
		r.group = nil
		r.size = 0
	}
	r.layout.Release()
}

// RunRecording encodes recording into a single command encoder and submits it.
// Commands execute in recording order; each draw's constant block is written
// to its own uniform slot before the submission that consumes it. Resources
// freed by the recording are recycled after submit.
func (eng *Engine) RunRecording(
	arena *mem.Arena,
	recording *graphics.Recording,
	externalResources []ExternalResource,
	label string,
	pgroup *ProfilerGroup,
) error {
	pgroup = pgroup.Nest("RunRecording")
	defer pgroup.End()

	draws := 0
	for _, cmd := range recording.Commands {
		if _, ok := cmd.(*graphics.Draw); ok {
			draws++
		}
	}
	if err := eng.uniforms.ensure(eng.Device, draws); err != nil {
		return err
	}

	transientMap := newTransientBindMap(arena, externalResources)
	var freeBufs, freeTextures mem.SortedMap[graphics.ResourceID, struct{}]
	var frameGroups []*wgpu.BindGroup

	encoder := eng.Device.CreateCommandEncoder(mem.Make(arena, wgpu.CommandEncoderDescriptor{Label: label}))
	span := pgroup.Begin(encoder, "total")

	var pass *wgpu.RenderPassEncoder
	var pipeline *renderPipeline
	draw := 0

	for _, cmd := range recording.Commands {
		switch cmd := cmd.(type) {
		case *graphics.Upload:
			usage := wgpu.BufferUsageVertex | wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
			buf := eng.pool.getBuf(cmd.Buffer.Size, cmd.Buffer.Name, usage, eng.Device)
			eng.Queue.WriteBuffer(buf, 0, cmd.Data)
			eng.bindMap.buffers[cmd.Buffer.ID] = buf

		case *graphics.UploadTexture:
			tex := eng.createTexture(arena, cmd.Texture)
			if len(cmd.Data) > 0 {
				eng.writeTexture(arena, tex.texture, cmd.Texture, [4]uint32{0, 0, cmd.Texture.Width, cmd.Texture.Height}, 0, cmd.Texture.Layers, cmd.Data)
			}
			eng.bindMap.textures[cmd.Texture.ID] = tex

		case *graphics.WriteTexture:
			tex, ok := eng.bindMap.textures[cmd.Texture.ID]
			if !ok {
				panic("tried writing to an unavailable texture")
			}
			eng.writeTexture(arena, tex.texture, cmd.Texture, cmd.Coords, cmd.Layer, 1, cmd.Data)

		case *graphics.BeginRenderPass:
			if pass != nil {
				panic("tried to begin a render pass inside a render pass")
			}
			view := eng.targetView(&transientMap, cmd.Target)
			attachment := wgpu.RenderPassColorAttachment{
				View:    view,
				StoreOp: wgpu.StoreOpStore,
			}
			switch cmd.Load {
			case graphics.LoadClear:
				attachment.LoadOp = wgpu.LoadOpClear
				attachment.ClearValue = wgpu.Color{
					R: float64(cmd.ClearColor[0]),
					G: float64(cmd.ClearColor[1]),
					B: float64(cmd.ClearColor[2]),
					A: float64(cmd.ClearColor[3]),
				}
			case graphics.LoadKeep:
				attachment.LoadOp = wgpu.LoadOpLoad
			default:
				panic(fmt.Sprintf("unhandled load op %d", cmd.Load))
			}
			pass = encoder.BeginRenderPass(mem.Make(arena, wgpu.RenderPassDescriptor{
				ColorAttachments: mem.Varargs(arena, attachment),
				TimestampWrites:  pgroup.Render(arena, label),
			}))
			pipeline = nil

		case *graphics.EndRenderPass:
			if pass == nil {
				panic("tried to end a render pass with none open")
			}
			pass.End()
			pass.Release()
			pass = nil
			pipeline = nil

		case *graphics.BindPipeline:
			if pass == nil {
				panic("tried to bind a pipeline outside a render pass")
			}
			pipeline = eng.realizePipeline(cmd.Pipeline)
			pass.SetPipeline(pipeline.pipeline)

		case *graphics.BindResources:
			if pipeline == nil {
				panic("tried to bind resources with no bound pipeline")
			}
			group := eng.createBindGroup(arena, &transientMap, pipeline, cmd.Binding)
			pass.SetBindGroup(0, group, nil)
			frameGroups = append(frameGroups, group)

		case *graphics.Draw:
			if pipeline == nil {
				panic("tried to draw with no bound pipeline")
			}
			offset := eng.uniforms.stage(draw, cmd.Constants)
			draw++
			pass.SetBindGroup(1, eng.uniforms.group, mem.Varargs(arena, offset))
			vbuf := eng.lookupBuf(&transientMap, cmd.Vertices)
			ibuf := eng.lookupBuf(&transientMap, cmd.Indices)
			pass.SetVertexBuffer(0, vbuf, 0, wholeSize)
			pass.SetIndexBuffer(ibuf, wgpu.IndexFormatUint16, 0, wholeSize)
			pass.DrawIndexed(cmd.IndexCount, 1, cmd.FirstIndex, 0, 0)

		case *graphics.FreeBuffer:
			freeBufs.Insert(arena, cmd.Buffer.ID, struct{}{})

		case *graphics.FreeTexture:
			freeTextures.Insert(arena, cmd.Texture.ID, struct{}{})

		default:
			panic(fmt.Sprintf("unhandled command %T", cmd))
		}
	}
	if pass != nil {
		panic("recording ended inside an open render pass")
	}

	if draws > 0 {
		eng.Queue.WriteBuffer(eng.uniforms.buf, 0, eng.uniforms.staged[:draws*uniformSlotSize])
	}

	span.End(encoder)
	cmd := encoder.Finish(nil)
	encoder.Release()
	eng.Queue.Submit(cmd)
	cmd.Release()

	for _, group := range frameGroups {
		group.Release()
	}

	for id := range freeBufs.All() {
		if buf, ok := eng.bindMap.buffers[id]; ok {
			delete(eng.bindMap.buffers, id)
			eng.pool.returnBuf(buf)
		}
	}
	for id := range freeTextures.All() {
		if tex, ok := eng.bindMap.textures[id]; ok {
			delete(eng.bindMap.textures, id)
			// TODO: have a pool to avoid needless re-allocation
			tex.texture.Release()
			tex.view.Release()
		}
	}
	return nil
}

func (eng *Engine) createTexture(arena *mem.Arena, proxy graphics.TextureProxy) *boundTexture {
	format := textureFormatToWGPU(proxy.Format)
	texture := eng.Device.CreateTexture(mem.Make(arena, wgpu.TextureDescriptor{
		Size: wgpu.Extent3D{
			Width:              proxy.Width,
			Height:             proxy.Height,
			DepthOrArrayLayers: proxy.Layers,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageRenderAttachment,
		Format:        format,
	}))
	view := texture.CreateView(mem.Make(arena, wgpu.TextureViewDescriptor{
		Dimension:       dimensionToWGPU(proxy.Dimension),
		Aspect:          wgpu.TextureAspectAll,
		MipLevelCount:   ^uint32(0),
		ArrayLayerCount: ^uint32(0),
		BaseMipLevel:    0,
		BaseArrayLayer:  0,
		Format:          format,
	}))
	return &boundTexture{texture: texture, view: view}
}

func (eng *Engine) writeTexture(
	arena *mem.Arena,
	texture *wgpu.Texture,
	proxy graphics.TextureProxy,
	coords [4]uint32,
	layer uint32,
	layers uint32,
	data []byte,
) {
	width := coords[2]
	height := coords[3]
	eng.Queue.WriteTexture(
		mem.Make(arena, wgpu.ImageCopyTexture{
			Texture:  texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: coords[0], Y: coords[1], Z: layer},
			Aspect:   wgpu.TextureAspectAll,
		}),
		data,
		mem.Make(arena, wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * proxy.Format.BytesPerPixel(),
			RowsPerImage: height,
		}),
		mem.Make(arena, wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: layers,
		}),
	)
}

func (eng *Engine) targetView(transientMap *transientBindMap, proxy graphics.TextureProxy) *wgpu.TextureView {
	if view, ok := transientMap.views.Get(proxy.ID); ok {
		return view
	}
	if tex, ok := eng.bindMap.textures[proxy.ID]; ok {
		return tex.view
	}
	panic("tried rendering to an unavailable texture")
}

func (eng *Engine) lookupBuf(transientMap *transientBindMap, proxy graphics.BufferProxy) *wgpu.Buffer {
	if buf, ok := transientMap.bufs.Get(proxy.ID); ok {
		return buf
	}
	if buf, ok := eng.bindMap.buffers[proxy.ID]; ok {
		return buf
	}
	panic("tried using an unavailable buffer for a draw")
}

func (eng *Engine) createBindGroup(
	arena *mem.Arena,
	transientMap *transientBindMap,
	pipeline *renderPipeline,
	binding *graphics.ResourceBinding,
) *wgpu.BindGroup {
	entries := mem.NewSlice[[]wgpu.BindGroupEntry](arena, len(binding.Layout.Slots), len(binding.Layout.Slots))
	for i, slot := range binding.Layout.Slots {
		switch slot.Kind {
		case graphics.BindingSampledTexture:
			view, ok := transientMap.views.Get(binding.Texture.ID)
			if !ok {
				tex, ok2 := eng.bindMap.textures[binding.Texture.ID]
				if !ok2 {
					panic("tried binding an unavailable texture")
				}
				view = tex.view
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding:     slot.Binding,
				TextureView: view,
				Size:        wholeSize,
			}
		case graphics.BindingSampler:
			entries[i] = wgpu.BindGroupEntry{
				Binding: slot.Binding,
				Sampler: eng.sampler(binding.Sampler.Desc),
			}
		default:
			panic(fmt.Sprintf("unhandled binding kind %d", slot.Kind))
		}
	}
	return eng.Device.CreateBindGroup(mem.Make(arena, wgpu.BindGroupDescriptor{
		Layout:  pipeline.bindLayout,
		Entries: entries,
	}))
}
