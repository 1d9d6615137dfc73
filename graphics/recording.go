// Package graphics is the backend-agnostic half of the rendering core. It
// models GPU resources as lightweight proxies and GPU work as a recording: an
// ordered list of commands referencing proxies. Recording allocates no GPU
// resources and performs no GPU work; an engine materializes proxies and
// executes recordings against a real device.
package graphics

import (
	"fmt"
	"sync/atomic"

	"github.com/DavideCorradiDev/red-orango-engine/mem"
)

var resourceID atomic.Uint64

func nextResourceID() ResourceID {
	return ResourceID(resourceID.Add(1))
}

type ResourceID uint64

// BufferProxy stands in for a GPU buffer that will exist by the time the
// recording referencing it runs.
type BufferProxy struct {
	Size uint64
	ID   ResourceID
	Name string
}

func NewBufferProxy(size uint64, name string) BufferProxy {
	return BufferProxy{Size: size, ID: nextResourceID(), Name: name}
}

// TextureProxy stands in for a GPU texture. Layers is 1 for plain 2D textures;
// layered array textures set Dimension to TextureD2Array and may have any
// number of layers.
type TextureProxy struct {
	Width     uint32
	Height    uint32
	Layers    uint32
	Dimension TextureDimension
	Format    TextureFormat
	ID        ResourceID
}

func NewTextureProxy(width, height uint32, format TextureFormat) TextureProxy {
	return TextureProxy{
		Width:     width,
		Height:    height,
		Layers:    1,
		Dimension: TextureD2,
		Format:    format,
		ID:        nextResourceID(),
	}
}

func NewTextureArrayProxy(width, height, layers uint32, format TextureFormat) TextureProxy {
	return TextureProxy{
		Width:     width,
		Height:    height,
		Layers:    layers,
		Dimension: TextureD2Array,
		Format:    format,
		ID:        nextResourceID(),
	}
}

type LoadOp int

const (
	// LoadClear clears the target to the pass's clear color before drawing.
	LoadClear LoadOp = iota + 1
	// LoadKeep preserves the target's existing contents.
	LoadKeep
)

// Recording is an ordered command stream for one frame (or part of one). It is
// pure data; commands and their payloads live in a per-frame arena and become
// invalid when that arena is reset.
type Recording struct {
	Commands []Command
}

func (rec *Recording) push(arena *mem.Arena, cmd Command) {
	rec.Commands = mem.Append(arena, rec.Commands, cmd)
}

// Append transfers all of other's commands onto rec in order.
func (rec *Recording) Append(arena *mem.Arena, other Recording) {
	rec.Commands = mem.Append(arena, rec.Commands, other.Commands...)
}

// Upload creates a buffer proxy and schedules data to be written to it before
// any later command runs.
func (rec *Recording) Upload(arena *mem.Arena, name string, data []byte) BufferProxy {
	buf := NewBufferProxy(uint64(len(data)), name)
	rec.push(arena, mem.Make(arena, Upload{buf, data}))
	return buf
}

// UploadTexture creates a 2D texture proxy and schedules its pixel data.
func (rec *Recording) UploadTexture(arena *mem.Arena, width, height uint32, format TextureFormat, data []byte) TextureProxy {
	tex := NewTextureProxy(width, height, format)
	rec.push(arena, mem.Make(arena, UploadTexture{tex, data}))
	return tex
}

// UploadTextureArray creates a layered texture proxy. Data covers all layers,
// tightly packed layer after layer; pass nil to leave the texture zeroed and
// fill individual layers with WriteTexture.
func (rec *Recording) UploadTextureArray(arena *mem.Arena, width, height, layers uint32, format TextureFormat, data []byte) TextureProxy {
	tex := NewTextureArrayProxy(width, height, layers, format)
	rec.push(arena, mem.Make(arena, UploadTexture{tex, data}))
	return tex
}

// WriteTexture schedules a write of one rectangular region of one layer.
func (rec *Recording) WriteTexture(arena *mem.Arena, tex TextureProxy, x, y, width, height, layer uint32, data []byte) {
	if x+width > tex.Width || y+height > tex.Height || layer >= tex.Layers {
		panic(fmt.Sprintf("write of %dx%d at (%d, %d) layer %d exceeds %dx%dx%d texture",
			width, height, x, y, layer, tex.Width, tex.Height, tex.Layers))
	}
	rec.push(arena, mem.Make(arena, WriteTexture{tex, [4]uint32{x, y, width, height}, layer, data}))
}

// BeginRenderPass opens a render pass targeting tex. Draw-state commands are
// valid only between BeginRenderPass and EndRenderPass.
func (rec *Recording) BeginRenderPass(arena *mem.Arena, target TextureProxy, load LoadOp, clearColor [4]float32) {
	rec.push(arena, mem.Make(arena, BeginRenderPass{target, load, clearColor}))
}

func (rec *Recording) EndRenderPass(arena *mem.Arena) {
	rec.push(arena, mem.Make(arena, EndRenderPass{}))
}

// BindPipeline makes pipeline current for subsequent draws in the pass.
func (rec *Recording) BindPipeline(arena *mem.Arena, pipeline *Pipeline) {
	rec.push(arena, mem.Make(arena, BindPipeline{pipeline}))
}

// BindResources makes binding's texture and sampler current. The bound
// pipeline's binding layout must match the binding's layout.
func (rec *Recording) BindResources(arena *mem.Arena, binding *ResourceBinding) {
	rec.push(arena, mem.Make(arena, BindResources{binding}))
}

// Draw records one indexed draw. Constants is the per-draw constant block,
// written for the draw's exclusive use immediately before it executes; its
// length must equal the bound pipeline's declared constant size.
func (rec *Recording) Draw(arena *mem.Arena, vertices, indices BufferProxy, firstIndex, indexCount uint32, constants []byte) {
	rec.push(arena, mem.Make(arena, Draw{
		Vertices:   vertices,
		Indices:    indices,
		FirstIndex: firstIndex,
		IndexCount: indexCount,
		Constants:  constants,
	}))
}

// FreeBuffer schedules the buffer's GPU memory for release once the frame's
// submission completes.
func (rec *Recording) FreeBuffer(arena *mem.Arena, buf BufferProxy) {
	rec.push(arena, mem.Make(arena, FreeBuffer{buf}))
}

func (rec *Recording) FreeTexture(arena *mem.Arena, tex TextureProxy) {
	rec.push(arena, mem.Make(arena, FreeTexture{tex}))
}

type Command interface {
	isCommand()
}

func (*Upload) isCommand()          {}
func (*UploadTexture) isCommand()   {}
func (*WriteTexture) isCommand()    {}
func (*BeginRenderPass) isCommand() {}
func (*EndRenderPass) isCommand()   {}
func (*BindPipeline) isCommand()    {}
func (*BindResources) isCommand()   {}
func (*Draw) isCommand()            {}
func (*FreeBuffer) isCommand()      {}
func (*FreeTexture) isCommand()     {}

type Upload struct {
	Buffer BufferProxy
	Data   []byte
}

type UploadTexture struct {
	Texture TextureProxy
	Data    []byte
}

type WriteTexture struct {
	Texture TextureProxy
	// Coords is x, y, width, height of the written region.
	Coords [4]uint32
	Layer  uint32
	Data   []byte
}

type BeginRenderPass struct {
	Target     TextureProxy
	Load       LoadOp
	ClearColor [4]float32
}

type EndRenderPass struct{}

type BindPipeline struct {
	Pipeline *Pipeline
}

type BindResources struct {
	Binding *ResourceBinding
}

type Draw struct {
	Vertices   BufferProxy
	Indices    BufferProxy
	FirstIndex uint32
	IndexCount uint32
	Constants  []byte
}

type FreeBuffer struct {
	Buffer BufferProxy
}

type FreeTexture struct {
	Texture TextureProxy
}
