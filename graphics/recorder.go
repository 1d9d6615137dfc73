package graphics

import (
	"fmt"

	"github.com/DavideCorradiDev/red-orango-engine/mem"
)

// FrameRecorder linearizes one frame's work into a single recording: resource
// uploads first, then one render pass containing the renderers' flushed command
// streams in the order they were recorded. It owns the frame arena; all
// commands and payloads recorded through it die on Reset.
//
// A FrameRecorder is used from the frame's single draw-issuing thread.
type FrameRecorder struct {
	arena  *mem.Arena
	rec    Recording
	inPass bool
	closed bool
}

func NewFrameRecorder() *FrameRecorder {
	return &FrameRecorder{
		arena: mem.NewArena(),
	}
}

// Arena returns the frame arena. Renderers flush into it so their command
// payloads share the frame's lifetime.
func (fr *FrameRecorder) Arena() *mem.Arena {
	return fr.arena
}

// Upload stages buffer data for this frame, before the render pass.
func (fr *FrameRecorder) Upload(name string, data []byte) BufferProxy {
	fr.requireOutsidePass("Upload")
	return fr.rec.Upload(fr.arena, name, data)
}

// UploadTexture stages a 2D texture for this frame, before the render pass.
func (fr *FrameRecorder) UploadTexture(width, height uint32, format TextureFormat, data []byte) TextureProxy {
	fr.requireOutsidePass("UploadTexture")
	return fr.rec.UploadTexture(fr.arena, width, height, format, data)
}

// UploadTextureArray stages a layered texture for this frame, before the
// render pass.
func (fr *FrameRecorder) UploadTextureArray(width, height, layers uint32, format TextureFormat, data []byte) TextureProxy {
	fr.requireOutsidePass("UploadTextureArray")
	return fr.rec.UploadTextureArray(fr.arena, width, height, layers, format, data)
}

// WriteTexture stages a region write, before the render pass.
func (fr *FrameRecorder) WriteTexture(tex TextureProxy, x, y, width, height, layer uint32, data []byte) {
	fr.requireOutsidePass("WriteTexture")
	fr.rec.WriteTexture(fr.arena, tex, x, y, width, height, layer, data)
}

// BeginFrame opens the frame's render pass against target.
func (fr *FrameRecorder) BeginFrame(target TextureProxy, load LoadOp, clearColor [4]float32) {
	fr.requireOutsidePass("BeginFrame")
	fr.rec.BeginRenderPass(fr.arena, target, load, clearColor)
	fr.inPass = true
}

// Record appends one renderer's flushed command stream to the frame's render
// pass. Streams are concatenated in call order; nothing is reordered.
func (fr *FrameRecorder) Record(batch Recording) {
	if !fr.inPass {
		panic("graphics: Record outside BeginFrame/EndFrame")
	}
	validateBatch(batch)
	fr.rec.Append(fr.arena, batch)
}

// EndFrame closes the render pass and returns the frame's full recording,
// ready for submission. The recording stays valid until Reset.
func (fr *FrameRecorder) EndFrame() Recording {
	if !fr.inPass {
		panic("graphics: EndFrame without BeginFrame")
	}
	fr.rec.EndRenderPass(fr.arena)
	fr.inPass = false
	fr.closed = true
	return fr.rec
}

// Reset recycles the frame arena for the next frame. The previous frame's
// recording and all proxies minted from it must no longer be referenced, so
// call this only after the engine has consumed the submission.
func (fr *FrameRecorder) Reset() {
	if fr.inPass {
		panic("graphics: Reset during an open render pass")
	}
	fr.arena.Reset()
	fr.rec = Recording{}
	fr.closed = false
}

func (fr *FrameRecorder) requireOutsidePass(op string) {
	if fr.inPass {
		panic(fmt.Sprintf("graphics: %s during an open render pass", op))
	}
	if fr.closed {
		panic(fmt.Sprintf("graphics: %s after EndFrame", op))
	}
}

// validateBatch enforces the draw-state ordering contract on a flushed stream:
// a pipeline must be bound before resources, resources before any draw, and
// each draw's constant block must match the bound pipeline's declared size.
// Violations are bugs in the producing renderer.
func validateBatch(batch Recording) {
	var pipeline *Pipeline
	var bound bool
	for _, cmd := range batch.Commands {
		switch cmd := cmd.(type) {
		case *BindPipeline:
			pipeline = cmd.Pipeline
			bound = false
		case *BindResources:
			if pipeline == nil {
				panic("graphics: BindResources before BindPipeline")
			}
			bound = true
		case *Draw:
			if pipeline == nil {
				panic("graphics: Draw before BindPipeline")
			}
			if !bound {
				panic("graphics: Draw before BindResources")
			}
			if uint32(len(cmd.Constants)) != pipeline.Desc.PushConstants.Size {
				panic(fmt.Sprintf("graphics: draw carries %d constant bytes, pipeline %q declares %d",
					len(cmd.Constants), pipeline.Desc.Shader.Name, pipeline.Desc.PushConstants.Size))
			}
		case *Upload, *UploadTexture, *WriteTexture:
			panic(fmt.Sprintf("graphics: %T inside a render pass", cmd))
		case *BeginRenderPass, *EndRenderPass:
			panic(fmt.Sprintf("graphics: nested %T in a flushed stream", cmd))
		}
	}
}
