package text

import (
	"errors"
	"testing"

	"honnef.co/go/safeish"

	"github.com/DavideCorradiDev/red-orango-engine/gfx"
	"github.com/DavideCorradiDev/red-orango-engine/graphics"
	"github.com/DavideCorradiDev/red-orango-engine/mem"
	"github.com/DavideCorradiDev/red-orango-engine/rmath"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(DefaultOptions())
	if err != nil {
		if errors.Is(err, graphics.ErrShaderCompile) {
			t.Skipf("shader compiler limitation: %v", err)
		}
		t.Fatal(err)
	}
	return r
}

func countCommands(rec graphics.Recording) (pipelines, bindings, draws int) {
	for _, cmd := range rec.Commands {
		switch cmd.(type) {
		case *graphics.BindPipeline:
			pipelines++
		case *graphics.BindResources:
			bindings++
		case *graphics.Draw:
			draws++
		}
	}
	return pipelines, bindings, draws
}

func TestFlushEmptyQueue(t *testing.T) {
	arena := mem.NewArena()
	r := newTestRenderer(t)
	for i := 0; i < 3; i++ {
		if rec := r.Flush(arena); len(rec.Commands) != 0 {
			t.Errorf("flush %d of empty queue emitted %d commands", i, len(rec.Commands))
		}
	}
}

func TestSubmitCapturesConstants(t *testing.T) {
	arena := mem.NewArena()
	r := newTestRenderer(t)
	f, _ := newTestFont(t, arena, []rune("A"))

	shaped := f.ShapeText("A")
	info, _ := f.Glyph(shaped[0].ID)
	glyph := GlyphDraw{
		Binding:    f.Binding(),
		Vertices:   f.VertexBuffer(),
		Indices:    f.IndexBuffer(),
		FirstIndex: info.FirstIndex,
		IndexCount: info.IndexCount,
	}
	r.Submit(rmath.Identity(), rmath.Vec4{X: 10}, gfx.Red, glyph)
	rec := r.Flush(arena)

	pipelines, bindings, draws := countCommands(rec)
	if pipelines != 1 || bindings != 1 || draws != 1 {
		t.Fatalf("got %d pipeline binds, %d resource binds, %d draws; want 1, 1, 1", pipelines, bindings, draws)
	}
	draw := rec.Commands[2].(*graphics.Draw)
	if draw.Vertices != f.VertexBuffer() || draw.Indices != f.IndexBuffer() {
		t.Error("draw does not reference the font mesh")
	}
	if draw.FirstIndex != info.FirstIndex || draw.IndexCount != info.IndexCount {
		t.Errorf("draw range = [%d, +%d), want [%d, +%d)", draw.FirstIndex, draw.IndexCount, info.FirstIndex, info.IndexCount)
	}

	constants := safeish.SliceCast[[]float32](draw.Constants)
	if len(constants) != 24 {
		t.Fatalf("constant block has %d floats, want 24", len(constants))
	}
	identity := rmath.Identity()
	for i, v := range constants[:16] {
		if v != identity.Cols[i] {
			t.Errorf("transform element %d = %v, want %v", i, v, identity.Cols[i])
		}
	}
	if offset := constants[16:20]; offset[0] != 10 || offset[1] != 0 || offset[2] != 0 || offset[3] != 0 {
		t.Errorf("glyph offset = %v, want (10, 0, 0, 0)", offset)
	}
	if color := constants[20:24]; color[0] != 1 || color[1] != 0 || color[2] != 0 || color[3] != 1 {
		t.Errorf("color = %v, want red", color)
	}
}

func TestDrawTextBatchesOneBindingPerRun(t *testing.T) {
	arena := mem.NewArena()
	r := newTestRenderer(t)
	f, _ := newTestFont(t, arena, EnglishCharacterSet())

	r.DrawText(f, "Hello", rmath.Identity(), gfx.White)
	rec := r.Flush(arena)

	pipelines, bindings, draws := countCommands(rec)
	if pipelines != 1 {
		t.Errorf("got %d pipeline binds, want 1", pipelines)
	}
	if bindings != 1 {
		t.Errorf("got %d resource binds for a single-font run, want 1", bindings)
	}
	if draws != 5 {
		t.Errorf("got %d draws, want 5", draws)
	}

	// The pen advances: each draw's x offset is at or beyond its predecessor's.
	var lastX float32 = -1
	for _, cmd := range rec.Commands {
		draw, ok := cmd.(*graphics.Draw)
		if !ok {
			continue
		}
		constants := safeish.SliceCast[[]float32](draw.Constants)
		x := constants[16]
		if x < lastX {
			t.Errorf("glyph x offset %v regressed below %v", x, lastX)
		}
		lastX = x
	}
}

func TestFlushInterleavedBindings(t *testing.T) {
	arena := mem.NewArena()
	r := newTestRenderer(t)
	f, _ := newTestFont(t, arena, []rune("A"))

	// A second binding onto the same atlas stands in for a second font.
	other, err := graphics.NewResourceBinding(f.Atlas(), graphics.NewSampler(graphics.DefaultSamplerDescriptor()), BindingLayout())
	if err != nil {
		t.Fatal(err)
	}

	shaped := f.ShapeText("A")
	info, _ := f.Glyph(shaped[0].ID)
	glyph := func(b *graphics.ResourceBinding) GlyphDraw {
		return GlyphDraw{
			Binding:    b,
			Vertices:   f.VertexBuffer(),
			Indices:    f.IndexBuffer(),
			FirstIndex: info.FirstIndex,
			IndexCount: info.IndexCount,
		}
	}
	for _, b := range []*graphics.ResourceBinding{f.Binding(), other, f.Binding()} {
		r.Submit(rmath.Identity(), rmath.Vec4{}, gfx.White, glyph(b))
	}
	rec := r.Flush(arena)

	pipelines, bindings, draws := countCommands(rec)
	if pipelines != 1 || bindings != 3 || draws != 3 {
		t.Errorf("got %d pipeline binds, %d resource binds, %d draws; want 1, 3, 3", pipelines, bindings, draws)
	}
}

func TestDrawTextSkipsMissingGlyphs(t *testing.T) {
	arena := mem.NewArena()
	r := newTestRenderer(t)
	// Only 'A' is rasterized; the rest of the string still advances the pen.
	f, _ := newTestFont(t, arena, []rune("A"))

	r.DrawText(f, "zAz", rmath.Identity(), gfx.White)
	rec := r.Flush(arena)

	_, _, draws := countCommands(rec)
	if draws != 1 {
		t.Fatalf("got %d draws, want 1", draws)
	}
	var drawCmd *graphics.Draw
	for _, cmd := range rec.Commands {
		if d, ok := cmd.(*graphics.Draw); ok {
			drawCmd = d
		}
	}
	constants := safeish.SliceCast[[]float32](drawCmd.Constants)
	// 'A' sits after one 'z' advance, so its offset is to the right of the pen
	// origin plus bearing alone.
	if constants[16] <= 0 {
		t.Errorf("glyph x offset = %v, want advanced past origin", constants[16])
	}
}
