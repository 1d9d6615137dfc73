package text

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"honnef.co/go/safeish"

	"github.com/DavideCorradiDev/red-orango-engine/graphics"
	"github.com/DavideCorradiDev/red-orango-engine/mem"
)

// GlyphID is a glyph index within a font.
type GlyphID = uint16

// GlyphInfo locates one rasterized glyph: the index range of its quad within
// the font's shared mesh and its bearing, the offset from the pen position to
// the quad's top-left corner in a y-down coordinate system. Layer indices are
// assigned at atlas-build time and stable for the font's lifetime.
type GlyphInfo struct {
	FirstIndex uint32
	IndexCount uint32
	Bearing    [2]float32
}

// ShapedGlyph is one glyph of a shaped string: its ID, its fine positioning
// offset, and the pen advance after it, all in pixels.
type ShapedGlyph struct {
	ID      GlyphID
	Offset  [2]float32
	Advance [2]float32
}

// Font owns everything needed to draw one face at one size: the layered
// coverage atlas (one glyph per layer), the shared glyph quad mesh, the atlas
// resource binding, and the shaper. Fonts are immutable after construction and
// shared read-only across draws and frames; ShapeText, however, mutates shaper
// state and belongs on the draw-issuing thread.
type Font struct {
	size    float64
	gtFont  *gtfont.Font
	shaper  shaping.HarfbuzzShaper
	atlas   graphics.TextureProxy
	binding *graphics.ResourceBinding

	vertices graphics.BufferProxy
	indices  graphics.BufferProxy
	glyphs   map[GlyphID]GlyphInfo
}

type rasterGlyph struct {
	id     GlyphID
	pix    []byte
	width  int
	height int
	// Pen-relative position of the bitmap's top-left corner, y-down.
	left int
	top  int
}

// EnglishCharacterSet is the printable ASCII range.
func EnglishCharacterSet() []rune {
	set := make([]rune, 0, 95)
	for r := rune(' '); r <= '~'; r++ {
		set = append(set, r)
	}
	return set
}

// NewFont rasterizes characters of the face in data at the given pixel size
// into a glyph atlas, records the upload onto setup, and builds the per-glyph
// quad mesh. Every atlas layer has the extent of the largest glyph; smaller
// glyphs occupy the layer's top-left corner and their quads and texture
// coordinates cover only the used region.
func NewFont(setup *graphics.Recording, arena *mem.Arena, data []byte, size float64, characters []rune) (*Font, error) {
	if len(characters) == 0 {
		return nil, errors.New("text: empty character set")
	}
	if size <= 0 {
		return nil, fmt.Errorf("text: invalid font size %v", size)
	}

	otFont, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("text: parsing font: %w", err)
	}
	face, err := opentype.NewFace(otFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("text: creating face: %w", err)
	}
	defer face.Close()

	gtFace, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("text: parsing font for shaping: %w", err)
	}

	var glyphs []rasterGlyph
	seen := make(map[GlyphID]bool)
	for _, r := range characters {
		idx, err := otFont.GlyphIndex(nil, r)
		if err != nil || idx == 0 {
			continue
		}
		id := GlyphID(idx)
		if seen[id] {
			continue
		}
		seen[id] = true
		glyphs = append(glyphs, rasterizeGlyph(face, r, id))
	}
	if len(glyphs) == 0 {
		return nil, errors.New("text: no characters could be rasterized")
	}

	f := &Font{
		size:   size,
		gtFont: gtFace.Font,
		glyphs: make(map[GlyphID]GlyphInfo, len(glyphs)),
	}
	f.buildAtlas(setup, arena, glyphs)
	f.buildMesh(setup, arena, glyphs)

	sampler := graphics.NewSampler(graphics.DefaultSamplerDescriptor())
	binding, err := graphics.NewResourceBinding(f.atlas, sampler, BindingLayout())
	if err != nil {
		return nil, err
	}
	f.binding = binding
	return f, nil
}

func rasterizeGlyph(face font.Face, r rune, id GlyphID) rasterGlyph {
	bounds, _, ok := face.GlyphBounds(r)
	if !ok {
		return rasterGlyph{id: id}
	}
	minX := int(bounds.Min.X) >> 6
	minY := int(bounds.Min.Y) >> 6
	maxX := int(bounds.Max.X+63) >> 6
	maxY := int(bounds.Max.Y+63) >> 6
	w, h := maxX-minX, maxY-minY
	if w <= 0 || h <= 0 {
		// Whitespace rasterizes to nothing but still gets a layer and a
		// zero-size quad, so shaped runs can reference it uniformly.
		return rasterGlyph{id: id}
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	drawer := &font.Drawer{
		Dst:  mask,
		Src:  image.White,
		Face: face,
		Dot:  fixed.Point26_6{X: -bounds.Min.X, Y: -bounds.Min.Y},
	}
	drawer.DrawString(string(r))

	return rasterGlyph{
		id:     id,
		pix:    mask.Pix,
		width:  w,
		height: h,
		left:   minX,
		top:    minY,
	}
}

// buildAtlas packs each glyph's coverage into its own layer of an R8 texture
// array whose layer extent is the largest glyph extent.
func (f *Font) buildAtlas(setup *graphics.Recording, arena *mem.Arena, glyphs []rasterGlyph) {
	extentW, extentH := 1, 1
	for _, g := range glyphs {
		extentW = max(extentW, g.width)
		extentH = max(extentH, g.height)
	}

	layerSize := extentW * extentH
	buf := make([]byte, layerSize*len(glyphs))
	for i, g := range glyphs {
		layer := buf[i*layerSize:]
		for row := 0; row < g.height; row++ {
			copy(layer[row*extentW:], g.pix[row*g.width:(row+1)*g.width])
		}
	}

	f.atlas = setup.UploadTextureArray(arena,
		uint32(extentW), uint32(extentH), uint32(len(glyphs)),
		graphics.R8Unorm, buf)
}

// buildMesh emits one quad per glyph with the atlas layer in the texture
// coordinate's third component, and records each glyph's index range and
// bearing.
func (f *Font) buildMesh(setup *graphics.Recording, arena *mem.Arena, glyphs []rasterGlyph) {
	vertices := make([]Vertex, 0, len(glyphs)*4)
	indices := make([]uint16, 0, len(glyphs)*6)
	for i, g := range glyphs {
		gw, gh := float32(g.width), float32(g.height)
		tw := gw / float32(f.atlas.Width)
		th := gh / float32(f.atlas.Height)
		layer := float32(i)
		vertices = append(vertices,
			Vertex{Position: [2]float32{0, 0}, TexCoords: [3]float32{0, 0, layer}},
			Vertex{Position: [2]float32{0, gh}, TexCoords: [3]float32{0, th, layer}},
			Vertex{Position: [2]float32{gw, gh}, TexCoords: [3]float32{tw, th, layer}},
			Vertex{Position: [2]float32{gw, 0}, TexCoords: [3]float32{tw, 0, layer}},
		)
		base := uint16(i * 4)
		indices = append(indices, base, base+1, base+3, base+3, base+1, base+2)

		f.glyphs[g.id] = GlyphInfo{
			FirstIndex: uint32(i * 6),
			IndexCount: 6,
			Bearing:    [2]float32{float32(g.left), float32(g.top)},
		}
	}

	f.vertices = setup.Upload(arena, "glyph atlas vertices", safeish.SliceCast[[]byte](vertices))
	f.indices = setup.Upload(arena, "glyph atlas indices", safeish.SliceCast[[]byte](indices))
}

// Size returns the font's pixel size.
func (f *Font) Size() float64 {
	return f.size
}

// Atlas returns the font's layered atlas texture.
func (f *Font) Atlas() graphics.TextureProxy {
	return f.atlas
}

// Binding returns the atlas resource binding shared by all of the font's
// draws.
func (f *Font) Binding() *graphics.ResourceBinding {
	return f.binding
}

// VertexBuffer returns the font's shared glyph mesh vertices.
func (f *Font) VertexBuffer() graphics.BufferProxy {
	return f.vertices
}

// IndexBuffer returns the font's shared glyph mesh indices.
func (f *Font) IndexBuffer() graphics.BufferProxy {
	return f.indices
}

// Glyph returns the rendering info for one glyph, if the font rasterized it.
func (f *Font) Glyph(id GlyphID) (GlyphInfo, bool) {
	info, ok := f.glyphs[id]
	return info, ok
}

// ShapeText runs the string through the HarfBuzz shaper and returns positioned
// glyphs. Not safe for concurrent use.
func (f *Font) ShapeText(s string) []ShapedGlyph {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	out := f.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      gtfont.NewFace(f.gtFont),
		Size:      fixed.Int26_6(f.size * 64),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	})

	shaped := make([]ShapedGlyph, len(out.Glyphs))
	for i, g := range out.Glyphs {
		shaped[i] = ShapedGlyph{
			ID:      GlyphID(g.GlyphID),
			Offset:  [2]float32{fixedToFloat(g.XOffset), fixedToFloat(g.YOffset)},
			Advance: [2]float32{fixedToFloat(g.XAdvance), fixedToFloat(g.YAdvance)},
		}
	}
	return shaped
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
