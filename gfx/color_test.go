package gfx

import (
	"image"
	"image/color"
	"testing"
)

func TestPremultiply(t *testing.T) {
	c := RGBA(1, 0.5, 0, 0.5).Premultiply()
	want := Color{0.5, 0.25, 0, 0.5}
	if c != want {
		t.Errorf("got %v, want %v", c, want)
	}
}

func TestPremultiplyOpaqueIsIdentity(t *testing.T) {
	for _, c := range []Color{White, Red, Green, Blue, Yellow, Cyan, Magenta, Black} {
		if got := c.Premultiply(); got != c {
			t.Errorf("Premultiply(%v) = %v, want unchanged", c, got)
		}
	}
}

func TestWithAlphaFactor(t *testing.T) {
	c := White.WithAlphaFactor(0.5)
	if c != (Color{1, 1, 1, 0.5}) {
		t.Errorf("got %v", c)
	}
	// color channels untouched, alpha scales multiplicatively
	c = c.WithAlphaFactor(0.5)
	if c != (Color{1, 1, 1, 0.25}) {
		t.Errorf("got %v", c)
	}
}

func TestVec4(t *testing.T) {
	v := RGBA(0.1, 0.2, 0.3, 0.4).Vec4()
	if v != [4]float32{0.1, 0.2, 0.3, 0.4} {
		t.Errorf("got %v", v)
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.NRGBA{R: 255, A: 255})
	src.Set(1, 1, color.NRGBA{B: 255, A: 255})

	img := FromImage(src)
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("size = %dx%d, want 2x2", img.Width, img.Height)
	}
	if len(img.Pix) != 2*2*4 {
		t.Fatalf("len(Pix) = %d, want 16", len(img.Pix))
	}
	if img.Pix[0] != 255 || img.Pix[3] != 255 {
		t.Errorf("pixel (0,0) = % x, want red", img.Pix[0:4])
	}
	if img.Pix[14] != 255 || img.Pix[15] != 255 {
		t.Errorf("pixel (1,1) = % x, want blue", img.Pix[12:16])
	}
}

func TestFromImageSubimageOffsetBounds(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 4, 4))
	base.Set(2, 2, color.RGBA{G: 255, A: 255})
	sub := base.SubImage(image.Rect(2, 2, 4, 4)).(*image.RGBA)

	img := FromImage(sub)
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("size = %dx%d, want 2x2", img.Width, img.Height)
	}
	if img.Pix[1] != 255 {
		t.Errorf("pixel (0,0) = % x, want green", img.Pix[0:4])
	}
}

func TestFromImageReusesTightRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 3))
	img := FromImage(src)
	if &img.Pix[0] != &src.Pix[0] {
		t.Error("tightly packed RGBA input should be reused, not copied")
	}
}
