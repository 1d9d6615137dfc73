package gfx

import (
	"image"
	"image/draw"
)

// Image is a decoded pixel buffer in 8-bit RGBA order, ready for texture
// upload. It carries no GPU state.
type Image struct {
	Pix    []byte
	Width  int
	Height int
}

// FromImage converts any image.Image into a tightly packed RGBA8 Image.
func FromImage(img image.Image) Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != w*4 {
		rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return Image{
		Pix:    rgba.Pix,
		Width:  w,
		Height: h,
	}
}
