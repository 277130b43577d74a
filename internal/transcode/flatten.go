package transcode

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

type opaquer interface {
	Opaque() bool
}

// IsOpaque reports whether every pixel of img is fully opaque.
func IsOpaque(img image.Image) bool {
	if o, ok := img.(opaquer); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

// Flatten composites img over an opaque background. Opaque images are
// returned unchanged.
func Flatten(img image.Image, bg color.Color) image.Image {
	if IsOpaque(img) {
		return img
	}
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Point{}, 1.0)
}
