package transcode

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
)

// Options carries the encoder settings for every target.
type Options struct {
	Targets        []Target
	JPEGQuality    int
	JPEGBackground color.Color
	WebPLossless   bool
	WebPQuality    float32
	AVIFQuality    int
	AVIFSpeed      int
}

// Variants returns the targets to produce for rel, skipping any whose output
// would overwrite the original copy.
func (o Options) Variants(rel string) []Target {
	out := make([]Target, 0, len(o.Targets))
	for _, t := range o.Targets {
		if CollidesWithSource(rel, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

var pngEncoder = png.Encoder{CompressionLevel: png.BestCompression}

// Encode writes img to w in target t. Encoder panics are returned as errors.
func (o Options) Encode(w io.Writer, img image.Image, t Target) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("encode %s: encoder panic: %v", t, r)
		}
	}()

	switch t {
	case PNG:
		err = pngEncoder.Encode(w, img)
	case JPEG:
		bg := o.JPEGBackground
		if bg == nil {
			bg = color.White
		}
		err = jpeg.Encode(w, Flatten(img, bg), &jpeg.Options{Quality: o.JPEGQuality})
	case WebP:
		err = webp.Encode(w, straightRGBA(img), &webp.Options{
			Lossless: o.WebPLossless,
			Quality:  o.WebPQuality,
			Exact:    o.WebPLossless,
		})
	case AVIF:
		err = avif.Encode(w, img, avif.Options{
			Quality:           o.AVIFQuality,
			QualityAlpha:      o.AVIFQuality,
			Speed:             o.AVIFSpeed,
			ChromaSubsampling: image.YCbCrSubsampleRatio420,
		})
	default:
		return fmt.Errorf("encode: unknown target %v", t)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", t, err)
	}
	return nil
}

// straightRGBA returns img as non-premultiplied RGBA bytes behind an
// *image.RGBA header. libwebp reads the buffer as straight alpha, and the
// webp package forwards *image.RGBA untouched but premultiplies anything else.
func straightRGBA(img image.Image) *image.RGBA {
	n := imaging.Clone(img)
	return &image.RGBA{Pix: n.Pix, Stride: n.Stride, Rect: n.Rect}
}
