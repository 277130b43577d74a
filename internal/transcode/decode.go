package transcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/gen2brain/avif"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"assetprep/internal/classify"
)

// ErrUnsupportedSource is returned for formats with no decoder.
var ErrUnsupportedSource = errors.New("unsupported source format")

// Decode decodes data as format. Decoder panics on hostile input are
// returned as errors.
func Decode(data []byte, format classify.SourceFormat) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = fmt.Errorf("decode %s: decoder panic: %v", format, r)
		}
	}()

	r := bytes.NewReader(data)
	switch format {
	case classify.FormatPNG:
		img, err = png.Decode(r)
	case classify.FormatJPEG:
		img, err = jpeg.Decode(r)
	case classify.FormatGIF:
		img, err = gif.Decode(r)
	case classify.FormatWebP:
		img, err = webp.Decode(r)
	case classify.FormatAVIF:
		img, err = avif.Decode(r)
	case classify.FormatBMP:
		img, err = bmp.Decode(r)
	case classify.FormatTIFF:
		img, err = tiff.Decode(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("decode %s: empty image %v", format, b)
	}
	return img, nil
}
