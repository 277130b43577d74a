// Package classify decides from content alone whether a file is a raster
// image this tool can decode, and which container it uses.
package classify

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// SniffSize is the number of leading bytes Classify inspects.
const SniffSize = 3072

// Kind separates images from everything else.
type Kind int

const (
	Generic Kind = iota
	Image
)

func (k Kind) String() string {
	if k == Image {
		return "image"
	}
	return "generic"
}

// SourceFormat is the container a decodable image was stored in.
type SourceFormat string

const (
	FormatNone SourceFormat = ""
	FormatPNG  SourceFormat = "png"
	FormatJPEG SourceFormat = "jpeg"
	FormatWebP SourceFormat = "webp"
	FormatAVIF SourceFormat = "avif"
	FormatGIF  SourceFormat = "gif"
	FormatBMP  SourceFormat = "bmp"
	FormatTIFF SourceFormat = "tiff"
)

// AssetKind is the classification result. Format is FormatNone for Generic.
type AssetKind struct {
	Kind   Kind
	Format SourceFormat
	// MIME is the detected media type, kept for logging.
	MIME string
}

// IsImage reports whether the asset should go through the image path.
func (a AssetKind) IsImage() bool {
	return a.Kind == Image && a.Format != FormatNone
}

func (a AssetKind) String() string {
	if a.IsImage() {
		return "image/" + string(a.Format)
	}
	return "generic"
}

var imageFormats = map[string]SourceFormat{
	"image/png":  FormatPNG,
	"image/jpeg": FormatJPEG,
	"image/webp": FormatWebP,
	"image/avif": FormatAVIF,
	"image/gif":  FormatGIF,
	"image/bmp":  FormatBMP,
	"image/tiff": FormatTIFF,
}

// Classify maps the head of a file to an AssetKind. Only the first SniffSize
// bytes are considered. Empty heads, and heads too short to hold the
// format's fixed header, fall back to Generic.
func Classify(head []byte) AssetKind {
	if len(head) > SniffSize {
		head = head[:SniffSize]
	}
	if len(head) == 0 {
		return AssetKind{Kind: Generic, MIME: "inode/x-empty"}
	}

	detected := mimetype.Detect(head)
	for m := detected; m != nil; m = m.Parent() {
		if format, ok := imageFormats[m.String()]; ok {
			if !completeHeader(format, head) {
				break
			}
			return AssetKind{Kind: Image, Format: format, MIME: detected.String()}
		}
	}
	return AssetKind{Kind: Generic, MIME: detected.String()}
}

// completeHeader reports whether head holds the fixed-size header a decoder
// needs before it can report dimensions. Signature matches alone are not
// enough: a file holding only "GIF89a" sniffs as GIF but cannot decode.
func completeHeader(format SourceFormat, head []byte) bool {
	switch format {
	case FormatPNG:
		// signature, then the IHDR chunk: length, type, 13 data bytes, crc
		return len(head) >= 8+25 && bytes.Equal(head[12:16], []byte("IHDR"))
	case FormatJPEG:
		return len(head) >= 4
	case FormatGIF:
		// header plus logical screen descriptor
		return len(head) >= 13
	case FormatBMP:
		// file header plus the width/height fields of the info header
		return len(head) >= 26
	case FormatTIFF:
		return len(head) >= 8
	case FormatWebP:
		// RIFF header plus the first chunk header
		return len(head) >= 20
	case FormatAVIF:
		if len(head) < 16 {
			return false
		}
		return uint64(len(head)) >= uint64(binary.BigEndian.Uint32(head[:4]))
	}
	return false
}

// ReadHead reads up to SniffSize bytes from r. Short files are not an error.
func ReadHead(r io.Reader) ([]byte, error) {
	buf := make([]byte, SniffSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}
