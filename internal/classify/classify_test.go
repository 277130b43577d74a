package classify

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func encodeSample(t *testing.T, enc func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		t.Fatalf("encode sample: %v", err)
	}
	return buf.Bytes()
}

func TestClassifyImageSignatures(t *testing.T) {
	cases := map[SourceFormat][]byte{
		FormatPNG: encodeSample(t, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) }),
		FormatJPEG: encodeSample(t, func(b *bytes.Buffer, i image.Image) error {
			return jpeg.Encode(b, i, &jpeg.Options{Quality: 80})
		}),
		FormatGIF:  encodeSample(t, func(b *bytes.Buffer, i image.Image) error { return gif.Encode(b, i, nil) }),
		FormatWebP: append([]byte("RIFF\x24\x00\x00\x00WEBPVP8 "), make([]byte, 32)...),
		FormatBMP:  append([]byte("BM"), make([]byte, 64)...),
		FormatTIFF: append([]byte("II*\x00"), make([]byte, 64)...),
		FormatAVIF: append([]byte("\x00\x00\x00\x1cftypavif\x00\x00\x00\x00avifmif1miaf"), make([]byte, 32)...),
	}
	for want, head := range cases {
		t.Run(string(want), func(t *testing.T) {
			got := Classify(head)
			if !got.IsImage() || got.Format != want {
				t.Fatalf("expected image/%s, got %s (mime %s)", want, got, got.MIME)
			}
		})
	}
}

func TestClassifyIgnoresExtensionAndText(t *testing.T) {
	js := []byte("function hello() { return 42; }\n")
	if got := Classify(js); got.IsImage() {
		t.Fatalf("javascript classified as image: %s", got)
	}
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`)
	if got := Classify(svg); got.IsImage() {
		t.Fatalf("svg should stay generic, got %s", got)
	}
}

func TestClassifyEmptyAndTruncated(t *testing.T) {
	if got := Classify(nil); got.Kind != Generic {
		t.Fatalf("empty input should be generic, got %s", got)
	}
	truncated := map[string]string{
		"partial png signature": "\x89PN",
		"png signature only":    "\x89PNG\r\n\x1a\n",
		"png without ihdr":      "\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIDAT" + strings.Repeat("\x00", 21),
		"jpeg soi only":         "\xff\xd8\xff",
		"gif header only":       "GIF89a",
		"tiff byte order only":  "II*\x00",
		"bmp magic only":        "BM",
		"bmp short header":      "BM" + strings.Repeat("\x00", 20),
		"webp riff only":        "RIFF\x24\x00\x00\x00WEBP",
	}
	for name, head := range truncated {
		if got := Classify([]byte(head)); got.Kind != Generic {
			t.Fatalf("%s should be generic, got %s (mime %s)", name, got, got.MIME)
		}
	}
}

func TestClassifyMinimalHeaders(t *testing.T) {
	ihdr := "\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR" + strings.Repeat("\x00", 17)
	cases := map[SourceFormat]string{
		FormatPNG:  ihdr,
		FormatJPEG: "\xff\xd8\xff\xe0",
		FormatGIF:  "GIF89a" + strings.Repeat("\x00", 7),
		FormatBMP:  "BM" + strings.Repeat("\x00", 24),
		FormatTIFF: "II*\x00\x08\x00\x00\x00",
	}
	for want, head := range cases {
		if got := Classify([]byte(head)); !got.IsImage() || got.Format != want {
			t.Fatalf("%d-byte %s header should classify as image, got %s (mime %s)", len(head), want, got, got.MIME)
		}
	}
}

func TestClassifyOnlyUsesHead(t *testing.T) {
	payload := append(bytes.Repeat([]byte("a"), SniffSize), []byte("\x89PNG\r\n\x1a\n")...)
	if got := Classify(payload); got.IsImage() {
		t.Fatalf("bytes past the sniff window must not matter, got %s", got)
	}
}

func TestReadHead(t *testing.T) {
	head, err := ReadHead(strings.NewReader("short"))
	if err != nil || string(head) != "short" {
		t.Fatalf("unexpected head %q err %v", head, err)
	}
	head, err = ReadHead(bytes.NewReader(make([]byte, SniffSize*2)))
	if err != nil || len(head) != SniffSize {
		t.Fatalf("expected %d bytes, got %d err %v", SniffSize, len(head), err)
	}
	head, err = ReadHead(strings.NewReader(""))
	if err != nil || len(head) != 0 {
		t.Fatalf("expected empty head, got %q err %v", head, err)
	}
}
