package pipeline_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/gen2brain/avif"
	"golang.org/x/image/webp"

	"assetprep/internal/testsupport"
)

func TestTranslucentImageSurvivesEveryTarget(t *testing.T) {
	const size = 32
	cfg := testsupport.NewConfig(t, testsupport.WithTargets("png", "jpeg", "webp", "avif"))
	in, out := cfg.Paths.InputDir, cfg.Paths.OutputDir
	// A neutral extension so the png target is not skipped as a same-format copy.
	testsupport.WritePNG(t, filepath.Join(in, "sprite.img"), size, size)
	src := testsupport.NewTestImage(size, size)

	summary := run(t, cfg)
	if summary.FailedFiles != 0 || summary.Images != 1 {
		t.Fatalf("unexpected summary: images=%d failed=%d %v", summary.Images, summary.FailedFiles, summary.Failures)
	}

	decoders := map[string]func([]byte) (image.Image, error){
		"sprite.png":  func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
		"sprite.jpeg": func(b []byte) (image.Image, error) { return jpeg.Decode(bytes.NewReader(b)) },
		"sprite.webp": func(b []byte) (image.Image, error) { return webp.Decode(bytes.NewReader(b)) },
		"sprite.avif": func(b []byte) (image.Image, error) { return avif.Decode(bytes.NewReader(b)) },
	}
	for name, decode := range decoders {
		img, err := decode(readFile(t, filepath.Join(out, name)))
		if err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		if img.Bounds().Dx() != size || img.Bounds().Dy() != size {
			t.Fatalf("%s bounds = %v", name, img.Bounds())
		}
		for _, pt := range []image.Point{{4, 4}, {13, 20}, {22, 9}, {27, 27}} {
			want := src.NRGBAAt(pt.X, pt.Y)
			got := color.NRGBAModel.Convert(img.At(pt.X, pt.Y)).(color.NRGBA)
			switch name {
			case "sprite.png":
				if got != want {
					t.Fatalf("%s pixel %v = %v, want %v", name, pt, got, want)
				}
			case "sprite.jpeg":
				requireClose(t, name, pt, got, flattenOnWhite(want), 255)
			default:
				requireClose(t, name, pt, got, want, want.A)
			}
		}
	}
}

func flattenOnWhite(c color.NRGBA) color.NRGBA {
	mix := func(v uint8) uint8 {
		return uint8((int(v)*int(c.A) + 255*(255-int(c.A))) / 255)
	}
	return color.NRGBA{R: mix(c.R), G: mix(c.G), B: mix(c.B), A: 255}
}

func requireClose(t *testing.T, name string, pt image.Point, got, want color.NRGBA, wantAlpha uint8) {
	t.Helper()
	const tolerance = 28
	diff := func(a, b uint8) int {
		d := int(a) - int(b)
		if d < 0 {
			return -d
		}
		return d
	}
	if diff(got.R, want.R) > tolerance || diff(got.G, want.G) > tolerance || diff(got.B, want.B) > tolerance || diff(got.A, wantAlpha) > 12 {
		t.Fatalf("%s pixel %v = %v, want about %v (alpha %d)", name, pt, got, want, wantAlpha)
	}
}
