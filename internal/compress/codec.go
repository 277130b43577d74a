// Package compress produces the precompressed siblings served through
// content-encoding negotiation: brotli (.br), gzip (.gz), raw deflate (.zz)
// and zstd (.zst). Every codec reads the same source bytes independently.
package compress

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codec describes one compression format and the suffix its output carries.
type Codec struct {
	Name     string
	Suffix   string
	MinLevel int
	MaxLevel int

	newWriter func(w io.Writer, level int) (io.WriteCloser, error)
}

// brotliWindowBits matches the 1 MiB window browsers are guaranteed to handle.
const brotliWindowBits = 20

var (
	Brotli = Codec{
		Name: "brotli", Suffix: ".br", MinLevel: 0, MaxLevel: 11,
		newWriter: func(w io.Writer, level int) (io.WriteCloser, error) {
			return brotli.NewWriterOptions(w, brotli.WriterOptions{Quality: level, LGWin: brotliWindowBits}), nil
		},
	}
	Gzip = Codec{
		Name: "gzip", Suffix: ".gz", MinLevel: 1, MaxLevel: 9,
		newWriter: func(w io.Writer, level int) (io.WriteCloser, error) {
			return gzip.NewWriterLevel(w, level)
		},
	}
	Deflate = Codec{
		Name: "deflate", Suffix: ".zz", MinLevel: 1, MaxLevel: 9,
		newWriter: func(w io.Writer, level int) (io.WriteCloser, error) {
			return flate.NewWriter(w, level)
		},
	}
	Zstd = Codec{
		Name: "zstd", Suffix: ".zst", MinLevel: 1, MaxLevel: 22,
		newWriter: func(w io.Writer, level int) (io.WriteCloser, error) {
			return zstd.NewWriter(w,
				zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
				zstd.WithEncoderConcurrency(1),
			)
		},
	}
)

// All lists the supported codecs in canonical order.
func All() []Codec {
	return []Codec{Brotli, Gzip, Deflate, Zstd}
}

var aliases = map[string]Codec{
	"brotli":  Brotli,
	"br":      Brotli,
	"gzip":    Gzip,
	"gz":      Gzip,
	"deflate": Deflate,
	"zz":      Deflate,
	"flate":   Deflate,
	"zstd":    Zstd,
	"zst":     Zstd,
}

// ParseCodec resolves a codec name or suffix alias, case-insensitively.
func ParseCodec(raw string) (Codec, error) {
	key := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), ".")
	codec, ok := aliases[key]
	if !ok {
		return Codec{}, fmt.Errorf("unsupported codec %q (want brotli, gzip, deflate, zstd)", raw)
	}
	return codec, nil
}

// ValidLevel reports whether level is in the codec's accepted range.
func (c Codec) ValidLevel(level int) bool {
	return level >= c.MinLevel && level <= c.MaxLevel
}

func (c Codec) String() string { return c.Name }

// IsPrecompressed reports whether name already ends in a codec suffix.
func IsPrecompressed(name string) bool {
	lower := strings.ToLower(name)
	for _, codec := range All() {
		if strings.HasSuffix(lower, codec.Suffix) {
			return true
		}
	}
	return false
}
