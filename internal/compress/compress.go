package compress

import (
	"fmt"
	"io"
)

// Options selects the codecs applied to a generic file and their levels.
type Options struct {
	Codecs            []Codec
	Levels            map[string]int
	SkipPrecompressed bool
}

// Variant is one codec/level pairing to produce for a file.
type Variant struct {
	Codec Codec
	Level int
}

// OutputName returns the sibling name for rel.
func (v Variant) OutputName(rel string) string {
	return rel + v.Codec.Suffix
}

// Variants returns the compressed siblings to produce for rel. Files that
// already carry a codec suffix get none when SkipPrecompressed is set.
func (o Options) Variants(rel string) []Variant {
	if o.SkipPrecompressed && IsPrecompressed(rel) {
		return nil
	}
	out := make([]Variant, 0, len(o.Codecs))
	for _, codec := range o.Codecs {
		level, ok := o.Levels[codec.Name]
		if !ok {
			level = codec.MaxLevel
		}
		out = append(out, Variant{Codec: codec, Level: level})
	}
	return out
}

// Encode compresses src into dst. Encoder panics are converted into errors so
// one misbehaving codec cannot take down the worker.
func (c Codec) Encode(dst io.Writer, src io.Reader, level int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s encoder panic: %v", c.Name, r)
		}
	}()
	if c.newWriter == nil {
		return fmt.Errorf("codec %q has no encoder", c.Name)
	}
	if !c.ValidLevel(level) {
		return fmt.Errorf("%s level %d outside %d..%d", c.Name, level, c.MinLevel, c.MaxLevel)
	}

	zw, err := c.newWriter(dst, level)
	if err != nil {
		return fmt.Errorf("%s writer: %w", c.Name, err)
	}
	if _, err := io.Copy(zw, src); err != nil {
		_ = zw.Close()
		return fmt.Errorf("%s encode: %w", c.Name, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("%s flush: %w", c.Name, err)
	}
	return nil
}
