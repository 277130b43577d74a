package transcode

import (
	"fmt"
	"path"
	"strings"
)

// Target is an output image encoding.
type Target int

const (
	PNG Target = iota
	JPEG
	WebP
	AVIF
)

var targetNames = [...]string{PNG: "png", JPEG: "jpeg", WebP: "webp", AVIF: "avif"}

// AllTargets lists every target in canonical order.
func AllTargets() []Target {
	return []Target{PNG, JPEG, WebP, AVIF}
}

func (t Target) String() string {
	if int(t) < 0 || int(t) >= len(targetNames) {
		return fmt.Sprintf("target(%d)", int(t))
	}
	return targetNames[t]
}

// Ext is the canonical filename extension for t, including the dot.
func (t Target) Ext() string {
	return "." + t.String()
}

// ParseTarget resolves a target name; "jpg" is accepted for jpeg.
func ParseTarget(raw string) (Target, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(raw)), ".") {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	case "avif":
		return AVIF, nil
	}
	return 0, fmt.Errorf("unsupported image target %q (want png, jpeg, webp, avif)", raw)
}

// ParseTargets resolves a list of names, dropping duplicates.
func ParseTargets(raw []string) ([]Target, error) {
	out := make([]Target, 0, len(raw))
	seen := make(map[Target]bool, len(raw))
	for _, name := range raw {
		t, err := ParseTarget(name)
		if err != nil {
			return nil, err
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out, nil
}

// VariantPath replaces the extension of rel with the target's extension. A
// name without an extension gets one appended.
func VariantPath(rel string, t Target) string {
	ext := path.Ext(rel)
	if ext == "" || ext == rel || strings.HasSuffix(rel, "/"+ext) {
		return rel + t.Ext()
	}
	return strings.TrimSuffix(rel, ext) + t.Ext()
}

// CollidesWithSource reports whether the variant for t would land on rel
// itself, e.g. logo.png re-encoded as png. The original copy takes that path.
func CollidesWithSource(rel string, t Target) bool {
	return strings.EqualFold(VariantPath(rel, t), rel)
}
