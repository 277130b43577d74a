// Package transcode decodes a classified image once and re-encodes it into
// the configured target formats.
//
// PNG output is lossless. JPEG output drops alpha by compositing over
// Options.JPEGBackground. WebP is lossy or lossless depending on
// Options.WebPLossless, and AVIF is lossy at Options.AVIFQuality. Variant
// files take the source name with the target's extension; a variant that
// would land on the source's own name is not produced because the unmodified
// original already occupies it.
package transcode
