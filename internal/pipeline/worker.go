package pipeline

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"assetprep/internal/classify"
	"assetprep/internal/logging"
	"assetprep/internal/output"
	"assetprep/internal/transcode"
)

type worker struct {
	opts      Options
	inputRoot string
	writer    *output.Writer
	logger    *slog.Logger
}

// process handles one relative path end to end. It never returns an error;
// everything that goes wrong is recorded on the Outcome.
func (w *worker) process(rel string) (outcome Outcome) {
	started := time.Now()
	outcome = Outcome{Path: rel}
	logger := w.logger.With(logging.String(logging.FieldPath, rel))

	defer func() {
		if rec := recover(); rec != nil {
			outcome.Failures = append(outcome.Failures, Failure{
				Path:  rel,
				Stage: StageWorker,
				Err:   fmt.Errorf("panic: %v", rec),
			})
		}
		outcome.Duration = time.Since(started)
		for _, f := range outcome.Failures {
			logging.WarnWithContext(logger, "asset step failed", "asset_failure",
				logging.String("stage", f.Stage),
				logging.String("variant", f.Variant),
				logging.Error(f.Err),
				logging.String(logging.FieldImpact, "other outputs for this file are unaffected"),
			)
		}
	}()

	full := filepath.Join(w.inputRoot, filepath.FromSlash(rel))
	asset, size, err := sniff(full)
	if err != nil {
		outcome.Failures = append(outcome.Failures, Failure{Path: rel, Stage: StageRead, Err: err})
		return outcome
	}
	outcome.Asset = asset
	outcome.SizeIn = size
	logger.Debug("asset classified",
		logging.String(logging.FieldKind, asset.String()),
		logging.String("mime", asset.MIME),
	)

	w.copyOriginal(&outcome, full)

	if asset.IsImage() {
		img, err := w.decode(full, asset.Format)
		if err == nil {
			w.encodeImages(&outcome, img, logger)
			return outcome
		}
		outcome.Fallback = true
		logging.WarnWithContext(logger, "image decode failed; treating as generic file", "image_decode_fallback",
			logging.String(logging.FieldFormat, string(asset.Format)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "compressed siblings written instead of image variants"),
			logging.String(logging.FieldErrorHint, "verify the file is a valid image"),
		)
	}

	w.compressGeneric(&outcome, full, logger)
	return outcome
}

func sniff(full string) (classify.AssetKind, int64, error) {
	f, err := os.Open(full)
	if err != nil {
		return classify.AssetKind{}, 0, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return classify.AssetKind{}, 0, err
	}
	if !info.Mode().IsRegular() {
		return classify.AssetKind{}, 0, fmt.Errorf("not a regular file: %s", info.Mode())
	}
	head, err := classify.ReadHead(f)
	if err != nil {
		return classify.AssetKind{}, 0, err
	}
	return classify.Classify(head), info.Size(), nil
}

func (w *worker) copyOriginal(outcome *Outcome, full string) {
	rel := outcome.Path
	res, err := w.writer.Copy(rel, output.Owner{Original: true, Source: rel}, full)
	if err != nil {
		outcome.Failures = append(outcome.Failures, Failure{Path: rel, Stage: StageCopy, Err: err})
		return
	}
	w.record(outcome, res, ArtifactOriginal, "")
}

func (w *worker) decode(full string, format classify.SourceFormat) (image.Image, error) {
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	return transcode.Decode(data, format)
}

// encodeImages writes one variant per target. Each target succeeds or fails
// on its own.
func (w *worker) encodeImages(outcome *Outcome, img image.Image, logger *slog.Logger) {
	rel := outcome.Path
	for _, target := range w.opts.Images.Variants(rel) {
		dst := transcode.VariantPath(rel, target)
		res, err := w.writer.Write(dst, output.Owner{Source: rel}, func(out io.Writer) error {
			return w.opts.Images.Encode(out, img, target)
		})
		if err != nil {
			outcome.Failures = append(outcome.Failures, Failure{Path: rel, Stage: StageEncode, Variant: target.String(), Err: err})
			continue
		}
		w.record(outcome, res, ArtifactImage, target.String())
		logger.Debug("image variant written",
			logging.String(logging.FieldTarget, target.String()),
			logging.String("output", res.Path),
			logging.Int64("bytes", res.Bytes),
			logging.Bool("superseded", res.Superseded),
		)
	}
}

// compressGeneric writes one compressed sibling per codec, each reading the
// source afresh so memory stays bounded for large files.
func (w *worker) compressGeneric(outcome *Outcome, full string, logger *slog.Logger) {
	rel := outcome.Path
	for _, variant := range w.opts.Compression.Variants(rel) {
		res, err := w.writer.Write(variant.OutputName(rel), output.Owner{Source: rel}, func(out io.Writer) error {
			src, err := os.Open(full)
			if err != nil {
				return err
			}
			defer src.Close()
			return variant.Codec.Encode(out, src, variant.Level)
		})
		if err != nil {
			outcome.Failures = append(outcome.Failures, Failure{Path: rel, Stage: StageCompress, Variant: variant.Codec.Name, Err: err})
			continue
		}
		w.record(outcome, res, ArtifactCompressed, variant.Codec.Name)
		logger.Debug("compressed variant written",
			logging.String(logging.FieldCodec, variant.Codec.Name),
			logging.String("output", res.Path),
			logging.Int64("bytes", res.Bytes),
			logging.Bool("superseded", res.Superseded),
		)
	}
}

func (w *worker) record(outcome *Outcome, res output.Result, kind ArtifactKind, variant string) {
	if res.Superseded {
		outcome.Superseded++
		return
	}
	outcome.Artifacts = append(outcome.Artifacts, Artifact{
		Path:    res.Path,
		Kind:    kind,
		Variant: variant,
		Bytes:   res.Bytes,
	})
}
