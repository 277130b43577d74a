package main

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"assetprep/internal/logging"
	"assetprep/internal/pipeline"
)

// progressObserver reports run progress either as a terminal bar or, when
// stderr is not a terminal, as sampled log lines.
type progressObserver struct {
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	total   int
	done    int
	failed  int
}

func newProgressObserver(w io.Writer, logger *slog.Logger, showBar bool) *progressObserver {
	p := &progressObserver{logger: logger}
	if !showBar {
		p.sampler = logging.NewProgressSampler(10)
		return p
	}
	p.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("processing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionFullWidth(),
	)
	return p
}

func (p *progressObserver) Enumerated(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
	if p.bar != nil {
		if total > 0 {
			p.bar.ChangeMax(total)
		}
		return
	}
	p.logProgress("enumerated")
}

func (p *progressObserver) Completed(o pipeline.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	if o.Failed() {
		p.failed++
	}
	if p.bar != nil {
		_ = p.bar.Add(1)
		return
	}
	p.logProgress("processing")
}

// logProgress must be called with mu held.
func (p *progressObserver) logProgress(phase string) {
	if p.logger == nil || p.total <= 0 {
		return
	}
	if !p.sampler.ShouldLog(p.done, p.total, phase) {
		return
	}
	percent := float64(p.done) * 100 / float64(p.total)
	p.logger.Info("asset run progress",
		logging.String(logging.FieldEventType, "run_progress"),
		logging.Int("done", p.done),
		logging.Int("total", p.total),
		logging.Int("failed", p.failed),
		logging.Float64("percent", float64(int(percent*10))/10),
	)
}

// Finish clears the bar. It is safe to call when no bar is shown.
func (p *progressObserver) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
