package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"assetprep/internal/pipeline"
)

// maxFailureRows caps the failure table; the remainder is summarised.
const maxFailureRows = 50

var countPrinter = message.NewPrinter(language.English)

func formatCount(n int) string {
	return countPrinter.Sprintf("%d", n)
}

func renderSummary(s *pipeline.Summary, colorize bool) string {
	var b strings.Builder

	for _, line := range renderSectionHeader("Asset run", colorize) {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	kind, detail := summaryStatus(s)
	b.WriteString(renderStatusLine("Status", kind, detail, colorize))
	b.WriteByte('\n')

	rows := [][]string{
		{"Files", formatCount(s.Files)},
		{"Images", formatCount(s.Images)},
		{"Generic", formatCount(s.Generic)},
		{"Decode fallbacks", formatCount(s.Fallbacks)},
		{"Failed files", formatCount(s.FailedFiles)},
		{"Artifacts written", formatCount(s.Artifacts)},
		{"Superseded", formatCount(s.Superseded)},
		{"Read", humanize.Bytes(uint64(max(s.BytesRead, 0)))},
		{"Written", humanize.Bytes(uint64(max(s.BytesWritten, 0)))},
		{"Workers", formatCount(s.Workers)},
		{"Duration", s.Duration().Round(time.Millisecond).String()},
	}
	b.WriteString(renderTable("", metricColumns, rows))
	b.WriteByte('\n')

	if len(s.Failures) > 0 {
		b.WriteByte('\n')
		b.WriteString(renderFailures(s.Failures))
		b.WriteByte('\n')
	}
	return b.String()
}

func summaryStatus(s *pipeline.Summary) (statusKind, string) {
	switch {
	case s.Cancelled:
		return statusWarn, fmt.Sprintf("cancelled after %s files", formatCount(s.Files))
	case s.FailedFiles > 0:
		return statusWarn, fmt.Sprintf("completed with %s failed files", formatCount(s.FailedFiles))
	default:
		return statusOK, "completed"
	}
}

func renderFailures(failures []pipeline.Failure) string {
	shown := failures
	if len(shown) > maxFailureRows {
		shown = shown[:maxFailureRows]
	}
	rows := make([][]string, 0, len(shown))
	for _, f := range shown {
		variant := f.Variant
		if variant == "" {
			variant = "-"
		}
		reason := ""
		if f.Err != nil {
			reason = f.Err.Error()
		}
		rows = append(rows, []string{f.Path, f.Stage, variant, reason})
	}
	out := renderTable("Failures", failureColumns, rows)
	if hidden := len(failures) - len(shown); hidden > 0 {
		out += fmt.Sprintf("\n... and %s more failures", formatCount(hidden))
	}
	return out
}
