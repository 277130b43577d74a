package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// column describes one rendered column. A zero width leaves it unbounded.
type column struct {
	header string
	align  columnAlignment
	width  int
	// path keeps the tail of an over-long value, where the file name is;
	// other capped columns wrap instead.
	path bool
}

const (
	pathColumnWidth   = 56
	reasonColumnWidth = 64
)

var (
	metricColumns = []column{
		{header: "Metric"},
		{header: "Value", align: alignRight},
	}
	failureColumns = []column{
		{header: "Path", width: pathColumnWidth, path: true},
		{header: "Stage"},
		{header: "Variant"},
		{header: "Reason", width: reasonColumnWidth},
	}
	runColumns = []column{
		{header: "Started"},
		{header: "Run"},
		{header: "Files", align: alignRight},
		{header: "Failed", align: alignRight},
		{header: "Written", align: alignRight},
		{header: "Duration", align: alignRight},
		{header: "Status"},
		{header: "Input", width: pathColumnWidth, path: true},
	}
)

// renderTable draws rows under columns. Short rows are padded and extra cells
// are dropped. An empty title omits the title bar.
func renderTable(title string, columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle("%s", title)
	}

	header := make(table.Row, len(columns))
	for i, c := range columns {
		header[i] = c.header
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, c := range columns {
		cfg := table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
			WidthMax:    c.width,
		}
		if c.align == alignRight {
			cfg.Align = text.AlignRight
		}
		if c.width > 0 {
			cfg.WidthMaxEnforcer = text.WrapSoft
			if c.path {
				cfg.WidthMaxEnforcer = trimPathHead
			}
		}
		configs = append(configs, cfg)
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// trimPathHead shortens value to maxLen runes by dropping leading characters.
func trimPathHead(value string, maxLen int) string {
	runes := []rune(value)
	if len(runes) <= maxLen || maxLen <= 0 {
		return value
	}
	if maxLen == 1 {
		return "…"
	}
	return "…" + string(runes[len(runes)-(maxLen-1):])
}
