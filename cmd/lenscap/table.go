package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// columnAlignment picks how a listing column lines up; the numeric size
// column reads better right-aligned.
type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable lays out gallery listings. Short rows are padded so a photo
// with no tags still occupies every column.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatUpper

	header := make(table.Row, len(headers))
	configs := make([]table.ColumnConfig, len(headers))
	for i, title := range headers {
		header[i] = title
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       alignmentFor(aligns, i),
			AlignHeader: text.AlignLeft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		cells := make(table.Row, len(headers))
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		tw.AppendRow(cells)
	}

	return tw.Render()
}

func alignmentFor(aligns []columnAlignment, column int) text.Align {
	if column < len(aligns) && aligns[column] == alignRight {
		return text.AlignRight
	}
	return text.AlignLeft
}
