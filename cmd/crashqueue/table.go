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

// tableColumn describes one rendered column. A positive maxWidth trims longer
// cells, which keeps free-form collector responses from wrapping the table.
type tableColumn struct {
	header   string
	align    columnAlignment
	maxWidth int
}

// renderTable draws rows under columns. Short rows are padded and extra cells
// dropped. A non-empty footer is printed in the first column of a footer row.
func renderTable(columns []tableColumn, rows [][]string, footer string) string {
	if len(columns) == 0 {
		return ""
	}

	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault
	tw := table.NewWriter()
	tw.SetStyle(style)

	tw.AppendHeader(fitRow(nil, len(columns), func(i int) string { return columns[i].header }))
	for _, row := range rows {
		tw.AppendRow(fitRow(row, len(columns), nil))
	}
	if footer != "" {
		tw.AppendFooter(fitRow([]string{footer}, len(columns), nil))
	}

	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, column := range columns {
		cfg := table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		}
		if column.align == alignRight {
			cfg.Align = text.AlignRight
		}
		if column.maxWidth > 0 {
			cfg.WidthMax = column.maxWidth
			cfg.WidthMaxEnforcer = text.Trim
		}
		configs = append(configs, cfg)
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func fitRow(cells []string, width int, fill func(int) string) table.Row {
	row := make(table.Row, width)
	for i := range row {
		switch {
		case fill != nil:
			row[i] = fill(i)
		case i < len(cells):
			row[i] = cells[i]
		default:
			row[i] = ""
		}
	}
	return row
}
