// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableMode controls how a table renders.
type TableMode int

const (
	ASCII    TableMode = iota // Fixed-width terminal tables
	Markdown                  // GitHub-flavoured Markdown tables
)

// Table is a thin builder over go-pretty.
type Table struct {
	writer  table.Writer
	mode    TableMode
	columns []table.ColumnConfig
}

// NewTable returns a table that renders in the given mode.
func NewTable(m TableMode) *Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return &Table{writer: w, mode: m}
}

// Header sets the column headers.
func (t *Table) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.writer.AppendHeader(row)
}

// Row appends a data row.
func (t *Table) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendRow(row)
}

// Footer appends a footer row.
func (t *Table) Footer(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendFooter(row)
}

// MaxWidth wraps the 1-based column beyond width characters.
func (t *Table) MaxWidth(column, width int) {
	t.column(column).WidthMax = width
	t.writer.SetColumnConfigs(t.columns)
}

// AlignRight right-aligns the 1-based column.
func (t *Table) AlignRight(column int) {
	t.column(column).Align = text.AlignRight
	t.writer.SetColumnConfigs(t.columns)
}

func (t *Table) column(number int) *table.ColumnConfig {
	for i := range t.columns {
		if t.columns[i].Number == number {
			return &t.columns[i]
		}
	}
	t.columns = append(t.columns, table.ColumnConfig{Number: number})
	return &t.columns[len(t.columns)-1]
}

// String renders the table.
func (t *Table) String() string {
	if t.mode == Markdown {
		return t.writer.RenderMarkdown()
	}
	return t.writer.Render()
}
