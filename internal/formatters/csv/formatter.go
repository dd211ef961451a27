// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"legallens/internal/core"
	"legallens/internal/formatters"
	"legallens/internal/formatters/shared"
)

// Formatter implements CSV output formatting
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated values, one row per finding, for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

// Format writes one row per finding. A document without findings still gets
// a single row so its score is visible.
func (f *Formatter) Format(results []*core.Result, options formatters.FormatterOptions) (string, error) {
	withContext := options.Verbose || options.ShowContext

	headers := []string{"Document", "Document Type", "Score", "Rating", "Kind", "Category", "Line", "Match"}
	if withContext {
		headers = append(headers, "Context")
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(headers); err != nil {
		return "", err
	}

	for _, r := range results {
		base := []string{
			f.sanitizeFormulaInjection(r.Title),
			string(r.DocumentType),
			strconv.Itoa(r.FairnessScore),
			shared.RatingLabel(r.Rating),
		}
		rows := shared.FlattenFindings(r, options)
		if len(rows) == 0 {
			record := append(append([]string{}, base...), "none", "", "", "")
			if withContext {
				record = append(record, "")
			}
			if err := w.Write(record); err != nil {
				return "", err
			}
			continue
		}
		for _, row := range rows {
			record := append(append([]string{}, base...),
				row.Kind,
				row.Category,
				strconv.Itoa(row.Line),
				f.sanitizeFormulaInjection(row.Match),
			)
			if withContext {
				record = append(record, f.sanitizeFormulaInjection(row.Context))
			}
			if err := w.Write(record); err != nil {
				return "", err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("error formatting CSV: %w", err)
	}
	return sb.String(), nil
}

// sanitizeFormulaInjection neutralizes cells that a spreadsheet would evaluate as formulas
func (f *Formatter) sanitizeFormulaInjection(field string) string {
	if len(field) == 0 {
		return field
	}
	switch field[0] {
	case '=', '+', '-', '@':
		return "'" + field
	}
	return field
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
