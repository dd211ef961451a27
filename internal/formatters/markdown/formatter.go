// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package markdown

import (
	"fmt"
	"strings"

	"legallens/internal/core"
	"legallens/internal/formatters"
	"legallens/internal/formatters/shared"
)

// Formatter renders results as a Markdown report
type Formatter struct{}

// NewFormatter creates a new Markdown formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "markdown"
}

func (f *Formatter) Description() string {
	return "Markdown report suitable for pull requests and wikis"
}

func (f *Formatter) FileExtension() string {
	return ".md"
}

func (f *Formatter) Format(results []*core.Result, options formatters.FormatterOptions) (string, error) {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&b, "# %s\n\n", r.Title)
		fmt.Fprintf(&b, "**Document type:** %s  \n", r.DocumentType)
		fmt.Fprintf(&b, "**Fairness score:** %d/100 (%s)\n\n", r.FairnessScore, shared.RatingLabel(r.Rating))

		rows := shared.FlattenFindings(r, options)
		if len(rows) > 0 {
			b.WriteString("## Findings\n\n")
			t := shared.NewTable(shared.Markdown)
			t.Header("Kind", "Category", "Line", "Match")
			for _, row := range rows {
				t.Row(row.Kind, row.Title, row.Line, strings.Join(strings.Fields(row.Match), " "))
			}
			b.WriteString(t.String())
			b.WriteString("\n\n")
		}

		if recs := r.FinalRecommendations(); len(recs) > 0 {
			b.WriteString("## Recommendations\n\n")
			for _, rec := range recs {
				fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(rec))
			}
			b.WriteString("\n")
		}
		if r.Summary != "" {
			fmt.Fprintf(&b, "## Summary\n\n%s\n", r.Summary)
		}
	}
	return b.String(), nil
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
