// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"sort"
	"strings"

	"legallens/internal/core"
	"legallens/internal/formatters"
	"legallens/internal/formatters/shared"
	"legallens/internal/scoring"

	"github.com/fatih/color"
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"green":  color.New(color.FgGreen, color.Bold),
			"yellow": color.New(color.FgYellow, color.Bold),
			"red":    color.New(color.FgRed, color.Bold),
			"cyan":   color.New(color.FgCyan),
			"white":  color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable report with colors and tables"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(results []*core.Result, options formatters.FormatterOptions) (string, error) {
	if len(results) == 0 {
		return "No documents analyzed.", nil
	}

	var builder strings.Builder
	for i, r := range results {
		if i > 0 {
			builder.WriteString("\n")
		}
		f.appendResult(&builder, r, options)
	}
	if len(results) > 1 {
		builder.WriteString("\n")
		f.appendBatchSummary(&builder, results, options)
	}
	return builder.String(), nil
}

// appendResult writes the report for one document
func (f *Formatter) appendResult(builder *strings.Builder, r *core.Result, options formatters.FormatterOptions) {
	title := fmt.Sprintf("=== %s (%s) ===", r.Title, r.DocumentType)
	builder.WriteString(f.paint("white", title, options) + "\n")
	if r.Source != "" {
		fmt.Fprintf(builder, "Source: %s\n", r.Source)
	}
	fmt.Fprintf(builder, "Fairness Score: %s\n",
		f.paint(f.ratingColor(r.Rating), fmt.Sprintf("%d/100 (%s)", r.FairnessScore, shared.RatingLabel(r.Rating)), options))
	fmt.Fprintf(builder, "Content: %d characters, %d sections\n", r.ContentLength, len(r.Sections))

	f.appendRiskTable(builder, r, options)

	frameworks := shared.CategoryTitles(r, shared.KindCompliance, options)
	if len(frameworks) == 0 {
		builder.WriteString("Compliance: none detected\n")
	} else {
		fmt.Fprintf(builder, "Compliance: %s\n", strings.Join(frameworks, ", "))
	}

	if options.Verbose {
		f.appendFindingDetails(builder, r, options)
	}

	recs := r.FinalRecommendations()
	if len(recs) > 0 {
		builder.WriteString("\n" + f.paint("cyan", "Recommendations:", options) + "\n")
		for _, rec := range recs {
			fmt.Fprintf(builder, "  - %s\n", strings.ReplaceAll(strings.TrimSpace(rec), "\n", "\n    "))
		}
	}

	if r.Summary != "" {
		builder.WriteString("\n" + f.paint("cyan", "Summary:", options) + "\n")
		for _, line := range strings.Split(r.Summary, "\n") {
			fmt.Fprintf(builder, "  %s\n", line)
		}
	}

	fmt.Fprintf(builder, "\nNarrative: summary %s, enhancement %s\n",
		describeNarrative(r.Narrative.Summary), describeNarrative(r.Narrative.Enhancement))
}

// appendRiskTable writes one row per risk category present
func (f *Formatter) appendRiskTable(builder *strings.Builder, r *core.Result, options formatters.FormatterOptions) {
	tax := options.Tables()
	keys := r.RiskFindings.Keys(tax.RiskKeys())
	if len(keys) == 0 {
		builder.WriteString("\nNo risky clauses detected.\n")
		return
	}

	t := shared.NewTable(shared.ASCII)
	t.Header("CATEGORY", "WEIGHT", "CLAUSES", "FIRST LINE")
	t.AlignRight(2)
	t.AlignRight(3)
	t.AlignRight(4)
	deduction := 0
	for _, key := range keys {
		title, weight := key, 0
		if cat, ok := tax.Risk(key); ok {
			weight = cat.Weight
			if cat.Title != "" {
				title = cat.Title
			}
		}
		deduction += weight
		findings := r.RiskFindings[key]
		t.Row(title, fmt.Sprintf("-%d", weight), len(findings), findings[0].LineNumber)
	}
	t.Footer("TOTAL", fmt.Sprintf("-%d", deduction), r.RiskCount(), "")

	builder.WriteString("\n")
	builder.WriteString(t.String())
	builder.WriteString("\n")
}

// appendFindingDetails lists every finding with its context window
func (f *Formatter) appendFindingDetails(builder *strings.Builder, r *core.Result, options formatters.FormatterOptions) {
	rows := shared.FlattenFindings(r, options)
	if len(rows) == 0 {
		return
	}
	t := shared.NewTable(shared.ASCII)
	t.Header("KIND", "CATEGORY", "LINE", "MATCH", "CONTEXT")
	t.AlignRight(3)
	t.MaxWidth(4, 30)
	t.MaxWidth(5, 60)
	for _, row := range rows {
		t.Row(row.Kind, row.Title, row.Line, flatten(row.Match), flatten(row.Context))
	}
	builder.WriteString("\n" + f.paint("cyan", "Findings:", options) + "\n")
	builder.WriteString(t.String())
	builder.WriteString("\n")
}

// appendBatchSummary writes totals for several documents
func (f *Formatter) appendBatchSummary(builder *strings.Builder, results []*core.Result, options formatters.FormatterOptions) {
	s := shared.Summarize(results)
	ratings := make([]string, 0, len(s.Ratings))
	for rating, n := range s.Ratings {
		ratings = append(ratings, fmt.Sprintf("%s %d", shared.RatingLabel(scoring.Rating(rating)), n))
	}
	sort.Strings(ratings)
	line := fmt.Sprintf("Analyzed %d documents: average score %.1f, %d risk findings (%s)",
		s.Documents, s.AverageScore, s.RiskFindings, strings.Join(ratings, ", "))
	builder.WriteString(f.paint("white", line, options) + "\n")
}

func (f *Formatter) ratingColor(r scoring.Rating) string {
	switch r {
	case scoring.RatingFair:
		return "green"
	case scoring.RatingModerate:
		return "yellow"
	case scoring.RatingUnfair:
		return "red"
	default:
		return "white"
	}
}

// paint colors s unless colors are disabled
func (f *Formatter) paint(name, s string, options formatters.FormatterOptions) string {
	if options.NoColor {
		return s
	}
	return f.colors[name].Sprint(s)
}

func describeNarrative(rec core.NarrativeRecord) string {
	switch rec.Status {
	case "":
		return "not run"
	case core.NarrativeSkipped:
		return string(rec.Status)
	}
	noun := "attempts"
	if rec.Attempts == 1 {
		noun = "attempt"
	}
	return fmt.Sprintf("%s (%d %s)", rec.Status, rec.Attempts, noun)
}

// flatten collapses whitespace so a value fits on one table line
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Register the formatter during package initialization
func init() {
	formatters.Register(NewFormatter())
}
