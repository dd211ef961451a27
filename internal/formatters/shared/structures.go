// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"legallens/internal/core"
	"legallens/internal/formatters"
	"legallens/internal/scoring"
)

// Finding kinds
const (
	KindRisk       = "risk"
	KindCompliance = "compliance"
)

// BatchReport is the top-level structure for JSON/YAML output of several documents
type BatchReport struct {
	Summary BatchSummary   `json:"summary" yaml:"summary"`
	Results []*core.Result `json:"results" yaml:"results"`
}

// BatchSummary aggregates a batch of results
type BatchSummary struct {
	Documents    int            `json:"documents" yaml:"documents"`
	AverageScore float64        `json:"average_score" yaml:"average_score"`
	Ratings      map[string]int `json:"ratings" yaml:"ratings"`
	RiskFindings int            `json:"risk_findings" yaml:"risk_findings"`
}

// FindingRow is one finding flattened for tabular output
type FindingRow struct {
	Kind     string
	Category string
	Title    string
	Weight   int
	Line     int
	Match    string
	Context  string
}

// Summarize aggregates scores and ratings over results.
func Summarize(results []*core.Result) BatchSummary {
	s := BatchSummary{Documents: len(results), Ratings: make(map[string]int)}
	if len(results) == 0 {
		return s
	}
	total := 0
	for _, r := range results {
		total += r.FairnessScore
		s.Ratings[string(r.Rating)]++
		s.RiskFindings += r.RiskCount()
	}
	s.AverageScore = float64(total) / float64(len(results))
	return s
}

// Payload returns the single result itself, or a BatchReport for several.
func Payload(results []*core.Result) any {
	if len(results) == 1 {
		return results[0]
	}
	if results == nil {
		results = []*core.Result{}
	}
	return BatchReport{Summary: Summarize(results), Results: results}
}

// FlattenFindings lists risk findings then compliance findings, each in
// taxonomy order.
func FlattenFindings(r *core.Result, options formatters.FormatterOptions) []FindingRow {
	tax := options.Tables()
	var rows []FindingRow
	for _, key := range r.RiskFindings.Keys(tax.RiskKeys()) {
		title, weight := key, 0
		if cat, ok := tax.Risk(key); ok {
			title, weight = nonEmpty(cat.Title, key), cat.Weight
		}
		for _, f := range r.RiskFindings[key] {
			rows = append(rows, FindingRow{
				Kind: KindRisk, Category: key, Title: title, Weight: weight,
				Line: f.LineNumber, Match: f.MatchedText, Context: f.Context,
			})
		}
	}
	for _, key := range r.ComplianceFindings.Keys(tax.FrameworkKeys()) {
		title := key
		if fw, ok := tax.Framework(key); ok {
			title = nonEmpty(fw.Title, key)
		}
		for _, f := range r.ComplianceFindings[key] {
			rows = append(rows, FindingRow{
				Kind: KindCompliance, Category: key, Title: title,
				Line: f.LineNumber, Match: f.MatchedText, Context: f.Context,
			})
		}
	}
	return rows
}

// CategoryTitles returns display titles for the present categories of one kind.
func CategoryTitles(r *core.Result, kind string, options formatters.FormatterOptions) []string {
	tax := options.Tables()
	var titles []string
	if kind == KindRisk {
		for _, key := range r.RiskFindings.Keys(tax.RiskKeys()) {
			cat, _ := tax.Risk(key)
			titles = append(titles, nonEmpty(cat.Title, key))
		}
		return titles
	}
	for _, key := range r.ComplianceFindings.Keys(tax.FrameworkKeys()) {
		fw, _ := tax.Framework(key)
		titles = append(titles, nonEmpty(fw.Title, key))
	}
	return titles
}

// RatingLabel renders a rating, using "N/A" for results that were never scored.
func RatingLabel(r scoring.Rating) string {
	if r == "" {
		return "N/A"
	}
	return string(r)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
