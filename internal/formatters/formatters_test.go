// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legallens/internal/core"
	"legallens/internal/detector"
	"legallens/internal/document"
	"legallens/internal/formatters"
	_ "legallens/internal/formatters/csv"
	_ "legallens/internal/formatters/json"
	_ "legallens/internal/formatters/markdown"
	_ "legallens/internal/formatters/text"
	_ "legallens/internal/formatters/yaml"
	"legallens/internal/scoring"
)

func sampleResult() *core.Result {
	return &core.Result{
		ID:           "abc-123",
		Title:        "Acme Terms",
		DocumentType: document.TermsOfService,
		Sections:     []document.Section{{Title: "Introduction", Body: "..."}},
		RiskFindings: detector.Findings{
			"broad_data_use": {
				{Category: "broad_data_use", MatchedText: "use your data for any purpose", Context: "we may use your data for any purpose", LineNumber: 7},
			},
			"mandatory_arbitration": {
				{Category: "mandatory_arbitration", MatchedText: "=binding arbitration", Context: "disputes go to binding arbitration", LineNumber: 3},
				{Category: "mandatory_arbitration", MatchedText: "arbitration only", Context: "arbitration only", LineNumber: 9},
			},
		},
		ComplianceFindings: detector.Findings{
			"gdpr": {{Category: "gdpr", MatchedText: "GDPR", Context: "under GDPR", LineNumber: 12}},
		},
		FairnessScore:   65,
		Rating:          scoring.RatingModerate,
		Recommendations: []string{"⚠️ Consider adding opt-out options for arbitration"},
		Summary:         "Short summary.",
		Narrative: core.Narrative{
			Summary:     core.NarrativeRecord{Status: core.NarrativeFallback, Attempts: 3, Error: "down"},
			Enhancement: core.NarrativeRecord{Status: core.NarrativeSkipped},
		},
		ContentLength: 420,
		AnalyzedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func cleanResult() *core.Result {
	return &core.Result{
		ID:                 "def-456",
		Title:              "Fair Policy",
		DocumentType:       document.PrivacyPolicy,
		RiskFindings:       detector.Findings{},
		ComplianceFindings: detector.Findings{},
		FairnessScore:      100,
		Rating:             scoring.RatingFair,
		Recommendations:    []string{"✅ Document appears to have fair terms"},
	}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "markdown", "text", "yaml"}, formatters.List())

	f, ok := formatters.Get("JSON")
	require.True(t, ok)
	assert.Equal(t, ".json", f.FileExtension())

	_, err := formatters.Export("sarif", nil, formatters.FormatterOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available formats: csv, json, markdown, text, yaml")

	infos := formatters.GetSupportedFormats()
	require.Len(t, infos, 5)
	assert.Equal(t, "text/csv", infos[0].MimeType)
	assert.Empty(t, formatters.GetFormatInfo("nope").Name)
}

func TestJSONFormatter(t *testing.T) {
	out, err := formatters.Export("json", []*core.Result{sampleResult()}, formatters.FormatterOptions{})
	require.NoError(t, err)

	var single map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &single))
	assert.Equal(t, "Acme Terms", single["document_title"])
	assert.EqualValues(t, 65, single["fairness_score"])
	assert.Equal(t, "MODERATE", single["rating"])

	out, err = formatters.Export("json", []*core.Result{sampleResult(), cleanResult()}, formatters.FormatterOptions{})
	require.NoError(t, err)
	var batch struct {
		Summary struct {
			Documents    int            `json:"documents"`
			AverageScore float64        `json:"average_score"`
			Ratings      map[string]int `json:"ratings"`
			RiskFindings int            `json:"risk_findings"`
		} `json:"summary"`
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	assert.Equal(t, 2, batch.Summary.Documents)
	assert.InDelta(t, 82.5, batch.Summary.AverageScore, 0.001)
	assert.Equal(t, map[string]int{"MODERATE": 1, "FAIR": 1}, batch.Summary.Ratings)
	assert.Equal(t, 3, batch.Summary.RiskFindings)
	assert.Len(t, batch.Results, 2)
}

func TestYAMLFormatter(t *testing.T) {
	out, err := formatters.Export("yaml", []*core.Result{sampleResult()}, formatters.FormatterOptions{})
	require.NoError(t, err)
	assert.Contains(t, out, "document_title: Acme Terms")
	assert.Contains(t, out, "fairness_score: 65")
	assert.Contains(t, out, "mandatory_arbitration:")
}

func TestCSVFormatter(t *testing.T) {
	out, err := formatters.Export("csv", []*core.Result{sampleResult(), cleanResult()}, formatters.FormatterOptions{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Document,Document Type,Score,Rating,Kind,Category,Line,Match", lines[0])
	// taxonomy order: arbitration before broad data use, compliance last
	assert.Equal(t, "Acme Terms,Terms of Service,65,MODERATE,risk,mandatory_arbitration,3,'=binding arbitration", lines[1])
	assert.Contains(t, lines[3], "broad_data_use,7")
	assert.Contains(t, lines[4], "compliance,gdpr,12,GDPR")
	assert.Equal(t, "Fair Policy,Privacy Policy,100,FAIR,none,,,", lines[5])

	out, err = formatters.Export("csv", []*core.Result{sampleResult()}, formatters.FormatterOptions{ShowContext: true})
	require.NoError(t, err)
	assert.Contains(t, strings.SplitN(out, "\n", 2)[0], ",Context")
	assert.Contains(t, out, "disputes go to binding arbitration")
}

func TestTextFormatter(t *testing.T) {
	opts := formatters.FormatterOptions{NoColor: true}
	out, err := formatters.Export("text", []*core.Result{sampleResult()}, opts)
	require.NoError(t, err)

	assert.Contains(t, out, "=== Acme Terms (Terms of Service) ===")
	assert.Contains(t, out, "Fairness Score: 65/100 (MODERATE)")
	assert.Contains(t, out, "Mandatory Arbitration")
	assert.Contains(t, out, "Broad Data Use")
	assert.Contains(t, out, "Compliance: GDPR")
	assert.Contains(t, out, "  - ⚠️ Consider adding opt-out options for arbitration")
	assert.Contains(t, out, "Narrative: summary fallback (3 attempts), enhancement skipped")
	assert.NotContains(t, out, "Findings:")
	assert.NotContains(t, out, "\x1b[")

	verbose, err := formatters.Export("text", []*core.Result{sampleResult()}, formatters.FormatterOptions{NoColor: true, Verbose: true})
	require.NoError(t, err)
	assert.Contains(t, verbose, "Findings:")
	assert.Contains(t, verbose, "disputes go to binding arbitration")

	batch, err := formatters.Export("text", []*core.Result{sampleResult(), cleanResult()}, opts)
	require.NoError(t, err)
	assert.Contains(t, batch, "No risky clauses detected.")
	assert.Contains(t, batch, "Compliance: none detected")
	assert.Contains(t, batch, "Analyzed 2 documents: average score 82.5, 3 risk findings (FAIR 1, MODERATE 1)")

	empty, err := formatters.Export("text", nil, opts)
	require.NoError(t, err)
	assert.Equal(t, "No documents analyzed.", empty)
}

func TestMarkdownFormatter(t *testing.T) {
	out, err := formatters.Export("markdown", []*core.Result{sampleResult()}, formatters.FormatterOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Acme Terms\n"))
	assert.Contains(t, out, "**Fairness score:** 65/100 (MODERATE)")
	assert.Contains(t, out, "| risk |")
	assert.Contains(t, out, "## Summary\n\nShort summary.")
}

func TestExportForWeb(t *testing.T) {
	content, mime, filename, err := formatters.ExportForWeb("yaml", sampleResult(), formatters.FormatterOptions{})
	require.NoError(t, err)
	assert.Equal(t, "application/x-yaml", mime)
	assert.Equal(t, "legallens-abc-123.yaml", filename)
	assert.Contains(t, content, "rating: MODERATE")

	_, _, _, err = formatters.ExportForWeb("pdf", sampleResult(), formatters.FormatterOptions{})
	assert.Error(t, err)
}
