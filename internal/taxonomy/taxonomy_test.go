// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package taxonomy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTables(t *testing.T) {
	tax := Default()

	assert.Equal(t, 100, tax.BaseScore)
	assert.Equal(t, 100, tax.RiskContextChars)
	assert.Equal(t, 50, tax.ComplianceContextChars)
	assert.Equal(t, "✅ Document appears to have fair terms", tax.FairAdvisory)

	assert.Equal(t, []string{
		"mandatory_arbitration",
		"broad_liability_waivers",
		"broad_termination_rights",
		"automatic_renewal",
		"excessive_data_collection",
		"no_refunds",
		"data_selling",
		"unilateral_changes",
		"sole_discretion_clauses",
		"waiver_of_rights",
		"extensive_data_sharing",
		"indefinite_data_retention",
		"broad_data_use",
		"lack_of_user_control",
	}, tax.RiskKeys())
	assert.Equal(t, []string{"gdpr", "coppa", "ccpa", "fair_terms", "privacy_best_practices"}, tax.FrameworkKeys())
}

func TestDefaultWeightsAndCounts(t *testing.T) {
	tax := Default()

	weights := map[string]int{
		"mandatory_arbitration":     25,
		"broad_liability_waivers":   30,
		"broad_termination_rights":  20,
		"automatic_renewal":         15,
		"excessive_data_collection": 25,
		"no_refunds":                10,
		"data_selling":              30,
		"unilateral_changes":        15,
		"sole_discretion_clauses":   15,
		"waiver_of_rights":          20,
		"extensive_data_sharing":    25,
		"indefinite_data_retention": 20,
		"broad_data_use":            20,
		"lack_of_user_control":      25,
	}
	patternCounts := map[string]int{
		"mandatory_arbitration":     9,
		"broad_liability_waivers":   12,
		"broad_termination_rights":  8,
		"automatic_renewal":         6,
		"excessive_data_collection": 20,
		"no_refunds":                5,
		"data_selling":              10,
		"unilateral_changes":        6,
		"sole_discretion_clauses":   5,
		"waiver_of_rights":          5,
		"extensive_data_sharing":    10,
		"indefinite_data_retention": 10,
		"broad_data_use":            12,
		"lack_of_user_control":      10,
	}
	for key, want := range weights {
		r, ok := tax.Risk(key)
		require.True(t, ok, key)
		assert.Equal(t, want, r.Weight, key)
		assert.Len(t, r.Patterns, patternCounts[key], key)
		assert.NotEmpty(t, r.Advisory, key)
	}
	assert.Equal(t, 315, tax.MaxDeduction())

	bonuses := map[string]int{"gdpr": 10, "coppa": 10, "ccpa": 10, "fair_terms": 15, "privacy_best_practices": 15}
	for key, want := range bonuses {
		f, ok := tax.Framework(key)
		require.True(t, ok, key)
		assert.Equal(t, want, f.Bonus, key)
	}

	coppa, _ := tax.Framework("coppa")
	assert.Empty(t, coppa.MissingAdvisory)
	gdpr, _ := tax.Framework("gdpr")
	assert.Equal(t, "📋 Add GDPR compliance clauses for EU users", gdpr.MissingAdvisory)
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "risks: [unterminated"},
		{"no entries", "fair_advisory: ok\n"},
		{"missing fair advisory", "risks:\n  - key: a\n    advisory: x\n    patterns: ['a']\n"},
		{"duplicate key", "fair_advisory: ok\nrisks:\n  - key: a\n    advisory: x\n    patterns: ['a']\n  - key: a\n    advisory: y\n    patterns: ['b']\n"},
		{"no patterns", "fair_advisory: ok\nrisks:\n  - key: a\n    advisory: x\n"},
		{"bad regex", "fair_advisory: ok\nrisks:\n  - key: a\n    advisory: x\n    patterns: ['(unclosed']\n"},
		{"negative weight", "fair_advisory: ok\nrisks:\n  - key: a\n    weight: -1\n    advisory: x\n    patterns: ['a']\n"},
		{"negative bonus", "fair_advisory: ok\nframeworks:\n  - key: f\n    bonus: -5\n    patterns: ['a']\n"},
		{"risk without advisory", "fair_advisory: ok\nrisks:\n  - key: a\n    patterns: ['a']\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.yaml")
	content := `
base_score: 100
risk_context_chars: 10
compliance_context_chars: 5
fair_advisory: "fine"
risks:
  - key: hidden_fees
    title: Hidden Fees
    weight: 40
    severity: critical
    advisory: "disclose fees"
    patterns: ['hidden.*fee']
frameworks:
  - key: gdpr
    bonus: 5
    missing_advisory: "add gdpr"
    patterns: ['gdpr']
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	tax, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hidden_fees"}, tax.RiskKeys())
	r, ok := tax.Risk("hidden_fees")
	require.True(t, ok)
	assert.Equal(t, SeverityCritical, r.Severity)
	assert.Equal(t, 10, tax.RiskContextChars)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	tax, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Same(t, Default(), tax)
}
