// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legallens/internal/taxonomy"
)

func riskDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewRiskDetector(taxonomy.Default())
	require.NoError(t, err)
	return d
}

func complianceDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewComplianceDetector(taxonomy.Default())
	require.NoError(t, err)
	return d
}

func TestRiskDetectorCategories(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
	}{
		{"data selling", "We may collect and sell your personal information to third parties.", "data_selling"},
		{"arbitration", "All disputes go to binding arbitration and you waive your right to a jury trial.", "mandatory_arbitration"},
		{"liability", "The service is provided as is and as available.", "broad_liability_waivers"},
		{"termination", "We may terminate your account without notice.", "broad_termination_rights"},
		{"renewal", "Your plan will automatically renew each month.", "automatic_renewal"},
		{"collection", "We collect precise location and browsing history.", "excessive_data_collection"},
		{"refunds", "All purchases are non-refundable.", "no_refunds"},
		{"changes", "We reserve the right to change these terms.", "unilateral_changes"},
		{"discretion", "Decided at our sole discretion.", "sole_discretion_clauses"},
		{"waiver", "You irrevocably waive any objection.", "waiver_of_rights"},
		{"sharing", "We share with advertisers and partners.", "extensive_data_sharing"},
		{"retention", "We retain your data as long as necessary.", "indefinite_data_retention"},
		{"data use", "We use your content for machine learning.", "broad_data_use"},
		{"control", "You cannot delete your account.", "lack_of_user_control"},
	}
	d := riskDetector(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.text)
			assert.True(t, got.Has(tt.category), "categories found: %v", got.Keys(d.Categories()))
		})
	}
}

func TestArbitrationFindingsCarryRuleAndMatch(t *testing.T) {
	text := "All disputes go to binding arbitration and you waive your right to a jury trial."
	got := riskDetector(t).Detect(text)

	var rules []string
	for _, f := range got["mandatory_arbitration"] {
		rules = append(rules, f.RuleID)
		assert.Equal(t, text[f.Start:f.End], f.MatchedText)
		assert.Equal(t, 1, f.LineNumber)
	}
	assert.Contains(t, rules, "mandatory_arbitration.03")
	assert.Contains(t, rules, "mandatory_arbitration.09")
}

func TestComplianceDetector(t *testing.T) {
	got := complianceDetector(t).Detect("You have the right to request deletion of your data under GDPR.")
	require.True(t, got.Has("gdpr"))
	assert.Equal(t, "gdpr.01", got["gdpr"][0].RuleID)
	assert.False(t, got.Has("coppa"))
}

func TestDetectCaseInsensitiveKeepsOriginalText(t *testing.T) {
	got := riskDetector(t).Detect("BINDING ARBITRATION applies.")
	require.True(t, got.Has("mandatory_arbitration"))
	assert.Equal(t, "BINDING ARBITRATION", got["mandatory_arbitration"][0].MatchedText)
}

func TestDetectDoesNotCrossLines(t *testing.T) {
	got := riskDetector(t).Detect("binding\narbitration")
	for _, f := range got["mandatory_arbitration"] {
		assert.NotEqual(t, "mandatory_arbitration.03", f.RuleID)
	}
}

func TestDetectEmptyAndIdempotent(t *testing.T) {
	d := riskDetector(t)
	assert.Empty(t, d.Detect(""))

	text := strings.Repeat("We may sell personal information. Binding arbitration applies.\n", 3)
	first := d.Detect(text)
	second := d.Detect(text)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("detection not idempotent (-first +second):\n%s", diff)
	}
	for key, fs := range first {
		assert.NotEmpty(t, fs, key)
	}
}

func TestDetectMultipleMatchesPerRule(t *testing.T) {
	d, err := New("test", []Category{{Key: "fees", Patterns: []string{"fee"}}}, 3)
	require.NoError(t, err)

	got := d.Detect("fee one\nfee two")
	require.Len(t, got["fees"], 2)
	assert.Equal(t, 1, got["fees"][0].LineNumber)
	assert.Equal(t, 2, got["fees"][1].LineNumber)
	assert.Equal(t, "fee on", got["fees"][0].Context)
	assert.Equal(t, "ne\nfee tw", got["fees"][1].Context)
}

func TestEachRuleMatchesIndependently(t *testing.T) {
	for _, d := range []*Detector{riskDetector(t), complianceDetector(t)} {
		for _, category := range d.Categories() {
			for _, r := range d.Rules(category) {
				t.Run(r.ID, func(t *testing.T) {
					example := strings.ReplaceAll(r.Pattern, ".*", " ")
					assert.True(t, r.Match(example), "%q should match %q", r.Pattern, example)
					assert.True(t, r.Match(strings.ToUpper(example)), "matching ignores case")
					assert.False(t, r.Match(""))
					assert.Equal(t, category, r.Category)
				})
			}
		}
	}
}

func TestRuleMatch(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
		want    bool
	}{
		{"binding.*arbitration", "Disputes are settled by Binding Arbitration.", true},
		{"binding.*arbitration", "Arbitration is binding.", false},
		{"waive.*right.*jury.*trial", "you waive your right to a jury trial", true},
		{"sell.*personal.*information", "we may collect and sell your personal information", true},
		{"sell.*personal.*information", "we never sell it.\nYour personal information stays private.", false},
		{"right.*to.*deletion", "You have the right to deletion under the GDPR.", true},
		{"mediation", "Disputes go to court.", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.text, func(t *testing.T) {
			r, err := CompileRule("c", 0, tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, "c.01", r.ID)
			assert.Equal(t, tt.want, r.Match(tt.text))
		})
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New("x", []Category{{Key: "a", Patterns: []string{"("}}}, 10)
	assert.Error(t, err)

	_, err = New("x", []Category{{Key: "a", Patterns: []string{"a"}}, {Key: "a", Patterns: []string{"b"}}}, 10)
	assert.Error(t, err)
}

func TestFindingsKeys(t *testing.T) {
	f := Findings{
		"b":     {{Category: "b"}},
		"a":     {{Category: "a"}},
		"zeta":  {{Category: "zeta"}},
		"empty": nil,
	}
	assert.Equal(t, []string{"b", "a", "zeta"}, f.Keys([]string{"b", "a", "c"}))
	assert.Equal(t, 3, f.Count())
	assert.False(t, f.Has("empty"))
}
