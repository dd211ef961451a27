// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legallens/internal/detector"
	"legallens/internal/document"
	"legallens/internal/llm"
)

func TestSummaryRequest(t *testing.T) {
	doc := document.New(strings.Repeat("a", 2500), "Acme", document.PrivacyPolicy)
	history := []llm.Message{llm.UserMessage("focus on data sharing")}

	req := SummaryRequest(doc, 0, history)

	require.NoError(t, req.Validate())
	assert.Contains(t, req.System, "Document Type: Privacy Policy")
	assert.Contains(t, req.System, "Document Content: "+strings.Repeat("a", 2000)+"\n")
	assert.NotContains(t, req.System, strings.Repeat("a", 2001))

	require.Len(t, req.Messages, 2)
	assert.Equal(t, "Please provide a plain English summary of this Privacy Policy document, highlighting any concerning clauses and explaining the risks in simple terms.", req.Messages[0].Content)
	assert.Equal(t, "focus on data sharing", req.Messages[1].Content)
}

func TestEnhanceRequest(t *testing.T) {
	doc := document.New("We sell personal information.", "Acme", document.TermsOfService)
	snap := Snapshot{
		Risks: detector.Findings{
			"data_selling": {{MatchedText: "sell personal information"}},
		},
		RiskOrder:      []string{"mandatory_arbitration", "data_selling"},
		Compliance:     detector.Findings{"gdpr": {{MatchedText: "data protection"}}},
		FrameworkOrder: []string{"gdpr", "ccpa"},
		Score:          70,
	}

	req := EnhanceRequest(doc, 0, snap)

	assert.Equal(t, ExpertSystemPrompt, req.System)
	require.Len(t, req.Messages, 1)
	body := req.Messages[0].Content
	assert.Contains(t, body, "Analyze this Terms of Service document")
	assert.Contains(t, body, "Document Content: We sell personal information.")
	assert.Contains(t, body, `- data_selling (1 clauses): "sell personal information"`)
	assert.Contains(t, body, "- present: gdpr\n- missing: ccpa")
	assert.Contains(t, body, "Current Fairness Score: 70/100")
	assert.Contains(t, body, "4. Compliance suggestions")
}

func TestSnapshotEmpty(t *testing.T) {
	snap := Snapshot{FrameworkOrder: []string{"gdpr"}}
	assert.Equal(t, "- no risky clauses detected", snap.RiskText())
	assert.Equal(t, "- present: none\n- missing: gdpr", snap.ComplianceText())
}

func TestSnapshotCapsQuotes(t *testing.T) {
	fs := make([]detector.Finding, 5)
	for i := range fs {
		fs[i] = detector.Finding{MatchedText: "m"}
	}
	snap := Snapshot{Risks: detector.Findings{"no_refunds": fs}, RiskOrder: []string{"no_refunds"}}
	assert.Equal(t, `- no_refunds (5 clauses): "m", "m", "m"`, snap.RiskText())
}

func TestAssistant(t *testing.T) {
	p := Assistant("THE DOCUMENT")
	assert.Contains(t, p, "You are **LegalLensIQ**")
	assert.Contains(t, p, "\nTHE DOCUMENT\n")
}
