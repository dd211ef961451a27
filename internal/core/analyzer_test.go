// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legallens/internal/document"
	"legallens/internal/llm"
	"legallens/internal/prompts"
	"legallens/internal/resilience"
	"legallens/internal/scoring"
	"legallens/internal/taxonomy"
)

const sampleTOS = `Terms of Service

1. Data Collection and Usage
We may collect and sell your personal information to third parties.

2. Dispute Resolution
All disputes will be resolved through binding arbitration. You waive your right to a jury trial.

3. Account Termination
We may terminate your account without notice at our sole discretion.`

func newAnalyzer(t *testing.T, narrator llm.Client) *Analyzer {
	t.Helper()
	opts := DefaultOptions()
	opts.Narrator = narrator
	a, err := NewAnalyzer(opts)
	require.NoError(t, err)
	return a
}

func TestAnalyze_NoNarrator(t *testing.T) {
	a := newAnalyzer(t, nil)

	res, err := a.Analyze(context.Background(), sampleTOS, "Sample ToS", "Terms of Service")
	require.NoError(t, err)

	assert.Equal(t, "Sample ToS", res.Title)
	assert.Equal(t, document.TermsOfService, res.DocumentType)
	assert.True(t, res.RiskFindings.Has("data_selling"))
	assert.True(t, res.RiskFindings.Has("mandatory_arbitration"))
	assert.True(t, res.RiskFindings.Has("broad_termination_rights"))
	assert.True(t, res.RiskFindings.Has("sole_discretion_clauses"))
	assert.GreaterOrEqual(t, res.FairnessScore, 0)
	assert.LessOrEqual(t, res.FairnessScore, 100)
	assert.NotEmpty(t, res.Recommendations)

	assert.Equal(t, SummaryUnavailable, res.Summary)
	assert.Equal(t, res.Recommendations, res.EnhancedRecommendations)
	assert.Equal(t, NarrativeSkipped, res.Narrative.Summary.Status)
	assert.Equal(t, NarrativeSkipped, res.Narrative.Enhancement.Status)
	assert.NotEmpty(t, res.ID)

	var titles []string
	for _, s := range res.Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"Introduction", "1. Data Collection and Usage", "2. Dispute Resolution", "3. Account Termination"}, titles)
}

func TestAnalyze_EmptyDocument(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"whitespace only", "  \n\t\n  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newAnalyzer(t, nil).Analyze(context.Background(), tt.content, "", "")
			require.NoError(t, err)

			assert.Empty(t, res.Sections)
			assert.Empty(t, res.RiskFindings)
			assert.Empty(t, res.ComplianceFindings)
			assert.Equal(t, 100, res.FairnessScore)
			assert.Equal(t, scoring.RatingFair, res.Rating)
			assert.Equal(t, document.DefaultTitle, res.Title)
			assert.Equal(t, []string{"✅ Document appears to have fair terms"}, res.Recommendations)
			assert.Equal(t, res.Recommendations, res.EnhancedRecommendations)
		})
	}
}

func TestScoreRisks_NonEmptyKeepsMissingFrameworkAdvisories(t *testing.T) {
	a := newAnalyzer(t, nil)
	st := NewState("Nothing notable here.", "", document.TermsOfService)
	require.NoError(t, a.Segment(st))
	require.NoError(t, a.ScoreRisks(st))

	assert.Equal(t, 100, st.Score)
	assert.Equal(t, []string{
		"📋 Add GDPR compliance clauses for EU users",
		"📋 Add CCPA compliance for California users",
		"📋 Add fair dispute resolution process",
		"📋 Implement privacy by design principles",
	}, st.Recommendations)
}

func TestAnalyze_ScoreBounds(t *testing.T) {
	a := newAnalyzer(t, nil)
	tax := taxonomy.Default()

	var worst []string
	for _, r := range tax.Risks {
		worst = append(worst, exampleFor(t, r.Patterns[0]))
	}
	res, err := a.Analyze(context.Background(), strings.Join(worst, "\n"), "worst", "")
	require.NoError(t, err)
	assert.Len(t, res.RiskFindings, len(tax.Risks))
	assert.Empty(t, res.ComplianceFindings)
	assert.Equal(t, 0, res.FairnessScore)

	var best []string
	for _, f := range tax.Frameworks {
		best = append(best, exampleFor(t, f.Patterns[0]))
	}
	res, err = a.Analyze(context.Background(), strings.Join(best, "\n"), "best", "")
	require.NoError(t, err)
	assert.Empty(t, res.RiskFindings)
	assert.Len(t, res.ComplianceFindings, len(tax.Frameworks))
	assert.Equal(t, 100, res.FairnessScore)
	assert.Equal(t, []string{"✅ Document appears to have fair terms"}, res.Recommendations)
}

// exampleFor turns a "a.*b.*c" pattern into the text "a b c".
func exampleFor(t *testing.T, pattern string) string {
	t.Helper()
	return strings.ReplaceAll(pattern, ".*", " ")
}

func TestAnalyze_NarratorSuccess(t *testing.T) {
	mock := llm.NewMock(llm.Text("  A plain summary.  "), llm.Text("1. Remove arbitration."))
	a := newAnalyzer(t, mock)

	res, err := a.Analyze(context.Background(), sampleTOS, "Sample", "tos")
	require.NoError(t, err)

	assert.Equal(t, "A plain summary.", res.Summary)
	assert.Equal(t, NarrativeRecord{Status: NarrativeGenerated, Attempts: 1}, res.Narrative.Summary)
	require.Len(t, res.EnhancedRecommendations, len(res.Recommendations)+1)
	assert.Equal(t, "1. Remove arbitration.", res.EnhancedRecommendations[len(res.EnhancedRecommendations)-1])
	assert.Equal(t, res.Recommendations, res.EnhancedRecommendations[:len(res.Recommendations)])

	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[0].System, "Document Type: Terms of Service")
	assert.Equal(t, prompts.ExpertSystemPrompt, reqs[1].System)
	assert.Contains(t, reqs[1].Messages[0].Content, "data_selling")
}

func TestAnalyze_SummaryRetriesThenSucceeds(t *testing.T) {
	mock := llm.NewMock(
		llm.Fail(errors.New("connection reset")),
		llm.Text(""),
		llm.Text("third time lucky"),
		llm.Text("enhanced"),
	)
	res, err := newAnalyzer(t, mock).Analyze(context.Background(), sampleTOS, "", "")
	require.NoError(t, err)

	assert.Equal(t, "third time lucky", res.Summary)
	assert.Equal(t, 3, res.Narrative.Summary.Attempts)
	assert.Equal(t, 4, mock.Calls())
}

func TestAnalyze_SummaryExhausted(t *testing.T) {
	fail := llm.Fail(resilience.NewTransientError("upstream down", nil))
	mock := llm.NewMock(fail, fail, fail, fail)
	res, err := newAnalyzer(t, mock).Analyze(context.Background(), sampleTOS, "", "")
	require.NoError(t, err)

	assert.Equal(t, SummaryFailed, res.Summary)
	assert.Equal(t, NarrativeFallback, res.Narrative.Summary.Status)
	assert.Equal(t, 3, res.Narrative.Summary.Attempts)
	assert.Equal(t, "upstream down", res.Narrative.Summary.Error)

	// enhancement gets a single attempt and falls back to the base list
	assert.Equal(t, NarrativeFallback, res.Narrative.Enhancement.Status)
	assert.Equal(t, 1, res.Narrative.Enhancement.Attempts)
	assert.Equal(t, res.Recommendations, res.EnhancedRecommendations)
	assert.Equal(t, 4, mock.Calls())
}

func TestAnalyze_PermanentErrorNotRetried(t *testing.T) {
	mock := llm.NewMock(llm.Fail(resilience.NewPermanentError("bad key", nil)), llm.Text("enhanced"))
	res, err := newAnalyzer(t, mock).Analyze(context.Background(), sampleTOS, "", "")
	require.NoError(t, err)

	assert.Equal(t, SummaryFailed, res.Summary)
	assert.Equal(t, 1, res.Narrative.Summary.Attempts)
	assert.Equal(t, NarrativeGenerated, res.Narrative.Enhancement.Status)
}

func TestAnalyze_DisabledStagesSkipWithoutCalls(t *testing.T) {
	mock := llm.NewMock()
	opts := DefaultOptions()
	opts.Narrator = mock
	opts.SummaryEnabled = false
	opts.EnhanceEnabled = false
	a, err := NewAnalyzer(opts)
	require.NoError(t, err)

	res, err := a.Analyze(context.Background(), sampleTOS, "", "")
	require.NoError(t, err)
	assert.Equal(t, 0, mock.Calls())
	assert.Equal(t, SummaryUnavailable, res.Summary)
	assert.Equal(t, NarrativeSkipped, res.Narrative.Enhancement.Status)
}

func TestWithoutNarrative(t *testing.T) {
	mock := llm.NewMock()
	a := newAnalyzer(t, mock)
	quick := a.WithoutNarrative()

	res, err := quick.Analyze(context.Background(), sampleTOS, "", "")
	require.NoError(t, err)
	assert.Equal(t, 0, mock.Calls())
	assert.Equal(t, NarrativeSkipped, res.Narrative.Summary.Status)
	assert.Same(t, a.Taxonomy(), quick.Taxonomy())

	_, err = a.Analyze(context.Background(), sampleTOS, "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls())
}

func TestAnalyze_CanceledContextFallsBack(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := llm.NewMock(llm.Text("never"))
	res, err := newAnalyzer(t, mock).Analyze(ctx, sampleTOS, "", "")
	require.NoError(t, err)

	assert.Equal(t, SummaryFailed, res.Summary)
	assert.Equal(t, 0, mock.Calls())
	assert.NotEmpty(t, res.RiskFindings)
}

func TestStagePreconditions(t *testing.T) {
	a := newAnalyzer(t, nil)
	ctx := context.Background()

	st := NewState(sampleTOS, "t", document.TermsOfService)
	assert.ErrorIs(t, a.ScoreRisks(st), ErrPrecondition)
	assert.ErrorIs(t, a.Summarize(ctx, st), ErrPrecondition)
	assert.ErrorIs(t, a.Enhance(ctx, st), ErrPrecondition)
	assert.Equal(t, StageIngested, st.Stage)
	assert.Nil(t, st.Risks)

	require.NoError(t, a.Segment(st))
	assert.ErrorIs(t, a.Segment(st), ErrPrecondition)
	require.NoError(t, a.ScoreRisks(st))
	assert.Equal(t, StageRiskScored, st.Stage)

	assert.ErrorIs(t, a.Run(ctx, nil), ErrPrecondition)
}

func TestRunResumesFromCurrentStage(t *testing.T) {
	a := newAnalyzer(t, nil)
	st := NewState(sampleTOS, "t", document.TermsOfService)
	require.NoError(t, a.Segment(st))
	require.NoError(t, a.ScoreRisks(st))
	score := st.Score

	require.NoError(t, a.Run(context.Background(), st))
	assert.Equal(t, StageDone, st.Stage)
	assert.Equal(t, score, st.Score)
}

func TestStageFieldsPersistAcrossFailures(t *testing.T) {
	mock := llm.NewMock(llm.Fail(errors.New("x")), llm.Fail(errors.New("x")), llm.Fail(errors.New("x")), llm.Fail(errors.New("x")))
	a := newAnalyzer(t, mock)
	st := NewState(sampleTOS, "t", document.TermsOfService)
	require.NoError(t, a.Segment(st))
	require.NoError(t, a.ScoreRisks(st))
	before := NewResult(st)

	require.NoError(t, a.Run(context.Background(), st))
	after := NewResult(st)
	if diff := cmp.Diff(before.RiskFindings, after.RiskFindings); diff != "" {
		t.Errorf("risk findings changed (-before +after):\n%s", diff)
	}
	assert.Equal(t, before.Recommendations, after.Recommendations)
	assert.Equal(t, before.FairnessScore, after.FairnessScore)
}

func TestSummaryCarriesHistory(t *testing.T) {
	mock := llm.NewMock(llm.Text("s"), llm.Text("e"))
	a := newAnalyzer(t, mock)
	st := NewState(sampleTOS, "t", document.PrivacyPolicy, llm.UserMessage("I am a minor"))
	require.NoError(t, a.Run(context.Background(), st))

	req := mock.Requests()[0]
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "I am a minor", req.Messages[1].Content)
}

func TestAnalyze_Idempotent(t *testing.T) {
	a := newAnalyzer(t, nil)
	first, err := a.Analyze(context.Background(), sampleTOS, "t", "")
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), sampleTOS, "t", "")
	require.NoError(t, err)

	if diff := cmp.Diff(first.RiskFindings, second.RiskFindings); diff != "" {
		t.Errorf("risk findings differ:\n%s", diff)
	}
	if diff := cmp.Diff(first.ComplianceFindings, second.ComplianceFindings); diff != "" {
		t.Errorf("compliance findings differ:\n%s", diff)
	}
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "risk_scored", StageRiskScored.String())
	assert.Equal(t, "Stage(42)", Stage(42).String())
}
