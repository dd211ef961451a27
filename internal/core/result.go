// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"time"

	"github.com/google/uuid"

	"legallens/internal/detector"
	"legallens/internal/document"
	"legallens/internal/scoring"
)

// Narrative reports how the model-backed stages ended.
type Narrative struct {
	Summary     NarrativeRecord `json:"summary" yaml:"summary"`
	Enhancement NarrativeRecord `json:"enhancement" yaml:"enhancement"`
}

// Result is the caller-facing view of a finished analysis.
type Result struct {
	ID                      string             `json:"id" yaml:"id"`
	Title                   string             `json:"document_title" yaml:"document_title"`
	DocumentType            document.Type      `json:"document_type" yaml:"document_type"`
	Sections                []document.Section `json:"sections" yaml:"sections"`
	RiskFindings            detector.Findings  `json:"risk_analysis" yaml:"risk_analysis"`
	ComplianceFindings      detector.Findings  `json:"compliance_check" yaml:"compliance_check"`
	FairnessScore           int                `json:"fairness_score" yaml:"fairness_score"`
	Rating                  scoring.Rating     `json:"rating" yaml:"rating"`
	Recommendations         []string           `json:"recommendations" yaml:"recommendations"`
	Summary                 string             `json:"summary,omitempty" yaml:"summary,omitempty"`
	EnhancedRecommendations []string           `json:"enhanced_recommendations,omitempty" yaml:"enhanced_recommendations,omitempty"`
	Narrative               Narrative          `json:"narrative" yaml:"narrative"`
	ContentLength           int                `json:"content_length" yaml:"content_length"`
	Source                  string             `json:"source,omitempty" yaml:"source,omitempty"`
	AnalyzedAt              time.Time          `json:"analyzed_at" yaml:"analyzed_at"`
}

// NewResult snapshots a state. It may be called at any stage; fields of
// stages not yet run are left empty.
func NewResult(st *State) *Result {
	r := &Result{
		ID:                      uuid.NewString(),
		Title:                   st.Document.Title,
		DocumentType:            st.Document.Type,
		Sections:                st.Document.Sections,
		RiskFindings:            st.Risks,
		ComplianceFindings:      st.Compliance,
		FairnessScore:           st.Score,
		Recommendations:         st.Recommendations,
		Summary:                 st.Summary,
		EnhancedRecommendations: st.EnhancedRecommendations,
		Narrative:               Narrative{Summary: st.SummaryRecord, Enhancement: st.EnhanceRecord},
		ContentLength:           st.Document.RuneCount(),
		AnalyzedAt:              time.Now().UTC(),
	}
	if st.Stage >= StageRiskScored {
		r.Rating = scoring.RateScore(st.Score)
	}
	if r.RiskFindings == nil {
		r.RiskFindings = detector.Findings{}
	}
	if r.ComplianceFindings == nil {
		r.ComplianceFindings = detector.Findings{}
	}
	return r
}

// RiskCount returns the total number of risk findings.
func (r *Result) RiskCount() int { return r.RiskFindings.Count() }

// ComplianceCount returns the total number of compliance findings.
func (r *Result) ComplianceCount() int { return r.ComplianceFindings.Count() }

// FinalRecommendations prefers the enhanced list when present.
func (r *Result) FinalRecommendations() []string {
	if len(r.EnhancedRecommendations) > 0 {
		return r.EnhancedRecommendations
	}
	return r.Recommendations
}
