// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"

	"legallens/internal/detector"
	"legallens/internal/document"
	"legallens/internal/llm"
)

// Stage is a position in the analysis pipeline. Stages only move forward.
type Stage int

const (
	StageIngested Stage = iota
	StageSegmented
	StageRiskScored
	StageSummarized
	StageEnhanced
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIngested:
		return "ingested"
	case StageSegmented:
		return "segmented"
	case StageRiskScored:
		return "risk_scored"
	case StageSummarized:
		return "summarized"
	case StageEnhanced:
		return "enhanced"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// NarrativeStatus records how a model-backed stage ended.
type NarrativeStatus string

const (
	NarrativeGenerated NarrativeStatus = "generated"
	NarrativeFallback  NarrativeStatus = "fallback"
	NarrativeSkipped   NarrativeStatus = "skipped"
)

// NarrativeRecord describes one model-backed stage.
type NarrativeRecord struct {
	Status   NarrativeStatus `json:"status" yaml:"status"`
	Attempts int             `json:"attempts" yaml:"attempts"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// State is the record threaded through the pipeline. Each stage fills its
// own fields and leaves the rest untouched; nothing is rolled back.
type State struct {
	Stage    Stage
	Document *document.Document

	Risks           detector.Findings
	Compliance      detector.Findings
	Score           int
	Recommendations []string

	Summary                 string
	EnhancedRecommendations []string

	// History is extra conversation appended to the summary request.
	History []llm.Message

	SummaryRecord NarrativeRecord
	EnhanceRecord NarrativeRecord
}

// NewState creates a pipeline state holding only the document.
func NewState(content, title string, docType document.Type, history ...llm.Message) *State {
	return &State{
		Stage:    StageIngested,
		Document: document.New(content, title, docType),
		History:  history,
	}
}

func (st *State) require(stage Stage, op string) error {
	if st == nil || st.Document == nil {
		return fmt.Errorf("%w: %s on empty state", ErrPrecondition, op)
	}
	if st.Stage != stage {
		return fmt.Errorf("%w: %s requires stage %s, state is %s", ErrPrecondition, op, stage, st.Stage)
	}
	return nil
}
