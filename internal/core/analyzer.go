// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package core runs the analysis pipeline: segmentation, risk and compliance
// detection, scoring and recommendations, then the optional model-backed
// summary and recommendation enhancement.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"legallens/internal/detector"
	"legallens/internal/document"
	"legallens/internal/llm"
	"legallens/internal/logging"
	"legallens/internal/observability"
	"legallens/internal/prompts"
	"legallens/internal/resilience"
	"legallens/internal/scoring"
	"legallens/internal/taxonomy"
)

// ErrPrecondition is returned when a stage runs out of order.
var ErrPrecondition = errors.New("stage precondition not met")

const (
	// SummaryUnavailable is used when no model is configured.
	SummaryUnavailable = "LLM analysis not available. Please check NVIDIA_API_KEY."
	// SummaryFailed is used when every summary attempt failed.
	SummaryFailed = "Unable to generate summary due to API issues."

	componentName = "core"
)

// Options configures an Analyzer. Narrator is the model collaborator; when
// nil both narrative stages are skipped and fall back immediately.
type Options struct {
	Taxonomy *taxonomy.Taxonomy
	Narrator llm.Client

	SummaryEnabled bool
	EnhanceEnabled bool

	SummaryRetry resilience.RetryConfig
	EnhanceRetry resilience.RetryConfig

	SummaryExcerpt int
	EnhanceExcerpt int

	Logger   *slog.Logger
	Observer observability.Observer
}

// DefaultOptions returns three summary attempts, one enhancement attempt and
// the default excerpt sizes. Narrator is left nil.
func DefaultOptions() Options {
	return Options{
		Taxonomy:       taxonomy.Default(),
		SummaryEnabled: true,
		EnhanceEnabled: true,
		SummaryRetry:   resilience.RetryConfig{Retryable: resilience.RetryUnlessPermanent}.WithAttempts(3),
		EnhanceRetry:   resilience.RetryConfig{Retryable: resilience.RetryUnlessPermanent}.WithAttempts(1),
		SummaryExcerpt: prompts.DefaultSummaryExcerpt,
		EnhanceExcerpt: prompts.DefaultEnhanceExcerpt,
	}
}

// Analyzer runs the pipeline. It holds no per-document state and is safe for
// concurrent use when its Narrator is.
type Analyzer struct {
	opts       Options
	tax        *taxonomy.Taxonomy
	risk       *detector.Detector
	compliance *detector.Detector
	scorer     *scoring.Scorer
	logger     *slog.Logger
	obs        observability.Observer
}

// NewAnalyzer compiles the taxonomy and prepares the stages.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	if opts.Taxonomy == nil {
		opts.Taxonomy = taxonomy.Default()
	}
	logger := logging.OrDiscard(opts.Logger)
	obs := opts.Observer
	if obs == nil {
		obs = observability.Nop{}
	}

	risk, err := detector.NewRiskDetector(opts.Taxonomy)
	if err != nil {
		return nil, fmt.Errorf("risk detector: %w", err)
	}
	compliance, err := detector.NewComplianceDetector(opts.Taxonomy)
	if err != nil {
		return nil, fmt.Errorf("compliance detector: %w", err)
	}

	return &Analyzer{
		opts:       opts,
		tax:        opts.Taxonomy,
		risk:       risk,
		compliance: compliance,
		scorer:     scoring.New(opts.Taxonomy, logger),
		logger:     logger,
		obs:        obs,
	}, nil
}

// Taxonomy returns the rule table in use.
func (a *Analyzer) Taxonomy() *taxonomy.Taxonomy { return a.tax }

// WithoutNarrative returns an analyzer sharing the compiled rules with both
// model-backed stages disabled.
func (a *Analyzer) WithoutNarrative() *Analyzer {
	cp := *a
	cp.opts.SummaryEnabled = false
	cp.opts.EnhanceEnabled = false
	return &cp
}

// NarrativeAvailable reports whether a model collaborator is configured.
func (a *Analyzer) NarrativeAvailable() bool { return a.opts.Narrator != nil }

// Analyze runs every stage on one document and returns the result. It only
// fails on programming errors; model failures degrade to fallback text.
func (a *Analyzer) Analyze(ctx context.Context, content, title, docType string) (*Result, error) {
	st := NewState(content, title, document.ParseType(docType))
	if err := a.Run(ctx, st); err != nil {
		return nil, err
	}
	return NewResult(st), nil
}

// Run advances st from its current stage to StageDone.
func (a *Analyzer) Run(ctx context.Context, st *State) error {
	if st == nil || st.Document == nil {
		return fmt.Errorf("%w: empty state", ErrPrecondition)
	}
	done := a.obs.StartTiming(componentName, "analyze", st.Document.Title)

	for st.Stage != StageDone {
		var err error
		switch st.Stage {
		case StageIngested:
			err = a.Segment(st)
		case StageSegmented:
			err = a.ScoreRisks(st)
		case StageRiskScored:
			err = a.Summarize(ctx, st)
		case StageSummarized:
			err = a.Enhance(ctx, st)
		case StageEnhanced:
			st.Stage = StageDone
		default:
			err = fmt.Errorf("%w: unknown stage %s", ErrPrecondition, st.Stage)
		}
		if err != nil {
			done(false, map[string]any{"stage": st.Stage.String()})
			return err
		}
	}

	done(true, map[string]any{
		"score":      st.Score,
		"risks":      len(st.Risks),
		"frameworks": len(st.Compliance),
		"summary":    string(st.SummaryRecord.Status),
		"enhance":    string(st.EnhanceRecord.Status),
	})
	return nil
}

// Segment splits the document into sections.
func (a *Analyzer) Segment(st *State) error {
	if err := st.require(StageIngested, "segment"); err != nil {
		return err
	}
	done := a.obs.StartTiming(componentName, StageSegmented.String(), st.Document.Title)

	sections := document.Segment(st.Document.Content)
	st.Document = st.Document.WithSections(sections)
	st.Stage = StageSegmented

	done(true, map[string]any{"sections": len(sections)})
	return nil
}

// ScoreRisks detects risks and compliance signals, computes the score and
// the base recommendations. It requires a segmented document. Blank content
// gets only the fair advisory.
func (a *Analyzer) ScoreRisks(st *State) error {
	if err := st.require(StageSegmented, "risk scoring"); err != nil {
		return err
	}
	done := a.obs.StartTiming(componentName, StageRiskScored.String(), st.Document.Title)

	content := st.Document.Content
	st.Risks = a.risk.Detect(content)
	st.Compliance = a.compliance.Detect(content)
	st.Score = a.scorer.Score(st.Risks, st.Compliance)
	if strings.TrimSpace(content) == "" {
		st.Recommendations = []string{a.tax.FairAdvisory}
	} else {
		st.Recommendations = a.scorer.Recommend(st.Risks, st.Compliance)
	}
	st.Stage = StageRiskScored

	a.logger.Info("risk analysis complete",
		"title", st.Document.Title,
		"score", st.Score,
		"risk_categories", len(st.Risks),
		"frameworks", len(st.Compliance))
	done(true, map[string]any{
		"risk_findings":       st.Risks.Count(),
		"compliance_findings": st.Compliance.Count(),
		"score":               st.Score,
	})
	return nil
}

// Summarize asks the model for a plain English summary with bounded retries.
// Without a model, or when every attempt fails, a fixed fallback is stored.
func (a *Analyzer) Summarize(ctx context.Context, st *State) error {
	if err := st.require(StageRiskScored, "summary"); err != nil {
		return err
	}
	defer func() { st.Stage = StageSummarized }()

	if a.opts.Narrator == nil || !a.opts.SummaryEnabled {
		st.Summary = SummaryUnavailable
		st.SummaryRecord = NarrativeRecord{Status: NarrativeSkipped}
		return nil
	}

	done := a.obs.StartTiming(componentName, StageSummarized.String(), st.Document.Title)
	req := prompts.SummaryRequest(st.Document, a.opts.SummaryExcerpt, st.History)
	out := resilience.Attempt(ctx, a.retryConfig(a.opts.SummaryRetry, "summary"), a.complete(req))

	if out.Succeeded() {
		st.Summary = out.Value
		st.SummaryRecord = NarrativeRecord{Status: NarrativeGenerated, Attempts: out.Attempts}
	} else {
		a.logger.Error("summary generation exhausted", "attempts", out.Attempts, "error", out.Err)
		st.Summary = SummaryFailed
		st.SummaryRecord = NarrativeRecord{Status: NarrativeFallback, Attempts: out.Attempts, Error: errText(out.Err)}
	}
	done(out.Succeeded(), map[string]any{"attempts": out.Attempts})
	return nil
}

// Enhance asks the model for richer recommendations. On success its answer is
// appended to the base recommendations, otherwise they are copied unchanged.
func (a *Analyzer) Enhance(ctx context.Context, st *State) error {
	if err := st.require(StageSummarized, "enhancement"); err != nil {
		return err
	}
	defer func() { st.Stage = StageEnhanced }()

	base := make([]string, len(st.Recommendations))
	copy(base, st.Recommendations)

	if a.opts.Narrator == nil || !a.opts.EnhanceEnabled {
		st.EnhancedRecommendations = base
		st.EnhanceRecord = NarrativeRecord{Status: NarrativeSkipped}
		return nil
	}

	done := a.obs.StartTiming(componentName, StageEnhanced.String(), st.Document.Title)
	req := prompts.EnhanceRequest(st.Document, a.opts.EnhanceExcerpt, prompts.Snapshot{
		Risks:          st.Risks,
		RiskOrder:      a.tax.RiskKeys(),
		Compliance:     st.Compliance,
		FrameworkOrder: a.tax.FrameworkKeys(),
		Score:          st.Score,
	})
	out := resilience.Attempt(ctx, a.retryConfig(a.opts.EnhanceRetry, "enhancement"), a.complete(req))

	if out.Succeeded() {
		st.EnhancedRecommendations = append(base, out.Value)
		st.EnhanceRecord = NarrativeRecord{Status: NarrativeGenerated, Attempts: out.Attempts}
	} else {
		a.logger.Error("recommendation enhancement failed", "attempts", out.Attempts, "error", out.Err)
		st.EnhancedRecommendations = base
		st.EnhanceRecord = NarrativeRecord{Status: NarrativeFallback, Attempts: out.Attempts, Error: errText(out.Err)}
	}
	done(out.Succeeded(), map[string]any{"attempts": out.Attempts})
	return nil
}

func (a *Analyzer) complete(req llm.Request) resilience.RetryableFunc[string] {
	return func(ctx context.Context) (string, error) {
		resp, err := a.opts.Narrator.Complete(ctx, req)
		if err != nil {
			return "", err
		}
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return "", resilience.NewTransientError(llm.ErrEmptyResponse.Error(), llm.ErrEmptyResponse)
		}
		return text, nil
	}
}

func (a *Analyzer) retryConfig(cfg resilience.RetryConfig, stage string) resilience.RetryConfig {
	if cfg.Retryable == nil {
		cfg.Retryable = resilience.RetryUnlessPermanent
	}
	next := cfg.OnRetry
	cfg.OnRetry = func(attempt int, err error) {
		a.logger.Warn("model call failed, retrying", "stage", stage, "attempt", attempt, "error", err)
		if next != nil {
			next(attempt, err)
		}
	}
	return cfg
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
