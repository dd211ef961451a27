// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package scoring turns detector output into a fairness score and a list of
// recommendations. Both depend only on which categories are present.
package scoring

import (
	"log/slog"

	"legallens/internal/detector"
	"legallens/internal/logging"
	"legallens/internal/taxonomy"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Rating buckets a fairness score.
type Rating string

const (
	RatingFair     Rating = "FAIR"
	RatingModerate Rating = "MODERATE"
	RatingUnfair   Rating = "UNFAIR"
)

// RateScore maps a score onto a rating band.
func RateScore(score int) Rating {
	switch {
	case score >= 80:
		return RatingFair
	case score >= 60:
		return RatingModerate
	default:
		return RatingUnfair
	}
}

// Scorer applies a taxonomy's weights and advisories.
type Scorer struct {
	tax    *taxonomy.Taxonomy
	logger *slog.Logger
}

// New creates a scorer. A nil logger discards output.
func New(t *taxonomy.Taxonomy, logger *slog.Logger) *Scorer {
	return &Scorer{tax: t, logger: logging.OrDiscard(logger)}
}

// Score starts from the base score, subtracts each present risk category's
// weight once, adds each present framework's bonus once and clamps the result
// to [MinScore, MaxScore]. Categories unknown to the taxonomy are ignored.
func (s *Scorer) Score(risks, compliance detector.Findings) int {
	score := s.tax.BaseScore

	for _, r := range s.tax.Risks {
		if !risks.Has(r.Key) {
			continue
		}
		score -= r.Weight
		s.logger.Debug("risk deduction",
			"category", r.Key,
			"points", r.Weight,
			"clauses", len(risks[r.Key]))
	}

	for _, f := range s.tax.Frameworks {
		if !compliance.Has(f.Key) {
			continue
		}
		score += f.Bonus
		s.logger.Debug("compliance bonus",
			"framework", f.Key,
			"points", f.Bonus,
			"clauses", len(compliance[f.Key]))
	}

	return clamp(score)
}

// Recommend returns one advisory per present risk category, then one per
// absent framework that defines a missing advisory, in taxonomy order. The
// result is never empty.
func (s *Scorer) Recommend(risks, compliance detector.Findings) []string {
	var recs []string
	for _, r := range s.tax.Risks {
		if risks.Has(r.Key) {
			recs = append(recs, r.Advisory)
		}
	}
	for _, f := range s.tax.Frameworks {
		if !compliance.Has(f.Key) && f.MissingAdvisory != "" {
			recs = append(recs, f.MissingAdvisory)
		}
	}
	if len(recs) == 0 {
		recs = append(recs, s.tax.FairAdvisory)
	}
	return recs
}

func clamp(score int) int {
	return max(MinScore, min(MaxScore, score))
}
