// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legallens/internal/core"
	"legallens/internal/detector"
	"legallens/internal/document"
	"legallens/internal/scoring"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func result(id, title string, docType document.Type, score int, at time.Time) *core.Result {
	return &core.Result{
		ID:           id,
		Title:        title,
		DocumentType: docType,
		Sections:     []document.Section{{Title: "Introduction", Body: "text"}},
		RiskFindings: detector.Findings{
			"no_refunds": {{Category: "no_refunds", MatchedText: "no refunds", LineNumber: 2}},
		},
		ComplianceFindings: detector.Findings{},
		FairnessScore:      score,
		Rating:             scoring.RateScore(score),
		Recommendations:    []string{"💰 Consider offering refunds"},
		ContentLength:      128,
		AnalyzedAt:         at,
	}
}

func TestStore_SaveGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := result("a1", "Acme Terms", document.TermsOfService, 90, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stored result mismatch (-want +got):\n%s", diff)
	}

	_, err = s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Error(t, s.Save(ctx, &core.Result{}))
}

func TestStore_SaveReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := result("a1", "Acme Terms", document.TermsOfService, 90, time.Now().UTC())
	require.NoError(t, s.Save(ctx, r))
	r.FairnessScore = 40
	r.Rating = scoring.RatingUnfair
	require.NoError(t, s.Save(ctx, r))

	list, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 40, list[0].Score)
	assert.Equal(t, "UNFAIR", list[0].Rating)
}

func TestStore_List(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, result("old", "Old Terms", document.TermsOfService, 50, base)))
	require.NoError(t, s.Save(ctx, result("mid", "Privacy", document.PrivacyPolicy, 70, base.Add(time.Hour))))
	require.NoError(t, s.Save(ctx, result("new", "EULA", document.EULA, 95, base.Add(2*time.Hour))))

	all, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
	assert.Equal(t, 1, all[0].RiskFindings)
	assert.True(t, base.Add(2*time.Hour).Equal(all[0].CreatedAt))

	limited, err := s.List(ctx, ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "new", limited[0].ID)

	privacy, err := s.List(ctx, ListOptions{DocumentType: string(document.PrivacyPolicy)})
	require.NoError(t, err)
	require.Len(t, privacy, 1)
	assert.Equal(t, "mid", privacy[0].ID)

	unfair, err := s.List(ctx, ListOptions{Rating: "UNFAIR"})
	require.NoError(t, err)
	require.Len(t, unfair, 1)
	assert.Equal(t, "old", unfair[0].ID)
}

func TestStore_DeleteAndStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	empty, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.Zero(t, empty.AverageScore)

	require.NoError(t, s.Save(ctx, result("a", "A", document.TermsOfService, 100, time.Now())))
	require.NoError(t, s.Save(ctx, result("b", "B", document.TermsOfService, 50, time.Now())))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.InDelta(t, 75.0, st.AverageScore, 0.001)
	assert.Equal(t, map[string]int{"FAIR": 1, "UNFAIR": 1}, st.ByRating)

	require.NoError(t, s.Delete(ctx, "a"))
	assert.True(t, errors.Is(s.Delete(ctx, "a"), ErrNotFound))
}

func TestOpen_DriverError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string, string) (*sql.DB, error) {
		return nil, errors.New("boom")
	}

	_, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store: open database: boom")
}
