// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"legallens/internal/core"
	"legallens/internal/logging"
	"legallens/internal/observability"
)

// maxDefaultWorkers caps the worker count picked from the CPU count.
const maxDefaultWorkers = 8

// Analyzer runs the analysis pipeline on one document.
type Analyzer interface {
	Analyze(ctx context.Context, content, title, docType string) (*core.Result, error)
}

// LoadFunc produces a job's content and title inside the worker.
type LoadFunc func(ctx context.Context) (content, title string, err error)

// Job is one document to analyze. When Load is set it replaces Content and
// an empty Title.
type Job struct {
	ID           string
	Source       string
	Title        string
	DocumentType string
	Content      string
	Load         LoadFunc
}

// Result represents processing results for one job
type Result struct {
	JobID    string
	Source   string
	Analysis *core.Result
	Error    error
	Duration time.Duration
}

// ProcessingStats tracks parallel processing statistics
type ProcessingStats struct {
	TotalJobs     int           `json:"total_jobs"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	TotalFindings int           `json:"total_findings"`
	TotalDuration time.Duration `json:"total_duration_ms"`
	WorkerCount   int           `json:"worker_count"`
	AvgJobTime    time.Duration `json:"avg_job_time_ms"`
}

// ProgressCallback is called when a job is completed
type ProgressCallback func(completed, total int, source string)

// ParallelProcessor analyzes many documents with a bounded number of workers.
type ParallelProcessor struct {
	analyzer Analyzer
	workers  int
	observer observability.Observer
	logger   *slog.Logger
}

// DefaultWorkers returns the CPU count capped at eight.
func DefaultWorkers() int {
	return min(runtime.NumCPU(), maxDefaultWorkers)
}

// NewParallelProcessor creates a new parallel processor. A non-positive
// worker count uses DefaultWorkers.
func NewParallelProcessor(analyzer Analyzer, workers int, observer observability.Observer, logger *slog.Logger) *ParallelProcessor {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if observer == nil {
		observer = observability.Nop{}
	}
	return &ParallelProcessor{
		analyzer: analyzer,
		workers:  workers,
		observer: observer,
		logger:   logging.OrDiscard(logger),
	}
}

// Workers returns the concurrency limit.
func (pp *ParallelProcessor) Workers() int { return pp.workers }

// Process analyzes jobs concurrently.
func (pp *ParallelProcessor) Process(ctx context.Context, jobs []Job) ([]*Result, *ProcessingStats, error) {
	return pp.ProcessWithProgress(ctx, jobs, nil)
}

// ProcessWithProgress analyzes jobs concurrently and reports each completion.
// Results keep the order of jobs. A failing job is recorded in its Result
// and does not stop the others; only cancellation of ctx is returned.
func (pp *ParallelProcessor) ProcessWithProgress(ctx context.Context, jobs []Job, progress ProgressCallback) ([]*Result, *ProcessingStats, error) {
	start := time.Now()
	finishTiming := pp.observer.StartTiming("parallel_processor", "process_jobs", "batch")

	results := make([]*Result, len(jobs))
	var mu sync.Mutex
	completed := 0

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(pp.workers)
	for i := range jobs {
		g.Go(func() error {
			res := pp.processJob(gCtx, jobs[i], i)
			results[i] = res

			mu.Lock()
			completed++
			if progress != nil {
				progress(completed, len(jobs), res.Source)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	stats := &ProcessingStats{
		TotalJobs:     len(jobs),
		TotalDuration: time.Since(start),
		WorkerCount:   pp.workers,
	}
	var busy time.Duration
	for _, r := range results {
		busy += r.Duration
		if r.Error != nil {
			stats.Failed++
			continue
		}
		stats.Succeeded++
		stats.TotalFindings += r.Analysis.RiskCount()
	}
	stats.AvgJobTime = busy / time.Duration(max(len(jobs), 1))

	err := ctx.Err()
	finishTiming(err == nil, map[string]any{
		"total_jobs":  stats.TotalJobs,
		"succeeded":   stats.Succeeded,
		"failed":      stats.Failed,
		"workers":     pp.workers,
		"duration_ms": stats.TotalDuration.Milliseconds(),
	})
	return results, stats, err
}

// processJob loads and analyzes a single job
func (pp *ParallelProcessor) processJob(ctx context.Context, job Job, index int) *Result {
	start := time.Now()
	res := &Result{JobID: job.ID, Source: job.Source}
	if res.JobID == "" {
		res.JobID = fmt.Sprintf("job_%d", index)
	}
	if res.Source == "" {
		res.Source = res.JobID
	}

	content, title := job.Content, job.Title
	if err := ctx.Err(); err != nil {
		res.Error = err
		return res
	}
	if job.Load != nil {
		loaded, loadedTitle, err := job.Load(ctx)
		if err != nil {
			res.Error = fmt.Errorf("loading %s: %w", res.Source, err)
			res.Duration = time.Since(start)
			pp.logger.Warn("document load failed", "source", res.Source, "error", err)
			return res
		}
		content = loaded
		if title == "" {
			title = loadedTitle
		}
	}

	analysis, err := pp.analyzer.Analyze(ctx, content, title, job.DocumentType)
	if err != nil {
		res.Error = fmt.Errorf("analyzing %s: %w", res.Source, err)
		pp.logger.Warn("analysis failed", "source", res.Source, "error", err)
	} else {
		res.Analysis = analysis
	}
	res.Duration = time.Since(start)
	return res
}
