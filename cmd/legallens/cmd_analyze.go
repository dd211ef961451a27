// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"legallens/internal/core"
	"legallens/internal/formatters"
	"legallens/internal/parallel"
	"legallens/internal/preprocessors"
	"legallens/internal/research"

	// Import formatters to register them
	_ "legallens/internal/formatters/csv"
	_ "legallens/internal/formatters/json"
	_ "legallens/internal/formatters/markdown"
	_ "legallens/internal/formatters/text"
	_ "legallens/internal/formatters/yaml"
)

type analyzeFlags struct {
	format      string
	output      string
	docType     string
	title       string
	workers     int
	recursive   bool
	githubRepo  string
	githubPath  string
	noNarrative bool
	noSave      bool
	verbose     bool
	showContext bool
	quiet       bool
	minScore    int
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var flags analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze [file|-]...",
		Short: "Analyze legal documents for unfair terms",
		Long: `Analyze one or more documents and print a fairness report.

Inputs may be text, Markdown or PDF files, directories (with --recursive),
"-" for standard input, or a file in a GitHub repository (--github).

Examples:
  legallens analyze terms.pdf
  legallens analyze -f json -o report.json policies/ --recursive
  cat eula.txt | legallens analyze - --type EULA
  legallens analyze --github https://github.com/org/app --path legal/TERMS.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, a, flags, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.format, "format", "f", "", "Output format: "+strings.Join(formatters.List(), ", ")+" (default from config: text)")
	f.StringVarP(&flags.output, "output", "o", "", "Write the report to a file instead of stdout")
	f.StringVarP(&flags.docType, "type", "t", "", "Document type: Terms of Service, Privacy Policy or EULA")
	f.StringVar(&flags.title, "title", "", "Document title (single document only)")
	f.IntVarP(&flags.workers, "workers", "w", 0, "Concurrent analyses (default from config)")
	f.BoolVarP(&flags.recursive, "recursive", "r", false, "Analyze supported files in directories")
	f.StringVar(&flags.githubRepo, "github", "", "GitHub repository URL to read a document from")
	f.StringVar(&flags.githubPath, "path", "", "File path inside the --github repository (default: README.md)")
	f.BoolVar(&flags.noNarrative, "no-narrative", false, "Skip the model-written summary and recommendations")
	f.BoolVar(&flags.noSave, "no-save", false, "Do not record results in the analysis history")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Include every matched clause in the report")
	f.BoolVar(&flags.showContext, "show-context", false, "Include clause context in tabular formats")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "Suppress progress output")
	f.IntVar(&flags.minScore, "min-score", 0, "Exit with an error when any document scores below this value")
	return cmd
}

func runAnalyze(cmd *cobra.Command, a *app, flags analyzeFlags, args []string) error {
	if len(args) == 0 && flags.githubRepo == "" {
		return errors.New("no input: pass files, directories, - for stdin, or --github")
	}

	format := flags.format
	if format == "" {
		format = a.cfg.Defaults.Format
	}
	if _, ok := formatters.Get(format); !ok {
		return fmt.Errorf("unsupported format '%s'. Available formats: %s", format, strings.Join(formatters.List(), ", "))
	}
	workers := flags.workers
	if workers <= 0 {
		workers = a.cfg.Defaults.Workers
	}

	analyzer, err := a.analyzer()
	if err != nil {
		return err
	}
	if flags.noNarrative {
		analyzer = analyzer.WithoutNarrative()
	}

	manager := preprocessors.NewDefaultManager(a.observer)
	jobs, err := buildJobs(cmd.InOrStdin(), manager, a.research(), args, flags)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return errors.New("no supported documents found")
	}
	if len(jobs) == 1 && flags.title != "" {
		jobs[0].Title = flags.title
	}

	stderr := cmd.ErrOrStderr()
	var progress parallel.ProgressCallback
	if !flags.quiet && len(jobs) > 1 && isTerminal(stderr) {
		fmt.Fprintf(stderr, "Analyzing %d documents with %d workers...\n", len(jobs), workers)
		progress = progressBar(stderr, time.Now())
	}

	processor := parallel.NewParallelProcessor(analyzer, workers, a.observer, a.logger)
	results, stats, err := processor.ProcessWithProgress(cmd.Context(), jobs, progress)
	if err != nil {
		return err
	}

	analyses := make([]*core.Result, 0, len(results))
	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintf(stderr, "Error: %v\n", r.Error)
			continue
		}
		r.Analysis.Source = r.Source
		analyses = append(analyses, r.Analysis)
	}

	if !flags.noSave {
		saveHistory(cmd.Context(), a, analyses)
	}

	out := cmd.OutOrStdout()
	if flags.output != "" {
		file, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	report, err := formatters.Export(format, analyses, formatters.FormatterOptions{
		Verbose:     flags.verbose || a.cfg.Defaults.Verbose,
		NoColor:     a.colorDisabled(out),
		ShowContext: flags.showContext,
		Taxonomy:    analyzer.Taxonomy(),
	})
	if err != nil {
		return err
	}
	if _, err := io.WriteString(out, strings.TrimRight(report, "\n")+"\n"); err != nil {
		return err
	}
	if flags.output != "" && !flags.quiet {
		fmt.Fprintf(stderr, "Report written to %s\n", flags.output)
	}

	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d documents could not be analyzed", stats.Failed, stats.TotalJobs)
	}
	if flags.minScore > 0 {
		var below []string
		for _, r := range analyses {
			if r.FairnessScore < flags.minScore {
				below = append(below, fmt.Sprintf("%s (%d)", r.Title, r.FairnessScore))
			}
		}
		if len(below) > 0 {
			return fmt.Errorf("fairness score below %d: %s", flags.minScore, strings.Join(below, ", "))
		}
	}
	return nil
}

// buildJobs turns the command arguments into analysis jobs. Files are read
// inside the workers.
func buildJobs(stdin io.Reader, manager *preprocessors.PreprocessorManager, svc *research.Service, args []string, flags analyzeFlags) ([]parallel.Job, error) {
	var jobs []parallel.Job
	add := func(p string) {
		jobs = append(jobs, parallel.Job{
			ID:           p,
			Source:       p,
			DocumentType: flags.docType,
			Load: func(ctx context.Context) (string, string, error) {
				processed, err := manager.ProcessFile(ctx, p)
				if err != nil {
					return "", "", err
				}
				return processed.Text, processed.DisplayTitle(), nil
			},
		})
	}

	stdinUsed := false
	for _, arg := range args {
		if arg == "-" {
			if stdinUsed {
				return nil, errors.New("stdin (-) can only be given once")
			}
			stdinUsed = true
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			jobs = append(jobs, parallel.Job{
				ID:           "stdin",
				Source:       "stdin",
				Title:        "stdin",
				DocumentType: flags.docType,
				Content:      string(data),
			})
			continue
		}

		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		if !flags.recursive {
			return nil, fmt.Errorf("%s is a directory (use --recursive)", arg)
		}
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if manager.GetPreprocessor(p) != nil {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}

	if flags.githubRepo != "" {
		job, err := githubJob(svc, flags)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func githubJob(svc *research.Service, flags analyzeFlags) (parallel.Job, error) {
	owner, repo, err := research.ParseRepoURL(flags.githubRepo)
	if err != nil {
		return parallel.Job{}, err
	}
	gh := svc.GitHub()
	if gh == nil {
		return parallel.Job{}, errors.New(research.GitHubFetchUnavailable)
	}
	filePath := flags.githubPath
	if filePath == "" {
		filePath = "README.md"
	}
	source := fmt.Sprintf("github.com/%s/%s/%s", owner, repo, filePath)
	return parallel.Job{
		ID:           source,
		Source:       source,
		DocumentType: flags.docType,
		Load: func(ctx context.Context) (string, string, error) {
			content, err := gh.Fetch(ctx, flags.githubRepo, filePath)
			if err != nil {
				return "", "", err
			}
			return content, fmt.Sprintf("%s/%s: %s", owner, repo, path.Base(filePath)), nil
		},
	}, nil
}

// saveHistory records results; failures are logged and do not fail the run.
func saveHistory(ctx context.Context, a *app, results []*core.Result) {
	if len(results) == 0 {
		return
	}
	s, err := a.openStore()
	if err != nil {
		a.logger.Warn("history unavailable", "error", err)
		return
	}
	if s == nil {
		return
	}
	defer s.Close()
	for _, r := range results {
		if err := s.Save(ctx, r); err != nil {
			a.logger.Warn("failed to save analysis", "id", r.ID, "error", err)
		}
	}
}

// progressBar renders a single-line progress bar with ETA
func progressBar(w io.Writer, start time.Time) parallel.ProgressCallback {
	const barWidth = 40
	return func(current, total int, _ string) {
		filled := barWidth * current / total
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

		var eta string
		if current > 0 && current < total {
			avg := time.Since(start) / time.Duration(current)
			eta = fmt.Sprintf(" ETA: %s", (time.Duration(total-current) * avg).Round(time.Second))
		}
		fmt.Fprintf(w, "\r[%s] %d/%d documents (%.1f%%)%s", bar, current, total, float64(current)/float64(total)*100, eta)
		if current == total {
			fmt.Fprintln(w)
		}
	}
}
