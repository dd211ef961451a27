// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"legallens/internal/config"
	"legallens/internal/logging"
)

// Fixed replies used when a provider is not configured.
const (
	WebSearchUnavailable    = "Web search is not available. Please set TAVILY_API_KEY environment variable."
	LegalSearchUnavailable  = "Legal research is not available. Please set TAVILY_API_KEY environment variable."
	GitHubFetchUnavailable  = "GitHub access is not available. Please set GITHUB_TOKEN environment variable."
	GitHubSearchUnavailable = "GitHub search is not available. Please set GITHUB_TOKEN environment variable."
)

// Service exposes the research providers as text-returning tools. Missing
// credentials and provider errors become readable text instead of errors.
type Service struct {
	tavily *Tavily
	github *GitHub
	logger *slog.Logger
}

// NewService wraps the given providers; either may be nil.
func NewService(tavily *Tavily, github *GitHub, logger *slog.Logger) *Service {
	return &Service{tavily: tavily, github: github, logger: logging.OrDiscard(logger)}
}

// NewServiceFromConfig builds providers for every credential that is set.
func NewServiceFromConfig(cfg config.ResearchConfig, logger *slog.Logger) *Service {
	logger = logging.OrDiscard(logger)
	if !cfg.Enabled {
		return NewService(nil, nil, logger)
	}

	tavily, err := NewTavily(TavilyOptions{
		APIKey:             cfg.TavilyKey(),
		BaseURL:            cfg.TavilyBaseURL,
		MaxResults:         cfg.MaxResults,
		MaxTokensPerSource: cfg.MaxTokensPerSource,
		SearchDays:         cfg.SearchDays,
		PrecedentDays:      cfg.PrecedentDays,
		Timeout:            cfg.Timeout,
		Logger:             logger,
	})
	if err != nil {
		logger.Warn("web search disabled", "reason", err)
	}
	github, err := NewGitHub(GitHubOptions{
		Token:   cfg.GitHubAuthToken(),
		BaseURL: cfg.GitHubBaseURL,
		Timeout: cfg.Timeout,
		Logger:  logger,
	})
	if err != nil {
		logger.Warn("github lookups disabled", "reason", err)
	}
	return NewService(tavily, github, logger)
}

// WebAvailable reports whether Tavily is configured.
func (s *Service) WebAvailable() bool { return s.tavily != nil }

// GitHubAvailable reports whether GitHub is configured.
func (s *Service) GitHubAvailable() bool { return s.github != nil }

// GitHub returns the GitHub client, or nil when not configured.
func (s *Service) GitHub() *GitHub { return s.github }

// SearchWeb runs a Tavily search over queries.
func (s *Service) SearchWeb(ctx context.Context, queries []string, topic Topic) string {
	if s.tavily == nil {
		return WebSearchUnavailable
	}
	return s.tavily.Search(ctx, queries, topic)
}

// LegalPrecedents searches case law for a legal issue.
func (s *Service) LegalPrecedents(ctx context.Context, issue, jurisdiction string) string {
	if s.tavily == nil {
		return LegalSearchUnavailable
	}
	return s.tavily.Precedents(ctx, issue, jurisdiction)
}

// GitHubDocument returns a repository file or a description of what went wrong.
func (s *Service) GitHubDocument(ctx context.Context, repoURL, filePath string) string {
	if s.github == nil {
		return GitHubFetchUnavailable
	}
	if filePath == "" {
		filePath = "README.md"
	}
	content, err := s.github.Fetch(ctx, repoURL, filePath)
	switch {
	case err == nil:
		return content
	case errors.Is(err, ErrInvalidRepoURL):
		return "Invalid GitHub URL format. Please provide a valid GitHub repository URL."
	case errors.Is(err, ErrNotFile):
		return fmt.Sprintf("Path %s is not a file in the repository.", filePath)
	default:
		s.logger.Warn("github fetch failed", "repo", repoURL, "path", filePath, "error", err)
		return fmt.Sprintf("Error accessing GitHub: %v", err)
	}
}

// GitHubSearch lists repository files matching a legal document query.
func (s *Service) GitHubSearch(ctx context.Context, query, language string) string {
	if s.github == nil {
		return GitHubSearchUnavailable
	}
	hits, err := s.github.SearchCode(ctx, query, language)
	if err != nil {
		s.logger.Warn("github search failed", "query", query, "error", err)
		return fmt.Sprintf("Error searching GitHub: %v", err)
	}
	return FormatCodeHits(query, hits)
}
