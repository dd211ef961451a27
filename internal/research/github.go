// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package research

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"legallens/internal/logging"
	"legallens/internal/resilience"
)

const (
	defaultGitHubURL = "https://api.github.com"
	codeSearchTop    = 5
)

var (
	// ErrInvalidRepoURL is returned for URLs that do not name a GitHub repository.
	ErrInvalidRepoURL = errors.New("invalid GitHub repository URL")
	// ErrNotFile is returned when the requested path is a directory or symlink.
	ErrNotFile = errors.New("path is not a file")
)

// GitHubOptions configures the GitHub client.
type GitHubOptions struct {
	Token      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// GitHub reads files from repositories and searches code.
type GitHub struct {
	hc      *http.Client
	baseURL string
	token   string
	logger  *slog.Logger
}

// NewGitHub builds a client. An empty token returns ErrUnavailable.
func NewGitHub(opts GitHubOptions) (*GitHub, error) {
	if opts.Token == "" {
		return nil, fmt.Errorf("%w: github token is not set", ErrUnavailable)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultGitHubURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &GitHub{
		hc:      hc,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		logger:  logging.OrDiscard(opts.Logger).With("provider", "github"),
	}, nil
}

// ParseRepoURL extracts owner and repository from a github.com URL.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	_, rest, ok := strings.Cut(repoURL, "github.com/")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepoURL, repoURL)
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepoURL, repoURL)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

type contentsResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// Fetch returns the decoded content of filePath in the repository.
func (g *GitHub) Fetch(ctx context.Context, repoURL, filePath string) (string, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return "", err
	}
	if filePath == "" {
		filePath = "README.md"
	}
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s", g.baseURL,
		url.PathEscape(owner), url.PathEscape(repo), escapePath(filePath))

	var body contentsResponse
	if err := g.get(ctx, endpoint, &body); err != nil {
		return "", err
	}
	if body.Type != "file" {
		return "", fmt.Errorf("%w: %s", ErrNotFile, filePath)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(body.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", filePath, err)
	}
	g.logger.Debug("fetched document", "repo", owner+"/"+repo, "path", filePath, "bytes", len(raw))
	return string(raw), nil
}

func escapePath(p string) string {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// CodeHit is one code search result.
type CodeHit struct {
	Repository string `json:"repository"`
	Path       string `json:"path"`
	URL        string `json:"html_url"`
}

type codeSearchResponse struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		Path       string `json:"path"`
		HTMLURL    string `json:"html_url"`
		Repository struct {
			FullName string `json:"full_name"`
		} `json:"repository"`
	} `json:"items"`
}

// SearchCode finds files matching query in the given language, most recently
// updated first.
func (g *GitHub) SearchCode(ctx context.Context, query, language string) ([]CodeHit, error) {
	if language == "" {
		language = "markdown"
	}
	params := url.Values{}
	params.Set("q", fmt.Sprintf("%s language:%s", query, language))
	params.Set("sort", "updated")
	params.Set("order", "desc")

	var body codeSearchResponse
	if err := g.get(ctx, g.baseURL+"/search/code?"+params.Encode(), &body); err != nil {
		return nil, err
	}
	hits := make([]CodeHit, 0, len(body.Items))
	for _, it := range body.Items {
		hits = append(hits, CodeHit{Repository: it.Repository.FullName, Path: it.Path, URL: it.HTMLURL})
	}
	return hits, nil
}

// FormatCodeHits renders at most five hits.
func FormatCodeHits(query string, hits []CodeHit) string {
	if len(hits) == 0 {
		return "No legal documents found for query: " + query
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d legal documents for '%s':\n\n", len(hits), query)
	for i, h := range hits[:min(len(hits), codeSearchTop)] {
		fmt.Fprintf(&b, "%d. Repository: %s\n", i+1, h.Repository)
		fmt.Fprintf(&b, "   File: %s\n", h.Path)
		fmt.Fprintf(&b, "   URL: %s\n\n", h.URL)
	}
	return b.String()
}

func (g *GitHub) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+g.token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.hc.Do(req)
	if err != nil {
		return resilience.ClassifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return resilience.ClassifyStatus(resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding github response: %w", err)
	}
	return nil
}
