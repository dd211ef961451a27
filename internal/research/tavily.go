// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"legallens/internal/logging"
	"legallens/internal/resilience"
)

// Topic selects the Tavily search index.
type Topic string

const (
	TopicGeneral Topic = "general"
	TopicNews    Topic = "news"
	TopicFinance Topic = "finance"
)

// ParseTopic maps free text to a Topic, defaulting to news.
func ParseTopic(s string) Topic {
	switch Topic(strings.ToLower(strings.TrimSpace(s))) {
	case TopicGeneral:
		return TopicGeneral
	case TopicFinance:
		return TopicFinance
	}
	return TopicNews
}

// LegalDomains restricts precedent searches to case law sources.
var LegalDomains = []string{"law.justia.com", "casetext.com", "supreme.justia.com", "scholar.google.com"}

const (
	defaultTavilyURL       = "https://api.tavily.com"
	defaultMaxResults      = 5
	defaultMaxTokens       = 1000
	defaultSearchDays      = 30
	defaultPrecedentDays   = 365
	precedentResultsPerQry = 3
)

// TavilyOptions configures the Tavily client.
type TavilyOptions struct {
	APIKey             string
	BaseURL            string
	MaxResults         int
	MaxTokensPerSource int
	SearchDays         int
	PrecedentDays      int
	Timeout            time.Duration
	HTTPClient         *http.Client
	Retry              resilience.RetryConfig
	Logger             *slog.Logger
}

// Tavily searches the web through the Tavily API.
type Tavily struct {
	hc     *http.Client
	url    string
	key    string
	opts   TavilyOptions
	logger *slog.Logger
}

// NewTavily builds a client. An empty key returns ErrUnavailable.
func NewTavily(opts TavilyOptions) (*Tavily, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: tavily api key is not set", ErrUnavailable)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultTavilyURL
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.MaxTokensPerSource <= 0 {
		opts.MaxTokensPerSource = defaultMaxTokens
	}
	if opts.SearchDays <= 0 {
		opts.SearchDays = defaultSearchDays
	}
	if opts.PrecedentDays <= 0 {
		opts.PrecedentDays = defaultPrecedentDays
	}
	if opts.Retry.MaxRetries == 0 && opts.Retry.InitialInterval == 0 {
		opts.Retry = resilience.DefaultRetryConfig().WithAttempts(2)
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Tavily{
		hc:     hc,
		url:    strings.TrimRight(opts.BaseURL, "/") + "/search",
		key:    opts.APIKey,
		opts:   opts,
		logger: logging.OrDiscard(opts.Logger).With("provider", "tavily"),
	}, nil
}

// Query is one Tavily search request.
type Query struct {
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth"`
	Topic             Topic    `json:"topic"`
	Days              int      `json:"days,omitempty"`
	MaxResults        int      `json:"max_results"`
	IncludeDomains    []string `json:"include_domains"`
	ExcludeDomains    []string `json:"exclude_domains"`
	IncludeAnswer     bool     `json:"include_answer"`
	IncludeRawContent bool     `json:"include_raw_content"`
	IncludeImages     bool     `json:"include_images"`
}

// Do runs a single query with retries.
func (t *Tavily) Do(ctx context.Context, q Query) (SearchResponse, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return SearchResponse{}, err
	}
	return resilience.RetryWithResult(ctx, t.opts.Retry, func(ctx context.Context) (SearchResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
		if err != nil {
			return SearchResponse{}, resilience.NewPermanentError("building request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+t.key)

		resp, err := t.hc.Do(req)
		if err != nil {
			return SearchResponse{}, resilience.ClassifyError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
			return SearchResponse{}, resilience.ClassifyStatus(resp.StatusCode, strings.TrimSpace(string(detail)))
		}
		var out SearchResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return SearchResponse{}, resilience.NewTransientError("decoding tavily response", err)
		}
		if out.Query == "" {
			out.Query = q.Query
		}
		return out, nil
	})
}

// Search runs each query as a basic search and formats the combined sources.
// Failed queries are logged and contribute no sources.
func (t *Tavily) Search(ctx context.Context, queries []string, topic Topic) string {
	t.logger.Info("searching the web", "queries", len(queries), "topic", topic)
	days := 0
	if topic == TopicNews {
		days = t.opts.SearchDays
	}
	responses := t.run(ctx, queries, func(q string) Query {
		return Query{
			Query:          q,
			SearchDepth:    "basic",
			Topic:          topic,
			Days:           days,
			MaxResults:     t.opts.MaxResults,
			IncludeDomains: []string{},
			ExcludeDomains: []string{},
			IncludeAnswer:  true,
		}
	})
	return FormatSources(responses, t.opts.MaxTokensPerSource, false)
}

// PrecedentQueries returns the four query variants used for a legal issue.
func PrecedentQueries(issue, jurisdiction string) []string {
	if jurisdiction == "" {
		jurisdiction = "US"
	}
	return []string{
		fmt.Sprintf("%s legal cases %s", issue, jurisdiction),
		fmt.Sprintf("%s court decisions %s", issue, jurisdiction),
		fmt.Sprintf("%s consumer protection %s", issue, jurisdiction),
		fmt.Sprintf("%s regulatory compliance %s", issue, jurisdiction),
	}
}

// Precedents searches case law sources for a legal issue.
func (t *Tavily) Precedents(ctx context.Context, issue, jurisdiction string) string {
	t.logger.Info("searching legal precedents", "issue", issue, "jurisdiction", jurisdiction)
	responses := t.run(ctx, PrecedentQueries(issue, jurisdiction), func(q string) Query {
		return Query{
			Query:             q,
			SearchDepth:       "advanced",
			Topic:             TopicNews,
			Days:              t.opts.PrecedentDays,
			MaxResults:        precedentResultsPerQry,
			IncludeDomains:    LegalDomains,
			ExcludeDomains:    []string{},
			IncludeAnswer:     true,
			IncludeRawContent: true,
		}
	})
	return FormatSources(responses, t.opts.MaxTokensPerSource, true)
}

func (t *Tavily) run(ctx context.Context, queries []string, build func(string) Query) []SearchResponse {
	responses := make([]SearchResponse, 0, len(queries))
	for _, q := range queries {
		resp, err := t.Do(ctx, build(q))
		if err != nil {
			t.logger.Error("search query failed", "query", q, "error", err)
			resp = SearchResponse{Query: q}
		}
		responses = append(responses, resp)
	}
	return responses
}
