// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package research provides the reference lookups used by the document
// assistant: Tavily web and precedent search and GitHub document retrieval.
package research

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable is returned when a provider has no credentials.
var ErrUnavailable = errors.New("research provider not configured")

// charsPerToken is the rough size estimate used to cap raw source content.
const charsPerToken = 4

const truncatedMarker = "... [truncated]"

// Source is one search hit.
type Source struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	RawContent string  `json:"raw_content,omitempty"`
	Score      float64 `json:"score,omitempty"`
}

// SearchResponse is the result of one query.
type SearchResponse struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Source `json:"results"`
}

// Dedupe flattens responses and keeps the first source seen for each URL.
func Dedupe(responses []SearchResponse) []Source {
	seen := make(map[string]bool)
	var out []Source
	for _, r := range responses {
		for _, s := range r.Results {
			if seen[s.URL] {
				continue
			}
			seen[s.URL] = true
			out = append(out, s)
		}
	}
	return out
}

// FormatSources renders deduplicated sources as a "Sources:" block. Raw
// content, when included, is capped at maxTokensPerSource*4 characters.
func FormatSources(responses []SearchResponse, maxTokensPerSource int, includeRaw bool) string {
	var b strings.Builder
	b.WriteString("Sources:\n\n")
	for _, s := range Dedupe(responses) {
		fmt.Fprintf(&b, "Source %s:\n===\n", s.Title)
		fmt.Fprintf(&b, "URL: %s\n===\n", s.URL)
		fmt.Fprintf(&b, "Most relevant content from source: %s\n===\n", s.Content)
		if includeRaw {
			fmt.Fprintf(&b, "Full source content limited to %d tokens: %s\n\n",
				maxTokensPerSource, truncateRaw(s.RawContent, maxTokensPerSource*charsPerToken))
		}
	}
	return strings.TrimSpace(b.String())
}

func truncateRaw(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	// keep valid UTF-8
	for cut > 0 && !utf8Start(s[cut]) {
		cut--
	}
	return s[:cut] + truncatedMarker
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }
