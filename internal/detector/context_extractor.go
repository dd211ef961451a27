// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// ContextExtractor cuts a window of text around a match.
type ContextExtractor struct {
	// Number of characters before and after the match to include
	ContextChars int
}

// NewContextExtractor creates a context extractor with default settings
func NewContextExtractor() *ContextExtractor {
	return &ContextExtractor{
		ContextChars: 100,
	}
}

// WithContextChars sets the number of context characters
func (ce *ContextExtractor) WithContextChars(chars int) *ContextExtractor {
	if chars < 0 {
		chars = 0
	}
	ce.ContextChars = chars
	return ce
}

// Window returns content[start:end] widened by ContextChars characters on each
// side, clamped to the content bounds and trimmed of surrounding whitespace.
// Offsets are byte offsets; the widening counts characters.
func (ce *ContextExtractor) Window(content string, start, end int) string {
	start = max(0, min(start, len(content)))
	end = max(start, min(end, len(content)))

	from := start
	for i := 0; i < ce.ContextChars && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(content[:from])
		from -= size
	}
	to := end
	for i := 0; i < ce.ContextChars && to < len(content); i++ {
		_, size := utf8.DecodeRuneInString(content[to:])
		to += size
	}
	return strings.TrimSpace(content[from:to])
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(content string) lineIndex {
	starts := lineIndex{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (li lineIndex) lineOf(offset int) int {
	return sort.Search(len(li), func(i int) bool { return li[i] > offset })
}
