// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"regexp"
	"strings"
)

// IntroductionTitle names the section that collects text before the first header.
const IntroductionTitle = "Introduction"

// Lines are trimmed before matching, so every rule sees a whole line.
var headerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+\.\s*[^.\n]+`), // 1. Section Title
	regexp.MustCompile(`^[A-Z][A-Z\s]+$`),  // ALL CAPS HEADER
	regexp.MustCompile(`^[A-Z][a-z\s]+:$`), // Title case:
}

// IsHeader reports whether a trimmed line looks like a section header.
func IsHeader(line string) bool {
	for _, re := range headerPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Segment splits content into sections. Blank lines are dropped, header lines
// become section titles and a section is only emitted when it has body text.
// Content without headers yields a single Introduction section and empty
// content yields no sections. Segment never fails.
func Segment(content string) []Section {
	sections := []Section{}
	title := IntroductionTitle
	var body []string

	flush := func() {
		if len(body) > 0 {
			sections = append(sections, Section{Title: title, Body: strings.Join(body, "\n")})
		}
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if IsHeader(line) {
			flush()
			title = line
			body = nil
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}
