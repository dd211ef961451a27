// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package detector scans document text against rule tables and reports every
// match with a window of surrounding text.
package detector

import (
	"fmt"
	"regexp"
	"sort"

	"legallens/internal/taxonomy"
)

const (
	RiskDetectorName       = "risk"
	ComplianceDetectorName = "compliance"
)

// Finding is one concrete match of a rule.
type Finding struct {
	Category    string `json:"category" yaml:"category"`
	RuleID      string `json:"rule_id" yaml:"rule_id"`
	Pattern     string `json:"pattern" yaml:"pattern"`
	MatchedText string `json:"match" yaml:"match"`
	Context     string `json:"context" yaml:"context"`
	Start       int    `json:"start" yaml:"start"`
	End         int    `json:"end" yaml:"end"`
	LineNumber  int    `json:"line" yaml:"line"`
}

// Findings groups findings by category. A category is present only when it
// has at least one finding.
type Findings map[string][]Finding

// Has reports whether key has findings.
func (f Findings) Has(key string) bool {
	return len(f[key]) > 0
}

// Count returns the total number of findings.
func (f Findings) Count() int {
	n := 0
	for _, v := range f {
		n += len(v)
	}
	return n
}

// Keys returns the present categories in the given order, followed by any
// categories not named in order sorted alphabetically.
func (f Findings) Keys(order []string) []string {
	keys := make([]string, 0, len(f))
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		seen[k] = true
		if f.Has(k) {
			keys = append(keys, k)
		}
	}
	var extra []string
	for k := range f {
		if !seen[k] && f.Has(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// Category is a named group of patterns.
type Category struct {
	Key      string
	Patterns []string
}

// Rule is a compiled pattern belonging to a category.
type Rule struct {
	ID       string
	Category string
	Pattern  string
	re       *regexp.Regexp
}

// CompileRule compiles pattern case-insensitively. index is zero-based.
func CompileRule(category string, index int, pattern string) (Rule, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s[%d]: %w", category, index, err)
	}
	return Rule{
		ID:       fmt.Sprintf("%s.%02d", category, index+1),
		Category: category,
		Pattern:  pattern,
		re:       re,
	}, nil
}

// Detector evaluates every rule of every category against a document.
// It holds no mutable state and is safe for concurrent use.
type Detector struct {
	name      string
	order     []string
	rules     map[string][]Rule
	extractor *ContextExtractor
}

// New compiles categories into a detector reporting contextChars characters
// on each side of a match.
func New(name string, categories []Category, contextChars int) (*Detector, error) {
	d := &Detector{
		name:      name,
		rules:     make(map[string][]Rule, len(categories)),
		extractor: NewContextExtractor().WithContextChars(contextChars),
	}
	for _, c := range categories {
		if _, dup := d.rules[c.Key]; dup {
			return nil, fmt.Errorf("duplicate category %q", c.Key)
		}
		rules := make([]Rule, 0, len(c.Patterns))
		for i, p := range c.Patterns {
			r, err := CompileRule(c.Key, i, p)
			if err != nil {
				return nil, err
			}
			rules = append(rules, r)
		}
		d.order = append(d.order, c.Key)
		d.rules[c.Key] = rules
	}
	return d, nil
}

// NewRiskDetector builds the risk detector from a taxonomy.
func NewRiskDetector(t *taxonomy.Taxonomy) (*Detector, error) {
	cats := make([]Category, len(t.Risks))
	for i, r := range t.Risks {
		cats[i] = Category{Key: r.Key, Patterns: r.Patterns}
	}
	return New(RiskDetectorName, cats, t.RiskContextChars)
}

// NewComplianceDetector builds the compliance detector from a taxonomy.
func NewComplianceDetector(t *taxonomy.Taxonomy) (*Detector, error) {
	cats := make([]Category, len(t.Frameworks))
	for i, f := range t.Frameworks {
		cats[i] = Category{Key: f.Key, Patterns: f.Patterns}
	}
	return New(ComplianceDetectorName, cats, t.ComplianceContextChars)
}

// Name returns the detector name.
func (d *Detector) Name() string { return d.name }

// Categories returns category keys in table order.
func (d *Detector) Categories() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Rules returns the compiled rules of one category.
func (d *Detector) Rules(category string) []Rule {
	return d.rules[category]
}

// Detect scans content. Findings within a category are ordered by rule, then
// by position. Categories without matches are absent from the result.
func (d *Detector) Detect(content string) Findings {
	out := make(Findings)
	if content == "" {
		return out
	}
	lines := newLineIndex(content)
	for _, key := range d.order {
		var found []Finding
		for _, r := range d.rules[key] {
			for _, loc := range r.re.FindAllStringIndex(content, -1) {
				found = append(found, Finding{
					Category:    key,
					RuleID:      r.ID,
					Pattern:     r.Pattern,
					MatchedText: content[loc[0]:loc[1]],
					Context:     d.extractor.Window(content, loc[0], loc[1]),
					Start:       loc[0],
					End:         loc[1],
					LineNumber:  lines.lineOf(loc[0]),
				})
			}
		}
		if len(found) > 0 {
			out[key] = found
		}
	}
	return out
}

// Match reports whether a single rule matches text.
func (r Rule) Match(text string) bool {
	return r.re.MatchString(text)
}
