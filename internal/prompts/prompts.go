// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package prompts builds the model requests used by the narrative stages and
// the document assistant.
package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"legallens/internal/detector"
	"legallens/internal/document"
	"legallens/internal/llm"
)

const (
	DefaultSummaryExcerpt = 2000
	DefaultEnhanceExcerpt = 1500
	// maxSnapshotMatches caps quoted matches per category in a snapshot.
	maxSnapshotMatches = 3
)

// Snapshot is the deterministic analysis handed to the model as context.
type Snapshot struct {
	Risks          detector.Findings
	RiskOrder      []string
	Compliance     detector.Findings
	FrameworkOrder []string
	Score          int
}

// RiskText renders each present risk category with its clause count and a
// few quoted matches.
func (s Snapshot) RiskText() string {
	keys := s.Risks.Keys(s.RiskOrder)
	if len(keys) == 0 {
		return "- no risky clauses detected"
	}
	var b strings.Builder
	for _, k := range keys {
		fs := s.Risks[k]
		fmt.Fprintf(&b, "- %s (%d clauses)", k, len(fs))
		var quotes []string
		for i, f := range fs {
			if i == maxSnapshotMatches {
				break
			}
			quotes = append(quotes, fmt.Sprintf("%q", f.MatchedText))
		}
		if len(quotes) > 0 {
			b.WriteString(": " + strings.Join(quotes, ", "))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// ComplianceText lists frameworks found and missing.
func (s Snapshot) ComplianceText() string {
	var found, missing []string
	for _, k := range s.FrameworkOrder {
		if s.Compliance.Has(k) {
			found = append(found, k)
		} else {
			missing = append(missing, k)
		}
	}
	for _, k := range s.Compliance.Keys(s.FrameworkOrder) {
		if !contains(s.FrameworkOrder, k) {
			found = append(found, k)
		}
	}
	return fmt.Sprintf("- present: %s\n- missing: %s", listOrNone(found), listOrNone(missing))
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func render(t *template.Template, data any) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		// templates are fixed at compile time, so this is a programming error
		panic(fmt.Sprintf("prompt %s: %v", t.Name(), err))
	}
	return b.String()
}

// LegalAnalyzer renders the summary system prompt.
func LegalAnalyzer(docType document.Type, excerpt string) string {
	return render(legalAnalyzerTmpl, map[string]any{"DocumentType": docType, "Excerpt": excerpt})
}

// SummaryRequest asks for a plain English summary of the first excerptLen
// characters of doc. history is appended after the request.
func SummaryRequest(doc *document.Document, excerptLen int, history []llm.Message) llm.Request {
	if excerptLen <= 0 {
		excerptLen = DefaultSummaryExcerpt
	}
	msgs := make([]llm.Message, 0, len(history)+1)
	msgs = append(msgs, llm.UserMessage(render(summaryRequestTmpl, map[string]any{"DocumentType": doc.Type})))
	msgs = append(msgs, history...)
	return llm.Request{
		System:   LegalAnalyzer(doc.Type, doc.Excerpt(excerptLen)),
		Messages: msgs,
	}
}

// EnhanceRequest asks for actionable recommendations given the deterministic
// analysis.
func EnhanceRequest(doc *document.Document, excerptLen int, snap Snapshot) llm.Request {
	if excerptLen <= 0 {
		excerptLen = DefaultEnhanceExcerpt
	}
	body := render(enhanceTmpl, map[string]any{
		"DocumentType": doc.Type,
		"Excerpt":      doc.Excerpt(excerptLen),
		"Snapshot":     snap,
	})
	return llm.Request{
		System:   ExpertSystemPrompt,
		Messages: []llm.Message{llm.UserMessage(body)},
	}
}

// Assistant renders the document Q&A system prompt around topic, which is
// the document text or a summary of it.
func Assistant(topic string) string {
	return render(assistantTmpl, map[string]any{"Topic": topic})
}
