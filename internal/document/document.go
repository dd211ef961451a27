// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package document models a legal document and splits it into titled sections.
package document

import (
	"strings"
	"unicode/utf8"
)

// Type is the kind of legal document. Unknown values are carried verbatim.
type Type string

const (
	TermsOfService Type = "Terms of Service"
	PrivacyPolicy  Type = "Privacy Policy"
	EULA           Type = "EULA"
)

const (
	DefaultTitle = "Unknown Document"
	DefaultType  = TermsOfService
)

// KnownTypes lists the built-in document types.
var KnownTypes = []Type{TermsOfService, PrivacyPolicy, EULA}

// ParseType maps common spellings onto a known Type. Empty input yields
// DefaultType and anything unrecognized is kept as given.
func ParseType(s string) Type {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return DefaultType
	case "tos", "terms", "terms of service", "terms-of-service", "terms_of_service":
		return TermsOfService
	case "privacy", "privacy policy", "privacy-policy", "privacy_policy":
		return PrivacyPolicy
	case "eula", "license", "end user license agreement":
		return EULA
	}
	return Type(s)
}

// Section is a titled slice of a document, used for display only.
type Section struct {
	Title string `json:"title" yaml:"title"`
	Body  string `json:"body" yaml:"body"`
}

// Document is an ingested legal document. Content never changes after New;
// WithSections returns a copy rather than mutating the receiver.
type Document struct {
	Title    string    `json:"title" yaml:"title"`
	Content  string    `json:"-" yaml:"-"`
	Type     Type      `json:"document_type" yaml:"document_type"`
	Sections []Section `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// New creates a document, applying the default title and type when empty.
func New(content, title string, docType Type) *Document {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	if docType == "" {
		docType = DefaultType
	}
	return &Document{Title: title, Content: content, Type: docType}
}

// Segmented reports whether sections have been attached.
func (d *Document) Segmented() bool {
	return d.Sections != nil
}

// WithSections returns a copy of d carrying sections.
func (d *Document) WithSections(sections []Section) *Document {
	cp := *d
	cp.Sections = make([]Section, len(sections))
	copy(cp.Sections, sections)
	return &cp
}

// Excerpt returns at most n characters from the start of the content.
func (d *Document) Excerpt(n int) string {
	return Truncate(d.Content, n)
}

// Truncate cuts s to at most n characters without splitting a rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// RuneCount is the length of the content in characters.
func (d *Document) RuneCount() int {
	return utf8.RuneCountInString(d.Content)
}
