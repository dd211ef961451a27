// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestIsHeader(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"1. Data Collection and Usage", true},
		{"12.Termination", true},
		{"TERMS OF SERVICE", true},
		{"LIMITATION OF LIABILITY", true},
		{"Governing law:", true},
		{"Definitions:", true},
		{"We may update these terms at any time.", false},
		{"1.", false},
		{"A", false},
		{"IMPORTANT: READ CAREFULLY", false},
		{"Governing Law:", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHeader(tt.line))
		})
	}
}

func TestSegment(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Section
	}{
		{
			name:    "empty",
			content: "",
			want:    []Section{},
		},
		{
			name:    "blank lines only",
			content: "\n   \n\t\n",
			want:    []Section{},
		},
		{
			name:    "no headers",
			content: "first line\n\n  second line  \nthird line",
			want:    []Section{{Title: "Introduction", Body: "first line\nsecond line\nthird line"}},
		},
		{
			name: "numbered headers",
			content: `Terms of Service
Welcome to the service.

1. Data Collection
We collect your data.

2. Termination
We may terminate your account.`,
			want: []Section{
				{Title: "Introduction", Body: "Terms of Service\nWelcome to the service."},
				{Title: "1. Data Collection", Body: "We collect your data."},
				{Title: "2. Termination", Body: "We may terminate your account."},
			},
		},
		{
			name:    "header before any text drops empty introduction",
			content: "DEFINITIONS\nA user is you.\nScope:\nThese terms apply.",
			want: []Section{
				{Title: "DEFINITIONS", Body: "A user is you."},
				{Title: "Scope:", Body: "These terms apply."},
			},
		},
		{
			name:    "consecutive headers keep only the last with content",
			content: "1. Intro\n2. Details\nBody text.",
			want:    []Section{{Title: "2. Details", Body: "Body text."}},
		},
		{
			name:    "windows line endings",
			content: "PRIVACY\r\nWe respect privacy.\r\n",
			want:    []Section{{Title: "PRIVACY", Body: "We respect privacy."}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(tt.content)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Segment() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSegmentPreservesLineOrder(t *testing.T) {
	content := "alpha\n1. One\nbeta\ngamma\nSECOND\ndelta"
	var lines []string
	for _, s := range Segment(content) {
		lines = append(lines, s.Body)
	}
	assert.Equal(t, []string{"alpha", "beta\ngamma", "delta"}, lines)
}
