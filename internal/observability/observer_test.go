// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestStandardObserver_Levels(t *testing.T) {
	tests := []struct {
		level        ObservabilityLevel
		wantRecord   bool
		wantMetadata bool
	}{
		{ObservabilityOff, false, false},
		{ObservabilityMetrics, true, false},
		{ObservabilityDebug, true, true},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		o := NewStandardObserver(tt.level, newBufferLogger(&buf))
		done := o.StartTiming("core", "risk_scoring", "Acme ToS")
		done(true, map[string]any{"risks": 3})

		out := buf.String()
		if got := strings.Contains(out, "operation=risk_scoring"); got != tt.wantRecord {
			t.Errorf("level %d: record present = %v, want %v\n%s", tt.level, got, tt.wantRecord, out)
		}
		if got := strings.Contains(out, "operation metadata"); got != tt.wantMetadata {
			t.Errorf("level %d: metadata present = %v, want %v\n%s", tt.level, got, tt.wantMetadata, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]ObservabilityLevel{
		"":        ObservabilityOff,
		"off":     ObservabilityOff,
		"metrics": ObservabilityMetrics,
		"DEBUG":   ObservabilityDebug,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestDebugObserver_Trace(t *testing.T) {
	var buf bytes.Buffer
	d := NewDebugObserver(&buf)

	outer := d.StartTiming("core", "analyze", "doc.txt")
	inner := d.StartStep("core", "summarize", "doc.txt")
	d.LogDetail("llm", "attempt 1")
	inner(false, "fallback")
	outer(true, map[string]any{"score": 55, "attempts": 1})

	want := []string{
		"🔄 core: analyze (doc.txt)",
		"  🔄 core: summarize (doc.txt)",
		"       → llm: attempt 1",
		"  ❌ core: summarize failed",
		"✅ core: analyze completed",
		"attempts=1 score=55",
	}
	out := buf.String()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("trace missing %q:\n%s", w, out)
		}
	}
}

func TestNop(t *testing.T) {
	var o Observer = Nop{}
	o.StartTiming("a", "b", "c")(true, nil)
}
