// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"legallens/internal/logging"
)

// StandardObserver writes one log record per completed operation.
type StandardObserver struct {
	level  ObservabilityLevel
	logger *slog.Logger
}

type ObservabilityLevel int

const (
	ObservabilityOff     ObservabilityLevel = 0
	ObservabilityMetrics ObservabilityLevel = 1
	ObservabilityDebug   ObservabilityLevel = 2
)

// ParseLevel maps "off", "metrics" and "debug" onto a level.
func ParseLevel(s string) ObservabilityLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "metrics", "info":
		return ObservabilityMetrics
	case "debug":
		return ObservabilityDebug
	default:
		return ObservabilityOff
	}
}

// NewStandardObserver creates an observer. A nil logger discards output.
func NewStandardObserver(level ObservabilityLevel, logger *slog.Logger) *StandardObserver {
	return &StandardObserver{
		level:  level,
		logger: logging.OrDiscard(logger),
	}
}

// StartTiming returns a function to complete timing
func (o *StandardObserver) StartTiming(component, operation, subject string) func(success bool, metadata map[string]any) {
	start := time.Now()

	return func(success bool, metadata map[string]any) {
		o.LogOperation(StandardObservabilityData{
			Component:  component,
			Operation:  operation,
			Subject:    subject,
			DurationMs: time.Since(start).Milliseconds(),
			Success:    success,
			Metadata:   metadata,
		})
	}
}

// LogOperation logs operation data. Metrics level emits an info record,
// debug level adds the metadata at debug.
func (o *StandardObserver) LogOperation(data StandardObservabilityData) {
	if o.level == ObservabilityOff {
		return
	}

	attrs := []slog.Attr{
		slog.String("component", data.Component),
		slog.String("operation", data.Operation),
		slog.Int64("duration_ms", data.DurationMs),
		slog.Bool("success", data.Success),
	}
	if data.Subject != "" {
		attrs = append(attrs, slog.String("subject", data.Subject))
	}
	if data.Error != "" {
		attrs = append(attrs, slog.String("error", data.Error))
	}

	o.logger.LogAttrs(context.Background(), slog.LevelInfo, "operation complete", attrs...)

	if o.level == ObservabilityDebug && len(data.Metadata) > 0 {
		o.logger.LogAttrs(context.Background(), slog.LevelDebug, "operation metadata",
			slog.String("operation", data.Operation),
			slog.Any("metadata", data.Metadata))
	}
}

// StandardObservabilityData for all components
type StandardObservabilityData struct {
	Component  string         `json:"component"`
	Operation  string         `json:"operation"`
	Subject    string         `json:"subject,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
