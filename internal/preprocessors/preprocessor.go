// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package preprocessors turns input files into document text. Plain text
// formats are read directly; PDFs are validated and their text extracted page
// by page.
package preprocessors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"legallens/internal/observability"
)

// ProcessedContent represents content that has been processed by a preprocessor
type ProcessedContent struct {
	// Original file information
	OriginalPath string
	Filename     string

	// Extracted content
	Text string

	// Title reported by the file itself (PDF document info); empty when unknown
	Title string

	// Content metadata
	Format     string
	PageCount  int
	WordCount  int
	CharCount  int
	LineCount  int
	Paragraphs int

	// Processing information
	ProcessorType string

	// Additional format specific metadata
	Metadata map[string]any
}

// DisplayTitle returns the embedded title, falling back to the file name.
func (pc *ProcessedContent) DisplayTitle() string {
	if t := strings.TrimSpace(pc.Title); t != "" {
		return t
	}
	return pc.Filename
}

// Preprocessor interface defines methods for preprocessing files
type Preprocessor interface {
	// CanProcess checks if this preprocessor can handle the given file
	CanProcess(filePath string) bool

	// Process extracts content from the file
	Process(ctx context.Context, filePath string) (*ProcessedContent, error)

	// GetName returns the name of this preprocessor
	GetName() string

	// GetSupportedExtensions returns the file extensions this preprocessor supports
	GetSupportedExtensions() []string
}

// PreprocessorManager manages all available preprocessors
type PreprocessorManager struct {
	preprocessors []Preprocessor
	observer      observability.Observer
}

// NewPreprocessorManager creates a new preprocessor manager
func NewPreprocessorManager(observer observability.Observer) *PreprocessorManager {
	if observer == nil {
		observer = observability.Nop{}
	}
	return &PreprocessorManager{
		preprocessors: make([]Preprocessor, 0),
		observer:      observer,
	}
}

// NewDefaultManager returns a manager with the PDF and plain text preprocessors registered.
func NewDefaultManager(observer observability.Observer) *PreprocessorManager {
	pm := NewPreprocessorManager(observer)
	pm.RegisterPreprocessor(NewPDFPreprocessor())
	pm.RegisterPreprocessor(NewPlainTextPreprocessor())
	return pm
}

// RegisterPreprocessor adds a preprocessor to the manager
func (pm *PreprocessorManager) RegisterPreprocessor(p Preprocessor) {
	pm.preprocessors = append(pm.preprocessors, p)
}

// GetPreprocessor returns the appropriate preprocessor for a file, or nil if none found
func (pm *PreprocessorManager) GetPreprocessor(filePath string) Preprocessor {
	for _, p := range pm.preprocessors {
		if p.CanProcess(filePath) {
			return p
		}
	}
	return nil
}

// GetAvailablePreprocessors returns all registered preprocessors
func (pm *PreprocessorManager) GetAvailablePreprocessors() []Preprocessor {
	return pm.preprocessors
}

// SupportedExtensions lists every extension handled by a registered preprocessor.
func (pm *PreprocessorManager) SupportedExtensions() []string {
	var exts []string
	for _, p := range pm.preprocessors {
		exts = append(exts, p.GetSupportedExtensions()...)
	}
	return exts
}

// ProcessFile extracts text with the first preprocessor that accepts the file.
func (pm *PreprocessorManager) ProcessFile(ctx context.Context, filePath string) (*ProcessedContent, error) {
	p := pm.GetPreprocessor(filePath)
	if p == nil {
		return nil, NewProcessingError(filePath, filepath.Ext(filePath), ErrorTypeUnsupportedFormat,
			"no preprocessor accepts this file", nil)
	}

	finish := pm.observer.StartTiming("preprocessor", "process_file", filepath.Base(filePath))
	result, err := p.Process(ctx, filePath)
	if err != nil {
		finish(false, map[string]any{"processor": p.GetName(), "error": err.Error()})
		return nil, err
	}
	finish(true, map[string]any{
		"processor":  p.GetName(),
		"pages":      result.PageCount,
		"word_count": result.WordCount,
	})
	return result, nil
}

// ProcessBytes extracts text from an in-memory upload. The data is spooled to
// a temporary file carrying the original extension so routing matches ProcessFile.
func (pm *PreprocessorManager) ProcessBytes(ctx context.Context, filename string, data []byte) (*ProcessedContent, error) {
	name := filepath.Base(filename)
	tmp, err := os.CreateTemp("", "legallens-*"+strings.ToLower(filepath.Ext(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	result, err := pm.ProcessFile(ctx, tmp.Name())
	if err != nil {
		return nil, err
	}
	result.OriginalPath = filename
	result.Filename = name
	return result, nil
}

func fileExtension(filePath string) string {
	return strings.ToLower(filepath.Ext(filePath))
}

// fillStats sets word, character, line and paragraph counts from Text.
func fillStats(pc *ProcessedContent) {
	pc.WordCount = len(strings.Fields(pc.Text))
	pc.CharCount = len(pc.Text)
	pc.LineCount = 0
	if pc.Text != "" {
		pc.LineCount = strings.Count(pc.Text, "\n") + 1
	}
	pc.Paragraphs = countParagraphs(pc.Text)
}

// countParagraphs counts blank-line separated blocks.
func countParagraphs(text string) int {
	count := 0
	for _, para := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(para) != "" {
			count++
		}
	}
	return count
}
