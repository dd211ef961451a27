// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxTextFileSize caps plain text inputs.
const MaxTextFileSize = 20 * 1024 * 1024

// PlainTextPreprocessor reads text and markdown documents as-is.
type PlainTextPreprocessor struct {
	maxSize int64
}

// NewPlainTextPreprocessor creates a new plain text preprocessor
func NewPlainTextPreprocessor() *PlainTextPreprocessor {
	return &PlainTextPreprocessor{maxSize: MaxTextFileSize}
}

// GetName returns the name of this preprocessor
func (ptp *PlainTextPreprocessor) GetName() string {
	return "Plain Text Preprocessor"
}

// GetSupportedExtensions returns the file extensions this preprocessor supports
func (ptp *PlainTextPreprocessor) GetSupportedExtensions() []string {
	return []string{".txt", ".text", ".md", ".markdown", ".rst"}
}

// extensionless documents commonly shipped in repositories
var knownTextNames = map[string]bool{
	"license": true,
	"copying": true,
	"notice":  true,
	"terms":   true,
	"privacy": true,
	"eula":    true,
}

// CanProcess checks if this preprocessor can handle the given file
func (ptp *PlainTextPreprocessor) CanProcess(filePath string) bool {
	ext := fileExtension(filePath)
	for _, supported := range ptp.GetSupportedExtensions() {
		if ext == supported {
			return true
		}
	}
	if ext != "" {
		return false
	}
	if knownTextNames[strings.ToLower(filepath.Base(filePath))] {
		return true
	}
	return ptp.isTextFile(filePath)
}

// Process extracts text content from the file
func (ptp *PlainTextPreprocessor) Process(ctx context.Context, filePath string) (*ProcessedContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewProcessingError(filePath, "text", ErrorTypeCancelled, "", err)
	}

	content, err := ptp.readTextFile(filePath)
	if err != nil {
		return nil, err
	}

	result := &ProcessedContent{
		OriginalPath:  filePath,
		Filename:      filepath.Base(filePath),
		Text:          content,
		Format:        formatName(fileExtension(filePath)),
		PageCount:     1,
		ProcessorType: "plaintext",
		Metadata:      make(map[string]any),
	}
	if ext := fileExtension(filePath); ext != "" {
		result.Metadata["file_extension"] = ext
	}
	fillStats(result)
	return result, nil
}

// readTextFile reads the content of a text file, dropping invalid UTF-8 sequences
func (ptp *PlainTextPreprocessor) readTextFile(filePath string) (string, error) {
	cleanPath := filepath.Clean(filePath)
	info, err := os.Stat(cleanPath)
	if err != nil {
		return "", NewProcessingError(filePath, "text", ErrorTypeFileAccess, "failed to stat file", err)
	}
	if info.IsDir() {
		return "", NewProcessingError(filePath, "text", ErrorTypeFileAccess, "path is a directory", nil)
	}
	if info.Size() > ptp.maxSize {
		return "", NewProcessingError(filePath, "text", ErrorTypeFileSize,
			fmt.Sprintf("file too large: %d bytes (max: %d bytes)", info.Size(), ptp.maxSize), nil)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", NewProcessingError(filePath, "text", ErrorTypeFileAccess, "failed to read file", err)
	}

	content := string(data)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}
	return strings.TrimPrefix(content, "\ufeff"), nil
}

// isTextFile sniffs the first 512 bytes for binary content
func (ptp *PlainTextPreprocessor) isTextFile(filePath string) bool {
	file, err := os.Open(filepath.Clean(filePath))
	if err != nil {
		return false
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && n == 0 {
		return false
	}
	buffer = buffer[:n]

	printable := 0
	for _, b := range buffer {
		if b == 0 {
			return false
		}
		if (b >= 32 && b <= 126) || b == 9 || b == 10 || b == 13 || b >= 128 {
			printable++
		}
	}
	return float64(printable)/float64(len(buffer)) > 0.95
}

func formatName(ext string) string {
	switch ext {
	case ".md", ".markdown":
		return "Markdown"
	case ".rst":
		return "reStructuredText"
	default:
		return "Plain Text"
	}
}
