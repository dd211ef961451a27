// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different types of processing errors
type ErrorType string

const (
	ErrorTypeFileAccess        ErrorType = "file_access"
	ErrorTypeFileSize          ErrorType = "file_size"
	ErrorTypeUnsupportedFormat ErrorType = "unsupported_format"
	ErrorTypeInvalidFormat     ErrorType = "invalid_format"
	ErrorTypeExtractionFailed  ErrorType = "extraction_failed"
	ErrorTypeEmptyContent      ErrorType = "empty_content"
	ErrorTypeCancelled         ErrorType = "cancelled"
)

// ProcessingError describes why a file could not be turned into text.
type ProcessingError struct {
	FilePath  string
	FileType  string
	ErrorType ErrorType
	Message   string
	Cause     error
}

// Error implements the error interface
func (pe *ProcessingError) Error() string {
	parts := []string{fmt.Sprintf("processing failed for %s", pe.FilePath)}
	if pe.FileType != "" {
		parts = append(parts, fmt.Sprintf("type=%s", pe.FileType))
	}
	parts = append(parts, fmt.Sprintf("error=%s", pe.ErrorType))
	if pe.Message != "" {
		parts = append(parts, fmt.Sprintf("message=%s", pe.Message))
	}
	if pe.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", pe.Cause))
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying error
func (pe *ProcessingError) Unwrap() error {
	return pe.Cause
}

// NewProcessingError creates a new processing error
func NewProcessingError(filePath, fileType string, errorType ErrorType, message string, cause error) *ProcessingError {
	return &ProcessingError{
		FilePath:  filePath,
		FileType:  fileType,
		ErrorType: errorType,
		Message:   message,
		Cause:     cause,
	}
}

// ErrorTypeOf reports the ErrorType carried by err, or "" when err is not a ProcessingError.
func ErrorTypeOf(err error) ErrorType {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.ErrorType
	}
	return ""
}
