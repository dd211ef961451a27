// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters

import (
	"fmt"
	"sort"
	"strings"

	"legallens/internal/core"
	"legallens/internal/taxonomy"
)

// FormatterOptions defines configuration options for formatters
type FormatterOptions struct {
	Verbose     bool               // Include every finding with its context
	NoColor     bool               // Disable colored output
	ShowContext bool               // Include context windows in tabular formats
	Taxonomy    *taxonomy.Taxonomy // Category order and titles; nil means the built-in tables
}

// Tables returns the taxonomy used for ordering and titles.
func (o FormatterOptions) Tables() *taxonomy.Taxonomy {
	if o.Taxonomy != nil {
		return o.Taxonomy
	}
	return taxonomy.Default()
}

// Formatter interface defines methods that all output formatters must implement
type Formatter interface {
	// Format renders one or more analysis results
	Format(results []*core.Result, options FormatterOptions) (string, error)

	// Name returns the name of the formatter (e.g., "json", "text", "csv")
	Name() string

	// Description returns a brief description of what this formatter outputs
	Description() string

	// FileExtension returns the recommended file extension for this format (e.g., ".json", ".txt", ".csv")
	FileExtension() string
}

// Registry holds all registered formatters
type Registry struct {
	formatters map[string]Formatter
}

// NewRegistry creates a new formatter registry
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
	}
}

// Register adds a formatter to the registry
func (r *Registry) Register(formatter Formatter) {
	r.formatters[formatter.Name()] = formatter
}

// Get retrieves a formatter by name
func (r *Registry) Get(name string) (Formatter, bool) {
	formatter, exists := r.formatters[strings.ToLower(name)]
	return formatter, exists
}

// List returns all registered formatter names, sorted
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.formatters))
	for name := range r.formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatInfo describes a formatter for the web API
type FormatInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Extension   string `json:"extension"`
	MimeType    string `json:"mime_type"`
}

// DefaultRegistry is the global formatter registry
var DefaultRegistry = NewRegistry()

// Register is a convenience function to register a formatter with the default registry
func Register(formatter Formatter) {
	DefaultRegistry.Register(formatter)
}

// Get is a convenience function to get a formatter from the default registry
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// List is a convenience function to list all formatters in the default registry
func List() []string {
	return DefaultRegistry.List()
}

// Export renders results with the named formatter from the default registry.
func Export(format string, results []*core.Result, options FormatterOptions) (string, error) {
	formatter, exists := Get(format)
	if !exists {
		return "", fmt.Errorf("unsupported format '%s'. Available formats: %s", format, strings.Join(List(), ", "))
	}
	return formatter.Format(results, options)
}

// ExportForWeb renders one result and returns the MIME type and a download file name.
func ExportForWeb(format string, result *core.Result, options FormatterOptions) (content string, mimeType string, filename string, err error) {
	options.NoColor = true
	content, err = Export(format, []*core.Result{result}, options)
	if err != nil {
		return "", "", "", err
	}

	info := GetFormatInfo(format)
	mimeType = info.MimeType
	filename = "legallens-" + result.ID + info.Extension
	return content, mimeType, filename, nil
}

var mimeTypes = map[string]string{
	"json":     "application/json",
	"csv":      "text/csv",
	"yaml":     "application/x-yaml",
	"markdown": "text/markdown",
	"text":     "text/plain",
}

// GetFormatInfo describes a registered formatter; unknown names yield the
// zero FormatInfo.
func GetFormatInfo(name string) FormatInfo {
	formatter, exists := Get(name)
	if !exists {
		return FormatInfo{}
	}
	mime, ok := mimeTypes[formatter.Name()]
	if !ok {
		mime = "application/octet-stream"
	}
	return FormatInfo{
		Name:        formatter.Name(),
		Description: formatter.Description(),
		Extension:   formatter.FileExtension(),
		MimeType:    mime,
	}
}

// GetSupportedFormats describes every registered formatter, sorted by name.
func GetSupportedFormats() []FormatInfo {
	names := List()
	formats := make([]FormatInfo, 0, len(names))
	for _, name := range names {
		formats = append(formats, GetFormatInfo(name))
	}
	return formats
}
