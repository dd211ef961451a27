// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	// DefaultMaxPDFPages limits how many pages are extracted from one document.
	DefaultMaxPDFPages = 50

	pageBreak = "\n--- PAGE BREAK ---\n"
)

// PDFPreprocessor extracts text from PDF documents. pdfcpu validates the file
// and reads its document info; ledongthuc/pdf extracts the page text.
type PDFPreprocessor struct {
	maxPages  int
	pdfConfig *model.Configuration
}

// NewPDFPreprocessor creates a PDF preprocessor with relaxed validation.
func NewPDFPreprocessor() *PDFPreprocessor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFPreprocessor{
		maxPages:  DefaultMaxPDFPages,
		pdfConfig: conf,
	}
}

// GetName returns the name of this preprocessor
func (pp *PDFPreprocessor) GetName() string {
	return "PDF Preprocessor"
}

// GetSupportedExtensions returns the file extensions this preprocessor supports
func (pp *PDFPreprocessor) GetSupportedExtensions() []string {
	return []string{".pdf"}
}

// CanProcess checks if this preprocessor can handle the given file
func (pp *PDFPreprocessor) CanProcess(filePath string) bool {
	return fileExtension(filePath) == ".pdf"
}

// Process validates the PDF, reads its document info and extracts page text.
func (pp *PDFPreprocessor) Process(ctx context.Context, filePath string) (*ProcessedContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewProcessingError(filePath, "pdf", ErrorTypeCancelled, "", err)
	}

	result := &ProcessedContent{
		OriginalPath:  filePath,
		Filename:      filepath.Base(filePath),
		Format:        "PDF",
		ProcessorType: "pdf",
		Metadata:      make(map[string]any),
	}

	// Strict validity is informational; many real-world PDFs fail it and still extract.
	if err := api.ValidateFile(filePath, pp.pdfConfig); err != nil {
		result.Metadata["validation_error"] = err.Error()
	}
	pp.readInfo(filePath, result)

	text, pages, err := pp.extractText(ctx, filePath)
	if err != nil {
		return nil, err
	}
	result.Text = text
	if result.PageCount == 0 {
		result.PageCount = pages
	}
	result.Metadata["pages_extracted"] = min(pages, pp.maxPages)
	if pages > pp.maxPages {
		result.Metadata["truncated"] = true
	}

	if strings.TrimSpace(result.Text) == "" {
		return nil, NewProcessingError(filePath, "pdf", ErrorTypeEmptyContent,
			"no extractable text (scanned or image-only PDF?)", nil)
	}
	fillStats(result)
	return result, nil
}

// readInfo copies page count and document info from the pdfcpu context.
func (pp *PDFPreprocessor) readInfo(filePath string, result *ProcessedContent) {
	pdfCtx, err := api.ReadContextFile(filePath)
	if err != nil {
		result.Metadata["info_error"] = err.Error()
		return
	}
	result.PageCount = pdfCtx.PageCount
	result.Title = strings.TrimSpace(pdfCtx.Title)
	if pdfCtx.Author != "" {
		result.Metadata["author"] = pdfCtx.Author
	}
	if pdfCtx.Producer != "" {
		result.Metadata["producer"] = pdfCtx.Producer
	}
	if pdfCtx.Encrypt != nil {
		result.Metadata["encrypted"] = true
	}
}

// extractText returns the cleaned text of the first maxPages pages and the
// total page count reported by the reader.
func (pp *PDFPreprocessor) extractText(ctx context.Context, filePath string) (string, int, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", 0, NewProcessingError(filePath, "pdf", ErrorTypeInvalidFormat, "error opening PDF", err)
	}
	defer f.Close()

	total := r.NumPage()
	limit := min(total, pp.maxPages)

	var buf bytes.Buffer
	for i := 1; i <= limit; i++ {
		if err := ctx.Err(); err != nil {
			return "", total, NewProcessingError(filePath, "pdf", ErrorTypeCancelled,
				fmt.Sprintf("stopped at page %d", i), err)
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := extractTextWithProperSpacing(p)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString(pageBreak)
		}
		buf.WriteString(text)
	}

	return cleanTextPreservingStructure(buf.String()), total, nil
}

// extractTextWithProperSpacing rebuilds rows top to bottom, falling back to
// plain extraction when row grouping fails.
func extractTextWithProperSpacing(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil {
		return p.GetPlainText(nil)
	}

	sorted := make([]*pdf.Row, 0, len(rows))
	for _, row := range rows {
		if row != nil && len(row.Content) > 0 {
			sorted = append(sorted, row)
		}
	}
	// PDF Y grows upwards.
	sort.SliceStable(sorted, func(i, j int) bool {
		return averageY(sorted[i].Content) > averageY(sorted[j].Content)
	})

	var buf bytes.Buffer
	for _, row := range sorted {
		rowText := reconstructRowText(row.Content)
		if strings.TrimSpace(rowText) != "" {
			buf.WriteString(rowText)
			buf.WriteString("\n")
		}
	}
	return buf.String(), nil
}

func averageY(elements []pdf.Text) float64 {
	if len(elements) == 0 {
		return 0
	}
	var total float64
	for _, e := range elements {
		total += e.Y
	}
	return total / float64(len(elements))
}

// reconstructRowText joins glyph runs left to right, inserting a space when
// the horizontal gap exceeds a fifth of the font size.
func reconstructRowText(elements []pdf.Text) string {
	if len(elements) == 0 {
		return ""
	}
	sorted := make([]pdf.Text, len(elements))
	copy(sorted, elements)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	var buf bytes.Buffer
	for i, e := range sorted {
		buf.WriteString(e.S)
		if i == len(sorted)-1 {
			break
		}
		fontSize := e.FontSize
		if fontSize <= 0 {
			fontSize = 12
		}
		gap := sorted[i+1].X - (e.X + e.W)
		if gap > fontSize*0.2 && !strings.HasSuffix(e.S, " ") {
			buf.WriteString(" ")
		}
	}
	return buf.String()
}

// cleanTextPreservingStructure drops blank lines, converts tabs and collapses
// runs of spaces while keeping line breaks.
func cleanTextPreservingStructure(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.ReplaceAll(line, "\t", " ")
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
