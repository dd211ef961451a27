// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"legallens/internal/core"
	"legallens/internal/document"
	"legallens/internal/formatters"
	"legallens/internal/formatters/shared"
	"legallens/internal/store"
	"legallens/internal/taxonomy"
)

// Analyzer runs the analysis pipeline on one document.
type Analyzer interface {
	Analyze(ctx context.Context, content, title, docType string) (*core.Result, error)
}

// History persists and lists finished analyses.
type History interface {
	Save(ctx context.Context, r *core.Result) error
	List(ctx context.Context, opts store.ListOptions) ([]store.Record, error)
}

// AnalyzeTool handles the analyze_document MCP tool.
type AnalyzeTool struct {
	full    Analyzer
	quick   Analyzer
	tax     *taxonomy.Taxonomy
	history History
	logger  *slog.Logger
}

// Definition returns the MCP tool definition for analyze_document.
func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_document",
		mcp.WithDescription(
			"Analyze a legal document (terms of service, privacy policy, EULA) for risky clauses and "+
				"regulatory coverage. Returns a fairness score out of 100, the matched clauses and recommendations.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Full text of the document"),
		),
		mcp.WithString("title",
			mcp.Description("Document title (default: Untitled)"),
		),
		mcp.WithString("document_type",
			mcp.Description("Terms of Service, Privacy Policy or EULA (default: Terms of Service)"),
		),
		mcp.WithBoolean("include_narrative",
			mcp.Description("Generate the model-written summary and enhanced recommendations (default: true)"),
		),
		mcp.WithString("format",
			mcp.Description("Report format: json, text, markdown or yaml (default: json)"),
		),
	)
}

// Handle processes the analyze_document tool call.
func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}
	title := req.GetString("title", "")
	docType := req.GetString("document_type", "")
	format := req.GetString("format", "json")

	if _, ok := formatters.Get(format); !ok || format == "csv" {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q", format)), nil
	}

	analyzer := t.full
	if !req.GetBool("include_narrative", true) {
		analyzer = t.quick
	}

	result, err := analyzer.Analyze(ctx, content, title, docType)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	result.Source = "mcp"

	if t.history != nil {
		if err := t.history.Save(ctx, result); err != nil {
			t.logger.Warn("failed to save analysis", "id", result.ID, "error", err)
		}
	}

	out, err := formatters.Export(format, []*core.Result{result}, formatters.FormatterOptions{
		NoColor:  true,
		Taxonomy: t.tax,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

// CategoriesTool handles the list_risk_categories MCP tool.
type CategoriesTool struct {
	tax *taxonomy.Taxonomy
}

// Definition returns the MCP tool definition for list_risk_categories.
func (t *CategoriesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_risk_categories",
		mcp.WithDescription("List the risk categories and compliance frameworks the analyzer detects, with score weights."),
	)
}

// Handle renders the taxonomy as a markdown table.
func (t *CategoriesTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Base score: %d\n\n## Risk categories\n\n", t.tax.BaseScore)

	risks := shared.NewTable(shared.Markdown)
	risks.Header("Key", "Title", "Deduction", "Severity")
	for _, r := range t.tax.Risks {
		risks.Row(r.Key, r.Title, fmt.Sprintf("-%d", r.Weight), string(r.Severity))
	}
	b.WriteString(risks.String())

	b.WriteString("\n\n## Compliance frameworks\n\n")
	frameworks := shared.NewTable(shared.Markdown)
	frameworks.Header("Key", "Title", "Bonus")
	for _, f := range t.tax.Frameworks {
		frameworks.Row(f.Key, f.Title, fmt.Sprintf("+%d", f.Bonus))
	}
	b.WriteString(frameworks.String())

	fmt.Fprintf(&b, "\n\nDocument types: %s\n", strings.Join(typeNames(), ", "))
	return mcp.NewToolResultText(b.String()), nil
}

// HistoryTool handles the list_analyses MCP tool.
type HistoryTool struct {
	history History
}

// Definition returns the MCP tool definition for list_analyses.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("list_analyses",
		mcp.WithDescription("List recent analyses, newest first."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of analyses (default: 10)"),
		),
		mcp.WithString("rating",
			mcp.Description("Only analyses with this rating: FAIR, MODERATE or UNFAIR"),
		),
	)
}

// Handle processes the list_analyses tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := t.history.List(ctx, store.ListOptions{
		Limit:  int(req.GetFloat("limit", 10)),
		Rating: strings.ToUpper(req.GetString("rating", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list analyses: %v", err)), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("No analyses recorded."), nil
	}

	tbl := shared.NewTable(shared.Markdown)
	tbl.Header("ID", "Title", "Type", "Score", "Rating", "Risks", "Analyzed")
	for _, r := range records {
		tbl.Row(r.ID, r.Title, r.DocumentType, r.Score, r.Rating, r.RiskFindings, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return mcp.NewToolResultText(tbl.String()), nil
}

func typeNames() []string {
	names := make([]string, 0, len(document.KnownTypes))
	for _, t := range document.KnownTypes {
		names = append(names, string(t))
	}
	return names
}
