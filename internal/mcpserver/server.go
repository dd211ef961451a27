// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package mcpserver exposes document analysis as Model Context Protocol tools
// served over stdio.
package mcpserver

import (
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"legallens/internal/logging"
	"legallens/internal/taxonomy"
	"legallens/internal/version"

	// Import formatters to register them
	_ "legallens/internal/formatters/json"
	_ "legallens/internal/formatters/markdown"
	_ "legallens/internal/formatters/text"
	_ "legallens/internal/formatters/yaml"
)

const instructions = `legallens scores consumer legal documents for unfair terms.
Call analyze_document with the document text to get a fairness score, the risky clauses found and
recommendations. Call list_risk_categories to see what is detected and how it is weighted.`

// Options wires the tool collaborators. QuickAnalyzer defaults to Analyzer;
// History is optional and enables list_analyses.
type Options struct {
	Analyzer      Analyzer
	QuickAnalyzer Analyzer
	Taxonomy      *taxonomy.Taxonomy
	History       History
	Logger        *slog.Logger
}

// New creates the MCP server with every tool registered.
func New(opts Options) (*server.MCPServer, error) {
	if opts.Analyzer == nil {
		return nil, errors.New("mcpserver: analyzer is required")
	}
	if opts.QuickAnalyzer == nil {
		opts.QuickAnalyzer = opts.Analyzer
	}
	if opts.Taxonomy == nil {
		opts.Taxonomy = taxonomy.Default()
	}
	logger := logging.OrDiscard(opts.Logger).With("component", "mcp")

	s := server.NewMCPServer(
		"legallens",
		version.Short(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	analyzeTool := &AnalyzeTool{
		full:    opts.Analyzer,
		quick:   opts.QuickAnalyzer,
		tax:     opts.Taxonomy,
		history: opts.History,
		logger:  logger,
	}
	s.AddTool(analyzeTool.Definition(), analyzeTool.Handle)

	categoriesTool := &CategoriesTool{tax: opts.Taxonomy}
	s.AddTool(categoriesTool.Definition(), categoriesTool.Handle)

	if opts.History != nil {
		historyTool := &HistoryTool{history: opts.History}
		s.AddTool(historyTool.Definition(), historyTool.Handle)
	}
	return s, nil
}

// ServeStdio runs s on stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
