// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"fmt"
	"strings"

	"legallens/internal/llm"
	"legallens/internal/research"
)

// Tool names offered to the model.
const (
	ToolSearchWeb         = "search_web"
	ToolLegalPrecedents   = "search_legal_precedents"
	ToolGitHubDocument    = "extract_github_document"
	ToolGitHubLegalSearch = "search_github_legal_documents"
)

// Tool is a function the assistant may call. Run always returns text for
// the model; an error is reported to the model as text too.
type Tool struct {
	Definition llm.Tool
	Run        func(ctx context.Context, args map[string]any) (string, error)
}

// ResearchTools exposes svc as model-callable tools.
func ResearchTools(svc *research.Service) []Tool {
	return []Tool{
		{
			Definition: llm.Tool{
				Name:        ToolSearchWeb,
				Description: "Search the web using the Tavily API.",
				Parameters: objectSchema(map[string]any{
					"queries": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "List of queries to search."},
					"topic":   map[string]any{"type": "string", "enum": []string{"general", "news", "finance"}, "description": "The topic of the provided queries."},
				}, "queries"),
			},
			Run: func(ctx context.Context, args map[string]any) (string, error) {
				queries := stringList(args["queries"])
				if len(queries) == 0 {
					return "", fmt.Errorf("queries is required")
				}
				return svc.SearchWeb(ctx, queries, research.ParseTopic(stringArg(args, "topic"))), nil
			},
		},
		{
			Definition: llm.Tool{
				Name:        ToolLegalPrecedents,
				Description: "Search for legal precedents and similar cases related to the legal issue.",
				Parameters: objectSchema(map[string]any{
					"legal_issue":  map[string]any{"type": "string", "description": "The specific legal issue to search for (e.g., \"data selling terms of service\")."},
					"jurisdiction": map[string]any{"type": "string", "description": "The legal jurisdiction to focus on (default: US)."},
				}, "legal_issue"),
			},
			Run: func(ctx context.Context, args map[string]any) (string, error) {
				issue := stringArg(args, "legal_issue")
				if issue == "" {
					return "", fmt.Errorf("legal_issue is required")
				}
				return svc.LegalPrecedents(ctx, issue, stringArg(args, "jurisdiction")), nil
			},
		},
		{
			Definition: llm.Tool{
				Name:        ToolGitHubDocument,
				Description: "Extract a document from a GitHub repository.",
				Parameters: objectSchema(map[string]any{
					"repo_url":  map[string]any{"type": "string", "description": "The GitHub repository URL."},
					"file_path": map[string]any{"type": "string", "description": "The path to the file in the repository (default: README.md)."},
				}, "repo_url"),
			},
			Run: func(ctx context.Context, args map[string]any) (string, error) {
				return svc.GitHubDocument(ctx, stringArg(args, "repo_url"), stringArg(args, "file_path")), nil
			},
		},
		{
			Definition: llm.Tool{
				Name:        ToolGitHubLegalSearch,
				Description: "Search for legal documents in GitHub repositories.",
				Parameters: objectSchema(map[string]any{
					"query":    map[string]any{"type": "string", "description": "Search query for legal documents."},
					"language": map[string]any{"type": "string", "description": "File language to search for (default: markdown)."},
				}, "query"),
			},
			Run: func(ctx context.Context, args map[string]any) (string, error) {
				return svc.GitHubSearch(ctx, stringArg(args, "query"), stringArg(args, "language")), nil
			},
		},
	}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	return map[string]any{"type": "object", "properties": props, "required": required}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

// stringList accepts a JSON array of strings or a single string.
func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		var out []string
		for _, e := range t {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}
