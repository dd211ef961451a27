// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"legallens/internal/chat"
	"legallens/internal/core"
	"legallens/internal/logging"
	"legallens/internal/mcpserver"
	"legallens/internal/preprocessors"
	"legallens/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	var noHistory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the analysis API:

  GET  /health                         service status
  POST /api/analyze                    analyze JSON {content, title, document_type} or a multipart "file"
  GET  /api/analyses                   list stored analyses (?limit, type, rating)
  GET  /api/analyses/{id}              one stored analysis
  GET  /api/analyses/{id}/export       download a report (?format=json|yaml|csv|text|markdown)
  GET  /api/taxonomy                   risk and compliance tables
  GET  /api/formats                    export formats and accepted uploads
  POST /api/chat                       ask a question about a document`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if noHistory {
				a.cfg.Store.Enabled = false
			}

			analyzer, err := a.analyzer()
			if err != nil {
				return err
			}
			assistant, err := a.assistant()
			if err != nil {
				return err
			}

			opts := web.Options{
				Config:             a.cfg.Server,
				Analyzer:           analyzer,
				QuickAnalyzer:      analyzer.WithoutNarrative(),
				Taxonomy:           analyzer.Taxonomy(),
				Preprocessors:      preprocessors.NewDefaultManager(a.observer),
				Assistant:          assistant,
				NarrativeAvailable: analyzer.NarrativeAvailable(),
				Logger:             logging.New("web"),
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			if s != nil {
				defer s.Close()
				opts.Store = s
			}

			server, err := web.NewWebServer(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			fmt.Fprintf(cmd.ErrOrStderr(), "legallens API listening on %s\n", a.cfg.Server.Addr)
			return server.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config: :8080)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not store analyses")
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Long: `Serve analyze_document, list_risk_categories and list_analyses as Model
Context Protocol tools over stdin/stdout. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			analyzer, err := a.analyzer()
			if err != nil {
				return err
			}
			opts := mcpserver.Options{
				Analyzer:      analyzer,
				QuickAnalyzer: analyzer.WithoutNarrative(),
				Taxonomy:      analyzer.Taxonomy(),
				Logger:        logging.New("mcp"),
			}
			s, err := a.openStore()
			if err != nil {
				a.logger.Warn("history disabled", "error", err)
			} else if s != nil {
				defer s.Close()
				opts.History = s
			}

			server, err := mcpserver.New(opts)
			if err != nil {
				return err
			}
			return mcpserver.ServeStdio(server)
		},
	}
}

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <file|-> <question>",
		Short: "Ask a question about a document",
		Example: `  legallens chat terms.pdf "Can I opt out of arbitration?"
  legallens chat - "Who is my data shared with?" < privacy.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readDocument(cmd.Context(), cmd, a, args[0])
			if err != nil {
				return err
			}
			assistant, err := a.assistant()
			if err != nil {
				return err
			}
			reply, err := assistant.Ask(cmd.Context(), chat.Question{Message: args[1], DocumentContent: content})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply.Response)
			if reply.Status == chat.StatusError {
				return fmt.Errorf("assistant failed")
			}
			return nil
		},
	}
}

// assistant builds the chat assistant with the research tools.
func (a *app) assistant() (*chat.Assistant, error) {
	client, err := core.NewNarrator(a.cfg.LLM, logging.New("llm"))
	if err != nil {
		return nil, err
	}
	return chat.NewAssistant(client, chat.ResearchTools(a.research()), chat.Options{
		Retry:  core.RetryFromConfig(a.cfg.LLM, a.cfg.LLM.SummaryAttempts),
		Logger: logging.New("chat"),
	}), nil
}

// readDocument returns the text of a file or of stdin for "-".
func readDocument(ctx context.Context, cmd *cobra.Command, a *app, arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	processed, err := preprocessors.NewDefaultManager(a.observer).ProcessFile(ctx, arg)
	if err != nil {
		return "", err
	}
	return processed.Text, nil
}
