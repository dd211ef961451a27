// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package chat answers questions about a document with a model that may
// call research tools between turns.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"legallens/internal/llm"
	"legallens/internal/logging"
	"legallens/internal/prompts"
	"legallens/internal/resilience"
)

// ErrMissingInput is returned when the question or document is empty.
var ErrMissingInput = errors.New("missing message or document content")

// Fixed replies.
const (
	Unavailable = "The document assistant is not available. Please check NVIDIA_API_KEY."
	NoAnswer    = "I'm sorry, I couldn't generate a response. Please try rephrasing your question."
	errorPrefix = "I encountered an error while processing your request: "
)

// Reply statuses.
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusUnavailable = "unavailable"
)

// DefaultMaxRounds bounds the number of tool-call rounds per question.
const DefaultMaxRounds = 3

// Question is a user question about a document.
type Question struct {
	Message         string        `json:"message"`
	DocumentContent string        `json:"document_content"`
	History         []llm.Message `json:"history,omitempty"`
}

// Reply is the assistant's answer. Response always holds readable text.
type Reply struct {
	Response  string   `json:"response"`
	Status    string   `json:"status"`
	Rounds    int      `json:"rounds"`
	ToolCalls []string `json:"tool_calls,omitempty"`
}

// Options configures an Assistant.
type Options struct {
	MaxRounds int
	Retry     resilience.RetryConfig
	Logger    *slog.Logger
}

// Assistant runs the question/tool loop.
type Assistant struct {
	client    llm.Client
	tools     map[string]Tool
	specs     []llm.Tool
	maxRounds int
	retry     resilience.RetryConfig
	logger    *slog.Logger
}

// NewAssistant builds an assistant. A nil client yields the Unavailable reply.
func NewAssistant(client llm.Client, tools []Tool, opts Options) *Assistant {
	if opts.MaxRounds <= 0 {
		opts.MaxRounds = DefaultMaxRounds
	}
	if opts.Retry.MaxRetries == 0 && opts.Retry.InitialInterval == 0 {
		opts.Retry = resilience.RetryConfig{Retryable: resilience.RetryUnlessPermanent}.WithAttempts(3)
	}
	a := &Assistant{
		client:    client,
		tools:     make(map[string]Tool, len(tools)),
		maxRounds: opts.MaxRounds,
		retry:     opts.Retry,
		logger:    logging.OrDiscard(opts.Logger).With("component", "chat"),
	}
	for _, t := range tools {
		a.tools[t.Definition.Name] = t
		a.specs = append(a.specs, t.Definition)
	}
	return a
}

// Available reports whether a model is configured.
func (a *Assistant) Available() bool { return a.client != nil }

// Topic frames the document and question for the system prompt.
func Topic(q Question) string {
	return fmt.Sprintf("\nDocument Content:\n%s\n\nUser Question: %s\n\nPlease answer the user's question about this document.\n",
		q.DocumentContent, q.Message)
}

// Ask answers q. Only missing input is an error; model failures are
// reported in the reply text.
func (a *Assistant) Ask(ctx context.Context, q Question) (Reply, error) {
	if strings.TrimSpace(q.Message) == "" || strings.TrimSpace(q.DocumentContent) == "" {
		return Reply{}, ErrMissingInput
	}
	if a.client == nil {
		return Reply{Response: Unavailable, Status: StatusUnavailable}, nil
	}

	system := prompts.Assistant(Topic(q))
	msgs := append(append([]llm.Message{}, q.History...), llm.UserMessage(q.Message))
	reply := Reply{Status: StatusSuccess}

	for {
		req := llm.Request{System: system, Messages: msgs}
		// the last round gets no tools so the model has to answer
		if reply.Rounds < a.maxRounds {
			req.Tools = a.specs
		}

		out := resilience.Attempt(ctx, a.retry, func(ctx context.Context) (llm.Response, error) {
			return a.client.Complete(ctx, req)
		})
		if !out.Succeeded() {
			a.logger.Error("assistant call failed", "attempts", out.Attempts, "error", out.Err)
			reply.Response = errorPrefix + errorText(out.Err)
			reply.Status = StatusError
			return reply, nil
		}

		resp := out.Value
		if len(resp.ToolCalls) == 0 || req.Tools == nil {
			reply.Response = strings.TrimSpace(resp.Text)
			if reply.Response == "" {
				reply.Response = NoAnswer
			}
			return reply, nil
		}

		reply.Rounds++
		msgs = append(msgs, resp.Message())
		for _, call := range resp.ToolCalls {
			reply.ToolCalls = append(reply.ToolCalls, call.Name)
			msgs = append(msgs, llm.ToolMessage(call.ID, call.Name, a.runTool(ctx, call)))
		}
	}
}

func (a *Assistant) runTool(ctx context.Context, call llm.ToolCall) string {
	tool, ok := a.tools[call.Name]
	if !ok {
		return fmt.Sprintf("Unknown tool %q.", call.Name)
	}
	args, err := call.Args()
	if err != nil {
		return "Error: " + err.Error()
	}
	a.logger.Info("running tool", "tool", call.Name)
	text, err := tool.Run(ctx, args)
	if err != nil {
		a.logger.Warn("tool failed", "tool", call.Name, "error", err)
		return "Error: " + err.Error()
	}
	return text
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
