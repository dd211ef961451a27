// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package llm talks to chat-completion models. The Client interface is the
// only thing the analysis pipeline depends on.
package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means no model client is configured.
	ErrUnavailable = errors.New("llm: no model client configured")
	// ErrEmptyResponse means the model answered without content or tool calls.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrInvalidRequest means a request failed validation before sending.
	ErrInvalidRequest = errors.New("llm: invalid request")
)

// Tool describes a function the model may call. Parameters is a JSON schema.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is one chat completion call. System is sent first, followed by
// Messages in order.
type Request struct {
	System    string
	Messages  []Message
	Tools     []Tool
	MaxTokens int
}

// Validate checks that the request has something to send and that every
// message is well formed.
func (r Request) Validate() error {
	if r.System == "" && len(r.Messages) == 0 {
		return fmt.Errorf("%w: no messages", ErrInvalidRequest)
	}
	for i, m := range r.Messages {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("%w: message %d: %v", ErrInvalidRequest, i, err)
		}
	}
	return nil
}

// Conversation returns the full message list with the system prompt first.
func (r Request) Conversation() []Message {
	out := make([]Message, 0, len(r.Messages)+1)
	if r.System != "" {
		out = append(out, SystemMessage(r.System))
	}
	return append(out, r.Messages...)
}

// Usage reports token accounting when the upstream provides it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the model's answer.
type Response struct {
	Text         string
	ToolCalls    []ToolCall
	Model        string
	FinishReason string
	Usage        Usage
}

// Message converts the response into an assistant message for history.
func (r Response) Message() Message {
	return AssistantMessage(r.Text, r.ToolCalls...)
}

// Client completes chat requests. Implementations must honor ctx.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}
