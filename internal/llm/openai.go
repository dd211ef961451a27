// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"legallens/internal/resilience"
)

const (
	DefaultBaseURL   = "https://integrate.api.nvidia.com/v1"
	DefaultModel     = "meta/llama-3.3-70b-instruct"
	DefaultAPIKeyEnv = "NVIDIA_API_KEY"
	defaultTimeout   = 60 * time.Second
	maxErrorBody     = 4 << 10
)

// Options configures an OpenAI-compatible chat completions client. The
// defaults target NVIDIA's hosted endpoint.
type Options struct {
	BaseURL     string
	Model       string
	APIKey      string
	APIKeyEnv   string
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

func (o *Options) defaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Model == "" {
		o.Model = DefaultModel
	}
	if o.APIKeyEnv == "" {
		o.APIKeyEnv = DefaultAPIKeyEnv
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
}

// ResolveAPIKey returns the explicit key or the value of the configured
// environment variable.
func (o Options) ResolveAPIKey() string {
	if o.APIKey != "" {
		return o.APIKey
	}
	env := o.APIKeyEnv
	if env == "" {
		env = DefaultAPIKeyEnv
	}
	return os.Getenv(env)
}

// OpenAIClient calls /chat/completions on an OpenAI-compatible service.
type OpenAIClient struct {
	hc      *http.Client
	url     string
	apiKey  string
	model   string
	temp    float64
	breaker *resilience.CircuitBreaker
}

// NewOpenAI builds a client. A missing API key yields ErrUnavailable so
// callers can treat the model as not configured.
func NewOpenAI(opts Options) (*OpenAIClient, error) {
	opts.defaults()
	key := opts.ResolveAPIKey()
	if key == "" {
		return nil, fmt.Errorf("%w: %s is not set", ErrUnavailable, opts.APIKeyEnv)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &OpenAIClient{
		hc:     hc,
		url:    strings.TrimRight(opts.BaseURL, "/") + "/chat/completions",
		apiKey: key,
		model:  opts.Model,
		temp:   opts.Temperature,
	}, nil
}

// WithCircuitBreaker guards every call with cb.
func (c *OpenAIClient) WithCircuitBreaker(cb *resilience.CircuitBreaker) *OpenAIClient {
	c.breaker = cb
	return c
}

// Name returns the model identifier.
func (c *OpenAIClient) Name() string { return c.model }

type oaToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type oaMessage struct {
	Role       string       `json:"role"`
	Content    string       `json:"content"`
	ToolCalls  []oaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
	Name       string       `json:"name,omitempty"`
}

type oaTool struct {
	Type     string `json:"type"`
	Function Tool   `json:"function"`
}

type oaReq struct {
	Model       string      `json:"model"`
	Messages    []oaMessage `json:"messages"`
	Temperature float64     `json:"temperature"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
	Tools       []oaTool    `json:"tools,omitempty"`
}

type oaResp struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      oaMessage `json:"message"`
		FinishReason string    `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

func (c *OpenAIClient) encode(req Request) ([]byte, error) {
	body := oaReq{Model: c.model, Temperature: c.temp, MaxTokens: req.MaxTokens}
	for _, m := range req.Conversation() {
		om := oaMessage{Role: string(m.Role), Content: m.Content, ToolCallID: m.ToolCallID, Name: m.Name}
		for _, tc := range m.ToolCalls {
			otc := oaToolCall{ID: tc.ID, Type: "function"}
			otc.Function.Name = tc.Name
			otc.Function.Arguments = tc.Arguments
			om.ToolCalls = append(om.ToolCalls, otc)
		}
		body.Messages = append(body.Messages, om)
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, oaTool{Type: "function", Function: t})
	}
	return json.Marshal(&body)
}

// Complete sends one request. HTTP failures come back classified so the
// caller's retry policy can tell transient from permanent errors.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}
	var resp Response
	call := func(ctx context.Context) error {
		var err error
		resp, err = c.do(ctx, req)
		return err
	}
	if c.breaker != nil {
		return resp, c.breaker.Execute(ctx, call)
	}
	return resp, call(ctx)
}

func (c *OpenAIClient) do(ctx context.Context, req Request) (Response, error) {
	body, err := c.encode(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: encode: %v", ErrInvalidRequest, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.hc.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return Response{}, ctxErr
		}
		return Response{}, fmt.Errorf("chat completions: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return Response{}, resilience.ClassifyStatus(httpResp.StatusCode, string(slurp))
	}

	var or oaResp
	if err := json.NewDecoder(httpResp.Body).Decode(&or); err != nil {
		return Response{}, resilience.NewTransientError("chat completions: malformed response", err)
	}
	if len(or.Choices) == 0 {
		return Response{}, resilience.NewTransientError(ErrEmptyResponse.Error(), ErrEmptyResponse)
	}
	choice := or.Choices[0]
	out := Response{
		Text:         choice.Message.Content,
		Model:        or.Model,
		FinishReason: choice.FinishReason,
		Usage:        or.Usage,
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	if strings.TrimSpace(out.Text) == "" && len(out.ToolCalls) == 0 {
		return Response{}, resilience.NewTransientError(ErrEmptyResponse.Error(), ErrEmptyResponse)
	}
	return out, nil
}
