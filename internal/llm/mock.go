// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"sync"
)

// Reply is one scripted answer of a Mock.
type Reply struct {
	Response Response
	Err      error
}

// Mock replays scripted replies in order and records every request. Once the
// script is exhausted it echoes the last user message. It is used for the
// offline "mock" provider and in tests.
type Mock struct {
	mu       sync.Mutex
	script   []Reply
	requests []Request
}

// NewMock returns a mock that plays replies in order.
func NewMock(replies ...Reply) *Mock {
	return &Mock{script: replies}
}

// Text is a convenience for a successful text reply.
func Text(s string) Reply { return Reply{Response: Response{Text: s, Model: "mock"}} }

// Fail is a convenience for a failed reply.
func Fail(err error) Reply { return Reply{Err: err} }

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Complete(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next.Response, next.Err
	}
	last := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			last = req.Messages[i].Content
			break
		}
	}
	return Response{Text: fmt.Sprintf("MOCK: %s", last), Model: "mock"}, nil
}

// Requests returns a copy of every request received so far.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns the number of requests received.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
