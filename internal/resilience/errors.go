// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrorType represents different types of errors for handling strategies
type ErrorType int

const (
	ErrorTypeUnknown            ErrorType = iota
	ErrorTypeTransient                    // Temporary network issues, malformed replies
	ErrorTypePermanent                    // Invalid credentials, permissions
	ErrorTypeTimeout                      // Request timeouts
	ErrorTypeRateLimit                    // Upstream rate limiting
	ErrorTypeServiceUnavailable           // Upstream 5xx
	ErrorTypeInvalidInput                 // Bad request data
	ErrorTypeCanceled                     // Caller gave up
)

var errorTypeNames = [...]string{
	ErrorTypeUnknown:            "Unknown",
	ErrorTypeTransient:          "Transient",
	ErrorTypePermanent:          "Permanent",
	ErrorTypeTimeout:            "Timeout",
	ErrorTypeRateLimit:          "RateLimit",
	ErrorTypeServiceUnavailable: "ServiceUnavailable",
	ErrorTypeInvalidInput:       "InvalidInput",
	ErrorTypeCanceled:           "Canceled",
}

func (et ErrorType) String() string {
	if et >= 0 && int(et) < len(errorTypeNames) {
		return errorTypeNames[et]
	}
	return fmt.Sprintf("ErrorType(%d)", int(et))
}

// ClassifiedError wraps an error with type information
type ClassifiedError struct {
	Original  error
	Type      ErrorType
	Message   string
	Retryable bool
}

func (e *ClassifiedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Original == nil {
		return e.Type.String()
	}
	return e.Original.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Original
}

// IsRetryable reports whether a retry may succeed.
func (e *ClassifiedError) IsRetryable() bool {
	return e.Retryable
}

// ClassifyError categorizes an error for appropriate handling. Errors that
// are already classified anywhere in the chain are returned as is.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	switch {
	case IsCircuitBreakerError(err):
		return wrap(err, ErrorTypeServiceUnavailable, "", false)
	case errors.Is(err, context.Canceled):
		return wrap(err, ErrorTypeCanceled, "canceled", false)
	case isTimeoutError(err):
		return wrap(err, ErrorTypeTimeout, "timeout", true)
	case isNetworkError(err):
		return wrap(err, ErrorTypeTransient, "network error", true)
	}

	text := strings.ToLower(err.Error())
	switch {
	case containsAny(text, "rate limit", "too many requests"):
		return wrap(err, ErrorTypeRateLimit, "rate limited", true)
	case containsAny(text, "service unavailable", "internal server error", "bad gateway"):
		return wrap(err, ErrorTypeServiceUnavailable, "upstream unavailable", true)
	case containsAny(text, "unauthorized", "invalid api key", "forbidden"):
		return wrap(err, ErrorTypePermanent, "not authorized", false)
	}
	return wrap(err, ErrorTypeUnknown, "", false)
}

func wrap(err error, typ ErrorType, prefix string, retryable bool) *ClassifiedError {
	msg := err.Error()
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	return &ClassifiedError{Original: err, Type: typ, Message: msg, Retryable: retryable}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ClassifyStatus classifies an unsuccessful HTTP response from an upstream
// service. 408, 429 and 5xx are retryable, other 4xx are not.
func ClassifyStatus(code int, detail string) *ClassifiedError {
	msg := fmt.Sprintf("upstream returned %d %s", code, http.StatusText(code))
	if detail = strings.TrimSpace(detail); detail != "" {
		msg += ": " + detail
	}
	switch {
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return &ClassifiedError{Type: ErrorTypeTimeout, Message: msg, Retryable: true}
	case code == http.StatusTooManyRequests:
		return &ClassifiedError{Type: ErrorTypeRateLimit, Message: msg, Retryable: true}
	case code >= 500:
		return &ClassifiedError{Type: ErrorTypeServiceUnavailable, Message: msg, Retryable: true}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &ClassifiedError{Type: ErrorTypePermanent, Message: msg}
	default:
		return &ClassifiedError{Type: ErrorTypeInvalidInput, Message: msg}
	}
}

// isNetworkError checks if an error is network-related
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}

// isTimeoutError checks if an error is timeout-related
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return containsAny(strings.ToLower(err.Error()), "timeout", "deadline exceeded")
}

// NewTransientError returns a retryable error, e.g. for a malformed reply.
func NewTransientError(message string, cause error) *ClassifiedError {
	return &ClassifiedError{Original: cause, Type: ErrorTypeTransient, Message: message, Retryable: true}
}

// NewPermanentError returns an error that retries give up on immediately.
func NewPermanentError(message string, cause error) *ClassifiedError {
	return &ClassifiedError{Original: cause, Type: ErrorTypePermanent, Message: message}
}

// IsRetryable reports whether an error should be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).IsRetryable()
}

// RetryUnlessPermanent retries every failure except permanent errors, invalid
// input, cancellation and an open circuit. Unknown errors are retried.
func RetryUnlessPermanent(err error) bool {
	if err == nil || IsCircuitBreakerError(err) {
		return false
	}
	switch ClassifyError(err).Type {
	case ErrorTypePermanent, ErrorTypeInvalidInput, ErrorTypeCanceled:
		return false
	}
	return true
}
