// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"errors"
	"fmt"
	"log/slog"

	"legallens/internal/config"
	"legallens/internal/llm"
	"legallens/internal/logging"
	"legallens/internal/observability"
	"legallens/internal/resilience"
	"legallens/internal/taxonomy"
)

// NewNarrator builds the model client named by cfg.Provider. It returns a nil
// client and no error when the provider is "none" or its API key is missing,
// so the narrative stages are skipped rather than failing.
func NewNarrator(cfg config.LLMConfig, logger *slog.Logger) (llm.Client, error) {
	logger = logging.OrDiscard(logger)

	switch cfg.Provider {
	case config.ProviderNone, "":
		return nil, nil
	case config.ProviderMock:
		return llm.NewMock(), nil
	case config.ProviderOpenAI, config.ProviderNVIDIA:
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	client, err := llm.NewOpenAI(llm.Options{
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		APIKeyEnv:   cfg.APIKeyEnv,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	})
	if errors.Is(err, llm.ErrUnavailable) {
		logger.Warn("model not configured, narrative stages disabled", "provider", cfg.Provider, "reason", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	breaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("llm:" + cfg.Provider))
	return client.WithCircuitBreaker(breaker), nil
}

// RetryFromConfig turns the configured backoff into a retry policy allowing
// attempts calls in total.
func RetryFromConfig(cfg config.LLMConfig, attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{
		InitialInterval: cfg.Backoff.Initial,
		MaxInterval:     cfg.Backoff.Max,
		Multiplier:      cfg.Backoff.Multiplier,
		Jitter:          true,
		Retryable:       resilience.RetryUnlessPermanent,
	}.WithAttempts(attempts)
}

// NewAnalyzerFromConfig wires the taxonomy, model client and retry policies
// described by cfg.
func NewAnalyzerFromConfig(cfg *config.Config, logger *slog.Logger, obs observability.Observer) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	tax, err := taxonomy.LoadOrDefault(cfg.TaxonomyFile)
	if err != nil {
		return nil, fmt.Errorf("loading taxonomy: %w", err)
	}
	narrator, err := NewNarrator(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	opts := DefaultOptions()
	opts.Taxonomy = tax
	opts.Narrator = narrator
	opts.SummaryEnabled = cfg.LLM.Summary
	opts.EnhanceEnabled = cfg.LLM.Enhance
	opts.SummaryRetry = RetryFromConfig(cfg.LLM, cfg.LLM.SummaryAttempts)
	opts.EnhanceRetry = RetryFromConfig(cfg.LLM, cfg.LLM.EnhanceAttempts)
	opts.SummaryExcerpt = cfg.LLM.SummaryExcerpt
	opts.EnhanceExcerpt = cfg.LLM.EnhanceExcerpt
	opts.Logger = logger
	opts.Observer = obs
	return NewAnalyzer(opts)
}
