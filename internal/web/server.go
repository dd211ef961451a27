// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package web serves the analysis HTTP API: document analysis, result
// history and export, the rule taxonomy and the document chat assistant.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"legallens/internal/chat"
	"legallens/internal/config"
	"legallens/internal/core"
	"legallens/internal/logging"
	"legallens/internal/preprocessors"
	"legallens/internal/store"
	"legallens/internal/taxonomy"

	// Import formatters to register them
	_ "legallens/internal/formatters/csv"
	_ "legallens/internal/formatters/json"
	_ "legallens/internal/formatters/markdown"
	_ "legallens/internal/formatters/text"
	_ "legallens/internal/formatters/yaml"
)

// ShutdownTimeout bounds graceful shutdown after the serve context ends.
const ShutdownTimeout = 10 * time.Second

// DocumentAnalyzer runs the analysis pipeline on one document.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, content, title, docType string) (*core.Result, error)
}

// HistoryStore persists finished analyses.
type HistoryStore interface {
	Save(ctx context.Context, r *core.Result) error
	Get(ctx context.Context, id string) (*core.Result, error)
	List(ctx context.Context, opts store.ListOptions) ([]store.Record, error)
}

// ChatAssistant answers questions about a document.
type ChatAssistant interface {
	Ask(ctx context.Context, q chat.Question) (chat.Reply, error)
}

// Options wires the server's collaborators. Store and Assistant are optional.
type Options struct {
	Config config.ServerConfig

	// Analyzer runs the full pipeline; QuickAnalyzer is used when a request
	// opts out of the narrative stages and defaults to Analyzer.
	Analyzer      DocumentAnalyzer
	QuickAnalyzer DocumentAnalyzer

	Taxonomy      *taxonomy.Taxonomy
	Preprocessors *preprocessors.PreprocessorManager
	Store         HistoryStore
	Assistant     ChatAssistant

	NarrativeAvailable bool
	Logger             *slog.Logger
}

// WebServer represents the web server instance
type WebServer struct {
	opts    Options
	logger  *slog.Logger
	handler http.Handler
	server  *http.Server
}

// NewWebServer creates a new web server instance
func NewWebServer(opts Options) (*WebServer, error) {
	if opts.Analyzer == nil {
		return nil, errors.New("web: analyzer is required")
	}
	if opts.QuickAnalyzer == nil {
		opts.QuickAnalyzer = opts.Analyzer
	}
	if opts.Taxonomy == nil {
		opts.Taxonomy = taxonomy.Default()
	}
	if opts.Preprocessors == nil {
		opts.Preprocessors = preprocessors.NewDefaultManager(nil)
	}
	if opts.Config.MaxUploadBytes <= 0 {
		opts.Config.MaxUploadBytes = config.Default().Server.MaxUploadBytes
	}

	ws := &WebServer{
		opts:   opts,
		logger: logging.OrDiscard(opts.Logger).With("component", "web"),
	}
	ws.handler = ws.buildHandler()
	return ws, nil
}

// Handler returns the HTTP handler with all middleware applied.
func (ws *WebServer) Handler() http.Handler {
	return ws.handler
}

func (ws *WebServer) buildHandler() http.Handler {
	router := mux.NewRouter()
	ws.setupRoutes(router)

	// CORS wraps the router so preflight requests reach it even when no
	// route accepts OPTIONS.
	var h http.Handler = router
	h = corsMiddleware(ws.opts.Config.CORSOrigins)(h)
	h = loggingMiddleware(ws.logger)(h)
	h = requestIDMiddleware(h)
	h = recoverMiddleware(ws.logger)(h)
	return h
}

// setupRoutes configures all HTTP route handlers
func (ws *WebServer) setupRoutes(router *mux.Router) {
	router.HandleFunc("/health", ws.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyze", ws.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/analyses", ws.handleListAnalyses).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id}", ws.handleGetAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id}/export", ws.handleExport).Methods(http.MethodGet)
	api.HandleFunc("/taxonomy", ws.handleTaxonomy).Methods(http.MethodGet)
	api.HandleFunc("/formats", ws.handleFormats).Methods(http.MethodGet)
	api.HandleFunc("/chat", ws.handleChat).Methods(http.MethodPost)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.sendErrorWithStatus(w, "Not found", http.StatusNotFound)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.sendErrorWithStatus(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
}

// createSecureServer applies the configured timeouts
func (ws *WebServer) createSecureServer(addr string) *http.Server {
	cfg := ws.opts.Config
	return &http.Server{
		Addr:    addr,
		Handler: ws.handler,
		// Timeout for reading request headers (prevents slow header attacks)
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		// analyses with narrative stages can take minutes
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	addr := ws.opts.Config.Addr
	if addr == "" {
		addr = config.Default().Server.Addr
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w\n"+
			"Troubleshooting:\n"+
			"  1. Check if another service is using this port\n"+
			"  2. Try a different address with --addr", addr, err)
	}
	return ws.Serve(ctx, listener)
}

// Serve serves on an existing listener until ctx is done.
func (ws *WebServer) Serve(ctx context.Context, listener net.Listener) error {
	ws.server = ws.createSecureServer(listener.Addr().String())
	ws.logger.Info("web server started", "addr", listener.Addr().String(),
		"narrative", ws.opts.NarrativeAvailable, "history", ws.opts.Store != nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- ws.server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		ws.logger.Info("web server shutting down")
		if err := ws.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// Stop closes the server immediately
func (ws *WebServer) Stop() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}
