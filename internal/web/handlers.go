// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"legallens/internal/chat"
	"legallens/internal/core"
	"legallens/internal/document"
	"legallens/internal/formatters"
	"legallens/internal/preprocessors"
	"legallens/internal/store"
	"legallens/internal/version"
)

// AnalyzeRequest is the JSON body of POST /api/analyze.
type AnalyzeRequest struct {
	Content      string `json:"content"`
	Title        string `json:"title"`
	DocumentType string `json:"document_type"`
	Source       string `json:"source,omitempty"`
	// IncludeNarrative defaults to true.
	IncludeNarrative *bool `json:"include_narrative,omitempty"`
}

// ListResponse is the body of GET /api/analyses.
type ListResponse struct {
	Analyses []store.Record `json:"analyses"`
	Count    int            `json:"count"`
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ws.sendJSON(w, http.StatusOK, map[string]any{
		"status":     "healthy",
		"service":    "legallens",
		"version":    version.Short(),
		"build_info": version.Full(),
		"narrative":  ws.opts.NarrativeAvailable,
		"history":    ws.opts.Store != nil,
	})
}

func (ws *WebServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ws.opts.Config.MaxUploadBytes)

	req, err := ws.readAnalyzeRequest(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			ws.sendErrorWithStatus(w, fmt.Sprintf("Request exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		case preprocessors.ErrorTypeOf(err) == preprocessors.ErrorTypeUnsupportedFormat:
			ws.sendErrorWithStatus(w, err.Error(), http.StatusUnsupportedMediaType)
		default:
			ws.sendErrorWithStatus(w, err.Error(), http.StatusBadRequest)
		}
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		ws.sendErrorWithStatus(w, "Missing document content", http.StatusBadRequest)
		return
	}

	analyzer := ws.opts.Analyzer
	if req.IncludeNarrative != nil && !*req.IncludeNarrative {
		analyzer = ws.opts.QuickAnalyzer
	}

	result, err := analyzer.Analyze(r.Context(), req.Content, req.Title, req.DocumentType)
	if err != nil {
		ws.logger.Error("analysis failed", "request_id", RequestID(r.Context()), "error", err)
		ws.sendErrorWithStatus(w, "Analysis failed", http.StatusInternalServerError)
		return
	}
	result.Source = req.Source

	if ws.opts.Store != nil {
		// history is best effort; the caller still gets the result
		if err := ws.opts.Store.Save(r.Context(), result); err != nil {
			ws.logger.Warn("failed to save analysis", "id", result.ID, "error", err)
		}
	}

	ws.logger.Info("document analyzed", "id", result.ID, "type", result.DocumentType,
		"score", result.FairnessScore, "risks", result.RiskCount())
	ws.sendJSON(w, http.StatusOK, result)
}

// readAnalyzeRequest accepts a JSON body or a multipart upload with a "file"
// part and optional title, document_type and include_narrative fields.
func (ws *WebServer) readAnalyzeRequest(r *http.Request) (AnalyzeRequest, error) {
	var req AnalyzeRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType != "multipart/form-data" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return req, err
			}
			return req, fmt.Errorf("invalid JSON: %w", err)
		}
		return req, nil
	}

	if err := r.ParseMultipartForm(ws.opts.Config.MaxUploadBytes); err != nil {
		return req, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return req, fmt.Errorf("missing file upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return req, err
	}
	processed, err := ws.opts.Preprocessors.ProcessBytes(r.Context(), header.Filename, data)
	if err != nil {
		return req, err
	}

	req.Content = processed.Text
	req.Title = r.FormValue("title")
	if req.Title == "" {
		req.Title = processed.DisplayTitle()
	}
	req.DocumentType = r.FormValue("document_type")
	req.Source = header.Filename
	if v := r.FormValue("include_narrative"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("invalid include_narrative value %q", v)
		}
		req.IncludeNarrative = &include
	}
	return req, nil
}

func (ws *WebServer) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if ws.opts.Store == nil {
		ws.sendErrorWithStatus(w, "Analysis history is disabled", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query()
	opts := store.ListOptions{
		DocumentType: q.Get("type"),
		Rating:       strings.ToUpper(q.Get("rating")),
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			ws.sendErrorWithStatus(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		opts.Limit = limit
	}

	records, err := ws.opts.Store.List(r.Context(), opts)
	if err != nil {
		ws.logger.Error("failed to list analyses", "error", err)
		ws.sendErrorWithStatus(w, "Failed to list analyses", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	ws.sendJSON(w, http.StatusOK, ListResponse{Analyses: records, Count: len(records)})
}

func (ws *WebServer) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	result, ok := ws.lookup(w, r)
	if !ok {
		return
	}
	ws.sendJSON(w, http.StatusOK, result)
}

func (ws *WebServer) handleExport(w http.ResponseWriter, r *http.Request) {
	result, ok := ws.lookup(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	opts := formatters.FormatterOptions{
		Verbose:     r.URL.Query().Get("verbose") == "true",
		ShowContext: r.URL.Query().Get("context") == "true",
		Taxonomy:    ws.opts.Taxonomy,
	}

	content, mimeType, filename, err := formatters.ExportForWeb(format, result, opts)
	if err != nil {
		ws.sendErrorWithStatus(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", mimeType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, content)
}

// lookup loads the analysis named by the {id} route variable, writing the
// error response itself when it cannot.
func (ws *WebServer) lookup(w http.ResponseWriter, r *http.Request) (*core.Result, bool) {
	if ws.opts.Store == nil {
		ws.sendErrorWithStatus(w, "Analysis history is disabled", http.StatusServiceUnavailable)
		return nil, false
	}
	id := mux.Vars(r)["id"]
	result, err := ws.opts.Store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		ws.sendErrorWithStatus(w, fmt.Sprintf("Analysis %s not found", id), http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		ws.logger.Error("failed to load analysis", "id", id, "error", err)
		ws.sendErrorWithStatus(w, "Failed to load analysis", http.StatusInternalServerError)
		return nil, false
	}
	return result, true
}

func (ws *WebServer) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	ws.sendJSON(w, http.StatusOK, ws.opts.Taxonomy)
}

func (ws *WebServer) handleFormats(w http.ResponseWriter, r *http.Request) {
	ws.sendJSON(w, http.StatusOK, map[string]any{
		"formats":        formatters.GetSupportedFormats(),
		"document_types": documentTypes(),
		"upload_types":   ws.opts.Preprocessors.SupportedExtensions(),
	})
}

func (ws *WebServer) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, ws.opts.Config.MaxUploadBytes)

	var q chat.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		ws.sendErrorWithStatus(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if ws.opts.Assistant == nil {
		ws.sendJSON(w, http.StatusOK, chat.Reply{Response: chat.Unavailable, Status: chat.StatusUnavailable})
		return
	}

	reply, err := ws.opts.Assistant.Ask(r.Context(), q)
	if errors.Is(err, chat.ErrMissingInput) {
		ws.sendErrorWithStatus(w, "Missing message or document content", http.StatusBadRequest)
		return
	}
	if err != nil {
		ws.logger.Error("chat failed", "request_id", RequestID(r.Context()), "error", err)
		ws.sendErrorWithStatus(w, "Chat failed", http.StatusInternalServerError)
		return
	}
	ws.sendJSON(w, http.StatusOK, reply)
}

func documentTypes() []string {
	types := make([]string, 0, len(document.KnownTypes))
	for _, t := range document.KnownTypes {
		types = append(types, string(t))
	}
	return types
}

// sendJSON writes v as a JSON response
func (ws *WebServer) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ws.logger.Warn("failed to encode response", "error", err)
	}
}

// sendErrorWithStatus writes {"error": message} with the given status
func (ws *WebServer) sendErrorWithStatus(w http.ResponseWriter, message string, status int) {
	ws.sendJSON(w, status, map[string]string{"error": message})
}
