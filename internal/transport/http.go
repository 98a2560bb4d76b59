// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transport exposes the tool catalogue over HTTP: a plain JSON
// invocation endpoint, discovery listings, and the MCP streamable HTTP
// endpoint.
package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/policy-engine/internal/tools"
	"github.com/pdiddy/policy-engine/pkg/types"
)

// maxRequestBytes bounds a POST /tool body.
const maxRequestBytes = 1 << 20

// Server routes HTTP requests to the tool invoker.
type Server struct {
	Invoker   tools.Invoker
	Discovery tools.Discovery
	Logger    *zap.Logger

	// MCP serves /mcp when set.
	MCP http.Handler

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// Version is reported by the index route.
	Version string
}

// ToolRequest is the body of POST /tool.
type ToolRequest struct {
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input,omitempty"`
}

// Handler returns the routed, logged, panic-safe handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /hello", s.handleHello)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("POST /tool", s.handleTool)
	mux.HandleFunc("GET /tools", s.handleTools)
	mux.HandleFunc("GET /mcp/tools", s.handleMCPTools)
	if s.MCP != nil {
		mux.Handle("/mcp", s.MCP)
	}
	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics)
	}
	return s.recoverer(s.logRequests(mux))
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	links := map[string]string{
		"hello":     "/hello",
		"health":    "/healthz",
		"tool":      "/tool",
		"tools":     "/tools",
		"mcp_tools": "/mcp/tools",
	}
	if s.MCP != nil {
		links["mcp"] = "/mcp"
	}
	if s.Metrics != nil {
		links["metrics"] = "/metrics"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "policy-engine",
		"version": s.Version,
		"links":   links,
	})
}

func (s *Server) handleHello(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "hello from policy-engine"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": tools.HealthStatus})
}

// handleTool decodes {tool, input}, invokes the tool, and writes its
// envelope. The status code is 200 for any envelope a tool produced, 400
// for a malformed request, 404 for an unknown tool, and 500 when the
// handler itself failed.
func (s *Server) handleTool(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req ToolRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, types.Failure(
			types.NewError(types.CodeBadInput, "invalid request body: %v", err), types.NewMeta(start)))
		return
	}
	if req.Tool == "" {
		writeEnvelope(w, http.StatusBadRequest, types.Failure(
			types.NewError(types.CodeBadInput, "missing tool field"), types.NewMeta(start)))
		return
	}
	input := bytes.TrimSpace(req.Input)
	if len(input) == 0 || bytes.Equal(input, []byte("null")) {
		input = []byte("{}")
	}
	if input[0] != '{' {
		writeEnvelope(w, http.StatusBadRequest, types.Failure(
			types.NewError(types.CodeBadInput, "input must be a JSON object"), types.NewMeta(start)))
		return
	}

	env, err := s.Invoker.Invoke(r.Context(), req.Tool, input)
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		writeEnvelope(w, http.StatusNotFound, env)
	case err != nil:
		s.logger().Error("tool handler failed", zap.String("tool", req.Tool), zap.Error(err))
		writeEnvelope(w, http.StatusInternalServerError, types.Failure(
			types.NewError(types.CodeInternal, "%v", err), types.NewMeta(start)))
	default:
		writeEnvelope(w, http.StatusOK, env)
	}
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": s.Invoker.Specs()})
}

// handleMCPTools lists tools through the configured Discovery. When remote
// discovery fails the local catalogue is returned and the failure reported.
func (s *Server) handleMCPTools(w http.ResponseWriter, r *http.Request) {
	source := "local"
	if _, remote := s.Discovery.(*tools.RemoteDiscovery); remote {
		source = "remote"
	}
	specs, err := s.Discovery.ListTools(r.Context())
	if err != nil {
		s.logger().Warn("tool discovery failed", zap.String("source", source), zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]any{
			"source":          "local",
			"discovery_error": err.Error(),
			"tools":           s.Invoker.Specs(),
		})
		return
	}
	if specs == nil {
		specs = []tools.Spec{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"source": source, "tools": specs})
}

// statusRecorder captures the status code written downstream.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so streamed MCP responses work.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// recoverer turns a handler panic into a 500 INTERNAL envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.logger().Error("panic serving request", zap.String("path", r.URL.Path), zap.Any("panic", v))
				writeEnvelope(w, http.StatusInternalServerError, types.Failure(
					types.NewError(types.CodeInternal, "internal error"), types.NewMeta(start)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func writeEnvelope(w http.ResponseWriter, status int, env types.Envelope) {
	writeJSON(w, status, env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
