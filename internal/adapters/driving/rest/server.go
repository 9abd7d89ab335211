// Package rest serves the indexing and search services over JSON HTTP.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vegvisr/graphvec/internal/core/ports/driving"
	"github.com/vegvisr/graphvec/internal/logger"
)

// maxBodyBytes bounds request bodies; graph documents are posted inline.
const maxBodyBytes = 16 << 20

// ErrMissingService is returned when a required driving port is nil.
var ErrMissingService = errors.New("rest: search, index, reindex and status services are required")

// Ports aggregates the driving ports the HTTP server exposes.
type Ports struct {
	Search  driving.SearchService
	Index   driving.IndexService
	Reindex driving.ReindexService
	Status  driving.StatusService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Search == nil || p.Index == nil || p.Reindex == nil || p.Status == nil {
		return ErrMissingService
	}
	return nil
}

// route binds one path to one method.
type route struct {
	method  string
	handler http.HandlerFunc
}

// Server is the HTTP API.
type Server struct {
	ports  *Ports
	routes map[string]route
}

// NewServer creates a server over the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports}
	s.routes = map[string]route{
		"/index-graph":          {http.MethodPost, s.handleIndexGraph},
		"/search":               {http.MethodPost, s.handleSearch},
		"/reindex-all":          {http.MethodPost, s.handleReindexAll},
		"/reindex-sample":       {http.MethodPost, s.handleReindexSample},
		"/vectorization-status": {http.MethodPost, s.handleVectorizationStatus},
		"/analyze-content":      {http.MethodGet, s.handleAnalyzeContent},
		"/health":               {http.MethodGet, s.handleHealth},
	}
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORS(w.Header())

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	logger.Debug("%s %s", r.Method, r.URL.Path)

	rt, ok := s.routes[r.URL.Path]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Endpoint not found"})
		return
	}
	if r.Method != rt.method {
		w.Header().Set("Allow", rt.method+", "+http.MethodOptions)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	rt.handler(w, r)
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on an existing listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	// No write timeout: a full reindex can run for minutes.
	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("Listening on %s", listener.Addr())
	err := httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, DELETE")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Token, x-user-email")
}
