// Package httpapi serves question answering over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("httpapi: query service is required")

// Metrics is the optional Prometheus integration.
type Metrics interface {
	Handler() http.Handler
	Middleware() gin.HandlerFunc
}

// Ports aggregates the driving ports the server calls.
type Ports struct {
	// Query answers questions. Required.
	Query driving.QueryService

	// Ingest reports index size on /healthz. Optional.
	Ingest driving.IngestionCoordinator

	// Metrics exposes /metrics. Optional.
	Metrics Metrics
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// QueryResponse is the body of a successful POST /query.
type QueryResponse struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	NoContext bool     `json:"no_context"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the HTTP query endpoint.
type Server struct {
	ports  Ports
	router *gin.Engine
}

// NewServer creates a server with its routes registered.
func NewServer(ports Ports) (*Server, error) {
	if ports.Query == nil {
		return nil, ErrMissingQueryService
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), corsMiddleware())
	if ports.Metrics != nil {
		router.Use(ports.Metrics.Middleware())
	}

	s := &Server{ports: ports, router: router}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.POST("/query", s.handleQuery)
	s.router.GET("/healthz", s.handleHealth)
	if s.ports.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.ports.Metrics.Handler()))
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("HTTP server listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	answer, err := s.ports.Query.Answer(c.Request.Context(), req.SessionID, req.Question)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error("query failed: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}
	c.JSON(http.StatusOK, QueryResponse{
		Answer:    answer.Text,
		Sources:   sources,
		NoContext: answer.NoContext,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if s.ports.Ingest != nil {
		n, err := s.ports.Ingest.EntryCount(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		status := s.ports.Ingest.Status()
		body["entries"] = n
		body["indexing"] = status.Running
	}
	c.JSON(http.StatusOK, body)
}

// corsMiddleware allows any origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
