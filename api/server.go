package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"legend-scanner/cache"
	models "legend-scanner/database/models_pkg"
	"legend-scanner/database/patterns"
	"legend-scanner/realtime"
)

// Server handles HTTP API requests
type Server struct {
	store      patterns.Store
	runs       RunReader
	scanRunner ScanRunner
	hub        *realtime.Hub
	redis      *cache.RedisClient
	httpServer *http.Server
}

// RunReader exposes scan run history to the API
type RunReader interface {
	Latest(ctx context.Context) (*models.ScanRun, error)
}

// ScanRunner triggers an on-demand batch scan
type ScanRunner interface {
	TriggerScan() (string, error)
}

// NewServer creates a new API server instance
func NewServer(store patterns.Store, runs RunReader, scanRunner ScanRunner, hub *realtime.Hub, redis *cache.RedisClient) *Server {
	return &Server{
		store:      store,
		runs:       runs,
		scanRunner: scanRunner,
		hub:        hub,
		redis:      redis,
	}
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) error {
	mux := http.NewServeMux()

	// Register routes
	mux.HandleFunc("GET /v1/patterns", s.handleGetPatterns)
	mux.HandleFunc("GET /v1/status", s.handleGetStatus)
	mux.HandleFunc("GET /api/scans/latest", s.handleGetLatestScan)
	mux.HandleFunc("POST /api/scans/run", s.handleRunScan)
	mux.Handle("GET /ws/patterns", s.hub)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	// Add middleware
	handler := s.corsMiddleware(s.loggingMiddleware(mux))

	serverAddr := fmt.Sprintf("0.0.0.0:%s", port)
	s.httpServer = &http.Server{Addr: serverAddr, Handler: handler}
	log.Printf("🚀 API Server starting on %s", serverAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
