package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/dennissheppard/ootp-tools-sub006/config"
	"github.com/dennissheppard/ootp-tools-sub006/leaguectx"
	"github.com/dennissheppard/ootp-tools-sub006/logger"
	"github.com/dennissheppard/ootp-tools-sub006/rating"
)

type Server struct {
	db         *pgxpool.Pool
	router     *mux.Router
	httpServer *http.Server
	config     *config.Config
	log        *zap.Logger
	engine     *rating.Engine
	cache      *rating.ResultCache
}

type RunRequest struct {
	TargetYear int   `json:"target_year"`
	Years      []int `json:"years,omitempty"`
}

type RunResponse struct {
	RunID      string    `json:"run_id"`
	TargetYear int       `json:"target_year"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}

	dbConfig.MaxConns = 8
	dbConfig.MinConns = 2
	dbConfig.MaxConnLifetime = time.Hour
	dbConfig.MaxConnIdleTime = time.Minute * 30

	db, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	cache := rating.NewResultCache(cfg.RedisAddr, cfg.RedisPassword)
	if cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := cache.Ping(ctx); err != nil {
			log.Warn("result cache unreachable, continuing without it", zap.Error(err))
			cache.Close()
			cache = nil
		}
		cancel()
	}

	leagueService := leaguectx.NewService(cfg.DataFetcherURL, log)
	engine := rating.NewEngine(db, leagueService, cache, log)

	s := &Server{
		db:     db,
		config: cfg,
		log:    log,
		router: mux.NewRouter(),
		engine: engine,
		cache:  cache,
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.healthHandler).Methods("GET")

	s.router.HandleFunc("/ratings/run", s.runHandler).Methods("POST")
	s.router.HandleFunc("/ratings/run/{id}/status", s.runStatusHandler).Methods("GET")
	s.router.HandleFunc("/ratings/run/{id}/result", s.runResultHandler).Methods("GET")

	// Latest completed result for a year, whichever run produced it
	s.router.HandleFunc("/ratings/year/{year}", s.yearResultHandler).Methods("GET")

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)
}

func (s *Server) Start() error {
	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.router)

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.log.Info("starting rating engine", zap.String("port", s.config.Port))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down rating engine")
	s.db.Close()
	if s.cache != nil {
		s.cache.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

// Handlers

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":   "healthy",
		"time":     time.Now().UTC(),
		"database": "connected",
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		health["database"] = "disconnected"
		health["status"] = "unhealthy"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	s.writeJSON(w, health)
}

func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TargetYear == 0 && len(req.Years) == 0 {
		http.Error(w, "target_year is required", http.StatusBadRequest)
		return
	}

	runID := uuid.New().String()

	// Multi-year batch runs synchronously off this handler's goroutine;
	// per-year failures are isolated inside the engine.
	if len(req.Years) > 0 {
		go func() {
			results := s.engine.RunMultiYear(context.Background(), runID, req.Years)
			s.log.Info("multi-year batch finished",
				zap.String("run_id", runID),
				zap.Int("requested", len(req.Years)),
				zap.Int("completed", len(results)))
		}()
		s.writeJSON(w, RunResponse{
			RunID:     runID,
			Status:    "started",
			Message:   fmt.Sprintf("Batch analysis started for %d years", len(req.Years)),
			CreatedAt: time.Now().UTC(),
		})
		return
	}

	if err := s.engine.StartRun(r.Context(), runID, req.TargetYear); err != nil {
		s.log.Error("failed to create run record", zap.Error(err))
		http.Error(w, "Failed to create run", http.StatusInternalServerError)
		return
	}

	go s.engine.RunProjection(runID, req.TargetYear)

	s.writeJSON(w, RunResponse{
		RunID:      runID,
		TargetYear: req.TargetYear,
		Status:     "started",
		Message:    fmt.Sprintf("Analysis started for target year %d", req.TargetYear),
		CreatedAt:  time.Now().UTC(),
	})
}

func (s *Server) runStatusHandler(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	if status, ok := s.engine.GetRunStatus(runID); ok {
		s.writeJSON(w, status)
		return
	}

	// Fallback to database lookup for runs from before a restart
	var status rating.RunStatus
	err := s.db.QueryRow(r.Context(), `
		SELECT id, target_year, status, created_at, completed_at
		FROM analysis_runs WHERE id = $1
	`, runID).Scan(&status.RunID, &status.TargetYear, &status.Status,
		&status.StartTime, &status.CompletedTime)
	if err != nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	s.writeJSON(w, status)
}

func (s *Server) runResultHandler(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	if status, ok := s.engine.GetRunStatus(runID); ok && status.Status != "completed" {
		http.Error(w, "Run not yet complete", http.StatusAccepted)
		return
	}

	result, err := s.engine.GetRunResult(r.Context(), runID)
	if err != nil {
		s.log.Error("failed to load run result", zap.String("run_id", runID), zap.Error(err))
		http.Error(w, "Result not available", http.StatusNotFound)
		return
	}

	s.writeJSON(w, result)
}

func (s *Server) yearResultHandler(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil {
		http.Error(w, "Invalid year", http.StatusBadRequest)
		return
	}

	result, err := s.engine.GetYearResult(r.Context(), year)
	if err != nil {
		http.Error(w, "No completed run for year", http.StatusNotFound)
		return
	}

	s.writeJSON(w, result)
}

// Middleware

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)

		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.RequestURI),
			zap.Int("status", lrw.statusCode),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("panic recovered", zap.Any("panic", err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	server, err := NewServer(cfg, log)
	if err != nil {
		log.Fatal("failed to create server", zap.Error(err))
	}

	// Expire finished runs from memory periodically
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			server.engine.CleanupOldRuns()
		}
	}()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatal("server shutdown failed", zap.Error(err))
		}
		log.Info("server shutdown complete")
	}()

	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server failed to start", zap.Error(err))
	}
}
