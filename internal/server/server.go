// Package server provides the HTTP server and routing for the dashboard gateway.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	chartshandlers "github.com/tradedeck/tradedeck/internal/charts/handlers"
	"github.com/tradedeck/tradedeck/internal/config"
	"github.com/tradedeck/tradedeck/internal/di"
	connectionshandlers "github.com/tradedeck/tradedeck/internal/modules/connections/handlers"
	copytradehandlers "github.com/tradedeck/tradedeck/internal/modules/copytrade/handlers"
	marketshandlers "github.com/tradedeck/tradedeck/internal/modules/markets/handlers"
	sessionhandlers "github.com/tradedeck/tradedeck/internal/modules/session/handlers"
	strategieshandlers "github.com/tradedeck/tradedeck/internal/modules/strategies/handlers"
	"github.com/tradedeck/tradedeck/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	var stream StreamStatus
	if cfg.Container.PriceStream != nil {
		stream = cfg.Container.PriceStream
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Config.DataDir,
			cfg.Container.SnapshotDB,
			stream,
			cfg.Log,
		),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// RegisterJobs makes jobs visible to the system endpoints for
// listing and manual triggering.
func (s *Server) RegisterJobs(jobs ...scheduler.Job) {
	for _, job := range jobs {
		if job != nil {
			s.systemHandlers.RegisterJob(job)
		}
	}
}

func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	sessionHandler := sessionhandlers.NewHandler(s.container.Session, s.log)
	strategiesHandler := strategieshandlers.NewHandler(s.container.Strategies, s.log)
	marketsHandler := marketshandlers.NewHandler(s.container.Symbols, s.container.Balances, s.container.Backend, s.log)
	copyTradeHandler := copytradehandlers.NewHandler(s.container.CopyTrade, s.log)
	connectionsHandler := connectionshandlers.NewHandler(s.container.Connections, s.log)
	chartsHandler := chartshandlers.NewHandler(s.container.Series, s.container.PriceStream, s.log)

	s.router.Route("/api", func(r chi.Router) {
		sessionHandler.RegisterRoutes(r)
		strategiesHandler.RegisterRoutes(r)
		marketsHandler.RegisterRoutes(r)
		copyTradeHandler.RegisterRoutes(r)
		connectionsHandler.RegisterRoutes(r)
		chartsHandler.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/disk", s.systemHandlers.HandleDiskUsage)
			r.Get("/jobs", s.systemHandlers.HandleJobs)
			r.Post("/jobs/{name}", s.systemHandlers.HandleTriggerJob)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
