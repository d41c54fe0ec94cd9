// Package server provides the HTTP API over the schedule snapshot, the
// resolver, and the social features.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/apimgr/prospects/src/cache"
	"github.com/apimgr/prospects/src/common/version"
	"github.com/apimgr/prospects/src/config"
	"github.com/apimgr/prospects/src/database"
	"github.com/apimgr/prospects/src/logging"
	"github.com/apimgr/prospects/src/resolve"
	"github.com/apimgr/prospects/src/schedule"
	"github.com/apimgr/prospects/src/scheduler"
)

// Server is the HTTP server.
type Server struct {
	config     *config.Config
	resolver   *resolve.Resolver
	schedule   *schedule.Service
	repo       *database.Repository
	db         *database.DB
	cache      cache.Cache
	logManager *logging.Manager
	scheduler  *scheduler.Scheduler
	metrics    *Metrics
	middleware *Middleware

	httpServer *http.Server
	startTime  time.Time
}

// New creates a server. repo, db, cache, and sched may be nil in tests.
func New(cfg *config.Config, resolver *resolve.Resolver, sched *schedule.Service, repo *database.Repository, db *database.DB, c cache.Cache, logMgr *logging.Manager, taskRunner *scheduler.Scheduler) *Server {
	s := &Server{
		config:     cfg,
		resolver:   resolver,
		schedule:   sched,
		repo:       repo,
		db:         db,
		cache:      c,
		logManager: logMgr,
		scheduler:  taskRunner,
		metrics:    NewMetrics(),
	}
	s.middleware = NewMiddleware(cfg, logMgr)
	return s
}

// Metrics returns the server's metrics collectors, for wiring into
// background tasks.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler builds the full handler chain.
func (s *Server) Handler() http.Handler {
	mux := s.setupRoutes()
	return Chain(mux,
		s.middleware.RequestID,
		s.middleware.Logger,
		s.metrics.Instrument,
		s.middleware.SecurityHeaders,
		s.middleware.Recovery,
	)
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// Search API
	mux.HandleFunc("/api/search/teams", s.handleSearchTeams)
	mux.HandleFunc("/api/search/prospects", s.handleSearchProspects)
	mux.HandleFunc("/api/suggest", s.handleSuggest)
	mux.HandleFunc("/api/schedule", s.handleSchedule)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Social API, token-guarded when a token is configured
	mux.Handle("/api/notes", s.middleware.RequireToken(http.HandlerFunc(s.handleNotes)))
	mux.Handle("/api/friends", s.middleware.RequireToken(http.HandlerFunc(s.handleFriends)))
	mux.Handle("/api/friends/accept", s.middleware.RequireToken(http.HandlerFunc(s.handleFriendsAccept)))

	mux.Handle("/metrics", s.metrics.Handler())

	return mux
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	if s.scheduler != nil {
		s.scheduler.Start()
	}

	s.startTime = time.Now()

	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("[Server] %s v%s", s.config.Server.Title, version.GetShort())
	log.Printf("[Server] Mode: %s", s.config.Server.Mode)
	log.Printf("[Server] Listening on http://%s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server and its background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.logManager != nil {
		s.logManager.Server().Info("Server shutting down...")
	}

	if s.scheduler != nil {
		s.scheduler.Stop()
		log.Printf("[Scheduler] Stopped")
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}

	if s.cache != nil {
		s.cache.Close()
	}
	if s.logManager != nil {
		s.logManager.Close()
	}
	return nil
}
