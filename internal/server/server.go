// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: main builds the config and logger, and
// New assembles database → services → handlers → routes. The server owns
// the database and the month-end scheduler and closes both on shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/club-league/internal/auth"
	"github.com/sakif/club-league/internal/config"
	"github.com/sakif/club-league/internal/handler"
	"github.com/sakif/club-league/internal/metrics"
	"github.com/sakif/club-league/internal/middleware"
	sqliteRepo "github.com/sakif/club-league/internal/repository/sqlite"
	"github.com/sakif/club-league/internal/scheduler"
)

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router    *chi.Mux
	config    *config.Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	registry  *prometheus.Registry
	services  *Services
	scheduler *scheduler.Monthly
}

// New opens the database and wires every layer. The returned server owns
// the database; call Start, or Close if the server is never started.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewService(registry)

	services, err := NewServices(cfg, db, m, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: registry,
		services: services,
	}

	if cfg.Season.SchedulerEnabled {
		loc, _ := cfg.Season.Location()
		s.scheduler = scheduler.NewMonthly(func(ctx context.Context) error {
			_, err := services.Seasons.RunArchive(ctx)
			return err
		}, loc, logger)
	}

	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Services exposes the wired service layer.
func (s *Server) Services() *Services {
	return s.services
}

// Close releases the database without serving.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// Middleware runs in the order it is added: request id first so the
// logger can report it, recoverer last so a panic is still logged as 500.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens := s.services.Tokens
	requireAuth := auth.RequireAuth(tokens)

	health := handler.NewHealthHandler(s.db, s.logger)
	members := handler.NewMemberHandler(s.services.Members, handler.CookieOptions{
		Secure: s.config.Auth.SecureCookie,
		TTL:    s.config.Auth.TokenTTL,
	}, s.logger)
	league := handler.NewLeagueHandler(s.services.League, s.services.Seasons, s.services.Tournament, s.logger)
	boards := handler.NewBoardHandler(s.services.Schedules, s.services.Community, s.services.Gallery,
		s.config.Media.MaxUploadMB<<20, s.logger)

	s.router.Get("/health", health.HandleHealth)
	s.router.Handle("/metrics", metrics.Handler(s.registry))

	media := http.FileServer(http.Dir(s.config.Media.Dir))
	s.router.Handle("/media/*", http.StripPrefix("/media/", media))

	s.router.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/members", members.HandleRegister)
		r.Post("/login", members.HandleLogin)
		r.Post("/logout", members.HandleLogout)
		r.Get("/matches", league.HandleListMatches)
		r.Get("/league/rankings", league.HandleRankings)
		r.Get("/league/history", league.HandleHistory)
		r.Get("/schedules", boards.HandleListSchedules)
		r.Get("/community", boards.HandleListPosts)
		r.Post("/community", boards.HandleCreatePost)
		r.With(auth.OptionalAuth(tokens)).Delete("/community/{id}", boards.HandleDeletePost)
		r.Get("/gallery", boards.HandleListGallery)

		// Signed-in members
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", members.HandleMe)
			r.Get("/members", members.HandleList)
			r.Delete("/members/{id}", members.HandleWithdraw)
			r.Post("/tournament/generate", league.HandleGenerateBracket)
			r.Post("/schedules", boards.HandleCreateSchedule)
			r.Delete("/schedules/{id}", boards.HandleDeleteSchedule)
			r.Post("/gallery", boards.HandleUpload)
			r.Delete("/gallery/{id}", boards.HandleDeleteGalleryItem)

			// Admins. The services check the role again.
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Put("/members/{id}/approve", members.HandleApprove)
				r.Post("/matches", league.HandleCreateMatch)
				r.Delete("/matches/{id}", league.HandleDeleteMatch)
				r.Post("/league/archive", league.HandleArchive)
			})
		})
	})
}

// Start serves until SIGINT/SIGTERM or a listener error, then shuts down:
// stop accepting connections, let in-flight requests finish within
// server.shutdown_timeout, stop the scheduler, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:    s.config.Server.Addr(),
		Handler: s.router,
		// Uploads can be large, so only the header read is bounded tightly.
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	if s.scheduler != nil {
		jobCtx, cancelJobs := context.WithCancel(context.Background())
		defer cancelJobs()
		go s.scheduler.Start(jobCtx)
		defer s.scheduler.Stop()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.config.Database.Path),
			slog.Bool("scheduler", s.scheduler != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
