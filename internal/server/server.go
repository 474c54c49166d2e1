package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/barklazza/projeto-vendas/config"
	"github.com/barklazza/projeto-vendas/internal/auth"
	"github.com/barklazza/projeto-vendas/internal/db"
	"github.com/barklazza/projeto-vendas/internal/handlers"
	"github.com/barklazza/projeto-vendas/internal/logging"
	"github.com/barklazza/projeto-vendas/internal/mq"
	"github.com/barklazza/projeto-vendas/internal/services"
	"github.com/barklazza/projeto-vendas/internal/storage"
	"github.com/barklazza/projeto-vendas/internal/store"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 60 * time.Second

// Server wraps the HTTP server, its router and the clients it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mq         *mq.MQ
	storage    *storage.Storage
	logger     *slog.Logger
	sentry     bool
}

// New wires the repositories, services and routes. Missing database
// settings are not fatal: the server starts and store calls answer 503.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{logger: logger}
	if err := s.connect(ctx, cfg); err != nil {
		s.closeClients()
		return nil, err
	}

	var events services.EventPublisher
	if s.mq != nil {
		events = mq.NewAuditPublisher(s.mq, cfg.MQ.Channel, logger)
	}
	var archive services.Archive
	if s.storage != nil {
		archive = s.storage
	}

	userRepo := store.NewUserRepository(s.db)
	saleRepo := store.NewSaleRepository(s.db)
	backupRepo := store.NewBackupRepository(s.db)

	userService := services.NewUserService(userRepo, events, logger)
	saleService := services.NewSaleService(saleRepo, events)
	backupService := services.NewBackupService(backupRepo, saleRepo, archive, events, logger)

	if cfg.Auth.OwnerOpenID != "" && s.db != nil {
		if _, err := userService.ProvisionAdmin(ctx, cfg.Auth.OwnerOpenID); err != nil {
			logger.WarnContext(ctx, "owner provisioning failed", "error", err)
		}
	}

	var provider *auth.Provider
	if cfg.Auth.OAuthEnabled() {
		provider = auth.NewProvider(cfg.Auth.OAuth)
	} else {
		logger.WarnContext(ctx, "oauth provider not configured, /auth/login disabled")
	}
	authHandler := handlers.NewAuthHandler(
		userService,
		auth.NewSessions(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL),
		provider,
		handlers.CookieOptions{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure},
		logger,
	)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.ErrorContext(ctx, "sentry init failed", "error", err)
		} else {
			s.sentry = true
		}
	}

	// Sentry sits inside Recoverer so it sees a panic first and re-panics.
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLog(logger),
		middleware.Recoverer,
		sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle,
		middleware.Timeout(requestTimeout),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Group(func(r chi.Router) {
		r.Use(authHandler.RequireAuth)
		r.Route("/sales", func(r chi.Router) {
			handlers.SaleRouter(r, saleService, logger)
		})
		r.Route("/backups", func(r chi.Router) {
			handlers.BackupRouter(r, backupService, logger)
		})
		r.Route("/admin", func(r chi.Router) {
			handlers.AdminRouter(r, userService, saleService, logger)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// connect opens the database pool and the optional broker and archive.
func (s *Server) connect(ctx context.Context, cfg config.Config) error {
	conn, err := db.Open(cfg.Database)
	switch {
	case errors.Is(err, db.ErrNotConfigured):
		s.logger.WarnContext(ctx, "database not configured, store calls will fail")
	case err != nil:
		return fmt.Errorf("open database: %w", err)
	default:
		s.db = conn
		if err := db.Ping(ctx, conn); err != nil {
			s.logger.WarnContext(ctx, "database unreachable at startup", "error", err)
		}
	}

	if s.mq, err = mq.Open(ctx, cfg.MQ); err != nil {
		return err
	}
	if s.storage, err = storage.Open(ctx, cfg.Storage); err != nil {
		return err
	}
	return nil
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the clients.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeClients()
	if s.sentry {
		sentry.Flush(2 * time.Second)
	}
	return err
}

func (s *Server) closeClients() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close failed", "error", err)
		}
	}
	if s.mq != nil {
		if err := s.mq.Close(); err != nil {
			s.logger.Error("mq close failed", "error", err)
		}
	}
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			s.logger.Error("storage close failed", "error", err)
		}
	}
}
