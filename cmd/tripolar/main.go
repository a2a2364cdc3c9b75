// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/tripolar-events/tripolar-web/internal/api"
	"github.com/tripolar-events/tripolar-web/internal/auth"
	"github.com/tripolar-events/tripolar-web/internal/config"
	"github.com/tripolar-events/tripolar-web/internal/credential"
	"github.com/tripolar-events/tripolar-web/internal/handler"
	"github.com/tripolar-events/tripolar-web/internal/imaging"
	"github.com/tripolar-events/tripolar-web/internal/logging"
	"github.com/tripolar-events/tripolar-web/internal/middleware"
	"github.com/tripolar-events/tripolar-web/internal/render"
	"github.com/tripolar-events/tripolar-web/internal/scheduler"
	"github.com/tripolar-events/tripolar-web/internal/session"
	"github.com/tripolar-events/tripolar-web/internal/store"
	"github.com/tripolar-events/tripolar-web/internal/version"
	"github.com/tripolar-events/tripolar-web/web"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Tripolar Events web front end\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRIPOLAR_SESSION_SECRET      Session key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRIPOLAR_API_URL             Backend API URL (default: %s)\n", config.DefaultAPIURL)
		_, _ = fmt.Fprintf(os.Stderr, "  TRIPOLAR_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRIPOLAR_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRIPOLAR_SESSION_BACKEND     sqlite|redis|memory (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRIPOLAR_REDIS_URL           Redis URL when the session backend is redis\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TRIPOLAR_CREDENTIAL_BACKEND  session|cookie (default: session)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Println(version.Current().String())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logging.NewRedactHandler(textHandler, middleware.GetRequestPath))
	slog.SetDefault(logger)
	slog.Info("starting", "version", version.Current().Version, "api_url", cfg.APIURL)

	sessionManager, closeSessions, err := newSessionManager(cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	// Where the API token lives between requests
	var creds credential.Store
	var credsMiddleware func(http.Handler) http.Handler
	switch cfg.CredentialBackend {
	case config.CredentialBackendCookie:
		cookies := credential.NewCookieStore(!cfg.IsDevelopment())
		creds = cookies
		credsMiddleware = cookies.Middleware
	default:
		creds = credential.NewSessionStore(sessionManager)
	}
	slog.Info("credential store initialized", "backend", cfg.CredentialBackend)

	client, err := api.New(api.Config{
		BaseURL:     cfg.APIURL,
		Timeout:     cfg.APITimeout,
		UserAgent:   version.Current().UserAgent(),
		Credentials: creds,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("initializing api client: %w", err)
	}

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
		StaticURL:      cfg.StaticURL(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	authManager := auth.NewManager(auth.Config{
		Client:      client,
		Credentials: creds,
		Notifier:    renderer,
		Logger:      logger,
	})

	images := imaging.NewProcessor(cfg.MaxUploadBytes)

	// Upstream probe for /health
	sched := scheduler.New(client, cfg.ProbeSchedule, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	go loginProtection.Run(ctx, 5*time.Minute)
	slog.Info("login protection initialized",
		"ip_rate_limit", "0.5 req/s",
		"max_failed_attempts", 5,
		"lockout_duration", "15m",
	)

	authHandler := handler.NewAuthHandler(client, renderer, sessionManager, loginProtection, images)
	handlers := handler.Handlers{
		Public:  handler.NewPublicHandler(client, renderer),
		Auth:    authHandler,
		Profile: handler.NewProfileHandler(client, renderer, images),
		Admin:   handler.NewAdminHandler(client, renderer, images),
		Health:  handler.NewHealthHandler(sched),
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(forwardRequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment(), cfg.StaticURL())
	r.Use(middleware.SecurityHeaders(securityConfig))
	slog.Info("security headers middleware initialized", "hsts", !cfg.IsDevelopment())

	r.Use(middleware.RequestPath)

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	handlers.Static = http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))

	// Static files and liveness skip the session stack.
	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), strconv.Itoa(cfg.ServerPort))
	handler.Register(r, handlers, handler.RouteMiddleware{
		Session:   []func(http.Handler) http.Handler{sessionManager.LoadAndSave, credsMiddleware, authManager.Middleware},
		CSRF:      middleware.CSRF(csrfConfig),
		LoginRate: loginProtection.Middleware(),
		Guard:     middleware.NewGuard(http.HandlerFunc(authHandler.Loading)),
	})
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // uploads are forwarded to the backend
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// forwardRequestID passes chi's request id on to backend calls.
func forwardRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			r = r.WithContext(api.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// newSessionManager builds the session manager for the configured backend.
// The returned func releases its storage.
func newSessionManager(cfg *config.Config) (*scs.SessionManager, func(), error) {
	isDev := cfg.IsDevelopment()

	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		opts := session.DefaultRedisOptions(cfg.RedisURL)
		opts.Prefix = cfg.RedisPrefix
		rs, err := session.NewRedisStore(opts)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		slog.Info("session manager initialized", "backend", "redis")
		return session.NewWithStore(rs, isDev), func() {
			if err := rs.Close(); err != nil {
				slog.Error("error closing redis connection", "error", err)
			}
		}, nil

	case config.SessionBackendMemory:
		slog.Warn("session manager initialized", "backend", "memory", "note", "sessions are lost on restart")
		return session.NewMemory(isDev), func() {}, nil

	default:
		if err := os.MkdirAll(filepath.Dir(cfg.SessionDBPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating data directory: %w", err)
		}
		db, err := store.NewDB(cfg.SessionDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening session database: %w", err)
		}
		if err := store.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("session manager initialized", "backend", "sqlite", "path", cfg.SessionDBPath)
		return session.New(db, isDev), func() {
			if err := db.Close(); err != nil {
				slog.Error("error closing session database", "error", err)
			}
		}, nil
	}
}
