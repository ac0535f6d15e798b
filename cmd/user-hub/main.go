package main

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

	adapterhandler "user-hub/internal/adapter/handler"
	"user-hub/internal/adapter/marker"
	"user-hub/internal/usecase"

	"user-hub/config"
	appmiddleware "user-hub/middleware"
	"user-hub/utils/logger"
	"user-hub/utils/otel"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize OpenTelemetry
	otelCfg := otel.ConfigFromEnv()
	otelCfg.IdentityBackend = cfg.IdentityBackend
	otelCfg.CacheBackend = cfg.CacheBackend
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		slog.Warn("failed to initialize OpenTelemetry, continuing without tracing", "error", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	log := logger.Init(otelCfg.Enabled)

	slog.InfoContext(ctx, "configuration loaded",
		"identity_backend", cfg.IdentityBackend,
		"user_service_url", cfg.UserServiceURL,
		"cache_backend", cfg.CacheBackend,
		"cache_ttl", cfg.CacheTTL,
		"port", cfg.Port)

	// Infrastructure
	backend, err := newCacheBackend(cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize cache", "error", err)
		os.Exit(1)
	}
	pool := usecase.NewResolverPool[*usecase.Session](cfg.ResolverPoolSize, cfg.ResolverIdleTTL)
	sessions := adapterhandler.NewSessions(pool, newSessionFactory(cfg, backend.store, log), forwardedCookies(cfg)...)

	// Handlers
	whoamiHandler := adapterhandler.NewWhoamiHandler(sessions)
	favoritesHandler := adapterhandler.NewFavoritesHandler(sessions)
	healthHandler := adapterhandler.NewHealthHandler(backend.health)

	// Setup Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(appmiddleware.LogContext(func(r *http.Request) (string, bool) {
		return marker.SessionKey(r, forwardedCookies(cfg)...)
	}))
	e.Use(appmiddleware.SecurityHeaders())

	// OpenTelemetry tracing
	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	// Request logging
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/health" || p == "/metrics"
		},
		LogStatus:    true,
		LogURI:       true,
		LogError:     true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			rctx := c.Request().Context()
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"request_id", v.RequestID,
				"latency_ms", v.Latency.Milliseconds(),
			}
			switch {
			case v.Error == nil:
				slog.InfoContext(rctx, "request completed", attrs...)
			case v.Status < http.StatusInternalServerError:
				slog.InfoContext(rctx, "request rejected", append(attrs, "error", v.Error.Error())...)
			default:
				slog.ErrorContext(rctx, "request failed", append(attrs, "error", v.Error.Error())...)
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())

	// Rate limiters: identity lookups are bucketed by session, falling back
	// to client IP.
	bySession := func(c echo.Context) string {
		if key, ok := marker.SessionKey(c.Request()); ok {
			return key
		}
		return c.RealIP()
	}
	whoamiRL := appmiddleware.NewRateLimiter(120.0/60.0, 20, bySession) // 120 req/min
	favoritesRL := appmiddleware.NewRateLimiter(30.0/60.0, 5, bySession) // 30 req/min
	defer whoamiRL.Stop()
	defer favoritesRL.Stop()

	// Routes
	e.GET("/whoami", whoamiHandler.Handle, whoamiRL.Middleware())
	e.GET("/favorites", favoritesHandler.Handle, favoritesRL.Middleware())
	e.GET("/health", healthHandler.Handle)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), appmiddleware.ScrapeAuth(cfg.MetricsToken))

	// Start server with errgroup for graceful shutdown
	address := fmt.Sprintf(":%s", cfg.Port)
	slog.InfoContext(ctx, "starting user-hub server", "address", address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return backend.close()
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return otelShutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited properly")
}

// runHealthcheck performs a health check against the local server.
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8890"
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}
	return nil
}
