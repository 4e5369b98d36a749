package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"promptvault/internal/auth"
	"promptvault/internal/config"
	"promptvault/internal/handler"
	"promptvault/internal/metrics"
	"promptvault/internal/middleware"
	"promptvault/internal/repository"
	"promptvault/internal/service/versioning"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, closeLog, err := config.NewLogger(cfg, "server")
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"storage_driver", cfg.StorageDriver,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := repository.Open(ctx, cfg, repository.Options{}, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer storage.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Services
	differ := versioning.NewLineDiffer(cfg.DiffMaxLines)
	versionManager := versioning.NewVersionManager(
		storage.Documents,
		storage.Versions,
		storage.TxManager,
		differ,
		m,
		logger,
	)
	docService := versioning.NewDocumentService(storage.Documents, storage.TxManager, versionManager, logger)

	logger.Info("services initialized", "diff_max_lines", cfg.DiffMaxLines)

	routes := &handler.Routes{
		Health:    handler.NewHealthHandler(storage, storage.Driver, logger),
		Documents: handler.NewDocumentHandler(docService, logger),
		Versions:  handler.NewVersionHandler(versionManager, logger),
		Diff:      handler.NewDiffHandler(differ),
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}

	// Optional JWT auth
	var protect func(http.Handler) http.Handler
	if cfg.AuthEnabled() {
		jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		protect = middleware.Auth(jwtVerifier, logger)
	} else {
		logger.Warn("SUPABASE_URL not set, API routes are unauthenticated")
	}

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	routes.Register(mux, protect)

	// Order: CORS → Observe → Recovery → Routes
	var h http.Handler = mux
	h = middleware.Recovery(logger)(h)
	h = middleware.Observe(m, logger)(h)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOriginList(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
