package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/easysalon/salon-concierge/internal/api/router"
	"github.com/easysalon/salon-concierge/internal/assistant"
	"github.com/easysalon/salon-concierge/internal/booking"
	appconfig "github.com/easysalon/salon-concierge/internal/config"
	"github.com/easysalon/salon-concierge/internal/extractor"
	"github.com/easysalon/salon-concierge/internal/observability/metrics"
	"github.com/easysalon/salon-concierge/internal/salon"
	"github.com/easysalon/salon-concierge/internal/webchat"
	"github.com/easysalon/salon-concierge/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting salon-concierge API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Salon backend
	salonClient := salon.NewClient(cfg.SalonAPIKey, logger, salon.WithBaseURL(cfg.SalonAPIBaseURL))
	gateway := salon.NewGateway(salonClient)
	availability := salon.NewAvailabilityChecker(salonClient, logger)
	bookings := salon.NewBookingDirectory(salonClient, logger)

	// LLM client (OpenAI-compatible endpoint)
	oaCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oaCfg.BaseURL = cfg.OpenAIBaseURL
	}
	llm := openai.NewClientWithConfig(oaCfg)

	fieldExtractor := extractor.New(llm, cfg.OpenAIModel, logger)

	// Redis (optional): session snapshots and webchat transcripts
	var (
		snapshots *booking.SnapshotStore
		history   webchat.HistoryStore
	)
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("redis unreachable, continuing without persistence", "error", err)
		} else {
			snapshots = booking.NewSnapshotStore(rdb, nil)
			history = webchat.NewRedisHistory(rdb, nil)
		}
	}

	m := metrics.NewConciergeMetrics(nil)

	registry := booking.NewRegistry(booking.RegistryConfig{
		Session: booking.SessionConfig{
			Catalog:          gateway,
			Gateway:          gateway,
			Extractor:        fieldExtractor,
			Logger:           logger,
			DefaultBranchID:  cfg.DefaultBranchID,
			DefaultServiceID: cfg.DefaultServiceID,
		},
		IdleTimeout: cfg.SessionIdleTimeout,
		Logger:      logger,
	})
	registry.StartSweeper(ctx, cfg.SessionSweepInterval)

	index := assistant.NewCatalogIndex(llm, cfg.OpenAIEmbeddingModel, logger)
	go func() {
		ingestCtx, ingestCancel := context.WithTimeout(ctx, 2*time.Minute)
		defer ingestCancel()
		if err := index.IngestCatalog(ingestCtx, salonClient); err != nil {
			logger.Warn("catalog ingestion failed, Q&A runs without catalog grounding", "error", err)
		}
	}()

	svc := assistant.New(assistant.Config{
		Registry:     registry,
		Snapshots:    snapshots,
		Chat:         llm,
		Search:       index,
		Availability: availability,
		Bookings:     bookings,
		Extractor:    fieldExtractor,
		Model:        cfg.OpenAIModel,
		Logger:       logger,
		Metrics:      m,
	})

	webchatHandler := webchat.NewHandler(svc, history, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		Webchat:            webchatHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MessageRatePerSec:  2,
		MessageBurst:       5,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
