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

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Dosada05/promotion-results/announce"
	"github.com/Dosada05/promotion-results/config"
	"github.com/Dosada05/promotion-results/db"
	"github.com/Dosada05/promotion-results/handlers"
	"github.com/Dosada05/promotion-results/live"
	"github.com/Dosada05/promotion-results/metrics"
	"github.com/Dosada05/promotion-results/repositories"
	api "github.com/Dosada05/promotion-results/routes"
	"github.com/Dosada05/promotion-results/services"
	"github.com/Dosada05/promotion-results/storage"
)

const metricsNamespace = "promotion"

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.ApplySchema(ctx, dbConn); err != nil {
		logger.Error("failed to apply database schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection established")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	resultsMetrics := metrics.NewResults(metricsNamespace, registry)

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	competitorRepo := repositories.NewPostgresCompetitorRepository(dbConn)
	championshipRepo := repositories.NewPostgresChampionshipRepository(dbConn)
	reignRepo := repositories.NewPostgresReignRepository(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	historyRepo := repositories.NewPostgresMatchHistoryRepository(dbConn)
	announcementRepo := repositories.NewPostgresAnnouncementRepository(dbConn)
	transactor := repositories.NewPostgresTransactor(dbConn, logger)
	logger.Info("Repositories initialized")

	sinks, closeSinks, err := buildSinks(ctx, cfg, wsHub, announcementRepo, logger)
	if err != nil {
		logger.Error("failed to initialize announcement sinks", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeSinks()
	dispatcher := announce.NewDispatcher(sinks, cfg.AnnouncementTimeout, resultsMetrics, logger)

	// Инициализация сервисов
	resultsService := services.NewResultsService(
		transactor,
		eventRepo,
		competitorRepo,
		championshipRepo,
		reignRepo,
		historyRepo,
		dispatcher,
		resultsMetrics,
		logger,
	)
	eventService := services.NewEventService(eventRepo)
	competitorService := services.NewCompetitorService(competitorRepo, historyRepo)
	championshipService := services.NewChampionshipService(championshipRepo, reignRepo)
	logger.Info("Services initialized")

	// Планировщик отчёта о событиях без результатов
	reporter := services.NewPendingResultsReporter(eventService, resultsMetrics, logger)
	scheduler, err := services.StartPendingResultsScheduler(ctx, reporter, cfg.PendingResultsInterval)
	if err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()
	logger.Info("pending results scheduler started", slog.Duration("interval", cfg.PendingResultsInterval))

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Results:       handlers.NewResultsHandler(resultsService),
		Events:        handlers.NewEventHandler(eventService),
		Competitors:   handlers.NewCompetitorHandler(competitorService),
		Championships: handlers.NewChampionshipHandler(championshipService),
		WebSocket:     handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
	}, cfg.CORSAllowedOrigins, registry)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

// buildSinks always stores and broadcasts announcements; NATS, Discord and R2 are
// enabled only when configured.
func buildSinks(
	ctx context.Context,
	cfg *config.Config,
	hub *live.Hub,
	announcementRepo repositories.AnnouncementRepository,
	logger *slog.Logger,
) ([]announce.Sink, func(), error) {
	sinks := []announce.Sink{
		announce.NewStoreSink(announcementRepo),
		announce.NewHubSink(hub),
	}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("promotion-results"))
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect to nats: %w", err)
		}
		closers = append(closers, func() { _ = nc.Drain() })
		sinks = append(sinks, announce.NewNATSSink(nc, cfg.NATSSubject))
		logger.Info("NATS announcement sink enabled", slog.String("subject", cfg.NATSSubject))
	}

	if cfg.DiscordEnabled() {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("create discord session: %w", err)
		}
		sinks = append(sinks, announce.NewDiscordSink(session, cfg.DiscordChannelID))
		logger.Info("Discord announcement sink enabled", slog.String("channel_id", cfg.DiscordChannelID))
	}

	if cfg.R2.Configured() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, cfg.R2)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("initialize Cloudflare R2 uploader: %w", err)
		}
		sinks = append(sinks, announce.NewArchiveSink(uploader))
		logger.Info("Cloudflare R2 announcement archive enabled", slog.String("bucket", cfg.R2.BucketName))
	}

	return sinks, closeAll, nil
}
