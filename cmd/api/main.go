package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"innkeep/internal/api"
	"innkeep/internal/config"
	"innkeep/internal/database"
	"innkeep/internal/domain"
	"innkeep/internal/events"
	"innkeep/internal/logging"
	"innkeep/internal/metrics"
	"innkeep/internal/notify"
	"innkeep/internal/reports"
	"innkeep/internal/service"
	"innkeep/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	bus := events.NewEventBus()
	hub := notify.NewHub(bus, redisClient, cfg.Redis.Channel, &logger)
	go hub.Run(ctx)

	notifier := initTelegram(cfg, &logger)
	exporter := reports.NewExporter(db, cfg.Exports.Path, &logger)

	syncWorker := initLedgerSync(ctx, cfg, db, &logger)
	var sync domain.SyncWorker
	if syncWorker != nil {
		sync = syncWorker
		go syncWorker.Start(ctx)
	}

	rentals := service.NewRentalService(db, bus, sync, notifier, &logger)
	stays := service.NewStayService(db, bus, &logger)
	food := service.NewFoodService(db, bus, notifier, &logger)
	halls := service.NewHallService(db, bus, &logger)

	if cfg.Scheduler.Enabled {
		sched := worker.NewScheduler(cfg.Scheduler, exporter, syncWorker, &logger)
		sched.Start()
		defer sched.Stop()
	}

	server := api.NewServer(cfg, api.Deps{
		Rentals:  rentals,
		Stays:    stays,
		Food:     food,
		Halls:    halls,
		DB:       db,
		Exporter: exporter,
		Hub:      hub,
	}, &logger)

	startMetrics(ctx, cfg, &logger)

	return serve(ctx, server, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initTelegram(cfg *config.Config, logger *zerolog.Logger) domain.StaffNotifier {
	if !cfg.Telegram.Enabled {
		return nil
	}

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.StaffChatID, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without staff notifications")
		return nil
	}

	logger.Info().Int64("chat_id", cfg.Telegram.StaffChatID).Msg("telegram notifier ready")
	return notifier
}

func initLedgerSync(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) *worker.SyncWorker {
	if cfg.Google.CredentialsFile == "" || cfg.Google.LedgerSpreadsheetID == "" {
		return nil
	}

	ledger, err := reports.NewSheetsLedger(ctx, cfg.Google.CredentialsFile, cfg.Google.LedgerSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("sheets init failed, continuing without ledger sync")
		return nil
	}

	logger.Info().Msg("sheets ledger connected")
	return worker.NewSyncWorker(db, ledger, worker.RetryPolicy{}, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, server *api.Server, logger *zerolog.Logger) error {
	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
