package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-ledger/config"
	"wallet-ledger/internal/adapter/conversion"
	httpHandler "wallet-ledger/internal/adapter/http/handler"
	"wallet-ledger/internal/adapter/messaging/kafka"
	pgStorage "wallet-ledger/internal/adapter/storage/postgres"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("WLT_CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("conversion", cfg.Conversion.Mode).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("Starting wallet ledger")

	ctx := context.Background()

	// PostgreSQL
	if cfg.Database.AutoMigrate {
		if err := pgStorage.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Redis
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Repositories and stores
	userRepo := pgStorage.NewUserRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	ledgerRepo := pgStorage.NewLedgerRepo(pool)
	idempotencyRepo := pgStorage.NewIdempotencyRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)
	var rateLimitStore *redisStorage.RateLimitStore
	if cfg.Server.RateLimit {
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
	}

	// Currency conversion
	var converter ports.CurrencyConverter
	switch cfg.Conversion.Mode {
	case config.ConversionModeGRPC:
		grpcConverter, err := conversion.NewGRPCConverter(cfg.Conversion.Target, cfg.Conversion.Timeout, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create conversion client")
		}
		defer grpcConverter.Close()
		converter = grpcConverter
	default:
		converter = conversion.NewStaticConverter()
	}

	// Ledger events
	var publisher ports.EventPublisher
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Kafka producer")
		}
		publisher = producer
	}
	notifier, err := service.NewLedgerNotifier(publisher, cfg.Events.Workers, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger notifier")
	}

	// Services
	hashSvc := service.NewArgon2HashService(service.DefaultArgon2Params)
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	userSvc := service.NewUserService(userRepo, walletRepo, hashSvc, tokenSvc, transactor, log)
	walletSvc := service.NewWalletService(
		walletRepo,
		ledgerRepo,
		idempotencyRepo,
		idempotencyCache,
		converter,
		notifier,
		transactor,
		log,
	)
	historySvc := service.NewHistoryService(walletRepo, ledgerRepo)
	auditSvc := service.NewAuditService(auditRepo, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		UserSvc:        userSvc,
		WalletSvc:      walletSvc,
		HistorySvc:     historySvc,
		TokenSvc:       tokenSvc,
		AuditSvc:       auditSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(rdb),
		},
		Mode:   cfg.Server.Mode,
		Logger: log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// In-flight events drain before the producer and connections close.
	if err := notifier.Close(cfg.Server.ShutdownTimeout); err != nil {
		log.Warn().Err(err).Msg("Ledger notifier did not drain")
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("Kafka producer close failed")
		}
	}

	log.Info().Msg("Server exited")
}
