package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/adapter"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/api/middleware"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/api/server"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/config"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/ledger"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/logger"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/messaging"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/providers/jetstream"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/ratelimit"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/relay"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadRelayConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "relay",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting health ledger relay")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("dsn", cfg.Database.DSN()))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Migrate ledger tables
	if err := store.Migrate(db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}

	// Initialize store and adapters
	dataStore := store.NewPGStore(db)
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	// Connect to NATS JetStream for audit events. The ledger runs without it;
	// publish failures are logged, never fatal to a mutation.
	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = jetstream.NewPublisher(jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		defer publisher.Close()
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL))
	} else {
		logger.WarnCtx(ctx, "NATS URL not configured, audit events will not be published")
	}

	// Build the ledger
	ledgerService := ledger.New(ledger.Config{
		AdminAddresses:   cfg.Ledger.AdminAddresses,
		AuditorAddresses: cfg.Ledger.AuditorAddresses,
	}, dataStore, clock, publisher)

	// Build the relayer on top of the ledger dispatcher
	gasPrice, ok := new(big.Int).SetString(cfg.Relay.GasPriceWei, 10)
	if !ok {
		logger.FatalCtx(ctx, "Invalid gas price", zap.String("gas_price_wei", cfg.Relay.GasPriceWei))
	}
	relayerBalance := parseWei(ctx, "relayer_balance_wei", cfg.Relay.RelayerBalanceWei)
	poolBalance := parseWei(ctx, "pool_balance_wei", cfg.Relay.PoolBalanceWei)

	dispatcher := relay.NewDispatcher(ledgerService)
	relayer := relay.NewRelayer(relay.Config{
		Domain: relay.SigningDomain{
			Name:              domain.RELAY_DOMAIN_NAME,
			Version:           domain.RELAY_DOMAIN_VERSION,
			ChainID:           cfg.Relay.ChainID,
			VerifyingContract: cfg.Relay.VerifyingContract,
		},
		MaxGasPerCall:     cfg.Relay.MaxGasPerCall,
		GasPriceWei:       gasPrice,
		RelayerBalanceWei: relayerBalance,
		PoolBalanceWei:    poolBalance,
		Workers:           cfg.Relay.Workers,
		QueueSize:         cfg.Relay.QueueSize,
	}, dataStore, dispatcher, clock)
	defer relayer.Stop()

	// Per-signer submission throttle; the relay runs open when not configured
	var throttle ratelimit.Throttle
	if cfg.Throttle.RedisAddr != "" {
		redisClient := adapter.NewRedisClient(cfg.Throttle.RedisAddr, cfg.Throttle.RedisPassword, cfg.Throttle.RedisDB)
		throttle, err = ratelimit.NewThrottle(cfg.Throttle, redisClient, clock)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to initialize throttle", zap.Error(err))
		}
		defer throttle.Close()
	} else {
		logger.WarnCtx(ctx, "Throttle not configured, relay submissions are unthrottled")
	}

	// The authenticated operator routes act as the first configured admin
	operatorAddress := ""
	if len(cfg.Ledger.AdminAddresses) > 0 {
		operatorAddress = cfg.Ledger.AdminAddresses[0]
	}

	// Create server config
	serverConfig := server.Config{
		Debug:           cfg.Debug,
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:    time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:     time.Duration(cfg.Server.IdleTimeout) * time.Second,
		OperatorAddress: operatorAddress,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}

	// Create and start server
	srv := server.New(serverConfig, ledgerService, relayer, throttle)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("Relay server stopped")
}

// parseWei parses a decimal wei amount, treating empty as zero
func parseWei(ctx context.Context, name, raw string) *big.Int {
	if raw == "" {
		return new(big.Int)
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		logger.FatalCtx(ctx, "Invalid wei amount", zap.String(name, raw))
	}
	return v
}
