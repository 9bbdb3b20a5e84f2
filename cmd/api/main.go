package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openlease/lease-ledger/internal/adapter"
	"github.com/openlease/lease-ledger/internal/api/middleware"
	"github.com/openlease/lease-ledger/internal/api/rest"
	"github.com/openlease/lease-ledger/internal/api/server"
	"github.com/openlease/lease-ledger/internal/block"
	"github.com/openlease/lease-ledger/internal/config"
	"github.com/openlease/lease-ledger/internal/history"
	"github.com/openlease/lease-ledger/internal/lease"
	"github.com/openlease/lease-ledger/internal/logger"
	"github.com/openlease/lease-ledger/internal/overlay"
	"github.com/openlease/lease-ledger/internal/providers/ethereum"
	"github.com/openlease/lease-ledger/internal/rent"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create shutdown context with timeout
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "api-server",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Lease Ledger API")

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	// Connect to the ledger
	ethDialer := adapter.NewEthClientDialer()
	ethClient, err := ethDialer.Dial(ctx, cfg.Ledger.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial ledger RPC", zap.Error(err), zap.String("rpc_url", cfg.Ledger.RPCURL))
	}
	defer ethClient.Close()
	logger.InfoCtx(ctx, "Connected to ledger", zap.String("ledger_name", cfg.Ledger.LedgerName))

	// Build the transaction submitter. Without a key the API serves reads
	// only; lease transitions will be rejected at submission.
	var submitter adapter.TxSubmitter
	if cfg.Ledger.SubmitterKey != "" {
		key, err := crypto.HexToECDSA(cfg.Ledger.SubmitterKey)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to parse submitter key", zap.Error(err))
		}
		from := crypto.PubkeyToAddress(key.PublicKey)
		signer := types.LatestSignerForChainID(cfg.Ledger.ChainID())
		submitter = adapter.NewTxSubmitter(ethClient, from, func(_ context.Context, tx *types.Transaction) (*types.Transaction, error) {
			return types.SignTx(tx, signer, key)
		})
		logger.InfoCtx(ctx, "Submitter configured", zap.String("from", from.Hex()))
	} else {
		logger.WarnCtx(ctx, "No submitter key configured, running read-only")
	}

	// Create the ledger gateway
	gateway, err := ethereum.NewGateway(ethClient, submitter, ethereum.Config{
		ContractAddress:     cfg.Ledger.ContractAddress,
		ReceiptPollInterval: cfg.Ledger.ReceiptPollInterval,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create ledger gateway", zap.Error(err))
	}

	// Create the speculative prepay overlay. The redis client, when present,
	// also backs the API rate limiter.
	var overlayStore overlay.Store
	var redisClient *redis.Client
	switch cfg.Overlay.Backend {
	case "memory":
		overlayStore = overlay.NewMemStore(clockAdapter, cfg.Overlay.TTL)
		logger.InfoCtx(ctx, "Using in-memory prepay overlay")
	default:
		redisClient = adapter.NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		overlayStore = overlay.NewKVStore(adapter.NewRedisKV(redisClient), jsonAdapter, cfg.Overlay.TTL)
		logger.InfoCtx(ctx, "Using Redis prepay overlay", zap.String("address", cfg.Redis.Address))
	}

	// Wire the domain services
	engine := rent.NewEngine(overlayStore, clockAdapter)
	leaseStore := lease.NewStore(gateway, cfg.Worker.PoolSize)
	leaseService := lease.NewService(gateway, leaseStore, overlayStore, engine, clockAdapter, cfg.Ledger.ConfirmWait)

	blockProvider := block.NewProvider(ethereum.NewBlockFetcher(ethClient), block.Config{
		TTL:         cfg.Ledger.BlockTTL,
		StaleWindow: cfg.Ledger.BlockStaleWindow,
	}, clockAdapter)
	reconstructor := history.NewReconstructor(gateway, blockProvider)

	// Create REST handler
	restHandler := rest.NewHandler(leaseService, reconstructor, cfg.Ledger.StartBlock)

	// Create server config
	serverConfig := server.Config{
		Debug:          cfg.Debug,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	// Rate limiting needs redis to coordinate across replicas; with the
	// in-memory overlay backend it is disabled.
	var limiter gin.HandlerFunc
	if redisClient != nil {
		limiter = middleware.RateLimit(redisClient, middleware.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimitRPS,
			Burst:             cfg.Server.RateLimitBurst,
		})
	}

	// Create and start server
	srv := server.New(serverConfig, restHandler, middleware.AuthConfig{
		JWTPublicKey: cfg.Auth.JWTPublicKey,
		APIKeys:      cfg.Auth.APIKeys,
	}, limiter)

	// Start server in a goroutine
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

	// Shutdown server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	// Use non-context logger for final message since original ctx is canceled
	logger.Info("API server stopped")
}
