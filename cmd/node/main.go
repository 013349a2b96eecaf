package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/peerbank/node/configs"
	"github.com/peerbank/node/internal/bank"
	"github.com/peerbank/node/internal/command"
	"github.com/peerbank/node/internal/peer"
	"github.com/peerbank/node/pkg"
	"github.com/peerbank/node/pkg/database"
)

// main initializes and runs the bank node.
func main() {
	// Initialize global logger with default configuration
	pkg.InitLogger()
	logger := pkg.Logger
	defer logger.Sync() // Ensure all buffered logs are flushed on exit

	// Load configuration from environment and optional config file
	cfg, err := configs.Load(logger)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Verify the database is reachable before binding the listener, and make
	// sure the accounts table exists.
	connector := database.NewConnector(logger, database.Config{
		Addr:     cfg.DbAddr,
		Name:     cfg.DbName,
		User:     cfg.DbUser,
		Password: cfg.DbPassword,
	})
	if err := connector.WaitReady(ctx, cfg.DbStartupTimeout); err != nil {
		logger.Fatal("database not reachable", zap.Error(err))
	}
	if err := ensureSchema(ctx, connector); err != nil {
		logger.Fatal("failed to prepare database schema", zap.Error(err))
	}

	// The node's own network address is its bank code.
	bankCode := cfg.ListenAddr

	registry := command.NewRegistry()
	registry.Register(command.NewBankAmount(logger))
	registry.Register(command.NewBankNumber(logger))
	registry.Register(command.NewBankCode(logger, bankCode))
	registry.Register(command.NewAccountCreate(logger, bankCode))
	registry.Register(command.NewAccountDeposit(logger, bankCode))
	registry.Register(command.NewAccountBalance(logger, bankCode))
	registry.Register(command.NewAccountRemove(logger, bankCode))
	registry.Register(command.NewAccountWithdrawal(logger, bankCode))

	// Each session gets its own dedicated database connection for its whole
	// lifetime; connections are never shared or pooled across peers.
	stores := func(ctx context.Context, sessionID string) (bank.Store, func(context.Context), error) {
		conn, err := connector.Connect(ctx)
		if err != nil {
			return nil, nil, err
		}
		release := func(ctx context.Context) {
			closeCtx, done := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer done()
			_ = conn.Close(closeCtx)
		}
		return bank.NewStore(conn, logger, sessionID), release, nil
	}

	host := peer.NewHost(logger, peer.Config{
		Addr:        cfg.ListenAddr,
		Port:        cfg.ListenPort,
		Backlog:     cfg.AcceptBacklog,
		IdleTimeout: cfg.IdleTimeout,
		RateLimit:   cfg.SessionRateLimit,
	}, registry, stores)

	adminSrv := startAdminServer(logger, cfg.MetricsAddr)

	hostErr := make(chan error, 1)
	go func() {
		hostErr <- host.Start(ctx)
	}()

	// Handle graceful shutdown on SIGINT or SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case osSignal := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", osSignal.String()))
	case err := <-hostErr:
		if err != nil {
			logger.Fatal("node failed to serve", zap.Error(err))
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	cancel()
	host.Shutdown(shutdownCtx)
	if adminSrv != nil {
		_ = adminSrv.Shutdown(shutdownCtx)
	}
	logger.Info("node shutdown completed")
}

// ensureSchema opens a short-lived connection just for the DDL.
func ensureSchema(ctx context.Context, connector *database.Connector) error {
	conn, err := connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	return database.EnsureSchema(ctx, conn)
}

// startAdminServer exposes /health and /metrics on a separate HTTP listener.
// Disabled when addr is empty.
func startAdminServer(logger *zap.Logger, addr string) *http.Server {
	if addr == "" {
		return nil
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{Addr: addr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin server stopped", zap.Error(err))
		}
	}()
	logger.Info("admin server listening", zap.String("addr", addr))
	return srv
}
