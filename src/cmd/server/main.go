package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/ledger-engine/src/internal/adapter/http/controller"
	"github.com/api-sage/ledger-engine/src/internal/adapter/http/middleware"
	"github.com/api-sage/ledger-engine/src/internal/adapter/http/router"
	"github.com/api-sage/ledger-engine/src/internal/adapter/repository/implementations"
	"github.com/api-sage/ledger-engine/src/internal/config"
	"github.com/api-sage/ledger-engine/src/internal/domain"
	"github.com/api-sage/ledger-engine/src/internal/logger"
	"github.com/api-sage/ledger-engine/src/internal/usecase/services"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := logger.Init(cfg.LogLevel, cfg.Env); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("ledger engine stopped with error", err, nil)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := implementations.Open(startupCtx, cfg.DatabaseDSN, implementations.PoolConfig{
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := implementations.RunMigrations(startupCtx, db, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	clock := domain.SystemClock{}
	txManager := implementations.NewTxManager(db)
	accountRepo := implementations.NewAccountRepository()
	transactionRepo := implementations.NewTransactionRepository()

	accountService := services.NewAccountService(clock, txManager, accountRepo)
	transactionService := services.NewTransactionService(clock, txManager, accountRepo, transactionRepo)
	balanceService := services.NewBalanceService(accountService, transactionService)
	transferService := services.NewTransferService(transactionService)

	mux := router.New(
		middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKey, cfg.ChannelKeyHash),
		controller.NewAccountController(accountService),
		controller.NewOperationController(balanceService),
		controller.NewTransferController(transferService),
		controller.NewTransactionController(transactionService),
		controller.NewHealthController(db),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           middleware.RequestID(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("ledger engine listening", logger.Fields{
			"addr": cfg.HTTPAddr,
			"env":  cfg.Env,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("ledger engine shutting down", logger.Fields{
			"timeout": cfg.ShutdownTimeout.String(),
		})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
