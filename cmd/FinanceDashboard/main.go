package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sebuszqo/FinanceDashboard/internal/config"
	database "github.com/sebuszqo/FinanceDashboard/internal/db"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/application"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/domain"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/infrastructure"
	"github.com/sebuszqo/FinanceDashboard/internal/finance/interfaces"
	"github.com/sebuszqo/FinanceDashboard/internal/logging"
	"github.com/sebuszqo/FinanceDashboard/internal/storage/memory"
	"github.com/sebuszqo/FinanceDashboard/internal/user"
)

// backend bundles the repositories and the transaction runner of one storage engine.
type backend struct {
	users      user.Repository
	categories domain.CategoryRepository
	expenses   domain.ExpenseRepository
	tx         database.Transactor
	health     HealthChecker
	close      func() error
}

func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	if cfg.DataBackend == config.BackendMemory {
		store := memory.NewStore()
		return &backend{
			users:      store.Users(),
			categories: store.Categories(),
			expenses:   store.Expenses(),
			tx:         store,
			health:     store,
			close:      func() error { return nil },
		}, nil
	}

	dbService, err := database.NewDBService(ctx, cfg.Postgres.ConnectionString, database.Options{
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: 30 * time.Minute,
	}, logger.With("component", "database"))
	if err != nil {
		return nil, fmt.Errorf("could not initialize database: %w", err)
	}
	if cfg.Postgres.RunMigrations {
		if err := dbService.RunMigrations(); err != nil {
			_ = dbService.Close()
			return nil, err
		}
	}
	return &backend{
		users:      user.NewUserRepository(dbService.DB),
		categories: infrastructure.NewCategoryRepository(dbService.DB),
		expenses:   infrastructure.NewExpenseRepository(dbService.DB),
		tx:         dbService,
		health:     dbService,
		close:      dbService.Close,
	}, nil
}

func newServer(cfg *config.Config, store *backend, logger *slog.Logger) *Server {
	userService := user.NewUserService(store.users, store.tx, logger, user.Options{
		BcryptCost:     cfg.BcryptCost,
		CheckEmailHost: cfg.EmailCheckHost,
	})
	userHandler := user.NewHandler(userService, logger)

	categoryService := application.NewCategoryService(store.categories, store.expenses, store.tx, logger,
		application.CategoryOptions{DeletePolicy: cfg.CategoryDeletePolicy})
	expenseService := application.NewExpenseService(store.expenses, store.categories, store.tx, logger,
		application.ExpenseOptions{})

	categoryHandler := interfaces.NewCategoryHandler(categoryService, interfaces.RespondJSON, interfaces.RespondError, logger)
	expenseHandler := interfaces.NewExpenseHandler(expenseService, categoryService, interfaces.RespondJSON, interfaces.RespondError, logger)

	server := NewServer(userHandler, categoryHandler, expenseHandler, store.health, logger)
	server.RegisterRoutes()
	return server
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n\n%s", os.Args[0], config.Usage())
	}
	flag.Parse()

	if err := run(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("missing configuration, update to start server: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			logger.Error("closing backend", "error", err)
		}
	}()

	// Orphan keeps expenses without a category, cascade deletes them.
	logger.Info("category delete policy", "policy", cfg.CategoryDeletePolicy, "backend", cfg.DataBackend)
	logger.Warn("caller identity is taken from the Email header without verification")

	server := newServer(cfg, store, logger)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Handler(cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
