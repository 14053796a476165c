package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tinoosan/bukubesar/internal/config"
	httpapi "github.com/tinoosan/bukubesar/internal/httpapi/v1"
	"github.com/tinoosan/bukubesar/internal/service/account"
	"github.com/tinoosan/bukubesar/internal/service/entries"
	"github.com/tinoosan/bukubesar/internal/service/posting"
	"github.com/tinoosan/bukubesar/internal/service/txn"
	"github.com/tinoosan/bukubesar/internal/storage"
	"github.com/tinoosan/bukubesar/internal/storage/memory"
	pgstore "github.com/tinoosan/bukubesar/internal/storage/postgres"
)

// readyStore is what the server needs from a backend.
type readyStore interface {
	storage.Store
	storage.ReadyChecker
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	var store readyStore
	var closeFn func()

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = pg.Close
		if cfg.DevSeed {
			if err := pg.SeedDev(ctx, cfg.NetIncomeAccount); err != nil {
				logger.Error("dev seed failed", "err", err)
			} else {
				logger.Info("DEV seed (postgres)", "net_income_account", cfg.NetIncomeAccount)
			}
		}
		store = pg
		logger.Info("storage backend: postgres")
	} else {
		mem := memory.New()
		// the memory store starts empty on every boot, so it is always seeded
		mem.SeedDev(cfg.NetIncomeAccount)
		logger.Info("DEV seed (memory)", "net_income_account", cfg.NetIncomeAccount)
		store = mem
		logger.Info("storage backend: memory")
	}

	coord := txn.New(store, cfg.Retry, logger)
	handler := httpapi.New(httpapi.Deps{
		Posting: posting.New(coord, posting.Options{
			Location:         cfg.Location,
			NetIncomeAccount: cfg.NetIncomeAccount,
			Logger:           logger,
		}),
		Accounts: account.New(coord, nil),
		Entries:  entries.New(coord, cfg.Location, nil),
		Ready:    store,
		Auth:     cfg.Auth,
		Location: cfg.Location,
	}, logger).Handler()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bukubesar listening", "addr", srv.Addr, "timezone", cfg.Location.String(), "auth", cfg.Auth.Enabled())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
	case err := <-errCh:
		logger.Error("server error", "err", err)
	}
	if closeFn != nil {
		closeFn()
	}
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
