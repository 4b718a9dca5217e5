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

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/financehero/ledger/internal/config"
	"github.com/financehero/ledger/internal/finance"
	"github.com/financehero/ledger/internal/httpapi"
	"github.com/financehero/ledger/internal/storage/memory"
	pgstore "github.com/financehero/ledger/internal/storage/postgres"
	"github.com/financehero/ledger/internal/storage/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	// Logger (slog to stdout). Level via LOG_LEVEL; format via LOG_FORMAT (json|text, default json)
	logger := buildLoggerFromEnv()
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	var deps httpapi.Deps
	var closeFn func()

	switch cfg.DataBackend {
	case "postgres":
		if cfg.MigrateOnStart {
			if err := pgstore.RunMigrations(cfg.DatabaseURL); err != nil {
				logger.Error("migrations failed", "err", err)
				os.Exit(1)
			}
		}
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "err", err)
			os.Exit(1)
		}
		closeFn = pg.Close
		if cfg.DevSeed {
			user, accs, err := pg.SeedDev(ctx)
			if err != nil {
				logger.Error("dev seed failed", "err", err)
			} else {
				logDevSeed(logger, "postgres", user, accs)
				printDevSeedBanner(user, accs)
			}
		}
		deps = storeDeps(pg)
		deps.Ready = pg
		logger.Info("storage backend: postgres")
	case "sqlite":
		st, err := sqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("failed to open sqlite database", "err", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		closeFn = func() { _ = st.Close() }
		if cfg.DevSeed {
			user, accs, err := st.SeedDev(ctx)
			if err != nil {
				logger.Error("dev seed failed", "err", err)
			} else {
				logDevSeed(logger, "sqlite", user, accs)
				printDevSeedBanner(user, accs)
			}
		}
		deps = storeDeps(st)
		deps.Ready = st
		logger.Info("storage backend: sqlite", "path", cfg.SQLiteDBPath)
	default:
		store := memory.New()
		user := finance.User{ID: uuid.New(), Email: "demo@financehero.com", Name: "Usuário Demo"}
		store.SeedUser(user)
		for _, c := range finance.DefaultCategories(user.ID) {
			store.SeedCategory(c)
		}
		accs := finance.DefaultAccounts(user.ID)
		for _, a := range accs {
			store.SeedAccount(a)
		}
		logDevSeed(logger, "memory", user, accs)
		printDevSeedBanner(user, accs)
		deps = storeDeps(store)
		logger.Info("storage backend: memory")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.New(deps, logger).Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("finance service listening", "addr", srv.Addr)
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

// storeDeps wires a single store implementing every repo/writer interface.
func storeDeps(st httpapi.Store) httpapi.Deps {
	return httpapi.Deps{
		TxRepo:    st,
		TxWriter:  st,
		AccRepo:   st,
		AccWriter: st,
		CatRepo:   st,
		CatWriter: st,
	}
}

// logDevSeed emits structured logs with useful IDs
func logDevSeed(l *slog.Logger, backend string, user finance.User, accs []finance.Account) {
	ids := map[string]string{}
	for _, a := range accs {
		key := strings.ToLower(string(a.Type)) + "_account_id"
		if _, taken := ids[key]; !taken {
			ids[key] = a.ID.String()
		}
	}
	l.Info("DEV seed ("+backend+")", "user_id", user.ID.String(), "ids", ids)
}

// printDevSeedBanner prints a simple banner to stdout for easy copy/paste of IDs
func printDevSeedBanner(user finance.User, accs []finance.Account) {
	fmt.Println("==================== DEV SEED ====================")
	fmt.Printf("user_id: %s\n", user.ID.String())
	for _, a := range accs {
		fmt.Printf("%s: %s\n", a.Name, a.ID.String())
	}
	fmt.Println("==================================================")
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch s {
	case "DEBUG", "debug":
		return slog.LevelDebug
	case "WARN", "WARNING", "warn", "warning":
		return slog.LevelWarn
	case "ERROR", "ERR", "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLoggerFromEnv() *slog.Logger {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))
	format := strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
