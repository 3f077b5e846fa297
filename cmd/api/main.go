package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goviral/goviral/internal/api"
	"github.com/goviral/goviral/internal/config"
	"github.com/goviral/goviral/internal/core"
	"github.com/goviral/goviral/internal/db"
	"github.com/goviral/goviral/internal/logging"
	"github.com/goviral/goviral/internal/metrics"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "create-tenant" {
		createTenant(os.Args[2:])
		return
	}

	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	metrics.RegisterPgxPoolMetrics(pool)

	srv := api.NewServer(logger, pool, cfg)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}

func createTenant(args []string) {
	fs := flag.NewFlagSet("create-tenant", flag.ExitOnError)
	email := fs.String("email", "", "Tenant email (required)")
	name := fs.String("name", "", "Tenant display name (required)")
	country := fs.String("country", "US", "Two-letter country code")
	fs.Parse(args)

	if *email == "" || *name == "" {
		fmt.Fprintln(os.Stderr, "error: --email and --name are required")
		fmt.Fprintln(os.Stderr, "usage: api create-tenant --email <email> --name <name> [--country <cc>]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	svc := core.NewTenantService(pool)
	tenant, rawToken, err := svc.Create(ctx, *email, *name, *country)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to create tenant: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Tenant created successfully.\n\n")
	fmt.Printf("  Name:   %s\n", tenant.Name)
	fmt.Printf("  ID:     %s\n", tenant.ID)
	fmt.Printf("  Token:  %s\n\n", rawToken)
	fmt.Printf("Save this token - it will not be shown again.\n")
}
