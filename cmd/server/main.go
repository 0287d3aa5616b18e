package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/PortNumber53/cohost-tasks/backend/internal/auth"
	"github.com/PortNumber53/cohost-tasks/backend/internal/config"
	"github.com/PortNumber53/cohost-tasks/backend/internal/entitlement"
	"github.com/PortNumber53/cohost-tasks/backend/internal/extract"
	"github.com/PortNumber53/cohost-tasks/backend/internal/handlers"
	"github.com/PortNumber53/cohost-tasks/backend/internal/httpserver"
	"github.com/PortNumber53/cohost-tasks/backend/internal/llm"
	"github.com/PortNumber53/cohost-tasks/backend/internal/logging"
	"github.com/PortNumber53/cohost-tasks/backend/internal/metrics"
	"github.com/PortNumber53/cohost-tasks/backend/internal/migrations"
	"github.com/PortNumber53/cohost-tasks/backend/internal/store"
	stripeclient "github.com/PortNumber53/cohost-tasks/backend/internal/stripe"
	"github.com/PortNumber53/cohost-tasks/backend/internal/tasks"
)

func main() {
	// Best-effort: load environment variables from .env-style files in local
	// development. These calls are safe to ignore in production environments.
	_ = godotenv.Load(
		"../.env",
		".env",
	)

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.Logger()
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := logging.Init(logging.Config{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		Component: "server",
	})
	defer logging.Flush()

	if err := run(cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		logging.Flush()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	logDBTarget(logger, cfg.DatabaseURL)
	configureDB(db)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return err
	}

	if err := runMigrationsWithDirtyFix(logger, db); err != nil {
		return err
	}

	st, err := store.New(db)
	if err != nil {
		return err
	}

	m := metrics.New()
	entitlements := entitlement.NewManager(st, m)

	resolver, err := auth.NewResolver(cfg.Auth)
	if err != nil {
		return err
	}

	var checkout handlers.CheckoutCreator
	if cfg.Stripe.SecretKey != "" && cfg.Stripe.PriceID != "" {
		checkout = stripeclient.NewCheckoutClient(cfg.Stripe.SecretKey, cfg.Stripe.PriceID, cfg.Stripe.FrontendURL)
	} else {
		logger.Warn().Msg("stripe: STRIPE_SECRET_KEY or STRIPE_PRICE_ID not set; checkout disabled")
	}

	var verifier handlers.EventVerifier
	if cfg.Stripe.WebhookSecret != "" {
		verifier = stripeclient.NewVerifier(cfg.Stripe.WebhookSecret)
	} else {
		logger.Warn().Msg("stripe: STRIPE_WEBHOOK_SECRET not set; webhook disabled")
	}

	var generator extract.Generator
	if cfg.Anthropic.APIKey != "" {
		client, err := llm.NewClient(llm.ClientConfig{
			APIKey:  cfg.Anthropic.APIKey,
			Model:   cfg.Anthropic.Model,
			BaseURL: cfg.Anthropic.BaseURL,
		})
		if err != nil {
			return err
		}
		logger.Info().Str("model", client.Model()).Msg("llm: task extraction enabled")
		generator = client
	} else {
		logger.Warn().Msg("llm: ANTHROPIC_API_KEY not set; task extraction will fail")
	}

	srv := httpserver.New(cfg, httpserver.Deps{
		Logger:   logger,
		DB:       st,
		Resolver: resolver,
		Tasks:    tasks.NewService(st),
		Status:   entitlements,
		Extract:  extract.NewPipeline(entitlements, generator, extract.NewLimiter(cfg.ExtractRatePerMinute), m),
		Stripe:   handlers.NewStripeHandler(checkout, verifier, entitlements, m),
		Metrics:  m,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.ServerAddress).Str("auth_mode", cfg.Auth.Mode).Msg("backend starting")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logger.Info().Msg("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
			return err
		}
		return nil
	})

	return g.Wait()
}

func configureDB(db *sql.DB) {
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
}

func runMigrationsWithDirtyFix(logger zerolog.Logger, db *sql.DB) error {
	err := migrations.Up(db)
	if err == nil {
		return nil
	}
	if !strings.Contains(err.Error(), "Dirty database version") {
		return err
	}

	logger.Warn().Err(err).Msg("migrations: dirty database detected, attempting to fix")
	if fixErr := migrations.FixDirtyDatabase(db); fixErr != nil {
		logger.Error().Err(fixErr).Msg("migrations: failed to fix dirty database")
		return err
	}
	return migrations.Up(db)
}

func logDBTarget(logger zerolog.Logger, dsn string) {
	// Avoid logging secrets: only log hostname + database path.
	u, err := url.Parse(dsn)
	if err != nil {
		logger.Info().Err(err).Msg("db: configured (dsn parse error)")
		return
	}
	logger.Info().Str("host", u.Hostname()).Str("db", strings.TrimPrefix(u.Path, "/")).Msg("db: target")
}
