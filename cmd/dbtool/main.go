package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/PortNumber53/cohost-tasks/backend/internal/config"
	"github.com/PortNumber53/cohost-tasks/backend/internal/logging"
	"github.com/PortNumber53/cohost-tasks/backend/internal/migrations"
)

var logger zerolog.Logger

var rootCmd = &cobra.Command{
	Use:   "dbtool",
	Short: "Manage the task database schema",
	Long: `Apply and repair schema migrations against DATABASE_URL.

Running dbtool without a subcommand is the same as "dbtool up".`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.Init(logging.Config{Format: "auto", Level: os.Getenv("LOG_LEVEL"), Component: "dbtool"})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(runUp)
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(runUp)
	},
}

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Roll a dirty schema version back one step",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *sql.DB) error {
			logger.Info().Msg("attempting to fix dirty database")
			if err := migrations.FixDirtyDatabase(db); err != nil {
				return err
			}
			logger.Info().Msg("database fixed")
			return nil
		})
	},
}

var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Set the recorded schema version without running migrations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version number %q", args[0])
		}
		return withDB(func(db *sql.DB) error {
			logger.Info().Uint64("version", v).Msg("forcing database version")
			return migrations.ForceVersion(db, uint(v))
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *sql.DB) error {
			v, dirty, err := migrations.Version(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(upCmd, fixCmd, forceCmd, versionCmd)
}

func main() {
	_ = godotenv.Load(
		"../.env",
		".env",
	)

	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("dbtool failed")
		os.Exit(1)
	}
}

func runUp(db *sql.DB) error {
	logger.Info().Msg("applying migrations")
	if err := migrations.Up(db); err != nil {
		return err
	}
	logger.Info().Msg("migrations applied")
	return nil
}

func withDB(fn func(db *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	return fn(db)
}
