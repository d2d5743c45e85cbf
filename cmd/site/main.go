// Command site serves the Veas Acoustics website and runs its content
// maintenance tasks.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"veas/site/internal/config"
	"veas/site/internal/logging"
	"veas/site/internal/store"
)

var rootCmd = &cobra.Command{
	Use:           "site",
	Short:         "Veas Acoustics website server and content tools",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(syncAssetsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// appEnv is what every subcommand needs before doing its own work.
type appEnv struct {
	cfg    config.Config
	logger *zap.Logger
	db     *sql.DB
	store  *store.PostgresStore
}

func (r *appEnv) Close() {
	if r.db != nil {
		_ = r.db.Close()
	}
	_ = r.logger.Sync()
}

// setup loads configuration and the logger, then opens and migrates the
// database when withDB is set.
func setup(ctx context.Context, withDB bool) (*appEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return nil, err
	}
	rt := &appEnv{cfg: cfg, logger: logger}
	if !withDB {
		return rt, nil
	}

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := store.ApplyMigrations(ctx, db, store.Migrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	rt.db = db
	rt.store = store.NewPostgresStore(db)
	return rt, nil
}
