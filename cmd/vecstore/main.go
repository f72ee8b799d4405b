// Package main implements the vecstore CLI: a thin host over the namespace
// registry for storing and reading tenant vectors from the command line.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/viant/vecstore/config"
	"github.com/viant/vecstore/engine"
	"github.com/viant/vecstore/namespace"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:   "vecstore",
		Short: "Per-tenant vector storage",
		Long: `vecstore stores named float vectors in per-tenant namespaces backed by
SQLite or PostgreSQL.

Configuration is read from an optional YAML file and VECSTORE_* environment
variables, for example VECSTORE_DATABASE_DSN=/tmp/vectors.db.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	open := func() (*app, error) { return newApp(configPath) }
	root.AddCommand(newDemoCmd(open))
	root.AddCommand(newPutCmd(open))
	root.AddCommand(newGetCmd(open))
	root.AddCommand(newNamespacesCmd(open))
	root.AddCommand(newStatsCmd(open))
	return root
}

// app holds the resources shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *sql.DB
	dialect  engine.Dialect
	registry *namespace.Registry
}

type appFactory func() (*app, error)

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	db, dialect, err := engine.Open(cfg.Database)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	registry, err := namespace.NewRegistry(db, dialect,
		namespace.WithLogger(logger),
		namespace.WithDimension(cfg.Vector.Dimension),
	)
	if err != nil {
		_ = db.Close()
		_ = logger.Sync()
		return nil, err
	}
	logger.Debug("database opened",
		zap.String("driver", dialect.Name()),
		zap.Int("dimension", cfg.Vector.Dimension),
	)
	return &app{cfg: cfg, logger: logger, db: db, dialect: dialect, registry: registry}, nil
}

func (a *app) Close() error {
	err := a.db.Close()
	_ = a.logger.Sync()
	return err
}

func buildLogger(cfg config.Log) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level: %w", config.ErrInvalidConfig, err)
	}
	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
