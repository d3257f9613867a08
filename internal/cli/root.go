// Package cli implements the textsetctl operator commands.
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/textset/internal/app"
	"github.com/kailas-cloud/textset/internal/config"
	domingest "github.com/kailas-cloud/textset/internal/domain/ingest"
	logpkg "github.com/kailas-cloud/textset/internal/logger"
)

// Ingester runs one upload through the pipeline.
type Ingester interface {
	Ingest(ctx context.Context, req domingest.Request) (domingest.Summary, error)
}

// IngesterFactory builds an Ingester from a config path ("" selects config/<ENV>.yaml).
// The returned func releases its resources.
type IngesterFactory func(ctx context.Context, configPath string) (Ingester, func(), error)

// NewRootCmd assembles the textsetctl command tree.
func NewRootCmd(factory IngesterFactory) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "textsetctl",
		Short:         "Operate the textset ingestion service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to YAML config (default: config/<ENV>.yaml)")

	root.AddCommand(
		newIngestCmd(factory, &configPath),
		newVersionCmd(),
	)
	return root
}

// Execute runs textsetctl against the configured store and provider.
func Execute(ctx context.Context) error {
	return NewRootCmd(DefaultIngester).ExecuteContext(ctx)
}

// DefaultIngester loads configuration and builds the full application stack.
func DefaultIngester(ctx context.Context, configPath string) (Ingester, func(), error) {
	// .env is optional
	_ = godotenv.Load()
	env := config.GetEnv()

	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return nil, nil, err
	}

	logger, err := logpkg.New(env, cfg.Logging.Level, "textsetctl")
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	stack, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return stack.Ingest, func() {
		stack.Close()
		_ = logger.Sync()
	}, nil
}
