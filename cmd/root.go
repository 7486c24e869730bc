package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmmorks/chatter/internal/chattercore"
	"github.com/mmmorks/chatter/internal/config"
	"github.com/mmmorks/chatter/internal/docstore"
	"github.com/mmmorks/chatter/internal/logging"
)

var (
	cfg    *config.Config
	logger = zap.NewNop()
	core   *chattercore.Core

	configPath string
	storeURI   string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "chatter",
	Short: "A GraphQL API for users, posts and comments",
	Long: `Chatter serves a small GraphQL API for creating, reading, updating and
deleting users, posts and comments kept in a document store.

The store is chosen by URI:
  mongodb://host:27017/chatter    MongoDB
  bolt://./chatter.db             embedded bbolt file
  file://./data                   markdown files with YAML front matter`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(""); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg.ApplyEnv(os.LookupEnv)

		if storeURI != "" {
			cfg.Store.URI = storeURI
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if logFormat != "" {
			cfg.Log.Format = logFormat
		}

		logger, err = logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		return nil
	},
}

// openCore validates the configuration and connects to the store. Commands
// that need data call it from RunE.
func openCore(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	uri := cfg.StoreURI()
	store, err := docstore.Open(ctx, uri, docstore.Options{
		Database:       cfg.Store.Database,
		ConnectTimeout: cfg.Store.ConnectTimeout.Duration,
	})
	if err != nil {
		return fmt.Errorf("opening store %s: %w", docstore.Redact(uri), err)
	}

	core = chattercore.New(store, cfg.IDs.Length)
	logger.Debug("store opened", zap.String("uri", docstore.Redact(uri)))
	return nil
}

// closeCore releases the store if a command opened it.
func closeCore() {
	if core == nil {
		return
	}
	if err := core.Close(context.Background()); err != nil {
		logger.Warn("closing store", zap.Error(err))
	}
	core = nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ./"+config.ConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&storeURI, "store", "", "Store URI (overrides config and environment)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json or console")
}

// Execute runs the CLI and exits with status 1 on failure.
func Execute() {
	err := rootCmd.Execute()
	closeCore()
	if err != nil {
		logger.Error("command failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}
