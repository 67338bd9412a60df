// simcat searches and browses a catalog of training simulations.
//
// Usage:
//
//	simcat serve [--config=<path>]
//	simcat search [--topic=<t>]... [--role=<r>]... [--week=<w>]... [--type=<t>]... [--difficulty=<d>]... [--policy=tiered|flat] [--json]
//	simcat browse [--log-file=<path>]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/simcat/internal/adapters/source"
	"github.com/okian/simcat/internal/config"
	"github.com/okian/simcat/pkg/logger"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "simcat",
	Short: "Search and browse the simulation catalog",
	Long: "simcat loads a catalog of training simulations and ranks them by how\n" +
		"well their topics, roles and weeks match a selection.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides "+config.EnvConfigFile+")")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadConfig loads configuration and applies its log level.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.LoadFile(ctx, configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// newSource picks the catalog source named by cfg: the HTTP backend, a local
// file, or the embedded seed catalog.
func newSource(cfg *config.Config, log logger.Logger) (source.Source, error) {
	switch {
	case cfg.SourceURL != "":
		src, err := source.NewHTTPSource(cfg.SourceURL,
			source.WithTimeout(cfg.FetchTimeout()),
			source.WithRetries(cfg.FetchRetries),
			source.WithRate(cfg.FetchRatePerSec),
			source.WithSourceLogger(log.Named("source")),
		)
		if err != nil {
			return nil, err
		}
		return src, nil
	case cfg.SourceFile != "":
		return source.NewFileSource(cfg.SourceFile), nil
	default:
		return source.SeedSource{}, nil
	}
}
