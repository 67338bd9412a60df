package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/internal/domain/scoring"
	"github.com/okian/simcat/internal/ui/browser"
	"github.com/okian/simcat/pkg/logger"
	"github.com/spf13/cobra"
)

var browseFlags struct {
	logFile string
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the catalog in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseFlags.logFile, "log-file", filepath.Join(os.TempDir(), "simcat-browse.log"), "File that receives log output while the browser owns the terminal")
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	f, err := os.OpenFile(browseFlags.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if err := logger.InitWithWriter(f); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log := logger.Get().Named("browse")
	src, err := newSource(cfg, log)
	if err != nil {
		return err
	}
	policy, err := scoring.ByName(cfg.ScoringPolicy, cfg.ScoringOptions()...)
	if err != nil {
		return err
	}

	load := func(ctx context.Context) (model.Catalog, error) {
		c, err := src.Load(ctx)
		if err != nil {
			log.Warn(ctx, "catalog load failed", logger.String("source", src.Name()), logger.Error(err))
			return model.Catalog{}, err
		}
		log.Info(ctx, "catalog loaded", logger.Int("simulations", len(c.Simulations)))
		return c, nil
	}

	log.Info(ctx, "starting browser", logger.String("source", src.Name()), logger.String("policy", policy.Name()))
	return browser.Run(ctx, load, browser.WithPolicy(policy))
}
