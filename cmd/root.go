package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gnis-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "gnis-cli",
	Short: "GNIS gazetteer retrieval and enrichment",
	Long: `Downloads USGS GNIS gazetteer archives per state (or nationally), caches the
extracted GeoPackages locally, joins and filters their layers, and optionally
enriches features with elevations from the USGS point query service.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if cacheDir, _ := cmd.Flags().GetString("cache-dir"); cacheDir != "" {
			cfg.Cache.Dir = cacheDir
		}

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("cache-dir", "", "override the archive cache directory")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
