// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the faillink CLI.
// Subcommands crawl the bankruptcy listing, resolve and analyse annual
// accounts, look up enterprise details, and export what was stored.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "time/tzdata"

	"github.com/pdiddy/faillink/internal/secrets"
	"github.com/pdiddy/faillink/internal/store"
	"github.com/pdiddy/faillink/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets map[string]string

// logger receives diagnostics; progress goes to stdout.
var logger = slog.Default()

var rootCmd = &cobra.Command{
	Use:   "faillink",
	Short: "Bankruptcy listing crawler and annual-accounts analyser",
	Long: `faillink collects enterprise numbers from the Belgian bankruptcy listing,
resolves the latest annual accounts each enterprise deposited, and extracts
tangible fixed asset and stock figures from them. Filings without structured
data can be rendered and recognized with tesseract.

Results can be kept in a local SQLite database and exported to YAML, JSON,
or XLSX.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("secrets.loaded", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./faillink.yaml or ~/.config/faillink/faillink.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of credential files")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding faillink.db (default data)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log external tool invocations")

	_ = viper.BindPFlag("store.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("faillink")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "faillink"))
		}
	}

	viper.SetEnvPrefix("FAILLINK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles stage settings from the config file and
// environment, then fills missing credentials from the secrets directory.
// Zero values are left for each package to default.
func pipelineConfig() types.PipelineConfig {
	httpConfig := func(stage string) types.HTTPConfig {
		return types.HTTPConfig{
			Timeout:          viper.GetDuration(stage + ".timeout"),
			UserAgent:        viper.GetString(stage + ".user_agent"),
			RateLimitRetries: viper.GetInt(stage + ".rate_limit_retries"),
		}
	}

	cfg := types.PipelineConfig{
		Listing: types.ListingConfig{
			HTTPConfig: httpConfig("listing"),
			BaseURL:    viper.GetString("listing.base_url"),
			Language:   viper.GetString("listing.language"),
			ActType:    viper.GetString("listing.act_type"),
			MaxPages:   viper.GetInt("listing.max_pages"),
		},
		CBSO: types.CBSOConfig{
			HTTPConfig:      httpConfig("cbso"),
			BaseURL:         viper.GetString("cbso.base_url"),
			SubscriptionKey: viper.GetString("cbso.subscription_key"),
		},
		KBO: types.KBOConfig{
			HTTPConfig: httpConfig("kbo"),
			ServiceURL: viper.GetString("kbo.service_url"),
			Username:   viper.GetString("kbo.username"),
			Password:   viper.GetString("kbo.password"),
			Language:   viper.GetString("kbo.language"),
		},
		Raster: types.RasterConfig{
			Pdftoppm:   viper.GetString("raster.pdftoppm"),
			Scale:      viper.GetFloat64("raster.scale"),
			DPI:        viper.GetInt("raster.dpi"),
			ScratchDir: viper.GetString("raster.scratch_dir"),
		},
		OCR: types.OCRConfig{
			Backend:     types.OCRBackend(viper.GetString("ocr.backend")),
			Tesseract:   viper.GetString("ocr.tesseract"),
			Image:       viper.GetString("ocr.image"),
			Runtime:     viper.GetString("ocr.runtime"),
			PullImage:   viper.GetBool("ocr.pull_image"),
			Language:    viper.GetString("ocr.language"),
			Concurrency: viper.GetInt("ocr.concurrency"),
		},
		Store: types.StoreConfig{
			DataDir: viper.GetString("store.data_dir"),
		},
	}
	secrets.Apply(&cfg, loadedSecrets)
	return cfg
}

func openStore(cfg types.PipelineConfig) (*store.Store, error) {
	s, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}
	logger.Debug("store.opened", "path", s.Path())
	return s, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
