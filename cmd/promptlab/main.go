package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/lamim/promptlab/internal/config"
	"github.com/lamim/promptlab/internal/logging"
	"github.com/lamim/promptlab/internal/store"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const defaultConfigPath = "promptlab.toml"

var (
	configPath string
	envFile    string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "promptlab",
		Short: "PromptLab - story prompt experiment harness",
		Long: `PromptLab runs one story brief through eight prompting strategies,
scores every story with an LLM judge and keeps the results for ranking
and side-by-side comparison.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to environment file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		newRunCmd(),
		newHistoryCmd(),
		newLeaderboardCmd(),
		newCompareCmd(),
		newExportCmd(),
		newVariantsCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// app holds everything a command needs after bootstrap
type app struct {
	cfg     *config.Config
	secrets *config.Secrets
	logger  *slog.Logger
	logFile *os.File
	repo    *store.Repository
}

// bootstrap loads the env file and configuration, then opens the logger and run store
func bootstrap() (*app, error) {
	if envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "Warning: failed to load env file: %v\n", err)
			}
		} else if verbose {
			fmt.Fprintf(os.Stderr, "Loaded env file: %s\n", envFile)
		}
	}

	path := configPath
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}

	cfg, secrets, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	a := &app{cfg: cfg, secrets: secrets}
	if cfg.Storage.Driver == config.StorageMemory {
		a.logger = logging.New(os.Stderr, nil, logLevel)
	} else {
		a.logger, a.logFile, err = logging.SetupLogger(cfg.Storage.Dir, logLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to setup logger: %w", err)
		}
	}

	a.logger.Debug("PromptLab starting",
		"version", Version,
		"config", path,
		"storage", cfg.Storage.Driver,
		"data_dir", cfg.Storage.Dir)

	kv, err := store.Open(cfg.Storage, a.logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.repo, err = store.NewRepository(kv, cfg.Storage.Key, a.logger)
	if err != nil {
		_ = kv.Close()
		a.close()
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}

	return a, nil
}

func (a *app) close() {
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.logger.Error("Failed to close store", "error", err)
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Sync()
		_ = a.logFile.Close()
	}
}
