package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/langlyai/langly/internal/config"
	"github.com/langlyai/langly/internal/logger"
	"github.com/langlyai/langly/internal/store"
)

var (
	appCfg *config.Config
	appLog = logger.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "langly",
	Short: "Bilingual French lesson generator",
	Long: "Langly generates CEFR-aligned French lessons with English translations, " +
		"validates them against a strict schema and keeps them in a local SQLite store.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Log.Level = lvl
		}
		log, err := logger.New(cfg.Log.Options())
		if err != nil {
			return err
		}
		appCfg, appLog = cfg, log
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		appLog.Sync()
	},
}

// Execute runs the root command. ctx is canceled on interrupt.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides LANGLY_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ./langly.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(lessonCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path (LANGLY_DB or config file), then the default XDG
// path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if appCfg != nil && appCfg.DB != "" {
		return appCfg.DB, store.EnsureDir(appCfg.DB)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
