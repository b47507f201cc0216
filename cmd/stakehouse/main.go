package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"StakeHouse/internal/config"
	"StakeHouse/internal/model"
	"StakeHouse/internal/storage"
)

var Version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	rootCmd := &cobra.Command{
		Use:     "stakehouse",
		Short:   "StakeHouse - household tasks with money on the line",
		Version: Version,
	}
	rootCmd.PersistentFlags().String("config", "", "config file (default $CONFIG_PATH or configs/config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(ledgerCmd())
	rootCmd.AddCommand(fundsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the config path from the flag, then CONFIG_PATH.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			cfgPath = v
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// loadState reads the persisted snapshot for the read-only commands.
func loadState(cfg *config.Config) (*model.State, error) {
	p, err := storage.Open(cfg.Storage.Driver, cfg.Storage.SQLitePath, cfg.Storage.StateFile)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	defer p.Close()
	return p.Load()
}
