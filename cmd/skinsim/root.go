package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Faultbox/midgard-skin/internal/assets"
	"github.com/Faultbox/midgard-skin/internal/config"
	"github.com/Faultbox/midgard-skin/internal/logger"
)

// Version is the skinsim release.
const Version = "0.1.0"

var (
	configFlags *config.Flags
	searchDirs  []string
)

var rootCmd = &cobra.Command{
	Use:   "skinsim",
	Short: "Simulate skinned avatar models and inspect their render items",
	Long: `skinsim evaluates skeletal skinning for an avatar, including the cauterized
first-person variant, and publishes the results to an in-memory render scene.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	configFlags = config.BindFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().StringSliceVar(&searchDirs, "assets", nil, "Extra directories to search for avatar files")
}

// setup loads the config and initializes logging.
func setup() (*config.Config, error) {
	cfg, err := config.Load(configFlags)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("config: %+v", cfg)
	return cfg, nil
}

// loadAvatar resolves the configured avatar against the search directories.
func loadAvatar(cfg *config.Config) (*assets.Avatar, error) {
	m := assets.NewManager()
	defer m.Close()
	for _, dir := range searchDirs {
		if err := m.AddRoot(dir); err != nil {
			return nil, err
		}
	}
	return m.LoadAvatar(cfg.Avatar.File)
}
