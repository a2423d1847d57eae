package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hivefund/ledger/internal/config"
	"github.com/hivefund/ledger/pkg/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// configLoader loads the configuration and installs the logger.
type configLoader func() (*config.Config, error)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "hivefund-ledger",
		Short:        "HiveFund campaign funding ledger",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default ./hivefund.yaml if present)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logging.Setup(cfg.Log.Level, cfg.Log.Format)
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newSweepCmd(load),
		newMigrateCmd(load),
		newTokenCmd(load),
	)
	return root
}
