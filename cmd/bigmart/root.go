package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mimir-aip/bigmart-predictor/pkg/config"
	"github.com/mimir-aip/bigmart-predictor/pkg/logging"
	"github.com/mimir-aip/bigmart-predictor/pkg/metadatastore"
	"github.com/mimir-aip/bigmart-predictor/pkg/mlmodel"
)

var (
	configPath string
	cfg        *config.Config
)

// rootCmd is the root command
var rootCmd = &cobra.Command{
	Use:   "bigmart",
	Short: "BigMart outlet sales predictor",
	Long: `Train and serve a regression model that estimates the sales of an item
at a BigMart outlet from product and store attributes.

Training reads the item, outlet and sales tables from a relational store,
compares gradient boosting, random forest and linear regression on a held-out
split and saves the best pipeline. Prediction loads that pipeline and scores
one record at a time.`,
	Example: `  # Load the XML exports into the database
  $ bigmart seed --dir ./data

  # Train once and save the best model
  $ bigmart train

  # Retrain every night at 02:00
  $ bigmart train --schedule "0 2 * * *"

  # Estimate sales with the form defaults
  $ bigmart predict --mrp 210.5 --outlet-type "Supermarket Type3"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// serviceName names log entries after the running subcommand, e.g. bigmart-train
func serviceName(cmd *cobra.Command) string {
	if cmd == rootCmd || !cmd.HasParent() {
		return rootCmd.Name()
	}
	return rootCmd.Name() + "-" + cmd.Name()
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := logging.InitLogger(loaded.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.GetLogger().SetService(serviceName(cmd))
		cfg = loaded
		return nil
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(aboutCmd)
}

// openService opens the run registry and builds the training service on it
func openService() (*mlmodel.Service, func(), error) {
	store, err := metadatastore.NewSQLiteStore(cfg.RegistryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open run registry: %w", err)
	}
	return mlmodel.NewService(cfg, store), func() { store.Close() }, nil
}
