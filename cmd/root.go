package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foodpipe/foodpipe/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "foodpipe",
	Short: "Food product scoring and normalization pipeline",
	Long:  "Collects raw product records from the Open Food Facts catalog, computes nutrient and environmental grades, and loads normalized rows into a relational store.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
