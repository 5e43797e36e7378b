package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foodpipe/foodpipe/internal/loader"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create staging and sink schemas and seed reference tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		ld, err := loader.Open(cfg.Sink.Path)
		if err != nil {
			return eris.Wrap(err, "open sink")
		}
		defer ld.Close()

		if err := ld.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate sink")
		}
		if err := ld.Seed(ctx); err != nil {
			return eris.Wrap(err, "seed sink")
		}

		zap.L().Info("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
