package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foodpipe/foodpipe/internal/loader"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load enriched records into the relational sink",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		records, err := st.ListEnriched(ctx)
		if err != nil {
			return eris.Wrap(err, "list enriched")
		}

		ld, err := loader.Open(cfg.Sink.Path)
		if err != nil {
			return eris.Wrap(err, "open sink")
		}
		defer ld.Close()

		if err := ld.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate sink")
		}

		res, err := ld.Load(ctx, records)
		if err != nil {
			return eris.Wrap(err, "load records")
		}

		zap.L().Info("load complete",
			zap.Int("processed", res.TotalProcessed),
			zap.Int("inserted", res.TotalInserted),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
