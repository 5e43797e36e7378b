package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foodpipe/foodpipe/internal/enrich"
)

var enrichBatchSize int

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich all unprocessed raw records in batches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		batchSize := enrichBatchSize
		if batchSize <= 0 {
			batchSize = cfg.Enrich.BatchSize
		}

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		orch := enrich.NewOrchestrator(st, st, batchSize)
		res, err := orch.Run(ctx)
		if err != nil {
			zap.L().Error("enrichment halted",
				zap.Int("batches", res.Batches),
				zap.Int("raw_processed", res.TotalRawProcessed),
				zap.Int("enriched_inserted", res.TotalEnrichedInserted),
				zap.Error(err),
			)
			return eris.Wrap(err, "run enrichment")
		}

		zap.L().Info("enrichment complete",
			zap.Int("batches", res.Batches),
			zap.Int("raw_processed", res.TotalRawProcessed),
			zap.Int("enriched_inserted", res.TotalEnrichedInserted),
		)
		return nil
	},
}

func init() {
	enrichCmd.Flags().IntVar(&enrichBatchSize, "batch-size", 0, "records per batch (default from config)")
	rootCmd.AddCommand(enrichCmd)
}
