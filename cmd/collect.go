package main

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foodpipe/foodpipe/internal/model"
	"github.com/foodpipe/foodpipe/pkg/openfoodfacts"
)

const catalogSource = "openfoodfacts"

var (
	collectPage  int
	collectLimit int
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch one catalog page into the raw staging store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		limit := collectLimit
		if limit <= 0 {
			limit = cfg.Catalog.PageSize
		}

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		client := openfoodfacts.NewClient(
			openfoodfacts.WithBaseURL(cfg.Catalog.BaseURL),
			openfoodfacts.WithUserAgent(cfg.Catalog.UserAgent),
			openfoodfacts.WithRateLimit(cfg.Catalog.RatePerSec),
		)

		products, err := client.FetchPage(ctx, collectPage, limit)
		if err != nil {
			return eris.Wrap(err, "fetch catalog page")
		}

		inserted, skipped := 0, 0
		for _, raw := range products {
			sum := sha1.Sum(raw)

			var payload model.ProductPayload
			if err := json.Unmarshal(raw, &payload); err != nil {
				return eris.Wrap(err, "decode product payload")
			}

			ok, err := st.InsertRaw(ctx, model.SourceRecord{
				Source:    catalogSource,
				FetchedAt: time.Now().UTC(),
				RawHash:   hex.EncodeToString(sum[:]),
				Payload:   payload,
			})
			if err != nil {
				return eris.Wrap(err, "insert raw product")
			}
			if ok {
				inserted++
			} else {
				skipped++
			}
		}

		zap.L().Info("collect complete",
			zap.Int("page", collectPage),
			zap.Int("fetched", len(products)),
			zap.Int("inserted", inserted),
			zap.Int("skipped", skipped),
		)
		return nil
	},
}

func init() {
	collectCmd.Flags().IntVar(&collectPage, "page", 1, "catalog page to fetch")
	collectCmd.Flags().IntVar(&collectLimit, "limit", 0, "page size (default from config)")
	rootCmd.AddCommand(collectCmd)
}
