package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/foodpipe/foodpipe/internal/loader"
)

var (
	itemsPage       int
	itemsNutriscore string
	itemsSearch     string
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List loaded products from the relational sink",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		ld, err := loader.Open(cfg.Sink.Path)
		if err != nil {
			return eris.Wrap(err, "open sink")
		}
		defer ld.Close()

		page, err := ld.ListItems(ctx, loader.ItemFilter{
			Page:       itemsPage,
			Nutriscore: itemsNutriscore,
			Search:     itemsSearch,
		})
		if err != nil {
			return eris.Wrap(err, "list items")
		}

		out, err := json.MarshalIndent(page, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal items")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	itemsCmd.Flags().IntVar(&itemsPage, "page", 1, "result page")
	itemsCmd.Flags().StringVar(&itemsNutriscore, "nutriscore", "", "filter by nutriscore letter (a-e)")
	itemsCmd.Flags().StringVar(&itemsSearch, "search", "", "substring search over name or code")
	rootCmd.AddCommand(itemsCmd)
}
