package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/foodpipe/foodpipe/internal/loader"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the relational sink by grade",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		ld, err := loader.Open(cfg.Sink.Path)
		if err != nil {
			return eris.Wrap(err, "open sink")
		}
		defer ld.Close()

		stats, err := ld.Stats(ctx)
		if err != nil {
			return eris.Wrap(err, "query stats")
		}

		out, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal stats")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
